package hash

import (
	"crypto/sha256"
	"crypto/sha512"
	"math/bits"
)

// Sha256 hashes the incoming byte slice using the sha256 algorithm.
func Sha256(data []byte) [sha256.Size]byte {
	return sha256.Sum256(data)
}

// Sha256Concat hashes the concatenation of the given byte slices without
// allocating the joined buffer.
func Sha256Concat(parts ...[]byte) [sha256.Size]byte {
	var (
		res    [sha256.Size]byte
		hasher = sha256.New()
	)
	for _, p := range parts {
		_, _ = hasher.Write(p)
	}
	hasher.Sum(res[:0])
	return res
}

// Sha512 hashes the incoming byte slice using the sha512 algorithm.
func Sha512(data []byte) [sha512.Size]byte {
	return sha512.Sum512(data)
}

// LeadingZeroBits returns the number of leading zero bits in the digest.
func LeadingZeroBits(digest []byte) int {
	var n int
	for _, b := range digest {
		if b != 0 {
			return n + bits.LeadingZeros8(b)
		}
		n += 8
	}
	return n
}
