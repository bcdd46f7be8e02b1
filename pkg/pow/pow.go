/*
Package pow implements proof-of-work nonce search for account registration
transactions.

Registration body is encoded with a zero nonce placeholder first, the miner
then tries nonces starting from 1 substituting the placeholder with their
compact encoding until SHA-512 of the resulting bytes has enough leading
zero bits.
*/
package pow

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/thepower/tpgo/pkg/crypto/hash"
	"github.com/thepower/tpgo/pkg/txerr"
)

// MaxDifficulty is the maximum supported difficulty in bits.
const MaxDifficulty = 30

// checkEvery is the number of nonces tried between context checks.
const checkEvery = 1 << 12

// placeholder is an encoded "nonce" map key followed by a zero value.
var placeholder = []byte{0xa5, 'n', 'o', 'n', 'c', 'e', 0x00}

var (
	// ErrNoPlaceholder is returned when encoded body has no nonce placeholder.
	ErrNoPlaceholder = fmt.Errorf("%w: no nonce placeholder", txerr.ErrEncoding)
	// ErrBadOffset is returned for nonce offsets outside of the body.
	ErrBadOffset = fmt.Errorf("%w: bad nonce offset", txerr.ErrConfiguration)
	// ErrExhausted is returned when no 32-bit nonce satisfies the difficulty.
	ErrExhausted = fmt.Errorf("%w: nonce space exhausted", txerr.ErrConfiguration)
)

// Request is a single nonce search job.
type Request struct {
	// Body is an encoded body with a single byte nonce placeholder.
	Body []byte
	// Offset is the placeholder position in Body.
	Offset int
	// Difficulty is the required number of leading zero bits.
	Difficulty int
}

// NonceOffset returns the position of the nonce placeholder value in the
// encoded body.
func NonceOffset(body []byte) (int, error) {
	i := bytes.Index(body, placeholder)
	if i < 0 {
		return 0, ErrNoPlaceholder
	}
	return i + len(placeholder) - 1, nil
}

// EncodeNonce returns compact encoding of n the same way the body codec
// encodes unsigned integers.
func EncodeNonce(n uint32) []byte {
	switch {
	case n <= 0x7f:
		return []byte{byte(n)}
	case n <= math.MaxUint8:
		return []byte{0xcc, byte(n)}
	case n <= math.MaxUint16:
		return binary.BigEndian.AppendUint16([]byte{0xcd}, uint16(n))
	default:
		return binary.BigEndian.AppendUint32([]byte{0xce}, n)
	}
}

// Check returns true if the nonce satisfies request difficulty.
func (r Request) Check(nonce uint32) bool {
	if r.validate() != nil {
		return false
	}
	d := hash.Sha512(splice(nil, r.Body, r.Offset, nonce))
	return hash.LeadingZeroBits(d[:]) >= r.Difficulty
}

func (r Request) validate() error {
	if r.Difficulty > MaxDifficulty {
		return fmt.Errorf("%w: %d bits, max %d", txerr.ErrDifficultyTooHigh, r.Difficulty, MaxDifficulty)
	}
	if r.Difficulty < 0 {
		return fmt.Errorf("%w: negative difficulty", txerr.ErrConfiguration)
	}
	if r.Offset < 0 || r.Offset >= len(r.Body) {
		return ErrBadOffset
	}
	return nil
}

// splice appends body with the placeholder at offset replaced by the nonce to
// buf.
func splice(buf []byte, body []byte, offset int, nonce uint32) []byte {
	buf = append(buf, body[:offset]...)
	buf = append(buf, EncodeNonce(nonce)...)
	return append(buf, body[offset+1:]...)
}

// Mine searches for the smallest positive nonce satisfying the request in the
// calling goroutine.
func Mine(ctx context.Context, r Request) (uint32, error) {
	if err := r.validate(); err != nil {
		return 0, err
	}
	buf := make([]byte, 0, len(r.Body)+4)
	for n := uint32(1); ; n++ {
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		buf = splice(buf[:0], r.Body, r.Offset, n)
		d := hash.Sha512(buf)
		if hash.LeadingZeroBits(d[:]) >= r.Difficulty {
			return n, nil
		}
		if n == math.MaxUint32 {
			return 0, ErrExhausted
		}
	}
}
