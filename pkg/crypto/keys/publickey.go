package keys

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/thepower/tpgo/pkg/txerr"
)

// PublicKeys is a list of public keys.
type PublicKeys []*PublicKey

// Contains checks whether passed param contained in PublicKeys.
func (keys PublicKeys) Contains(pKey *PublicKey) bool {
	for _, key := range keys {
		if key.Equal(pKey) {
			return true
		}
	}
	return false
}

// Unique returns set of public keys.
func (keys PublicKeys) Unique() PublicKeys {
	unique := PublicKeys{}
	for _, publicKey := range keys {
		if !unique.Contains(publicKey) {
			unique = append(unique, publicKey)
		}
	}
	return unique
}

// PublicKey represents a secp256k1 public key.
type PublicKey struct {
	key *secp256k1.PublicKey
}

// NewPublicKeyFromBytes decodes compressed (33 bytes) or uncompressed
// (65 bytes) public key.
func NewPublicKeyFromBytes(b []byte) (*PublicKey, error) {
	k, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", txerr.ErrCrypto, err)
	}
	return &PublicKey{key: k}, nil
}

// NewPublicKeyFromString returns a public key created from the given hex
// string.
func NewPublicKeyFromString(s string) (*PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", txerr.ErrCrypto, err)
	}
	return NewPublicKeyFromBytes(b)
}

// Bytes returns compressed representation of the public key. This is the form
// used on the wire.
func (p *PublicKey) Bytes() []byte {
	return p.key.SerializeCompressed()
}

// Equal returns true in case public keys are equal.
func (p *PublicKey) Equal(key *PublicKey) bool {
	if p == nil || key == nil {
		return p == key
	}
	return bytes.Equal(p.Bytes(), key.Bytes())
}

// String returns hex of the compressed key.
func (p *PublicKey) String() string {
	return hex.EncodeToString(p.Bytes())
}

// Base64 returns base64 of the compressed key, the form node settings use for
// validator keys.
func (p *PublicKey) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Bytes())
}

// Verify checks DER-encoded signature against the digest. Malformed signatures
// never verify.
func (p *PublicKey) Verify(signature []byte, digest []byte) bool {
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(digest, p.key)
}
