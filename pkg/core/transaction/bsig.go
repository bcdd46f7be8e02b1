package transaction

import (
	"errors"
	"fmt"

	"github.com/thepower/tpgo/pkg/crypto/hash"
	"github.com/thepower/tpgo/pkg/crypto/keys"
	"github.com/thepower/tpgo/pkg/io"
	"github.com/thepower/tpgo/pkg/txerr"
)

// WrapSignature builds a tagged signature blob: signature first, then the
// public key.
func WrapSignature(publicKey, signature []byte) ([]byte, error) {
	w := io.NewBufBinWriter()
	w.WriteTagged(TagSignature, signature)
	w.WriteTagged(TagPublicKey, publicKey)
	if w.Err != nil {
		return nil, fmt.Errorf("%w: %w", txerr.ErrEncoding, w.Err)
	}
	return w.Bytes(), nil
}

// ExtractTagged returns the value of the first field with the given tag.
func ExtractTagged(tag Tag, blob []byte) ([]byte, error) {
	v, err := io.FindTagged(tag, blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", txerr.ErrEncoding, err)
	}
	return v, nil
}

// SignPayload signs the payload with the key and returns a tagged signature
// blob. The signed digest is SHA-256 over the tagged public key followed by
// the payload.
func SignPayload(payload []byte, key *keys.PrivateKey) ([]byte, error) {
	w := io.NewBufBinWriter()
	w.WriteTagged(TagPublicKey, key.PublicKey().Bytes())
	if w.Err != nil {
		return nil, fmt.Errorf("%w: %w", txerr.ErrEncoding, w.Err)
	}
	extra := w.Bytes()
	sig := key.SignHash(hash.Sha256Concat(extra, payload))

	w = io.NewBufBinWriter()
	w.WriteTagged(TagSignature, sig)
	w.WriteBytes(extra)
	if w.Err != nil {
		return nil, fmt.Errorf("%w: %w", txerr.ErrEncoding, w.Err)
	}
	return w.Bytes(), nil
}

// CheckSignature verifies a tagged signature blob against the payload. The
// digest covers every field of the blob except the signature itself, in blob
// order, followed by the payload.
func CheckSignature(payload []byte, bsig []byte) error {
	var (
		r     = io.NewBinReaderFromBuf(bsig)
		extra = io.NewBufBinWriter()
		sig   []byte
		pub   []byte
	)
	for _, f := range r.ReadAllTagged() {
		switch {
		case f.Tag == TagSignature && sig == nil:
			sig = f.Value
			continue
		case f.Tag == TagPublicKey && pub == nil:
			pub = f.Value
		}
		extra.WriteTagged(f.Tag, f.Value)
	}
	if r.Err != nil {
		return fmt.Errorf("%w: %w", txerr.ErrEncoding, r.Err)
	}
	if sig == nil || pub == nil {
		return fmt.Errorf("%w: %w", txerr.ErrEncoding, errors.New("signature blob lacks signature or public key"))
	}
	key, err := keys.NewPublicKeyFromBytes(pub)
	if err != nil {
		return err
	}
	digest := hash.Sha256Concat(extra.Bytes(), payload)
	if !key.Verify(sig, digest[:]) {
		return txerr.ErrInvalidSignature
	}
	return nil
}

// VerifySingle returns true if the tagged signature blob is valid for the
// payload.
func VerifySingle(payload []byte, bsig []byte) bool {
	return CheckSignature(payload, bsig) == nil
}

// SignerKey returns the public key embedded into a signature blob.
func SignerKey(bsig []byte) ([]byte, error) {
	return ExtractTagged(TagPublicKey, bsig)
}
