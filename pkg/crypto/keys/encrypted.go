package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/thepower/tpgo/pkg/txerr"
	"golang.org/x/crypto/scrypt"
)

const (
	saltLen       = 16
	encryptKeyLen = 32
)

// ScryptParams is a json-serializable container for scrypt KDF parameters.
type ScryptParams struct {
	N int `json:"n"`
	R int `json:"r"`
	P int `json:"p"`
}

// DefaultScryptParams are the parameters used for new wallets.
var DefaultScryptParams = ScryptParams{N: 16384, R: 8, P: 8}

func (p ScryptParams) cipher(passphrase string, salt []byte) (cipher.AEAD, error) {
	derived, err := scrypt.Key([]byte(passphrase), salt, p.N, p.R, p.P, encryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", txerr.ErrCrypto, err)
	}
	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptWIF encrypts the key's WIF with the passphrase. The result is
// base64-encoded salt, nonce and sealed WIF.
func EncryptWIF(priv *PrivateKey, passphrase string, p ScryptParams) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	aead, err := p.cipher(passphrase, salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	out := append(salt, nonce...)
	out = aead.Seal(out, nonce, []byte(priv.WIF()), salt)
	return base64.StdEncoding.EncodeToString(out), nil
}

// DecryptWIF decrypts the key encrypted by EncryptWIF.
func DecryptWIF(enc string, passphrase string, p ScryptParams) (*PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", txerr.ErrCrypto, err)
	}
	if len(raw) < saltLen {
		return nil, fmt.Errorf("%w: encrypted key is too short", txerr.ErrCrypto)
	}
	salt := raw[:saltLen]
	aead, err := p.cipher(passphrase, salt)
	if err != nil {
		return nil, err
	}
	if len(raw) < saltLen+aead.NonceSize() {
		return nil, fmt.Errorf("%w: encrypted key is too short", txerr.ErrCrypto)
	}
	nonce, sealed := raw[saltLen:saltLen+aead.NonceSize()], raw[saltLen+aead.NonceSize():]
	wif, err := aead.Open(nil, nonce, sealed, salt)
	if err != nil {
		return nil, fmt.Errorf("%w: wrong passphrase or corrupted key", txerr.ErrCrypto)
	}
	return NewPrivateKeyFromWIF(string(wif))
}
