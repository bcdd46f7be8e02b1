package wallet

import (
	"errors"

	"github.com/thepower/tpgo/pkg/crypto/keys"
)

// Account holds an encrypted account key along with some metadata.
type Account struct {
	// Decrypted private key, nil until Decrypt is called.
	privateKey *keys.PrivateKey

	// Address is the chain address assigned to the key on registration, it's
	// empty for unregistered accounts.
	Address string `json:"address"`

	// PublicKey is the hex-encoded compressed public key.
	PublicKey string `json:"publicKey"`

	// EncryptedWIF is the encrypted private key.
	EncryptedWIF string `json:"key"`

	// Label is a label the user had made for this account.
	Label string `json:"label"`

	// Chain the account is registered in.
	Chain uint32 `json:"chain,omitempty"`

	// Default marks the account used when none is specified.
	Default bool `json:"isDefault"`
}

// NewAccount creates an account with a new random key.
func NewAccount() (*Account, error) {
	priv, err := keys.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return NewAccountFromPrivateKey(priv), nil
}

// NewAccountFromPrivateKey creates an unencrypted account from the key.
func NewAccountFromPrivateKey(p *keys.PrivateKey) *Account {
	return &Account{
		privateKey: p,
		PublicKey:  p.PublicKey().String(),
	}
}

// NewAccountFromWIF creates an unencrypted account from the WIF.
func NewAccountFromWIF(wif string) (*Account, error) {
	p, err := keys.NewPrivateKeyFromWIF(wif)
	if err != nil {
		return nil, err
	}
	return NewAccountFromPrivateKey(p), nil
}

// Encrypt encrypts the account key with the passphrase.
func (a *Account) Encrypt(passphrase string, scrypt keys.ScryptParams) error {
	if a.privateKey == nil {
		return errors.New("no private key")
	}
	enc, err := keys.EncryptWIF(a.privateKey, passphrase, scrypt)
	if err != nil {
		return err
	}
	a.EncryptedWIF = enc
	return nil
}

// Decrypt decrypts the account key, it can then be retrieved with
// PrivateKey.
func (a *Account) Decrypt(passphrase string, scrypt keys.ScryptParams) error {
	if a.EncryptedWIF == "" {
		return errors.New("no encrypted wif in the account")
	}
	p, err := keys.DecryptWIF(a.EncryptedWIF, passphrase, scrypt)
	if err != nil {
		return err
	}
	if pub := p.PublicKey().String(); a.PublicKey != "" && pub != a.PublicKey {
		return errors.New("decrypted key doesn't match account public key")
	}
	a.privateKey = p
	return nil
}

// PrivateKey returns the decrypted key or nil.
func (a *Account) PrivateKey() *keys.PrivateKey {
	return a.privateKey
}

// CanSign returns true if the key is decrypted.
func (a *Account) CanSign() bool {
	return a.privateKey != nil
}

// Close drops the decrypted key.
func (a *Account) Close() {
	a.privateKey = nil
}
