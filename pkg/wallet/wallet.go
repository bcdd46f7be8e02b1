/*
Package wallet implements a simple file wallet holding encrypted account keys.
*/
package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/thepower/tpgo/pkg/crypto/keys"
	"github.com/thepower/tpgo/pkg/io"
)

// walletVersion is the version of the wallet file format.
const walletVersion = "1.0"

// ErrAccountNotFound is returned for unknown accounts.
var ErrAccountNotFound = errors.New("account not found")

// Wallet represents a wallet file.
type Wallet struct {
	// Version of the wallet file format.
	Version string `json:"version"`

	// A list of accounts in the wallet.
	Accounts []*Account `json:"accounts"`

	// Scrypt parameters used to encrypt the keys.
	Scrypt keys.ScryptParams `json:"scrypt"`

	// Path where the wallet file is located.
	path string
}

// NewWallet creates a new empty wallet file at the given location.
func NewWallet(location string) (*Wallet, error) {
	if err := io.MakeDirForFile(location, "wallet"); err != nil {
		return nil, err
	}
	if _, err := os.Stat(location); err == nil {
		return nil, fmt.Errorf("wallet %s already exists", location)
	}
	w := &Wallet{
		Version:  walletVersion,
		Accounts: []*Account{},
		Scrypt:   keys.DefaultScryptParams,
		path:     location,
	}
	return w, w.Save()
}

// NewWalletFromFile reads the wallet from the file.
func NewWalletFromFile(path string) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read wallet: %w", err)
	}
	w := &Wallet{path: path}
	if err := json.Unmarshal(data, w); err != nil {
		return nil, fmt.Errorf("unmarshal wallet: %w", err)
	}
	if w.Version != walletVersion {
		return nil, fmt.Errorf("unsupported wallet version %q", w.Version)
	}
	return w, nil
}

// Path returns the location of the wallet file.
func (w *Wallet) Path() string {
	return w.path
}

// CreateAccount generates a new account encrypted with the passphrase and
// adds it to the wallet.
func (w *Wallet) CreateAccount(label, passphrase string) (*Account, error) {
	acc, err := NewAccount()
	if err != nil {
		return nil, err
	}
	return acc, w.importAccount(acc, label, passphrase)
}

// ImportAccount adds the key encrypted with the passphrase to the wallet.
func (w *Wallet) ImportAccount(p *keys.PrivateKey, label, passphrase string) (*Account, error) {
	acc := NewAccountFromPrivateKey(p)
	return acc, w.importAccount(acc, label, passphrase)
}

func (w *Wallet) importAccount(acc *Account, label, passphrase string) error {
	if w.GetAccount(acc.PublicKey) != nil {
		return fmt.Errorf("key %s is already in the wallet", acc.PublicKey)
	}
	acc.Label = label
	if err := acc.Encrypt(passphrase, w.Scrypt); err != nil {
		return err
	}
	w.AddAccount(acc)
	return nil
}

// AddAccount adds the account to the wallet, the first account becomes the
// default one.
func (w *Wallet) AddAccount(acc *Account) {
	if len(w.Accounts) == 0 {
		acc.Default = true
	}
	w.Accounts = append(w.Accounts, acc)
}

// RemoveAccount removes the account matching the name (see GetAccount).
func (w *Wallet) RemoveAccount(name string) error {
	for i, acc := range w.Accounts {
		if acc.matches(name) {
			copy(w.Accounts[i:], w.Accounts[i+1:])
			w.Accounts = w.Accounts[:len(w.Accounts)-1]
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrAccountNotFound, name)
}

// GetAccount returns the account with the given address, public key or label.
// Empty name means the default account.
func (w *Wallet) GetAccount(name string) *Account {
	for _, acc := range w.Accounts {
		if name == "" && acc.Default || name != "" && acc.matches(name) {
			return acc
		}
	}
	return nil
}

func (a *Account) matches(name string) bool {
	return a.Address == name || a.PublicKey == name || a.Label == name
}

// Save saves the wallet data to its file.
func (w *Wallet) Save() error {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(w.path, data, 0o600)
}

// Close drops all decrypted keys.
func (w *Wallet) Close() {
	for _, acc := range w.Accounts {
		acc.Close()
	}
}
