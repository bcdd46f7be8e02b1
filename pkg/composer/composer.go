/*
Package composer builds transaction bodies and turns them into signed
envelopes ready to be sent to the network.

Composer never talks to the network itself, fee settings and sequence numbers
are to be obtained by the caller (see rpcclient package).
*/
package composer

import (
	"context"
	"fmt"
	"time"

	"github.com/thepower/tpgo/pkg/core/transaction"
	"github.com/thepower/tpgo/pkg/crypto/hash"
	"github.com/thepower/tpgo/pkg/crypto/keys"
	"github.com/thepower/tpgo/pkg/pow"
	"go.uber.org/zap"
)

// Defaults used when Options fields are not set.
const (
	DefaultPoWDifficulty = 16
	DefaultGasToken      = "native"
	DefaultGasValue      = 5000
)

// Options are used to create Composer with non-default parameters. Zero
// values are replaced with defaults.
type Options struct {
	// PoWDifficulty maps chain to the difficulty used for registration
	// transactions. Chains not listed here use DefaultPoWDifficulty.
	PoWDifficulty map[uint64]int
	// GasToken and GasValue are used for the gas purpose entry of contract
	// calls.
	GasToken string
	GasValue uint64
	// Now is used to timestamp transactions.
	Now func() time.Time
	// Logger is used for debug messages.
	Logger *zap.Logger
}

// Composer builds transactions.
type Composer struct {
	opts Options
	log  *zap.Logger
}

// Transfer describes a simple value transfer. Token and Amount may be
// omitted for a message-only transaction.
type Transfer struct {
	From    []byte
	To      []byte
	Token   string
	Amount  uint64
	Message string
	Seq     uint64
}

// New creates a Composer with the given options.
func New(opts Options) *Composer {
	if opts.GasToken == "" {
		opts.GasToken = DefaultGasToken
	}
	if opts.GasValue == 0 {
		opts.GasValue = DefaultGasValue
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Composer{opts: opts, log: log}
}

func (c *Composer) timestamp() uint64 {
	return uint64(c.opts.Now().UnixMilli())
}

// Difficulty returns registration PoW difficulty for the chain.
func (c *Composer) Difficulty(chain uint64) int {
	if d, ok := c.opts.PoWDifficulty[chain]; ok {
		return d
	}
	return DefaultPoWDifficulty
}

// TransferBody creates a generic transaction body for the transfer and
// applies fee settings to it.
func (c *Composer) TransferBody(fs transaction.FeeSettings, t Transfer) (*transaction.Body, error) {
	b := &transaction.Body{
		Kind:      transaction.KindGeneric,
		Timestamp: c.timestamp(),
		From:      t.From,
		To:        t.To,
		Seq:       transaction.Uint64(t.Seq),
		Purposes:  []transaction.PurposeEntry{},
		Ext:       map[string]any{},
	}
	if t.Token != "" && t.Amount != 0 {
		b.Purposes = append(b.Purposes, transaction.PurposeEntry{
			Purpose: transaction.PurposeTransfer,
			Token:   t.Token,
			Amount:  t.Amount,
		})
	}
	if t.Message != "" {
		b.Ext["msg"] = t.Message
	}
	if err := transaction.ComputeFee(b, fs); err != nil {
		return nil, err
	}
	return b, nil
}

// ComposeTransfer creates a signed transfer envelope in its transport form.
func (c *Composer) ComposeTransfer(fs transaction.FeeSettings, key *keys.PrivateKey, t Transfer) (string, error) {
	b, err := c.TransferBody(fs, t)
	if err != nil {
		return "", err
	}
	return c.SignAndPack(b, key)
}

// CalculateFee returns the fee that a transfer would pay without signing it.
// ok is false when fee settings are incomplete.
func (c *Composer) CalculateFee(fs transaction.FeeSettings, t Transfer) (transaction.PurposeEntry, bool, error) {
	b, err := c.TransferBody(fs, t)
	if err != nil {
		return transaction.PurposeEntry{}, false, err
	}
	fee, ok := b.SourceFee()
	return fee, ok, nil
}

// RegisterBody creates an account registration body for the key and mines
// its PoW nonce with the chain's difficulty. Referrer is optional.
func (c *Composer) RegisterBody(ctx context.Context, chain uint64, pub *keys.PublicKey, referrer string) (*transaction.Body, error) {
	b := &transaction.Body{
		Kind:      transaction.KindRegister,
		Timestamp: c.timestamp(),
		Nonce:     transaction.Uint64(0),
		Hash:      hashOf(pub.Bytes()),
	}
	if referrer != "" {
		b.Ext = map[string]any{"ref": referrer}
	}
	raw, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	offset, err := pow.NonceOffset(raw)
	if err != nil {
		return nil, err
	}
	req := pow.Request{Body: raw, Offset: offset, Difficulty: c.Difficulty(chain)}
	start := time.Now()
	nonce, err := pow.Start(ctx, req).Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("nonce search: %w", err)
	}
	c.log.Debug("registration nonce found",
		zap.Uint64("chain", chain),
		zap.Int("difficulty", req.Difficulty),
		zap.Uint32("nonce", nonce),
		zap.Duration("took", time.Since(start)))
	b.Nonce = transaction.Uint64(uint64(nonce))
	return b, nil
}

func hashOf(b []byte) []byte {
	h := hash.Sha256(b)
	return h[:]
}

// ComposeRegister creates a signed registration envelope in its transport
// form.
func (c *Composer) ComposeRegister(ctx context.Context, chain uint64, key *keys.PrivateKey, referrer string) (string, error) {
	b, err := c.RegisterBody(ctx, chain, key.PublicKey(), referrer)
	if err != nil {
		return "", err
	}
	return c.SignAndPack(b, key)
}

// CallOption changes the way a single contract call is prepared.
type CallOption func(*transaction.PurposeEntry)

// WithGas overrides Options.GasToken and Options.GasValue for a single call.
// Empty token or zero value keep the Composer's setting.
func WithGas(token string, value uint64) CallOption {
	return func(gas *transaction.PurposeEntry) {
		if token != "" {
			gas.Token = token
		}
		if value != 0 {
			gas.Amount = value
		}
	}
}

// PrepareFromContractCall completes a contract call body. Unless it's a
// patch, the body gets timestamp, sequence number and sender address, gas
// purpose entry is placed before the call's own entries. Fee settings are
// applied in any case. The call body itself is not modified.
func (c *Composer) PrepareFromContractCall(fs transaction.FeeSettings, address []byte, seq uint64, call *transaction.Body, opts ...CallOption) (*transaction.Body, error) {
	b := call.Copy()
	if b.Kind != transaction.KindPatch {
		b.Timestamp = c.timestamp()
		b.Seq = transaction.Uint64(seq)
		b.From = address
		gas := transaction.PurposeEntry{
			Purpose: transaction.PurposeGas,
			Token:   c.opts.GasToken,
			Amount:  c.opts.GasValue,
		}
		for _, o := range opts {
			o(&gas)
		}
		b.Purposes = append([]transaction.PurposeEntry{gas}, b.Purposes...)
	}
	if err := transaction.ComputeFee(b, fs); err != nil {
		return nil, err
	}
	return b, nil
}

// SignAndPack signs the body with the key and returns the envelope in its
// transport (base64) form.
func (c *Composer) SignAndPack(b *transaction.Body, key *keys.PrivateKey) (string, error) {
	env, err := transaction.NewEnvelope(b)
	if err != nil {
		return "", err
	}
	if err := env.Sign(key); err != nil {
		return "", err
	}
	s, err := env.Base64()
	if err != nil {
		return "", err
	}
	c.log.Debug("transaction packed",
		zap.Stringer("kind", b.Kind),
		zap.Int("body_size", len(env.Body)),
		zap.Int("size", len(s)))
	return s, nil
}
