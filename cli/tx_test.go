package main

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thepower/tpgo/internal/fakechain"
	"github.com/thepower/tpgo/pkg/core/transaction"
	"github.com/thepower/tpgo/pkg/crypto/keys"
	"github.com/thepower/tpgo/pkg/rpcclient/result"
	"github.com/thepower/tpgo/pkg/wallet"
)

const (
	testAddress = "AA00000000000001"
	testDest    = "AA00000000000002"
)

// confirmNext makes the node report transactions as included into the
// current head block and then produces the next block.
func confirmNext(fc *fakechain.FakeChain, res string) {
	b := fc.Head()
	fc.AddBlock(fc.MinSig)
	fc.SetTxStatus(func(string, int) *result.TxStatus {
		raw, _ := json.Marshal(res)
		return &result.TxStatus{Res: &result.TxResult{OK: true, Res: raw, Block: b}}
	})
}

func newTxExecutor(t *testing.T) (*executor, *keys.PrivateKey, string) {
	e := newExecutor(t, true)
	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)
	return e, priv, newTestWallet(t, e.Dir, priv, testAddress)
}

func (e *executor) dumpTransfer(t *testing.T, walletPath string, args ...string) string {
	e.In.WriteString(testPass + "\r")
	e.Run(t, append([]string{"tpgo", "tx", "transfer", "-c", e.Config, "-w", walletPath,
		"--to", testDest, "--dump"}, args...)...)
	return e.getNextLine(t)
}

func TestTransferDump(t *testing.T) {
	e, priv, w := newTxExecutor(t)

	tx := e.dumpTransfer(t, w, "--token", "SK", "--amount", "100", "-m", "hello", "--seq", "7")
	e.checkEOF(t)
	require.Empty(t, e.Chain.Sent())

	env, err := transaction.DecodeEnvelope(tx)
	require.NoError(t, err)
	valid, invalid := env.VerifySignatures()
	require.Len(t, valid, 1)
	require.Zero(t, invalid)
	signer, err := transaction.SignerKey(env.Sig[0])
	require.NoError(t, err)
	require.Equal(t, priv.PublicKey().Bytes(), signer)

	b, err := env.DecodeBody()
	require.NoError(t, err)
	require.Equal(t, transaction.KindGeneric, b.Kind)
	require.Equal(t, testAddress, strings.ToUpper(hex.EncodeToString(b.From)))
	require.Equal(t, testDest, strings.ToUpper(hex.EncodeToString(b.To)))
	require.NotNil(t, b.Seq)
	require.EqualValues(t, 7, *b.Seq)
	require.Equal(t, []transaction.PurposeEntry{
		{Purpose: transaction.PurposeTransfer, Token: "SK", Amount: 100},
		{Purpose: transaction.PurposeSrcFee, Token: "SK", Amount: 10},
	}, b.Purposes)
	require.Equal(t, "hello", b.Ext["msg"])

	t.Run("no destination", func(t *testing.T) {
		e.In.WriteString(testPass + "\r")
		e.RunWithErrorCheck(t, "no destination address", "tpgo", "tx", "transfer", "-c", e.Config, "-w", w, "--dump")
	})
	t.Run("unknown fee currency", func(t *testing.T) {
		e.In.WriteString(testPass + "\r")
		e.RunWithErrorCheck(t, "no fee settings for XXX", "tpgo", "tx", "transfer", "-c", e.Config, "-w", w,
			"--to", testDest, "--fee-currency", "XXX", "--dump")
	})
	t.Run("wrong password", func(t *testing.T) {
		e.In.WriteString("bad\r")
		e.RunWithError(t, "tpgo", "tx", "transfer", "-c", e.Config, "-w", w, "--to", testDest, "--dump")
	})
	t.Run("unregistered", func(t *testing.T) {
		dir := t.TempDir()
		w := newTestWallet(t, dir, priv, "")
		e.In.WriteString(testPass + "\r")
		e.RunWithErrorCheck(t, "register it first", "tpgo", "tx", "transfer", "-c", e.Config, "-w", w, "--to", testDest, "--dump")
	})
}

func TestTransferSend(t *testing.T) {
	e, _, w := newTxExecutor(t)

	e.In.WriteString(testPass + "\r")
	e.Run(t, "tpgo", "tx", "transfer", "-c", e.Config, "-w", w, "--to", testDest, "--token", "SK", "--amount", "1")
	txid := e.getNextLine(t)
	e.checkEOF(t)
	require.Len(t, e.Chain.Sent(), 1)
	env, err := transaction.DecodeEnvelope(e.Chain.Sent()[0])
	require.NoError(t, err)
	require.Equal(t, fakechain.TxID(env), txid)

	t.Run("pending", func(t *testing.T) {
		e.Run(t, "tpgo", "tx", "pending", "-c", e.Config)
		e.checkNextLine(t, "^"+txid+"\tsubmitted\t")
		e.checkEOF(t)
	})
	t.Run("status", func(t *testing.T) {
		e.Chain.SetTxStatus(func(string, int) *result.TxStatus { return &result.TxStatus{} })
		e.Run(t, "tpgo", "tx", "status", "-c", e.Config, txid)
		e.checkNextLine(t, "^pending$")

		e.Chain.SetTxStatus(func(string, int) *result.TxStatus {
			return &result.TxStatus{Res: &result.TxResult{Error: true, Res: json.RawMessage(`"insufficient_fund"`)}}
		})
		e.Run(t, "tpgo", "tx", "status", "-c", e.Config, txid)
		e.checkNextLine(t, "^error: insufficient_fund$")

		e.RunWithError(t, "tpgo", "tx", "status", "-c", e.Config)
	})
	t.Run("pending await", func(t *testing.T) {
		confirmNext(e.Chain, "ok")
		e.Run(t, "tpgo", "tx", "pending", "-c", e.Config, "--await")
		e.checkNextLine(t, "^"+txid+"\tblock_validated$")
		e.checkEOF(t)

		e.Run(t, "tpgo", "tx", "pending", "-c", e.Config)
		e.checkEOF(t)
	})
}

func TestTransferAwait(t *testing.T) {
	e, _, w := newTxExecutor(t)

	t.Run("confirmed", func(t *testing.T) {
		confirmNext(e.Chain, "ok")
		e.In.WriteString(testPass + "\r")
		e.Run(t, "tpgo", "tx", "transfer", "-c", e.Config, "-w", w, "--to", testDest, "--await")
		e.getNextLine(t)
		e.checkEOF(t)
	})
	t.Run("rejected", func(t *testing.T) {
		e.Chain.SetSendTx(func(string) result.SendTx { return result.SendTx{Msg: "bad_seq"} })
		defer e.Chain.SetSendTx(nil)
		e.In.WriteString(testPass + "\r")
		e.RunWithErrorCheck(t, "bad_seq", "tpgo", "tx", "transfer", "-c", e.Config, "-w", w, "--to", testDest, "--await")
	})
	t.Run("no next block", func(t *testing.T) {
		e.Chain.SetTxStatus(nil)
		e.In.WriteString(testPass + "\r")
		e.RunWithErrorCheck(t, "instead of resending it", "tpgo", "tx", "transfer", "-c", e.Config, "-w", w, "--to", testDest, "--await")

		e.Run(t, "tpgo", "tx", "pending", "-c", e.Config)
		e.checkEOF(t)
	})
}

func TestDecodeSign(t *testing.T) {
	e, priv, w := newTxExecutor(t)
	tx := e.dumpTransfer(t, w, "--token", "SK", "--amount", "5", "--seq", "1")

	e.Run(t, "tpgo", "tx", "decode", tx)
	var dec struct {
		Body map[string]any `json:"body"`
		Sig  []struct {
			Pub   string `json:"pub"`
			Valid bool   `json:"valid"`
		} `json:"sig"`
		Ver int `json:"ver"`
	}
	require.NoError(t, json.Unmarshal(e.Out.Bytes(), &dec))
	require.Equal(t, "generic", dec.Body["k"])
	require.Equal(t, 2, dec.Ver)
	require.Len(t, dec.Sig, 1)
	require.Equal(t, priv.PublicKey().String(), dec.Sig[0].Pub)
	require.True(t, dec.Sig[0].Valid)

	second, err := keys.NewPrivateKey()
	require.NoError(t, err)
	w2 := newTestWallet(t, t.TempDir(), second, "")
	e.In.WriteString(testPass + "\r")
	e.Run(t, "tpgo", "tx", "sign", "-w", w2, tx)
	signed := e.getNextLine(t)
	env, err := transaction.DecodeEnvelope(signed)
	require.NoError(t, err)
	valid, invalid := env.VerifySignatures()
	require.Len(t, valid, 2)
	require.Zero(t, invalid)

	t.Run("bad", func(t *testing.T) {
		e.RunWithError(t, "tpgo", "tx", "decode")
		e.RunWithError(t, "tpgo", "tx", "decode", "AAAA")
		e.RunWithError(t, "tpgo", "tx", "sign", "-w", w2)
		e.RunWithError(t, "tpgo", "tx", "send", "-c", e.Config, "AAAA")
	})
	t.Run("send", func(t *testing.T) {
		e.Run(t, "tpgo", "tx", "send", "-c", e.Config, signed)
		e.checkNextLine(t, "^"+fakechain.TxID(env)+"$")
		require.Equal(t, []string{signed}, e.Chain.Sent())
	})
}

func TestFee(t *testing.T) {
	e := newExecutor(t, true)

	e.Run(t, "tpgo", "tx", "fee", "-c", e.Config, "--from", testAddress, "--to", testDest, "--token", "SK", "--amount", "1")
	e.checkNextLine(t, "^10 SK$")
	e.checkEOF(t)

	e.Run(t, "tpgo", "tx", "fee", "-c", e.Config, "--from", testAddress, "--to", testDest,
		"-m", strings.Repeat("x", 2048))
	line := e.getNextLine(t)
	require.NotEqual(t, "10 SK", line)
	require.True(t, strings.HasSuffix(line, " SK"))

	e.RunWithErrorCheck(t, "no source address", "tpgo", "tx", "fee", "-c", e.Config, "--to", testDest)

	e.Chain.SetFee(map[string]result.FeeParams{})
	e.Run(t, "tpgo", "tx", "fee", "-c", e.Config, "--from", testAddress, "--to", testDest)
	e.checkNextLine(t, "^no fee$")
}

func TestRegister(t *testing.T) {
	e := newExecutor(t, true)
	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)
	w := newTestWallet(t, e.Dir, priv, "")

	confirmNext(e.Chain, testAddress)
	e.In.WriteString(testPass + "\r")
	e.Run(t, "tpgo", "tx", "register", "-c", e.Config, "-w", w)
	e.checkNextLine(t, "^"+testAddress+"$")

	env, err := transaction.DecodeEnvelope(e.Chain.Sent()[0])
	require.NoError(t, err)
	b, err := env.DecodeBody()
	require.NoError(t, err)
	require.Equal(t, transaction.KindRegister, b.Kind)

	wall, err := wallet.NewWalletFromFile(w)
	require.NoError(t, err)
	require.Equal(t, testAddress, wall.Accounts[0].Address)
	require.EqualValues(t, testChain, wall.Accounts[0].Chain)

	e.In.WriteString(testPass + "\r")
	e.RunWithErrorCheck(t, "already registered", "tpgo", "tx", "register", "-c", e.Config, "-w", w)
}
