package block

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thepower/tpgo/pkg/core/transaction"
	"github.com/thepower/tpgo/pkg/crypto/keys"
	"github.com/thepower/tpgo/pkg/txerr"
	"github.com/vmihailenco/msgpack/v5"
)

func newValidators(t *testing.T, n int) ([]*keys.PrivateKey, ValidatorSet) {
	var (
		privs = make([]*keys.PrivateKey, n)
		pubs  = make([][]byte, n)
	)
	for i := range privs {
		k, err := keys.NewPrivateKey()
		require.NoError(t, err)
		privs[i] = k
		pubs[i] = k.PublicKey().Bytes()
	}
	return privs, NewValidatorSet(pubs...)
}

func signBlock(t *testing.T, b *Block, privs ...*keys.PrivateKey) {
	h := b.Header.Hash()
	for _, k := range privs {
		s, err := transaction.SignPayload(h[:], k)
		require.NoError(t, err)
		b.Sign = append(b.Sign, s)
	}
}

func TestBlockEncodeDecode(t *testing.T) {
	privs, _ := newValidators(t, 2)
	b := &Block{Header: testHeader()}
	signBlock(t, b, privs...)

	raw, err := b.Bytes()
	require.NoError(t, err)
	actual, err := DecodeBinary(raw)
	require.NoError(t, err)
	require.Equal(t, b, actual)
}

func TestDecodeBinarySkipsUnknown(t *testing.T) {
	raw, err := msgpack.Marshal(map[string]any{
		"hash":   []byte{1, 2},
		"txs":    map[string]any{"a": 1},
		"header": map[string]any{"chain": 1, "height": 2},
		"sign":   [][]byte{{0xFF, 0x01, 0x00}},
	})
	require.NoError(t, err)
	b, err := DecodeBinary(raw)
	require.NoError(t, err)
	require.Equal(t, uint64(2), b.Header.Height)
	require.Len(t, b.Sign, 1)
}

func TestDecodeBinaryErrors(t *testing.T) {
	_, err := DecodeBinary([]byte{0xC1})
	require.ErrorIs(t, err, txerr.ErrEncoding)

	raw, err := msgpack.Marshal(map[string]any{"sign": [][]byte{}})
	require.NoError(t, err)
	_, err = DecodeBinary(raw)
	require.ErrorIs(t, err, txerr.ErrEncoding)
}

func TestVerifyQuorum(t *testing.T) {
	privs, vs := newValidators(t, 4)

	t.Run("exact minsig", func(t *testing.T) {
		b := &Block{Header: testHeader()}
		signBlock(t, b, privs[:3]...)
		n, err := b.Verify(vs, 3, CountDistinct)
		require.NoError(t, err)
		require.Equal(t, 3, n)
	})
	t.Run("minsig-1", func(t *testing.T) {
		b := &Block{Header: testHeader()}
		signBlock(t, b, privs[:2]...)
		n, err := b.Verify(vs, 3, CountDistinct)
		require.ErrorIs(t, err, txerr.ErrBlockInvalid)
		require.ErrorIs(t, err, txerr.ErrConsensus)
		require.Equal(t, 2, n)
	})
	t.Run("non-member", func(t *testing.T) {
		outsiders, _ := newValidators(t, 2)
		b := &Block{Header: testHeader()}
		signBlock(t, b, privs[0])
		signBlock(t, b, outsiders...)
		require.Equal(t, 1, b.CountValidSignatures(vs, CountDistinct))
		_, err := b.Verify(vs, 2, CountDistinct)
		require.ErrorIs(t, err, txerr.ErrBlockInvalid)
	})
	t.Run("tampered header", func(t *testing.T) {
		b := &Block{Header: testHeader()}
		signBlock(t, b, privs[:3]...)
		b.Header.Height++
		require.Equal(t, 0, b.CountValidSignatures(vs, CountDistinct))
	})
	t.Run("garbage signature", func(t *testing.T) {
		b := &Block{Header: testHeader(), Sign: [][]byte{{0x01}, {}}}
		signBlock(t, b, privs[0])
		require.Equal(t, 1, b.CountValidSignatures(vs, CountDistinct))
	})
	t.Run("bad minsig", func(t *testing.T) {
		b := &Block{Header: testHeader()}
		_, err := b.Verify(vs, 0, CountDistinct)
		require.ErrorIs(t, err, txerr.ErrConfiguration)
	})
}

func TestVerifyDuplicateSigner(t *testing.T) {
	privs, vs := newValidators(t, 2)
	b := &Block{Header: testHeader()}
	signBlock(t, b, privs[0], privs[0], privs[0])

	require.Equal(t, 1, b.CountValidSignatures(vs, CountDistinct))
	require.Equal(t, 3, b.CountValidSignatures(vs, CountEach))
	_, err := b.Verify(vs, 2, CountDistinct)
	require.ErrorIs(t, err, txerr.ErrBlockInvalid)
	n, err := b.Verify(vs, 2, CountEach)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestDuplicateAfterInvalid(t *testing.T) {
	privs, vs := newValidators(t, 1)
	b := &Block{Header: testHeader()}
	signBlock(t, b, privs[0])
	// Broken copy of the same signer first, then the valid one.
	broken := append([]byte{}, b.Sign[0]...)
	broken[3] ^= 0x01
	b.Sign = [][]byte{broken, b.Sign[0]}
	require.Equal(t, 1, b.CountValidSignatures(vs, CountDistinct))
}

func TestParseSignaturePolicy(t *testing.T) {
	for s, exp := range map[string]SignaturePolicy{"": CountDistinct, "distinct": CountDistinct, "each": CountEach} {
		p, err := ParseSignaturePolicy(s)
		require.NoError(t, err)
		require.Equal(t, exp, p)
	}
	_, err := ParseSignaturePolicy("any")
	require.ErrorIs(t, err, txerr.ErrConfiguration)
}
