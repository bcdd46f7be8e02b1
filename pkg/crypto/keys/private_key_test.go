package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thepower/tpgo/pkg/txerr"
)

type keyTestCase struct {
	privateKey string
	publicKey  string
	wif        string
}

var keyTestCases = []keyTestCase{
	{
		privateKey: "0000000000000000000000000000000000000000000000000000000000000001",
		publicKey:  "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798",
		wif:        "KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn",
	},
	{
		privateKey: "0000000000000000000000000000000000000000000000000000000000000002",
		publicKey:  "02c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5",
	},
	{
		privateKey: "0000000000000000000000000000000000000000000000000000000000000003",
		publicKey:  "02f9308a019258c31049344f85f89d5229b531c845836f99b08601f113bce036f9",
	},
}

func TestPrivateKey(t *testing.T) {
	for _, testCase := range keyTestCases {
		privKey, err := NewPrivateKeyFromHex(testCase.privateKey)
		require.NoError(t, err)
		assert.Equal(t, testCase.privateKey, privKey.String())
		assert.Equal(t, testCase.publicKey, privKey.PublicKey().String())
		if testCase.wif != "" {
			assert.Equal(t, testCase.wif, privKey.WIF())
		}

		fromWIF, err := NewPrivateKeyFromWIF(privKey.WIF())
		require.NoError(t, err)
		assert.Equal(t, privKey.Bytes(), fromWIF.Bytes())
	}
}

func TestNewPrivateKeyFromBytesErrors(t *testing.T) {
	_, err := NewPrivateKeyFromBytes([]byte{1, 2, 3})
	require.ErrorIs(t, err, txerr.ErrCrypto)

	_, err = NewPrivateKeyFromBytes(make([]byte, PrivateKeyLen))
	require.ErrorIs(t, err, txerr.ErrCrypto)

	// Curve order n itself.
	n, _ := hex.DecodeString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")
	_, err = NewPrivateKeyFromBytes(n)
	require.ErrorIs(t, err, txerr.ErrCrypto)

	_, err = NewPrivateKeyFromHex("zz")
	require.ErrorIs(t, err, txerr.ErrCrypto)
}

func TestSigning(t *testing.T) {
	// Deterministic signature for the key 1 and "Satoshi Nakamoto" message.
	priv, err := NewPrivateKeyFromHex("0000000000000000000000000000000000000000000000000000000000000001")
	require.NoError(t, err)

	sig := priv.Sign([]byte("Satoshi Nakamoto"))
	expected := "3045" +
		"0221" + "00934b1ea10a4b3c1757e2b0c017d0b6143ce3c9a7e6a4a49860d7a6ab210ee3d8" +
		"0220" + "2442ce9d2b916064108014783e923ec36b49743e2ffa1c4496f01a512aafd9e5"
	require.Equal(t, expected, hex.EncodeToString(sig))

	// Deterministic.
	require.Equal(t, sig, priv.Sign([]byte("Satoshi Nakamoto")))
}

func TestSignVerify(t *testing.T) {
	priv, err := NewPrivateKey()
	require.NoError(t, err)
	pub := priv.PublicKey()

	data := []byte("sample")
	digest := sha256.Sum256(data)
	sig := priv.SignHash(digest)
	require.True(t, pub.Verify(sig, digest[:]))

	// Different data.
	other := sha256.Sum256([]byte("example"))
	require.False(t, pub.Verify(sig, other[:]))

	// Different key.
	priv2, err := NewPrivateKey()
	require.NoError(t, err)
	require.False(t, priv2.PublicKey().Verify(sig, digest[:]))

	// Malformed signature.
	require.False(t, pub.Verify(sig[:len(sig)-1], digest[:]))
	require.False(t, pub.Verify(nil, digest[:]))

	// Any flipped byte breaks it.
	for i := range sig {
		bad := append([]byte{}, sig...)
		bad[i] ^= 0x01
		require.False(t, pub.Verify(bad, digest[:]), "byte %d", i)
	}
}

func TestSignatureIsLowS(t *testing.T) {
	priv, err := NewPrivateKey()
	require.NoError(t, err)
	halfOrder := "7fffffffffffffffffffffffffffffff5d576e7357a4501ddfe92f46681b20a0"
	for i := 0; i < 16; i++ {
		sig := priv.Sign([]byte(strings.Repeat("x", i)))
		// DER: 0x30 len 0x02 rlen r 0x02 slen s.
		rlen := int(sig[3])
		slen := int(sig[4+rlen+1])
		s := sig[4+rlen+2 : 4+rlen+2+slen]
		require.LessOrEqual(t, len(s), 32)
		padded := hex.EncodeToString(append(make([]byte, 32-len(s)), s...))
		require.LessOrEqual(t, padded, halfOrder)
	}
}
