package hash

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSha256(t *testing.T) {
	input := []byte("hello")
	data := Sha256(input)

	expected := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	require.Equal(t, expected, hex.EncodeToString(data[:]))
}

func TestSha256Concat(t *testing.T) {
	whole := Sha256([]byte("hello world"))
	parts := Sha256Concat([]byte("hello"), []byte(" "), []byte("world"))
	require.Equal(t, whole, parts)
}

func TestSha512(t *testing.T) {
	data := Sha512([]byte("abc"))
	expected := "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a" +
		"2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f"
	require.Equal(t, expected, hex.EncodeToString(data[:]))
}

func TestLeadingZeroBits(t *testing.T) {
	for _, tc := range []struct {
		in  []byte
		out int
	}{
		{[]byte{0x80}, 0},
		{[]byte{0x01}, 7},
		{[]byte{0x00, 0x00}, 16},
		{[]byte{0x00, 0x0F, 0xFF}, 12},
		{[]byte{0x00, 0x00, 0x40}, 17},
		{nil, 0},
	} {
		require.Equal(t, tc.out, LeadingZeroBits(tc.in), "%x", tc.in)
	}
}
