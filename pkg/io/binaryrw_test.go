package io

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteU64BE(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteU64BE(0x0102030405060708)
	require.NoError(t, bw.Err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, bw.Bytes())
}

func TestBufBinWriterDrained(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteB(1)
	require.Equal(t, 1, bw.Len())
	_ = bw.Bytes()
	bw.WriteB(2)
	require.Error(t, bw.Err)
	require.Nil(t, bw.Bytes())

	bw.Reset()
	bw.WriteB(3)
	require.Equal(t, []byte{3}, bw.Bytes())
}

func TestWriteReadTagged(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteTagged(0xFF, []byte{1, 2, 3})
	bw.WriteTagged(0x02, []byte{4})
	bw.WriteTagged(0x01, nil)
	require.NoError(t, bw.Err)
	blob := bw.Bytes()
	require.Equal(t, []byte{0xFF, 3, 1, 2, 3, 0x02, 1, 4, 0x01, 0}, blob)

	fields := NewBinReaderFromBuf(blob).ReadAllTagged()
	require.Equal(t, []TaggedField{
		{Tag: 0xFF, Value: []byte{1, 2, 3}},
		{Tag: 0x02, Value: []byte{4}},
		{Tag: 0x01, Value: []byte{}},
	}, fields)
}

func TestWriteTaggedTooLong(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteTagged(0x02, bytes.Repeat([]byte{1}, MaxTaggedLen+1))
	require.Error(t, bw.Err)

	bw = NewBufBinWriter()
	bw.WriteTagged(0x02, bytes.Repeat([]byte{1}, MaxTaggedLen))
	require.NoError(t, bw.Err)
	require.Equal(t, MaxTaggedLen+2, bw.Len())
}

func TestFindTagged(t *testing.T) {
	blob := []byte{0xFF, 2, 9, 9, 0x02, 3, 7, 7, 7}

	v, err := FindTagged(0x02, blob)
	require.NoError(t, err)
	require.Equal(t, []byte{7, 7, 7}, v)

	v, err = FindTagged(0xFF, blob)
	require.NoError(t, err)
	require.Equal(t, []byte{9, 9}, v)

	_, err = FindTagged(0x01, blob)
	require.ErrorIs(t, err, ErrTagNotFound)

	_, err = FindTagged(0x02, []byte{0xFF, 5, 1})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrTagNotFound)

	_, err = FindTagged(0x02, []byte{0xFF})
	require.Error(t, err)
}
