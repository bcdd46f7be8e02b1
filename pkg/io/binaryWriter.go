package io

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxTaggedLen is the maximum length of a tagged value, tagged fields use
// single-byte length prefix.
const MaxTaggedLen = 0xFF

// BinWriter is a convenient wrapper around an io.Writer and err object.
// Used to simplify error handling when writing into an io.Writer
// from a struct with many fields.
type BinWriter struct {
	w   io.Writer
	Err error
	uv  [8]byte
}

// NewBinWriterFromIO makes a BinWriter from io.Writer.
func NewBinWriterFromIO(iow io.Writer) *BinWriter {
	return &BinWriter{w: iow}
}

// WriteU64BE writes a uint64 value into the underlying io.Writer in
// big-endian format.
func (w *BinWriter) WriteU64BE(u64 uint64) {
	binary.BigEndian.PutUint64(w.uv[:8], u64)
	w.WriteBytes(w.uv[:8])
}

// WriteB writes a byte into the underlying io.Writer.
func (w *BinWriter) WriteB(u8 byte) {
	w.uv[0] = u8
	w.WriteBytes(w.uv[:1])
}

// WriteBytes writes a variable byte into the underlying io.Writer without prefix.
func (w *BinWriter) WriteBytes(b []byte) {
	if w.Err != nil {
		return
	}
	_, w.Err = w.w.Write(b)
}

// WriteTagged writes a tag/length/value triple. Values longer than
// MaxTaggedLen can't be represented and set Err.
func (w *BinWriter) WriteTagged(tag byte, value []byte) {
	if w.Err != nil {
		return
	}
	if len(value) > MaxTaggedLen {
		w.Err = fmt.Errorf("tagged value 0x%02x is too long: %d", tag, len(value))
		return
	}
	w.WriteB(tag)
	w.WriteB(byte(len(value)))
	w.WriteBytes(value)
}
