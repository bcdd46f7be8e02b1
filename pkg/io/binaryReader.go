package io

import (
	"errors"
	"fmt"
)

// ErrTagNotFound is returned when the requested tag is absent from a tagged
// blob.
var ErrTagNotFound = errors.New("tag not found")

// TaggedField is a single tag/value pair read from a tagged blob.
type TaggedField struct {
	Tag   byte
	Value []byte
}

// BinReader reads tag/length/value triples from a byte slice. Value slices
// returned point into the original buffer and must not be modified.
type BinReader struct {
	buf []byte
	off int
	Err error
}

// NewBinReaderFromBuf makes a BinReader from byte buffer.
func NewBinReaderFromBuf(b []byte) *BinReader {
	return &BinReader{buf: b}
}

// Len returns the number of bytes not yet read.
func (r *BinReader) Len() int {
	return len(r.buf) - r.off
}

// ReadTagged reads the next tag/length/value triple. It sets Err if the
// buffer ends in the middle of a triple.
func (r *BinReader) ReadTagged() TaggedField {
	if r.Err != nil {
		return TaggedField{}
	}
	if r.Len() < 2 {
		r.Err = fmt.Errorf("truncated tag header at %d", r.off)
		return TaggedField{}
	}
	var (
		tag = r.buf[r.off]
		l   = int(r.buf[r.off+1])
		end = r.off + 2 + l
	)
	if end > len(r.buf) {
		r.Err = fmt.Errorf("tag 0x%02x value at %d overflows buffer (%d > %d)", tag, r.off, end, len(r.buf))
		return TaggedField{}
	}
	f := TaggedField{Tag: tag, Value: r.buf[r.off+2 : end]}
	r.off = end
	return f
}

// ReadAllTagged reads triples until the end of the buffer.
func (r *BinReader) ReadAllTagged() []TaggedField {
	var res []TaggedField
	for r.Err == nil && r.Len() > 0 {
		f := r.ReadTagged()
		if r.Err == nil {
			res = append(res, f)
		}
	}
	return res
}

// FindTagged scans the blob from the beginning and returns the value of the
// first triple with the given tag.
func FindTagged(tag byte, blob []byte) ([]byte, error) {
	r := NewBinReaderFromBuf(blob)
	for r.Len() > 0 {
		f := r.ReadTagged()
		if r.Err != nil {
			return nil, r.Err
		}
		if f.Tag == tag {
			return f.Value, nil
		}
	}
	return nil, fmt.Errorf("%w: 0x%02x", ErrTagNotFound, tag)
}
