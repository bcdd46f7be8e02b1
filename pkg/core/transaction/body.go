package transaction

import (
	"bytes"
	"fmt"
	"maps"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// Body field keys.
const (
	keyKind      = "k"
	keyTimestamp = "t"
	keyFrom      = "f"
	keyTo        = "to"
	keySeq       = "s"
	keyNonce     = "nonce"
	keyHash      = "h"
	keyPurposes  = "p"
	keyExt       = "e"
)

// PurposeEntry is a (purpose, token, amount) triple.
type PurposeEntry struct {
	Purpose Purpose
	Token   string
	Amount  uint64
}

// RawField is a body field this package doesn't interpret (contract call
// data, code, etc.), its value is kept exactly as it was encoded.
type RawField struct {
	Key   string
	Value msgpack.RawMessage
}

// Body is a transaction body. Optional fields are omitted from the encoding
// when they're nil (or zero for Timestamp). Fields are always encoded in the
// same order: k, t, f, to, s, nonce, h, p, e and then Extra in its own
// order, extension map keys are sorted.
type Body struct {
	Kind      Kind
	Timestamp uint64
	From      []byte
	To        []byte
	Seq       *uint64
	Nonce     *uint64
	Hash      []byte
	Purposes  []PurposeEntry
	Ext       map[string]any
	Extra     []RawField
}

// Uint64 is a helper returning pointer to v for optional Body fields.
func Uint64(v uint64) *uint64 {
	return &v
}

// Bytes returns serialized body.
func (b *Body) Bytes() ([]byte, error) {
	return Marshal(b)
}

// DecodeBody deserializes a transaction body.
func DecodeBody(data []byte) (*Body, error) {
	b := new(Body)
	if err := Unmarshal(data, b); err != nil {
		return nil, err
	}
	return b, nil
}

// SourceFee returns the SRCFEE purpose entry if it's present.
func (b *Body) SourceFee() (PurposeEntry, bool) {
	for _, p := range b.Purposes {
		if p.Purpose == PurposeSrcFee {
			return p, true
		}
	}
	return PurposeEntry{}, false
}

// Copy returns a deep copy of the body. Ext values are copied shallowly.
func (b *Body) Copy() *Body {
	c := *b
	c.From = bytes.Clone(b.From)
	c.To = bytes.Clone(b.To)
	c.Hash = bytes.Clone(b.Hash)
	if b.Seq != nil {
		c.Seq = Uint64(*b.Seq)
	}
	if b.Nonce != nil {
		c.Nonce = Uint64(*b.Nonce)
	}
	if b.Purposes != nil {
		c.Purposes = append(make([]PurposeEntry, 0, len(b.Purposes)), b.Purposes...)
	}
	if b.Ext != nil {
		c.Ext = maps.Clone(b.Ext)
	}
	if b.Extra != nil {
		c.Extra = make([]RawField, len(b.Extra))
		for i, f := range b.Extra {
			c.Extra[i] = RawField{Key: f.Key, Value: bytes.Clone(f.Value)}
		}
	}
	return &c
}

func (b *Body) fieldCount() int {
	n := 1 + len(b.Extra)
	for _, present := range []bool{
		b.Timestamp != 0,
		b.From != nil,
		b.To != nil,
		b.Seq != nil,
		b.Nonce != nil,
		b.Hash != nil,
		b.Purposes != nil,
		b.Ext != nil,
	} {
		if present {
			n++
		}
	}
	return n
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (b *Body) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(b.fieldCount()); err != nil {
		return err
	}
	var w = fieldWriter{enc: enc}
	w.key(keyKind)
	w.err(enc.EncodeUint(uint64(b.Kind)))
	if b.Timestamp != 0 {
		w.key(keyTimestamp)
		w.err(enc.EncodeUint(b.Timestamp))
	}
	if b.From != nil {
		w.key(keyFrom)
		w.err(enc.EncodeBytes(b.From))
	}
	if b.To != nil {
		w.key(keyTo)
		w.err(enc.EncodeBytes(b.To))
	}
	if b.Seq != nil {
		w.key(keySeq)
		w.err(enc.EncodeUint(*b.Seq))
	}
	if b.Nonce != nil {
		w.key(keyNonce)
		w.err(enc.EncodeUint(*b.Nonce))
	}
	if b.Hash != nil {
		w.key(keyHash)
		w.err(enc.EncodeBytes(b.Hash))
	}
	if b.Purposes != nil {
		w.key(keyPurposes)
		w.err(enc.EncodeArrayLen(len(b.Purposes)))
		for _, p := range b.Purposes {
			w.err(enc.EncodeArrayLen(3))
			w.err(enc.EncodeUint(uint64(p.Purpose)))
			w.err(enc.EncodeString(p.Token))
			w.err(enc.EncodeUint(p.Amount))
		}
	}
	if b.Ext != nil {
		w.key(keyExt)
		keys := make([]string, 0, len(b.Ext))
		for k := range b.Ext {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		w.err(enc.EncodeMapLen(len(keys)))
		for _, k := range keys {
			w.key(k)
			w.err(enc.Encode(b.Ext[k]))
		}
	}
	for _, f := range b.Extra {
		w.key(f.Key)
		w.err(enc.Encode(f.Value))
	}
	return w.e
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (b *Body) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("body is nil")
	}
	*b = Body{}
	var hasKind bool
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return fmt.Errorf("field %d key: %w", i, err)
		}
		switch key {
		case keyKind:
			k, err := dec.DecodeUint64()
			if err != nil {
				return fieldErr(key, err)
			}
			if k > 0xFF {
				return fmt.Errorf("invalid kind %d", k)
			}
			b.Kind, hasKind = Kind(k), true
		case keyTimestamp:
			b.Timestamp, err = dec.DecodeUint64()
		case keyFrom:
			b.From, err = decodeBin(dec)
		case keyTo:
			b.To, err = decodeBin(dec)
		case keySeq:
			var v uint64
			v, err = dec.DecodeUint64()
			b.Seq = &v
		case keyNonce:
			var v uint64
			v, err = dec.DecodeUint64()
			b.Nonce = &v
		case keyHash:
			b.Hash, err = decodeBin(dec)
		case keyPurposes:
			b.Purposes, err = decodePurposes(dec)
		case keyExt:
			b.Ext = make(map[string]any)
			err = dec.Decode(&b.Ext)
		default:
			var raw msgpack.RawMessage
			raw, err = dec.DecodeRaw()
			b.Extra = append(b.Extra, RawField{Key: key, Value: raw})
		}
		if err != nil {
			return fieldErr(key, err)
		}
	}
	if !hasKind {
		return fmt.Errorf("no %q field", keyKind)
	}
	return nil
}

func decodeBin(dec *msgpack.Decoder) ([]byte, error) {
	b, err := dec.DecodeBytes()
	if err == nil && b == nil {
		b = []byte{}
	}
	return b, err
}

func decodePurposes(dec *msgpack.Decoder) ([]PurposeEntry, error) {
	l, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	if l < 0 {
		return nil, nil
	}
	res := make([]PurposeEntry, l)
	for i := range res {
		el, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		if el != 3 {
			return nil, fmt.Errorf("purpose %d has %d elements", i, el)
		}
		p, err := dec.DecodeUint64()
		if err != nil {
			return nil, err
		}
		if p > 0xFF {
			return nil, fmt.Errorf("invalid purpose %d", p)
		}
		res[i].Purpose = Purpose(p)
		if res[i].Token, err = dec.DecodeString(); err != nil {
			return nil, err
		}
		if res[i].Amount, err = dec.DecodeUint64(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func fieldErr(key string, err error) error {
	return fmt.Errorf("field %q: %w", key, err)
}

// fieldWriter keeps the first error of a sequence of encoder calls.
type fieldWriter struct {
	enc *msgpack.Encoder
	e   error
}

func (w *fieldWriter) key(k string) {
	w.err(w.enc.EncodeString(k))
}

func (w *fieldWriter) err(err error) {
	if w.e == nil {
		w.e = err
	}
}
