package block

import (
	"bytes"
	"fmt"

	"github.com/thepower/tpgo/pkg/txerr"
	"github.com/vmihailenco/msgpack/v5"
)

// Block is the part of a binary block relevant for its validation: header and
// validator signature blobs.
type Block struct {
	Header Header
	Sign   [][]byte
}

// DecodeBinary decodes a block in the form served by the node's binary block
// endpoint. Fields other than header and sign are skipped.
func DecodeBinary(raw []byte) (*Block, error) {
	b := new(Block)
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(b); err != nil {
		return nil, fmt.Errorf("%w: block: %w", txerr.ErrEncoding, err)
	}
	return b, nil
}

// Bytes serializes the block header and signatures.
func (b *Block) Bytes() ([]byte, error) {
	raw, err := msgpack.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("%w: block: %w", txerr.ErrEncoding, err)
	}
	return raw, nil
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (b *Block) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(2); err != nil {
		return err
	}
	if err := enc.EncodeString("header"); err != nil {
		return err
	}
	if err := enc.Encode(&b.Header); err != nil {
		return err
	}
	if err := enc.EncodeString("sign"); err != nil {
		return err
	}
	if err := enc.EncodeArrayLen(len(b.Sign)); err != nil {
		return err
	}
	for _, s := range b.Sign {
		if err := enc.EncodeBytes(s); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (b *Block) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	*b = Block{}
	var hasHeader bool
	for i := 0; i < n; i++ {
		key, err := decodeKey(dec)
		if err != nil {
			return err
		}
		switch key {
		case "header":
			err = dec.Decode(&b.Header)
			hasHeader = true
		case "sign":
			var l int
			l, err = dec.DecodeArrayLen()
			for j := 0; j < l && err == nil; j++ {
				var s []byte
				s, err = dec.DecodeBytes()
				b.Sign = append(b.Sign, s)
			}
		default:
			err = dec.Skip()
		}
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}
	if !hasHeader {
		return fmt.Errorf("no header")
	}
	return nil
}
