package block

import (
	"crypto/sha256"
	"fmt"

	"github.com/thepower/tpgo/pkg/crypto/hash"
	"github.com/thepower/tpgo/pkg/io"
	"github.com/vmihailenco/msgpack/v5"
)

// Root is a named root hash of a block header (ledger, transactions,
// settings...).
type Root struct {
	Name  string
	Value []byte
}

// Header holds the head info of a block.
type Header struct {
	Chain  uint64
	Height uint64
	Parent []byte
	Roots  []Root
}

// Hash returns the hash validators sign: SHA-256 over big-endian 64-bit
// chain and height, parent hash and all root hash values in header order.
func (h *Header) Hash() [sha256.Size]byte {
	w := io.NewBufBinWriter()
	w.WriteU64BE(h.Chain)
	w.WriteU64BE(h.Height)
	w.WriteBytes(h.Parent)
	for _, r := range h.Roots {
		w.WriteBytes(r.Value)
	}
	return hash.Sha256(w.Bytes())
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (h *Header) EncodeMsgpack(enc *msgpack.Encoder) error {
	var err error
	try := func(e error) {
		if err == nil {
			err = e
		}
	}
	try(enc.EncodeMapLen(4))
	try(enc.EncodeString("chain"))
	try(enc.EncodeUint(h.Chain))
	try(enc.EncodeString("height"))
	try(enc.EncodeUint(h.Height))
	try(enc.EncodeString("parent"))
	try(enc.EncodeBytes(h.Parent))
	try(enc.EncodeString("roots"))
	try(enc.EncodeArrayLen(len(h.Roots)))
	for _, r := range h.Roots {
		try(enc.EncodeArrayLen(2))
		try(enc.EncodeBytes([]byte(r.Name)))
		try(enc.EncodeBytes(r.Value))
	}
	return err
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (h *Header) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	*h = Header{}
	for i := 0; i < n; i++ {
		key, err := decodeKey(dec)
		if err != nil {
			return err
		}
		switch key {
		case "chain":
			h.Chain, err = dec.DecodeUint64()
		case "height":
			h.Height, err = dec.DecodeUint64()
		case "parent":
			h.Parent, err = dec.DecodeBytes()
		case "roots":
			h.Roots, err = decodeRoots(dec)
		default:
			err = dec.Skip()
		}
		if err != nil {
			return fmt.Errorf("header field %q: %w", key, err)
		}
	}
	return nil
}

func decodeRoots(dec *msgpack.Decoder) ([]Root, error) {
	l, err := dec.DecodeArrayLen()
	if err != nil || l <= 0 {
		return nil, err
	}
	roots := make([]Root, l)
	for i := range roots {
		el, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		if el != 2 {
			return nil, fmt.Errorf("root %d has %d elements", i, el)
		}
		if roots[i].Name, err = decodeKey(dec); err != nil {
			return nil, err
		}
		if roots[i].Value, err = dec.DecodeBytes(); err != nil {
			return nil, err
		}
	}
	return roots, nil
}

// decodeKey decodes a map key or a root name which can be packed either as a
// string or as a binary.
func decodeKey(dec *msgpack.Decoder) (string, error) {
	v, err := dec.DecodeInterface()
	if err != nil {
		return "", err
	}
	switch k := v.(type) {
	case string:
		return k, nil
	case []byte:
		return string(k), nil
	default:
		return fmt.Sprint(k), nil
	}
}
