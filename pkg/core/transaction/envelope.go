package transaction

import (
	"encoding/base64"
	"fmt"

	"github.com/thepower/tpgo/pkg/crypto/keys"
	"github.com/thepower/tpgo/pkg/txerr"
	"github.com/vmihailenco/msgpack/v5"
)

// EnvelopeVersion is the only envelope version produced and accepted.
const EnvelopeVersion = 2

// Envelope is the signed container transmitted to the network. Body is the
// serialized transaction body, Sig is a list of tagged signature blobs.
type Envelope struct {
	Body []byte
	Sig  [][]byte
	Ver  uint8
}

// NewEnvelope creates an unsigned envelope for the body.
func NewEnvelope(b *Body) (*Envelope, error) {
	payload, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	return &Envelope{Body: payload, Sig: [][]byte{}, Ver: EnvelopeVersion}, nil
}

// Sign appends one more signature over the body made with the key.
func (e *Envelope) Sign(key *keys.PrivateKey) error {
	bsig, err := SignPayload(e.Body, key)
	if err != nil {
		return err
	}
	e.Sig = append(e.Sig, bsig)
	return nil
}

// Bytes returns serialized envelope.
func (e *Envelope) Bytes() ([]byte, error) {
	return Marshal(e)
}

// Base64 returns the transport form of the envelope.
func (e *Envelope) Base64() (string, error) {
	b, err := e.Bytes()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeEnvelope decodes base64 transport form of an envelope.
func DecodeEnvelope(s string) (*Envelope, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", txerr.ErrEncoding, err)
	}
	return DecodeEnvelopeBytes(b)
}

// DecodeEnvelopeBytes decodes a serialized envelope.
func DecodeEnvelopeBytes(b []byte) (*Envelope, error) {
	e := new(Envelope)
	if err := Unmarshal(b, e); err != nil {
		return nil, err
	}
	return e, nil
}

// DecodeBody deserializes envelope body.
func (e *Envelope) DecodeBody() (*Body, error) {
	return DecodeBody(e.Body)
}

// VerifySignatures checks every signature of the envelope, it returns valid
// signature blobs and the number of invalid ones.
func (e *Envelope) VerifySignatures() ([][]byte, int) {
	var valid [][]byte
	for _, s := range e.Sig {
		if VerifySingle(e.Body, s) {
			valid = append(valid, s)
		}
	}
	return valid, len(e.Sig) - len(valid)
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (e *Envelope) EncodeMsgpack(enc *msgpack.Encoder) error {
	var w = fieldWriter{enc: enc}
	w.err(enc.EncodeMapLen(3))
	w.key("body")
	w.err(enc.EncodeBytes(e.Body))
	w.key("sig")
	w.err(enc.EncodeArrayLen(len(e.Sig)))
	for _, s := range e.Sig {
		w.err(enc.EncodeBytes(s))
	}
	w.key("ver")
	w.err(enc.EncodeUint(uint64(e.Ver)))
	return w.e
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (e *Envelope) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	*e = Envelope{}
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return err
		}
		switch key {
		case "body":
			e.Body, err = decodeBin(dec)
		case "sig":
			var l int
			l, err = dec.DecodeArrayLen()
			if err == nil && l > 0 {
				e.Sig = make([][]byte, l)
				for j := 0; j < l && err == nil; j++ {
					e.Sig[j], err = decodeBin(dec)
				}
			}
		case "ver":
			var v uint64
			v, err = dec.DecodeUint64()
			if err == nil && v != EnvelopeVersion {
				err = fmt.Errorf("unsupported version %d", v)
			}
			e.Ver = uint8(v)
		default:
			err = dec.Skip()
		}
		if err != nil {
			return fieldErr(key, err)
		}
	}
	if e.Body == nil {
		return fmt.Errorf("no body")
	}
	return nil
}
