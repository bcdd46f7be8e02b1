package keys

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/thepower/tpgo/pkg/txerr"
)

const (
	// WIFVersion is the version used to decode and encode WIF keys.
	WIFVersion = 0x80

	checksumLen = 4
)

// WIF represents a wallet import format.
type WIF struct {
	// Version of the wallet import format. Default to 0x80.
	Version byte

	// Bool to determine if the WIF is compressed or not.
	Compressed bool

	// A reference to the PrivateKey which this WIF is created from.
	PrivateKey *PrivateKey

	// The string representation of the WIF.
	S string
}

func checksum(b []byte) []byte {
	h1 := sha256.Sum256(b)
	h2 := sha256.Sum256(h1[:])
	return h2[:checksumLen]
}

// WIFEncode encodes the given private key into a WIF string.
func WIFEncode(key []byte, version byte, compressed bool) (s string, err error) {
	if version == 0x00 {
		version = WIFVersion
	}
	if len(key) != PrivateKeyLen {
		return s, fmt.Errorf("%w: invalid private key length: %d", txerr.ErrCrypto, len(key))
	}

	buf := new(bytes.Buffer)
	buf.WriteByte(version)
	buf.Write(key)
	if compressed {
		buf.WriteByte(0x01)
	}
	buf.Write(checksum(buf.Bytes()))

	return base58.Encode(buf.Bytes()), nil
}

// WIFDecode decodes the given WIF string into a WIF struct.
func WIFDecode(wif string, version byte) (*WIF, error) {
	b, err := base58.Decode(wif)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", txerr.ErrCrypto, err)
	}
	if len(b) < checksumLen+1 {
		return nil, fmt.Errorf("%w: WIF is too short", txerr.ErrCrypto)
	}
	payload, sum := b[:len(b)-checksumLen], b[len(b)-checksumLen:]
	if !bytes.Equal(sum, checksum(payload)) {
		return nil, fmt.Errorf("%w: invalid WIF checksum", txerr.ErrCrypto)
	}

	if version == 0x00 {
		version = WIFVersion
	}
	if payload[0] != version {
		return nil, fmt.Errorf("%w: invalid WIF version got %d, expected %d", txerr.ErrCrypto, payload[0], version)
	}

	w := &WIF{
		Version: version,
		S:       wif,
	}
	switch len(payload) {
	case 1 + PrivateKeyLen + 1:
		if payload[len(payload)-1] != 0x01 {
			return nil, fmt.Errorf("%w: invalid compression flag %d", txerr.ErrCrypto, payload[len(payload)-1])
		}
		w.Compressed = true
	case 1 + PrivateKeyLen:
	default:
		return nil, fmt.Errorf("%w: invalid WIF length: %d", txerr.ErrCrypto, len(payload))
	}

	w.PrivateKey, err = NewPrivateKeyFromBytes(payload[1 : 1+PrivateKeyLen])
	if err != nil {
		return nil, err
	}
	return w, nil
}
