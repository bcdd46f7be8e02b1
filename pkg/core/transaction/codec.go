package transaction

import (
	"bytes"
	"fmt"

	"github.com/thepower/tpgo/pkg/txerr"
	"github.com/vmihailenco/msgpack/v5"
)

// Marshal serializes v the way the network does: integers are packed in
// their shortest form and map keys are sorted, so the output is stable for
// hashing and signing.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("%w: %w", txerr.ErrEncoding, err)
	}
	return buf.Bytes(), nil
}

// Unmarshal deserializes data into v.
func Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", txerr.ErrEncoding, err)
	}
	return nil
}
