// Package codec holds the canonical binary encoding for records.
//
// Records are encoded with CBOR Core Deterministic Encoding (RFC 8949
// §4.2): map keys are sorted and lengths are minimal, so the same set of
// field/value pairs always produces identical bytes regardless of the
// order in which fields were inserted. Digests are blake3 over those
// bytes.
package codec

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// EncodeFields returns the canonical encoding of a field map.
func EncodeFields(fields map[string]string) ([]byte, error) {
	if fields == nil {
		fields = map[string]string{}
	}

	data, err := encMode.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode record fields: %w", err)
	}

	return data, nil
}

// DecodeFields is the inverse of EncodeFields. Duplicate keys are rejected.
func DecodeFields(data []byte) (map[string]string, error) {
	fields := map[string]string{}
	if err := decMode.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode record fields: %w", err)
	}

	return fields, nil
}

// Digest returns the hex blake3-256 hash of the canonical encoding.
func Digest(fields map[string]string) (string, error) {
	data, err := EncodeFields(fields)
	if err != nil {
		return "", err
	}

	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
