package domain

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/bnema/dindex-chat/internal/codec"
)

const (
	FieldAction   = "action"
	FieldUsername = "username"
	FieldMessage  = "message"
)

// Record is an immutable set of field/value pairs. The zero value is the
// empty record.
type Record struct {
	fields map[string]string
}

func NewRecord(fields map[string]string) Record {
	if len(fields) == 0 {
		return Record{}
	}

	return Record{fields: maps.Clone(fields)}
}

// ParseRecord builds a record from KEY=VALUE arguments.
func ParseRecord(pairs []string) (Record, error) {
	fields := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return Record{}, fmt.Errorf("%w: %q is not KEY=VALUE", ErrInvalidRecord, pair)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return Record{}, fmt.Errorf("%w: empty field name in %q", ErrInvalidRecord, pair)
		}
		fields[key] = value
	}

	return NewRecord(fields), nil
}

func (r Record) Get(field string) (string, bool) {
	value, ok := r.fields[field]
	return value, ok
}

// Value returns the field value or "" when absent.
func (r Record) Value(field string) string {
	return r.fields[field]
}

func (r Record) Fields() map[string]string {
	return maps.Clone(r.fields)
}

// Keys returns the field names in sorted order.
func (r Record) Keys() []string {
	return slices.Sorted(maps.Keys(r.fields))
}

func (r Record) Len() int {
	return len(r.fields)
}

func (r Record) IsEmpty() bool {
	return len(r.fields) == 0
}

func (r Record) Equal(other Record) bool {
	return maps.Equal(r.fields, other.fields)
}

// Digest identifies a record by content. Content-equal records share a
// digest.
func (r Record) Digest() string {
	digest, err := codec.Digest(r.fields)
	if err != nil {
		// a map[string]string always has a CBOR encoding
		panic(err)
	}

	return digest
}

func (r Record) String() string {
	parts := make([]string, 0, len(r.fields))
	for _, key := range r.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%q", key, r.fields[key]))
	}

	return "{" + strings.Join(parts, " ") + "}"
}

func (r Record) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		return []byte("{}"), nil
	}

	return json.Marshal(r.fields)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]string
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = NewRecord(fields)
	return nil
}
