// Package types provides type definitions for structured data used throughout the performance-evaluation system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// sentinelValues are placeholder answers that mean "not provided".
// Compared after trimming and lower-casing.
var sentinelValues = map[string]struct{}{
	"n/a":  {},
	"na":   {},
	"none": {},
	"":     {},
	"0":    {},
}

// IsSentinel reports whether s is a placeholder answer such as "N/A" or "0".
func IsSentinel(s string) bool {
	_, ok := sentinelValues[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// Present reports whether a field value counts as provided.
// A nil value is absent. Every consumer that decides whether a field is
// included in a document must go through this function.
func Present(v *string) bool {
	if v == nil {
		return false
	}
	return !IsSentinel(*v)
}

// Field is a single key/value pair of a Record. A nil Value means the
// cell was empty in every column that maps to Key.
type Field struct {
	Key   string
	Value *string
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// Record is one canonical row: an ordered mapping from logical field name to
// an optional value. A Record is not modified after construction.
type Record struct {
	fields []Field
	index  map[string]int
}

// NewRecord builds a Record from fields in order. When a key repeats, the
// first occurrence keeps its position and value.
func NewRecord(fields []Field) Record {
	r := Record{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if _, exists := r.index[f.Key]; exists {
			continue
		}
		var value *string
		if f.Value != nil {
			value = StringPtr(*f.Value)
		}
		r.index[f.Key] = len(r.fields)
		r.fields = append(r.fields, Field{Key: f.Key, Value: value})
	}
	return r
}

// RecordFromMap builds a Record from a plain map. Keys are taken in the
// order given by keys; keys missing from values are skipped.
func RecordFromMap(keys []string, values map[string]string) Record {
	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		v, ok := values[k]
		if !ok {
			continue
		}
		fields = append(fields, Field{Key: k, Value: StringPtr(v)})
	}
	return NewRecord(fields)
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.fields)
}

// Keys returns the field names in record order.
func (r Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Key
	}
	return keys
}

// Fields returns a copy of the fields in record order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Has reports whether the key exists, regardless of its value.
func (r Record) Has(key string) bool {
	_, ok := r.index[key]
	return ok
}

// Raw returns the stored value for key without applying the sentinel rule.
// The second result is false when the key does not exist.
func (r Record) Raw(key string) (*string, bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.fields[i].Value, true
}

// Present reports whether key exists and holds a provided value.
func (r Record) Present(key string) bool {
	v, _ := r.Raw(key)
	return Present(v)
}

// Lookup returns the value for key when it is present.
func (r Record) Lookup(key string) (string, bool) {
	v, _ := r.Raw(key)
	if !Present(v) {
		return "", false
	}
	return *v, true
}

// Get returns the value for key or "" when it is absent.
func (r Record) Get(key string) string {
	v, _ := r.Lookup(key)
	return v
}

// MarshalJSON encodes the record as a JSON object preserving field order.
// Absent values are written as null.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if f.Value == nil {
			buf.WriteString("null")
			continue
		}
		val, err := json.Marshal(*f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into a record, keeping key order.
// Values may be strings, numbers, booleans or null; non-string scalars are
// kept in their JSON text form.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object")
	}

	var fields []Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("record key must be a string")
		}

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		switch v := valTok.(type) {
		case nil:
			fields = append(fields, Field{Key: key})
		case string:
			fields = append(fields, Field{Key: key, Value: StringPtr(v)})
		case json.Number:
			fields = append(fields, Field{Key: key, Value: StringPtr(v.String())})
		case bool:
			fields = append(fields, Field{Key: key, Value: StringPtr(fmt.Sprintf("%t", v))})
		default:
			return fmt.Errorf("record field %q must be a scalar value", key)
		}
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = NewRecord(fields)
	return nil
}
