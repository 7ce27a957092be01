package entities

import (
	"bytes"
	"encoding/json"
	"math"
	"time"
)

// ValueKind identifies the property-list type of a Value
type ValueKind int

// Property-list value kinds
const (
	KindString ValueKind = iota
	KindInteger
	KindReal
	KindBoolean
	KindDate
	KindData
	KindArray
	KindDict
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindData:
		return "data"
	case KindArray:
		return "array"
	case KindDict:
		return "dict"
	default:
		return "invalid"
	}
}

// Value is one typed property-list value. Only the field matching Kind is meaningful.
type Value struct {
	Kind     ValueKind
	Str      string
	Int      int64
	Uint     uint64 // set instead of Int when the value does not fit in int64
	Unsigned bool
	Real     float64
	Bool     bool
	Date     time.Time
	Data     []byte
	Array    []Value
	Dict     *PropertyList
}

// StringValue creates a string value
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// IntValue creates a signed integer value
func IntValue(i int64) Value { return Value{Kind: KindInteger, Int: i} }

// UintValue creates an integer value, keeping it signed when it fits
func UintValue(u uint64) Value {
	if u <= math.MaxInt64 {
		return Value{Kind: KindInteger, Int: int64(u)}
	}
	return Value{Kind: KindInteger, Uint: u, Unsigned: true}
}

// RealValue creates a floating point value
func RealValue(f float64) Value { return Value{Kind: KindReal, Real: f} }

// BoolValue creates a boolean value
func BoolValue(b bool) Value { return Value{Kind: KindBoolean, Bool: b} }

// DateValue creates a date value, normalized to UTC
func DateValue(t time.Time) Value { return Value{Kind: KindDate, Date: t.UTC()} }

// DataValue creates a raw data value
func DataValue(b []byte) Value { return Value{Kind: KindData, Data: b} }

// ArrayValue creates a sequence value
func ArrayValue(items ...Value) Value { return Value{Kind: KindArray, Array: items} }

// DictValue creates a nested dictionary value
func DictValue(d *PropertyList) Value { return Value{Kind: KindDict, Dict: d} }

// MarshalJSON renders the value as its natural JSON counterpart
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindInteger:
		if v.Unsigned {
			return json.Marshal(v.Uint)
		}
		return json.Marshal(v.Int)
	case KindReal:
		return json.Marshal(v.Real)
	case KindBoolean:
		return json.Marshal(v.Bool)
	case KindDate:
		return json.Marshal(v.Date.Format(time.RFC3339))
	case KindData:
		return json.Marshal(v.Data)
	case KindArray:
		if v.Array == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Array)
	case KindDict:
		if v.Dict == nil {
			return []byte("{}"), nil
		}
		return v.Dict.MarshalJSON()
	default:
		return []byte("null"), nil
	}
}

// PropertyList is an ordered mapping of string keys to typed values.
// It is built once by a decoder and treated as immutable afterwards. Decoded lists hold their
// keys in sorted order; the document order of the source plist is not preserved.
type PropertyList struct {
	keys   []string
	values map[string]Value
}

// NewPropertyList creates an empty property list
func NewPropertyList() *PropertyList {
	return &PropertyList{values: make(map[string]Value)}
}

// Set stores a value, appending the key on first insertion
func (p *PropertyList) Set(key string, v Value) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = v
}

// Get returns the value stored under key
func (p *PropertyList) Get(key string) (Value, bool) {
	if p == nil {
		return Value{}, false
	}
	v, ok := p.values[key]
	return v, ok
}

// String returns the string stored under key; non-string values report false
func (p *PropertyList) String(key string) (string, bool) {
	v, ok := p.Get(key)
	if !ok || v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// Keys returns the keys in insertion order, which for decoded lists is sorted order
func (p *PropertyList) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of keys
func (p *PropertyList) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// IsEmpty reports whether the list holds no keys
func (p *PropertyList) IsEmpty() bool {
	return p.Len() == 0
}

// MarshalJSON renders the list as a JSON object preserving key order
func (p *PropertyList) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := p.values[key].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
