package model

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Properties is an optional property map attached to nodes, edges and
// vectors. Values are restricted to what msgpack round-trips cleanly:
// strings, booleans, integers, floats, and nested slices/maps thereof.
type Properties map[string]any

// Encode serializes the property map with msgpack. Nil and empty maps
// encode to nil so stored records carry no property section at all.
func (p Properties) Encode() ([]byte, error) {
	if len(p) == 0 {
		return nil, nil
	}
	b, err := msgpack.Marshal(map[string]any(p))
	if err != nil {
		return nil, fmt.Errorf("model: encode properties: %w", err)
	}
	return b, nil
}

// DecodeProperties deserializes a msgpack property section. An empty
// section yields nil.
func DecodeProperties(b []byte) (Properties, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("model: decode properties: %w", err)
	}
	return Properties(m), nil
}

// Clone returns a shallow copy of the property map.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// EncodeValue serializes a single property value into the byte form used
// as secondary-index key material. Equal values always produce equal
// bytes, which is all prefix-scan lookup needs.
func EncodeValue(v any) ([]byte, error) {
	b, err := msgpack.Marshal(normalizeValue(v))
	if err != nil {
		return nil, fmt.Errorf("model: encode index value: %w", err)
	}
	return b, nil
}

// normalizeValue collapses integer widths so that e.g. int(5) and int64(5)
// index identically.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}
