package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Marshal encodes v as JSON. Object keys are written in RFC 8785 order.
// Map is written as a list of [key, value] pairs and Set as a list, so
// Unmarshal does not round-trip those two kinds.
//
// NOTE: This is NOT canonical marshaling. Use MarshalCanonical for hashing.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case String:
		b, err := json.Marshal(string(val))
		if err != nil {
			return err
		}
		buf.Write(b)
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("unsupported float value: %v", f)
		}
		buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case *Object:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return fmt.Errorf("marshal key %q: %w", k, err)
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeJSON(buf, val.fields[k]); err != nil {
				return fmt.Errorf("marshal value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case *List:
		return writeJSONArray(buf, val.items)
	case *Set:
		return writeJSONArray(buf, val.members)
	case *Map:
		buf.WriteByte('[')
		for i, k := range val.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('[')
			if err := writeJSON(buf, k); err != nil {
				return fmt.Errorf("map key %d: %w", i, err)
			}
			buf.WriteByte(',')
			if err := writeJSON(buf, val.entries[KeyOf(k)]); err != nil {
				return fmt.Errorf("map value %d: %w", i, err)
			}
			buf.WriteByte(']')
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("unknown Value type: %T", v)
	}
	return nil
}

func writeJSONArray(buf *bytes.Buffer, items []Value) error {
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(buf, item); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

// Unmarshal decodes JSON into a Value tree. Integral numbers become Int,
// other numbers Float, objects Object and arrays List.
func Unmarshal(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromGo(raw)
}

// MarshalJSON implements json.Marshaler.
func (o *Object) MarshalJSON() ([]byte, error) { return Marshal(o) }

// MarshalJSON implements json.Marshaler.
func (l *List) MarshalJSON() ([]byte, error) { return Marshal(l) }

// MarshalJSON implements json.Marshaler.
func (m *Map) MarshalJSON() ([]byte, error) { return Marshal(m) }

// MarshalJSON implements json.Marshaler.
func (s *Set) MarshalJSON() ([]byte, error) { return Marshal(s) }

// MarshalJSON implements json.Marshaler.
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }
