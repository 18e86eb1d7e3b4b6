package value

import (
	"encoding/json"
	"fmt"
)

// FromGo converts plain Go data (as produced by encoding/json, yaml.v3, or
// literal construction) into a Value tree. Values pass through unchanged.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return Int(n), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val.String(), err)
		}
		return Float(f), nil
	case []any:
		items := make([]Value, len(val))
		for i, elem := range val {
			item, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = item
		}
		return OwnList(items), nil
	case []string:
		items := make([]Value, len(val))
		for i, s := range val {
			items[i] = String(s)
		}
		return OwnList(items), nil
	case []int:
		items := make([]Value, len(val))
		for i, n := range val {
			items[i] = Int(n)
		}
		return OwnList(items), nil
	case map[string]any:
		fields := make(map[string]Value, len(val))
		for k, elem := range val {
			f, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			fields[k] = f
		}
		return OwnObject(fields), nil
	case map[any]any:
		fields := make(map[string]Value, len(val))
		for k, elem := range val {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("object key %v: must be a string, got %T", k, k)
			}
			f, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", ks, err)
			}
			fields[ks] = f
		}
		return OwnObject(fields), nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// MustFromGo is like FromGo but panics on error.
// Use only in tests or with literal input.
func MustFromGo(v any) Value {
	out, err := FromGo(v)
	if err != nil {
		panic(err)
	}
	return out
}

// ToGo converts a Value tree back to plain Go data: Object becomes
// map[string]any, List and Set become []any, Map becomes a []any of
// [key, value] pairs, Int becomes int64 and Float float64.
func ToGo(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case *Object:
		out := make(map[string]any, val.Len())
		for k, f := range val.fields {
			out[k] = ToGo(f)
		}
		return out
	case *List:
		out := make([]any, val.Len())
		for i, item := range val.items {
			out[i] = ToGo(item)
		}
		return out
	case *Set:
		out := make([]any, val.Len())
		for i, m := range val.members {
			out[i] = ToGo(m)
		}
		return out
	case *Map:
		out := make([]any, 0, val.Len())
		for _, k := range val.keys {
			out = append(out, []any{ToGo(k), ToGo(val.entries[KeyOf(k)])})
		}
		return out
	default:
		return nil
	}
}
