package value

import (
	"fmt"
	"math"
)

// Kind tags the concrete shape of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindObject
	KindList
	KindMap
	KindSet
)

var kindNames = [...]string{
	KindNull:   "null",
	KindString: "string",
	KindInt:    "int",
	KindFloat:  "float",
	KindBool:   "bool",
	KindObject: "object",
	KindList:   "list",
	KindMap:    "map",
	KindSet:    "set",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsContainer reports whether values of this kind hold other values.
func (k Kind) IsContainer() bool {
	return k == KindObject || k == KindList || k == KindMap || k == KindSet
}

// Value is a sealed interface over the snapshot tree.
// Scalars are Null, String, Int, Float, and Bool; containers are *Object,
// *List, *Map, and *Set. Containers are immutable once built: every
// accessor returns copies, never the backing storage.
type Value interface {
	Kind() Kind
	value() // sealed
}

// Null is the JSON null value.
type Null struct{}

func (Null) Kind() Kind { return KindNull }
func (Null) value()     {}

// String is a string scalar.
type String string

func (String) Kind() Kind { return KindString }
func (String) value()     {}

// Int is an integer scalar.
type Int int64

func (Int) Kind() Kind { return KindInt }
func (Int) value()     {}

// Float is a floating point scalar.
type Float float64

func (Float) Kind() Kind { return KindFloat }
func (Float) value()     {}

// Bool is a boolean scalar.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (Bool) value()     {}

// KindOf returns the kind of v, treating a nil interface as Null.
func KindOf(v Value) Kind {
	if v == nil {
		return KindNull
	}
	return v.Kind()
}

// orNull replaces a nil interface with Null so containers never store nil.
func orNull(v Value) Value {
	if v == nil {
		return Null{}
	}
	return v
}

// nanKey stands in for every NaN Float in Map and Set tables, making NaN a
// single key even though NaN != NaN.
type nanKey struct{}

func (nanKey) Kind() Kind { return KindFloat }
func (nanKey) value()     {}

// KeyOf returns the form of v used to index Map entries and Set members:
// v itself, except that nil becomes Null and every NaN the same key.
func KeyOf(v Value) Value {
	if f, ok := v.(Float); ok && math.IsNaN(float64(f)) {
		return nanKey{}
	}
	return orNull(v)
}

// Same reports reference identity: containers are the same pointer,
// scalars are equal by value. Views and structural sharing checks use it.
func Same(a, b Value) bool {
	if fa, ok := a.(Float); ok {
		if fb, ok := b.(Float); ok && math.IsNaN(float64(fa)) && math.IsNaN(float64(fb)) {
			return true
		}
	}
	return a == b
}

// Equal reports deep equality. Map and Set compare entries regardless of
// insertion order; List compares element-wise.
func Equal(a, b Value) bool {
	if Same(a, b) {
		return true
	}
	if KindOf(a) != KindOf(b) {
		return false
	}
	switch x := a.(type) {
	case *Object:
		y := b.(*Object)
		if x.Len() != y.Len() {
			return false
		}
		for k, xv := range x.fields {
			yv, ok := y.fields[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case *List:
		y := b.(*List)
		if x.Len() != y.Len() {
			return false
		}
		for i := range x.items {
			if !Equal(x.items[i], y.items[i]) {
				return false
			}
		}
		return true
	case *Map:
		y := b.(*Map)
		if x.Len() != y.Len() {
			return false
		}
		for k, xv := range x.entries {
			yv, ok := y.entries[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case *Set:
		y := b.(*Set)
		if x.Len() != y.Len() {
			return false
		}
		for _, m := range x.members {
			if !y.Has(m) {
				return false
			}
		}
		return true
	case Null:
		return true
	default:
		return false
	}
}

// AsInt returns the integer held by v. Floats with no fractional part are
// accepted so JSON-decoded numbers can be used as counters.
func AsInt(v Value) (int64, bool) {
	switch n := v.(type) {
	case Int:
		return int64(n), true
	case Float:
		if float64(n) == math.Trunc(float64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

// AsString returns the string held by v.
func AsString(v Value) (string, bool) {
	s, ok := v.(String)
	return string(s), ok
}

// AsBool returns the bool held by v.
func AsBool(v Value) (bool, bool) {
	b, ok := v.(Bool)
	return bool(b), ok
}

// Len returns the number of children of a container, or 0 for scalars.
func Len(v Value) int {
	switch c := v.(type) {
	case *Object:
		return c.Len()
	case *List:
		return c.Len()
	case *Map:
		return c.Len()
	case *Set:
		return c.Len()
	}
	return 0
}
