package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "object", KindObject.String())
	assert.Equal(t, "set", KindSet.String())
	assert.True(t, KindList.IsContainer())
	assert.False(t, KindInt.IsContainer())
	assert.Equal(t, KindNull, KindOf(nil))
}

func TestSame(t *testing.T) {
	a := ObjectOf(O("n", Int(1)))
	b := ObjectOf(O("n", Int(1)))

	assert.True(t, Same(a, a))
	assert.False(t, Same(a, b), "distinct pointers are not the same")
	assert.True(t, Same(Int(3), Int(3)))
	assert.False(t, Same(Int(3), Float(3)))
	assert.True(t, Same(Float(math.NaN()), Float(math.NaN())))
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"objects", ObjectOf(O("a", Int(1))), ObjectOf(O("a", Int(1))), true},
		{"objects differ", ObjectOf(O("a", Int(1))), ObjectOf(O("a", Int(2))), false},
		{"lists", NewList(Int(1), Int(2)), NewList(Int(1), Int(2)), true},
		{"list order", NewList(Int(1), Int(2)), NewList(Int(2), Int(1)), false},
		{"set order ignored", NewSet(Int(1), Int(2)), NewSet(Int(2), Int(1)), true},
		{"map order ignored",
			NewMap(Entry{Int(1), String("a")}, Entry{Int(2), String("b")}),
			NewMap(Entry{Int(2), String("b")}, Entry{Int(1), String("a")}), true},
		{"kind mismatch", NewList(), NewSet(), false},
		{"nulls", Null{}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestObjectAccessors(t *testing.T) {
	o := ObjectOf(O("b", Int(2)), O("a", nil))

	v, ok := o.Get("a")
	require.True(t, ok)
	assert.Equal(t, Null{}, v, "nil values are stored as Null")
	assert.Equal(t, []string{"a", "b"}, o.SortedKeys())

	fields := o.Fields()
	fields["c"] = Int(3)
	assert.False(t, o.Has("c"), "Fields returns a copy")

	var nilObj *Object
	assert.Equal(t, 0, nilObj.Len())
	_, ok = nilObj.Get("x")
	assert.False(t, ok)
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// U+1F600 is the surrogate pair D83D DE00 in UTF-16, which sorts before
	// U+FF61 even though its code point is larger.
	o := ObjectOf(O("\U0001F600", Int(1)), O("\uff61", Int(2)))
	assert.Equal(t, []string{"\U0001F600", "\uff61"}, o.SortedKeys())
}

func TestMapInsertionOrder(t *testing.T) {
	m := NewMap(
		Entry{String("z"), Int(1)},
		Entry{String("a"), Int(2)},
		Entry{String("z"), Int(3)},
	)

	assert.Equal(t, []Value{String("z"), String("a")}, m.Keys())
	v, _ := m.Get(String("z"))
	assert.Equal(t, Int(3), v, "repeated key keeps the last value")
}

func TestSetDedup(t *testing.T) {
	s := NewSet(Int(1), Int(2), Int(1))
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has(Int(2)))
	assert.Equal(t, []Value{Int(1), Int(2)}, s.Members())
}

func TestNaNIsOneKey(t *testing.T) {
	nan := Float(math.NaN())

	s := NewSet(nan, Int(1), Float(math.NaN()))
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has(Float(math.NaN())))

	m := NewMap(Entry{nan, Int(1)}, Entry{Float(math.NaN()), Int(2)})
	assert.Equal(t, 1, m.Len())
	v, ok := m.Get(Float(math.NaN()))
	require.True(t, ok)
	assert.Equal(t, Int(2), v)
	for _, got := range m.All() {
		assert.Equal(t, Int(2), got)
	}
	assert.True(t, Equal(m, NewMap(Entry{Float(math.NaN()), Int(2)})))
}

func TestAsHelpers(t *testing.T) {
	n, ok := AsInt(Float(4))
	assert.True(t, ok)
	assert.Equal(t, int64(4), n)

	_, ok = AsInt(Float(4.5))
	assert.False(t, ok)

	s, ok := AsString(String("x"))
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	_, ok = AsBool(Int(1))
	assert.False(t, ok)
}

func TestFromGoAndBack(t *testing.T) {
	in := map[string]any{
		"name":  "cart",
		"count": 2,
		"tags":  []any{"a", "b"},
		"ratio": 0.5,
		"none":  nil,
	}
	v, err := FromGo(in)
	require.NoError(t, err)

	obj, ok := v.(*Object)
	require.True(t, ok)
	count, _ := obj.Get("count")
	assert.Equal(t, Int(2), count)

	out := ToGo(v).(map[string]any)
	assert.Equal(t, int64(2), out["count"])
	assert.Equal(t, []any{"a", "b"}, out["tags"])
	assert.Nil(t, out["none"])
}

func TestFromGoRejectsUnsupported(t *testing.T) {
	_, err := FromGo(struct{}{})
	assert.Error(t, err)

	_, err = FromGo(map[any]any{1: "x"})
	assert.Error(t, err)
}
