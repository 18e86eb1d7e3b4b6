package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"int", Int(-100), "-100"},
		{"integral float", Float(2.0), "2"},
		{"fractional float", Float(0.25), "0.25"},
		{"bool", Bool(true), "true"},
		{"null", Null{}, "null"},
		{"empty object", ObjectOf(), "{}"},
		{"sorted keys", ObjectOf(O("zebra", Int(1)), O("alpha", Int(2))), `{"alpha":2,"zebra":1}`},
		{"list", NewList(Int(1), String("a")), `[1,"a"]`},
		{"set keeps order", NewSet(Int(3), Int(1)), "[3,1]"},
		{"map as pairs", NewMap(Entry{String("b"), Int(1)}, Entry{String("a"), Int(2)}), `[["b",1],["a",2]]`},
		{"no html escaping", String("<a&b>"), `"<a&b>"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalNFC(t *testing.T) {
	decomposed := String("e\u0301")
	composed := String("\u00e9")

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(composed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	out, err := MarshalCanonical(String("a\u2028b"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(out))
}

func TestMarshalCanonicalRejectsNaN(t *testing.T) {
	_, err := MarshalCanonical(NewList(Float(math.NaN())))
	assert.Error(t, err)
}

func TestMarshalPlainKeepsFloatForm(t *testing.T) {
	out, err := Marshal(ObjectOf(O("f", Float(1.5)), O("n", Int(3))))
	require.NoError(t, err)
	assert.Equal(t, `{"f":1.5,"n":3}`, string(out))
}

func TestUnmarshal(t *testing.T) {
	v, err := Unmarshal([]byte(`{"count": 3, "ratio": 0.5, "tags": ["x"]}`))
	require.NoError(t, err)

	obj := v.(*Object)
	count, _ := obj.Get("count")
	ratio, _ := obj.Get("ratio")
	assert.Equal(t, Int(3), count)
	assert.Equal(t, Float(0.5), ratio)
}
