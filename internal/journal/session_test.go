package journal

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()
	assert.NotEqual(t, a, b)

	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("one", "two")
	assert.Equal(t, "one", gen.Generate())
	assert.Equal(t, "two", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestWithSessionGenerator(t *testing.T) {
	rec := NewRecorder(nil, WithSessionGenerator(NewFixedGenerator("fixed")))
	assert.Equal(t, "fixed", rec.Session())
}
