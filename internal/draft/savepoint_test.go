package draft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ripple/internal/value"
)

func TestRestoreUntouched(t *testing.T) {
	base := sampleState()
	d, err := New(base)
	require.NoError(t, err)

	sp, err := d.Save()
	require.NoError(t, err)
	require.NoError(t, d.SetIn(value.P("a", "x"), value.Int(9)))
	require.NoError(t, sp.Restore())

	next, changed, err := d.Finalize()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, value.Same(base, next))
}

func TestRestoreKeepsEarlierWrites(t *testing.T) {
	base := sampleState()
	d, err := New(base)
	require.NoError(t, err)

	a, err := d.Child("a")
	require.NoError(t, err)
	require.NoError(t, a.Set("x", value.Int(10)))

	sp, err := d.Save()
	require.NoError(t, err)

	require.NoError(t, a.Set("x", value.Int(20)))
	b, err := d.Child("b")
	require.NoError(t, err)
	require.NoError(t, b.Set("y", value.Int(30)))
	items, err := d.Child("items")
	require.NoError(t, err)
	_, err = items.Pop()
	require.NoError(t, err)

	require.NoError(t, sp.Restore())

	// a existed at Save and stays writable; b was created later
	require.NoError(t, a.Set("z", value.Int(1)))
	assert.Equal(t, ReasonDetached, staleReason(t, b.Set("y", value.Int(31))))

	next, changed, err := d.Finalize()
	require.NoError(t, err)
	require.True(t, changed)

	x, _ := value.Lookup(next, value.P("a", "x"))
	assert.Equal(t, value.Int(10), x)
	z, _ := value.Lookup(next, value.P("a", "z"))
	assert.Equal(t, value.Int(1), z)
	bv, _ := value.Lookup(base, value.P("b"))
	bn, _ := value.Lookup(next, value.P("b"))
	assert.True(t, value.Same(bv, bn), "b is shared again after restore")
	list, _ := value.Lookup(next, value.P("items"))
	assert.Equal(t, 3, value.Len(list))
}

func TestSaveRequiresRoot(t *testing.T) {
	d, err := New(sampleState())
	require.NoError(t, err)
	a, err := d.Child("a")
	require.NoError(t, err)

	_, err = a.Save()
	assert.Error(t, err)
}

func TestRestoreAfterFinalize(t *testing.T) {
	d, err := New(sampleState())
	require.NoError(t, err)
	sp, err := d.Save()
	require.NoError(t, err)
	_, _, err = d.Finalize()
	require.NoError(t, err)

	assert.Equal(t, ReasonRevoked, staleReason(t, sp.Restore()))
}
