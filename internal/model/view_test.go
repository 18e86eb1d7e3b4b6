package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ripple/internal/value"
)

type viewCounts struct {
	doubled, quadrupled, whole int
}

func viewSpec(c *viewCounts) Spec {
	spec := countSpec()
	spec.Views = map[string]View{
		"doubled": func(vc *ViewContext) (value.Value, error) {
			c.doubled++
			v, _ := vc.Get(value.P("value"))
			n, _ := value.AsInt(v)
			return value.Int(n * 2), nil
		},
		"quadrupled": func(vc *ViewContext) (value.Value, error) {
			c.quadrupled++
			v, err := vc.View("doubled")
			if err != nil {
				return nil, err
			}
			n, _ := value.AsInt(v)
			return value.Int(n * 2), nil
		},
		"whole": func(vc *ViewContext) (value.Value, error) {
			c.whole++
			return value.Int(value.Len(vc.State())), nil
		},
	}
	return spec
}

func TestViewNotRecomputedForUnrelatedField(t *testing.T) {
	var c viewCounts
	m := newTestManager()
	h, err := m.GetModel("count", MustDefine(viewSpec(&c)))
	require.NoError(t, err)

	v, err := h.View("doubled")
	require.NoError(t, err)
	assert.Equal(t, value.Int(0), v)

	for i := 0; i < 5; i++ {
		_, err := h.Dispatch(context.Background(), "bump")
		require.NoError(t, err)
		_, err = h.View("doubled")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, c.doubled)

	_, err = h.Dispatch(context.Background(), "add", value.Int(2))
	require.NoError(t, err)
	v, err = h.View("doubled")
	require.NoError(t, err)
	assert.Equal(t, value.Int(4), v)
	assert.Equal(t, 2, c.doubled)
}

func TestViewOfViewTracksSibling(t *testing.T) {
	var c viewCounts
	m := newTestManager()
	h, err := m.GetModel("count", MustDefine(viewSpec(&c)))
	require.NoError(t, err)

	v, err := h.View("quadrupled")
	require.NoError(t, err)
	assert.Equal(t, value.Int(0), v)

	_, err = h.Dispatch(context.Background(), "bump")
	require.NoError(t, err)
	_, err = h.View("quadrupled")
	require.NoError(t, err)
	assert.Equal(t, 1, c.quadrupled, "sibling unchanged, no recompute")
	assert.Equal(t, 1, c.doubled)

	_, err = h.Dispatch(context.Background(), "add", value.Int(1))
	require.NoError(t, err)
	v, err = h.View("quadrupled")
	require.NoError(t, err)
	assert.Equal(t, value.Int(4), v)
	assert.Equal(t, 2, c.quadrupled)
	assert.Equal(t, 2, c.doubled)
}

func TestViewOverWholeStateRecomputesOnAnyChange(t *testing.T) {
	var c viewCounts
	m := newTestManager()
	h, err := m.GetModel("count", MustDefine(viewSpec(&c)))
	require.NoError(t, err)

	_, err = h.View("whole")
	require.NoError(t, err)
	_, err = h.View("whole")
	require.NoError(t, err)
	assert.Equal(t, 1, c.whole)

	_, err = h.Dispatch(context.Background(), "bump")
	require.NoError(t, err)
	_, err = h.View("whole")
	require.NoError(t, err)
	assert.Equal(t, 2, c.whole)
}

func TestUnknownView(t *testing.T) {
	m := newTestManager()
	h, err := m.GetModel("count", countDef(t))
	require.NoError(t, err)

	_, err = h.View("nope")
	assert.True(t, IsUnknownViewError(err))
}

func TestViewCycle(t *testing.T) {
	spec := countSpec()
	spec.Views = map[string]View{
		"a": func(vc *ViewContext) (value.Value, error) { return vc.View("b") },
		"b": func(vc *ViewContext) (value.Value, error) { return vc.View("a") },
	}
	m := newTestManager()
	h, err := m.GetModel("count", MustDefine(spec))
	require.NoError(t, err)

	_, err = h.View("a")
	require.Error(t, err)
	var cycle *ViewCycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"a", "b", "a"}, cycle.Cycle)
}

func TestViewErrorNotCached(t *testing.T) {
	calls := 0
	spec := countSpec()
	spec.Views = map[string]View{
		"flaky": func(vc *ViewContext) (value.Value, error) {
			calls++
			if calls == 1 {
				return nil, errBoom
			}
			return value.Bool(true), nil
		},
	}
	m := newTestManager()
	h, err := m.GetModel("count", MustDefine(spec))
	require.NoError(t, err)

	_, err = h.View("flaky")
	assert.ErrorIs(t, err, errBoom)
	v, err := h.View("flaky")
	require.NoError(t, err)
	assert.Equal(t, value.Bool(true), v)
}

func TestActionReadsView(t *testing.T) {
	var c viewCounts
	spec := viewSpec(&c)
	spec.Actions["report"] = func(ac *ActionContext, args ...value.Value) (value.Value, error) {
		if _, err := ac.Dispatch("add", value.Int(3)); err != nil {
			return nil, err
		}
		return ac.View("doubled")
	}
	m := newTestManager()
	h, err := m.GetModel("count", MustDefine(spec))
	require.NoError(t, err)

	res, err := h.Dispatch(context.Background(), "report")
	require.NoError(t, err)
	assert.Equal(t, value.Int(6), res.Value)
}
