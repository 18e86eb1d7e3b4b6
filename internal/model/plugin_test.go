package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ripple/internal/value"
)

type tracingHandle struct {
	Handle
	label string
	log   *[]string
}

func (h *tracingHandle) Dispatch(ctx context.Context, name string, args ...value.Value) (Result, error) {
	*h.log = append(*h.log, h.label+">"+name)
	res, err := h.Handle.Dispatch(ctx, name, args...)
	*h.log = append(*h.log, h.label+"<"+name)
	return res, err
}

func tracing(label string, log *[]string, created *int) PluginFactory {
	return func() Plugin {
		return PluginFunc(func(h Handle) Handle {
			*created++
			return &tracingHandle{Handle: h, label: label, log: log}
		})
	}
}

func TestPluginOnionOrder(t *testing.T) {
	var log []string
	var created int
	m := newTestManager(WithPlugins(
		tracing("first", &log, &created),
		tracing("second", &log, &created),
	))
	h, err := m.GetModel("count", countDef(t))
	require.NoError(t, err)

	_, err = h.Dispatch(context.Background(), "add")
	require.NoError(t, err)

	assert.Equal(t, []string{"first>add", "second>add", "second<add", "first<add"}, log)
}

func TestPluginHooksRunLastToFirst(t *testing.T) {
	var order []string
	hook := func(name string) PluginFactory {
		return func() Plugin {
			return PluginFunc(func(h Handle) Handle {
				order = append(order, name)
				return nil
			})
		}
	}
	m := newTestManager(WithPlugins(hook("first"), hook("second"), hook("third")))
	_, err := m.GetModel("count", countDef(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"third", "second", "first"}, order)
}

func TestPluginAppliedOncePerInstance(t *testing.T) {
	var log []string
	var created int
	m := newTestManager(WithPlugins(tracing("p", &log, &created)))

	for i := 0; i < 3; i++ {
		_, err := m.GetModel("count", countDef(t))
		require.NoError(t, err)
	}
	assert.Equal(t, 1, created)
}

func TestPluginSeesDispatchFromActions(t *testing.T) {
	var log []string
	var created int
	m := newTestManager(WithPlugins(tracing("p", &log, &created)))
	h, err := m.GetModel("count", countDef(t))
	require.NoError(t, err)

	_, err = h.Dispatch(context.Background(), "addLater", value.Int(2))
	require.NoError(t, err)

	assert.Equal(t, []string{"p>addLater", "p>add", "p<add", "p<addLater"}, log)
}

func TestPluginNilKeepsHandle(t *testing.T) {
	m := newTestManager(WithPlugins(func() Plugin {
		return PluginFunc(func(h Handle) Handle { return nil })
	}))
	h, err := m.GetModel("count", countDef(t))
	require.NoError(t, err)
	_, ok := h.(*coreHandle)
	assert.True(t, ok)
}

type frozenState struct {
	Handle
}

func (f *frozenState) GetState() value.Value {
	return value.ObjectOf(value.O("value", value.Int(-1)))
}

func TestPluginWrapsGetStateNotRawState(t *testing.T) {
	m := newTestManager(WithPlugins(func() Plugin {
		return PluginFunc(func(h Handle) Handle { return &frozenState{Handle: h} })
	}))
	h, err := m.GetModel("count", countDef(t))
	require.NoError(t, err)

	assert.Equal(t, int64(-1), readInt(t, h.GetState(), "value"))
	assert.Equal(t, int64(0), readInt(t, h.RawState(), "value"))
}
