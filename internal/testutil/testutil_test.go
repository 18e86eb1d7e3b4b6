package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ripple/internal/model"
	"github.com/roach88/ripple/internal/value"
)

func TestCounterDef(t *testing.T) {
	m := model.NewManager(model.WithLogger(QuietLogger()))
	defer m.Destroy()

	h, err := m.GetModel("counter", CounterDef(t, 3))
	require.NoError(t, err)

	var notes NotificationCounter
	h.Subscribe(notes.Listener())

	ctx := context.Background()
	_, err = h.Dispatch(ctx, "add", value.Int(2))
	require.NoError(t, err)
	_, err = h.Dispatch(ctx, "nest")
	require.NoError(t, err)

	v, err := h.View("value")
	require.NoError(t, err)
	assert.Equal(t, value.Int(12), v)
	assert.Equal(t, int64(2), notes.Count())
}
