package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepthQuotaEnterLeave(t *testing.T) {
	q := NewDepthQuota(2)

	require.NoError(t, q.Enter("m", "a"))
	require.NoError(t, q.Enter("m", "b"))
	assert.Equal(t, 2, q.Current())

	err := q.Enter("m", "c")
	require.Error(t, err)
	assert.True(t, IsDepthExceededError(err))
	assert.Equal(t, 2, q.Current(), "refused level is not counted")
	assert.Contains(t, err.Error(), "m/c")

	q.Leave()
	require.NoError(t, q.Enter("m", "c"))
	assert.Equal(t, 2, q.Max())
}

func TestDepthQuotaLeaveFloor(t *testing.T) {
	q := NewDepthQuota(1)
	q.Leave()
	assert.Equal(t, 0, q.Current())
}
