package testutil

import (
	"sync/atomic"

	"github.com/roach88/ripple/internal/model"
)

// NotificationCounter counts listener calls.
type NotificationCounter struct {
	n atomic.Int64
}

// Listener returns a listener that increments the counter.
func (c *NotificationCounter) Listener() model.Listener {
	return func() { c.n.Add(1) }
}

// Count returns the number of notifications seen.
func (c *NotificationCounter) Count() int64 {
	return c.n.Load()
}
