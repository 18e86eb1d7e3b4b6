package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ripple/internal/model"
	"github.com/roach88/ripple/internal/testutil"
	"github.com/roach88/ripple/internal/value"
)

func recordSession(t *testing.T, j *Journal, run bool) *Recorder {
	t.Helper()
	rec := NewRecorder(j, WithSession("session-1"), WithLogger(testutil.QuietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if run {
		go func() { _ = rec.Run(ctx) }()
	}

	m := model.NewManager(model.WithLogger(testutil.QuietLogger()), model.WithPlugins(rec.Plugin()))
	defer m.Destroy()
	h, err := m.GetModel("counter", testutil.CounterDef(t, 1))
	require.NoError(t, err)

	_, err = h.Dispatch(ctx, "add", value.Int(2))
	require.NoError(t, err)
	_, err = h.Dispatch(ctx, "nest")
	require.NoError(t, err)
	_, err = h.Dispatch(ctx, "add")
	require.NoError(t, err)

	require.NoError(t, rec.Close())
	return rec
}

func TestRecorderJournalsDispatches(t *testing.T) {
	j := openTestJournal(t)
	rec := recordSession(t, j, true)

	assert.Equal(t, int64(5), rec.Written())
	assert.Equal(t, int64(0), rec.Failed())

	entries, err := j.Entries(context.Background(), "session-1")
	require.NoError(t, err)
	require.Len(t, entries, 5)

	var types []string
	var nested []bool
	for _, e := range entries {
		types = append(types, e.Type)
		nested = append(nested, e.Nested)
	}
	// Nested reducers return, and are stamped, before the reducer that
	// dispatched them.
	assert.Equal(t, []string{"add", "add", "add", "nest", "add"}, types)
	assert.Equal(t, []bool{false, true, true, false, false}, nested)
	assert.Equal(t, []value.Value{value.Int(2)}, entries[0].Payload)

	final := value.ObjectOf(value.O("value", value.Int(5)))
	assert.Equal(t, value.MustFingerprint(final), entries[4].Fingerprint)
}

func TestRecorderCloseWithoutRunDrains(t *testing.T) {
	j := openTestJournal(t)
	rec := recordSession(t, j, false)
	assert.Equal(t, int64(5), rec.Written())
}

func TestRecorderDropsAfterClose(t *testing.T) {
	j := openTestJournal(t)
	rec := NewRecorder(j, WithSession("s"), WithLogger(testutil.QuietLogger()))
	require.NoError(t, rec.Close())

	m := model.NewManager(model.WithLogger(testutil.QuietLogger()), model.WithPlugins(rec.Plugin()))
	defer m.Destroy()
	h, err := m.GetModel("counter", testutil.CounterDef(t, 1))
	require.NoError(t, err)
	_, err = h.Dispatch(context.Background(), "add")
	require.NoError(t, err, "journal failures never fail a dispatch")

	assert.Equal(t, int64(1), rec.Failed())
}

func TestRecorderRunTwice(t *testing.T) {
	j := openTestJournal(t)
	rec := NewRecorder(j, WithLogger(testutil.QuietLogger()))
	ctx, cancel := context.WithCancel(context.Background())

	errs := make(chan error, 1)
	go func() { errs <- rec.Run(ctx) }()
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.running
	}, time.Second, time.Millisecond)

	assert.Error(t, rec.Run(ctx))
	cancel()
	assert.ErrorIs(t, <-errs, context.Canceled)
}

func TestRecorderRunAfterClose(t *testing.T) {
	j := openTestJournal(t)
	rec := NewRecorder(j, WithSession("s"), WithLogger(testutil.QuietLogger()))

	m := model.NewManager(model.WithLogger(testutil.QuietLogger()), model.WithPlugins(rec.Plugin()))
	defer m.Destroy()
	h, err := m.GetModel("counter", testutil.CounterDef(t, 1))
	require.NoError(t, err)
	_, err = h.Dispatch(context.Background(), "add")
	require.NoError(t, err)

	require.NoError(t, rec.Close())
	assert.Equal(t, int64(1), rec.Written(), "close drained the queue inline")
	assert.ErrorIs(t, rec.Run(context.Background()), ErrRecorderClosed)
	assert.Equal(t, int64(1), rec.Written())
}

func TestRecorderDefaultSessionIsUUID(t *testing.T) {
	j := openTestJournal(t)
	rec := NewRecorder(j)
	assert.Len(t, rec.Session(), 36)
}
