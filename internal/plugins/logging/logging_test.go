package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ripple/internal/model"
	"github.com/roach88/ripple/internal/testutil"
	"github.com/roach88/ripple/internal/value"
)

func steppingClock(step time.Duration) func() time.Time {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func setup(t *testing.T, opts ...Option) (model.Handle, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	m := model.NewManager(
		model.WithLogger(testutil.QuietLogger()),
		model.WithPlugins(Plugin(logger, append([]Option{withNow(steppingClock(time.Millisecond))}, opts...)...)),
	)
	t.Cleanup(func() { _ = m.Destroy() })
	h, err := m.GetModel("counter", testutil.CounterDef(t, 1))
	require.NoError(t, err)
	return h, &buf
}

func TestLogsDispatch(t *testing.T) {
	h, buf := setup(t)

	res, err := h.Dispatch(context.Background(), "add", value.Int(1))
	require.NoError(t, err)

	recs := records(t, buf)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "dispatch", rec["event"])
	assert.Equal(t, "counter", rec["model"])
	assert.Equal(t, "add", rec["action"])
	assert.EqualValues(t, 1, rec["args"])
	assert.EqualValues(t, res.Action.Seq, rec["seq"])
	assert.EqualValues(t, time.Millisecond, rec["duration"])
}

func TestLogsFailure(t *testing.T) {
	h, buf := setup(t)

	_, err := h.Dispatch(context.Background(), "missing")
	require.Error(t, err)

	recs := records(t, buf)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "dispatch_failed", rec["event"])
	assert.Equal(t, "missing", rec["action"])
	assert.Equal(t, string(model.ErrCodeUnknownAction), rec["code"])
	assert.Contains(t, rec["error"], "missing")
}

func TestWithLevel(t *testing.T) {
	h, buf := setup(t, WithLevel(slog.LevelInfo))

	_, err := h.Dispatch(context.Background(), "add")
	require.NoError(t, err)

	recs := records(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "INFO", recs[0]["level"])
}

func TestStateUnaffected(t *testing.T) {
	h, _ := setup(t)
	_, err := h.Dispatch(context.Background(), "add")
	require.NoError(t, err)

	got, ok := value.Lookup(h.GetState(), value.P("value"))
	require.True(t, ok)
	assert.Equal(t, value.Int(1), got)
}
