package testutil

import (
	"io"
	"log/slog"
)

// QuietLogger discards everything. Managers built in tests use it so
// expected panics and warnings stay out of the test output.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
