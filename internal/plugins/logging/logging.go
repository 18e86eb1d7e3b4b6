// Package logging provides a model plugin that logs every dispatch.
package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/ripple/internal/model"
	"github.com/roach88/ripple/internal/value"
)

// Option configures the plugin.
type Option func(*config)

type config struct {
	level slog.Level
	now   func() time.Time
}

// WithLevel sets the level of successful dispatch records. Failures are
// always logged at Warn.
func WithLevel(level slog.Level) Option {
	return func(c *config) { c.level = level }
}

// withNow overrides the time source. Tests use it to pin durations.
func withNow(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// Plugin returns a factory that wraps every model handle so dispatches
// are logged with model, action, sequence, duration and error.
func Plugin(logger *slog.Logger, opts ...Option) model.PluginFactory {
	cfg := config{level: slog.LevelDebug, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return func() model.Plugin {
		return model.PluginFunc(func(h model.Handle) model.Handle {
			return &handle{Handle: h, logger: logger, cfg: cfg}
		})
	}
}

type handle struct {
	model.Handle
	logger *slog.Logger
	cfg    config
}

func (h *handle) Dispatch(ctx context.Context, name string, args ...value.Value) (model.Result, error) {
	start := h.cfg.now()
	res, err := h.Handle.Dispatch(ctx, name, args...)
	elapsed := h.cfg.now().Sub(start)

	if err != nil {
		h.logger.LogAttrs(ctx, slog.LevelWarn, "dispatch failed",
			slog.String("event", "dispatch_failed"),
			slog.String("model", h.Name()),
			slog.String("action", name),
			slog.Int("args", len(args)),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()),
			slog.String("code", string(model.CodeOf(err))),
		)
		return res, err
	}

	h.logger.LogAttrs(ctx, h.cfg.level, "dispatch",
		slog.String("event", "dispatch"),
		slog.String("model", h.Name()),
		slog.String("action", name),
		slog.Int("args", len(args)),
		slog.Int64("seq", res.Action.Seq),
		slog.Duration("duration", elapsed),
	)
	return res, nil
}
