package model

import (
	"fmt"
	"log/slog"
)

// Mode selects how flush failures surface.
type Mode string

const (
	// ModeDevelopment returns recovered listener panics from the call that
	// ended the turn, in addition to logging them.
	ModeDevelopment Mode = "development"
	// ModeProduction only logs recovered listener panics.
	ModeProduction Mode = "production"
)

// ParseMode accepts "development"/"dev" and "production"/"prod".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "development", "dev", "":
		return ModeDevelopment, nil
	case "production", "prod":
		return ModeProduction, nil
	}
	return "", fmt.Errorf("unknown mode %q (want development or production)", s)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMode sets development or production flush failure handling.
// Default: ModeDevelopment.
func WithMode(mode Mode) Option {
	return func(m *Manager) {
		m.mode = mode
	}
}

// WithStrict makes GetModel reject a definition whose shape differs from
// the one a name was first built with. Without it the mismatch is logged
// and the cached handle is returned.
func WithStrict(strict bool) Option {
	return func(m *Manager) {
		m.strict = strict
	}
}

// WithMaxDepth sets the dispatch nesting limit per turn.
//
// Default: 100 (DefaultMaxDepth). Values below 1 keep the default.
func WithMaxDepth(depth int) Option {
	return func(m *Manager) {
		if depth > 0 {
			m.maxDepth = depth
		}
	}
}

// WithPlugins registers plugin factories. Each factory is called once when
// the manager is built; the first-registered plugin ends up outermost.
func WithPlugins(factories ...PluginFactory) Option {
	return func(m *Manager) {
		m.factories = append(m.factories, factories...)
	}
}

// WithClock sets the logical clock used to stamp descriptors.
func WithClock(c *Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}
