package model

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ripple/internal/value"
)

var errBoom = errors.New("boom")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(opts ...Option) *Manager {
	return NewManager(append([]Option{WithLogger(quietLogger())}, opts...)...)
}

func intArg(args []value.Value, i int, def int64) int64 {
	if i < len(args) {
		if n, ok := value.AsInt(args[i]); ok {
			return n
		}
	}
	return def
}

func readInt(t *testing.T, v value.Value, path ...any) int64 {
	t.Helper()
	got, ok := value.Lookup(v, value.P(path...))
	require.True(t, ok, "no value at %v", path)
	n, ok := value.AsInt(got)
	require.True(t, ok, "value at %v is %s", path, value.KindOf(got))
	return n
}

// countSpec is the "count" model: {value: 0} with add(payload=1).
func countSpec() Spec {
	add := func(d *Draft, args ...value.Value) error {
		cur, err := d.Get("value")
		if err != nil {
			return err
		}
		n, _ := value.AsInt(cur)
		return d.Set("value", value.Int(n+intArg(args, 0, 1)))
	}
	return Spec{
		Name:  "count",
		State: value.ObjectOf(value.O("value", value.Int(0)), value.O("other", value.Int(0))),
		Reducers: map[string]Reducer{
			"add": add,
			"bump": func(d *Draft, args ...value.Value) error {
				cur, _ := d.Get("other")
				n, _ := value.AsInt(cur)
				return d.Set("other", value.Int(n+1))
			},
			"noop": func(d *Draft, args ...value.Value) error {
				_, err := d.Get("value")
				return err
			},
			"fail": func(d *Draft, args ...value.Value) error {
				if err := d.Set("value", value.Int(-1)); err != nil {
					return err
				}
				return errBoom
			},
			"addTwiceNested": func(d *Draft, args ...value.Value) error {
				if _, err := d.Dispatch("add", value.Int(1)); err != nil {
					return err
				}
				cur, _ := d.Get("value")
				n, _ := value.AsInt(cur)
				// sees the nested write before anything is committed
				return d.Set("value", value.Int(n*10))
			},
			"recurse": func(d *Draft, args ...value.Value) error {
				_, err := d.Dispatch("recurse")
				return err
			},
		},
		Actions: map[string]Action{
			"addLater": func(ac *ActionContext, args ...value.Value) (value.Value, error) {
				by, err := Await(ac, func(ctx context.Context) (int64, error) {
					return intArg(args, 0, 1), nil
				})
				if err != nil {
					return nil, err
				}
				if _, err := ac.Dispatch("add", value.Int(by)); err != nil {
					return nil, err
				}
				return ac.State(), nil
			},
		},
	}
}

func countDef(t *testing.T) *Definition {
	t.Helper()
	def, err := DefineModel(countSpec())
	require.NoError(t, err)
	return def
}
