package testutil

import (
	"testing"

	"github.com/roach88/ripple/internal/model"
	"github.com/roach88/ripple/internal/value"
)

// CounterSpec is a "counter" model with state {value: 0}.
//
//	add(n = 1)  value += n * step
//	nest()      dispatches add twice from inside itself
func CounterSpec(step int64) model.Spec {
	add := func(d *model.Draft, args ...value.Value) error {
		by := int64(1)
		if len(args) > 0 {
			if n, ok := value.AsInt(args[0]); ok {
				by = n
			}
		}
		cur, err := d.Get("value")
		if err != nil {
			return err
		}
		n, _ := value.AsInt(cur)
		return d.Set("value", value.Int(n+by*step))
	}
	return model.Spec{
		Name:  "counter",
		State: value.ObjectOf(value.O("value", value.Int(0))),
		Reducers: map[string]model.Reducer{
			"add": add,
			"nest": func(d *model.Draft, args ...value.Value) error {
				if _, err := d.Dispatch("add"); err != nil {
					return err
				}
				_, err := d.Dispatch("add")
				return err
			},
		},
		Views: map[string]model.View{
			"value": func(vc *model.ViewContext) (value.Value, error) {
				v, _ := vc.Get(value.P("value"))
				return v, nil
			},
		},
	}
}

// CounterDef defines CounterSpec(step) and fails the test on error.
func CounterDef(t testing.TB, step int64) *model.Definition {
	t.Helper()
	def, err := model.DefineModel(CounterSpec(step))
	if err != nil {
		t.Fatalf("define counter: %v", err)
	}
	return def
}
