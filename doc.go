// Package ripple is a reactive state container.
//
// A model is defined once with DefineModel: an initial state plus named
// reducers, actions and views. A Manager instantiates models by name and
// serializes every dispatch on one logical thread. Reducers edit a draft
// of the current snapshot and commit a new immutable one; subscribers are
// notified once per outermost turn that changed something.
//
// Every top-level Dispatch is its own turn, so consecutive Dispatch calls
// notify once each. Manager.Batch runs several dispatches in one turn and
// notifies once at the end.
//
//	counter := ripple.MustDefine(ripple.Spec{
//		Name:  "counter",
//		State: ripple.ObjectOf(ripple.O("value", ripple.Int(0))),
//		Reducers: map[string]ripple.Reducer{
//			"inc": func(d *ripple.Draft, args ...ripple.Value) error {
//				v, _ := d.Get("value")
//				return d.Set("value", v.(ripple.Int)+1)
//			},
//		},
//	})
//
//	m := ripple.NewManager()
//	defer m.Destroy()
//	h, _ := m.GetModel("counter", counter)
//	h.Dispatch(ctx, "inc")
package ripple
