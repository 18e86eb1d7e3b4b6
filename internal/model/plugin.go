package model

// Plugin decorates model instances. OnModelInstance is called exactly once
// per instance, when the instance is built, and returns the handle to use
// in place of h (nil keeps h). Decorators typically embed h and override
// the methods they care about:
//
//	type counting struct {
//	    model.Handle
//	    n int
//	}
//
//	func (c *counting) Dispatch(ctx context.Context, name string, args ...value.Value) (model.Result, error) {
//	    c.n++
//	    return c.Handle.Dispatch(ctx, name, args...)
//	}
type Plugin interface {
	OnModelInstance(h Handle) Handle
}

// PluginFactory builds a Plugin. Factories run once per manager, so a
// plugin may keep per-manager state.
type PluginFactory func() Plugin

// PluginFunc adapts a function to Plugin.
type PluginFunc func(h Handle) Handle

func (f PluginFunc) OnModelInstance(h Handle) Handle { return f(h) }

// applyPlugins wraps core so that plugins[0] is outermost: plugins are
// applied last-to-first, each wrapping the result of the ones after it.
func applyPlugins(core Handle, plugins []Plugin) Handle {
	h := core
	for i := len(plugins) - 1; i >= 0; i-- {
		if wrapped := plugins[i].OnModelInstance(h); wrapped != nil {
			h = wrapped
		}
	}
	return h
}
