package model

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/ripple/internal/draft"
	"github.com/roach88/ripple/internal/value"
)

// Reducer mutates d synchronously. Returning an error discards every write
// made through d during that call, including writes of reducers it
// dispatched; a caller that handles a nested reducer's error keeps its own
// earlier writes.
type Reducer func(d *Draft, args ...value.Value) error

// Action runs arbitrary logic: it may dispatch reducers, read state and
// views, and suspend with ActionContext.Suspend or Await.
type Action func(ac *ActionContext, args ...value.Value) (value.Value, error)

// View derives a value from the model's state. Views must be pure: the
// memoizer assumes the same dependencies always produce the same result.
type View func(vc *ViewContext) (value.Value, error)

// Spec is the input to DefineModel.
type Spec struct {
	Name     string
	State    value.Value
	Reducers map[string]Reducer
	Actions  map[string]Action
	Views    map[string]View
}

// Definition is a validated, immutable model declaration. The same
// Definition may be used by any number of managers.
type Definition struct {
	name        string
	state       value.Value
	reducers    map[string]Reducer
	actions     map[string]Action
	views       map[string]View
	fingerprint string
}

// DefineModel validates spec and returns its Definition.
//
// The name must be non-empty, the initial state must be a container, no
// name may be both a reducer and an action, and view names may not reuse a
// reducer or action name.
func DefineModel(spec Spec) (*Definition, error) {
	if spec.Name == "" {
		return nil, &DefinitionError{Message: "name is required"}
	}
	if !value.KindOf(spec.State).IsContainer() {
		return nil, &DefinitionError{
			Model:   spec.Name,
			Message: fmt.Sprintf("initial state must be a container, got %s", value.KindOf(spec.State)),
		}
	}
	for name, fn := range spec.Reducers {
		if fn == nil {
			return nil, &DefinitionError{Model: spec.Name, Message: fmt.Sprintf("reducer %q is nil", name)}
		}
		if _, clash := spec.Actions[name]; clash {
			return nil, &DefinitionError{Model: spec.Name, Message: fmt.Sprintf("%q is both a reducer and an action", name)}
		}
	}
	for name, fn := range spec.Actions {
		if fn == nil {
			return nil, &DefinitionError{Model: spec.Name, Message: fmt.Sprintf("action %q is nil", name)}
		}
	}
	for name, fn := range spec.Views {
		if fn == nil {
			return nil, &DefinitionError{Model: spec.Name, Message: fmt.Sprintf("view %q is nil", name)}
		}
		_, isReducer := spec.Reducers[name]
		_, isAction := spec.Actions[name]
		if isReducer || isAction {
			return nil, &DefinitionError{Model: spec.Name, Message: fmt.Sprintf("view %q collides with a reducer or action", name)}
		}
	}

	def := &Definition{
		name:     spec.Name,
		state:    spec.State,
		reducers: maps.Clone(spec.Reducers),
		actions:  maps.Clone(spec.Actions),
		views:    maps.Clone(spec.Views),
	}
	fp, err := def.shapeFingerprint()
	if err != nil {
		return nil, &DefinitionError{Model: spec.Name, Message: err.Error()}
	}
	def.fingerprint = fp
	return def, nil
}

// MustDefine is like DefineModel but panics on error.
func MustDefine(spec Spec) *Definition {
	def, err := DefineModel(spec)
	if err != nil {
		panic(err)
	}
	return def
}

// Name returns the model name.
func (d *Definition) Name() string { return d.name }

// InitialState returns the initial snapshot.
func (d *Definition) InitialState() value.Value { return d.state }

// Fingerprint identifies the definition's shape: its name, initial state,
// and the names of its reducers, actions and views. Function bodies are
// not part of it.
func (d *Definition) Fingerprint() string { return d.fingerprint }

// Reducers returns the sorted reducer names.
func (d *Definition) Reducers() []string { return slices.Sorted(maps.Keys(d.reducers)) }

// Actions returns the sorted action names.
func (d *Definition) Actions() []string { return slices.Sorted(maps.Keys(d.actions)) }

// Views returns the sorted view names.
func (d *Definition) Views() []string { return slices.Sorted(maps.Keys(d.views)) }

// HasReducer reports whether name is a reducer.
func (d *Definition) HasReducer(name string) bool {
	_, ok := d.reducers[name]
	return ok
}

func (d *Definition) shapeFingerprint() (string, error) {
	names := func(keys []string) value.Value {
		items := make([]value.Value, len(keys))
		for i, k := range keys {
			items[i] = value.String(k)
		}
		return value.OwnList(items)
	}
	shape := value.ObjectOf(
		value.O("name", value.String(d.name)),
		value.O("state", d.state),
		value.O("reducers", names(d.Reducers())),
		value.O("actions", names(d.Actions())),
		value.O("views", names(d.Views())),
	)
	canonical, err := value.MarshalCanonical(shape)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return value.HashWithDomain(value.DomainDefinition, canonical), nil
}

// Draft is the mutable view a reducer writes to. It embeds the draft
// engine's *draft.Draft and adds re-entrant dispatch.
type Draft struct {
	*draft.Draft
	ctx  context.Context
	inst *instance
}

// Dispatch runs another reducer or action of the same model inline. A
// reducer dispatched this way writes to the same in-progress draft, so it
// sees (and is seen by) the caller's pending writes.
func (d *Draft) Dispatch(name string, args ...value.Value) (Result, error) {
	return d.inst.outer.Dispatch(d.ctx, name, args...)
}

// Context returns the context of the turn the reducer runs in. Pass it to
// another model's Handle.Dispatch to stay in the same turn.
func (d *Draft) Context() context.Context {
	return d.ctx
}
