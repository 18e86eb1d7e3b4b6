package compiler

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/ripple/internal/model"
	"github.com/roach88/ripple/internal/value"
)

//go:embed schema.cue
var schemaSource string

// CompileModel turns one declared model into a Definition. v is the model
// struct itself, e.g. the value at path "model.count":
//
//	model: count: {
//	    state: {value: 0}
//	    reducers: add: [{op: "inc", path: "value", arg: 0, default: 1}]
//	    views: doubled: {op: "get", path: "value"}
//	}
func CompileModel(v cue.Value) (*model.Definition, error) {
	if err := v.Err(); err != nil {
		return nil, site{}.cueError(err)
	}

	var name string
	if sels := v.Path().Selectors(); len(sels) > 0 {
		name = sels[len(sels)-1].Unquoted()
	}
	if name == "" {
		return nil, site{}.fail("model", "model must be declared under a name", v.Pos())
	}
	at := site{model: name}

	schema := v.Context().CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile model schema: %w", err)
	}
	checked := schema.LookupPath(cue.ParsePath("#Model")).Unify(v)
	if err := checked.Validate(cue.Concrete(true)); err != nil {
		return nil, at.cueError(err)
	}

	stateVal := v.LookupPath(cue.ParsePath("state"))
	if !stateVal.Exists() {
		return nil, at.fail("state", "state is required", v.Pos())
	}
	state, err := toValue(at, stateVal)
	if err != nil {
		return nil, err
	}

	reducers, err := parseReducers(at, checked)
	if err != nil {
		return nil, err
	}
	views, err := parseViews(at, checked)
	if err != nil {
		return nil, err
	}

	def, err := model.DefineModel(model.Spec{
		Name:     name,
		State:    state,
		Reducers: reducers,
		Views:    views,
	})
	if err != nil {
		ce := at.fail("", err.Error(), v.Pos())
		ce.Err = err
		return nil, ce
	}
	return def, nil
}

// compileAll compiles every model under the top-level "model" field.
func compileAll(root cue.Value) ([]*model.Definition, error) {
	if err := root.Err(); err != nil {
		return nil, site{}.cueError(err)
	}
	models := root.LookupPath(cue.ParsePath("model"))
	if !models.Exists() {
		return nil, site{}.fail("model", "no models declared", root.Pos())
	}
	iter, err := models.Fields()
	if err != nil {
		return nil, site{}.cueError(err)
	}

	var defs []*model.Definition
	for iter.Next() {
		def, err := CompileModel(iter.Value())
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// toValue converts a concrete CUE value into a snapshot value.
func toValue(at site, v cue.Value) (value.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return value.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, at.cueError(err)
		}
		return value.Bool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, at.cueError(err)
		}
		return value.Int(n), nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, at.cueError(err)
		}
		return value.Float(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, at.cueError(err)
		}
		return value.String(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, at.cueError(err)
		}
		var items []value.Value
		for iter.Next() {
			item, err := toValue(at, iter.Value())
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return value.OwnList(items), nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, at.cueError(err)
		}
		fields := make(map[string]value.Value)
		for iter.Next() {
			f, err := toValue(at, iter.Value())
			if err != nil {
				return nil, err
			}
			fields[iter.Selector().Unquoted()] = f
		}
		return value.OwnObject(fields), nil
	}
	return nil, at.fail(v.Path().String(), fmt.Sprintf("value must be concrete, got %s", v.IncompleteKind()), v.Pos())
}
