package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/ripple/internal/draft"
	"github.com/roach88/ripple/internal/model"
	"github.com/roach88/ripple/internal/value"
)

// op is one declared reducer step.
type op struct {
	kind     string
	path     value.Path
	val      value.Value
	arg      int
	hasArg   bool
	fallback value.Value
}

// operand resolves the value an op works with: the positional argument,
// then the literal value, then the default.
func (o op) operand(args []value.Value) (value.Value, bool) {
	if o.hasArg && o.arg < len(args) {
		return args[o.arg], true
	}
	if o.val != nil {
		return o.val, true
	}
	if o.fallback != nil {
		return o.fallback, true
	}
	return nil, false
}

func parseReducers(at site, m cue.Value) (map[string]model.Reducer, error) {
	reducers := make(map[string]model.Reducer)
	rv := m.LookupPath(cue.ParsePath("reducers"))
	if !rv.Exists() {
		return reducers, nil
	}
	iter, err := rv.Fields()
	if err != nil {
		return nil, at.cueError(err)
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		ops, err := parseOps(at.reducer(name), iter.Value())
		if err != nil {
			return nil, err
		}
		reducers[name] = program(ops)
	}
	return reducers, nil
}

func parseOps(at site, list cue.Value) ([]op, error) {
	items, err := list.List()
	if err != nil {
		return nil, at.cueError(err)
	}
	var ops []op
	for items.Next() {
		o, err := parseOp(at, items.Value())
		if err != nil {
			return nil, err
		}
		ops = append(ops, o)
	}
	return ops, nil
}

func parseOp(at site, v cue.Value) (op, error) {
	var o op
	kind, err := v.LookupPath(cue.ParsePath("op")).String()
	if err != nil {
		return o, at.cueError(err)
	}
	path, err := v.LookupPath(cue.ParsePath("path")).String()
	if err != nil {
		return o, at.cueError(err)
	}
	o.kind = kind
	o.path = value.ParsePath(path)

	if len(o.path) == 0 {
		return o, at.fail("path", fmt.Sprintf("%s needs a non-empty path", kind), v.Pos())
	}
	if lit := v.LookupPath(cue.ParsePath("value")); lit.Exists() {
		if o.val, err = toValue(at, lit); err != nil {
			return o, err
		}
	}
	if def := v.LookupPath(cue.ParsePath("default")); def.Exists() {
		if o.fallback, err = toValue(at, def); err != nil {
			return o, err
		}
	}
	if arg := v.LookupPath(cue.ParsePath("arg")); arg.Exists() {
		n, err := arg.Int64()
		if err != nil {
			return o, at.cueError(err)
		}
		o.arg, o.hasArg = int(n), true
	}

	switch kind {
	case "set", "push", "add", "remove":
		if !o.hasArg && o.val == nil && o.fallback == nil {
			return o, at.fail("value", fmt.Sprintf("%s needs value, arg or default", kind), v.Pos())
		}
	}
	return o, nil
}

// program runs ops in order against one draft. Any failing op discards
// the whole reducer.
func program(ops []op) model.Reducer {
	return func(d *model.Draft, args ...value.Value) error {
		for i, o := range ops {
			if err := o.apply(d.Draft, args); err != nil {
				return fmt.Errorf("op %d (%s %s): %w", i, o.kind, o.path, err)
			}
		}
		return nil
	}
}

func (o op) apply(d *draft.Draft, args []value.Value) error {
	operand, ok := o.operand(args)
	if !ok && o.hasArg && o.kind != "inc" && o.kind != "delete" && o.kind != "toggle" {
		return fmt.Errorf("missing argument %d", o.arg)
	}

	switch o.kind {
	case "set":
		return d.SetIn(o.path, operand)
	case "inc":
		return inc(d, o.path, operand)
	case "push":
		target, err := d.ChildIn(o.path)
		if err != nil {
			return err
		}
		return target.Push(operand)
	case "delete":
		return d.DeleteIn(o.path)
	case "add":
		return addMember(d, o.path, operand)
	case "remove":
		return removeMember(d, o.path, operand)
	case "toggle":
		return toggle(d, o.path)
	}
	return fmt.Errorf("unknown op %q", o.kind)
}

// parent returns the draft holding the last path segment.
func parent(d *draft.Draft, p value.Path) (*draft.Draft, value.Value, error) {
	holder, err := d.ChildIn(p[:len(p)-1])
	if err != nil {
		return nil, nil, err
	}
	return holder, p[len(p)-1], nil
}

// inc adds by to the Int at p. A missing key counts as zero.
func inc(d *draft.Draft, p value.Path, by value.Value) error {
	step := int64(1)
	if by != nil {
		n, ok := value.AsInt(by)
		if !ok {
			return fmt.Errorf("inc needs an int, got %s", value.KindOf(by))
		}
		step = n
	}
	holder, key, err := parent(d, p)
	if err != nil {
		return err
	}
	var cur int64
	if v, ok := holder.Lookup(key); ok {
		n, isInt := value.AsInt(v)
		if !isInt {
			return fmt.Errorf("inc target is %s", value.KindOf(v))
		}
		cur = n
	}
	return holder.Set(key, value.Int(cur+step))
}

// toggle flips the Bool at p. A missing key counts as false.
func toggle(d *draft.Draft, p value.Path) error {
	holder, key, err := parent(d, p)
	if err != nil {
		return err
	}
	var cur bool
	if v, ok := holder.Lookup(key); ok {
		b, isBool := value.AsBool(v)
		if !isBool {
			return fmt.Errorf("toggle target is %s", value.KindOf(v))
		}
		cur = b
	}
	return holder.Set(key, value.Bool(!cur))
}

func addMember(d *draft.Draft, p value.Path, v value.Value) error {
	target, err := d.ChildIn(p)
	if err != nil {
		return err
	}
	switch target.Kind() {
	case value.KindSet:
		return target.Add(v)
	case value.KindList:
		if listIndex(target, v) >= 0 {
			return nil
		}
		return target.Push(v)
	}
	return fmt.Errorf("add target is %s", target.Kind())
}

func removeMember(d *draft.Draft, p value.Path, v value.Value) error {
	target, err := d.ChildIn(p)
	if err != nil {
		return err
	}
	switch target.Kind() {
	case value.KindSet:
		if !target.Has(v) {
			return nil
		}
		return target.Remove(v)
	case value.KindList:
		if i := listIndex(target, v); i >= 0 {
			return target.RemoveAt(i)
		}
		return nil
	}
	return fmt.Errorf("remove target is %s", target.Kind())
}

func listIndex(list *draft.Draft, v value.Value) int {
	for i := range list.Len() {
		item, ok := list.Lookup(i)
		if ok && value.Equal(item, v) {
			return i
		}
	}
	return -1
}
