package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/ripple/internal/model"
	"github.com/roach88/ripple/internal/value"
)

func parseViews(at site, m cue.Value) (map[string]model.View, error) {
	views := make(map[string]model.View)
	vv := m.LookupPath(cue.ParsePath("views"))
	if !vv.Exists() {
		return views, nil
	}
	iter, err := vv.Fields()
	if err != nil {
		return nil, at.cueError(err)
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		in := at.view(name)
		kind, err := iter.Value().LookupPath(cue.ParsePath("op")).String()
		if err != nil {
			return nil, in.cueError(err)
		}
		path, err := iter.Value().LookupPath(cue.ParsePath("path")).String()
		if err != nil {
			return nil, in.cueError(err)
		}
		views[name] = viewFor(kind, value.ParsePath(path))
	}
	return views, nil
}

func viewFor(kind string, p value.Path) model.View {
	switch kind {
	case "count":
		return func(vc *model.ViewContext) (value.Value, error) {
			v, ok := vc.Get(p)
			if !ok {
				return value.Int(0), nil
			}
			if !value.KindOf(v).IsContainer() {
				return nil, fmt.Errorf("count target is %s", value.KindOf(v))
			}
			return value.Int(int64(value.Len(v))), nil
		}
	case "sum":
		return func(vc *model.ViewContext) (value.Value, error) {
			v, ok := vc.Get(p)
			if !ok {
				return value.Int(0), nil
			}
			list, isList := v.(*value.List)
			if !isList {
				return nil, fmt.Errorf("sum target is %s", value.KindOf(v))
			}
			var total int64
			for _, item := range list.All() {
				n, isInt := value.AsInt(item)
				if !isInt {
					return nil, fmt.Errorf("sum item is %s", value.KindOf(item))
				}
				total += n
			}
			return value.Int(total), nil
		}
	}
	return func(vc *model.ViewContext) (value.Value, error) {
		v, ok := vc.Get(p)
		if !ok {
			return value.Null{}, nil
		}
		return v, nil
	}
}
