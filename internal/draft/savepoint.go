package draft

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/ripple/internal/value"
)

// Savepoint records a draft tree so later writes can be undone without
// finalizing. Child drafts that existed at Save stay valid across Restore;
// child drafts created after it are detached.
type Savepoint struct {
	root  *Draft
	saved map[*Draft]nodeState
}

type nodeState struct {
	key      value.Value
	modified bool
	detached bool

	fields  map[string]value.Value
	objKids map[string]*Draft

	items    []value.Value
	listKids []*Draft

	mapKeys []value.Value
	entries map[value.Value]value.Value
	mapKids map[value.Value]*Draft

	members []value.Value
	index   map[value.Value]struct{}
}

// Save records the present state of a root draft.
func (d *Draft) Save() (*Savepoint, error) {
	if d.parent != nil {
		return nil, fmt.Errorf("save: draft at %q is not a root", d.Path().String())
	}
	if err := d.check("save"); err != nil {
		return nil, err
	}
	sp := &Savepoint{root: d, saved: make(map[*Draft]nodeState)}
	d.walk(func(n *Draft) { sp.saved[n] = n.state() })
	return sp, nil
}

// Restore returns the tree to the state recorded by Save.
func (sp *Savepoint) Restore() error {
	if err := sp.root.check("restore"); err != nil {
		return err
	}
	sp.root.walk(func(n *Draft) {
		if _, ok := sp.saved[n]; !ok {
			n.detached = true
		}
	})
	for n, st := range sp.saved {
		n.restore(st)
	}
	return nil
}

// walk visits d and every attached child draft below it.
func (d *Draft) walk(fn func(*Draft)) {
	fn(d)
	for _, kid := range d.objKids {
		kid.walk(fn)
	}
	for _, kid := range d.listKids {
		if kid != nil {
			kid.walk(fn)
		}
	}
	for _, kid := range d.mapKids {
		kid.walk(fn)
	}
}

func (d *Draft) state() nodeState {
	return nodeState{
		key:      d.key,
		modified: d.modified,
		detached: d.detached,
		fields:   maps.Clone(d.fields),
		objKids:  maps.Clone(d.objKids),
		items:    slices.Clone(d.items),
		listKids: slices.Clone(d.listKids),
		mapKeys:  slices.Clone(d.mapKeys),
		entries:  maps.Clone(d.entries),
		mapKids:  maps.Clone(d.mapKids),
		members:  slices.Clone(d.members),
		index:    maps.Clone(d.index),
	}
}

func (d *Draft) restore(st nodeState) {
	d.key = st.key
	d.modified = st.modified
	d.detached = st.detached
	d.fields, d.objKids = st.fields, st.objKids
	d.items, d.listKids = st.items, st.listKids
	d.mapKeys, d.entries, d.mapKids = st.mapKeys, st.entries, st.mapKids
	d.members, d.index = st.members, st.index
}
