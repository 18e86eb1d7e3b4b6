package draft

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/ripple/internal/value"
)

// Handle is the path-addressed mutation surface shared by every container
// kind. *Draft implements it.
type Handle interface {
	GetIn(p value.Path) (value.Value, error)
	SetIn(p value.Path, v value.Value) error
	DeleteIn(p value.Path) error
}

var _ Handle = (*Draft)(nil)

// scope is shared by a root draft and all of its descendants.
type scope struct {
	revoked bool
}

// Draft is a copy-on-write view over one container of a snapshot.
//
// Reads come from the base container until the first write, which makes a
// shallow copy of this container and of every ancestor up to the root.
// Nested containers get their own child Draft only when accessed through
// Child/ChildIn. Siblings are never copied.
//
// A Draft is not safe for concurrent use and must not outlive the reducer
// call it was created for: Finalize revokes the whole tree, and any later
// write fails with a StaleDraftError.
type Draft struct {
	scope    *scope
	parent   *Draft
	key      value.Value // slot in parent; list children are re-keyed on shifts
	kind     value.Kind
	base     value.Value
	modified bool
	detached bool

	// Object
	fields  map[string]value.Value
	objKids map[string]*Draft

	// List. listKids is aligned with the current items once allocated.
	items    []value.Value
	listKids []*Draft

	// Map
	mapKeys []value.Value
	entries map[value.Value]value.Value
	mapKids map[value.Value]*Draft

	// Set
	members []value.Value
	index   map[value.Value]struct{}
}

// New creates a root draft over a container snapshot.
func New(base value.Value) (*Draft, error) {
	if !value.KindOf(base).IsContainer() {
		return nil, fmt.Errorf("new draft over %s: %w", value.KindOf(base), ErrNotDraftable)
	}
	return &Draft{scope: &scope{}, kind: base.Kind(), base: base}, nil
}

// Produce runs fn against a draft of base and finalizes it. If fn returns
// an error, the draft is revoked and base is returned unchanged.
func Produce(base value.Value, fn func(d *Draft) error) (value.Value, bool, error) {
	d, err := New(base)
	if err != nil {
		return base, false, err
	}
	if err := fn(d); err != nil {
		d.Revoke()
		return base, false, err
	}
	return d.Finalize()
}

// Finalize produces the new snapshot and revokes the draft tree.
// Only containers that were written (or contain a written descendant) are
// rebuilt; every other container keeps its original pointer. If nothing was
// written, the base snapshot is returned with changed=false.
func (d *Draft) Finalize() (value.Value, bool, error) {
	if d.parent != nil {
		return nil, false, fmt.Errorf("finalize: draft at %q is not a root", d.Path().String())
	}
	if d.scope.revoked {
		return nil, false, &StaleDraftError{Op: "finalize", Reason: ReasonRevoked}
	}
	d.scope.revoked = true
	if !d.modified {
		return d.base, false, nil
	}
	return d.build(true), true, nil
}

// Revoke invalidates the draft tree without producing a snapshot.
func (d *Draft) Revoke() {
	d.scope.revoked = true
}

// Modified reports whether this draft (or a descendant) has been written.
func (d *Draft) Modified() bool {
	return d.modified
}

// Kind returns the container kind of the draft.
func (d *Draft) Kind() value.Kind {
	return d.kind
}

// Base returns the snapshot container this draft was created over.
func (d *Draft) Base() value.Value {
	return d.base
}

// Path returns the draft's location relative to the root draft.
func (d *Draft) Path() value.Path {
	var rev value.Path
	for cur := d; cur.parent != nil; cur = cur.parent {
		rev = append(rev, cur.key)
	}
	slices.Reverse(rev)
	return rev
}

// Current returns a snapshot of the draft's present contents without
// revoking it. Untouched drafts return their base pointer.
func (d *Draft) Current() (value.Value, error) {
	if err := d.check("current"); err != nil {
		return nil, err
	}
	return d.current(), nil
}

func (d *Draft) current() value.Value {
	if !d.modified {
		return d.base
	}
	return d.build(false)
}

// check refuses operations on revoked or detached drafts.
func (d *Draft) check(op string) error {
	if d.scope.revoked {
		return &StaleDraftError{Op: op, Path: d.Path(), Reason: ReasonRevoked}
	}
	for cur := d; cur != nil; cur = cur.parent {
		if cur.detached {
			return &StaleDraftError{Op: op, Path: d.Path(), Reason: ReasonDetached}
		}
	}
	return nil
}

// markChanged copies this container and every ancestor on first write.
func (d *Draft) markChanged() {
	if d.modified {
		return
	}
	d.ensureCopy()
	d.modified = true
	if d.parent != nil {
		d.parent.markChanged()
	}
}

func (d *Draft) ensureCopy() {
	switch d.kind {
	case value.KindObject:
		if d.fields == nil {
			d.fields = d.base.(*value.Object).Fields()
		}
	case value.KindList:
		if d.items == nil {
			d.items = d.base.(*value.List).Items()
		}
	case value.KindMap:
		if d.entries == nil {
			d.mapKeys, d.entries = d.base.(*value.Map).Entries()
		}
	case value.KindSet:
		if d.index == nil {
			d.members = d.base.(*value.Set).Members()
			d.index = make(map[value.Value]struct{}, len(d.members))
			for _, m := range d.members {
				d.index[value.KeyOf(m)] = struct{}{}
			}
		}
	}
}

// build assembles a container from the copy and the modified children.
// When final is true the copy's storage is adopted directly, which is only
// safe because the tree is revoked immediately afterwards.
func (d *Draft) build(final bool) value.Value {
	switch d.kind {
	case value.KindObject:
		fields := d.fields
		if !final {
			fields = maps.Clone(fields)
		}
		for k, kid := range d.objKids {
			if kid.modified {
				fields[k] = kid.build(final)
			}
		}
		return value.OwnObject(fields)
	case value.KindList:
		items := d.items
		if !final {
			items = slices.Clone(items)
		}
		for i, kid := range d.listKids {
			if kid != nil && kid.modified {
				items[i] = kid.build(final)
			}
		}
		return value.OwnList(items)
	case value.KindMap:
		keys, entries := d.mapKeys, d.entries
		if !final {
			keys, entries = slices.Clone(keys), maps.Clone(entries)
		}
		for k, kid := range d.mapKids {
			if kid.modified {
				entries[k] = kid.build(final)
			}
		}
		return value.OwnMap(keys, entries)
	case value.KindSet:
		members := d.members
		if !final {
			members = slices.Clone(members)
		}
		return value.OwnSet(members)
	}
	return d.base
}

func (d *Draft) newChild(key value.Value, base value.Value) *Draft {
	return &Draft{scope: d.scope, parent: d, key: key, kind: base.Kind(), base: base}
}

// detach cuts a child off from this draft; later use of it is stale.
func detach(kid *Draft) {
	if kid != nil {
		kid.detached = true
	}
}

func toSeg(key any) (value.Value, error) {
	seg, err := value.FromGo(key)
	if err != nil {
		return nil, fmt.Errorf("draft key: %w", err)
	}
	return seg, nil
}
