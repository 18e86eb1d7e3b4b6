package draft

import (
	"fmt"
	"slices"

	"github.com/roach88/ripple/internal/value"
)

// Get returns the current value stored at key: a string for objects, an int
// for lists, any value for maps. Missing keys return ErrNotFound.
func (d *Draft) Get(key any) (value.Value, error) {
	if err := d.check("get"); err != nil {
		return nil, err
	}
	seg, err := toSeg(key)
	if err != nil {
		return nil, err
	}
	return d.get(seg)
}

// Lookup is Get without the error: ok is false for missing keys and for
// unusable drafts.
func (d *Draft) Lookup(key any) (value.Value, bool) {
	v, err := d.Get(key)
	return v, err == nil
}

// Child returns the draft for the nested container at key, creating it on
// first access.
func (d *Draft) Child(key any) (*Draft, error) {
	if err := d.check("child"); err != nil {
		return nil, err
	}
	seg, err := toSeg(key)
	if err != nil {
		return nil, err
	}
	return d.child(seg)
}

// Set writes v at key. Writing the value already present is a no-op and
// does not mark the draft modified. For lists, key == Len() appends.
func (d *Draft) Set(key any, v value.Value) error {
	if err := d.check("set"); err != nil {
		return err
	}
	seg, err := toSeg(key)
	if err != nil {
		return err
	}
	return d.set(seg, v)
}

// Delete removes key. For lists the following elements shift down; for sets
// key is the member to remove. Deleting something absent returns a
// StaleDraftError with ReasonMissing.
func (d *Draft) Delete(key any) error {
	if err := d.check("delete"); err != nil {
		return err
	}
	seg, err := toSeg(key)
	if err != nil {
		return err
	}
	return d.delete(seg)
}

// Has reports whether key (or, for sets, member) is present.
func (d *Draft) Has(key any) bool {
	if d.check("has") != nil {
		return false
	}
	seg, err := toSeg(key)
	if err != nil {
		return false
	}
	if d.kind == value.KindSet {
		return d.hasMember(seg)
	}
	_, ok := d.slot(seg)
	return ok
}

// Len returns the current number of children.
func (d *Draft) Len() int {
	switch d.kind {
	case value.KindObject:
		if d.fields != nil {
			return len(d.fields)
		}
	case value.KindList:
		if d.items != nil {
			return len(d.items)
		}
	case value.KindMap:
		if d.entries != nil {
			return len(d.entries)
		}
	case value.KindSet:
		if d.index != nil {
			return len(d.members)
		}
	}
	return value.Len(d.base)
}

// Keys returns the current keys: sorted strings for objects, indexes for
// lists, insertion order for maps, members for sets.
func (d *Draft) Keys() []value.Value {
	switch d.kind {
	case value.KindObject:
		var names []string
		if d.fields != nil {
			names = value.OwnObject(d.fields).SortedKeys()
		} else {
			names = d.base.(*value.Object).SortedKeys()
		}
		keys := make([]value.Value, len(names))
		for i, n := range names {
			keys[i] = value.String(n)
		}
		return keys
	case value.KindList:
		keys := make([]value.Value, d.Len())
		for i := range keys {
			keys[i] = value.Int(i)
		}
		return keys
	case value.KindMap:
		if d.entries != nil {
			return slices.Clone(d.mapKeys)
		}
		return d.base.(*value.Map).Keys()
	case value.KindSet:
		if d.index != nil {
			return slices.Clone(d.members)
		}
		return d.base.(*value.Set).Members()
	}
	return nil
}

// Push appends to a list draft.
func (d *Draft) Push(vs ...value.Value) error {
	if err := d.check("push"); err != nil {
		return err
	}
	if err := d.requireKind("push", value.KindList); err != nil {
		return err
	}
	return d.insert(d.Len(), vs...)
}

// Insert places vs before index i of a list draft, shifting later elements.
func (d *Draft) Insert(i int, vs ...value.Value) error {
	if err := d.check("insert"); err != nil {
		return err
	}
	if err := d.requireKind("insert", value.KindList); err != nil {
		return err
	}
	if i < 0 || i > d.Len() {
		return fmt.Errorf("insert at %d in %q: %w", i, d.Path().String(), ErrIndexOutOfRange)
	}
	return d.insert(i, vs...)
}

// RemoveAt deletes index i of a list draft, shifting later elements.
func (d *Draft) RemoveAt(i int) error {
	if err := d.check("remove"); err != nil {
		return err
	}
	if err := d.requireKind("remove", value.KindList); err != nil {
		return err
	}
	return d.removeAt(i)
}

// Pop removes and returns the last element of a list draft.
func (d *Draft) Pop() (value.Value, error) {
	if err := d.check("pop"); err != nil {
		return nil, err
	}
	if err := d.requireKind("pop", value.KindList); err != nil {
		return nil, err
	}
	n := d.Len()
	if n == 0 {
		return nil, &StaleDraftError{Op: "pop", Path: d.Path(), Reason: ReasonMissing}
	}
	last, err := d.get(value.Int(n - 1))
	if err != nil {
		return nil, err
	}
	return last, d.removeAt(n - 1)
}

// Add inserts a member into a set draft. Adding a present member is a no-op.
func (d *Draft) Add(v value.Value) error {
	if err := d.check("add"); err != nil {
		return err
	}
	if err := d.requireKind("add", value.KindSet); err != nil {
		return err
	}
	v = orNull(v)
	if d.hasMember(v) {
		return nil
	}
	d.markChanged()
	d.members = append(d.members, v)
	d.index[value.KeyOf(v)] = struct{}{}
	return nil
}

// Remove deletes a member from a set draft.
func (d *Draft) Remove(v value.Value) error {
	if err := d.check("remove"); err != nil {
		return err
	}
	if err := d.requireKind("remove", value.KindSet); err != nil {
		return err
	}
	return d.removeMember(orNull(v))
}

// ChildIn walks p, creating child drafts along the way.
func (d *Draft) ChildIn(p value.Path) (*Draft, error) {
	if err := d.check("child"); err != nil {
		return nil, err
	}
	cur := d
	for _, seg := range p {
		next, err := cur.child(seg)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// GetIn returns the current value at p. The empty path returns Current().
func (d *Draft) GetIn(p value.Path) (value.Value, error) {
	if len(p) == 0 {
		return d.Current()
	}
	parent, err := d.ChildIn(p[:len(p)-1])
	if err != nil {
		return nil, err
	}
	return parent.get(p[len(p)-1])
}

// SetIn writes v at p. Intermediate containers must already exist.
func (d *Draft) SetIn(p value.Path, v value.Value) error {
	if len(p) == 0 {
		return ErrRootPath
	}
	parent, err := d.ChildIn(p[:len(p)-1])
	if err != nil {
		return err
	}
	return parent.set(p[len(p)-1], v)
}

// DeleteIn removes the value at p.
func (d *Draft) DeleteIn(p value.Path) error {
	if len(p) == 0 {
		return ErrRootPath
	}
	parent, err := d.ChildIn(p[:len(p)-1])
	if err != nil {
		return err
	}
	return parent.delete(p[len(p)-1])
}

func (d *Draft) requireKind(op string, kind value.Kind) error {
	if d.kind != kind {
		return &KindError{Op: op, Path: d.Path(), Kind: d.kind}
	}
	return nil
}

func (d *Draft) notFound(op string, seg value.Value) error {
	return fmt.Errorf("%s %q: %w", op, d.Path().Child(seg).String(), ErrNotFound)
}

// slot returns the raw value held at seg, ignoring child drafts.
func (d *Draft) slot(seg value.Value) (value.Value, bool) {
	switch d.kind {
	case value.KindObject:
		k, ok := value.ObjectKey(seg)
		if !ok {
			return nil, false
		}
		if d.fields != nil {
			v, ok := d.fields[k]
			return v, ok
		}
		return d.base.(*value.Object).Get(k)
	case value.KindList:
		i, ok := value.ListIndex(seg)
		if !ok {
			return nil, false
		}
		if d.items != nil {
			if i < 0 || i >= len(d.items) {
				return nil, false
			}
			return d.items[i], true
		}
		return d.base.(*value.List).At(i)
	case value.KindMap:
		if d.entries != nil {
			v, ok := d.entries[value.KeyOf(seg)]
			return v, ok
		}
		return d.base.(*value.Map).Get(seg)
	}
	return nil, false
}

// kid returns the existing child draft at seg.
func (d *Draft) kid(seg value.Value) *Draft {
	switch d.kind {
	case value.KindObject:
		if k, ok := value.ObjectKey(seg); ok {
			return d.objKids[k]
		}
	case value.KindList:
		if i, ok := value.ListIndex(seg); ok && i >= 0 && i < len(d.listKids) {
			return d.listKids[i]
		}
	case value.KindMap:
		return d.mapKids[value.KeyOf(seg)]
	}
	return nil
}

func (d *Draft) get(seg value.Value) (value.Value, error) {
	if d.kind == value.KindSet {
		return nil, &KindError{Op: "get", Path: d.Path(), Kind: d.kind}
	}
	if kid := d.kid(seg); kid != nil {
		return kid.current(), nil
	}
	v, ok := d.slot(seg)
	if !ok {
		return nil, d.notFound("get", seg)
	}
	return v, nil
}

func (d *Draft) child(seg value.Value) (*Draft, error) {
	if d.kind == value.KindSet {
		return nil, &KindError{Op: "child", Path: d.Path(), Kind: d.kind}
	}
	if kid := d.kid(seg); kid != nil {
		return kid, nil
	}
	v, ok := d.slot(seg)
	if !ok {
		return nil, d.notFound("child", seg)
	}
	if !v.Kind().IsContainer() {
		return nil, fmt.Errorf("child %q is %s: %w", d.Path().Child(seg).String(), v.Kind(), ErrNotDraftable)
	}

	switch d.kind {
	case value.KindObject:
		k, _ := value.ObjectKey(seg)
		kid := d.newChild(value.String(k), v)
		if d.objKids == nil {
			d.objKids = make(map[string]*Draft)
		}
		d.objKids[k] = kid
		return kid, nil
	case value.KindList:
		i, _ := value.ListIndex(seg)
		if d.listKids == nil {
			d.listKids = make([]*Draft, d.Len())
		}
		kid := d.newChild(value.Int(i), v)
		d.listKids[i] = kid
		return kid, nil
	default:
		kid := d.newChild(seg, v)
		if d.mapKids == nil {
			d.mapKids = make(map[value.Value]*Draft)
		}
		d.mapKids[value.KeyOf(seg)] = kid
		return kid, nil
	}
}

func (d *Draft) set(seg value.Value, v value.Value) error {
	v = orNull(v)
	switch d.kind {
	case value.KindObject:
		k, ok := value.ObjectKey(seg)
		if !ok {
			return fmt.Errorf("set: object key must be a string, got %s", value.KindOf(seg))
		}
		kid := d.objKids[k]
		if kid == nil {
			if cur, ok := d.slot(seg); ok && value.Same(cur, v) {
				return nil
			}
		}
		d.markChanged()
		if kid != nil {
			detach(kid)
			delete(d.objKids, k)
		}
		d.fields[k] = v
		return nil

	case value.KindList:
		i, ok := value.ListIndex(seg)
		if !ok {
			return fmt.Errorf("set: list index must be an int, got %s", value.KindOf(seg))
		}
		n := d.Len()
		if i < 0 || i > n {
			return fmt.Errorf("set %q: %w", d.Path().Child(seg).String(), ErrIndexOutOfRange)
		}
		if i == n {
			return d.insert(n, v)
		}
		kid := d.kid(seg)
		if kid == nil {
			if cur, ok := d.slot(seg); ok && value.Same(cur, v) {
				return nil
			}
		}
		d.markChanged()
		if kid != nil {
			detach(kid)
			d.listKids[i] = nil
		}
		d.items[i] = v
		return nil

	case value.KindMap:
		key := value.KeyOf(seg)
		kid := d.mapKids[key]
		cur, present := d.slot(seg)
		if kid == nil && present && value.Same(cur, v) {
			return nil
		}
		d.markChanged()
		if kid != nil {
			detach(kid)
			delete(d.mapKids, key)
		}
		if !present {
			d.mapKeys = append(d.mapKeys, seg)
		}
		d.entries[key] = v
		return nil
	}
	return &KindError{Op: "set", Path: d.Path(), Kind: d.kind}
}

func (d *Draft) delete(seg value.Value) error {
	switch d.kind {
	case value.KindObject:
		k, ok := value.ObjectKey(seg)
		if !ok {
			return fmt.Errorf("delete: object key must be a string, got %s", value.KindOf(seg))
		}
		if _, ok := d.slot(seg); !ok {
			return &StaleDraftError{Op: "delete", Path: d.Path().Child(value.String(k)), Reason: ReasonMissing}
		}
		d.markChanged()
		detach(d.objKids[k])
		delete(d.objKids, k)
		delete(d.fields, k)
		return nil

	case value.KindList:
		i, ok := value.ListIndex(seg)
		if !ok {
			return fmt.Errorf("delete: list index must be an int, got %s", value.KindOf(seg))
		}
		return d.removeAt(i)

	case value.KindMap:
		if _, ok := d.slot(seg); !ok {
			return &StaleDraftError{Op: "delete", Path: d.Path().Child(seg), Reason: ReasonMissing}
		}
		d.markChanged()
		key := value.KeyOf(seg)
		detach(d.mapKids[key])
		delete(d.mapKids, key)
		delete(d.entries, key)
		if i := indexKey(d.mapKeys, key); i >= 0 {
			d.mapKeys = slices.Delete(d.mapKeys, i, i+1)
		}
		return nil

	case value.KindSet:
		return d.removeMember(seg)
	}
	return &KindError{Op: "delete", Path: d.Path(), Kind: d.kind}
}

func (d *Draft) insert(i int, vs ...value.Value) error {
	if len(vs) == 0 {
		return nil
	}
	norm := make([]value.Value, len(vs))
	for j, v := range vs {
		norm[j] = orNull(v)
	}
	d.markChanged()
	d.items = slices.Insert(d.items, i, norm...)
	if d.listKids != nil {
		d.listKids = slices.Insert(d.listKids, i, make([]*Draft, len(norm))...)
		d.rekeyList(i + len(norm))
	}
	return nil
}

func (d *Draft) removeAt(i int) error {
	if i < 0 || i >= d.Len() {
		return &StaleDraftError{Op: "delete", Path: d.Path().Child(value.Int(i)), Reason: ReasonMissing}
	}
	d.markChanged()
	d.items = slices.Delete(d.items, i, i+1)
	if d.listKids != nil {
		detach(d.listKids[i])
		d.listKids = slices.Delete(d.listKids, i, i+1)
		d.rekeyList(i)
	}
	return nil
}

// rekeyList refreshes the parent keys of list children from index from on.
func (d *Draft) rekeyList(from int) {
	for j := from; j < len(d.listKids); j++ {
		if kid := d.listKids[j]; kid != nil {
			kid.key = value.Int(j)
		}
	}
}

func (d *Draft) hasMember(v value.Value) bool {
	if d.index != nil {
		_, ok := d.index[value.KeyOf(v)]
		return ok
	}
	return d.base.(*value.Set).Has(v)
}

func (d *Draft) removeMember(v value.Value) error {
	if !d.hasMember(v) {
		return &StaleDraftError{Op: "remove", Path: d.Path(), Reason: ReasonMissing}
	}
	d.markChanged()
	key := value.KeyOf(v)
	delete(d.index, key)
	if i := indexKey(d.members, key); i >= 0 {
		d.members = slices.Delete(d.members, i, i+1)
	}
	return nil
}

// indexKey finds the element of vs whose KeyOf is key.
func indexKey(vs []value.Value, key value.Value) int {
	return slices.IndexFunc(vs, func(v value.Value) bool { return value.KeyOf(v) == key })
}

func orNull(v value.Value) value.Value {
	if v == nil {
		return value.Null{}
	}
	return v
}
