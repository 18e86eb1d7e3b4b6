package value

import (
	"iter"
	"maps"
	"slices"
	"unicode/utf16"
)

// Object is an immutable keyed mapping with string keys.
// Use SortedKeys() or All() for deterministic iteration.
type Object struct {
	fields map[string]Value
}

func (*Object) Kind() Kind { return KindObject }
func (*Object) value()     {}

// Pair is a key/value pair for Object construction.
type Pair struct {
	Key   string
	Value Value
}

// O is a shorthand for Pair.
// Example: ObjectOf(O("name", String("cart")), O("count", Int(5)))
func O(key string, v Value) Pair {
	return Pair{Key: key, Value: v}
}

// NewObject copies fields into a new Object.
func NewObject(fields map[string]Value) *Object {
	own := make(map[string]Value, len(fields))
	for k, v := range fields {
		own[k] = orNull(v)
	}
	return &Object{fields: own}
}

// ObjectOf builds an Object from pairs; later pairs win on duplicate keys.
func ObjectOf(pairs ...Pair) *Object {
	own := make(map[string]Value, len(pairs))
	for _, p := range pairs {
		own[p.Key] = orNull(p.Value)
	}
	return &Object{fields: own}
}

// OwnObject wraps fields without copying. The caller gives up the map:
// writing to it afterwards breaks snapshot immutability.
func OwnObject(fields map[string]Value) *Object {
	if fields == nil {
		fields = map[string]Value{}
	}
	return &Object{fields: fields}
}

// Get returns the value stored at key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.fields[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.fields)
}

// Fields returns a shallow copy of the backing map.
func (o *Object) Fields() map[string]Value {
	if o == nil {
		return map[string]Value{}
	}
	return maps.Clone(o.fields)
}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's sort.Strings orders by UTF-8 bytes, which differs for
// supplementary-plane characters.
func (o *Object) SortedKeys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, 0, len(o.fields))
	for k := range o.fields {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// All iterates key/value pairs in SortedKeys order.
func (o *Object) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, k := range o.SortedKeys() {
			if !yield(k, o.fields[k]) {
				return
			}
		}
	}
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// List is an immutable ordered sequence.
type List struct {
	items []Value
}

func (*List) Kind() Kind { return KindList }
func (*List) value()     {}

// NewList copies items into a new List.
func NewList(items ...Value) *List {
	own := make([]Value, len(items))
	for i, v := range items {
		own[i] = orNull(v)
	}
	return &List{items: own}
}

// OwnList wraps items without copying. See OwnObject.
func OwnList(items []Value) *List {
	if items == nil {
		items = []Value{}
	}
	return &List{items: items}
}

// At returns the element at index i.
func (l *List) At(i int) (Value, bool) {
	if l == nil || i < 0 || i >= len(l.items) {
		return nil, false
	}
	return l.items[i], true
}

// Len returns the number of elements.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Items returns a copy of the elements.
func (l *List) Items() []Value {
	if l == nil {
		return []Value{}
	}
	return slices.Clone(l.items)
}

// All iterates index/element pairs in order.
func (l *List) All() iter.Seq2[int, Value] {
	return func(yield func(int, Value) bool) {
		if l == nil {
			return
		}
		for i, v := range l.items {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Map is an immutable unique-key mapping. Keys may be any Value; containers
// used as keys compare by pointer. Iteration follows insertion order.
type Map struct {
	keys    []Value
	entries map[Value]Value
}

func (*Map) Kind() Kind { return KindMap }
func (*Map) value()     {}

// Entry is a key/value pair for Map construction.
type Entry struct {
	Key   Value
	Value Value
}

// NewMap builds a Map from entries. A repeated key keeps its first position
// and takes the last value. All NaN keys are the same key.
func NewMap(entries ...Entry) *Map {
	m := &Map{entries: make(map[Value]Value, len(entries))}
	for _, e := range entries {
		k := orNull(e.Key)
		if _, ok := m.entries[KeyOf(k)]; !ok {
			m.keys = append(m.keys, k)
		}
		m.entries[KeyOf(k)] = orNull(e.Value)
	}
	return m
}

// OwnMap wraps keys and entries without copying. keys must list every entry
// key exactly once; entries is indexed by KeyOf. See OwnObject.
func OwnMap(keys []Value, entries map[Value]Value) *Map {
	if entries == nil {
		entries = map[Value]Value{}
	}
	return &Map{keys: keys, entries: entries}
}

// Get returns the value stored at key.
func (m *Map) Get(key Value) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.entries[KeyOf(key)]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key Value) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []Value {
	if m == nil {
		return []Value{}
	}
	return slices.Clone(m.keys)
}

// Entries returns copies of the key order and the entry table, which is
// indexed by KeyOf.
func (m *Map) Entries() ([]Value, map[Value]Value) {
	if m == nil {
		return []Value{}, map[Value]Value{}
	}
	return slices.Clone(m.keys), maps.Clone(m.entries)
}

// All iterates entries in insertion order.
func (m *Map) All() iter.Seq2[Value, Value] {
	return func(yield func(Value, Value) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.entries[KeyOf(k)]) {
				return
			}
		}
	}
}

// Set is an immutable unique-value set. Iteration follows insertion order.
type Set struct {
	members []Value
	index   map[Value]struct{}
}

func (*Set) Kind() Kind { return KindSet }
func (*Set) value()     {}

// NewSet builds a Set, dropping duplicates. All NaN members are the same
// member.
func NewSet(members ...Value) *Set {
	s := &Set{index: make(map[Value]struct{}, len(members))}
	for _, m := range members {
		m = orNull(m)
		if _, ok := s.index[KeyOf(m)]; ok {
			continue
		}
		s.index[KeyOf(m)] = struct{}{}
		s.members = append(s.members, m)
	}
	return s
}

// OwnSet wraps members without copying; members must be unique.
func OwnSet(members []Value) *Set {
	index := make(map[Value]struct{}, len(members))
	for _, m := range members {
		index[KeyOf(m)] = struct{}{}
	}
	return &Set{members: members, index: index}
}

// Has reports membership.
func (s *Set) Has(v Value) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[KeyOf(v)]
	return ok
}

// Len returns the number of members.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.members)
}

// Members returns the members in insertion order.
func (s *Set) Members() []Value {
	if s == nil {
		return []Value{}
	}
	return slices.Clone(s.members)
}

// All iterates members in insertion order.
func (s *Set) All() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		if s == nil {
			return
		}
		for _, m := range s.members {
			if !yield(m) {
				return
			}
		}
	}
}
