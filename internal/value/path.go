package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addresses a node in a snapshot tree. Each segment is a key: a String
// for Object keys, an Int for List indexes, any Value for Map keys.
type Path []Value

// P builds a Path from Go segments (string, int, or Value).
// Panics on unsupported segment types; use PathOf to get an error instead.
func P(segs ...any) Path {
	p, err := PathOf(segs...)
	if err != nil {
		panic(err)
	}
	return p
}

// PathOf builds a Path from Go segments.
func PathOf(segs ...any) (Path, error) {
	p := make(Path, 0, len(segs))
	for i, s := range segs {
		v, err := FromGo(s)
		if err != nil {
			return nil, fmt.Errorf("path segment %d: %w", i, err)
		}
		p = append(p, v)
	}
	return p, nil
}

// ParsePath splits a dotted path ("items.0.name"). Segments made only of
// digits become Int; everything else is a String. The empty string is the
// root path.
func ParsePath(s string) Path {
	if s == "" {
		return Path{}
	}
	parts := strings.Split(s, ".")
	p := make(Path, len(parts))
	for i, part := range parts {
		if n, err := strconv.Atoi(part); err == nil && n >= 0 {
			p[i] = Int(n)
			continue
		}
		p[i] = String(part)
	}
	return p
}

// String renders the path in dotted form.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, seg := range p {
		switch s := seg.(type) {
		case String:
			parts[i] = string(s)
		case Int:
			parts[i] = strconv.FormatInt(int64(s), 10)
		default:
			parts[i] = fmt.Sprintf("%v", s)
		}
	}
	return strings.Join(parts, ".")
}

// Child returns a new path with seg appended.
func (p Path) Child(seg Value) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// ObjectKey converts a segment into an Object key. Int segments are
// rendered in decimal so parsed paths can address numeric object keys.
func ObjectKey(seg Value) (string, bool) {
	switch s := seg.(type) {
	case String:
		return string(s), true
	case Int:
		return strconv.FormatInt(int64(s), 10), true
	}
	return "", false
}

// ListIndex converts a segment into a List index.
func ListIndex(seg Value) (int, bool) {
	switch s := seg.(type) {
	case Int:
		return int(s), true
	case String:
		n, err := strconv.Atoi(string(s))
		return n, err == nil
	}
	return 0, false
}

// ChildOf returns the direct child of container c at seg.
func ChildOf(c Value, seg Value) (Value, bool) {
	switch node := c.(type) {
	case *Object:
		k, ok := ObjectKey(seg)
		if !ok {
			return nil, false
		}
		return node.Get(k)
	case *List:
		i, ok := ListIndex(seg)
		if !ok {
			return nil, false
		}
		return node.At(i)
	case *Map:
		return node.Get(seg)
	}
	return nil, false
}

// Lookup resolves p against root. The empty path returns root.
func Lookup(root Value, p Path) (Value, bool) {
	cur := root
	for _, seg := range p {
		next, ok := ChildOf(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}
