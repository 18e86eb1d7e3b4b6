// Package value provides the immutable snapshot representation for ripple.
//
// A snapshot is a tree of Value nodes. Scalars (Null, String, Int, Float,
// Bool) are plain Go values; containers (*Object, *List, *Map, *Set) hide
// their storage behind read-only accessors so a published snapshot is never
// mutated. The draft package is the only writer, and it adopts freshly built
// storage through the Own* constructors.
//
// Key design constraints:
//   - Containers never store nil; a missing value is Null
//   - Same is reference identity, Equal is deep comparison
//   - Object keys serialize in RFC 8785 (UTF-16 code unit) order
//   - Map and Set keep insertion order, which is observable state
//   - Fingerprints hash canonical JSON with a domain prefix
package value
