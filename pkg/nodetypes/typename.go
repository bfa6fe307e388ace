// Package nodetypes reads tree-sitter node-types descriptors and converts them
// into the canonical Entry/Field model consumed by the catalog, the class
// compiler and the schema emitter.
package nodetypes

import (
	"cmp"
	"slices"
)

// TypeName identifies a grammar kind. Two kinds with the same text but a
// different Named flag are distinct.
type TypeName struct {
	Kind  string
	Named bool
}

// NewTypeName returns the canonical TypeName for a (kind, named) pair.
func NewTypeName(kind string, named bool) TypeName {
	return TypeName{Kind: kind, Named: named}
}

// Compare orders type names by Kind, then by Named (false before true).
func (t TypeName) Compare(other TypeName) int {
	if c := cmp.Compare(t.Kind, other.Kind); c != 0 {
		return c
	}
	switch {
	case t.Named == other.Named:
		return 0
	case !t.Named:
		return -1
	default:
		return 1
	}
}

// Less reports whether t sorts before other.
func (t TypeName) Less(other TypeName) bool {
	return t.Compare(other) < 0
}

// String returns the flattened name used for identifiers.
func (t TypeName) String() string {
	return NodeTypeName(t.Kind, t.Named)
}

// TypeSet is a sorted, de-duplicated set of type names.
type TypeSet []TypeName

// NewTypeSet sorts and de-duplicates names into a TypeSet.
func NewTypeSet(names ...TypeName) TypeSet {
	set := slices.Clone(names)
	slices.SortFunc(set, TypeName.Compare)
	set = slices.CompactFunc(set, func(a, b TypeName) bool { return a.Compare(b) == 0 })
	if set == nil {
		return TypeSet{}
	}
	return set
}

// Contains reports whether name is in the set.
func (s TypeSet) Contains(name TypeName) bool {
	_, ok := slices.BinarySearchFunc(s, name, TypeName.Compare)
	return ok
}
