// Package ql defines the declaration tree for generated QL libraries and a
// printer that renders it as source text.
package ql

import (
	"cmp"
	"slices"
)

// TopLevel is a marker interface for file-level declarations.
type TopLevel interface {
	topLevel()
}

// Import is an import declaration.
type Import struct {
	Module string
}

func (*Import) topLevel() {}

// Class is a class declaration.
type Class struct {
	Name       string
	Abstract   bool
	Supertypes TypeSet
	// CharPred is the characteristic predicate body, or nil.
	CharPred   Expression
	Predicates []Predicate
}

func (*Class) topLevel() {}

// Predicate returns the member predicate called name.
func (c *Class) Predicate(name string) (*Predicate, bool) {
	for i := range c.Predicates {
		if c.Predicates[i].Name == name {
			return &c.Predicates[i], true
		}
	}
	return nil, false
}

// TypeKind discriminates types. The order of the constants is the order in
// which supertypes are printed.
type TypeKind int

// Type kinds.
const (
	TypeInt TypeKind = iota
	TypeString
	TypeAt
	TypeNormal
)

// Type is a QL type: a primitive, a database type (@name) or a class.
type Type struct {
	Kind TypeKind
	Name string
}

// Primitive types.
var (
	IntType    = Type{Kind: TypeInt}
	StringType = Type{Kind: TypeString}
)

// AtType returns the database type @name.
func AtType(name string) Type { return Type{Kind: TypeAt, Name: name} }

// Normal returns the class type name.
func Normal(name string) Type { return Type{Kind: TypeNormal, Name: name} }

// Compare orders types by kind, then by name.
func (t Type) Compare(other Type) int {
	if c := cmp.Compare(t.Kind, other.Kind); c != 0 {
		return c
	}
	return cmp.Compare(t.Name, other.Name)
}

// String returns the type as it appears in source.
func (t Type) String() string {
	switch t.Kind {
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeAt:
		return "@" + t.Name
	default:
		return t.Name
	}
}

// TypeSet is a sorted, de-duplicated set of types.
type TypeSet []Type

// NewTypeSet sorts and de-duplicates types.
func NewTypeSet(types ...Type) TypeSet {
	set := slices.Clone(types)
	slices.SortFunc(set, Type.Compare)
	return slices.Compact(set)
}

// FormalParameter is a typed predicate parameter.
type FormalParameter struct {
	Name string
	Type Type
}

// Predicate is a member predicate. A nil ReturnType declares a predicate
// without result.
type Predicate struct {
	Name       string
	Overridden bool
	ReturnType *Type
	Params     []FormalParameter
	Body       Expression
}

// Returns is a helper for Predicate.ReturnType.
func Returns(t Type) *Type {
	return &t
}

// Expression is a marker interface for predicate bodies.
type Expression interface {
	exprNode()
}

// Var is a variable reference; "_" is the don't-care variable.
type Var struct {
	Name string
}

// String is a string literal.
type String struct {
	Value string
}

// Integer is an integer literal.
type Integer struct {
	Value int
}

// Equals asserts Left = Right.
type Equals struct {
	Left  Expression
	Right Expression
}

// Pred is an unqualified call name(args...).
type Pred struct {
	Name string
	Args []Expression
}

// Dot is a member call Receiver.Name(args...).
type Dot struct {
	Receiver Expression
	Name     string
	Args     []Expression
}

// Or is the disjunction of its operands; with no operands it never holds.
type Or struct {
	Exprs []Expression
}

func (*Var) exprNode()     {}
func (*String) exprNode()  {}
func (*Integer) exprNode() {}
func (*Equals) exprNode()  {}
func (*Pred) exprNode()    {}
func (*Dot) exprNode()     {}
func (*Or) exprNode()      {}

// Common variables.
var (
	This     = &Var{Name: "this"}
	Result   = &Var{Name: "result"}
	DontCare = &Var{Name: "_"}
)

// None returns the none() call.
func None() Expression {
	return &Pred{Name: "none"}
}
