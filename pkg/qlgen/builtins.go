package qlgen

import (
	"github.com/leapstack-labs/qlgen/pkg/catalog"
	"github.com/leapstack-labs/qlgen/pkg/ql"
)

// tokenInfoTable holds every token row; see tokenInfoArity.
const (
	tokenInfoTable = "tokeninfo"
	// tokenInfoArity counts id, parent, parent_index, kind, file, idx,
	// value and loc.
	tokenInfoArity = 8
)

// Fixed imports at the top of every generated library.
var imports = []string{
	"codeql.files.FileSystem",
	"codeql.Locations",
}

// createAstNodeClass creates the root class. Its predicates hold for nothing
// so subclasses must override them to produce results.
func createAstNodeClass() *ql.Class {
	toString := ql.Predicate{
		Name:       "toString",
		ReturnType: ql.Returns(ql.StringType),
		Body: &ql.Equals{
			Left:  ql.Result,
			Right: &ql.Dot{Receiver: ql.This, Name: "describeQlClass"},
		},
	}
	describeQlClass := ql.Predicate{
		Name:       "describeQlClass",
		ReturnType: ql.Returns(ql.StringType),
		Body: &ql.Equals{
			Left:  ql.Result,
			Right: &ql.String{Value: "???"},
		},
	}
	return &ql.Class{
		Name:       astNodeClass,
		Supertypes: ql.NewTypeSet(ql.AtType("ast_node")),
		Predicates: []ql.Predicate{
			toString,
			createNonePredicate("getLocation", false, ql.Normal("Location")),
			createNonePredicate("getParent", false, ql.Normal(astNodeClass)),
			createNonePredicate("getParentIndex", false, ql.IntType),
			createNonePredicate("getAFieldOrChild", false, ql.Normal(astNodeClass)),
			describeQlClass,
		},
	}
}

func createTokenClass() *ql.Class {
	return &ql.Class{
		Name:       tokenClass,
		Supertypes: ql.NewTypeSet(ql.AtType("token"), ql.Normal(astNodeClass)),
		Predicates: []ql.Predicate{
			{
				Name:       "getParent",
				Overridden: true,
				ReturnType: ql.Returns(ql.Normal(astNodeClass)),
				Body:       columnRead(tokenInfoTable, 0, tokenInfoArity),
			},
			{
				Name:       "getParentIndex",
				Overridden: true,
				ReturnType: ql.Returns(ql.IntType),
				Body:       columnRead(tokenInfoTable, 1, tokenInfoArity),
			},
			{
				Name:       "getValue",
				ReturnType: ql.Returns(ql.StringType),
				Body:       columnRead(tokenInfoTable, 5, tokenInfoArity),
			},
			{
				Name:       "getLocation",
				Overridden: true,
				ReturnType: ql.Returns(ql.Normal("Location")),
				Body:       columnRead(tokenInfoTable, 6, tokenInfoArity),
			},
			{
				Name:       "toString",
				Overridden: true,
				ReturnType: ql.Returns(ql.StringType),
				Body: &ql.Equals{
					Left:  ql.Result,
					Right: &ql.Pred{Name: "getValue"},
				},
			},
			createDescribeQlClass(tokenClass),
		},
	}
}

// createReservedWordClass creates the class shared by all unnamed tokens.
func createReservedWordClass() *ql.Class {
	return &ql.Class{
		Name:       catalog.ReservedWordClass,
		Supertypes: ql.NewTypeSet(ql.AtType(catalog.ReservedWordDBScheme), ql.Normal(tokenClass)),
		Predicates: []ql.Predicate{createDescribeQlClass(catalog.ReservedWordClass)},
	}
}

// createNonePredicate creates a predicate whose body is none().
func createNonePredicate(name string, overridden bool, returnType ql.Type) ql.Predicate {
	return ql.Predicate{
		Name:       name,
		Overridden: overridden,
		ReturnType: ql.Returns(returnType),
		Body:       ql.None(),
	}
}

// createDescribeQlClass creates an overridden describeQlClass returning
// className.
func createDescribeQlClass(className string) ql.Predicate {
	return ql.Predicate{
		Name:       "describeQlClass",
		Overridden: true,
		ReturnType: ql.Returns(ql.StringType),
		Body: &ql.Equals{
			Left:  ql.Result,
			Right: &ql.String{Value: className},
		},
	}
}
