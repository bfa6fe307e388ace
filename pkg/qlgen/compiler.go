// Package qlgen compiles a classified node-types catalog into QL class
// declarations that wrap the generated database schema.
//
// Every predicate body encodes a column position in a schema table, so the
// column layout here must match pkg/dbscheme exactly: a main table row is
// (id, parent, parent_index, <column fields in field order>, loc), or
// (id, parent, parent_index, text, loc) for a type with no fields.
package qlgen

import (
	"fmt"

	"github.com/leapstack-labs/qlgen/pkg/catalog"
	"github.com/leapstack-labs/qlgen/pkg/ql"
)

const (
	astNodeClass = catalog.AstNodeClass
	tokenClass   = "Token"

	// firstFieldColumn is the first main-table column after parent and
	// parent_index, counted without the id column.
	firstFieldColumn = 2
)

// ErrUnknownType is returned when a field refers to a type that is missing
// from the catalog.
var ErrUnknownType = catalog.ErrUnknownType

// Compile returns the imports, the built-in classes and one class per named
// token, union and table of c, in the catalog's type-name order.
func Compile(c *catalog.Catalog) ([]ql.TopLevel, error) {
	decls := make([]ql.TopLevel, 0, len(imports)+3+c.Len())
	for _, module := range imports {
		decls = append(decls, &ql.Import{Module: module})
	}
	decls = append(decls,
		createAstNodeClass(),
		createTokenClass(),
		createReservedWordClass(),
	)

	err := c.Each(func(info *catalog.Info) error {
		class, err := compileInfo(c, info)
		if err != nil {
			return err
		}
		if class != nil {
			decls = append(decls, class)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decls, nil
}

// compileInfo returns nil for unnamed tokens, which have no class.
func compileInfo(c *catalog.Catalog, info *catalog.Info) (*ql.Class, error) {
	switch info.Kind {
	case catalog.KindToken:
		if !info.TypeName.Named {
			return nil, nil
		}
		return &ql.Class{
			Name:       info.QLClassName,
			Supertypes: ql.NewTypeSet(ql.AtType(info.DBSchemeName), ql.Normal(tokenClass)),
			Predicates: []ql.Predicate{createDescribeQlClass(info.QLClassName)},
		}, nil
	case catalog.KindUnion:
		return &ql.Class{
			Name:       info.QLClassName,
			Supertypes: ql.NewTypeSet(ql.AtType(info.DBSchemeName), ql.Normal(astNodeClass)),
		}, nil
	case catalog.KindTable:
		return compileTable(c, info)
	default:
		return nil, fmt.Errorf("%s: unsupported kind %s", info.TypeName, info.Kind)
	}
}

// MainTableArity returns the number of columns of a table type's main table:
// id, parent, parent_index and loc, plus one per column field, or plus the
// text column when there are no fields.
func MainTableArity(fields []catalog.FieldInfo) int {
	if len(fields) == 0 {
		return 5
	}
	arity := 4
	for i := range fields {
		if fields[i].IsColumn() {
			arity++
		}
	}
	return arity
}

func compileTable(c *catalog.Catalog, info *catalog.Info) (*ql.Class, error) {
	arity := MainTableArity(info.Fields)
	class := &ql.Class{
		Name:       info.QLClassName,
		Supertypes: ql.NewTypeSet(ql.AtType(info.DBSchemeName), ql.Normal(astNodeClass)),
		Predicates: []ql.Predicate{
			createDescribeQlClass(info.QLClassName),
			createGetLocationPredicate(info.TableName, arity),
		},
	}

	if len(info.Fields) == 0 {
		class.Predicates = append(class.Predicates, createGetTextPredicate(info.TableName))
		return class, nil
	}

	column := firstFieldColumn
	childExprs := make([]ql.Expression, 0, len(info.Fields))
	for i := range info.Fields {
		getter, childExpr, err := createFieldGetters(c, info, arity, &column, &info.Fields[i])
		if err != nil {
			return nil, err
		}
		class.Predicates = append(class.Predicates, getter)
		childExprs = append(childExprs, childExpr)
	}

	class.Predicates = append(class.Predicates,
		ql.Predicate{
			Name:       "getParent",
			Overridden: true,
			ReturnType: ql.Returns(ql.Normal(astNodeClass)),
			Body:       columnRead(info.TableName, 0, arity),
		},
		ql.Predicate{
			Name:       "getParentIndex",
			Overridden: true,
			ReturnType: ql.Returns(ql.IntType),
			Body:       columnRead(info.TableName, 1, arity),
		},
		ql.Predicate{
			Name:       "getAFieldOrChild",
			Overridden: true,
			ReturnType: ql.Returns(ql.Normal(astNodeClass)),
			Body:       &ql.Or{Exprs: childExprs},
		},
	)
	return class, nil
}

// createGetLocationPredicate reads the last column of the main table.
func createGetLocationPredicate(table string, arity int) ql.Predicate {
	args := make([]ql.Expression, 0, arity)
	args = append(args, ql.This)
	args = appendDontCare(args, arity-2)
	args = append(args, ql.Result)
	return ql.Predicate{
		Name:       "getLocation",
		Overridden: true,
		ReturnType: ql.Returns(ql.Normal("Location")),
		Body:       &ql.Pred{Name: table, Args: args},
	}
}

// createGetTextPredicate reads the text of a type without fields.
func createGetTextPredicate(table string) ql.Predicate {
	return ql.Predicate{
		Name:       "getText",
		ReturnType: ql.Returns(ql.StringType),
		Body: &ql.Pred{
			Name: table,
			Args: []ql.Expression{ql.This, ql.Result, ql.DontCare},
		},
	}
}

// columnRead returns table(this, _..., result, _...) with result at column,
// where column and arity count the table's columns and column excludes id.
func columnRead(table string, column, arity int) *ql.Pred {
	args := make([]ql.Expression, 0, arity)
	args = append(args, ql.This)
	args = appendDontCare(args, column)
	args = append(args, ql.Result)
	args = appendDontCare(args, arity-2-column)
	return &ql.Pred{Name: table, Args: args}
}

// tableRead returns table(this, index, result), or table(this, result) when
// index is nil.
func tableRead(table string, index ql.Expression) *ql.Pred {
	if index == nil {
		return &ql.Pred{Name: table, Args: []ql.Expression{ql.This, ql.Result}}
	}
	return &ql.Pred{Name: table, Args: []ql.Expression{ql.This, index, ql.Result}}
}

func appendDontCare(args []ql.Expression, n int) []ql.Expression {
	for i := 0; i < n; i++ {
		args = append(args, ql.DontCare)
	}
	return args
}

// createFieldGetters returns the getter predicate for field and the
// expression that reads it for getAFieldOrChild. A repeated field's getter
// takes the index as a parameter; the expression uses "_" instead.
// column is advanced when the field is stored in the main table.
func createFieldGetters(
	c *catalog.Catalog,
	parent *catalog.Info,
	arity int,
	column *int,
	field *catalog.FieldInfo,
) (ql.Predicate, ql.Expression, error) {
	returnType, err := fieldReturnType(c, parent, field)
	if err != nil {
		return ql.Predicate{}, nil, err
	}

	getter := ql.Predicate{
		Name:       field.GetterName,
		ReturnType: ql.Returns(returnType),
	}

	if field.IsColumn() {
		getter.Body = columnRead(parent.TableName, *column, arity)
		childExpr := columnRead(parent.TableName, *column, arity)
		*column++
		return getter, childExpr, nil
	}

	if field.HasIndex {
		index := &ql.Var{Name: "i"}
		getter.Params = []ql.FormalParameter{{Name: index.Name, Type: ql.IntType}}
		getter.Body = tableRead(field.TableName, index)
		return getter, tableRead(field.TableName, ql.DontCare), nil
	}
	getter.Body = tableRead(field.TableName, nil)
	return getter, tableRead(field.TableName, nil), nil
}

func fieldReturnType(c *catalog.Catalog, parent *catalog.Info, field *catalog.FieldInfo) (ql.Type, error) {
	for _, t := range field.Field.Types {
		if _, err := c.Resolve(t); err != nil {
			return ql.Type{}, fmt.Errorf("%s.%s: %w", parent.TypeName, field.Field.FieldName(), err)
		}
	}
	single, ok := field.SingleType()
	if !ok {
		return ql.Normal(astNodeClass), nil
	}
	info, _ := c.Get(single)
	return ql.Normal(info.QLClassName), nil
}
