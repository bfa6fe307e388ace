package qlgen

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/qlgen/pkg/catalog"
	"github.com/leapstack-labs/qlgen/pkg/nodetypes"
	"github.com/leapstack-labs/qlgen/pkg/ql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const grammar = `[
	{"type": "_expression", "named": true, "subtypes": [
		{"type": "binary", "named": true},
		{"type": "identifier", "named": true},
		{"type": "binary", "named": true}
	]},
	{"type": "binary", "named": true, "fields": {
		"right": {"multiple": false, "required": false, "types": [{"type": "_expression", "named": true}]},
		"left": {"multiple": false, "required": true, "types": [{"type": "_expression", "named": true}]},
		"operator": {"multiple": false, "required": true, "types": [{"type": "+", "named": false}, {"type": "-", "named": false}]}
	}},
	{"type": "program", "named": true, "children": {"multiple": true, "required": false, "types": [{"type": "_expression", "named": true}]}},
	{"type": "identifier", "named": true},
	{"type": "comment", "named": true},
	{"type": "+", "named": false},
	{"type": "-", "named": false}
]`

func compileGrammar(t *testing.T, doc string, cls *catalog.Classification) []ql.TopLevel {
	t.Helper()
	nodes, err := nodetypes.DecodeNodeTypes(strings.NewReader(doc))
	require.NoError(t, err)
	c, err := catalog.Build(nodetypes.ConvertNodes(nodes), cls)
	require.NoError(t, err)
	decls, err := Compile(c)
	require.NoError(t, err)
	return decls
}

func defaultDecls(t *testing.T) []ql.TopLevel {
	t.Helper()
	return compileGrammar(t, grammar, &catalog.Classification{
		UnnamedTokens: true,
		Tokens:        []catalog.TokenSpec{{Kind: "identifier"}},
	})
}

func classes(decls []ql.TopLevel) map[string]*ql.Class {
	out := map[string]*ql.Class{}
	for _, d := range decls {
		if c, ok := d.(*ql.Class); ok {
			out[c.Name] = c
		}
	}
	return out
}

func predicateNames(c *ql.Class) []string {
	names := make([]string, len(c.Predicates))
	for i, p := range c.Predicates {
		names[i] = p.Name
	}
	return names
}

func body(t *testing.T, c *ql.Class, name string) string {
	t.Helper()
	p, ok := c.Predicate(name)
	require.True(t, ok, "predicate %s on %s", name, c.Name)
	return ql.FormatExpression(p.Body)
}

func TestCompile_Layout(t *testing.T) {
	decls := defaultDecls(t)

	require.GreaterOrEqual(t, len(decls), 5)
	assert.Equal(t, &ql.Import{Module: "codeql.files.FileSystem"}, decls[0])
	assert.Equal(t, &ql.Import{Module: "codeql.Locations"}, decls[1])

	var names []string
	for _, d := range decls[2:] {
		names = append(names, d.(*ql.Class).Name)
	}
	// Built-ins, then catalog order: _expression, binary, comment,
	// identifier, program. Unnamed tokens have no class.
	assert.Equal(t, []string{
		"AstNode", "Token", "ReservedWord",
		"UnderscoreExpression", "Binary", "Comment", "Identifier", "Program",
	}, names)
}

func TestCompile_BuiltIns(t *testing.T) {
	cs := classes(defaultDecls(t))

	astNode := cs["AstNode"]
	assert.Equal(t, ql.NewTypeSet(ql.AtType("ast_node")), astNode.Supertypes)
	assert.Equal(t, []string{
		"toString", "getLocation", "getParent", "getParentIndex", "getAFieldOrChild", "describeQlClass",
	}, predicateNames(astNode))
	assert.Equal(t, "result = this.describeQlClass()", body(t, astNode, "toString"))
	for _, name := range []string{"getLocation", "getParent", "getParentIndex", "getAFieldOrChild"} {
		assert.Equal(t, "none()", body(t, astNode, name))
	}
	assert.Equal(t, `result = "???"`, body(t, astNode, "describeQlClass"))

	token := cs["Token"]
	assert.Equal(t, ql.NewTypeSet(ql.AtType("token"), ql.Normal("AstNode")), token.Supertypes)
	assert.Equal(t, "tokeninfo(this, result, _, _, _, _, _, _)", body(t, token, "getParent"))
	assert.Equal(t, "tokeninfo(this, _, result, _, _, _, _, _)", body(t, token, "getParentIndex"))
	assert.Equal(t, "tokeninfo(this, _, _, _, _, _, result, _)", body(t, token, "getValue"))
	assert.Equal(t, "tokeninfo(this, _, _, _, _, _, _, result)", body(t, token, "getLocation"))
	assert.Equal(t, "result = getValue()", body(t, token, "toString"))

	reserved := cs["ReservedWord"]
	assert.Equal(t, ql.NewTypeSet(ql.AtType("reserved_word"), ql.Normal("Token")), reserved.Supertypes)
	assert.Equal(t, []string{"describeQlClass"}, predicateNames(reserved))
}

func TestCompile_TokenAndUnion(t *testing.T) {
	cs := classes(defaultDecls(t))

	ident := cs["Identifier"]
	assert.Equal(t, ql.NewTypeSet(ql.AtType("token_identifier"), ql.Normal("Token")), ident.Supertypes)
	assert.Equal(t, []string{"describeQlClass"}, predicateNames(ident))
	assert.Equal(t, `result = "Identifier"`, body(t, ident, "describeQlClass"))

	union := cs["UnderscoreExpression"]
	assert.Equal(t, ql.NewTypeSet(ql.AtType("underscore_expression"), ql.Normal("AstNode")), union.Supertypes)
	assert.Empty(t, union.Predicates)
}

func TestCompile_TableWithFields(t *testing.T) {
	binary := classes(defaultDecls(t))["Binary"]

	// Field order is alphabetical, not declaration order in the JSON.
	assert.Equal(t, []string{
		"describeQlClass", "getLocation",
		"getLeft", "getOperator", "getRight",
		"getParent", "getParentIndex", "getAFieldOrChild",
	}, predicateNames(binary))

	// Two column fields: arity 4 + 2.
	assert.Equal(t, "binary_def(this, _, _, _, _, result)", body(t, binary, "getLocation"))
	assert.Equal(t, "binary_def(this, _, _, result, _, _)", body(t, binary, "getLeft"))
	assert.Equal(t, "binary_def(this, _, _, _, result, _)", body(t, binary, "getOperator"))
	assert.Equal(t, "binary_right(this, result)", body(t, binary, "getRight"))
	assert.Equal(t, "binary_def(this, result, _, _, _, _)", body(t, binary, "getParent"))
	assert.Equal(t, "binary_def(this, _, result, _, _, _)", body(t, binary, "getParentIndex"))
	assert.Equal(t,
		"(binary_def(this, _, _, result, _, _) or binary_def(this, _, _, _, result, _) or binary_right(this, result))",
		body(t, binary, "getAFieldOrChild"))

	left, _ := binary.Predicate("getLeft")
	assert.Equal(t, ql.Returns(ql.Normal("UnderscoreExpression")), left.ReturnType)
	assert.Empty(t, left.Params)
	assert.False(t, left.Overridden)

	operator, _ := binary.Predicate("getOperator")
	assert.Equal(t, ql.Returns(ql.Normal("AstNode")), operator.ReturnType)
}

func TestCompile_RepeatedField(t *testing.T) {
	program := classes(defaultDecls(t))["Program"]

	child, ok := program.Predicate("getChild")
	require.True(t, ok)
	assert.Equal(t, []ql.FormalParameter{{Name: "i", Type: ql.IntType}}, child.Params)
	assert.Equal(t, "program_child(this, i, result)", body(t, program, "getChild"))
	assert.Equal(t, "program_child(this, _, result)", body(t, program, "getAFieldOrChild"))

	// No column fields: arity is 4.
	assert.Equal(t, "program_def(this, _, _, result)", body(t, program, "getLocation"))
	assert.Equal(t, "program_def(this, result, _, _)", body(t, program, "getParent"))
}

func TestCompile_TableWithoutFields(t *testing.T) {
	comment := classes(defaultDecls(t))["Comment"]

	assert.Equal(t, []string{"describeQlClass", "getLocation", "getText"}, predicateNames(comment))
	assert.Equal(t, "comment_def(this, _, _, _, result)", body(t, comment, "getLocation"))
	assert.Equal(t, "comment_def(this, result, _)", body(t, comment, "getText"))
}

func TestCompile_UnnamedTokenSuppressed(t *testing.T) {
	decls := compileGrammar(t, `[{"type": "+", "named": false}, {"type": "x", "named": true}]`,
		&catalog.Classification{UnnamedTokens: true, Tokens: []catalog.TokenSpec{{Kind: "x"}}})
	cs := classes(decls)
	assert.Len(t, cs, 4)
	assert.Contains(t, cs, "X")
	assert.NotContains(t, cs, "ReservedWordPlus")
}

func TestMainTableArity(t *testing.T) {
	column := catalog.FieldInfo{Field: nodetypes.Field{Storage: nodetypes.Storage{Kind: nodetypes.StorageColumn}}}
	table := catalog.FieldInfo{Field: nodetypes.Field{Storage: nodetypes.Storage{Kind: nodetypes.StorageTable}}}

	tests := []struct {
		name   string
		fields []catalog.FieldInfo
		want   int
	}{
		{"no fields", nil, 5},
		{"only table fields", []catalog.FieldInfo{table, table}, 4},
		{"one column", []catalog.FieldInfo{column}, 5},
		{"mixed", []catalog.FieldInfo{column, table, column, column}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MainTableArity(tt.fields))
		})
	}
}

func TestCompile_ColumnCursorSkipsTableFields(t *testing.T) {
	decls := compileGrammar(t, `[
		{"type": "x", "named": true, "fields": {
			"a": {"multiple": false, "required": true, "types": [{"type": "x", "named": true}]},
			"b": {"multiple": true, "required": true, "types": [{"type": "x", "named": true}]},
			"c": {"multiple": false, "required": true, "types": [{"type": "x", "named": true}]}
		}}
	]`, catalog.DefaultClassification())
	x := classes(decls)["X"]

	assert.Equal(t, "x_def(this, _, _, result, _, _)", body(t, x, "getA"))
	assert.Equal(t, "x_b(this, i, result)", body(t, x, "getB"))
	assert.Equal(t, "x_def(this, _, _, _, result, _)", body(t, x, "getC"))
	assert.Equal(t, "x_def(this, _, _, _, _, result)", body(t, x, "getLocation"))
}

func TestCompile_Deterministic(t *testing.T) {
	first := defaultDecls(t)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, defaultDecls(t))
	}
}

func TestCompile_UnknownFieldType(t *testing.T) {
	nodes, err := nodetypes.DecodeNodeTypes(strings.NewReader(`[
		{"type": "x", "named": true, "fields": {
			"f": {"multiple": false, "required": true, "types": [{"type": "missing", "named": true}]}
		}}
	]`))
	require.NoError(t, err)
	c, err := catalog.Build(nodetypes.ConvertNodes(nodes), nil)
	require.NoError(t, err)

	decls, err := Compile(c)
	require.ErrorIs(t, err, ErrUnknownType)
	assert.Nil(t, decls)
	assert.Contains(t, err.Error(), `"missing"`)
}

func TestCompile_EmptyTypesField(t *testing.T) {
	decls := compileGrammar(t, `[
		{"type": "x", "named": true, "fields": {
			"f": {"multiple": false, "required": false, "types": []}
		}}
	]`, nil)
	x := classes(decls)["X"]
	f, ok := x.Predicate("getF")
	require.True(t, ok)
	assert.Equal(t, ql.Returns(ql.Normal("AstNode")), f.ReturnType)
	assert.Equal(t, "x_f(this, result)", body(t, x, "getF"))
}
