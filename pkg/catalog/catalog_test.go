package catalog

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/qlgen/pkg/nodetypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const grammar = `[
	{"type": "_expression", "named": true, "subtypes": [
		{"type": "binary", "named": true},
		{"type": "identifier", "named": true}
	]},
	{"type": "binary", "named": true, "fields": {
		"left": {"multiple": false, "required": true, "types": [{"type": "_expression", "named": true}]},
		"operator": {"multiple": false, "required": true, "types": [{"type": "+", "named": false}, {"type": "-", "named": false}]},
		"right": {"multiple": false, "required": false, "types": [{"type": "_expression", "named": true}]}
	}},
	{"type": "program", "named": true, "children": {"multiple": true, "required": false, "types": [{"type": "_expression", "named": true}]}},
	{"type": "identifier", "named": true},
	{"type": "comment", "named": true},
	{"type": "+", "named": false},
	{"type": "-", "named": false}
]`

func buildCatalog(t *testing.T, cls *Classification) *Catalog {
	t.Helper()
	nodes, err := nodetypes.DecodeNodeTypes(strings.NewReader(grammar))
	require.NoError(t, err)
	c, err := Build(nodetypes.ConvertNodes(nodes), cls)
	require.NoError(t, err)
	return c
}

func named(kind string) nodetypes.TypeName { return nodetypes.NewTypeName(kind, true) }

func TestBuild_Kinds(t *testing.T) {
	c := buildCatalog(t, &Classification{
		UnnamedTokens: true,
		Tokens:        []TokenSpec{{Kind: "identifier"}, {Kind: "comment", ID: 1}},
	})
	require.Equal(t, 7, c.Len())

	tests := []struct {
		name     nodetypes.TypeName
		kind     Kind
		kindID   int
		class    string
		dbscheme string
	}{
		{named("_expression"), KindUnion, 0, "UnderscoreExpression", "underscore_expression"},
		{named("binary"), KindTable, 0, "Binary", "binary"},
		{named("program"), KindTable, 0, "Program", "program"},
		{named("comment"), KindToken, 1, "Comment", "token_comment"},
		{named("identifier"), KindToken, 2, "Identifier", "token_identifier"},
		{nodetypes.NewTypeName("+", false), KindToken, 0, "ReservedWord", "reserved_word"},
		{nodetypes.NewTypeName("-", false), KindToken, 0, "ReservedWord", "reserved_word"},
	}
	for _, tt := range tests {
		t.Run(tt.name.String(), func(t *testing.T) {
			info, ok := c.Get(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.kind, info.Kind)
			assert.Equal(t, tt.kindID, info.KindID)
			assert.Equal(t, tt.class, info.QLClassName)
			assert.Equal(t, tt.dbscheme, info.DBSchemeName)
		})
	}
}

func TestBuild_FieldNames(t *testing.T) {
	c := buildCatalog(t, DefaultClassification())

	binary, ok := c.Get(named("binary"))
	require.True(t, ok)
	assert.Equal(t, "binary_def", binary.TableName)
	require.Len(t, binary.Fields, 3)

	left := binary.Fields[0]
	assert.Equal(t, "getLeft", left.GetterName)
	assert.True(t, left.IsColumn())
	assert.Equal(t, "left", left.ColumnName)
	assert.Empty(t, left.TableName)
	assert.Empty(t, left.DBSchemeUnion)
	single, ok := left.SingleType()
	assert.True(t, ok)
	assert.Equal(t, named("_expression"), single)

	operator := binary.Fields[1]
	assert.Equal(t, "getOperator", operator.GetterName)
	assert.Equal(t, "binary_operator_type", operator.DBSchemeUnion)
	_, ok = operator.SingleType()
	assert.False(t, ok)

	right := binary.Fields[2]
	assert.False(t, right.IsColumn())
	assert.Equal(t, "binary_right", right.TableName)
	assert.False(t, right.HasIndex)

	program, ok := c.Get(named("program"))
	require.True(t, ok)
	require.Len(t, program.Fields, 1)
	child := program.Fields[0]
	assert.Equal(t, "getChild", child.GetterName)
	assert.Equal(t, "program_child", child.TableName)
	assert.True(t, child.HasIndex)
}

func TestBuild_NamedNotListedIsTable(t *testing.T) {
	c := buildCatalog(t, DefaultClassification())
	info, ok := c.Get(named("identifier"))
	require.True(t, ok)
	assert.Equal(t, KindTable, info.Kind)
	assert.Equal(t, "identifier_def", info.TableName)
	assert.Empty(t, info.Fields)
}

func TestBuild_UnnamedTokensDisabled(t *testing.T) {
	c := buildCatalog(t, &Classification{UnnamedTokens: false})
	info, ok := c.Get(nodetypes.NewTypeName("+", false))
	require.True(t, ok)
	assert.Equal(t, KindTable, info.Kind)
	assert.Equal(t, "plus_unnamed_def", info.TableName)
}

func TestBuild_NamesSorted(t *testing.T) {
	c := buildCatalog(t, DefaultClassification())
	names := c.Names()
	for i := 1; i < len(names); i++ {
		assert.True(t, names[i-1].Less(names[i]), "%s before %s", names[i-1], names[i])
	}

	var visited []nodetypes.TypeName
	require.NoError(t, c.Each(func(info *Info) error {
		visited = append(visited, info.TypeName)
		return nil
	}))
	assert.Equal(t, names, visited)
}

func TestBuild_Errors(t *testing.T) {
	nodes, err := nodetypes.DecodeNodeTypes(strings.NewReader(grammar))
	require.NoError(t, err)
	entries := nodetypes.ConvertNodes(nodes)

	t.Run("unknown token", func(t *testing.T) {
		_, err := Build(entries, &Classification{Tokens: []TokenSpec{{Kind: "nope"}}})
		assert.ErrorIs(t, err, ErrUnknownToken)
	})

	t.Run("union listed as token", func(t *testing.T) {
		_, err := Build(entries, &Classification{Tokens: []TokenSpec{{Kind: "_expression"}}})
		assert.ErrorIs(t, err, ErrUnknownToken)
	})

	t.Run("duplicate kind id", func(t *testing.T) {
		_, err := Build(entries, &Classification{Tokens: []TokenSpec{
			{Kind: "identifier", ID: 3},
			{Kind: "comment", ID: 3},
		}})
		assert.ErrorIs(t, err, ErrDuplicateKindID)
	})

	t.Run("duplicate entry", func(t *testing.T) {
		dup := append(append([]nodetypes.Entry{}, entries...), entries[0])
		_, err := Build(dup, nil)
		assert.ErrorIs(t, err, ErrDuplicateEntry)
	})
}

func TestResolve(t *testing.T) {
	c := buildCatalog(t, DefaultClassification())

	info, err := c.Resolve(named("binary"))
	require.NoError(t, err)
	assert.Equal(t, "Binary", info.QLClassName)

	_, err = c.Resolve(nodetypes.NewTypeName("*", false))
	require.ErrorIs(t, err, ErrUnknownType)
	assert.Contains(t, err.Error(), `unnamed "*"`)
}
