package dbscheme

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/qlgen/pkg/catalog"
	"github.com/leapstack-labs/qlgen/pkg/nodetypes"
)

// Names of the fixed schema types.
const (
	AstNodeType    = "ast_node"
	TokenType      = "token"
	TokenInfoTable = "tokeninfo"
)

// prelude declares the file and location relations read by the standard
// FileSystem and Locations libraries.
func prelude() []Entry {
	return []Entry{
		&Table{Name: "files", Columns: []Column{
			idColumn("id", "@file"),
			stringColumn("name"),
		}},
		&Table{Name: "folders", Columns: []Column{
			idColumn("id", "@folder"),
			stringColumn("name"),
		}},
		&Union{Name: "container", Members: []string{"@file", "@folder"}},
		&Table{Name: "containerparent", Columns: []Column{
			refColumn("parent", "@container"),
			{Name: "child", Type: ColumnInt, Unique: true, QLType: "@container", Ref: true},
		}},
		&Table{Name: "locations_default", Columns: []Column{
			idColumn("id", "@location_default"),
			refColumn("file", "@file"),
			intColumn("start_line"),
			intColumn("start_column"),
			intColumn("end_line"),
			intColumn("end_column"),
		}},
		&Union{Name: "location", Members: []string{"@location_default"}},
		&Table{Name: "sourceLocationPrefix", Columns: []Column{
			stringColumn("prefix"),
		}},
	}
}

// Convert builds the schema for every type of c: the prelude, one group of
// declarations per union and table in catalog order, then the token table,
// its kind case and the @ast_node union.
func Convert(c *catalog.Catalog) ([]Entry, error) {
	entries := prelude()
	astNodeMembers := []string{at(TokenType)}
	var branches []Branch

	err := c.Each(func(info *catalog.Info) error {
		switch info.Kind {
		case catalog.KindToken:
			if info.TypeName.Named {
				branches = append(branches, Branch{Value: info.KindID, Type: at(info.DBSchemeName)})
			}
			return nil
		case catalog.KindUnion:
			members, err := memberTypes(c, info.Members)
			if err != nil {
				return fmt.Errorf("%s: %w", info.TypeName, err)
			}
			entries = append(entries, &Union{Name: info.DBSchemeName, Members: members})
			return nil
		default:
			tableEntries, err := convertTable(c, info)
			if err != nil {
				return err
			}
			entries = append(entries, tableEntries...)
			astNodeMembers = append(astNodeMembers, at(info.DBSchemeName))
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(branches, func(a, b Branch) int { return a.Value - b.Value })
	branches = append([]Branch{{Value: 0, Type: at(catalog.ReservedWordDBScheme)}}, branches...)

	entries = append(entries,
		&Table{Name: TokenInfoTable, Columns: []Column{
			idColumn("id", at(TokenType)),
			refColumn("parent", at(AstNodeType)),
			intColumn("parent_index"),
			intColumn("kind"),
			refColumn("file", "@file"),
			intColumn("idx"),
			stringColumn("value"),
			refColumn("loc", "@location"),
		}},
		&Case{Type: TokenType, Column: "kind", Branches: branches},
		&Union{Name: AstNodeType, Members: astNodeMembers},
	)
	return entries, nil
}

// convertTable returns the field unions, side tables and main table of a
// table type. Main table columns follow field order, which is the order the
// class compiler assigns column positions in.
func convertTable(c *catalog.Catalog, info *catalog.Info) ([]Entry, error) {
	var entries []Entry
	main := &Table{Name: info.TableName, Columns: []Column{
		idColumn("id", at(info.DBSchemeName)),
		refColumn("parent", at(AstNodeType)),
		intColumn("parent_index"),
	}}

	if len(info.Fields) == 0 {
		main.Columns = append(main.Columns, stringColumn("text"))
	}

	for i := range info.Fields {
		field := &info.Fields[i]
		fieldType, union, err := fieldType(c, field)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", info.TypeName, field.Field.FieldName(), err)
		}
		if union != nil {
			entries = append(entries, union)
		}

		if field.IsColumn() {
			main.Columns = append(main.Columns, refColumn(field.ColumnName, fieldType))
			continue
		}

		parentColumn := info.DBSchemeName
		side := &Table{Name: field.TableName, Columns: []Column{refColumn(parentColumn, at(info.DBSchemeName))}}
		if field.HasIndex {
			side.Columns = append(side.Columns, intColumn("index"))
			side.Keysets = [][]string{{parentColumn, "index"}}
		}
		side.Columns = append(side.Columns, Column{
			Name:   nodetypes.EscapeName(field.Field.FieldName()),
			Type:   ColumnInt,
			Unique: true,
			QLType: fieldType,
			Ref:    true,
		})
		entries = append(entries, side)
	}

	main.Columns = append(main.Columns, refColumn("loc", "@location"))
	return append(entries, main), nil
}

// fieldType returns the database type of field, and the union declaring it
// when the field holds several types.
func fieldType(c *catalog.Catalog, field *catalog.FieldInfo) (string, *Union, error) {
	members, err := memberTypes(c, field.Field.Types)
	if err != nil {
		return "", nil, err
	}
	switch {
	case len(members) == 0:
		return at(AstNodeType), nil, nil
	case field.DBSchemeUnion == "":
		return members[0], nil, nil
	default:
		return at(field.DBSchemeUnion), &Union{Name: field.DBSchemeUnion, Members: members}, nil
	}
}

// memberTypes maps types to their database types. Unnamed tokens share
// @reserved_word, so the result is sorted and de-duplicated.
func memberTypes(c *catalog.Catalog, types nodetypes.TypeSet) ([]string, error) {
	members := make([]string, 0, len(types))
	for _, t := range types {
		info, err := c.Resolve(t)
		if err != nil {
			return nil, err
		}
		members = append(members, at(info.DBSchemeName))
	}
	slices.Sort(members)
	return slices.Compact(members), nil
}
