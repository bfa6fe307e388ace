// Package dbscheme builds and prints the relational schema that generated QL
// libraries read from.
package dbscheme

// Entry is a marker interface for schema declarations.
type Entry interface {
	entry()
}

// ColumnType is the storage type of a column.
type ColumnType int

// Column types.
const (
	ColumnInt ColumnType = iota
	ColumnString
)

func (t ColumnType) String() string {
	if t == ColumnString {
		return "string"
	}
	return "int"
}

// Column is one column of a table.
type Column struct {
	Name string
	Type ColumnType
	// Unique marks the column that defines its QL type (the id column).
	Unique bool
	// QLType is the database type, e.g. "@call", "int" or "string".
	QLType string
	// Ref is false only for the defining column.
	Ref bool
}

// Table is a relation declaration.
type Table struct {
	Name    string
	Columns []Column
	// Keysets lists column-name groups that identify a row.
	Keysets [][]string
}

// Arity returns the number of columns.
func (t *Table) Arity() int {
	return len(t.Columns)
}

// Column returns the column called name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Union declares @Name as the union of Members.
type Union struct {
	Name    string
	Members []string
}

// Branch maps one value of a case column to a type.
type Branch struct {
	Value int
	Type  string
}

// Case splits the type @Type into subtypes by the value of Column.
type Case struct {
	Type     string
	Column   string
	Branches []Branch
}

func (*Table) entry() {}
func (*Union) entry() {}
func (*Case) entry()  {}

func idColumn(name, qlType string) Column {
	return Column{Name: name, Type: ColumnInt, Unique: true, QLType: qlType}
}

func refColumn(name, qlType string) Column {
	return Column{Name: name, Type: ColumnInt, QLType: qlType, Ref: true}
}

func intColumn(name string) Column {
	return Column{Name: name, Type: ColumnInt, QLType: "int", Ref: true}
}

func stringColumn(name string) Column {
	return Column{Name: name, Type: ColumnString, QLType: "string", Ref: true}
}

func at(name string) string {
	return "@" + name
}
