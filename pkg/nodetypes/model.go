package nodetypes

// EntryKind discriminates the two entry variants.
type EntryKind int

// Entry variants.
const (
	// EntryUnion is a supertype node whose members are other kinds.
	EntryUnion EntryKind = iota
	// EntryTable is a concrete node shape defined by a table.
	EntryTable
)

func (k EntryKind) String() string {
	switch k {
	case EntryUnion:
		return "union"
	case EntryTable:
		return "table"
	default:
		return "unknown"
	}
}

// Entry is the canonical form of one descriptor.
// Members is set for unions, Fields for tables.
type Entry struct {
	Kind     EntryKind
	TypeName TypeName
	Members  TypeSet
	Fields   []Field
}

// StorageKind says where a field's value lives.
type StorageKind int

// Storage kinds.
const (
	// StorageColumn stores the field as a column of the parent's row.
	StorageColumn StorageKind = iota
	// StorageTable stores the field in an auxiliary table.
	StorageTable
)

func (k StorageKind) String() string {
	if k == StorageColumn {
		return "column"
	}
	return "table"
}

// Storage is the placement decision for a field.
type Storage struct {
	Kind StorageKind
	// Index is the number of fields already on the parent when this field
	// was added. Only set for table storage.
	Index int
	// HasIndex is true when the field may repeat, so its auxiliary table
	// carries a position column.
	HasIndex bool
}

// Field is one field of a table entry.
type Field struct {
	Parent TypeName
	Types  TypeSet
	// Name is nil for the anonymous children field.
	Name    *string
	Storage Storage
}

// FieldName returns the declared name, or "child" for the children field.
func (f Field) FieldName() string {
	if f.Name == nil {
		return "child"
	}
	return *f.Name
}

// IsColumn reports whether the field is stored in the parent's row.
func (f Field) IsColumn() bool {
	return f.Storage.Kind == StorageColumn
}
