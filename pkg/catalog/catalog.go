// Package catalog classifies every kind of a converted node-types model as a
// token, a union or a table, and fixes the class and schema names used for it.
//
// A Catalog is built once per run and is read-only afterwards. Both the class
// compiler and the schema emitter read names from it, which is what keeps the
// two artifacts in agreement.
package catalog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/leapstack-labs/qlgen/pkg/nodetypes"
)

// Kind is the classification of a type.
type Kind int

// Kinds.
const (
	KindToken Kind = iota
	KindUnion
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindToken:
		return "token"
	case KindUnion:
		return "union"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Names of the built-in types every schema and library defines.
const (
	// AstNodeClass is also the class of fields that hold several types.
	AstNodeClass         = "AstNode"
	ReservedWordClass    = "ReservedWord"
	ReservedWordDBScheme = "reserved_word"
)

var (
	// ErrUnknownToken is returned when the classification names a token kind
	// that the descriptor does not define.
	ErrUnknownToken = errors.New("token kind not defined by node types")
	// ErrDuplicateEntry is returned when the descriptor defines a kind twice.
	ErrDuplicateEntry = errors.New("duplicate node type")
	// ErrDuplicateKindID is returned when two tokens share a kind id.
	ErrDuplicateKindID = errors.New("duplicate token kind id")
	// ErrUnknownType is returned when a field or union refers to a type the
	// descriptor does not define.
	ErrUnknownType = errors.New("type not in catalog")
)

// FieldInfo carries the names generated for one field.
type FieldInfo struct {
	Field      nodetypes.Field
	GetterName string
	// ColumnName is the column in the parent's main table (column storage).
	ColumnName string
	// TableName is the auxiliary table (table storage).
	TableName string
	HasIndex  bool
	// DBSchemeUnion names the union type of a field holding several types.
	DBSchemeUnion string
}

// IsColumn reports whether the field lives in the parent's main table.
func (f *FieldInfo) IsColumn() bool {
	return f.Field.IsColumn()
}

// SingleType returns the field's type when it holds exactly one.
func (f *FieldInfo) SingleType() (nodetypes.TypeName, bool) {
	if len(f.Field.Types) != 1 {
		return nodetypes.TypeName{}, false
	}
	return f.Field.Types[0], true
}

// Info is the classification of one type.
type Info struct {
	TypeName nodetypes.TypeName
	Kind     Kind
	// KindID is the tokeninfo kind for tokens; 0 for unnamed tokens.
	KindID  int
	Members nodetypes.TypeSet
	// TableName is the main table of a table type.
	TableName    string
	Fields       []FieldInfo
	QLClassName  string
	DBSchemeName string
}

// Catalog maps every type name to its Info.
type Catalog struct {
	infos map[nodetypes.TypeName]*Info
	names []nodetypes.TypeName
}

// Get returns the info for name.
func (c *Catalog) Get(name nodetypes.TypeName) (*Info, bool) {
	info, ok := c.infos[name]
	return info, ok
}

// Names returns every type name in sorted order.
func (c *Catalog) Names() []nodetypes.TypeName {
	return slices.Clone(c.names)
}

// Resolve returns the info for name, or ErrUnknownType.
func (c *Catalog) Resolve(name nodetypes.TypeName) (*Info, error) {
	info, ok := c.infos[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, describe(name))
	}
	return info, nil
}

func describe(t nodetypes.TypeName) string {
	if t.Named {
		return fmt.Sprintf("%q", t.Kind)
	}
	return fmt.Sprintf("unnamed %q", t.Kind)
}

// Len returns the number of types.
func (c *Catalog) Len() int {
	return len(c.names)
}

// Each calls fn for every info in sorted type-name order.
func (c *Catalog) Each(fn func(*Info) error) error {
	for _, name := range c.names {
		if err := fn(c.infos[name]); err != nil {
			return err
		}
	}
	return nil
}

// Build classifies entries using cls.
func Build(entries []nodetypes.Entry, cls *Classification) (*Catalog, error) {
	if cls == nil {
		cls = DefaultClassification()
	}

	c := &Catalog{infos: make(map[nodetypes.TypeName]*Info, len(entries))}
	for i := range entries {
		e := &entries[i]
		if _, dup := c.infos[e.TypeName]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntry, e.TypeName)
		}
		c.infos[e.TypeName] = newInfo(e)
		c.names = append(c.names, e.TypeName)
	}
	slices.SortFunc(c.names, nodetypes.TypeName.Compare)

	if err := c.classifyTokens(cls); err != nil {
		return nil, err
	}
	return c, nil
}

func newInfo(e *nodetypes.Entry) *Info {
	flattened := e.TypeName.String()
	escaped := nodetypes.EscapeName(flattened)
	info := &Info{
		TypeName:     e.TypeName,
		QLClassName:  nodetypes.ClassName(escaped),
		DBSchemeName: escaped,
	}

	if e.Kind == nodetypes.EntryUnion {
		info.Kind = KindUnion
		info.Members = e.Members
		return info
	}

	info.Kind = KindTable
	info.TableName = nodetypes.EscapeName(flattened + "_def")
	info.Fields = make([]FieldInfo, len(e.Fields))
	for i, field := range e.Fields {
		info.Fields[i] = newFieldInfo(flattened, field)
	}
	return info
}

func newFieldInfo(parentFlattened string, field nodetypes.Field) FieldInfo {
	fieldName := field.FieldName()
	fi := FieldInfo{
		Field:      field,
		GetterName: "get" + nodetypes.ClassName(nodetypes.EscapeName(fieldName)),
	}
	if field.IsColumn() {
		fi.ColumnName = nodetypes.EscapeName(fieldName)
	} else {
		fi.TableName = nodetypes.EscapeName(parentFlattened + "_" + fieldName)
		fi.HasIndex = field.Storage.HasIndex
	}
	if len(field.Types) > 1 {
		fi.DBSchemeUnion = nodetypes.EscapeName(parentFlattened + "_" + fieldName + "_type")
	}
	return fi
}

// classifyTokens turns table entries into tokens and assigns kind ids.
// Explicit ids are honoured; the rest get the smallest free id from 1 up, in
// sorted type-name order.
func (c *Catalog) classifyTokens(cls *Classification) error {
	explicit := make(map[string]int, len(cls.Tokens))
	for _, tok := range cls.Tokens {
		explicit[tok.Kind] = tok.ID
		info, ok := c.infos[nodetypes.NewTypeName(tok.Kind, true)]
		if !ok || info.Kind == KindUnion {
			return fmt.Errorf("%w: %q", ErrUnknownToken, tok.Kind)
		}
	}

	used := map[int]nodetypes.TypeName{}
	var pending []*Info
	for _, name := range c.names {
		info := c.infos[name]
		if info.Kind == KindUnion {
			continue
		}
		switch {
		case !name.Named && cls.UnnamedTokens:
			info.makeToken(0)
		case name.Named:
			id, listed := explicit[name.Kind]
			if !listed {
				continue
			}
			info.makeToken(id)
			if id == 0 {
				pending = append(pending, info)
				continue
			}
			if other, taken := used[id]; taken {
				return fmt.Errorf("%w: %d used by %s and %s", ErrDuplicateKindID, id, other, name)
			}
			used[id] = name
		}
	}

	next := 1
	for _, info := range pending {
		for {
			if _, taken := used[next]; !taken {
				break
			}
			next++
		}
		info.KindID = next
		used[next] = info.TypeName
	}
	return nil
}

// makeToken reclassifies a table entry as a token. Unnamed tokens share the
// reserved word class and schema type.
func (i *Info) makeToken(id int) {
	i.Kind = KindToken
	i.KindID = id
	i.TableName = ""
	i.Fields = nil
	if !i.TypeName.Named {
		i.DBSchemeName = ReservedWordDBScheme
		i.QLClassName = ReservedWordClass
		return
	}
	flattened := i.TypeName.String()
	i.DBSchemeName = nodetypes.EscapeName("token_" + flattened)
	i.QLClassName = nodetypes.ClassName(nodetypes.EscapeName(flattened))
}
