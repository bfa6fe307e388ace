package nodetypes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
)

// NodeType is a (type, named) reference inside a descriptor.
type NodeType struct {
	Kind  string `json:"type"`
	Named bool   `json:"named"`
}

// FieldInfo describes a field or the children of a node.
type FieldInfo struct {
	Multiple bool       `json:"multiple"`
	Required bool       `json:"required"`
	Types    []NodeType `json:"types"`
}

// NodeInfo is one element of node-types.json. Keys this package does not
// model, such as "root" or "extra", are ignored.
type NodeInfo struct {
	Kind     string               `json:"type"`
	Named    bool                 `json:"named"`
	Fields   map[string]FieldInfo `json:"fields,omitempty"`
	Children *FieldInfo           `json:"children,omitempty"`
	Subtypes []NodeType           `json:"subtypes,omitempty"`
}

// UnmarshalJSON requires both keys to be present.
func (n *NodeType) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind  *string `json:"type"`
		Named *bool   `json:"named"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Kind == nil {
		return missingKey("type")
	}
	if raw.Named == nil {
		return missingKey("named")
	}
	n.Kind, n.Named = *raw.Kind, *raw.Named
	return nil
}

// UnmarshalJSON requires multiple, required and types to be present.
func (f *FieldInfo) UnmarshalJSON(data []byte) error {
	var raw struct {
		Multiple *bool      `json:"multiple"`
		Required *bool      `json:"required"`
		Types    []NodeType `json:"types"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Multiple == nil {
		return missingKey("multiple")
	}
	if raw.Required == nil {
		return missingKey("required")
	}
	if raw.Types == nil {
		return missingKey("types")
	}
	f.Multiple, f.Required, f.Types = *raw.Multiple, *raw.Required, raw.Types
	return nil
}

// UnmarshalJSON requires type and named; the rest is optional.
func (n *NodeInfo) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind     *string              `json:"type"`
		Named    *bool                `json:"named"`
		Fields   map[string]FieldInfo `json:"fields"`
		Children *FieldInfo           `json:"children"`
		Subtypes []NodeType           `json:"subtypes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Kind == nil {
		return missingKey("type")
	}
	if raw.Named == nil {
		return fmt.Errorf("node %q: %w", *raw.Kind, missingKey("named"))
	}
	*n = NodeInfo{
		Kind:     *raw.Kind,
		Named:    *raw.Named,
		Fields:   raw.Fields,
		Children: raw.Children,
		Subtypes: raw.Subtypes,
	}
	return nil
}

// ErrMissingKey is returned when a descriptor omits a required key.
var ErrMissingKey = errors.New("missing required key")

func missingKey(key string) error {
	return fmt.Errorf("%w %q", ErrMissingKey, key)
}

// DecodeNodeTypes decodes a node-types.json document.
func DecodeNodeTypes(r io.Reader) ([]NodeInfo, error) {
	var nodes []NodeInfo
	dec := json.NewDecoder(r)
	if err := dec.Decode(&nodes); err != nil {
		return nil, fmt.Errorf("failed to decode node types: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("failed to decode node types: trailing data after document")
	}
	if nodes == nil {
		return nil, errors.New("failed to decode node types: document is null")
	}
	return nodes, nil
}

// ReadNodeTypes reads the descriptor at path and converts it to entries.
func ReadNodeTypes(path string) ([]Entry, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the user's config
	if err != nil {
		return nil, fmt.Errorf("failed to open node types: %w", err)
	}
	defer func() { _ = f.Close() }()

	nodes, err := DecodeNodeTypes(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ConvertNodes(nodes), nil
}

// ConvertNodes converts decoded descriptors into entries, one per input, in
// input order.
func ConvertNodes(nodes []NodeInfo) []Entry {
	entries := make([]Entry, 0, len(nodes))
	for _, node := range nodes {
		typeName := NewTypeName(node.Kind, node.Named)

		if len(node.Subtypes) > 0 {
			entries = append(entries, Entry{
				Kind:     EntryUnion,
				TypeName: typeName,
				Members:  convertTypes(node.Subtypes),
			})
			continue
		}

		var fields []Field
		for _, name := range slices.Sorted(maps.Keys(node.Fields)) {
			fields = addField(typeName, &name, node.Fields[name], fields)
		}
		if node.Children != nil {
			fields = addField(typeName, nil, *node.Children, fields)
		}
		entries = append(entries, Entry{
			Kind:     EntryTable,
			TypeName: typeName,
			Fields:   fields,
		})
	}
	return entries
}

func addField(parent TypeName, name *string, info FieldInfo, fields []Field) []Field {
	storage := Storage{Kind: StorageColumn}
	if info.Multiple || !info.Required {
		storage = Storage{
			Kind:     StorageTable,
			Index:    len(fields),
			HasIndex: info.Multiple,
		}
	}
	return append(fields, Field{
		Parent:  parent,
		Types:   convertTypes(info.Types),
		Name:    name,
		Storage: storage,
	})
}

func convertTypes(types []NodeType) TypeSet {
	names := make([]TypeName, len(types))
	for i, t := range types {
		names[i] = NewTypeName(t.Kind, t.Named)
	}
	return NewTypeSet(names...)
}
