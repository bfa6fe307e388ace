package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/qlgen/internal/cli/output"
	"github.com/leapstack-labs/qlgen/pkg/catalog"
	"github.com/leapstack-labs/qlgen/pkg/nodetypes"
	"github.com/spf13/cobra"
)

// InspectOptions holds options for the inspect command.
type InspectOptions struct {
	Fields bool
	Kind   string
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show how node types are classified and stored",
		Long: `Read node-types.json and the token classification and print every
node type with its classification, QL class and database names.

With --fields, also print every field with its storage decision.`,
		Example: `  # All node types
  qlgen inspect

  # Only tokens, with fields, as JSON
  qlgen inspect --kind token --fields -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Fields, "fields", false, "Include fields and their storage")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "Only show types of this kind (token|union|table)")
	_ = cmd.RegisterFlagCompletionFunc("kind", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"token", "union", "table"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// typeView is the inspect representation of one catalog entry.
type typeView struct {
	Kind     string      `json:"kind"`
	Named    bool        `json:"named"`
	Class    string      `json:"class"`
	Type     string      `json:"type"`
	Category string      `json:"category"`
	KindID   *int        `json:"kind_id,omitempty"`
	Table    string      `json:"table,omitempty"`
	Members  []string    `json:"members,omitempty"`
	Fields   []fieldView `json:"fields,omitempty"`
}

type fieldView struct {
	Name     string   `json:"name"`
	Getter   string   `json:"getter"`
	Types    []string `json:"types"`
	Storage  string   `json:"storage"`
	Location string   `json:"location"`
	Repeated bool     `json:"repeated"`
}

func runInspect(cmd *cobra.Command, opts *InspectOptions) error {
	cc := NewCommandContext(cmd)

	switch opts.Kind {
	case "", "token", "union", "table":
	default:
		return fmt.Errorf("invalid kind %q (want token, union or table)", opts.Kind)
	}

	entries, err := nodetypes.ReadNodeTypes(cc.Cfg.NodeTypes)
	if err != nil {
		return err
	}
	cls, err := catalog.LoadClassification(cc.Cfg.Tokens)
	if err != nil {
		return err
	}
	c, err := catalog.Build(entries, cls)
	if err != nil {
		return fmt.Errorf("failed to classify node types: %w", err)
	}

	var views []typeView
	_ = c.Each(func(info *catalog.Info) error {
		if opts.Kind != "" && info.Kind.String() != opts.Kind {
			return nil
		}
		views = append(views, newTypeView(info, opts.Fields))
		return nil
	})
	cc.Logger.Debug("inspected node types", slog.Int("total", c.Len()), slog.Int("shown", len(views)))

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if views == nil {
			views = []typeView{}
		}
		return r.JSON(views)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Node types (%d)", len(views))))
		r.Println()
		r.Println(typesTable(views).RenderMarkdown())
		if opts.Fields {
			r.Println()
			r.Println(output.FormatHeader(2, "Fields"))
			r.Println()
			r.Println(fieldsTable(views).RenderMarkdown())
		}
	default:
		r.Header(1, fmt.Sprintf("Node types (%d)", len(views)))
		t := typesTable(views)
		t.SetOutputMirror(r.Writer())
		t.Render()
		if opts.Fields {
			r.Println()
			r.Header(2, "Fields")
			ft := fieldsTable(views)
			ft.SetOutputMirror(r.Writer())
			ft.Render()
		}
	}
	return nil
}

func newTypeView(info *catalog.Info, withFields bool) typeView {
	v := typeView{
		Kind:     info.TypeName.Kind,
		Named:    info.TypeName.Named,
		Class:    info.QLClassName,
		Type:     "@" + info.DBSchemeName,
		Category: info.Kind.String(),
		Table:    info.TableName,
		Members:  typeNames(info.Members),
	}
	if info.Kind == catalog.KindToken {
		id := info.KindID
		v.KindID = &id
	}
	if withFields {
		for _, f := range info.Fields {
			fv := fieldView{
				Name:     f.Field.FieldName(),
				Getter:   f.GetterName,
				Types:    typeNames(f.Field.Types),
				Storage:  f.Field.Storage.Kind.String(),
				Repeated: f.HasIndex,
			}
			if f.IsColumn() {
				fv.Location = info.TableName + "." + f.ColumnName
			} else {
				fv.Location = f.TableName
			}
			v.Fields = append(v.Fields, fv)
		}
	}
	return v
}

func typeNames(set nodetypes.TypeSet) []string {
	if len(set) == 0 {
		return nil
	}
	names := make([]string, len(set))
	for i, t := range set {
		names[i] = t.String()
	}
	return names
}

func typesTable(views []typeView) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Kind", "Named", "Category", "Class", "Type", "Table"})
	for _, v := range views {
		tableName := v.Table
		if v.Category == "union" {
			tableName = strings.Join(v.Members, " | ")
		}
		t.AppendRow(table.Row{v.Kind, v.Named, v.Category, v.Class, v.Type, tableName})
	}
	return t
}

func fieldsTable(views []typeView) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Parent", "Field", "Getter", "Types", "Storage", "Location"})
	for _, v := range views {
		for _, f := range v.Fields {
			storage := f.Storage
			if f.Repeated {
				storage += " (indexed)"
			}
			t.AppendRow(table.Row{v.Class, f.Name, f.Getter, strings.Join(f.Types, ", "), storage, f.Location})
		}
	}
	return t
}
