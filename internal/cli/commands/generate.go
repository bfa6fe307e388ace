package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/qlgen/internal/cli/output"
	"github.com/leapstack-labs/qlgen/internal/generator"
	"github.com/leapstack-labs/qlgen/internal/state"
	"github.com/spf13/cobra"
)

// GenerateOptions holds options for the generate command.
type GenerateOptions struct {
	Watch    bool
	NoRecord bool
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the QL library and dbscheme",
		Long: `Read a tree-sitter node-types.json file and write the CodeQL AST
library and the matching database schema.

Both files are written only when generation succeeds, so a failed run
leaves previous outputs untouched. Each run is recorded in the state
database unless --no-record is given.`,
		Example: `  # Generate with paths from qlgen.yaml
  qlgen generate

  # Explicit paths
  qlgen generate --node-types src/node-types.json --ql-out ql/Ast.qll --dbscheme-out ql/ast.dbscheme

  # Regenerate whenever the grammar changes
  qlgen generate --watch`,
		Aliases: []string{"gen"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Regenerate when the node types or token files change")
	cmd.Flags().BoolVar(&opts.NoRecord, "no-record", false, "Do not record the run in the state database")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *GenerateOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	var store state.Store
	if !opts.NoRecord {
		s, err := cc.OpenStore()
		if err != nil {
			cc.Logger.Warn("run ledger unavailable", slog.String("error", err.Error()))
		} else {
			defer func() { _ = s.Close() }()
			store = s
		}
	}

	g, err := generator.New(generator.Config{
		NodeTypesPath: cc.Cfg.NodeTypes,
		TokensPath:    cc.Cfg.Tokens,
		QLOut:         cc.Cfg.QLOut,
		DBSchemeOut:   cc.Cfg.DBSchemeOut,
		Language:      cc.Cfg.Language,
		Store:         store,
		Logger:        cc.Logger,
	})
	if err != nil {
		return err
	}

	r := cc.Renderer
	if opts.Watch {
		r.Muted(fmt.Sprintf("Watching %s (Ctrl+C to stop)", cc.Cfg.NodeTypes))
		return g.Watch(ctx, func(res *generator.Result, err error) {
			if err != nil {
				r.Error(err.Error())
				return
			}
			_ = renderResult(r, res)
		})
	}

	res, err := g.Run(ctx)
	if err != nil {
		return err
	}
	return renderResult(r, res)
}

type generateSummary struct {
	RunID      string `json:"run_id,omitempty"`
	Language   string `json:"language"`
	Digest     string `json:"digest"`
	Entries    int    `json:"entries"`
	Classes    int    `json:"classes"`
	Tables     int    `json:"tables"`
	QL         string `json:"ql"`
	DBScheme   string `json:"dbscheme"`
	DurationMS int64  `json:"duration_ms"`
}

func renderResult(r *output.Renderer, res *generator.Result) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(generateSummary{
			RunID:      res.RunID,
			Language:   res.Language,
			Digest:     res.Digest,
			Entries:    res.Entries,
			Classes:    res.Classes,
			Tables:     res.Tables,
			QL:         res.QLPath,
			DBScheme:   res.DBSchemePath,
			DurationMS: res.Duration.Milliseconds(),
		})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(2, "Generated "+res.Language))
		r.Println(output.FormatKeyValue("QL library", res.QLPath))
		r.Println(output.FormatKeyValue("Database schema", res.DBSchemePath))
		r.Println(output.FormatKeyValue("Entries", fmt.Sprintf("%d", res.Entries)))
		r.Println(output.FormatKeyValue("Classes", fmt.Sprintf("%d", res.Classes)))
		r.Println(output.FormatKeyValue("Tables", fmt.Sprintf("%d", res.Tables)))
		if res.RunID != "" {
			r.Println(output.FormatKeyValue("Run", res.RunID))
		}
		r.Println()
	default:
		r.StatusLine(res.QLPath, "success", fmt.Sprintf("%d classes", res.Classes))
		r.StatusLine(res.DBSchemePath, "success", fmt.Sprintf("%d tables", res.Tables))
		detail := fmt.Sprintf("%s: %d node types in %s", res.Language, res.Entries, res.Duration.Round(time.Millisecond))
		if res.RunID != "" {
			detail += ", run " + res.RunID
		}
		r.Muted(detail)
	}
	return nil
}
