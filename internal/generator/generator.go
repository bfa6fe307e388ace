// Package generator runs the node-types to QL pipeline and writes the
// generated library and database schema.
package generator

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/qlgen/internal/state"
	"github.com/leapstack-labs/qlgen/pkg/catalog"
	"github.com/leapstack-labs/qlgen/pkg/dbscheme"
	"github.com/leapstack-labs/qlgen/pkg/nodetypes"
	"github.com/leapstack-labs/qlgen/pkg/ql"
	"github.com/leapstack-labs/qlgen/pkg/qlgen"
)

// ErrMissingPath is returned by New when a required path is not configured.
var ErrMissingPath = errors.New("path not configured")

// Config configures a Generator.
type Config struct {
	NodeTypesPath string
	// TokensPath is the token classification document; empty uses the
	// default classification.
	TokensPath  string
	QLOut       string
	DBSchemeOut string
	// Language names the grammar in generated headers. Empty derives it
	// from NodeTypesPath.
	Language string
	// Store records runs when set.
	Store  state.Store
	Logger *slog.Logger
	// Debounce delays a watch-triggered run after the last change.
	Debounce time.Duration
}

// Result summarizes a successful run.
type Result struct {
	RunID        string
	Language     string
	Digest       string
	Entries      int
	Classes      int
	Tables       int
	QLPath       string
	DBSchemePath string
	Duration     time.Duration
}

// Generator runs the pipeline for one configuration.
type Generator struct {
	cfg    Config
	logger *slog.Logger
}

// New validates cfg and returns a Generator.
func New(cfg Config) (*Generator, error) {
	for _, p := range []struct{ name, value string }{
		{"node_types", cfg.NodeTypesPath},
		{"ql_out", cfg.QLOut},
		{"dbscheme_out", cfg.DBSchemeOut},
	} {
		if p.value == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingPath, p.name)
		}
	}
	if cfg.Language == "" {
		cfg.Language = LanguageFromPath(cfg.NodeTypesPath)
	}
	cfg.Language = cases.Title(language.English, cases.NoLower).String(cfg.Language)
	if cfg.Debounce <= 0 {
		cfg.Debounce = 100 * time.Millisecond
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{cfg: cfg, logger: logger}, nil
}

// Language returns the language name used in generated headers.
func (g *Generator) Language() string {
	return g.cfg.Language
}

// LanguageFromPath guesses the grammar name from a node types path such as
// tree-sitter-python/src/node-types.json.
func LanguageFromPath(path string) string {
	dir := filepath.Dir(filepath.Clean(path))
	if filepath.Base(dir) == "src" {
		dir = filepath.Dir(dir)
	}
	name := filepath.Base(dir)
	name = strings.TrimPrefix(name, "tree-sitter-")
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "grammar"
	}
	return name
}

// Run reads the inputs, generates both artifacts and writes them. Nothing is
// written unless both artifacts render.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	data, err := os.ReadFile(g.cfg.NodeTypesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read node types: %w", err)
	}
	sum := sha256.Sum256(data)
	result := &Result{
		Language:     g.cfg.Language,
		Digest:       hex.EncodeToString(sum[:]),
		QLPath:       g.cfg.QLOut,
		DBSchemePath: g.cfg.DBSchemeOut,
	}

	runID := g.startRun(ctx, result.Digest)
	result.RunID = runID

	err = g.generate(ctx, data, result)
	g.completeRun(ctx, runID, result, err)
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	g.logger.Info("generated QL library",
		slog.String("language", result.Language),
		slog.Int("entries", result.Entries),
		slog.Int("classes", result.Classes),
		slog.Int("tables", result.Tables),
		slog.Duration("duration", result.Duration),
	)
	return result, nil
}

func (g *Generator) generate(ctx context.Context, data []byte, result *Result) error {
	nodes, err := nodetypes.DecodeNodeTypes(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", g.cfg.NodeTypesPath, err)
	}
	entries := nodetypes.ConvertNodes(nodes)

	cls, err := catalog.LoadClassification(g.cfg.TokensPath)
	if err != nil {
		return err
	}
	c, err := catalog.Build(entries, cls)
	if err != nil {
		return fmt.Errorf("failed to classify node types: %w", err)
	}
	g.logger.Debug("built catalog", slog.Int("types", c.Len()))

	decls, err := qlgen.Compile(c)
	if err != nil {
		return fmt.Errorf("failed to compile classes: %w", err)
	}
	schema, err := dbscheme.Convert(c)
	if err != nil {
		return fmt.Errorf("failed to convert schema: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	var qlBuf, schemaBuf bytes.Buffer
	if err := ql.Write(&qlBuf, g.cfg.Language, decls); err != nil {
		return fmt.Errorf("failed to render QL library: %w", err)
	}
	if err := dbscheme.Write(&schemaBuf, g.cfg.Language, schema); err != nil {
		return fmt.Errorf("failed to render dbscheme: %w", err)
	}

	if err := writeFiles(map[string][]byte{
		g.cfg.QLOut:       qlBuf.Bytes(),
		g.cfg.DBSchemeOut: schemaBuf.Bytes(),
	}); err != nil {
		return err
	}

	result.Entries = c.Len()
	result.Classes = countClasses(decls)
	result.Tables = countTables(schema)
	return nil
}

// startRun records the run and returns its id, or "" when no ledger is
// configured or recording failed.
func (g *Generator) startRun(ctx context.Context, digest string) string {
	if g.cfg.Store == nil {
		return ""
	}
	run, err := g.cfg.Store.CreateRun(ctx, state.RunInput{
		Language:      g.cfg.Language,
		NodeTypesPath: g.cfg.NodeTypesPath,
		Digest:        digest,
	})
	if err != nil {
		g.logger.Warn("failed to record run", slog.String("error", err.Error()))
		return ""
	}
	return run.ID
}

func (g *Generator) completeRun(ctx context.Context, runID string, result *Result, runErr error) {
	if g.cfg.Store == nil || runID == "" {
		return
	}
	counts := state.RunCounts{Entries: result.Entries, Classes: result.Classes, Tables: result.Tables}
	// The run's own context may be cancelled; the ledger update still applies.
	if err := g.cfg.Store.CompleteRun(context.WithoutCancel(ctx), runID, counts, runErr); err != nil {
		g.logger.Warn("failed to complete run record",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
	}
}

func countClasses(decls []ql.TopLevel) int {
	n := 0
	for _, d := range decls {
		if _, ok := d.(*ql.Class); ok {
			n++
		}
	}
	return n
}

func countTables(entries []dbscheme.Entry) int {
	n := 0
	for _, e := range entries {
		if _, ok := e.(*dbscheme.Table); ok {
			n++
		}
	}
	return n
}
