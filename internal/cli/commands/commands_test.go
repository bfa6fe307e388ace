package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/qlgen/internal/cli/config"
	"github.com/leapstack-labs/qlgen/internal/cli/output"
	clitestutil "github.com/leapstack-labs/qlgen/internal/cli/testutil"
	"github.com/leapstack-labs/qlgen/internal/generator"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadProject creates a grammar project, makes it the working directory and
// loads its configuration the way the root command does.
func loadProject(t *testing.T, extraConfig string) string {
	t.Helper()
	dir := clitestutil.SetupTestProject(t, extraConfig)
	t.Chdir(dir)
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	_, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	return dir
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewGenerateCommand(), "generate", []string{"watch", "no-record"}},
		{NewInspectCommand(), "inspect", []string{"fields", "kind"}},
		{NewEscapeCommand(), "escape <kind>...", nil},
		{NewHistoryCommand(), "history [run-id]", []string{"limit"}},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Example, "Example should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
	assert.Equal(t, []string{"gen"}, NewGenerateCommand().Aliases)
}

func TestGenerate_Markdown(t *testing.T) {
	dir := loadProject(t, "")

	out, _, err := execute(t, NewGenerateCommand())
	require.NoError(t, err)

	assert.Contains(t, out, "## Generated Mini")
	assert.Contains(t, out, "- **Classes:** 6")
	assert.Contains(t, out, "- **Tables:** 8")
	assert.Contains(t, out, "- **Run:** ")
	clitestutil.AssertNoANSI(t, out)
	clitestutil.AssertValidMarkdown(t, out)

	assert.FileExists(t, filepath.Join(dir, "ql", "Ast.qll"))
	assert.FileExists(t, filepath.Join(dir, "ql", "mini.dbscheme"))
	assert.FileExists(t, filepath.Join(dir, ".qlgen", "state.db"))
}

func TestGenerate_JSON(t *testing.T) {
	loadProject(t, "output: json\n")

	out, _, err := execute(t, NewGenerateCommand())
	require.NoError(t, err)

	var summary generateSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "Mini", summary.Language)
	assert.Equal(t, 5, summary.Entries)
	assert.Equal(t, 6, summary.Classes)
	assert.Equal(t, 8, summary.Tables)
	assert.NotEmpty(t, summary.RunID)
	assert.Len(t, summary.Digest, 64)
}

func TestGenerate_NoRecord(t *testing.T) {
	dir := loadProject(t, "output: json\n")

	out, _, err := execute(t, NewGenerateCommand(), "--no-record")
	require.NoError(t, err)
	assert.NotContains(t, out, "run_id")
	assert.NoDirExists(t, filepath.Join(dir, ".qlgen"))
}

func TestGenerate_Failure(t *testing.T) {
	dir := loadProject(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "node-types.json"), []byte(`{`), 0o600))

	_, _, err := execute(t, NewGenerateCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode node types")
	assert.NoFileExists(t, filepath.Join(dir, "ql", "Ast.qll"))
}

func TestRenderResult_Text(t *testing.T) {
	tr := clitestutil.NewTestRenderer(output.ModeText, false)
	err := renderResult(tr.Renderer, &generator.Result{
		RunID:        "abc",
		Language:     "Mini",
		Classes:      6,
		Tables:       8,
		Entries:      5,
		QLPath:       "ql/Ast.qll",
		DBSchemePath: "ql/mini.dbscheme",
		Duration:     1500 * time.Microsecond,
	})
	require.NoError(t, err)
	assert.Equal(t,
		"✓ ql/Ast.qll (6 classes)\n✓ ql/mini.dbscheme (8 tables)\nMini: 5 node types in 2ms, run abc\n",
		tr.Output())
}

func TestInspect_JSON(t *testing.T) {
	loadProject(t, "output: json\n")

	out, _, err := execute(t, NewInspectCommand(), "--fields")
	require.NoError(t, err)

	var views []typeView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	byKind := map[string]typeView{}
	for _, v := range views {
		byKind[v.Kind] = v
	}
	require.Len(t, byKind, 5)
	assert.Equal(t, "ReservedWord", byKind["("].Class)
	assert.Equal(t, "@reserved_word", byKind["("].Type)

	expr := byKind["_expression"]
	assert.Equal(t, "union", expr.Category)
	assert.Equal(t, []string{"call", "identifier"}, expr.Members)

	ident := byKind["identifier"]
	assert.Equal(t, "token", ident.Category)
	require.NotNil(t, ident.KindID)
	assert.Equal(t, 1, *ident.KindID)

	call := byKind["call"]
	assert.Equal(t, "table", call.Category)
	assert.Equal(t, "call_def", call.Table)
	require.Len(t, call.Fields, 2)
	fields := map[string]fieldView{}
	for _, f := range call.Fields {
		fields[f.Name] = f
	}
	assert.Equal(t, "column", fields["function"].Storage)
	assert.Equal(t, "getFunction", fields["function"].Getter)
	assert.Equal(t, "call_def.function", fields["function"].Location)
	assert.Equal(t, "table", fields["arguments"].Storage)
	assert.Equal(t, "call_arguments", fields["arguments"].Location)
	assert.True(t, fields["arguments"].Repeated)
}

func TestInspect_KindFilter(t *testing.T) {
	loadProject(t, "output: json\n")

	out, _, err := execute(t, NewInspectCommand(), "--kind", "token")
	require.NoError(t, err)

	var views []typeView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 3)
	for _, v := range views {
		assert.Equal(t, "token", v.Category)
		assert.Empty(t, v.Fields)
	}

	_, _, err = execute(t, NewInspectCommand(), "--kind", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid kind")
}

func TestInspect_Markdown(t *testing.T) {
	loadProject(t, "")

	out, _, err := execute(t, NewInspectCommand(), "--fields")
	require.NoError(t, err)
	assert.Contains(t, out, "# Node types (5)")
	assert.Contains(t, out, "## Fields")
	assert.Contains(t, out, "| Kind |")
	assert.Contains(t, out, "call_arguments")
	clitestutil.AssertNoANSI(t, out)
}

func TestEscape_JSON(t *testing.T) {
	loadProject(t, "output: json\n")

	out, _, err := execute(t, NewEscapeCommand(), "!=", "type", "_expression")
	require.NoError(t, err)

	var names []escapedName
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, []escapedName{
		{Input: "!=", Escaped: "bangequal", QLClass: "Bangequal", Unnamed: "bangequal_unnamed"},
		{Input: "type", Escaped: "type__", QLClass: "Type", Unnamed: "type_unnamed"},
		{Input: "_expression", Escaped: "underscore_expression", QLClass: "UnderscoreExpression", Unnamed: "underscore_expression_unnamed"},
	}, names)
}

func TestEscape_RequiresArgs(t *testing.T) {
	_, _, err := execute(t, NewEscapeCommand())
	require.Error(t, err)
}

func TestHistory(t *testing.T) {
	loadProject(t, "output: json\n")

	out, _, err := execute(t, NewHistoryCommand())
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	_, _, err = execute(t, NewGenerateCommand())
	require.NoError(t, err)
	_, _, err = execute(t, NewGenerateCommand())
	require.NoError(t, err)

	out, _, err = execute(t, NewHistoryCommand(), "--limit", "1")
	require.NoError(t, err)
	var runs []runView
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, "Mini", runs[0].Language)
	assert.Equal(t, 6, runs[0].Classes)

	out, _, err = execute(t, NewHistoryCommand(), runs[0].ID)
	require.NoError(t, err)
	var single []runView
	require.NoError(t, json.Unmarshal([]byte(out), &single))
	require.Len(t, single, 1)
	assert.Equal(t, runs[0].ID, single[0].ID)

	_, _, err = execute(t, NewHistoryCommand(), "--limit", "0")
	require.Error(t, err)
}

func TestHistory_MarkdownEmpty(t *testing.T) {
	loadProject(t, "")

	out, _, err := execute(t, NewHistoryCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded yet")
}

func TestNewVersionCommand(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantOut []string
	}{
		{name: "default version", version: "0.1.0", wantOut: []string{"qlgen v0.1.0", "tree-sitter"}},
		{name: "dev version", version: "dev", wantOut: []string{"qlgen vdev"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, NewVersionCommand(tt.version))
			require.NoError(t, err)
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
		})
	}
}
