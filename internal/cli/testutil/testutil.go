// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/qlgen/internal/cli/output"
)

// NodeTypes is a small grammar: an expression union, a call with a column
// field and a repeated field, an identifier token and two punctuation tokens.
const NodeTypes = `[
	{"type": "_expression", "named": true, "subtypes": [
		{"type": "call", "named": true},
		{"type": "identifier", "named": true}
	]},
	{"type": "call", "named": true, "fields": {
		"function": {"multiple": false, "required": true, "types": [{"type": "identifier", "named": true}]},
		"arguments": {"multiple": true, "required": false, "types": [{"type": "_expression", "named": true}]}
	}},
	{"type": "identifier", "named": true},
	{"type": "(", "named": false},
	{"type": ")", "named": false}
]`

// Tokens classifies identifier as a named token.
const Tokens = `tokens:
  - kind: identifier
`

// SetupTestProject creates a temporary grammar project with node types, a
// token classification and a qlgen.yaml, and returns its directory.
// extraConfig is appended to the generated qlgen.yaml.
func SetupTestProject(t *testing.T, extraConfig string) string {
	t.Helper()

	tmpDir := t.TempDir()
	files := map[string]string{
		filepath.Join("src", "node-types.json"): NodeTypes,
		"tokens.yaml":                           Tokens,
		"qlgen.yaml": `language: mini
node_types: src/node-types.json
tokens: tokens.yaml
ql_out: ql/Ast.qll
dbscheme_out: ql/mini.dbscheme
state_path: .qlgen/state.db
` + extraConfig,
	}
	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
	return tmpDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
