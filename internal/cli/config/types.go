// Package config loads qlgen CLI configuration from defaults, a YAML file,
// QLGEN_ environment variables and command-line flags.
package config

import (
	"fmt"
	"slices"
)

// Config holds all CLI configuration options.
type Config struct {
	Language     string `koanf:"language"`
	NodeTypes    string `koanf:"node_types"`
	Tokens       string `koanf:"tokens"`
	QLOut        string `koanf:"ql_out"`
	DBSchemeOut  string `koanf:"dbscheme_out"`
	StatePath    string `koanf:"state_path"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`

	// BaseDir is the directory relative paths were resolved against.
	BaseDir string `koanf:"-"`
}

// Default configuration values, laid out for a tree-sitter grammar repository.
const (
	DefaultNodeTypes   = "src/node-types.json"
	DefaultQLOut       = "ql/lib/codeql/Ast.qll"
	DefaultDBSchemeOut = "ql/lib/codeql/ast.dbscheme"
	DefaultStateFile   = ".qlgen/state.db"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// OutputFormats lists the accepted values of the output key.
var OutputFormats = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(OutputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (want one of %v)", c.OutputFormat, OutputFormats)
	}
	return nil
}
