package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/qlgen/internal/cli/config"
	"github.com/leapstack-labs/qlgen/internal/cli/output"
	"github.com/leapstack-labs/qlgen/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	mode := output.Mode(cfg.OutputFormat)
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}
}

// OpenStore opens the run ledger at the configured state path, creating its
// directory if needed.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, error) {
	path := c.Cfg.StatePath
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}
	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(path); err != nil {
		return nil, err
	}
	return store, nil
}

// getConfig returns the current configuration.
// Commands run outside the root command (tests) get the defaults.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		NodeTypes:    config.DefaultNodeTypes,
		QLOut:        config.DefaultQLOut,
		DBSchemeOut:  config.DefaultDBSchemeOut,
		StatePath:    config.DefaultStateFile,
		OutputFormat: config.DefaultOutput,
	}
}
