package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/qlgen/internal/cli/output"
	"github.com/leapstack-labs/qlgen/internal/state"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded generation runs",
		Long: `List the generation runs recorded in the state database, newest
first. Pass a run id to show a single run.`,
		Example: `  # Last 20 runs
  qlgen history

  # Last 5 runs as JSON
  qlgen history --limit 5 -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts, args)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", state.DefaultLimit, "Maximum number of runs to show")

	return cmd
}

type runView struct {
	ID          string     `json:"id"`
	Language    string     `json:"language"`
	NodeTypes   string     `json:"node_types"`
	Digest      string     `json:"digest"`
	Status      string     `json:"status"`
	Entries     int        `json:"entries"`
	Classes     int        `json:"classes"`
	Tables      int        `json:"tables"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

func newRunView(run *state.Run) runView {
	return runView{
		ID:          run.ID,
		Language:    run.Language,
		NodeTypes:   run.NodeTypesPath,
		Digest:      run.Digest,
		Status:      string(run.Status),
		Entries:     run.Entries,
		Classes:     run.Classes,
		Tables:      run.Tables,
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		Error:       run.Error,
	}
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions, args []string) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	if cc.Cfg.StatePath != ":memory:" {
		if _, err := os.Stat(cc.Cfg.StatePath); errors.Is(err, os.ErrNotExist) {
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON([]runView{})
			}
			r.Muted("No runs recorded yet")
			return nil
		}
	}

	store, err := cc.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var runs []*state.Run
	if len(args) == 1 {
		run, err := store.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		runs = []*state.Run{run}
	} else {
		if opts.Limit <= 0 {
			return fmt.Errorf("invalid limit %d", opts.Limit)
		}
		runs, err = store.ListRuns(cmd.Context(), opts.Limit)
		if err != nil {
			return err
		}
	}

	views := make([]runView, len(runs))
	for i, run := range runs {
		views[i] = newRunView(run)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(views)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Runs (%d)", len(views))))
		r.Println()
		r.Println(runsTable(runs).RenderMarkdown())
		printRunErrors(r, runs)
	default:
		if len(runs) == 0 {
			r.Muted("No runs recorded yet")
			return nil
		}
		t := runsTable(runs)
		t.SetOutputMirror(r.Writer())
		t.Render()
		printRunErrors(r, runs)
	}
	return nil
}

func runsTable(runs []*state.Run) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Started", "Language", "Status", "Entries", "Classes", "Tables", "Duration"})
	for _, run := range runs {
		duration := ""
		if run.CompletedAt != nil {
			duration = run.Duration().Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{
			shortID(run.ID),
			run.StartedAt.Local().Format(time.DateTime),
			run.Language,
			string(run.Status),
			run.Entries,
			run.Classes,
			run.Tables,
			duration,
		})
	}
	return t
}

func printRunErrors(r *output.Renderer, runs []*state.Run) {
	for _, run := range runs {
		if run.Error != "" {
			r.StatusLine(shortID(run.ID), "error", run.Error)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
