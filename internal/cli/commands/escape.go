package commands

import (
	"github.com/leapstack-labs/qlgen/internal/cli/output"
	"github.com/leapstack-labs/qlgen/pkg/nodetypes"
	"github.com/spf13/cobra"
)

type escapedName struct {
	Input    string `json:"input"`
	Escaped  string `json:"escaped"`
	QLClass  string `json:"ql_class"`
	Unnamed  string `json:"unnamed_token"`
}

// NewEscapeCommand creates the escape command.
func NewEscapeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "escape <kind>...",
		Short: "Show the identifiers generated for grammar kinds",
		Long: `Print the escaped identifier, QL class name and unnamed-token name
generated for each grammar kind.`,
		Example: `  # Punctuation and keywords
  qlgen escape "!=" "<<=" class

  # As JSON
  qlgen escape -o json "->"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEscape(cmd, args)
		},
	}
}

func runEscape(cmd *cobra.Command, args []string) error {
	r := NewCommandContext(cmd).Renderer

	names := make([]escapedName, len(args))
	for i, arg := range args {
		escaped := nodetypes.EscapeName(arg)
		names[i] = escapedName{
			Input:   arg,
			Escaped: escaped,
			QLClass: nodetypes.ClassName(escaped),
			Unnamed: nodetypes.EscapeName(nodetypes.NodeTypeName(arg, false)),
		}
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(names)
	case output.ModeMarkdown:
		for _, n := range names {
			r.Println(output.FormatHeader(2, "`"+n.Input+"`"))
			r.Println(output.FormatKeyValue("Escaped", n.Escaped))
			r.Println(output.FormatKeyValue("QL class", n.QLClass))
			r.Println(output.FormatKeyValue("Unnamed token", n.Unnamed))
			r.Println()
		}
	default:
		styles := r.Styles()
		for _, n := range names {
			r.Printf("%s  %s  %s\n", styles.Key.Render(n.Input), n.Escaped, styles.Muted.Render(n.QLClass))
		}
	}
	return nil
}
