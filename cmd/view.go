package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"gorepair.dev/pkg/gorepair/internal/domain"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view <report-dir>",
		Short: "View a previously saved repair report",
		Long: `View a repair report saved by "gorepair repair": the outcome, the edits of
the best patch, its diff and a summary of the evaluation journal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return workflow.View(context.Background(), domain.ViewArgs{Report: m.Path(args[0])})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
