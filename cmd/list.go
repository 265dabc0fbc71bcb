package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gorepair.dev/pkg/gorepair/internal/domain"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <benchmark>",
		Short: "List suspicious statements and guided seed counts",
		Long:  listLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return workflow.Estimate(context.Background(), domain.EstimateArgs{
				Benchmark:      m.Path(args[0]),
				Seed:           viper.GetInt64(gaSeedKey),
				MutationWeight: viper.GetFloat64(gaMutationWeightKey),
			})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
