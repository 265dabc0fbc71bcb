package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gorepair.dev/pkg/gorepair/internal/domain"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

var populationFlag int
var generationsFlag int
var timeLimitFlag time.Duration
var crossoverRateFlag float64
var runParallelFlag int
var seedFlag int64
var mutationWeightFlag float64

// repairCmd represents the repair command.
var repairCmd = newRepairCmd()

func newRepairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repair <benchmark>",
		Short: "Search for a patch that fixes a benchmark",
		Long:  repairLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gaCfg, err := gaConfig()
			if err != nil {
				return err
			}

			evalCfg, err := evaluatorConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, err = workflow.Repair(ctx, domain.RepairArgs{
				Benchmark: m.Path(args[0]),
				Output:    m.Path(viper.GetString(outputFlagName)),
				GA:        gaCfg,
				Evaluator: evalCfg,
			})

			return err
		},
	}

	configureRepairFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(repairCmd)
}

func configureRepairFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&populationFlag, populationFlagName, "n", viper.GetInt(gaPopulationKey), "population size")
	bindFlagToConfig(cmd.Flags().Lookup(populationFlagName), gaPopulationKey)

	cmd.Flags().IntVarP(&generationsFlag, generationsFlagName, "g", viper.GetInt(gaMaxGenerationsKey), "maximum number of generations")
	bindFlagToConfig(cmd.Flags().Lookup(generationsFlagName), gaMaxGenerationsKey)

	cmd.Flags().DurationVarP(&timeLimitFlag, timeLimitFlagName, "t", viper.GetDuration(gaTimeLimitKey), "wall-clock budget for the search")
	bindFlagToConfig(cmd.Flags().Lookup(timeLimitFlagName), gaTimeLimitKey)

	cmd.Flags().Float64Var(&crossoverRateFlag, crossoverFlagName, viper.GetFloat64(gaCrossoverRateKey), "probability of recombining a selected pair")
	bindFlagToConfig(cmd.Flags().Lookup(crossoverFlagName), gaCrossoverRateKey)

	cmd.Flags().IntVarP(&runParallelFlag, runParallelFlagName, "p", viper.GetInt(runParallelConfigKey), "number of tests run concurrently per evaluation")
	bindFlagToConfig(cmd.Flags().Lookup(runParallelFlagName), runParallelConfigKey)
}
