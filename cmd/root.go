// Package cmd provides the root command and CLI setup for gorepair.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gorepair.dev/pkg/gorepair/internal/adapter"
	"gorepair.dev/pkg/gorepair/internal/controller"
	"gorepair.dev/pkg/gorepair/internal/domain"
)

var goFileAdapter adapter.GoFileAdapter
var fsAdapter adapter.SourceFSAdapter
var benchmarkAdapter adapter.BenchmarkAdapter
var reportStore adapter.ReportStore
var testAdapter adapter.TestRunnerAdapter
var workflow domain.Workflow
var ui controller.UI

// reportsOutputDirFlag is a root-level flag shared by commands that read/write reports.
var reportsOutputDirFlag string

// verboseFlag switches the log file to debug level.
var verboseFlag bool

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	goFileAdapter = adapter.NewLocalGoFileAdapter()
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	benchmarkAdapter = adapter.NewLocalBenchmarkAdapter(fsAdapter)
	reportStore = adapter.NewReportStore()
	testAdapter = adapter.NewLocalTestRunnerAdapter()
	workflow = domain.NewWorkflow(
		fsAdapter,
		goFileAdapter,
		benchmarkAdapter,
		reportStore,
		testAdapter,
		ui,
	)
}

const benchmarkHelp = `A benchmark is a directory holding a Go package with one defective source
file, its test file, and a benchmark.yaml (or benchmark.json) describing
them. An optional fault-localization file weights suspicious lines.`

const rootLongDescription = `Gorepair is an automated program repair tool for Go. It searches for a
small sequence of statement edits (delete, insert, swap) and expression
mutations that makes a failing test suite pass, using a genetic algorithm
guided by fault localization.

` + benchmarkHelp

const repairLongDescription = `Search for a patch that makes every test of the benchmark pass.

The best patch found is written under the output directory together with a
unified diff, a YAML report and the evaluation journal.

` + benchmarkHelp

const listLongDescription = `List the suspicious statements of a benchmark and the number of guided
edits the search would seed from them.

` + benchmarkHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gorepair",
		Short: "Automated program repair for Go",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger("", viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

// newRootCmd returns a fresh root command with its persistent flags.
func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for repair reports",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().Int64Var(&seedFlag, seedFlagName, viper.GetInt64(gaSeedKey), "random seed")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(seedFlagName), gaSeedKey)

	cmd.PersistentFlags().Float64Var(&mutationWeightFlag, mutationFlagName, viper.GetFloat64(gaMutationWeightKey), "probability of mutating each statement")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(mutationFlagName), gaMutationWeightKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
