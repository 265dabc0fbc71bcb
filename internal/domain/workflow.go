package domain

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"io/fs"
	"log/slog"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorepair.dev/pkg/gorepair/internal/adapter"
	"gorepair.dev/pkg/gorepair/internal/controller"
	"gorepair.dev/pkg/gorepair/internal/metrics"
	m "gorepair.dev/pkg/gorepair/internal/model"
	"gorepair.dev/pkg/gorepair/pkg"
)

// ErrNoStatements is returned for programs without any editable statement.
var ErrNoStatements = errors.New("program has no editable statements")

// RepairArgs contains the arguments for a repair run.
type RepairArgs struct {
	Benchmark m.Path
	Output    m.Path
	GA        m.GAConfig
	Evaluator m.EvaluatorConfig
}

// EstimateArgs contains the arguments for previewing a benchmark.
type EstimateArgs struct {
	Benchmark      m.Path
	Seed           int64
	MutationWeight float64
}

// ViewArgs contains the arguments for displaying a saved run.
type ViewArgs struct {
	Report m.Path
}

// Workflow defines the repair use cases driven by the CLI.
type Workflow interface {
	Repair(ctx context.Context, args RepairArgs) (m.RepairReport, error)
	Estimate(ctx context.Context, args EstimateArgs) error
	View(ctx context.Context, args ViewArgs) error
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.GoFileAdapter
	adapter.BenchmarkAdapter
	adapter.ReportStore
	adapter.TestRunnerAdapter
	controller.UI
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	goFileAdapter adapter.GoFileAdapter,
	benchmarks adapter.BenchmarkAdapter,
	reportStore adapter.ReportStore,
	testAdapter adapter.TestRunnerAdapter,
	ui controller.UI,
) Workflow {
	return &workflow{
		SourceFSAdapter:   fsAdapter,
		GoFileAdapter:     goFileAdapter,
		BenchmarkAdapter:  benchmarks,
		ReportStore:       reportStore,
		TestRunnerAdapter: testAdapter,
		UI:                ui,
	}
}

// loadProgram reads the benchmark and parses its defective source.
func (w *workflow) loadProgram(ctx context.Context, path m.Path) (m.Benchmark, *Program, error) {
	bench, err := w.Load(path)
	if err != nil {
		return m.Benchmark{}, nil, fmt.Errorf("load benchmark: %w", err)
	}

	src, err := w.ReadFile(bench.BuggySource)
	if err != nil {
		return m.Benchmark{}, nil, fmt.Errorf("%w: %w", ErrMissingSource, err)
	}

	fset := token.NewFileSet()

	file, err := w.Parse(ctx, fset, string(bench.BuggySource), src)
	if err != nil {
		return m.Benchmark{}, nil, err
	}

	prog := NewProgram(fset, file, NewSuspicion(bench.Weights))
	if prog.StatementCount() == 0 {
		return m.Benchmark{}, nil, fmt.Errorf("%w: %s", ErrNoStatements, bench.BuggySource)
	}

	slog.Debug("loaded program",
		"benchmark", bench.Name, "source", bench.BuggySource,
		"statements", prog.StatementCount(), "weighted_lines", prog.Suspicion().Len())

	return bench, prog, nil
}

// Repair runs the genetic search on a benchmark and saves the outcome under
// args.Output.
func (w *workflow) Repair(ctx context.Context, args RepairArgs) (m.RepairReport, error) {
	bench, prog, err := w.loadProgram(ctx, args.Benchmark)
	if err != nil {
		return m.RepairReport{}, err
	}

	if err := w.Start(ctx, controller.WithRepairMode()); err != nil {
		return m.RepairReport{}, fmt.Errorf("start ui: %w", err)
	}
	defer w.Close(ctx)

	report, err := w.repair(ctx, args, bench, prog)
	if err != nil {
		slog.Error("repair failed", "benchmark", bench.Name, "error", err)
		return report, err
	}

	w.Wait(ctx)

	return report, nil
}

func (w *workflow) repair(ctx context.Context, args RepairArgs, bench m.Benchmark, prog *Program) (m.RepairReport, error) {
	baseline, err := prog.Render()
	if err != nil {
		return m.RepairReport{}, err
	}

	var fixed []byte
	if bench.FixedSource != "" {
		if fixed, err = w.ReadFile(bench.FixedSource); err != nil {
			slog.Warn("ignoring unreadable fixed source", "path", bench.FixedSource, "error", err)
		}
	}

	sandbox, err := NewSandbox(ctx, w.SourceFSAdapter, bench)
	if err != nil {
		return m.RepairReport{}, fmt.Errorf("prepare sandbox: %w", err)
	}
	defer sandbox.Cleanup(context.WithoutCancel(ctx))

	evaluator, err := NewFitnessEvaluator(ctx, args.Evaluator, sandbox, NewGoSuiteBuilder(w.TestRunnerAdapter, sandbox), baseline, fixed)
	if err != nil {
		return m.RepairReport{}, fmt.Errorf("prepare evaluator: %w", err)
	}

	started := time.Now()
	runID := uuid.NewString()
	dir := w.PatchDir(args.Output, bench.Name, started)

	journal, err := pkg.CreateJournal[m.Evaluation](filepath.Join(string(dir), adapter.JournalFileName))
	if err != nil {
		return m.RepairReport{}, err
	}

	defer func() {
		if err := journal.Close(); err != nil {
			slog.Warn("failed to close journal", "error", err)
		}
	}()

	partition := evaluator.Partition()

	w.DisplayRunInfo(ctx, m.RunInfo{
		RunID:          runID,
		Benchmark:      bench.Name,
		Statements:     prog.StatementCount(),
		Positive:       len(partition.Positive),
		Negative:       len(partition.Negative),
		Population:     args.GA.Population,
		MaxGenerations: args.GA.MaxGenerations,
		TimeLimit:      args.GA.TimeLimit,
		Seed:           args.GA.Seed,
	})

	ga, err := NewGeneticAlgorithm(args.GA, prog, evaluator,
		WithEvaluationHook(func(e m.Evaluation) {
			if err := journal.Append(e); err != nil {
				slog.Warn("failed to journal evaluation", "error", err)
			}
		}),
		WithGenerationHook(func(stats m.GenerationStats) {
			w.DisplayGeneration(ctx, stats)
		}),
	)
	if err != nil {
		return m.RepairReport{}, err
	}

	res, runErr := ga.Run(ctx)

	report := m.RepairReport{
		RunID:       runID,
		Benchmark:   bench.Name,
		Found:       res.Found(),
		Seed:        args.GA.Seed,
		Generations: res.Generations,
		Elapsed:     res.Elapsed,
		Result:      res.BestResult,
		SourceFile:  filepath.Base(string(bench.BuggySource)),
		Positive:    partition.Positive,
		Negative:    partition.Negative,
		CreatedAt:   started,
	}

	if report.SourceHash, err = w.HashFile(bench.BuggySource); err != nil {
		slog.Warn("failed to hash buggy source", "path", bench.BuggySource, "error", err)
	}

	var source, diff []byte

	if res.Best != nil {
		report.Edits = m.EditStrings(res.Best.Edits())

		if source, err = res.Best.Render(); err != nil {
			return report, err
		}

		if diff, err = UnifiedDiff(report.SourceFile, baseline, source); err != nil {
			return report, err
		}
	}

	if err := w.SaveReport(dir, report, source, diff); err != nil {
		return report, fmt.Errorf("save report: %w", err)
	}

	if err := metrics.WriteTextfile(filepath.Join(string(dir), adapter.MetricsFileName)); err != nil {
		slog.Warn("failed to export metrics", "error", err)
	}

	slog.Info("saved repair report", "dir", dir, "found", report.Found)

	w.DisplayResult(ctx, report, diff)

	return report, runErr
}

// Estimate shows the suspicious statements and the guided seed pool.
func (w *workflow) Estimate(ctx context.Context, args EstimateArgs) error {
	if err := w.Start(ctx, controller.WithEstimateMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}
	defer w.Close(ctx)

	bench, prog, err := w.loadProgram(ctx, args.Benchmark)
	if err != nil {
		_ = w.DisplayEstimation(ctx, m.Estimation{}, err)
		return err
	}

	rng := rand.New(rand.NewSource(args.Seed)) // #nosec G404 - reproducible preview

	gen, err := NewPatchGenerator(prog, rng, args.MutationWeight)
	if err != nil {
		return err
	}

	if err := w.DisplayEstimation(ctx, gen.Estimate(bench.Name), nil); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)

	return nil
}

// View shows a saved report, its diff and a summary of its journal.
func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	report, err := w.LoadReport(args.Report)
	if err != nil {
		return err
	}

	diff, err := w.LoadDiff(args.Report)
	if err != nil {
		return err
	}

	summary, err := w.summarizeJournal(w.JoinPath(string(args.Report), adapter.JournalFileName))
	if err != nil {
		return err
	}

	if err := w.Start(ctx, controller.WithViewMode()); err != nil {
		return err
	}
	defer w.Close(ctx)

	w.DisplayReport(ctx, report, diff, summary)
	w.Wait(ctx)

	return nil
}

func (w *workflow) summarizeJournal(path m.Path) (m.JournalSummary, error) {
	var summary m.JournalSummary

	if _, err := w.FileInfo(path); errors.Is(err, fs.ErrNotExist) {
		return summary, nil
	}

	journal, err := pkg.OpenJournal[m.Evaluation](string(path))
	if err != nil {
		return summary, err
	}
	defer journal.Close()

	err = journal.Range(func(_ uint64, e m.Evaluation) error {
		summary.Add(e)
		return nil
	})

	return summary, err
}
