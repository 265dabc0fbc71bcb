package domain

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorepair.dev/pkg/gorepair/internal/adapter"
	controllermocks "gorepair.dev/pkg/gorepair/internal/controller/mocks"
	m "gorepair.dev/pkg/gorepair/internal/model"
	"gorepair.dev/pkg/gorepair/pkg"
)

const offByOneBenchmark = `name: offbyone
buggy_source: count.go
test_source: count_test.go
fault_localization: faults.json
`

const offByOneFaults = `[
  {"lineNumber": 6, "weight": 1.0},
  {"lineNumber": 7, "weight": 0.4}
]
`

func writeBenchmark(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"count.go":       offByOneSource,
		"count_test.go":  "package count\n",
		"faults.json":    offByOneFaults,
		"benchmark.yaml": offByOneBenchmark,
	}

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	return dir
}

func newTestWorkflow(ui *controllermocks.MockUI) Workflow {
	fs := adapter.NewLocalSourceFSAdapter()

	return NewWorkflow(
		fs,
		adapter.NewLocalGoFileAdapter(),
		adapter.NewLocalBenchmarkAdapter(fs),
		adapter.NewReportStore(),
		adapter.NewLocalTestRunnerAdapter(),
		ui,
	)
}

func TestWorkflow_Estimate(t *testing.T) {
	dir := writeBenchmark(t)

	ui := controllermocks.NewMockUI(t)
	ui.EXPECT().Start(mock.Anything, mock.Anything).Return(nil)
	ui.EXPECT().Close(mock.Anything).Return()
	ui.EXPECT().Wait(mock.Anything).Return()
	ui.EXPECT().DisplayEstimation(mock.Anything, mock.MatchedBy(func(e m.Estimation) bool {
		return e.Benchmark == "offbyone" && e.Statements == 5 && len(e.Suspicious) == 3 && len(e.Seeds) > 0
	}), nil).Return(nil)

	err := newTestWorkflow(ui).Estimate(t.Context(), EstimateArgs{Benchmark: m.Path(dir), Seed: 1, MutationWeight: 0.1})
	require.NoError(t, err)
}

func TestWorkflow_Estimate_MissingBenchmark(t *testing.T) {
	ui := controllermocks.NewMockUI(t)
	ui.EXPECT().Start(mock.Anything, mock.Anything).Return(nil)
	ui.EXPECT().Close(mock.Anything).Return()
	ui.EXPECT().DisplayEstimation(mock.Anything, m.Estimation{}, mock.Anything).Return(nil)

	err := newTestWorkflow(ui).Estimate(t.Context(), EstimateArgs{Benchmark: m.Path(t.TempDir())})
	require.ErrorIs(t, err, adapter.ErrBenchmarkNotFound)
}

func TestWorkflow_Estimate_StartFails(t *testing.T) {
	boom := errors.New("no terminal")

	ui := controllermocks.NewMockUI(t)
	ui.EXPECT().Start(mock.Anything, mock.Anything).Return(boom)

	err := newTestWorkflow(ui).Estimate(t.Context(), EstimateArgs{Benchmark: m.Path(writeBenchmark(t))})
	require.ErrorIs(t, err, boom)
}

func TestWorkflow_View(t *testing.T) {
	store := adapter.NewReportStore()
	dir := store.PatchDir(m.Path(t.TempDir()), "offbyone", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	report := m.RepairReport{
		RunID:       "run-1",
		Benchmark:   "offbyone",
		Found:       true,
		Generations: 1,
		Edits:       []string{"delete stmt#3"},
		SourceFile:  "count.go",
	}
	diff := []byte("--- a/count.go\n+++ b/count.go\n")

	require.NoError(t, store.SaveReport(dir, report, []byte("package count\n"), diff))

	journal, err := pkg.CreateJournal[m.Evaluation](filepath.Join(string(dir), adapter.JournalFileName))
	require.NoError(t, err)
	require.NoError(t, journal.Append(m.Evaluation{Generation: 0, Result: m.FitnessResult{Passing: 1, Fitness: 1, Compiles: true}}))
	require.NoError(t, journal.Append(m.Evaluation{Generation: 1, Cached: true, Result: m.FitnessResult{Passing: 2, Fitness: 12, Compiles: true, AllPass: true}}))
	require.NoError(t, journal.Close())

	ui := controllermocks.NewMockUI(t)
	ui.EXPECT().Start(mock.Anything, mock.Anything).Return(nil)
	ui.EXPECT().Close(mock.Anything).Return()
	ui.EXPECT().Wait(mock.Anything).Return()
	ui.EXPECT().DisplayReport(mock.Anything, mock.Anything, diff, mock.Anything).
		Run(func(_ context.Context, got m.RepairReport, _ []byte, summary m.JournalSummary) {
			assert.Equal(t, report.RunID, got.RunID)
			assert.Equal(t, report.Edits, got.Edits)
			assert.Equal(t, 2, summary.Evaluations)
			assert.Equal(t, 1, summary.Cached)
			assert.Equal(t, 1, summary.AllPass)
			assert.Equal(t, 2, summary.Generations)
			assert.InDelta(t, 12.0, summary.BestFitness, 0)
		}).Return()

	require.NoError(t, newTestWorkflow(ui).View(t.Context(), ViewArgs{Report: dir}))
}

func TestWorkflow_View_WithoutJournal(t *testing.T) {
	store := adapter.NewReportStore()
	dir := m.Path(t.TempDir())

	require.NoError(t, store.SaveReport(dir, m.RepairReport{RunID: "run-2"}, nil, nil))

	ui := controllermocks.NewMockUI(t)
	ui.EXPECT().Start(mock.Anything, mock.Anything).Return(nil)
	ui.EXPECT().Close(mock.Anything).Return()
	ui.EXPECT().Wait(mock.Anything).Return()
	ui.EXPECT().DisplayReport(mock.Anything, mock.Anything, []byte(nil), m.JournalSummary{}).Return()

	require.NoError(t, newTestWorkflow(ui).View(t.Context(), ViewArgs{Report: dir}))
}

func TestWorkflow_View_MissingReport(t *testing.T) {
	ui := controllermocks.NewMockUI(t)

	err := newTestWorkflow(ui).View(t.Context(), ViewArgs{Report: m.Path(t.TempDir())})
	require.Error(t, err)
}

func requireToolchain(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("builds and runs Go test binaries")
	}

	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available")
	}
}

func TestWorkflow_Repair_OffByOne(t *testing.T) {
	requireToolchain(t)

	ui := controllermocks.NewMockUI(t)
	ui.EXPECT().Start(mock.Anything, mock.Anything).Return(nil)
	ui.EXPECT().Close(mock.Anything).Return()
	ui.EXPECT().Wait(mock.Anything).Return()
	ui.EXPECT().DisplayRunInfo(mock.Anything, mock.Anything).Return()
	ui.EXPECT().DisplayGeneration(mock.Anything, mock.Anything).Return().Maybe()
	ui.EXPECT().DisplayResult(mock.Anything, mock.Anything, mock.Anything).Return()

	ga := m.DefaultGAConfig()
	ga.Population = 10
	ga.MaxGenerations = 5

	out := t.TempDir()

	report, err := newTestWorkflow(ui).Repair(t.Context(), RepairArgs{
		Benchmark: "../../examples/offbyone",
		Output:    m.Path(out),
		GA:        ga,
		Evaluator: m.DefaultEvaluatorConfig(),
	})
	require.NoError(t, err)

	assert.True(t, report.Found)
	assert.Equal(t, "count.go", report.SourceFile)
	assert.NotEmpty(t, report.Negative)
	assert.NotEmpty(t, report.Edits)

	matches, err := filepath.Glob(filepath.Join(out, "offbyone", "patch_*", adapter.ReportFileName))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

const spinSource = `package spin

// Spin returns n.
func Spin(n int) int {
	return n
}
`

const spinTests = `package spin

import "testing"

func TestSpinOne(t *testing.T) {
	if Spin(1) != 1 {
		t.Fatal("Spin(1)")
	}
}

func TestSpinTwo(t *testing.T) {
	if Spin(2) != 2 {
		t.Fatal("Spin(2)")
	}
}
`

const spinForever = `package spin

func Spin(n int) int {
	for {
		n += 0
	}
}
`

func TestFitnessEvaluator_NonTerminatingCandidate(t *testing.T) {
	requireToolchain(t)

	dir := t.TempDir()
	files := map[string]string{
		"go.mod":       "module example.com/spin\n\ngo 1.21\n",
		"spin.go":      spinSource,
		"spin_test.go": spinTests,
	}

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	fs := adapter.NewLocalSourceFSAdapter()
	bench := m.Benchmark{
		Name:        "spin",
		BuggySource: m.Path(filepath.Join(dir, "spin.go")),
		TestSource:  m.Path(filepath.Join(dir, "spin_test.go")),
	}

	sandbox, err := NewSandbox(t.Context(), fs, bench)
	require.NoError(t, err)
	t.Cleanup(func() { sandbox.Cleanup(context.Background()) })

	cfg := m.DefaultEvaluatorConfig()
	cfg.EvalTimeout = 2 * time.Minute
	cfg.CompileTimeout = time.Minute
	cfg.TestTimeout = time.Second
	cfg.Parallel = 2

	builder := NewGoSuiteBuilder(adapter.NewLocalTestRunnerAdapter(), sandbox)

	e, err := NewFitnessEvaluator(t.Context(), cfg, sandbox, builder, []byte(spinSource), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"TestSpinOne", "TestSpinTwo"}, e.Partition().Positive)

	started := time.Now()
	got := e.Evaluate(t.Context(), []byte(spinForever))

	assert.True(t, got.Compiles)
	assert.Equal(t, 0, got.Passing)
	assert.Equal(t, 2, got.Failing)
	assert.False(t, got.AllPass)
	assert.Zero(t, got.Fitness)
	assert.Less(t, time.Since(started), cfg.EvalTimeout)
}
