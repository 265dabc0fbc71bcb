package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorepair.dev/pkg/gorepair/internal/metrics"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

// Setup errors. Anything else an evaluation runs into is scored, not returned.
var (
	ErrMissingSource   = errors.New("missing baseline source")
	ErrBaselineCompile = errors.New("baseline does not compile")
	ErrNoTests         = errors.New("no tests discovered")
)

// Evaluator scores rendered candidate sources.
type Evaluator interface {
	Evaluate(ctx context.Context, src []byte) m.FitnessResult
}

// Partition splits the discovered tests by their baseline outcome.
type Partition struct {
	// Positive tests pass on the original program and must keep passing.
	Positive []string
	// Negative tests fail on the original program; they describe the bug.
	Negative []string
}

type testOutcome int

const (
	testPassed testOutcome = iota
	testFailed
	testTimedOut
)

// FitnessEvaluator compiles and tests candidates inside a workspace. The
// test partition is fixed at construction.
type FitnessEvaluator struct {
	cfg       m.EvaluatorConfig
	workspace Workspace
	builder   SuiteBuilder
	capture   *OutputCapture

	tests    []string
	positive map[string]struct{}
	negative map[string]struct{}
}

// EvaluatorOption customizes a FitnessEvaluator.
type EvaluatorOption func(*FitnessEvaluator)

// WithOutputCapture replaces the process-wide output capture.
func WithOutputCapture(c *OutputCapture) EvaluatorOption {
	return func(e *FitnessEvaluator) {
		e.capture = c
	}
}

// NewFitnessEvaluator prepares the evaluator: it warms the build with the
// fixed source when one is given, then builds and runs the baseline once to
// partition the tests.
func NewFitnessEvaluator(
	ctx context.Context,
	cfg m.EvaluatorConfig,
	workspace Workspace,
	builder SuiteBuilder,
	baseline, fixed []byte,
	opts ...EvaluatorOption,
) (*FitnessEvaluator, error) {
	if len(baseline) == 0 {
		return nil, ErrMissingSource
	}

	if cfg.Parallel < 1 {
		cfg.Parallel = 1
	}

	e := &FitnessEvaluator{
		cfg:       cfg,
		workspace: workspace,
		builder:   builder,
		capture:   defaultCapture,
		positive:  make(map[string]struct{}),
		negative:  make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	scope := e.capture.Acquire()
	defer scope.Release()

	if len(fixed) > 0 {
		e.precompile(ctx, fixed, scope)
	}

	if err := e.establishBaseline(ctx, baseline, scope); err != nil {
		return nil, err
	}

	return e, nil
}

// precompile builds the fixed variant once so later builds hit a warm cache.
// Failures only cost the warm-up.
func (e *FitnessEvaluator) precompile(ctx context.Context, fixed []byte, log io.Writer) {
	if err := e.workspace.WriteSource(fixed); err != nil {
		slog.Debug("skipping precompile", "error", err)
		return
	}

	buildCtx, cancel := context.WithTimeout(ctx, e.cfg.EvalTimeout)
	defer cancel()

	if _, err := e.builder.Build(buildCtx, log); err != nil {
		slog.Debug("precompile of fixed source failed", "error", err)
	}
}

func (e *FitnessEvaluator) establishBaseline(ctx context.Context, baseline []byte, log io.Writer) error {
	if err := e.workspace.WriteSource(baseline); err != nil {
		return err
	}

	buildCtx, cancel := context.WithTimeout(ctx, e.cfg.EvalTimeout)
	defer cancel()

	suite, err := e.builder.Build(buildCtx, log)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBaselineCompile, err)
	}

	tests, err := suite.Tests(buildCtx)
	if err != nil {
		return fmt.Errorf("failed to discover tests: %w", err)
	}

	if len(tests) == 0 {
		return ErrNoTests
	}

	sort.Strings(tests)
	e.tests = tests

	passed := e.runTests(ctx, suite, log)
	for _, id := range tests {
		if _, ok := passed[id]; ok {
			e.positive[id] = struct{}{}
		} else {
			e.negative[id] = struct{}{}
		}
	}

	slog.Info("established baseline",
		"tests", len(tests), "positive", len(e.positive), "negative", len(e.negative))

	return nil
}

// Partition returns the baseline classification of the tests, sorted.
func (e *FitnessEvaluator) Partition() Partition {
	return Partition{Positive: sortedKeys(e.positive), Negative: sortedKeys(e.negative)}
}

// Tests lists every discovered test.
func (e *FitnessEvaluator) Tests() []string {
	out := make([]string, len(e.tests))
	copy(out, e.tests)

	return out
}

// Evaluate scores src on a dedicated goroutine bounded by the evaluation
// timeout. Build failures and timeouts score as non-compiling.
func (e *FitnessEvaluator) Evaluate(ctx context.Context, src []byte) m.FitnessResult {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.EvalTimeout)
	defer cancel()

	done := make(chan m.FitnessResult, 1)

	go func() {
		done <- e.evaluate(ctx, src)
	}()

	select {
	case result := <-done:
		metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
		return result
	case <-ctx.Done():
		metrics.Evaluations.WithLabelValues("timeout").Inc()
		slog.Debug("evaluation timed out", "after", time.Since(start))

		return m.NotCompiling()
	}
}

func (e *FitnessEvaluator) evaluate(ctx context.Context, src []byte) m.FitnessResult {
	scope := e.capture.Acquire()
	defer scope.Release()

	if ctx.Err() != nil {
		return m.NotCompiling()
	}

	if err := e.workspace.WriteSource(src); err != nil {
		slog.Warn("failed to write candidate", "error", err)
		return m.NotCompiling()
	}

	buildCtx, cancel := context.WithTimeout(ctx, e.cfg.CompileTimeout)
	suite, err := e.builder.Build(buildCtx, scope)

	cancel()

	if err != nil {
		metrics.Evaluations.WithLabelValues("compile_error").Inc()
		return m.NotCompiling()
	}

	result := e.score(e.runTests(ctx, suite, scope))

	outcome := "scored"
	if result.AllPass {
		outcome = "all_pass"
	}

	metrics.Evaluations.WithLabelValues(outcome).Inc()

	return result
}

// runTests runs every discovered test, each under its own timeout, and
// returns the set that passed.
func (e *FitnessEvaluator) runTests(ctx context.Context, suite TestSuite, log io.Writer) map[string]struct{} {
	var mu sync.Mutex

	passed := make(map[string]struct{}, len(e.tests))

	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Parallel)

	for _, id := range e.tests {
		g.Go(func() error {
			if e.runTest(ctx, suite, id, log) == testPassed {
				mu.Lock()
				passed[id] = struct{}{}
				mu.Unlock()
			}

			return nil
		})
	}

	_ = g.Wait()

	return passed
}

func (e *FitnessEvaluator) runTest(ctx context.Context, suite TestSuite, id string, log io.Writer) testOutcome {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.TestTimeout)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("test %s panicked: %v", id, r)
			}
		}()

		done <- suite.Run(ctx, id, log)
	}()

	select {
	case err := <-done:
		if err != nil {
			metrics.TestRuns.WithLabelValues("fail").Inc()
			return testFailed
		}

		metrics.TestRuns.WithLabelValues("pass").Inc()

		return testPassed
	case <-ctx.Done():
		metrics.TestRuns.WithLabelValues("timeout").Inc()
		return testTimedOut
	}
}

func (e *FitnessEvaluator) score(passed map[string]struct{}) m.FitnessResult {
	total := len(e.tests)
	passing := len(passed)
	failing := total - passing

	fitness := e.cfg.PositiveWeight*float64(countIn(passed, e.positive)) +
		e.cfg.NegativeWeight*float64(countIn(passed, e.negative))

	return m.FitnessResult{
		Passing:  passing,
		Failing:  failing,
		Total:    total,
		Fitness:  fitness,
		Compiles: true,
		AllPass:  total > 0 && failing == 0 && passing > 0,
	}
}

// Cleanup removes the workspace. It is best-effort and idempotent.
func (e *FitnessEvaluator) Cleanup(ctx context.Context) {
	e.workspace.Cleanup(ctx)
}

func countIn(set, ref map[string]struct{}) int {
	n := 0

	for id := range set {
		if _, ok := ref[id]; ok {
			n++
		}
	}

	return n
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}
