package domain

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

type evaluatorFunc func(ctx context.Context, src []byte) m.FitnessResult

func (f evaluatorFunc) Evaluate(ctx context.Context, src []byte) m.FitnessResult {
	return f(ctx, src)
}

// countEvaluator passes every test once the off-by-one is fixed.
func countEvaluator(calls *atomic.Int64) Evaluator {
	return evaluatorFunc(func(_ context.Context, src []byte) m.FitnessResult {
		calls.Add(1)

		if strings.Contains(string(src), "v < limit") {
			return m.FitnessResult{Passing: 4, Total: 4, Fitness: 13, Compiles: true, AllPass: true}
		}

		return m.FitnessResult{Passing: 3, Failing: 1, Total: 4, Fitness: 3, Compiles: true}
	})
}

func testGAConfig() m.GAConfig {
	cfg := m.DefaultGAConfig()
	cfg.Population = 10
	cfg.MaxGenerations = 5
	cfg.TimeLimit = time.Minute

	return cfg
}

func TestNewGeneticAlgorithm_Validation(t *testing.T) {
	prog := newTestProgram(t, offByOneSource, map[int]float64{6: 1})
	var calls atomic.Int64

	_, err := NewGeneticAlgorithm(testGAConfig(), prog, nil)
	require.Error(t, err)

	cfg := testGAConfig()
	cfg.Population = 0
	_, err = NewGeneticAlgorithm(cfg, prog, countEvaluator(&calls))
	require.Error(t, err)

	_, err = NewGeneticAlgorithm(testGAConfig(), nil, countEvaluator(&calls))
	require.Error(t, err)
}

func TestGeneticAlgorithm_FindsRepair(t *testing.T) {
	prog := newTestProgram(t, offByOneSource, map[int]float64{6: 1, 7: 0.4})

	var (
		calls       atomic.Int64
		evaluations []m.Evaluation
		generations []m.GenerationStats
	)

	ga, err := NewGeneticAlgorithm(testGAConfig(), prog, countEvaluator(&calls),
		WithEvaluationHook(func(e m.Evaluation) { evaluations = append(evaluations, e) }),
		WithGenerationHook(func(s m.GenerationStats) { generations = append(generations, s) }),
	)
	require.NoError(t, err)

	res, err := ga.Run(t.Context())
	require.NoError(t, err)

	require.True(t, res.Found())
	assert.Equal(t, 0, res.Generations, "the guided seeds contain the fix")
	assert.True(t, res.BestResult.AllPass)

	src := renderText(t, res.Best)
	assert.Contains(t, src, "if v < limit {")

	require.Len(t, generations, 1)
	assert.True(t, generations[0].Found)
	assert.NotEmpty(t, generations[0].BestEdits)

	require.NotEmpty(t, evaluations)
	last := evaluations[len(evaluations)-1]
	assert.True(t, last.Result.AllPass)
	assert.Len(t, last.Hash, 64)
	assert.Equal(t, int64(len(evaluations)), calls.Load())
}

func TestGeneticAlgorithm_StopsAtGenerationCap(t *testing.T) {
	prog := newTestProgram(t, clampSource, allLines(20))

	var calls atomic.Int64

	constant := evaluatorFunc(func(context.Context, []byte) m.FitnessResult {
		calls.Add(1)
		return m.FitnessResult{Passing: 1, Failing: 1, Total: 2, Fitness: 1, Compiles: true}
	})

	cfg := testGAConfig()
	cfg.Population = 4
	cfg.MaxGenerations = 3
	cfg.CrossoverRate = 0
	cfg.MutationWeight = 0

	var generations []m.GenerationStats

	ga, err := NewGeneticAlgorithm(cfg, prog, constant,
		WithGenerationHook(func(s m.GenerationStats) { generations = append(generations, s) }))
	require.NoError(t, err)

	res, err := ga.Run(t.Context())
	require.NoError(t, err)

	assert.False(t, res.Found())
	assert.Equal(t, 3, res.Generations)
	require.NotNil(t, res.Best)
	require.Len(t, generations, 4)

	// Without mutation or crossover every later generation repeats known
	// sources, so only the first one reaches the evaluator.
	assert.Equal(t, int64(4), calls.Load())

	for _, s := range generations[1:] {
		assert.Equal(t, 4, s.Evaluated)
		assert.Equal(t, 4, s.Cached)
		assert.Equal(t, 4, s.Viable)
	}
}

func TestGeneticAlgorithm_Cancellation(t *testing.T) {
	prog := newTestProgram(t, clampSource, allLines(20))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	cancelling := evaluatorFunc(func(context.Context, []byte) m.FitnessResult {
		cancel()
		return m.FitnessResult{Passing: 1, Total: 2, Failing: 1, Fitness: 1, Compiles: true}
	})

	ga, err := NewGeneticAlgorithm(testGAConfig(), prog, cancelling)
	require.NoError(t, err)

	res, err := ga.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, res.Found())
	assert.NotNil(t, res.Best)
	assert.Equal(t, 0, res.Generations)
}

func TestGeneticAlgorithm_IsReproducible(t *testing.T) {
	prog := newTestProgram(t, clampSource, allLines(20))

	run := func() []string {
		var hashes []string

		cfg := testGAConfig()
		cfg.Population = 6
		cfg.MaxGenerations = 2
		cfg.MutationWeight = 0.3

		fitness := evaluatorFunc(func(_ context.Context, src []byte) m.FitnessResult {
			n := strings.Count(string(src), "return")
			return m.FitnessResult{Passing: n, Total: 10, Failing: 10 - n, Fitness: float64(n), Compiles: true}
		})

		ga, err := NewGeneticAlgorithm(cfg, prog, fitness,
			WithEvaluationHook(func(e m.Evaluation) { hashes = append(hashes, e.Hash) }))
		require.NoError(t, err)

		_, err = ga.Run(t.Context())
		require.NoError(t, err)

		return hashes
	}

	assert.Equal(t, run(), run())
}

func TestGeneticAlgorithm_Elites(t *testing.T) {
	prog := newTestProgram(t, clampSource, allLines(20))
	var calls atomic.Int64

	cfg := testGAConfig()
	cfg.Population = 40

	ga, err := NewGeneticAlgorithm(cfg, prog, countEvaluator(&calls))
	require.NoError(t, err)

	pool := scoredPool(1, 4, 2, 5, 3)
	for i := range pool {
		pool[i].Patch = prog.NewPatch()
		require.True(t, pool[i].Patch.ApplyEdit(m.Delete{Target: i}))
	}

	elites := ga.elites(pool)

	require.Len(t, elites, 4)
	assert.Equal(t, pool[3].Patch.Edits(), elites[0].Edits())
	assert.Equal(t, pool[1].Patch.Edits(), elites[1].Edits())
	assert.NotSame(t, pool[3].Patch, elites[0])

	assert.Len(t, ga.elites(pool[:1]), 1)
}
