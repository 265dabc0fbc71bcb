package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"time"

	"gorepair.dev/pkg/gorepair/internal/metrics"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

const (
	guidedSeedRatio = 0.75
	minElites       = 2
	eliteDivisor    = 10
)

// GAResult is the outcome of a search.
type GAResult struct {
	// Best is a clone of the fittest patch seen; nil if nothing was evaluated.
	Best        *Patch
	BestResult  m.FitnessResult
	Generations int
	Elapsed     time.Duration
}

// Found reports whether the best patch passes every test.
func (r GAResult) Found() bool {
	return r.Best != nil && r.BestResult.AllPass
}

// GeneticAlgorithm evolves patches of one program against an Evaluator.
type GeneticAlgorithm struct {
	cfg       m.GAConfig
	prog      *Program
	gen       *PatchGenerator
	evaluator Evaluator
	rng       *rand.Rand
	selector  TournamentSelector

	cache map[string]m.FitnessResult

	onEvaluation func(m.Evaluation)
	onGeneration func(m.GenerationStats)

	best       *Patch
	bestResult m.FitnessResult
	start      time.Time
}

// GAOption customizes a GeneticAlgorithm.
type GAOption func(*GeneticAlgorithm)

// WithEvaluationHook is called after every scored candidate.
func WithEvaluationHook(fn func(m.Evaluation)) GAOption {
	return func(ga *GeneticAlgorithm) {
		ga.onEvaluation = fn
	}
}

// WithGenerationHook is called after every evaluated generation.
func WithGenerationHook(fn func(m.GenerationStats)) GAOption {
	return func(ga *GeneticAlgorithm) {
		ga.onGeneration = fn
	}
}

// NewGeneticAlgorithm seeds a deterministic search from cfg.Seed.
func NewGeneticAlgorithm(cfg m.GAConfig, prog *Program, evaluator Evaluator, opts ...GAOption) (*GeneticAlgorithm, error) {
	if evaluator == nil {
		return nil, errors.New("evaluator is required")
	}

	if cfg.Population < 1 {
		return nil, errors.New("population must be positive")
	}

	if cfg.TournamentSize < 1 {
		cfg.TournamentSize = 2
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) // #nosec G404 - reproducible search, not crypto

	gen, err := NewPatchGenerator(prog, rng, cfg.MutationWeight)
	if err != nil {
		return nil, err
	}

	ga := &GeneticAlgorithm{
		cfg:       cfg,
		prog:      prog,
		gen:       gen,
		evaluator: evaluator,
		rng:       rng,
		selector:  TournamentSelector{Size: cfg.TournamentSize},
		cache:     make(map[string]m.FitnessResult),
	}

	for _, opt := range opts {
		opt(ga)
	}

	return ga, nil
}

// Generator exposes the patch generator driving the search.
func (ga *GeneticAlgorithm) Generator() *PatchGenerator { return ga.gen }

// Run searches until a patch passes every test, the generation cap or time
// limit is reached, or ctx is done. On cancellation the partial result is
// returned together with ctx.Err().
func (ga *GeneticAlgorithm) Run(ctx context.Context) (GAResult, error) {
	ga.start = time.Now()
	ga.best = nil
	ga.bestResult = m.FitnessResult{}

	population := ga.initialize()
	generation := 0

	for {
		scored := ga.evaluate(ctx, generation, population)

		if err := ctx.Err(); err != nil {
			return ga.result(generation), err
		}

		if ga.bestResult.AllPass || generation >= ga.cfg.MaxGenerations || ga.outOfTime() {
			break
		}

		population = ga.nextGeneration(scored)
		generation++
	}

	res := ga.result(generation)

	slog.Info("search finished",
		"found", res.Found(), "generations", res.Generations,
		"fitness", res.BestResult.Fitness, "elapsed", res.Elapsed)

	return res, nil
}

func (ga *GeneticAlgorithm) outOfTime() bool {
	return ga.cfg.TimeLimit > 0 && time.Since(ga.start) >= ga.cfg.TimeLimit
}

func (ga *GeneticAlgorithm) result(generation int) GAResult {
	res := GAResult{BestResult: ga.bestResult, Generations: generation, Elapsed: time.Since(ga.start)}
	if ga.best != nil {
		res.Best = ga.best.Copy()
	}

	return res
}

// initialize fills the first generation with guided seeds, topped up with
// random patches.
func (ga *GeneticAlgorithm) initialize() []*Patch {
	size := ga.cfg.Population
	population := ga.gen.GuidedPatches(int(math.Round(float64(size) * guidedSeedRatio)))
	guided := len(population)

	for len(population) < size {
		population = append(population, ga.gen.RandomPatch())
	}

	slog.Debug("initialized population", "size", size, "guided", guided)

	return population
}

// evaluate scores population in order and stops at the first patch that
// passes every test.
func (ga *GeneticAlgorithm) evaluate(ctx context.Context, generation int, population []*Patch) []Scored {
	scored := make([]Scored, 0, len(population))
	stats := m.GenerationStats{Generation: generation}

	for i, p := range population {
		if ctx.Err() != nil {
			break
		}

		result, cached := ga.score(ctx, generation, i, p)
		scored = append(scored, Scored{Patch: p, Result: result})

		stats.Evaluated++
		if cached {
			stats.Cached++
		}

		if result.Viable() {
			stats.Viable++
		}

		if ga.best == nil || result.Better(ga.bestResult) {
			ga.best = p.Copy()
			ga.bestResult = result
			metrics.BestFitness.Set(result.Fitness)
		}

		if result.AllPass {
			break
		}
	}

	metrics.Generations.Inc()

	stats.Best = ga.bestResult
	stats.Elapsed = time.Since(ga.start)
	stats.Found = ga.bestResult.AllPass

	if ga.best != nil {
		stats.BestEdits = m.EditStrings(ga.best.Edits())
	}

	slog.Info("evaluated generation",
		"generation", generation, "evaluated", stats.Evaluated, "viable", stats.Viable,
		"best_fitness", stats.Best.Fitness, "passing", stats.Best.Passing, "failing", stats.Best.Failing)

	if ga.onGeneration != nil {
		ga.onGeneration(stats)
	}

	return scored
}

func (ga *GeneticAlgorithm) score(ctx context.Context, generation, index int, p *Patch) (m.FitnessResult, bool) {
	start := time.Now()

	src, err := p.Render()
	if err != nil {
		slog.Debug("failed to render patch", "error", err)
		metrics.Evaluations.WithLabelValues("render_error").Inc()

		return m.NotCompiling(), false
	}

	sum := sha256.Sum256(src)
	hash := hex.EncodeToString(sum[:])

	result, cached := ga.cache[hash]
	if cached {
		metrics.Evaluations.WithLabelValues("cached").Inc()
	} else {
		result = ga.evaluator.Evaluate(ctx, src)
		if ctx.Err() == nil {
			ga.cache[hash] = result
		}
	}

	if ga.onEvaluation != nil {
		ga.onEvaluation(m.Evaluation{
			Generation: generation,
			Index:      index,
			Hash:       hash,
			Edits:      m.EditStrings(p.Edits()),
			Result:     result,
			Cached:     cached,
			Duration:   time.Since(start),
		})
	}

	return result, cached
}

// nextGeneration breeds a new population from the scored one. Elites are
// cloned into the leading slots after mutation.
func (ga *GeneticAlgorithm) nextGeneration(scored []Scored) []*Patch {
	size := ga.cfg.Population

	pool := make([]Scored, 0, len(scored))
	for _, s := range scored {
		if s.Result.Viable() {
			pool = append(pool, s)
		}
	}

	elites := ga.elites(pool)

	if len(pool) == 0 {
		pool = scored
	}

	next := make([]*Patch, 0, size)

	for len(pool) > 0 && len(next) < size {
		a, errA := ga.selector.Select(ga.rng, pool)
		b, errB := ga.selector.Select(ga.rng, pool)

		if errA != nil || errB != nil {
			break
		}

		if ga.rng.Float64() < ga.cfg.CrossoverRate {
			c, d := ga.gen.Crossover(a.Patch, b.Patch)
			next = append(next, c, d)
		} else {
			next = append(next, a.Patch.Copy(), b.Patch.Copy())
		}
	}

	for len(next) < size {
		next = append(next, ga.gen.RandomPatch())
	}

	next = next[:size]

	for _, p := range next {
		ga.gen.Mutate(p)
	}

	copy(next, elites)

	return next
}

// elites returns clones of the best max(2, pop/10) viable patches.
func (ga *GeneticAlgorithm) elites(viable []Scored) []*Patch {
	n := min(len(viable), max(minElites, ga.cfg.Population/eliteDivisor), ga.cfg.Population)

	ranked := make([]Scored, len(viable))
	copy(ranked, viable)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Result.Better(ranked[j].Result)
	})

	out := make([]*Patch, n)
	for i := range n {
		out[i] = ranked[i].Patch.Copy()
	}

	return out
}
