package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

func scoredPool(fitness ...float64) []Scored {
	pool := make([]Scored, 0, len(fitness))
	for _, f := range fitness {
		pool = append(pool, Scored{Result: m.FitnessResult{Fitness: f}})
	}

	return pool
}

func TestTournamentSelector_Errors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name     string
		selector TournamentSelector
		rng      *rand.Rand
		pool     []Scored
		want     error
	}{
		{name: "nil random source", selector: TournamentSelector{Size: 2}, pool: scoredPool(1), want: errNilRandom},
		{name: "empty pool", selector: TournamentSelector{Size: 2}, rng: rng, want: errEmptyPool},
		{name: "zero size", selector: TournamentSelector{}, rng: rng, pool: scoredPool(1), want: errNoTournament},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.selector.Select(tt.rng, tt.pool)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTournamentSelector_LargeTournamentFindsBest(t *testing.T) {
	pool := scoredPool(1, 5, 3)

	got, err := TournamentSelector{Size: 64}.Select(rand.New(rand.NewSource(42)), pool)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, got.Result.Fitness, 0)
}

func TestTournamentSelector_SizeOneIsUniformDraw(t *testing.T) {
	pool := scoredPool(1, 2, 3, 4, 5)
	want := pool[rand.New(rand.NewSource(9)).Intn(len(pool))]

	got, err := TournamentSelector{Size: 1}.Select(rand.New(rand.NewSource(9)), pool)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTournamentSelector_TiesKeepFirstDraw(t *testing.T) {
	prog := newTestProgram(t, clampSource, allLines(20))

	pool := scoredPool(2, 2, 2, 2)
	for i := range pool {
		pool[i].Patch = prog.NewPatch()
	}

	want := pool[rand.New(rand.NewSource(3)).Intn(len(pool))]

	got, err := TournamentSelector{Size: 4}.Select(rand.New(rand.NewSource(3)), pool)
	require.NoError(t, err)
	assert.Same(t, want.Patch, got.Patch)
}
