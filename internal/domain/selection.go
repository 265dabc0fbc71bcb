package domain

import (
	"errors"
	"math/rand"

	m "gorepair.dev/pkg/gorepair/internal/model"
)

var (
	errNilRandom    = errors.New("random source is required")
	errEmptyPool    = errors.New("selection pool is empty")
	errNoTournament = errors.New("tournament size must be positive")
)

// Scored pairs a patch with its evaluation.
type Scored struct {
	Patch  *Patch
	Result m.FitnessResult
}

// TournamentSelector picks the fittest of Size uniform draws, with
// replacement.
type TournamentSelector struct {
	Size int
}

// Select runs one tournament over pool. On equal fitness the earliest draw
// wins.
func (s TournamentSelector) Select(rng *rand.Rand, pool []Scored) (Scored, error) {
	if rng == nil {
		return Scored{}, errNilRandom
	}

	if len(pool) == 0 {
		return Scored{}, errEmptyPool
	}

	if s.Size < 1 {
		return Scored{}, errNoTournament
	}

	best := pool[rng.Intn(len(pool))]

	for range s.Size - 1 {
		c := pool[rng.Intn(len(pool))]
		if c.Result.Fitness > best.Result.Fitness {
			best = c
		}
	}

	return best, nil
}
