package domain

import (
	"errors"
	"math/rand"
)

// PatchGenerator builds candidate patches of one program: random
// mutations, suspicion-guided seeds and crossover children.
type PatchGenerator struct {
	prog           *Program
	rng            *rand.Rand
	mutationWeight float64
}

// NewPatchGenerator constructs a PatchGenerator. The random source is used
// for every draw, so a seeded rng makes generation reproducible.
func NewPatchGenerator(prog *Program, rng *rand.Rand, mutationWeight float64) (*PatchGenerator, error) {
	if prog == nil {
		return nil, errors.New("program is required")
	}

	if rng == nil {
		return nil, errNilRandom
	}

	return &PatchGenerator{prog: prog, rng: rng, mutationWeight: mutationWeight}, nil
}

// RandomPatch clones the original and mutates it at the configured weight.
func (g *PatchGenerator) RandomPatch() *Patch {
	p := g.prog.NewPatch()
	p.DoMutations(g.mutationWeight, g.rng)

	return p
}

// Mutate applies random mutations to p in place.
func (g *PatchGenerator) Mutate(p *Patch) {
	p.DoMutations(g.mutationWeight, g.rng)
}
