package model

import "time"

// GenerationStats summarizes one evaluated generation.
type GenerationStats struct {
	Generation int
	Evaluated  int
	Viable     int
	Cached     int
	Best       FitnessResult
	BestEdits  []string
	Elapsed    time.Duration
	Found      bool
}

// SuspiciousStatement is one row of the seed estimation table.
type SuspiciousStatement struct {
	Index  int
	Line   int
	Weight float64
	Text   string
}

// Estimation previews what a repair run would search over.
type Estimation struct {
	Benchmark   string
	Statements  int
	Suspicious  []SuspiciousStatement
	// SeedsByKind counts guided seed edits per operator.
	SeedsByKind map[EditKind]int
	Seeds       []string
}

// RunInfo describes a repair run once its baseline is established.
type RunInfo struct {
	RunID          string
	Benchmark      string
	Statements     int
	Positive       int
	Negative       int
	Population     int
	MaxGenerations int
	TimeLimit      time.Duration
	Seed           int64
}

// JournalSummary aggregates the evaluation journal of a run.
type JournalSummary struct {
	Evaluations int
	Cached      int
	Compiling   int
	Viable      int
	AllPass     int
	Generations int
	BestFitness float64
}

// Add folds one journal record into the summary.
func (s *JournalSummary) Add(e Evaluation) {
	s.Evaluations++
	s.Generations = max(s.Generations, e.Generation+1)

	if e.Cached {
		s.Cached++
	}

	if e.Result.Compiles {
		s.Compiling++
	}

	if e.Result.Viable() {
		s.Viable++
	}

	if e.Result.AllPass {
		s.AllPass++
	}

	s.BestFitness = max(s.BestFitness, e.Result.Fitness)
}
