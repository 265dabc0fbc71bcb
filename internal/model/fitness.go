package model

import "time"

// FitnessResult is the score of one evaluated candidate.
type FitnessResult struct {
	Passing  int     `yaml:"passing"`
	Failing  int     `yaml:"failing"`
	Total    int     `yaml:"total"`
	Fitness  float64 `yaml:"fitness"`
	Compiles bool    `yaml:"compiles"`
	AllPass  bool    `yaml:"all_pass"`
}

// NotCompiling is the result of a candidate that failed to build or timed out.
func NotCompiling() FitnessResult {
	return FitnessResult{}
}

// Viable reports whether the candidate passed at least one test.
func (r FitnessResult) Viable() bool {
	return r.Passing > 0
}

// Better orders results by fitness, then passing count, then fewer failures,
// then compilation.
func (r FitnessResult) Better(other FitnessResult) bool {
	if r.Fitness != other.Fitness {
		return r.Fitness > other.Fitness
	}

	if r.Passing != other.Passing {
		return r.Passing > other.Passing
	}

	if r.Failing != other.Failing {
		return r.Failing < other.Failing
	}

	return r.Compiles && !other.Compiles
}

// Evaluation is one journal record of a scored candidate.
type Evaluation struct {
	Generation int
	Index      int
	Hash       string
	Edits      []string
	Result     FitnessResult
	Cached     bool
	Duration   time.Duration
}

// RepairReport is the persisted summary of a repair run.
type RepairReport struct {
	RunID       string        `yaml:"run_id"`
	Benchmark   string        `yaml:"benchmark"`
	Found       bool          `yaml:"found"`
	Seed        int64         `yaml:"seed"`
	Generations int           `yaml:"generations"`
	Elapsed     time.Duration `yaml:"elapsed"`
	Result      FitnessResult `yaml:"result"`
	Edits       []string      `yaml:"edits"`
	SourceFile  string        `yaml:"source_file"`
	SourceHash  string        `yaml:"source_hash"`
	Positive    []string      `yaml:"positive_tests"`
	Negative    []string      `yaml:"negative_tests"`
	CreatedAt   time.Time     `yaml:"created_at"`
}
