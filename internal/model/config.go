package model

import "time"

// GAConfig holds the search hyperparameters.
type GAConfig struct {
	Population     int           `mapstructure:"population" validate:"gte=2"`
	MaxGenerations int           `mapstructure:"max_generations" validate:"gte=1"`
	TimeLimit      time.Duration `mapstructure:"time_limit" validate:"gt=0"`
	CrossoverRate  float64       `mapstructure:"crossover_rate" validate:"gte=0,lte=1"`
	MutationWeight float64       `mapstructure:"mutation_weight" validate:"gte=0,lte=1"`
	TournamentSize int           `mapstructure:"tournament_size" validate:"gte=1"`
	Seed           int64         `mapstructure:"seed"`
}

// EvaluatorConfig holds the fitness weights and sandbox time bounds.
type EvaluatorConfig struct {
	PositiveWeight float64       `mapstructure:"positive_weight" validate:"gte=0"`
	NegativeWeight float64       `mapstructure:"negative_weight" validate:"gte=0"`
	EvalTimeout    time.Duration `mapstructure:"eval_timeout" validate:"gt=0"`
	CompileTimeout time.Duration `mapstructure:"compile_timeout" validate:"gt=0"`
	TestTimeout    time.Duration `mapstructure:"test_timeout" validate:"gt=0"`
	Parallel       int           `mapstructure:"parallel" validate:"gte=1"`
}

// DefaultGAConfig returns the stock search settings.
func DefaultGAConfig() GAConfig {
	return GAConfig{
		Population:     40,
		MaxGenerations: 50,
		TimeLimit:      60 * time.Second,
		CrossoverRate:  0.5,
		MutationWeight: 0.06,
		TournamentSize: 2,
		Seed:           42,
	}
}

// DefaultEvaluatorConfig returns the stock evaluator settings.
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{
		PositiveWeight: 1.0,
		NegativeWeight: 10.0,
		EvalTimeout:    30 * time.Second,
		CompileTimeout: 5 * time.Second,
		TestTimeout:    2 * time.Second,
		Parallel:       1,
	}
}
