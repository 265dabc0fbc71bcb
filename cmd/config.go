package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "gorepair"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName      = "output"
	verboseFlagName     = "verbose"
	populationFlagName  = "population"
	generationsFlagName = "generations"
	timeLimitFlagName   = "time-limit"
	seedFlagName        = "seed"
	crossoverFlagName   = "crossover-rate"
	mutationFlagName    = "mutation-weight"
	runParallelFlagName = "parallel"

	gaPopulationKey     = "ga.population"
	gaMaxGenerationsKey = "ga.max_generations"
	gaTimeLimitKey      = "ga.time_limit"
	gaCrossoverRateKey  = "ga.crossover_rate"
	gaMutationWeightKey = "ga.mutation_weight"
	gaTournamentSizeKey = "ga.tournament_size"
	gaSeedKey           = "ga.seed"

	evalPositiveWeightKey = "evaluator.positive_weight"
	evalNegativeWeightKey = "evaluator.negative_weight"
	evalTimeoutKey        = "evaluator.eval_timeout"
	evalCompileTimeoutKey = "evaluator.compile_timeout"
	evalTestTimeoutKey    = "evaluator.test_timeout"

	runParallelConfigKey = "run.parallel"

	defaultOutputDir = "out"

	envPrefix = "GOREPAIR"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".gorepair.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	ga := m.DefaultGAConfig()
	eval := m.DefaultEvaluatorConfig()

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputFlagName, defaultOutputDir)

	viper.SetDefault(gaPopulationKey, ga.Population)
	viper.SetDefault(gaMaxGenerationsKey, ga.MaxGenerations)
	viper.SetDefault(gaTimeLimitKey, ga.TimeLimit.String())
	viper.SetDefault(gaCrossoverRateKey, ga.CrossoverRate)
	viper.SetDefault(gaMutationWeightKey, ga.MutationWeight)
	viper.SetDefault(gaTournamentSizeKey, ga.TournamentSize)
	viper.SetDefault(gaSeedKey, ga.Seed)

	viper.SetDefault(evalPositiveWeightKey, eval.PositiveWeight)
	viper.SetDefault(evalNegativeWeightKey, eval.NegativeWeight)
	viper.SetDefault(evalTimeoutKey, eval.EvalTimeout.String())
	viper.SetDefault(evalCompileTimeoutKey, eval.CompileTimeout.String())
	viper.SetDefault(evalTestTimeoutKey, eval.TestTimeout.String())

	viper.SetDefault(runParallelConfigKey, eval.Parallel)

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

// gaConfig reads and validates the search settings.
func gaConfig() (m.GAConfig, error) {
	cfg := m.GAConfig{
		Population:     viper.GetInt(gaPopulationKey),
		MaxGenerations: viper.GetInt(gaMaxGenerationsKey),
		TimeLimit:      viper.GetDuration(gaTimeLimitKey),
		CrossoverRate:  viper.GetFloat64(gaCrossoverRateKey),
		MutationWeight: viper.GetFloat64(gaMutationWeightKey),
		TournamentSize: viper.GetInt(gaTournamentSizeKey),
		Seed:           viper.GetInt64(gaSeedKey),
	}

	if err := validate.Struct(cfg); err != nil {
		return m.GAConfig{}, fmt.Errorf("invalid ga config: %w", err)
	}

	return cfg, nil
}

// evaluatorConfig reads and validates the evaluator settings.
func evaluatorConfig() (m.EvaluatorConfig, error) {
	cfg := m.EvaluatorConfig{
		PositiveWeight: viper.GetFloat64(evalPositiveWeightKey),
		NegativeWeight: viper.GetFloat64(evalNegativeWeightKey),
		EvalTimeout:    viper.GetDuration(evalTimeoutKey),
		CompileTimeout: viper.GetDuration(evalCompileTimeoutKey),
		TestTimeout:    viper.GetDuration(evalTestTimeoutKey),
		Parallel:       viper.GetInt(runParallelConfigKey),
	}

	if err := validate.Struct(cfg); err != nil {
		return m.EvaluatorConfig{}, fmt.Errorf("invalid evaluator config: %w", err)
	}

	return cfg, nil
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
