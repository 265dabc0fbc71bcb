package adapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

// Benchmark file names probed when a directory is given.
var benchmarkFileNames = []string{"benchmark.yaml", "benchmark.yml", "benchmark.json"}

// ErrBenchmarkNotFound is returned when a directory holds no benchmark file.
var ErrBenchmarkNotFound = errors.New("benchmark file not found")

// BenchmarkAdapter loads repair benchmarks and their fault localization.
type BenchmarkAdapter interface {
	// Load reads the benchmark at path, a file or a directory holding one.
	// Relative paths inside it are resolved against its directory.
	Load(path m.Path) (m.Benchmark, error)
}

// LocalBenchmarkAdapter reads benchmarks from disk.
type LocalBenchmarkAdapter struct {
	fs       SourceFSAdapter
	validate *validator.Validate
}

// NewLocalBenchmarkAdapter constructs a LocalBenchmarkAdapter.
func NewLocalBenchmarkAdapter(fs SourceFSAdapter) *LocalBenchmarkAdapter {
	return &LocalBenchmarkAdapter{fs: fs, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Load implements BenchmarkAdapter.
func (a *LocalBenchmarkAdapter) Load(path m.Path) (m.Benchmark, error) {
	file, err := a.locate(path)
	if err != nil {
		return m.Benchmark{}, err
	}

	content, err := a.fs.ReadFile(file)
	if err != nil {
		return m.Benchmark{}, fmt.Errorf("failed to read benchmark: %w", err)
	}

	var bench m.Benchmark

	if strings.EqualFold(filepath.Ext(string(file)), ".json") {
		err = json.Unmarshal(content, &bench)
	} else {
		err = yaml.Unmarshal(content, &bench)
	}

	if err != nil {
		return m.Benchmark{}, fmt.Errorf("failed to decode benchmark %s: %w", file, err)
	}

	base := filepath.Dir(string(file))
	bench.BuggySource = resolve(base, bench.BuggySource)
	bench.FixedSource = resolve(base, bench.FixedSource)
	bench.TestSource = resolve(base, bench.TestSource)
	bench.FaultLocalization = resolve(base, bench.FaultLocalization)

	if bench.TestSource == "" && bench.BuggySource != "" {
		detected, err := a.fs.DetectTestFile(bench.BuggySource)
		if err != nil {
			return m.Benchmark{}, fmt.Errorf("failed to detect test file: %w", err)
		}

		bench.TestSource = detected
	}

	if bench.Name == "" {
		bench.Name = filepath.Base(base)
	}

	if err := a.validate.Struct(bench); err != nil {
		return m.Benchmark{}, fmt.Errorf("invalid benchmark %s: %w", file, err)
	}

	weights, err := a.loadWeights(bench.FaultLocalization)
	if err != nil {
		return m.Benchmark{}, err
	}

	bench.Weights = weights

	return bench, nil
}

func (a *LocalBenchmarkAdapter) locate(path m.Path) (m.Path, error) {
	info, err := a.fs.FileInfo(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat benchmark: %w", err)
	}

	if !info.IsDir() {
		return path, nil
	}

	for _, name := range benchmarkFileNames {
		candidate := a.fs.JoinPath(string(path), name)
		if _, err := a.fs.FileInfo(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w in %s", ErrBenchmarkNotFound, path)
}

// loadWeights reads a fault localization list. A line listed twice keeps its
// highest weight.
func (a *LocalBenchmarkAdapter) loadWeights(path m.Path) (map[int]float64, error) {
	content, err := a.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fault localization: %w", err)
	}

	var entries []m.LineWeight
	if err := yaml.Unmarshal(content, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode fault localization %s: %w", path, err)
	}

	weights := make(map[int]float64, len(entries))

	for i, entry := range entries {
		if err := a.validate.Struct(entry); err != nil {
			return nil, fmt.Errorf("invalid fault localization entry %d: %w", i, err)
		}

		if w, ok := weights[entry.Line]; !ok || entry.Weight > w {
			weights[entry.Line] = entry.Weight
		}
	}

	return weights, nil
}

func resolve(base string, p m.Path) m.Path {
	if p == "" || filepath.IsAbs(string(p)) {
		return p
	}

	return m.Path(filepath.Join(base, string(p)))
}
