// Package model defines the data structures for program repair.
package model

// Path represents a file system path.
type Path string

// File represents a source code file.
type File struct {
	Path Path
	Hash string
}

// Benchmark describes one defective program to repair. Paths are absolute
// once the benchmark has been loaded.
type Benchmark struct {
	Name              string `yaml:"name" json:"name" validate:"required"`
	BuggySource       Path   `yaml:"buggy_source" json:"buggySourcePath" validate:"required"`
	FixedSource       Path   `yaml:"fixed_source,omitempty" json:"fixedSourcePath,omitempty"`
	TestSource        Path   `yaml:"test_source" json:"testSourcePath" validate:"required"`
	FaultLocalization Path   `yaml:"fault_localization" json:"faultLocalizationPath" validate:"required"`
	// Package is the package directory relative to the module root. It
	// defaults to the directory of BuggySource.
	Package string `yaml:"package,omitempty" json:"package,omitempty"`

	// Weights is the line to suspicion table read from FaultLocalization.
	Weights map[int]float64 `yaml:"-" json:"-"`
}

// LineWeight is one entry of a fault localization file.
type LineWeight struct {
	Line   int     `json:"lineNumber" yaml:"lineNumber" validate:"gt=0"`
	Weight float64 `json:"weight" yaml:"weight" validate:"gte=0,lte=1"`
}
