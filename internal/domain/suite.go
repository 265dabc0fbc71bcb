package domain

import (
	"context"
	"io"

	"gorepair.dev/pkg/gorepair/internal/adapter"
)

// TestSuite is a compiled candidate's registry of runnable tests.
type TestSuite interface {
	// Tests lists the identifiers of the tests in the suite.
	Tests(ctx context.Context) ([]string, error)
	// Run executes one test; a nil error means it passed.
	Run(ctx context.Context, id string, log io.Writer) error
}

// SuiteBuilder compiles the current workspace contents into a TestSuite.
type SuiteBuilder interface {
	Build(ctx context.Context, log io.Writer) (TestSuite, error)
}

type goSuiteBuilder struct {
	runner  adapter.TestRunnerAdapter
	sandbox *Sandbox
}

// NewGoSuiteBuilder builds suites with the Go toolchain inside sandbox.
func NewGoSuiteBuilder(runner adapter.TestRunnerAdapter, sandbox *Sandbox) SuiteBuilder {
	return &goSuiteBuilder{runner: runner, sandbox: sandbox}
}

func (b *goSuiteBuilder) Build(ctx context.Context, log io.Writer) (TestSuite, error) {
	s := b.sandbox

	if err := b.runner.CompileTests(ctx, string(s.dir), s.pkg, string(s.binary), log); err != nil {
		return nil, err
	}

	return &goSuite{runner: b.runner, binary: string(s.binary), dir: string(s.pkgDir)}, nil
}

type goSuite struct {
	runner adapter.TestRunnerAdapter
	binary string
	dir    string
}

func (s *goSuite) Tests(ctx context.Context) ([]string, error) {
	return s.runner.ListTests(ctx, s.binary, s.dir)
}

func (s *goSuite) Run(ctx context.Context, id string, log io.Writer) error {
	return s.runner.RunTest(ctx, s.binary, s.dir, id, log)
}
