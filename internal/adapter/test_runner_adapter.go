package adapter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// defaultWaitDelay bounds how long a killed process may keep its output
// pipes open.
const defaultWaitDelay = 500 * time.Millisecond

// TestRunnerAdapter abstracts the Go toolchain operations used to score a
// candidate: building a package's test binary, listing its tests and running
// one test at a time.
type TestRunnerAdapter interface {
	// CompileTests builds the test binary of pkg (an import path or ./dir)
	// inside workDir and writes it to output. Diagnostics go to log.
	CompileTests(ctx context.Context, workDir, pkg, output string, log io.Writer) error

	// ListTests returns the tests, examples and fuzz targets of a compiled
	// test binary. Benchmarks are omitted.
	ListTests(ctx context.Context, binary, dir string) ([]string, error)

	// RunTest runs a single top-level test by exact name from dir. A nil
	// error means the test passed.
	RunTest(ctx context.Context, binary, dir, name string, log io.Writer) error
}

// LocalTestRunnerAdapter provides a concrete implementation using os/exec.
type LocalTestRunnerAdapter struct {
	goBin     string
	waitDelay time.Duration
}

// NewLocalTestRunnerAdapter constructs a LocalTestRunnerAdapter using the go
// binary found on PATH.
func NewLocalTestRunnerAdapter() *LocalTestRunnerAdapter {
	return &LocalTestRunnerAdapter{
		goBin:     "go",
		waitDelay: defaultWaitDelay,
	}
}

// CompileTests runs 'go test -c' for pkg.
func (a *LocalTestRunnerAdapter) CompileTests(ctx context.Context, workDir, pkg, output string, log io.Writer) error {
	cmd := exec.CommandContext(ctx, a.goBin, "test", "-c", "-vet=off", "-o", output, pkg)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), "GOWORK=off")
	cmd.Stdout = log
	cmd.Stderr = log
	cmd.WaitDelay = a.waitDelay

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("compile of %s timed out: %w", pkg, ctxErr)
		}

		return fmt.Errorf("failed to compile tests of %s: %w", pkg, err)
	}

	return nil
}

// ListTests runs the binary with -test.list.
func (a *LocalTestRunnerAdapter) ListTests(ctx context.Context, binary, dir string) ([]string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, binary, "-test.list", ".")
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = a.waitDelay

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to list tests: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseTestList(&stdout), nil
}

func parseTestList(r io.Reader) []string {
	var names []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(name, "Test"), strings.HasPrefix(name, "Example"), strings.HasPrefix(name, "Fuzz"):
			names = append(names, name)
		}
	}

	return names
}

// RunTest runs the binary with -test.run anchored to name.
func (a *LocalTestRunnerAdapter) RunTest(ctx context.Context, binary, dir, name string, log io.Writer) error {
	pattern := "^" + regexp.QuoteMeta(name) + "$"

	cmd := exec.CommandContext(ctx, binary, "-test.run", pattern, "-test.count=1")
	cmd.Dir = dir
	cmd.Stdout = log
	cmd.Stderr = log
	cmd.WaitDelay = a.waitDelay

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("test %s timed out: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("test %s failed with exit code %d", name, exitErr.ExitCode())
	}

	return fmt.Errorf("failed to run test %s: %w", name, err)
}
