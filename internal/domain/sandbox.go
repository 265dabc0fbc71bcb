package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"gorepair.dev/pkg/gorepair/internal/adapter"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

const sourcePerm = 0o600

// Workspace is where candidate sources are written before they are built.
type Workspace interface {
	WriteSource(src []byte) error
	Cleanup(ctx context.Context)
}

// Sandbox is a private copy of the module that contains the program under
// repair.
type Sandbox struct {
	fs adapter.SourceFSAdapter
	// dir is the sandbox root, a copy of the module root.
	dir m.Path
	// source is the candidate file inside dir.
	source m.Path
	pkgDir m.Path
	// pkg is the import path of the package under repair.
	pkg    string
	binary m.Path
	once   sync.Once
}

// NewSandbox copies the module enclosing bench.BuggySource into a temporary
// directory. Test files that live outside the module are copied into the
// package directory.
func NewSandbox(ctx context.Context, fs adapter.SourceFSAdapter, bench m.Benchmark) (*Sandbox, error) {
	root, err := fs.FindProjectRoot(bench.BuggySource)
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}

	modulePath, err := fs.ModulePath(root)
	if err != nil {
		return nil, err
	}

	rel, err := fs.RelPath(root, bench.BuggySource)
	if err != nil {
		return nil, fmt.Errorf("failed to get relative path: %w", err)
	}

	tmpDir, err := fs.CreateTempDir("gorepair-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	s := &Sandbox{
		fs:     fs,
		dir:    tmpDir,
		source: fs.JoinPath(string(tmpDir), string(rel)),
		binary: fs.JoinPath(string(tmpDir), ".gorepair", "candidate.test"),
	}

	pkgRel := bench.Package
	if pkgRel == "" {
		pkgRel = filepath.Dir(string(rel))
	}

	s.pkgDir = fs.JoinPath(string(tmpDir), pkgRel)
	s.pkg = path.Join(modulePath, filepath.ToSlash(pkgRel))

	if err := fs.CopyDir(root, tmpDir); err != nil {
		s.Cleanup(ctx)
		return nil, fmt.Errorf("failed to copy project: %w", err)
	}

	if err := s.importTests(root, bench.TestSource); err != nil {
		s.Cleanup(ctx)
		return nil, err
	}

	slog.Debug("prepared sandbox", "dir", tmpDir, "package", s.pkg, "source", s.source)

	return s, nil
}

func (s *Sandbox) importTests(root, testSource m.Path) error {
	files, err := s.fs.TestFiles(testSource)
	if err != nil {
		return fmt.Errorf("failed to read test sources: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("%w: %s", ErrNoTests, testSource)
	}

	for _, file := range files {
		rel, err := s.fs.RelPath(root, file)
		if err == nil && !strings.HasPrefix(string(rel), "..") {
			continue
		}

		content, err := s.fs.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read test file: %w", err)
		}

		dst := s.fs.JoinPath(string(s.pkgDir), filepath.Base(string(file)))
		if err := s.fs.WriteFile(dst, content, sourcePerm); err != nil {
			return fmt.Errorf("failed to write test file: %w", err)
		}
	}

	return nil
}

// Dir is the sandbox root.
func (s *Sandbox) Dir() m.Path { return s.dir }

// WriteSource replaces the candidate file.
func (s *Sandbox) WriteSource(src []byte) error {
	if err := s.fs.WriteFile(s.source, src, sourcePerm); err != nil {
		return fmt.Errorf("failed to write candidate source: %w", err)
	}

	return nil
}

// Cleanup removes the sandbox. It is safe to call more than once.
func (s *Sandbox) Cleanup(ctx context.Context) {
	s.once.Do(func() {
		if err := s.fs.RemoveAll(s.dir); err != nil {
			slog.ErrorContext(ctx, "failed to remove sandbox", "dir", s.dir, "error", err)
		}
	})
}
