package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

// File names inside a patch directory.
const (
	ReportFileName  = "report.yaml"
	DiffFileName    = "patch.diff"
	JournalFileName = "journal.gob"
	MetricsFileName = "metrics.prom"
)

const patchDirLayout = "20060102_150405"

// ReportStore persists repair outcomes.
type ReportStore interface {
	// PatchDir names a fresh directory for one run's artifacts.
	PatchDir(output m.Path, benchmark string, at time.Time) m.Path
	// SaveReport writes the report, the patched source and its diff to dir.
	SaveReport(dir m.Path, report m.RepairReport, source, diff []byte) error
	LoadReport(dir m.Path) (m.RepairReport, error)
	LoadDiff(dir m.Path) ([]byte, error)
}

type reportStore struct{}

// NewReportStore returns a ReportStore backed by the local filesystem.
func NewReportStore() ReportStore {
	return &reportStore{}
}

func (s *reportStore) PatchDir(output m.Path, benchmark string, at time.Time) m.Path {
	return m.Path(filepath.Join(string(output), benchmark, "patch_"+at.Format(patchDirLayout)))
}

func (s *reportStore) SaveReport(dir m.Path, report m.RepairReport, source, diff []byte) error {
	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if err := os.WriteFile(filepath.Join(string(dir), ReportFileName), data, 0o600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if len(source) > 0 && report.SourceFile != "" {
		name := filepath.Join(string(dir), filepath.Base(report.SourceFile))
		if err := os.WriteFile(name, source, 0o600); err != nil {
			return fmt.Errorf("failed to write patched source: %w", err)
		}
	}

	if len(diff) > 0 {
		if err := os.WriteFile(filepath.Join(string(dir), DiffFileName), diff, 0o600); err != nil {
			return fmt.Errorf("failed to write diff: %w", err)
		}
	}

	return nil
}

func (s *reportStore) LoadReport(dir m.Path) (m.RepairReport, error) {
	// #nosec G304 - report dir is given by the user
	data, err := os.ReadFile(filepath.Join(string(dir), ReportFileName))
	if err != nil {
		return m.RepairReport{}, fmt.Errorf("failed to read report: %w", err)
	}

	var report m.RepairReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		return m.RepairReport{}, fmt.Errorf("failed to decode report: %w", err)
	}

	return report, nil
}

func (s *reportStore) LoadDiff(dir m.Path) ([]byte, error) {
	// #nosec G304 - report dir is given by the user
	data, err := os.ReadFile(filepath.Join(string(dir), DiffFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read diff: %w", err)
	}

	return data, nil
}
