package adapter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

func TestReportStore_PatchDir(t *testing.T) {
	store := NewReportStore()
	at := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	got := store.PatchDir("out", "offbyone", at)
	assert.Equal(t, m.Path(filepath.Join("out", "offbyone", "patch_20260314_150926")), got)
}

func TestReportStore_SaveAndLoad(t *testing.T) {
	store := NewReportStore()
	dir := m.Path(filepath.Join(t.TempDir(), "offbyone", "patch_1"))

	report := m.RepairReport{
		RunID:       "3f1c",
		Benchmark:   "offbyone",
		Found:       true,
		Seed:        42,
		Generations: 2,
		Elapsed:     1500 * time.Millisecond,
		Result:      m.FitnessResult{Passing: 4, Total: 4, Fitness: 13, Compiles: true, AllPass: true},
		Edits:       []string{"mutate stmt#2 expr#0 to <"},
		SourceFile:  "count.go",
		Positive:    []string{"TestA", "TestB", "TestC"},
		Negative:    []string{"TestD"},
		CreatedAt:   time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
	}
	source := []byte("package count\n")
	diff := []byte("--- a/count.go\n+++ b/count.go\n")

	require.NoError(t, store.SaveReport(dir, report, source, diff))

	written, err := os.ReadFile(filepath.Join(string(dir), "count.go"))
	require.NoError(t, err)
	assert.Equal(t, source, written)

	loaded, err := store.LoadReport(dir)
	require.NoError(t, err)
	assert.Equal(t, report, loaded)

	loadedDiff, err := store.LoadDiff(dir)
	require.NoError(t, err)
	assert.Equal(t, diff, loadedDiff)
}

func TestReportStore_NoPatch(t *testing.T) {
	store := NewReportStore()
	dir := m.Path(t.TempDir())

	require.NoError(t, store.SaveReport(dir, m.RepairReport{Benchmark: "offbyone", SourceFile: "count.go"}, nil, nil))

	_, err := os.Stat(filepath.Join(string(dir), "count.go"))
	assert.True(t, os.IsNotExist(err))

	diff, err := store.LoadDiff(dir)
	require.NoError(t, err)
	assert.Nil(t, diff)
}

func TestReportStore_LoadMissing(t *testing.T) {
	_, err := NewReportStore().LoadReport(m.Path(t.TempDir()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read report")
}
