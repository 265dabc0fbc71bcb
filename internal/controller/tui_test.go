package controller

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

func update(t *testing.T, rm runModel, msg tea.Msg) (runModel, tea.Cmd) {
	t.Helper()

	next, cmd := rm.Update(msg)

	model, ok := next.(runModel)
	if !ok {
		t.Fatalf("Update() returned %T", next)
	}

	return model, cmd
}

func TestRunModel_Estimation(t *testing.T) {
	rm := newRunModel(ModeEstimate)

	if !strings.Contains(rm.View(), "analysing benchmark") {
		t.Errorf("expected a loading view, got:\n%s", rm.View())
	}

	rm, _ = update(t, rm, estimationMsg{estimation: m.Estimation{
		Benchmark:   "offbyone",
		Statements:  5,
		Suspicious:  []m.SuspiciousStatement{{Index: 2, Line: 8, Weight: 1, Text: "if v <= limit {"}},
		SeedsByKind: map[m.EditKind]int{m.EditNegate: 1},
	}})

	view := rm.View()
	for _, want := range []string{"offbyone", "if v <= limit {", "line 8", "negate", "q: quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	rm, _ = update(t, rm, estimationMsg{err: errors.New("no statements")})
	if !strings.Contains(rm.View(), "no statements") {
		t.Errorf("expected the error in the view:\n%s", rm.View())
	}
}

func TestRunModel_Repair(t *testing.T) {
	rm := newRunModel(ModeRepair)

	if !strings.Contains(rm.View(), "establishing baseline") {
		t.Errorf("expected a baseline view, got:\n%s", rm.View())
	}

	rm, _ = update(t, rm, runInfoMsg{Benchmark: "offbyone", RunID: "run-1", MaxGenerations: 10, Positive: 3, Negative: 1})

	for i := range maxHistoryRows + 3 {
		rm, _ = update(t, rm, generationMsg{Generation: i, Evaluated: 40, Best: m.FitnessResult{Fitness: float64(i)}})
	}

	if len(rm.history) != maxHistoryRows {
		t.Fatalf("history = %d rows, want %d", len(rm.history), maxHistoryRows)
	}

	if rm.history[0].Generation != 3 {
		t.Errorf("oldest row = %d, want 3", rm.history[0].Generation)
	}

	rm, cmd := update(t, rm, resultMsg{
		report: m.RepairReport{Found: true, Generations: 4, Edits: []string{"negate stmt#2 expr#0"}},
		diff:   []byte("-a\n+b\n"),
	})

	if cmd == nil {
		t.Fatalf("a result should quit the program")
	}

	view := rm.View()
	for _, want := range []string{"3 positive / 1 negative", "repair found", "negate stmt#2 expr#0", "+b"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	if strings.Contains(view, "q: quit") {
		t.Errorf("finished repair view should not offer to quit:\n%s", view)
	}
}

func TestRunModel_View(t *testing.T) {
	rm := newRunModel(ModeView)

	rm, _ = update(t, rm, reportMsg{
		report:  m.RepairReport{Generations: 2},
		journal: m.JournalSummary{Evaluations: 9, Generations: 2},
	})

	view := rm.View()
	if !strings.Contains(view, "no repair") || !strings.Contains(view, "9 evaluations") {
		t.Errorf("unexpected view:\n%s", view)
	}

	rm, cmd := update(t, rm, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil || !rm.quitting {
		t.Errorf("q should quit")
	}
}

func TestColorDiff_KeepsLines(t *testing.T) {
	diff := "--- a/x.go\n+++ b/x.go\n@@ -1 +1 @@\n-old\n+new\n"

	out := colorDiff(diff)
	for _, want := range []string{"a/x.go", "b/x.go", "@@ -1 +1 @@", "old", "new"} {
		if !strings.Contains(out, want) {
			t.Errorf("colorDiff() missing %q:\n%s", want, out)
		}
	}
}

func TestRunModel_WindowSizeClampsProgress(t *testing.T) {
	rm := newRunModel(ModeRepair)

	rm, _ = update(t, rm, tea.WindowSizeMsg{Width: 200, Height: 40})
	if rm.width != 200 || rm.progress.Width != 60 {
		t.Fatalf("wide terminal: width = %d, progress = %d", rm.width, rm.progress.Width)
	}

	rm, _ = update(t, rm, tea.WindowSizeMsg{Width: 12, Height: 40})
	if rm.progress.Width != 10 {
		t.Fatalf("narrow terminal: progress = %d, want 10", rm.progress.Width)
	}
}
