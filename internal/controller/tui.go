package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

const maxHistoryRows = 8

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	goodStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	badStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
	addStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	delStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output io.Writer
	input  io.Reader

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer, input io.Reader) *TUI {
	return &TUI{output: output, input: input}
}

// Start launches the Bubble Tea program in the background.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := startConfig(options)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program != nil {
		return nil
	}

	opts := []tea.ProgramOption{tea.WithOutput(t.output), tea.WithContext(ctx)}
	if t.input != nil {
		opts = append(opts, tea.WithInput(t.input))
	}

	model := newRunModel(cfg.mode)

	// Size the progress bar before the first WindowSizeMsg arrives.
	if f, ok := t.output.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			model = model.resize(width)
		}
	}

	t.program = tea.NewProgram(model, opts...)
	t.done = make(chan struct{})

	go func(program *tea.Program, done chan struct{}) {
		defer close(done)

		if _, err := program.Run(); err != nil {
			slog.Debug("tui stopped", "error", err)
		}
	}(t.program, t.done)

	return nil
}

// Close stops the program and waits for it to restore the terminal.
func (t *TUI) Close(ctx context.Context) {
	t.mu.Lock()
	program, done := t.program, t.done
	t.program = nil
	t.mu.Unlock()

	if program == nil {
		return
	}

	program.Quit()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Wait blocks until the user quits or the program finishes on its own.
func (t *TUI) Wait(ctx context.Context) {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	if done == nil {
		return
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (t *TUI) send(msg tea.Msg) {
	t.mu.Lock()
	program := t.program
	t.mu.Unlock()

	if program != nil {
		program.Send(msg)
	}
}

type estimationMsg struct {
	estimation m.Estimation
	err        error
}

type runInfoMsg m.RunInfo

type generationMsg m.GenerationStats

type resultMsg struct {
	report m.RepairReport
	diff   []byte
}

type reportMsg struct {
	report  m.RepairReport
	diff    []byte
	journal m.JournalSummary
}

// DisplayEstimation shows the seed estimation.
func (t *TUI) DisplayEstimation(ctx context.Context, estimation m.Estimation, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	t.send(estimationMsg{estimation: estimation, err: err})

	return err
}

// DisplayRunInfo shows the run header.
func (t *TUI) DisplayRunInfo(ctx context.Context, info m.RunInfo) {
	if ctx.Err() != nil {
		return
	}

	t.send(runInfoMsg(info))
}

// DisplayGeneration updates the progress view.
func (t *TUI) DisplayGeneration(ctx context.Context, stats m.GenerationStats) {
	if ctx.Err() != nil {
		return
	}

	t.send(generationMsg(stats))
}

// DisplayResult shows the final outcome; the program exits afterwards.
func (t *TUI) DisplayResult(ctx context.Context, report m.RepairReport, diff []byte) {
	if ctx.Err() != nil {
		return
	}

	t.send(resultMsg{report: report, diff: diff})
}

// DisplayReport shows a saved report.
func (t *TUI) DisplayReport(ctx context.Context, report m.RepairReport, diff []byte, journal m.JournalSummary) {
	if ctx.Err() != nil {
		return
	}

	t.send(reportMsg{report: report, diff: diff, journal: journal})
}

// runModel is the Bubble Tea model behind every TUI mode.
type runModel struct {
	mode     StartMode
	spinner  spinner.Model
	progress progress.Model

	info    *m.RunInfo
	history []m.GenerationStats
	latest  *m.GenerationStats

	estimation *estimationMsg
	result     *resultMsg
	report     *reportMsg

	width    int
	quitting bool
}

func newRunModel(mode StartMode) runModel {
	return runModel{
		mode:     mode,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(titleStyle)),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (rm runModel) resize(width int) runModel {
	rm.width = width
	rm.progress.Width = min(60, max(10, width-20))

	return rm
}

func (rm runModel) Init() tea.Cmd {
	return rm.spinner.Tick
}

func (rm runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return rm.resize(msg.Width), nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			rm.quitting = true
			return rm, tea.Quit
		}

		return rm, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		rm.spinner, cmd = rm.spinner.Update(msg)

		return rm, cmd

	case estimationMsg:
		rm.estimation = &msg
		return rm, nil

	case runInfoMsg:
		info := m.RunInfo(msg)
		rm.info = &info

		return rm, nil

	case generationMsg:
		stats := m.GenerationStats(msg)
		rm.latest = &stats

		rm.history = append(rm.history, stats)
		if len(rm.history) > maxHistoryRows {
			rm.history = rm.history[len(rm.history)-maxHistoryRows:]
		}

		return rm, nil

	case resultMsg:
		rm.result = &msg
		return rm, tea.Quit

	case reportMsg:
		rm.report = &msg
		return rm, nil
	}

	return rm, nil
}

func (rm runModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("gorepair") + dimStyle.Render(" - automated program repair") + "\n\n")

	switch rm.mode {
	case ModeEstimate:
		rm.renderEstimation(&b)
	case ModeView:
		rm.renderReport(&b)
	default:
		rm.renderRun(&b)
	}

	if rm.mode != ModeRepair || rm.result == nil {
		b.WriteString("\n" + dimStyle.Render("q: quit") + "\n")
	}

	return b.String()
}

func (rm runModel) renderEstimation(b *strings.Builder) {
	if rm.estimation == nil {
		fmt.Fprintf(b, "  %s analysing benchmark...\n", rm.spinner.View())
		return
	}

	if rm.estimation.err != nil {
		fmt.Fprintf(b, "  %s %v\n", badStyle.Render("error:"), rm.estimation.err)
		return
	}

	est := rm.estimation.estimation
	fmt.Fprintf(b, "  %s %s  %s %d  %s %d\n\n",
		labelStyle.Render("benchmark"), est.Benchmark,
		labelStyle.Render("statements"), est.Statements,
		labelStyle.Render("suspicious"), len(est.Suspicious))

	for _, s := range est.Suspicious {
		fmt.Fprintf(b, "  %4d  line %-4d %s  %s\n", s.Index, s.Line, weightStyle(s.Weight), s.Text)
	}

	b.WriteString("\n" + renderSeedTable(est.SeedsByKind))
}

func weightStyle(w float64) string {
	text := fmt.Sprintf("%.2f", w)
	if w >= 0.5 {
		return badStyle.Render(text)
	}

	return dimStyle.Render(text)
}

func (rm runModel) renderRun(b *strings.Builder) {
	if rm.info == nil {
		fmt.Fprintf(b, "  %s establishing baseline...\n", rm.spinner.View())
		return
	}

	info := rm.info
	fmt.Fprintf(b, "  %s %s  %s %s\n", labelStyle.Render("benchmark"), info.Benchmark, labelStyle.Render("run"), info.RunID)
	fmt.Fprintf(b, "  %s %d positive / %d negative tests, %d statements\n\n",
		labelStyle.Render("baseline"), info.Positive, info.Negative, info.Statements)

	percent := 0.0
	if rm.latest != nil && info.MaxGenerations > 0 {
		percent = min(1, float64(rm.latest.Generation)/float64(info.MaxGenerations))
	}

	if rm.result == nil {
		fmt.Fprintf(b, "  %s %s\n\n", rm.spinner.View(), rm.progress.ViewAs(percent))
	} else {
		fmt.Fprintf(b, "  %s\n\n", rm.progress.ViewAs(1))
	}

	for _, stats := range rm.history {
		fmt.Fprintf(b, "  gen %-4d fitness %7.2f  passing %3d  failing %3d  viable %3d/%d\n",
			stats.Generation, stats.Best.Fitness, stats.Best.Passing, stats.Best.Failing, stats.Viable, stats.Evaluated)
	}

	if rm.result != nil {
		b.WriteString("\n")
		renderOutcome(b, rm.result.report, rm.result.diff)
	}
}

func (rm runModel) renderReport(b *strings.Builder) {
	if rm.report == nil {
		fmt.Fprintf(b, "  %s loading report...\n", rm.spinner.View())
		return
	}

	renderOutcome(b, rm.report.report, rm.report.diff)

	j := rm.report.journal
	fmt.Fprintf(b, "\n  %s %d evaluations, %d generation(s), %d cached, %d compiled, %d viable\n",
		labelStyle.Render("journal"), j.Evaluations, j.Generations, j.Cached, j.Compiling, j.Viable)
}

func renderOutcome(b *strings.Builder, report m.RepairReport, diff []byte) {
	if report.Found {
		fmt.Fprintf(b, "  %s after %d generation(s) in %s\n", goodStyle.Render("repair found"), report.Generations, report.Elapsed)
	} else {
		fmt.Fprintf(b, "  %s after %d generation(s) in %s\n", badStyle.Render("no repair"), report.Generations, report.Elapsed)
	}

	fmt.Fprintf(b, "  %s %.2f (%d/%d passing)\n", labelStyle.Render("fitness"),
		report.Result.Fitness, report.Result.Passing, report.Result.Total)

	for _, e := range report.Edits {
		fmt.Fprintf(b, "  %s %s\n", labelStyle.Render("edit"), e)
	}

	if len(diff) > 0 {
		b.WriteString("\n")
		b.WriteString(colorDiff(string(diff)))
	}
}

func colorDiff(diff string) string {
	var b strings.Builder

	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			b.WriteString(labelStyle.Render(strings.TrimSuffix(line, "\n")) + "\n")
		case strings.HasPrefix(line, "+"):
			b.WriteString(addStyle.Render(strings.TrimSuffix(line, "\n")) + "\n")
		case strings.HasPrefix(line, "-"):
			b.WriteString(delStyle.Render(strings.TrimSuffix(line, "\n")) + "\n")
		default:
			b.WriteString(line)
		}
	}

	return b.String()
}
