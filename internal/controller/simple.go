package controller

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

// SimpleUI implements UI using cobra Command's output writer.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// DisplayEstimation prints the suspicious statements and seed pool sizes.
func (s *SimpleUI) DisplayEstimation(ctx context.Context, estimation m.Estimation, err error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err != nil {
		s.printf("estimation error: %v\n", err)
		return err
	}

	s.printf("Benchmark %s: %d statements, %d suspicious\n\n",
		estimation.Benchmark, estimation.Statements, len(estimation.Suspicious))
	s.printf("%s\n", renderSuspiciousTable(estimation.Suspicious))
	s.printf("%s", renderSeedTable(estimation.SeedsByKind))

	return nil
}

func renderSuspiciousTable(rows []m.SuspiciousStatement) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"#", "Line", "Weight", "Statement"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT,
	})

	for _, row := range rows {
		table.Append([]string{
			fmt.Sprintf("%d", row.Index),
			fmt.Sprintf("%d", row.Line),
			fmt.Sprintf("%.2f", row.Weight),
			row.Text,
		})
	}

	table.Render()

	return buf.String()
}

func renderSeedTable(byKind map[m.EditKind]int) string {
	var buf bytes.Buffer

	kinds := make([]string, 0, len(byKind))
	for kind := range byKind {
		kinds = append(kinds, string(kind))
	}

	sort.Strings(kinds)

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Operator", "Seeds"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})

	total := 0

	for _, kind := range kinds {
		n := byKind[m.EditKind(kind)]
		total += n

		table.Append([]string{kind, fmt.Sprintf("%d", n)})
	}

	table.SetFooter([]string{fmt.Sprintf("Total Operators %d", len(kinds)), fmt.Sprintf("%d", total)})
	table.Render()

	return buf.String()
}

// DisplayRunInfo prints the run parameters and baseline partition.
func (s *SimpleUI) DisplayRunInfo(ctx context.Context, info m.RunInfo) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Repairing %s (run %s, seed %d)\n", info.Benchmark, info.RunID, info.Seed)
	s.printf("Baseline: %d positive, %d negative tests; %d statements\n",
		info.Positive, info.Negative, info.Statements)
	s.printf("Population %d, up to %d generations within %s\n",
		info.Population, info.MaxGenerations, info.TimeLimit)
}

// DisplayGeneration prints one line per evaluated generation.
func (s *SimpleUI) DisplayGeneration(ctx context.Context, stats m.GenerationStats) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Generation %d: best fitness %.2f (passing %d, failing %d), %d evaluated, %d viable\n",
		stats.Generation, stats.Best.Fitness, stats.Best.Passing, stats.Best.Failing,
		stats.Evaluated, stats.Viable)
}

// DisplayResult prints the outcome of a run and the patch diff.
func (s *SimpleUI) DisplayResult(ctx context.Context, report m.RepairReport, diff []byte) {
	if err := ctx.Err(); err != nil {
		return
	}

	if report.Found {
		s.printf("\nRepair found after %d generation(s) in %s\n", report.Generations, report.Elapsed)
	} else {
		s.printf("\nNo repair found after %d generation(s) in %s\n", report.Generations, report.Elapsed)
	}

	s.printf("%s", renderReportTable(report))

	if len(diff) > 0 {
		s.printf("\n%s", diff)
	}
}

// DisplayReport prints a saved report together with its journal summary.
func (s *SimpleUI) DisplayReport(ctx context.Context, report m.RepairReport, diff []byte, journal m.JournalSummary) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s", renderReportTable(report))
	s.printf("\nJournal: %d evaluations over %d generation(s), %d cached, %d compiled, %d viable, %d passing all\n",
		journal.Evaluations, journal.Generations, journal.Cached, journal.Compiling, journal.Viable, journal.AllPass)

	if len(diff) > 0 {
		s.printf("\n%s", diff)
	}
}

func renderReportTable(report m.RepairReport) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	edits := "(none)"
	if len(report.Edits) > 0 {
		edits = strings.Join(report.Edits, "; ")
	}

	table.AppendBulk([][]string{
		{"Benchmark", report.Benchmark},
		{"Run", report.RunID},
		{"Found", fmt.Sprintf("%t", report.Found)},
		{"Fitness", fmt.Sprintf("%.2f", report.Result.Fitness)},
		{"Tests", fmt.Sprintf("%d passing, %d failing of %d", report.Result.Passing, report.Result.Failing, report.Result.Total)},
		{"Edits", edits},
	})
	table.Render()

	return buf.String()
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
