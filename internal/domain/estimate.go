package domain

import (
	"bytes"
	"go/ast"
	"sort"
	"strings"

	m "gorepair.dev/pkg/gorepair/internal/model"
)

const maxStatementPreview = 60

// SuspiciousStatements lists the statements edits may target, most suspicious
// first.
func (p *Program) SuspiciousStatements() []m.SuspiciousStatement {
	base := p.NewPatch()

	var out []m.SuspiciousStatement

	for i, ref := range collectStatements(base.file) {
		w := base.targetWeight(ref.stmt)
		if w <= 0 {
			continue
		}

		out = append(out, m.SuspiciousStatement{
			Index:  i,
			Line:   p.fset.Position(ref.stmt.Pos()).Line,
			Weight: w,
			Text:   p.preview(ref.stmt),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })

	return out
}

func (p *Program) preview(s ast.Stmt) string {
	var buf bytes.Buffer
	if err := printerConfig.Fprint(&buf, p.fset, s); err != nil {
		return ""
	}

	text, _, _ := strings.Cut(buf.String(), "\n")
	text = strings.TrimSpace(text)

	if len(text) > maxStatementPreview {
		text = text[:maxStatementPreview-3] + "..."
	}

	return text
}

// Estimate previews the search space of the generator's program.
func (g *PatchGenerator) Estimate(benchmark string) m.Estimation {
	pool := g.SeedPool()

	byKind := make(map[m.EditKind]int, len(pool.ByKind))
	for kind, edits := range pool.ByKind {
		byKind[kind] = len(edits)
	}

	return m.Estimation{
		Benchmark:   benchmark,
		Statements:  g.prog.StatementCount(),
		Suspicious:  g.prog.SuspiciousStatements(),
		SeedsByKind: byKind,
		Seeds:       m.EditStrings(pool.Merged),
	}
}
