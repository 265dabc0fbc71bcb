package domain

import (
	"go/ast"
	"go/token"
	"maps"
)

const (
	// UnknownSuspicion is the weight of statements without a source position,
	// such as copies spliced in by earlier edits.
	UnknownSuspicion = 0.1

	maxRichnessBonus = 0.35
	richnessPerExpr  = 0.05
	exprStmtBonus    = 0.15
	returnStmtBonus  = 0.10
	ifStmtBonus      = 0.08
)

// Suspicion maps source lines to fault weights in [0,1]. It is never
// modified after construction.
type Suspicion struct {
	weights map[int]float64
}

// NewSuspicion copies the line weights into a Suspicion table.
func NewSuspicion(weights map[int]float64) *Suspicion {
	return &Suspicion{weights: maps.Clone(weights)}
}

// Line returns the weight of a single line.
func (s *Suspicion) Line(line int) (float64, bool) {
	w, ok := s.weights[line]
	return w, ok
}

// Len is the number of mapped lines.
func (s *Suspicion) Len() int {
	return len(s.weights)
}

// StatementSuspicion is the highest weight among the lines spanned by stmt,
// 0 when none of them is mapped and UnknownSuspicion when stmt has no position.
func (s *Suspicion) StatementSuspicion(fset *token.FileSet, stmt ast.Stmt) float64 {
	if !stmt.Pos().IsValid() {
		return UnknownSuspicion
	}

	begin := fset.Position(stmt.Pos()).Line

	end := begin
	if stmt.End().IsValid() {
		end = max(begin, fset.Position(stmt.End()).Line)
	}

	best := 0.0
	for line := begin; line <= end; line++ {
		if w, ok := s.weights[line]; ok && w > best {
			best = w
		}
	}

	return best
}

// DonorScore ranks stmt as donor material: its suspicion plus small bonuses
// for expression richness and for being an expression, return or if statement.
func (s *Suspicion) DonorScore(fset *token.FileSet, stmt ast.Stmt) float64 {
	score := s.StatementSuspicion(fset, stmt)
	score += min(maxRichnessBonus, richnessPerExpr*float64(len(replaceableSites(stmt))))

	switch stmt.(type) {
	case *ast.ExprStmt:
		score += exprStmtBonus
	case *ast.ReturnStmt:
		score += returnStmtBonus
	case *ast.IfStmt:
		score += ifStmtBonus
	}

	return score
}
