package domain

import (
	"go/ast"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuspicion_StatementSuspicion(t *testing.T) {
	prog := newTestProgram(t, clampSource, map[int]float64{5: 0.4, 7: 0.2, 8: 0.9})
	stmts := prog.NewPatch().Statements()
	require.Len(t, stmts, 9)

	tests := []struct {
		name string
		idx  int
		want float64
	}{
		{"single mapped line", 1, 0.4},
		{"compound takes the max over its lines", 2, 0.9},
		{"enclosing if spans a mapped child", 0, 0.4},
		{"unmapped line", 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, prog.Suspicion().StatementSuspicion(prog.FileSet(), stmts[tt.idx]), 1e-9)
		})
	}
}

func TestSuspicion_PositionlessStatement(t *testing.T) {
	s := NewSuspicion(map[int]float64{1: 1})
	prog := newTestProgram(t, clampSource, nil)

	synthetic := &ast.ReturnStmt{}
	assert.InDelta(t, UnknownSuspicion, s.StatementSuspicion(prog.FileSet(), synthetic), 1e-9)
}

func TestSuspicion_IsACopy(t *testing.T) {
	weights := map[int]float64{3: 0.5}
	s := NewSuspicion(weights)
	weights[3] = 1

	w, ok := s.Line(3)
	require.True(t, ok)
	assert.InDelta(t, 0.5, w, 1e-9)
	assert.Equal(t, 1, s.Len())

	_, ok = s.Line(4)
	assert.False(t, ok)
}

func TestSuspicion_DonorScore(t *testing.T) {
	prog := newTestProgram(t, clampSource, nil)
	stmts := prog.NewPatch().Statements()
	s := prog.Suspicion()

	ifScore := s.DonorScore(prog.FileSet(), stmts[0])
	returnScore := s.DonorScore(prog.FileSet(), stmts[4])
	assignScore := s.DonorScore(prog.FileSet(), stmts[5])

	// if x < lo: one replaceable binary plus the if bonus.
	assert.InDelta(t, richnessPerExpr+ifStmtBonus, ifScore, 1e-9)
	assert.InDelta(t, returnStmtBonus, returnScore, 1e-9)
	assert.InDelta(t, 0, assignScore, 1e-9)
}
