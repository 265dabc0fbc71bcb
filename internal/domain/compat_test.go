package domain

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustExpr(t *testing.T, src string) ast.Expr {
	t.Helper()

	e, err := parser.ParseExpr(src)
	require.NoError(t, err)

	return e
}

func TestReplacementPolicy_KindsCompatible(t *testing.T) {
	policy := DefaultReplacementPolicy()

	tests := []struct {
		target, donor ExprKind
		want          bool
	}{
		{KindCall, KindCall, true},
		{KindIndex, KindIndex, true},
		{KindBinary, KindCall, true},
		{KindCall, KindSelector, true},
		{KindSelector, KindCall, true},
		{KindParen, KindBinary, true},
		{KindBinary, KindParen, true},
		{KindCall, KindBinary, false},
		{KindIndex, KindCall, false},
		{KindUnary, KindBinary, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.target)+"<-"+string(tt.donor), func(t *testing.T) {
			assert.Equal(t, tt.want, policy.KindsCompatible(tt.target, tt.donor))
		})
	}
}

func TestReplacementPolicy_Allows(t *testing.T) {
	policy := DefaultReplacementPolicy()

	t.Run("conditions take boolean donors only", func(t *testing.T) {
		assert.True(t, policy.Allows(mustExpr(t, "a < b"), mustExpr(t, "a >= c"), true))
		assert.False(t, policy.Allows(mustExpr(t, "a < b"), mustExpr(t, "a + c"), true))
		assert.False(t, policy.Allows(mustExpr(t, "a < b"), mustExpr(t, "f(a)"), true))
	})

	t.Run("value slots reject boolean donors", func(t *testing.T) {
		assert.True(t, policy.Allows(mustExpr(t, "a + b"), mustExpr(t, "a - c"), false))
		assert.False(t, policy.Allows(mustExpr(t, "a + b"), mustExpr(t, "a == c"), false))
		assert.True(t, policy.Allows(mustExpr(t, "a == b"), mustExpr(t, "a != c"), false))
	})

	t.Run("custom policy without cross kinds", func(t *testing.T) {
		strict := NewReplacementPolicy()
		assert.False(t, strict.Allows(mustExpr(t, "a + b"), mustExpr(t, "f(a)"), false))
		assert.True(t, strict.Allows(mustExpr(t, "f(a)"), mustExpr(t, "g(b)"), false))
	})
}

func TestOperatorAlternatives(t *testing.T) {
	assert.ElementsMatch(t, []string{"<=", ">", ">="}, tokensToStrings(operatorAlternatives(mustExpr(t, "a < b").(*ast.BinaryExpr).Op)))
	assert.ElementsMatch(t, []string{"!="}, tokensToStrings(operatorAlternatives(mustExpr(t, "a == b").(*ast.BinaryExpr).Op)))
	assert.Empty(t, operatorAlternatives(mustExpr(t, "a + b").(*ast.BinaryExpr).Op))
}

func tokensToStrings(ops []token.Token) []string {
	out := make([]string, 0, len(ops))
	for _, op := range ops {
		out = append(out, op.String())
	}

	return out
}
