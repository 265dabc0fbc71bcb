package domain

import (
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

func TestUnifiedDiff(t *testing.T) {
	t.Run("identical inputs", func(t *testing.T) {
		diff, err := UnifiedDiff("count.go", []byte("a\nb\n"), []byte("a\nb\n"))
		require.NoError(t, err)
		assert.Empty(t, diff)
	})

	t.Run("labels and hunks", func(t *testing.T) {
		prog := newTestProgram(t, offByOneSource, map[int]float64{6: 1})
		p := prog.NewPatch()
		require.True(t, p.ApplyEdit(m.MutateBinaryOp{Target: 2, Expr: 0, Op: token.LSS}))

		before, err := prog.Render()
		require.NoError(t, err)

		after, err := p.Render()
		require.NoError(t, err)

		diff, err := UnifiedDiff("count.go", before, after)
		require.NoError(t, err)

		text := string(diff)
		assert.True(t, strings.HasPrefix(text, "--- a/count.go\n+++ b/count.go\n"))
		assert.Contains(t, text, "-\t\tif v <= limit {\n")
		assert.Contains(t, text, "+\t\tif v < limit {\n")
		assert.Equal(t, 1, strings.Count(text, "@@ -"))
	})
}
