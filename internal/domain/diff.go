package domain

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

const diffContext = 3

// UnifiedDiff renders a unified diff from original to patched, labelled with
// name. Identical inputs produce an empty diff.
func UnifiedDiff(name string, original, patched []byte) ([]byte, error) {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(original)),
		B:        difflib.SplitLines(string(patched)),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  diffContext,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s: %w", name, err)
	}

	return []byte(text), nil
}
