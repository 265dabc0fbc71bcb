package adapter

import (
	"context"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalGoFileAdapter_Parse(t *testing.T) {
	adapter := NewLocalGoFileAdapter()
	fset := token.NewFileSet()

	src := []byte("package count\n\n// CountBelow counts.\nfunc CountBelow(xs []int) int { return len(xs) }\n")

	file, err := adapter.Parse(context.Background(), fset, "count.go", src)
	require.NoError(t, err)
	assert.Equal(t, "count", file.Name.Name)
	require.Len(t, file.Comments, 1)
	assert.Equal(t, "CountBelow counts.\n", file.Comments[0].Text())
}

func TestLocalGoFileAdapter_Parse_InvalidSource(t *testing.T) {
	adapter := NewLocalGoFileAdapter()

	_, err := adapter.Parse(context.Background(), token.NewFileSet(), "broken.go", []byte("package foo\n func"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.go")
}

func TestLocalGoFileAdapter_Parse_ContextCancellation(t *testing.T) {
	adapter := NewLocalGoFileAdapter()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := adapter.Parse(ctx, token.NewFileSet(), "example.go", []byte("package main\n func main() {}"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestLocalGoFileAdapter_Format(t *testing.T) {
	adapter := NewLocalGoFileAdapter()

	out, err := adapter.Format([]byte("package a\nfunc f( ) int {return 1}\n"))
	require.NoError(t, err)
	assert.Equal(t, "package a\n\nfunc f() int { return 1 }\n", string(out))

	_, err = adapter.Format([]byte("package a\nfunc {"))
	require.Error(t, err)
}
