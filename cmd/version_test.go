package cmd

import (
	"bytes"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_UsesBuildVersion(t *testing.T) {
	original := buildVersion
	buildVersion = "v0.3.0-test"
	t.Cleanup(func() { buildVersion = original })

	cmd := newVersionCmd()

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	info, ok := debug.ReadBuildInfo()
	if !ok {
		assert.Equal(t, "version: unknown\n", out.String())
		return
	}

	assert.Contains(t, out.String(), "tool version\t v0.3.0-test\n")
	assert.Contains(t, out.String(), "go version\t "+info.GoVersion+"\n")
}
