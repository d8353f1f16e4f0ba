package main

import (
	"bytes"
	"testing"

	"github.com/aretw0/scriptbridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "scriptbridge version "+scriptbridge.Version+"\n", out.String())
}

func TestOrderCommand_EmptyProject(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"order", "--dir", t.TempDir()})
	require.NoError(t, rootCmd.Execute())
	assert.Empty(t, out.String())
}

func TestRunCommand_RequiresDocument(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"run"})
	assert.Error(t, rootCmd.Execute())
}
