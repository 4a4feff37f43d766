package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketWatch/internal/domain/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPlanCommand(t *testing.T) {
	out, err := execute(t, "plan", "--keywords", "a,b,c,d,e,f", "--capacity", "5")
	require.NoError(t, err)
	assert.Equal(t, "batch 1: a, b, c, d, e (anchor a)\nbatch 2: a, f (anchor a)\n", out)
}

func TestPlanCommandSingleBatch(t *testing.T) {
	out, err := execute(t, "plan", "-k", "a,b")
	require.NoError(t, err)
	assert.Equal(t, "batch 1: a, b\n", out)
}

func TestPlanCommandBadAnchor(t *testing.T) {
	_, err := execute(t, "plan", "-k", "a,b", "--anchor", "z")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "marketwatch dev\n", out)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(errors.New("write csv: disk full")))
	assert.Equal(t, 2, exitCode(models.ConfigError("bad")))
}
