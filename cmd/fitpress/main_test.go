package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCMD.SetOut(&out)
	rootCMD.SetErr(&out)
	rootCMD.SetArgs(args)
	t.Cleanup(func() {
		rootCMD.SetArgs(nil)
		nextRunFrequency, nextRunNow = "daily", ""
	})
	err := rootCMD.Execute()
	return out.String(), err
}

func TestNextRun(t *testing.T) {
	out, err := runCLI(t, "next-run", "--frequency", "weekly", "--now", "2026-04-01T22:30:00Z")
	require.NoError(t, err)
	require.Equal(t, "2026-04-08T08:00:00Z\n", out)
}

func TestNextRunRejectsUnknownFrequency(t *testing.T) {
	_, err := runCLI(t, "next-run", "--frequency", "hourly")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	require.Equal(t, "fitpress dev\n", out)
}
