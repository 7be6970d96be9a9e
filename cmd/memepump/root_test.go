package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  in_memory: true\nlog:\n  level: error\n"), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", path))
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

// go test -v --run TestCurveCommand
func TestCurveCommand(t *testing.T) {
	out := execute(t, "curve", "--supply", "600000000", "--amount", "1000", "--every", "50")

	assert.Contains(t, out, "exponential curve, target $100,000")
	assert.Contains(t, out, "SUPPLY")
	assert.Contains(t, out, "<- current")
	assert.Contains(t, out, "does not graduate within the plotted supply")
	assert.Contains(t, out, "buy 1000 tokens")
	assert.Contains(t, out, "sell 1000 tokens")
}

func TestWhoamiSignedOut(t *testing.T) {
	out := execute(t, "account", "whoami")
	assert.Contains(t, out, "not signed in")
}

func TestWalletStatusWithoutProviders(t *testing.T) {
	out := execute(t, "wallet", "status")
	assert.Contains(t, out, "not installed, see https://phantom.app/")
	assert.Contains(t, out, "not installed, see https://metamask.io/")
	assert.Contains(t, out, "not connected")
}
