package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/legacy-tx/pkg/crypto"
)

// isolate points HOME at an empty directory so a developer's own config file
// is never picked up.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legacytx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	net, err := cfg.Network()
	require.NoError(t, err)
	assert.Equal(t, crypto.MainNet, net)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
network: test
feePerKb: 1000
logLevel: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{NetworkName: "test", FeePerKb: 1000, LogLevel: "debug"}, cfg)

	net, err := cfg.Network()
	require.NoError(t, err)
	assert.Equal(t, crypto.TestNet, net)
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	isolate(t)
	cfg, err := LoadConfig(writeConfig(t, "feePerKb: 5000\n"))
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.NetworkName)
	assert.Equal(t, uint64(5000), cfg.FeePerKb)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "network: main\nfeePerKb: 1000\n")
	t.Setenv("LEGACYTX_NETWORK", "test")
	t.Setenv("LEGACYTX_FEE_PER_KB", "3000")
	t.Setenv("LEGACYTX_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.NetworkName)
	assert.Equal(t, uint64(3000), cfg.FeePerKb)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConfigHomeFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".legacytx"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".legacytx", "legacytx.yaml"),
		[]byte("network: test\n"), 0o644))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.NetworkName)
}

func TestLoadConfigErrors(t *testing.T) {
	isolate(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "network: [unterminated\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "network: regtest\n"))
	assert.ErrorContains(t, err, "invalid network")

	_, err = LoadConfig(writeConfig(t, "logLevel: loud\n"))
	assert.ErrorContains(t, err, "invalid logLevel")

	_, err = LoadConfig(writeConfig(t, "feePerKb: 0\n"))
	assert.ErrorContains(t, err, "invalid feePerKb")

	t.Setenv("LEGACYTX_FEE_PER_KB", "lots")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "error processing environment")
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	cfg := Default()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
