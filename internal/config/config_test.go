package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEnv = []string{
	EnvUsername, EnvPassword, EnvHeadful, EnvPageSize, EnvMaxPages, EnvBaseDelayMs,
	EnvSpikeProb, EnvUserAgent, EnvProxy, EnvChromePath, EnvStatePath, EnvStateStore,
	EnvDataDir, EnvMaxRPS, EnvBurst, EnvRetries,
}

// clearEnv blanks every variable the loader reads and restores them after the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range allEnv {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func newCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	RegisterFlags(cmd)
	RegisterFetchFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := load(newCmd(t), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultPageSize, cfg.Pagination.PageSize)
	assert.Equal(t, DefaultMaxPages, cfg.Pagination.MaxPages)
	assert.Equal(t, 1700*time.Millisecond, cfg.Pagination.BaseDelay)
	assert.Equal(t, 0.15, cfg.Pagination.SpikeProbability)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, DefaultStatePath, cfg.StatePath)
	assert.Equal(t, "file", cfg.StateStore)
	assert.Equal(t, "data", cfg.DataDir)
	assert.False(t, cfg.Interactive)
	assert.True(t, cfg.Credentials.Empty())
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvUsername, "  alice  ")
	t.Setenv(EnvPassword, " secret\n")
	t.Setenv(EnvHeadful, "1")
	t.Setenv(EnvPageSize, "24")
	t.Setenv(EnvMaxPages, "3")
	t.Setenv(EnvBaseDelayMs, "250")
	t.Setenv(EnvSpikeProb, "0.5")
	t.Setenv(EnvStateStore, "KEYRING")
	t.Setenv(EnvDataDir, "/tmp/out")

	cfg, err := load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Credentials.Username)
	assert.Equal(t, "secret", cfg.Credentials.Password)
	assert.True(t, cfg.Interactive)
	assert.Equal(t, 24, cfg.Pagination.PageSize)
	assert.Equal(t, 3, cfg.Pagination.MaxPages)
	assert.Equal(t, 250*time.Millisecond, cfg.Pagination.BaseDelay)
	assert.Equal(t, 0.5, cfg.Pagination.SpikeProbability)
	assert.Equal(t, "keyring", cfg.StateStore)
	assert.Equal(t, "/tmp/out", cfg.DataDir)
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPageSize, "twelve")
	t.Setenv(EnvBaseDelayMs, "1.5s")
	t.Setenv(EnvSpikeProb, "often")
	t.Setenv(EnvMaxRPS, "")

	cfg, err := load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, DefaultPageSize, cfg.Pagination.PageSize)
	assert.Equal(t, DefaultBaseDelay, cfg.Pagination.BaseDelay)
	assert.Equal(t, DefaultSpikeProbability, cfg.Pagination.SpikeProbability)
	assert.Equal(t, DefaultMaxRPS, cfg.MaxRPS)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPageSize, "24")
	t.Setenv(EnvProxy, "http://env:8080")

	cmd := newCmd(t, "--page-size", "50", "--proxy", "http://flag:9090", "-v", "--stdout", "--retries", "2")
	cfg, err := load(cmd, "")
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Pagination.PageSize)
	assert.Equal(t, "http://flag:9090", cfg.Proxy)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Stdout)
	assert.Equal(t, 2, cfg.Retries)
}

func TestLoad_UnsetFlagsKeepEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvMaxPages, "7")

	cfg, err := load(newCmd(t), "")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Pagination.MaxPages)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("IG_USERNAME=bob\nIG_MAX_PAGES=9\n"), 0o600))
	t.Setenv(EnvMaxPages, "4")
	t.Cleanup(func() { os.Unsetenv(EnvUsername) })

	cfg, err := load(nil, path)
	require.NoError(t, err)

	assert.Equal(t, "bob", cfg.Credentials.Username)
	// the process environment wins over the file
	assert.Equal(t, 4, cfg.Pagination.MaxPages)
}

func TestLoad_MissingDotEnvIgnored(t *testing.T) {
	clearEnv(t)
	_, err := load(nil, filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"page size", func(c *Config) { c.Pagination.PageSize = 0 }},
		{"max pages", func(c *Config) { c.Pagination.MaxPages = 0 }},
		{"base delay", func(c *Config) { c.Pagination.BaseDelay = -time.Second }},
		{"spike low", func(c *Config) { c.Pagination.SpikeProbability = -0.1 }},
		{"spike high", func(c *Config) { c.Pagination.SpikeProbability = 1.1 }},
		{"store", func(c *Config) { c.StateStore = "s3" }},
		{"state path", func(c *Config) { c.StatePath = "" }},
		{"max rps", func(c *Config) { c.MaxRPS = -1 }},
		{"retries", func(c *Config) { c.Retries = -1 }},
		{"timeout", func(c *Config) { c.Timeout = -time.Second }},
	}

	require.NoError(t, validate(Defaults()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			assert.Error(t, validate(cfg))
		})
	}

	cfg := Defaults()
	cfg.StateStore = "keyring"
	cfg.StatePath = ""
	assert.NoError(t, validate(cfg))
}
