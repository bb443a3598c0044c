package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"APPDIRCTL_SERVER", "APPDIRCTL_MIRROR", "APPDIRCTL_RETRIES", "APPDIRCTL_CACHE_TTL", "APPDIRCTL_CONFIG"} {
		t.Setenv(k, "")
	}
}

func configFor(t *testing.T, path string, args ...string) (*Config, error) {
	t.Helper()
	root, _ := newRootCmd()
	require.NoError(t, root.ParseFlags(args))
	return loadConfig(root, path)
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := configFor(t, filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.Server)
	assert.Equal(t, 3, cfg.Retries)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.Reprobe)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.NotEmpty(t, cfg.Mirror)
}

func TestLoadConfigPrecedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("server: http://file:1\ncache_ttl: 1m\nretries: 5\n"), 0o600))

	cfg, err := configFor(t, path)
	require.NoError(t, err)
	assert.Equal(t, "http://file:1", cfg.Server)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 5, cfg.Retries)

	t.Setenv("APPDIRCTL_SERVER", "http://env:1")
	cfg, err = configFor(t, path)
	require.NoError(t, err)
	assert.Equal(t, "http://env:1", cfg.Server)

	cfg, err = configFor(t, path, "--server", "http://flag:1")
	require.NoError(t, err)
	assert.Equal(t, "http://flag:1", cfg.Server)
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("mirror: /tmp/x.db\nretries: 0\n"), 0o600))
	t.Setenv("APPDIRCTL_CONFIG", path)

	cfg, err := configFor(t, "")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.Mirror)
	assert.Equal(t, 1, cfg.Retries, "at least one attempt")
}

func TestLoadConfigRejectsBrokenFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated\n"), 0o600))

	_, err := configFor(t, path)
	assert.Error(t, err)
}
