package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "speriment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "none", cfg.Store.Type)
	assert.Equal(t, "json", cfg.Compile.Format)
	assert.Equal(t, ":8080", cfg.Serve.Addr)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
compile:
  seed: 100
  format: script
store:
  type: redis
  redis_addr: cache:6379
  ttl: 24h
log:
  level: debug
serve:
  metrics: true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Compile.Seed)
	assert.Equal(t, "script", cfg.Compile.Format)
	assert.Equal(t, "redis", cfg.Store.Type)
	assert.Equal(t, "cache:6379", cfg.Store.RedisAddr)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Serve.Metrics)
	assert.Equal(t, "artifacts", cfg.Store.Path, "unset keys keep defaults")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "compile:\n  seed: 1\nstore:\n  type: file\n")
	t.Setenv("SPERIMENT_COMPILE_SEED", "42")
	t.Setenv("SPERIMENT_STORE_REDIS_ADDR", "other:6380")
	t.Setenv("SPERIMENT_LOG_FORMAT", "json")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Compile.Seed)
	assert.Equal(t, "file", cfg.Store.Type)
	assert.Equal(t, "other:6380", cfg.Store.RedisAddr)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("Explicit Path Missing", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("Malformed YAML", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "compile: [unclosed"))
		assert.Error(t, err)
	})

	invalid := map[string]string{
		"unknown store":  "store:\n  type: s3\n",
		"unknown format": "compile:\n  format: xml\n",
		"negative seed":  "compile:\n  seed: -1\n",
		"bad level":      "log:\n  level: loud\n",
		"bad log format": "log:\n  format: xml\n",
	}
	for name, content := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, content))
			assert.ErrorContains(t, err, "config validation failed")
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "store.redis_addr", envKey("SPERIMENT_STORE_REDIS_ADDR"))
	assert.Equal(t, "compile.seed", envKey("SPERIMENT_COMPILE_SEED"))
	assert.Equal(t, "debug", envKey("SPERIMENT_DEBUG"))
}
