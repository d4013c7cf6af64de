package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/fold/internal/config"
	"github.com/aretw0/fold/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fold.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.LoadWithEnv("", noEnv)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, config.StoreMemory, cfg.Store.Driver)
	assert.Equal(t, "subtree", cfg.Split.Extent)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, `
server:
  listen: ":9000"
  read_timeout: 2s
  blocked_user_agents: [Googlebot]
split:
  critical_line: "div[@id = \"main\"]"
  extent: siblings
store:
  driver: redis
  redis:
    db: 2
`)
	cfg, err := config.LoadWithEnv(path, envMap(map[string]string{
		"FOLD_LISTEN":          ":9100",
		"FOLD_REDIS_TTL":       "1h",
		"FOLD_METRICS_ENABLED": "true",
		"FOLD_TWO_CHUNK":       "1",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Listen)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"Googlebot"}, cfg.Server.BlockedUserAgents)
	assert.True(t, cfg.Server.TwoChunk)
	assert.Equal(t, `div[@id = "main"]`, cfg.Split.CriticalLine)
	assert.Equal(t, "siblings", cfg.Split.Extent)
	assert.Equal(t, config.StoreRedis, cfg.Store.Driver)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_EnvList(t *testing.T) {
	cfg, err := config.LoadWithEnv("", envMap(map[string]string{
		"FOLD_BLOCKED_USER_AGENTS": "Googlebot,bingbot",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Googlebot", "bingbot"}, cfg.Server.BlockedUserAgents)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadWithEnv(filepath.Join(t.TempDir(), "nope.yaml"), noEnv)
		assert.Error(t, err)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := config.LoadWithEnv(writeFile(t, "server:\n  lisen: \":1\"\n"), noEnv)
		assert.ErrorContains(t, err, "lisen")
	})

	t.Run("invalid values are aggregated", func(t *testing.T) {
		path := writeFile(t, "store:\n  driver: etcd\nlogging:\n  format: xml\n")
		_, err := config.LoadWithEnv(path, noEnv)

		var agg *domain.AggregateError
		require.True(t, errors.As(err, &agg))
		assert.Len(t, agg.Errors, 2)
	})

	t.Run("watch needs file", func(t *testing.T) {
		_, err := config.LoadWithEnv("", envMap(map[string]string{"FOLD_RULES_WATCH": "true"}))
		assert.ErrorContains(t, err, "rules.file")
	})
}
