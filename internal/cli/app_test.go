package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/fold/internal/config"
	"github.com/aretw0/fold/pkg/adapters/file"
	"github.com/aretw0/fold/pkg/adapters/memory"
	"github.com/aretw0/fold/pkg/adapters/redis"
	"github.com/aretw0/fold/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s, l, c, err := OpenStore(config.StoreConfig{Driver: config.StoreMemory})
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, s)
		assert.Nil(t, l)
		assert.Nil(t, c)
	})

	t.Run("file", func(t *testing.T) {
		s, _, _, err := OpenStore(config.StoreConfig{Driver: config.StoreFile, Dir: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &file.Store{}, s)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s, l, c, err := OpenStore(config.StoreConfig{Driver: config.StoreRedis, Redis: config.RedisConfig{Addr: mr.Addr()}})
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &redis.Store{}, s)
		assert.NotNil(t, l)

		require.NoError(t, s.Save(context.Background(), "/a", domain.CriticalLineConfig{}))
		keys, err := s.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"/a"}, keys)
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, _, err := OpenStore(config.StoreConfig{Driver: "etcd"})
		assert.Error(t, err)
	})
}

func TestNewApp_ServesSite(t *testing.T) {
	root := t.TempDir()
	page := `<html><head></head><body><p>a</p><div id="later">b</div></body></html>`
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte(page), 0o644))

	cfg := config.Default()
	cfg.Site.Root = root
	cfg.Split.CriticalLine = `div[@id = "later"]`
	cfg.Metrics.Enabled = true

	var logs bytes.Buffer
	app, err := NewApp(cfg, &logs)
	require.NoError(t, err)
	defer app.Close()

	srv := NewHTTPServer(app)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?X-PSA-Split-Btf=1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"panel-id.0"`)

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `fold_documents_total{mode="btf",outcome="split"} 1`)
}

func TestNewApp_InvalidDefault(t *testing.T) {
	cfg := config.Default()
	cfg.Split.CriticalLine = "div["
	_, err := NewApp(cfg, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNewSyncer_UsesAppStore(t *testing.T) {
	rulesFile := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(rulesFile, []byte("rules:\n  - path: /x.html\n    critical_line: h1\n"), 0o644))

	app, err := NewApp(config.Default(), &bytes.Buffer{})
	require.NoError(t, err)

	_, err = NewSyncer(app).SyncFile(context.Background(), rulesFile)
	require.NoError(t, err)

	cfg, err := app.Store.Load(context.Background(), "/x.html")
	require.NoError(t, err)
	assert.Equal(t, "h1,", cfg.String())
}
