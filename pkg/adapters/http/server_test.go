package http_test

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"testing/iotest"

	"github.com/aretw0/fold"
	foldhttp "github.com/aretw0/fold/pkg/adapters/http"
	"github.com/aretw0/fold/pkg/adapters/memory"
	"github.com/aretw0/fold/pkg/domain"
	"github.com/aretw0/fold/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><head><title>t</title></head><body>` +
	`<p>story</p><div id="comments"><p>c1</p></div></body></html>`

func newServer(t *testing.T, opts foldhttp.Options, engineOpts ...fold.Option) http.Handler {
	t.Helper()
	engine, err := fold.New(engineOpts...)
	require.NoError(t, err)
	if opts.Site == nil {
		opts.Site = fstest.MapFS{
			"index.html":     {Data: []byte(page)},
			"blog/post.html": {Data: []byte(page)},
			"style.css":      {Data: []byte("p{}")},
		}
	}
	return foldhttp.NewHandler(engine, opts)
}

func get(t *testing.T, h http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGetHealth(t *testing.T) {
	w := get(t, newServer(t, foldhttp.Options{}), "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","version":"`+fold.Version+`"}`, w.Body.String())
}

func TestServePage_Modes(t *testing.T) {
	h := newServer(t, foldhttp.Options{}, fold.WithDefaultConfigText(`div[@id = "comments"]`))

	t.Run("Inline", func(t *testing.T) {
		w := get(t, h, "/", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		body := w.Body.String()
		assert.Contains(t, body, `<p>story</p><!--GooglePanel begin panel-id.0--><!--GooglePanel end panel-id.0-->`)
		assert.Contains(t, body, `bufferNonCriticalData({"panel-id.0":`)
		assert.True(t, w.Flushed)
	})

	t.Run("BTF", func(t *testing.T) {
		w := get(t, h, "/blog/post.html?X-PSA-Split-Btf=1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, `{"panel-id.0":[{"instance_html":"<div id=\"comments\" panel-id=\"panel-id.0\"><p>c1</p></div>"}]}`, w.Body.String())
	})

	t.Run("Static Files", func(t *testing.T) {
		w := get(t, h, "/style.css", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "p{}", w.Body.String())
	})

	t.Run("Missing Page", func(t *testing.T) {
		w := get(t, h, "/nope.html", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServePage_TwoChunk(t *testing.T) {
	h := newServer(t, foldhttp.Options{TwoChunk: true}, fold.WithDefaultConfigText(`div[@id = "comments"]`))
	w := get(t, h, "/blog/post.html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `/blog/post.html?X-PSA-Split-Btf=1`)
	assert.NotContains(t, w.Body.String(), "c1")
}

func TestServePage_ConfigHeader(t *testing.T) {
	h := newServer(t, foldhttp.Options{})

	t.Run("Applied", func(t *testing.T) {
		w := get(t, h, "/?X-PSA-Split-Btf=1", http.Header{"X-Psa-Split-Config": {`div[@id = "comments"]`}})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "panel-id.0")
	})

	t.Run("Rejected", func(t *testing.T) {
		w := get(t, h, "/", http.Header{"X-Psa-Split-Config": {`div[`}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestServePage_BlockedUserAgent(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	h := newServer(t, foldhttp.Options{BlockedUserAgents: []string{"googlebot"}, Metrics: metrics},
		fold.WithDefaultConfigText(`div[@id = "comments"]`))

	w := get(t, h, "/", http.Header{"User-Agent": {"Mozilla/5.0 (compatible; Googlebot/2.1)"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, page, w.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Documents.WithLabelValues("inline", observability.OutcomePassThrough)))
}

type failingStore struct{ *memory.Store }

func (failingStore) Load(context.Context, string) (domain.CriticalLineConfig, error) {
	return domain.CriticalLineConfig{}, errors.New("store down")
}

func TestServePage_StoreFailureFallsBack(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	h := newServer(t, foldhttp.Options{Metrics: metrics}, fold.WithStore(failingStore{memory.NewStore()}))

	w := get(t, h, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, page, w.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Documents.WithLabelValues("inline", observability.OutcomeFailed)))
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	h := newServer(t, foldhttp.Options{
		MetricsPath:    "/metrics",
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, fold.WithDefaultConfigText("footer"), fold.WithLifecycleHooks(metrics.Hooks(nil)))

	get(t, h, "/", nil)
	w := get(t, h, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "fold_documents_total"))
}

// trickleFS hands out files that read one byte per call.
type trickleFS struct{ fstest.MapFS }

type trickleFile struct {
	fs.File
	r io.Reader
}

func (f trickleFile) Read(p []byte) (int, error) { return f.r.Read(p) }

func (t trickleFS) Open(name string) (fs.File, error) {
	f, err := t.MapFS.Open(name)
	if err != nil {
		return nil, err
	}
	return trickleFile{File: f, r: iotest.OneByteReader(f)}, nil
}

func TestServePage_NestedRunsEndingTogether(t *testing.T) {
	doc := `<html><head></head><body>` + strings.Repeat("<p>padding</p>", 50) +
		`<div id="a">A</div><div id="b">B</div><hr></body></html>`
	site := trickleFS{fstest.MapFS{"index.html": {Data: []byte(doc)}}}
	h := newServer(t, foldhttp.Options{Site: site}, fold.WithDefaultConfigText(`div[@id="a"]:hr, div[@id="b"]:p`))

	w := get(t, h, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<!--GooglePanel begin panel-id.0--><!--GooglePanel end panel-id.0--><hr></body></html>`)
	assert.NotContains(t, body, "region overlap")
	assert.Contains(t, body, `bufferNonCriticalData({"panel-id.0":`)
}

// scriptedEngine writes prefix, then fails with err unless the request is a
// pass-through, which copies the input.
type scriptedEngine struct {
	prefix string
	err    error
}

func (e scriptedEngine) Process(_ context.Context, r io.Reader, w io.Writer, req domain.Request) (*domain.Summary, error) {
	if req.PassThrough {
		_, err := io.Copy(w, r)
		return &domain.Summary{PassThrough: true}, err
	}
	if _, err := io.WriteString(w, e.prefix); err != nil {
		return nil, err
	}
	return nil, e.err
}

func TestServePage_ErrorHandling(t *testing.T) {
	site := fstest.MapFS{"index.html": {Data: []byte(page)}}
	overlap := &domain.RegionOverlapError{First: "a", Second: "b", Reason: "test"}

	t.Run("After Bytes Were Written", func(t *testing.T) {
		h := foldhttp.NewHandler(scriptedEngine{prefix: "<html>partial", err: overlap}, foldhttp.Options{Site: site})
		w := get(t, h, "/", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "<html>partial", w.Body.String())
	})

	t.Run("Server Config Falls Back", func(t *testing.T) {
		h := foldhttp.NewHandler(scriptedEngine{err: overlap}, foldhttp.Options{Site: site})
		w := get(t, h, "/", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, page, w.Body.String())
	})

	t.Run("Header Config Rejected", func(t *testing.T) {
		h := foldhttp.NewHandler(scriptedEngine{err: overlap}, foldhttp.Options{Site: site})
		w := get(t, h, "/", http.Header{"X-Psa-Split-Config": {"h1, h1"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
