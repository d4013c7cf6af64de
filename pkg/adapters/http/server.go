// Package http serves a static site through the fold splitter.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/aretw0/fold"
	"github.com/aretw0/fold/internal/logging"
	"github.com/aretw0/fold/internal/runtime"
	"github.com/aretw0/fold/pkg/domain"
	"github.com/aretw0/fold/pkg/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Engine is the part of fold.Engine the server needs.
type Engine interface {
	Process(ctx context.Context, r io.Reader, w io.Writer, req domain.Request) (*domain.Summary, error)
}

var _ Engine = (*fold.Engine)(nil)

// Options configures the handler.
type Options struct {
	// Site holds the pages to serve.
	Site fs.FS
	// Index is served for directory paths (default "index.html").
	Index string
	// TwoChunk serves split ATF responses instead of inline ones.
	TwoChunk bool
	// BlockedUserAgents lists case-insensitive substrings; matching
	// clients get pages unchanged.
	BlockedUserAgents []string
	// MetricsPath mounts MetricsHandler when both are set.
	MetricsPath    string
	MetricsHandler http.Handler
	// Metrics counts pass-through and failed documents.
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// Server serves pages through an Engine.
type Server struct {
	Engine Engine
	opts   Options
	logger *slog.Logger
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts Options) http.Handler {
	if opts.Index == "" {
		opts.Index = "index.html"
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{Engine: engine, opts: opts, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	if opts.MetricsPath != "" && opts.MetricsHandler != nil {
		r.Method(http.MethodGet, opts.MetricsPath, opts.MetricsHandler)
	}
	r.Get("/*", s.ServePage)
	return r
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok", "version": fold.Version}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("health response encode failed", "err", err)
	}
}

// ServePage handles GET /*: HTML pages are split, other files are served as is.
func (s *Server) ServePage(w http.ResponseWriter, r *http.Request) {
	if s.opts.Site == nil {
		http.NotFound(w, r)
		return
	}
	name := s.resolveName(r.URL.Path)
	if !isHTML(name) {
		http.ServeFileFS(w, r, s.opts.Site, name)
		return
	}

	req := s.buildRequest(r)
	err := s.servePage(w, r, name, req)
	if err == nil {
		return
	}

	log := s.logger.With("path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
	var (
		perr *domain.ConfigParseError
		oerr *domain.RegionOverlapError
		werr *writeError
	)
	switch {
	case errors.As(err, &werr):
		// Headers are gone; nothing left but to log.
		log.Error("split failed mid-response", "err", err)
		s.observe(req.Mode, observability.OutcomeFailed)
	case errors.Is(err, fs.ErrNotExist):
		http.NotFound(w, r)
	case req.ConfigText != nil && (errors.As(err, &perr) || errors.As(err, &oerr)):
		log.Warn("rejected critical line header", "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Warn("split unavailable, serving page unchanged", "err", err)
		s.observe(req.Mode, observability.OutcomeFailed)
		req.PassThrough = true
		if err := s.servePage(w, r, name, req); err != nil {
			log.Error("pass-through failed", "err", err)
		}
	}
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request, name string, req domain.Request) error {
	f, err := s.opts.Site.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	if req.Mode == domain.ModeSplitBTF && !req.PassThrough {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}

	out := &responseWriter{w: w}
	summary, err := s.Engine.Process(r.Context(), f, out, req)
	if err != nil {
		if out.written {
			return &writeError{err: err}
		}
		return err
	}
	if summary != nil && summary.PassThrough {
		s.observe(req.Mode, observability.OutcomePassThrough)
	}
	return nil
}

func (s *Server) buildRequest(r *http.Request) domain.Request {
	req := domain.Request{URL: r.URL.RequestURI()}
	switch {
	case r.URL.Query().Has(runtime.BTFQueryParam):
		req.Mode = domain.ModeSplitBTF
	case s.opts.TwoChunk:
		req.Mode = domain.ModeSplitATF
	}
	if v := r.Header.Values(runtime.ConfigHeader); len(v) > 0 {
		text := strings.Join(v, ",")
		req.ConfigText = &text
	}
	ua := strings.ToLower(r.UserAgent())
	for _, blocked := range s.opts.BlockedUserAgents {
		if blocked != "" && strings.Contains(ua, strings.ToLower(blocked)) {
			req.PassThrough = true
			break
		}
	}
	return req
}

func (s *Server) resolveName(urlPath string) string {
	p := path.Clean("/" + urlPath)
	if strings.HasSuffix(urlPath, "/") || p == "/" {
		p = path.Join(p, s.opts.Index)
	}
	return strings.TrimPrefix(p, "/")
}

func (s *Server) observe(mode domain.ServingMode, outcome string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveOutcome(mode, outcome)
	}
}

func isHTML(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// responseWriter tracks whether any byte reached the client and forwards
// flushes so split output streams out as it is produced.
type responseWriter struct {
	w       http.ResponseWriter
	written bool
}

func (rw *responseWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		rw.written = true
	}
	return rw.w.Write(p)
}

func (rw *responseWriter) Flush() error {
	err := http.NewResponseController(rw.w).Flush()
	if errors.Is(err, http.ErrNotSupported) {
		return nil
	}
	return err
}

// writeError marks a failure after part of the response was sent.
type writeError struct {
	err error
}

func (e *writeError) Error() string { return e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }
