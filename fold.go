package fold

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/aretw0/fold/internal/compiler"
	"github.com/aretw0/fold/internal/logging"
	"github.com/aretw0/fold/internal/runtime"
	"github.com/aretw0/fold/pkg/adapters/tokenizer"
	"github.com/aretw0/fold/pkg/domain"
	"github.com/aretw0/fold/pkg/ports"
)

// Version is the fold release.
const Version = "0.1.0"

// Engine is the high-level entry point for the fold library.
// It resolves critical-line configurations and builds one splitter per
// document. An Engine is safe for concurrent use; documents are not.
type Engine struct {
	store       ports.ConfigStore
	defaultCfg  *domain.CriticalLineConfig
	defaultText *string
	scriptURL   string
	extent      domain.RegionExtent
	indexMode   domain.IndexMode
	hooks       domain.LifecycleHooks
	logger      *slog.Logger

	maxConfigText int
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStore looks up per-page configurations by URL path.
func WithStore(store ports.ConfigStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithDefaultConfig applies cfg to documents nothing else configures.
func WithDefaultConfig(cfg domain.CriticalLineConfig) Option {
	return func(e *Engine) {
		e.defaultCfg = &cfg
	}
}

// WithDefaultConfigText is WithDefaultConfig for unparsed text. New fails
// when text does not compile.
func WithDefaultConfigText(text string) Option {
	return func(e *Engine) {
		e.defaultText = &text
	}
}

// WithScriptURL sets the loader script referenced by the suffix.
func WithScriptURL(u string) Option {
	return func(e *Engine) {
		e.scriptURL = u
	}
}

// WithRegionExtent chooses where a region without an end selector stops.
func WithRegionExtent(x domain.RegionExtent) Option {
	return func(e *Engine) {
		e.extent = x
	}
}

// WithIndexMode chooses how [N] predicates count siblings.
func WithIndexMode(m domain.IndexMode) Option {
	return func(e *Engine) {
		e.indexMode = m
	}
}

// WithMaxConfigText caps the size of critical-line text sent with a
// request (default 4096 bytes).
func WithMaxConfigText(n int) Option {
	return func(e *Engine) {
		e.maxConfigText = n
	}
}

// New initializes a new Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{scriptURL: runtime.DefaultScriptURL}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	if eng.defaultText != nil {
		cfg, err := compiler.Compile(*eng.defaultText)
		if err != nil {
			return nil, fmt.Errorf("invalid default critical line: %w", err)
		}
		eng.defaultCfg = &cfg
	} else if eng.defaultCfg != nil {
		if err := compiler.Validate(*eng.defaultCfg); err != nil {
			return nil, fmt.Errorf("invalid default critical line: %w", err)
		}
	}
	return eng, nil
}

// ParseConfig parses and validates critical-line text.
func ParseConfig(text string) (domain.CriticalLineConfig, error) {
	return compiler.Compile(text)
}

// ResolveConfig picks the configuration for req. In order: request text,
// request config, store entry for the URL path, engine default. A nil
// result with a nil error means nothing configures the document.
func (e *Engine) ResolveConfig(ctx context.Context, req domain.Request) (*domain.CriticalLineConfig, error) {
	if req.ConfigText != nil {
		text, err := compiler.Sanitize(*req.ConfigText, e.maxConfigText)
		if err != nil {
			return nil, err
		}
		cfg, err := compiler.Compile(text)
		if err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	if req.Config != nil {
		if err := compiler.Validate(*req.Config); err != nil {
			return nil, err
		}
		return req.Config, nil
	}

	if e.store != nil {
		key := storeKey(req.URL)
		cfg, err := e.store.Load(ctx, key)
		switch {
		case err == nil:
			return &cfg, nil
		case errors.Is(err, domain.ErrConfigNotFound):
			e.logger.Debug("no stored critical line", "key", key)
		default:
			return nil, fmt.Errorf("failed to load critical line for %s: %w", key, err)
		}
	}

	if e.defaultCfg != nil {
		return e.defaultCfg, nil
	}
	e.logger.Debug("no critical line configured", "url", req.URL)
	return nil, nil
}

// NewDocument returns the event handler for one document written to w.
// Producers drive it with the events of the parsed document.
func (e *Engine) NewDocument(ctx context.Context, w io.Writer, req domain.Request) (ports.EventHandler, error) {
	if req.PassThrough {
		return runtime.NewPassThrough(w, req.Mode), nil
	}

	cfg, err := e.ResolveConfig(ctx, req)
	if err != nil {
		return nil, err
	}
	req.Config = cfg
	req.ConfigText = nil

	return runtime.NewSplitter(w, req, runtime.Options{
		Extent:    e.extent,
		IndexMode: e.indexMode,
		ScriptURL: e.scriptURL,
		Hooks:     e.hooks,
		Logger:    e.logger.With("url", req.URL),
	}), nil
}

// Process splits the HTML read from r into w. Output is flushed whenever
// everything read so far has been handled.
func (e *Engine) Process(ctx context.Context, r io.Reader, w io.Writer, req domain.Request) (*domain.Summary, error) {
	if req.PassThrough {
		if _, err := io.Copy(w, r); err != nil {
			return nil, err
		}
		if err := flushWriter(w); err != nil {
			return nil, err
		}
		return &domain.Summary{Mode: req.Mode.String(), PassThrough: true, Regions: []domain.RegionSummary{}}, nil
	}

	h, err := e.NewDocument(ctx, w, req)
	if err != nil {
		return nil, err
	}
	if err := tokenizer.Drive(ctx, r, h); err != nil {
		return nil, err
	}
	if sr, ok := h.(ports.SummaryReporter); ok {
		return sr.Summary(), nil
	}
	return nil, nil
}

// storeKey is the URL path, or the raw URL when it does not parse.
func storeKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return raw
	}
	return u.Path
}

func flushWriter(w io.Writer) error {
	switch f := w.(type) {
	case interface{ Flush() error }:
		return f.Flush()
	case interface{ Flush() }:
		f.Flush()
	}
	return nil
}
