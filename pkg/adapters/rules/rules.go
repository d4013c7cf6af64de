// Package rules loads per-page critical-line configurations from a YAML
// file and keeps a ConfigStore in sync with it.
//
// A rules file looks like:
//
//	rules:
//	  - path: /index.html
//	    critical_line: 'div[@id = "container"]/div[4]:h1[@id = "footer"]'
//	  - path: /blog/post.html
//	    critical_line: 'section[2]'
package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/fold/internal/compiler"
	"github.com/aretw0/fold/internal/logging"
	"github.com/aretw0/fold/pkg/domain"
	"github.com/aretw0/fold/pkg/ports"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Rule binds a URL path to a critical-line configuration.
type Rule struct {
	Path         string `mapstructure:"path"`
	CriticalLine string `mapstructure:"critical_line"`

	Config domain.CriticalLineConfig `mapstructure:"-"`
}

type document struct {
	Rules []map[string]any `yaml:"rules"`
}

// Parse decodes and compiles a rules document. Every bad rule is reported.
func Parse(data []byte) ([]Rule, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	var (
		out  []Rule
		errs []error
		seen = map[string]int{}
	)
	for i, raw := range doc.Rules {
		var r Rule
		if err := mapstructure.Decode(raw, &r); err != nil {
			errs = append(errs, fmt.Errorf("rule %d: %w", i, err))
			continue
		}
		r.Path = strings.TrimSpace(r.Path)
		if r.Path == "" {
			errs = append(errs, fmt.Errorf("rule %d: missing path", i))
			continue
		}
		if prev, dup := seen[r.Path]; dup {
			errs = append(errs, fmt.Errorf("rule %d: path %q already defined by rule %d", i, r.Path, prev))
			continue
		}
		cfg, err := compiler.Compile(r.CriticalLine)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %d (%s): %w", i, r.Path, err))
			continue
		}
		r.Config = cfg
		seen[r.Path] = i
		out = append(out, r)
	}
	if len(errs) > 0 {
		return nil, &domain.AggregateError{Errors: errs}
	}
	return out, nil
}

// Load reads and parses a rules file.
func Load(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules %s: %w", path, err)
	}
	return Parse(data)
}

// Result reports what a Sync changed.
type Result struct {
	Saved  []string
	Pruned []string
}

// Syncer writes rules into a ConfigStore.
type Syncer struct {
	store   ports.ConfigStore
	locker  ports.Locker
	lockTTL time.Duration
	prune   bool
	logger  *slog.Logger
}

type Option func(*Syncer)

// WithLocker serializes syncs across processes sharing the store.
func WithLocker(l ports.Locker, ttl time.Duration) Option {
	return func(s *Syncer) {
		s.locker = l
		s.lockTTL = ttl
	}
}

// WithPrune deletes store entries that no rule names.
func WithPrune(prune bool) Option {
	return func(s *Syncer) {
		s.prune = prune
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Syncer) {
		s.logger = logger
	}
}

// NewSyncer creates a syncer for store.
func NewSyncer(store ports.ConfigStore, opts ...Option) *Syncer {
	s := &Syncer{
		store:   store,
		lockTTL: 10 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const lockKey = "rules-sync"

// Sync saves every rule and, when pruning, removes entries no rule names.
func (s *Syncer) Sync(ctx context.Context, rules []Rule) (Result, error) {
	var res Result
	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, lockKey, s.lockTTL)
		if err != nil {
			return res, fmt.Errorf("failed to acquire sync lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("failed to release sync lock", "err", err)
			}
		}()
	}

	var errs []error
	keep := make([]string, 0, len(rules))
	for _, r := range rules {
		keep = append(keep, r.Path)
		if err := s.store.Save(ctx, r.Path, r.Config); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", r.Path, err))
			continue
		}
		res.Saved = append(res.Saved, r.Path)
	}

	if s.prune {
		keys, err := s.store.List(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("list: %w", err))
		}
		for _, k := range keys {
			if slices.Contains(keep, k) {
				continue
			}
			if err := s.store.Delete(ctx, k); err != nil && !errors.Is(err, domain.ErrConfigNotFound) {
				errs = append(errs, fmt.Errorf("delete %s: %w", k, err))
				continue
			}
			res.Pruned = append(res.Pruned, k)
		}
	}

	s.logger.Info("rules synced", "saved", len(res.Saved), "pruned", len(res.Pruned))
	if len(errs) > 0 {
		return res, &domain.AggregateError{Errors: errs}
	}
	return res, nil
}

// SyncFile loads path and syncs it.
func (s *Syncer) SyncFile(ctx context.Context, path string) (Result, error) {
	rules, err := Load(path)
	if err != nil {
		return Result{}, err
	}
	return s.Sync(ctx, rules)
}
