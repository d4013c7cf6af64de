// Package config loads the fold server and CLI settings.
//
// Values come from an optional YAML file, then FOLD_* environment
// variables, then defaults. The merged map is decoded with mapstructure so
// durations ("30s") and booleans ("true") work the same from either source.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/fold/internal/logging"
	"github.com/aretw0/fold/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

type ServerConfig struct {
	Listen            string        `mapstructure:"listen"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	TwoChunk          bool          `mapstructure:"two_chunk"`
	BlockedUserAgents []string      `mapstructure:"blocked_user_agents"`
}

type SiteConfig struct {
	Root  string `mapstructure:"root"`
	Index string `mapstructure:"index"`
}

type SplitConfig struct {
	CriticalLine string `mapstructure:"critical_line"`
	Extent       string `mapstructure:"extent"`
	IndexMode    string `mapstructure:"index_mode"`
	ScriptURL    string `mapstructure:"script_url"`
}

type RulesConfig struct {
	File     string        `mapstructure:"file"`
	Watch    bool          `mapstructure:"watch"`
	Debounce time.Duration `mapstructure:"debounce"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type StoreConfig struct {
	Driver string      `mapstructure:"driver"`
	Dir    string      `mapstructure:"dir"`
	Redis  RedisConfig `mapstructure:"redis"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Config is the full settings tree.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Site    SiteConfig    `mapstructure:"site"`
	Split   SplitConfig   `mapstructure:"split"`
	Rules   RulesConfig   `mapstructure:"rules"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// envKeys maps environment variables onto dotted config keys.
var envKeys = map[string]string{
	"FOLD_LISTEN":              "server.listen",
	"FOLD_READ_TIMEOUT":        "server.read_timeout",
	"FOLD_WRITE_TIMEOUT":       "server.write_timeout",
	"FOLD_SHUTDOWN_TIMEOUT":    "server.shutdown_timeout",
	"FOLD_TWO_CHUNK":           "server.two_chunk",
	"FOLD_BLOCKED_USER_AGENTS": "server.blocked_user_agents",
	"FOLD_SITE_ROOT":           "site.root",
	"FOLD_CRITICAL_LINE":       "split.critical_line",
	"FOLD_EXTENT":              "split.extent",
	"FOLD_INDEX_MODE":          "split.index_mode",
	"FOLD_SCRIPT_URL":          "split.script_url",
	"FOLD_RULES_FILE":          "rules.file",
	"FOLD_RULES_WATCH":         "rules.watch",
	"FOLD_RULES_DEBOUNCE":      "rules.debounce",
	"FOLD_STORE":               "store.driver",
	"FOLD_STORE_DIR":           "store.dir",
	"FOLD_REDIS_ADDR":          "store.redis.addr",
	"FOLD_REDIS_PASSWORD":      "store.redis.password",
	"FOLD_REDIS_DB":            "store.redis.db",
	"FOLD_REDIS_PREFIX":        "store.redis.prefix",
	"FOLD_REDIS_TTL":           "store.redis.ttl",
	"FOLD_LOG_LEVEL":           "logging.level",
	"FOLD_LOG_FORMAT":          "logging.format",
	"FOLD_METRICS_ENABLED":     "metrics.enabled",
	"FOLD_METRICS_PATH":        "metrics.path",
}

// Load reads path (optional) and the process environment.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	raw := map[string]any{}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}

	for env, key := range envKeys {
		if v, ok := lookup(env); ok && strings.TrimSpace(v) != "" {
			setPath(raw, key, strings.TrimSpace(v))
		}
	}

	cfg := &Config{}
	if err := decode(raw, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the settings used when no file or environment is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// setPath stores v under a dotted key, creating nested maps as needed.
func setPath(m map[string]any, key string, v any) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 5 * time.Second
	}
	if cfg.Site.Root == "" {
		cfg.Site.Root = "."
	}
	if cfg.Site.Index == "" {
		cfg.Site.Index = "index.html"
	}
	if cfg.Split.Extent == "" {
		cfg.Split.Extent = "subtree"
	}
	if cfg.Split.IndexMode == "" {
		cfg.Split.IndexMode = "siblings"
	}
	if cfg.Rules.Debounce == 0 {
		cfg.Rules.Debounce = 250 * time.Millisecond
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = StoreMemory
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = ".fold/critical-line"
	}
	if cfg.Store.Redis.Addr == "" {
		cfg.Store.Redis.Addr = "localhost:6379"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = logging.FormatText
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := domain.ParseRegionExtent(c.Split.Extent); err != nil {
		errs = append(errs, fmt.Errorf("split.extent: %w", err))
	}
	if _, err := domain.ParseIndexMode(c.Split.IndexMode); err != nil {
		errs = append(errs, fmt.Errorf("split.index_mode: %w", err))
	}
	switch c.Store.Driver {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch strings.ToLower(c.Logging.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}
	if c.Rules.Watch && c.Rules.File == "" {
		errs = append(errs, errors.New("rules.file is required when rules.watch=true"))
	}
	if c.Rules.Debounce < 0 {
		errs = append(errs, errors.New("rules.debounce must be >= 0"))
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, errors.New("metrics.path must start with /"))
	}
	if len(errs) > 0 {
		return &domain.AggregateError{Errors: errs}
	}
	return nil
}
