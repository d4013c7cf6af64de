package ports

import (
	"context"

	"github.com/aretw0/fold/pkg/domain"
)

// ConfigStore persists critical-line configurations keyed by URL path.
// This plays the role of the property cache: configurations learned or
// curated for a page survive across requests and processes.
type ConfigStore interface {
	// Save stores the configuration for key, replacing any previous one.
	Save(ctx context.Context, key string, cfg domain.CriticalLineConfig) error

	// Load retrieves the configuration for key.
	// Returns domain.ErrConfigNotFound if nothing is stored.
	Load(ctx context.Context, key string) (domain.CriticalLineConfig, error)

	// Delete removes the configuration for key.
	Delete(ctx context.Context, key string) error

	// List returns every stored key.
	List(ctx context.Context) ([]string, error)
}
