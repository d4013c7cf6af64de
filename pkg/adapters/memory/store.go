package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/fold/pkg/domain"
)

// Store implements ports.ConfigStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.CriticalLineConfig
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.CriticalLineConfig),
	}
}

// Save stores a copy of cfg.
func (s *Store) Save(ctx context.Context, key string, cfg domain.CriticalLineConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = clone(cfg)
	return nil
}

// Load retrieves a copy of the stored configuration.
func (s *Store) Load(ctx context.Context, key string) (domain.CriticalLineConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.data[key]
	if !ok {
		return domain.CriticalLineConfig{}, domain.ErrConfigNotFound
	}
	return clone(cfg), nil
}

// Delete removes the configuration.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns stored keys in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Selectors are immutable, so copying the region slice isolates callers.
func clone(cfg domain.CriticalLineConfig) domain.CriticalLineConfig {
	regions := make([]domain.RegionSpec, len(cfg.Regions))
	copy(regions, cfg.Regions)
	return domain.CriticalLineConfig{Regions: regions}
}
