package ports_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/aretw0/fold/pkg/domain"
	"github.com/aretw0/fold/pkg/ports"
)

// MockStore is a map-backed ConfigStore used to check the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string]domain.CriticalLineConfig
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]domain.CriticalLineConfig),
	}
}

func (m *MockStore) Save(ctx context.Context, key string, cfg domain.CriticalLineConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = cfg
	return nil
}

func (m *MockStore) Load(ctx context.Context, key string) (domain.CriticalLineConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.data[key]
	if !ok {
		return domain.CriticalLineConfig{}, domain.ErrConfigNotFound
	}
	return cfg, nil
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func TestConfigStore_Contract(t *testing.T) {
	ports.RunConfigStoreContract(t, NewMockStore())
}

var _ ports.ConfigStore = (*MockStore)(nil)
