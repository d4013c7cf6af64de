package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/fold/pkg/adapters/memory"
	"github.com/aretw0/fold/pkg/domain"
	"github.com/aretw0/fold/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunConfigStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	cfg := domain.CriticalLineConfig{Regions: []domain.RegionSpec{
		{Start: domain.NewSelector(domain.Step{Tag: "h1"})},
	}}
	require.NoError(t, store.Save(ctx, "/a", cfg))
	cfg.Regions[0] = domain.RegionSpec{Start: domain.NewSelector(domain.Step{Tag: "p"})}

	loaded, err := store.Load(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, "h1,", loaded.String())
}
