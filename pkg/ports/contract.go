package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/fold/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunConfigStoreContract runs a suite of tests to verify that a ConfigStore
// implementation adheres to the interface contract.
func RunConfigStoreContract(t *testing.T, store ConfigStore) {
	ctx := context.Background()
	key := "/contract/" + time.Now().Format("20060102150405") + "/page.html"

	end := domain.NewSelector(domain.Step{Tag: "h1", Attr: "id", Value: "footer"})
	cfg := domain.CriticalLineConfig{Regions: []domain.RegionSpec{
		{Start: domain.NewSelector(domain.Step{Tag: "div", Attr: "id", Value: "container"}, domain.Step{Tag: "div", Index: 4})},
		{Start: domain.NewSelector(domain.Step{Tag: "img", Index: 3}), End: &end},
	}}

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, key, cfg)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, cfg.String(), loaded.String())
		require.Len(t, loaded.Regions, 2)
		assert.True(t, loaded.Regions[1].HasEnd())
	})

	t.Run("Overwrite", func(t *testing.T) {
		single := domain.CriticalLineConfig{Regions: []domain.RegionSpec{
			{Start: domain.NewSelector(domain.Step{Tag: "h1", Index: 2})},
		}}
		require.NoError(t, store.Save(ctx, key, single))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "h1[2],", loaded.String())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, key+"-missing")
		assert.ErrorIs(t, err, domain.ErrConfigNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, cfg))

		err := store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrConfigNotFound, "Load after Delete should return ErrConfigNotFound")
	})

	t.Run("List", func(t *testing.T) {
		k1 := key + "?v=1"
		k2 := key + "-2"
		_ = store.Save(ctx, k1, cfg)
		_ = store.Save(ctx, k2, cfg)

		defer func() {
			_ = store.Delete(ctx, k1)
			_ = store.Delete(ctx, k2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)
	})
}
