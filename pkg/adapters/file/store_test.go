package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/fold/pkg/adapters/file"
	"github.com/aretw0/fold/pkg/domain"
	"github.com/aretw0/fold/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.ConfigStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunConfigStoreContract(t, store)
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	cfg := domain.CriticalLineConfig{Regions: []domain.RegionSpec{
		{Start: domain.NewSelector(domain.Step{Tag: "div", Attr: "id", Value: "main"})},
	}}
	require.NoError(t, store.Save(ctx, "/blog/post.html", cfg))

	data, err := os.ReadFile(filepath.Join(dir, "%2Fblog%2Fpost.html.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"config":"div[@id = \"main\"],"`)

	// Stray files are ignored by List.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/blog/post.html"}, keys)
}

func TestFileStore_CorruptRecord(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"config":"div["}`), 0644))

	_, err := store.Load(context.Background(), "bad")
	var perr *domain.ConfigParseError
	assert.ErrorAs(t, err, &perr)
}

func TestFileStore_MissingDirectory(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "nope"))
	keys, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}
