package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/utils"
)

func sampleIndex() types.NavigationIndex {
	return types.NavigationIndex{
		Locations: []types.CFI{
			"epubcfi(/6/2!/4/2/1:0)",
			"epubcfi(/6/2!/4/2/1:1600)",
			"epubcfi(/6/4!/4/2[chap02],/1:0,/1:12)",
		},
		TotalLocations: 3,
		BookKey:        "moby-dick",
	}
}

func sampleKey() string {
	return utils.NewSourceIdentifier(nil).CacheKey("https://example.com/moby-dick.epub", 1600)
}

func caches(t *testing.T) map[string]LocationsCache {
	t.Helper()
	file, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })

	return map[string]LocationsCache{
		"memory": NewMemoryCache(),
		"file":   file,
	}
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, cache := range caches(t) {
		t.Run(name, func(t *testing.T) {
			key := sampleKey()

			_, ok, err := cache.Load(ctx, key)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, cache.Save(ctx, key, sampleIndex()))
			got, ok, err := cache.Load(ctx, key)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, sampleIndex(), got)

			require.NoError(t, cache.Delete(ctx, key))
			_, ok, err = cache.Load(ctx, key)
			require.NoError(t, err)
			assert.False(t, ok)

			// deleting a missing record is not an error
			assert.NoError(t, cache.Delete(ctx, key))
		})
	}
}

func TestCacheRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	for name, cache := range caches(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "../../etc/passwd", "ABCDEF0123456789", "short"} {
				_, _, err := cache.Load(ctx, key)
				assert.ErrorIs(t, err, ErrInvalidKey, key)
				assert.ErrorIs(t, cache.Save(ctx, key, sampleIndex()), ErrInvalidKey, key)
			}

			bad := sampleIndex()
			bad.TotalLocations = 7
			assert.ErrorIs(t, cache.Save(ctx, sampleKey(), bad), ErrInvalidIndex)
		})
	}
}

func TestCacheDoesNotAliasCallerMemory(t *testing.T) {
	ctx := context.Background()
	for name, cache := range caches(t) {
		t.Run(name, func(t *testing.T) {
			index := sampleIndex()
			require.NoError(t, cache.Save(ctx, sampleKey(), index))
			index.Locations[0] = "changed"

			got, ok, err := cache.Load(ctx, sampleKey())
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, types.CFI("epubcfi(/6/2!/4/2/1:0)"), got.Locations[0])

			got.Locations[1] = "changed"
			again, _, err := cache.Load(ctx, sampleKey())
			require.NoError(t, err)
			assert.Equal(t, types.CFI("epubcfi(/6/2!/4/2/1:1600)"), again.Locations[1])
		})
	}
}

func TestFileCacheWritesCompressedRecords(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewFileCache(dir)
	require.NoError(t, err)
	defer cache.Close()

	key := sampleKey()
	require.NoError(t, cache.Save(context.Background(), key, sampleIndex()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files are cleaned up")
	assert.Equal(t, key+recordExt, entries[0].Name())

	raw, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	// zstd frame magic number
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, raw[:4])
}

func TestFileCacheDiscardsCorruptRecords(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewFileCache(dir)
	require.NoError(t, err)
	defer cache.Close()

	key := sampleKey()
	path := filepath.Join(dir, key+recordExt)
	require.NoError(t, os.WriteFile(path, []byte("not zstd"), 0o644))

	_, ok, err := cache.Load(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoFileExists(t, path)
}

func TestFileCacheSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileCache(dir)
	require.NoError(t, err)
	require.NoError(t, first.Save(context.Background(), sampleKey(), sampleIndex()))
	require.NoError(t, first.Close())

	second, err := NewFileCache(dir)
	require.NoError(t, err)
	defer second.Close()

	got, ok, err := second.Load(context.Background(), sampleKey())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleIndex(), got)
}

func TestFileCacheHonoursCancellation(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	defer cache.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, cache.Save(ctx, sampleKey(), sampleIndex()), context.Canceled)
	_, _, err = cache.Load(ctx, sampleKey())
	assert.ErrorIs(t, err, context.Canceled)
}
