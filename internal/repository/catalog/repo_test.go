package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbomdex/sbomdex/internal/domain"
)

func openTestRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := Open(context.Background(), filepath.Join(t.TempDir(), "sboms.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testRecord(filename string) Record {
	return Record{
		Filename:        filename,
		AppName:         "firefox",
		Category:        "browser",
		OperatingSystem: "linux",
		AppBinaryType:   "desktop",
		Supplier:        "Mozilla",
		Manufacturer:    "Mozilla",
		Version:         "128.0",
		TotalComponents: 42,
		UniqueLicenses:  7,
	}
}

func TestInsertAndGet(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, testRecord("firefox_linux.json")))

	rec, err := repo.Get(ctx, "firefox_linux.json")
	require.NoError(t, err)
	assert.Equal(t, "firefox", rec.AppName)
	assert.Equal(t, 42, rec.TotalComponents)
	assert.False(t, rec.UploadDate.IsZero())
}

func TestInsertDuplicate(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, testRecord("a.json")))
	err := repo.Insert(ctx, testRecord("a.json"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestGetMissing(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.Get(context.Background(), "nope.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpsert(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	rec := testRecord("a.json")
	require.NoError(t, repo.Upsert(ctx, rec))

	rec.TotalComponents = 99
	require.NoError(t, repo.Upsert(ctx, rec))

	got, err := repo.Get(ctx, "a.json")
	require.NoError(t, err)
	assert.Equal(t, 99, got.TotalComponents)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDelete(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, testRecord("a.json")))
	require.NoError(t, repo.Delete(ctx, "a.json"))
	assert.ErrorIs(t, repo.Delete(ctx, "a.json"), domain.ErrNotFound)
}

func TestListFilters(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	ff := testRecord("firefox_linux.json")
	vlc := testRecord("vlc_windows.json")
	vlc.AppName = "vlc"
	vlc.Supplier = "VideoLAN"
	vlc.OperatingSystem = "windows"
	vlc.Category = "media"
	require.NoError(t, repo.Insert(ctx, ff))
	require.NoError(t, repo.Insert(ctx, vlc))

	t.Run("no filter returns everything", func(t *testing.T) {
		got, err := repo.List(ctx, Query{})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("keyword over app name", func(t *testing.T) {
		got, err := repo.List(ctx, Query{Keyword: "fire"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "firefox", got[0].AppName)
	})

	t.Run("keyword over supplier", func(t *testing.T) {
		got, err := repo.List(ctx, Query{Keyword: "VideoLAN"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "vlc", got[0].AppName)
	})

	t.Run("equality filters combine", func(t *testing.T) {
		got, err := repo.List(ctx, Query{OperatingSystem: "windows", Category: "media"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "vlc", got[0].AppName)
	})

	t.Run("limit and offset", func(t *testing.T) {
		got, err := repo.List(ctx, Query{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, got, 1)
		rest, err := repo.List(ctx, Query{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.NotEqual(t, got[0].Filename, rest[0].Filename)
	})
}

func TestAutocomplete(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for _, app := range []string{"firefox", "filezilla", "vlc"} {
		rec := testRecord(app + ".json")
		rec.AppName = app
		require.NoError(t, repo.Insert(ctx, rec))
	}

	got, err := repo.Autocomplete(ctx, "fi", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"filezilla", "firefox"}, got)
}

func TestFacetValues(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, testRecord("a.json")))
	other := testRecord("b.json")
	other.OperatingSystem = "windows"
	require.NoError(t, repo.Insert(ctx, other))

	facets, err := repo.FacetValues(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"linux", "windows"}, facets.OperatingSystems)
	assert.Equal(t, []string{"browser"}, facets.Categories)
}

func TestOSDistribution(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, testRecord("a.json")))
	require.NoError(t, repo.Insert(ctx, testRecord("b.json")))
	blank := testRecord("c.json")
	blank.OperatingSystem = ""
	require.NoError(t, repo.Insert(ctx, blank))

	dist, err := repo.OSDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"linux": 2, "Unknown": 1}, dist)
}

func TestFilenames(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, testRecord("a.json")))
	require.NoError(t, repo.Insert(ctx, testRecord("b.json")))

	names, err := repo.Filenames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json"}, names)
}
