package filestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbomdex/sbomdex/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSaveAndLoad(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("a.json", []byte(`{"artifacts":[]}`)))
	data, err := store.Load("a.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"artifacts":[]}`, string(data))
	assert.True(t, store.Exists("a.json"))
}

func TestSaveDuplicate(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("a.json", []byte(`{}`)))
	assert.ErrorIs(t, store.Save("a.json", []byte(`{}`)), domain.ErrAlreadyExists)
}

func TestLoadParsed(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("ok.json", []byte(`{"components":[{"name":"curl"}]}`)))
	doc, err := store.LoadParsed("ok.json")
	require.NoError(t, err)
	assert.Contains(t, doc, "components")

	require.NoError(t, store.Save("bad.json", []byte(`{not json`)))
	_, err = store.LoadParsed("bad.json")
	assert.ErrorIs(t, err, domain.ErrMalformedDocument)

	_, err = store.LoadParsed("missing.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("a.json", []byte(`{}`)))
	require.NoError(t, store.Delete("a.json"))
	assert.False(t, store.Exists("a.json"))
	assert.ErrorIs(t, store.Delete("a.json"), domain.ErrNotFound)
}

func TestList(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("b.json", []byte(`{}`)))
	require.NoError(t, store.Save("a.json", []byte(`{}`)))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json"}, names)
}

func TestFilenameValidation(t *testing.T) {
	store := newTestStore(t)

	for _, bad := range []string{
		"", "../escape.json", "dir/escape.json", `dir\escape.json`,
		"no-extension", ".", "..",
	} {
		t.Run(bad, func(t *testing.T) {
			assert.ErrorIs(t, store.Save(bad, []byte(`{}`)), domain.ErrInvalidInput)
			_, err := store.Load(bad)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
