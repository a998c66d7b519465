package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveLoad(t *testing.T) {
	store := NewStore(t.TempDir())
	fetched := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	entry := CachedQuery{
		Dialect:     "JQL",
		Query:       "project = OCPBUGS ORDER BY updated DESC",
		Page:        Page{Start: 0, Limit: 25},
		Total:       1,
		LastFetched: fetched,
		Results: []Result{{
			Key:         "OCPBUGS-1",
			Title:       "Cluster upgrade stuck",
			Kind:        "Bug",
			Container:   "OCPBUGS",
			Status:      "New",
			Owner:       "Jane Doe",
			URL:         "https://issues.example.com/browse/OCPBUGS-1",
			LastUpdated: fetched.Add(-time.Hour),
			Labels:      []string{"UpgradeBlocker"},
		}},
	}

	require.NoError(t, store.Save(entry))

	loaded, err := store.Load(entry.Dialect, entry.Query, entry.Page)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, entry, *loaded)

	other, err := store.Load(entry.Dialect, entry.Query, Page{Start: 25, Limit: 25})
	require.NoError(t, err)
	assert.Nil(t, other, "different page is a different entry")
}

func TestStoreListDeletePurge(t *testing.T) {
	store := NewStore(t.TempDir())

	items, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, items)

	page := Page{Limit: 10}
	require.NoError(t, store.Save(CachedQuery{Dialect: "JQL", Query: "a = 1", Page: page, Results: []Result{{Key: "A-1"}}}))
	require.NoError(t, store.Save(CachedQuery{Dialect: "CQL", Query: "type = page", Page: page}))

	items, err = store.List()
	require.NoError(t, err)
	require.Len(t, items, 2)

	byQuery := map[string]CachedQueryItem{}
	for _, item := range items {
		byQuery[item.Query] = item
	}
	assert.Equal(t, 1, byQuery["a = 1"].ResultCount)
	assert.Equal(t, Key("JQL", "a = 1", page), byQuery["a = 1"].Name)

	require.NoError(t, store.Delete(byQuery["a = 1"].Name))
	require.NoError(t, store.Delete("does-not-exist"))

	removed, err := store.Purge()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	items, err = store.List()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestKey(t *testing.T) {
	page := Page{Start: 0, Limit: 25}
	assert.Equal(t, Key("JQL", "a = 1", page), Key("JQL", "a = 1", page))
	assert.NotEqual(t, Key("JQL", "a = 1", page), Key("CQL", "a = 1", page))
	assert.NotEqual(t, Key("JQL", "a = 1", page), Key("JQL", "a = 2", page))
	assert.Regexp(t, `^jql-[0-9a-f]{16}-0-25$`, Key("JQL", "a = 1", page))
}

func TestCachedQueryFresh(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	entry := &CachedQuery{LastFetched: now.Add(-time.Minute)}

	assert.True(t, entry.Fresh(now, 5*time.Minute))
	assert.False(t, entry.Fresh(now, 30*time.Second))
	assert.False(t, entry.Fresh(now, 0), "zero ttl disables the cache")

	var missing *CachedQuery
	assert.False(t, missing.Fresh(now, time.Hour))
}
