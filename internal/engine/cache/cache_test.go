package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	a := Key("sea", "Shanghai (China)", "Felixstowe (United Kingdom)")
	b := Key("sea", " shanghai (china)", "felixstowe (united kingdom) ")
	assert.Equal(t, a, b, "keys are case and whitespace insensitive")
	assert.Contains(t, a, "sea-")

	assert.NotEqual(t, Key("sea", "ab", "c"), Key("sea", "a", "bc"))
	assert.NotEqual(t, a, Key("sea", "Felixstowe (United Kingdom)", "Shanghai (China)"))
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), true, DefaultTTLSeconds)
	require.NoError(t, err)

	key := Key("sea", "a", "b")
	require.NoError(t, store.SetJSON(key, 1234.5))

	var km float64
	require.NoError(t, store.GetJSON(key, &km))
	assert.InDelta(t, 1234.5, km, 1e-9)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, store.Delete(key))
	_, err = store.Get(key)
	assert.ErrorIs(t, err, ErrCacheNotFound)
	require.NoError(t, store.Delete(key), "deleting twice is fine")
}

func TestFileStore_Expired(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, true, MinTTLSeconds)
	require.NoError(t, err)

	stale := &Entry{
		Key:       "old",
		Data:      json.RawMessage(`1`),
		CreatedAt: time.Now().Add(-2 * time.Hour).UTC(),
		ExpiresAt: time.Now().Add(-time.Hour).UTC(),
	}
	raw, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.json"), raw, 0o600))
	require.NoError(t, store.Set("fresh", json.RawMessage(`2`)))

	removed, err := store.Clear(true)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Get("fresh")
	require.NoError(t, err)

	removed, err = store.Clear(false)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestFileStore_GetExpiredEntry(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, true, MinTTLSeconds)
	require.NoError(t, err)

	raw, err := json.Marshal(&Entry{Key: "k", Data: json.RawMessage(`1`), ExpiresAt: time.Now().Add(-time.Minute)})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "k.json"), raw, 0o600))

	_, err = store.Get("k")
	require.ErrorIs(t, err, ErrCacheExpired)
	_, statErr := os.Stat(filepath.Join(dir, "k.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStore_Disabled(t *testing.T) {
	store, err := NewFileStore("", false, 0)
	require.NoError(t, err)
	assert.False(t, store.IsEnabled())

	_, err = store.Get("k")
	require.ErrorIs(t, err, ErrCacheDisabled)
	require.ErrorIs(t, store.SetJSON("k", 1), ErrCacheDisabled)
}

func TestFileStore_Validation(t *testing.T) {
	_, err := NewFileStore("", true, DefaultTTLSeconds)
	require.Error(t, err)

	_, err = NewFileStore(t.TempDir(), true, 1)
	require.ErrorIs(t, err, ErrInvalidTTL)

	store, err := NewFileStore(t.TempDir(), true, DefaultTTLSeconds)
	require.NoError(t, err)
	_, err = store.Get("")
	require.ErrorIs(t, err, ErrInvalidCacheKey)
}
