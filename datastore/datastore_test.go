package datastore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*DataStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	cfg := DefaultConfig(path)
	cfg.AutoSaveInterval = time.Hour
	cfg.BackupCount = 0

	ds, err := NewWithConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })
	return ds, path
}

func TestAddGetDelete(t *testing.T) {
	ds, _ := newTestStore(t)

	ds.Add("a", map[string]any{"x": 1})
	v, ok := ds.Get("a")
	require.True(t, ok)
	assert.NotNil(t, v)

	_, ok = ds.Get("missing")
	assert.False(t, ok)

	ds.Delete("a")
	_, ok = ds.Get("a")
	assert.False(t, ok)
}

func TestKeysSorted(t *testing.T) {
	ds, _ := newTestStore(t)
	ds.Add("b", 1)
	ds.Add("a", 2)
	ds.Add("c", 3)
	assert.Equal(t, []string{"a", "b", "c"}, ds.Keys())
	assert.Equal(t, 3, ds.Len())
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	cfg := DefaultConfig(path)
	cfg.AutoSaveInterval = time.Hour

	ds, err := NewWithConfig(cfg)
	require.NoError(t, err)
	ds.Add("user1", map[string]any{"mood": 0.5})
	require.NoError(t, ds.Close())

	reopened, err := NewWithConfig(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok := reopened.Get("user1")
	require.True(t, ok)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.5, m["mood"])
}

func TestUnchangedContentSkipsRewrite(t *testing.T) {
	ds, path := newTestStore(t)
	ds.Add("k", "v")
	require.NoError(t, ds.SaveToFile())

	before, err := os.Stat(path)
	require.NoError(t, err)
	mtime := before.ModTime()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, ds.SaveToFile())

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, mtime, after.ModTime(), "identical content should not be rewritten")
}

func TestCorruptSnapshotRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewWithConfig(DefaultConfig(path))
	assert.Error(t, err)
}

func TestOperationsAfterCloseAreNoOps(t *testing.T) {
	ds, _ := newTestStore(t)
	require.NoError(t, ds.Close())

	ds.Add("k", "v")
	_, ok := ds.Get("k")
	assert.False(t, ok)
	assert.Error(t, ds.SaveToFile())

	// Double close is safe.
	assert.NoError(t, ds.Close())
}
