package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Clock map[string]uint64 `json:"clock"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store := New(t.TempDir(), kitlog.NewNopLogger())

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.nowFunc = func() time.Time {
		base = base.Add(time.Second)
		return base
	}

	return store
}

func TestStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	saved := snapshot{Clock: map[string]uint64{"n1": 3}}
	require.NoError(t, store.Save(saved))

	var loaded snapshot
	require.NoError(t, store.Load(&loaded))
	assert.Equal(t, saved, loaded)
}

func TestStore_LoadNewest(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(snapshot{Clock: map[string]uint64{"n1": 1}}))
	require.NoError(t, store.Save(snapshot{Clock: map[string]uint64{"n1": 2}}))
	require.NoError(t, store.Save(snapshot{Clock: map[string]uint64{"n1": 3}}))

	var loaded snapshot
	require.NoError(t, store.Load(&loaded))
	assert.Equal(t, uint64(3), loaded.Clock["n1"])
}

func TestStore_LoadEmptyDir(t *testing.T) {
	store := newTestStore(t)

	var loaded snapshot
	err := store.Load(&loaded)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_LoadMissingDir(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "never-created"), kitlog.NewNopLogger())

	var loaded snapshot
	err := store.Load(&loaded)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_LoadCorruptFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(snapshot{Clock: map[string]uint64{"n1": 1}}))

	names, err := store.snapshots()
	require.NoError(t, err)
	require.Len(t, names, 1)

	path := filepath.Join(store.dir, names[0])
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var loaded snapshot
	err = store.Load(&loaded)
	assert.ErrorIs(t, err, ErrBadFile)
}

func TestStore_IgnoresForeignFiles(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(snapshot{Clock: map[string]uint64{"n1": 1}}))
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, "zzz.log"), []byte("noise"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, "membership.99999999999999.tmp"), []byte("{"), 0o644))

	var loaded snapshot
	require.NoError(t, store.Load(&loaded))
	assert.Equal(t, uint64(1), loaded.Clock["n1"])
}

func TestStore_Prune(t *testing.T) {
	store := newTestStore(t)

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Save(snapshot{Clock: map[string]uint64{"n1": uint64(i)}}))
	}

	require.NoError(t, store.Prune(2))

	names, err := store.snapshots()
	require.NoError(t, err)
	assert.Len(t, names, 2)

	// The newest snapshot survives the prune.
	var loaded snapshot
	require.NoError(t, store.Load(&loaded))
	assert.Equal(t, uint64(5), loaded.Clock["n1"])
}

func TestStore_PruneFewerThanKeep(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(snapshot{Clock: map[string]uint64{"n1": 1}}))
	require.NoError(t, store.Prune(3))

	names, err := store.snapshots()
	require.NoError(t, err)
	assert.Len(t, names, 1)
}
