package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vboxkit/vboxkit/internal/hypervisor"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	d := &Descriptor{
		UUID:       "abc-123",
		ExternalID: "11111111-0000-0000-0000-000000000000",
		Name:       "cernvm",
		State:      StateRunning,
		Parameters: map[string]string{"cpus": "2"},
	}
	require.NoError(t, store.Save(d))

	loaded, err := store.Load("abc-123")
	require.NoError(t, err)
	assert.Equal(t, d.UUID, loaded.UUID)
	assert.Equal(t, d.ExternalID, loaded.ExternalID)
	assert.Equal(t, d.Name, loaded.Name)
	assert.Equal(t, d.State, loaded.State)
	assert.Equal(t, "2", loaded.Parameters["cpus"])
}

func TestStoreLoadMissingFields(t *testing.T) {
	store := newTestStore(t)

	t.Run("missing name", func(t *testing.T) {
		path := filepath.Join(store.Dir(), "vbsess-noname.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"uuid":"noname"}`), 0644))

		_, err := store.Load("noname")
		assert.ErrorIs(t, err, hypervisor.ErrMissingField)
	})

	t.Run("missing uuid", func(t *testing.T) {
		path := filepath.Join(store.Dir(), "vbsess-nouuid.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"name":"something"}`), 0644))

		_, err := store.Load("nouuid")
		assert.ErrorIs(t, err, hypervisor.ErrMissingField)
	})
}

func TestStoreEnum(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&Descriptor{UUID: "one", Name: "a"}))
	require.NoError(t, store.Save(&Descriptor{UUID: "two", Name: "b"}))

	// Files outside the descriptor namespace are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "other.json"), []byte("{}"), 0644))

	ids, err := store.Enum()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one", "two"}, ids)
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&Descriptor{UUID: "gone", Name: "a"}))
	require.NoError(t, store.Delete("gone"))

	_, err := store.Load("gone")
	assert.Error(t, err)

	// Deleting again is a no-op.
	assert.NoError(t, store.Delete("gone"))
}
