package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	fs := NewFileStorage(path)

	_, ok, err := fs.Get(KeyUserID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.Set(KeyUserID, "u1"))
	require.NoError(t, fs.Set(KeyToken, "tok"))

	other := NewFileStorage(path)
	v, ok, err := other.Get(KeyUserID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "u1", v)

	require.NoError(t, other.Remove(KeyUserID))
	_, ok, err = fs.Get(KeyUserID)
	require.NoError(t, err)
	assert.False(t, ok)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, _, err := NewFileStorage(path).Get(KeyUserID)
	require.Error(t, err)
}

func TestFileStorage_RemoveMissingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	fs := NewFileStorage(path)

	require.NoError(t, fs.Remove(KeyUserID))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStorage_WatchSyncsStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	local := NewFileStorage(path)
	store := newStore(t, local)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, local.Watch(ctx, store.Sync))

	var mu sync.Mutex
	var seen []string
	store.Watch(func(id string) {
		mu.Lock()
		seen = append(seen, id)
		mu.Unlock()
	})

	// A second process signs in.
	remote := NewFileStorage(path)
	require.NoError(t, remote.Set(KeyUserID, "from-other-process"))

	require.Eventually(t, func() bool {
		return store.UserID() == "from-other-process"
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, remote.Remove(KeyUserID))
	require.Eventually(t, func() bool {
		return !store.IsAuthenticated()
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"from-other-process", ""}, seen)
}

func TestDiff(t *testing.T) {
	changes := diff(
		map[string]string{"a": "1", "b": "2"},
		map[string]string{"a": "1", "b": "3", "c": "4"},
	)
	got := map[string]*string{}
	for _, c := range changes {
		got[c.key] = c.value
	}
	require.Len(t, got, 2)
	assert.Equal(t, "3", *got["b"])
	assert.Equal(t, "4", *got["c"])

	changes = diff(map[string]string{"a": "1"}, map[string]string{})
	require.Len(t, changes, 1)
	assert.Nil(t, changes[0].value)
}
