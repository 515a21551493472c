package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"rawcull/internal/catalog"
	"rawcull/internal/config"
	"rawcull/internal/errors"
	"rawcull/pkg/testutils"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isRAF(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".raf")
}

// nextChange waits for a change to path, skipping unrelated events.
func nextChange(t *testing.T, ch <-chan Change, path string) Change {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case c, ok := <-ch:
			require.True(t, ok, "Change channel closed unexpectedly")
			if c.Path == path {
				return c
			}
		case <-timeout:
			t.Fatalf("Timeout waiting for change to %s", path)
		}
	}
}

func TestWatcherFsnotify(t *testing.T) {
	tempDir := t.TempDir()

	w, err := New(tempDir, isRAF)
	require.NoError(t, err, "New watcher creation failed")
	require.NoError(t, w.Start(), "Failed to start watcher")
	defer w.Stop()
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start(), "second start fails")

	// Allow a brief moment for fsnotify to initialize watches
	time.Sleep(100 * time.Millisecond)

	// Non-matching files are ignored
	testutils.WriteFile(t, tempDir, "notes.txt", []byte("x"))

	rafPath := filepath.Join(tempDir, "DSCF0001.RAF")
	testutils.WriteFile(t, tempDir, "DSCF0001.RAF", []byte("raw"))
	created := nextChange(t, w.Changes(), rafPath)
	assert.True(t, created.Op.Has(fsnotify.Create) || created.Op.Has(fsnotify.Write))
	assert.False(t, created.Removed())
	assert.False(t, created.Timestamp.IsZero())

	require.NoError(t, os.Remove(rafPath))
	removed := nextChange(t, w.Changes(), rafPath)
	for !removed.Removed() {
		removed = nextChange(t, w.Changes(), rafPath)
	}
	assert.True(t, removed.Removed())
}

func TestWatcherStopClosesChannel(t *testing.T) {
	w, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())

	w.Stop()
	w.Stop()
	assert.False(t, w.IsRunning())
	assert.Error(t, w.Start())

	select {
	case _, ok := <-w.Changes():
		assert.False(t, ok, "Change channel should be closed after stop")
	case <-time.After(1 * time.Second):
		t.Error("Timeout waiting for change channel to close after stop")
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), nil)
	require.Error(t, err)
	assert.True(t, errors.IsDirectoryNotFound(err))
}

func TestRescannerPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFile(t, dir, "a.raf", []byte("raw"))
	cat, err := catalog.Scan(dir, catalog.Options{Extensions: config.DefaultExtensions})
	require.NoError(t, err)

	r, err := NewRescanner(cat, 50*time.Millisecond)
	require.NoError(t, err)

	var mu sync.Mutex
	var batches [][]Change
	rescanned := make(chan struct{}, 10)
	r.SetCallback(func(changes []Change, err error) {
		assert.NoError(t, err)
		mu.Lock()
		batches = append(batches, changes)
		mu.Unlock()
		select {
		case rescanned <- struct{}{}:
		default:
		}
	})
	require.NoError(t, r.Start())
	defer r.Stop()
	assert.Error(t, r.Start())
	time.Sleep(100 * time.Millisecond)

	testutils.WriteFile(t, dir, "b.nef", []byte("raw"))
	testutils.WriteFile(t, dir, "c.dng", []byte("raw"))
	testutils.WriteFile(t, dir, "readme.txt", []byte("ignored"))

	deadline := time.After(3 * time.Second)
	for cat.Len() < 3 {
		select {
		case <-rescanned:
		case <-deadline:
			t.Fatalf("catalog has %d entries, want 3", cat.Len())
		}
	}

	status := r.Status()
	assert.True(t, status.Running)
	assert.Equal(t, cat.Dir(), status.Directory)
	assert.GreaterOrEqual(t, status.Rescans, 1)
	assert.GreaterOrEqual(t, status.Changes, 2)
	assert.False(t, status.LastActivity.IsZero())

	mu.Lock()
	for _, batch := range batches {
		for _, c := range batch {
			assert.NotEqual(t, "readme.txt", filepath.Base(c.Path))
		}
	}
	mu.Unlock()

	r.Stop()
	assert.False(t, r.Status().Running)
}
