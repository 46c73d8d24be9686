package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

func TestRelevant_FiltersEvents(t *testing.T) {
	dir := t.TempDir()

	require.True(t, relevant(fsnotify.Event{Name: "docs/page.md", Op: fsnotify.Write}))
	require.True(t, relevant(fsnotify.Event{Name: "docs/page.MD", Op: fsnotify.Create}))
	require.True(t, relevant(fsnotify.Event{Name: "docs/index.html", Op: fsnotify.Remove}))
	require.True(t, relevant(fsnotify.Event{Name: dir, Op: fsnotify.Create}))

	require.False(t, relevant(fsnotify.Event{Name: "docs/page.md", Op: fsnotify.Chmod}))
	require.False(t, relevant(fsnotify.Event{Name: "docs/.page.md.swp", Op: fsnotify.Write}))
	require.False(t, relevant(fsnotify.Event{Name: "docs/data.json", Op: fsnotify.Write}))
	require.False(t, relevant(fsnotify.Event{Name: filepath.Join(dir, "gone.bin"), Op: fsnotify.Remove}))
}

func TestWatcher_DebouncedScanRequest(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "guides"), 0o750))

	w, err := NewWatcher(root, 50*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scans := make(chan string, 1)
	go w.Run(ctx, scans)

	// A burst of writes must collapse into one request.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "guides", "page.md"), []byte("# v\n"), 0o600))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case cause := <-scans:
		require.Equal(t, CauseWatch, cause)
	case <-time.After(5 * time.Second):
		t.Fatal("no scan request after markdown change")
	}

	select {
	case <-scans:
		t.Fatal("burst produced a second scan request")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_PicksUpNewDirectories(t *testing.T) {
	root := t.TempDir()

	w, err := NewWatcher(root, 20*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scans := make(chan string, 1)
	go w.Run(ctx, scans)

	sub := filepath.Join(root, "new")
	require.NoError(t, os.Mkdir(sub, 0o750))

	// Drain the request caused by the directory creation itself.
	select {
	case <-scans:
	case <-time.After(5 * time.Second):
		t.Fatal("no scan request after directory creation")
	}

	// Give the watcher a moment to register the new directory, then a file
	// inside it must still be noticed.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "inner.md"), []byte("# inner\n"), 0o600))

	select {
	case cause := <-scans:
		require.Equal(t, CauseWatch, cause)
	case <-time.After(5 * time.Second):
		t.Fatal("no scan request for file in new directory")
	}
}

func TestNewWatcher_MissingRootFails(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "absent"), time.Millisecond, nil)
	require.Error(t, err)
}
