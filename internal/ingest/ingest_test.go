package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestAllowedExt(t *testing.T) {
	for _, ext := range []string{".pdf", ".PDF", "jpg", ".jpeg", ".Png"} {
		assert.True(t, AllowedExt(ext), ext)
	}
	for _, ext := range []string{".gif", ".txt", ""} {
		assert.False(t, AllowedExt(ext), ext)
	}
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/a/.cache"))
	assert.False(t, IsHidden("/a/b.pdf"))
	assert.False(t, IsHidden("."))
	assert.False(t, IsHidden(".."))
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.pdf"))
	touch(t, filepath.Join(root, "a.PNG"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "sub", "c.jpeg"))
	touch(t, filepath.Join(root, ".hidden", "d.pdf"))
	touch(t, filepath.Join(root, ".e.jpg"))

	files, stats, err := ScanDirectory(root, true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.PNG"),
		filepath.Join(root, "b.pdf"),
		filepath.Join(root, "sub", "c.jpeg"),
	}, files)
	assert.Equal(t, uint32(3), stats.Matched)

	all, _, err := ScanDirectory(root, false)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestScanDirectory_Errors(t *testing.T) {
	_, _, err := ScanDirectory("  ", false)
	assert.Error(t, err)

	_, _, err = ScanDirectory(filepath.Join(t.TempDir(), "missing"), false)
	assert.Error(t, err)
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}

func TestStartWatcher_InitialScanAndNewFiles(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "old.pdf")
	touch(t, existing)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
		Debounce:    20 * time.Millisecond,
		SkipHidden:  true,
	})
	require.NoError(t, err)

	select {
	case p := <-events:
		assert.Equal(t, existing, p)
	case <-time.After(2 * time.Second):
		t.Fatal("initial file not emitted")
	}

	fresh := filepath.Join(root, "new.png")
	touch(t, fresh)
	touch(t, filepath.Join(root, "ignored.txt"))

	select {
	case p := <-events:
		assert.Equal(t, fresh, p)
	case <-time.After(2 * time.Second):
		t.Fatal("new file not emitted")
	}

	cancel()
	for range events {
	}
}
