package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treykane/vault-panes/layout"
)

func TestDiffSnapshotsPairsRenames(t *testing.T) {
	prev := snapshot{
		"notes/a.md": {modNano: 100, size: 10},
		"notes/b.md": {modNano: 200, size: 20},
	}
	next := snapshot{
		"notes/renamed.md": {modNano: 100, size: 10},
		"notes/b.md":       {modNano: 200, size: 20},
	}

	events := diffSnapshots(prev, next)
	require.Len(t, events, 1)
	assert.Equal(t, OpRename, events[0].Op)
	assert.Equal(t, "notes/a.md", events[0].OldPath)
	assert.Equal(t, "notes/renamed.md", events[0].Path)
}

func TestDiffSnapshotsDirectoryRenameEmitsPerFileRenames(t *testing.T) {
	prev := snapshot{
		"old":      {modNano: 1, isDir: true},
		"old/a.md": {modNano: 100, size: 10},
		"old/b.md": {modNano: 200, size: 20},
	}
	next := snapshot{
		"new":      {modNano: 1, isDir: true},
		"new/a.md": {modNano: 100, size: 10},
		"new/b.md": {modNano: 200, size: 20},
	}

	events := diffSnapshots(prev, next)

	renames := map[string]string{}
	for _, ev := range events {
		if ev.Op == OpRename {
			renames[ev.OldPath] = ev.Path
		}
	}
	assert.Equal(t, map[string]string{
		"old/a.md": "new/a.md",
		"old/b.md": "new/b.md",
	}, renames, "every file under a renamed directory gets its own rename event")
}

func TestDiffSnapshotsDistinguishesModifyFromRename(t *testing.T) {
	prev := snapshot{"a.md": {modNano: 100, size: 10}}
	next := snapshot{"a.md": {modNano: 150, size: 12}}

	events := diffSnapshots(prev, next)
	require.Len(t, events, 1)
	assert.Equal(t, OpModify, events[0].Op)
}

func TestDiffSnapshotsUnpairedChangesAreCreateRemove(t *testing.T) {
	prev := snapshot{"gone.md": {modNano: 100, size: 10}}
	next := snapshot{"fresh.md": {modNano: 999, size: 3}}

	events := diffSnapshots(prev, next)
	require.Len(t, events, 2)

	ops := map[string]Op{}
	for _, ev := range events {
		ops[ev.Path] = ev.Op
	}
	assert.Equal(t, OpCreate, ops["fresh.md"])
	assert.Equal(t, OpRemove, ops["gone.md"])
}

func TestDiffSnapshotsAmbiguousFingerprintsPairDeterministically(t *testing.T) {
	prev := snapshot{
		"a.md": {modNano: 100, size: 10},
		"b.md": {modNano: 100, size: 10},
	}
	next := snapshot{
		"x.md": {modNano: 100, size: 10},
		"y.md": {modNano: 100, size: 10},
	}

	events := diffSnapshots(prev, next)
	require.Len(t, events, 2)
	// Sorted-order pairing: a→x, b→y, every time.
	assert.Equal(t, "a.md", events[0].OldPath)
	assert.Equal(t, "x.md", events[0].Path)
	assert.Equal(t, "b.md", events[1].OldPath)
	assert.Equal(t, "y.md", events[1].Path)
}

func TestScanVaultSkipsManagedAndGitDirs(t *testing.T) {
	vault := t.TempDir()
	mustWrite(t, filepath.Join(vault, "note.md"), "hi")
	mustWrite(t, filepath.Join(vault, layout.ManagedDirName, "pane-layout.json"), "{}")
	mustWrite(t, filepath.Join(vault, ".git", "HEAD"), "ref")
	mustWrite(t, filepath.Join(vault, "sub", "deep.md"), "hello")

	snap, err := scanVault(vault)
	require.NoError(t, err)

	assert.Contains(t, snap, "note.md")
	assert.Contains(t, snap, "sub/deep.md")
	assert.Contains(t, snap, "sub")
	for path := range snap {
		assert.NotContains(t, path, layout.ManagedDirName)
		assert.NotContains(t, path, ".git")
	}
}

func TestWatcherDetectsRenameEndToEnd(t *testing.T) {
	vault := t.TempDir()
	oldPath := filepath.Join(vault, "a.md")
	mustWrite(t, oldPath, "content")
	stamp := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(oldPath, stamp, stamp))

	w := New(vault, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Let the watcher take its baseline snapshot, then rename.
	time.Sleep(60 * time.Millisecond)
	require.NoError(t, os.Rename(oldPath, filepath.Join(vault, "b.md")))

	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			if ev.Op == OpRename {
				assert.Equal(t, "a.md", ev.OldPath)
				assert.Equal(t, "b.md", ev.Path)
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for rename event")
		}
	}
}

func TestWatcherStopsOnCancel(t *testing.T) {
	w := New(t.TempDir(), 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}

	// The events channel closes with the run loop.
	_, open := <-w.Events()
	assert.False(t, open)
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
