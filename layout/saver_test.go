package layout

import (
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treykane/vault-panes/pane"
)

func TestSaverCoalescesRapidSchedules(t *testing.T) {
	vault := t.TempDir()
	store := NewStore(vault)
	_, root := buildSampleTree(t)

	var snapshots atomic.Int32
	saver := NewSaver(store, func() *pane.Node {
		snapshots.Add(1)
		return root
	}, 50*time.Millisecond)
	defer saver.Close()

	// A burst of mutations (e.g. a resize drag) schedules many times but
	// must settle into a single write.
	for i := 0; i < 10; i++ {
		saver.Schedule()
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		_, err := os.Stat(store.Path())
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), snapshots.Load(), "burst of schedules coalesces into one save")
}

func TestSaverFlushWritesImmediately(t *testing.T) {
	vault := t.TempDir()
	store := NewStore(vault)
	_, root := buildSampleTree(t)
	saver := NewSaver(store, func() *pane.Node { return root }, time.Hour)
	defer saver.Close()

	saver.Schedule()
	saver.Flush()

	_, err := os.Stat(store.Path())
	require.NoError(t, err, "flush must not wait for the debounce window")
}

func TestSaverCloseStopsFurtherSchedules(t *testing.T) {
	vault := t.TempDir()
	store := NewStore(vault)
	_, root := buildSampleTree(t)

	var snapshots atomic.Int32
	saver := NewSaver(store, func() *pane.Node {
		snapshots.Add(1)
		return root
	}, 10*time.Millisecond)

	saver.Close()
	after := snapshots.Load()
	saver.Schedule()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, snapshots.Load(), "schedules after close are ignored")
}

func TestSaverSwallowsWriteFailures(t *testing.T) {
	// Point the store at a vault path that is a file, so MkdirAll fails.
	dir := t.TempDir()
	blocked := dir + "/not-a-dir"
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	_, root := buildSampleTree(t)
	saver := NewSaver(NewStore(blocked), func() *pane.Node { return root }, time.Millisecond)
	saver.Schedule()
	time.Sleep(50 * time.Millisecond)
	// Nothing to assert beyond "no panic": failures are logged and dropped.
	saver.Close()
}
