package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/treykane/vault-panes/stream"
	"github.com/treykane/vault-panes/watch"
)

// saveTickMsg fires when the layout save debounce window elapses. The seq
// field is compared against the controller's current save sequence; a stale
// tick (another mutation happened since it was scheduled) is dropped, which
// is what coalesces a burst of mutations into a single write.
type saveTickMsg struct {
	seq uint64
}

// LayoutSavedMsg reports a completed background layout write. Err is nil on
// success; failures are already logged and are non-fatal, the message exists
// so hosts can show a transient status if they care.
type LayoutSavedMsg struct {
	Err error
}

// VaultEventMsg wraps one filesystem event observed in the vault. Renames are
// applied to the pane tree by the controller before the message reaches the
// host; everything else is informational (e.g. to refresh a file tree).
type VaultEventMsg struct {
	Event watch.Event
}

// WatchClosedMsg reports that the vault watcher stopped and no further
// VaultEventMsgs will arrive.
type WatchClosedMsg struct{}

// StreamChunkMsg carries one chunk of asynchronously produced content (e.g.
// AI-generated text) tagged with its request token. The controller routes it
// through the stream router; chunks for superseded requests or closed panes
// are dropped and never reach the sink.
type StreamChunkMsg struct {
	Req  stream.Request
	Text string
}

// LayoutChangedMsg tells the host the pane tree changed and surfaces should
// re-render from the manager. Emitted after every key-driven mutation and
// after an applied rename rewrite.
type LayoutChangedMsg struct{}

func layoutChanged() tea.Msg { return LayoutChangedMsg{} }
