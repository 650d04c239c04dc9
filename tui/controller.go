// Package tui glues the pane manager into a Bubble Tea host application.
//
// The package owns no rendering. It translates key presses into manager
// operations, debounces layout persistence with stale-tick sequence numbers,
// pumps vault watcher events into the update loop, and routes streamed
// content through the stream router. The host embeds a Controller in its
// model, forwards messages it does not handle itself, and re-renders from the
// manager whenever a LayoutChangedMsg arrives.
package tui

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/treykane/vault-panes/layout"
	"github.com/treykane/vault-panes/logging"
	"github.com/treykane/vault-panes/pane"
	"github.com/treykane/vault-panes/stream"
	"github.com/treykane/vault-panes/watch"
)

// Controller wires pane operations, persistence, and async event routing for
// one vault session. Create it with NewController and drive it from the host
// model's Update.
type Controller struct {
	manager *pane.Manager
	store   *layout.Store
	router  *stream.Router
	watcher *watch.Watcher
	keys    KeyMap
	delay   time.Duration
	log     *slog.Logger

	// saveSeq invalidates in-flight save ticks: every mutation increments
	// it, and only a tick carrying the current value triggers a write.
	saveSeq uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithKeyMap replaces the default key bindings, e.g. after applying config
// overrides.
func WithKeyMap(k KeyMap) Option {
	return func(c *Controller) { c.keys = k }
}

// WithSaveDebounce sets the quiet period before a layout write. Non-positive
// values keep the default.
func WithSaveDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithWatcher attaches a vault watcher whose events the controller pumps into
// the update loop.
func WithWatcher(w *watch.Watcher) Option {
	return func(c *Controller) { c.watcher = w }
}

// WithStreamSink attaches a sink for routed stream chunks. Without one,
// StreamChunkMsgs are dropped.
func WithStreamSink(sink stream.Sink) Option {
	return func(c *Controller) {
		c.router = stream.NewRouter(c.manager, sink)
	}
}

// NewController creates a controller for the given manager and layout store.
func NewController(mgr *pane.Manager, store *layout.Store, opts ...Option) *Controller {
	c := &Controller{
		manager: mgr,
		store:   store,
		keys:    DefaultKeyMap(),
		delay:   layout.DefaultSaveDebounce,
		log:     logging.New("tui"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Manager returns the pane manager the controller drives.
func (c *Controller) Manager() *pane.Manager { return c.manager }

// KeyMap returns the active key bindings, e.g. for a help view.
func (c *Controller) KeyMap() KeyMap { return c.keys }

// BeginStream registers a new streaming request for the active pane and
// returns its token. The producer tags every StreamChunkMsg with it.
func (c *Controller) BeginStream() stream.Request {
	if c.router == nil {
		return stream.Request{}
	}
	return c.router.Begin(c.manager.ActivePaneID())
}

// Init returns the startup commands: the watcher pump, if one is attached.
// The caller owns the watcher's Run goroutine and context.
func (c *Controller) Init() tea.Cmd {
	if c.watcher == nil {
		return nil
	}
	return c.waitForVaultEvent()
}

// Update handles controller-owned messages. handled reports whether the
// message was consumed; the host should process unhandled messages itself.
func (c *Controller) Update(msg tea.Msg) (cmd tea.Cmd, handled bool) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return c.handleKey(msg)
	case saveTickMsg:
		return c.handleSaveTick(msg), true
	case VaultEventMsg:
		return c.handleVaultEvent(msg), true
	case StreamChunkMsg:
		if c.router != nil {
			c.router.Deliver(msg.Req, msg.Text)
		}
		return nil, true
	case WatchClosedMsg:
		return nil, true
	}
	return nil, false
}

// handleKey dispatches a key press against the key map. Errors from manager
// operations are user-recoverable no-ops (wrong pane, root close); they are
// logged at debug level and otherwise ignored, matching how the UI treats
// them.
func (c *Controller) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	active := c.manager.ActivePaneID()
	var err error
	switch {
	case key.Matches(msg, c.keys.SplitVertical):
		_, err = c.manager.SplitPane(active, pane.Vertical, pane.DefaultSplitRatio)
	case key.Matches(msg, c.keys.SplitHorizontal):
		_, err = c.manager.SplitPane(active, pane.Horizontal, pane.DefaultSplitRatio)
	case key.Matches(msg, c.keys.ClosePane):
		err = c.manager.ClosePane(active)
	case key.Matches(msg, c.keys.FocusNext):
		err = c.cycleFocus(1)
	case key.Matches(msg, c.keys.FocusPrev):
		err = c.cycleFocus(-1)
	case key.Matches(msg, c.keys.CloseTab):
		err = c.withActiveTab(active, c.manager.CloseTab)
	case key.Matches(msg, c.keys.NextTab):
		err = c.cycleTab(active, 1)
	case key.Matches(msg, c.keys.PrevTab):
		err = c.cycleTab(active, -1)
	case key.Matches(msg, c.keys.PinTab):
		err = c.withActiveTab(active, c.manager.PinTab)
	case key.Matches(msg, c.keys.HistoryBack):
		err = c.navigateActive(active, pane.HistoryBack)
	case key.Matches(msg, c.keys.HistoryForward):
		err = c.navigateActive(active, pane.HistoryForward)
	default:
		return nil, false
	}
	if err != nil {
		c.log.Debug("pane key ignored", "key", msg.String(), "error", err)
		return nil, true
	}
	return tea.Batch(layoutChanged, c.ScheduleSave()), true
}

// withActiveTab applies op to the active tab of the given pane, a no-op when
// the pane has none.
func (c *Controller) withActiveTab(paneID string, op func(paneID, tabID string) error) error {
	tabID, ok := c.activeTabID(paneID)
	if !ok {
		return nil
	}
	return op(paneID, tabID)
}

func (c *Controller) navigateActive(paneID string, dir pane.HistoryDirection) error {
	tabID, ok := c.activeTabID(paneID)
	if !ok {
		return nil
	}
	_, err := c.manager.NavigateHistory(paneID, tabID, dir)
	return err
}

func (c *Controller) activeTabID(paneID string) (string, bool) {
	leaf := c.findLeaf(paneID)
	if leaf == nil || leaf.ActiveTabID == "" {
		return "", false
	}
	return leaf.ActiveTabID, true
}

func (c *Controller) findLeaf(paneID string) *pane.Node {
	var found *pane.Node
	c.manager.Snapshot().Walk(func(n *pane.Node) bool {
		if n.ID == paneID && n.IsLeaf() {
			found = n
			return false
		}
		return true
	})
	return found
}

// cycleFocus moves the active pane forward or backward through the leaves in
// pre-order, wrapping at the ends.
func (c *Controller) cycleFocus(step int) error {
	var leaves []string
	c.manager.Snapshot().Walk(func(n *pane.Node) bool {
		if n.IsLeaf() {
			leaves = append(leaves, n.ID)
		}
		return true
	})
	if len(leaves) < 2 {
		return nil
	}
	active := c.manager.ActivePaneID()
	at := 0
	for i, id := range leaves {
		if id == active {
			at = i
			break
		}
	}
	next := (at + step + len(leaves)) % len(leaves)
	return c.manager.SetActivePane(leaves[next])
}

// cycleTab switches the pane's active tab forward or backward in tab order,
// wrapping at the ends.
func (c *Controller) cycleTab(paneID string, step int) error {
	leaf := c.findLeaf(paneID)
	if leaf == nil || len(leaf.Tabs) < 2 {
		return nil
	}
	at := 0
	for i, tab := range leaf.Tabs {
		if tab.ID == leaf.ActiveTabID {
			at = i
			break
		}
	}
	next := (at + step + len(leaf.Tabs)) % len(leaf.Tabs)
	return c.manager.SetActiveTab(paneID, leaf.Tabs[next].ID)
}

// ScheduleSave arms the layout save debounce and returns the tick command.
// Hosts call it after mutating the manager directly (e.g. opening a document
// from a file tree); key-driven mutations schedule it automatically.
func (c *Controller) ScheduleSave() tea.Cmd {
	c.saveSeq++
	seq := c.saveSeq
	return tea.Tick(c.delay, func(time.Time) tea.Msg {
		return saveTickMsg{seq: seq}
	})
}

// handleSaveTick writes the layout if the tick is still current. A stale seq
// means another mutation re-armed the debounce after this tick was scheduled,
// so this one is dropped and the later tick will write instead.
func (c *Controller) handleSaveTick(msg saveTickMsg) tea.Cmd {
	if msg.seq != c.saveSeq {
		return nil
	}
	root := c.manager.Snapshot()
	return func() tea.Msg {
		err := c.store.Save(root)
		if err != nil {
			// Non-fatal: documents are saved independently of layout.
			c.log.Error("layout save failed", "path", c.store.Path(), "error", err)
		}
		return LayoutSavedMsg{Err: err}
	}
}

// handleVaultEvent applies rename events to the pane tree and re-arms the
// watcher pump. Hosts that track vault contents inspect the same message in
// their own Update before forwarding it here.
func (c *Controller) handleVaultEvent(msg VaultEventMsg) tea.Cmd {
	var cmds []tea.Cmd
	if c.watcher != nil {
		cmds = append(cmds, c.waitForVaultEvent())
	}
	if msg.Event.Op == watch.OpRename {
		if c.manager.RewriteDocumentPath(msg.Event.OldPath, msg.Event.Path) {
			cmds = append(cmds, layoutChanged, c.ScheduleSave())
		}
	}
	return tea.Batch(cmds...)
}

// waitForVaultEvent blocks on the watcher channel and converts the next
// event into a message. Each delivery re-arms itself via handleVaultEvent.
func (c *Controller) waitForVaultEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-c.watcher.Events()
		if !ok {
			return WatchClosedMsg{}
		}
		return VaultEventMsg{Event: ev}
	}
}
