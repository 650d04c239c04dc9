// manager.go implements the single-writer owner of the pane tree.
//
// All structural mutation goes through Manager methods, which run to
// completion under a write lock and are applied one at a time in arrival
// order. Renderers and asynchronous consumers (stream routing, persistence)
// read through Snapshot/accessor methods under a read lock, so they always
// observe a consistent tree; they never mutate it.
//
// After every settled mutation the manager invokes its change hook so a
// persistence layer can schedule a debounced save without the manager knowing
// anything about storage. Structural mutations additionally rebuild the
// derived id→node index; tab-level mutations reuse the existing index since
// no node ids change.
package pane

import (
	"log/slog"
	"sync"

	"github.com/treykane/vault-panes/logging"
)

// DefaultSplitRatio is used when SplitPane is called with a ratio outside
// (0,1), giving both children equal space.
const DefaultSplitRatio = 0.5

// Manager owns a pane tree, its derived index, and the active-pane tracker
// for one vault session.
type Manager struct {
	mu           sync.RWMutex
	root         *Node
	index        map[string]*Node
	activePaneID string
	onChange     func()
	log          *slog.Logger
}

// NewManager creates a manager holding the default tree: a single empty leaf,
// which is also the active pane.
func NewManager() *Manager {
	root := NewLeaf()
	return &Manager{
		root:         root,
		index:        buildIndex(root),
		activePaneID: root.ID,
		log:          logging.New("pane"),
	}
}

// OnChange registers fn to be called after every settled mutation. The hook
// runs outside the manager's lock, so it may call back into the manager.
func (m *Manager) OnChange(fn func()) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// mutate runs fn under the write lock and fires the change hook afterwards
// when fn reports a state change.
func (m *Manager) mutate(fn func() (bool, error)) (bool, error) {
	m.mu.Lock()
	changed, err := fn()
	hook := m.onChange
	m.mu.Unlock()
	if changed && hook != nil {
		hook()
	}
	return changed, err
}

// leaf resolves paneID to an existing leaf node. Caller holds the lock.
func (m *Manager) leaf(paneID string) (*Node, error) {
	node, ok := m.index[paneID]
	if !ok || !node.IsLeaf() {
		return nil, ErrInvalidPane
	}
	return node, nil
}

// SplitPane replaces the leaf paneID with a split of the given direction and
// ratio. The original leaf keeps its tabs and becomes the first (top/left)
// child; a new empty leaf becomes the second child and the new active pane.
// Returns the new leaf's id.
//
// Which child inherits the tabs is a deliberate policy: the existing pane
// stays where it was and the new empty pane opens beside/below it.
func (m *Manager) SplitPane(paneID string, dir Direction, ratio float64) (string, error) {
	var newLeafID string
	_, err := m.mutate(func() (bool, error) {
		node, err := m.leaf(paneID)
		if err != nil {
			return false, err
		}
		if ratio <= 0 || ratio >= 1 {
			ratio = DefaultSplitRatio
		}
		fresh := NewLeaf()
		split := newSplit(dir, ratio, node, fresh)
		m.replaceChild(node, split)
		m.index = buildIndex(m.root)
		m.activePaneID = fresh.ID
		newLeafID = fresh.ID
		return true, nil
	})
	return newLeafID, err
}

// ClosePane removes the leaf paneID and promotes its sibling subtree into the
// parent split's place, preserving the sibling's ids and contents. If the
// closed leaf was active, focus moves to the sibling's first leaf. Closing
// the root leaf fails with ErrCannotCloseRoot.
func (m *Manager) ClosePane(paneID string) error {
	_, err := m.mutate(func() (bool, error) {
		node, err := m.leaf(paneID)
		if err != nil {
			return false, err
		}
		if node.parent == nil {
			return false, ErrCannotCloseRoot
		}
		parent := node.parent
		sibling := parent.Children[0]
		if sibling == node {
			sibling = parent.Children[1]
		}
		m.replaceChild(parent, sibling)
		m.index = buildIndex(m.root)
		if m.activePaneID == paneID {
			m.activePaneID = sibling.FirstLeaf().ID
		}
		return true, nil
	})
	return err
}

// replaceChild swaps old for new in old's parent, or at the root. Caller
// holds the lock; the caller is responsible for rebuilding the index.
func (m *Manager) replaceChild(old, new *Node) {
	parent := old.parent
	if parent == nil {
		m.root = new
		new.parent = nil
		return
	}
	for i, child := range parent.Children {
		if child == old {
			parent.Children[i] = new
			break
		}
	}
	new.parent = parent
}

// SetActivePane moves focus to the leaf paneID. Setting the already-active
// pane is a no-op.
func (m *Manager) SetActivePane(paneID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.leaf(paneID); err != nil {
		return err
	}
	m.activePaneID = paneID
	return nil
}

// OpenDocument opens ref in the leaf paneID and returns the id of the tab now
// showing it.
//
// With forceNewTab false the open is non-persistent: if the pane's active tab
// is a preview tab it is reused in place (history reset to just ref),
// otherwise a new preview tab is appended. With forceNewTab true — a pinning
// action — a new permanent tab is always appended. The target tab becomes the
// leaf's active tab either way.
func (m *Manager) OpenDocument(paneID, ref string, forceNewTab bool) (string, error) {
	var tabID string
	_, err := m.mutate(func() (bool, error) {
		node, err := m.leaf(paneID)
		if err != nil {
			return false, err
		}
		if !forceNewTab {
			if active := node.ActiveTab(); active != nil && active.IsPreview {
				active.replaceDocument(ref)
				tabID = active.ID
				return true, nil
			}
		}
		tab := NewTab(ref, !forceNewTab)
		node.Tabs = append(node.Tabs, tab)
		node.ActiveTabID = tab.ID
		tabID = tab.ID
		return true, nil
	})
	return tabID, err
}

// PinTab makes a preview tab permanent so subsequent non-persistent opens in
// the pane spawn a new tab instead of replacing it. Pinning a permanent tab
// is a no-op.
func (m *Manager) PinTab(paneID, tabID string) error {
	_, err := m.mutate(func() (bool, error) {
		node, err := m.leaf(paneID)
		if err != nil {
			return false, err
		}
		tab, _ := node.Tab(tabID)
		if tab == nil {
			return false, ErrInvalidTab
		}
		if !tab.IsPreview {
			return false, nil
		}
		tab.IsPreview = false
		return true, nil
	})
	return err
}

// SetActiveTab switches the leaf's active tab, e.g. when the user clicks a
// tab strip entry. Selecting the already-active tab is a no-op.
func (m *Manager) SetActiveTab(paneID, tabID string) error {
	_, err := m.mutate(func() (bool, error) {
		node, err := m.leaf(paneID)
		if err != nil {
			return false, err
		}
		tab, _ := node.Tab(tabID)
		if tab == nil {
			return false, ErrInvalidTab
		}
		if node.ActiveTabID == tabID {
			return false, nil
		}
		node.ActiveTabID = tabID
		return true, nil
	})
	return err
}

// CloseTab removes the tab from its leaf. If it was the active tab, the tab
// immediately before it in tab order becomes active (or the next one when it
// was first). A leaf emptied of tabs stays open with no active tab; closing
// empty panes is a separate, explicit ClosePane.
func (m *Manager) CloseTab(paneID, tabID string) error {
	_, err := m.mutate(func() (bool, error) {
		node, err := m.leaf(paneID)
		if err != nil {
			return false, err
		}
		tab, i := node.Tab(tabID)
		if tab == nil {
			return false, ErrInvalidTab
		}
		node.Tabs = append(node.Tabs[:i], node.Tabs[i+1:]...)
		if node.ActiveTabID == tabID {
			switch {
			case len(node.Tabs) == 0:
				node.ActiveTabID = ""
			case i > 0:
				node.ActiveTabID = node.Tabs[i-1].ID
			default:
				node.ActiveTabID = node.Tabs[0].ID
			}
		}
		return true, nil
	})
	return err
}

// NavigateHistory moves the tab's history position one step back or forward
// and reports whether the position actually moved. At either boundary this is
// a no-op, not an error.
func (m *Manager) NavigateHistory(paneID, tabID string, dir HistoryDirection) (bool, error) {
	return m.mutate(func() (bool, error) {
		node, err := m.leaf(paneID)
		if err != nil {
			return false, err
		}
		tab, _ := node.Tab(tabID)
		if tab == nil {
			return false, ErrInvalidTab
		}
		return tab.Navigate(dir), nil
	})
}

// VisitDocument records an in-tab navigation (e.g. following a wiki link) to
// ref: forward history is discarded and ref becomes the tab's current
// document and newest history entry.
func (m *Manager) VisitDocument(paneID, tabID, ref string) (bool, error) {
	return m.mutate(func() (bool, error) {
		node, err := m.leaf(paneID)
		if err != nil {
			return false, err
		}
		tab, _ := node.Tab(tabID)
		if tab == nil {
			return false, ErrInvalidTab
		}
		return tab.Visit(ref), nil
	})
}

// MoveTab removes the tab from the source leaf and inserts it at targetIndex
// in the target leaf's tab list, making it the target's active tab. Moving a
// tab onto its current position is a changed=false no-op. targetIndex is
// clamped to the target's tab range.
func (m *Manager) MoveTab(sourcePaneID, tabID, targetPaneID string, targetIndex int) (bool, error) {
	return m.mutate(func() (bool, error) {
		src, err := m.leaf(sourcePaneID)
		if err != nil {
			return false, err
		}
		dst, err := m.leaf(targetPaneID)
		if err != nil {
			return false, err
		}
		tab, i := src.Tab(tabID)
		if tab == nil {
			return false, ErrInvalidTab
		}
		if src == dst && clampIndex(targetIndex, len(src.Tabs)-1) == i {
			return false, nil
		}

		src.Tabs = append(src.Tabs[:i], src.Tabs[i+1:]...)
		if len(src.Tabs) == 0 {
			src.ActiveTabID = ""
		} else if src.ActiveTabID == tabID && src != dst {
			if i > 0 {
				src.ActiveTabID = src.Tabs[i-1].ID
			} else {
				src.ActiveTabID = src.Tabs[0].ID
			}
		}

		at := clampIndex(targetIndex, len(dst.Tabs))
		dst.Tabs = append(dst.Tabs, nil)
		copy(dst.Tabs[at+1:], dst.Tabs[at:])
		dst.Tabs[at] = tab
		dst.ActiveTabID = tab.ID
		return true, nil
	})
}

func clampIndex(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}

// SetSplitRatio adjusts the divider of the split paneID. Resize drags call
// this repeatedly; the change hook fires each time and the persistence layer
// is expected to debounce.
func (m *Manager) SetSplitRatio(paneID string, ratio float64) error {
	_, err := m.mutate(func() (bool, error) {
		node, ok := m.index[paneID]
		if !ok || !node.IsSplit() {
			return false, ErrInvalidPane
		}
		if ratio <= 0 || ratio >= 1 {
			return false, ErrInvalidRatio
		}
		if node.SplitRatio == ratio {
			return false, nil
		}
		node.SplitRatio = ratio
		return true, nil
	})
	return err
}

// RewriteDocumentPath visits every leaf once and rewrites every tab whose
// current document or history references oldRef to use newRef instead. It
// reports whether any tab changed, so callers can skip persistence and
// re-render when the renamed document was not open anywhere.
func (m *Manager) RewriteDocumentPath(oldRef, newRef string) bool {
	changed, _ := m.mutate(func() (bool, error) {
		if oldRef == newRef {
			return false, nil
		}
		changed := false
		m.root.Walk(func(node *Node) bool {
			for _, tab := range node.Tabs {
				if tab.rewriteRef(oldRef, newRef) {
					changed = true
				}
			}
			return true
		})
		return changed, nil
	})
	return changed
}

// Replace installs a new tree, e.g. one deserialized from a persisted layout.
// The tree is validated first; on failure the current tree is kept and the
// error returned. Focus moves to the new tree's first leaf.
func (m *Manager) Replace(root *Node) error {
	_, err := m.mutate(func() (bool, error) {
		index := buildIndex(root)
		if err := ValidateIndex(root, index); err != nil {
			return false, err
		}
		m.root = root
		m.index = index
		m.activePaneID = root.FirstLeaf().ID
		return true, nil
	})
	return err
}

// Reset discards the tree and returns to the default single empty leaf. Used
// when the vault is closed or switched.
func (m *Manager) Reset() {
	m.mutate(func() (bool, error) {
		root := NewLeaf()
		m.root = root
		m.index = buildIndex(root)
		m.activePaneID = root.ID
		return true, nil
	})
}

// ActivePaneID returns the id of the currently focused leaf, or "" when no
// pane is focused. Asynchronous producers read this to route pane-scoped
// events.
func (m *Manager) ActivePaneID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activePaneID
}

// PaneExists reports whether id currently references a leaf in the tree.
func (m *Manager) PaneExists(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, ok := m.index[id]
	return ok && node.IsLeaf()
}

// Document returns the document shown by the leaf's active tab. ok is false
// when the pane does not exist or has no active tab.
func (m *Manager) Document(paneID string) (ref string, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, err := m.leaf(paneID)
	if err != nil {
		return "", false
	}
	tab := node.ActiveTab()
	if tab == nil {
		return "", false
	}
	return tab.DocumentRef, true
}

// Snapshot returns a deep copy of the current tree. Renderers and the
// persistence layer work from snapshots so in-flight reads never observe a
// half-applied mutation.
func (m *Manager) Snapshot() *Node {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.root.Clone()
}

// Validate checks the tree/index invariants. A non-nil result is a defect;
// the safest production recovery is rebuilding the index from the tree, which
// Replace and the structural mutations already do.
func (m *Manager) Validate() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ValidateIndex(m.root, m.index)
}
