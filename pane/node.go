package pane

import "github.com/google/uuid"

// Direction indicates how a split node divides its area.
type Direction string

const (
	Horizontal Direction = "horizontal" // side by side
	Vertical   Direction = "vertical"   // stacked top/bottom
)

// NodeType tags a Node as a visible pane or a split container.
type NodeType string

const (
	TypeLeaf  NodeType = "leaf"
	TypeSplit NodeType = "split"
)

// Node is one node of the pane tree. A leaf holds an ordered tab list and the
// id of its active tab; a split holds exactly two children, a direction, and
// the fraction of space given to the first child.
//
// The tree is a proper binary tree: every split has exactly two children
// (first = top/left, second = bottom/right) and every id is unique across the
// whole tree.
type Node struct {
	ID   string
	Type NodeType

	// Split fields.
	Direction  Direction
	SplitRatio float64 // in (0,1); share of the first child
	Children   []*Node

	// Leaf fields.
	Tabs        []*Tab
	ActiveTabID string // "" when the leaf has no tabs

	// parent is maintained by buildIndex; nil at the root.
	parent *Node
}

// newID returns a fresh unique node/tab id.
func newID() string {
	return uuid.New().String()
}

// NewLeaf creates an empty leaf pane with no tabs.
func NewLeaf() *Node {
	return &Node{ID: newID(), Type: TypeLeaf}
}

func newSplit(dir Direction, ratio float64, first, second *Node) *Node {
	return &Node{
		ID:         newID(),
		Type:       TypeSplit,
		Direction:  dir,
		SplitRatio: ratio,
		Children:   []*Node{first, second},
	}
}

// IsLeaf reports whether the node is a visible pane.
func (n *Node) IsLeaf() bool { return n.Type == TypeLeaf }

// IsSplit reports whether the node is a split container.
func (n *Node) IsSplit() bool { return n.Type == TypeSplit }

// Parent returns the enclosing split node, or nil at the root. Valid only on
// nodes reachable from a manager-owned or freshly indexed tree.
func (n *Node) Parent() *Node { return n.parent }

// Walk traverses the subtree in pre-order, calling fn for each node. It stops
// early if fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// FirstLeaf descends to the first (top/left-most) leaf of the subtree.
func (n *Node) FirstLeaf() *Node {
	node := n
	for node.IsSplit() {
		node = node.Children[0]
	}
	return node
}

// LeafCount returns the number of leaves in the subtree.
func (n *Node) LeafCount() int {
	count := 0
	n.Walk(func(node *Node) bool {
		if node.IsLeaf() {
			count++
		}
		return true
	})
	return count
}

// Tab returns the tab with the given id and its position in the leaf's tab
// order, or (nil, -1) if absent.
func (n *Node) Tab(id string) (*Tab, int) {
	for i, tab := range n.Tabs {
		if tab.ID == id {
			return tab, i
		}
	}
	return nil, -1
}

// ActiveTab returns the leaf's active tab, or nil when the leaf is empty.
func (n *Node) ActiveTab() *Tab {
	if n.ActiveTabID == "" {
		return nil
	}
	tab, _ := n.Tab(n.ActiveTabID)
	return tab
}

// Clone returns a deep copy of the subtree, preserving ids. Parent pointers
// in the copy are wired for the copied subtree only.
func (n *Node) Clone() *Node {
	dup := *n
	dup.parent = nil
	if len(n.Children) > 0 {
		dup.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			dup.Children[i] = child.Clone()
			dup.Children[i].parent = &dup
		}
	}
	if len(n.Tabs) > 0 {
		dup.Tabs = make([]*Tab, len(n.Tabs))
		for i, tab := range n.Tabs {
			dup.Tabs[i] = tab.Clone()
		}
	}
	return &dup
}

// Equal reports structural equality of two subtrees: ids, types, directions,
// ratios, tab lists (including history state), and active tab ids all match.
// Parent pointers are ignored.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.ID != other.ID || n.Type != other.Type {
		return false
	}
	if n.Direction != other.Direction || n.SplitRatio != other.SplitRatio {
		return false
	}
	if len(n.Children) != len(other.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	if n.ActiveTabID != other.ActiveTabID || len(n.Tabs) != len(other.Tabs) {
		return false
	}
	for i := range n.Tabs {
		if !tabsEqual(n.Tabs[i], other.Tabs[i]) {
			return false
		}
	}
	return true
}

func tabsEqual(a, b *Tab) bool {
	if a.ID != b.ID || a.DocumentRef != b.DocumentRef || a.IsPreview != b.IsPreview {
		return false
	}
	if a.HistoryIndex != b.HistoryIndex || len(a.History) != len(b.History) {
		return false
	}
	for i := range a.History {
		if a.History[i] != b.History[i] {
			return false
		}
	}
	return true
}
