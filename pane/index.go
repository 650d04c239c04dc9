// index.go implements the derived id→node lookup table for the pane tree.
//
// The index is never authoritative: it is rebuilt from scratch with a full
// pre-order traversal after every structural mutation (split, pane close,
// tree replacement). The tree holds at most tens of nodes, so a full rebuild
// is cheaper to reason about than incremental maintenance, and the tree
// remains the single source of truth — if the index ever diverges, rebuilding
// it from the tree is always a correct recovery.
package pane

import "fmt"

// buildIndex walks the subtree in pre-order and returns a map from node id to
// node. As a side effect it rewires every node's parent pointer, so a freshly
// indexed tree always has consistent back-references.
func buildIndex(root *Node) map[string]*Node {
	index := make(map[string]*Node)
	var walk func(node, parent *Node)
	walk = func(node, parent *Node) {
		node.parent = parent
		index[node.ID] = node
		for _, child := range node.Children {
			walk(child, node)
		}
	}
	walk(root, nil)
	return index
}

// ValidateTree indexes the subtree and checks every structural invariant.
// Used by the persistence layer to vet deserialized layouts before they are
// installed.
func ValidateTree(root *Node) error {
	return ValidateIndex(root, buildIndex(root))
}

// ValidateIndex checks the structural invariants of a tree/index pair:
//
//   - every id reachable from root is a key in index, and vice versa (no
//     missing and no phantom entries),
//   - no id appears twice in the tree,
//   - every split has exactly two children and a ratio in (0,1),
//   - every non-empty ActiveTabID refers to a tab in the same leaf,
//   - every tab's HistoryIndex is within its history bounds.
//
// A violation is a programming error, not a user-facing failure; this is used
// by tests, by layout loading, and defensively in development builds.
func ValidateIndex(root *Node, index map[string]*Node) error {
	seen := make(map[string]bool, len(index))
	var err error
	root.Walk(func(node *Node) bool {
		if seen[node.ID] {
			err = fmt.Errorf("duplicate node id %s", node.ID)
			return false
		}
		seen[node.ID] = true
		if _, ok := index[node.ID]; !ok {
			err = fmt.Errorf("node %s reachable from root but missing from index", node.ID)
			return false
		}
		if err = validateNode(node); err != nil {
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	for id := range index {
		if !seen[id] {
			return fmt.Errorf("index entry %s not reachable from root", id)
		}
	}
	return nil
}

func validateNode(node *Node) error {
	switch node.Type {
	case TypeSplit:
		if len(node.Children) != 2 {
			return fmt.Errorf("split %s has %d children, want 2", node.ID, len(node.Children))
		}
		if node.SplitRatio <= 0 || node.SplitRatio >= 1 {
			return fmt.Errorf("split %s has ratio %v outside (0,1)", node.ID, node.SplitRatio)
		}
		if node.Direction != Horizontal && node.Direction != Vertical {
			return fmt.Errorf("split %s has unknown direction %q", node.ID, node.Direction)
		}
	case TypeLeaf:
		if len(node.Children) != 0 {
			return fmt.Errorf("leaf %s has children", node.ID)
		}
		if node.ActiveTabID != "" {
			if tab, _ := node.Tab(node.ActiveTabID); tab == nil {
				return fmt.Errorf("leaf %s active tab %s not in tab list", node.ID, node.ActiveTabID)
			}
		}
		for _, tab := range node.Tabs {
			if len(tab.History) == 0 {
				return fmt.Errorf("tab %s has empty history", tab.ID)
			}
			if tab.HistoryIndex < 0 || tab.HistoryIndex >= len(tab.History) {
				return fmt.Errorf("tab %s history index %d out of range", tab.ID, tab.HistoryIndex)
			}
		}
	default:
		return fmt.Errorf("node %s has unknown type %q", node.ID, node.Type)
	}
	return nil
}
