package pane

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIndexCoversWholeTree(t *testing.T) {
	m := NewManager()
	a := m.ActivePaneID()
	b, _ := m.SplitPane(a, Horizontal, 0.5)
	m.SplitPane(b, Vertical, 0.5)

	root := m.Snapshot()
	index := buildIndex(root)

	count := 0
	root.Walk(func(n *Node) bool {
		count++
		assert.Same(t, n, index[n.ID])
		return true
	})
	assert.Len(t, index, count)
	require.NoError(t, ValidateIndex(root, index))
}

func TestBuildIndexRewiresParents(t *testing.T) {
	root := &Node{ID: "s", Type: TypeSplit, Direction: Vertical, SplitRatio: 0.5,
		Children: []*Node{{ID: "l", Type: TypeLeaf}, {ID: "r", Type: TypeLeaf}}}
	index := buildIndex(root)

	assert.Nil(t, index["s"].Parent())
	assert.Same(t, root, index["l"].Parent())
	assert.Same(t, root, index["r"].Parent())
}

func TestValidateIndexDetectsPhantomEntry(t *testing.T) {
	root := NewLeaf()
	index := buildIndex(root)
	index["phantom"] = NewLeaf()

	err := ValidateIndex(root, index)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reachable")
}

func TestValidateIndexDetectsMissingEntry(t *testing.T) {
	root := &Node{ID: "s", Type: TypeSplit, Direction: Vertical, SplitRatio: 0.5,
		Children: []*Node{{ID: "l", Type: TypeLeaf}, {ID: "r", Type: TypeLeaf}}}
	index := buildIndex(root)
	delete(index, "r")

	err := ValidateIndex(root, index)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing from index")
}

func TestValidateIndexDetectsDuplicateIDs(t *testing.T) {
	root := &Node{ID: "s", Type: TypeSplit, Direction: Vertical, SplitRatio: 0.5,
		Children: []*Node{{ID: "dup", Type: TypeLeaf}, {ID: "dup", Type: TypeLeaf}}}
	index := buildIndex(root)

	err := ValidateIndex(root, index)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestValidateIndexDetectsStructuralDefects(t *testing.T) {
	tests := []struct {
		name string
		root *Node
		want string
	}{
		{
			name: "split with one child",
			root: &Node{ID: "s", Type: TypeSplit, Direction: Vertical, SplitRatio: 0.5,
				Children: []*Node{{ID: "l", Type: TypeLeaf}}},
			want: "children",
		},
		{
			name: "ratio out of range",
			root: &Node{ID: "s", Type: TypeSplit, Direction: Vertical, SplitRatio: 1.2,
				Children: []*Node{{ID: "l", Type: TypeLeaf}, {ID: "r", Type: TypeLeaf}}},
			want: "ratio",
		},
		{
			name: "unknown direction",
			root: &Node{ID: "s", Type: TypeSplit, Direction: "diagonal", SplitRatio: 0.5,
				Children: []*Node{{ID: "l", Type: TypeLeaf}, {ID: "r", Type: TypeLeaf}}},
			want: "direction",
		},
		{
			name: "dangling active tab",
			root: &Node{ID: "l", Type: TypeLeaf, ActiveTabID: "ghost"},
			want: "active tab",
		},
		{
			name: "history index out of range",
			root: &Node{ID: "l", Type: TypeLeaf, ActiveTabID: "t",
				Tabs: []*Tab{{ID: "t", DocumentRef: "/a.md", History: []string{"/a.md"}, HistoryIndex: 3}}},
			want: "history index",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIndex(tt.root, buildIndex(tt.root))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
