package pane

// HistoryDirection selects which way NavigateHistory moves through a tab's
// back/forward stack.
type HistoryDirection int

const (
	HistoryBack HistoryDirection = iota
	HistoryForward
)

// Tab is a single open-document reference within a leaf pane, with its own
// back/forward navigation history.
//
// Invariant: outside of an in-flight navigation, History[HistoryIndex] equals
// DocumentRef, and 0 <= HistoryIndex < len(History).
type Tab struct {
	ID          string
	DocumentRef string

	// IsPreview marks a tab that is replaced in place when another document
	// is opened non-persistently, instead of spawning a new tab.
	IsPreview bool

	History      []string
	HistoryIndex int
}

// NewTab creates a tab open on ref with a single-entry history.
func NewTab(ref string, preview bool) *Tab {
	return &Tab{
		ID:          newID(),
		DocumentRef: ref,
		IsPreview:   preview,
		History:     []string{ref},
	}
}

// Clone returns a deep copy of the tab.
func (t *Tab) Clone() *Tab {
	dup := *t
	dup.History = append([]string(nil), t.History...)
	return &dup
}

// Navigate moves HistoryIndex one step back or forward and updates
// DocumentRef to match. At either boundary it is a no-op and returns false.
func (t *Tab) Navigate(dir HistoryDirection) bool {
	next := t.HistoryIndex
	switch dir {
	case HistoryBack:
		next--
	case HistoryForward:
		next++
	}
	if next < 0 || next >= len(t.History) {
		return false
	}
	t.HistoryIndex = next
	t.DocumentRef = t.History[next]
	return true
}

// Visit records an in-tab navigation to ref: any forward entries are
// discarded, ref is appended, and the tab's current document becomes ref.
// Visiting the document the tab is already on is a no-op.
func (t *Tab) Visit(ref string) bool {
	if ref == t.DocumentRef {
		return false
	}
	t.History = append(t.History[:t.HistoryIndex+1], ref)
	t.HistoryIndex = len(t.History) - 1
	t.DocumentRef = ref
	return true
}

// replaceDocument resets the tab onto ref with a fresh single-entry history.
// Used when a preview tab is reused for a newly opened document.
func (t *Tab) replaceDocument(ref string) {
	t.DocumentRef = ref
	t.History = []string{ref}
	t.HistoryIndex = 0
}

// rewriteRef replaces every occurrence of old with new in the tab's current
// document reference and history. Returns true if anything changed. A
// document can appear multiple times in one history (A→B→A), so the whole
// slice is scanned.
func (t *Tab) rewriteRef(old, new string) bool {
	changed := false
	if t.DocumentRef == old {
		t.DocumentRef = new
		changed = true
	}
	for i, ref := range t.History {
		if ref == old {
			t.History[i] = new
			changed = true
		}
	}
	return changed
}
