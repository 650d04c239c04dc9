// Package layout persists the pane tree for a vault.
//
// The wire format is a JSON tree of nodes:
//
//	{id, type: "leaf"|"split", direction?, splitRatio?,
//	 tabs?: [{id, documentRef, isPreview, history, historyIndex}],
//	 activeTabId?, children?: [node, node]}
//
// Layout is a convenience, not data of record: document content is saved
// elsewhere, so a missing, corrupt, or structurally invalid layout file falls
// back to a default single-leaf tree instead of failing startup, and write
// failures are logged and swallowed.
//
// Fields this version does not know about are captured during decode and
// merged back on encode, keyed by node/tab id, so round-tripping a layout
// written by a newer version preserves its extensions for nodes that still
// exist.
package layout

import (
	"encoding/json"
	"fmt"

	"github.com/treykane/vault-panes/pane"
)

// Known wire keys. Anything else is preserved verbatim in extra.
var (
	nodeKeys = []string{"id", "type", "direction", "splitRatio", "tabs", "activeTabId", "children"}
	tabKeys  = []string{"id", "documentRef", "isPreview", "history", "historyIndex"}
)

type layoutNode struct {
	ID          string        `json:"id"`
	Type        string        `json:"type"`
	Direction   string        `json:"direction,omitempty"`
	SplitRatio  float64       `json:"splitRatio,omitempty"`
	Tabs        []*layoutTab  `json:"tabs,omitempty"`
	ActiveTabID string        `json:"activeTabId,omitempty"`
	Children    []*layoutNode `json:"children,omitempty"`

	extra map[string]json.RawMessage
}

type layoutTab struct {
	ID           string   `json:"id"`
	DocumentRef  string   `json:"documentRef"`
	IsPreview    bool     `json:"isPreview"`
	History      []string `json:"history"`
	HistoryIndex int      `json:"historyIndex"`

	extra map[string]json.RawMessage
}

// splitRaw unmarshals data into a field map, moves the known keys into a
// second map for field decoding, and leaves the remainder as the extras.
func splitRaw(data []byte, known []string) (fields, extra map[string]json.RawMessage, err error) {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}
	fields = map[string]json.RawMessage{}
	for _, key := range known {
		if v, ok := raw[key]; ok {
			fields[key] = v
			delete(raw, key)
		}
	}
	return fields, raw, nil
}

// mergeRaw marshals v, then overlays its fields on top of extra so unknown
// fields survive while known fields always win.
func mergeRaw(v any, extra map[string]json.RawMessage) ([]byte, error) {
	base, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return base, nil
	}
	merged := map[string]json.RawMessage{}
	for k, raw := range extra {
		merged[k] = raw
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(base, &known); err != nil {
		return nil, err
	}
	for k, raw := range known {
		merged[k] = raw
	}
	return json.Marshal(merged)
}

func (n *layoutNode) UnmarshalJSON(data []byte) error {
	fields, extra, err := splitRaw(data, nodeKeys)
	if err != nil {
		return err
	}
	type plain layoutNode // avoid recursing into this method
	var p plain
	rejoined, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(rejoined, &p); err != nil {
		return err
	}
	*n = layoutNode(p)
	n.extra = extra
	return nil
}

func (n *layoutNode) MarshalJSON() ([]byte, error) {
	type plain layoutNode
	return mergeRaw((*plain)(n), n.extra)
}

func (t *layoutTab) UnmarshalJSON(data []byte) error {
	fields, extra, err := splitRaw(data, tabKeys)
	if err != nil {
		return err
	}
	type plain layoutTab
	var p plain
	rejoined, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(rejoined, &p); err != nil {
		return err
	}
	*t = layoutTab(p)
	t.extra = extra
	return nil
}

func (t *layoutTab) MarshalJSON() ([]byte, error) {
	type plain layoutTab
	return mergeRaw((*plain)(t), t.extra)
}

// encodeNode converts a pane tree into its wire form, re-attaching any extras
// remembered from the last load for ids that still exist.
func encodeNode(node *pane.Node, extras *extraSet) *layoutNode {
	doc := &layoutNode{
		ID:          node.ID,
		Type:        string(node.Type),
		Direction:   string(node.Direction),
		SplitRatio:  node.SplitRatio,
		ActiveTabID: node.ActiveTabID,
	}
	if extras != nil {
		doc.extra = extras.nodes[node.ID]
	}
	for _, tab := range node.Tabs {
		tabDoc := &layoutTab{
			ID:           tab.ID,
			DocumentRef:  tab.DocumentRef,
			IsPreview:    tab.IsPreview,
			History:      tab.History,
			HistoryIndex: tab.HistoryIndex,
		}
		if extras != nil {
			tabDoc.extra = extras.tabs[tab.ID]
		}
		doc.Tabs = append(doc.Tabs, tabDoc)
	}
	for _, child := range node.Children {
		doc.Children = append(doc.Children, encodeNode(child, extras))
	}
	return doc
}

// decodeNode converts a wire node back into a pane tree, collecting extras
// for later re-attachment. Structural validation happens afterwards on the
// whole tree.
func decodeNode(doc *layoutNode, extras *extraSet) (*pane.Node, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("node without id")
	}
	node := &pane.Node{
		ID:          doc.ID,
		Type:        pane.NodeType(doc.Type),
		Direction:   pane.Direction(doc.Direction),
		SplitRatio:  doc.SplitRatio,
		ActiveTabID: doc.ActiveTabID,
	}
	if len(doc.extra) > 0 {
		extras.nodes[doc.ID] = doc.extra
	}
	for _, tabDoc := range doc.Tabs {
		if tabDoc.ID == "" {
			return nil, fmt.Errorf("tab without id in node %s", doc.ID)
		}
		tab := &pane.Tab{
			ID:           tabDoc.ID,
			DocumentRef:  tabDoc.DocumentRef,
			IsPreview:    tabDoc.IsPreview,
			History:      tabDoc.History,
			HistoryIndex: tabDoc.HistoryIndex,
		}
		if len(tab.History) == 0 && tab.DocumentRef != "" {
			// Older layouts may predate per-tab history.
			tab.History = []string{tab.DocumentRef}
			tab.HistoryIndex = 0
		}
		if len(tabDoc.extra) > 0 {
			extras.tabs[tabDoc.ID] = tabDoc.extra
		}
		node.Tabs = append(node.Tabs, tab)
	}
	for _, childDoc := range doc.Children {
		child, err := decodeNode(childDoc, extras)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// extraSet remembers unknown wire fields between a load and later saves.
type extraSet struct {
	nodes map[string]map[string]json.RawMessage
	tabs  map[string]map[string]json.RawMessage
}

func newExtraSet() *extraSet {
	return &extraSet{
		nodes: map[string]map[string]json.RawMessage{},
		tabs:  map[string]map[string]json.RawMessage{},
	}
}
