// store.go reads and writes the per-vault layout file.
//
// The layout lives inside the vault's managed directory
// (<vault>/.vault-panes/pane-layout.json) so it travels with the vault, e.g.
// across machines via git sync, while staying out of the user's notes.
package layout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/treykane/vault-panes/logging"
	"github.com/treykane/vault-panes/pane"
)

const (
	// ManagedDirName is the vault-local directory holding module metadata.
	// The filesystem watcher skips it so layout writes never look like user
	// edits.
	ManagedDirName = ".vault-panes"

	layoutFileName = "pane-layout.json"
)

// Store loads and saves one vault's pane layout. It remembers unknown JSON
// fields seen at load time and re-attaches them on save.
type Store struct {
	vaultDir string
	log      *slog.Logger

	mu     sync.Mutex
	extras *extraSet
}

// NewStore creates a store for the given vault directory.
func NewStore(vaultDir string) *Store {
	return &Store{
		vaultDir: vaultDir,
		log:      logging.New("layout"),
		extras:   newExtraSet(),
	}
}

// Path returns the layout file location for this vault.
func (s *Store) Path() string {
	return filepath.Join(s.vaultDir, ManagedDirName, layoutFileName)
}

// Load reads the persisted layout and returns its pane tree.
//
// Any problem — no file yet, unreadable file, malformed JSON, or a tree that
// fails structural validation — results in the default single empty leaf. The
// layout is a convenience; startup never fails because of it. Problems other
// than a missing file are logged.
func (s *Store) Load() *pane.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("layout unreadable, starting fresh", "path", path, "error", err)
		}
		return pane.NewLeaf()
	}

	var doc layoutNode
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Warn("layout corrupt, starting fresh", "path", path, "error", err)
		return pane.NewLeaf()
	}

	extras := newExtraSet()
	root, err := decodeNode(&doc, extras)
	if err == nil {
		err = pane.ValidateTree(root)
	}
	if err != nil {
		s.log.Warn("layout invalid, starting fresh", "path", path, "error", err)
		return pane.NewLeaf()
	}

	s.extras = extras
	return root
}

// Save writes the tree atomically (temp file + rename) to the vault's layout
// file, creating the managed directory on first use. Callers treat failures
// as non-fatal; the debounced saver logs and swallows them.
func (s *Store) Save(root *pane.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := encodeNode(root, s.extras)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	path := s.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
