// Package watch detects external renames and moves in a vault directory.
//
// The pane manager never polls for renames itself; it only consumes
// (oldRef, newRef) events and rewrites open tabs. This package is the
// files-layer side of that contract. OS-level filesystem event APIs are
// deliberately not used — they behave differently across platforms and fail
// on network mounts — so the watcher polls:
//
//  1. Every poll interval (default 2 s) it walks the vault and snapshots
//     every entry: path, modification time in nanoseconds, size, directory
//     flag.
//  2. It diffs the new snapshot against the previous one. A removed file and
//     an added file with identical size and mtime are paired into a single
//     Rename event; everything else becomes Create/Remove/Modify. A renamed
//     directory shows up as per-file Rename events for everything under it,
//     which is exactly what tab rewriting needs.
//
// The managed .vault-panes directory and .git are excluded so layout writes
// and git bookkeeping never surface as vault changes.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/treykane/vault-panes/layout"
	"github.com/treykane/vault-panes/logging"
)

// DefaultInterval is the poll cadence when none is configured.
const DefaultInterval = 2 * time.Second

// Op classifies a detected change.
type Op int

const (
	OpCreate Op = iota
	OpModify
	OpRemove
	OpRename
)

func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// Event is one observed vault change. For OpRename, OldPath is the previous
// location and Path the new one; other ops leave OldPath empty. Paths are
// vault-relative with forward slashes, matching document refs in tabs.
type Event struct {
	Op      Op
	Path    string
	OldPath string
}

// entry records the attributes compared between snapshots. UnixNano rather
// than time.Time keeps equality trivial and timezone-free.
type entry struct {
	modNano int64
	size    int64
	isDir   bool
}

type snapshot map[string]entry

// Watcher polls one vault directory and emits change events.
type Watcher struct {
	vaultDir string
	interval time.Duration
	events   chan Event
	log      *slog.Logger
}

// New creates a watcher for vaultDir. A non-positive interval falls back to
// DefaultInterval.
func New(vaultDir string, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		vaultDir: vaultDir,
		interval: interval,
		events:   make(chan Event, 64),
		log:      logging.New("watch"),
	}
}

// Events returns the channel change events are delivered on. It is closed
// when Run returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run polls until ctx is cancelled. Scan errors are logged and the previous
// snapshot is kept, so a transiently unreadable vault produces no spurious
// remove events.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.events)

	prev, err := scanVault(w.vaultDir)
	if err != nil {
		w.log.Warn("initial vault scan failed", "vault", w.vaultDir, "error", err)
		prev = snapshot{}
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		next, err := scanVault(w.vaultDir)
		if err != nil {
			w.log.Warn("vault scan failed", "vault", w.vaultDir, "error", err)
			continue
		}
		for _, ev := range diffSnapshots(prev, next) {
			select {
			case w.events <- ev:
			case <-ctx.Done():
				return
			}
		}
		prev = next
	}
}

// scanVault walks the vault and captures every entry outside the skipped
// directories.
func scanVault(vaultDir string) (snapshot, error) {
	snap := snapshot{}
	err := filepath.WalkDir(vaultDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		rel, relErr := filepath.Rel(vaultDir, path)
		if relErr != nil || rel == "." {
			return nil
		}
		if d.IsDir() && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil // entry vanished mid-walk
		}
		snap[filepath.ToSlash(rel)] = entry{
			modNano: info.ModTime().UnixNano(),
			size:    info.Size(),
			isDir:   d.IsDir(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func skipDir(name string) bool {
	return name == layout.ManagedDirName || name == ".git"
}

// diffSnapshots compares two snapshots and classifies the changes. Removed
// and added files with identical size and mtime are paired as renames; the
// pairing walks both sides in sorted path order so it is deterministic when
// several files share a fingerprint.
func diffSnapshots(prev, next snapshot) []Event {
	var removed, added []string
	var events []Event

	for path, old := range prev {
		now, ok := next[path]
		switch {
		case !ok:
			removed = append(removed, path)
		case !old.isDir && !now.isDir && old != now:
			events = append(events, Event{Op: OpModify, Path: path})
		}
	}
	for path := range next {
		if _, ok := prev[path]; !ok {
			added = append(added, path)
		}
	}
	sort.Strings(removed)
	sort.Strings(added)

	claimed := make(map[string]bool)
	for _, oldPath := range removed {
		old := prev[oldPath]
		if old.isDir {
			continue
		}
		for _, newPath := range added {
			if claimed[newPath] {
				continue
			}
			now := next[newPath]
			if now.isDir || now.modNano != old.modNano || now.size != old.size {
				continue
			}
			claimed[newPath] = true
			events = append(events, Event{Op: OpRename, Path: newPath, OldPath: oldPath})
			break
		}
	}

	for _, path := range removed {
		if prev[path].isDir || !renamedFrom(events, path) {
			events = append(events, Event{Op: OpRemove, Path: path})
		}
	}
	for _, path := range added {
		if !next[path].isDir && claimed[path] {
			continue
		}
		events = append(events, Event{Op: OpCreate, Path: path})
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].Path != events[j].Path {
			return events[i].Path < events[j].Path
		}
		return events[i].Op < events[j].Op
	})
	return events
}

func renamedFrom(events []Event, oldPath string) bool {
	for _, ev := range events {
		if ev.Op == OpRename && ev.OldPath == oldPath {
			return true
		}
	}
	return false
}
