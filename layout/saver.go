// saver.go debounces layout writes.
//
// Mutations arrive in bursts — a resize drag emits a ratio update per mouse
// move — so the saver coalesces Schedule calls into a single write after a
// quiet period instead of writing once per mutation. Persistence failures are
// logged and swallowed; they never block or surface to the UI.
package layout

import (
	"log/slog"
	"sync"
	"time"

	"github.com/treykane/vault-panes/logging"
	"github.com/treykane/vault-panes/pane"
)

// DefaultSaveDebounce is the quiet period after the last mutation before the
// layout is written.
const DefaultSaveDebounce = 500 * time.Millisecond

// Saver writes layout snapshots after mutations settle. Wire it to a manager
// with mgr.OnChange(saver.Schedule); the source callback supplies the tree to
// persist, typically mgr.Snapshot.
type Saver struct {
	store  *Store
	source func() *pane.Node
	delay  time.Duration
	log    *slog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// NewSaver creates a saver writing trees from source to store after delay.
// A non-positive delay falls back to DefaultSaveDebounce.
func NewSaver(store *Store, source func() *pane.Node, delay time.Duration) *Saver {
	if delay <= 0 {
		delay = DefaultSaveDebounce
	}
	return &Saver{
		store:  store,
		source: source,
		delay:  delay,
		log:    logging.New("layout"),
	}
}

// Schedule (re)starts the debounce timer. Safe to call from any goroutine;
// rapid successive calls produce one write.
func (s *Saver) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.save)
}

// Flush cancels any pending timer and writes immediately. Used on vault
// switch and shutdown so the latest layout is not lost to the debounce
// window.
func (s *Saver) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.save()
}

// Close flushes and stops accepting further schedules.
func (s *Saver) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.save()
}

func (s *Saver) save() {
	root := s.source()
	if root == nil {
		return
	}
	if err := s.store.Save(root); err != nil {
		// Non-fatal: documents are saved independently of layout.
		s.log.Error("layout save failed", "path", s.store.Path(), "error", err)
	}
}
