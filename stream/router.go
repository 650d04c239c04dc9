// Package stream routes per-pane asynchronous content (e.g. AI-generated
// text arriving incrementally) to the pane that asked for it.
//
// The transport is out of scope here; this package only decides delivery.
// Every streaming request carries an explicit Request token naming the pane
// that initiated it and a sequence number. Starting a new request supersedes
// the previous one, and chunks bearing a superseded token — or a token for a
// pane that no longer exists — are silently dropped. That drop is the whole
// cancellation mechanism: no cancel message travels to the producer, it just
// streams into the void. This mirrors how stale debounced work is discarded
// elsewhere in the module: compare a token against the single source of
// truth, act only on a match.
package stream

import (
	"log/slog"
	"sync"

	"github.com/treykane/vault-panes/logging"
)

// Panes is the read-only view of the pane tree the router needs. The pane
// manager satisfies it.
type Panes interface {
	PaneExists(id string) bool
}

// Sink receives chunks that passed routing, tagged with the target pane.
type Sink func(paneID, text string)

// Request identifies one streaming request. The zero value is never current.
type Request struct {
	PaneID string
	seq    uint64
}

// Router filters streamed chunks so only the current request's output reaches
// its pane.
type Router struct {
	panes Panes
	sink  Sink
	log   *slog.Logger

	mu      sync.Mutex
	current Request
}

// NewRouter creates a router delivering accepted chunks to sink.
func NewRouter(panes Panes, sink Sink) *Router {
	return &Router{
		panes: panes,
		sink:  sink,
		log:   logging.New("stream"),
	}
}

// Begin registers a new streaming request for paneID and returns its token.
// Any in-flight request is superseded from this point on.
func (r *Router) Begin(paneID string) Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = Request{PaneID: paneID, seq: r.current.seq + 1}
	return r.current
}

// End clears the current request if req still owns it, so late chunks after a
// completed stream are dropped rather than appended.
func (r *Router) End(req Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == req {
		r.current = Request{}
	}
}

// Accept reports whether req is still the current request and its pane still
// exists.
func (r *Router) Accept(req Request) bool {
	r.mu.Lock()
	current := r.current
	r.mu.Unlock()
	if req.seq == 0 || req != current {
		return false
	}
	return r.panes.PaneExists(req.PaneID)
}

// Deliver forwards text to the sink if req is still current, and reports
// whether it was delivered. Superseded and orphaned chunks are dropped
// without error.
func (r *Router) Deliver(req Request, text string) bool {
	if !r.Accept(req) {
		r.log.Debug("dropped stale stream chunk", "pane", req.PaneID, "seq", req.seq)
		return false
	}
	r.sink(req.PaneID, text)
	return true
}
