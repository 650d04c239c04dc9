package pane

import "errors"

// Sentinel errors returned by manager operations. All of them are
// user-recoverable: callers surface a no-op or a status message, nothing
// unwinds application state.
var (
	// ErrInvalidPane means the given pane id does not exist, or does not
	// reference a leaf/split as the operation requires.
	ErrInvalidPane = errors.New("pane: invalid pane id")

	// ErrInvalidTab means the given tab id is not present in the given leaf.
	ErrInvalidTab = errors.New("pane: invalid tab id")

	// ErrCannotCloseRoot means the target of ClosePane is the sole root leaf.
	ErrCannotCloseRoot = errors.New("pane: cannot close root pane")

	// ErrInvalidRatio means a split ratio outside the open interval (0,1).
	ErrInvalidRatio = errors.New("pane: split ratio must be in (0,1)")
)
