package platform

import (
	"github.com/xarrange/xarrange/internal/diff"
	"github.com/xarrange/xarrange/internal/layout"
)

// Backend abstracts the display server. It is the single shared resource
// behind every catalog read and configuration write; callers serialize
// access to it.
type Backend interface {
	// Snapshot enumerates the server's current output state as a fresh
	// layout model.
	Snapshot() (*layout.Model, error)

	// Apply executes a transaction's operations in order, stopping at the
	// first failure.
	Apply(tx *diff.Transaction) error

	// Limits returns the server-reported hardware capability bounds.
	Limits() diff.Limits
}
