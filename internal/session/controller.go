// Package session owns the working layout, the last known-good catalog
// snapshot, and the apply/confirm/revert state machine that makes
// configuration changes safe to attempt blindly.
package session

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/xarrange/xarrange/internal/config"
	"github.com/xarrange/xarrange/internal/diff"
	"github.com/xarrange/xarrange/internal/hook"
	"github.com/xarrange/xarrange/internal/layout"
	"github.com/xarrange/xarrange/internal/platform"
	"github.com/xarrange/xarrange/internal/snap"
)

// State is the controller's position in the apply/revert protocol.
type State int

const (
	StateIdle State = iota
	StateApplying
	StateAwaitingConfirmation
	StateReverting
)

func (s State) String() string {
	switch s {
	case StateApplying:
		return "applying"
	case StateAwaitingConfirmation:
		return "awaiting-confirmation"
	case StateReverting:
		return "reverting"
	default:
		return "idle"
	}
}

var (
	// ErrBusy means a transaction is already in flight.
	ErrBusy = errors.New("a configuration change is in progress")

	// ErrNoChanges means the working layout equals the applied state.
	ErrNoChanges = errors.New("no changes to apply")

	// ErrNotPending means there is no applied-but-unconfirmed change.
	ErrNotPending = errors.New("no configuration change awaiting confirmation")
)

// EventKind identifies an observable controller event.
type EventKind int

const (
	EventLayoutChanged EventKind = iota
	EventApplyStarted
	EventApplySucceeded
	EventApplyFailed
	EventReverted
)

// Event is emitted on state transitions and layout mutations.
type Event struct {
	Kind       EventKind
	Generation uint64
	Reason     string // failure or revert cause, if any
}

// Controller serializes all access to the display server and drives the
// state machine Idle -> Applying -> AwaitingConfirmation -> Idle, with
// Reverting as the recovery path. At most one transaction is in flight.
type Controller struct {
	mu      sync.Mutex
	backend platform.Backend
	cfg     *config.Config
	notify  func(Event)

	state    State
	snapshot *layout.Model // last known-good, server-confirmed state
	model    *layout.Model // interactive scratch copy

	pending  *time.Timer // revert watchdog; nil unless awaiting confirmation
	deadline time.Time
}

// New enumerates the server and builds a controller whose catalog snapshot
// and working layout both reflect the live state. The notify callback must
// not block; pass nil to discard events.
func New(backend platform.Backend, cfg *config.Config, notify func(Event)) (*Controller, error) {
	snapshot, err := backend.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate outputs: %w", err)
	}
	if notify == nil {
		notify = func(Event) {}
	}
	c := &Controller{
		backend:  backend,
		cfg:      cfg,
		notify:   notify,
		snapshot: snapshot,
		model:    snapshot.Clone(),
	}
	c.model.SetContiguous(cfg.RequireContiguous)
	return c, nil
}

// UpdateConfig swaps in a reloaded configuration.
func (c *Controller) UpdateConfig(cfg *config.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
	c.model.SetContiguous(cfg.RequireContiguous)
}

// State returns the current protocol state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Modified reports whether the working layout differs from the catalog
// snapshot.
func (c *Controller) Modified() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.model.Equal(c.snapshot)
}

// ConfirmDeadline returns when the revert watchdog fires, if armed.
func (c *Controller) ConfirmDeadline() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadline, c.pending != nil
}

// View returns a copy of the working layout for rendering.
func (c *Controller) View() *layout.Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.Clone()
}

// CommittedView returns a copy of the catalog snapshot.
func (c *Controller) CommittedView() *layout.Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot.Clone()
}

// Mutate runs fn against a scratch copy of the working layout and swaps the
// copy in only when fn succeeds, so multi-step closures are atomic. Mutations
// are rejected while a transaction is in flight.
func (c *Controller) Mutate(fn func(*layout.Model) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return ErrBusy
	}
	before := c.model.Generation()
	scratch := c.model.Clone()
	if err := fn(scratch); err != nil {
		return err
	}
	c.model = scratch
	if g := c.model.Generation(); g != before {
		c.notify(Event{Kind: EventLayoutChanged, Generation: g})
	}
	return nil
}

// DragOutput moves an output by the given delta with edge snapping, as one
// complete drag gesture.
func (c *Controller) DragOutput(id layout.OutputID, dx, dy int) error {
	strength := snap.Strength{Auto: c.cfg.SnapStrength.Auto, Value: c.cfg.SnapStrength.Value}
	return c.Mutate(func(m *layout.Model) error {
		d, err := snap.Begin(m, strength, id)
		if err != nil {
			return err
		}
		return d.Move(m, dx, dy)
	})
}

// Apply validates the working layout, computes the transaction against the
// catalog snapshot and executes it. On success the change is provisional:
// the revert watchdog is armed and the new state must be confirmed before it
// becomes the rollback target. On a mid-transaction failure the previous
// state is restored immediately and no watchdog is armed.
func (c *Controller) Apply() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return ErrBusy
	}

	c.model.Normalize()
	if errs := c.model.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid layout: %w", errors.Join(errs...))
	}

	tx, err := diff.Compute(c.snapshot, c.model, c.backend.Limits())
	if err != nil {
		return err
	}
	if tx.Empty() {
		return ErrNoChanges
	}

	c.state = StateApplying
	c.notify(Event{Kind: EventApplyStarted, Generation: c.model.Generation()})

	if err := c.backend.Apply(tx); err != nil {
		c.rollback()
		c.state = StateIdle
		c.notify(Event{Kind: EventApplyFailed, Reason: err.Error()})
		return fmt.Errorf("apply failed: %w", err)
	}

	c.state = StateAwaitingConfirmation
	if c.cfg.RevertTimeout > 0 {
		d := time.Duration(c.cfg.RevertTimeout) * time.Second
		c.deadline = time.Now().Add(d)
		timer := time.AfterFunc(d, func() { c.watchdogFired() })
		c.pending = timer
	}
	hook.Spawn("apply", c.cfg.ApplyHook)
	c.notify(Event{Kind: EventApplySucceeded, Generation: c.model.Generation()})
	return nil
}

// Confirm accepts an applied configuration: the watchdog is disarmed and the
// working layout becomes the new catalog snapshot. Confirm wins any race
// with the watchdog: once Confirm returns, the timer's revert cannot run.
func (c *Controller) Confirm() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAwaitingConfirmation {
		return ErrNotPending
	}
	c.disarm()
	c.snapshot = c.model.Clone()
	c.state = StateIdle
	return nil
}

// Revert rejects an applied-but-unconfirmed configuration and restores the
// catalog snapshot.
func (c *Controller) Revert() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAwaitingConfirmation {
		return ErrNotPending
	}
	c.disarm()
	c.revertLocked("user request")
	return nil
}

// Reset discards the working layout and recopies it from the catalog
// snapshot.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return ErrBusy
	}
	c.model = c.snapshot.Clone()
	c.model.SetContiguous(c.cfg.RequireContiguous)
	c.notify(Event{Kind: EventLayoutChanged, Generation: c.model.Generation()})
	return nil
}

// SyncFromServer refreshes the catalog snapshot from the live server state.
// Only runs while idle; an unmodified working layout follows the snapshot.
// Called by the change watcher when the server reports outside changes.
func (c *Controller) SyncFromServer() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return nil
	}
	current, err := c.backend.Snapshot()
	if err != nil {
		return err
	}
	if current.Equal(c.snapshot) {
		return nil
	}
	unmodified := c.model.Equal(c.snapshot)
	c.snapshot = current
	if unmodified {
		c.model = current.Clone()
		c.model.SetContiguous(c.cfg.RequireContiguous)
		c.notify(Event{Kind: EventLayoutChanged, Generation: c.model.Generation()})
	}
	return nil
}

// watchdogFired is the revert timer callback. It does nothing if Confirm or
// an explicit Revert got there first.
func (c *Controller) watchdogFired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAwaitingConfirmation || c.pending == nil {
		return
	}
	c.pending = nil
	c.deadline = time.Time{}
	c.revertLocked("confirmation timeout")
}

func (c *Controller) disarm() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
		c.deadline = time.Time{}
	}
}

// revertLocked restores the catalog snapshot on the server by diffing the
// live state against it. The snapshot itself is left unchanged: it already
// represents the pre-apply state. Callers hold the lock.
func (c *Controller) revertLocked(reason string) {
	c.state = StateReverting

	current, err := c.backend.Snapshot()
	if err != nil {
		log.Printf("Revert: failed to read server state, diffing from working layout: %v", err)
		current = c.model
	}
	tx, err := diff.Compute(current, c.snapshot, c.backend.Limits())
	if err == nil && !tx.Empty() {
		if err := c.backend.Apply(tx); err != nil {
			log.Printf("Revert: failed to restore previous configuration: %v", err)
		}
	} else if err != nil {
		log.Printf("Revert: failed to compute restore transaction: %v", err)
	}

	c.model = c.snapshot.Clone()
	c.model.SetContiguous(c.cfg.RequireContiguous)
	hook.Spawn("revert", c.cfg.RevertHook)
	c.state = StateIdle
	c.notify(Event{Kind: EventReverted, Generation: c.model.Generation(), Reason: reason})
}

// rollback restores the catalog snapshot after a partial apply failure.
func (c *Controller) rollback() {
	current, err := c.backend.Snapshot()
	if err != nil {
		log.Printf("Rollback: failed to read server state: %v", err)
		return
	}
	tx, err := diff.Compute(current, c.snapshot, c.backend.Limits())
	if err != nil {
		log.Printf("Rollback: failed to compute restore transaction: %v", err)
		return
	}
	if tx.Empty() {
		return
	}
	if err := c.backend.Apply(tx); err != nil {
		log.Printf("Rollback: failed to restore previous configuration: %v", err)
	}
}
