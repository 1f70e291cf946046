package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xarrange/xarrange/internal/config"
	"github.com/xarrange/xarrange/internal/diff"
	"github.com/xarrange/xarrange/internal/layout"
)

// fakeBackend keeps an in-memory server state and replays transactions
// against it, so reverts observe the same post-apply state a real display
// server would report.
type fakeBackend struct {
	mu       sync.Mutex
	state    *layout.Model
	applies  []*diff.Transaction
	applyErr error
}

func newFakeBackend() *fakeBackend {
	modes := []layout.Mode{
		{Width: 1920, Height: 1080, Refresh: 60},
		{Width: 1280, Height: 720, Refresh: 60},
	}
	a := &layout.Output{
		ID: 1, Name: "eDP-1", Modes: modes, Enabled: true, Primary: true,
		Mode:    &layout.Mode{Width: 1920, Height: 1080, Refresh: 60},
		MMWidth: 344, MMHeight: 193,
	}
	b := &layout.Output{
		ID: 2, Name: "HDMI-1", Modes: modes, Enabled: true, X: 1920,
		Mode:    &layout.Mode{Width: 1920, Height: 1080, Refresh: 60},
		MMWidth: 527, MMHeight: 296,
	}
	return &fakeBackend{
		state: layout.New([]*layout.Output{a, b},
			layout.Size{Width: 320, Height: 200}, layout.Size{Width: 16384, Height: 16384}),
	}
}

func (f *fakeBackend) Snapshot() (*layout.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Clone(), nil
}

func (f *fakeBackend) Apply(tx *diff.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applies = append(f.applies, tx)
	if f.applyErr != nil {
		return f.applyErr
	}
	for _, op := range tx.Ops {
		switch op := op.(type) {
		case diff.Disable:
			o, _ := f.state.Output(op.Output)
			o.Enabled = false
			o.Primary = false
			o.Mode = nil
			o.X, o.Y = 0, 0
		case diff.Configure:
			o, _ := f.state.Output(op.Output)
			mode := op.Mode
			o.Enabled = true
			o.X, o.Y = op.X, op.Y
			o.Mode = &mode
			o.Rotation = op.Rotation
			o.Reflection = op.Reflection
		case diff.SetPrimary:
			for _, o := range f.state.Outputs() {
				o.Primary = o.ID == op.Output
			}
		}
	}
	return nil
}

func (f *fakeBackend) Limits() diff.Limits {
	return diff.Limits{
		MaxActiveOutputs: 4,
		MinScreen:        layout.Size{Width: 320, Height: 200},
		MaxScreen:        layout.Size{Width: 16384, Height: 16384},
	}
}

func (f *fakeBackend) applyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.applies)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) find(kind EventKind) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Kind == kind {
			return e, true
		}
	}
	return Event{}, false
}

func waitForState(t *testing.T, c *Controller, want State) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected state %s within 3s, still %s", want, c.State())
}

func TestApplyConfirm_CommitsWorkingLayout(t *testing.T) {
	backend := newFakeBackend()
	ctrl, err := New(backend, config.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	if err := ctrl.Mutate(func(m *layout.Model) error { return m.SetPrimary(2) }); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if !ctrl.Modified() {
		t.Fatalf("expected the working layout to be modified")
	}

	if err := ctrl.Apply(); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := ctrl.State(); got != StateAwaitingConfirmation {
		t.Fatalf("expected awaiting-confirmation, got %s", got)
	}
	if _, armed := ctrl.ConfirmDeadline(); !armed {
		t.Fatalf("expected the revert watchdog to be armed")
	}

	if err := ctrl.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got := ctrl.State(); got != StateIdle {
		t.Fatalf("expected idle after confirm, got %s", got)
	}
	if ctrl.Modified() {
		t.Fatalf("expected the confirmed layout to match the snapshot")
	}
	p, ok := ctrl.CommittedView().Primary()
	if !ok || p.ID != 2 {
		t.Fatalf("expected HDMI-1 committed as primary")
	}
}

func TestApply_NoChanges(t *testing.T) {
	backend := newFakeBackend()
	ctrl, err := New(backend, config.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	if err := ctrl.Apply(); !errors.Is(err, ErrNoChanges) {
		t.Fatalf("expected ErrNoChanges, got %v", err)
	}
	if backend.applyCount() != 0 {
		t.Fatalf("expected no transactions, got %d", backend.applyCount())
	}
	if got := ctrl.State(); got != StateIdle {
		t.Fatalf("expected idle, got %s", got)
	}
}

func TestApply_FailureReturnsToIdle(t *testing.T) {
	backend := newFakeBackend()
	backend.applyErr = errors.New("crtc busy")
	rec := &eventRecorder{}
	ctrl, err := New(backend, config.DefaultConfig(), rec.record)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	if err := ctrl.Mutate(func(m *layout.Model) error { return m.SetPrimary(2) }); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if err := ctrl.Apply(); !errors.Is(err, backend.applyErr) {
		t.Fatalf("expected the backend error, got %v", err)
	}
	if got := ctrl.State(); got != StateIdle {
		t.Fatalf("expected idle after a failed apply, got %s", got)
	}
	if _, armed := ctrl.ConfirmDeadline(); armed {
		t.Fatalf("expected no watchdog after a failed apply")
	}
	if _, ok := rec.find(EventApplyFailed); !ok {
		t.Fatalf("expected an apply-failed event")
	}
}

func TestMutate_RejectedWhilePending(t *testing.T) {
	backend := newFakeBackend()
	ctrl, err := New(backend, config.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	if err := ctrl.Mutate(func(m *layout.Model) error { return m.SetPrimary(2) }); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if err := ctrl.Apply(); err != nil {
		t.Fatalf("apply: %v", err)
	}

	err = ctrl.Mutate(func(m *layout.Model) error { return m.SetPrimary(0) })
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if err := ctrl.Apply(); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy for a nested apply, got %v", err)
	}
}

func TestMutate_FailedClosureLeavesLayoutUnchanged(t *testing.T) {
	backend := newFakeBackend()
	ctrl, err := New(backend, config.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	// The first step succeeds on the scratch copy; the closure then fails,
	// so neither step may reach the working layout.
	wantErr := errors.New("no usable mode")
	err = ctrl.Mutate(func(m *layout.Model) error {
		if err := m.SetPrimary(2); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the closure error, got %v", err)
	}

	view := ctrl.View()
	o, _ := view.Output(1)
	if !o.Primary {
		t.Fatalf("expected eDP-1 to keep the primary flag")
	}
	if ctrl.Modified() {
		t.Fatalf("expected the working layout to be unmodified")
	}
}

func TestWatchdog_RevertsUnconfirmedChange(t *testing.T) {
	backend := newFakeBackend()
	cfg := config.DefaultConfig()
	cfg.RevertTimeout = 1
	rec := &eventRecorder{}
	ctrl, err := New(backend, cfg, rec.record)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	if err := ctrl.Mutate(func(m *layout.Model) error { return m.SetEnabled(2, false) }); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if err := ctrl.Apply(); err != nil {
		t.Fatalf("apply: %v", err)
	}

	waitForState(t, ctrl, StateIdle)

	// The watchdog restored the pre-apply configuration on the server.
	if backend.applyCount() != 2 {
		t.Fatalf("expected an apply and a revert, got %d transactions", backend.applyCount())
	}
	server, _ := backend.Snapshot()
	b, _ := server.Output(2)
	if !b.Enabled || b.X != 1920 {
		t.Fatalf("expected HDMI-1 restored at 1920, got %+v", b)
	}
	if ctrl.Modified() {
		t.Fatalf("expected the working layout to follow the revert")
	}
	ev, ok := rec.find(EventReverted)
	if !ok {
		t.Fatalf("expected a revert event")
	}
	if ev.Reason != "confirmation timeout" {
		t.Fatalf("expected a timeout reason, got %q", ev.Reason)
	}
}

func TestConfirm_DisarmsWatchdog(t *testing.T) {
	backend := newFakeBackend()
	cfg := config.DefaultConfig()
	cfg.RevertTimeout = 1
	ctrl, err := New(backend, cfg, nil)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	if err := ctrl.Mutate(func(m *layout.Model) error { return m.SetEnabled(2, false) }); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if err := ctrl.Apply(); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := ctrl.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// Outlive the timer: the confirmed change must stay put.
	time.Sleep(1500 * time.Millisecond)
	if backend.applyCount() != 1 {
		t.Fatalf("expected no revert after confirm, got %d transactions", backend.applyCount())
	}
	server, _ := backend.Snapshot()
	b, _ := server.Output(2)
	if b.Enabled {
		t.Fatalf("expected HDMI-1 to stay disabled")
	}
}

func TestRevert_RestoresPreApplyState(t *testing.T) {
	backend := newFakeBackend()
	ctrl, err := New(backend, config.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	if err := ctrl.Mutate(func(m *layout.Model) error { return m.SetEnabled(2, false) }); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if err := ctrl.Apply(); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := ctrl.Revert(); err != nil {
		t.Fatalf("revert: %v", err)
	}

	if got := ctrl.State(); got != StateIdle {
		t.Fatalf("expected idle after revert, got %s", got)
	}
	server, _ := backend.Snapshot()
	b, _ := server.Output(2)
	if !b.Enabled {
		t.Fatalf("expected HDMI-1 re-enabled by the revert")
	}
	if ctrl.Modified() {
		t.Fatalf("expected the working layout to match the snapshot again")
	}
}

func TestRevert_WithoutPendingChange(t *testing.T) {
	backend := newFakeBackend()
	ctrl, err := New(backend, config.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if err := ctrl.Revert(); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	if err := ctrl.Confirm(); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestReset_DiscardsEdits(t *testing.T) {
	backend := newFakeBackend()
	ctrl, err := New(backend, config.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	if err := ctrl.Mutate(func(m *layout.Model) error { return m.SetPrimary(2) }); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if err := ctrl.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if ctrl.Modified() {
		t.Fatalf("expected reset to discard the edit")
	}
	p, ok := ctrl.View().Primary()
	if !ok || p.ID != 1 {
		t.Fatalf("expected eDP-1 primary again")
	}
}

func TestSyncFromServer_FollowsWhenUnmodified(t *testing.T) {
	backend := newFakeBackend()
	ctrl, err := New(backend, config.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	// Another tool disables the external monitor behind our back.
	backend.mu.Lock()
	o, _ := backend.state.Output(2)
	o.Enabled = false
	o.Mode = nil
	o.X = 0
	backend.mu.Unlock()

	if err := ctrl.SyncFromServer(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	b, _ := ctrl.View().Output(2)
	if b.Enabled {
		t.Fatalf("expected the working layout to follow the outside change")
	}
	if ctrl.Modified() {
		t.Fatalf("expected a clean working layout after following")
	}
}

func TestSyncFromServer_PreservesLocalEdits(t *testing.T) {
	backend := newFakeBackend()
	ctrl, err := New(backend, config.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	if err := ctrl.Mutate(func(m *layout.Model) error { return m.SetPrimary(2) }); err != nil {
		t.Fatalf("mutate: %v", err)
	}

	backend.mu.Lock()
	o, _ := backend.state.Output(2)
	o.Enabled = false
	o.Mode = nil
	o.X = 0
	backend.mu.Unlock()

	if err := ctrl.SyncFromServer(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	// The snapshot tracks the server, the edited working layout does not.
	snap, _ := ctrl.CommittedView().Output(2)
	if snap.Enabled {
		t.Fatalf("expected the snapshot to follow the server")
	}
	p, ok := ctrl.View().Primary()
	if !ok || p.ID != 2 {
		t.Fatalf("expected the local primary edit to survive the sync")
	}
}
