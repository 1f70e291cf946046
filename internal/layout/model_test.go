package layout

import (
	"errors"
	"testing"
)

// sideBySideModel builds a laptop panel at the origin with an external
// monitor flush against its right edge, both running 1920x1080.
func sideBySideModel() *Model {
	modes := []Mode{
		{Width: 1920, Height: 1080, Refresh: 60},
		{Width: 1280, Height: 720, Refresh: 60},
	}
	a := &Output{
		ID: 1, Name: "eDP-1", Modes: modes,
		Enabled: true, Primary: true, Mode: &Mode{Width: 1920, Height: 1080, Refresh: 60},
		MMWidth: 344, MMHeight: 193,
	}
	b := &Output{
		ID: 2, Name: "HDMI-1", Modes: modes,
		Enabled: true, X: 1920, Mode: &Mode{Width: 1920, Height: 1080, Refresh: 60},
		MMWidth: 527, MMHeight: 296,
	}
	return New([]*Output{a, b},
		Size{Width: 320, Height: 200}, Size{Width: 8192, Height: 8192})
}

func TestMoveOutput_RejectsOverlap(t *testing.T) {
	m := sideBySideModel()
	gen := m.Generation()

	err := m.MoveOutput(2, -10, 0)
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}

	// Rejection must leave the model untouched.
	b, _ := m.Output(2)
	if b.X != 1920 || b.Y != 0 {
		t.Fatalf("expected HDMI-1 to stay at 1920,0, got %d,%d", b.X, b.Y)
	}
	if m.Generation() != gen {
		t.Fatalf("expected generation to stay %d, got %d", gen, m.Generation())
	}
}

func TestMoveOutput_RejectsOutOfBounds(t *testing.T) {
	m := sideBySideModel()

	// 1920 + 1920 = 3840 wide already; pushing the external monitor
	// 5000px right makes the bounding box 1920+5000+1920 = 8840 wide,
	// past the 8192 maximum.
	err := m.MoveOutput(2, 5000, 0)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	b, _ := m.Output(2)
	if b.X != 1920 {
		t.Fatalf("expected HDMI-1 to stay at x=1920, got %d", b.X)
	}
}

func TestMoveOutput_ZeroDeltaIsNoOp(t *testing.T) {
	m := sideBySideModel()
	gen := m.Generation()

	if err := m.MoveOutput(1, 0, 0); err != nil {
		t.Fatalf("expected no error for zero delta, got %v", err)
	}
	if m.Generation() != gen {
		t.Fatalf("expected zero delta not to bump generation")
	}
}

func TestMoveOutput_DisabledOutputRejected(t *testing.T) {
	m := sideBySideModel()
	if err := m.SetEnabled(2, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if err := m.MoveOutput(2, 10, 0); !errors.Is(err, ErrDisabledOutput) {
		t.Fatalf("expected ErrDisabledOutput, got %v", err)
	}
}

func TestMoveGroup_MovesTogether(t *testing.T) {
	m := sideBySideModel()

	// Dragging both outputs as one group ignores their mutual adjacency.
	if err := m.MoveGroup([]OutputID{1, 2}, 100, 50); err != nil {
		t.Fatalf("expected group move to succeed, got %v", err)
	}
	a, _ := m.Output(1)
	b, _ := m.Output(2)
	if a.X != 100 || a.Y != 50 {
		t.Fatalf("expected eDP-1 at 100,50, got %d,%d", a.X, a.Y)
	}
	if b.X != 2020 || b.Y != 50 {
		t.Fatalf("expected HDMI-1 at 2020,50, got %d,%d", b.X, b.Y)
	}
}

func TestMoveGroup_AtomicOnCollision(t *testing.T) {
	modes := []Mode{{Width: 1920, Height: 1080, Refresh: 60}}
	a := &Output{ID: 1, Name: "DP-1", Modes: modes, Enabled: true, Mode: &Mode{Width: 1920, Height: 1080, Refresh: 60}}
	b := &Output{ID: 2, Name: "DP-2", Modes: modes, Enabled: true, X: 1920, Mode: &Mode{Width: 1920, Height: 1080, Refresh: 60}}
	c := &Output{ID: 3, Name: "DP-3", Modes: modes, Enabled: true, X: 4000, Mode: &Mode{Width: 1920, Height: 1080, Refresh: 60}}
	m := New([]*Output{a, b, c}, Size{}, Size{Width: 16384, Height: 16384})

	// Moving DP-1 and DP-2 right by 200 runs DP-2 (right edge 3840+200)
	// into DP-3 at x=4000. Neither dragged output may move.
	err := m.MoveGroup([]OutputID{1, 2}, 200, 0)
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}
	if a.X != 0 || b.X != 1920 {
		t.Fatalf("expected no movement, got DP-1 at %d and DP-2 at %d", a.X, b.X)
	}
}

func TestSetPosition_AbsolutePlacement(t *testing.T) {
	m := sideBySideModel()

	if err := m.SetPosition(2, 0, 1080); err != nil {
		t.Fatalf("expected stacked placement to succeed, got %v", err)
	}
	b, _ := m.Output(2)
	if b.X != 0 || b.Y != 1080 {
		t.Fatalf("expected HDMI-1 at 0,1080, got %d,%d", b.X, b.Y)
	}
}

func TestSetMode_UnsupportedModeRejected(t *testing.T) {
	m := sideBySideModel()

	err := m.SetMode(1, Mode{Width: 2560, Height: 1440, Refresh: 60})
	if !errors.Is(err, ErrUnsupportedMode) {
		t.Fatalf("expected ErrUnsupportedMode, got %v", err)
	}
}

func TestSetMode_RefreshToleranceMatches(t *testing.T) {
	m := sideBySideModel()

	// 59.996 is within the comparison tolerance of the listed 60.
	if err := m.SetMode(1, Mode{Width: 1280, Height: 720, Refresh: 59.996}); err != nil {
		t.Fatalf("expected near-equal refresh to match, got %v", err)
	}
}

func TestSetMode_OverlapRollsBack(t *testing.T) {
	modes := []Mode{
		{Width: 1920, Height: 1080, Refresh: 60},
		{Width: 1280, Height: 720, Refresh: 60},
	}
	a := &Output{ID: 1, Name: "eDP-1", Modes: modes, Enabled: true, Mode: &Mode{Width: 1280, Height: 720, Refresh: 60}}
	b := &Output{ID: 2, Name: "HDMI-1", Modes: modes, Enabled: true, X: 1280, Mode: &Mode{Width: 1920, Height: 1080, Refresh: 60}}
	m := New([]*Output{a, b}, Size{}, Size{Width: 8192, Height: 8192})

	// Growing eDP-1 to 1920 wide would run into HDMI-1 at x=1280.
	err := m.SetMode(1, Mode{Width: 1920, Height: 1080, Refresh: 60})
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}
	if a.Mode.Width != 1280 || a.Mode.Height != 720 {
		t.Fatalf("expected mode rollback to 1280x720, got %s", a.Mode)
	}
}

func TestSetEnabled_DisableClearsState(t *testing.T) {
	m := sideBySideModel()
	if err := m.SetPrimary(2); err != nil {
		t.Fatalf("set primary: %v", err)
	}

	if err := m.SetEnabled(2, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	b, _ := m.Output(2)
	if b.Enabled || b.Primary || b.Mode != nil || b.X != 0 || b.Y != 0 {
		t.Fatalf("expected disable to clear state, got %+v", b)
	}
	if !b.Rect().Empty() {
		t.Fatalf("expected disabled output to have an empty rect, got %v", b.Rect())
	}
}

func TestSetEnabled_ReenableIsIncomplete(t *testing.T) {
	m := sideBySideModel()
	if err := m.SetEnabled(2, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if err := m.SetEnabled(2, true); err != nil {
		t.Fatalf("enable: %v", err)
	}

	errs := m.Validate()
	if len(errs) != 1 || !errors.Is(errs[0], ErrIncompleteOutput) {
		t.Fatalf("expected a single ErrIncompleteOutput, got %v", errs)
	}
}

func TestSetEnabled_SameStateIsNoOp(t *testing.T) {
	m := sideBySideModel()
	gen := m.Generation()

	if err := m.SetEnabled(1, true); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m.Generation() != gen {
		t.Fatalf("expected enabling an enabled output not to bump generation")
	}
}

func TestSetRotation_TransposesRect(t *testing.T) {
	m := sideBySideModel()
	// HDMI-1 rotates freely at the right edge: the 1080x1920 portrait
	// rect starts where the old landscape rect did.
	if err := m.SetRotation(2, RotationLeft); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	b, _ := m.Output(2)
	want := Rect{X: 1920, Y: 0, Width: 1080, Height: 1920}
	if b.Rect() != want {
		t.Fatalf("expected portrait rect %v, got %v", want, b.Rect())
	}
}

func TestSetRotation_OverlapRollsBack(t *testing.T) {
	modes := []Mode{{Width: 1920, Height: 1080, Refresh: 60}}
	a := &Output{ID: 1, Name: "DP-1", Modes: modes, Enabled: true, Mode: &Mode{Width: 1920, Height: 1080, Refresh: 60}}
	b := &Output{ID: 2, Name: "DP-2", Modes: modes, Enabled: true, X: 500, Y: 1080, Mode: &Mode{Width: 1920, Height: 1080, Refresh: 60}}
	m := New([]*Output{a, b}, Size{}, Size{Width: 8192, Height: 8192})

	// Rotating DP-1 to portrait stretches it to y=1920, into DP-2's row.
	err := m.SetRotation(1, RotationLeft)
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}
	if a.Rotation != RotationNormal {
		t.Fatalf("expected rotation rollback, got %s", a.Rotation)
	}
}

func TestSetPrimary_MovesDesignation(t *testing.T) {
	m := sideBySideModel()

	if err := m.SetPrimary(2); err != nil {
		t.Fatalf("set primary: %v", err)
	}
	a, _ := m.Output(1)
	b, _ := m.Output(2)
	if a.Primary || !b.Primary {
		t.Fatalf("expected primary to move to HDMI-1")
	}

	if err := m.SetPrimary(0); err != nil {
		t.Fatalf("clear primary: %v", err)
	}
	if _, ok := m.Primary(); ok {
		t.Fatalf("expected no primary after clearing")
	}
}

func TestSetPrimary_DisabledOutputRejected(t *testing.T) {
	m := sideBySideModel()
	if err := m.SetEnabled(2, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if err := m.SetPrimary(2); !errors.Is(err, ErrDisabledOutput) {
		t.Fatalf("expected ErrDisabledOutput, got %v", err)
	}
}

func TestValidate_CleanLayout(t *testing.T) {
	m := sideBySideModel()
	if errs := m.Validate(); len(errs) != 0 {
		t.Fatalf("expected no violations, got %v", errs)
	}
}

func TestValidate_MultiplePrimary(t *testing.T) {
	m := sideBySideModel()
	b, _ := m.Output(2)
	b.Primary = true // bypass the mutation API to build the bad state

	errs := m.Validate()
	found := false
	for _, err := range errs {
		if errors.Is(err, ErrMultiplePrimary) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ErrMultiplePrimary, got %v", errs)
	}
}

func TestValidate_DisconnectedOnlyWhenContiguous(t *testing.T) {
	m := sideBySideModel()
	// Open a 400px gap between the outputs.
	if err := m.SetPosition(2, 2320, 0); err != nil {
		t.Fatalf("reposition: %v", err)
	}

	if errs := m.Validate(); len(errs) != 0 {
		t.Fatalf("expected floating layout to pass by default, got %v", errs)
	}

	m.SetContiguous(true)
	errs := m.Validate()
	if len(errs) == 0 {
		t.Fatalf("expected a contiguity violation")
	}
	if !errors.Is(errs[0], ErrDisconnected) {
		t.Fatalf("expected ErrDisconnected, got %v", errs[0])
	}
}

func TestValidate_DiagonalContactIsDisconnected(t *testing.T) {
	m := sideBySideModel()
	m.SetContiguous(true)
	// Corner-to-corner contact is not a shared edge.
	if err := m.SetPosition(2, 1920, 1080); err != nil {
		t.Fatalf("reposition: %v", err)
	}

	errs := m.Validate()
	if len(errs) == 0 || !errors.Is(errs[0], ErrDisconnected) {
		t.Fatalf("expected ErrDisconnected for corner contact, got %v", errs)
	}
}

func TestClone_SharesNoState(t *testing.T) {
	m := sideBySideModel()
	c := m.Clone()

	if err := c.MoveOutput(2, 100, 0); err != nil {
		t.Fatalf("move on clone: %v", err)
	}
	b, _ := m.Output(2)
	if b.X != 1920 {
		t.Fatalf("expected original to stay at 1920, got %d", b.X)
	}
	if m.Equal(c) {
		t.Fatalf("expected models to differ after mutating the clone")
	}
}

func TestEqual_IgnoresGeneration(t *testing.T) {
	m := sideBySideModel()
	c := m.Clone()

	// A rejected move and a move plus its inverse both leave the desired
	// state equal, whatever the generation counters say.
	if err := c.MoveOutput(2, 100, 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := c.MoveOutput(2, -100, 0); err != nil {
		t.Fatalf("move back: %v", err)
	}
	if !m.Equal(c) {
		t.Fatalf("expected models to compare equal after a round trip")
	}
}

func TestFindMode_PicksHighestRefresh(t *testing.T) {
	o := &Output{
		ID: 1, Name: "DP-1",
		Modes: []Mode{
			{Width: 1920, Height: 1080, Refresh: 60},
			{Width: 1920, Height: 1080, Refresh: 144},
			{Width: 1920, Height: 1080, Refresh: 120},
			{Width: 1280, Height: 720, Refresh: 60},
		},
	}

	mode, ok := o.FindMode(1920, 1080)
	if !ok {
		t.Fatalf("expected to find a 1920x1080 mode")
	}
	if mode.Refresh != 144 {
		t.Fatalf("expected the 144Hz mode, got %.2f", mode.Refresh)
	}

	if _, ok := o.FindMode(2560, 1440); ok {
		t.Fatalf("expected no 2560x1440 mode")
	}
}

func TestNormalize_ClosesGapAndShiftsOrigin(t *testing.T) {
	modes := []Mode{{Width: 1920, Height: 1080, Refresh: 60}}
	a := &Output{ID: 1, Name: "eDP-1", Modes: modes, Enabled: true, Mode: &Mode{Width: 1920, Height: 1080, Refresh: 60}}
	b := &Output{ID: 2, Name: "HDMI-1", Modes: modes, Enabled: true, X: 2000, Mode: &Mode{Width: 1920, Height: 1080, Refresh: 60}}
	m := New([]*Output{a, b}, Size{}, Size{Width: 8192, Height: 8192})

	m.Normalize()

	// The 80px gap closes and the cluster lands at the origin.
	if a.X != 0 || a.Y != 0 {
		t.Fatalf("expected eDP-1 at 0,0, got %d,%d", a.X, a.Y)
	}
	if b.X != 1920 || b.Y != 0 {
		t.Fatalf("expected HDMI-1 at 1920,0, got %d,%d", b.X, b.Y)
	}
	bounds := m.Bounds()
	if bounds.X != 0 || bounds.Y != 0 || bounds.Width != 3840 {
		t.Fatalf("expected bounds 3840 wide at the origin, got %v", bounds)
	}
}

func TestNormalize_ShiftsNegativeOrigin(t *testing.T) {
	modes := []Mode{{Width: 1920, Height: 1080, Refresh: 60}}
	a := &Output{ID: 1, Name: "eDP-1", Modes: modes, Enabled: true, X: -1920, Y: -100, Mode: &Mode{Width: 1920, Height: 1080, Refresh: 60}}
	m := New([]*Output{a}, Size{}, Size{Width: 8192, Height: 8192})

	m.Normalize()

	if a.X != 0 || a.Y != 0 {
		t.Fatalf("expected the lone output at 0,0, got %d,%d", a.X, a.Y)
	}
}

func TestNormalize_AdjacentLayoutIsStable(t *testing.T) {
	m := sideBySideModel()
	before := m.Clone()

	m.Normalize()

	if !m.Equal(before) {
		t.Fatalf("expected an already-normalized layout to be unchanged")
	}
}
