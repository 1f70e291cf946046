package layout

import (
	"fmt"
)

// Model is the mutable working copy of the output arrangement. Geometric
// invariants are enforced at every mutation boundary: a rejected mutation
// leaves the model untouched, an accepted one increments the generation
// counter so in-flight drag gestures can detect staleness.
type Model struct {
	outputs    []*Output
	selected   map[OutputID]struct{}
	generation uint64

	minScreen  Size
	maxScreen  Size
	contiguous bool
}

// New builds a model over the given outputs in discovery order. The min/max
// sizes are the server-reported virtual screen limits.
func New(outputs []*Output, minScreen, maxScreen Size) *Model {
	return &Model{
		outputs:   outputs,
		selected:  make(map[OutputID]struct{}),
		minScreen: minScreen,
		maxScreen: maxScreen,
	}
}

// SetContiguous turns the connected-cluster validation rule on or off.
// Off by default: floating layouts are permitted while editing.
func (m *Model) SetContiguous(on bool) { m.contiguous = on }

// Generation returns the mutation counter. It increments on every committed
// mutation and never decreases.
func (m *Model) Generation() uint64 { return m.generation }

// MaxScreenSize returns the server-reported maximum virtual screen size.
func (m *Model) MaxScreenSize() Size { return m.maxScreen }

// MinScreenSize returns the server-reported minimum virtual screen size.
func (m *Model) MinScreenSize() Size { return m.minScreen }

// Outputs returns all outputs in discovery order. Callers must treat the
// returned outputs as read-only; mutations go through Model methods.
func (m *Model) Outputs() []*Output { return m.outputs }

// Output looks up an output by ID.
func (m *Model) Output(id OutputID) (*Output, bool) {
	for _, o := range m.outputs {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

// OutputByName looks up an output by connector name.
func (m *Model) OutputByName(name string) (*Output, bool) {
	for _, o := range m.outputs {
		if o.Name == name {
			return o, true
		}
	}
	return nil, false
}

// Enabled returns the enabled outputs in discovery order.
func (m *Model) Enabled() []*Output {
	var out []*Output
	for _, o := range m.outputs {
		if o.Enabled {
			out = append(out, o)
		}
	}
	return out
}

// Bounds returns the virtual screen: the minimal bounding box over all
// enabled outputs' transformed rectangles.
func (m *Model) Bounds() Rect {
	var b Rect
	for _, o := range m.outputs {
		b = b.Union(o.Rect())
	}
	return b
}

// Clone returns a deep copy sharing no state with the original.
func (m *Model) Clone() *Model {
	c := &Model{
		outputs:    make([]*Output, len(m.outputs)),
		selected:   make(map[OutputID]struct{}, len(m.selected)),
		generation: m.generation,
		minScreen:  m.minScreen,
		maxScreen:  m.maxScreen,
		contiguous: m.contiguous,
	}
	for i, o := range m.outputs {
		c.outputs[i] = o.Clone()
	}
	for id := range m.selected {
		c.selected[id] = struct{}{}
	}
	return c
}

// Equal reports whether both models describe the same desired output state.
func (m *Model) Equal(other *Model) bool {
	if len(m.outputs) != len(other.outputs) {
		return false
	}
	for _, o := range m.outputs {
		oo, ok := other.Output(o.ID)
		if !ok || !o.Equal(oo) {
			return false
		}
	}
	return true
}

// Select adds an output to the drag selection.
func (m *Model) Select(id OutputID) error {
	if _, ok := m.Output(id); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownOutput, id)
	}
	m.selected[id] = struct{}{}
	return nil
}

// Deselect removes an output from the drag selection.
func (m *Model) Deselect(id OutputID) { delete(m.selected, id) }

// ClearSelection empties the drag selection.
func (m *Model) ClearSelection() { m.selected = make(map[OutputID]struct{}) }

// Selected returns the selected output IDs in discovery order.
func (m *Model) Selected() []OutputID {
	var ids []OutputID
	for _, o := range m.outputs {
		if _, ok := m.selected[o.ID]; ok {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// MoveOutput translates one enabled output by (dx, dy). Rejected with
// ErrOverlap or ErrOutOfBounds; on success the generation is incremented.
func (m *Model) MoveOutput(id OutputID, dx, dy int) error {
	return m.MoveGroup([]OutputID{id}, dx, dy)
}

// MoveGroup translates a set of enabled outputs together by (dx, dy). The
// move is atomic: all outputs move or none do.
func (m *Model) MoveGroup(ids []OutputID, dx, dy int) error {
	if dx == 0 && dy == 0 {
		return nil
	}
	group := make(map[OutputID]struct{}, len(ids))
	outs := make([]*Output, 0, len(ids))
	for _, id := range ids {
		o, ok := m.Output(id)
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownOutput, id)
		}
		if !o.Enabled {
			return fmt.Errorf("%w: %s", ErrDisabledOutput, o.Name)
		}
		group[id] = struct{}{}
		outs = append(outs, o)
	}

	// Trial pass against the stationary outputs.
	var moved Rect
	for _, o := range outs {
		r := o.Rect().Translate(dx, dy)
		moved = moved.Union(r)
		for _, other := range m.outputs {
			if _, in := group[other.ID]; in || !other.Enabled {
				continue
			}
			if r.Overlaps(other.Rect()) {
				return fmt.Errorf("%w: %s and %s", ErrOverlap, o.Name, other.Name)
			}
		}
	}
	bounds := moved
	for _, o := range m.outputs {
		if _, in := group[o.ID]; in || !o.Enabled {
			continue
		}
		bounds = bounds.Union(o.Rect())
	}
	if bounds.Width > m.maxScreen.Width || bounds.Height > m.maxScreen.Height {
		return fmt.Errorf("%w: %dx%d > %dx%d", ErrOutOfBounds,
			bounds.Width, bounds.Height, m.maxScreen.Width, m.maxScreen.Height)
	}

	for _, o := range outs {
		o.X += dx
		o.Y += dy
	}
	m.generation++
	return nil
}

// SetPosition places an enabled output at an absolute position.
func (m *Model) SetPosition(id OutputID, x, y int) error {
	o, ok := m.Output(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownOutput, id)
	}
	if !o.Enabled {
		return fmt.Errorf("%w: %s", ErrDisabledOutput, o.Name)
	}
	return m.MoveGroup([]OutputID{id}, x-o.X, y-o.Y)
}

// SetMode selects a mode for an output. The mode must be in the output's
// reported mode list. Changing the mode of an enabled output may grow its
// rectangle; the overlap and bounds invariants are re-checked.
func (m *Model) SetMode(id OutputID, mode Mode) error {
	o, ok := m.Output(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownOutput, id)
	}
	if !o.SupportsMode(mode) {
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedMode, mode, o.Name)
	}
	prev := o.Mode
	o.Mode = &mode
	if o.Enabled {
		if err := m.checkPlacement(o); err != nil {
			o.Mode = prev
			return err
		}
	}
	m.generation++
	return nil
}

// SetEnabled enables or disables an output. Disabling clears position, mode
// and the primary flag. Re-enabling leaves the output incomplete: the caller
// must supply a position and mode before the next validation pass.
func (m *Model) SetEnabled(id OutputID, enabled bool) error {
	o, ok := m.Output(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownOutput, id)
	}
	if o.Enabled == enabled {
		return nil
	}
	if enabled {
		o.Enabled = true
	} else {
		o.Enabled = false
		o.Primary = false
		o.Mode = nil
		o.X, o.Y = 0, 0
	}
	m.generation++
	return nil
}

// SetRotation rotates an output. The transformed rectangle changes shape for
// left/right rotations, so overlap and bounds are re-checked.
func (m *Model) SetRotation(id OutputID, rot Rotation) error {
	o, ok := m.Output(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownOutput, id)
	}
	prev := o.Rotation
	o.Rotation = rot
	if o.Enabled {
		if err := m.checkPlacement(o); err != nil {
			o.Rotation = prev
			return err
		}
	}
	m.generation++
	return nil
}

// SetReflection mirrors an output. Reflections never change the rectangle.
func (m *Model) SetReflection(id OutputID, refl Reflection) error {
	o, ok := m.Output(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownOutput, id)
	}
	o.Reflection = refl
	m.generation++
	return nil
}

// SetPrimary marks one output as primary, clearing the flag elsewhere.
// Passing 0 clears the primary designation entirely.
func (m *Model) SetPrimary(id OutputID) error {
	if id != 0 {
		o, ok := m.Output(id)
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownOutput, id)
		}
		if !o.Enabled {
			return fmt.Errorf("%w: %s", ErrDisabledOutput, o.Name)
		}
	}
	for _, o := range m.outputs {
		o.Primary = o.ID == id
	}
	m.generation++
	return nil
}

// Primary returns the primary output, if any.
func (m *Model) Primary() (*Output, bool) {
	for _, o := range m.outputs {
		if o.Primary {
			return o, true
		}
	}
	return nil, false
}

// checkPlacement verifies that o's current rectangle neither overlaps another
// enabled output nor pushes the bounding box past the maximum screen size.
func (m *Model) checkPlacement(o *Output) error {
	r := o.Rect()
	bounds := r
	for _, other := range m.outputs {
		if other.ID == o.ID || !other.Enabled {
			continue
		}
		or := other.Rect()
		if r.Overlaps(or) {
			return fmt.Errorf("%w: %s and %s", ErrOverlap, o.Name, other.Name)
		}
		bounds = bounds.Union(or)
	}
	if bounds.Width > m.maxScreen.Width || bounds.Height > m.maxScreen.Height {
		return fmt.Errorf("%w: %dx%d > %dx%d", ErrOutOfBounds,
			bounds.Width, bounds.Height, m.maxScreen.Width, m.maxScreen.Height)
	}
	return nil
}

// Validate re-checks every invariant and returns all violations found. An
// empty result means the layout is safe to diff and apply.
func (m *Model) Validate() []error {
	var errs []error

	enabled := m.Enabled()
	for _, o := range enabled {
		if o.Mode == nil {
			errs = append(errs, fmt.Errorf("%w: %s", ErrIncompleteOutput, o.Name))
		}
	}

	for i, a := range enabled {
		for _, b := range enabled[i+1:] {
			if a.Rect().Overlaps(b.Rect()) {
				errs = append(errs, fmt.Errorf("%w: %s and %s", ErrOverlap, a.Name, b.Name))
			}
		}
	}

	primaries := 0
	for _, o := range m.outputs {
		if o.Primary {
			primaries++
			if !o.Enabled {
				errs = append(errs, fmt.Errorf("%w: primary %s", ErrDisabledOutput, o.Name))
			}
		}
	}
	if primaries > 1 {
		errs = append(errs, ErrMultiplePrimary)
	}

	b := m.Bounds()
	if b.Width > m.maxScreen.Width || b.Height > m.maxScreen.Height {
		errs = append(errs, fmt.Errorf("%w: %dx%d > %dx%d", ErrOutOfBounds,
			b.Width, b.Height, m.maxScreen.Width, m.maxScreen.Height))
	}

	if m.contiguous {
		errs = append(errs, m.checkConnected(enabled)...)
	}

	return errs
}

// checkConnected verifies that the enabled outputs form one connected
// cluster. The adjacency graph is rebuilt per pass; validation runs at
// interaction frequency, not in a hot loop.
func (m *Model) checkConnected(enabled []*Output) []error {
	if len(enabled) <= 1 {
		return nil
	}
	visited := make(map[OutputID]bool, len(enabled))
	queue := []*Output{enabled[0]}
	visited[enabled[0].ID] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, o := range enabled {
			if visited[o.ID] {
				continue
			}
			if cur.Rect().Touches(o.Rect()) {
				visited[o.ID] = true
				queue = append(queue, o)
			}
		}
	}
	var errs []error
	for _, o := range enabled {
		if !visited[o.ID] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDisconnected, o.Name))
		}
	}
	return errs
}
