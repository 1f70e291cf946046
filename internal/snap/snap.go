// Package snap converts raw pointer deltas into edge-aligned deltas during
// an interactive drag of one or more outputs.
package snap

import (
	"fmt"
	"math"

	"github.com/xarrange/xarrange/internal/layout"
)

// Strength configures how sticky snapping is, in pixels. Zero disables
// snapping. Auto derives the strength from the layout at drag start: one
// sixth of the smallest enabled output's shorter side.
type Strength struct {
	Auto  bool
	Value float64
}

// Resolve returns the effective snap distance for the given model.
func (s Strength) Resolve(m *layout.Model) float64 {
	if !s.Auto {
		return s.Value
	}
	minSide := math.MaxFloat64
	for _, o := range m.Enabled() {
		if o.Mode == nil {
			continue
		}
		minSide = math.Min(minSide, float64(min(o.Mode.Width, o.Mode.Height)))
	}
	if minSide == math.MaxFloat64 {
		return 0
	}
	return minSide / 6
}

// Drag is one drag gesture over a group of outputs. Alignment targets are
// captured once at gesture start so snapping never chases a moving target.
// Discarding a Drag abandons the gesture; the model is only touched by Move.
type Drag struct {
	ids      []layout.OutputID
	start    layout.Rect // bounding rect of the dragged group at gesture start
	strength float64

	// Candidate alignment coordinates per axis: edges of stationary
	// outputs, the virtual screen bounds, and the origin axes.
	targetsX []int
	targetsY []int
	centersX []int
	centersY []int

	applied layout.Point // delta committed to the model so far
}

// Begin starts a drag gesture for the given outputs. All dragged outputs
// must be enabled.
func Begin(m *layout.Model, strength Strength, ids ...layout.OutputID) (*Drag, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no outputs to drag")
	}
	dragged := make(map[layout.OutputID]struct{}, len(ids))
	var start layout.Rect
	for _, id := range ids {
		o, ok := m.Output(id)
		if !ok {
			return nil, fmt.Errorf("%w: %d", layout.ErrUnknownOutput, id)
		}
		if !o.Enabled || o.Mode == nil {
			return nil, fmt.Errorf("%w: %s", layout.ErrDisabledOutput, o.Name)
		}
		dragged[id] = struct{}{}
		start = start.Union(o.Rect())
	}

	d := &Drag{
		ids:      append([]layout.OutputID(nil), ids...),
		start:    start,
		strength: strength.Resolve(m),
	}

	for _, o := range m.Enabled() {
		if _, in := dragged[o.ID]; in {
			continue
		}
		r := o.Rect()
		d.targetsX = append(d.targetsX, r.Left(), r.Right())
		d.targetsY = append(d.targetsY, r.Top(), r.Bottom())
		c := r.Center()
		d.centersX = append(d.centersX, c.X)
		d.centersY = append(d.centersY, c.Y)
	}
	bounds := m.Bounds()
	d.targetsX = append(d.targetsX, bounds.Left(), bounds.Right(), 0)
	d.targetsY = append(d.targetsY, bounds.Top(), bounds.Bottom(), 0)

	return d, nil
}

// Snap converts a raw delta from the gesture start point into a corrected
// delta. Each axis is evaluated independently: the candidate offset with the
// smallest edge-to-edge distance wins if it is within the snap strength,
// otherwise the raw component passes through unchanged.
func (d *Drag) Snap(dx, dy int) (int, int) {
	if d.strength <= 0 {
		return dx, dy
	}
	moved := d.start.Translate(dx, dy)

	if corr, ok := bestCorrection(
		[]int{moved.Left(), moved.Right()},
		[]int{moved.Center().X},
		d.targetsX, d.centersX, d.strength,
	); ok {
		dx += corr
	}
	if corr, ok := bestCorrection(
		[]int{moved.Top(), moved.Bottom()},
		[]int{moved.Center().Y},
		d.targetsY, d.centersY, d.strength,
	); ok {
		dy += corr
	}
	return dx, dy
}

// bestCorrection returns the smallest offset that aligns one of the moved
// edges with a target edge (or center with center), if within strength.
func bestCorrection(edges, centers, targetEdges, targetCenters []int, strength float64) (int, bool) {
	best := 0
	bestAbs := math.MaxFloat64
	consider := func(delta int) {
		if a := math.Abs(float64(delta)); a < bestAbs {
			best = delta
			bestAbs = a
		}
	}
	for _, t := range targetEdges {
		for _, e := range edges {
			consider(t - e)
		}
	}
	for _, t := range targetCenters {
		for _, c := range centers {
			consider(t - c)
		}
	}
	if bestAbs < strength {
		return best, true
	}
	return 0, false
}

// Move advances the drag to the given total delta from the gesture start,
// snapping first. If the snapped position is rejected by the model the raw
// delta is tried instead; if that is also rejected each axis is attempted
// alone so motion clamps per axis rather than freezing entirely.
func (d *Drag) Move(m *layout.Model, dx, dy int) error {
	sdx, sdy := d.Snap(dx, dy)

	for _, delta := range [][2]int{
		{sdx, sdy},
		{dx, dy},
		{dx, d.applied.Y},
		{d.applied.X, dy},
	} {
		step := layout.Point{X: delta[0] - d.applied.X, Y: delta[1] - d.applied.Y}
		if step.X == 0 && step.Y == 0 {
			return nil
		}
		if err := m.MoveGroup(d.ids, step.X, step.Y); err == nil {
			d.applied = layout.Point{X: delta[0], Y: delta[1]}
			return nil
		}
	}
	// Clamped: the gesture continues but no movement accrues.
	return nil
}

// Applied returns the delta committed to the model so far.
func (d *Drag) Applied() layout.Point { return d.applied }
