package layout

import "math"

// normalizeStep is how far an output moves toward the layout center per
// iteration while closing gaps.
const normalizeStep = 50

// Normalize closes gaps between enabled outputs and shifts the whole layout
// so the virtual screen origin is (0,0). Outputs are pulled stepwise toward
// the bounding-box center; a move that would cause an overlap is backed out
// along the offending axis. The pass terminates when no output can move or
// the iteration budget derived from the layout size is spent.
func (m *Model) Normalize() {
	enabled := m.Enabled()
	if len(enabled) == 0 {
		return
	}

	bounds := m.Bounds()
	bc := bounds.Center()

	rects := make(map[OutputID]Rect, len(enabled))
	dirs := make(map[OutputID][2]float64, len(enabled))
	for _, o := range enabled {
		r := o.Rect()
		rects[o.ID] = r
		c := r.Center()
		dx, dy := float64(bc.X-c.X), float64(bc.Y-c.Y)
		if l := math.Hypot(dx, dy); l > 0 {
			dirs[o.ID] = [2]float64{dx / l, dy / l}
		}
	}

	maxLoops := max(bounds.Width, bounds.Height) / normalizeStep
	for ; maxLoops > 0; maxLoops-- {
		moved := false
		for _, o := range enabled {
			e := dirs[o.ID]
			if e[0] == 0 && e[1] == 0 {
				continue
			}
			r := rects[o.ID].Translate(
				int(math.Round(normalizeStep*e[0])),
				int(math.Round(normalizeStep*e[1])),
			)
			// Back out of any overlap the step introduced.
			for _, other := range enabled {
				if other.ID == o.ID {
					continue
				}
				isect, ok := r.Intersect(rects[other.ID])
				if !ok {
					continue
				}
				if isect.Width < isect.Height {
					if e[0] > 0 {
						r = r.Translate(-isect.Width, 0)
					} else {
						r = r.Translate(isect.Width, 0)
					}
				} else {
					if e[1] > 0 {
						r = r.Translate(0, -isect.Height)
					} else {
						r = r.Translate(0, isect.Height)
					}
				}
			}
			if overlapsAny(r, o.ID, enabled, rects) {
				continue
			}
			if r != rects[o.ID] {
				rects[o.ID] = r
				moved = true
			}
		}
		if !moved {
			break
		}
	}

	for _, o := range enabled {
		r := rects[o.ID]
		o.X, o.Y = r.X, r.Y
	}

	// Shift the cluster so the bounding box starts at the origin.
	b := m.Bounds()
	if b.X != 0 || b.Y != 0 {
		for _, o := range enabled {
			o.X -= b.X
			o.Y -= b.Y
		}
	}
	m.generation++
}

func overlapsAny(r Rect, self OutputID, enabled []*Output, rects map[OutputID]Rect) bool {
	for _, o := range enabled {
		if o.ID == self {
			continue
		}
		if r.Overlaps(rects[o.ID]) {
			return true
		}
	}
	return false
}
