package layout

// Point is a position in virtual-screen coordinates.
type Point struct {
	X int
	Y int
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  int
	Height int
}

// Rect is an axis-aligned rectangle in virtual-screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Rect) Left() int   { return r.X }
func (r Rect) Right() int  { return r.X + r.Width }
func (r Rect) Top() int    { return r.Y }
func (r Rect) Bottom() int { return r.Y + r.Height }

// Center returns the rectangle's center point (rounded down).
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Empty reports whether the rectangle covers zero area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Translate returns the rectangle shifted by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Union returns the minimal rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x := min(r.X, o.X)
	y := min(r.Y, o.Y)
	return Rect{
		X:      x,
		Y:      y,
		Width:  max(r.Right(), o.Right()) - x,
		Height: max(r.Bottom(), o.Bottom()) - y,
	}
}

// Intersect returns the overlapping region of r and o and whether the two
// rectangles overlap by more than zero area.
func (r Rect) Intersect(o Rect) (Rect, bool) {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.Right(), o.Right())
	y2 := min(r.Bottom(), o.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return Rect{}, false
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}, true
}

// Overlaps reports whether r and o share a region of positive area.
func (r Rect) Overlaps(o Rect) bool {
	_, ok := r.Intersect(o)
	return ok
}

// Touches reports whether r and o share a border segment of positive length
// without overlapping. Corner-to-corner contact does not count.
func (r Rect) Touches(o Rect) bool {
	if r.Overlaps(o) {
		return false
	}
	// Vertical edge contact
	if r.Right() == o.Left() || o.Right() == r.Left() {
		return min(r.Bottom(), o.Bottom()) > max(r.Top(), o.Top())
	}
	// Horizontal edge contact
	if r.Bottom() == o.Top() || o.Bottom() == r.Top() {
		return min(r.Right(), o.Right()) > max(r.Left(), o.Left())
	}
	return false
}

// Bounds returns the minimal rectangle covering all given rectangles.
func Bounds(rects []Rect) Rect {
	var b Rect
	for _, r := range rects {
		b = b.Union(r)
	}
	return b
}
