package layout

// OutputID is the display server's stable handle for a physical connector.
// Handles are opaque and never reused within a session.
type OutputID uint32

// Output represents one physical display connector and its desired state.
// Position and mode are meaningful only while the output is enabled.
type Output struct {
	ID      OutputID
	Name    string
	Product string // monitor product name from EDID, may be empty

	// Modes supported by the connector, highest-preferred first, as
	// reported by the server. Never constructed locally.
	Modes []Mode

	Enabled    bool
	Primary    bool
	X          int
	Y          int
	Mode       *Mode
	Rotation   Rotation
	Reflection Reflection

	// Physical dimensions in millimeters, used for screen DPI bookkeeping.
	MMWidth  int
	MMHeight int
}

// Rect returns the output's transformed rectangle: the selected mode's
// dimensions with rotation applied, at the output's position. Disabled or
// modeless outputs yield an empty rectangle.
func (o *Output) Rect() Rect {
	if !o.Enabled || o.Mode == nil {
		return Rect{}
	}
	w, h := o.Mode.Width, o.Mode.Height
	if o.Rotation.Transposed() {
		w, h = h, w
	}
	return Rect{X: o.X, Y: o.Y, Width: w, Height: h}
}

// SupportsMode reports whether mode is in the output's reported mode list.
func (o *Output) SupportsMode(mode Mode) bool {
	for _, m := range o.Modes {
		if m.Equal(mode) {
			return true
		}
	}
	return false
}

// PreferredMode returns the output's first (server-preferred) mode.
func (o *Output) PreferredMode() (Mode, bool) {
	if len(o.Modes) == 0 {
		return Mode{}, false
	}
	return o.Modes[0], true
}

// FindMode returns the supported mode matching width/height with the highest
// refresh rate, preserving server preference order on ties.
func (o *Output) FindMode(width, height int) (Mode, bool) {
	var best Mode
	found := false
	for _, m := range o.Modes {
		if m.Width != width || m.Height != height {
			continue
		}
		if !found || m.Refresh > best.Refresh+refreshEpsilon {
			best = m
			found = true
		}
	}
	return best, found
}

// Clone returns a deep copy of the output.
func (o *Output) Clone() *Output {
	c := *o
	c.Modes = append([]Mode(nil), o.Modes...)
	if o.Mode != nil {
		m := *o.Mode
		c.Mode = &m
	}
	return &c
}

// Equal compares the desired state of two outputs. The mode list is assumed
// identical for equal IDs and is not compared.
func (o *Output) Equal(other *Output) bool {
	if o.ID != other.ID || o.Enabled != other.Enabled || o.Primary != other.Primary {
		return false
	}
	if !o.Enabled {
		return true
	}
	if o.X != other.X || o.Y != other.Y ||
		o.Rotation != other.Rotation || o.Reflection != other.Reflection {
		return false
	}
	if (o.Mode == nil) != (other.Mode == nil) {
		return false
	}
	return o.Mode == nil || o.Mode.Equal(*other.Mode)
}
