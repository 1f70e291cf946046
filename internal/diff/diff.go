// Package diff turns a desired output layout into the minimal ordered set of
// hardware configuration operations that realizes it.
package diff

import (
	"errors"
	"fmt"
	"math"

	"github.com/xarrange/xarrange/internal/layout"
)

// ErrInsufficientResources means the desired layout enables more outputs
// than the server has CRTC slots to drive. Detected before any hardware
// operation is attempted.
var ErrInsufficientResources = errors.New("not enough active output slots")

// mmPerInch converts between pixel densities and physical millimeters.
const mmPerInch = 25.4

// defaultPPI is assumed when no output reports physical dimensions.
const defaultPPI = 96.0

// Op is a single hardware configuration operation.
type Op interface {
	String() string
}

// Disable turns an output's CRTC off, freeing its slot.
type Disable struct {
	Output layout.OutputID
	Name   string
}

func (d Disable) String() string { return fmt.Sprintf("disable %s", d.Name) }

// SetScreenSize resizes the virtual screen.
type SetScreenSize struct {
	Width    int
	Height   int
	MMWidth  int
	MMHeight int
}

func (s SetScreenSize) String() string {
	return fmt.Sprintf("screen %dx%d px %dx%d mm", s.Width, s.Height, s.MMWidth, s.MMHeight)
}

// Configure drives an output at a position, mode and orientation.
type Configure struct {
	Output     layout.OutputID
	Name       string
	X          int
	Y          int
	Mode       layout.Mode
	Rotation   layout.Rotation
	Reflection layout.Reflection
}

func (c Configure) String() string {
	return fmt.Sprintf("configure %s %s at %d,%d rotate %s", c.Name, c.Mode, c.X, c.Y, c.Rotation)
}

// SetPrimary designates the primary output. Zero clears the designation.
type SetPrimary struct {
	Output layout.OutputID
}

func (s SetPrimary) String() string { return fmt.Sprintf("primary %d", s.Output) }

// Transaction is an ordered batch of operations for one apply. It is
// consumed exactly once and discarded regardless of outcome.
type Transaction struct {
	Ops []Op
}

// Empty reports whether the transaction changes nothing.
func (t *Transaction) Empty() bool { return len(t.Ops) == 0 }

// Limits carries the server-reported hardware capability bounds.
type Limits struct {
	MaxActiveOutputs int
	MinScreen        layout.Size
	MaxScreen        layout.Size
}

// Compute diffs the last-applied state against the desired state and emits
// the operations needed to get there. Operation order: disables first (CRTC
// slots must be free before they are requested elsewhere), then the screen
// resize, then configures, then the primary change. Outputs whose desired
// state equals their current state contribute no op.
func Compute(before, after *layout.Model, lim Limits) (*Transaction, error) {
	enabled := after.Enabled()
	if lim.MaxActiveOutputs > 0 && len(enabled) > lim.MaxActiveOutputs {
		return nil, fmt.Errorf("%w: %d outputs, %d slots",
			ErrInsufficientResources, len(enabled), lim.MaxActiveOutputs)
	}

	size := screenSize(after, lim)
	beforeBounds := before.Bounds()
	resize := beforeBounds.Width != size.Width || beforeBounds.Height != size.Height

	var disables, configures []Op
	reconfigure := make(map[layout.OutputID]bool)

	for _, b := range before.Outputs() {
		a, ok := after.Output(b.ID)
		if !ok || !b.Enabled {
			continue
		}
		switch {
		case !a.Enabled:
			disables = append(disables, Disable{Output: b.ID, Name: b.Name})
		case resize && (b.Rect().Right() > size.Width || b.Rect().Bottom() > size.Height):
			// Still enabled but its current geometry would not fit the
			// new screen size; disable first to avoid an invalid
			// intermediate configuration, then configure it back.
			disables = append(disables, Disable{Output: b.ID, Name: b.Name})
			reconfigure[b.ID] = true
		}
	}

	for _, a := range enabled {
		if a.Mode == nil {
			return nil, fmt.Errorf("%w: %s", layout.ErrIncompleteOutput, a.Name)
		}
		b, existed := before.Output(a.ID)
		if existed && b.Enabled && !reconfigure[a.ID] && sameConfig(a, b) {
			continue
		}
		configures = append(configures, Configure{
			Output:     a.ID,
			Name:       a.Name,
			X:          a.X,
			Y:          a.Y,
			Mode:       *a.Mode,
			Rotation:   a.Rotation,
			Reflection: a.Reflection,
		})
	}

	tx := &Transaction{}
	tx.Ops = append(tx.Ops, disables...)
	if (resize || screenMMChanged(before, after, lim)) && len(enabled) > 0 {
		tx.Ops = append(tx.Ops, sizeOp(after, lim))
	}
	tx.Ops = append(tx.Ops, configures...)

	if primaryID(before) != primaryID(after) {
		tx.Ops = append(tx.Ops, SetPrimary{Output: primaryID(after)})
	}

	// A resize alone with nothing else to do means the layouts are
	// geometrically identical; drop it.
	if len(disables) == 0 && len(configures) == 0 && primaryID(before) == primaryID(after) {
		tx.Ops = nil
	}

	return tx, nil
}

func sameConfig(a, b *layout.Output) bool {
	return a.X == b.X && a.Y == b.Y &&
		a.Rotation == b.Rotation && a.Reflection == b.Reflection &&
		b.Mode != nil && a.Mode.Equal(*b.Mode)
}

func primaryID(m *layout.Model) layout.OutputID {
	if p, ok := m.Primary(); ok {
		return p.ID
	}
	return 0
}

// screenSize clamps the desired bounding box to the server's screen size
// range.
func screenSize(m *layout.Model, lim Limits) layout.Size {
	b := m.Bounds()
	w, h := b.Width, b.Height
	if lim.MaxScreen.Width > 0 {
		w = min(w, lim.MaxScreen.Width)
		h = min(h, lim.MaxScreen.Height)
	}
	w = max(w, lim.MinScreen.Width)
	h = max(h, lim.MinScreen.Height)
	return layout.Size{Width: w, Height: h}
}

func sizeOp(m *layout.Model, lim Limits) SetScreenSize {
	size := screenSize(m, lim)
	mmW, mmH := screenMM(m, size)
	return SetScreenSize{Width: size.Width, Height: size.Height, MMWidth: mmW, MMHeight: mmH}
}

func screenMMChanged(before, after *layout.Model, lim Limits) bool {
	bs := screenSize(before, lim)
	as := screenSize(after, lim)
	bw, bh := screenMM(before, bs)
	aw, ah := screenMM(after, as)
	return bw != aw || bh != ah
}

// screenMM derives the physical screen dimensions. With a single enabled
// output its reported millimeters are used directly (transposed when
// rotated); otherwise the density of the primary output (or a 96 PPI
// fallback) scales the pixel size.
func screenMM(m *layout.Model, size layout.Size) (int, int) {
	enabled := m.Enabled()
	if len(enabled) == 1 {
		o := enabled[0]
		if o.MMWidth > 0 && o.MMHeight > 0 {
			if o.Rotation.Transposed() {
				return o.MMHeight, o.MMWidth
			}
			return o.MMWidth, o.MMHeight
		}
	}

	ppiX, ppiY := defaultPPI, defaultPPI
	if p, ok := m.Primary(); ok && p.Mode != nil && p.MMWidth > 0 && p.MMHeight > 0 {
		ppiX = float64(p.Mode.Width) * mmPerInch / float64(p.MMWidth)
		ppiY = float64(p.Mode.Height) * mmPerInch / float64(p.MMHeight)
		if p.Rotation.Transposed() {
			ppiX, ppiY = ppiY, ppiX
		}
	}
	return int(math.Ceil(mmPerInch * float64(size.Width) / ppiX)),
		int(math.Ceil(mmPerInch * float64(size.Height) / ppiY))
}
