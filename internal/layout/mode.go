package layout

import (
	"fmt"
	"math"
)

// refreshEpsilon is the tolerance used when comparing refresh rates. Rates
// are derived from pixel clock timings and never reproduce exactly across
// float conversions.
const refreshEpsilon = 0.01

// Mode is a resolution/refresh-rate pairing supported by an output. Modes
// are reported by the display server and compared by value.
type Mode struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Refresh float64 `json:"refresh"`
}

// Equal compares two modes, tolerating refresh-rate rounding noise.
func (m Mode) Equal(o Mode) bool {
	return m.Width == o.Width && m.Height == o.Height &&
		math.Abs(m.Refresh-o.Refresh) < refreshEpsilon
}

func (m Mode) String() string {
	return fmt.Sprintf("%dx%d@%.2f", m.Width, m.Height, m.Refresh)
}

// Rotation is the clockwise display rotation of an output.
type Rotation uint8

const (
	RotationNormal Rotation = iota
	RotationLeft
	RotationRight
	RotationInverted
)

func (r Rotation) String() string {
	switch r {
	case RotationLeft:
		return "left"
	case RotationRight:
		return "right"
	case RotationInverted:
		return "inverted"
	default:
		return "normal"
	}
}

// ParseRotation converts an xrandr rotation name to a Rotation.
func ParseRotation(s string) (Rotation, error) {
	switch s {
	case "normal":
		return RotationNormal, nil
	case "left":
		return RotationLeft, nil
	case "right":
		return RotationRight, nil
	case "inverted":
		return RotationInverted, nil
	}
	return RotationNormal, fmt.Errorf("invalid rotation %q", s)
}

// Transposed reports whether the rotation swaps an output's width and height.
func (r Rotation) Transposed() bool {
	return r == RotationLeft || r == RotationRight
}

// Reflection is the axis mirroring applied to an output.
type Reflection uint8

const (
	ReflectNone Reflection = iota
	ReflectX
	ReflectY
	ReflectXY
)

func (r Reflection) String() string {
	switch r {
	case ReflectX:
		return "x"
	case ReflectY:
		return "y"
	case ReflectXY:
		return "xy"
	default:
		return "normal"
	}
}

// ParseReflection converts a reflection name to a Reflection. Both the
// xrandr CLI word "normal" and the protocol value "none" are accepted.
func ParseReflection(s string) (Reflection, error) {
	switch s {
	case "normal", "none":
		return ReflectNone, nil
	case "x":
		return ReflectX, nil
	case "y":
		return ReflectY, nil
	case "xy":
		return ReflectXY, nil
	}
	return ReflectNone, fmt.Errorf("invalid reflection %q", s)
}
