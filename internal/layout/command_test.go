package layout

import "testing"

func TestXrandrCommand_MixedLayout(t *testing.T) {
	modes := []Mode{{Width: 1920, Height: 1080, Refresh: 59.95}}
	a := &Output{
		ID: 1, Name: "eDP-1", Modes: modes,
		Enabled: true, Primary: true,
		Mode: &Mode{Width: 1920, Height: 1080, Refresh: 59.95},
	}
	b := &Output{
		ID: 2, Name: "HDMI-1", Modes: modes,
		Enabled: true, X: 1920, Y: 0,
		Mode:     &Mode{Width: 1920, Height: 1080, Refresh: 59.95},
		Rotation: RotationLeft,
	}
	c := &Output{ID: 3, Name: "DP-1", Modes: modes}
	m := New([]*Output{a, b, c}, Size{}, Size{Width: 8192, Height: 8192})

	want := "xrandr --output eDP-1 --mode 1920x1080 --rate 59.95 --pos 0x0 --rotate normal --reflect normal --primary \\\n" +
		"        --output HDMI-1 --mode 1920x1080 --rate 59.95 --pos 1920x0 --rotate left --reflect normal \\\n" +
		"        --output DP-1 --off"
	if got := XrandrCommand(m); got != want {
		t.Fatalf("expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestXrandrCommand_EnabledWithoutModeIsOff(t *testing.T) {
	// An incomplete output cannot be expressed as a mode clause.
	a := &Output{ID: 1, Name: "eDP-1", Enabled: true}
	m := New([]*Output{a}, Size{}, Size{Width: 8192, Height: 8192})

	want := "xrandr --output eDP-1 --off"
	if got := XrandrCommand(m); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestParseRotation_RoundTrip(t *testing.T) {
	for _, rot := range []Rotation{RotationNormal, RotationLeft, RotationRight, RotationInverted} {
		parsed, err := ParseRotation(rot.String())
		if err != nil {
			t.Fatalf("parse %q: %v", rot.String(), err)
		}
		if parsed != rot {
			t.Fatalf("expected %v to round-trip, got %v", rot, parsed)
		}
	}
	if _, err := ParseRotation("upside-down"); err == nil {
		t.Fatalf("expected an error for an unknown rotation name")
	}
}

func TestParseReflection_RoundTrip(t *testing.T) {
	for _, refl := range []Reflection{ReflectNone, ReflectX, ReflectY, ReflectXY} {
		parsed, err := ParseReflection(refl.String())
		if err != nil {
			t.Fatalf("parse %q: %v", refl.String(), err)
		}
		if parsed != refl {
			t.Fatalf("expected %v to round-trip, got %v", refl, parsed)
		}
	}
	if _, err := ParseReflection("mirror"); err == nil {
		t.Fatalf("expected an error for an unknown reflection name")
	}
}

func TestParseReflection_NoneAlias(t *testing.T) {
	parsed, err := ParseReflection("none")
	if err != nil {
		t.Fatalf("parse none: %v", err)
	}
	if parsed != ReflectNone {
		t.Fatalf("expected ReflectNone, got %v", parsed)
	}
}
