package layout

import (
	"fmt"
	"strings"
)

// XrandrCommand renders the model as an equivalent xrandr invocation, one
// --output clause per connector in discovery order. It is a pure projection
// of the desired state: no validation, no side effects, deterministic across
// calls.
func XrandrCommand(m *Model) string {
	var b strings.Builder
	b.WriteString("xrandr")
	outputs := m.Outputs()
	for i, o := range outputs {
		if i == 0 {
			b.WriteString(" ")
		} else {
			b.WriteString("        ")
		}
		fmt.Fprintf(&b, "--output %s", o.Name)
		if o.Enabled && o.Mode != nil {
			fmt.Fprintf(&b, " --mode %dx%d", o.Mode.Width, o.Mode.Height)
			fmt.Fprintf(&b, " --rate %.2f", o.Mode.Refresh)
			fmt.Fprintf(&b, " --pos %dx%d", o.X, o.Y)
			fmt.Fprintf(&b, " --rotate %s", o.Rotation)
			fmt.Fprintf(&b, " --reflect %s", o.Reflection)
			if o.Primary {
				b.WriteString(" --primary")
			}
		} else {
			b.WriteString(" --off")
		}
		if i < len(outputs)-1 {
			b.WriteString(" \\\n")
		}
	}
	return b.String()
}
