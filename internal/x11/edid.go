package x11

import (
	"strings"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

const (
	edidBlockSize      = 128
	edidDescriptorBase = 54
	edidDescriptorSize = 18
	edidTagProductName = 0xFC
)

// edidProductName fetches an output's EDID property and extracts the monitor
// product name descriptor. Returns "" when the property or descriptor is
// missing; a readable name is cosmetic and never required.
func edidProductName(xu *xgbutil.XUtil, output randr.Output) string {
	atom, err := xproto.InternAtom(xu.Conn(), true, uint16(len("EDID")), "EDID").Reply()
	if err != nil || atom.Atom == xproto.AtomNone {
		return ""
	}
	prop, err := randr.GetOutputProperty(xu.Conn(), output, atom.Atom, xproto.AtomAny,
		0, edidBlockSize/4, false, false).Reply()
	if err != nil || len(prop.Data) < edidBlockSize {
		return ""
	}
	return parseProductName(prop.Data)
}

// parseProductName scans the four 18-byte display descriptors of an EDID
// base block for the product name tag.
func parseProductName(edid []byte) string {
	for i := 0; i < 4; i++ {
		d := edid[edidDescriptorBase+i*edidDescriptorSize:]
		d = d[:edidDescriptorSize]
		// Display descriptors start with a zero pixel clock; byte 3 is
		// the descriptor tag.
		if d[0] != 0 || d[1] != 0 || d[2] != 0 || d[3] != edidTagProductName {
			continue
		}
		name := string(d[5:])
		if i := strings.IndexByte(name, '\n'); i >= 0 {
			name = name[:i]
		}
		return strings.TrimSpace(name)
	}
	return ""
}
