package x11

import "testing"

// edidWithDescriptor builds a 128-byte EDID base block with the given
// 18-byte descriptor in the requested slot.
func edidWithDescriptor(slot int, desc []byte) []byte {
	edid := make([]byte, edidBlockSize)
	copy(edid[edidDescriptorBase+slot*edidDescriptorSize:], desc)
	return edid
}

func productDescriptor(name string) []byte {
	desc := make([]byte, edidDescriptorSize)
	desc[3] = edidTagProductName
	copy(desc[5:], name)
	desc[5+len(name)] = '\n'
	for i := 6 + len(name); i < edidDescriptorSize; i++ {
		desc[i] = ' '
	}
	return desc
}

func TestParseProductName_FirstSlot(t *testing.T) {
	edid := edidWithDescriptor(0, productDescriptor("DELL U2720Q"))

	if got := parseProductName(edid); got != "DELL U2720Q" {
		t.Fatalf("expected %q, got %q", "DELL U2720Q", got)
	}
}

func TestParseProductName_LaterSlot(t *testing.T) {
	// Real monitors often put serial and range-limit descriptors first.
	edid := edidWithDescriptor(3, productDescriptor("LG HDR 4K"))

	if got := parseProductName(edid); got != "LG HDR 4K" {
		t.Fatalf("expected %q, got %q", "LG HDR 4K", got)
	}
}

func TestParseProductName_PadsWithoutNewline(t *testing.T) {
	// A full 13-character name has no newline terminator, only the
	// descriptor boundary.
	desc := make([]byte, edidDescriptorSize)
	desc[3] = edidTagProductName
	copy(desc[5:], "ABCDEFGHIJKLM")
	edid := edidWithDescriptor(0, desc)

	if got := parseProductName(edid); got != "ABCDEFGHIJKLM" {
		t.Fatalf("expected %q, got %q", "ABCDEFGHIJKLM", got)
	}
}

func TestParseProductName_MissingDescriptor(t *testing.T) {
	// A detailed timing descriptor has a non-zero pixel clock and must
	// not be mistaken for a display descriptor.
	timing := make([]byte, edidDescriptorSize)
	timing[0] = 0x3a
	timing[1] = 0x02
	edid := edidWithDescriptor(0, timing)

	if got := parseProductName(edid); got != "" {
		t.Fatalf("expected no product name, got %q", got)
	}
}
