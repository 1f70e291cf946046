package layout

import "errors"

// Mutation and validation failures. All are recoverable: a rejected mutation
// leaves the model unchanged and is surfaced to the caller only.
var (
	// ErrOverlap means two enabled outputs' transformed rectangles would
	// share a region of positive area.
	ErrOverlap = errors.New("outputs overlap")

	// ErrOutOfBounds means the virtual screen's bounding box would exceed
	// the server-reported maximum screen size.
	ErrOutOfBounds = errors.New("layout exceeds maximum screen size")

	// ErrUnsupportedMode means the requested mode is not in the output's
	// reported mode list.
	ErrUnsupportedMode = errors.New("unsupported mode")

	// ErrIncompleteOutput means an enabled output is missing a mode. A
	// re-enabled output must be given a mode before validation.
	ErrIncompleteOutput = errors.New("enabled output has no mode")

	// ErrUnknownOutput means the output ID is not part of the model.
	ErrUnknownOutput = errors.New("unknown output")

	// ErrDisabledOutput means the mutation requires an enabled output.
	ErrDisabledOutput = errors.New("output is disabled")

	// ErrDisconnected means an enabled output's rectangle is not connected
	// to the rest of the layout. Only reported when contiguity enforcement
	// is on.
	ErrDisconnected = errors.New("output disconnected from layout")

	// ErrMultiplePrimary means more than one output is flagged primary.
	ErrMultiplePrimary = errors.New("multiple primary outputs")
)
