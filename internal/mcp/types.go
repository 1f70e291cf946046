package mcp

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	State            string  `json:"state"`
	Modified         bool    `json:"modified"`
	OutputCount      int     `json:"output_count"`
	ConfirmRemaining float64 `json:"confirm_remaining_seconds,omitempty"`
}

// ListOutputsInput is the input for the list_outputs tool.
type ListOutputsInput struct {
	Modes bool `json:"modes,omitempty" jsonschema:"When true, include each output's supported mode list"`
}

// OutputMode describes one display mode.
type OutputMode struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Refresh float64 `json:"refresh"`
}

// OutputState describes one output's desired state.
type OutputState struct {
	Name       string       `json:"name"`
	Product    string       `json:"product,omitempty"`
	Enabled    bool         `json:"enabled"`
	Primary    bool         `json:"primary"`
	X          int          `json:"x"`
	Y          int          `json:"y"`
	Mode       *OutputMode  `json:"mode,omitempty"`
	Rotation   string       `json:"rotation"`
	Reflection string       `json:"reflection"`
	Modes      []OutputMode `json:"modes,omitempty"`
}

// ListOutputsOutput is the output for the list_outputs tool.
type ListOutputsOutput struct {
	Outputs      []OutputState `json:"outputs"`
	ScreenWidth  int           `json:"screen_width"`
	ScreenHeight int           `json:"screen_height"`
}

// MoveOutputInput is the input for the move_output tool.
type MoveOutputInput struct {
	Output string `json:"output" jsonschema:"required,Connector name (e.g. HDMI-1)"`
	DX     int    `json:"dx" jsonschema:"Horizontal delta in pixels"`
	DY     int    `json:"dy" jsonschema:"Vertical delta in pixels"`
	Snap   bool   `json:"snap,omitempty" jsonschema:"When true, snap to edges and centers of other outputs"`
}

// PlaceOutputInput is the input for the place_output tool.
type PlaceOutputInput struct {
	Output string `json:"output" jsonschema:"required,Connector name"`
	X      int    `json:"x" jsonschema:"required,Absolute X position in pixels"`
	Y      int    `json:"y" jsonschema:"required,Absolute Y position in pixels"`
}

// SetEnabledInput is the input for the set_enabled tool.
type SetEnabledInput struct {
	Output  string `json:"output" jsonschema:"required,Connector name"`
	Enabled bool   `json:"enabled" jsonschema:"required,true to enable at the preferred mode, false to disable"`
}

// SetModeInput is the input for the set_mode tool.
type SetModeInput struct {
	Output  string  `json:"output" jsonschema:"required,Connector name"`
	Width   int     `json:"width" jsonschema:"required,Mode width in pixels"`
	Height  int     `json:"height" jsonschema:"required,Mode height in pixels"`
	Refresh float64 `json:"refresh,omitempty" jsonschema:"Refresh rate in Hz (default: highest available)"`
}

// SetRotationInput is the input for the set_rotation tool.
type SetRotationInput struct {
	Output   string `json:"output" jsonschema:"required,Connector name"`
	Rotation string `json:"rotation" jsonschema:"required,One of: normal, left, right, inverted"`
}

// SetReflectionInput is the input for the set_reflection tool.
type SetReflectionInput struct {
	Output     string `json:"output" jsonschema:"required,Connector name"`
	Reflection string `json:"reflection" jsonschema:"required,One of: none, x, y, xy"`
}

// SetPrimaryInput is the input for the set_primary tool.
type SetPrimaryInput struct {
	Output string `json:"output,omitempty" jsonschema:"Connector name; empty clears the primary designation"`
}

// EmptyInput is used by tools that take no parameters.
type EmptyInput struct{}

// AckOutput is a generic acknowledgement.
type AckOutput struct {
	OK bool `json:"ok"`
}

// ApplyOutput is the output for the apply_layout tool.
type ApplyOutput struct {
	State            string  `json:"state"`
	ConfirmRemaining float64 `json:"confirm_remaining_seconds,omitempty"`
	Message          string  `json:"message"`
}

// GetCommandOutput is the output for the get_xrandr_command tool.
type GetCommandOutput struct {
	Command string `json:"command"`
}
