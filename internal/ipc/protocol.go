package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload        CommandType = "RELOAD"
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandGetOutputs    CommandType = "GET_OUTPUTS"
	CommandGetCommand    CommandType = "GET_COMMAND"
	CommandMoveOutput    CommandType = "MOVE_OUTPUT"
	CommandSetPosition   CommandType = "SET_POSITION"
	CommandSetEnabled    CommandType = "SET_ENABLED"
	CommandSetMode       CommandType = "SET_MODE"
	CommandSetRotation   CommandType = "SET_ROTATION"
	CommandSetReflection CommandType = "SET_REFLECTION"
	CommandSetPrimary    CommandType = "SET_PRIMARY"
	CommandApply         CommandType = "APPLY"
	CommandConfirm       CommandType = "CONFIRM"
	CommandRevert        CommandType = "REVERT"
	CommandReset         CommandType = "RESET"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	State            string  `json:"state"`
	Generation       uint64  `json:"generation"`
	Modified         bool    `json:"modified"`
	OutputCount      int     `json:"output_count"`
	ConfirmRemaining float64 `json:"confirm_remaining_seconds,omitempty"`
	UptimeSeconds    int64   `json:"uptime_seconds"`
	DaemonRunning    bool    `json:"daemon_running"`
}

// ModeInfo describes one display mode.
type ModeInfo struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Refresh float64 `json:"refresh"`
}

// OutputInfo represents the desired state of a single output
type OutputInfo struct {
	ID         uint32     `json:"id"`
	Name       string     `json:"name"`
	Product    string     `json:"product,omitempty"`
	Enabled    bool       `json:"enabled"`
	Primary    bool       `json:"primary"`
	X          int        `json:"x"`
	Y          int        `json:"y"`
	Mode       *ModeInfo  `json:"mode,omitempty"`
	Rotation   string     `json:"rotation"`
	Reflection string     `json:"reflection"`
	Modes      []ModeInfo `json:"modes,omitempty"`
}

// OutputsData represents the data returned by GET_OUTPUTS
type OutputsData struct {
	Outputs      []OutputInfo `json:"outputs"`
	ScreenWidth  int          `json:"screen_width"`
	ScreenHeight int          `json:"screen_height"`
}

// CommandData represents the data returned by GET_COMMAND
type CommandData struct {
	Command string `json:"command"`
}

// MoveOutputPayload moves an output by a delta, optionally with snapping.
type MoveOutputPayload struct {
	Output string `json:"output"`
	DX     int    `json:"dx"`
	DY     int    `json:"dy"`
	Snap   bool   `json:"snap,omitempty"`
}

// SetPositionPayload places an output at an absolute position.
type SetPositionPayload struct {
	Output string `json:"output"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

type SetEnabledPayload struct {
	Output  string `json:"output"`
	Enabled bool   `json:"enabled"`
}

// SetModePayload selects a mode by dimensions. Refresh 0 means the highest
// available rate for those dimensions.
type SetModePayload struct {
	Output  string  `json:"output"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Refresh float64 `json:"refresh,omitempty"`
}

type SetRotationPayload struct {
	Output   string `json:"output"`
	Rotation string `json:"rotation"`
}

type SetReflectionPayload struct {
	Output     string `json:"output"`
	Reflection string `json:"reflection"`
}

// SetPrimaryPayload marks an output as primary. An empty output name clears
// the primary designation.
type SetPrimaryPayload struct {
	Output string `json:"output"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
