package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/xarrange/xarrange/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	// Connect to socket
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	// Set deadline
	conn.SetDeadline(time.Now().Add(c.timeout))

	// Marshal request
	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Send request
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	// Read response
	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Parse response
	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Check for error response
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) sendPayload(cmd CommandType, payload interface{}) (*Response, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		raw = data
	}
	return c.sendRequest(&Request{Command: cmd, Payload: raw})
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	_, err := c.sendRequest(&Request{Command: CommandReload})
	return err
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}

	return &status, nil
}

// GetOutputs retrieves the working layout's outputs
func (c *Client) GetOutputs() (*OutputsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetOutputs})
	if err != nil {
		return nil, err
	}

	var outputs OutputsData
	if err := json.Unmarshal(resp.Data, &outputs); err != nil {
		return nil, fmt.Errorf("failed to parse outputs data: %w", err)
	}

	return &outputs, nil
}

// GetCommand retrieves the xrandr rendition of the working layout.
func (c *Client) GetCommand() (string, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetCommand})
	if err != nil {
		return "", err
	}

	var data CommandData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return "", fmt.Errorf("failed to parse command data: %w", err)
	}

	return data.Command, nil
}

// MoveOutput moves an output by a delta, optionally with edge snapping.
func (c *Client) MoveOutput(output string, dx, dy int, snap bool) error {
	_, err := c.sendPayload(CommandMoveOutput, MoveOutputPayload{
		Output: output, DX: dx, DY: dy, Snap: snap,
	})
	return err
}

// SetPosition places an output at an absolute position.
func (c *Client) SetPosition(output string, x, y int) error {
	_, err := c.sendPayload(CommandSetPosition, SetPositionPayload{
		Output: output, X: x, Y: y,
	})
	return err
}

// SetEnabled enables or disables an output.
func (c *Client) SetEnabled(output string, enabled bool) error {
	_, err := c.sendPayload(CommandSetEnabled, SetEnabledPayload{
		Output: output, Enabled: enabled,
	})
	return err
}

// SetMode selects a mode by dimensions. Refresh 0 picks the highest rate.
func (c *Client) SetMode(output string, width, height int, refresh float64) error {
	_, err := c.sendPayload(CommandSetMode, SetModePayload{
		Output: output, Width: width, Height: height, Refresh: refresh,
	})
	return err
}

// SetRotation sets an output's rotation.
func (c *Client) SetRotation(output, rotation string) error {
	_, err := c.sendPayload(CommandSetRotation, SetRotationPayload{
		Output: output, Rotation: rotation,
	})
	return err
}

// SetReflection sets an output's reflection.
func (c *Client) SetReflection(output, reflection string) error {
	_, err := c.sendPayload(CommandSetReflection, SetReflectionPayload{
		Output: output, Reflection: reflection,
	})
	return err
}

// SetPrimary marks an output as primary; an empty name clears it.
func (c *Client) SetPrimary(output string) error {
	_, err := c.sendPayload(CommandSetPrimary, SetPrimaryPayload{Output: output})
	return err
}

// Apply pushes the working layout to the display server.
func (c *Client) Apply() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandApply})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}

	return &status, nil
}

// Confirm accepts an applied configuration.
func (c *Client) Confirm() error {
	_, err := c.sendRequest(&Request{Command: CommandConfirm})
	return err
}

// Revert rejects an applied configuration and restores the previous one.
func (c *Client) Revert() error {
	_, err := c.sendRequest(&Request{Command: CommandRevert})
	return err
}

// Reset discards working layout edits.
func (c *Client) Reset() error {
	_, err := c.sendRequest(&Request{Command: CommandReset})
	return err
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
