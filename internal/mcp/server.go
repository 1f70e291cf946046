// Package mcp exposes the arrangement daemon to MCP clients over stdio. All
// tools proxy to the daemon's IPC socket, so the daemon stays the single
// writer to the display server.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xarrange/xarrange/internal/ipc"
)

const (
	ServerName    = "xarrange"
	ServerVersion = "0.1.0"
)

// Server is the MCP server for display arrangement.
type Server struct {
	mcpServer *mcpsdk.Server
	client    *ipc.Client
}

// NewServer creates a new MCP server backed by the daemon's IPC socket.
func NewServer() (*Server, error) {
	client := ipc.NewClient()
	if err := client.Ping(); err != nil {
		return nil, fmt.Errorf("daemon not reachable: %w", err)
	}

	s := &Server{client: client}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Serve is a convenience wrapper: create a server and run it on stdio.
func Serve(ctx context.Context) error {
	s, err := NewServer()
	if err != nil {
		return err
	}
	return s.Run(ctx)
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Get the arrangement daemon's state: idle, applying, awaiting-confirmation or reverting, plus whether the working layout has unapplied edits.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_outputs",
		Description: "List connected outputs with their desired position, mode, rotation and primary flag in the working layout.",
	}, s.handleListOutputs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_output",
		Description: "Move an output by a pixel delta in the working layout. Moves that would overlap another output or leave the screen area are rejected.",
	}, s.handleMoveOutput)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "place_output",
		Description: "Place an output at an absolute position in the working layout.",
	}, s.handlePlaceOutput)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_enabled",
		Description: "Enable an output (at its preferred mode, placed right of the current arrangement) or disable it.",
	}, s.handleSetEnabled)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_mode",
		Description: "Select an output's display mode by dimensions and optional refresh rate.",
	}, s.handleSetMode)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_rotation",
		Description: "Set an output's rotation: normal, left, right or inverted.",
	}, s.handleSetRotation)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_reflection",
		Description: "Set an output's reflection: none, x, y or xy.",
	}, s.handleSetReflection)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_primary",
		Description: "Mark an output as the primary display, or clear the designation with an empty name.",
	}, s.handleSetPrimary)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "apply_layout",
		Description: "Push the working layout to the display server. The change reverts automatically unless confirm_layout is called before the revert timeout.",
	}, s.handleApply)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "confirm_layout",
		Description: "Keep an applied configuration and make it the new rollback target.",
	}, s.handleConfirm)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "revert_layout",
		Description: "Reject an applied configuration and restore the previous one immediately.",
	}, s.handleRevert)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reset_layout",
		Description: "Discard working layout edits and recopy the last confirmed configuration.",
	}, s.handleReset)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_xrandr_command",
		Description: "Render the working layout as an equivalent xrandr command line.",
	}, s.handleGetCommand)
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	status, err := s.client.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, err
	}
	return nil, GetStatusOutput{
		State:            status.State,
		Modified:         status.Modified,
		OutputCount:      status.OutputCount,
		ConfirmRemaining: status.ConfirmRemaining,
	}, nil
}

func (s *Server) handleListOutputs(_ context.Context, _ *mcpsdk.CallToolRequest, args ListOutputsInput) (*mcpsdk.CallToolResult, ListOutputsOutput, error) {
	data, err := s.client.GetOutputs()
	if err != nil {
		return nil, ListOutputsOutput{}, err
	}

	out := ListOutputsOutput{
		ScreenWidth:  data.ScreenWidth,
		ScreenHeight: data.ScreenHeight,
	}
	for _, o := range data.Outputs {
		state := OutputState{
			Name:       o.Name,
			Product:    o.Product,
			Enabled:    o.Enabled,
			Primary:    o.Primary,
			X:          o.X,
			Y:          o.Y,
			Rotation:   o.Rotation,
			Reflection: o.Reflection,
		}
		if o.Mode != nil {
			state.Mode = &OutputMode{Width: o.Mode.Width, Height: o.Mode.Height, Refresh: o.Mode.Refresh}
		}
		if args.Modes {
			for _, m := range o.Modes {
				state.Modes = append(state.Modes, OutputMode{Width: m.Width, Height: m.Height, Refresh: m.Refresh})
			}
		}
		out.Outputs = append(out.Outputs, state)
	}
	return nil, out, nil
}

func (s *Server) handleMoveOutput(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveOutputInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.MoveOutput(args.Output, args.DX, args.DY, args.Snap); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handlePlaceOutput(_ context.Context, _ *mcpsdk.CallToolRequest, args PlaceOutputInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.SetPosition(args.Output, args.X, args.Y); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleSetEnabled(_ context.Context, _ *mcpsdk.CallToolRequest, args SetEnabledInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.SetEnabled(args.Output, args.Enabled); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleSetMode(_ context.Context, _ *mcpsdk.CallToolRequest, args SetModeInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.SetMode(args.Output, args.Width, args.Height, args.Refresh); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleSetRotation(_ context.Context, _ *mcpsdk.CallToolRequest, args SetRotationInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.SetRotation(args.Output, args.Rotation); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleSetReflection(_ context.Context, _ *mcpsdk.CallToolRequest, args SetReflectionInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.SetReflection(args.Output, args.Reflection); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleSetPrimary(_ context.Context, _ *mcpsdk.CallToolRequest, args SetPrimaryInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.SetPrimary(args.Output); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleApply(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ApplyOutput, error) {
	status, err := s.client.Apply()
	if err != nil {
		return nil, ApplyOutput{}, err
	}
	out := ApplyOutput{
		State:            status.State,
		ConfirmRemaining: status.ConfirmRemaining,
	}
	if status.ConfirmRemaining > 0 {
		out.Message = fmt.Sprintf("applied; call confirm_layout within %.0fs or the change reverts", status.ConfirmRemaining)
	} else {
		out.Message = "applied; call confirm_layout to keep the change"
	}
	return nil, out, nil
}

func (s *Server) handleConfirm(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.Confirm(); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleRevert(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.Revert(); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleReset(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.Reset(); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleGetCommand(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, GetCommandOutput, error) {
	cmd, err := s.client.GetCommand()
	if err != nil {
		return nil, GetCommandOutput{}, err
	}
	return nil, GetCommandOutput{Command: cmd}, nil
}
