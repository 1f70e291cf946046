package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/xarrange/xarrange/internal/config"
	"github.com/xarrange/xarrange/internal/layout"
	"github.com/xarrange/xarrange/internal/runtimepath"
	"github.com/xarrange/xarrange/internal/session"
)

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	ctrl         *session.Controller
	startTime    time.Time
	reloadChan   chan struct{}
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(ctrl *session.Controller, reloadChan chan struct{}) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
		startTime:  time.Now(),
		reloadChan: reloadChan,
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	// Accept connections
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	// Parse request
	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Handle command
	resp := s.handleCommand(req)

	// Send response
	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetOutputs:
		return s.handleGetOutputs()
	case CommandGetCommand:
		return s.handleGetCommand()
	case CommandMoveOutput:
		return s.handleMoveOutput(req.Payload)
	case CommandSetPosition:
		return s.handleSetPosition(req.Payload)
	case CommandSetEnabled:
		return s.handleSetEnabled(req.Payload)
	case CommandSetMode:
		return s.handleSetMode(req.Payload)
	case CommandSetRotation:
		return s.handleSetRotation(req.Payload)
	case CommandSetReflection:
		return s.handleSetReflection(req.Payload)
	case CommandSetPrimary:
		return s.handleSetPrimary(req.Payload)
	case CommandApply:
		return s.handleApply()
	case CommandConfirm:
		return s.handleConfirm()
	case CommandRevert:
		return s.handleRevert()
	case CommandReset:
		return s.handleReset()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handleReload reloads the configuration
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	newCfg, err := config.Load()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	s.ctrl.UpdateConfig(newCfg)

	// Notify the main daemon via channel (non-blocking)
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	log.Println("IPC: Config reloaded successfully")

	resp, _ := NewOKResponse(nil)
	return resp
}

// handleGetStatus returns current daemon status
func (s *Server) handleGetStatus() *Response {
	view := s.ctrl.View()

	status := StatusData{
		State:         s.ctrl.State().String(),
		Generation:    view.Generation(),
		Modified:      s.ctrl.Modified(),
		OutputCount:   len(view.Outputs()),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}
	if deadline, armed := s.ctrl.ConfirmDeadline(); armed {
		status.ConfirmRemaining = time.Until(deadline).Seconds()
	}

	resp, _ := NewOKResponse(status)
	return resp
}

// handleGetOutputs returns the working layout's outputs
func (s *Server) handleGetOutputs() *Response {
	view := s.ctrl.View()
	bounds := view.Bounds()

	outputs := view.Outputs()
	infos := make([]OutputInfo, len(outputs))
	for i, o := range outputs {
		infos[i] = describeOutput(o)
	}

	data := OutputsData{
		Outputs:      infos,
		ScreenWidth:  bounds.Width,
		ScreenHeight: bounds.Height,
	}

	resp, _ := NewOKResponse(data)
	return resp
}

func describeOutput(o *layout.Output) OutputInfo {
	info := OutputInfo{
		ID:         uint32(o.ID),
		Name:       o.Name,
		Product:    o.Product,
		Enabled:    o.Enabled,
		Primary:    o.Primary,
		X:          o.X,
		Y:          o.Y,
		Rotation:   o.Rotation.String(),
		Reflection: o.Reflection.String(),
	}
	if o.Mode != nil {
		info.Mode = &ModeInfo{Width: o.Mode.Width, Height: o.Mode.Height, Refresh: o.Mode.Refresh}
	}
	for _, m := range o.Modes {
		info.Modes = append(info.Modes, ModeInfo{Width: m.Width, Height: m.Height, Refresh: m.Refresh})
	}
	return info
}

// handleGetCommand renders the working layout as an xrandr invocation
func (s *Server) handleGetCommand() *Response {
	resp, _ := NewOKResponse(CommandData{Command: layout.XrandrCommand(s.ctrl.View())})
	return resp
}

// resolveOutput maps a connector name to its ID in the working layout.
func (s *Server) resolveOutput(name string) (layout.OutputID, error) {
	o, ok := s.ctrl.View().OutputByName(name)
	if !ok {
		return 0, fmt.Errorf("unknown output: %s", name)
	}
	return o.ID, nil
}

func (s *Server) handleMoveOutput(payload json.RawMessage) *Response {
	var req MoveOutputPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid move payload: %v", err))
	}
	id, err := s.resolveOutput(req.Output)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	if req.Snap {
		err = s.ctrl.DragOutput(id, req.DX, req.DY)
	} else {
		err = s.ctrl.Mutate(func(m *layout.Model) error {
			return m.MoveOutput(id, req.DX, req.DY)
		})
	}
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to move %s: %v", req.Output, err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleSetPosition(payload json.RawMessage) *Response {
	var req SetPositionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid position payload: %v", err))
	}
	id, err := s.resolveOutput(req.Output)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	err = s.ctrl.Mutate(func(m *layout.Model) error {
		return m.SetPosition(id, req.X, req.Y)
	})
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to place %s: %v", req.Output, err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

// handleSetEnabled toggles an output. Enabling also selects the preferred
// mode and a position right of the current arrangement, so the output is
// immediately complete.
func (s *Server) handleSetEnabled(payload json.RawMessage) *Response {
	var req SetEnabledPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid enable payload: %v", err))
	}
	id, err := s.resolveOutput(req.Output)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	err = s.ctrl.Mutate(func(m *layout.Model) error {
		o, ok := m.Output(id)
		if !ok {
			return layout.ErrUnknownOutput
		}
		if !req.Enabled {
			return m.SetEnabled(id, false)
		}
		if o.Enabled {
			return nil
		}
		if err := m.SetEnabled(id, true); err != nil {
			return err
		}
		// Place the output clear of the cluster while it is still
		// modeless and has no area, so the mode's placement check runs
		// at its final position rather than at the origin.
		if err := m.SetPosition(id, m.Bounds().Right(), 0); err != nil {
			return err
		}
		mode, ok := o.PreferredMode()
		if !ok {
			return fmt.Errorf("%s reports no modes", o.Name)
		}
		return m.SetMode(id, mode)
	})
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to toggle %s: %v", req.Output, err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleSetMode(payload json.RawMessage) *Response {
	var req SetModePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid mode payload: %v", err))
	}
	id, err := s.resolveOutput(req.Output)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	err = s.ctrl.Mutate(func(m *layout.Model) error {
		o, ok := m.Output(id)
		if !ok {
			return layout.ErrUnknownOutput
		}
		mode := layout.Mode{Width: req.Width, Height: req.Height, Refresh: req.Refresh}
		if req.Refresh == 0 {
			found, ok := o.FindMode(req.Width, req.Height)
			if !ok {
				return fmt.Errorf("%s does not support %dx%d", o.Name, req.Width, req.Height)
			}
			mode = found
		}
		return m.SetMode(id, mode)
	})
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to set mode on %s: %v", req.Output, err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleSetRotation(payload json.RawMessage) *Response {
	var req SetRotationPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid rotation payload: %v", err))
	}
	id, err := s.resolveOutput(req.Output)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	rot, err := layout.ParseRotation(req.Rotation)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	err = s.ctrl.Mutate(func(m *layout.Model) error {
		return m.SetRotation(id, rot)
	})
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to rotate %s: %v", req.Output, err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleSetReflection(payload json.RawMessage) *Response {
	var req SetReflectionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid reflection payload: %v", err))
	}
	id, err := s.resolveOutput(req.Output)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	refl, err := layout.ParseReflection(req.Reflection)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	err = s.ctrl.Mutate(func(m *layout.Model) error {
		return m.SetReflection(id, refl)
	})
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reflect %s: %v", req.Output, err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleSetPrimary(payload json.RawMessage) *Response {
	var req SetPrimaryPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid primary payload: %v", err))
	}

	var id layout.OutputID
	if req.Output != "" {
		resolved, err := s.resolveOutput(req.Output)
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		id = resolved
	}

	err := s.ctrl.Mutate(func(m *layout.Model) error {
		return m.SetPrimary(id)
	})
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to set primary: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleApply() *Response {
	if err := s.ctrl.Apply(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Apply failed: %v", err))
	}
	return s.handleGetStatus()
}

func (s *Server) handleConfirm() *Response {
	if err := s.ctrl.Confirm(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Confirm failed: %v", err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleRevert() *Response {
	if err := s.ctrl.Revert(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Revert failed: %v", err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleReset() *Response {
	if err := s.ctrl.Reset(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Reset failed: %v", err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
