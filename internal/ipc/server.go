package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/tabtile/internal/config"
	"github.com/1broseidon/tabtile/internal/daemon"
	"github.com/1broseidon/tabtile/internal/group"
	"github.com/1broseidon/tabtile/internal/runtimepath"
)

// requestTimeout bounds every command except CAPTURE_WINDOW, which is bounded
// by the daemon's capture timeout instead.
const requestTimeout = 10 * time.Second

// Controller is the part of daemon.Controller the server drives.
type Controller interface {
	Status(ctx context.Context) (daemon.Status, error)
	Groups(ctx context.Context) ([]group.View, error)
	CreateGroup(ctx context.Context, ids []group.WindowID, name string) (group.View, error)
	AddWindow(ctx context.Context, id group.ID, window group.WindowID, index int) (group.View, error)
	Capture(ctx context.Context, id group.ID, index int) (group.View, error)
	ReleaseWindow(ctx context.Context, id group.ID, window group.WindowID) error
	CloseWindow(ctx context.Context, window group.WindowID) error
	SwitchTab(ctx context.Context, id group.ID, index int) error
	SetPin(ctx context.Context, id group.ID, windows []group.WindowID, state group.PinState) error
	MoveTabs(ctx context.Context, id group.ID, windows []group.WindowID, toIndex int) error
	RenameTab(ctx context.Context, id group.ID, window group.WindowID, name string) error
	RenameGroup(ctx context.Context, id group.ID, name string) error
	AddSeparator(ctx context.Context, id group.ID, index int) error
	DropTabs(ctx context.Context, source group.ID, windows []group.WindowID, target group.ID, index int) error
	Cycle(ctx context.Context) error
	CycleEnd(ctx context.Context) error
	DissolveGroup(ctx context.Context, id group.ID) error
	DissolveAll(ctx context.Context) error
}

// Server handles IPC requests from clients
type Server struct {
	// ConfigPath is the file RELOAD validates before signalling the daemon.
	// Empty means the default config path.
	ConfigPath string

	socketPath   string
	listener     net.Listener
	ctrl         Controller
	startTime    time.Time
	reloadChan   chan<- struct{}
	ctx          context.Context
	cancel       context.CancelFunc
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server on the runtime socket path.
func NewServer(ctrl Controller, reloadChan chan<- struct{}) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, ctrl, reloadChan), nil
}

// NewServerAt creates a server listening on socketPath.
func NewServerAt(socketPath string, ctrl Controller, reloadChan chan<- struct{}) *Server {
	// Remove existing socket if present
	os.Remove(socketPath)

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
		startTime:  time.Now(),
		reloadChan: reloadChan,
		ctx:        ctx,
		cancel:     cancel,
	}
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

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

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
	if req.Command == CommandCaptureWindow {
		return s.handleCaptureWindow(s.ctx, req.Payload)
	}

	ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
	defer cancel()

	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus(ctx)
	case CommandListGroups:
		return s.handleListGroups(ctx)
	case CommandCreateGroup:
		return s.handleCreateGroup(ctx, req.Payload)
	case CommandAddWindow:
		return s.handleAddWindow(ctx, req.Payload)
	case CommandReleaseWindow:
		return s.handleReleaseWindow(ctx, req.Payload)
	case CommandCloseWindow:
		return s.handleCloseWindow(ctx, req.Payload)
	case CommandSwitchTab:
		return s.handleSwitchTab(ctx, req.Payload)
	case CommandSetPin:
		return s.handleSetPin(ctx, req.Payload)
	case CommandMoveTabs:
		return s.handleMoveTabs(ctx, req.Payload)
	case CommandRenameTab:
		return s.handleRenameTab(ctx, req.Payload)
	case CommandRenameGroup:
		return s.handleRenameGroup(ctx, req.Payload)
	case CommandAddSeparator:
		return s.handleAddSeparator(ctx, req.Payload)
	case CommandDropTabs:
		return s.handleDropTabs(ctx, req.Payload)
	case CommandCycle:
		return s.handleCycle(ctx, req.Payload)
	case CommandDissolveGroup:
		return s.handleDissolveGroup(ctx, req.Payload)
	case CommandDissolveAll:
		return result(s.ctrl.DissolveAll(ctx))
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handleReload validates the configuration on disk and asks the daemon to
// apply it.
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	load := config.LoadWithSources
	if s.ConfigPath != "" {
		load = func() (*config.LoadResult, error) { return config.LoadFromPath(s.ConfigPath) }
	}
	if _, err := load(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	// Notify the main daemon via channel (non-blocking)
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetStatus(ctx context.Context) *Response {
	st, err := s.ctrl.Status(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get status: %v", err))
	}

	resp, _ := NewOKResponse(StatusData{
		Groups:          st.Groups,
		Windows:         st.Windows,
		MaximizedGroups: st.Maximized,
		UptimeSeconds:   int64(time.Since(s.startTime).Seconds()),
		DaemonRunning:   true,
	})
	return resp
}

func (s *Server) handleListGroups(ctx context.Context) *Response {
	views, err := s.ctrl.Groups(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to list groups: %v", err))
	}
	if views == nil {
		views = []group.View{}
	}
	resp, _ := NewOKResponse(GroupsData{Groups: views})
	return resp
}

func (s *Server) handleCreateGroup(ctx context.Context, payload json.RawMessage) *Response {
	var req CreateGroupPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid create payload: %v", err))
	}
	if len(req.Windows) == 0 {
		return NewErrorResponse("windows is required")
	}
	return groupResult(s.ctrl.CreateGroup(ctx, req.Windows, req.Name))
}

func (s *Server) handleAddWindow(ctx context.Context, payload json.RawMessage) *Response {
	var req AddWindowPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid add payload: %v", err))
	}
	if req.GroupID == "" || req.Window == 0 {
		return NewErrorResponse("group_id and window are required")
	}
	return groupResult(s.ctrl.AddWindow(ctx, req.GroupID, req.Window, IndexOrAppend(req.Index)))
}

func (s *Server) handleCaptureWindow(ctx context.Context, payload json.RawMessage) *Response {
	var req CaptureWindowPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid capture payload: %v", err))
	}
	if req.GroupID == "" {
		return NewErrorResponse("group_id is required")
	}
	log.Printf("IPC: Waiting for a new window for group %s", req.GroupID)
	return groupResult(s.ctrl.Capture(ctx, req.GroupID, IndexOrAppend(req.Index)))
}

func (s *Server) handleReleaseWindow(ctx context.Context, payload json.RawMessage) *Response {
	var req ReleaseWindowPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid release payload: %v", err))
	}
	return result(s.ctrl.ReleaseWindow(ctx, req.GroupID, req.Window))
}

func (s *Server) handleCloseWindow(ctx context.Context, payload json.RawMessage) *Response {
	var req CloseWindowPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid close payload: %v", err))
	}
	return result(s.ctrl.CloseWindow(ctx, req.Window))
}

func (s *Server) handleSwitchTab(ctx context.Context, payload json.RawMessage) *Response {
	var req SwitchTabPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid switch payload: %v", err))
	}
	return result(s.ctrl.SwitchTab(ctx, req.GroupID, req.Index))
}

func (s *Server) handleSetPin(ctx context.Context, payload json.RawMessage) *Response {
	var req SetPinPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid pin payload: %v", err))
	}
	if len(req.Windows) == 0 {
		return NewErrorResponse("windows is required")
	}
	return result(s.ctrl.SetPin(ctx, req.GroupID, req.Windows, req.State))
}

func (s *Server) handleMoveTabs(ctx context.Context, payload json.RawMessage) *Response {
	var req MoveTabsPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid move payload: %v", err))
	}
	return result(s.ctrl.MoveTabs(ctx, req.GroupID, req.Windows, req.ToIndex))
}

func (s *Server) handleRenameTab(ctx context.Context, payload json.RawMessage) *Response {
	var req RenameTabPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid rename payload: %v", err))
	}
	return result(s.ctrl.RenameTab(ctx, req.GroupID, req.Window, req.Name))
}

func (s *Server) handleRenameGroup(ctx context.Context, payload json.RawMessage) *Response {
	var req RenameGroupPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid rename payload: %v", err))
	}
	return result(s.ctrl.RenameGroup(ctx, req.GroupID, req.Name))
}

func (s *Server) handleAddSeparator(ctx context.Context, payload json.RawMessage) *Response {
	var req AddSeparatorPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid separator payload: %v", err))
	}
	return result(s.ctrl.AddSeparator(ctx, req.GroupID, IndexOrAppend(req.Index)))
}

func (s *Server) handleDropTabs(ctx context.Context, payload json.RawMessage) *Response {
	var req DropTabsPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid drop payload: %v", err))
	}
	target := req.TargetID
	if target == "" {
		target = req.SourceID
	}
	return result(s.ctrl.DropTabs(ctx, req.SourceID, req.Windows, target, IndexOrAppend(req.Index)))
}

func (s *Server) handleCycle(ctx context.Context, payload json.RawMessage) *Response {
	var req CyclePayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid cycle payload: %v", err))
	}
	if req.End {
		return result(s.ctrl.CycleEnd(ctx))
	}
	return result(s.ctrl.Cycle(ctx))
}

func (s *Server) handleDissolveGroup(ctx context.Context, payload json.RawMessage) *Response {
	var req DissolveGroupPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid dissolve payload: %v", err))
	}
	return result(s.ctrl.DissolveGroup(ctx, req.GroupID))
}

// decodePayload unmarshals payload into v. An absent payload leaves v zero.
func decodePayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, v)
}

func result(err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func groupResult(v group.View, err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, err := NewOKResponse(GroupData{Group: v})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server. Requests still waiting on the
// controller are cancelled.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

// SocketPath reports where the server listens.
func (s *Server) SocketPath() string {
	return s.socketPath
}
