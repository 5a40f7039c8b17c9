package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tabtile/internal/group"
)

const (
	ServerName    = "tabtile"
	ServerVersion = "0.1.0"
)

// Daemon is the subset of the IPC client the tools drive.
type Daemon interface {
	ListGroups() ([]group.View, error)
	CreateGroup(windows []group.WindowID, name string) (group.View, error)
	AddWindow(id group.ID, window group.WindowID, index *int) (group.View, error)
	ReleaseWindow(id group.ID, window group.WindowID) error
	SwitchTab(id group.ID, index int) error
	SetPin(id group.ID, windows []group.WindowID, state group.PinState) error
	MoveTabs(id group.ID, windows []group.WindowID, toIndex int) error
	RenameTab(id group.ID, window group.WindowID, name string) error
	DissolveGroup(id group.ID) error
}

// Server exposes tab group control over MCP. Every tool is forwarded to a
// running daemon.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
}

// NewServer creates an MCP server that forwards to daemon.
func NewServer(daemon Daemon) *Server {
	s := &Server{daemon: daemon}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_groups",
		Description: "List every tab group with its tabs in order, the active tab, pin states and the workspace it lives on.",
	}, s.handleListGroups)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_group",
		Description: "Create a tab group from two or more X11 windows. Windows already in another group, ignored or unknown are rejected. Returns the new group.",
	}, s.handleCreateGroup)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "add_window",
		Description: "Add an ungrouped window to an existing group, optionally at a tab index. The window is moved onto the group's workspace and frame.",
	}, s.handleAddWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "release_window",
		Description: "Take a window out of its group, leaving it as a plain window. A group left with one tab is dissolved.",
	}, s.handleReleaseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "switch_tab",
		Description: "Activate the tab at index in a group. The active window is raised and focused.",
	}, s.handleSwitchTab)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_pin",
		Description: "Set the pin state of tabs. pinned keeps a tab at the front of its group; super additionally mirrors it into every group on the workspace.",
	}, s.handleSetPin)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_tabs",
		Description: "Reorder tabs inside a group. Pinned tabs always stay ahead of unpinned ones.",
	}, s.handleMoveTabs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "rename_tab",
		Description: "Give a tab a custom label. An empty name restores the window title.",
	}, s.handleRenameTab)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "dissolve_group",
		Description: "Dissolve a group. Its windows stay open and become ungrouped.",
	}, s.handleDissolveGroup)
}
