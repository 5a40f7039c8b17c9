package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/tabtile/internal/group"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload        CommandType = "RELOAD"
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandListGroups    CommandType = "LIST_GROUPS"
	CommandCreateGroup   CommandType = "CREATE_GROUP"
	CommandAddWindow     CommandType = "ADD_WINDOW"
	CommandCaptureWindow CommandType = "CAPTURE_WINDOW"
	CommandReleaseWindow CommandType = "RELEASE_WINDOW"
	CommandCloseWindow   CommandType = "CLOSE_WINDOW"
	CommandSwitchTab     CommandType = "SWITCH_TAB"
	CommandSetPin        CommandType = "SET_PIN"
	CommandMoveTabs      CommandType = "MOVE_TABS"
	CommandRenameTab     CommandType = "RENAME_TAB"
	CommandRenameGroup   CommandType = "RENAME_GROUP"
	CommandAddSeparator  CommandType = "ADD_SEPARATOR"
	CommandDropTabs      CommandType = "DROP_TABS"
	CommandCycle         CommandType = "CYCLE"
	CommandDissolveGroup CommandType = "DISSOLVE_GROUP"
	CommandDissolveAll   CommandType = "DISSOLVE_ALL"
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
	Groups          int   `json:"groups"`
	Windows         int   `json:"windows"`
	MaximizedGroups int   `json:"maximized_groups"`
	UptimeSeconds   int64 `json:"uptime_seconds"`
	DaemonRunning   bool  `json:"daemon_running"`
}

// GroupsData is returned by LIST_GROUPS.
type GroupsData struct {
	Groups []group.View `json:"groups"`
}

// GroupData is returned by commands that create or grow a group.
type GroupData struct {
	Group group.View `json:"group"`
}

type CreateGroupPayload struct {
	Windows []group.WindowID `json:"windows"`
	Name    string           `json:"name,omitempty"`
}

// Index fields are insertion points; a missing index appends.

type AddWindowPayload struct {
	GroupID group.ID       `json:"group_id"`
	Window  group.WindowID `json:"window"`
	Index   *int           `json:"index,omitempty"`
}

type CaptureWindowPayload struct {
	GroupID group.ID `json:"group_id"`
	Index   *int     `json:"index,omitempty"`
}

type ReleaseWindowPayload struct {
	GroupID group.ID       `json:"group_id"`
	Window  group.WindowID `json:"window"`
}

type CloseWindowPayload struct {
	Window group.WindowID `json:"window"`
}

type SwitchTabPayload struct {
	GroupID group.ID `json:"group_id"`
	Index   int      `json:"index"`
}

type SetPinPayload struct {
	GroupID group.ID         `json:"group_id"`
	Windows []group.WindowID `json:"windows"`
	State   group.PinState   `json:"state"`
}

type MoveTabsPayload struct {
	GroupID group.ID         `json:"group_id"`
	Windows []group.WindowID `json:"windows"`
	ToIndex int              `json:"to_index"`
}

type RenameTabPayload struct {
	GroupID group.ID       `json:"group_id"`
	Window  group.WindowID `json:"window"`
	Name    string         `json:"name"`
}

type RenameGroupPayload struct {
	GroupID group.ID `json:"group_id"`
	Name    string   `json:"name"`
}

type AddSeparatorPayload struct {
	GroupID group.ID `json:"group_id"`
	Index   *int     `json:"index,omitempty"`
}

type DropTabsPayload struct {
	SourceID group.ID         `json:"source_id"`
	Windows  []group.WindowID `json:"windows"`
	TargetID group.ID         `json:"target_id"`
	Index    *int             `json:"index,omitempty"`
}

// CyclePayload steps the active group's MRU cycle, or commits it when End
// is set.
type CyclePayload struct {
	End bool `json:"end,omitempty"`
}

type DissolveGroupPayload struct {
	GroupID group.ID `json:"group_id"`
}

// IndexOrAppend resolves an optional index field.
func IndexOrAppend(index *int) int {
	if index == nil {
		return -1
	}
	return *index
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
