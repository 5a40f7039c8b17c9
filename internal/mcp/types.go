package mcp

// TabInfo describes one tab of a group.
type TabInfo struct {
	Window    uint32 `json:"window"`
	Label     string `json:"label"`
	AppID     string `json:"app_id,omitempty"`
	Pin       string `json:"pin"`
	Separator bool   `json:"separator,omitempty"`
	Active    bool   `json:"active,omitempty"`
}

// GroupInfo describes one tab group.
type GroupInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Workspace uint64    `json:"workspace"`
	Maximized bool      `json:"maximized,omitempty"`
	Frame     string    `json:"frame"`
	Tabs      []TabInfo `json:"tabs"`
}

// ListGroupsInput is the input for the list_groups tool.
type ListGroupsInput struct{}

// ListGroupsOutput is the output for the list_groups tool.
type ListGroupsOutput struct {
	Groups []GroupInfo `json:"groups"`
}

// CreateGroupInput is the input for the create_group tool.
type CreateGroupInput struct {
	Windows []uint32 `json:"windows" jsonschema:"X11 window IDs to group, in tab order"`
	Name    string   `json:"name,omitempty" jsonschema:"Optional group name"`
}

// GroupOutput is returned by tools that create or grow a group.
type GroupOutput struct {
	Group GroupInfo `json:"group"`
}

// AddWindowInput is the input for the add_window tool.
type AddWindowInput struct {
	GroupID string `json:"group_id" jsonschema:"Target group ID"`
	Window  uint32 `json:"window" jsonschema:"X11 window ID to add"`
	Index   *int   `json:"index,omitempty" jsonschema:"Insertion index (default: append)"`
}

// ReleaseWindowInput is the input for the release_window tool.
type ReleaseWindowInput struct {
	GroupID string `json:"group_id" jsonschema:"Group that owns the window"`
	Window  uint32 `json:"window" jsonschema:"X11 window ID to release"`
}

// SwitchTabInput is the input for the switch_tab tool.
type SwitchTabInput struct {
	GroupID string `json:"group_id" jsonschema:"Group ID"`
	Index   int    `json:"index" jsonschema:"Zero-based tab index to activate"`
}

// SetPinInput is the input for the set_pin tool.
type SetPinInput struct {
	GroupID string   `json:"group_id" jsonschema:"Group ID"`
	Windows []uint32 `json:"windows" jsonschema:"Windows whose pin state changes"`
	State   string   `json:"state" jsonschema:"One of: none, pinned, super"`
}

// MoveTabsInput is the input for the move_tabs tool.
type MoveTabsInput struct {
	GroupID string   `json:"group_id" jsonschema:"Group ID"`
	Windows []uint32 `json:"windows" jsonschema:"Windows to move, kept in their current relative order"`
	ToIndex int      `json:"to_index" jsonschema:"Destination index"`
}

// RenameTabInput is the input for the rename_tab tool.
type RenameTabInput struct {
	GroupID string `json:"group_id" jsonschema:"Group ID"`
	Window  uint32 `json:"window" jsonschema:"Window whose tab is renamed"`
	Name    string `json:"name" jsonschema:"Custom tab name; empty restores the window title"`
}

// DissolveGroupInput is the input for the dissolve_group tool.
type DissolveGroupInput struct {
	GroupID string `json:"group_id" jsonschema:"Group ID to dissolve"`
}

// OKOutput is returned by tools with no other result.
type OKOutput struct {
	OK bool `json:"ok"`
}
