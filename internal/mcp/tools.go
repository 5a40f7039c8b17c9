package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tabtile/internal/group"
)

func (s *Server) handleListGroups(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListGroupsInput) (*mcpsdk.CallToolResult, ListGroupsOutput, error) {
	views, err := s.daemon.ListGroups()
	if err != nil {
		return nil, ListGroupsOutput{}, err
	}
	out := ListGroupsOutput{Groups: make([]GroupInfo, 0, len(views))}
	for _, v := range views {
		out.Groups = append(out.Groups, groupInfo(v))
	}
	return nil, out, nil
}

func (s *Server) handleCreateGroup(_ context.Context, _ *mcpsdk.CallToolRequest, args CreateGroupInput) (*mcpsdk.CallToolResult, GroupOutput, error) {
	if len(args.Windows) < 2 {
		return nil, GroupOutput{}, fmt.Errorf("a group needs at least two windows, got %d", len(args.Windows))
	}
	view, err := s.daemon.CreateGroup(windowIDs(args.Windows), strings.TrimSpace(args.Name))
	if err != nil {
		return nil, GroupOutput{}, err
	}
	return nil, GroupOutput{Group: groupInfo(view)}, nil
}

func (s *Server) handleAddWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args AddWindowInput) (*mcpsdk.CallToolResult, GroupOutput, error) {
	id, err := groupID(args.GroupID)
	if err != nil {
		return nil, GroupOutput{}, err
	}
	view, err := s.daemon.AddWindow(id, group.WindowID(args.Window), args.Index)
	if err != nil {
		return nil, GroupOutput{}, err
	}
	return nil, GroupOutput{Group: groupInfo(view)}, nil
}

func (s *Server) handleReleaseWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args ReleaseWindowInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	id, err := groupID(args.GroupID)
	if err != nil {
		return nil, OKOutput{}, err
	}
	if err := s.daemon.ReleaseWindow(id, group.WindowID(args.Window)); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleSwitchTab(_ context.Context, _ *mcpsdk.CallToolRequest, args SwitchTabInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	id, err := groupID(args.GroupID)
	if err != nil {
		return nil, OKOutput{}, err
	}
	if args.Index < 0 {
		return nil, OKOutput{}, fmt.Errorf("index must be >= 0")
	}
	if err := s.daemon.SwitchTab(id, args.Index); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleSetPin(_ context.Context, _ *mcpsdk.CallToolRequest, args SetPinInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	id, err := groupID(args.GroupID)
	if err != nil {
		return nil, OKOutput{}, err
	}
	state, ok := group.ParsePinState(strings.ToLower(strings.TrimSpace(args.State)))
	if !ok {
		return nil, OKOutput{}, fmt.Errorf("unknown pin state %q; use none, pinned or super", args.State)
	}
	if len(args.Windows) == 0 {
		return nil, OKOutput{}, fmt.Errorf("windows is required")
	}
	if err := s.daemon.SetPin(id, windowIDs(args.Windows), state); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleMoveTabs(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveTabsInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	id, err := groupID(args.GroupID)
	if err != nil {
		return nil, OKOutput{}, err
	}
	if len(args.Windows) == 0 {
		return nil, OKOutput{}, fmt.Errorf("windows is required")
	}
	if err := s.daemon.MoveTabs(id, windowIDs(args.Windows), args.ToIndex); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleRenameTab(_ context.Context, _ *mcpsdk.CallToolRequest, args RenameTabInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	id, err := groupID(args.GroupID)
	if err != nil {
		return nil, OKOutput{}, err
	}
	if err := s.daemon.RenameTab(id, group.WindowID(args.Window), args.Name); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleDissolveGroup(_ context.Context, _ *mcpsdk.CallToolRequest, args DissolveGroupInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	id, err := groupID(args.GroupID)
	if err != nil {
		return nil, OKOutput{}, err
	}
	if err := s.daemon.DissolveGroup(id); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}

func groupID(s string) (group.ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("group_id is required")
	}
	return group.ID(s), nil
}

func windowIDs(in []uint32) []group.WindowID {
	out := make([]group.WindowID, len(in))
	for i, w := range in {
		out[i] = group.WindowID(w)
	}
	return out
}

func groupInfo(v group.View) GroupInfo {
	info := GroupInfo{
		ID:        string(v.ID),
		Name:      v.Name,
		Workspace: uint64(v.WorkspaceID),
		Maximized: v.Maximized,
		Frame:     fmt.Sprintf("%dx%d+%d+%d", v.Frame.Width, v.Frame.Height, v.Frame.X, v.Frame.Y),
		Tabs:      make([]TabInfo, 0, len(v.Windows)),
	}
	for i, w := range v.Windows {
		info.Tabs = append(info.Tabs, TabInfo{
			Window:    uint32(w.ID),
			Label:     w.Label(),
			AppID:     w.AppID,
			Pin:       w.Pin.String(),
			Separator: w.Separator,
			Active:    i == v.ActiveIndex,
		})
	}
	return info
}
