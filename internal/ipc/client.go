package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/tabtile/internal/group"
	"github.com/1broseidon/tabtile/internal/runtimepath"
)

// captureGrace is added on top of the daemon's own capture timeout so the
// client does not give up first.
const captureGrace = 2 * time.Minute

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
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for the daemon listening on socketPath.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request, timeout time.Duration) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// call sends command with an optional payload and decodes the response data
// into out when it is non-nil.
func (c *Client) call(command CommandType, payload any, out any) error {
	return c.callTimeout(command, payload, out, c.timeout)
}

func (c *Client) callTimeout(command CommandType, payload any, out any, timeout time.Duration) error {
	req := &Request{Command: command}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", command, err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req, timeout)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", command, err)
	}
	return nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListGroups retrieves every live group.
func (c *Client) ListGroups() ([]group.View, error) {
	var data GroupsData
	if err := c.call(CommandListGroups, nil, &data); err != nil {
		return nil, err
	}
	return data.Groups, nil
}

// CreateGroup groups windows; the first window's frame becomes the group's.
func (c *Client) CreateGroup(windows []group.WindowID, name string) (group.View, error) {
	var data GroupData
	err := c.call(CommandCreateGroup, CreateGroupPayload{Windows: windows, Name: name}, &data)
	return data.Group, err
}

// AddWindow adds window to a group. A nil index appends.
func (c *Client) AddWindow(id group.ID, window group.WindowID, index *int) (group.View, error) {
	var data GroupData
	err := c.call(CommandAddWindow, AddWindowPayload{GroupID: id, Window: window, Index: index}, &data)
	return data.Group, err
}

// CaptureWindow waits for the next new window and adds it to a group.
func (c *Client) CaptureWindow(id group.ID, index *int) (group.View, error) {
	var data GroupData
	err := c.callTimeout(CommandCaptureWindow, CaptureWindowPayload{GroupID: id, Index: index}, &data, captureGrace)
	return data.Group, err
}

func (c *Client) ReleaseWindow(id group.ID, window group.WindowID) error {
	return c.call(CommandReleaseWindow, ReleaseWindowPayload{GroupID: id, Window: window}, nil)
}

func (c *Client) CloseWindow(window group.WindowID) error {
	return c.call(CommandCloseWindow, CloseWindowPayload{Window: window}, nil)
}

func (c *Client) SwitchTab(id group.ID, index int) error {
	return c.call(CommandSwitchTab, SwitchTabPayload{GroupID: id, Index: index}, nil)
}

func (c *Client) SetPin(id group.ID, windows []group.WindowID, state group.PinState) error {
	return c.call(CommandSetPin, SetPinPayload{GroupID: id, Windows: windows, State: state}, nil)
}

func (c *Client) MoveTabs(id group.ID, windows []group.WindowID, toIndex int) error {
	return c.call(CommandMoveTabs, MoveTabsPayload{GroupID: id, Windows: windows, ToIndex: toIndex}, nil)
}

func (c *Client) RenameTab(id group.ID, window group.WindowID, name string) error {
	return c.call(CommandRenameTab, RenameTabPayload{GroupID: id, Window: window, Name: name}, nil)
}

func (c *Client) RenameGroup(id group.ID, name string) error {
	return c.call(CommandRenameGroup, RenameGroupPayload{GroupID: id, Name: name}, nil)
}

func (c *Client) AddSeparator(id group.ID, index *int) error {
	return c.call(CommandAddSeparator, AddSeparatorPayload{GroupID: id, Index: index}, nil)
}

// DropTabs moves windows from source into target. Passing the source as
// target reorders.
func (c *Client) DropTabs(source group.ID, windows []group.WindowID, target group.ID, index *int) error {
	return c.call(CommandDropTabs, DropTabsPayload{
		SourceID: source,
		Windows:  windows,
		TargetID: target,
		Index:    index,
	}, nil)
}

// Cycle steps the active group's MRU cycle.
func (c *Client) Cycle() error {
	return c.call(CommandCycle, CyclePayload{}, nil)
}

// CycleEnd commits a running cycle.
func (c *Client) CycleEnd() error {
	return c.call(CommandCycle, CyclePayload{End: true}, nil)
}

func (c *Client) DissolveGroup(id group.ID) error {
	return c.call(CommandDissolveGroup, DissolveGroupPayload{GroupID: id}, nil)
}

func (c *Client) DissolveAll() error {
	return c.call(CommandDissolveAll, nil, nil)
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
