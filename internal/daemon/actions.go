package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/1broseidon/tabtile/internal/capture"
	"github.com/1broseidon/tabtile/internal/geometry"
	"github.com/1broseidon/tabtile/internal/group"
	"github.com/1broseidon/tabtile/internal/platform"
)

// Status summarises the controller for GET_STATUS.
type Status struct {
	Groups    int           `json:"groups"`
	Windows   int           `json:"windows"`
	Maximized int           `json:"maximized"`
	Uptime    time.Duration `json:"uptime"`
}

// Status reports group and window counts.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.Do(ctx, func() {
		seen := make(map[group.WindowID]struct{})
		for _, g := range c.manager.Groups() {
			st.Groups++
			if g.Maximized {
				st.Maximized++
			}
			for _, w := range g.Windows() {
				if !w.Separator {
					seen[w.ID] = struct{}{}
				}
			}
		}
		st.Windows = len(seen)
		st.Uptime = time.Since(c.startedAt)
	})
	return st, err
}

// Groups snapshots every live group in creation order.
func (c *Controller) Groups(ctx context.Context) ([]group.View, error) {
	var out []group.View
	err := c.Do(ctx, func() { out = c.views() })
	return out, err
}

// CreateGroup groups ids under the frame of the first window. The frame is
// pushed down to make room for the bar when it would cover the top of the
// display.
func (c *Controller) CreateGroup(ctx context.Context, ids []group.WindowID, name string) (group.View, error) {
	var view group.View
	var opErr error
	err := c.Do(ctx, func() {
		g, err := c.createGroup(ids, name)
		if err != nil {
			opErr = err
			return
		}
		view = g.View()
	})
	if err != nil {
		return group.View{}, err
	}
	return view, opErr
}

func (c *Controller) createGroup(ids []group.WindowID, name string) (*group.Group, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no windows given", ErrRejected)
	}
	windows := make([]group.Window, 0, len(ids))
	var first platform.Window
	for i, id := range ids {
		info, err := c.backend.WindowInfo(platform.WindowID(id))
		if err != nil {
			return nil, fmt.Errorf("%w: %d: %v", ErrWindowNotFound, id, err)
		}
		if c.ignored(info.AppID) {
			return nil, fmt.Errorf("%w: window class %q is ignored", ErrRejected, info.AppID)
		}
		if i == 0 {
			first = info
		}
		windows = append(windows, windowFromInfo(info))
	}

	frame, delta := c.clampFrame(first.Bounds)
	g := c.manager.CreateGroup(windows, frame, group.WorkspaceID(first.Workspace), name, false)
	if g == nil {
		return nil, fmt.Errorf("%w: windows are duplicated or already grouped", ErrRejected)
	}
	c.manager.Mutate(g, func(g *group.Group) { g.TabBarSqueezeDelta = delta })

	for _, w := range windows[1:] {
		c.joinWorkspace(w.ID, g)
	}
	c.applyFrame(g)
	if active, ok := g.ActiveWindow(); ok {
		c.raise(active.ID)
	}
	c.sync.SetLastActiveGroup(g)
	return g, nil
}

// AddWindow adds an existing window to a group at index (negative appends)
// and activates it.
func (c *Controller) AddWindow(ctx context.Context, id group.ID, window group.WindowID, index int) (group.View, error) {
	var view group.View
	var opErr error
	err := c.Do(ctx, func() {
		g := c.manager.Group(id)
		if g == nil {
			opErr = fmt.Errorf("%w: %s", ErrGroupNotFound, id)
			return
		}
		opErr = c.addWindow(g, window, index)
		view = g.View()
	})
	if err != nil {
		return group.View{}, err
	}
	return view, opErr
}

func (c *Controller) addWindow(g *group.Group, window group.WindowID, index int) error {
	info, err := c.backend.WindowInfo(platform.WindowID(window))
	if err != nil {
		return fmt.Errorf("%w: %d: %v", ErrWindowNotFound, window, err)
	}
	if c.ignored(info.AppID) {
		return fmt.Errorf("%w: window class %q is ignored", ErrRejected, info.AppID)
	}
	w := windowFromInfo(info)
	if !c.manager.AddWindow(w, g, index, false) {
		return fmt.Errorf("%w: window %d is already grouped", ErrRejected, window)
	}
	c.joinWorkspace(w.ID, g)
	c.setFrame(w.ID, g.Frame)
	c.manager.Mutate(g, func(g *group.Group) { g.SwitchToWindow(w.ID) })
	c.raise(w.ID)
	c.sync.SetLastActiveGroup(g)
	return nil
}

// Capture waits for the next new window and adds it to the group. The wait
// runs on the caller's goroutine; only the result is posted.
func (c *Controller) Capture(ctx context.Context, id group.ID, index int) (group.View, error) {
	var (
		timeout time.Duration
		exists  bool
	)
	if err := c.Do(ctx, func() {
		timeout = c.settings.CaptureTimeout
		exists = c.manager.Group(id) != nil
	}); err != nil {
		return group.View{}, err
	}
	if !exists {
		return group.View{}, fmt.Errorf("%w: %s", ErrGroupNotFound, id)
	}

	out := capture.Await(ctx, c.backend, capture.Options{
		Timeout: timeout,
		Ignore:  c.classes.MatchWindow,
		Logger:  c.logger,
	})
	switch out.Status {
	case capture.TimedOut:
		return group.View{}, ErrCaptureTimeout
	case capture.Failed:
		return group.View{}, fmt.Errorf("capture failed: %s", out.Reason)
	}
	return c.AddWindow(ctx, id, group.WindowID(out.Window.ID), index)
}

// ReleaseWindow takes a window out of a group and gives it back the space
// that was reserved for the bar.
func (c *Controller) ReleaseWindow(ctx context.Context, id group.ID, window group.WindowID) error {
	return c.doGroup(ctx, id, func(g *group.Group) error {
		return c.release(g, window)
	})
}

func (c *Controller) release(g *group.Group, window group.WindowID) error {
	frame := geometry.Expand(g.Frame, g.TabBarSqueezeDelta)
	if _, ok := c.sync.Release(window, g); !ok {
		return fmt.Errorf("%w: %d", ErrWindowNotFound, window)
	}
	if !c.manager.IsWindowGrouped(window) {
		c.setFrame(window, frame)
	}
	if c.manager.IsManaged(g) {
		if active, ok := g.ActiveWindow(); ok {
			c.raise(active.ID)
		}
	}
	return nil
}

// CloseWindow asks the window to close. Membership is cleaned up when the
// window is destroyed.
func (c *Controller) CloseWindow(ctx context.Context, window group.WindowID) error {
	var opErr error
	err := c.Do(ctx, func() {
		if !c.manager.IsWindowGrouped(window) {
			opErr = fmt.Errorf("%w: %d", ErrWindowNotFound, window)
			return
		}
		opErr = c.backend.Close(platform.WindowID(window))
	})
	if err != nil {
		return err
	}
	return opErr
}

// SwitchTab activates the tab at index.
func (c *Controller) SwitchTab(ctx context.Context, id group.ID, index int) error {
	return c.doGroup(ctx, id, func(g *group.Group) error {
		return c.switchTo(g, index)
	})
}

func (c *Controller) switchTo(g *group.Group, index int) error {
	w, ok := g.WindowAt(index)
	if !ok || w.Separator {
		return fmt.Errorf("%w: no tab at index %d", ErrRejected, index)
	}
	c.manager.Mutate(g, func(g *group.Group) { g.SwitchTo(index) })
	c.manager.PromotePrimaryGroup(w.ID, g.ID)
	c.sync.SetLastActiveGroup(g)
	c.setFrame(w.ID, g.Frame)
	c.raise(w.ID)
	return nil
}

// SetPin changes the pin state of windows in a group.
func (c *Controller) SetPin(ctx context.Context, id group.ID, windows []group.WindowID, state group.PinState) error {
	return c.doGroup(ctx, id, func(g *group.Group) error {
		c.setPin(g, windows, state)
		return nil
	})
}

func (c *Controller) setPin(g *group.Group, windows []group.WindowID, state group.PinState) {
	switch state {
	case group.PinSuper:
		c.sync.SetSuperPinned(true, windows, g)
	case group.PinPinned:
		var supers []group.WindowID
		for _, id := range windows {
			if w, ok := g.Window(id); ok && w.Pin == group.PinSuper {
				supers = append(supers, id)
			}
		}
		c.sync.SetSuperPinned(false, supers, g)
		c.sync.SetPinned(true, windows, g)
	default:
		c.sync.SetPinned(false, windows, g)
	}
}

// MoveTabs reorders windows within a group.
func (c *Controller) MoveTabs(ctx context.Context, id group.ID, windows []group.WindowID, toIndex int) error {
	return c.doGroup(ctx, id, func(g *group.Group) error {
		moved := false
		c.manager.Mutate(g, func(g *group.Group) { moved = g.MoveTabs(windows, toIndex) })
		if !moved {
			return fmt.Errorf("%w: nothing to move", ErrRejected)
		}
		return nil
	})
}

// RenameTab sets or clears (empty name) a tab's custom name.
func (c *Controller) RenameTab(ctx context.Context, id group.ID, window group.WindowID, name string) error {
	return c.doGroup(ctx, id, func(g *group.Group) error {
		ok := false
		c.manager.Mutate(g, func(g *group.Group) { ok = g.SetCustomName(window, name) })
		if !ok {
			return fmt.Errorf("%w: %d", ErrWindowNotFound, window)
		}
		return nil
	})
}

// RenameGroup sets the group's display name.
func (c *Controller) RenameGroup(ctx context.Context, id group.ID, name string) error {
	return c.doGroup(ctx, id, func(g *group.Group) error {
		c.manager.Mutate(g, func(g *group.Group) { g.Name = name })
		return nil
	})
}

// AddSeparator inserts a separator slot at index (negative appends).
func (c *Controller) AddSeparator(ctx context.Context, id group.ID, index int) error {
	return c.doGroup(ctx, id, func(g *group.Group) error {
		if !c.manager.AddWindow(c.manager.NewSeparator(), g, index, false) {
			return fmt.Errorf("%w: separator not added", ErrRejected)
		}
		return nil
	})
}

// DropTabs moves windows from source into target at index. Dropping into
// the source group reorders it.
func (c *Controller) DropTabs(ctx context.Context, source group.ID, windows []group.WindowID, target group.ID, index int) error {
	var opErr error
	err := c.Do(ctx, func() {
		src, dst := c.manager.Group(source), c.manager.Group(target)
		if src == nil || dst == nil {
			opErr = fmt.Errorf("%w: %s -> %s", ErrGroupNotFound, source, target)
			return
		}
		opErr = c.dropTabs(src, windows, dst, index)
	})
	if err != nil {
		return err
	}
	return opErr
}

func (c *Controller) dropTabs(src *group.Group, windows []group.WindowID, dst *group.Group, index int) error {
	if src == dst {
		moved := false
		c.manager.Mutate(src, func(g *group.Group) { moved = g.MoveTabs(windows, index) })
		if !moved {
			return fmt.Errorf("%w: nothing to move", ErrRejected)
		}
		return nil
	}

	// A window that is also a member elsewhere (a mirror or an ordinary
	// shared copy) cannot be moved out from under its other groups.
	var moved []group.Window
	for _, id := range windows {
		w, ok := src.Window(id)
		if !ok || dst.Contains(id) {
			continue
		}
		if !w.Separator && c.manager.MembershipCount(id) > 1 {
			c.logger.Debug("drop skipped shared window", "window", id, "group", src.ID)
			continue
		}
		moved = append(moved, w)
	}
	if len(moved) == 0 {
		return fmt.Errorf("%w: nothing to drop", ErrRejected)
	}

	if index < 0 || index > dst.Count() {
		index = dst.Count()
	}
	pin := group.PinNone
	if index < dst.PinnedCount() {
		pin = group.PinPinned
	}

	var landed []group.Window
	c.manager.Batch(func() {
		for _, w := range moved {
			if w.Separator {
				c.manager.ReleaseWindow(w.ID, src)
				w = c.manager.NewSeparator()
			} else {
				c.sync.Release(w.ID, src)
				w.Pin = pin
			}
			if c.manager.AddWindow(w, dst, index+len(landed), false) {
				landed = append(landed, w)
			} else {
				c.logger.Warn("dropped window did not join target group", "window", w.ID, "group", dst.ID)
			}
		}
		if len(landed) > 0 {
			c.manager.Mutate(dst, func(g *group.Group) { g.SwitchToWindow(landed[0].ID) })
		}
	})
	if len(landed) == 0 {
		return fmt.Errorf("%w: no window joined the target group", ErrRejected)
	}

	for _, w := range landed {
		if !w.Separator {
			c.joinWorkspace(w.ID, dst)
			c.setFrame(w.ID, dst.Frame)
		}
	}
	if active, ok := dst.ActiveWindow(); ok {
		c.raise(active.ID)
	}
	c.sync.SetLastActiveGroup(dst)
	return nil
}

// Cycle steps the active group through its MRU order. The cycle commits on
// its own after the configured idle delay, or when CycleEnd is called.
func (c *Controller) Cycle(ctx context.Context) error {
	var opErr error
	err := c.Do(ctx, func() { opErr = c.cycleNext() })
	if err != nil {
		return err
	}
	return opErr
}

// CycleEnd commits a running cycle.
func (c *Controller) CycleEnd(ctx context.Context) error {
	return c.Do(ctx, c.commitCycles)
}

// DissolveGroup disbands a group and restores its windows' frames.
func (c *Controller) DissolveGroup(ctx context.Context, id group.ID) error {
	return c.doGroup(ctx, id, func(g *group.Group) error {
		c.manager.DissolveGroup(g)
		return nil
	})
}

// DissolveAll disbands every group.
func (c *Controller) DissolveAll(ctx context.Context) error {
	return c.Do(ctx, c.manager.DissolveAllGroups)
}

func (c *Controller) doGroup(ctx context.Context, id group.ID, fn func(*group.Group) error) error {
	var opErr error
	err := c.Do(ctx, func() {
		g := c.manager.Group(id)
		if g == nil {
			opErr = fmt.Errorf("%w: %s", ErrGroupNotFound, id)
			return
		}
		opErr = fn(g)
	})
	if err != nil {
		return err
	}
	return opErr
}

// clampFrame pushes frame below the bar on the display that holds it.
func (c *Controller) clampFrame(frame geometry.Rect) (geometry.Rect, int) {
	visible, ok := geometry.ContainingRect(frame, c.usableRects())
	if !ok {
		return frame, 0
	}
	return geometry.Clamp(frame, visible, c.settings.Layout.BarHeight)
}

// applyFrame gives every member of g the group frame.
func (c *Controller) applyFrame(g *group.Group) {
	for _, w := range g.Windows() {
		if !w.Separator {
			c.setFrame(w.ID, g.Frame)
		}
	}
}

// joinWorkspace moves a window onto the group's workspace when they differ.
func (c *Controller) joinWorkspace(id group.WindowID, g *group.Group) {
	if g.WorkspaceID == 0 {
		return
	}
	if group.WorkspaceID(c.backend.WindowWorkspace(platform.WindowID(id))) == g.WorkspaceID {
		return
	}
	if err := c.backend.MoveToWorkspace(platform.WindowID(id), uint64(g.WorkspaceID)); err != nil {
		c.logger.Debug("move to workspace failed", "window", id, "error", err)
	}
}

func windowFromInfo(info platform.Window) group.Window {
	return group.Window{
		ID:         group.WindowID(info.ID),
		PID:        info.PID,
		AppID:      info.AppID,
		Title:      info.Title,
		Fullscreen: info.Fullscreen,
	}
}
