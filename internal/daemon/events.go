package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/1broseidon/tabtile/internal/droptarget"
	"github.com/1broseidon/tabtile/internal/geometry"
	"github.com/1broseidon/tabtile/internal/group"
	"github.com/1broseidon/tabtile/internal/platform"
)

// handleActivated follows _NET_ACTIVE_WINDOW: the owning group switches to
// the window and records it as most recently used.
func (c *Controller) handleActivated(id group.WindowID) {
	if id != c.active {
		c.previous = c.active
		c.active = id
	}
	// The current workspace may have changed even if no group did.
	c.dirty = true

	g := c.sync.OwnerGroup(id)
	if g == nil {
		return
	}
	c.manager.Mutate(g, func(g *group.Group) {
		g.SwitchToWindow(id)
		if !g.IsCycling() {
			g.RecordFocus(id)
		}
	})
	c.manager.PromotePrimaryGroup(id, g.ID)
	c.sync.SetLastActiveGroup(g)
}

// handleConfigured reacts to a grouped window being moved or resized. Only
// the active window of the owning group drives the group frame; the other
// members follow once the resync delay has passed without further changes.
func (c *Controller) handleConfigured(id group.WindowID, frame geometry.Rect) {
	g := c.sync.OwnerGroupForWindowMove(id, frame)
	if g == nil {
		return
	}
	active, ok := g.ActiveWindow()
	if !ok || active.ID != id {
		return
	}

	fullscreen := c.backend.IsFullscreen(platform.WindowID(id))
	if active.Fullscreen != fullscreen {
		active.Fullscreen = fullscreen
		c.manager.Mutate(g, func(g *group.Group) { g.UpdateWindow(active) })
	}
	if fullscreen || frame == g.Frame {
		return
	}

	workspace := group.WorkspaceID(c.backend.WindowWorkspace(platform.WindowID(id)))
	c.manager.Mutate(g, func(g *group.Group) {
		g.Frame = frame
		g.TabBarSqueezeDelta = 0
		if workspace != 0 {
			g.WorkspaceID = workspace
		}
	})
	c.scheduleResync(g)
}

// scheduleResync (re)arms the group's resync timer; the last change wins.
func (c *Controller) scheduleResync(g *group.Group) {
	if t, ok := c.resync[g.ID]; ok {
		t.Stop()
	}
	gid := g.ID
	c.resync[gid] = time.AfterFunc(c.settings.ResyncDelay, func() {
		c.Post(func() { c.resyncGroup(gid) })
	})
}

// resyncGroup clamps the group frame below the bar and applies it to every
// member.
func (c *Controller) resyncGroup(id group.ID) {
	delete(c.resync, id)
	g := c.manager.Group(id)
	if g == nil {
		return
	}
	frame, delta := c.clampFrame(g.Frame)
	c.manager.Mutate(g, func(g *group.Group) {
		g.Frame = frame
		g.TabBarSqueezeDelta = delta
	})
	c.applyFrame(g)
}

// handleDestroyed releases a window that no longer exists from every group.
func (c *Controller) handleDestroyed(id group.WindowID) {
	delete(c.watched, id)
	if groups := c.sync.ForgetWindow(id); len(groups) > 0 {
		c.logger.Debug("released destroyed window", "window", id, "groups", len(groups))
	}
	if c.active == id {
		c.active = 0
	}
	if c.previous == id {
		c.previous = 0
	}
}

// Reconcile re-reads the displays and reconciles membership against the live
// window list: vanished windows are forgotten, titles and fullscreen flags
// refreshed and frame drift on active windows adopted.
func (c *Controller) Reconcile(ctx context.Context, live []platform.Window) error {
	return c.Do(ctx, func() {
		c.refreshDisplays()
		c.applyLiveWindows(live)
		c.dirty = true
	})
}

func (c *Controller) applyLiveWindows(live []platform.Window) {
	byID := make(map[group.WindowID]platform.Window, len(live))
	for _, w := range live {
		byID[group.WindowID(w.ID)] = w
	}

	c.manager.Batch(func() {
		for _, g := range c.manager.Groups() {
			for _, w := range g.Windows() {
				if w.Separator {
					continue
				}
				info, ok := byID[w.ID]
				if !ok {
					c.handleDestroyed(w.ID)
					continue
				}
				if !c.manager.IsManaged(g) {
					break
				}
				next := w
				next.Title = info.Title
				next.Fullscreen = info.Fullscreen
				if next != w {
					c.manager.Mutate(g, func(g *group.Group) { g.UpdateWindow(next) })
				}
			}
		}
	})

	for _, g := range c.manager.Groups() {
		active, ok := g.ActiveWindow()
		if !ok {
			continue
		}
		if info, ok := byID[active.ID]; ok && !info.Fullscreen && info.Bounds != g.Frame {
			if _, pending := c.resync[g.ID]; !pending {
				c.handleConfigured(active.ID, info.Bounds)
			}
		}
	}
}

func (c *Controller) cycleNext() error {
	g := c.activeGroup()
	if g == nil {
		return fmt.Errorf("%w: no active group", ErrGroupNotFound)
	}
	var (
		index int
		ok    bool
	)
	c.manager.Mutate(g, func(g *group.Group) { index, ok = g.NextInMRUCycle() })
	if !ok {
		return fmt.Errorf("%w: fewer than two windows to cycle", ErrRejected)
	}
	w, _ := g.WindowAt(index)
	c.manager.Mutate(g, func(g *group.Group) { g.SwitchTo(index) })
	c.setFrame(w.ID, g.Frame)
	c.raise(w.ID)

	if c.cycleWait != nil {
		c.cycleWait.Stop()
	}
	c.cycleWait = time.AfterFunc(c.settings.CycleCommitDelay, func() {
		c.Post(c.commitCycles)
	})
	return nil
}

func (c *Controller) commitCycles() {
	if c.cycleWait != nil {
		c.cycleWait.Stop()
		c.cycleWait = nil
	}
	for _, g := range c.manager.Groups() {
		if g.IsCycling() {
			c.manager.Mutate(g, func(g *group.Group) { g.EndCycle() })
		}
	}
}

// activeGroup resolves the group of the focused window, falling back to the
// group that was active last.
func (c *Controller) activeGroup() *group.Group {
	if id, err := c.backend.ActiveWindow(); err == nil && id != 0 {
		if g := c.sync.OwnerGroup(group.WindowID(id)); g != nil {
			return g
		}
	}
	return c.sync.LastActiveGroup()
}

// DragOver moves the drop indicator to wherever p would drop.
func (c *Controller) DragOver(source group.ID, window group.WindowID, p geometry.Point) {
	c.Post(func() {
		target, index, ok := c.dropLocation(source, window, p)
		for _, g := range c.manager.Groups() {
			want := -1
			if ok && g == target {
				want = index
			}
			if g.DropIndicatorIndex != want {
				c.manager.Mutate(g, func(g *group.Group) { g.DropIndicatorIndex = want })
			}
		}
	})
}

// DragEnd clears every drop indicator.
func (c *Controller) DragEnd(group.ID) {
	c.Post(c.clearIndicators)
}

func (c *Controller) clearIndicators() {
	for _, g := range c.manager.Groups() {
		if g.DropIndicatorIndex != -1 {
			c.manager.Mutate(g, func(g *group.Group) { g.DropIndicatorIndex = -1 })
		}
	}
}

// DropAt finishes a drag. Over the source bar the tab is reordered, over
// another bar it moves there, anywhere else it is torn out of the group.
func (c *Controller) DropAt(source group.ID, window group.WindowID, p geometry.Point) {
	c.Post(func() {
		defer c.clearIndicators()
		src := c.manager.Group(source)
		if src == nil || !src.Contains(window) {
			return
		}
		target, index, ok := c.dropLocation(source, window, p)
		if !ok {
			if err := c.release(src, window); err != nil {
				c.logger.Debug("tear-off failed", "window", window, "error", err)
			}
			return
		}
		if err := c.dropTabs(src, []group.WindowID{window}, target, index); err != nil {
			c.logger.Debug("drop failed", "window", window, "error", err)
		}
	})
}

func (c *Controller) dropLocation(source group.ID, window group.WindowID, p geometry.Point) (*group.Group, int, bool) {
	src := c.manager.Group(source)
	if src == nil {
		return nil, 0, false
	}
	w, _ := src.Window(window)
	layout := c.settings.Layout

	if layout.HitRect(src.Frame).Contains(p) {
		v := src.View()
		idx := layout.InsertionIndex(droptarget.SlotsOf(v.Windows), v.Frame.Width, p.X-v.Frame.X, w.Pinned())
		return src, idx, true
	}

	res, ok := layout.Find(p, source, c.views(), w.Pinned())
	if !ok {
		return nil, 0, false
	}
	target := c.manager.Group(res.GroupID)
	return target, res.Index, target != nil
}

// ClickTab handles a press and release on a tab without dragging: the
// primary button switches, the middle button closes.
func (c *Controller) ClickTab(id group.ID, index int, button int) {
	c.Post(func() {
		g := c.manager.Group(id)
		if g == nil {
			return
		}
		switch button {
		case 1:
			if err := c.switchTo(g, index); err != nil {
				c.logger.Debug("tab click ignored", "error", err)
			}
		case 2:
			w, ok := g.WindowAt(index)
			if !ok {
				return
			}
			if w.Separator {
				c.manager.ReleaseWindow(w.ID, g)
				return
			}
			if err := c.backend.Close(platform.WindowID(w.ID)); err != nil {
				c.logger.Debug("close failed", "window", w.ID, "error", err)
			}
		}
	})
}

// ReleaseActive releases the focused tab from its group.
func (c *Controller) ReleaseActive(ctx context.Context) error {
	var opErr error
	err := c.Do(ctx, func() {
		g := c.activeGroup()
		if g == nil {
			opErr = fmt.Errorf("%w: no active group", ErrGroupNotFound)
			return
		}
		w, ok := g.ActiveWindow()
		if !ok {
			opErr = fmt.Errorf("%w: group is empty", ErrRejected)
			return
		}
		opErr = c.release(g, w.ID)
	})
	if err != nil {
		return err
	}
	return opErr
}

// ToggleActivePin flips the pin of the focused tab. With super set it
// toggles superpin instead.
func (c *Controller) ToggleActivePin(ctx context.Context, super bool) error {
	var opErr error
	err := c.Do(ctx, func() {
		g := c.activeGroup()
		if g == nil {
			opErr = fmt.Errorf("%w: no active group", ErrGroupNotFound)
			return
		}
		w, ok := g.ActiveWindow()
		if !ok || w.Separator {
			opErr = fmt.Errorf("%w: no active tab", ErrRejected)
			return
		}
		next := group.PinNone
		switch {
		case super && w.Pin != group.PinSuper:
			next = group.PinSuper
		case !super && w.Pin == group.PinNone:
			next = group.PinPinned
		}
		c.setPin(g, []group.WindowID{w.ID}, next)
	})
	if err != nil {
		return err
	}
	return opErr
}

// GroupActive groups the focused window with the previously focused one:
// it joins the previous window's group, or both form a new group.
func (c *Controller) GroupActive(ctx context.Context) error {
	var opErr error
	err := c.Do(ctx, func() {
		current, previous := c.active, c.previous
		if id, err := c.backend.ActiveWindow(); err == nil && id != 0 && group.WindowID(id) != current {
			current, previous = group.WindowID(id), current
		}
		if current == 0 || previous == 0 || current == previous {
			opErr = fmt.Errorf("%w: need two recently focused windows", ErrRejected)
			return
		}
		if c.manager.IsWindowGrouped(current) {
			opErr = fmt.Errorf("%w: window %d is already grouped", ErrRejected, current)
			return
		}
		if g := c.sync.OwnerGroup(previous); g != nil {
			opErr = c.addWindow(g, current, -1)
			return
		}
		_, opErr = c.createGroup([]group.WindowID{previous, current}, "")
	})
	if err != nil {
		return err
	}
	return opErr
}
