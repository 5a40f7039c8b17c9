package daemon

import (
	"github.com/1broseidon/tabtile/internal/cluster"
	"github.com/1broseidon/tabtile/internal/geometry"
	"github.com/1broseidon/tabtile/internal/group"
	"github.com/1broseidon/tabtile/internal/platform"
)

// refreshClusters is the maximize sweep: every group is tested against the
// usable area of the display holding it and the resulting candidates are
// handed to the synchroniser. The previous counter order is passed back as
// the preferred order so peers keep their positions between sweeps.
func (c *Controller) refreshClusters() {
	groups := c.manager.Groups()
	if len(groups) == 0 {
		return
	}

	usable := c.usableRects()
	bar := c.settings.Layout.BarHeight
	candidates := make([]cluster.Candidate, 0, len(groups))
	preferred := make(map[group.WorkspaceID][]group.ID)

	for _, g := range groups {
		maximized := false
		logical := geometry.Expand(g.Frame, g.TabBarSqueezeDelta)
		if visible, ok := geometry.ContainingRect(logical, usable); ok {
			maximized = geometry.IsMaximizedWithin(g.Frame, g.TabBarSqueezeDelta, visible, bar, c.settings.MaximizeTolerance)
		}
		candidates = append(candidates, cluster.Candidate{
			GroupID:     g.ID,
			WorkspaceID: g.WorkspaceID,
			Maximized:   maximized,
		})
		if len(g.MaximizedGroupCounterIDs) >= cluster.MinPeers && len(preferred[g.WorkspaceID]) == 0 {
			preferred[g.WorkspaceID] = g.MaximizedGroupCounterIDs
		}
	}

	c.sync.RefreshClusters(candidates, preferred)
}

// syncWatches subscribes to structure events for every grouped window and
// drops subscriptions for windows that left all groups.
func (c *Controller) syncWatches() {
	if c.watcher == nil {
		return
	}

	want := make(map[group.WindowID]struct{})
	for _, g := range c.manager.Groups() {
		for _, w := range g.Windows() {
			if !w.Separator {
				want[w.ID] = struct{}{}
			}
		}
	}

	for id := range want {
		if _, ok := c.watched[id]; ok {
			continue
		}
		err := c.watcher.WatchWindow(platform.WindowID(id), platform.WindowEvents{
			Configured: func(wid platform.WindowID, frame platform.Rect) {
				c.Post(func() { c.handleConfigured(group.WindowID(wid), frame) })
			},
			Destroyed: func(wid platform.WindowID) {
				c.Post(func() { c.handleDestroyed(group.WindowID(wid)) })
			},
		})
		if err != nil {
			c.logger.Debug("watch window failed", "window", id, "error", err)
			continue
		}
		c.watched[id] = struct{}{}
	}

	for id := range c.watched {
		if _, ok := want[id]; ok {
			continue
		}
		c.watcher.UnwatchWindow(platform.WindowID(id))
		delete(c.watched, id)
	}
}
