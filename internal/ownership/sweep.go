package ownership

import (
	"slices"

	"github.com/1broseidon/tabtile/internal/cluster"
	"github.com/1broseidon/tabtile/internal/group"
)

// RefreshClusters runs the maximize sweep: it recomputes every group's peer
// list from candidates, strips superpins from groups that left a cluster,
// synchronizes every active cluster and dissolves groups left holding only
// mirrors. A call made while a sweep is running returns false and does
// nothing.
func (s *Synchronizer) RefreshClusters(candidates []cluster.Candidate, preferred map[group.WorkspaceID][]group.ID) bool {
	if s.sweeping {
		s.logger.Debug("maximize sweep already running")
		return false
	}
	s.sweeping = true
	defer func() { s.sweeping = false }()

	counter := cluster.CounterGroupIDs(candidates, preferred)
	maximized := make(map[group.ID]bool, len(candidates))
	for _, c := range candidates {
		maximized[c.GroupID] = c.Maximized
	}

	s.manager.Batch(func() {
		groups := s.manager.Groups()
		previous := make(map[group.ID][]group.ID, len(groups))
		for _, g := range groups {
			next := counter[g.ID]
			previous[g.ID] = g.MaximizedGroupCounterIDs
			if slices.Equal(g.MaximizedGroupCounterIDs, next) && g.Maximized == maximized[g.ID] {
				continue
			}
			s.manager.Mutate(g, func(g *group.Group) {
				g.MaximizedGroupCounterIDs = next
				g.Maximized = maximized[g.ID]
			})
		}

		for _, g := range groups {
			if !s.manager.IsManaged(g) {
				continue
			}
			old := previous[g.ID]
			if len(old) >= cluster.MinPeers && len(g.MaximizedGroupCounterIDs) < cluster.MinPeers {
				s.dropFromCluster(g, s.peersRemain(g, old))
			}
		}

		synced := make(map[group.ID]bool)
		for _, g := range s.manager.Groups() {
			ids := g.MaximizedGroupCounterIDs
			if len(ids) < cluster.MinPeers || synced[ids[0]] {
				continue
			}
			synced[ids[0]] = true
			s.SynchronizeSuperpins(s.peerGroups(ids))
		}

		s.DissolveFunctionallyEmpty()
	})
	return true
}

// SynchronizeSuperpins makes every group in peers hold the union of the
// superpins owned by any of them. Missing windows are mirrored in and
// mirrors whose source is no longer superpinned anywhere are released.
func (s *Synchronizer) SynchronizeSuperpins(peers []*group.Group) {
	var live []*group.Group
	for _, g := range peers {
		if s.manager.IsManaged(g) && !slices.Contains(live, g) {
			live = append(live, g)
		}
	}
	if len(live) < cluster.MinPeers {
		return
	}

	var union []group.Window
	inUnion := make(map[group.WindowID]struct{})
	for _, g := range live {
		for _, w := range g.Windows() {
			if w.Pin != group.PinSuper || s.IsMirror(g, w.ID) {
				continue
			}
			if _, ok := inUnion[w.ID]; ok {
				continue
			}
			inUnion[w.ID] = struct{}{}
			union = append(union, w)
		}
	}

	s.manager.Batch(func() {
		for _, g := range live {
			for _, id := range s.Mirrors(g) {
				if _, ok := inUnion[id]; ok {
					continue
				}
				s.untrack(g, id)
				s.manager.ReleaseWindow(id, g)
				s.logger.Debug("released stale mirror", "window", id, "group", g.ID)
			}
			if !s.manager.IsManaged(g) {
				continue
			}
			for _, w := range union {
				s.ensureCopy(g, w)
			}
		}
	})
}

// DissolveFunctionallyEmpty dissolves maximized groups whose every slot is a
// superpinned mirror of a window that also lives in another group.
func (s *Synchronizer) DissolveFunctionallyEmpty() []*group.Group {
	var dissolved []*group.Group
	for _, g := range s.manager.Groups() {
		if !g.Maximized || g.Empty() || !s.isMirrorShell(g) {
			continue
		}
		s.logger.Debug("dissolving mirror-only group", "group", g.ID, "windows", g.Count())
		if s.manager.DissolveGroup(g) {
			dissolved = append(dissolved, g)
		}
	}
	return dissolved
}

func (s *Synchronizer) isMirrorShell(g *group.Group) bool {
	for _, w := range g.Windows() {
		if w.Pin != group.PinSuper || !s.IsMirror(g, w.ID) {
			return false
		}
		if s.manager.MembershipCount(w.ID) < 2 {
			return false
		}
	}
	return true
}

// dropFromCluster handles g losing its peers: mirrors go away and its own
// superpins fall back to plain pins, or to nothing when the old cluster is
// gone entirely.
func (s *Synchronizer) dropFromCluster(g *group.Group, peersRemain bool) {
	to := group.PinNone
	if peersRemain {
		to = group.PinPinned
	}
	for _, w := range g.Windows() {
		if !s.manager.IsManaged(g) {
			return
		}
		if s.IsMirror(g, w.ID) {
			s.untrack(g, w.ID)
			s.manager.ReleaseWindow(w.ID, g)
			continue
		}
		if w.Pin == group.PinSuper {
			s.setPin(g, w.ID, to)
		}
	}
}

func (s *Synchronizer) peersRemain(g *group.Group, old []group.ID) bool {
	for _, id := range old {
		if id == g.ID {
			continue
		}
		if peer := s.manager.Group(id); peer != nil && len(peer.MaximizedGroupCounterIDs) >= cluster.MinPeers {
			return true
		}
	}
	return false
}
