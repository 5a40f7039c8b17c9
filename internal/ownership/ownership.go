// Package ownership keeps shared window membership consistent across groups.
//
// A superpinned tab is mirrored into every other maximized group on the same
// workspace. The Synchronizer tracks which copies are mirrors, refreshes them
// when clusters change, and resolves which group owns a window that appears
// in several. It must be driven from the goroutine that owns the Manager.
package ownership

import (
	"log/slog"

	"github.com/1broseidon/tabtile/internal/cluster"
	"github.com/1broseidon/tabtile/internal/geometry"
	"github.com/1broseidon/tabtile/internal/group"
)

// Options configures a Synchronizer.
type Options struct {
	Logger *slog.Logger
}

// Synchronizer owns mirror tracking and the maximize sweep.
type Synchronizer struct {
	manager *group.Manager
	logger  *slog.Logger

	lastActive group.ID
	mirrors    map[group.ID]map[group.WindowID]struct{}

	// sweeping is set while RefreshClusters runs so that dissolutions it
	// triggers cannot start a nested sweep.
	sweeping bool
}

// New returns a Synchronizer bound to m.
func New(m *group.Manager, opts Options) *Synchronizer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Synchronizer{
		manager: m,
		logger:  logger,
		mirrors: make(map[group.ID]map[group.WindowID]struct{}),
	}
	m.OnDissolve(s.forgetGroup)
	return s
}

// SetLastActiveGroup records g as the group the user most recently worked in.
func (s *Synchronizer) SetLastActiveGroup(g *group.Group) {
	if g == nil {
		s.lastActive = ""
		return
	}
	s.lastActive = g.ID
}

// LastActiveGroup returns the recorded group if it is still managed.
func (s *Synchronizer) LastActiveGroup() *group.Group {
	if s.lastActive == "" {
		return nil
	}
	return s.manager.Group(s.lastActive)
}

// IsMirror reports whether g's copy of id is a tracked mirror.
func (s *Synchronizer) IsMirror(g *group.Group, id group.WindowID) bool {
	if g == nil {
		return false
	}
	_, ok := s.mirrors[g.ID][id]
	return ok
}

// Mirrors returns the ids mirrored into g, in slot order.
func (s *Synchronizer) Mirrors(g *group.Group) []group.WindowID {
	var out []group.WindowID
	for _, id := range g.WindowIDs() {
		if s.IsMirror(g, id) {
			out = append(out, id)
		}
	}
	return out
}

// OwnerGroup resolves the group that owns id for focus purposes.
func (s *Synchronizer) OwnerGroup(id group.WindowID) *group.Group {
	groups := s.manager.GroupsFor(id)
	switch len(groups) {
	case 0:
		return nil
	case 1:
		return groups[0]
	}
	if last := s.LastActiveGroup(); last != nil && last.Contains(id) {
		return last
	}
	return s.manager.GroupFor(id)
}

// OwnerGroupForWindowMove resolves the owner of a window being dragged or
// resized: the containing group whose frame is closest to live.
func (s *Synchronizer) OwnerGroupForWindowMove(id group.WindowID, live geometry.Rect) *group.Group {
	groups := s.manager.GroupsFor(id)
	if len(groups) == 0 {
		return nil
	}
	best := groups[0]
	bestDist := geometry.Distance(best.Frame, live)
	for _, g := range groups[1:] {
		if d := geometry.Distance(g.Frame, live); d < bestDist {
			best = g
			bestDist = d
		}
	}
	return best
}

// SetSuperPinned promotes or demotes ids in source. Promotion mirrors each
// window into source's maximized peers. Demotion releases every mirror and
// leaves real copies plain pinned.
//
// A user action on a mirror copy turns that copy into a real one: it stops
// being tracked and survives the source's demotion as a pinned tab.
func (s *Synchronizer) SetSuperPinned(on bool, ids []group.WindowID, source *group.Group) {
	if !s.manager.IsManaged(source) {
		return
	}
	s.manager.Batch(func() {
		for _, id := range ids {
			w, ok := source.Window(id)
			if !ok || w.Separator {
				continue
			}
			if on {
				s.untrack(source, id)
				s.enterSuper(w, source)
				continue
			}
			if w.Pin == group.PinSuper {
				s.leaveSuper(id, source, group.PinPinned)
			}
		}
		s.DissolveFunctionallyEmpty()
	})
}

// SetPinned applies a plain pin or unpin to ids in source. Unpinning a
// superpinned window also leaves superpin; unpinning a window that is shared
// by ordinary means collapses it into source.
func (s *Synchronizer) SetPinned(on bool, ids []group.WindowID, source *group.Group) {
	if !s.manager.IsManaged(source) {
		return
	}
	s.manager.Batch(func() {
		for _, id := range ids {
			w, ok := source.Window(id)
			if !ok || w.Separator {
				continue
			}
			if on {
				if s.IsMirror(source, id) {
					s.untrack(source, id)
					continue
				}
				if w.Pin == group.PinNone {
					s.setPin(source, id, group.PinPinned)
				}
				continue
			}

			switch w.Pin {
			case group.PinSuper:
				s.leaveSuper(id, source, group.PinNone)
			case group.PinPinned:
				s.setPin(source, id, group.PinNone)
				s.collapseInto(id, source)
			}
		}
		s.DissolveFunctionallyEmpty()
	})
}

// Release removes id from g. Releasing a superpinned window, or a mirror of
// one, ends its superpin everywhere first.
func (s *Synchronizer) Release(id group.WindowID, g *group.Group) (group.Window, bool) {
	if !s.manager.IsManaged(g) {
		return group.Window{}, false
	}
	w, ok := g.Window(id)
	if !ok {
		return group.Window{}, false
	}
	s.manager.Batch(func() {
		if w.Pin == group.PinSuper {
			s.leaveSuper(id, g, group.PinNone)
		}
		if g.Contains(id) {
			s.untrack(g, id)
			s.manager.ReleaseWindow(id, g)
		}
		s.DissolveFunctionallyEmpty()
	})
	return w, true
}

// ForgetWindow drops id from every group, typically because the OS window
// went away. It returns the groups that held it.
func (s *Synchronizer) ForgetWindow(id group.WindowID) []*group.Group {
	groups := s.manager.GroupsFor(id)
	if len(groups) == 0 {
		return nil
	}
	s.manager.Batch(func() {
		for _, g := range groups {
			s.untrack(g, id)
			s.manager.ReleaseWindow(id, g)
		}
		s.DissolveFunctionallyEmpty()
	})
	return groups
}

func (s *Synchronizer) enterSuper(w group.Window, source *group.Group) {
	s.setPin(source, w.ID, group.PinSuper)
	for _, peer := range s.peers(source) {
		s.ensureCopy(peer, w)
	}
}

// leaveSuper demotes id in every group that holds it. Mirrors are released;
// source's copy becomes to and other real copies become plain pinned.
func (s *Synchronizer) leaveSuper(id group.WindowID, source *group.Group, to group.PinState) {
	for _, g := range s.manager.GroupsFor(id) {
		if s.IsMirror(g, id) {
			s.untrack(g, id)
			s.manager.ReleaseWindow(id, g)
			continue
		}
		switch {
		case g == source:
			s.setPin(g, id, to)
		default:
			if w, ok := g.Window(id); ok && w.Pin == group.PinSuper {
				s.setPin(g, id, group.PinPinned)
			}
		}
	}
}

// collapseInto releases id from every group other than keep that holds a
// real (non-mirror) copy.
func (s *Synchronizer) collapseInto(id group.WindowID, keep *group.Group) {
	for _, g := range s.manager.GroupsFor(id) {
		if g == keep || s.IsMirror(g, id) {
			continue
		}
		s.logger.Debug("collapsing shared membership", "window", id, "from", g.ID, "into", keep.ID)
		s.manager.ReleaseWindow(id, g)
	}
}

// ensureCopy gives g a superpinned copy of w, promoting an existing slot or
// inserting a tracked mirror at the head of the pinned section, behind the
// superpins already there.
func (s *Synchronizer) ensureCopy(g *group.Group, w group.Window) {
	if cur, ok := g.Window(w.ID); ok {
		if cur.Pin != group.PinSuper {
			s.setPin(g, w.ID, group.PinSuper)
		}
		return
	}
	mirror := w
	mirror.Pin = group.PinSuper
	if s.manager.AddWindow(mirror, g, g.SuperPinnedCount(), true) {
		s.track(g, w.ID)
		s.logger.Debug("mirrored superpin", "window", w.ID, "into", g.ID)
	}
}

func (s *Synchronizer) peers(g *group.Group) []*group.Group {
	var out []*group.Group
	for _, id := range cluster.Peers(g.MaximizedGroupCounterIDs, g.ID) {
		if peer := s.manager.Group(id); peer != nil {
			out = append(out, peer)
		}
	}
	return out
}

func (s *Synchronizer) setPin(g *group.Group, id group.WindowID, state group.PinState) {
	s.manager.Mutate(g, func(g *group.Group) {
		g.SetPin(id, state)
	})
}

func (s *Synchronizer) track(g *group.Group, id group.WindowID) {
	set, ok := s.mirrors[g.ID]
	if !ok {
		set = make(map[group.WindowID]struct{})
		s.mirrors[g.ID] = set
	}
	set[id] = struct{}{}
}

func (s *Synchronizer) untrack(g *group.Group, id group.WindowID) {
	set, ok := s.mirrors[g.ID]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(s.mirrors, g.ID)
	}
}

func (s *Synchronizer) forgetGroup(g *group.Group) {
	delete(s.mirrors, g.ID)
	if s.lastActive == g.ID {
		s.lastActive = ""
	}
}

// peerGroups resolves ids to managed groups, dropping the rest.
func (s *Synchronizer) peerGroups(ids []group.ID) []*group.Group {
	var out []*group.Group
	for _, id := range ids {
		if g := s.manager.Group(id); g != nil {
			out = append(out, g)
		}
	}
	return out
}
