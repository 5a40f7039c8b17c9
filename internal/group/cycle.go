package group

import "slices"

// cycleSession is a frozen copy of the MRU order taken when a cycle starts.
// Focus changes caused by the cycle itself update the live history but never
// this copy.
type cycleSession struct {
	order    []WindowID
	position int
}

func (s *cycleSession) prune(id WindowID) {
	if s == nil {
		return
	}
	i := slices.Index(s.order, id)
	if i < 0 {
		return
	}
	s.order = slices.Delete(s.order, i, i+1)
	if i <= s.position {
		s.position--
	}
}

// IsCycling reports whether an MRU cycle is in progress.
func (g *Group) IsCycling() bool {
	return g.cycle != nil
}

// NextInMRUCycle advances the cycle and returns the slot index to show. The
// first call freezes the MRU order, with position 0 at the most recent
// window. It returns false when fewer than two windows can take focus.
func (g *Group) NextInMRUCycle() (int, bool) {
	eligible := g.cycleEligible()
	if len(eligible) < 2 {
		return -1, false
	}

	if g.cycle == nil {
		order := make([]WindowID, 0, len(g.focusHistory))
		for _, id := range g.focusHistory {
			if slices.Contains(eligible, id) {
				order = append(order, id)
			}
		}
		if len(order) == 0 {
			order = eligible
		}
		g.cycle = &cycleSession{order: order}
	}

	s := g.cycle
	n := len(s.order)
	for step := 1; step <= n; step++ {
		pos := (s.position + step) % n
		idx := g.IndexOf(s.order[pos])
		if idx < 0 || !canCycleTo(g.windows[idx]) {
			continue
		}
		s.position = pos
		return idx, true
	}
	return -1, false
}

// EndCycle commits the window the cycle landed on to the front of the MRU
// history and drops the session.
func (g *Group) EndCycle() {
	s := g.cycle
	g.cycle = nil
	if s == nil || s.position < 0 || s.position >= len(s.order) {
		return
	}
	id := s.order[s.position]
	if g.Contains(id) {
		g.RecordFocus(id)
	}
}

func (g *Group) cycleEligible() []WindowID {
	var ids []WindowID
	for _, w := range g.windows {
		if canCycleTo(w) {
			ids = append(ids, w.ID)
		}
	}
	return ids
}

func canCycleTo(w Window) bool {
	return !w.Separator && !w.Fullscreen
}
