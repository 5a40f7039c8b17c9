package group

import (
	"log/slog"
	"math"
	"slices"

	"github.com/1broseidon/tabtile/internal/geometry"
)

// Manager owns the set of live groups in creation order.
type Manager struct {
	logger *slog.Logger

	groups  []*Group
	primary map[WindowID]ID

	listeners  []func()
	onDissolve []func(*Group)
	batchDepth int
	pending    bool

	separators uint32
}

// NewManager returns an empty manager. A nil logger discards output.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		logger:  logger,
		primary: make(map[WindowID]ID),
	}
}

// Subscribe registers fn to run after every published change.
func (m *Manager) Subscribe(fn func()) {
	m.listeners = append(m.listeners, fn)
}

// OnDissolve registers fn to run whenever a group leaves the managed set.
// The group's slot list is still readable inside fn.
func (m *Manager) OnDissolve(fn func(*Group)) {
	m.onDissolve = append(m.onDissolve, fn)
}

// Batch runs fn and publishes at most one change when the outermost batch
// finishes.
func (m *Manager) Batch(fn func()) {
	m.batchDepth++
	defer func() {
		m.batchDepth--
		if m.batchDepth == 0 && m.pending {
			m.pending = false
			m.publish()
		}
	}()
	fn()
}

// Mutate runs fn against a managed group and publishes the change.
func (m *Manager) Mutate(g *Group, fn func(*Group)) bool {
	if !m.IsManaged(g) {
		return false
	}
	fn(g)
	m.changed()
	return true
}

func (m *Manager) changed() {
	if m.batchDepth > 0 {
		m.pending = true
		return
	}
	m.publish()
}

func (m *Manager) publish() {
	for _, fn := range m.listeners {
		fn()
	}
}

// Groups returns the live groups in creation order.
func (m *Manager) Groups() []*Group {
	return slices.Clone(m.groups)
}

// Group looks a live group up by id.
func (m *Manager) Group(id ID) *Group {
	for _, g := range m.groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// IsManaged reports whether g is still registered.
func (m *Manager) IsManaged(g *Group) bool {
	return g != nil && slices.Contains(m.groups, g)
}

// CreateGroup registers a new group holding windows. It returns nil when
// windows is empty, repeats an id, or (unless allowShared) names a window that
// is already grouped.
func (m *Manager) CreateGroup(windows []Window, frame geometry.Rect, workspace WorkspaceID, name string, allowShared bool) *Group {
	if len(windows) == 0 {
		m.logger.Debug("create group rejected", "reason", "no windows")
		return nil
	}
	seen := make(map[WindowID]struct{}, len(windows))
	for _, w := range windows {
		if _, dup := seen[w.ID]; dup {
			m.logger.Debug("create group rejected", "reason", "duplicate window", "window", w.ID)
			return nil
		}
		seen[w.ID] = struct{}{}
		if !allowShared && m.IsWindowGrouped(w.ID) {
			m.logger.Debug("create group rejected", "reason", "window already grouped", "window", w.ID)
			return nil
		}
	}

	g := New(windows, frame)
	g.WorkspaceID = workspace
	g.Name = name
	m.groups = append(m.groups, g)
	m.logger.Debug("group created", "group", g.ID, "windows", len(windows))
	m.changed()
	return g
}

// AddWindow inserts w into g at index (negative appends).
func (m *Manager) AddWindow(w Window, g *Group, index int, allowShared bool) bool {
	if !m.IsManaged(g) || g.Contains(w.ID) {
		return false
	}
	if !allowShared && m.IsWindowGrouped(w.ID) {
		m.logger.Debug("add window rejected", "reason", "window already grouped", "window", w.ID, "group", g.ID)
		return false
	}
	g.AddWindow(w, index)
	m.changed()
	return true
}

// ReleaseWindow removes id from g only. A group left empty is dissolved; its
// slot list is not touched by the dissolution.
func (m *Manager) ReleaseWindow(id WindowID, g *Group) (Window, bool) {
	if !m.IsManaged(g) {
		return Window{}, false
	}
	w, ok := g.RemoveWindow(id)
	if !ok {
		return Window{}, false
	}
	m.dropPrimary(id, g.ID)
	if g.Empty() {
		m.dissolve(g)
	}
	m.changed()
	return w, true
}

// ReleaseWindows removes every id in ids from g and dissolves g when it ends
// up empty.
func (m *Manager) ReleaseWindows(ids []WindowID, g *Group) []Window {
	if !m.IsManaged(g) {
		return nil
	}
	removed := g.RemoveWindows(ids)
	if len(removed) == 0 {
		return nil
	}
	for _, w := range removed {
		m.dropPrimary(w.ID, g.ID)
	}
	if g.Empty() {
		m.dissolve(g)
	}
	m.changed()
	return removed
}

// DissolveGroup removes g from the managed set. The group's slots are left
// in place so callers can clean up its former members.
func (m *Manager) DissolveGroup(g *Group) bool {
	if !m.IsManaged(g) {
		return false
	}
	m.dissolve(g)
	m.changed()
	return true
}

// DissolveAllGroups removes every group.
func (m *Manager) DissolveAllGroups() {
	if len(m.groups) == 0 {
		return
	}
	for _, g := range slices.Clone(m.groups) {
		m.dissolve(g)
	}
	m.changed()
}

func (m *Manager) dissolve(g *Group) {
	i := slices.Index(m.groups, g)
	if i < 0 {
		return
	}
	m.groups = slices.Delete(m.groups, i, i+1)
	for id, gid := range m.primary {
		if gid == g.ID {
			delete(m.primary, id)
		}
	}
	g.cycle = nil
	m.logger.Debug("group dissolved", "group", g.ID, "windows", g.Count())
	for _, fn := range m.onDissolve {
		fn(g)
	}
}

func (m *Manager) IsWindowGrouped(id WindowID) bool {
	return m.firstGroupFor(id) != nil
}

// GroupFor returns the primary group for id when one was promoted, otherwise
// the first group containing it. Callers that must handle shared membership
// use GroupsFor.
func (m *Manager) GroupFor(id WindowID) *Group {
	if gid, ok := m.primary[id]; ok {
		if g := m.Group(gid); g != nil && g.Contains(id) {
			return g
		}
	}
	return m.firstGroupFor(id)
}

// GroupsFor returns every group containing id, in creation order.
func (m *Manager) GroupsFor(id WindowID) []*Group {
	var out []*Group
	for _, g := range m.groups {
		if g.Contains(id) {
			out = append(out, g)
		}
	}
	return out
}

// MembershipCount is the number of groups containing id.
func (m *Manager) MembershipCount(id WindowID) int {
	n := 0
	for _, g := range m.groups {
		if g.Contains(id) {
			n++
		}
	}
	return n
}

// PromotePrimaryGroup marks groupID as the primary group for a shared window.
func (m *Manager) PromotePrimaryGroup(id WindowID, groupID ID) bool {
	g := m.Group(groupID)
	if g == nil || !g.Contains(id) {
		return false
	}
	m.primary[id] = groupID
	return true
}

// NewSeparator allocates a separator slot. Separator ids count down from the
// top of the id range, which X11 never hands out to clients.
func (m *Manager) NewSeparator() Window {
	m.separators++
	return Window{ID: WindowID(math.MaxUint32 - m.separators + 1), Separator: true}
}

func (m *Manager) firstGroupFor(id WindowID) *Group {
	for _, g := range m.groups {
		if g.Contains(id) {
			return g
		}
	}
	return nil
}

func (m *Manager) dropPrimary(id WindowID, gid ID) {
	if m.primary[id] == gid {
		delete(m.primary, id)
	}
}
