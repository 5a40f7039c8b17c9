// Package group implements tab groups and the manager that owns them.
//
// A Group is an ordered list of window slots with one active slot, a shared
// frame and an MRU history. The Manager is the single source of truth for
// which groups exist and which groups contain a window. Neither type is safe
// for concurrent use; callers serialize access on one goroutine.
package group

import (
	"slices"

	"github.com/1broseidon/tabtile/internal/geometry"
	"github.com/google/uuid"
)

// ID identifies a group.
type ID string

// NewID returns a fresh random group id.
func NewID() ID {
	return ID(uuid.NewString())
}

// WorkspaceID identifies a virtual desktop. Zero means unresolved.
type WorkspaceID uint64

// Group is a set of windows shown as tabs under one bar.
type Group struct {
	ID                       ID
	Name                     string
	Frame                    geometry.Rect
	TabBarSqueezeDelta       int
	PreZoomFrame             *geometry.Rect
	WorkspaceID              WorkspaceID
	DropIndicatorIndex       int
	MaximizedGroupCounterIDs []ID
	Maximized                bool

	windows      []Window
	activeIndex  int
	focusHistory []WindowID
	cycle        *cycleSession
}

// New builds a group from windows in display order. The first window is
// active. Duplicate ids are dropped.
func New(windows []Window, frame geometry.Rect) *Group {
	g := &Group{
		ID:                 NewID(),
		Frame:              frame,
		DropIndicatorIndex: -1,
	}
	for _, w := range windows {
		g.AddWindow(w, -1)
	}
	return g
}

// Windows returns a copy of the slot list.
func (g *Group) Windows() []Window {
	return slices.Clone(g.windows)
}

// WindowIDs returns the slot ids in display order.
func (g *Group) WindowIDs() []WindowID {
	ids := make([]WindowID, len(g.windows))
	for i, w := range g.windows {
		ids[i] = w.ID
	}
	return ids
}

func (g *Group) Count() int  { return len(g.windows) }
func (g *Group) Empty() bool { return len(g.windows) == 0 }

// ActiveIndex is the index of the visible slot, 0 for an empty group.
func (g *Group) ActiveIndex() int { return g.activeIndex }

// ActiveWindow returns the visible slot.
func (g *Group) ActiveWindow() (Window, bool) {
	if g.activeIndex < 0 || g.activeIndex >= len(g.windows) {
		return Window{}, false
	}
	return g.windows[g.activeIndex], true
}

// FocusHistory returns window ids most recently focused first.
func (g *Group) FocusHistory() []WindowID {
	return slices.Clone(g.focusHistory)
}

func (g *Group) Contains(id WindowID) bool {
	return g.IndexOf(id) >= 0
}

// IndexOf returns the slot index of id or -1.
func (g *Group) IndexOf(id WindowID) int {
	for i, w := range g.windows {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// Window returns the group's copy of id.
func (g *Group) Window(id WindowID) (Window, bool) {
	if i := g.IndexOf(id); i >= 0 {
		return g.windows[i], true
	}
	return Window{}, false
}

// WindowAt returns the slot at index i.
func (g *Group) WindowAt(i int) (Window, bool) {
	if i < 0 || i >= len(g.windows) {
		return Window{}, false
	}
	return g.windows[i], true
}

// PinnedCount is the length of the pinned section at the head of the list.
func (g *Group) PinnedCount() int {
	n := 0
	for _, w := range g.windows {
		if !w.Pinned() {
			break
		}
		n++
	}
	return n
}

// SuperPinnedCount is the length of the superpin block at the head of the
// list.
func (g *Group) SuperPinnedCount() int {
	n := 0
	for _, w := range g.windows {
		if w.Pin != PinSuper {
			break
		}
		n++
	}
	return n
}

// AddWindow inserts w at index, or appends when index is negative. Indexes
// past the end are clamped. Adding a window that is already present does
// nothing.
func (g *Group) AddWindow(w Window, index int) {
	if g.Contains(w.ID) {
		return
	}
	if index < 0 || index > len(g.windows) {
		index = len(g.windows)
	}
	if len(g.windows) > 0 && index <= g.activeIndex {
		g.activeIndex++
	}
	g.windows = slices.Insert(g.windows, index, w)
	if !w.Separator {
		g.focusHistory = append(g.focusHistory, w.ID)
	}
}

// RemoveWindowAt removes the slot at index i.
func (g *Group) RemoveWindowAt(i int) (Window, bool) {
	if i < 0 || i >= len(g.windows) {
		return Window{}, false
	}
	activeID, hadActive := g.activeID()
	w := g.windows[i]
	g.windows = slices.Delete(g.windows, i, i+1)
	g.forget(w.ID)
	g.restoreActive(activeID, hadActive)
	return w, true
}

// RemoveWindow removes the slot holding id.
func (g *Group) RemoveWindow(id WindowID) (Window, bool) {
	return g.RemoveWindowAt(g.IndexOf(id))
}

// RemoveWindows removes every slot whose id is in ids and returns the removed
// windows in slot order.
func (g *Group) RemoveWindows(ids []WindowID) []Window {
	if len(ids) == 0 {
		return nil
	}
	set := idSet(ids)
	activeID, hadActive := g.activeID()

	var removed []Window
	kept := g.windows[:0:0]
	for _, w := range g.windows {
		if _, ok := set[w.ID]; ok {
			removed = append(removed, w)
			continue
		}
		kept = append(kept, w)
	}
	if len(removed) == 0 {
		return nil
	}
	g.windows = kept
	for _, w := range removed {
		g.forget(w.ID)
	}
	g.restoreActive(activeID, hadActive)
	return removed
}

// SwitchTo makes slot i active.
func (g *Group) SwitchTo(i int) bool {
	if i < 0 || i >= len(g.windows) {
		return false
	}
	g.activeIndex = i
	return true
}

// SwitchToWindow makes the slot holding id active.
func (g *Group) SwitchToWindow(id WindowID) bool {
	return g.SwitchTo(g.IndexOf(id))
}

// RecordFocus moves id to the front of the MRU history.
func (g *Group) RecordFocus(id WindowID) {
	i := slices.Index(g.focusHistory, id)
	if i <= 0 {
		return
	}
	g.focusHistory = slices.Delete(g.focusHistory, i, i+1)
	g.focusHistory = slices.Insert(g.focusHistory, 0, id)
}

// MoveTab moves the slot at from to index to.
func (g *Group) MoveTab(from, to int) bool {
	n := len(g.windows)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from == to {
		return true
	}
	activeID, hadActive := g.activeID()
	w := g.windows[from]
	g.windows = slices.Delete(g.windows, from, from+1)
	g.windows = slices.Insert(g.windows, to, w)
	g.restoreActive(activeID, hadActive)
	return true
}

// MoveTabs moves the slots holding ids as one block so that it lands at
// toIndex, where toIndex is an insertion point in the current list. The block
// keeps its relative order.
func (g *Group) MoveTabs(ids []WindowID, toIndex int) bool {
	set := idSet(ids)
	if len(set) == 0 {
		return false
	}
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex > len(g.windows) {
		toIndex = len(g.windows)
	}

	var moved, rest []Window
	before := 0
	for i, w := range g.windows {
		if _, ok := set[w.ID]; ok {
			moved = append(moved, w)
			if i < toIndex {
				before++
			}
			continue
		}
		rest = append(rest, w)
	}
	if len(moved) == 0 {
		return false
	}

	at := toIndex - before
	activeID, hadActive := g.activeID()
	out := make([]Window, 0, len(g.windows))
	out = append(out, rest[:at]...)
	out = append(out, moved...)
	out = append(out, rest[at:]...)
	g.windows = out
	g.restoreActive(activeID, hadActive)
	return true
}

// SetPin changes the pin state of id and keeps the list ordered as superpins,
// then pins, then everything else.
func (g *Group) SetPin(id WindowID, state PinState) bool {
	i := g.IndexOf(id)
	if i < 0 || g.windows[i].Separator {
		return false
	}
	if g.windows[i].Pin == state {
		return true
	}
	activeID, hadActive := g.activeID()
	g.windows[i].Pin = state
	slices.SortStableFunc(g.windows, func(a, b Window) int {
		return pinRank(a.Pin) - pinRank(b.Pin)
	})
	g.restoreActive(activeID, hadActive)
	return true
}

// SetCustomName sets or clears (empty name) the tab label override for id.
func (g *Group) SetCustomName(id WindowID, name string) bool {
	i := g.IndexOf(id)
	if i < 0 {
		return false
	}
	g.windows[i].CustomName = name
	return true
}

// UpdateWindow refreshes the OS-provided fields of the group's copy of w.
// Pin state and custom name stay as they are.
func (g *Group) UpdateWindow(w Window) bool {
	i := g.IndexOf(w.ID)
	if i < 0 {
		return false
	}
	cur := &g.windows[i]
	if cur.Title == w.Title && cur.Fullscreen == w.Fullscreen && cur.PID == w.PID && cur.AppID == w.AppID {
		return false
	}
	cur.Title = w.Title
	cur.Fullscreen = w.Fullscreen
	cur.PID = w.PID
	cur.AppID = w.AppID
	return true
}

func (g *Group) activeID() (WindowID, bool) {
	w, ok := g.ActiveWindow()
	return w.ID, ok
}

// restoreActive keeps the previously active window active when it survived a
// mutation and otherwise clamps the index into range.
func (g *Group) restoreActive(id WindowID, had bool) {
	if had {
		if i := g.IndexOf(id); i >= 0 {
			g.activeIndex = i
			return
		}
	}
	if g.activeIndex >= len(g.windows) {
		g.activeIndex = len(g.windows) - 1
	}
	if g.activeIndex < 0 {
		g.activeIndex = 0
	}
}

func (g *Group) forget(id WindowID) {
	if i := slices.Index(g.focusHistory, id); i >= 0 {
		g.focusHistory = slices.Delete(g.focusHistory, i, i+1)
	}
	g.cycle.prune(id)
}

func idSet(ids []WindowID) map[WindowID]struct{} {
	set := make(map[WindowID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
