package group

import (
	"slices"

	"github.com/1broseidon/tabtile/internal/geometry"
)

// View is a read-only snapshot of a group for renderers and the control
// surfaces.
type View struct {
	ID                       ID            `json:"id"`
	Name                     string        `json:"name,omitempty"`
	Windows                  []Window      `json:"windows"`
	ActiveIndex              int           `json:"active_index"`
	Frame                    geometry.Rect `json:"frame"`
	TabBarSqueezeDelta       int           `json:"squeeze_delta,omitempty"`
	WorkspaceID              WorkspaceID   `json:"workspace_id"`
	DropIndicatorIndex       int           `json:"drop_indicator_index"`
	MaximizedGroupCounterIDs []ID          `json:"counter_ids,omitempty"`
	Maximized                bool          `json:"maximized,omitempty"`
}

// View snapshots g.
func (g *Group) View() View {
	return View{
		ID:                       g.ID,
		Name:                     g.Name,
		Windows:                  g.Windows(),
		ActiveIndex:              g.activeIndex,
		Frame:                    g.Frame,
		TabBarSqueezeDelta:       g.TabBarSqueezeDelta,
		WorkspaceID:              g.WorkspaceID,
		DropIndicatorIndex:       g.DropIndicatorIndex,
		MaximizedGroupCounterIDs: slices.Clone(g.MaximizedGroupCounterIDs),
		Maximized:                g.Maximized,
	}
}

// PinnedCount is the length of the pinned section at the head of v.Windows.
func (v View) PinnedCount() int {
	n := 0
	for _, w := range v.Windows {
		if !w.Pinned() {
			break
		}
		n++
	}
	return n
}

// CounterPosition returns the 1-based position of v among its maximized
// peers, or 0 when it has none.
func (v View) CounterPosition() int {
	if len(v.MaximizedGroupCounterIDs) < 2 {
		return 0
	}
	return slices.Index(v.MaximizedGroupCounterIDs, v.ID) + 1
}
