// Package droptarget lays out tabs across a bar and maps pointer positions
// onto (group, insertion index) pairs for drag and drop between bars.
package droptarget

import (
	"math"
	"sort"

	"github.com/1broseidon/tabtile/internal/geometry"
	"github.com/1broseidon/tabtile/internal/group"
)

// Layout holds the bar metrics shared by hit testing and painting.
type Layout struct {
	BarHeight       int
	MaxTabWidth     int // 0 = unlimited
	PinnedTabWidth  int
	SeparatorWeight float64
	LeadingInset    int
	TrailingInset   int
	PadAbove        int
	PadBelow        int
}

// DefaultLayout returns the metrics used when nothing is configured.
func DefaultLayout() Layout {
	return Layout{
		BarHeight:       geometry.DefaultBarHeight,
		MaxTabWidth:     240,
		PinnedTabWidth:  40,
		SeparatorWeight: 0.25,
		PadAbove:        24,
		PadBelow:        40,
	}
}

// Slot is the layout-relevant part of a tab.
type Slot struct {
	Pinned    bool
	Separator bool
}

// SlotsOf converts a group's windows into layout slots.
func SlotsOf(windows []group.Window) []Slot {
	out := make([]Slot, len(windows))
	for i, w := range windows {
		out[i] = Slot{Pinned: w.Pinned(), Separator: w.Separator}
	}
	return out
}

// Span is a tab's horizontal extent relative to the bar's left edge.
type Span struct {
	X     int
	Width int
}

func (s Span) mid() int { return s.X + s.Width/2 }

// BarRect is where the bar for a group with the given frame is drawn: a
// strip of BarHeight directly above the frame.
func (l Layout) BarRect(frame geometry.Rect) geometry.Rect {
	return geometry.Rect{
		X:      frame.X,
		Y:      frame.Y - l.barHeight(),
		Width:  frame.Width,
		Height: l.barHeight(),
	}
}

// HitRect is BarRect grown by the drop padding above and below.
func (l Layout) HitRect(frame geometry.Rect) geometry.Rect {
	bar := l.BarRect(frame)
	bar.Y -= l.PadAbove
	bar.Height += l.PadAbove + l.PadBelow
	return bar
}

func (l Layout) barHeight() int {
	if l.BarHeight <= 0 {
		return geometry.DefaultBarHeight
	}
	return l.BarHeight
}

// TabSpans lays slots out across a bar of the given width. Pinned slots get a
// fixed width; the rest share what is left by weight, separators counting
// SeparatorWeight of a full tab, capped at MaxTabWidth per full tab.
func (l Layout) TabSpans(slots []Slot, width int) []Span {
	if len(slots) == 0 {
		return nil
	}

	pinned := 0
	weight := 0.0
	for _, s := range slots {
		if s.Pinned {
			pinned++
			continue
		}
		weight += l.weight(s)
	}

	avail := float64(width - l.LeadingInset - l.TrailingInset - pinned*l.PinnedTabWidth)
	if avail < 0 {
		avail = 0
	}
	unit := 0.0
	if weight > 0 {
		unit = avail / weight
	}
	if l.MaxTabWidth > 0 && unit > float64(l.MaxTabWidth) {
		unit = float64(l.MaxTabWidth)
	}

	spans := make([]Span, len(slots))
	x := float64(l.LeadingInset)
	for i, s := range slots {
		w := float64(l.PinnedTabWidth)
		if !s.Pinned {
			w = l.weight(s) * unit
		}
		left := int(math.Round(x))
		right := int(math.Round(x + w))
		spans[i] = Span{X: left, Width: right - left}
		x += w
	}
	return spans
}

func (l Layout) weight(s Slot) float64 {
	if s.Separator {
		if l.SeparatorWeight <= 0 {
			return 0.25
		}
		return l.SeparatorWeight
	}
	return 1
}

// InsertionIndex returns the insertion point nearest localX: the index of the
// first tab whose midpoint lies right of localX. Pinned tabs may only be
// dropped inside the pinned section and unpinned tabs only after it.
func (l Layout) InsertionIndex(slots []Slot, width, localX int, draggingPinned bool) int {
	spans := l.TabSpans(slots, width)
	idx := sort.Search(len(spans), func(i int) bool {
		return spans[i].mid() > localX
	})

	boundary := 0
	for _, s := range slots {
		if !s.Pinned {
			break
		}
		boundary++
	}
	if draggingPinned && idx > boundary {
		idx = boundary
	}
	if !draggingPinned && idx < boundary {
		idx = boundary
	}
	return idx
}

// IndexAt returns the slot under localX.
func (l Layout) IndexAt(slots []Slot, width, localX int) (int, bool) {
	spans := l.TabSpans(slots, width)
	idx := sort.Search(len(spans), func(i int) bool {
		return spans[i].X+spans[i].Width > localX
	})
	if idx >= len(spans) || localX < spans[idx].X {
		return -1, false
	}
	return idx, true
}

// Result is a resolved drop location.
type Result struct {
	GroupID group.ID
	Index   int
}

// Find resolves p against the bars of views, skipping the source group.
// When several padded bars overlap the point, the bar whose centre line is
// closest vertically wins.
func (l Layout) Find(p geometry.Point, source group.ID, views []group.View, draggingPinned bool) (Result, bool) {
	best := -1
	bestDist := 0
	for i, v := range views {
		if v.ID == source || len(v.Windows) == 0 {
			continue
		}
		if !l.HitRect(v.Frame).Contains(p) {
			continue
		}
		bar := l.BarRect(v.Frame)
		dist := p.Y - (bar.Y + bar.Height/2)
		if dist < 0 {
			dist = -dist
		}
		if best < 0 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	if best < 0 {
		return Result{}, false
	}

	v := views[best]
	idx := l.InsertionIndex(SlotsOf(v.Windows), v.Frame.Width, p.X-v.Frame.X, draggingPinned)
	return Result{GroupID: v.ID, Index: idx}, true
}
