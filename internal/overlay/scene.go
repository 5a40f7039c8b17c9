// Package overlay paints tab bars as override-redirect X11 windows above
// grouped windows.
package overlay

import (
	"strings"

	"github.com/1broseidon/tabtile/internal/droptarget"
	"github.com/1broseidon/tabtile/internal/geometry"
	"github.com/1broseidon/tabtile/internal/group"
)

// Palette holds the bar colours as 0xRRGGBB pixels.
type Palette struct {
	Background    uint32
	Active        uint32
	Inactive      uint32
	Pinned        uint32
	Super         uint32
	Separator     uint32
	Text          uint32
	DropIndicator uint32
	Counter       uint32
}

// DefaultPalette returns the built-in colours.
func DefaultPalette() Palette {
	return Palette{
		Background:    0x1f2933,
		Active:        0x3498db,
		Inactive:      0x323f4b,
		Pinned:        0x7f8c8d,
		Super:         0x8e44ad,
		Separator:     0x11181f,
		Text:          0xf5f7fa,
		DropIndicator: 0x27ae60,
		Counter:       0xf39c12,
	}
}

const (
	charWidth       = 7
	textPaddingX    = 6
	tabGap          = 1
	indicatorWidth  = 3
	counterDotSize  = 6
	counterDotGap   = 4
	counterInsetEnd = 8
)

// Segment is one filled rectangle of a bar, in bar-local coordinates.
type Segment struct {
	Rect  geometry.Rect
	Color uint32
	Label string
}

// Scene is everything needed to paint one group's bar.
type Scene struct {
	GroupID group.ID
	Bar     geometry.Rect // root coordinates
	Tabs    []Segment
	// Indicator is set while a drag hovers over this bar.
	Indicator *geometry.Rect
	Dots      []Segment
}

// Compose lays out a view into paintable segments.
func Compose(v group.View, layout droptarget.Layout, palette Palette) Scene {
	bar := layout.BarRect(v.Frame)
	scene := Scene{GroupID: v.ID, Bar: bar}

	spans := layout.TabSpans(droptarget.SlotsOf(v.Windows), bar.Width)
	for i, span := range spans {
		w := v.Windows[i]
		seg := Segment{
			Rect:  geometry.Rect{X: span.X, Y: 0, Width: max(span.Width-tabGap, 1), Height: bar.Height},
			Color: TabColor(w, i == v.ActiveIndex, palette),
		}
		if !w.Separator {
			seg.Label = fitLabel(TabLabel(w), seg.Rect.Width-2*textPaddingX)
		}
		scene.Tabs = append(scene.Tabs, seg)
	}

	if v.DropIndicatorIndex >= 0 && v.DropIndicatorIndex <= len(spans) {
		x := layout.LeadingInset
		if v.DropIndicatorIndex < len(spans) {
			x = spans[v.DropIndicatorIndex].X
		} else if len(spans) > 0 {
			last := spans[len(spans)-1]
			x = last.X + last.Width
		}
		scene.Indicator = &geometry.Rect{
			X:      max(x-indicatorWidth/2, 0),
			Y:      0,
			Width:  indicatorWidth,
			Height: bar.Height,
		}
	}

	if pos := v.CounterPosition(); pos > 0 {
		n := len(v.MaximizedGroupCounterIDs)
		y := (bar.Height - counterDotSize) / 2
		x := bar.Width - counterInsetEnd - n*counterDotSize - (n-1)*counterDotGap
		for i := 0; i < n; i++ {
			color := palette.Inactive
			if i+1 == pos {
				color = palette.Counter
			}
			scene.Dots = append(scene.Dots, Segment{
				Rect:  geometry.Rect{X: x, Y: y, Width: counterDotSize, Height: counterDotSize},
				Color: color,
			})
			x += counterDotSize + counterDotGap
		}
	}

	return scene
}

// TabColor is the fill for w's tab.
func TabColor(w group.Window, active bool, p Palette) uint32 {
	switch {
	case w.Separator:
		return p.Separator
	case active:
		return p.Active
	case w.Pin == group.PinSuper:
		return p.Super
	case w.Pin == group.PinPinned:
		return p.Pinned
	default:
		return p.Inactive
	}
}

// TabLabel is the text drawn on w's tab. Pinned tabs are narrow, so they show
// an initial only.
func TabLabel(w group.Window) string {
	label := w.Label()
	if w.Pinned() {
		for _, r := range label {
			return string(r)
		}
	}
	return label
}

// fitLabel reduces s to what ImageText8 can draw in width pixels.
func fitLabel(s string, width int) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			r = '?'
		}
		b.WriteRune(r)
	}
	out := b.String()

	maxChars := width / charWidth
	if maxChars <= 0 {
		return ""
	}
	if maxChars > 255 {
		maxChars = 255
	}
	if len(out) <= maxChars {
		return out
	}
	if maxChars <= 2 {
		return out[:maxChars]
	}
	return out[:maxChars-2] + ".."
}
