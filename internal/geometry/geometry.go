// Package geometry holds the frame arithmetic used to make room for the tab
// bar above grouped windows. Coordinates follow X11: Y grows downward.
package geometry

// DefaultBarHeight is the bar height used when no configuration is loaded.
const DefaultBarHeight = 28

// MaximizeTolerance is the per-edge slack allowed when deciding whether a
// group covers its display's usable area.
const MaximizeTolerance = 20

// Rect represents a window position and size
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Point is a pointer location in root window coordinates.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (r Rect) Right() int  { return r.X + r.Width }
func (r Rect) Bottom() int { return r.Y + r.Height }

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether p lies inside r. The right and bottom edges are
// exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersects reports whether a and b overlap.
func Intersects(a, b Rect) bool {
	return a.X < b.X+b.Width &&
		a.X+a.Width > b.X &&
		a.Y < b.Y+b.Height &&
		a.Y+a.Height > b.Y
}

// Clamp pushes frame below the bar reserved at the top of visible. When the
// top edge sits higher than visible.Y+barHeight the frame is moved down by
// the shortfall and its height shrinks by the same amount, floored at
// barHeight. The returned delta is the shift that Expand undoes; when the
// floor applies Expand restores the top edge but leaves the floored height.
func Clamp(frame, visible Rect, barHeight int) (Rect, int) {
	if barHeight <= 0 {
		barHeight = DefaultBarHeight
	}
	minY := visible.Y + barHeight
	if frame.Y >= minY {
		return frame, 0
	}

	shortfall := minY - frame.Y
	out := frame
	out.Y += shortfall
	out.Height -= shortfall
	if out.Height < barHeight {
		out.Height = barHeight
	}
	return out, shortfall
}

// Expand is the inverse of Clamp: it gives a window back the space that was
// taken for the bar when its group dissolves.
func Expand(frame Rect, delta int) Rect {
	if delta <= 0 {
		return frame
	}
	out := frame
	out.Y -= delta
	out.Height += delta
	return out
}

// IsMaximized reports whether the logical (pre-squeeze) frame covers visible
// on all four edges within MaximizeTolerance. A zero delta is retried as
// delta=barHeight, since a maximized window always loses exactly the bar.
func IsMaximized(frame Rect, delta int, visible Rect, barHeight int) bool {
	return IsMaximizedWithin(frame, delta, visible, barHeight, MaximizeTolerance)
}

// IsMaximizedWithin is IsMaximized with an explicit per-edge tolerance.
func IsMaximizedWithin(frame Rect, delta int, visible Rect, barHeight, tolerance int) bool {
	if barHeight <= 0 {
		barHeight = DefaultBarHeight
	}
	if tolerance < 0 {
		tolerance = MaximizeTolerance
	}
	if edgesMatch(Expand(frame, delta), visible, tolerance) {
		return true
	}
	if delta == 0 {
		return edgesMatch(Expand(frame, barHeight), visible, tolerance)
	}
	return false
}

func edgesMatch(a, b Rect, tolerance int) bool {
	return abs(a.X-b.X) <= tolerance &&
		abs(a.Y-b.Y) <= tolerance &&
		abs(a.Right()-b.Right()) <= tolerance &&
		abs(a.Bottom()-b.Bottom()) <= tolerance
}

// ContainingRect returns the candidate that contains the center of frame. When
// none does, the candidate with the largest overlap wins; ok is false only
// when candidates is empty.
func ContainingRect(frame Rect, candidates []Rect) (Rect, bool) {
	if len(candidates) == 0 {
		return Rect{}, false
	}
	center := frame.Center()
	for _, c := range candidates {
		if c.Contains(center) {
			return c, true
		}
	}

	best := candidates[0]
	bestArea := -1
	for _, c := range candidates {
		if area := overlapArea(frame, c); area > bestArea {
			best = c
			bestArea = area
		}
	}
	return best, true
}

// Intersection is the overlap of a and b, or the zero Rect when they do not
// overlap.
func Intersection(a, b Rect) Rect {
	if !Intersects(a, b) {
		return Rect{}
	}
	x, y := max(a.X, b.X), max(a.Y, b.Y)
	return Rect{X: x, Y: y, Width: min(a.Right(), b.Right()) - x, Height: min(a.Bottom(), b.Bottom()) - y}
}

func overlapArea(a, b Rect) int {
	r := Intersection(a, b)
	return r.Width * r.Height
}

// Distance is the Manhattan distance between the origins of a and b plus the
// difference in their sizes.
func Distance(a, b Rect) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y) + abs(a.Width-b.Width) + abs(a.Height-b.Height)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
