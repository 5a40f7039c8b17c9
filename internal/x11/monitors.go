package x11

import (
	"fmt"
	"slices"

	"github.com/1broseidon/tabtile/internal/geometry"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor is one active RandR CRTC.
type Monitor struct {
	ID     int
	Name   string
	Bounds geometry.Rect
}

// GetMonitors lists active monitors in CRTC order.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(c.XUtil.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		monitors = append(monitors, Monitor{
			ID:   i,
			Name: name,
			Bounds: geometry.Rect{
				X:      int(info.X),
				Y:      int(info.Y),
				Width:  int(info.Width),
				Height: int(info.Height),
			},
		})
	}
	return monitors, nil
}

// WorkArea returns the part of the monitor not covered by dock struts. When
// no dock reserves space it falls back to _NET_WORKAREA for the current
// desktop.
func (c *Connection) WorkArea(m Monitor) geometry.Rect {
	if struts, err := c.dockStruts(); err == nil && len(struts) > 0 {
		if usable, ok := applyStruts(m.Bounds, struts); ok {
			return usable
		}
	}

	areas, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(areas) == 0 {
		return m.Bounds
	}
	idx := 0
	if cur, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(cur) < len(areas) {
		idx = int(cur)
	}
	wa := areas[idx]
	usable := geometry.Intersection(m.Bounds, geometry.Rect{
		X: int(wa.X), Y: int(wa.Y), Width: int(wa.Width), Height: int(wa.Height),
	})
	if usable.Empty() {
		return m.Bounds
	}
	return usable
}

// dockStruts collects the reserved regions of every dock window.
func (c *Connection) dockStruts() ([]strut, error) {
	g, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return nil, err
	}
	root := geometry.Rect{Width: int(g.Width), Height: int(g.Height)}

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, err
	}

	var struts []strut
	for _, win := range clients {
		types, err := ewmh.WmWindowTypeGet(c.XUtil, win)
		if err != nil || !slices.Contains(types, "_NET_WM_WINDOW_TYPE_DOCK") {
			continue
		}
		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, win); err == nil {
			struts = append(struts, strutRects(root, sp)...)
			continue
		}
		// Older docks only set _NET_WM_STRUT, which spans the whole edge.
		if s, err := ewmh.WmStrutGet(c.XUtil, win); err == nil {
			struts = append(struts, strutRects(root, fullEdgeStrut(root, s))...)
		}
	}
	return struts, nil
}

func fullEdgeStrut(root geometry.Rect, s *ewmh.WmStrut) *ewmh.WmStrutPartial {
	lastX, lastY := uint(max(root.Width-1, 0)), uint(max(root.Height-1, 0))
	return &ewmh.WmStrutPartial{
		Left: s.Left, Right: s.Right, Top: s.Top, Bottom: s.Bottom,
		LeftEndY: lastY, RightEndY: lastY,
		TopEndX: lastX, BottomEndX: lastX,
	}
}

type edge int

const (
	edgeTop edge = iota
	edgeBottom
	edgeLeft
	edgeRight
)

// strut is a region of the root window reserved along one screen edge.
type strut struct {
	edge edge
	area geometry.Rect
}

// strutRects converts a partial strut into root-relative regions, one per
// reserved edge.
func strutRects(root geometry.Rect, sp *ewmh.WmStrutPartial) []strut {
	var out []strut
	if sp.Top > 0 {
		out = append(out, strut{edgeTop, geometry.Rect{
			X: int(sp.TopStartX), Y: 0,
			Width: int(sp.TopEndX) - int(sp.TopStartX) + 1, Height: int(sp.Top),
		}})
	}
	if sp.Bottom > 0 {
		out = append(out, strut{edgeBottom, geometry.Rect{
			X: int(sp.BottomStartX), Y: root.Height - int(sp.Bottom),
			Width: int(sp.BottomEndX) - int(sp.BottomStartX) + 1, Height: int(sp.Bottom),
		}})
	}
	if sp.Left > 0 {
		out = append(out, strut{edgeLeft, geometry.Rect{
			X: 0, Y: int(sp.LeftStartY),
			Width: int(sp.Left), Height: int(sp.LeftEndY) - int(sp.LeftStartY) + 1,
		}})
	}
	if sp.Right > 0 {
		out = append(out, strut{edgeRight, geometry.Rect{
			X: root.Width - int(sp.Right), Y: int(sp.RightStartY),
			Width: int(sp.Right), Height: int(sp.RightEndY) - int(sp.RightStartY) + 1,
		}})
	}
	return out
}

// applyStruts shrinks bounds by the struts that overlap it, taking the
// deepest overlap per edge. It reports false when no strut overlaps.
func applyStruts(bounds geometry.Rect, struts []strut) (geometry.Rect, bool) {
	var top, bottom, left, right int
	for _, s := range struts {
		hit := geometry.Intersection(bounds, s.area)
		if hit.Empty() {
			continue
		}
		switch s.edge {
		case edgeTop:
			top = max(top, hit.Height)
		case edgeBottom:
			bottom = max(bottom, hit.Height)
		case edgeLeft:
			left = max(left, hit.Width)
		case edgeRight:
			right = max(right, hit.Width)
		}
	}
	if top == 0 && bottom == 0 && left == 0 && right == 0 {
		return bounds, false
	}

	out := geometry.Rect{
		X:      bounds.X + left,
		Y:      bounds.Y + top,
		Width:  max(bounds.Width-left-right, 1),
		Height: max(bounds.Height-top-bottom, 1),
	}
	return out, true
}
