package x11

import (
	"fmt"
	"slices"

	"github.com/1broseidon/tabtile/internal/geometry"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Window types never offered for grouping.
var skipTypes = []string{
	"_NET_WM_WINDOW_TYPE_DESKTOP",
	"_NET_WM_WINDOW_TYPE_DOCK",
	"_NET_WM_WINDOW_TYPE_SPLASH",
	"_NET_WM_WINDOW_TYPE_NOTIFICATION",
}

// ClientFrame returns the root-relative geometry of a client window.
func (c *Connection) ClientFrame(win xproto.Window) (geometry.Rect, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return geometry.Rect{}, err
	}
	origin, err := xproto.TranslateCoordinates(c.XUtil.Conn(), win, c.Root, 0, 0).Reply()
	if err != nil {
		return geometry.Rect{}, err
	}
	return geometry.Rect{
		X:      int(origin.DstX),
		Y:      int(origin.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

// SetClientFrame moves and resizes a client window. Maximized windows are
// unmaximized first since most window managers ignore geometry requests for
// them.
func (c *Connection) SetClientFrame(win xproto.Window, r geometry.Rect) error {
	if states, err := ewmh.WmStateGet(c.XUtil, win); err == nil {
		for _, s := range states {
			if s == "_NET_WM_STATE_MAXIMIZED_HORZ" || s == "_NET_WM_STATE_MAXIMIZED_VERT" {
				_ = ewmh.WmStateReq(c.XUtil, win, ewmh.StateRemove, s)
			}
		}
	}

	if err := ewmh.MoveresizeWindow(c.XUtil, win, r.X, r.Y, r.Width, r.Height); err != nil {
		// No EWMH support for the request; configure the window directly.
		xwindow.New(c.XUtil, win).MoveResize(r.X, r.Y, r.Width, r.Height)
	}
	return nil
}

// HasState reports whether the window carries the given _NET_WM_STATE atom.
func (c *Connection) HasState(win xproto.Window, state string) bool {
	states, err := ewmh.WmStateGet(c.XUtil, win)
	return err == nil && slices.Contains(states, state)
}

// IsNormalWindow reports whether win is an application window. Windows
// without a type, or whose type cannot be read, count as normal.
func (c *Connection) IsNormalWindow(win xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, win)
	if err != nil || len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_NORMAL" {
			return true
		}
		if slices.Contains(skipTypes, t) {
			return false
		}
	}
	return false
}

// ActiveWindow returns the window named by _NET_ACTIVE_WINDOW.
func (c *Connection) ActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// CloseWindow asks win to close. Clients that speak WM_DELETE_WINDOW get the
// ICCCM message; the rest are closed through the window manager.
func (c *Connection) CloseWindow(win xproto.Window) error {
	protocols, err := icccm.WmProtocolsGet(c.XUtil, win)
	if err != nil || !slices.Contains(protocols, "WM_DELETE_WINDOW") {
		return c.sendRootMessage(win, "_NET_CLOSE_WINDOW", 0)
	}

	wmProtocols, err := xprop.Atm(c.XUtil, "WM_PROTOCOLS")
	if err != nil {
		return fmt.Errorf("failed to intern WM_PROTOCOLS: %w", err)
	}
	wmDelete, err := xprop.Atm(c.XUtil, "WM_DELETE_WINDOW")
	if err != nil {
		return fmt.Errorf("failed to intern WM_DELETE_WINDOW: %w", err)
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   wmProtocols,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(wmDelete), 0, 0, 0, 0}),
	}
	return xproto.SendEventChecked(c.XUtil.Conn(), false, win, xproto.EventMaskNoEvent, string(ev.Bytes())).Check()
}
