package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xprop"
)

// StickyDesktop is the _NET_WM_DESKTOP value for windows shown on all desktops.
const StickyDesktop = -1

// sourcePager marks client messages as coming from a pager, which window
// managers honour without focus-stealing checks.
const sourcePager = 2

// CurrentDesktop returns the 0-based current desktop.
func (c *Connection) CurrentDesktop() (int, error) {
	desktop, err := ewmh.CurrentDesktopGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get current desktop: %w", err)
	}
	return int(desktop), nil
}

// WindowDesktop returns the 0-based desktop of win, or StickyDesktop.
func (c *Connection) WindowDesktop(win xproto.Window) (int, error) {
	desktop, err := ewmh.WmDesktopGet(c.XUtil, win)
	if err != nil {
		return 0, fmt.Errorf("failed to get window desktop: %w", err)
	}
	if desktop == 0xFFFFFFFF {
		return StickyDesktop, nil
	}
	return int(desktop), nil
}

// MoveToDesktop sends win to a 0-based desktop. ewmh.WmDesktopReq panics on
// this xgbutil version, so the message is built here.
func (c *Connection) MoveToDesktop(win xproto.Window, desktop int) error {
	return c.sendRootMessage(win, "_NET_WM_DESKTOP", uint32(desktop))
}

// Activate raises and focuses win through _NET_ACTIVE_WINDOW.
func (c *Connection) Activate(win xproto.Window) error {
	return c.sendRootMessage(win, "_NET_ACTIVE_WINDOW")
}

// sendRootMessage sends an EWMH client message about win to the root window.
// The source indication follows data.
func (c *Connection) sendRootMessage(win xproto.Window, name string, data ...uint32) error {
	atom, err := xprop.Atm(c.XUtil, name)
	if err != nil {
		return fmt.Errorf("failed to intern %s: %w", name, err)
	}

	payload := make([]uint32, 5)
	copy(payload, data)
	if len(data) < len(payload) {
		payload[len(data)] = sourcePager
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New(payload),
	}
	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}
