// Package x11 is the thin layer over xgbutil that the platform backend uses
// to talk to the X server and the EWMH window manager.
package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// RequiredHints are the EWMH hints tab groups cannot work without.
var RequiredHints = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_CLIENT_LIST",
	"_NET_CURRENT_DESKTOP",
	"_NET_WM_DESKTOP",
	"_NET_CLOSE_WINDOW",
}

// Connection is an open X connection plus its root window.
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window
}

// Dial connects to display, or to $DISPLAY when display is empty.
func Dial(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, err
	}

	// Hotkey grabs and bar key handling need the keymap loaded.
	keybind.Initialize(xu)

	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

// WindowManager returns the name the running window manager advertises.
func (c *Connection) WindowManager() (string, error) {
	name, err := ewmh.GetEwmhWM(c.XUtil)
	if err != nil {
		return "", fmt.Errorf("no EWMH window manager: %w", err)
	}
	return name, nil
}

// MissingHints lists the entries of RequiredHints absent from _NET_SUPPORTED.
func (c *Connection) MissingHints() ([]string, error) {
	supported, err := ewmh.SupportedGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to read _NET_SUPPORTED: %w", err)
	}
	return missing(RequiredHints, supported), nil
}

func missing(want, have []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	var out []string
	for _, w := range want {
		if _, ok := set[w]; !ok {
			out = append(out, w)
		}
	}
	return out
}

// EventLoop runs the X event loop until Quit.
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// Quit asks a running EventLoop to return.
func (c *Connection) Quit() {
	xevent.Quit(c.XUtil)
}

func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
