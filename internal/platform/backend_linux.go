//go:build linux

package platform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/1broseidon/tabtile/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var (
	_ Backend = (*LinuxBackend)(nil)
	_ Watcher = (*LinuxBackend)(nil)
)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay opens a fresh X11 connection to display; an
// empty display means $DISPLAY.
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.Dial(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// Quit stops a running EventLoop.
func (b *LinuxBackend) Quit() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// Connection returns the wrapped X11 connection.
func (b *LinuxBackend) Connection() *x11.Connection {
	if b == nil {
		return nil
	}
	return b.conn
}

// Displays returns all active displays with their usable work areas.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, Display{
			ID:     m.ID,
			Name:   m.Name,
			Bounds: m.Bounds,
			Usable: conn.WorkArea(m),
		})
	}

	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})

	return displays, nil
}

// ActiveWindow returns the currently active/focused window ID.
func (b *LinuxBackend) ActiveWindow() (WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	wid, err := conn.ActiveWindow()
	if err != nil {
		return 0, err
	}
	return WindowID(wid), nil
}

// ListWindows lists every normal, non-hidden client window on any desktop.
func (b *LinuxBackend) ListWindows() ([]Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := ewmh.ClientListGet(conn.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}

	windows := make([]Window, 0, len(clients))
	for _, windowID := range clients {
		if !conn.IsNormalWindow(windowID) {
			continue
		}
		if conn.HasState(windowID, "_NET_WM_STATE_HIDDEN") {
			continue
		}
		w, err := b.WindowInfo(WindowID(windowID))
		if err != nil {
			continue
		}
		windows = append(windows, w)
	}

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].ID < windows[j].ID
	})

	return windows, nil
}

// WindowInfo reads metadata and geometry for one window.
func (b *LinuxBackend) WindowInfo(windowID WindowID) (Window, error) {
	conn, err := b.connection()
	if err != nil {
		return Window{}, err
	}

	rect, err := b.WindowFrame(windowID)
	if err != nil {
		return Window{}, err
	}

	xid := xproto.Window(windowID)
	pid := 0
	if p, err := ewmh.WmPidGet(conn.XUtil, xid); err == nil {
		pid = int(p)
	}

	return Window{
		ID:         windowID,
		PID:        pid,
		AppID:      b.windowAppID(xid),
		Title:      b.windowTitle(xid),
		Bounds:     rect,
		Workspace:  b.WindowWorkspace(windowID),
		Fullscreen: b.IsFullscreen(windowID),
	}, nil
}

// WindowFrame returns the root-relative geometry of a window.
func (b *LinuxBackend) WindowFrame(windowID WindowID) (Rect, error) {
	conn, err := b.connection()
	if err != nil {
		return Rect{}, err
	}

	frame, err := conn.ClientFrame(xproto.Window(windowID))
	if err != nil {
		return Rect{}, fmt.Errorf("failed to read geometry of window %d: %w", windowID, err)
	}
	return frame, nil
}

// SetFrame moves and resizes a window to the specified bounds.
func (b *LinuxBackend) SetFrame(windowID WindowID, frame Rect) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}

	return conn.SetClientFrame(xproto.Window(windowID), frame)
}

// Raise activates and raises a window.
func (b *LinuxBackend) Raise(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.Activate(xproto.Window(windowID))
}

// IsFullscreen reports whether the window has _NET_WM_STATE_FULLSCREEN.
func (b *LinuxBackend) IsFullscreen(windowID WindowID) bool {
	if b == nil || b.conn == nil {
		return false
	}
	return b.conn.HasState(xproto.Window(windowID), "_NET_WM_STATE_FULLSCREEN")
}

// WindowWorkspace maps _NET_WM_DESKTOP to a 1-based workspace. Sticky and
// unknown windows resolve to 0.
func (b *LinuxBackend) WindowWorkspace(windowID WindowID) uint64 {
	if b == nil || b.conn == nil {
		return 0
	}
	desktop, err := b.conn.WindowDesktop(xproto.Window(windowID))
	if err != nil || desktop == x11.StickyDesktop {
		return 0
	}
	return uint64(desktop) + 1
}

// CurrentWorkspace returns the 1-based current desktop, or 0 when unknown.
func (b *LinuxBackend) CurrentWorkspace() uint64 {
	if b == nil || b.conn == nil {
		return 0
	}
	desktop, err := b.conn.CurrentDesktop()
	if err != nil {
		return 0
	}
	return uint64(desktop) + 1
}

// MoveToWorkspace sends a window to a 1-based workspace.
func (b *LinuxBackend) MoveToWorkspace(windowID WindowID, workspace uint64) error {
	if workspace == 0 {
		return fmt.Errorf("workspace must be resolved")
	}
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.MoveToDesktop(xproto.Window(windowID), int(workspace-1))
}

// Close asks the window to close, through WM_DELETE_WINDOW when the client
// supports it.
func (b *LinuxBackend) Close(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.CloseWindow(xproto.Window(windowID))
}

// WatchActiveWindow calls fn whenever _NET_ACTIVE_WINDOW changes on the root.
func (b *LinuxBackend) WatchActiveWindow(fn func(WindowID)) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}

	if err := xwindow.New(conn.XUtil, conn.Root).Listen(xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("failed to listen on root window: %w", err)
	}

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil || name != "_NET_ACTIVE_WINDOW" {
			return
		}
		active, err := ewmh.ActiveWindowGet(xu)
		if err != nil || active == 0 {
			return
		}
		fn(WindowID(active))
	}).Connect(conn.XUtil, conn.Root)
	return nil
}

// WatchWindow subscribes to structure notifications on a client window.
// ConfigureNotify coordinates are parent-relative under reparenting WMs, so
// the frame is re-read in root coordinates before delivery.
func (b *LinuxBackend) WatchWindow(windowID WindowID, events WindowEvents) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}

	xid := xproto.Window(windowID)
	if err := xwindow.New(conn.XUtil, xid).Listen(xproto.EventMaskStructureNotify); err != nil {
		return fmt.Errorf("failed to listen on window %d: %w", windowID, err)
	}

	if events.Configured != nil {
		xevent.ConfigureNotifyFun(func(_ *xgbutil.XUtil, _ xevent.ConfigureNotifyEvent) {
			frame, err := b.WindowFrame(windowID)
			if err != nil {
				return
			}
			events.Configured(windowID, frame)
		}).Connect(conn.XUtil, xid)
	}
	if events.Destroyed != nil {
		xevent.DestroyNotifyFun(func(xu *xgbutil.XUtil, _ xevent.DestroyNotifyEvent) {
			xevent.Detach(xu, xid)
			events.Destroyed(windowID)
		}).Connect(conn.XUtil, xid)
	}
	return nil
}

// UnwatchWindow drops every callback registered for a window.
func (b *LinuxBackend) UnwatchWindow(windowID WindowID) {
	if b == nil || b.conn == nil {
		return
	}
	xevent.Detach(b.conn.XUtil, xproto.Window(windowID))
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func (b *LinuxBackend) windowAppID(windowID xproto.Window) string {
	wmClass, err := icccm.WmClassGet(b.conn.XUtil, windowID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

func (b *LinuxBackend) windowTitle(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(b.conn.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(b.conn.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	return ""
}
