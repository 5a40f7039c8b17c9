package platform

import "github.com/1broseidon/tabtile/internal/geometry"

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect = geometry.Rect

// Display describes a physical display and its usable work area.
type Display struct {
	ID     int
	Name   string
	Bounds Rect
	Usable Rect
}

// Window contains metadata and geometry for a top-level window.
type Window struct {
	ID         WindowID
	PID        int
	AppID      string
	Title      string
	Bounds     Rect
	Workspace  uint64
	Fullscreen bool
}

// WindowEvents receives structural notifications for a watched window.
type WindowEvents struct {
	Configured func(id WindowID, frame Rect)
	Destroyed  func(id WindowID)
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	Displays() ([]Display, error)
	ActiveWindow() (WindowID, error)
	ListWindows() ([]Window, error)
	WindowInfo(windowID WindowID) (Window, error)
	WindowFrame(windowID WindowID) (Rect, error)
	SetFrame(windowID WindowID, frame Rect) error
	Raise(windowID WindowID) error
	IsFullscreen(windowID WindowID) bool
	// WindowWorkspace returns the 1-based workspace of a window; 0 means unresolved.
	WindowWorkspace(windowID WindowID) uint64
	CurrentWorkspace() uint64
	MoveToWorkspace(windowID WindowID, workspace uint64) error
	Close(windowID WindowID) error
}

// Watcher delivers window-system events. Callbacks run on the event loop
// goroutine and must not block.
type Watcher interface {
	WatchActiveWindow(fn func(WindowID)) error
	WatchWindow(windowID WindowID, events WindowEvents) error
	UnwatchWindow(windowID WindowID)
}
