package daemon

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/tabtile/internal/geometry"
	"github.com/1broseidon/tabtile/internal/group"
	"github.com/1broseidon/tabtile/internal/platform"
)

var screen = geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}

type fakeBackend struct {
	mu        sync.Mutex
	windows   map[platform.WindowID]platform.Window
	active    platform.WindowID
	workspace uint64
	raised    []platform.WindowID
	closed    []platform.WindowID
	moved     map[platform.WindowID]uint64

	onActive func(platform.WindowID)
	watches  map[platform.WindowID]platform.WindowEvents
}

func newFakeBackend(windows ...platform.Window) *fakeBackend {
	fb := &fakeBackend{
		windows:   make(map[platform.WindowID]platform.Window),
		workspace: 1,
		moved:     make(map[platform.WindowID]uint64),
		watches:   make(map[platform.WindowID]platform.WindowEvents),
	}
	for _, w := range windows {
		fb.windows[w.ID] = w
	}
	return fb
}

func win(id platform.WindowID, bounds geometry.Rect) platform.Window {
	return platform.Window{
		ID:        id,
		AppID:     "xterm",
		Title:     fmt.Sprintf("window %d", id),
		Bounds:    bounds,
		Workspace: 1,
	}
}

func (f *fakeBackend) Displays() ([]platform.Display, error) {
	return []platform.Display{{ID: 0, Name: "fake", Bounds: screen, Usable: screen}}, nil
}

func (f *fakeBackend) ActiveWindow() (platform.WindowID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, nil
}

func (f *fakeBackend) ListWindows() ([]platform.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]platform.Window, 0, len(f.windows))
	for _, w := range f.windows {
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeBackend) WindowInfo(id platform.WindowID) (platform.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[id]
	if !ok {
		return platform.Window{}, fmt.Errorf("no window %d", id)
	}
	return w, nil
}

func (f *fakeBackend) WindowFrame(id platform.WindowID) (platform.Rect, error) {
	w, err := f.WindowInfo(id)
	return w.Bounds, err
}

func (f *fakeBackend) SetFrame(id platform.WindowID, frame platform.Rect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[id]
	if !ok {
		return fmt.Errorf("no window %d", id)
	}
	w.Bounds = frame
	f.windows[id] = w
	return nil
}

func (f *fakeBackend) Raise(id platform.WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raised = append(f.raised, id)
	f.active = id
	return nil
}

func (f *fakeBackend) IsFullscreen(id platform.WindowID) bool {
	w, _ := f.WindowInfo(id)
	return w.Fullscreen
}

func (f *fakeBackend) WindowWorkspace(id platform.WindowID) uint64 {
	w, _ := f.WindowInfo(id)
	return w.Workspace
}

func (f *fakeBackend) CurrentWorkspace() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.workspace
}

func (f *fakeBackend) MoveToWorkspace(id platform.WindowID, workspace uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.windows[id]
	w.Workspace = workspace
	f.windows[id] = w
	f.moved[id] = workspace
	return nil
}

func (f *fakeBackend) Close(id platform.WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, id)
	return nil
}

func (f *fakeBackend) WatchActiveWindow(fn func(platform.WindowID)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onActive = fn
	return nil
}

func (f *fakeBackend) WatchWindow(id platform.WindowID, events platform.WindowEvents) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watches[id] = events
	return nil
}

func (f *fakeBackend) UnwatchWindow(id platform.WindowID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.watches, id)
}

func (f *fakeBackend) frame(id platform.WindowID) geometry.Rect {
	w, _ := f.WindowInfo(id)
	return w.Bounds
}

func (f *fakeBackend) addWindow(w platform.Window) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows[w.ID] = w
}

func (f *fakeBackend) removeWindow(id platform.WindowID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.windows, id)
}

// activate simulates the window manager focusing id.
func (f *fakeBackend) activate(id platform.WindowID) {
	f.mu.Lock()
	f.active = id
	fn := f.onActive
	f.mu.Unlock()
	if fn != nil {
		fn(id)
	}
}

// configure simulates the user moving or resizing id.
func (f *fakeBackend) configure(id platform.WindowID, frame geometry.Rect) {
	f.mu.Lock()
	w := f.windows[id]
	w.Bounds = frame
	f.windows[id] = w
	events, ok := f.watches[id]
	f.mu.Unlock()
	if ok && events.Configured != nil {
		events.Configured(id, frame)
	}
}

func (f *fakeBackend) destroy(id platform.WindowID) {
	f.mu.Lock()
	delete(f.windows, id)
	events, ok := f.watches[id]
	delete(f.watches, id)
	f.mu.Unlock()
	if ok && events.Destroyed != nil {
		events.Destroyed(id)
	}
}

func (f *fakeBackend) watching(id platform.WindowID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.watches[id]
	return ok
}

type fakePainter struct {
	mu      sync.Mutex
	views   []group.View
	current group.WorkspaceID
	calls   int
}

func (p *fakePainter) Paint(views []group.View, current group.WorkspaceID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.views = views
	p.current = current
	p.calls++
	return nil
}

func (p *fakePainter) last() []group.View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.views
}

func testSettings() Settings {
	s := DefaultSettings()
	s.ResyncDelay = 10 * time.Millisecond
	s.CycleCommitDelay = time.Hour
	s.CaptureTimeout = 2 * time.Second
	return s
}

func startController(t *testing.T, fb *fakeBackend, painter *fakePainter, s Settings) *Controller {
	t.Helper()
	c := New(Options{Backend: fb, Watcher: fb, Painter: painter, Settings: s})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errCh
	})
	return c
}
