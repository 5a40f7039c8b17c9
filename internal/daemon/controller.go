// Package daemon owns the control goroutine that every group mutation runs
// on, and connects it to the window system, the bar painter and the timers.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/1broseidon/tabtile/internal/droptarget"
	"github.com/1broseidon/tabtile/internal/geometry"
	"github.com/1broseidon/tabtile/internal/group"
	"github.com/1broseidon/tabtile/internal/ownership"
	"github.com/1broseidon/tabtile/internal/platform"
	"github.com/1broseidon/tabtile/internal/windowclass"
)

var (
	ErrStopped        = errors.New("controller is not running")
	ErrGroupNotFound  = errors.New("group not found")
	ErrWindowNotFound = errors.New("window not found")
	ErrRejected       = errors.New("operation rejected")
	ErrCaptureTimeout = errors.New("timed out waiting for a new window")
)

// Painter draws the current groups.
type Painter interface {
	Paint(views []group.View, current group.WorkspaceID) error
}

// Settings are the tunables the controller reads from configuration.
type Settings struct {
	Layout            droptarget.Layout
	MaximizeTolerance int
	ResyncDelay       time.Duration
	CycleCommitDelay  time.Duration
	CaptureTimeout    time.Duration
	IgnoreClasses     []string
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		Layout:            droptarget.DefaultLayout(),
		MaximizeTolerance: geometry.MaximizeTolerance,
		ResyncDelay:       150 * time.Millisecond,
		CycleCommitDelay:  800 * time.Millisecond,
		CaptureTimeout:    10 * time.Second,
	}
}

// Options configures a Controller. Watcher may be nil, in which case the
// reconciler is the only source of window changes.
type Options struct {
	Backend  platform.Backend
	Watcher  platform.Watcher
	Painter  Painter
	Settings Settings
	Logger   *slog.Logger
}

// Controller serialises every group mutation onto one goroutine.
type Controller struct {
	backend platform.Backend
	watcher platform.Watcher
	painter Painter
	logger  *slog.Logger
	classes *windowclass.Filter

	ops  chan func()
	done chan struct{}

	// Everything below is owned by the Run goroutine.
	settings  Settings
	manager   *group.Manager
	sync      *ownership.Synchronizer
	displays  []platform.Display
	dirty     bool
	expand    []pendingExpand
	resync    map[group.ID]*time.Timer
	cycleWait *time.Timer
	watched   map[group.WindowID]struct{}
	active    group.WindowID
	previous  group.WindowID
	startedAt time.Time
}

type pendingExpand struct {
	windows []group.WindowID
	frame   geometry.Rect
}

// New builds a controller. Call Run to start processing.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Controller{
		backend:  opts.Backend,
		watcher:  opts.Watcher,
		painter:  opts.Painter,
		logger:   logger,
		classes:  windowclass.NewFilter(opts.Settings.IgnoreClasses),
		ops:      make(chan func(), 256),
		done:     make(chan struct{}),
		settings: opts.Settings,
		resync:   make(map[group.ID]*time.Timer),
		watched:  make(map[group.WindowID]struct{}),
	}
	c.manager = group.NewManager(logger)
	c.sync = ownership.New(c.manager, ownership.Options{Logger: logger})
	c.manager.Subscribe(func() { c.dirty = true })
	c.manager.OnDissolve(c.onDissolve)
	return c
}

// Run processes posted operations until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	c.startedAt = time.Now()
	c.refreshDisplays()

	if c.watcher != nil {
		if err := c.watcher.WatchActiveWindow(func(id platform.WindowID) {
			c.Post(func() { c.handleActivated(group.WindowID(id)) })
		}); err != nil {
			c.logger.Warn("active window tracking unavailable", "error", err)
		}
	}

	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			c.stopTimers()
			return nil
		case fn := <-c.ops:
			c.runOp(fn)
		}
	}
}

func (c *Controller) runOp(fn func()) {
	defer func() {
		if err := recover(); err != nil {
			c.logger.Error("controller panic recovered", "error", err)
		}
	}()
	fn()
	c.flush()
}

// Post queues fn for the control goroutine without waiting.
func (c *Controller) Post(fn func()) {
	select {
	case c.ops <- fn:
	case <-c.done:
	}
}

// Do runs fn on the control goroutine and waits for it to finish.
func (c *Controller) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case c.ops <- wrapped:
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Apply replaces the settings and repaints.
func (c *Controller) Apply(ctx context.Context, s Settings) error {
	return c.Do(ctx, func() {
		c.settings = s
		c.classes.Update(s.IgnoreClasses)
		c.dirty = true
	})
}

// flush runs after every operation: it applies deferred frame restores,
// re-runs the maximize sweep when anything changed, keeps the watch set in
// line with membership and repaints.
func (c *Controller) flush() {
	c.applyExpansions()
	if !c.dirty {
		return
	}
	c.refreshClusters()
	c.applyExpansions()
	c.dirty = false
	c.syncWatches()
	c.paint()
}

func (c *Controller) paint() {
	if c.painter == nil {
		return
	}
	if err := c.painter.Paint(c.views(), group.WorkspaceID(c.backend.CurrentWorkspace())); err != nil {
		c.logger.Warn("paint failed", "error", err)
	}
}

func (c *Controller) views() []group.View {
	groups := c.manager.Groups()
	out := make([]group.View, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.View())
	}
	return out
}

// onDissolve queues the restore of the dissolved group's frame for windows
// that are no longer grouped anywhere. Membership is only final once the
// surrounding mutation has finished, so the check happens in flush.
func (c *Controller) onDissolve(g *group.Group) {
	if t, ok := c.resync[g.ID]; ok {
		t.Stop()
		delete(c.resync, g.ID)
	}
	ids := make([]group.WindowID, 0, g.Count())
	for _, w := range g.Windows() {
		if !w.Separator {
			ids = append(ids, w.ID)
		}
	}
	c.expand = append(c.expand, pendingExpand{
		windows: ids,
		frame:   geometry.Expand(g.Frame, g.TabBarSqueezeDelta),
	})
}

func (c *Controller) applyExpansions() {
	pending := c.expand
	c.expand = nil
	for _, p := range pending {
		for _, id := range p.windows {
			if c.manager.IsWindowGrouped(id) {
				continue
			}
			c.setFrame(id, p.frame)
		}
	}
}

func (c *Controller) stopTimers() {
	for id, t := range c.resync {
		t.Stop()
		delete(c.resync, id)
	}
	if c.cycleWait != nil {
		c.cycleWait.Stop()
		c.cycleWait = nil
	}
}

func (c *Controller) setFrame(id group.WindowID, frame geometry.Rect) {
	if err := c.backend.SetFrame(platform.WindowID(id), frame); err != nil {
		c.logger.Debug("set frame failed", "window", id, "error", err)
	}
}

func (c *Controller) raise(id group.WindowID) {
	if err := c.backend.Raise(platform.WindowID(id)); err != nil {
		c.logger.Debug("raise failed", "window", id, "error", err)
	}
}

func (c *Controller) ignored(appID string) bool {
	return c.classes.Match(appID)
}

func (c *Controller) usableRects() []geometry.Rect {
	out := make([]geometry.Rect, 0, len(c.displays))
	for _, d := range c.displays {
		out = append(out, d.Usable)
	}
	return out
}

func (c *Controller) refreshDisplays() {
	displays, err := c.backend.Displays()
	if err != nil {
		c.logger.Warn("failed to read displays", "error", err)
		return
	}
	c.displays = displays
}
