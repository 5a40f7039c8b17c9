package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/1broseidon/tabtile/internal/geometry"
	"github.com/1broseidon/tabtile/internal/group"
	"github.com/1broseidon/tabtile/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	left  = geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}
	right = geometry.Rect{X: 1000, Y: 100, Width: 800, Height: 600}
)

func ids(v group.View) []group.WindowID {
	out := make([]group.WindowID, 0, len(v.Windows))
	for _, w := range v.Windows {
		out = append(out, w.ID)
	}
	return out
}

func onlyGroup(t *testing.T, c *Controller) group.View {
	t.Helper()
	views, err := c.Groups(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	return views[0]
}

func findGroup(t *testing.T, c *Controller, id group.ID) group.View {
	t.Helper()
	views, err := c.Groups(context.Background())
	require.NoError(t, err)
	for _, v := range views {
		if v.ID == id {
			return v
		}
	}
	t.Fatalf("group %s not found", id)
	return group.View{}
}

func TestCreateGroupClampsBelowBar(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, screen), win(2, left))
	painter := &fakePainter{}
	c := startController(t, fb, painter, testSettings())

	created, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "work")
	require.NoError(t, err)

	clamped := geometry.Rect{X: 0, Y: 28, Width: 1920, Height: 1052}
	assert.Equal(t, clamped, created.Frame)
	assert.Equal(t, 28, created.TabBarSqueezeDelta)
	assert.Equal(t, "work", created.Name)
	assert.Equal(t, group.WorkspaceID(1), created.WorkspaceID)
	assert.Equal(t, []group.WindowID{1, 2}, ids(created))

	assert.Equal(t, clamped, fb.frame(1))
	assert.Equal(t, clamped, fb.frame(2))

	v := onlyGroup(t, c)
	assert.True(t, v.Maximized)
	assert.Empty(t, v.MaximizedGroupCounterIDs)
	assert.True(t, fb.watching(1))
	assert.True(t, fb.watching(2))
	require.Len(t, painter.last(), 1)
	assert.Equal(t, created.ID, painter.last()[0].ID)
}

func TestCreateGroupRejections(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left), win(3, left))
	s := testSettings()
	s.IgnoreClasses = []string{"polybar"}
	c := startController(t, fb, &fakePainter{}, s)

	_, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "")
	require.NoError(t, err)

	_, err = c.CreateGroup(ctx, []group.WindowID{2, 3}, "")
	assert.True(t, errors.Is(err, ErrRejected), "got %v", err)

	_, err = c.CreateGroup(ctx, []group.WindowID{3, 3}, "")
	assert.True(t, errors.Is(err, ErrRejected), "got %v", err)

	_, err = c.CreateGroup(ctx, []group.WindowID{42}, "")
	assert.True(t, errors.Is(err, ErrWindowNotFound), "got %v", err)

	_, err = c.CreateGroup(ctx, nil, "")
	assert.True(t, errors.Is(err, ErrRejected), "got %v", err)

	bar := win(4, left)
	bar.AppID = "polybar"
	fb.addWindow(bar)
	_, err = c.CreateGroup(ctx, []group.WindowID{3, 4}, "")
	assert.True(t, errors.Is(err, ErrRejected), "got %v", err)
}

func TestReleaseRestoresFrameAndDissolvesWhenEmpty(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, screen), win(2, left))
	c := startController(t, fb, &fakePainter{}, testSettings())

	g, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "")
	require.NoError(t, err)

	require.NoError(t, c.ReleaseWindow(ctx, g.ID, 2))
	assert.Equal(t, screen, fb.frame(2))
	assert.Equal(t, []group.WindowID{1}, ids(onlyGroup(t, c)))

	require.NoError(t, c.ReleaseWindow(ctx, g.ID, 1))
	assert.Equal(t, screen, fb.frame(1))

	views, err := c.Groups(ctx)
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.False(t, fb.watching(1))

	err = c.ReleaseWindow(ctx, g.ID, 1)
	assert.True(t, errors.Is(err, ErrGroupNotFound), "got %v", err)
}

func TestDissolveRestoresEveryMember(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, screen), win(2, left))
	c := startController(t, fb, &fakePainter{}, testSettings())

	g, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "")
	require.NoError(t, err)
	require.NoError(t, c.DissolveGroup(ctx, g.ID))

	assert.Equal(t, screen, fb.frame(1))
	assert.Equal(t, screen, fb.frame(2))
	views, err := c.Groups(ctx)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestDissolveAll(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left), win(3, right), win(4, right))
	c := startController(t, fb, &fakePainter{}, testSettings())

	_, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "")
	require.NoError(t, err)
	_, err = c.CreateGroup(ctx, []group.WindowID{3, 4}, "")
	require.NoError(t, err)

	require.NoError(t, c.DissolveAll(ctx))
	views, err := c.Groups(ctx)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestDestroyedWindowLeavesGroup(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left), win(3, left))
	c := startController(t, fb, &fakePainter{}, testSettings())

	_, err := c.CreateGroup(ctx, []group.WindowID{1, 2, 3}, "")
	require.NoError(t, err)

	fb.destroy(2)
	assert.Equal(t, []group.WindowID{1, 3}, ids(onlyGroup(t, c)))
	assert.False(t, fb.watching(2))
}

func TestReconcileForgetsVanishedAndRefreshesTitles(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left), win(3, left))
	c := New(Options{Backend: fb, Painter: &fakePainter{}, Settings: testSettings()})
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.Run(runCtx)

	_, err := c.CreateGroup(ctx, []group.WindowID{1, 2, 3}, "")
	require.NoError(t, err)

	fb.removeWindow(3)
	w := win(1, left)
	w.Title = "renamed"
	fb.addWindow(w)

	r := NewReconciler(ReconcilerConfig{Interval: time.Hour}, c, fb.ListWindows)
	r.ReconcileNow(ctx)

	v := onlyGroup(t, c)
	assert.Equal(t, []group.WindowID{1, 2}, ids(v))
	assert.Equal(t, "renamed", v.Windows[0].Title)
}

func TestMoveDebouncesResync(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left))
	c := startController(t, fb, &fakePainter{}, testSettings())

	_, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "")
	require.NoError(t, err)

	moved := geometry.Rect{X: 200, Y: 150, Width: 700, Height: 500}
	fb.configure(1, geometry.Rect{X: 150, Y: 120, Width: 800, Height: 600})
	fb.configure(1, moved)

	require.Eventually(t, func() bool { return fb.frame(2) == moved }, time.Second, 5*time.Millisecond)
	assert.Equal(t, moved, onlyGroup(t, c).Frame)
}

func TestMaximizingActiveWindowClampsGroup(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left))
	c := startController(t, fb, &fakePainter{}, testSettings())

	_, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "")
	require.NoError(t, err)

	fb.configure(1, screen)

	clamped := geometry.Rect{X: 0, Y: 28, Width: 1920, Height: 1052}
	require.Eventually(t, func() bool { return fb.frame(2) == clamped }, time.Second, 5*time.Millisecond)
	v := onlyGroup(t, c)
	assert.Equal(t, clamped, v.Frame)
	assert.Equal(t, 28, v.TabBarSqueezeDelta)
	assert.Equal(t, clamped, fb.frame(1))
}

func TestConfigureOnInactiveMemberIsIgnored(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left))
	c := startController(t, fb, &fakePainter{}, testSettings())

	_, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "")
	require.NoError(t, err)

	fb.configure(2, right)
	assert.Equal(t, left, onlyGroup(t, c).Frame)
}

func TestSuperpinMirrorsAcrossMaximizedPeers(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, screen), win(2, screen), win(3, screen), win(4, screen))
	c := startController(t, fb, &fakePainter{}, testSettings())

	a, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "")
	require.NoError(t, err)
	b, err := c.CreateGroup(ctx, []group.WindowID{3, 4}, "")
	require.NoError(t, err)

	va := findGroup(t, c, a.ID)
	assert.Equal(t, []group.ID{a.ID, b.ID}, va.MaximizedGroupCounterIDs)

	require.NoError(t, c.SetPin(ctx, a.ID, []group.WindowID{1}, group.PinSuper))
	vb := findGroup(t, c, b.ID)
	assert.Equal(t, []group.WindowID{1, 3, 4}, ids(vb))
	assert.Equal(t, group.PinSuper, vb.Windows[0].Pin)

	require.NoError(t, c.SetPin(ctx, a.ID, []group.WindowID{1}, group.PinNone))
	assert.Equal(t, []group.WindowID{3, 4}, ids(findGroup(t, c, b.ID)))
	va = findGroup(t, c, a.ID)
	assert.Equal(t, group.PinNone, va.Windows[0].Pin)
}

func TestDropTabsBetweenGroups(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left), win(3, right), win(4, right))
	c := startController(t, fb, &fakePainter{}, testSettings())

	a, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "")
	require.NoError(t, err)
	b, err := c.CreateGroup(ctx, []group.WindowID{3, 4}, "")
	require.NoError(t, err)

	require.NoError(t, c.DropTabs(ctx, a.ID, []group.WindowID{2}, b.ID, 1))

	vb := findGroup(t, c, b.ID)
	assert.Equal(t, []group.WindowID{3, 2, 4}, ids(vb))
	assert.Equal(t, 1, vb.ActiveIndex)
	assert.Equal(t, []group.WindowID{1}, ids(findGroup(t, c, a.ID)))
	assert.Equal(t, right, fb.frame(2))
}

func TestDropTabsSkipsWindowsSharedWithOtherGroups(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, screen), win(2, screen), win(3, screen), win(4, screen), win(5, left))
	c := startController(t, fb, &fakePainter{}, testSettings())

	a, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "")
	require.NoError(t, err)
	b, err := c.CreateGroup(ctx, []group.WindowID{3, 4}, "")
	require.NoError(t, err)
	target, err := c.CreateGroup(ctx, []group.WindowID{5}, "")
	require.NoError(t, err)
	require.NoError(t, c.SetPin(ctx, a.ID, []group.WindowID{1}, group.PinSuper))
	require.Equal(t, []group.WindowID{1, 3, 4}, ids(findGroup(t, c, b.ID)))
	aFrame := fb.frame(1)

	// The mirror of 1 in b is not movable on its own.
	err = c.DropTabs(ctx, b.ID, []group.WindowID{1}, target.ID, 0)
	require.ErrorIs(t, err, ErrRejected)

	va := findGroup(t, c, a.ID)
	assert.Equal(t, []group.WindowID{1, 2}, ids(va))
	assert.Equal(t, group.PinSuper, va.Windows[0].Pin)
	assert.Equal(t, []group.WindowID{1, 3, 4}, ids(findGroup(t, c, b.ID)))
	assert.Equal(t, []group.WindowID{5}, ids(findGroup(t, c, target.ID)))
	assert.Equal(t, aFrame, fb.frame(1))
	assert.NotEqual(t, left, fb.frame(1))

	// Mixed drops move only the windows that belong to b alone.
	require.NoError(t, c.DropTabs(ctx, b.ID, []group.WindowID{1, 4}, target.ID, 1))
	assert.Equal(t, []group.WindowID{5, 4}, ids(findGroup(t, c, target.ID)))
	assert.Equal(t, aFrame, fb.frame(1))
	assert.Equal(t, []group.WindowID{1, 2}, ids(findGroup(t, c, a.ID)))
	assert.Equal(t, []group.WindowID{1, 3}, ids(findGroup(t, c, b.ID)))
}

func TestDropTabsWithinGroupReorders(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left), win(5, left))
	c := startController(t, fb, &fakePainter{}, testSettings())

	a, err := c.CreateGroup(ctx, []group.WindowID{1, 2, 5}, "")
	require.NoError(t, err)

	require.NoError(t, c.DropTabs(ctx, a.ID, []group.WindowID{1}, a.ID, 3))
	assert.Equal(t, []group.WindowID{2, 5, 1}, ids(onlyGroup(t, c)))
}

func TestDragOverAndDropOnAnotherBar(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left), win(3, right), win(4, right))
	c := startController(t, fb, &fakePainter{}, testSettings())

	a, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "")
	require.NoError(t, err)
	b, err := c.CreateGroup(ctx, []group.WindowID{3, 4}, "")
	require.NoError(t, err)

	over := geometry.Point{X: 1010, Y: 80}
	c.DragOver(a.ID, 2, over)
	assert.Equal(t, 0, findGroup(t, c, b.ID).DropIndicatorIndex)
	assert.Equal(t, -1, findGroup(t, c, a.ID).DropIndicatorIndex)

	c.DropAt(a.ID, 2, over)
	vb := findGroup(t, c, b.ID)
	assert.Equal(t, []group.WindowID{2, 3, 4}, ids(vb))
	assert.Equal(t, -1, vb.DropIndicatorIndex)
}

func TestDropOutsideBarsTearsOff(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left))
	c := startController(t, fb, &fakePainter{}, testSettings())

	a, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "")
	require.NoError(t, err)

	c.DropAt(a.ID, 2, geometry.Point{X: 500, Y: 900})
	assert.Equal(t, []group.WindowID{1}, ids(onlyGroup(t, c)))
}

func TestCycleWalksMRUAndCommits(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left), win(3, left))
	c := startController(t, fb, &fakePainter{}, testSettings())

	_, err := c.CreateGroup(ctx, []group.WindowID{1, 2, 3}, "")
	require.NoError(t, err)

	require.NoError(t, c.Cycle(ctx))
	assert.Equal(t, 1, onlyGroup(t, c).ActiveIndex)
	require.NoError(t, c.Cycle(ctx))
	assert.Equal(t, 2, onlyGroup(t, c).ActiveIndex)
	require.NoError(t, c.CycleEnd(ctx))

	fb.mu.Lock()
	last := fb.raised[len(fb.raised)-1]
	fb.mu.Unlock()
	assert.Equal(t, platform.WindowID(3), last)
}

func TestCycleCommitsAfterIdleDelay(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left))
	s := testSettings()
	s.CycleCommitDelay = 10 * time.Millisecond
	c := startController(t, fb, &fakePainter{}, s)

	_, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "")
	require.NoError(t, err)
	require.NoError(t, c.Cycle(ctx))

	require.Eventually(t, func() bool {
		cycling := true
		_ = c.Do(ctx, func() { cycling = c.manager.Groups()[0].IsCycling() })
		return !cycling
	}, time.Second, 5*time.Millisecond)
}

func TestCycleNeedsTwoWindows(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left))
	c := startController(t, fb, &fakePainter{}, testSettings())

	_, err := c.CreateGroup(ctx, []group.WindowID{1}, "")
	require.NoError(t, err)
	assert.True(t, errors.Is(c.Cycle(ctx), ErrRejected))
}

func TestFocusEventSwitchesOwningGroup(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left))
	c := startController(t, fb, &fakePainter{}, testSettings())

	_, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "")
	require.NoError(t, err)

	fb.activate(2)
	assert.Equal(t, 1, onlyGroup(t, c).ActiveIndex)
}

func TestGroupActiveJoinsPreviousWindow(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, right), win(5, right))
	c := startController(t, fb, &fakePainter{}, testSettings())
	_, err := c.Groups(ctx)
	require.NoError(t, err)

	fb.activate(1)
	fb.activate(2)
	require.NoError(t, c.GroupActive(ctx))
	assert.Equal(t, []group.WindowID{1, 2}, ids(onlyGroup(t, c)))

	fb.activate(5)
	require.NoError(t, c.GroupActive(ctx))
	assert.Equal(t, []group.WindowID{1, 2, 5}, ids(onlyGroup(t, c)))

	assert.True(t, errors.Is(c.GroupActive(ctx), ErrRejected))
}

func TestToggleActivePin(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left))
	c := startController(t, fb, &fakePainter{}, testSettings())

	_, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "")
	require.NoError(t, err)

	require.NoError(t, c.ToggleActivePin(ctx, false))
	assert.Equal(t, group.PinPinned, onlyGroup(t, c).Windows[0].Pin)
	require.NoError(t, c.ToggleActivePin(ctx, true))
	assert.Equal(t, group.PinSuper, onlyGroup(t, c).Windows[0].Pin)
	require.NoError(t, c.ToggleActivePin(ctx, true))
	assert.Equal(t, group.PinNone, onlyGroup(t, c).Windows[0].Pin)
}

func TestReleaseActive(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left), win(3, left))
	c := startController(t, fb, &fakePainter{}, testSettings())

	_, err := c.CreateGroup(ctx, []group.WindowID{1, 2, 3}, "")
	require.NoError(t, err)

	require.NoError(t, c.ReleaseActive(ctx))
	assert.Equal(t, []group.WindowID{2, 3}, ids(onlyGroup(t, c)))
}

func TestCaptureAddsNextWindow(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left))
	c := startController(t, fb, &fakePainter{}, testSettings())

	g, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "")
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		fb.addWindow(win(9, right))
	}()

	v, err := c.Capture(ctx, g.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, []group.WindowID{1, 2, 9}, ids(v))
	assert.Equal(t, left, fb.frame(9))
}

func TestCaptureTimesOut(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left))
	s := testSettings()
	s.CaptureTimeout = 30 * time.Millisecond
	c := startController(t, fb, &fakePainter{}, s)

	g, err := c.CreateGroup(ctx, []group.WindowID{1}, "")
	require.NoError(t, err)

	_, err = c.Capture(ctx, g.ID, -1)
	assert.ErrorIs(t, err, ErrCaptureTimeout)

	_, err = c.Capture(ctx, "missing", -1)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestAddWindowJoinsGroupWorkspace(t *testing.T) {
	ctx := context.Background()
	other := win(7, right)
	other.Workspace = 2
	fb := newFakeBackend(win(1, left), other)
	c := startController(t, fb, &fakePainter{}, testSettings())

	g, err := c.CreateGroup(ctx, []group.WindowID{1}, "")
	require.NoError(t, err)

	v, err := c.AddWindow(ctx, g.ID, 7, 0)
	require.NoError(t, err)
	assert.Equal(t, []group.WindowID{7, 1}, ids(v))
	assert.Equal(t, 0, v.ActiveIndex)

	fb.mu.Lock()
	assert.Equal(t, uint64(1), fb.moved[7])
	fb.mu.Unlock()
	assert.Equal(t, left, fb.frame(7))

	_, err = c.AddWindow(ctx, g.ID, 7, -1)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestRenameSeparatorAndStatus(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left))
	c := startController(t, fb, &fakePainter{}, testSettings())

	g, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "")
	require.NoError(t, err)

	require.NoError(t, c.RenameGroup(ctx, g.ID, "editors"))
	require.NoError(t, c.RenameTab(ctx, g.ID, 2, "logs"))
	require.NoError(t, c.AddSeparator(ctx, g.ID, 1))
	assert.ErrorIs(t, c.RenameTab(ctx, g.ID, 99, "x"), ErrWindowNotFound)

	v := onlyGroup(t, c)
	assert.Equal(t, "editors", v.Name)
	require.Len(t, v.Windows, 3)
	assert.True(t, v.Windows[1].Separator)
	assert.Equal(t, "logs", v.Windows[2].Label())

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Groups)
	assert.Equal(t, 2, st.Windows)
}

func TestClickTab(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(win(1, left), win(2, left))
	c := startController(t, fb, &fakePainter{}, testSettings())

	g, err := c.CreateGroup(ctx, []group.WindowID{1, 2}, "")
	require.NoError(t, err)

	c.ClickTab(g.ID, 1, 1)
	assert.Equal(t, 1, onlyGroup(t, c).ActiveIndex)

	c.ClickTab(g.ID, 0, 2)
	_, err = c.Groups(ctx)
	require.NoError(t, err)
	fb.mu.Lock()
	assert.Equal(t, []platform.WindowID{1}, fb.closed)
	fb.mu.Unlock()
}

func TestDoAfterStop(t *testing.T) {
	fb := newFakeBackend()
	c := New(Options{Backend: fb})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.NoError(t, c.Do(context.Background(), func() {}))
	cancel()
	require.NoError(t, <-done)

	assert.ErrorIs(t, c.Do(context.Background(), func() {}), ErrStopped)
}
