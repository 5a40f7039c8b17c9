package ownership

import (
	"testing"

	"github.com/1broseidon/tabtile/internal/cluster"
	"github.com/1broseidon/tabtile/internal/geometry"
	"github.com/1broseidon/tabtile/internal/group"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fullFrame = geometry.Rect{X: 0, Y: 28, Width: 1920, Height: 1052}

type fixture struct {
	m *group.Manager
	s *Synchronizer
}

func newFixture() *fixture {
	m := group.NewManager(nil)
	return &fixture{m: m, s: New(m, Options{})}
}

func (f *fixture) create(t *testing.T, ids ...group.WindowID) *group.Group {
	t.Helper()
	ws := make([]group.Window, len(ids))
	for i, id := range ids {
		ws[i] = group.Window{ID: id, Title: "w"}
	}
	g := f.m.CreateGroup(ws, fullFrame, 1, "", false)
	require.NotNil(t, g)
	return g
}

// sweep marks the listed groups maximized on workspace 1 and every other
// group as not maximized.
func (f *fixture) sweep(maximized ...*group.Group) bool {
	on := make(map[group.ID]bool)
	for _, g := range maximized {
		on[g.ID] = true
	}
	var candidates []cluster.Candidate
	for _, g := range f.m.Groups() {
		candidates = append(candidates, cluster.Candidate{GroupID: g.ID, WorkspaceID: 1, Maximized: on[g.ID]})
	}
	return f.s.RefreshClusters(candidates, nil)
}

func pinOf(t *testing.T, g *group.Group, id group.WindowID) group.PinState {
	t.Helper()
	w, ok := g.Window(id)
	require.True(t, ok, "window %d missing from group", id)
	return w.Pin
}

func TestSetSuperPinned_MirrorsIntoPeers(t *testing.T) {
	f := newFixture()
	a := f.create(t, 1, 2)
	b := f.create(t, 3)
	c := f.create(t, 4)
	require.True(t, f.sweep(a, b, c))
	require.Len(t, a.MaximizedGroupCounterIDs, 3)

	f.s.SetSuperPinned(true, []group.WindowID{1}, a)

	assert.Equal(t, group.PinSuper, pinOf(t, a, 1))
	assert.Equal(t, []group.WindowID{1, 3}, b.WindowIDs())
	assert.Equal(t, []group.WindowID{1, 4}, c.WindowIDs())
	assert.Equal(t, group.PinSuper, pinOf(t, b, 1))
	assert.True(t, f.s.IsMirror(b, 1))
	assert.True(t, f.s.IsMirror(c, 1))
	assert.False(t, f.s.IsMirror(a, 1))
	assert.Equal(t, 3, f.m.MembershipCount(1))
}

func TestSetSuperPinned_WithoutClusterWaitsForPeers(t *testing.T) {
	f := newFixture()
	a := f.create(t, 1, 2)
	b := f.create(t, 3)

	f.s.SetSuperPinned(true, []group.WindowID{1}, a)

	assert.Equal(t, group.PinSuper, pinOf(t, a, 1))
	assert.Empty(t, a.MaximizedGroupCounterIDs)
	assert.Equal(t, 1, f.m.MembershipCount(1))

	require.True(t, f.sweep(a, b))

	assert.Equal(t, []group.WindowID{1, 3}, b.WindowIDs())
	assert.True(t, f.s.IsMirror(b, 1))
	assert.Equal(t, group.PinSuper, pinOf(t, b, 1))
}

func TestSetSuperPinned_PromotesExistingCopy(t *testing.T) {
	f := newFixture()
	a := f.create(t, 1, 2)
	b := f.create(t, 3)
	require.True(t, f.m.AddWindow(group.Window{ID: 1}, b, -1, true))
	require.True(t, f.sweep(a, b))

	f.s.SetSuperPinned(true, []group.WindowID{1}, a)

	assert.Equal(t, group.PinSuper, pinOf(t, b, 1))
	assert.False(t, f.s.IsMirror(b, 1))
	assert.Equal(t, 2, f.m.MembershipCount(1))
}

func TestLeavingCluster_CollapsesMirrors(t *testing.T) {
	f := newFixture()
	g := f.create(t, 1, 2)
	p1 := f.create(t, 3)
	p2 := f.create(t, 4)
	require.True(t, f.sweep(g, p1, p2))
	f.s.SetSuperPinned(true, []group.WindowID{1}, g)
	require.Equal(t, 3, f.m.MembershipCount(1))

	require.True(t, f.sweep(p1, p2))

	assert.Equal(t, []group.WindowID{3}, p1.WindowIDs())
	assert.Equal(t, []group.WindowID{4}, p2.WindowIDs())
	assert.Equal(t, group.PinPinned, pinOf(t, g, 1))
	assert.Equal(t, 1, f.m.MembershipCount(1))
	assert.Empty(t, g.MaximizedGroupCounterIDs)
}

func TestLeavingCluster_UnpinsWhenNoPeersRemain(t *testing.T) {
	f := newFixture()
	g := f.create(t, 1, 2)
	p := f.create(t, 3)
	require.True(t, f.sweep(g, p))
	f.s.SetSuperPinned(true, []group.WindowID{1}, g)
	require.Equal(t, []group.WindowID{1, 3}, p.WindowIDs())

	require.True(t, f.sweep(g))

	assert.Equal(t, group.PinNone, pinOf(t, g, 1))
	assert.Equal(t, []group.WindowID{3}, p.WindowIDs())
	assert.Empty(t, f.s.Mirrors(p))
}

func TestSetSuperPinnedOff_ReleasesMirrors(t *testing.T) {
	f := newFixture()
	a := f.create(t, 1, 2)
	b := f.create(t, 3)
	c := f.create(t, 4)
	require.True(t, f.sweep(a, b, c))
	f.s.SetSuperPinned(true, []group.WindowID{1}, a)

	f.s.SetSuperPinned(false, []group.WindowID{1}, a)

	assert.Equal(t, group.PinPinned, pinOf(t, a, 1))
	assert.Equal(t, []group.WindowID{3}, b.WindowIDs())
	assert.Equal(t, []group.WindowID{4}, c.WindowIDs())
	assert.Equal(t, 1, f.m.MembershipCount(1))
}

func TestUserPinOnMirror_MakesItUserOwned(t *testing.T) {
	f := newFixture()
	a := f.create(t, 1, 2)
	b := f.create(t, 3)
	require.True(t, f.sweep(a, b))
	f.s.SetSuperPinned(true, []group.WindowID{1}, a)
	require.True(t, f.s.IsMirror(b, 1))

	f.s.SetPinned(true, []group.WindowID{1}, b)
	assert.False(t, f.s.IsMirror(b, 1))

	f.s.SetSuperPinned(false, []group.WindowID{1}, a)
	assert.Equal(t, group.PinPinned, pinOf(t, b, 1))
	assert.Equal(t, 2, f.m.MembershipCount(1))
}

func TestSynchronize_MirrorsIntoNewPeer(t *testing.T) {
	f := newFixture()
	a := f.create(t, 1, 2)
	b := f.create(t, 3)
	require.True(t, f.sweep(a, b))
	f.s.SetSuperPinned(true, []group.WindowID{1, 2}, a)
	require.Equal(t, []group.WindowID{1, 2, 3}, b.WindowIDs())

	c := f.create(t, 5)
	require.True(t, f.sweep(a, b, c))

	assert.Equal(t, []group.WindowID{1, 2, 5}, c.WindowIDs())
	assert.True(t, f.s.IsMirror(c, 1))
	assert.True(t, f.s.IsMirror(c, 2))
	assert.Equal(t, 3, f.m.MembershipCount(2))
}

func TestFunctionallyEmptyGroupDissolves(t *testing.T) {
	f := newFixture()
	a := f.create(t, 1, 2)
	b := f.create(t, 3)
	require.True(t, f.sweep(a, b))
	f.s.SetSuperPinned(true, []group.WindowID{1}, a)

	var dissolved []*group.Group
	f.m.OnDissolve(func(g *group.Group) { dissolved = append(dissolved, g) })

	_, ok := f.s.Release(3, b)
	require.True(t, ok)

	assert.False(t, f.m.IsManaged(b))
	assert.Equal(t, []*group.Group{b}, dissolved)
	assert.Empty(t, f.s.Mirrors(b))
	assert.Equal(t, 1, f.m.MembershipCount(1))
	assert.True(t, f.m.IsManaged(a))
}

func TestReleaseSuperpinnedWindow_RemovesMirrors(t *testing.T) {
	f := newFixture()
	a := f.create(t, 1, 2)
	b := f.create(t, 3)
	require.True(t, f.sweep(a, b))
	f.s.SetSuperPinned(true, []group.WindowID{1}, a)

	w, ok := f.s.Release(1, a)
	require.True(t, ok)
	assert.Equal(t, group.WindowID(1), w.ID)
	assert.False(t, f.m.IsWindowGrouped(1))
	assert.Equal(t, []group.WindowID{3}, b.WindowIDs())
}

func TestUnpinCollapsesOrdinarySharing(t *testing.T) {
	f := newFixture()
	a := f.create(t, 1, 2)
	b := f.create(t, 3)
	require.True(t, f.m.AddWindow(group.Window{ID: 1}, b, -1, true))
	f.s.SetPinned(true, []group.WindowID{1}, a)
	require.Equal(t, group.PinPinned, pinOf(t, a, 1))

	f.s.SetPinned(false, []group.WindowID{1}, a)

	assert.Equal(t, group.PinNone, pinOf(t, a, 1))
	assert.Equal(t, []group.WindowID{3}, b.WindowIDs())
	assert.Equal(t, 1, f.m.MembershipCount(1))
}

func TestForgetWindow(t *testing.T) {
	f := newFixture()
	a := f.create(t, 1, 2)
	b := f.create(t, 3)
	require.True(t, f.sweep(a, b))
	f.s.SetSuperPinned(true, []group.WindowID{1}, a)

	held := f.s.ForgetWindow(1)
	assert.Len(t, held, 2)
	assert.False(t, f.m.IsWindowGrouped(1))
	assert.Empty(t, f.s.Mirrors(b))
	assert.Nil(t, f.s.ForgetWindow(1))
}

func TestOwnerGroup(t *testing.T) {
	f := newFixture()
	a := f.create(t, 1)
	b := f.create(t, 2)
	assert.Same(t, a, f.s.OwnerGroup(1))
	assert.Nil(t, f.s.OwnerGroup(99))

	require.True(t, f.m.AddWindow(group.Window{ID: 1}, b, -1, true))
	assert.Same(t, a, f.s.OwnerGroup(1))

	f.s.SetLastActiveGroup(b)
	assert.Same(t, b, f.s.OwnerGroup(1))

	f.s.SetLastActiveGroup(nil)
	require.True(t, f.m.PromotePrimaryGroup(1, b.ID))
	assert.Same(t, b, f.s.OwnerGroup(1))
}

func TestOwnerGroupForWindowMove_PicksNearestFrame(t *testing.T) {
	f := newFixture()
	left := f.m.CreateGroup([]group.Window{{ID: 1}}, geometry.Rect{X: 0, Y: 28, Width: 960, Height: 1052}, 1, "", false)
	right := f.m.CreateGroup([]group.Window{{ID: 2}}, geometry.Rect{X: 960, Y: 28, Width: 960, Height: 1052}, 1, "", false)
	require.True(t, f.m.AddWindow(group.Window{ID: 1}, right, -1, true))
	f.s.SetLastActiveGroup(left)

	live := geometry.Rect{X: 940, Y: 40, Width: 960, Height: 1040}
	assert.Same(t, right, f.s.OwnerGroupForWindowMove(1, live))
	assert.Same(t, left, f.s.OwnerGroup(1))
}

func TestLastActiveClearedOnDissolve(t *testing.T) {
	f := newFixture()
	a := f.create(t, 1)
	f.s.SetLastActiveGroup(a)
	f.m.DissolveGroup(a)
	assert.Nil(t, f.s.LastActiveGroup())
}

func TestRefreshClusters_DoesNotRecurse(t *testing.T) {
	f := newFixture()
	a := f.create(t, 1)
	b := f.create(t, 2)

	var nested []bool
	f.m.Subscribe(func() {
		nested = append(nested, f.sweep(a, b))
	})

	require.True(t, f.sweep(a, b))
	assert.Equal(t, []bool{false}, nested)
	assert.True(t, a.Maximized)
}
