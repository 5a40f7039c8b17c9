package group

import (
	"testing"

	"github.com/1broseidon/tabtile/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rect() geometry.Rect {
	return geometry.Rect{X: 0, Y: 28, Width: 1280, Height: 772}
}

func TestManager_EndToEnd(t *testing.T) {
	m := NewManager(nil)

	g := m.CreateGroup(wins(1, 2), rect(), 1, "", false)
	require.NotNil(t, g)
	require.Equal(t, 0, g.ActiveIndex())

	require.True(t, m.AddWindow(win(3), g, 1, false))
	assert.Equal(t, []WindowID{1, 3, 2}, g.WindowIDs())
	assert.Equal(t, 0, g.ActiveIndex())

	_, ok := m.ReleaseWindow(2, g)
	require.True(t, ok)
	assert.Equal(t, []WindowID{1, 3}, g.WindowIDs())

	m.ReleaseWindow(1, g)
	m.ReleaseWindow(3, g)
	assert.Empty(t, m.Groups())
	assert.False(t, m.IsManaged(g))
	assert.True(t, g.Empty())
}

func TestManager_CreateGroupRejectsInvalidInput(t *testing.T) {
	m := NewManager(nil)
	require.NotNil(t, m.CreateGroup(wins(1, 2), rect(), 0, "", false))

	assert.Nil(t, m.CreateGroup(nil, rect(), 0, "", false))
	assert.Nil(t, m.CreateGroup(wins(3, 3), rect(), 0, "", false))
	assert.Nil(t, m.CreateGroup(wins(2, 4), rect(), 0, "", false))
	assert.Len(t, m.Groups(), 1)

	shared := m.CreateGroup(wins(2, 4), rect(), 0, "", true)
	require.NotNil(t, shared)
	assert.Equal(t, 2, m.MembershipCount(2))
}

func TestManager_Exclusivity(t *testing.T) {
	m := NewManager(nil)
	a := m.CreateGroup(wins(1, 2), rect(), 0, "", false)
	b := m.CreateGroup(wins(3), rect(), 0, "", false)

	assert.False(t, m.AddWindow(win(1), b, -1, false))
	assert.False(t, m.AddWindow(win(3), a, -1, false))
	for _, id := range []WindowID{1, 2, 3} {
		assert.LessOrEqual(t, m.MembershipCount(id), 1)
	}

	require.True(t, m.AddWindow(win(1), b, 0, true))
	assert.Equal(t, 2, m.MembershipCount(1))
	assert.Equal(t, []*Group{a, b}, m.GroupsFor(1))
	assert.False(t, m.AddWindow(win(1), b, 0, true))
}

func TestManager_ReleaseWindowsDissolvesEmptiedGroup(t *testing.T) {
	m := NewManager(nil)
	g := m.CreateGroup(wins(1, 2), rect(), 0, "", false)

	var dissolved []*Group
	m.OnDissolve(func(d *Group) { dissolved = append(dissolved, d) })

	removed := m.ReleaseWindows([]WindowID{1, 2}, g)
	assert.Len(t, removed, 2)
	assert.Equal(t, []*Group{g}, dissolved)
	assert.Empty(t, m.Groups())

	_, ok := m.ReleaseWindow(1, g)
	assert.False(t, ok)
}

func TestManager_DissolveKeepsSlotList(t *testing.T) {
	m := NewManager(nil)
	g := m.CreateGroup(wins(1, 2), rect(), 0, "", false)
	h := m.CreateGroup(wins(3), rect(), 0, "", false)

	require.True(t, m.DissolveGroup(g))
	assert.Equal(t, []WindowID{1, 2}, g.WindowIDs())
	assert.False(t, m.IsWindowGrouped(1))
	assert.False(t, m.DissolveGroup(g))

	m.DissolveAllGroups()
	assert.Empty(t, m.Groups())
	assert.Equal(t, []WindowID{3}, h.WindowIDs())
}

func TestManager_PrimaryGroup(t *testing.T) {
	m := NewManager(nil)
	a := m.CreateGroup(wins(1), rect(), 0, "", false)
	b := m.CreateGroup(wins(2), rect(), 0, "", false)
	require.True(t, m.AddWindow(win(1), b, -1, true))

	assert.Same(t, a, m.GroupFor(1))
	require.True(t, m.PromotePrimaryGroup(1, b.ID))
	assert.Same(t, b, m.GroupFor(1))

	assert.False(t, m.PromotePrimaryGroup(2, a.ID))
	assert.False(t, m.PromotePrimaryGroup(1, ID("missing")))

	m.ReleaseWindow(1, b)
	assert.Same(t, a, m.GroupFor(1))
}

func TestManager_PublishesChanges(t *testing.T) {
	m := NewManager(nil)
	count := 0
	m.Subscribe(func() { count++ })

	g := m.CreateGroup(wins(1, 2), rect(), 0, "", false)
	assert.Equal(t, 1, count)

	m.Batch(func() {
		m.AddWindow(win(3), g, -1, false)
		m.ReleaseWindow(1, g)
		m.Mutate(g, func(g *Group) { g.SwitchTo(1) })
	})
	assert.Equal(t, 2, count)

	m.AddWindow(win(3), g, -1, false)
	assert.Equal(t, 2, count)
}

func TestManager_NewSeparator(t *testing.T) {
	m := NewManager(nil)
	a := m.NewSeparator()
	b := m.NewSeparator()

	assert.True(t, a.Separator)
	assert.NotEqual(t, a.ID, b.ID)

	g := m.CreateGroup([]Window{win(1), a, win(2)}, rect(), 0, "", false)
	require.NotNil(t, g)
	assert.Equal(t, []WindowID{1, 2}, g.FocusHistory())
	assert.Equal(t, "", a.Label())
}
