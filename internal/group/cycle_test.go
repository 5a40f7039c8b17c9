package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cycleN(g *Group, n int) []int {
	var out []int
	for i := 0; i < n; i++ {
		idx, ok := g.NextInMRUCycle()
		if !ok {
			break
		}
		out = append(out, idx)
	}
	return out
}

func TestNextInMRUCycle_FollowsFrozenOrder(t *testing.T) {
	g := New(wins(1, 2, 3), rect())
	g.RecordFocus(3)
	g.RecordFocus(2)
	// MRU: 2, 3, 1

	idx, ok := g.NextInMRUCycle()
	require.True(t, ok)
	assert.Equal(t, 2, idx) // window 3

	// Focus side effects during the cycle must not change the order.
	g.RecordFocus(3)

	idx, ok = g.NextInMRUCycle()
	require.True(t, ok)
	assert.Equal(t, 0, idx) // window 1

	idx, ok = g.NextInMRUCycle()
	require.True(t, ok)
	assert.Equal(t, 1, idx) // back to window 2
}

func TestNextInMRUCycle_Deterministic(t *testing.T) {
	build := func() *Group {
		g := New(wins(10, 20, 30, 40), rect())
		g.RecordFocus(30)
		g.RecordFocus(10)
		return g
	}

	first := cycleN(build(), 7)
	second := cycleN(build(), 7)
	require.Len(t, first, 7)
	assert.Equal(t, first, second)
}

func TestNextInMRUCycle_SkipsRemovedWindows(t *testing.T) {
	g := New(wins(1, 2, 3, 4), rect())
	// MRU: 1, 2, 3, 4

	idx, ok := g.NextInMRUCycle()
	require.True(t, ok)
	assert.Equal(t, 1, idx) // window 2

	_, removed := g.RemoveWindow(3)
	require.True(t, removed)

	idx, ok = g.NextInMRUCycle()
	require.True(t, ok)
	w, _ := g.WindowAt(idx)
	assert.Equal(t, WindowID(4), w.ID)
}

func TestNextInMRUCycle_RemovingCurrentLandsOnNext(t *testing.T) {
	g := New(wins(1, 2, 3), rect())

	idx, _ := g.NextInMRUCycle()
	w, _ := g.WindowAt(idx)
	require.Equal(t, WindowID(2), w.ID)

	g.RemoveWindow(2)
	idx, ok := g.NextInMRUCycle()
	require.True(t, ok)
	w, _ = g.WindowAt(idx)
	assert.Equal(t, WindowID(3), w.ID)
}

func TestNextInMRUCycle_NeedsTwoEligibleWindows(t *testing.T) {
	g := New([]Window{{ID: 1}, {ID: 2, Fullscreen: true}}, rect())
	_, ok := g.NextInMRUCycle()
	assert.False(t, ok)
	assert.False(t, g.IsCycling())

	g.AddWindow(Window{ID: 3, Separator: true}, -1)
	_, ok = g.NextInMRUCycle()
	assert.False(t, ok)
}

func TestEndCycle_CommitsLandedWindow(t *testing.T) {
	g := New(wins(1, 2, 3), rect())

	cycleN(g, 2) // lands on window 3
	g.RecordFocus(2)
	g.EndCycle()

	assert.False(t, g.IsCycling())
	assert.Equal(t, WindowID(3), g.FocusHistory()[0])

	// A fresh cycle starts from the committed order.
	idx, ok := g.NextInMRUCycle()
	require.True(t, ok)
	w, _ := g.WindowAt(idx)
	assert.Equal(t, WindowID(2), w.ID)
}

func TestEndCycle_WithoutSession(t *testing.T) {
	g := New(wins(1, 2), rect())
	g.EndCycle()
	assert.Equal(t, []WindowID{1, 2}, g.FocusHistory())
}
