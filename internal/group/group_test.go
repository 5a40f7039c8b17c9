package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func win(id WindowID) Window {
	return Window{ID: id, Title: "w"}
}

func wins(ids ...WindowID) []Window {
	out := make([]Window, len(ids))
	for i, id := range ids {
		out[i] = win(id)
	}
	return out
}

func TestAddWindow_ShiftsActiveWhenInsertedBefore(t *testing.T) {
	g := New(wins(1, 2, 3), rect())
	require.True(t, g.SwitchTo(1))

	g.AddWindow(win(4), 0)
	assert.Equal(t, []WindowID{4, 1, 2, 3}, g.WindowIDs())
	assert.Equal(t, 2, g.ActiveIndex())

	g.AddWindow(win(5), 3)
	assert.Equal(t, []WindowID{4, 1, 2, 5, 3}, g.WindowIDs())
	assert.Equal(t, 2, g.ActiveIndex())
}

func TestAddWindow_IgnoresDuplicatesAndClampsIndex(t *testing.T) {
	g := New(wins(1, 2), rect())

	g.AddWindow(win(1), 0)
	assert.Equal(t, []WindowID{1, 2}, g.WindowIDs())

	g.AddWindow(win(3), 99)
	assert.Equal(t, []WindowID{1, 2, 3}, g.WindowIDs())
	assert.Equal(t, []WindowID{1, 2, 3}, g.FocusHistory())
}

func TestRemoveWindow_KeepsActiveWindow(t *testing.T) {
	g := New(wins(1, 2, 3, 4), rect())
	require.True(t, g.SwitchToWindow(3))

	_, ok := g.RemoveWindow(1)
	require.True(t, ok)
	active, ok := g.ActiveWindow()
	require.True(t, ok)
	assert.Equal(t, WindowID(3), active.ID)
	assert.Equal(t, 1, g.ActiveIndex())
}

func TestRemoveWindow_ClampsWhenActiveRemoved(t *testing.T) {
	g := New(wins(1, 2, 3), rect())
	require.True(t, g.SwitchTo(2))

	_, ok := g.RemoveWindowAt(2)
	require.True(t, ok)
	assert.Equal(t, 1, g.ActiveIndex())

	g.RemoveWindows([]WindowID{1, 2})
	assert.True(t, g.Empty())
	assert.Equal(t, 0, g.ActiveIndex())
	_, ok = g.ActiveWindow()
	assert.False(t, ok)
	assert.Empty(t, g.FocusHistory())
}

func TestRemoveWindow_UnknownIsNoop(t *testing.T) {
	g := New(wins(1, 2), rect())

	_, ok := g.RemoveWindow(9)
	assert.False(t, ok)
	_, ok = g.RemoveWindowAt(-1)
	assert.False(t, ok)
	assert.Nil(t, g.RemoveWindows([]WindowID{7, 8}))
	assert.False(t, g.SwitchTo(5))
	assert.False(t, g.MoveTab(0, 5))
	assert.Equal(t, []WindowID{1, 2}, g.WindowIDs())
}

func TestRecordFocus_Idempotent(t *testing.T) {
	g := New(wins(1, 2, 3), rect())

	g.RecordFocus(3)
	once := g.FocusHistory()
	g.RecordFocus(3)

	assert.Equal(t, []WindowID{3, 1, 2}, once)
	assert.Equal(t, once, g.FocusHistory())

	g.RecordFocus(42)
	assert.Equal(t, once, g.FocusHistory())
}

func TestMoveTab_TracksActive(t *testing.T) {
	tests := []struct {
		name       string
		active     int
		from, to   int
		wantIDs    []WindowID
		wantActive int
	}{
		{name: "moving active", active: 0, from: 0, to: 2, wantIDs: []WindowID{2, 3, 1, 4}, wantActive: 2},
		{name: "active shifts left", active: 2, from: 0, to: 3, wantIDs: []WindowID{2, 3, 4, 1}, wantActive: 1},
		{name: "active shifts right", active: 1, from: 3, to: 0, wantIDs: []WindowID{4, 1, 2, 3}, wantActive: 2},
		{name: "active outside range", active: 3, from: 0, to: 1, wantIDs: []WindowID{2, 1, 3, 4}, wantActive: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(wins(1, 2, 3, 4), rect())
			require.True(t, g.SwitchTo(tt.active))

			require.True(t, g.MoveTab(tt.from, tt.to))
			assert.Equal(t, tt.wantIDs, g.WindowIDs())
			assert.Equal(t, tt.wantActive, g.ActiveIndex())
		})
	}
}

func TestMoveTabs_MovesBlockInOrder(t *testing.T) {
	g := New(wins(1, 2, 3, 4, 5), rect())
	require.True(t, g.SwitchToWindow(3))

	require.True(t, g.MoveTabs([]WindowID{4, 1}, 3))
	assert.Equal(t, []WindowID{2, 3, 1, 4, 5}, g.WindowIDs())
	assert.Equal(t, 1, g.ActiveIndex())

	require.True(t, g.MoveTabs([]WindowID{5}, 0))
	assert.Equal(t, []WindowID{5, 2, 3, 1, 4}, g.WindowIDs())
	assert.Equal(t, 2, g.ActiveIndex())

	assert.False(t, g.MoveTabs([]WindowID{99}, 0))
}

func TestSetPin_OrdersSections(t *testing.T) {
	g := New(wins(1, 2, 3, 4), rect())
	require.True(t, g.SwitchToWindow(2))

	require.True(t, g.SetPin(3, PinPinned))
	require.True(t, g.SetPin(4, PinSuper))
	assert.Equal(t, []WindowID{4, 3, 1, 2}, g.WindowIDs())
	assert.Equal(t, 2, g.PinnedCount())

	active, _ := g.ActiveWindow()
	assert.Equal(t, WindowID(2), active.ID)

	require.True(t, g.SetPin(4, PinNone))
	assert.Equal(t, []WindowID{3, 4, 1, 2}, g.WindowIDs())
	assert.False(t, g.SetPin(99, PinPinned))
}

func TestUpdateWindow_KeepsPinAndName(t *testing.T) {
	g := New(wins(1), rect())
	require.True(t, g.SetPin(1, PinPinned))
	require.True(t, g.SetCustomName(1, "logs"))

	changed := g.UpdateWindow(Window{ID: 1, Title: "new title", Fullscreen: true})
	require.True(t, changed)

	w, ok := g.Window(1)
	require.True(t, ok)
	assert.Equal(t, "new title", w.Title)
	assert.Equal(t, PinPinned, w.Pin)
	assert.Equal(t, "logs", w.Label())
	assert.True(t, w.Fullscreen)
}

func TestView_Snapshot(t *testing.T) {
	g := New(wins(1, 2), rect())
	g.Name = "work"
	v := g.View()

	g.AddWindow(win(3), -1)
	assert.Len(t, v.Windows, 2)
	assert.Equal(t, "work", v.Name)
	assert.Equal(t, -1, v.DropIndicatorIndex)
	assert.Equal(t, 0, v.CounterPosition())
}
