package overlay

import (
	"testing"

	"github.com/1broseidon/tabtile/internal/droptarget"
	"github.com/1broseidon/tabtile/internal/geometry"
	"github.com/1broseidon/tabtile/internal/group"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleView() group.View {
	return group.View{
		ID: "g1",
		Windows: []group.Window{
			{ID: 1, Title: "alpha", Pin: group.PinPinned},
			{ID: 2, Title: "bravo"},
			{ID: 3, Title: "charlie"},
		},
		ActiveIndex:        1,
		Frame:              geometry.Rect{X: 100, Y: 200, Width: 400, Height: 300},
		DropIndicatorIndex: -1,
	}
}

func TestComposeLaysOutTabs(t *testing.T) {
	p := DefaultPalette()
	scene := Compose(sampleView(), droptarget.DefaultLayout(), p)

	assert.Equal(t, geometry.Rect{X: 100, Y: 172, Width: 400, Height: 28}, scene.Bar)
	require.Len(t, scene.Tabs, 3)

	assert.Equal(t, geometry.Rect{X: 0, Y: 0, Width: 39, Height: 28}, scene.Tabs[0].Rect)
	assert.Equal(t, geometry.Rect{X: 40, Y: 0, Width: 179, Height: 28}, scene.Tabs[1].Rect)
	assert.Equal(t, geometry.Rect{X: 220, Y: 0, Width: 179, Height: 28}, scene.Tabs[2].Rect)

	assert.Equal(t, p.Pinned, scene.Tabs[0].Color)
	assert.Equal(t, p.Active, scene.Tabs[1].Color)
	assert.Equal(t, p.Inactive, scene.Tabs[2].Color)

	assert.Equal(t, "a", scene.Tabs[0].Label)
	assert.Equal(t, "bravo", scene.Tabs[1].Label)
	assert.Nil(t, scene.Indicator)
	assert.Empty(t, scene.Dots)
}

func TestComposeDropIndicatorAtEnd(t *testing.T) {
	v := sampleView()
	v.DropIndicatorIndex = 3
	scene := Compose(v, droptarget.DefaultLayout(), DefaultPalette())

	require.NotNil(t, scene.Indicator)
	assert.Equal(t, 399, scene.Indicator.X)
	assert.Equal(t, indicatorWidth, scene.Indicator.Width)
}

func TestComposeCounterDots(t *testing.T) {
	p := DefaultPalette()
	v := sampleView()
	v.MaximizedGroupCounterIDs = []group.ID{"g0", "g1"}
	scene := Compose(v, droptarget.DefaultLayout(), p)

	require.Len(t, scene.Dots, 2)
	assert.Equal(t, 376, scene.Dots[0].Rect.X)
	assert.Equal(t, 386, scene.Dots[1].Rect.X)
	assert.Equal(t, p.Inactive, scene.Dots[0].Color)
	assert.Equal(t, p.Counter, scene.Dots[1].Color)
}

func TestComposeSuperAndSeparatorColors(t *testing.T) {
	p := DefaultPalette()
	v := sampleView()
	v.Windows[0].Pin = group.PinSuper
	v.Windows = append(v.Windows, group.Window{ID: 9, Separator: true})
	scene := Compose(v, droptarget.DefaultLayout(), p)

	require.Len(t, scene.Tabs, 4)
	assert.Equal(t, p.Super, scene.Tabs[0].Color)
	assert.Equal(t, p.Separator, scene.Tabs[3].Color)
	assert.Empty(t, scene.Tabs[3].Label)
}

func TestFitLabel(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 70, "hello"},
		{"hello world", 35, "hel.."},
		{"héllo", 70, "h?llo"},
		{"hello", 14, "he"},
		{"hello", 3, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fitLabel(tt.in, tt.width), "fitLabel(%q, %d)", tt.in, tt.width)
	}
}

func TestVisible(t *testing.T) {
	v := sampleView()
	v.WorkspaceID = 2
	assert.True(t, visible(v, 2))
	assert.True(t, visible(v, 0))
	assert.False(t, visible(v, 1))

	v.Windows[1].Fullscreen = true
	assert.False(t, visible(v, 2))

	assert.False(t, visible(group.View{}, 0))
}
