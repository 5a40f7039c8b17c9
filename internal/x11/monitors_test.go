package x11

import (
	"testing"

	"github.com/1broseidon/tabtile/internal/geometry"
	"github.com/BurntSushi/xgbutil/ewmh"
)

func TestApplyStruts_TopPanelOnFirstMonitor(t *testing.T) {
	root := geometry.Rect{Width: 3840, Height: 1080}
	left := geometry.Rect{Width: 1920, Height: 1080}
	right := geometry.Rect{X: 1920, Width: 1920, Height: 1080}

	struts := strutRects(root, &ewmh.WmStrutPartial{Top: 30, TopStartX: 0, TopEndX: 1919})

	got, ok := applyStruts(left, struts)
	if !ok {
		t.Fatalf("expected strut to apply to left monitor")
	}
	if got != (geometry.Rect{Y: 30, Width: 1920, Height: 1050}) {
		t.Fatalf("unexpected usable area %+v", got)
	}

	if _, ok := applyStruts(right, struts); ok {
		t.Fatalf("strut limited to left monitor must not shrink right monitor")
	}
}

func TestApplyStruts_FullEdgeStrutOnAllEdges(t *testing.T) {
	root := geometry.Rect{Width: 1920, Height: 1080}
	sp := fullEdgeStrut(root, &ewmh.WmStrut{Left: 40, Bottom: 24})

	got, ok := applyStruts(root, strutRects(root, sp))
	if !ok {
		t.Fatalf("expected struts to apply")
	}
	if got != (geometry.Rect{X: 40, Width: 1880, Height: 1056}) {
		t.Fatalf("unexpected usable area %+v", got)
	}
}

func TestApplyStruts_NarrowTopStrutKeepsEdge(t *testing.T) {
	root := geometry.Rect{Width: 1920, Height: 1080}
	// A 20px wide, 40px tall top strut is still a top strut.
	struts := strutRects(root, &ewmh.WmStrutPartial{Top: 40, TopStartX: 100, TopEndX: 119})

	got, ok := applyStruts(root, struts)
	if !ok || got.Y != 40 || got.X != 0 || got.Height != 1040 {
		t.Fatalf("unexpected usable area %+v (ok=%v)", got, ok)
	}
}

func TestMissingHints(t *testing.T) {
	got := missing(RequiredHints, []string{"_NET_ACTIVE_WINDOW", "_NET_CLIENT_LIST", "_NET_WM_DESKTOP"})
	if len(got) != 2 || got[0] != "_NET_CURRENT_DESKTOP" || got[1] != "_NET_CLOSE_WINDOW" {
		t.Fatalf("unexpected missing hints %v", got)
	}
}
