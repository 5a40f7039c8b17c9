package hotkeys

import (
	"slices"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

func TestIgnoreMasks_CapsOnly(t *testing.T) {
	got := ignoreMasks(0, 0)
	want := []uint16{0, uint16(xproto.ModMaskLock)}
	if !slices.Equal(got, want) {
		t.Fatalf("ignoreMasks() = %v, want %v", got, want)
	}
}

func TestIgnoreMasks_AllCombinations(t *testing.T) {
	caps := uint16(xproto.ModMaskLock)
	num := uint16(xproto.ModMask2)
	scroll := uint16(xproto.ModMask5)

	got := ignoreMasks(num, scroll)
	if len(got) != 8 {
		t.Fatalf("expected 8 masks, got %v", got)
	}
	for _, want := range []uint16{0, caps, num, scroll, caps | num, caps | scroll, num | scroll, caps | num | scroll} {
		if !slices.Contains(got, want) {
			t.Fatalf("missing mask %#x in %v", want, got)
		}
	}
}

func TestIgnoreMasks_SkipsDuplicates(t *testing.T) {
	caps := uint16(xproto.ModMaskLock)
	got := ignoreMasks(caps, uint16(xproto.ModMask2), uint16(xproto.ModMask2))
	if len(got) != 4 {
		t.Fatalf("expected duplicates to collapse to 4 masks, got %v", got)
	}
}
