package main

import (
	"log/slog"
	"time"

	"github.com/1broseidon/tabtile/internal/config"
	"github.com/1broseidon/tabtile/internal/daemon"
	"github.com/1broseidon/tabtile/internal/droptarget"
	"github.com/1broseidon/tabtile/internal/hotkeys"
	"github.com/1broseidon/tabtile/internal/overlay"
)

func layoutFromConfig(cfg *config.Config) droptarget.Layout {
	return droptarget.Layout{
		BarHeight:       cfg.Bar.Height,
		MaxTabWidth:     cfg.Bar.MaxTabWidth,
		PinnedTabWidth:  cfg.Bar.PinnedTabWidth,
		SeparatorWeight: cfg.Bar.SeparatorWeight,
		PadAbove:        cfg.Bar.DropPaddingAbove,
		PadBelow:        cfg.Bar.DropPaddingBelow,
	}
}

// paletteFromConfig expects a validated config; colours that fail to parse
// keep their built-in value.
func paletteFromConfig(cfg *config.Config) overlay.Palette {
	p := overlay.DefaultPalette()
	c := cfg.Bar.Colors
	for _, e := range []struct {
		value string
		dst   *uint32
	}{
		{c.Background, &p.Background},
		{c.Active, &p.Active},
		{c.Inactive, &p.Inactive},
		{c.Pinned, &p.Pinned},
		{c.Superpin, &p.Super},
		{c.Separator, &p.Separator},
		{c.Text, &p.Text},
		{c.DropIndicator, &p.DropIndicator},
		{c.Counter, &p.Counter},
	} {
		if v, err := config.ParseColor(e.value); err == nil {
			*e.dst = v
		}
	}
	return p
}

func settingsFromConfig(cfg *config.Config) daemon.Settings {
	return daemon.Settings{
		Layout:            layoutFromConfig(cfg),
		MaximizeTolerance: cfg.MaximizeTolerance,
		ResyncDelay:       time.Duration(cfg.ResyncDelayMS) * time.Millisecond,
		CycleCommitDelay:  time.Duration(cfg.CycleCommitDelayMS) * time.Millisecond,
		CaptureTimeout:    time.Duration(cfg.CaptureTimeoutMS) * time.Millisecond,
		IgnoreClasses:     append([]string(nil), cfg.IgnoreClasses...),
	}
}

func bindingsFromConfig(cfg *config.Config) hotkeys.Bindings {
	return hotkeys.Bindings{
		Cycle:       cfg.Hotkeys.Cycle,
		Release:     cfg.Hotkeys.Release,
		Pin:         cfg.Hotkeys.Pin,
		Superpin:    cfg.Hotkeys.Superpin,
		GroupActive: cfg.Hotkeys.GroupActive,
	}
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
