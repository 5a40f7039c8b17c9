package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies raw over DefaultConfig. Validation is left to
// the caller.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*raw.LogLevel))
	}
	if raw.Bar != nil {
		applyBar(&cfg.Bar, *raw.Bar)
	}
	cfg.MaximizeTolerance = derefInt(raw.MaximizeTolerance, cfg.MaximizeTolerance)
	cfg.ResyncDelayMS = derefInt(raw.ResyncDelayMS, cfg.ResyncDelayMS)
	cfg.ReconcileIntervalMS = derefInt(raw.ReconcileIntervalMS, cfg.ReconcileIntervalMS)
	cfg.CycleCommitDelayMS = derefInt(raw.CycleCommitDelayMS, cfg.CycleCommitDelayMS)
	cfg.CaptureTimeoutMS = derefInt(raw.CaptureTimeoutMS, cfg.CaptureTimeoutMS)

	if raw.IgnoreClasses != nil {
		classes := make([]string, 0, len(raw.IgnoreClasses))
		for i, class := range raw.IgnoreClasses {
			class = strings.TrimSpace(class)
			if class == "" {
				return nil, &ValidationError{Path: "ignore_classes", Err: fmt.Errorf("entry %d is empty", i)}
			}
			classes = append(classes, class)
		}
		cfg.IgnoreClasses = classes
	}

	if raw.Hotkeys != nil {
		h := raw.Hotkeys
		cfg.Hotkeys.Cycle = derefString(h.Cycle, cfg.Hotkeys.Cycle)
		cfg.Hotkeys.Release = derefString(h.Release, cfg.Hotkeys.Release)
		cfg.Hotkeys.Pin = derefString(h.Pin, cfg.Hotkeys.Pin)
		cfg.Hotkeys.Superpin = derefString(h.Superpin, cfg.Hotkeys.Superpin)
		cfg.Hotkeys.GroupActive = derefString(h.GroupActive, cfg.Hotkeys.GroupActive)
	}

	return cfg, nil
}

func applyBar(bar *BarConfig, raw RawBar) {
	bar.Height = derefInt(raw.Height, bar.Height)
	bar.MaxTabWidth = derefInt(raw.MaxTabWidth, bar.MaxTabWidth)
	bar.PinnedTabWidth = derefInt(raw.PinnedTabWidth, bar.PinnedTabWidth)
	if raw.SeparatorWeight != nil {
		bar.SeparatorWeight = *raw.SeparatorWeight
	}
	bar.DropPaddingAbove = derefInt(raw.DropPaddingAbove, bar.DropPaddingAbove)
	bar.DropPaddingBelow = derefInt(raw.DropPaddingBelow, bar.DropPaddingBelow)

	if raw.Colors == nil {
		return
	}
	c := raw.Colors
	colors := &bar.Colors
	colors.Background = derefString(c.Background, colors.Background)
	colors.Active = derefString(c.Active, colors.Active)
	colors.Inactive = derefString(c.Inactive, colors.Inactive)
	colors.Pinned = derefString(c.Pinned, colors.Pinned)
	colors.Superpin = derefString(c.Superpin, colors.Superpin)
	colors.Separator = derefString(c.Separator, colors.Separator)
	colors.Text = derefString(c.Text, colors.Text)
	colors.DropIndicator = derefString(c.DropIndicator, colors.DropIndicator)
	colors.Counter = derefString(c.Counter, colors.Counter)
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func derefString(p *string, def string) string {
	if p == nil {
		return def
	}
	return strings.TrimSpace(*p)
}
