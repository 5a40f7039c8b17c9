package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawColors struct {
	Background    *string `yaml:"background"`
	Active        *string `yaml:"active"`
	Inactive      *string `yaml:"inactive"`
	Pinned        *string `yaml:"pinned"`
	Superpin      *string `yaml:"superpin"`
	Separator     *string `yaml:"separator"`
	Text          *string `yaml:"text"`
	DropIndicator *string `yaml:"drop_indicator"`
	Counter       *string `yaml:"counter"`
}

type RawBar struct {
	Height           *int       `yaml:"height"`
	MaxTabWidth      *int       `yaml:"max_tab_width"`
	PinnedTabWidth   *int       `yaml:"pinned_tab_width"`
	SeparatorWeight  *float64   `yaml:"separator_weight"`
	DropPaddingAbove *int       `yaml:"drop_padding_above"`
	DropPaddingBelow *int       `yaml:"drop_padding_below"`
	Colors           *RawColors `yaml:"colors"`
}

type RawHotkeys struct {
	Cycle       *string `yaml:"cycle"`
	Release     *string `yaml:"release"`
	Pin         *string `yaml:"pin"`
	Superpin    *string `yaml:"superpin"`
	GroupActive *string `yaml:"group_active"`
}

type RawConfig struct {
	Include             IncludeList `yaml:"include"`
	LogLevel            *string     `yaml:"log_level"`
	Bar                 *RawBar     `yaml:"bar"`
	MaximizeTolerance   *int        `yaml:"maximize_tolerance"`
	ResyncDelayMS       *int        `yaml:"resync_delay_ms"`
	ReconcileIntervalMS *int        `yaml:"reconcile_interval_ms"`
	CycleCommitDelayMS  *int        `yaml:"cycle_commit_delay_ms"`
	CaptureTimeoutMS    *int        `yaml:"capture_timeout_ms"`
	IgnoreClasses       []string    `yaml:"ignore_classes"`
	Hotkeys             *RawHotkeys `yaml:"hotkeys"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.Bar != nil {
		if out.Bar == nil {
			out.Bar = &RawBar{}
		}
		merged := mergeRawBar(*out.Bar, *overlay.Bar)
		out.Bar = &merged
	}
	if overlay.MaximizeTolerance != nil {
		out.MaximizeTolerance = overlay.MaximizeTolerance
	}
	if overlay.ResyncDelayMS != nil {
		out.ResyncDelayMS = overlay.ResyncDelayMS
	}
	if overlay.ReconcileIntervalMS != nil {
		out.ReconcileIntervalMS = overlay.ReconcileIntervalMS
	}
	if overlay.CycleCommitDelayMS != nil {
		out.CycleCommitDelayMS = overlay.CycleCommitDelayMS
	}
	if overlay.CaptureTimeoutMS != nil {
		out.CaptureTimeoutMS = overlay.CaptureTimeoutMS
	}
	// Lists replace rather than append.
	if overlay.IgnoreClasses != nil {
		out.IgnoreClasses = append([]string(nil), overlay.IgnoreClasses...)
	}
	if overlay.Hotkeys != nil {
		if out.Hotkeys == nil {
			out.Hotkeys = &RawHotkeys{}
		}
		merged := mergeRawHotkeys(*out.Hotkeys, *overlay.Hotkeys)
		out.Hotkeys = &merged
	}

	return out
}

func mergeRawBar(base RawBar, overlay RawBar) RawBar {
	out := base
	if overlay.Height != nil {
		out.Height = overlay.Height
	}
	if overlay.MaxTabWidth != nil {
		out.MaxTabWidth = overlay.MaxTabWidth
	}
	if overlay.PinnedTabWidth != nil {
		out.PinnedTabWidth = overlay.PinnedTabWidth
	}
	if overlay.SeparatorWeight != nil {
		out.SeparatorWeight = overlay.SeparatorWeight
	}
	if overlay.DropPaddingAbove != nil {
		out.DropPaddingAbove = overlay.DropPaddingAbove
	}
	if overlay.DropPaddingBelow != nil {
		out.DropPaddingBelow = overlay.DropPaddingBelow
	}
	if overlay.Colors != nil {
		if out.Colors == nil {
			out.Colors = &RawColors{}
		}
		merged := mergeRawColors(*out.Colors, *overlay.Colors)
		out.Colors = &merged
	}
	return out
}

func mergeRawColors(base RawColors, overlay RawColors) RawColors {
	out := base
	if overlay.Background != nil {
		out.Background = overlay.Background
	}
	if overlay.Active != nil {
		out.Active = overlay.Active
	}
	if overlay.Inactive != nil {
		out.Inactive = overlay.Inactive
	}
	if overlay.Pinned != nil {
		out.Pinned = overlay.Pinned
	}
	if overlay.Superpin != nil {
		out.Superpin = overlay.Superpin
	}
	if overlay.Separator != nil {
		out.Separator = overlay.Separator
	}
	if overlay.Text != nil {
		out.Text = overlay.Text
	}
	if overlay.DropIndicator != nil {
		out.DropIndicator = overlay.DropIndicator
	}
	if overlay.Counter != nil {
		out.Counter = overlay.Counter
	}
	return out
}

func mergeRawHotkeys(base RawHotkeys, overlay RawHotkeys) RawHotkeys {
	out := base
	if overlay.Cycle != nil {
		out.Cycle = overlay.Cycle
	}
	if overlay.Release != nil {
		out.Release = overlay.Release
	}
	if overlay.Pin != nil {
		out.Pin = overlay.Pin
	}
	if overlay.Superpin != nil {
		out.Superpin = overlay.Superpin
	}
	if overlay.GroupActive != nil {
		out.GroupActive = overlay.GroupActive
	}
	return out
}
