package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ColorsConfig holds the bar colours as "#RRGGBB" strings.
type ColorsConfig struct {
	Background    string `yaml:"background"`
	Active        string `yaml:"active"`
	Inactive      string `yaml:"inactive"`
	Pinned        string `yaml:"pinned"`
	Superpin      string `yaml:"superpin"`
	Separator     string `yaml:"separator"`
	Text          string `yaml:"text"`
	DropIndicator string `yaml:"drop_indicator"`
	Counter       string `yaml:"counter"`
}

// BarConfig describes the tab bar drawn above every group.
type BarConfig struct {
	Height           int          `yaml:"height"`
	MaxTabWidth      int          `yaml:"max_tab_width"` // 0 = unlimited
	PinnedTabWidth   int          `yaml:"pinned_tab_width"`
	SeparatorWeight  float64      `yaml:"separator_weight"`
	DropPaddingAbove int          `yaml:"drop_padding_above"`
	DropPaddingBelow int          `yaml:"drop_padding_below"`
	Colors           ColorsConfig `yaml:"colors"`
}

// HotkeysConfig binds daemon actions to xgbutil key sequences. An empty
// sequence leaves the action unbound.
type HotkeysConfig struct {
	Cycle       string `yaml:"cycle"`
	Release     string `yaml:"release"`
	Pin         string `yaml:"pin"`
	Superpin    string `yaml:"superpin"`
	GroupActive string `yaml:"group_active"`
}

// Config holds the application configuration.
type Config struct {
	LogLevel            string        `yaml:"log_level"`
	Bar                 BarConfig     `yaml:"bar"`
	MaximizeTolerance   int           `yaml:"maximize_tolerance"`
	ResyncDelayMS       int           `yaml:"resync_delay_ms"`
	ReconcileIntervalMS int           `yaml:"reconcile_interval_ms"`
	CycleCommitDelayMS  int           `yaml:"cycle_commit_delay_ms"`
	CaptureTimeoutMS    int           `yaml:"capture_timeout_ms"`
	IgnoreClasses       []string      `yaml:"ignore_classes"`
	Hotkeys             HotkeysConfig `yaml:"hotkeys"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Bar: BarConfig{
			Height:           28,
			MaxTabWidth:      240,
			PinnedTabWidth:   40,
			SeparatorWeight:  0.25,
			DropPaddingAbove: 24,
			DropPaddingBelow: 40,
			Colors: ColorsConfig{
				Background:    "#1f2933",
				Active:        "#3498db",
				Inactive:      "#323f4b",
				Pinned:        "#7f8c8d",
				Superpin:      "#8e44ad",
				Separator:     "#11181f",
				Text:          "#f5f7fa",
				DropIndicator: "#27ae60",
				Counter:       "#f39c12",
			},
		},
		MaximizeTolerance:   20,
		ResyncDelayMS:       150,
		ReconcileIntervalMS: 2000,
		CycleCommitDelayMS:  800,
		CaptureTimeoutMS:    10000,
		IgnoreClasses:       []string{},
		Hotkeys: HotkeysConfig{
			Cycle:       "Mod4-grave",
			Release:     "Mod4-Mod1-u",
			Pin:         "Mod4-Mod1-p",
			Superpin:    "Mod4-Mod1-Shift-p",
			GroupActive: "Mod4-Mod1-g",
		},
	}
}

// Validate reports the first invalid setting as a *ValidationError.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}

	if c.Bar.Height < 8 || c.Bar.Height > 200 {
		return &ValidationError{Path: "bar.height", Err: fmt.Errorf("height must be between 8 and 200")}
	}
	if c.Bar.MaxTabWidth < 0 {
		return &ValidationError{Path: "bar.max_tab_width", Err: fmt.Errorf("max_tab_width must be >= 0")}
	}
	if c.Bar.PinnedTabWidth <= 0 {
		return &ValidationError{Path: "bar.pinned_tab_width", Err: fmt.Errorf("pinned_tab_width must be > 0")}
	}
	if c.Bar.SeparatorWeight <= 0 || c.Bar.SeparatorWeight > 1 {
		return &ValidationError{Path: "bar.separator_weight", Err: fmt.Errorf("separator_weight must be in (0, 1]")}
	}
	if c.Bar.DropPaddingAbove < 0 {
		return &ValidationError{Path: "bar.drop_padding_above", Err: fmt.Errorf("drop_padding_above must be >= 0")}
	}
	if c.Bar.DropPaddingBelow < 0 {
		return &ValidationError{Path: "bar.drop_padding_below", Err: fmt.Errorf("drop_padding_below must be >= 0")}
	}
	for _, col := range c.Bar.Colors.entries() {
		if _, err := ParseColor(col.value); err != nil {
			return &ValidationError{Path: "bar.colors." + col.key, Err: err}
		}
	}

	if c.MaximizeTolerance < 0 {
		return &ValidationError{Path: "maximize_tolerance", Err: fmt.Errorf("maximize_tolerance must be >= 0")}
	}
	durations := []struct {
		path string
		ms   int
	}{
		{"resync_delay_ms", c.ResyncDelayMS},
		{"reconcile_interval_ms", c.ReconcileIntervalMS},
		{"cycle_commit_delay_ms", c.CycleCommitDelayMS},
		{"capture_timeout_ms", c.CaptureTimeoutMS},
	}
	for _, d := range durations {
		if d.ms <= 0 {
			return &ValidationError{Path: d.path, Err: fmt.Errorf("%s must be > 0", d.path)}
		}
	}
	if c.IgnoreClasses == nil {
		return &ValidationError{Path: "ignore_classes", Err: fmt.Errorf("ignore_classes must not be null")}
	}
	for _, class := range c.IgnoreClasses {
		if strings.TrimSpace(class) == "" {
			return &ValidationError{Path: "ignore_classes", Err: fmt.Errorf("ignore_classes contains an empty class name")}
		}
	}

	if warnings := c.validationWarnings(); len(warnings) > 0 {
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
	}

	return nil
}

func (c *Config) validationWarnings() []string {
	if c == nil {
		return nil
	}

	var warnings []string

	seen := make(map[string]string)
	for _, hk := range c.Hotkeys.entries() {
		if hk.value == "" {
			continue
		}
		if other, ok := seen[hk.value]; ok {
			warnings = append(warnings, fmt.Sprintf("hotkeys.%s and hotkeys.%s are both bound to %q; only one will fire", other, hk.key, hk.value))
			continue
		}
		seen[hk.value] = hk.key
	}

	if c.ResyncDelayMS > c.CycleCommitDelayMS {
		warnings = append(warnings, "resync_delay_ms is longer than cycle_commit_delay_ms; frames may lag behind cycling")
	}

	return warnings
}

type keyValue struct {
	key   string
	value string
}

func (c ColorsConfig) entries() []keyValue {
	return []keyValue{
		{"background", c.Background},
		{"active", c.Active},
		{"inactive", c.Inactive},
		{"pinned", c.Pinned},
		{"superpin", c.Superpin},
		{"separator", c.Separator},
		{"text", c.Text},
		{"drop_indicator", c.DropIndicator},
		{"counter", c.Counter},
	}
}

func (h HotkeysConfig) entries() []keyValue {
	return []keyValue{
		{"cycle", h.Cycle},
		{"release", h.Release},
		{"pin", h.Pin},
		{"superpin", h.Superpin},
		{"group_active", h.GroupActive},
	}
}

// ParseColor parses "#RRGGBB" (the leading '#' is optional) into 0xRRGGBB.
func ParseColor(s string) (uint32, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return 0, fmt.Errorf("colour %q must be #RRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("colour %q must be #RRGGBB", s)
	}
	return uint32(v), nil
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
