package group

import "fmt"

// WindowID identifies an OS window. Separators use ids allocated from the top
// of the range by Manager.NewSeparator.
type WindowID uint32

// PinState is the pin level of a single slot.
type PinState int

const (
	PinNone PinState = iota
	PinPinned
	PinSuper
)

func (p PinState) String() string {
	switch p {
	case PinNone:
		return "none"
	case PinPinned:
		return "pinned"
	case PinSuper:
		return "super"
	default:
		return fmt.Sprintf("PinState(%d)", int(p))
	}
}

// ParsePinState is the inverse of PinState.String.
func ParsePinState(s string) (PinState, bool) {
	switch s {
	case "none", "":
		return PinNone, true
	case "pinned":
		return PinPinned, true
	case "super":
		return PinSuper, true
	}
	return PinNone, false
}

// Window is one slot in a group. Groups hold their own copy, so pin state
// and custom names are per group.
type Window struct {
	ID         WindowID `json:"id"`
	PID        int      `json:"pid,omitempty"`
	AppID      string   `json:"app_id,omitempty"`
	Title      string   `json:"title,omitempty"`
	CustomName string   `json:"custom_name,omitempty"`
	Pin        PinState `json:"pin"`
	Separator  bool     `json:"separator,omitempty"`
	Fullscreen bool     `json:"fullscreen,omitempty"`
}

// Label is the text shown on the window's tab.
func (w Window) Label() string {
	if w.Separator {
		return ""
	}
	if w.CustomName != "" {
		return w.CustomName
	}
	if w.Title != "" {
		return w.Title
	}
	if w.AppID != "" {
		return w.AppID
	}
	return fmt.Sprintf("0x%x", uint32(w.ID))
}

// Pinned reports whether the slot sits in the pinned section.
func (w Window) Pinned() bool {
	return w.Pin != PinNone
}

func pinRank(p PinState) int {
	switch p {
	case PinSuper:
		return 0
	case PinPinned:
		return 1
	default:
		return 2
	}
}

func (p PinState) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *PinState) UnmarshalText(text []byte) error {
	v, ok := ParsePinState(string(text))
	if !ok {
		return fmt.Errorf("unknown pin state %q", string(text))
	}
	*p = v
	return nil
}
