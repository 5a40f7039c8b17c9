// Package windowclass matches windows against configured WM_CLASS lists.
package windowclass

import (
	"strings"
	"sync"

	"github.com/1broseidon/tabtile/internal/platform"
)

// Filter is a case-insensitive set of window classes. It is safe for
// concurrent use, so a capture running off the control goroutine can read it
// while a reload replaces the classes.
type Filter struct {
	mu      sync.RWMutex
	classes map[string]bool
}

// NewFilter creates a filter matching the given classes.
func NewFilter(classes []string) *Filter {
	return &Filter{classes: classMap(classes)}
}

// Update replaces the classes.
func (f *Filter) Update(classes []string) {
	m := classMap(classes)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.classes = m
}

// Match reports whether class is in the set. An empty class never matches.
func (f *Filter) Match(class string) bool {
	if f == nil || class == "" {
		return false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	// Check exact match first
	if f.classes[class] {
		return true
	}
	return f.classes[strings.ToLower(class)]
}

// MatchWindow reports whether w's class is in the set.
func (f *Filter) MatchWindow(w platform.Window) bool {
	return f.Match(w.AppID)
}

// Len is the number of configured classes.
func (f *Filter) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for class := range f.classes {
		if class == strings.ToLower(class) {
			n++
		}
	}
	return n
}

func classMap(classes []string) map[string]bool {
	m := make(map[string]bool, len(classes)*2)
	for _, class := range classes {
		class = strings.TrimSpace(class)
		if class == "" {
			continue
		}
		// Store both original and lowercase for case-insensitive matching
		m[class] = true
		m[strings.ToLower(class)] = true
	}
	return m
}
