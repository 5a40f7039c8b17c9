package hotkeys

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Actions are the controller operations bound to keys.
type Actions interface {
	Cycle(ctx context.Context) error
	ReleaseActive(ctx context.Context) error
	ToggleActivePin(ctx context.Context, super bool) error
	GroupActive(ctx context.Context) error
}

// Bindings maps each action to a key sequence such as "Mod4-grave". An empty
// sequence leaves the action unbound.
type Bindings struct {
	Cycle       string
	Release     string
	Pin         string
	Superpin    string
	GroupActive string
}

// Handler grabs the tab-group shortcuts on the root window.
type Handler struct {
	xu      *xgbutil.XUtil
	root    xproto.Window
	actions Actions
	ctx     context.Context

	mu    sync.Mutex
	bound Bindings
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler. Actions run with ctx.
func NewHandler(ctx context.Context, xu *xgbutil.XUtil, actions Actions) *Handler {
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:      xu,
		root:    xu.RootWin(),
		actions: actions,
		ctx:     ctx,
	}
}

// Bound returns the bindings last passed to Register or Rebind.
func (h *Handler) Bound() Bindings {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bound
}

// Rebind drops every grab on the root window and registers b. It is a no-op
// when b matches the current bindings.
func (h *Handler) Rebind(b Bindings) error {
	h.mu.Lock()
	same := h.bound == b
	h.mu.Unlock()
	if same {
		return nil
	}
	keybind.Detach(h.xu, h.root)
	return h.Register(b)
}

// Register binds every non-empty sequence in b. All bindings are attempted;
// the returned error joins the ones that failed.
func (h *Handler) Register(b Bindings) error {
	h.mu.Lock()
	h.bound = b
	h.mu.Unlock()

	entries := []struct {
		name string
		keys string
		run  func(context.Context) error
	}{
		{"cycle", b.Cycle, h.actions.Cycle},
		{"release", b.Release, h.actions.ReleaseActive},
		{"pin", b.Pin, func(ctx context.Context) error { return h.actions.ToggleActivePin(ctx, false) }},
		{"superpin", b.Superpin, func(ctx context.Context) error { return h.actions.ToggleActivePin(ctx, true) }},
		{"group_active", b.GroupActive, h.actions.GroupActive},
	}

	var errs []error
	for _, e := range entries {
		if e.keys == "" {
			continue
		}
		name, run := e.name, e.run
		if err := h.RegisterFunc(e.keys, func() {
			// The X event loop must keep draining while the controller works.
			go func() {
				if err := run(h.ctx); err != nil && h.ctx.Err() == nil {
					log.Printf("Hotkey %s: %v", name, err)
				}
			}()
		}); err != nil {
			errs = append(errs, fmt.Errorf("failed to register %s hotkey %q: %w", name, e.keys, err))
			continue
		}
		log.Printf("Registered %s hotkey: %s", name, e.keys)
	}
	return errors.Join(errs...)
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	xevent.IgnoreMods = ignoreMasks(
		modMaskForKeysym(xu, "Num_Lock"),
		modMaskForKeysym(xu, "Scroll_Lock"),
	)
}

// ignoreMasks returns every combination of CapsLock and the given lock
// modifiers, including the empty one, so bindings fire whatever locks are on.
// Zero and duplicate masks are skipped.
func ignoreMasks(locks ...uint16) []uint16 {
	base := []uint16{uint16(xproto.ModMaskLock)}
	for _, m := range locks {
		if m != 0 && !slices.Contains(base, m) {
			base = append(base, m)
		}
	}

	masks := make([]uint16, 0, 1<<len(base))
	for subset := 0; subset < 1<<len(base); subset++ {
		var mask uint16
		for bit, m := range base {
			if subset&(1<<bit) != 0 {
				mask |= m
			}
		}
		masks = append(masks, mask)
	}
	return masks
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
