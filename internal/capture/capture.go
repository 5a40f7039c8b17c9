// Package capture waits for a window that did not exist when waiting began.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/tabtile/internal/platform"
)

// Lister enumerates the current top-level windows.
type Lister interface {
	ListWindows() ([]platform.Window, error)
}

// Status is the kind of outcome a capture ended with.
type Status int

const (
	Succeeded Status = iota
	TimedOut
	Failed
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case TimedOut:
		return "timed_out"
	default:
		return "failed"
	}
}

// Outcome is the result of Await. Window is set only on success and Reason
// only on failure.
type Outcome struct {
	Status Status
	Window platform.Window
	Reason string
}

// Options configures Await.
type Options struct {
	Timeout      time.Duration
	PollInterval time.Duration
	// Ignore filters windows that should never be captured.
	Ignore func(platform.Window) bool
	Logger *slog.Logger
}

const (
	defaultTimeout      = 10 * time.Second
	defaultPollInterval = 150 * time.Millisecond
)

// Await snapshots the window list and polls until a window outside the
// snapshot appears, the timeout expires, or ctx is done.
func Await(ctx context.Context, lister Lister, opts Options) Outcome {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	initial, err := lister.ListWindows()
	if err != nil {
		return Outcome{Status: Failed, Reason: fmt.Sprintf("list windows: %v", err)}
	}
	existing := make(map[platform.WindowID]struct{}, len(initial))
	for _, w := range initial {
		existing[w.ID] = struct{}{}
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Outcome{Status: Failed, Reason: ctx.Err().Error()}
		case <-deadline.C:
			return Outcome{Status: TimedOut}
		case <-ticker.C:
		}

		windows, err := lister.ListWindows()
		if err != nil {
			logger.Debug("capture poll failed", "error", err)
			continue
		}
		for _, w := range windows {
			if _, ok := existing[w.ID]; ok {
				continue
			}
			if opts.Ignore != nil && opts.Ignore(w) {
				existing[w.ID] = struct{}{}
				continue
			}
			logger.Debug("captured new window", "window", w.ID, "app_id", w.AppID)
			return Outcome{Status: Succeeded, Window: w}
		}
	}
}
