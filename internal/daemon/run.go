package daemon

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run drives the controller, an initial and periodic reconciliation, and any
// extra loops until ctx is cancelled or one of them fails.
func Run(ctx context.Context, c *Controller, r *Reconciler, extra ...func(context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return c.Run(ctx) })
	if r != nil {
		g.Go(func() error {
			r.ReconcileNow(ctx)
			return r.Run(ctx)
		})
	}
	for _, fn := range extra {
		g.Go(func() error { return fn(ctx) })
	}
	return g.Wait()
}
