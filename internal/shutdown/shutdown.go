// Package shutdown provides a context cancelled on interrupt signals.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// New returns a context that is cancelled on SIGINT or SIGTERM, and the
// function releasing it.
func New() (context.Context, func()) {
	ctx, done := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
		done()
	}()

	return ctx, done
}
