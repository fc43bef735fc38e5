package lib

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gravitational/qbrest/lib/logger"
)

// WithSignals returns a context canceled on the first SIGTERM or SIGINT.
// A signal received after an interrupt exits the process right away.
func WithSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC,
		syscall.SIGTERM, // cancel in-flight calls
		syscall.SIGINT,  // cancel, then exit on repeat
	)

	go func() {
		defer signal.Stop(sigC)
		select {
		case <-ctx.Done():
			return
		case sig := <-sigC:
			logger.Standard().Infof("Received %v, canceling...", sig)
			cancel()
			if sig != syscall.SIGINT {
				return
			}
		}
		<-sigC
		os.Exit(130)
	}()
	return ctx, cancel
}
