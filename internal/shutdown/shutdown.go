// Package shutdown runs a blocking component until it finishes or the
// process receives SIGINT/SIGTERM, then tears it down within a deadline.
package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// notifySignals subscribes c to termination signals and returns the
// unsubscribe function. Tests replace it to deliver signals directly.
var notifySignals = func(c chan<- os.Signal) func() {
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	return func() { signal.Stop(c) }
}

// Sequence combines teardown steps into one. Every step runs, in order,
// even if an earlier one fails; the errors are joined.
func Sequence(steps ...func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		var errs []error
		for _, step := range steps {
			if err := step(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

// RunWithGracefulShutdown starts runner and handles graceful shutdown.
// The runner function should block while the component is running; it
// returning ends the run without calling shutdown. On a signal the runner's
// context is cancelled, shutdown is called, and the runner gets up to
// timeout to return.
func RunWithGracefulShutdown(
	ctx context.Context,
	logger *slog.Logger,
	timeout time.Duration,
	runner func(ctx context.Context) error,
	shutdown func(ctx context.Context) error,
) error {
	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	runDone := make(chan error, 1)
	go func() {
		runDone <- runner(runCtx)
	}()

	sigChan := make(chan os.Signal, 1)
	stop := notifySignals(sigChan)
	defer stop()

	select {
	case sig := <-sigChan:
		logger.Info("received signal, initiating shutdown", "signal", sig.String())
		runCancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if err := shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}

		select {
		case err := <-runDone:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
		case <-shutdownCtx.Done():
			logger.Warn("shutdown timeout exceeded", "timeout", timeout)
		}

		logger.Info("shutdown complete")
		return nil

	case err := <-runDone:
		return err
	}
}
