package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func exitProcess(code int) { os.Exit(code) }

// HandleSignals closes the controller and exits with the signal number
// when one of the platform's termination signals arrives. The returned
// function uninstalls the handler.
func (c *Controller) HandleSignals(ctx context.Context) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, shutdownSignals...)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		select {
		case <-ctx.Done():
			return
		case sig := <-ch:
			c.log.Info().Stringer("signal", sig).Msg("shutting down")

			cctx, ccancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
			if err := c.Close(cctx); err != nil {
				c.log.Error().Err(err).Msg("close")
			}
			ccancel()

			c.exit(signalNumber(sig))
		}
	}()

	return func() {
		signal.Stop(ch)
		cancel()
		<-done
	}
}

func signalNumber(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return int(s)
	}

	return 1
}
