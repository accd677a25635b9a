package frhopd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// InterruptibleContext returns a context canceled on SIGINT or SIGTERM.
// Every worker in the executor pool checks ctx before each discovery,
// so a single cancellation reaches all of them without sizing a
// shutdown channel up front. A worker blocked in discovery or a bulk
// transfer sees it only once that call returns.
func InterruptibleContext() (context.Context, context.CancelFunc) {
	ctx, canc := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		// Stop relaying further signals now; a second SIGINT/SIGTERM
		// falls through to the OS default disposition (immediate
		// termination), useful if an in-flight USB transfer or file
		// read is not honoring ctx.
		signal.Stop(sig)
		canc()
	}()
	return ctx, canc
}
