//go:build linux

// Package executor runs a fixed pool of worker goroutines, each
// repeatedly discovering one USB device and driving one protocol
// session against it until the device disconnects or the pool is
// canceled.
package executor

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/frhop/frhopd/internal/catalog"
	"github.com/frhop/frhopd/internal/device"
)

// NumWorkers is the fixed size of the worker pool. Go's own scheduler
// already work-steals goroutines across OS threads, so N_THREADS fixed
// workers each looping discovery-then-session is the natural Go shape
// for what a cooperative executor with N OS threads gives elsewhere.
const NumWorkers = 4

// SessionFunc drives one protocol conversation against a claimed
// interface. It returns when the device disconnects or the session
// hits a transport failure; either way the pool closes the interface
// and goes back to discovery.
type SessionFunc func(iface *device.Interface) error

// Pool owns NumWorkers goroutines, each looping device discovery and
// session handling independently. No intra-device parallelism exists;
// each device is owned exclusively by the worker that discovered it.
type Pool struct {
	Listing *catalog.Listing
	Serve   SessionFunc
	Log     *log.Logger
}

// Run blocks until ctx is canceled and every worker has returned to an
// idle discovery point. A worker blocked inside device.WaitNew or a
// USB bulk transfer does not observe cancellation until that call
// returns — Go has no cooperative way to interrupt a blocking ioctl —
// so shutdown is graceful rather than immediate; this is an accepted
// gap, not a bug (see DESIGN.md).
func (p *Pool) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < NumWorkers; i++ {
		worker := i
		eg.Go(func() error {
			return p.runWorker(ctx, worker)
		})
	}
	return eg.Wait()
}

func (p *Pool) runWorker(ctx context.Context, worker int) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		iface, err := device.WaitNew(p.Listing)
		if err != nil {
			p.Log.Printf("executor: worker %d: discovery: %v", worker, err)
			continue
		}

		if err := p.Serve(iface); err != nil {
			p.Log.Printf("executor: worker %d: session ended: %v", worker, err)
		}
		iface.Close()
	}
}
