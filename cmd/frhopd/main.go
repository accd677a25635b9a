// Program frhopd serves a directory of Nintendo Switch game archives
// (.nsp/.xci/.nsz/.nsx) to a USB-connected Switch client, speaking
// either the Tinfoil or the Sphaira USB protocol.
//
// Positional arguments name directories and/or files to add to the
// listing. By default the server speaks Tinfoil; pass -s to speak
// Sphaira instead.
package main

import (
	"flag"
	"log"
	"os"
	"sync/atomic"

	"golang.org/x/xerrors"

	"github.com/frhop/frhopd"
	"github.com/frhop/frhopd/internal/catalog"
	"github.com/frhop/frhopd/internal/device"
	"github.com/frhop/frhopd/internal/executor"
	"github.com/frhop/frhopd/internal/sphaira"
	"github.com/frhop/frhopd/internal/tinfoil"
)

func logic(args []string, sphairaMode bool) error {
	if len(args) == 0 {
		return xerrors.New("frhopd: no directories or files given")
	}

	logger := log.New(os.Stderr, "frhopd: ", log.LstdFlags)

	listing := catalog.NewListing(logger)
	for _, path := range args {
		if err := listing.Add(path); err != nil {
			return err
		}
	}
	if len(listing.IDMap()) == 0 {
		return xerrors.New("frhopd: no archives found in given paths")
	}

	var served int64
	frhopd.RegisterAtExit(func() error {
		logger.Printf("served %d device sessions", atomic.LoadInt64(&served))
		return nil
	})

	ctx, cancel := frhopd.InterruptibleContext()
	defer cancel()

	pool := &executor.Pool{
		Listing: listing,
		Log:     logger,
		Serve: func(iface *device.Interface) error {
			atomic.AddInt64(&served, 1)
			if sphairaMode {
				return sphaira.NewSession(iface, logger).Serve()
			}
			return tinfoil.NewSession(iface, logger).Serve()
		},
	}
	return pool.Run(ctx)
}

func main() {
	sphairaMode := flag.Bool("s", false, "speak the Sphaira protocol instead of Tinfoil")
	flag.Bool("t", false, "speak the Tinfoil protocol (default)")
	flag.Parse()

	if err := logic(flag.Args(), *sphairaMode); err != nil {
		log.Fatal(err)
	}
	if err := frhopd.RunAtExit(); err != nil {
		log.Fatal(err)
	}
}
