//go:build linux

package device

import (
	"os"
	"time"
	"unsafe"

	"golang.org/x/xerrors"

	"github.com/frhop/frhopd/internal/catalog"
)

const (
	claimedInterface  = 0
	claimedAltSetting = 0
	claimRetryDelay   = 500 * time.Millisecond
)

// errNoCandidate is returned internally by a single discovery pass
// that finds no already-attached matching device; WaitNew falls back
// to hotplug in that case rather than surfacing this to its caller.
var errNoCandidate = xerrors.New("device: no candidate")

// Interface is a claimed USB interface on one physical device, owning
// its two bulk endpoint streams. A given device ID is claimed by at
// most one Interface at a time, enforced by the process-wide
// connectedIDs set.
type Interface struct {
	f       *os.File
	id      string
	listing *catalog.Listing
	rx      *ReadEndpoint
	tx      *WriteEndpoint
}

// WaitNew enumerates already-attached devices matching the fixed
// allow-list; if none is free, it subscribes to hotplug events and
// blocks until one appears. On success it claims interface 0 (retrying
// once after 500ms if the kernel has not yet published it), selects
// alternate setting 0, and discovers the first bulk Out/In endpoints.
func WaitNew(listing *catalog.Listing) (*Interface, error) {
	for {
		c, err := pickCandidate()
		if err == nil {
			iface, err := open(c, listing)
			if err != nil {
				// This candidate failed; release its claim slot and keep
				// looking rather than giving up on the whole wait.
				connectedIDs.mu.Lock()
				delete(connectedIDs.set, c.id())
				connectedIDs.mu.Unlock()
				continue
			}
			return iface, nil
		}

		c, err = waitHotplug()
		if err != nil {
			return nil, xerrors.Errorf("device: wait for hotplug: %w", err)
		}
		connectedIDs.mu.Lock()
		claimed := connectedIDs.set[c.id()]
		connectedIDs.set[c.id()] = true
		connectedIDs.mu.Unlock()
		if claimed {
			continue
		}
		iface, err := open(c, listing)
		if err != nil {
			connectedIDs.mu.Lock()
			delete(connectedIDs.set, c.id())
			connectedIDs.mu.Unlock()
			continue
		}
		return iface, nil
	}
}

// pickCandidate scans for an already-attached, unclaimed matching
// device and reserves it in connectedIDs before returning.
func pickCandidate() (candidate, error) {
	cands, err := scanCandidates()
	if err != nil {
		return candidate{}, xerrors.Errorf("device: scan: %w", err)
	}
	if len(cands) == 0 {
		return candidate{}, errNoCandidate
	}

	connectedIDs.mu.Lock()
	defer connectedIDs.mu.Unlock()
	for _, c := range cands {
		if connectedIDs.set[c.id()] {
			continue
		}
		connectedIDs.set[c.id()] = true
		return c, nil
	}
	return candidate{}, errNoCandidate
}

func open(c candidate, listing *catalog.Listing) (*Interface, error) {
	f, err := os.OpenFile(c.devPath(), os.O_RDWR, 0)
	if err != nil {
		return nil, xerrors.Errorf("device: open %s: %w", c.devPath(), err)
	}

	fd := int(f.Fd())
	if err := claimInterface(fd, claimedInterface); err != nil {
		time.Sleep(claimRetryDelay)
		if err := claimInterface(fd, claimedInterface); err != nil {
			f.Close()
			return nil, xerrors.Errorf("device: claim interface after retry: %w", err)
		}
	}
	if err := setAltSetting(fd, claimedInterface, claimedAltSetting); err != nil {
		f.Close()
		return nil, err
	}

	out, in, err := firstBulkEndpoints(c.name)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Interface{
		f:       f,
		id:      c.id(),
		listing: listing,
		rx:      newReadEndpoint(fd, in),
		tx:      newWriteEndpoint(fd, out),
	}, nil
}

// Listing returns the shared catalog this interface was opened
// against.
func (i *Interface) Listing() *catalog.Listing {
	return i.listing
}

// Rx returns the bulk-in read endpoint.
func (i *Interface) Rx() *ReadEndpoint { return i.rx }

// Tx returns the bulk-out write endpoint.
func (i *Interface) Tx() *WriteEndpoint { return i.tx }

// Close releases the claimed interface and closes the device file. It
// deliberately does not remove the device's entry from connectedIDs;
// see the package-level doc on connectedIDs for why.
func (i *Interface) Close() error {
	fd := int(i.f.Fd())
	iface := uint32(claimedInterface)
	_ = ioctl(fd, usbdevfsReleaseInterface, uintptr(unsafe.Pointer(&iface)))
	return i.f.Close()
}
