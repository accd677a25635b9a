//go:build linux

package device

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/s-urbaniak/uevent"
	"golang.org/x/xerrors"
)

// waitHotplug blocks on the kernel uevent stream until a USB device
// matching the allow-list is added, then returns its candidate. It
// consumes add events on the "usb" subsystem and decodes the PRODUCT
// variable, which the kernel publishes as "vendor/product/bcdDevice"
// in lowercase hex with no leading zeros.
func waitHotplug() (candidate, error) {
	r, err := uevent.NewReader()
	if err != nil {
		return candidate{}, xerrors.Errorf("device: uevent reader: %w", err)
	}
	defer r.Close()

	dec := uevent.NewDecoder(r)
	for {
		ev, err := dec.Decode()
		if err != nil {
			return candidate{}, xerrors.Errorf("device: uevent decode: %w", err)
		}
		if ev.Action != "add" || ev.Subsystem != "usb" {
			continue
		}
		product, ok := ev.Vars["PRODUCT"]
		if !ok {
			continue
		}
		vendor, dev, ok := parseProductVar(product)
		if !ok || !allowedIDs[vidPid{Vendor: vendor, Product: dev}] {
			continue
		}

		sysPath := filepath.Join("/sys", strings.TrimPrefix(ev.Devpath, "/"))
		bus, ok1 := readSysfsInt(filepath.Join(sysPath, "busnum"))
		devnum, ok2 := readSysfsInt(filepath.Join(sysPath, "devnum"))
		if !ok1 || !ok2 {
			continue
		}
		return candidate{vidPid: vidPid{Vendor: vendor, Product: dev}, bus: bus, devnum: devnum, name: filepath.Base(ev.Devpath)}, nil
	}
}

func parseProductVar(s string) (vendor, product uint16, ok bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(parts[0], 16, 16)
	if err != nil {
		return 0, 0, false
	}
	p, err := strconv.ParseUint(parts[1], 16, 16)
	if err != nil {
		return 0, 0, false
	}
	return uint16(v), uint16(p), true
}
