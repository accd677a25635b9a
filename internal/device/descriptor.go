//go:build linux

package device

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// ErrNoEndpoint is returned when interface 0 of a claimed device has
// no bulk endpoint in the requested direction.
type ErrNoEndpoint struct {
	Direction string
}

func (e *ErrNoEndpoint) Error() string {
	return "device: no bulk " + e.Direction + " endpoint on interface 0"
}

// firstBulkEndpoints returns the address of the first Out and first In
// bulk endpoint belonging to alternate setting 0 of interface 0 of the
// device named by sysfsName (e.g. "1-1"), read from the per-endpoint
// attribute files sysfs publishes under "<name>:1.0/ep_XX/".
func firstBulkEndpoints(sysfsName string) (out, in byte, err error) {
	ifaceDir := filepath.Join(sysfsUSBDevices, sysfsName+":1.0")
	entries, err := os.ReadDir(ifaceDir)
	if err != nil {
		return 0, 0, xerrors.Errorf("device: readdir %s: %w", ifaceDir, err)
	}

	var haveOut, haveIn bool
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "ep_") {
			continue
		}
		epDir := filepath.Join(ifaceDir, entry.Name())
		typ, ok := readSysfsLine(filepath.Join(epDir, "type"))
		if !ok || typ != "Bulk" {
			continue
		}
		dir, ok := readSysfsLine(filepath.Join(epDir, "direction"))
		if !ok {
			continue
		}
		addrStr, ok := readSysfsLine(filepath.Join(epDir, "bEndpointAddress"))
		if !ok {
			continue
		}
		addr, err := strconv.ParseUint(strings.TrimPrefix(addrStr, "0x"), 16, 8)
		if err != nil {
			continue
		}
		switch dir {
		case "out":
			if !haveOut {
				out, haveOut = byte(addr), true
			}
		case "in":
			if !haveIn {
				in, haveIn = byte(addr), true
			}
		}
	}

	if !haveOut {
		return 0, 0, &ErrNoEndpoint{Direction: "out"}
	}
	if !haveIn {
		return 0, 0, &ErrNoEndpoint{Direction: "in"}
	}
	return out, in, nil
}
