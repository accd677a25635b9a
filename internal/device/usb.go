//go:build linux

package device

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/xerrors"
)

var sysfsUSBDevices = "/sys/bus/usb/devices"

// allowedIDs is the fixed set of (vendor, product) pairs this server
// will attach to: the Nintendo Switch's Tinfoil/Sphaira USB gadget IDs.
var allowedIDs = map[vidPid]bool{
	{Vendor: 0x16C0, Product: 0x27E2}: true,
	{Vendor: 0x057E, Product: 0x3000}: true,
}

type vidPid struct {
	Vendor  uint16
	Product uint16
}

// candidate identifies one sysfs-enumerated USB device that matched
// the allow-list.
type candidate struct {
	vidPid
	bus    int
	devnum int
	name   string // sysfs device directory basename, e.g. "1-1"
}

func (c candidate) devPath() string {
	return filepath.Join("/dev/bus/usb", fmt.Sprintf("%03d", c.bus), fmt.Sprintf("%03d", c.devnum))
}

// id uniquely identifies a physical attachment (not just a vid/pid
// pair, so two identical devices on different ports are distinct).
func (c candidate) id() string {
	return fmt.Sprintf("%d:%d", c.bus, c.devnum)
}

// connectedIDs is a process-wide record of attachments this server has
// already claimed, guarded briefly during discovery only. Entries are
// never removed on disconnect — a device that reconnects after a
// bus/devnum reassignment is a new sysfs identity and a device that
// reconnects with the same identity mid-run is rare enough that
// refusing a double-claim is the safer default.
var connectedIDs = struct {
	mu  sync.Mutex
	set map[string]bool
}{set: make(map[string]bool)}

// scanCandidates walks sysfs for already-attached devices matching the
// allow-list that have not yet been claimed by this process.
func scanCandidates() ([]candidate, error) {
	entries, err := os.ReadDir(sysfsUSBDevices)
	if err != nil {
		return nil, xerrors.Errorf("device: readdir %s: %w", sysfsUSBDevices, err)
	}

	connectedIDs.mu.Lock()
	defer connectedIDs.mu.Unlock()

	var out []candidate
	for _, entry := range entries {
		name := entry.Name()
		// Interface nodes are named "1-1:1.0"; only plain device nodes
		// like "1-1" or "usb1" carry idVendor/idProduct at their root.
		if strings.ContainsAny(name, ":") {
			continue
		}
		dir := filepath.Join(sysfsUSBDevices, name)
		vendor, ok1 := readSysfsHex(filepath.Join(dir, "idVendor"))
		product, ok2 := readSysfsHex(filepath.Join(dir, "idProduct"))
		if !ok1 || !ok2 {
			continue
		}
		if !allowedIDs[vidPid{Vendor: vendor, Product: product}] {
			continue
		}
		bus, ok3 := readSysfsInt(filepath.Join(dir, "busnum"))
		devnum, ok4 := readSysfsInt(filepath.Join(dir, "devnum"))
		if !ok3 || !ok4 {
			continue
		}
		c := candidate{vidPid: vidPid{Vendor: vendor, Product: product}, bus: bus, devnum: devnum, name: name}
		if connectedIDs.set[c.id()] {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func readSysfsHex(path string) (uint16, bool) {
	s, ok := readSysfsLine(path)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}

func readSysfsInt(path string) (int, bool) {
	s, ok := readSysfsLine(path)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func readSysfsLine(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}
