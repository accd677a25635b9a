//go:build linux

package device

import (
	"unsafe"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// The ioctl request numbers below encode the same USBDEVFS_* commands
// defined by the kernel's <linux/usbdevice_fs.h>, using the same
// _IOR/_IOW/_IOWR bit layout the kernel header itself uses
// (direction in bits 30-31, size in bits 16-29, type 'U' in bits 8-15,
// number in bits 0-7). No Go package in this module's dependency
// closure wraps usbfs, so these are derived directly from the UAPI
// contract rather than vendored from a library.
const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2

	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits
)

func ioc(dir, typ, nr uint32, size uintptr) uint32 {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (uint32(size) << iocSizeShift)
}

const usbType = 'U'

var (
	usbdevfsClaimInterface   = ioc(iocRead, usbType, 15, 4)
	usbdevfsReleaseInterface = ioc(iocRead, usbType, 16, 4)
	usbdevfsSetInterface     = ioc(iocRead, usbType, 4, unsafe.Sizeof(usbdevfsSetInterfaceReq{}))
	usbdevfsBulk             = ioc(iocRead|iocWrite, usbType, 2, unsafe.Sizeof(usbdevfsBulkTransfer{}))
	usbdevfsReset            = ioc(iocNone, usbType, 20, 0)
)

type usbdevfsSetInterfaceReq struct {
	Interface  uint32
	AltSetting uint32
}

// usbdevfsBulkTransfer mirrors struct usbdevfs_bulktransfer: the Data
// pointer must point at a buffer at least Len bytes long.
type usbdevfsBulkTransfer struct {
	EP      uint32
	Len     uint32
	Timeout uint32
	_       uint32 // padding to align Data on 8 bytes
	Data    uintptr
}

func ioctl(fd int, req uint32, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), arg)
	if errno != 0 {
		return errno
	}
	return nil
}

// claimInterface makes one attempt to claim interface number iface on
// the open device fd. The retry after a delay (some platforms publish
// interfaces with a short lag after enumeration) is done by open.
func claimInterface(fd int, iface uint32) error {
	if err := ioctl(fd, usbdevfsClaimInterface, uintptr(unsafe.Pointer(&iface))); err != nil {
		return xerrors.Errorf("device: claim interface %d: %w", iface, err)
	}
	return nil
}

func setAltSetting(fd int, iface, alt uint32) error {
	req := usbdevfsSetInterfaceReq{Interface: iface, AltSetting: alt}
	if err := ioctl(fd, usbdevfsSetInterface, uintptr(unsafe.Pointer(&req))); err != nil {
		return xerrors.Errorf("device: set alt setting: %w", err)
	}
	return nil
}

// bulkTransfer performs one synchronous USBDEVFS_BULK ioctl, reading
// into or writing from buf (direction implied by the endpoint
// address's high bit) with the given millisecond timeout. It returns
// the number of bytes actually transferred.
func bulkTransfer(fd int, ep byte, buf []byte, timeoutMs uint32) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	xfer := usbdevfsBulkTransfer{
		EP:      uint32(ep),
		Len:     uint32(len(buf)),
		Timeout: timeoutMs,
		Data:    uintptr(unsafe.Pointer(&buf[0])),
	}
	n, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(usbdevfsBulk), uintptr(unsafe.Pointer(&xfer)))
	if errno != 0 {
		return 0, xerrors.Errorf("device: bulk transfer ep 0x%x: %w", ep, errno)
	}
	return int(n), nil
}
