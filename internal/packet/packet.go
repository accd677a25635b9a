// Package packet defines the fixed-layout binary headers exchanged over
// the USB bulk endpoints by both protocol dialects: Tinfoil's 32-byte
// Command packet, and Sphaira's List-response, Command and FileRange
// packets. All layouts are little-endian and tightly packed, so each
// struct is read and written with encoding/binary rather than unsafe
// casts.
package packet

import (
	"bytes"
	"encoding/binary"
	"io"

	"golang.org/x/xerrors"
)

// ErrBadMagic is returned by the FromRaw constructors when the leading
// magic bytes do not match the expected value.
var ErrBadMagic = xerrors.New("packet: bad magic")

var tinfoilMagic = [4]byte{0x12, 0x12, 0x12, 0x12}

// Command is Tinfoil's 32-byte request/response header.
type Command struct {
	Magic     [4]byte
	Cmd       uint32
	Size      uint64
	ThreadID  uint32
	PacketI   uint16
	PacketN   uint16
	Timestamp uint64
}

// Size32 is the wire size of Command, also used by callers sizing read
// buffers.
const Size32 = 32

// NewCommand builds a Command packet with the Tinfoil magic and zeroed
// ancillary fields — Tinfoil never populates thread_id/packet_i/
// packet_n/timestamp on host-originated packets.
func NewCommand(cmd uint32, size uint64) Command {
	return Command{Magic: tinfoilMagic, Cmd: cmd, Size: size}
}

// Bytes encodes c into its 32-byte wire representation.
func (c Command) Bytes() []byte {
	buf := make([]byte, Size32)
	copy(buf[0:4], c.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], c.Cmd)
	binary.LittleEndian.PutUint64(buf[8:16], c.Size)
	binary.LittleEndian.PutUint32(buf[16:20], c.ThreadID)
	binary.LittleEndian.PutUint16(buf[20:22], c.PacketI)
	binary.LittleEndian.PutUint16(buf[22:24], c.PacketN)
	binary.LittleEndian.PutUint64(buf[24:32], c.Timestamp)
	return buf
}

// CommandFromRaw validates and decodes a 32-byte Tinfoil Command
// header.
func CommandFromRaw(raw []byte) (Command, error) {
	if len(raw) != Size32 {
		return Command{}, xerrors.Errorf("packet: command: want %d bytes, got %d", Size32, len(raw))
	}
	var c Command
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &c); err != nil {
		return Command{}, xerrors.Errorf("packet: command: %w", err)
	}
	if c.Magic != tinfoilMagic {
		return Command{}, ErrBadMagic
	}
	return c, nil
}

var sphairaListMagic = [4]byte{'T', 'U', 'L', '0'}
var sphairaCmdMagic = [4]byte{'T', 'U', 'C', '0'}

// ListResponse is Sphaira's 16-byte connect-time listing header.
type ListResponse struct {
	Magic   [4]byte
	Length  uint32
	_       [8]byte
}

// NewListResponse builds a ListResponse announcing a payload of
// length bytes.
func NewListResponse(length uint32) ListResponse {
	return ListResponse{Magic: sphairaListMagic, Length: length}
}

// Bytes encodes l into its 16-byte wire representation.
func (l ListResponse) Bytes() []byte {
	buf := make([]byte, 16)
	copy(buf[0:4], l.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], l.Length)
	return buf
}

// SphairaCmd is Sphaira's 32-byte bidirectional command header.
type SphairaCmd struct {
	Magic    [4]byte
	CmdType  uint8
	_        [3]byte
	CmdID    uint32
	DataSize uint64
	_        [12]byte
}

// NewSphairaCmd builds an outgoing Sphaira command header.
func NewSphairaCmd(cmdID uint32, dataSize uint64) SphairaCmd {
	return SphairaCmd{Magic: sphairaCmdMagic, CmdID: cmdID, DataSize: dataSize}
}

// Bytes encodes c into its 32-byte wire representation.
func (c SphairaCmd) Bytes() []byte {
	buf := make([]byte, Size32)
	copy(buf[0:4], c.Magic[:])
	buf[4] = c.CmdType
	binary.LittleEndian.PutUint32(buf[8:12], c.CmdID)
	binary.LittleEndian.PutUint64(buf[12:20], c.DataSize)
	return buf
}

// SphairaCmdFromRaw validates and decodes a 32-byte Sphaira command
// header.
func SphairaCmdFromRaw(raw []byte) (SphairaCmd, error) {
	if len(raw) != Size32 {
		return SphairaCmd{}, xerrors.Errorf("packet: sphaira cmd: want %d bytes, got %d", Size32, len(raw))
	}
	var c SphairaCmd
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &c); err != nil {
		return SphairaCmd{}, xerrors.Errorf("packet: sphaira cmd: %w", err)
	}
	if c.Magic != sphairaCmdMagic {
		return SphairaCmd{}, ErrBadMagic
	}
	return c, nil
}

// FileRange is Sphaira's 32-byte range-request header, immediately
// followed on the wire by NameLen bytes of UTF-8 path.
type FileRange struct {
	RangeSize   uint64
	RangeOffset uint64
	NameLen     uint64
	_           [8]byte
}

// FileRangeSize is the wire size of FileRange, excluding the
// variable-length name that follows it.
const FileRangeSize = 32

// FileRangeFromRaw decodes a 32-byte Sphaira FileRange header. It has
// no magic of its own; it is only ever read immediately after a
// SphairaCmd with CmdID == FileRange.
func FileRangeFromRaw(raw []byte) (FileRange, error) {
	if len(raw) != FileRangeSize {
		return FileRange{}, xerrors.Errorf("packet: file range: want %d bytes, got %d", FileRangeSize, len(raw))
	}
	var fr FileRange
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &fr); err != nil {
		return FileRange{}, xerrors.Errorf("packet: file range: %w", err)
	}
	return fr, nil
}

// ReadExact reads exactly len(buf) bytes from r, wrapping short reads
// the same way every protocol loop in this module treats an
// unexpected EOF as a transport failure.
func ReadExact(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	if err != nil {
		return xerrors.Errorf("packet: short read: %w", err)
	}
	return nil
}
