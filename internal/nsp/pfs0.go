// Package nsp parses the PFS0 container format used by Switch game
// archives (.nsp, .xci, .nsz, .nsx) to extract the title ID recorded in
// the archive's ticket file name.
package nsp

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/xerrors"
)

const magic = "PFS0"

// outerHeaderSize is the fixed PFS0 header: magic(4) + n_files(4) +
// s_table_size(4) + padding(4).
const outerHeaderSize = 16

// fileEntrySize is the fixed per-file directory entry: data
// offset(8) + data size(8) + string-table offset(4) + reserved(4).
const fileEntrySize = 24

const ticketSuffix = ".tik"
const titleIDWidth = 16

// ErrMalformedHeader is returned when the leading 4 bytes are not "PFS0".
var ErrMalformedHeader = xerrors.New("nsp: malformed PFS0 header")

// ErrBadString is returned when a string-table slice is not valid UTF-8.
type ErrBadString struct {
	Raw []byte
}

func (e *ErrBadString) Error() string {
	return fmt.Sprintf("nsp: non-UTF-8 string table entry %q", e.Raw)
}

// ErrNoTicket is returned when a container has no .tik entry.
var ErrNoTicket = xerrors.New("nsp: missing ticket file")

type outerHeader struct {
	Magic       [4]byte
	NumFiles    uint32
	TableSize   uint32
	_           uint32
}

type fileEntry struct {
	Offset      uint64
	Size        uint64
	TableOffset uint32
	_           uint32
}

// Container is a parsed PFS0 directory: the extracted names of its
// file entries, in on-disk order.
type Container struct {
	names []string
}

// Parse reads and validates the PFS0 header, file table and string
// table of path, without reading any file payload.
func Parse(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("nsp: open: %w", err)
	}
	defer f.Close()
	return parse(f)
}

func parse(r io.Reader) (*Container, error) {
	var hdr outerHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, xerrors.Errorf("nsp: reading header: %w", err)
	}
	if string(hdr.Magic[:]) != magic {
		return nil, ErrMalformedHeader
	}

	entries := make([]fileEntry, hdr.NumFiles)
	if err := binary.Read(r, binary.LittleEndian, &entries); err != nil {
		return nil, xerrors.Errorf("nsp: reading file table: %w", err)
	}

	table := make([]byte, hdr.TableSize)
	if _, err := io.ReadFull(r, table); err != nil {
		return nil, xerrors.Errorf("nsp: reading string table: %w", err)
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		start := int(e.TableOffset)
		end := len(table)
		if i+1 < len(entries) {
			end = int(entries[i+1].TableOffset)
		}
		if start < 0 || end > len(table) || start > end {
			return nil, xerrors.Errorf("nsp: string table offset out of bounds for entry %d", i)
		}
		raw := table[start:end]
		if !utf8.Valid(raw) {
			return nil, &ErrBadString{Raw: raw}
		}
		names[i] = strings.Trim(string(raw), "\x00 ")
	}

	return &Container{names: names}, nil
}

// TitleID finds the first entry whose name ends with ".tik" and is at
// least 16 characters long, and returns the first 16 characters of its
// name, uppercased. Shorter ".tik" names are skipped.
func (c *Container) TitleID() (string, error) {
	for _, name := range c.names {
		if strings.HasSuffix(name, ticketSuffix) {
			if len(name) < titleIDWidth {
				continue
			}
			return strings.ToUpper(name[:titleIDWidth]), nil
		}
	}
	return "", ErrNoTicket
}

// Names returns the entry names in on-disk order (exported for tests
// and for CNMT-based extraction, a possible future option left
// unimplemented since the .cnmt.nca payload is encrypted).
func (c *Container) Names() []string {
	return c.names
}
