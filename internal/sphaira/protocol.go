package sphaira

import (
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/xerrors"

	"github.com/frhop/frhopd/internal/catalog"
	"github.com/frhop/frhopd/internal/device"
	"github.com/frhop/frhopd/internal/packet"
)

const (
	cmdExit      = 0
	cmdFileRange = 1
)

// Session drives one Sphaira conversation: a one-shot listing push
// followed by a command loop of Exit/FileRange requests. A listing
// name is only ever served if it is an exact key in the listing's
// file map — the map is built entirely from paths this process itself
// admitted, so membership is the containment check: a request can
// never walk outside the scanned directories. rx/tx are interfaces
// rather than the concrete USB endpoint types so tests can drive
// Serve over an in-memory transport.
type Session struct {
	rx      io.Reader
	tx      device.Flusher
	listing *catalog.Listing
	log     *log.Logger

	currentFile string
}

// NewSession builds a Session bound to one claimed USB interface.
func NewSession(iface *device.Interface, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Session{rx: iface.Rx(), tx: iface.Tx(), listing: iface.Listing(), log: logger}
}

// Serve pushes the file listing once, then loops serving FileRange
// requests until Exit or a transport failure ends the session.
func (s *Session) Serve() error {
	if err := s.pushListing(); err != nil {
		return err
	}

	for {
		var raw [packet.Size32]byte
		if _, err := io.ReadFull(s.rx, raw[:]); err != nil {
			return xerrors.Errorf("sphaira: read command: %w", err)
		}
		cmd, err := packet.SphairaCmdFromRaw(raw[:])
		if err != nil {
			return xerrors.Errorf("sphaira: decode command: %w", err)
		}

		switch cmd.CmdID {
		case cmdExit:
			return nil
		case cmdFileRange:
			if err := s.handleFileRange(cmd); err != nil {
				if _, ok := err.(*rangeError); !ok {
					return err
				}
				s.log.Printf("sphaira: %v", err)
			}
		default:
			return &ErrUnknownCmd{CmdID: cmd.CmdID}
		}
	}
}

// buildListingPayload newline-terminates each file-map key, sorted for
// determinism, concatenated into a single payload.
func buildListingPayload(fileMap map[string]string) string {
	names := make([]string, 0, len(fileMap))
	for name := range fileMap {
		names = append(names, name)
	}
	sort.Strings(names)

	var payload strings.Builder
	for _, name := range names {
		payload.WriteString(name)
		payload.WriteByte('\n')
	}
	return payload.String()
}

func (s *Session) pushListing() error {
	body := buildListingPayload(s.listing.FileMap())

	header := packet.NewListResponse(uint32(len(body)))
	if _, err := s.tx.Write(header.Bytes()); err != nil {
		return xerrors.Errorf("sphaira: write list header: %w", err)
	}
	if err := s.tx.Flush(); err != nil {
		return xerrors.Errorf("sphaira: flush list header: %w", err)
	}
	if _, err := s.tx.Write([]byte(body)); err != nil {
		return xerrors.Errorf("sphaira: write list payload: %w", err)
	}
	return s.tx.Flush()
}

func (s *Session) handleFileRange(cmd packet.SphairaCmd) error {
	var rawRange [packet.FileRangeSize]byte
	if _, err := io.ReadFull(s.rx, rawRange[:]); err != nil {
		return xerrors.Errorf("sphaira: read file range header: %w", err)
	}
	fr, err := packet.FileRangeFromRaw(rawRange[:])
	if err != nil {
		return xerrors.Errorf("sphaira: decode file range header: %w", err)
	}

	nameBuf := make([]byte, fr.NameLen)
	if _, err := io.ReadFull(s.rx, nameBuf); err != nil {
		return xerrors.Errorf("sphaira: read file name: %w", err)
	}
	if !utf8.Valid(nameBuf) {
		return badFileName(xerrors.New("invalid utf-8"))
	}
	name := string(nameBuf)

	if _, ok := s.listing.FileMap()[name]; !ok {
		return fileNotListed(name)
	}

	if name != s.currentFile {
		s.log.Printf("sphaira: serving %s", name)
		s.currentFile = name
	}

	f, err := os.Open(name)
	if err != nil {
		return fileIOError(err)
	}
	defer f.Close()

	if _, err := f.Seek(int64(fr.RangeOffset), io.SeekStart); err != nil {
		return fileIOError(err)
	}

	respHeader := packet.NewSphairaCmd(cmdFileRange, cmd.DataSize)
	if _, err := s.tx.Write(respHeader.Bytes()); err != nil {
		return xerrors.Errorf("sphaira: write file range response header: %w", err)
	}

	r := io.LimitReader(f, int64(fr.RangeSize))
	for {
		status, err := device.WriteNextChunk(s.tx, r)
		if err != nil {
			return xerrors.Errorf("sphaira: write file range chunk: %w", err)
		}
		if status == device.End {
			return nil
		}
	}
}
