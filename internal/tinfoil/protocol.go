package tinfoil

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"unicode/utf8"

	"golang.org/x/xerrors"

	"github.com/frhop/frhopd/internal/catalog"
	"github.com/frhop/frhopd/internal/device"
	"github.com/frhop/frhopd/internal/packet"
)

const magicCmd = 1

// ErrUnknownCmd is a transport failure: the header's cmd field was not
// the one Tinfoil query packets always carry.
var ErrUnknownCmd = xerrors.New("tinfoil: unknown cmd")

// ErrCorruptedCmd is a transport failure: the query payload was not
// valid UTF-8.
var ErrCorruptedCmd = xerrors.New("tinfoil: corrupted cmd payload")

// Session drives one Tinfoil ping-pong conversation with a single
// connected device. States cycle AwaitCommand -> AwaitPayload ->
// Dispatch -> Respond -> AwaitCommand; the cycle ends only on a
// transport failure or device disconnect, both surfaced as a plain
// error from Serve. rx/tx are interfaces rather than the concrete USB
// endpoint types so tests can drive Serve over an in-memory transport.
type Session struct {
	rx      io.Reader
	tx      device.Flusher
	listing *catalog.Listing
	log     *log.Logger
}

// NewSession builds a Session bound to one claimed USB interface.
func NewSession(iface *device.Interface, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Session{rx: iface.Rx(), tx: iface.Tx(), listing: iface.Listing(), log: logger}
}

// Serve runs the session loop until a transport failure or disconnect
// ends it. Query failures are handled internally and never returned.
func (s *Session) Serve() error {
	for {
		query, err := s.awaitCommand()
		if err != nil {
			return err
		}

		if err := s.dispatch(query); err != nil {
			if qerr, ok := err.(*QueryError); ok {
				if werr := s.respondError(qerr); werr != nil {
					return werr
				}
				continue
			}
			return err
		}
	}
}

// awaitCommand reads the 32-byte Command header and its payload,
// returning the decoded query string.
func (s *Session) awaitCommand() (string, error) {
	var header [packet.Size32]byte
	if _, err := io.ReadFull(s.rx, header[:]); err != nil {
		return "", xerrors.Errorf("tinfoil: read command header: %w", err)
	}
	cmd, err := packet.CommandFromRaw(header[:])
	if err != nil {
		return "", xerrors.Errorf("tinfoil: decode command header: %w", err)
	}
	if cmd.Cmd != magicCmd {
		return "", xerrors.Errorf("%w: got %d", ErrUnknownCmd, cmd.Cmd)
	}

	payload := make([]byte, cmd.Size)
	if _, err := io.ReadFull(s.rx, payload); err != nil {
		return "", xerrors.Errorf("tinfoil: read command payload: %w", err)
	}
	if !utf8.Valid(payload) {
		return "", ErrCorruptedCmd
	}
	return string(payload), nil
}

// dispatch parses and routes one query, writing its response. A
// *QueryError return is recoverable; any other error is a transport
// failure.
func (s *Session) dispatch(raw string) error {
	q, qerr := parseQuery(raw)
	if qerr != nil {
		return qerr
	}
	if q.endpoint != "api" {
		return unsupportedEndpoint(q.endpoint)
	}

	switch q.reqType {
	case "queue":
		return s.writeJSON([]byte("[]"))
	case "search":
		return s.handleSearch()
	case "info":
		return s.handleInfo(q.rest)
	case "download":
		return s.handleDownload(q.rest)
	default:
		return unsupportedCmd(raw)
	}
}

func (s *Session) handleSearch() error {
	infos := s.listing.Infos()
	b, err := json.Marshal(infos)
	if err != nil {
		return xerrors.Errorf("tinfoil: marshal search response: %w", err)
	}
	return s.writeJSON(b)
}

func (s *Session) handleInfo(rest string) error {
	if rest == "" {
		return noIDInfoQuery()
	}
	id := firstSegment(rest)
	g, ok := s.listing.Get(catalog.ByTitleID(id))
	if !ok {
		return gameNotFound(id)
	}
	entry, err := g.Entry()
	if err != nil {
		return fileRead(err)
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return xerrors.Errorf("tinfoil: marshal info response: %w", err)
	}
	return s.writeJSON(b)
}

func (s *Session) handleDownload(rest string) error {
	g, ok := s.listing.Get(catalog.ByTitleID(firstSegment(rest)))
	if !ok {
		return gameNotFound(firstSegment(rest))
	}

	_, start, end, qerr := parseDownloadArgs(rest, g.Size())
	if qerr != nil {
		return qerr
	}
	if start > end {
		return badRange(start, end)
	}

	f, err := os.Open(g.Path)
	if err != nil {
		return fileRead(err)
	}
	defer f.Close()

	if _, err := f.Seek(int64(start), io.SeekStart); err != nil {
		return fileRead(err)
	}

	r := io.LimitReader(f, int64(end-start))
	for {
		header := packet.NewCommand(magicCmd, device.ChunkSize)
		if _, err := s.tx.Write(header.Bytes()); err != nil {
			return xerrors.Errorf("tinfoil: write download frame header: %w", err)
		}
		status, err := device.WriteNextChunk(s.tx, r)
		if err != nil {
			return xerrors.Errorf("tinfoil: write download chunk: %w", err)
		}
		if status == device.End {
			return nil
		}
	}
}

func (s *Session) writeJSON(payload []byte) error {
	header := packet.NewCommand(magicCmd, uint64(len(payload)))
	if _, err := s.tx.Write(header.Bytes()); err != nil {
		return xerrors.Errorf("tinfoil: write response header: %w", err)
	}
	if _, err := s.tx.Write(payload); err != nil {
		return xerrors.Errorf("tinfoil: write response payload: %w", err)
	}
	return s.tx.Flush()
}

func (s *Session) respondError(qerr *QueryError) error {
	s.log.Printf("tinfoil: query error: %v", qerr)
	b, err := json.Marshal(statusResponse{Success: false, Message: qerr.Message})
	if err != nil {
		return xerrors.Errorf("tinfoil: marshal status response: %w", err)
	}
	return s.writeJSON(b)
}
