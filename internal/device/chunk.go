//go:build linux

package device

import (
	"io"

	"golang.org/x/xerrors"
)

// ChunkSize is the fixed frame size used by the chunked file streamer,
// matching the write endpoint's buffer size.
const ChunkSize = 4 << 20 // 4 MiB

// ChunkStatus reports whether a chunk writer has more data to send.
type ChunkStatus int

const (
	// Remaining means a full ChunkSize chunk went out; more may follow.
	Remaining ChunkStatus = iota
	// End means fewer than ChunkSize bytes went out; the stream ended.
	End
)

// Flusher is the write side the chunk writer needs: buffered writes
// that must be explicitly pushed to the wire. *WriteEndpoint satisfies
// this, as does any bufio.Writer-backed fake used in tests.
type Flusher interface {
	io.Writer
	Flush() error
}

// WriteNextChunk copies up to ChunkSize bytes from r into tx. A short
// copy (fewer than ChunkSize bytes, including io.EOF with zero bytes)
// flushes the endpoint and reports End; a full chunk reports Remaining
// without flushing. The write buffer is exactly one chunk, so the full
// chunk stays buffered until the next write into the endpoint pushes
// it out as one transfer (or a later Flush does).
func WriteNextChunk(tx Flusher, r io.Reader) (ChunkStatus, error) {
	n, err := io.CopyN(tx, r, ChunkSize)
	if err != nil && err != io.EOF {
		return End, xerrors.Errorf("device: write chunk: %w", err)
	}
	if n < ChunkSize {
		if ferr := tx.Flush(); ferr != nil {
			return End, xerrors.Errorf("device: flush final chunk: %w", ferr)
		}
		return End, nil
	}
	return Remaining, nil
}
