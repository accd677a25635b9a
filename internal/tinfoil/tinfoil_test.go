package tinfoil

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/frhop/frhopd/internal/catalog"
	"github.com/frhop/frhopd/internal/device"
	"github.com/frhop/frhopd/internal/packet"
)

// fakeFlusher is an in-memory device.Flusher, standing in for a real
// *device.WriteEndpoint in end-to-end session tests.
type fakeFlusher struct {
	buf bytes.Buffer
}

func (f *fakeFlusher) Write(p []byte) (int, error) { return f.buf.Write(p) }
func (f *fakeFlusher) Flush() error                { return nil }

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// commandFrame encodes one Tinfoil Command packet (header + payload),
// the shape a connected device writes into the host's rx stream.
func commandFrame(payload string) []byte {
	header := packet.NewCommand(magicCmd, uint64(len(payload)))
	return append(header.Bytes(), []byte(payload)...)
}

func newTestListing(t *testing.T, name, content string) (*catalog.Listing, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	listing := catalog.NewListing(discardLogger())
	if err := listing.Add(dir); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return listing, path
}

// readResponse decodes one Command-framed response off buf, returning
// its payload.
func readResponse(t *testing.T, buf []byte) []byte {
	t.Helper()
	if len(buf) < packet.Size32 {
		t.Fatalf("response too short: %d bytes", len(buf))
	}
	cmd, err := packet.CommandFromRaw(buf[:packet.Size32])
	if err != nil {
		t.Fatalf("CommandFromRaw: %v", err)
	}
	return buf[packet.Size32 : packet.Size32+int(cmd.Size)]
}

func TestServeSearch(t *testing.T) {
	listing, _ := newTestListing(t, "Game [0100000000010000][v5].nsp", "0123456789")

	rx := bytes.NewReader(commandFrame("/api/search?"))
	tx := &fakeFlusher{}
	s := &Session{rx: rx, tx: tx, listing: listing, log: discardLogger()}

	if err := s.Serve(); err == nil {
		t.Fatal("expected Serve to end on rx exhaustion")
	}

	var got []catalog.GameInfo
	if err := json.Unmarshal(readResponse(t, tx.buf.Bytes()), &got); err != nil {
		t.Fatalf("unmarshal search response: %v", err)
	}
	if len(got) != 1 || got[0].ID != "0100000000010000" {
		t.Fatalf("search response = %+v, want one game with id 0100000000010000", got)
	}
}

func TestServeDownload(t *testing.T) {
	content := "0123456789"
	listing, _ := newTestListing(t, "Game [0100000000010000][v0].nsp", content)

	rx := bytes.NewReader(commandFrame("/api/download?/0100000000010000/0/10"))
	tx := &fakeFlusher{}
	s := &Session{rx: rx, tx: tx, listing: listing, log: discardLogger()}

	if err := s.Serve(); err == nil {
		t.Fatal("expected Serve to end on rx exhaustion")
	}

	buf := tx.buf.Bytes()
	if len(buf) < packet.Size32 {
		t.Fatalf("response too short: %d bytes", len(buf))
	}
	header, err := packet.CommandFromRaw(buf[:packet.Size32])
	if err != nil {
		t.Fatalf("CommandFromRaw: %v", err)
	}
	if header.Size != device.ChunkSize {
		t.Errorf("frame header size = %d, want %d (a chunk header always announces a full chunk)", header.Size, uint64(device.ChunkSize))
	}
	got := string(buf[packet.Size32:])
	if got != content {
		t.Errorf("download payload = %q, want %q", got, content)
	}
}

func TestServeBadRange(t *testing.T) {
	listing, _ := newTestListing(t, "Game [0100000000010000][v0].nsp", "0123456789")

	rx := bytes.NewReader(commandFrame("/api/download?/0100000000010000/500/100"))
	tx := &fakeFlusher{}
	s := &Session{rx: rx, tx: tx, listing: listing, log: discardLogger()}

	if err := s.Serve(); err == nil {
		t.Fatal("expected Serve to end on rx exhaustion")
	}

	var got statusResponse
	if err := json.Unmarshal(readResponse(t, tx.buf.Bytes()), &got); err != nil {
		t.Fatalf("unmarshal status response: %v", err)
	}
	want := statusResponse{Success: false, Message: "bad download range"}
	if got != want {
		t.Errorf("status response = %+v, want %+v", got, want)
	}
}
