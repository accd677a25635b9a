package packet

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCommandRoundTrip(t *testing.T) {
	want := NewCommand(1, 12)
	got, err := CommandFromRaw(want.Bytes())
	if err != nil {
		t.Fatalf("CommandFromRaw: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandFromRawBadMagic(t *testing.T) {
	buf := NewCommand(1, 0).Bytes()
	buf[0] = 0x00
	if _, err := CommandFromRaw(buf); err != ErrBadMagic {
		t.Errorf("err = %v, want ErrBadMagic", err)
	}
}

func TestCommandFromRawWrongSize(t *testing.T) {
	if _, err := CommandFromRaw(make([]byte, 31)); err == nil {
		t.Error("expected error for short buffer")
	}
}

func TestSphairaCmdRoundTrip(t *testing.T) {
	want := NewSphairaCmd(1, 4<<20)
	got, err := SphairaCmdFromRaw(want.Bytes())
	if err != nil {
		t.Fatalf("SphairaCmdFromRaw: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSphairaCmdFromRawBadMagic(t *testing.T) {
	buf := NewSphairaCmd(0, 0).Bytes()
	buf[0] = 'X'
	if _, err := SphairaCmdFromRaw(buf); err != ErrBadMagic {
		t.Errorf("err = %v, want ErrBadMagic", err)
	}
}

func TestListResponseBytes(t *testing.T) {
	l := NewListResponse(6)
	raw := l.Bytes()
	if len(raw) != 16 {
		t.Fatalf("len = %d, want 16", len(raw))
	}
	if string(raw[0:4]) != "TUL0" {
		t.Errorf("magic = %q, want TUL0", raw[0:4])
	}
}

func TestFileRangeFromRaw(t *testing.T) {
	fr := FileRange{RangeSize: 100, RangeOffset: 200, NameLen: 5}
	// FileRange has no constructor with Bytes(); build the wire form by
	// hand to exercise the decode path independently.
	raw := make([]byte, FileRangeSize)
	for i, v := range []uint64{fr.RangeSize, fr.RangeOffset, fr.NameLen} {
		putUint64(raw[i*8:], v)
	}
	got, err := FileRangeFromRaw(raw)
	if err != nil {
		t.Fatalf("FileRangeFromRaw: %v", err)
	}
	if diff := cmp.Diff(fr, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
