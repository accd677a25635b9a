package nsp

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildPFS0 writes a synthetic PFS0 container with the given entry
// names, padding each name's bytes into the string table in order.
func buildPFS0(t *testing.T, names []string) []byte {
	t.Helper()

	var buf bytes.Buffer

	var table bytes.Buffer
	offsets := make([]uint32, len(names))
	for i, n := range names {
		offsets[i] = uint32(table.Len())
		table.WriteString(n)
		table.WriteByte(0)
	}

	hdr := outerHeader{
		NumFiles:  uint32(len(names)),
		TableSize: uint32(table.Len()),
	}
	copy(hdr.Magic[:], magic)
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		t.Fatalf("write header: %v", err)
	}

	for i := range names {
		entry := fileEntry{TableOffset: offsets[i]}
		if err := binary.Write(&buf, binary.LittleEndian, &entry); err != nil {
			t.Fatalf("write entry: %v", err)
		}
	}

	if _, err := buf.Write(table.Bytes()); err != nil {
		t.Fatalf("write string table: %v", err)
	}

	return buf.Bytes()
}

func TestParseTitleIDFromTicket(t *testing.T) {
	raw := buildPFS0(t, []string{"0100ABCDEF123456.tik", "meta.cnmt.nca"})

	c, err := parse(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	id, err := c.TitleID()
	if err != nil {
		t.Fatalf("TitleID: %v", err)
	}
	if want := "0100ABCDEF123456"; id != want {
		t.Errorf("TitleID() = %q, want %q", id, want)
	}
}

func TestParseNoTicket(t *testing.T) {
	raw := buildPFS0(t, []string{"meta.cnmt.nca", "data.ncd"})

	c, err := parse(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := c.TitleID(); err != ErrNoTicket {
		t.Errorf("TitleID() err = %v, want ErrNoTicket", err)
	}
}

func TestParseMalformedHeader(t *testing.T) {
	_, err := parse(bytes.NewReader([]byte("NOT0\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")))
	if err != ErrMalformedHeader {
		t.Errorf("err = %v, want ErrMalformedHeader", err)
	}
}

func TestParseTrimsNullAndSpace(t *testing.T) {
	raw := buildPFS0(t, []string{"0100ABCDEF123456.tik "})

	c, err := parse(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, want := c.Names()[0], "0100ABCDEF123456.tik"; got != want {
		t.Errorf("Names()[0] = %q, want %q", got, want)
	}
}
