package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestListingAddFromName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Zelda [0100000000010000][v0].nsp", 42)

	l := NewListing(nil)
	if err := l.Add(dir); err != nil {
		t.Fatalf("Add: %v", err)
	}

	g, ok := l.Get(ByTitleID("0100000000010000"))
	if !ok {
		t.Fatal("game not found")
	}
	if g.Info.Version != "0" {
		t.Errorf("Version = %q, want %q", g.Info.Version, "0")
	}
}

func TestListingSkipsNonArchiveAndBadNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "readme.txt", 1)
	writeFile(t, dir, "nogoodname.nsp", 1)
	writeFile(t, dir, "Mario [0100ABCDEF123456].nsp", 10)

	l := NewListing(nil)
	if err := l.Add(dir); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, ok := l.Get(ByTitleID("0100ABCDEF123456")); !ok {
		t.Error("expected valid archive to be admitted")
	}
	if len(l.IDMap()) != 1 {
		t.Errorf("IDMap len = %d, want 1", len(l.IDMap()))
	}
}

func TestListingAddSingleFileRejectsNonArchive(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "readme.txt", 1)

	l := NewListing(nil)
	err := l.Add(path)
	if _, ok := err.(*ErrNotArchive); !ok {
		t.Errorf("err = %v (%T), want *ErrNotArchive", err, err)
	}
}

func TestListingInvariantFileMapKeysResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "A [0100000000010000].nsp", 1)
	writeFile(t, dir, "B [0100000000020000].nsp", 1)

	l := NewListing(nil)
	if err := l.Add(dir); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ids := l.IDMap()
	for path, id := range l.FileMap() {
		g, ok := ids[id]
		if !ok {
			t.Fatalf("file map id %q not present in id map", id)
		}
		if g.Path != path {
			t.Errorf("id map path %q != file map key %q", g.Path, path)
		}
	}
}

func TestListingReplaceOnRescanDifference(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "A [0100000000010000].nsp", 1)

	l := NewListing(nil)
	if err := l.Add(path); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Grow the file so GameInfo.Size differs, then re-admit.
	if err := os.WriteFile(path, make([]byte, 99), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := l.Add(path); err != nil {
		t.Fatalf("Add (rescan): %v", err)
	}

	g, ok := l.Get(ByTitleID("0100000000010000"))
	if !ok {
		t.Fatal("game missing after rescan")
	}
	if g.Info.Size != 99 {
		t.Errorf("Size = %d, want 99 after replace", g.Info.Size)
	}
}

func TestListingGetByFileName(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "A [0100000000010000].nsp", 1)

	l := NewListing(nil)
	if err := l.Add(path); err != nil {
		t.Fatalf("Add: %v", err)
	}

	g, ok := l.Get(ByFileName(path))
	if !ok {
		t.Fatal("expected lookup by file name to succeed")
	}
	if g.Info.ID != "0100000000010000" {
		t.Errorf("ID = %q", g.Info.ID)
	}
}
