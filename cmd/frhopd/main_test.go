package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLogicRejectsNoArgs(t *testing.T) {
	if err := logic(nil, false); err == nil {
		t.Fatal("expected error for empty args")
	}
}

func TestLogicRejectsEmptyListing(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not an archive"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := logic([]string{dir}, false); err == nil {
		t.Fatal("expected error when no archives were admitted")
	}
}
