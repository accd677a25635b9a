package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestGameEntryJSONShape(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "A [0100000000010000].nsp")
	if err := os.WriteFile(path, make([]byte, 41896), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	l := NewListing(nil)
	if err := l.Add(path); err != nil {
		t.Fatalf("Add: %v", err)
	}
	g, ok := l.Get(ByTitleID("0100000000010000"))
	if !ok {
		t.Fatal("game not found")
	}

	entry, err := g.Entry()
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}

	b, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	for _, key := range []string{"id", "updateId", "size", "version", "mtime"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing JSON key %q", key)
		}
	}
	if string(m["id"]) != `"0100000000010000"` {
		t.Errorf("id = %s", m["id"])
	}
	if string(m["size"]) != "41896" {
		t.Errorf("size = %s", m["size"])
	}
}
