package catalog

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/xerrors"
)

// admittedExtensions is the fixed set of archive extensions the
// listing will scan; anything else is either skipped silently (during
// a directory scan) or rejected with ErrNotArchive (when added
// directly by path).
var admittedExtensions = map[string]bool{
	"nsp": true,
	"xci": true,
	"nsz": true,
	"nsx": true,
}

// ErrNotArchive is returned by Add when path names a file whose
// extension is not one of nsp/xci/nsz/nsx.
type ErrNotArchive struct {
	Path string
}

func (e *ErrNotArchive) Error() string {
	return fmt.Sprintf("catalog: not an archive: %s", e.Path)
}

// Listing is the catalogue of admitted archives, keyed by title ID,
// with a secondary file-path-to-id index. Every value in the
// secondary map is a key in the primary map — Add maintains this
// invariant on every insert or replace.
type Listing struct {
	mu     sync.RWMutex
	byID   map[string]*Game
	byPath map[string]string
	log    *log.Logger
}

// NewListing returns an empty Listing. logger receives one line per
// per-file scan error (archive failures are non-fatal and excluded
// from the listing, per the error-handling taxonomy).
func NewListing(logger *log.Logger) *Listing {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Listing{
		byID:   make(map[string]*Game),
		byPath: make(map[string]string),
		log:    logger,
	}
}

// Add admits path into the listing. If path is a directory, its
// top-level entries are scanned non-recursively; non-regular files
// and files with a non-admitted extension are skipped silently. If
// path is a single file, its extension must be admitted or Add
// returns ErrNotArchive. I/O errors while reading the directory are
// fatal to the call; per-file archive errors are logged and skipped.
func (l *Listing) Add(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return xerrors.Errorf("catalog: stat %s: %w", path, err)
	}

	if !fi.IsDir() {
		if !hasAdmittedExtension(path) {
			return &ErrNotArchive{Path: path}
		}
		return l.admit(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return xerrors.Errorf("catalog: readdir %s: %w", path, err)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		full := filepath.Join(path, entry.Name())
		if !hasAdmittedExtension(full) {
			continue
		}
		if err := l.admit(full); err != nil {
			l.log.Printf("catalog: skipping %s: %v", full, err)
		}
	}
	return nil
}

func hasAdmittedExtension(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return admittedExtensions[ext]
}

// admit scans one archive file and inserts or replaces it in the
// listing. The file-name secondary index is always updated, even when
// the title ID was already present under a different file name.
func (l *Listing) admit(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return xerrors.Errorf("catalog: abs %s: %w", path, err)
	}
	path = abs

	game, err := newGame(path)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.byID[game.Info.ID]; !ok || existing.Info != game.Info {
		g := game
		l.byID[game.Info.ID] = &g
	}
	l.byPath[path] = game.Info.ID

	return nil
}

// Key selects between a title-ID lookup and a file-name lookup in
// Get. Construct one with ByTitleID or ByFileName.
type Key struct {
	titleID  string
	fileName string
}

// ByTitleID builds a Key that looks a game up by its title ID.
func ByTitleID(id string) Key { return Key{titleID: id} }

// ByFileName builds a Key that looks a game up by its scanned file
// name, indirecting through the file-path secondary index.
func ByFileName(name string) Key { return Key{fileName: name} }

// Get resolves key against the listing, returning the matching game
// or false. A returned *Game stays valid after the read lock is
// released: games are replaced wholesale on rescan, never mutated in
// place.
func (l *Listing) Get(key Key) (*Game, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if key.fileName != "" {
		id, ok := l.byPath[key.fileName]
		if !ok {
			return nil, false
		}
		key = Key{titleID: id}
	}

	g, ok := l.byID[key.titleID]
	return g, ok
}

// IDMap returns a snapshot copy of the title-ID-to-game mapping,
// taken under a read lock.
func (l *Listing) IDMap() map[string]*Game {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]*Game, len(l.byID))
	for k, v := range l.byID {
		out[k] = v
	}
	return out
}

// Infos returns a snapshot of every admitted game's GameInfo, in no
// particular order — the shape Tinfoil's "search" query serializes.
func (l *Listing) Infos() []GameInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]GameInfo, 0, len(l.byID))
	for _, g := range l.byID {
		out = append(out, g.Info)
	}
	return out
}

// FileMap returns a snapshot copy of the file-path-to-id mapping,
// taken under a read lock.
func (l *Listing) FileMap() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]string, len(l.byPath))
	for k, v := range l.byPath {
		out[k] = v
	}
	return out
}

