package catalog

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/xerrors"

	"github.com/frhop/frhopd/internal/nsp"
)

// titleIDPattern documents the practical shape of a title ID; it is
// not enforced as a hard validation, matching spec: "Invariant: title
// ID matches this pattern in practice."
var titleIDPattern = regexp.MustCompile(`^[0-9A-Za-z]{6,16}$`)

// GameInfo is immutable metadata for one archive.
type GameInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Size    uint64 `json:"size"`
	Version string `json:"version"`
}

// ErrMalformedName is returned when a path has no usable base name.
var ErrMalformedName = xerrors.New("catalog: malformed file name")

// ErrBadNameFormat is returned when filename-based extraction finds
// no bracketed token of plausible title-ID length.
type ErrBadNameFormat struct {
	Path string
}

func (e *ErrBadNameFormat) Error() string {
	return "catalog: no title id found in file name: " + e.Path
}

type extracted struct {
	titleID string
	version string
}

// IsPlausibleTitleID reports whether id matches the shape a real
// Switch title ID has in practice (6-16 alphanumeric characters). It
// is advisory only; nothing in this package rejects an id that fails
// it.
func IsPlausibleTitleID(id string) bool {
	return titleIDPattern.MatchString(id)
}

// newGameInfo builds a GameInfo for path, trying filename extraction
// first and falling back to the PFS0 parser.
func newGameInfo(path string) (GameInfo, error) {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return GameInfo{}, ErrMalformedName
	}

	ex, err := extractFromName(base)
	if err != nil {
		ex, err = extractFromArchive(path)
		if err != nil {
			return GameInfo{}, err
		}
	}

	fi, err := os.Stat(path)
	if err != nil {
		return GameInfo{}, xerrors.Errorf("catalog: stat %s: %w", path, err)
	}

	return GameInfo{
		ID:      ex.titleID,
		Name:    base,
		Size:    uint64(fi.Size()),
		Version: ex.version,
	}, nil
}

// extractFromName scans name for bracketed tokens (e.g.
// "Zelda [0100000000010000][v0].nsp"); the version is the first token
// starting with 'v' (prefix stripped), defaulting to "0"; the title
// ID is the first remaining token of length 6-16.
func extractFromName(name string) (extracted, error) {
	var tokens []string
	start := -1
	for i, c := range name {
		switch c {
		case '[':
			start = i + 1
		case ']':
			if start >= 0 {
				tokens = append(tokens, name[start:i])
				start = -1
			}
		}
	}

	version := "0"
	for _, tok := range tokens {
		if strings.HasPrefix(tok, "v") {
			version = strings.TrimPrefix(tok, "v")
			break
		}
	}

	for _, tok := range tokens {
		if strings.HasPrefix(tok, "v") {
			continue
		}
		if l := len(tok); l >= 6 && l <= 16 {
			return extracted{titleID: tok, version: version}, nil
		}
	}

	return extracted{}, &ErrBadNameFormat{Path: name}
}

// extractFromArchive falls back to parsing the PFS0 container for a
// ticket-derived title ID; no version information is available this
// way, so it defaults to "0".
func extractFromArchive(path string) (extracted, error) {
	c, err := nsp.Parse(path)
	if err != nil {
		return extracted{}, xerrors.Errorf("catalog: nsp fallback: %w", err)
	}
	id, err := c.TitleID()
	if err != nil {
		return extracted{}, xerrors.Errorf("catalog: nsp fallback: %w", err)
	}
	return extracted{titleID: id, version: "0"}, nil
}
