package catalog

// Game is a GameInfo plus the absolute file path it was scanned from.
// A Game is created during a listing scan and never mutated in
// place — a rescan that observes a different GameInfo for the same
// title ID replaces the Game wholesale.
type Game struct {
	Info GameInfo
	Path string
}

// newGame scans path and builds the Game it describes.
func newGame(path string) (Game, error) {
	info, err := newGameInfo(path)
	if err != nil {
		return Game{}, err
	}
	return Game{Info: info, Path: path}, nil
}

// Size is a convenience accessor used by the download handler's range
// default.
func (g *Game) Size() uint64 {
	return g.Info.Size
}

// Entry builds the Tinfoil GameEntry view of g, fetching the file's
// current modification time.
func (g *Game) Entry() (GameEntry, error) {
	return entryFor(g)
}
