package catalog

import (
	"os"

	"golang.org/x/xerrors"
)

// GameEntry is the serialization view of a Game into the JSON shape
// Tinfoil expects. Every field besides id/updateId/size/mtime is
// emitted as null or its zero value (version included); see spec's open question on
// GameEntry key collisions — id/name/size/version map to four
// distinct JSON keys, and no other field collides with them.
type GameEntry struct {
	ID              string   `json:"id"`
	RightsID        *string  `json:"rightsId"`
	Name            *string  `json:"name"`
	IsDLC           bool     `json:"isDLC"`
	IsUpdate        bool     `json:"isUpdate"`
	IdExt           uint32   `json:"idExt"`
	UpdateID        *string  `json:"updateId"`
	Version         *string  `json:"version"`
	Key             *string  `json:"key"`
	IsDemo          *string  `json:"isDemo"`
	Region          *string  `json:"region"`
	Regions         *string  `json:"regions"`
	BaseID          string   `json:"baseId"`
	ReleaseDate     *string  `json:"releaseDate"`
	NsuID           *string  `json:"nsuId"`
	Category        *string  `json:"category"`
	RatingContent   *string  `json:"ratingContent"`
	NumberOfPlayers *uint32  `json:"numberOfPlayers"`
	Rating          *string  `json:"rating"`
	Developer       *string  `json:"developer"`
	Publisher       *string  `json:"publisher"`
	FrontBoxArt     *string  `json:"frontBoxArt"`
	IconURL         *string  `json:"iconUrl"`
	Screenshots     *string  `json:"screenshots"`
	BannerURL       *string  `json:"bannerUrl"`
	Intro           *string  `json:"intro"`
	Description     *string  `json:"description"`
	Size            uint64   `json:"size"`
	Rank            *string  `json:"rank"`
	Mtime           float64  `json:"mtime"`
}

// newGameEntry builds the plain GameEntry a Game serializes to: only
// id, updateId, size and mtime populated, matching source's
// GameEntry::plain_new — "don't support rich descriptions of custom
// nsps, I think just this is sufficient".
func newGameEntry(id string, size uint64, mtime float64) GameEntry {
	return GameEntry{
		ID:       id,
		UpdateID: &id,
		Size:     size,
		Mtime:    mtime,
	}
}

// entryFor builds the GameEntry for g, fetching mtime at
// serialization time (not cached) so deletion or modification
// surfaces immediately.
func entryFor(g *Game) (GameEntry, error) {
	fi, err := os.Stat(g.Path)
	if err != nil {
		return GameEntry{}, xerrors.Errorf("catalog: stat %s: %w", g.Path, err)
	}
	mtime := float64(fi.ModTime().UnixNano()) / 1e9
	return newGameEntry(g.Info.ID, g.Info.Size, mtime), nil
}
