package wav

import (
	"os"

	"github.com/dhowden/tag"

	"fpengine/apperr"
)

// Metadata is the subset of embedded tag fields ingestion uses to fill
// in a Track's title/artist/album when the caller didn't supply them.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// GetMetadata reads ID3/MP4/FLAC/Ogg tags from an audio file. Ingestion
// treats a read failure as informational, not fatal — plenty of
// legitimately ingestible audio carries no tags at all.
func GetMetadata(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, apperr.Wrap(apperr.DecodeFailure, "failed to open file for tag read", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return Metadata{}, apperr.Wrap(apperr.DecodeFailure, "no readable tags", err)
	}

	return Metadata{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
	}, nil
}
