package local

import (
	"fmt"

	"github.com/Digital-Shane/vlc-presence/internal/provider"
)

// EpisodeMarker is the season and episode parsed from an S##E## marker
type EpisodeMarker struct {
	Season  uint
	Episode uint
}

// String formats the marker the way it appears in release names
func (m EpisodeMarker) String() string {
	return fmt.Sprintf("S%02dE%02d", m.Season, m.Episode)
}

// ParsedQuery is the normalized form of a raw player title
type ParsedQuery struct {
	CleanedText string
	Episode     *EpisodeMarker // nil for the movie path
}

// CatalogQuery is the request shape handed to a catalog
type CatalogQuery struct {
	Text    string
	Kind    provider.MediaType // MediaTypeMovie or MediaTypeShow
	Season  uint
	Episode uint
}

// CatalogQuery derives the catalog request for this query.
func (q ParsedQuery) CatalogQuery() CatalogQuery {
	if q.Episode == nil {
		return CatalogQuery{Text: q.CleanedText, Kind: provider.MediaTypeMovie}
	}
	return CatalogQuery{
		Text:    q.CleanedText,
		Kind:    provider.MediaTypeShow,
		Season:  q.Episode.Season,
		Episode: q.Episode.Episode,
	}
}
