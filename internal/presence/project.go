package presence

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Digital-Shane/vlc-presence/internal/provider"
)

const (
	DefaultArtworkBase = "https://image.tmdb.org/t/p/w500"
	DefaultSiteBase    = "https://www.themoviedb.org"
	DefaultImdbBase    = "https://www.imdb.com/title"
	DefaultPlaceholder = "vlc"
)

// Link is a labelled button shown under the activity
type Link struct {
	Label string
	URL   string
}

// Payload is what gets pushed to the presence service for one record
type Payload struct {
	Title         string
	Subtitle      string
	ImageKey      string
	PrimaryLink   Link
	SecondaryLink *Link
}

// Links returns the payload links in display order
func (p Payload) Links() []Link {
	links := []Link{p.PrimaryLink}
	if p.SecondaryLink != nil {
		links = append(links, *p.SecondaryLink)
	}
	return links
}

// Projector turns resolved records into presence payloads
type Projector struct {
	ArtworkBase string
	SiteBase    string
	ImdbBase    string
	Placeholder string
}

// NewProjector returns a Projector with the public TMDB and IMDb bases.
// An empty placeholder falls back to DefaultPlaceholder.
func NewProjector(placeholder string) Projector {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return Projector{
		ArtworkBase: DefaultArtworkBase,
		SiteBase:    DefaultSiteBase,
		ImdbBase:    DefaultImdbBase,
		Placeholder: placeholder,
	}
}

// Project builds the payload for rec
func (p Projector) Project(rec provider.MediaRecord) Payload {
	switch r := rec.(type) {
	case provider.Movie:
		subtitle := ""
		if len(r.Genres) > 0 {
			subtitle = "Genres: " + strings.Join(r.Genres, ", ")
		}
		return Payload{
			Title:         r.Title,
			Subtitle:      subtitle,
			ImageKey:      p.image(r.PosterPath),
			PrimaryLink:   p.catalogLink("movie", r.CatalogID),
			SecondaryLink: p.imdbLink(r.ExternalID),
		}
	case provider.Episode:
		title := r.EpisodeTitle
		if title == "" {
			title = r.ShowTitle
		}
		return Payload{
			Title:         title,
			Subtitle:      fmt.Sprintf("%s S%02d:E%02d", r.ShowTitle, r.Season, r.Episode),
			ImageKey:      p.image(r.PosterPath),
			PrimaryLink:   p.catalogLink("tv", r.CatalogID),
			SecondaryLink: p.imdbLink(r.ExternalID),
		}
	default:
		return Payload{ImageKey: p.Placeholder, PrimaryLink: Link{Label: "TMDB", URL: p.SiteBase}}
	}
}

func (p Projector) image(posterPath string) string {
	if posterPath == "" {
		return p.Placeholder
	}
	return p.ArtworkBase + posterPath
}

func (p Projector) catalogLink(kind string, id int) Link {
	return Link{
		Label: "TMDB",
		URL:   p.SiteBase + "/" + kind + "/" + strconv.Itoa(id),
	}
}

func (p Projector) imdbLink(externalID string) *Link {
	if externalID == "" {
		return nil
	}
	return &Link{
		Label: "IMDB",
		URL:   p.ImdbBase + "/" + externalID + "/",
	}
}
