package tmdb

import (
	"context"
	"fmt"

	"github.com/Digital-Shane/vlc-presence/internal/provider"
	"github.com/Digital-Shane/vlc-presence/internal/provider/local"
	"github.com/ryanbradynd05/go-tmdb"
)

// Resolve looks the query up on TMDB. The first search result always wins.
// Every failure, including transport errors, satisfies
// errors.Is(err, provider.ErrNotFound).
func (p *Provider) Resolve(ctx context.Context, query local.ParsedQuery) (provider.MediaRecord, error) {
	if p.client == nil {
		return nil, provider.NotFound(providerName, "provider not configured", nil)
	}

	req := query.CatalogQuery()
	switch req.Kind {
	case provider.MediaTypeShow:
		return p.resolveEpisode(ctx, req)
	default:
		return p.resolveMovie(ctx, req.Text)
	}
}

// resolveMovie runs search, genre list and movie detail lookups in order
func (p *Provider) resolveMovie(ctx context.Context, text string) (provider.MediaRecord, error) {
	options := p.options()

	if err := p.rateLimiter.wait(ctx); err != nil {
		return nil, p.mapError("movie search", err)
	}
	results, err := p.client.SearchMovie(text, options)
	if err != nil {
		return nil, p.mapError("movie search", err)
	}
	if results == nil || len(results.Results) == 0 {
		return nil, provider.NotFound(providerName, fmt.Sprintf("no results found for movie: %s", text), nil)
	}

	// Take the first result
	movie := results.Results[0]

	if err := p.rateLimiter.wait(ctx); err != nil {
		return nil, p.mapError("genre list", err)
	}
	genreList, err := p.client.GetMovieGenres(options)
	if err != nil {
		return nil, p.mapError("genre list", err)
	}

	if err := p.rateLimiter.wait(ctx); err != nil {
		return nil, p.mapError("movie detail", err)
	}
	detail, err := p.client.GetMovieInfo(movie.ID, options)
	if err != nil {
		return nil, p.mapError("movie detail", err)
	}

	externalID := ""
	if detail != nil {
		externalID = detail.ImdbID
	}

	p.logger.Debug().Str("query", text).Int("tmdb_id", movie.ID).Str("title", movie.Title).Msg("Resolved movie")

	return provider.Movie{
		Title:      movie.Title,
		Genres:     genreNames(movie.GenreIDs, genreList),
		PosterPath: movie.PosterPath,
		CatalogID:  movie.ID,
		ExternalID: externalID,
		Year:       yearOf(movie.ReleaseDate),
	}, nil
}

// resolveEpisode runs show search, episode and show detail lookups in order
func (p *Provider) resolveEpisode(ctx context.Context, req local.CatalogQuery) (provider.MediaRecord, error) {
	options := p.options()
	text := req.Text

	if err := p.rateLimiter.wait(ctx); err != nil {
		return nil, p.mapError("show search", err)
	}
	results, err := p.client.SearchTv(text, options)
	if err != nil {
		return nil, p.mapError("show search", err)
	}
	if results == nil || len(results.Results) == 0 {
		return nil, provider.NotFound(providerName, fmt.Sprintf("no results found for show: %s", text), nil)
	}

	// Take the first result
	show := results.Results[0]

	if err := p.rateLimiter.wait(ctx); err != nil {
		return nil, p.mapError("episode lookup", err)
	}
	episode, err := p.client.GetTvEpisodeInfo(show.ID, int(req.Season), int(req.Episode), options)
	if err != nil {
		return nil, p.mapError("episode lookup", err)
	}

	// An unnamed episode is fine, the show title stands in for it
	episodeTitle := ""
	if episode != nil {
		episodeTitle = episode.Name
	}

	if err := p.rateLimiter.wait(ctx); err != nil {
		return nil, p.mapError("show detail", err)
	}
	detailOptions := p.options()
	detailOptions["append_to_response"] = "external_ids"
	detail, err := p.client.GetTvInfo(show.ID, detailOptions)
	if err != nil {
		return nil, p.mapError("show detail", err)
	}

	externalID := ""
	if detail != nil && detail.ExternalIDs != nil {
		externalID = detail.ExternalIDs.ImdbID
	}

	p.logger.Debug().
		Str("query", text).
		Int("tmdb_id", show.ID).
		Str("show", show.Name).
		Uint("season", req.Season).
		Uint("episode", req.Episode).
		Msg("Resolved episode")

	return provider.Episode{
		ShowTitle:    show.Name,
		EpisodeTitle: episodeTitle,
		Season:       req.Season,
		Episode:      req.Episode,
		PosterPath:   show.PosterPath,
		CatalogID:    show.ID,
		ExternalID:   externalID,
		Year:         yearOf(show.FirstAirDate),
	}, nil
}

// genreNames maps genre ids to names in id order. Unknown ids are dropped.
func genreNames[T ~int | ~int32 | ~int64](ids []T, list *tmdb.Genre) []string {
	names := make([]string, 0, len(ids))
	if list == nil {
		return names
	}

	byID := make(map[int64]string, len(list.Genres))
	for _, g := range list.Genres {
		byID[int64(g.ID)] = g.Name
	}

	for _, id := range ids {
		if name, ok := byID[int64(id)]; ok {
			names = append(names, name)
		}
	}
	return names
}

func yearOf(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return ""
}
