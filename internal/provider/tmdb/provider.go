package tmdb

import (
	"errors"
	"strings"
	"time"

	"github.com/Digital-Shane/vlc-presence/internal/provider"
	"github.com/rs/zerolog"
	"github.com/ryanbradynd05/go-tmdb"
)

const (
	providerName = "tmdb"

	defaultLanguage = "en-US"
)

// ErrInvalidAPIKey is returned by New when no API key is configured
var ErrInvalidAPIKey = errors.New("tmdb api key is required")

// Provider resolves normalized player titles against TMDB
type Provider struct {
	client      TMDBClient
	language    string
	rateLimiter *rateLimiter
	logger      zerolog.Logger
}

// TMDBClient interface for testing (matches *tmdb.TMDb exactly)
type TMDBClient interface {
	SearchMovie(name string, options map[string]string) (*tmdb.MovieSearchResults, error)
	SearchTv(name string, options map[string]string) (*tmdb.TvSearchResults, error)
	GetMovieGenres(options map[string]string) (*tmdb.Genre, error)
	GetMovieInfo(id int, options map[string]string) (*tmdb.Movie, error)
	GetTvInfo(id int, options map[string]string) (*tmdb.TV, error)
	GetTvEpisodeInfo(showID, seasonNum, episodeNum int, options map[string]string) (*tmdb.TvEpisode, error)
}

// New creates a TMDB provider using the v3 API key
func New(apiKey, language string, logger zerolog.Logger) (*Provider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}
	if language == "" {
		language = defaultLanguage
	}

	client := tmdb.Init(tmdb.Config{
		APIKey:   apiKey,
		Proxies:  nil,
		UseProxy: false,
	})

	return &Provider{
		client:      client,
		language:    language,
		rateLimiter: newRateLimiter(38, 10*time.Second), // 38 requests per 10 seconds
		logger:      logger.With().Str("component", providerName).Logger(),
	}, nil
}

// SetClient replaces the underlying TMDB client
func (p *Provider) SetClient(client TMDBClient) {
	p.client = client
}

// mapError turns any lookup failure into a NOT_FOUND provider error. The
// message keeps the classified cause so logs can tell outages from misses.
func (p *Provider) mapError(step string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, provider.ErrNotFound) {
		return err
	}

	errStr := strings.ToLower(err.Error())
	reason := "TMDB error"
	switch {
	case strings.Contains(errStr, "401") || strings.Contains(errStr, "unauthorized"):
		reason = "TMDB authentication failed"
	case strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit"):
		reason = "TMDB rate limit exceeded"
	case strings.Contains(errStr, "503") || strings.Contains(errStr, "unavailable"):
		reason = "TMDB service unavailable"
	}

	return provider.NotFound(providerName, reason+" during "+step+": "+err.Error(), err)
}

func (p *Provider) options() map[string]string {
	return map[string]string{
		"language": p.language,
	}
}
