package omdb

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Digital-Shane/omdb"
	"github.com/Digital-Shane/vlc-presence/internal/provider"
	"github.com/rs/zerolog"
)

const providerName = "omdb"

// ErrMissingAPIKey is returned by New when no key is configured
var ErrMissingAPIKey = errors.New("omdb api key is required")

// Linker backfills IMDb ids that TMDB did not return
type Linker struct {
	client *omdb.Client
	logger zerolog.Logger
}

// New creates a Linker. A nil httpClient gets a 10 second timeout client.
func New(apiKey string, httpClient *http.Client, logger zerolog.Logger) (*Linker, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Linker{
		client: omdb.NewClient(apiKey, httpClient),
		logger: logger.With().Str("component", providerName).Logger(),
	}, nil
}

// Backfill returns rec with ExternalID filled from OMDb when it was empty.
// Lookup failures are logged and rec is returned unchanged.
func (l *Linker) Backfill(ctx context.Context, rec provider.MediaRecord) provider.MediaRecord {
	if l == nil || rec == nil || ctx.Err() != nil {
		return rec
	}

	switch r := rec.(type) {
	case provider.Movie:
		if r.ExternalID != "" {
			return rec
		}
		id, err := l.lookup(r.Title, r.Year, "movie")
		if err != nil {
			l.logFailure(r.Title, err)
			return rec
		}
		r.ExternalID = id
		return r
	case provider.Episode:
		if r.ExternalID != "" {
			return rec
		}
		id, err := l.lookup(r.ShowTitle, r.Year, "series")
		if err != nil {
			l.logFailure(r.ShowTitle, err)
			return rec
		}
		r.ExternalID = id
		return r
	default:
		return rec
	}
}

func (l *Linker) lookup(title, year, searchType string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeInvalidRequest,
			Message:  "title search requires a title",
		}
	}

	result, err := l.client.SearchByTitle(omdb.QueryData{
		Title:      title,
		Year:       year,
		SearchType: searchType,
	})
	if err != nil {
		return "", mapError(err)
	}

	var id string
	switch res := result.(type) {
	case omdb.MovieResult:
		id = res.ImdbID
	case *omdb.MovieResult:
		id = res.ImdbID
	case omdb.SeriesResult:
		id = res.ImdbID
	case *omdb.SeriesResult:
		id = res.ImdbID
	}
	if id == "" {
		return "", provider.NotFound(providerName, searchType+" not found", nil)
	}
	return id, nil
}

func (l *Linker) logFailure(title string, err error) {
	code := provider.CodeUnknown
	var perr *provider.ProviderError
	if errors.As(err, &perr) {
		code = perr.Code
	}
	l.logger.Debug().Err(err).Str("title", title).Str("code", code).Msg("OMDb backfill skipped")
}

func mapError(err error) error {
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "invalid api key"), strings.Contains(lower, "missing omdb api key"):
		return &provider.ProviderError{Provider: providerName, Code: provider.CodeAuthFailed, Message: "OMDb authentication failed: " + msg, Err: err}
	case strings.Contains(lower, "not found"):
		return provider.NotFound(providerName, msg, err)
	case strings.Contains(lower, "limit reached"), strings.Contains(lower, "too many requests"):
		return &provider.ProviderError{Provider: providerName, Code: provider.CodeRateLimited, Message: msg, Err: err}
	case strings.Contains(lower, "503"), strings.Contains(lower, "unavailable"):
		return &provider.ProviderError{Provider: providerName, Code: provider.CodeUnavailable, Message: "OMDb unavailable: " + msg, Err: err}
	default:
		return &provider.ProviderError{Provider: providerName, Code: provider.CodeUnknown, Message: msg, Err: err}
	}
}
