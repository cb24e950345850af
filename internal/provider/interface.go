package provider

import (
	"errors"
)

// MediaType represents the type of media content
type MediaType string

const (
	MediaTypeMovie   MediaType = "movie"
	MediaTypeShow    MediaType = "show"
	MediaTypeEpisode MediaType = "episode"
)

// MediaRecord is a resolved catalog entry. It is either a Movie or an Episode.
type MediaRecord interface {
	MediaType() MediaType
	record()
}

// Movie is a catalog movie resolved from a player title
type Movie struct {
	Title      string
	Genres     []string // ordered as the catalog returned the genre ids
	PosterPath string   // empty when the catalog has no artwork
	CatalogID  int
	ExternalID string // IMDb id, empty when unknown
	Year       string
}

// Episode is a single TV episode resolved from a player title
type Episode struct {
	ShowTitle    string
	EpisodeTitle string // may be empty, the projector falls back to ShowTitle
	Season       uint
	Episode      uint
	PosterPath   string
	CatalogID    int // the show's catalog id
	ExternalID   string
	Year         string
}

func (Movie) MediaType() MediaType   { return MediaTypeMovie }
func (Episode) MediaType() MediaType { return MediaTypeEpisode }

func (Movie) record()   {}
func (Episode) record() {}

// Error codes carried by ProviderError
const (
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeAuthFailed     = "AUTH_FAILED"
	CodeRateLimited    = "RATE_LIMITED"
	CodeUnavailable    = "UNAVAILABLE"
	CodeUnknown        = "UNKNOWN"
)

// ErrNotFound matches every resolution failure, including transport failures.
var ErrNotFound = errors.New("media not found")

// ProviderError represents an error from a provider
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error // underlying cause, kept for logging
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is reports NOT_FOUND provider errors as ErrNotFound.
func (e *ProviderError) Is(target error) bool {
	return target == ErrNotFound && e.Code == CodeNotFound
}

// NotFound wraps cause as a NOT_FOUND error for the named provider.
func NotFound(providerName, message string, cause error) *ProviderError {
	return &ProviderError{
		Provider: providerName,
		Code:     CodeNotFound,
		Message:  message,
		Err:      cause,
	}
}
