package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Digital-Shane/vlc-presence/internal/provider"
	"github.com/Digital-Shane/vlc-presence/internal/provider/local"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/ryanbradynd05/go-tmdb"
)

// mockTMDBClient implements TMDBClient for testing
type mockTMDBClient struct {
	searchMovieFunc      func(name string, options map[string]string) (*tmdb.MovieSearchResults, error)
	searchTvFunc         func(name string, options map[string]string) (*tmdb.TvSearchResults, error)
	getMovieGenresFunc   func(options map[string]string) (*tmdb.Genre, error)
	getMovieInfoFunc     func(id int, options map[string]string) (*tmdb.Movie, error)
	getTvInfoFunc        func(id int, options map[string]string) (*tmdb.TV, error)
	getTvEpisodeInfoFunc func(showID, seasonNum, episodeNum int, options map[string]string) (*tmdb.TvEpisode, error)

	calls []string
}

func (m *mockTMDBClient) SearchMovie(name string, options map[string]string) (*tmdb.MovieSearchResults, error) {
	m.calls = append(m.calls, "SearchMovie")
	if m.searchMovieFunc != nil {
		return m.searchMovieFunc(name, options)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTMDBClient) SearchTv(name string, options map[string]string) (*tmdb.TvSearchResults, error) {
	m.calls = append(m.calls, "SearchTv")
	if m.searchTvFunc != nil {
		return m.searchTvFunc(name, options)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTMDBClient) GetMovieGenres(options map[string]string) (*tmdb.Genre, error) {
	m.calls = append(m.calls, "GetMovieGenres")
	if m.getMovieGenresFunc != nil {
		return m.getMovieGenresFunc(options)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTMDBClient) GetMovieInfo(id int, options map[string]string) (*tmdb.Movie, error) {
	m.calls = append(m.calls, "GetMovieInfo")
	if m.getMovieInfoFunc != nil {
		return m.getMovieInfoFunc(id, options)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTMDBClient) GetTvInfo(id int, options map[string]string) (*tmdb.TV, error) {
	m.calls = append(m.calls, "GetTvInfo")
	if m.getTvInfoFunc != nil {
		return m.getTvInfoFunc(id, options)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTMDBClient) GetTvEpisodeInfo(showID, seasonNum, episodeNum int, options map[string]string) (*tmdb.TvEpisode, error) {
	m.calls = append(m.calls, "GetTvEpisodeInfo")
	if m.getTvEpisodeInfoFunc != nil {
		return m.getTvEpisodeInfoFunc(showID, seasonNum, episodeNum, options)
	}
	return nil, errors.New("not implemented")
}

// decode builds go-tmdb response types from API shaped JSON
func decode[T any](t *testing.T, body string) *T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		t.Fatalf("json.Unmarshal(%T) error = %v", v, err)
	}
	return &v
}

func newTestProvider(t *testing.T, client *mockTMDBClient) *Provider {
	t.Helper()
	p, err := New("test-api-key", "en-US", zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	p.SetClient(client)
	return p
}

const genreListJSON = `{"genres": [
	{"id": 878, "name": "Science Fiction"},
	{"id": 12, "name": "Adventure"},
	{"id": 28, "name": "Action"}
]}`

func matrixClient(t *testing.T) *mockTMDBClient {
	return &mockTMDBClient{
		searchMovieFunc: func(name string, options map[string]string) (*tmdb.MovieSearchResults, error) {
			if name != "The Matrix" {
				t.Errorf("SearchMovie name = %q, want %q", name, "The Matrix")
			}
			if options["language"] != "en-US" {
				t.Errorf("SearchMovie language = %q, want en-US", options["language"])
			}
			return decode[tmdb.MovieSearchResults](t, `{"results": [
				{"id": 603, "title": "The Matrix", "genre_ids": [28, 9999, 878], "poster_path": "/matrix.jpg", "release_date": "1999-03-31"},
				{"id": 604, "title": "The Matrix Reloaded", "genre_ids": [28], "poster_path": "/reloaded.jpg"}
			]}`), nil
		},
		getMovieGenresFunc: func(options map[string]string) (*tmdb.Genre, error) {
			return decode[tmdb.Genre](t, genreListJSON), nil
		},
		getMovieInfoFunc: func(id int, options map[string]string) (*tmdb.Movie, error) {
			if id != 603 {
				t.Errorf("GetMovieInfo id = %d, want 603", id)
			}
			return decode[tmdb.Movie](t, `{"id": 603, "imdb_id": "tt0133093"}`), nil
		},
	}
}

func TestResolveMovie(t *testing.T) {
	client := matrixClient(t)
	p := newTestProvider(t, client)

	got, err := p.Resolve(context.Background(), local.Normalize("The.Matrix.1999.1080p-GROUP.mkv"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := provider.Movie{
		Title:      "The Matrix",
		Genres:     []string{"Action", "Science Fiction"},
		PosterPath: "/matrix.jpg",
		CatalogID:  603,
		ExternalID: "tt0133093",
		Year:       "1999",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}

	wantCalls := []string{"SearchMovie", "GetMovieGenres", "GetMovieInfo"}
	if diff := cmp.Diff(wantCalls, client.calls); diff != "" {
		t.Errorf("TMDB call order mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveMovieWithoutExternalID(t *testing.T) {
	client := matrixClient(t)
	client.getMovieInfoFunc = func(id int, options map[string]string) (*tmdb.Movie, error) {
		return decode[tmdb.Movie](t, `{"id": 603}`), nil
	}
	p := newTestProvider(t, client)

	got, err := p.Resolve(context.Background(), local.ParsedQuery{CleanedText: "The Matrix"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	movie, ok := got.(provider.Movie)
	if !ok {
		t.Fatalf("Resolve() = %T, want provider.Movie", got)
	}
	if movie.ExternalID != "" {
		t.Errorf("ExternalID = %q, want empty", movie.ExternalID)
	}
}

func TestResolveEpisode(t *testing.T) {
	client := &mockTMDBClient{
		searchTvFunc: func(name string, options map[string]string) (*tmdb.TvSearchResults, error) {
			if name != "Show Name S01E03" {
				t.Errorf("SearchTv name = %q, want %q", name, "Show Name S01E03")
			}
			return decode[tmdb.TvSearchResults](t, `{"results": [
				{"id": 1399, "name": "Show Name", "poster_path": "/show.jpg", "first_air_date": "2011-04-17"},
				{"id": 1400, "name": "Show Name Again"}
			]}`), nil
		},
		getTvEpisodeInfoFunc: func(showID, seasonNum, episodeNum int, options map[string]string) (*tmdb.TvEpisode, error) {
			if showID != 1399 || seasonNum != 1 || episodeNum != 3 {
				t.Errorf("GetTvEpisodeInfo(%d, %d, %d), want (1399, 1, 3)", showID, seasonNum, episodeNum)
			}
			return decode[tmdb.TvEpisode](t, `{"name": "Episode Title"}`), nil
		},
		getTvInfoFunc: func(id int, options map[string]string) (*tmdb.TV, error) {
			if options["append_to_response"] != "external_ids" {
				t.Errorf("GetTvInfo append_to_response = %q, want external_ids", options["append_to_response"])
			}
			return decode[tmdb.TV](t, `{"id": 1399, "name": "Show Name", "external_ids": {"imdb_id": "tt0944947"}}`), nil
		},
	}
	p := newTestProvider(t, client)

	got, err := p.Resolve(context.Background(), local.Normalize("Show.Name.S01E03.Episode.Title.mkv"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := provider.Episode{
		ShowTitle:    "Show Name",
		EpisodeTitle: "Episode Title",
		Season:       1,
		Episode:      3,
		PosterPath:   "/show.jpg",
		CatalogID:    1399,
		ExternalID:   "tt0944947",
		Year:         "2011",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}

	wantCalls := []string{"SearchTv", "GetTvEpisodeInfo", "GetTvInfo"}
	if diff := cmp.Diff(wantCalls, client.calls); diff != "" {
		t.Errorf("TMDB call order mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveEpisodeWithoutName(t *testing.T) {
	client := &mockTMDBClient{
		searchTvFunc: func(name string, options map[string]string) (*tmdb.TvSearchResults, error) {
			return decode[tmdb.TvSearchResults](t, `{"results": [{"id": 7, "name": "Quiet Show"}]}`), nil
		},
		getTvEpisodeInfoFunc: func(showID, seasonNum, episodeNum int, options map[string]string) (*tmdb.TvEpisode, error) {
			return decode[tmdb.TvEpisode](t, `{}`), nil
		},
		getTvInfoFunc: func(id int, options map[string]string) (*tmdb.TV, error) {
			return decode[tmdb.TV](t, `{"id": 7}`), nil
		},
	}
	p := newTestProvider(t, client)

	got, err := p.Resolve(context.Background(), local.Normalize("Quiet.Show.S02E01.mkv"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	episode, ok := got.(provider.Episode)
	if !ok {
		t.Fatalf("Resolve() = %T, want provider.Episode", got)
	}
	if episode.EpisodeTitle != "" || episode.ShowTitle != "Quiet Show" || episode.ExternalID != "" {
		t.Errorf("Resolve() = %+v, want empty episode title and external id", episode)
	}
}

func TestResolveNotFound(t *testing.T) {
	emptyMovies := func(name string, options map[string]string) (*tmdb.MovieSearchResults, error) {
		return decode[tmdb.MovieSearchResults](t, `{"results": []}`), nil
	}
	emptyShows := func(name string, options map[string]string) (*tmdb.TvSearchResults, error) {
		return decode[tmdb.TvSearchResults](t, `{"results": []}`), nil
	}
	apiError := errors.New("401 Unauthorized")

	tests := []struct {
		name      string
		query     local.ParsedQuery
		client    func(t *testing.T) *mockTMDBClient
		wantCalls []string
		wantMsg   string
	}{
		{
			name:  "NoMovieResults",
			query: local.ParsedQuery{CleanedText: "Nonexistent Movie"},
			client: func(t *testing.T) *mockTMDBClient {
				c := matrixClient(t)
				c.searchMovieFunc = emptyMovies
				return c
			},
			wantCalls: []string{"SearchMovie"},
			wantMsg:   "no results",
		},
		{
			name:  "NilMovieResults",
			query: local.ParsedQuery{CleanedText: ""},
			client: func(t *testing.T) *mockTMDBClient {
				c := matrixClient(t)
				c.searchMovieFunc = func(string, map[string]string) (*tmdb.MovieSearchResults, error) { return nil, nil }
				return c
			},
			wantCalls: []string{"SearchMovie"},
			wantMsg:   "no results",
		},
		{
			name:  "NoShowResults",
			query: local.Normalize("Missing.Show.S01E01.mkv"),
			client: func(t *testing.T) *mockTMDBClient {
				return &mockTMDBClient{searchTvFunc: emptyShows}
			},
			wantCalls: []string{"SearchTv"},
			wantMsg:   "no results",
		},
		{
			name:  "MovieSearchTransportError",
			query: local.ParsedQuery{CleanedText: "The Matrix"},
			client: func(t *testing.T) *mockTMDBClient {
				c := matrixClient(t)
				c.searchMovieFunc = func(string, map[string]string) (*tmdb.MovieSearchResults, error) { return nil, apiError }
				return c
			},
			wantCalls: []string{"SearchMovie"},
			wantMsg:   "authentication failed",
		},
		{
			name:  "GenreListError",
			query: local.ParsedQuery{CleanedText: "The Matrix"},
			client: func(t *testing.T) *mockTMDBClient {
				c := matrixClient(t)
				c.getMovieGenresFunc = func(map[string]string) (*tmdb.Genre, error) { return nil, errors.New("503 Service Unavailable") }
				return c
			},
			wantCalls: []string{"SearchMovie", "GetMovieGenres"},
			wantMsg:   "unavailable",
		},
		{
			name:  "MovieDetailError",
			query: local.ParsedQuery{CleanedText: "The Matrix"},
			client: func(t *testing.T) *mockTMDBClient {
				c := matrixClient(t)
				c.getMovieInfoFunc = func(int, map[string]string) (*tmdb.Movie, error) { return nil, errors.New("connection reset") }
				return c
			},
			wantCalls: []string{"SearchMovie", "GetMovieGenres", "GetMovieInfo"},
			wantMsg:   "movie detail",
		},
		{
			name:  "EpisodeLookupError",
			query: local.Normalize("Show.Name.S09E99.mkv"),
			client: func(t *testing.T) *mockTMDBClient {
				return &mockTMDBClient{
					searchTvFunc: func(string, map[string]string) (*tmdb.TvSearchResults, error) {
						return decode[tmdb.TvSearchResults](t, `{"results": [{"id": 1, "name": "Show Name"}]}`), nil
					},
					getTvEpisodeInfoFunc: func(int, int, int, map[string]string) (*tmdb.TvEpisode, error) {
						return nil, errors.New("404 Not Found")
					},
				}
			},
			wantCalls: []string{"SearchTv", "GetTvEpisodeInfo"},
			wantMsg:   "episode lookup",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := tt.client(t)
			p := newTestProvider(t, client)

			got, err := p.Resolve(context.Background(), tt.query)
			if got != nil {
				t.Errorf("Resolve() = %v, want nil", got)
			}
			if !errors.Is(err, provider.ErrNotFound) {
				t.Fatalf("Resolve() error = %v, want ErrNotFound", err)
			}

			var perr *provider.ProviderError
			if !errors.As(err, &perr) {
				t.Fatalf("Resolve() error = %T, want *provider.ProviderError", err)
			}
			if perr.Code != provider.CodeNotFound || perr.Provider != "tmdb" {
				t.Errorf("ProviderError = {%s %s}, want {tmdb NOT_FOUND}", perr.Provider, perr.Code)
			}
			if !strings.Contains(strings.ToLower(perr.Message), tt.wantMsg) {
				t.Errorf("ProviderError.Message = %q, want it to contain %q", perr.Message, tt.wantMsg)
			}

			if diff := cmp.Diff(tt.wantCalls, client.calls); diff != "" {
				t.Errorf("TMDB calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New("  ", "en-US", zerolog.Nop()); !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("New(blank) error = %v, want %v", err, ErrInvalidAPIKey)
	}

	p, err := New("key", "", zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.language != "en-US" {
		t.Errorf("default language = %q, want en-US", p.language)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	r := newRateLimiter(2, 10*time.Second)
	r.now = func() time.Time { return now }

	if d := r.reserve(); d != 0 {
		t.Fatalf("first reserve() = %v, want 0", d)
	}
	now = now.Add(time.Second)
	if d := r.reserve(); d != 0 {
		t.Fatalf("second reserve() = %v, want 0", d)
	}
	if d := r.reserve(); d != 9*time.Second+10*time.Millisecond {
		t.Fatalf("third reserve() = %v, want 9.01s", d)
	}

	now = now.Add(9*time.Second + 10*time.Millisecond)
	if d := r.reserve(); d != 0 {
		t.Errorf("reserve() after window = %v, want 0", d)
	}
}

func TestRateLimiterWaitHonorsContext(t *testing.T) {
	r := newRateLimiter(1, time.Hour)
	if err := r.wait(context.Background()); err != nil {
		t.Fatalf("wait() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("wait() error = %v, want context.Canceled", err)
	}
}
