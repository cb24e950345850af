package update

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitHubSourceLatest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
		assert.Equal(t, "vlc-presence/1.2.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"tag_name": "v1.3.0",
			"name": "v1.3.0",
			"assets": [
				{"name": "vlc-presence.exe", "size": 11, "browser_download_url": "https://example.com/vlc-presence.exe"},
				{"name": "checksums.txt", "size": 64, "browser_download_url": "https://example.com/checksums.txt"}
			]
		}`))
	}))
	defer server.Close()

	release, err := NewGitHubSource(server.URL, "1.2.0").Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.3.0", release.TagName)
	require.Len(t, release.Assets, 2)
	assert.Equal(t, "https://example.com/vlc-presence.exe", release.Assets[0].BrowserDownloadURL)
}

func TestGitHubSourceLatestErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "RateLimited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
		},
		{
			name: "BadJSON",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"tag_name":`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewGitHubSource(server.URL, "1.2.0").Latest(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestGitHubSourceUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewGitHubSource(url, "1.2.0").Latest(context.Background())
	assert.Error(t, err)
}

func TestGitHubSourceDownload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/asset", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("new binary!"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	src := NewGitHubSource(server.URL, "1.2.0")

	var buf bytes.Buffer
	n, err := src.Download(context.Background(), server.URL+"/asset", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
	assert.Equal(t, "new binary!", buf.String())

	_, err = src.Download(context.Background(), server.URL+"/missing", &buf)
	assert.ErrorContains(t, err, "status 404")
}
