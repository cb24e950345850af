package config

// Build time values injected via ldflags. The keys serve as defaults and
// can be overridden by environment variables or the config file.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/Digital-Shane/vlc-presence/internal/config.EmbeddedTMDBKey=xxx' \
//	                   -X 'github.com/Digital-Shane/vlc-presence/internal/config.EmbeddedClientID=yyy' \
//	                   -X 'github.com/Digital-Shane/vlc-presence/internal/config.Version=1.3.0'"
var (
	EmbeddedTMDBKey  string
	EmbeddedClientID string

	// Version is the running build. "dev" marks an unreleased build.
	Version = "dev"
)

// IsRelease reports whether Version was set at build time
func IsRelease() bool {
	return Version != "" && Version != "dev"
}
