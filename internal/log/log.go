package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	fileName         = "vlc-presence.log"
	maxSizeMB        = 10
	maxBackups       = 5
	defaultRetention = 30
)

// Options controls where log lines go. Enabled turns the rotating file sink
// on; the console sink is always present.
type Options struct {
	Enabled       bool
	Level         string
	RetentionDays int
	Dir           string

	// Console defaults to os.Stderr
	Console io.Writer
	// NoColor disables ANSI colors on the console sink
	NoColor bool
}

// Logger wraps zerolog with an optional rotating file
type Logger struct {
	zerolog.Logger
	rotator *lumberjack.Logger
	path    string
}

// DefaultDir returns ~/.vlc-presence/logs
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".vlc-presence", "logs"), nil
}

// New builds a logger from opts. A log directory that cannot be created is
// reported on the console and the file sink is skipped.
func New(opts Options) *Logger {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var output io.Writer = zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.TimeOnly,
		NoColor:    opts.NoColor,
	}

	l := &Logger{}
	if opts.Enabled {
		rotator, err := newRotator(opts)
		if err != nil {
			fmt.Fprintf(console, "Warning: file logging disabled: %v\n", err)
		} else {
			l.rotator = rotator
			l.path = rotator.Filename
			output = io.MultiWriter(output, rotator)
		}
	}

	l.Logger = zerolog.New(output).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Logger()
	return l
}

func newRotator(opts Options) (*lumberjack.Logger, error) {
	dir := opts.Dir
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	retention := opts.RetentionDays
	if retention <= 0 {
		retention = defaultRetention
	}

	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, fileName),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     retention,
		LocalTime:  true,
	}, nil
}

// Path returns the log file, or "" when file logging is off
func (l *Logger) Path() string {
	return l.path
}

// Component returns a child logger tagged with a component field
func (l *Logger) Component(name string) zerolog.Logger {
	return l.Logger.With().Str("component", name).Logger()
}

// Close flushes and closes the log file if one is open
func (l *Logger) Close() error {
	if l == nil || l.rotator == nil {
		return nil
	}
	return l.rotator.Close()
}

// ParseLevel maps a level name to zerolog, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
