package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Digital-Shane/vlc-presence/internal/player"
	"github.com/Digital-Shane/vlc-presence/internal/presence"
	"github.com/Digital-Shane/vlc-presence/internal/provider"
	"github.com/Digital-Shane/vlc-presence/internal/provider/local"
	"github.com/rs/zerolog"
)

// DefaultInterval is the delay between two polls
const DefaultInterval = 10 * time.Second

// Snapshotter reports what the player is doing
type Snapshotter interface {
	Snapshot() (player.Snapshot, error)
}

// Resolver turns a normalized query into a catalog record
type Resolver interface {
	Resolve(ctx context.Context, query local.ParsedQuery) (provider.MediaRecord, error)
}

// Linker fills in cross reference ids a resolver could not provide
type Linker interface {
	Backfill(ctx context.Context, rec provider.MediaRecord) provider.MediaRecord
}

// PresenceClient receives the projected activity
type PresenceClient interface {
	SetActivity(p presence.Payload) error
}

// TickResult says how far one iteration got
type TickResult int

const (
	TickIdle TickResult = iota
	TickPlayerError
	TickNoTitle
	TickUnresolved
	TickPushFailed
	TickPushed
)

var tickNames = [...]string{"idle", "player error", "no title", "unresolved", "push failed", "pushed"}

func (r TickResult) String() string {
	if int(r) < len(tickNames) {
		return tickNames[r]
	}
	return "unknown"
}

// Summary counts iteration results since the bridge started
type Summary struct {
	Ticks     int
	Pushed    int
	Skipped   int
	Failures  int
	LastTitle string
	LastTick  time.Time
}

// Bridge polls the player and mirrors what it plays to the presence client
type Bridge struct {
	Player    Snapshotter
	Resolver  Resolver
	Linker    Linker // optional
	Projector presence.Projector
	Presence  PresenceClient
	Interval  time.Duration
	Logger    zerolog.Logger

	now func() time.Time

	mu      sync.RWMutex
	summary Summary
}

// Run polls until ctx is done. The delay is measured from the end of each
// iteration, and an iteration in flight always finishes.
func (b *Bridge) Run(ctx context.Context) error {
	interval := b.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	b.Logger.Info().Dur("interval", interval).Msg("Polling player")
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		b.Tick(ctx)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// Tick runs one iteration: query the player, normalize the title, resolve
// it, optionally backfill links, project and push. Failures are logged and
// absorbed.
func (b *Bridge) Tick(ctx context.Context) TickResult {
	result, title := b.tick(ctx)
	b.record(result, title)
	return result
}

func (b *Bridge) tick(ctx context.Context) (TickResult, string) {
	snap, err := b.Player.Snapshot()
	if err != nil {
		b.Logger.Warn().Err(err).Msg("Could not query player")
		return TickPlayerError, ""
	}
	if !snap.Playing {
		b.Logger.Debug().Msg("Player is not playing")
		return TickIdle, ""
	}
	if snap.Title == "" {
		b.Logger.Info().Msg("Could not retrieve title from player")
		return TickNoTitle, ""
	}

	query := local.Normalize(snap.Title)
	event := b.Logger.Debug().Str("raw", snap.Title).Str("query", query.CleanedText)
	if query.Episode != nil {
		event = event.Str("marker", query.Episode.String())
	}
	event.Msg("Normalized title")

	rec, err := b.Resolver.Resolve(ctx, query)
	if err != nil {
		miss := b.Logger.Info()
		if !errors.Is(err, provider.ErrNotFound) {
			miss = b.Logger.Warn()
		}
		miss.Err(err).Str("title", snap.Title).Msg("Could not find catalog data for title")
		return TickUnresolved, ""
	}

	if b.Linker != nil {
		rec = b.Linker.Backfill(ctx, rec)
	}

	payload := b.Projector.Project(rec)
	if err := b.Presence.SetActivity(payload); err != nil {
		b.Logger.Warn().Err(err).Str("title", payload.Title).Msg("Failed to update presence")
		return TickPushFailed, payload.Title
	}

	b.Logger.Info().Str("title", payload.Title).Str("subtitle", payload.Subtitle).Msg("Presence updated")
	return TickPushed, payload.Title
}

func (b *Bridge) record(result TickResult, title string) {
	now := time.Now
	if b.now != nil {
		now = b.now
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.summary.Ticks++
	b.summary.LastTick = now()
	switch result {
	case TickPushed:
		b.summary.Pushed++
		b.summary.LastTitle = title
	case TickIdle, TickNoTitle:
		b.summary.Skipped++
	default:
		b.summary.Failures++
	}
}

// Summary returns a copy of the counters
func (b *Bridge) Summary() Summary {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.summary
}
