package update

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

const consentQuestion = "Do you want to install new version? (y/n)"

// DeclinedEnv is set in the environment of a version restarted after its
// user declined an update
const DeclinedEnv = "VLC_PRESENCE_UPDATE_DECLINED"

// Declined reports whether this process was restarted after a declined update
func Declined() bool {
	return os.Getenv(DeclinedEnv) == "1"
}

// ErrNoAssets is returned when the latest release has nothing to download
var ErrNoAssets = errors.New("release has no assets")

type State int

const (
	StateCheckingVersion State = iota
	StateUpToDate
	StateDownloadingUpdate
	StateHandedOff
	StateAwaitingUserConsent
	StateReplacing
	StateRestarted
	StateDeclinedRestartOriginal
)

func (s State) String() string {
	switch s {
	case StateCheckingVersion:
		return "checking-version"
	case StateUpToDate:
		return "up-to-date"
	case StateDownloadingUpdate:
		return "downloading-update"
	case StateHandedOff:
		return "handed-off"
	case StateAwaitingUserConsent:
		return "awaiting-user-consent"
	case StateReplacing:
		return "replacing"
	case StateRestarted:
		return "restarted"
	case StateDeclinedRestartOriginal:
		return "declined-restart-original"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome is the terminal state a run ended in
type Outcome = State

const (
	OutcomeUpToDate                = StateUpToDate
	OutcomeHandedOff               = StateHandedOff
	OutcomeRestarted               = StateRestarted
	OutcomeDeclinedRestartOriginal = StateDeclinedRestartOriginal
)

// ShouldExit reports whether the process must stop after this state
func (s State) ShouldExit() bool {
	switch s {
	case StateHandedOff, StateRestarted, StateDeclinedRestartOriginal:
		return true
	default:
		return false
	}
}

// Paths locates the executables the machine works with
type Paths struct {
	WorkDir string
	// Name is the main executable name without extension
	Name string
	// Ext is the executable extension, ".exe" on Windows
	Ext string
}

// DefaultPaths returns paths for name in dir with the host extension
func DefaultPaths(dir, name string) Paths {
	ext := ""
	if runtime.GOOS == "windows" {
		ext = ".exe"
	}
	return Paths{WorkDir: dir, Name: name, Ext: ext}
}

// Main is the installed executable
func (p Paths) Main() string {
	return filepath.Join(p.WorkDir, p.Name+p.Ext)
}

// Temp is the downloaded update that doubles as the consent marker
func (p Paths) Temp() string {
	return filepath.Join(p.WorkDir, "new-version"+p.Ext)
}

func (p Paths) partial() string {
	return p.Temp() + ".part"
}

// Machine runs the self-update once at startup
type Machine struct {
	Current  string
	Source   ReleaseSource
	Launcher Launcher
	Prompter Prompter
	Paths    Paths
	Logger   zerolog.Logger

	history []State
}

// Transitions returns every state entered by the last Run, in order
func (m *Machine) Transitions() []State {
	return append([]State(nil), m.history...)
}

func (m *Machine) enter(s State) {
	m.history = append(m.history, s)
	m.Logger.Debug().Str("state", s.String()).Msg("Update state")
}

// Run checks for a release and acts on it. The caller exits when the
// returned outcome's ShouldExit is true.
func (m *Machine) Run(ctx context.Context) (Outcome, error) {
	m.history = nil
	m.enter(StateCheckingVersion)

	release, err := m.Source.Latest(ctx)
	if err != nil {
		return StateCheckingVersion, fmt.Errorf("check for update: %w", err)
	}

	decision, err := Decide(m.Current, release.TagName)
	if err != nil {
		return StateCheckingVersion, fmt.Errorf("check for update: %w", err)
	}
	m.Logger.Info().
		Str("current", decision.Current.String()).
		Str("latest", decision.Remote.String()).
		Str("action", decision.Action.String()).
		Msg("Checked version")

	if decision.Action == ActionReplaceAndRestart {
		return m.handOff(ctx, release)
	}

	if _, err := os.Stat(m.Paths.Temp()); err == nil {
		if m.installed() {
			m.enter(StateUpToDate)
			return OutcomeUpToDate, nil
		}
		return m.consent()
	} else if !errors.Is(err, os.ErrNotExist) {
		return StateCheckingVersion, fmt.Errorf("stat update: %w", err)
	}

	m.enter(StateUpToDate)
	return OutcomeUpToDate, nil
}

// installed removes an update file whose contents already are the main
// executable. Windows leaves one behind after every accepted update.
func (m *Machine) installed() bool {
	update, err := os.ReadFile(m.Paths.Temp())
	if err != nil {
		return false
	}
	current, err := os.ReadFile(m.Paths.Main())
	if err != nil || !bytes.Equal(update, current) {
		return false
	}

	if err := os.Remove(m.Paths.Temp()); err != nil {
		m.Logger.Warn().Err(err).Str("path", m.Paths.Temp()).Msg("Failed to remove installed update file")
	} else {
		m.Logger.Debug().Str("path", m.Paths.Temp()).Msg("Removed installed update file")
	}
	return true
}

// handOff downloads the release and starts it in our place
func (m *Machine) handOff(ctx context.Context, release *Release) (Outcome, error) {
	m.enter(StateDownloadingUpdate)

	if len(release.Assets) == 0 {
		return StateDownloadingUpdate, fmt.Errorf("download update %s: %w", release.TagName, ErrNoAssets)
	}
	asset := release.Assets[0]

	size, err := m.download(ctx, asset.BrowserDownloadURL)
	if err != nil {
		return StateDownloadingUpdate, err
	}
	m.Logger.Info().
		Str("path", m.Paths.Temp()).
		Str("size", humanize.Bytes(uint64(size))).
		Msg("Update downloaded")

	if err := m.Launcher.Launch(m.Paths.Temp()); err != nil {
		return StateDownloadingUpdate, fmt.Errorf("launch update: %w", err)
	}

	m.enter(StateHandedOff)
	return OutcomeHandedOff, nil
}

// download writes to a partial file first. Only a complete download is
// renamed to the consent marker.
func (m *Machine) download(ctx context.Context, url string) (int64, error) {
	partial := m.Paths.partial()
	f, err := os.OpenFile(partial, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return 0, fmt.Errorf("write update: %w", err)
	}

	n, err := m.Source.Download(ctx, url, f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("write update: %w", closeErr)
	}
	if err != nil {
		os.Remove(partial)
		return 0, err
	}

	if err := os.Rename(partial, m.Paths.Temp()); err != nil {
		os.Remove(partial)
		return 0, fmt.Errorf("write update: %w", err)
	}
	return n, nil
}

// consent handles a leftover update file
func (m *Machine) consent() (Outcome, error) {
	m.enter(StateAwaitingUserConsent)

	answer, err := m.Prompter.Ask(consentQuestion)
	if err != nil {
		return StateAwaitingUserConsent, fmt.Errorf("ask for consent: %w", err)
	}

	if !accepted(answer) {
		m.Logger.Info().Msg("Update declined, restarting current version")
		if err := os.Setenv(DeclinedEnv, "1"); err != nil {
			return StateAwaitingUserConsent, fmt.Errorf("restart original: %w", err)
		}
		if err := m.Launcher.Launch(m.Paths.Main()); err != nil {
			return StateAwaitingUserConsent, fmt.Errorf("restart original: %w", err)
		}
		m.enter(StateDeclinedRestartOriginal)
		return OutcomeDeclinedRestartOriginal, nil
	}

	m.enter(StateReplacing)

	data, err := os.ReadFile(m.Paths.Temp())
	if err != nil {
		return StateReplacing, fmt.Errorf("read update: %w", err)
	}
	if err := m.Launcher.ReplaceFile(m.Paths.Main(), data); err != nil {
		return StateReplacing, fmt.Errorf("replace executable: %w", err)
	}
	// A running update on Windows cannot delete itself
	if err := os.Remove(m.Paths.Temp()); err != nil {
		m.Logger.Warn().Err(err).Str("path", m.Paths.Temp()).Msg("Failed to remove update file")
	}
	m.Logger.Info().Str("path", m.Paths.Main()).Msg("Updated executable")

	if err := m.Launcher.Launch(m.Paths.Main()); err != nil {
		return StateReplacing, fmt.Errorf("launch updated executable: %w", err)
	}

	m.enter(StateRestarted)
	return OutcomeRestarted, nil
}
