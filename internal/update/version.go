package update

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedVersion is returned for anything that is not MAJOR.MINOR.PATCH
var ErrMalformedVersion = errors.New("malformed version")

var versionRegex = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)$`)

type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses "1.2.3" or "v1.2.3". Pre-release and build suffixes
// are rejected.
func ParseVersion(s string) (Version, error) {
	matches := versionRegex.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrMalformedVersion, s)
	}

	var parts [3]int
	for i := range parts {
		n, err := strconv.Atoi(matches[i+1])
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q: %v", ErrMalformedVersion, s, err)
		}
		parts[i] = n
	}

	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns:
//
//	-1 if v < other
//	 0 if v == other
//	 1 if v > other
func (v Version) Compare(other Version) int {
	if c := compareInt(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareInt(v.Minor, other.Minor); c != 0 {
		return c
	}
	return compareInt(v.Patch, other.Patch)
}

func compareInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func (v Version) GreaterThan(other Version) bool {
	return v.Compare(other) > 0
}

// Action is what the machine does with a release
type Action int

const (
	ActionNone Action = iota
	ActionReplaceAndRestart
)

func (a Action) String() string {
	switch a {
	case ActionReplaceAndRestart:
		return "replace-and-restart"
	default:
		return "none"
	}
}

// Decision is the outcome of comparing the running build with a release
type Decision struct {
	Current Version
	Remote  Version
	Action  Action
}

// Decide compares the running version with the remote tag. Either string
// failing to parse is an error, never a silent no-op.
func Decide(current, remote string) (Decision, error) {
	cur, err := ParseVersion(current)
	if err != nil {
		return Decision{}, fmt.Errorf("current version: %w", err)
	}
	rem, err := ParseVersion(remote)
	if err != nil {
		return Decision{}, fmt.Errorf("remote version: %w", err)
	}

	d := Decision{Current: cur, Remote: rem, Action: ActionNone}
	if rem.GreaterThan(cur) {
		d.Action = ActionReplaceAndRestart
	}
	return d, nil
}
