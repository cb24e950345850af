package update

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Digital-Shane/vlc-presence/internal/tui/consent"
	"github.com/mattn/go-isatty"
)

// ErrNoAnswer is returned when input ends before an answer is given
var ErrNoAnswer = errors.New("no answer given")

// Prompter asks the user a question and returns the raw answer
type Prompter interface {
	Ask(question string) (string, error)
}

// LinePrompter reads one line from In after writing the question to Out
type LinePrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p LinePrompter) Ask(question string) (string, error) {
	if _, err := fmt.Fprintf(p.Out, "%s: ", question); err != nil {
		return "", err
	}

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return line, nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoAnswer
		}
		return "", err
	}
	return line, nil
}

// NewPrompter picks the interactive prompt when in is a terminal
func NewPrompter(in, out *os.File) Prompter {
	if isTerminal(in) && isTerminal(out) {
		return consent.Prompter{In: in, Out: out}
	}
	return LinePrompter{In: in, Out: out}
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// accepted reports whether answer grants consent
func accepted(answer string) bool {
	switch strings.TrimSpace(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
