package player

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"
)

const (
	DefaultAddress = "127.0.0.1:9090"
	DefaultTimeout = 5 * time.Second

	prompt = "> "
)

// ErrUnavailable wraps every failure to talk to the player
var ErrUnavailable = errors.New("player unavailable")

// Client talks to VLC's remote control interface over TCP
type Client struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
	// stale is set after a failed command. Whatever VLC still sends for it
	// must be discarded before the next command is written.
	stale bool
}

// Dial connects to the VLC RC interface at addr
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	if addr == "" {
		addr = DefaultAddress
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnavailable, addr, err)
	}

	c, err := NewClient(conn, timeout)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// NewClient wraps an established connection and drains the greeting banner
func NewClient(conn net.Conn, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: timeout,
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := c.readResponse(); err != nil {
		return nil, fmt.Errorf("%w: read banner: %v", ErrUnavailable, err)
	}
	return c, nil
}

// IsPlaying reports whether VLC is currently playing
func (c *Client) IsPlaying() (bool, error) {
	lines, err := c.command("is_playing")
	if err != nil {
		return false, err
	}
	return len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "1", nil
}

// CurrentTitle returns the title of the current input. The second result is
// false when VLC reports no title.
func (c *Client) CurrentTitle() (string, bool, error) {
	lines, err := c.command("get_title")
	if err != nil {
		return "", false, err
	}
	if len(lines) == 0 {
		return "", false, nil
	}
	title := strings.TrimSpace(lines[len(lines)-1])
	return title, title != "", nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) command(cmd string) ([]string, error) {
	if c.stale {
		if err := c.resync(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, cmd, err)
		}
	}

	deadline := time.Now().Add(c.timeout)
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if _, err := c.conn.Write([]byte(cmd + "\n")); err != nil {
		c.stale = true
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, cmd, err)
	}

	lines, err := c.readResponse()
	if err != nil {
		c.stale = true
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, cmd, err)
	}
	return lines, nil
}

// resync drops buffered output and drains the socket until it stays quiet
// for a quarter of the command timeout
func (c *Client) resync() error {
	c.reader = bufio.NewReader(c.conn)

	quiet := c.timeout / 4
	buf := make([]byte, 512)
	for {
		if err := c.conn.SetReadDeadline(time.Now().Add(quiet)); err != nil {
			return err
		}
		if _, err := c.conn.Read(buf); err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				break
			}
			return err
		}
	}

	c.stale = false
	return nil
}

// readResponse reads until the next prompt and returns the non-empty lines
// before it
func (c *Client) readResponse() ([]string, error) {
	var buf strings.Builder
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return nil, err
		}
		buf.WriteByte(b)

		s := buf.String()
		if strings.HasSuffix(s, prompt) {
			rest := strings.TrimSuffix(s, prompt)
			if rest == "" || strings.HasSuffix(rest, "\n") {
				return splitLines(rest), nil
			}
		}
	}
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		// Some builds echo the prompt before the output
		line = strings.TrimPrefix(line, prompt)
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
