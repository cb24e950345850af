package presence

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"
)

// Discord IPC opcodes
const (
	opHandshake uint32 = 0
	opFrame     uint32 = 1
	opClose     uint32 = 2
)

const (
	maxTextWidth   = 128
	maxLabelWidth  = 32
	maxFrameLength = 64 * 1024

	reconnectTimeout = 5 * time.Second
)

var (
	// ErrNotConnected is returned when a command is sent before Connect
	ErrNotConnected = errors.New("presence client is not connected")
	// ErrNoSocket is returned when no Discord IPC endpoint accepts a connection
	ErrNoSocket = errors.New("discord ipc socket not found")
)

// Client speaks the Discord Rich Presence IPC protocol
type Client struct {
	clientID string
	pid      int
	logger   zerolog.Logger

	// dial opens the IPC endpoint, replaced in tests
	dial func(ctx context.Context) (io.ReadWriteCloser, error)

	mu   sync.Mutex
	conn io.ReadWriteCloser
	// established is set once Connect succeeds and cleared by Close. A
	// client that lost an established connection redials on the next send.
	established bool
}

// NewClient creates a client for the given Discord application id
func NewClient(clientID string, logger zerolog.Logger) *Client {
	return &Client{
		clientID: clientID,
		pid:      os.Getpid(),
		logger:   logger.With().Str("component", "presence").Logger(),
		dial:     dialIPC,
	}
}

type handshake struct {
	Version  int    `json:"v"`
	ClientID string `json:"client_id"`
}

type command struct {
	Cmd   string `json:"cmd"`
	Args  any    `json:"args"`
	Nonce string `json:"nonce"`
}

type activityArgs struct {
	PID      int       `json:"pid"`
	Activity *activity `json:"activity"`
}

type activity struct {
	Details string   `json:"details,omitempty"`
	State   string   `json:"state,omitempty"`
	Assets  *assets  `json:"assets,omitempty"`
	Buttons []button `json:"buttons,omitempty"`
}

type assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
}

type button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type response struct {
	Cmd  string `json:"cmd"`
	Evt  string `json:"evt"`
	Data struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"data"`
}

// Connect opens the IPC socket and performs the handshake
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}
	if err := c.connectLocked(ctx); err != nil {
		return err
	}
	c.established = true
	c.logger.Info().Msg("Connected to Discord")
	return nil
}

func (c *Client) connectLocked(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect to discord: %w", err)
	}

	if err := writeFrame(conn, opHandshake, handshake{Version: 1, ClientID: c.clientID}); err != nil {
		conn.Close()
		return fmt.Errorf("discord handshake: %w", err)
	}
	if _, err := readResponse(conn); err != nil {
		conn.Close()
		return fmt.Errorf("discord handshake: %w", err)
	}

	c.conn = conn
	return nil
}

// dropLocked forgets a connection that failed mid command
func (c *Client) dropLocked() {
	if c.conn == nil {
		return
	}
	c.conn.Close()
	c.conn = nil
	c.logger.Warn().Msg("Lost connection to Discord")
}

// SetActivity replaces the current activity with p
func (c *Client) SetActivity(p Payload) error {
	act := &activity{
		Details: clamp(p.Title, maxTextWidth),
		State:   clamp(p.Subtitle, maxTextWidth),
		Assets: &assets{
			LargeImage: p.ImageKey,
			LargeText:  clamp(p.Title, maxTextWidth),
		},
	}
	for _, link := range p.Links() {
		if link.URL == "" {
			continue
		}
		act.Buttons = append(act.Buttons, button{Label: clamp(link.Label, maxLabelWidth), URL: link.URL})
	}
	return c.send(act)
}

// ClearActivity removes the current activity
func (c *Client) ClearActivity() error {
	return c.send(nil)
}

// Close closes the IPC connection. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	// Best effort goodbye frame
	_ = writeFrame(c.conn, opClose, struct{}{})
	err := c.conn.Close()
	c.conn = nil
	c.established = false
	return err
}

func (c *Client) send(act *activity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if !c.established {
			return ErrNotConnected
		}
		ctx, cancel := context.WithTimeout(context.Background(), reconnectTimeout)
		err := c.connectLocked(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("set activity: %w", err)
		}
		c.logger.Info().Msg("Reconnected to Discord")
	}

	cmd := command{
		Cmd:   "SET_ACTIVITY",
		Args:  activityArgs{PID: c.pid, Activity: act},
		Nonce: uuid.NewString(),
	}
	if err := writeFrame(c.conn, opFrame, cmd); err != nil {
		c.dropLocked()
		return fmt.Errorf("set activity: %w", err)
	}

	resp, err := readResponse(c.conn)
	if err != nil {
		c.dropLocked()
		return fmt.Errorf("set activity: %w", err)
	}
	if resp.Evt == "ERROR" {
		return fmt.Errorf("set activity: discord error %d: %s", resp.Data.Code, resp.Data.Message)
	}
	return nil
}

func writeFrame(w io.Writer, op uint32, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.Grow(8 + len(body))
	_ = binary.Write(&buf, binary.LittleEndian, op)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(body)))
	buf.Write(body)

	_, err = w.Write(buf.Bytes())
	return err
}

func readFrame(r io.Reader) (uint32, []byte, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}
	op := binary.LittleEndian.Uint32(header[:4])
	length := binary.LittleEndian.Uint32(header[4:])
	if length > maxFrameLength {
		return 0, nil, fmt.Errorf("frame too large: %d bytes", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}
	return op, body, nil
}

func readResponse(r io.Reader) (*response, error) {
	op, body, err := readFrame(r)
	if err != nil {
		return nil, err
	}

	if op == opClose {
		var closed struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &closed)
		return nil, fmt.Errorf("discord closed the connection: %d %s", closed.Code, closed.Message)
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return &resp, nil
}

// clamp truncates s to at most width display cells
func clamp(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
