// Package chatclient is a websocket client for the chat server's /socket
// endpoint.
package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultTypingTimeout is how long after the last Typing call a stopTyping
// is sent automatically.
const DefaultTypingTimeout = 2 * time.Second

// ErrClosed is returned when sending on a closed client.
var ErrClosed = errors.New("chatclient: connection closed")

// HandshakeError is returned by Dial when the server refuses the connection.
type HandshakeError struct {
	StatusCode int
	Message    string
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("chatclient: handshake rejected (%d): %s", e.StatusCode, e.Message)
}

// Event is one server to client event.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Client is a connected chat client. Its methods are safe for concurrent use.
type Client struct {
	conn   *websocket.Conn
	events chan Event

	writeMu sync.Mutex

	typingMu      sync.Mutex
	typingTimer   *time.Timer
	typingTimeout time.Duration

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Option configures a Client.
type Option func(*Client)

// WithTypingTimeout sets the delay before the automatic stopTyping.
func WithTypingTimeout(d time.Duration) Option {
	return func(c *Client) { c.typingTimeout = d }
}

// WithEventBuffer sets the capacity of the Events channel.
func WithEventBuffer(n int) Option {
	return func(c *Client) { c.events = make(chan Event, n) }
}

// Dial connects to the server at rawURL (for example ws://localhost:3001/socket)
// authenticating with token.
func Dial(ctx context.Context, rawURL, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("chatclient: invalid url: %w", err)
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, handshakeError(resp)
		}
		return nil, fmt.Errorf("chatclient: failed to connect: %w", err)
	}

	c := &Client{
		conn:          conn,
		events:        make(chan Event, 64),
		typingTimeout: DefaultTypingTimeout,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.wg.Add(1)
	go c.readLoop()
	return c, nil
}

func handshakeError(resp *http.Response) error {
	defer resp.Body.Close()

	herr := &HandshakeError{StatusCode: resp.StatusCode, Message: resp.Status}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return herr
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		herr.Message = payload.Message
	}
	return herr
}

// Events returns the channel of server events. It is closed when the
// connection ends.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Emit sends a raw named event.
func (c *Client) Emit(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("chatclient: encode %s: %w", event, err)
	}
	frame, err := json.Marshal(Event{Name: event, Data: payload})
	if err != nil {
		return fmt.Errorf("chatclient: encode %s: %w", event, err)
	}

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

type channelPayload struct {
	ChannelID int64 `json:"channelId"`
}

// JoinChannel moves the connection into a channel's room.
func (c *Client) JoinChannel(channelID int64) error {
	return c.Emit("joinChannel", channelPayload{ChannelID: channelID})
}

// SendMessage posts a message and ends any typing indicator.
func (c *Client) SendMessage(channelID int64, content string) error {
	err := c.Emit("sendMessage", struct {
		ChannelID int64  `json:"channelId"`
		Content   string `json:"content"`
	}{channelID, content})
	if err != nil {
		return err
	}
	return c.StopTyping(channelID)
}

// Typing signals typing and (re)arms the automatic stopTyping.
func (c *Client) Typing(channelID int64) error {
	if err := c.Emit("typing", channelPayload{ChannelID: channelID}); err != nil {
		return err
	}

	c.typingMu.Lock()
	defer c.typingMu.Unlock()
	if c.typingTimer != nil {
		c.typingTimer.Stop()
	}
	c.typingTimer = time.AfterFunc(c.typingTimeout, func() {
		_ = c.Emit("stopTyping", channelPayload{ChannelID: channelID})
	})
	return nil
}

// StopTyping cancels the automatic stopTyping and sends one now.
func (c *Client) StopTyping(channelID int64) error {
	c.stopTypingTimer()
	return c.Emit("stopTyping", channelPayload{ChannelID: channelID})
}

func (c *Client) stopTypingTimer() {
	c.typingMu.Lock()
	defer c.typingMu.Unlock()
	if c.typingTimer != nil {
		c.typingTimer.Stop()
		c.typingTimer = nil
	}
}

// Close ends the connection and waits for the reader to exit.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.stopTypingTimer()
		close(c.done)

		c.writeMu.Lock()
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	c.wg.Wait()
	return err
}

func (c *Client) readLoop() {
	defer c.wg.Done()
	defer close(c.events)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}
		select {
		case c.events <- event:
		case <-c.done:
			return
		}
	}
}
