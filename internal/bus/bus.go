// Package bus connects the assistant to a websocket hub that relays text
// between shards. Utterances addressed to us arrive on Inbox; replies go out
// through Send.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	KindUtterance = "utterance"
	KindReply     = "reply"

	Broadcast = "all"
)

var ErrClosed = errors.New("bus closed")

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
	Audio   []byte `json:"audio,omitempty"`
}

type Config struct {
	URL       string
	Name      string
	Reconnect time.Duration
	Dialer    *ws.Dialer
}

type Client struct {
	cfg Config

	mu   sync.Mutex
	conn *ws.Conn

	inbox chan Message
	done  chan struct{}
	once  sync.Once
}

func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Name == "" {
		cfg.Name = "jarvis"
	}
	if cfg.Reconnect <= 0 {
		cfg.Reconnect = time.Second
	}
	if cfg.Dialer == nil {
		cfg.Dialer = ws.DefaultDialer
	}

	c := &Client{
		cfg:   cfg,
		inbox: make(chan Message, 8),
		done:  make(chan struct{}),
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.conn = conn

	log.Info("Connected to bus", "url", cfg.URL)
	return c, nil
}

func (c *Client) Inbox() <-chan Message { return c.inbox }

// Done is closed once Run has returned.
func (c *Client) Done() <-chan struct{} { return c.done }

// Send stamps m with our name and writes it.
func (c *Client) Send(m Message) error {
	m.From = c.cfg.Name

	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrClosed
	}

	log.Debug("Write bus", "msg", string(data))
	return c.conn.WriteMessage(ws.TextMessage, data)
}

// Run reads until ctx is cancelled, reconnecting when the hub goes away.
func (c *Client) Run(ctx context.Context) error {
	defer c.once.Do(func() { close(c.done) })

	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return ErrClosed
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || c.isShut() {
				return nil
			}
			if !isClosed(err) {
				log.Error("Failed to read", "err", err)
			}

			log.Warn("Trying to reconnect on", "url", c.cfg.URL)
			if err := c.reconnect(ctx, conn); err != nil {
				return err
			}
			log.Info("Successfully reconnected")
			continue
		}

		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			log.Warn("Failed to parse", "msg", string(data), "err", err)
			continue
		}
		if !c.forUs(m) {
			continue
		}

		select {
		case c.inbox <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	_ = c.conn.WriteControl(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(time.Second))
	err := c.conn.Close()
	c.conn = nil

	return err
}

func (c *Client) isShut() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn == nil
}

func (c *Client) forUs(m Message) bool {
	if m.From == c.cfg.Name {
		return false
	}
	return m.To == "" || strings.EqualFold(m.To, Broadcast) || m.To == c.cfg.Name
}

func (c *Client) reconnect(ctx context.Context, old *ws.Conn) error {
	old.Close()

	t := time.NewTicker(c.cfg.Reconnect)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}

		conn, err := c.dial(ctx)
		if err != nil {
			log.Debug("Reconnect failed", "err", err)
			continue
		}

		c.mu.Lock()
		if c.conn != old {
			// Closed meanwhile.
			c.mu.Unlock()
			conn.Close()
			return ErrClosed
		}
		c.conn = conn
		c.mu.Unlock()

		return nil
	}
}

func (c *Client) dial(ctx context.Context) (*ws.Conn, error) {
	conn, _, err := c.cfg.Dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	return conn, nil
}

func isClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
