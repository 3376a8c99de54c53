package bus_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/bus"
)

// hub accepts connections and lets the test push frames to, and read frames
// from, the latest one.
type hub struct {
	t     *testing.T
	up    ws.Upgrader
	conns chan *ws.Conn
}

func newHub(t *testing.T) (*hub, string) {
	h := &hub{t: t, conns: make(chan *ws.Conn, 4)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := h.up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.conns <- c
	}))
	t.Cleanup(srv.Close)

	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (h *hub) next() *ws.Conn {
	select {
	case c := <-h.conns:
		return c
	case <-time.After(2 * time.Second):
		h.t.Fatal("no connection")
		return nil
	}
}

func (h *hub) push(c *ws.Conn, raw string) {
	require.NoError(h.t, c.WriteMessage(ws.TextMessage, []byte(raw)))
}

func receive(t *testing.T, c *bus.Client) bus.Message {
	select {
	case m := <-c.Inbox():
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("nothing received")
		return bus.Message{}
	}
}

func TestInboxFiltersRecipients(t *testing.T) {
	h, url := newHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := bus.Dial(ctx, bus.Config{URL: url, Name: "jarvis"})
	require.NoError(t, err)
	go c.Run(ctx)

	srv := h.next()
	h.push(srv, `{"from":"phone","to":"other","kind":"utterance","content":"skip me"}`)
	h.push(srv, `not json`)
	h.push(srv, `{"from":"jarvis","to":"all","kind":"reply","content":"echo"}`)
	h.push(srv, `{"from":"phone","to":"jarvis","kind":"utterance","content":"open google"}`)
	h.push(srv, `{"from":"phone","to":"ALL","kind":"utterance","content":"volume up"}`)

	assert.Equal(t, "open google", receive(t, c).Content)
	m := receive(t, c)
	assert.Equal(t, "volume up", m.Content)
	assert.Equal(t, "phone", m.From)
}

func TestSendStampsSender(t *testing.T) {
	h, url := newHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := bus.Dial(ctx, bus.Config{URL: url, Name: "jarvis"})
	require.NoError(t, err)
	srv := h.next()

	require.NoError(t, c.Send(bus.Message{To: "phone", Kind: bus.KindReply, Content: "Volume increased."}))

	var got bus.Message
	require.NoError(t, srv.ReadJSON(&got))
	assert.Equal(t, bus.Message{From: "jarvis", To: "phone", Kind: "reply", Content: "Volume increased."}, got)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Send(bus.Message{}), bus.ErrClosed)
}

func TestReconnect(t *testing.T) {
	h, url := newHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := bus.Dial(ctx, bus.Config{URL: url, Reconnect: 10 * time.Millisecond})
	require.NoError(t, err)
	go c.Run(ctx)

	first := h.next()
	require.NoError(t, first.WriteMessage(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseGoingAway, "restart")))
	first.Close()

	second := h.next()
	h.push(second, `{"from":"phone","kind":"utterance","content":"after restart"}`)
	assert.Equal(t, "after restart", receive(t, c).Content)
}

func TestRunStopsOnCancel(t *testing.T) {
	h, url := newHub(t)
	ctx, cancel := context.WithCancel(context.Background())

	c, err := bus.Dial(ctx, bus.Config{URL: url})
	require.NoError(t, err)
	h.next()

	errc := make(chan error, 1)
	go func() { errc <- c.Run(ctx) }()
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	<-c.Done()
}

func TestDialFails(t *testing.T) {
	_, err := bus.Dial(context.Background(), bus.Config{URL: "ws://127.0.0.1:1/ws"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial")
}
