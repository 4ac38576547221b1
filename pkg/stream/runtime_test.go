package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mexoms/perpunify/pkg/metrics"
)

// fakePeer is an in-memory WebSocket peer a test dials against, in the
// style of a handcrafted httptest server upgrading every connection.
// Each accepted connection is handed to onConn so a test can script
// its own request/response behavior, drop the connection to force a
// reconnect, etc.
type fakePeer struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns []*websocket.Conn
}

func newFakePeer(t *testing.T, onConn func(*websocket.Conn)) *fakePeer {
	p := &fakePeer{}
	p.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := p.upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		p.mu.Lock()
		p.conns = append(p.conns, ws)
		p.mu.Unlock()
		if onConn != nil {
			go onConn(ws)
		}
	}))
	return p
}

func (p *fakePeer) wsURL() string {
	return "ws" + strings.TrimPrefix(p.srv.URL, "http")
}

func (p *fakePeer) close() { p.srv.Close() }

func (p *fakePeer) dropAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.conns {
		c.Close()
	}
	p.conns = nil
}

func echoDecoder(raw []byte) (string, bool) { return "ticker", true }

func TestRuntimeConnectAndSubscribeDeliversEvents(t *testing.T) {
	received := make(chan []byte, 4)
	peer := newFakePeer(t, func(ws *websocket.Conn) {
		for {
			_, msg, err := ws.ReadMessage()
			if err != nil {
				return
			}
			received <- msg
			ws.WriteMessage(websocket.TextMessage, []byte(`{"channel":"ticker","price":"100"}`))
		}
	})
	defer peer.close()

	rt := New(Config{
		VenueID: "test",
		Conn:    ConnConfig{URL: peer.wsURL()},
		Decoder: echoDecoder,
	})
	require.NoError(t, rt.Connect(context.Background()))
	defer rt.Disconnect()

	sub, err := rt.Subscribe("ticker", func() ([]byte, error) {
		return []byte(`{"op":"subscribe","channel":"ticker"}`), nil
	}, false, 0)
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Contains(t, string(msg), "subscribe")
	case <-time.After(2 * time.Second):
		t.Fatal("server never received subscribe frame")
	}

	select {
	case ev := <-sub.Events():
		assert.Equal(t, "ticker", ev.Channel)
		assert.Contains(t, string(ev.Data), "price")
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never received event")
	}
}

func TestRuntimeDisconnectClosesSubscriptions(t *testing.T) {
	peer := newFakePeer(t, func(ws *websocket.Conn) {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer peer.close()

	rt := New(Config{
		VenueID: "test",
		Conn:    ConnConfig{URL: peer.wsURL()},
		Decoder: echoDecoder,
	})
	require.NoError(t, rt.Connect(context.Background()))

	sub, err := rt.Subscribe("ticker", func() ([]byte, error) { return []byte(`{}`), nil }, false, 0)
	require.NoError(t, err)

	rt.Disconnect()

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription was not closed on disconnect")
	}
	assert.False(t, rt.IsConnected())
}

func TestRuntimeReconnectResubscribesWithFreshAuth(t *testing.T) {
	var buildCount int
	var mu sync.Mutex

	var peer *fakePeer
	subscribeFrames := make(chan string, 8)
	peer = newFakePeer(t, func(ws *websocket.Conn) {
		for {
			_, msg, err := ws.ReadMessage()
			if err != nil {
				return
			}
			subscribeFrames <- string(msg)
		}
	})
	defer peer.close()

	rt := New(Config{
		VenueID: "test",
		Conn:    ConnConfig{URL: peer.wsURL(), HeartbeatInterval: 50 * time.Millisecond, PongTimeout: 50 * time.Millisecond},
		Backoff: BackoffConfig{InitialDelay: 10 * time.Millisecond, MaxDelay: 20 * time.Millisecond, MaxAttempts: 5},
		Decoder: echoDecoder,
	})
	require.NoError(t, rt.Connect(context.Background()))
	defer rt.Disconnect()

	_, err := rt.Subscribe("private.orders", func() ([]byte, error) {
		mu.Lock()
		buildCount++
		n := buildCount
		mu.Unlock()
		return []byte(`{"token":"tok-` + string(rune('0'+n)) + `"}`), nil
	}, true, 0)
	require.NoError(t, err)

	select {
	case <-subscribeFrames:
	case <-time.After(2 * time.Second):
		t.Fatal("initial subscribe frame never arrived")
	}

	peer.dropAll()

	select {
	case frame := <-subscribeFrames:
		assert.Contains(t, frame, "tok-2")
	case <-time.After(3 * time.Second):
		t.Fatal("resubscribe frame never arrived after reconnect")
	}

	mu.Lock()
	assert.GreaterOrEqual(t, buildCount, 2)
	mu.Unlock()
}

func TestRuntimeRecordsWSReconnectMetric(t *testing.T) {
	obs := &countingObserver{}
	peer := newFakePeer(t, func(ws *websocket.Conn) {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer peer.close()

	rt := New(Config{
		VenueID:  "test",
		Conn:     ConnConfig{URL: peer.wsURL(), HeartbeatInterval: 30 * time.Millisecond, PongTimeout: 30 * time.Millisecond},
		Backoff:  BackoffConfig{InitialDelay: 10 * time.Millisecond, MaxDelay: 10 * time.Millisecond, MaxAttempts: 5},
		Decoder:  echoDecoder,
		Observer: obs,
	})
	require.NoError(t, rt.Connect(context.Background()))
	defer rt.Disconnect()

	peer.dropAll()

	require.Eventually(t, func() bool {
		obs.mu.Lock()
		defer obs.mu.Unlock()
		return obs.reconnects > 0
	}, 3*time.Second, 20*time.Millisecond)
}

type countingObserver struct {
	metrics.NoopObserver
	mu         sync.Mutex
	reconnects int
	dropped    int
}

func (c *countingObserver) RecordWSReconnect(string) {
	c.mu.Lock()
	c.reconnects++
	c.mu.Unlock()
}

func (c *countingObserver) RecordWSDroppedEvent(string, string) {
	c.mu.Lock()
	c.dropped++
	c.mu.Unlock()
}

func TestRuntimeSubscribeBeforeConnectErrors(t *testing.T) {
	rt := New(Config{VenueID: "test"})
	_, err := rt.Subscribe("ticker", func() ([]byte, error) { return []byte(`{}`), nil }, false, 0)
	assert.Error(t, err)
}
