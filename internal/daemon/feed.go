package daemon

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"scankiosk/internal/logging"
)

const (
	feedQueueSize    = 64
	feedWriteTimeout = 10 * time.Second
	feedPongTimeout  = 60 * time.Second
	feedPingInterval = (feedPongTimeout * 9) / 10
)

type feedMessage struct {
	Severity logging.Severity `json:"severity"`
	Message  string           `json:"message"`
}

// liveFeed relays bus events to WebSocket clients. Each client gets a bounded
// queue; events that do not fit are dropped.
type liveFeed struct {
	bus      *logging.EventBus
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*feedClient]struct{}
	closed  bool
}

type feedClient struct {
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	dropped atomic.Int64
}

func newLiveFeed(bus *logging.EventBus, logger *slog.Logger) *liveFeed {
	return &liveFeed{
		bus:    bus,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*feedClient]struct{}),
	}
}

func (f *liveFeed) serveHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		f.logger.Debug("websocket upgrade failed", logging.Error(err))
		return
	}

	client := &feedClient{
		conn: conn,
		send: make(chan []byte, feedQueueSize),
		done: make(chan struct{}),
	}
	if !f.add(client) {
		_ = conn.Close()
		return
	}

	sub := f.bus.Subscribe(client.enqueue)
	defer func() {
		f.bus.Unsubscribe(sub)
		f.remove(client)
		if dropped := client.dropped.Load(); dropped > 0 {
			f.logger.Debug("live feed client dropped events", logging.Int("dropped", int(dropped)))
		}
	}()

	go client.readLoop()
	client.writeLoop()
}

func (f *liveFeed) add(client *feedClient) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.clients[client] = struct{}{}
	return true
}

func (f *liveFeed) remove(client *feedClient) {
	f.mu.Lock()
	delete(f.clients, client)
	f.mu.Unlock()
	client.close()
}

func (f *liveFeed) clientCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// closeAll disconnects every client and refuses new ones.
func (f *liveFeed) closeAll() {
	f.mu.Lock()
	f.closed = true
	clients := make([]*feedClient, 0, len(f.clients))
	for c := range f.clients {
		clients = append(clients, c)
	}
	f.mu.Unlock()
	for _, c := range clients {
		c.close()
	}
}

// enqueue runs on the publisher goroutine and must never block or log.
func (c *feedClient) enqueue(evt logging.LogEvent) {
	payload, err := json.Marshal(feedMessage{Severity: evt.Severity, Message: evt.Message})
	if err != nil {
		return
	}
	select {
	case <-c.done:
	case c.send <- payload:
	default:
		c.dropped.Add(1)
	}
}

func (c *feedClient) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *feedClient) writeLoop() {
	ticker := time.NewTicker(feedPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards client messages and notices disconnects.
func (c *feedClient) readLoop() {
	defer c.close()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(feedPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(feedPongTimeout))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
