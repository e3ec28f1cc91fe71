// Package ipc implements the aggregator's inter-process transport:
// child-process spawning, a conflated in-process topic subscriber
// standing in for zmq's SUB-with-conflate sockets, a framed TCP
// request/reply server for the session and control channels, and a
// WebSocket broadcaster for the public fan-out feeds (state
// publisher, notifications, object state).
//
// Grounded on internal/livefeed/streamer.go's client-registry and
// read/write-pump pattern, generalized from one fixed telemetry
// struct to arbitrary topic-tagged text frames, since this system's
// wire format (spec.md §6) is plain comma/prefix text, not JSON.
package ipc

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Frame is one broadcast message: an opaque payload tagged with the
// topic it belongs to, so a single Broadcaster can serve several
// logical feeds (e.g. "state" and "notify") over one listener if a
// caller chooses to, or one feed each as cmd/aggregator does.
type Frame struct {
	Topic   string
	Payload []byte
}

// Broadcaster fans a stream of Frames out to every connected
// WebSocket client. When a client's send buffer is full the new
// frame is skipped for that client rather than blocking the producer.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	publish chan Frame

	upgrader websocket.Upgrader
	logger   *logrus.Logger

	sent    uint64
	served  uint64
}

type wsClient struct {
	conn *websocket.Conn
	send chan Frame
	id   string
}

// NewBroadcaster creates a Broadcaster ready to Run.
func NewBroadcaster(logger *logrus.Logger) *Broadcaster {
	return &Broadcaster{
		clients: make(map[*wsClient]struct{}),
		publish: make(chan Frame, 256),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// HandleWebSocket upgrades an incoming HTTP request and registers the
// resulting connection as a broadcast client.
func (b *Broadcaster) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.WithError(err).Error("websocket upgrade failed")
		return
	}
	client := &wsClient{conn: conn, send: make(chan Frame, 64), id: r.RemoteAddr}

	b.mu.Lock()
	b.clients[client] = struct{}{}
	b.served++
	b.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	go b.writePump(ctx, client)
	go b.readPump(ctx, cancel, client)
}

// Publish enqueues a frame for broadcast, dropping the oldest queued
// frame if the publish buffer is full.
func (b *Broadcaster) Publish(topic string, payload []byte) {
	f := Frame{Topic: topic, Payload: payload}
	select {
	case b.publish <- f:
	default:
		select {
		case <-b.publish:
		default:
		}
		b.publish <- f
	}
}

// Run drains the publish queue to every registered client until ctx
// is cancelled.
func (b *Broadcaster) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return ctx.Err()
		case f := <-b.publish:
			b.fanOut(f)
		}
	}
}

func (b *Broadcaster) fanOut(f Frame) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for c := range b.clients {
		select {
		case c.send <- f:
			b.sent++
		default:
		}
	}
}

func (b *Broadcaster) unregister(c *wsClient) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
}

func (b *Broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		c.conn.Close()
		close(c.send)
		delete(b.clients, c)
	}
}

// Stats returns the current client count and lifetime message counters.
func (b *Broadcaster) Stats() (clients int, sent, served uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients), b.sent, b.served
}

func (b *Broadcaster) writePump(ctx context.Context, c *wsClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, f.Payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (b *Broadcaster) readPump(ctx context.Context, cancel context.CancelFunc, c *wsClient) {
	defer func() {
		cancel()
		b.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
		// Public feeds are one-directional; inbound frames are discarded.
	}
}
