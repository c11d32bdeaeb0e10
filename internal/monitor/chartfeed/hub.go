// Package chartfeed streams rendered frames to browser charts over a
// websocket.
package chartfeed

import (
	"context"
	"sync"

	"depthwatch/internal/monitor/render"

	"github.com/gammazero/deque"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendBuffer      = 64
	broadcastBuffer = 16
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []render.Frame
}

// Hub fans frames out to connected clients and keeps the last few ticks so a
// new client starts with a filled chart. It implements render.Renderer.
type Hub struct {
	clients map[string]*client

	register   chan *client
	unregister chan *client
	broadcast  chan []render.Frame

	replay     *deque.Deque[[]render.Frame]
	replaySize int

	logger *zap.Logger
	mu     sync.RWMutex
	done   chan struct{}
}

func NewHub(replaySize int, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*client),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []render.Frame, broadcastBuffer),
		replay:     deque.New[[]render.Frame](),
		replaySize: replaySize,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Run owns the client set and the replay ring until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, c := range h.clients {
				delete(h.clients, id)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			h.mu.Unlock()
			for i := 0; i < h.replay.Len(); i++ {
				h.deliver(c, h.replay.At(i))
			}

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.send)
			}
			h.mu.Unlock()

		case frames := <-h.broadcast:
			if h.replaySize > 0 {
				h.replay.PushBack(frames)
				for h.replay.Len() > h.replaySize {
					h.replay.PopFront()
				}
			}
			h.mu.RLock()
			for _, c := range h.clients {
				h.deliver(c, frames)
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) deliver(c *client, frames []render.Frame) {
	select {
	case c.send <- frames:
	default:
		h.logger.Warn("client buffer full, skipping frames", zap.String("client", c.id))
	}
}

func (h *Hub) registerConn(conn *websocket.Conn) (*client, bool) {
	c := &client{id: uuid.New().String(), conn: conn, send: make(chan []render.Frame, sendBuffer)}
	select {
	case h.register <- c:
		return c, true
	case <-h.done:
		return nil, false
	}
}

func (h *Hub) unregisterClient(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Clear is a no-op: every frame batch replaces the chart on the client.
func (h *Hub) Clear() error { return nil }

// Draw queues frames for broadcast. It never blocks the caller; when the hub
// falls behind the batch is dropped.
func (h *Hub) Draw(frames []render.Frame) error {
	select {
	case h.broadcast <- frames:
	default:
		h.logger.Warn("chart hub busy, dropping frames", zap.Int("frames", len(frames)))
	}
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
