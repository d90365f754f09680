package ws

import (
	"context"
	"encoding/json"
	"sync"

	"go-repairshop/internal/notify"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Client struct {
	Conn     Conn
	TenantID uuid.UUID
	UserID   uuid.UUID
}

// Message is delivered only to clients of TenantID.
type Message struct {
	TenantID uuid.UUID
	Data     []byte
}

type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan Message
	done       chan struct{}
	mutex      sync.Mutex
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan Message),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves the hub until ctx is done. Join and Leave stop blocking once it returns.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for c := range h.Clients {
				c.Conn.Close()
				delete(h.Clients, c)
			}
			h.mutex.Unlock()
			return

		case c := <-h.Register:
			h.mutex.Lock()
			h.Clients[c] = true
			h.mutex.Unlock()
			h.logger.Debug("ws client connected",
				zap.String("tenant_id", c.TenantID.String()),
				zap.String("user_id", c.UserID.String()),
			)

		case c := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[c]; ok {
				delete(h.Clients, c)
				c.Conn.Close()
			}
			h.mutex.Unlock()

		case msg := <-h.Broadcast:
			h.mutex.Lock()
			for c := range h.Clients {
				if c.TenantID != msg.TenantID {
					continue
				}
				if err := c.Conn.WriteMessage(websocket.TextMessage, msg.Data); err != nil {
					c.Conn.Close()
					delete(h.Clients, c)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Join registers c. It reports false when the hub has stopped.
func (h *Hub) Join(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters c, or returns at once when the hub has stopped.
func (h *Hub) Leave(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}

// Count returns the number of connected clients of one tenant.
func (h *Hub) Count(tenantID uuid.UUID) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	n := 0
	for c := range h.Clients {
		if c.TenantID == tenantID {
			n++
		}
	}
	return n
}

func (h *Hub) Name() string { return "websocket" }

// Notify implements notify.Notifier.
func (h *Hub) Notify(ctx context.Context, e notify.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	select {
	case h.Broadcast <- Message{TenantID: e.TenantID, Data: data}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
