package ws

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

const broadcastBufSize = 256

// Hub fans user change events out to every connected browser.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	log *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, broadcastBufSize),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run starts the Hub's main event loop and returns when ctx is done.
// Call this in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for client := range h.clients {
			h.drop(client)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.log.Debug("ws hub: client connected", zap.Int("clients", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.log.Debug("ws hub: client disconnected", zap.Int("clients", len(h.clients)))
			}

		case data := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Client buffer full - disconnect
					h.drop(client)
					h.log.Warn("ws hub: dropped slow client")
				}
			}
		}
	}
}

// Broadcast queues event for every client. It never blocks the caller.
func (h *Hub) Broadcast(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("ws hub: marshal error", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		h.log.Warn("ws hub: broadcast queue full, event dropped", zap.String("type", event.Type))
	}
}

func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
}
