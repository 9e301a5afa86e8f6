package ws

import (
	"context"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBufSize    = 64
)

// Client represents a single WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	log  *zap.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, log *zap.Logger) *Client {
	conn.SetReadLimit(maxMessageSize)
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufSize),
		log:  log,
	}
}

// ReadPump reads client events until the connection closes.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.leave(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		if err := wsjson.Read(ctx, c.conn, &event); err != nil {
			if websocket.CloseStatus(err) == -1 {
				c.log.Debug("ws: read error", zap.Error(err))
			}
			return
		}

		c.handleEvent(ctx, &event)
	}
}

// WritePump writes messages from the send channel to the WebSocket.
// It returns once the hub drops the client.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusGoingAway, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.log.Debug("ws: write error", zap.Error(err))
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				c.log.Debug("ws: ping error", zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) handleEvent(ctx context.Context, event *Event) {
	switch event.Type {
	case EventTypePing:
		c.reply(ctx, &Event{Type: EventTypePong})

	default:
		evt, err := NewEvent(EventTypeError, ErrorPayload{Code: "UNKNOWN_EVENT", Message: "unknown event type: " + event.Type})
		if err != nil {
			return
		}
		c.reply(ctx, evt)
	}
}

// reply writes straight to the connection; send belongs to the hub.
func (c *Client) reply(ctx context.Context, event *Event) {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	if err := wsjson.Write(ctx, c.conn, event); err != nil {
		c.log.Debug("ws: reply error", zap.Error(err))
	}
}
