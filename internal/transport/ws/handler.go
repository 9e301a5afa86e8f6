package ws

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// ServeWS returns an HTTP handler that upgrades to WebSocket and streams
// user change events. Same-host pages are always accepted; other origins
// must match allowedOrigins.
func ServeWS(hub *Hub, allowedOrigins []string, log *zap.Logger) http.HandlerFunc {
	patterns := originPatterns(allowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: patterns,
		})
		if err != nil {
			log.Warn("ws: accept error", zap.Error(err))
			return
		}

		client := NewClient(hub, conn, log)
		if !hub.join(client) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		go client.WritePump()
		client.ReadPump(r.Context())
	}
}

// originPatterns reduces configured origins to the host patterns the
// websocket library matches against.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}
