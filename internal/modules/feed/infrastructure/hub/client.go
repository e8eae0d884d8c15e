package hub

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 16

	kindWebSocket = "websocket"
	kindSSE       = "sse"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one open stream of one user.
type Client struct {
	hub    *Hub
	userID string
	kind   string
	send   chan []byte
}

func newClient(h *Hub, userID, kind string) *Client {
	return &Client{hub: h, userID: userID, kind: kind, send: make(chan []byte, sendBuffer)}
}

// ServeWs upgrades the request and streams userID's notifications as text
// messages.
func ServeWs(h *Hub, w http.ResponseWriter, r *http.Request, userID string) {
	// Registered before the handshake completes so a connected peer never
	// misses a message sent right after it connects.
	client := newClient(h, userID, kindWebSocket)
	if !h.add(client) {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		h.remove(client)
		return
	}

	go client.writePump(conn)
	go client.readPump(conn)
}

// readPump only drains control frames so pongs are processed.
func (c *Client) readPump(conn *websocket.Conn) {
	defer func() {
		c.hub.remove(c)
		conn.Close()
	}()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeSSE streams userID's notifications as text/event-stream until the
// request ends or the hub stops. A comment line is written every heartbeat
// so idle connections are not reaped by proxies.
func ServeSSE(h *Hub, w http.ResponseWriter, r *http.Request, userID string, heartbeat time.Duration) {
	client := newClient(h, userID, kindSSE)
	if !h.add(client) {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.remove(client)

	rc := http.NewResponseController(w)
	// The stream outlives any server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Warn().Err(err).Msg("response does not support streaming")
		return
	}

	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: notification\ndata: %s\n\n", message); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
