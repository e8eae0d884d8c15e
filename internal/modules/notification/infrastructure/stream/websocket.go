package stream

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// DefaultWebSocketPath is the portal's websocket notification endpoint.
const DefaultWebSocketPath = "/ws"

// WebSocketDialer opens the websocket variant of the push stream. Every
// text message is one notification frame.
type WebSocketDialer struct {
	endpoint string
	dialer   *websocket.Dialer
}

// NewWebSocketDialer accepts an http(s) or ws(s) base URL.
func NewWebSocketDialer(baseURL, path string, dialer *websocket.Dialer) *WebSocketDialer {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	if path == "" {
		path = DefaultWebSocketPath
	}
	base := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return &WebSocketDialer{endpoint: base + path, dialer: dialer}
}

func (d *WebSocketDialer) Dial(ctx context.Context, token string) (Conn, error) {
	u, err := url.Parse(d.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse websocket url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, resp, err := d.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("open websocket: status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("open websocket: %w", err)
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Next() (Frame, error) {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return Frame{}, err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		return Frame{Name: EventNotification, Data: data}, nil
	}
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
