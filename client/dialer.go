package client

import (
	"context"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Conn is one bidirectional session with the server, carrying JSON frames.
type Conn interface {
	Read(ctx context.Context, v any) error
	Write(ctx context.Context, v any) error
	Close() error
}

// Dialer opens connections. The supervisor takes it as a dependency so
// tests can supply in-memory fakes.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebSocketDialer is the production Dialer.
type WebSocketDialer struct{}

// Dial opens a websocket connection to url.
func (WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Read(ctx context.Context, v any) error {
	return wsjson.Read(ctx, c.conn, v)
}

func (c *wsConn) Write(ctx context.Context, v any) error {
	return wsjson.Write(ctx, c.conn, v)
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}
