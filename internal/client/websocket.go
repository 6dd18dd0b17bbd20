package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coder/websocket"

	"github.com/voxchat/voxchat/internal/protocol"
)

// Dialer opens a connection to the voice backend.
type Dialer interface {
	Dial(ctx context.Context, backendURL string) (Conn, error)
}

// Conn is a message-oriented connection to the voice backend.
type Conn interface {
	// Read returns the payload of the next inbound message.
	Read(ctx context.Context) ([]byte, error)
	// WriteBinary sends a binary message.
	WriteBinary(ctx context.Context, data []byte) error
	// WriteText sends a text message.
	WriteText(ctx context.Context, data []byte) error
	// Close closes the connection, unblocking pending reads and writes.
	Close() error
}

// WebsocketDialer dials the backend's websocket endpoint.
type WebsocketDialer struct {
	HTTPClient *http.Client
}

func (d *WebsocketDialer) Dial(ctx context.Context, backendURL string) (Conn, error) {
	u, err := protocol.WebsocketURL(backendURL)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.Dial(ctx, u, &websocket.DialOptions{HTTPClient: d.HTTPClient})
	if err != nil {
		return nil, fmt.Errorf("dial voice backend: %w", err)
	}

	// Audio messages carry base64-encoded WAV clips that exceed the default read limit.
	conn.SetReadLimit(-1)

	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	_, b, err := c.conn.Read(ctx)
	return b, err
}

func (c *wsConn) WriteBinary(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageBinary, data)
}

func (c *wsConn) WriteText(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
