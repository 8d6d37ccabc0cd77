package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/GriffinCanCode/ReaderBridge/internal/domain/command"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/id"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

// ErrConnClosed is returned by Inject after the socket has gone away
var ErrConnClosed = errors.New("websocket connection closed")

// Conn is the command channel into one browser-hosted sandbox. Writes are
// serialized so injected scripts arrive in the order they were sent.
type Conn struct {
	id           id.ConnectionID
	ws           *websocket.Conn
	writeTimeout time.Duration
	onWrite      func(msgType string)

	mu     sync.Mutex
	closed bool
}

func newConn(ws *websocket.Conn, writeTimeout time.Duration, onWrite func(string)) *Conn {
	return &Conn{
		id:           id.NewConnectionID(),
		ws:           ws,
		writeTimeout: writeTimeout,
		onWrite:      onWrite,
	}
}

// ID returns the connection id
func (c *Conn) ID() id.ConnectionID { return c.id }

// Inject sends script as an eval frame
func (c *Conn) Inject(ctx context.Context, script command.Script) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := sonic.Marshal(types.WSMessage{
		Type:   "eval",
		Intent: string(script.Intent),
		Script: script.Source,
	})
	if err != nil {
		return err
	}
	return c.write(ctx, websocket.TextMessage, payload, "eval")
}

func (c *Conn) ping() error {
	return c.write(context.Background(), websocket.PingMessage, nil, "")
}

func (c *Conn) write(ctx context.Context, messageType int, payload []byte, label string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnClosed
	}

	deadline := time.Now().Add(c.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}

	if messageType == websocket.PingMessage {
		return c.ws.WriteControl(messageType, payload, deadline)
	}
	if err := c.ws.WriteMessage(messageType, payload); err != nil {
		return err
	}
	if c.onWrite != nil && label != "" {
		c.onWrite(label)
	}
	return nil
}

func (c *Conn) close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = c.ws.Close()
}
