package ws

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	servernet "github.com/niembro64/rts-prototype-sub002/internal/net"
	"github.com/niembro64/rts-prototype-sub002/internal/proto"
	"github.com/niembro64/rts-prototype-sub002/internal/sim"
)

// Client is the remote Connection implementation: it bridges the peer
// transport to the same contract the in-process loopback satisfies, so the
// client mirror never knows which one it holds.
type Client struct {
	mu         sync.Mutex
	conn       *websocket.Conn
	codec      *proto.Codec
	writeMu    sync.Mutex
	onSnapshot func(*proto.StateMessage)
	onGameOver func(proto.GameOverWire)
	onAssign   func(sim.PlayerID)
	onClosed   func(error)
	closed     bool
}

// DialConfig bounds connection establishment; the timeout surfaces as an
// error to the caller, never as a hang.
type DialConfig struct {
	URL     string
	Name    string
	Timeout time.Duration
}

// Dial connects to a host and starts the read pump.
func Dial(cfg DialConfig) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.Dial(dialURL(cfg), nil)
	if err != nil {
		return nil, fmt.Errorf("dial host: %w", err)
	}
	c := &Client{conn: conn, codec: proto.NewCodec()}
	go c.readLoop()
	return c, nil
}

// dialURL carries the join name as an escaped query parameter; names are
// player input and may hold separators or spaces.
func dialURL(cfg DialConfig) string {
	if cfg.Name == "" {
		return cfg.URL
	}
	return cfg.URL + "?name=" + url.QueryEscape(cfg.Name)
}

// SendCommand encodes and ships a command frame.
func (c *Client) SendCommand(cmd sim.Command) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return servernet.ErrDisconnected
	}
	msg := proto.CommandMessage{Ver: proto.ProtocolVersion, Type: proto.TypeCommand, Payload: cmd}
	data, err := c.codec.Encode(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("send command: %w", err)
	}
	return nil
}

func (c *Client) OnSnapshot(fn func(*proto.StateMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.onSnapshot = fn
}

func (c *Client) OnGameOver(fn func(proto.GameOverWire)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.onGameOver = fn
}

// OnAssignment registers for the host's player-id grant.
func (c *Client) OnAssignment(fn func(sim.PlayerID)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.onAssign = fn
}

// OnClosed registers for host-connection loss. Fatal to the session but the
// caller's render loop keeps running; it decides what to do next.
func (c *Client) OnClosed(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.onClosed = fn
}

// Disconnect tears the transport down and releases every callback. Safe to
// call repeatedly.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.onSnapshot = nil
	c.onGameOver = nil
	c.onAssign = nil
	c.onClosed = nil
	c.mu.Unlock()
	c.conn.Close()
}

func (c *Client) readLoop() {
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			onClosed := c.onClosed
			alreadyClosed := c.closed
			c.mu.Unlock()
			if !alreadyClosed && onClosed != nil {
				onClosed(err)
			}
			return
		}
		c.dispatch(payload)
	}
}

func (c *Client) dispatch(payload []byte) {
	env, raw, err := c.codec.PeekType(payload)
	if err != nil || env.Ver != proto.ProtocolVersion {
		return
	}
	switch env.Type {
	case proto.TypeState:
		var msg proto.StateMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		c.mu.Lock()
		onSnapshot := c.onSnapshot
		onGameOver := c.onGameOver
		c.mu.Unlock()
		if onSnapshot != nil {
			onSnapshot(&msg)
		}
		if msg.GameOver != nil && onGameOver != nil {
			onGameOver(*msg.GameOver)
		}
	case proto.TypePlayerAssignment:
		var msg proto.PlayerAssignmentMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		c.mu.Lock()
		onAssign := c.onAssign
		c.mu.Unlock()
		if onAssign != nil {
			onAssign(msg.PlayerID)
		}
	}
}

var _ servernet.Connection = (*Client)(nil)
