package websocket

import (
	"context"
	"encoding/json"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/cocoa-fruit/ollama-chat/domain"
	"github.com/satriahrh/cocoa-fruit/ollama-chat/utils/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
	promptBacklog  = 8
)

const (
	FrameFragment = "fragment"
	FrameError    = "error"
	FrameDone     = "done"
)

// PromptMessage is what a client sends. A text frame that is not a JSON
// object with a prompt field is taken as the prompt itself.
type PromptMessage struct {
	Prompt string `json:"prompt"`
}

// Frame is what the server sends back: fragments in order, at most one error,
// then done.
type Frame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Kind string `json:"kind,omitempty"`
}

// StreamFunc produces the fragments answering one prompt.
type StreamFunc func(ctx context.Context, prompt string) iter.Seq[domain.Fragment]

type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	prompts chan string
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	closed  bool
}

// NewClient creates a new WebSocket client. ctx supplies logging values only;
// the client's lifetime is its own.
func NewClient(ctx context.Context, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &Client{
		conn:    conn,
		send:    make(chan []byte, 256),
		prompts: make(chan string, promptBacklog),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (c *Client) Run(stream StreamFunc) {
	c.setupHandlers()

	go c.readPump()
	go c.writePump()
	go c.answer(stream)
}

// setupHandlers configures all WebSocket message handlers
func (c *Client) setupHandlers() {
	c.conn.SetCloseHandler(func(code int, text string) error {
		log.WithCtx(c.ctx).Debug("WebSocket connection closed", zap.Int("code", code), zap.String("text", text))
		c.closeWith(code, "")
		return nil
	})

	c.conn.SetPongHandler(func(appData string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
}

// Close tells the peer the server is going away and closes the connection.
func (c *Client) Close() {
	c.closeWith(websocket.CloseGoingAway, "server shutting down")
}

// closeWith sends a close frame before closing the connection. The write is
// best effort since the peer may already be gone.
func (c *Client) closeWith(code int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.cancel()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text),
		time.Now().Add(writeWait))
	c.conn.Close()
}

// Context returns the client's context
func (c *Client) Context() context.Context {
	return c.ctx
}

// readPump queues incoming prompts for answer.
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithCtx(c.ctx).Error("WebSocket error", zap.Error(err))
			}
			return
		}

		select {
		case c.prompts <- parsePrompt(message):
		case <-c.ctx.Done():
			return
		}
	}
}

// answer streams the replies one prompt at a time, so frames of different
// prompts never interleave.
func (c *Client) answer(stream StreamFunc) {
	for {
		select {
		case prompt := <-c.prompts:
			for frag := range stream(c.ctx, prompt) {
				f := Frame{Type: FrameFragment, Text: frag.Text}
				if frag.IsError() {
					f = Frame{Type: FrameError, Text: frag.Text, Kind: frag.Err.Kind.String()}
				}
				if err := c.SendFrame(f); err != nil {
					return
				}
			}
			if err := c.SendFrame(Frame{Type: FrameDone}); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump handles outgoing WebSocket messages
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithCtx(c.ctx).Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.WithCtx(c.ctx).Error("Failed to send ping", zap.Error(err))
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// SendFrame queues f for writing, waiting for room rather than dropping it.
func (c *Client) SendFrame(f Frame) error {
	message, err := json.Marshal(f)
	if err != nil {
		return err
	}

	select {
	case c.send <- message:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

func parsePrompt(message []byte) string {
	var msg PromptMessage
	if err := json.Unmarshal(message, &msg); err == nil && msg.Prompt != "" {
		return msg.Prompt
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(message, &probe); err == nil {
		if _, ok := probe["prompt"]; ok {
			return ""
		}
	}
	return strings.TrimRight(string(message), "\r\n")
}
