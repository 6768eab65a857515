package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 256 * 1024
	sendBuffer = 256
)

// Client pumps Messages between a websocket and a Session.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger
}

func NewClient(conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: logger,
	}
}

// Send queues msg for writing. When the client cannot keep up the message
// is dropped.
func (c *Client) Send(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("marshal message", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("client send buffer full, dropping message", "type", msg.Type)
	}
}

// Serve attaches conn to a new session for projectID and blocks until the
// connection ends. A refused connection gets an error message and is closed
// with a policy violation status.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, projectID, userID string) {
	c := NewClient(conn, h.logger.With("project", projectID, "user", userID))
	conn.SetReadLimit(maxMsgSize)

	s, err := h.Open(ctx, projectID, userID, c.Send)
	if err != nil {
		c.refuse(ctx, err)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	go s.Run(ctx)

	c.readPump(ctx, s)
	cancel()
	<-s.Done()
	h.Close(s)
	conn.Close(websocket.StatusNormalClosure, "")
}

func (c *Client) refuse(ctx context.Context, err error) {
	c.logger.Info("session refused", "error", err)
	defer c.conn.Close(websocket.StatusPolicyViolation, "project unavailable")

	frame, merr := errorFrame(err.Error())
	if merr != nil {
		c.logger.Error("marshal refusal", "error", merr)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	if err := c.conn.Write(writeCtx, websocket.MessageText, frame); err != nil {
		c.logger.Debug("write refusal", "error", err)
	}
}

// errorFrame encodes an unsolicited error message.
func errorFrame(text string) ([]byte, error) {
	data, err := json.Marshal(ErrorPayload{Message: text})
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: TypeError, Payload: data})
}

func (c *Client) readPump(ctx context.Context, s *Session) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if !errors.Is(err, context.Canceled) {
					c.logger.Debug("read error", "error", err)
				}
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("invalid message", "error", err)
			continue
		}
		if err := s.Deliver(ctx, msg); err != nil {
			return
		}
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.logger.Debug("write error", "error", err)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}
