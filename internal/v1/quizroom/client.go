package quizroom

import (
	"context"
	"encoding/json"
	"time"

	"github.com/brightloop/quizarena/internal/v1/logging"
	"github.com/brightloop/quizarena/internal/v1/metrics"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// Client represents one websocket connection: a GM, a Player, or a
// not-yet-bound transient connection that has only been identity-resolved.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	connectionId string
	persistentId string
	displayName  string
	isGM         bool

	roomCode string
	room     *Room
}

func (c *Client) enqueueSend(data []byte) {
	select {
	case c.send <- data:
	default:
		logging.Warn(context.Background(), "client send channel full, dropping message", zap.String("connection_id", c.connectionId))
	}
}

func (c *Client) sendEvent(event string, payload any) {
	c.enqueueSend(mustMarshal(Message{Event: event, Payload: mustMarshal(payload)}))
}

func (c *Client) sendError(err error) {
	opErr := AsOpError(err)
	c.sendEvent(OutError, map[string]string{"message": opErr.Message})
}

func (c *Client) readPump() {
	defer func() {
		c.handleDisconnect()
		c.conn.Close()
		c.hub.unregister(c)
	}()

	c.conn.SetReadLimit(MaxPayloadBytes)
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if c.hub.limiter != nil && !c.hub.limiter.CheckEvent(context.Background(), c.connectionId) {
			c.sendEvent(OutError, map[string]string{"message": "rate limit exceeded"})
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendEvent(OutError, map[string]string{"message": "malformed message"})
			continue
		}

		start := time.Now()
		err = c.dispatch(context.Background(), msg)
		metrics.MessageProcessingDuration.WithLabelValues(msg.Event).Observe(time.Since(start).Seconds())
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.WebsocketEvents.WithLabelValues(msg.Event, status).Inc()
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// handleDisconnect notifies the bound room (if any) of an abrupt transport
// drop, per §5's disconnect grace-period rules.
func (c *Client) handleDisconnect() {
	if c.room == nil {
		return
	}
	room := c.room
	if c.isGM {
		room.Submit(context.Background(), func(r *Room) error {
			r.HandleGMDisconnect()
			return nil
		})
		return
	}
	room.Submit(context.Background(), func(r *Room) error {
		r.HandlePlayerDisconnect(c.persistentId)
		r.Unready(c.connectionId)
		return nil
	})
}

// bindRoom attaches the client to room under code, registering its
// connection id so future BroadcastRoom/SendTo calls reach it.
func (c *Client) bindRoom(code string, room *Room) {
	c.roomCode = code
	c.room = room
}

func mustUnmarshal[T any](payload json.RawMessage) (T, bool) {
	var v T
	if len(payload) == 0 {
		return v, true
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, false
	}
	return v, true
}
