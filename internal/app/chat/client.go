/*
Package chat contains the core logic for routing real-time chat events between connections.

This file defines the Client struct, the websocket side of one connection. It runs the read and
write loops, decodes inbound events into Session calls, answers acknowledgements, and implements
Outbox so the Manager can queue events for it.
*/
package chat

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/logx"
)

const (
	// timeout duration for writing to the websocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 8192

	// DefaultSendQueueSize is the per-connection outbound queue length.
	DefaultSendQueueSize = 256

	// WsCloseCodeProtocolViolation is sent when a client acts before joining.
	WsCloseCodeProtocolViolation = 4002

	// WsCloseCodeSlowConsumer is sent when a client's send queue overflows.
	WsCloseCodeSlowConsumer = 4008
)

var errEmptyPayload = errors.New("empty payload")

// Client represents an active websocket connection.
type Client struct {
	id string

	// underlying websocket connection object.
	conn *websocket.Conn

	// session is the protocol state machine this client feeds.
	session *Session

	// a buffered channel used to queue frames waiting to be written.
	send chan []byte

	// mu guards closed and closeFrame; send is closed exactly once under mu.
	mu         sync.Mutex
	closed     bool
	closeFrame []byte

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded connection. queueSize <= 0 uses DefaultSendQueueSize.
func NewClient(id string, wsConn *websocket.Conn, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = DefaultSendQueueSize
	}

	return &Client{
		id:         id,
		conn:       wsConn,
		send:       make(chan []byte, queueSize),
		closeFrame: websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		logger:     logx.Logger().With().Str("conn_id", id).Logger(),
	}
}

// ID implements Outbox.
func (c *Client) ID() string {
	return c.id
}

// Deliver implements Outbox. It never blocks: a full queue closes the connection.
func (c *Client) Deliver(ev Event) error {
	frame, err := json.Marshal(ev)
	if err != nil {
		c.logger.Error().Err(err).Str("event", string(ev.Type)).Msg("Error marshaling event for client")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrOutboxClosed
	}

	select {
	case c.send <- frame:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, closing connection")
		c.closeLocked(WsCloseCodeSlowConsumer, "send queue overflow")
		return ErrSendQueueFull
	}
}

// Close implements Outbox. Queued frames are still written before the close frame.
func (c *Client) Close() {
	c.CloseWith(websocket.CloseGoingAway, "server shutting down")
}

// CloseWith closes the outbound queue and records the close frame the write loop sends last.
func (c *Client) CloseWith(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLocked(code, reason)
}

func (c *Client) closeLocked(code int, reason string) {
	if c.closed {
		return
	}
	c.closed = true
	c.closeFrame = websocket.FormatCloseMessage(code, reason)
	close(c.send)
}

// Serve binds the client to session and runs both pumps. It returns when the connection is gone,
// after the session has been disconnected.
func (c *Client) Serve(session *Session) {
	c.session = session

	go c.WritePump()
	c.ReadPump()
}

// ReadPump reads frames until the connection fails, then disconnects the session.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.processInboundMessage(frame)
	}
}

// cleanupOnDisconnect runs when ReadPump ends.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Debug().Msg("Client connection cleanup starting.")

	if c.session != nil {
		c.session.Disconnect()
	}

	c.CloseWith(websocket.CloseNormalClosure, "")

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// processInboundMessage decodes one client frame and dispatches it to the session.
func (c *Client) processInboundMessage(frame []byte) {
	var inbound InboundEvent

	if err := json.Unmarshal(frame, &inbound); err != nil {
		c.logger.Warn().Err(err).Bytes("frame", frame).Msg("Client sent invalid JSON")
		c.reply(0, errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	var result *errs.CustomError

	switch inbound.Type {
	case TypeJoin:
		result = c.handleJoin(inbound.Payload)

	case TypeSendMessage:
		result = c.handleSendMessage(inbound.Payload)

	case TypeSendLocation:
		result = c.handleSendLocation(inbound.Payload)

	default:
		c.logger.Warn().Str("event", string(inbound.Type)).Msg("Client sent unsupported event type")
		result = errs.NewError(errs.ErrUnsupportedEvent, inbound.Type)
	}

	c.reply(inbound.AckID, result)

	if result != nil && result.Code == errs.ErrProtocolViolation {
		c.CloseWith(WsCloseCodeProtocolViolation, "join a room first")
	}
}

func (c *Client) handleJoin(raw json.RawMessage) *errs.CustomError {
	var payload JoinPayload
	if err := decodePayload(raw, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid join payload")
		return errs.NewError(errs.ErrInvalidParams)
	}

	_, joinErr := c.session.Join(payload.Username, payload.Room)
	return joinErr
}

// handleSendMessage accepts {"text": "..."} or, as the browser client sends it, a bare JSON string.
func (c *Client) handleSendMessage(raw json.RawMessage) *errs.CustomError {
	var payload TextPayload
	if err := decodePayload(raw, &payload); err != nil {
		if errors.Is(err, errEmptyPayload) || json.Unmarshal(raw, &payload.Text) != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid sendMessage payload")
			return errs.NewError(errs.ErrInvalidParams)
		}
	}

	return c.session.SendMessage(payload.Text)
}

func (c *Client) handleSendLocation(raw json.RawMessage) *errs.CustomError {
	var payload PositionPayload
	if err := decodePayload(raw, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid sendLocation payload")
		return errs.NewError(errs.ErrInvalidParams)
	}

	return c.session.SendLocation(payload.Latitude, payload.Longitude)
}

// reply answers a request exactly once. With an ack id the answer is an ack carrying the
// optional error; without one only failures are reported, as an error event.
func (c *Client) reply(ackID uint64, result *errs.CustomError) {
	var ev Event

	switch {
	case ackID != 0:
		ev = Event{Type: TypeAck, AckID: ackID, Payload: AckPayload{Error: result}}
	case result != nil:
		ev = newEvent(TypeError, result)
	default:
		return
	}

	if err := c.Deliver(ev); err != nil {
		c.logger.Debug().Err(err).Str("event", string(ev.Type)).Msg("Failed to queue reply")
	}
}

// WritePump writes queued frames and periodic pings until the queue is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedMessage(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one frame, or the close frame once the queue is closed.
// Returns false when WritePump should stop.
func (c *Client) writeQueuedMessage(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		c.mu.Lock()
		closeFrame := c.closeFrame
		c.mu.Unlock()

		if err := c.conn.WriteMessage(websocket.CloseMessage, closeFrame); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a heartbeat Ping. Returns false on write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// decodePayload decodes a non-empty payload into dst.
func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return errEmptyPayload
	}
	return json.Unmarshal(raw, dst)
}
