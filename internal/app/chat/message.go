package chat

import (
	"encoding/json"
	"strconv"
	"time"

	"chatrelay/internal/pkg/errs"
)

// SystemSender is the username attached to server-authored messages.
const SystemSender = "Server"

// EventType names an event exchanged with clients.
type EventType string

const (
	// Inbound events.
	TypeJoin         EventType = "join"
	TypeSendMessage  EventType = "sendMessage"
	TypeSendLocation EventType = "sendLocation"

	// Outbound events.
	TypeMessage         EventType = "message"
	TypeLocationMessage EventType = "locationMessage"
	TypeRoomData        EventType = "roomData"
	TypeAck             EventType = "ack"
	TypeError           EventType = "error"
)

// Event is one frame on the wire in either direction.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
	AckID   uint64    `json:"ackId,omitempty"`
}

// InboundEvent is the decoded form of a client frame; Payload is decoded later per Type.
type InboundEvent struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	AckID   uint64          `json:"ackId,omitempty"`
}

// JoinPayload is the payload of a join request.
type JoinPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// TextPayload is the payload of a sendMessage request.
type TextPayload struct {
	Text string `json:"text"`
}

// PositionPayload is the payload of a sendLocation request.
type PositionPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Message is a text message. CreatedAt is in Unix milliseconds.
type Message struct {
	Username  string `json:"username"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"`
}

// LocationMessage is a shared location rendered as a map link.
type LocationMessage struct {
	Username  string `json:"username"`
	URL       string `json:"url"`
	CreatedAt int64  `json:"createdAt"`
}

// RoomData is a membership snapshot of one room.
type RoomData struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// AckPayload answers a request that carried an ack id. Error is nil on success.
type AckPayload struct {
	Error *errs.CustomError `json:"error,omitempty"`
}

// NewTextMessage builds a text message stamped with the current server time.
func NewTextMessage(sender, text string) Message {
	return Message{
		Username:  sender,
		Text:      text,
		CreatedAt: time.Now().UnixMilli(),
	}
}

// NewLocationMessage builds a location message stamped with the current server time.
func NewLocationMessage(sender, url string) LocationMessage {
	return LocationMessage{
		Username:  sender,
		URL:       url,
		CreatedAt: time.Now().UnixMilli(),
	}
}

// LocationURL returns the map link for a coordinate pair.
func LocationURL(latitude, longitude float64) string {
	return "https://google.com/maps?q=" +
		strconv.FormatFloat(latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(longitude, 'f', -1, 64)
}

// NewRoomData builds a membership snapshot.
func NewRoomData(room string, users []string) RoomData {
	if users == nil {
		users = []string{}
	}
	return RoomData{Room: room, Users: users}
}

func newEvent(t EventType, payload any) Event {
	return Event{Type: t, Payload: payload}
}
