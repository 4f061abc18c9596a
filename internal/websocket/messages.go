package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeScheduleUpdated MessageType = "schedule.updated"
	TypeDatesProposed   MessageType = "dates.proposed"
	TypeDatesWithdrawn  MessageType = "dates.withdrawn"
	TypeDatesLocked     MessageType = "dates.locked"
	TypeNotification    MessageType = "notification"

	// Client -> Server command types
	TypeSubscribe   MessageType = "subscribe"
	TypeUnsubscribe MessageType = "unsubscribe"
	TypePing        MessageType = "ping"

	// Server -> Client response types
	TypeSubscribeAck   MessageType = "subscribe.ack"
	TypeUnsubscribeAck MessageType = "unsubscribe.ack"
	TypePong           MessageType = "pong"
	TypeError          MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// ScheduleUpdatedPayload is the payload for schedule.updated events. Clients
// refetch the schedule when they see a newer version.
type ScheduleUpdatedPayload struct {
	TripID    string `json:"tripId"`
	Version   int64  `json:"version"`
	Phase     string `json:"phase"`
	Operation string `json:"operation"`
	ActorID   string `json:"actorId"`
}

// ScheduleEventPayload is the payload for dates.* system messages.
type ScheduleEventPayload struct {
	EventID   string   `json:"eventId"`
	TripID    string   `json:"tripId"`
	ActorID   string   `json:"actorId"`
	Text      string   `json:"text"`
	WindowIDs []string `json:"windowIds,omitempty"`
	StartDate string   `json:"startDate,omitempty"`
	EndDate   string   `json:"endDate,omitempty"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level       string `json:"level"` // info, warning, error, success
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

// SubscribePayload is the payload of subscribe and unsubscribe commands and
// their acknowledgements.
type SubscribePayload struct {
	TripID string `json:"tripId"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"originalType,omitempty"`
}
