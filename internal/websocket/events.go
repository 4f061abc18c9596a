package websocket

import (
	"go.uber.org/zap"
)

// EventBroadcaster handles broadcasting WebSocket events.
type EventBroadcaster struct {
	hub    *Hub
	logger *zap.Logger
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub, logger *zap.Logger) *EventBroadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBroadcaster{hub: hub, logger: logger}
}

// BroadcastScheduleUpdated tells a trip's subscribers that its schedule changed.
func (b *EventBroadcaster) BroadcastScheduleUpdated(tripID string, version int64, phase, operation, actorID string) {
	payload := ScheduleUpdatedPayload{
		TripID:    tripID,
		Version:   version,
		Phase:     phase,
		Operation: operation,
		ActorID:   actorID,
	}

	msg := NewMessage(TypeScheduleUpdated, payload)
	b.broadcastTrip(tripID, msg)
}

// BroadcastScheduleEvent posts a dates.* system message to a trip's
// subscribers.
func (b *EventBroadcaster) BroadcastScheduleEvent(msgType MessageType, payload ScheduleEventPayload) {
	msg := NewMessage(msgType, payload)
	b.broadcastTrip(payload.TripID, msg)
}

// BroadcastNotification sends a notification to all connected clients.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	payload := NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}

	msg := NewMessage(TypeNotification, payload)
	data, err := msg.JSON()
	if err != nil {
		b.logger.Error("failed to encode websocket message", zap.Error(err))
		return
	}
	b.hub.Broadcast(data)
}

func (b *EventBroadcaster) broadcastTrip(tripID string, msg Message) {
	data, err := msg.JSON()
	if err != nil {
		b.logger.Error("failed to encode websocket message", zap.Error(err), zap.String("type", string(msg.Type)))
		return
	}

	b.hub.BroadcastTrip(tripID, data)
}
