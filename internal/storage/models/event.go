package models

import "time"

// ScheduleEvent is an outbox record describing a schedule transition that
// must be announced to the trip's chat.
type ScheduleEvent struct {
	ID          string     `json:"id"`
	TripID      string     `json:"tripId"`
	Type        string     `json:"type"`
	Payload     []byte     `json:"payload"`
	CreatedAt   time.Time  `json:"createdAt"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	Attempts    int        `json:"attempts"`
	LastError   *string    `json:"lastError,omitempty"`
}

// Event type constants
const (
	EventDatesProposed  = "dates.proposed"
	EventDatesWithdrawn = "dates.withdrawn"
	EventDatesLocked    = "dates.locked"
)

// ScheduleEventPayload is the JSON body stored in ScheduleEvent.Payload.
type ScheduleEventPayload struct {
	ActorID   string   `json:"actorId"`
	WindowIDs []string `json:"windowIds,omitempty"`
	StartDate string   `json:"startDate,omitempty"`
	EndDate   string   `json:"endDate,omitempty"`
	Override  bool     `json:"override,omitempty"`
}
