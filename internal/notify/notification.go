// Package notify delivers schedule outbox events to the trip chat and other
// sinks.
package notify

import (
	"encoding/json"
	"fmt"

	"github.com/trypzy/backend/internal/dates"
	"github.com/trypzy/backend/internal/storage/models"
)

// Notification is an outbox event decoded and rendered for delivery.
type Notification struct {
	Event   models.ScheduleEvent
	Payload models.ScheduleEventPayload
	// Text is the chat message announcing the transition.
	Text string
}

// Render decodes an outbox event and composes its chat text.
func Render(ev models.ScheduleEvent) (Notification, error) {
	n := Notification{Event: ev}
	if err := json.Unmarshal(ev.Payload, &n.Payload); err != nil {
		return n, fmt.Errorf("decoding payload of event %s: %w", ev.ID, err)
	}

	span := ""
	if n.Payload.StartDate != "" && n.Payload.EndDate != "" {
		if r, err := dates.ParseRange(n.Payload.StartDate, n.Payload.EndDate); err == nil {
			span = r.Human()
		}
	}

	switch ev.Type {
	case models.EventDatesProposed:
		n.Text = "New dates proposed"
		if span != "" {
			n.Text += ": " + span
		}
		if extra := len(n.Payload.WindowIDs) - 1; extra > 0 {
			n.Text += fmt.Sprintf(" (+%d alternative", extra)
			if extra > 1 {
				n.Text += "s"
			}
			n.Text += ")"
		}
		n.Text += ". React with works, caveat or can't."
	case models.EventDatesWithdrawn:
		n.Text = "The date proposal was withdrawn. Suggest and support windows again."
	case models.EventDatesLocked:
		n.Text = "Dates locked"
		if span != "" {
			n.Text += ": " + span
		}
		n.Text += "."
	default:
		return n, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return n, nil
}
