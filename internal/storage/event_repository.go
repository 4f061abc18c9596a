package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/trypzy/backend/internal/storage/models"
)

// EventRepository reads and settles schedule outbox events.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// ListPending returns undelivered events with fewer than maxAttempts
// attempts, oldest first.
func (r *EventRepository) ListPending(ctx context.Context, maxAttempts, limit int) ([]models.ScheduleEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, trip_id, event_type, payload, created_at, delivered_at, attempts, last_error
		FROM schedule_events
		WHERE delivered_at IS NULL AND attempts < ?
		ORDER BY created_at, id
		LIMIT ?
	`, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("querying pending events: %w", err)
	}
	return scanEvents(rows)
}

// MarkDelivered records successful delivery of an event.
func (r *EventRepository) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE schedule_events SET delivered_at = ?, last_error = NULL
		WHERE id = ?
	`, at, id)
	if err != nil {
		return fmt.Errorf("marking event delivered: %w", err)
	}
	return nil
}

// MarkFailed records a failed delivery attempt.
func (r *EventRepository) MarkFailed(ctx context.Context, id string, deliveryErr error) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE schedule_events SET attempts = attempts + 1, last_error = ?
		WHERE id = ?
	`, deliveryErr.Error(), id)
	if err != nil {
		return fmt.Errorf("marking event failed: %w", err)
	}
	return nil
}

// ListByTrip returns all events for a trip, oldest first.
func (r *EventRepository) ListByTrip(ctx context.Context, tripID string) ([]models.ScheduleEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, trip_id, event_type, payload, created_at, delivered_at, attempts, last_error
		FROM schedule_events WHERE trip_id = ?
		ORDER BY created_at, id
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("querying trip events: %w", err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]models.ScheduleEvent, error) {
	defer rows.Close()

	var events []models.ScheduleEvent
	for rows.Next() {
		var (
			ev          models.ScheduleEvent
			payload     string
			deliveredAt sql.NullTime
			lastError   sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.TripID, &ev.Type, &payload, &ev.CreatedAt,
			&deliveredAt, &ev.Attempts, &lastError); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		ev.Payload = []byte(payload)
		ev.DeliveredAt = timePtr(deliveredAt)
		ev.LastError = stringPtr(lastError)
		events = append(events, ev)
	}
	return events, rows.Err()
}
