package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/trypzy/backend/internal/storage/models"
)

// ScheduleStore provides transactional access to a trip's scheduling state:
// the trip row, its date windows, supports, reactions and outbox events.
type ScheduleStore struct {
	db *DB
}

// NewScheduleStore creates a new schedule store.
func NewScheduleStore(db *DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

// ScheduleTx is a unit of work against one trip's scheduling state.
// All of its methods run inside the same database transaction.
type ScheduleTx struct {
	q Queryable
}

// Snapshot reads a consistent view of the trip's scheduling state.
// Returns nil, nil when the trip does not exist.
func (s *ScheduleStore) Snapshot(ctx context.Context, tripID string) (*models.ScheduleSnapshot, error) {
	var snap *models.ScheduleSnapshot
	err := s.db.ReadTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		snap, err = loadSnapshot(ctx, tx, tripID)
		return err
	})
	return snap, err
}

// Update runs fn inside a write transaction. The transaction commits only if
// fn returns nil.
func (s *ScheduleStore) Update(ctx context.Context, fn func(tx *ScheduleTx) error) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		return fn(&ScheduleTx{q: tx})
	})
}

// Snapshot reads the trip's scheduling state within the transaction.
func (t *ScheduleTx) Snapshot(ctx context.Context, tripID string) (*models.ScheduleSnapshot, error) {
	return loadSnapshot(ctx, t.q, tripID)
}

// InsertWindow persists a new date window.
func (t *ScheduleTx) InsertWindow(ctx context.Context, w *models.DateWindow) error {
	if w.ID == "" {
		w.ID = GenerateID()
	}

	_, err := t.q.ExecContext(ctx, `
		INSERT INTO date_windows (
			id, trip_id, proposed_by, start_date, end_date, source_text,
			normalized_start, normalized_end, precision, window_type, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		w.ID, w.TripID, w.ProposedBy, nullString(w.StartDate), nullString(w.EndDate),
		nullString(w.SourceText), nullString(w.NormalizedStart), nullString(w.NormalizedEnd),
		w.Precision, w.WindowType, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting date window: %w", err)
	}
	return nil
}

// DeleteWindow removes a window; supports and reactions cascade.
func (t *ScheduleTx) DeleteWindow(ctx context.Context, windowID string) error {
	result, err := t.q.ExecContext(ctx, "DELETE FROM date_windows WHERE id = ?", windowID)
	if err != nil {
		return fmt.Errorf("deleting date window: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetWindowDates replaces the normalized range of a window.
func (t *ScheduleTx) SetWindowDates(ctx context.Context, windowID, start, end, precision string) error {
	_, err := t.q.ExecContext(ctx, `
		UPDATE date_windows SET normalized_start = ?, normalized_end = ?, precision = ?
		WHERE id = ?
	`, start, end, precision, windowID)
	if err != nil {
		return fmt.Errorf("updating window dates: %w", err)
	}
	return nil
}

// AddSupport records userID's support for a window.
func (t *ScheduleTx) AddSupport(ctx context.Context, windowID, userID string, at time.Time) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO window_supports (window_id, user_id, created_at) VALUES (?, ?, ?)
	`, windowID, userID, at)
	if err != nil {
		return fmt.Errorf("inserting window support: %w", err)
	}
	return nil
}

// RemoveSupport deletes userID's support for a window.
func (t *ScheduleTx) RemoveSupport(ctx context.Context, windowID, userID string) error {
	result, err := t.q.ExecContext(ctx, `
		DELETE FROM window_supports WHERE window_id = ? AND user_id = ?
	`, windowID, userID)
	if err != nil {
		return fmt.Errorf("deleting window support: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertReaction stores a user's reaction, replacing any earlier reaction by
// the same user on the same window.
func (t *ScheduleTx) UpsertReaction(ctx context.Context, r *models.Reaction) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO window_reactions (window_id, user_id, reaction_type, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(window_id, user_id) DO UPDATE SET
			reaction_type = excluded.reaction_type,
			note = excluded.note,
			updated_at = excluded.updated_at
	`, r.WindowID, r.UserID, r.ReactionType, nullString(r.Note), r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting reaction: %w", err)
	}
	return nil
}

// DeleteReactions removes every reaction on the given windows.
func (t *ScheduleTx) DeleteReactions(ctx context.Context, windowIDs []string) (int64, error) {
	if len(windowIDs) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(windowIDs)), ",")
	args := make([]any, len(windowIDs))
	for i, id := range windowIDs {
		args[i] = id
	}

	result, err := t.q.ExecContext(ctx,
		"DELETE FROM window_reactions WHERE window_id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("deleting reactions: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// BumpVersion advances the trip's schedule version if it still equals
// expected. It reports false when another writer got there first.
func (t *ScheduleTx) BumpVersion(ctx context.Context, tripID string, expected int64) (bool, error) {
	result, err := t.q.ExecContext(ctx, `
		UPDATE trips SET schedule_version = schedule_version + 1
		WHERE id = ? AND schedule_version = ?
	`, tripID, expected)
	if err != nil {
		return false, fmt.Errorf("bumping schedule version: %w", err)
	}
	return affectedOne(result)
}

// SetProposal stores the proposed window ids, conditional on the expected
// version and on no proposal or lock being present.
func (t *ScheduleTx) SetProposal(ctx context.Context, tripID string, expected int64, windowIDs []string, at time.Time) (bool, error) {
	ids, err := json.Marshal(windowIDs)
	if err != nil {
		return false, fmt.Errorf("encoding proposed window ids: %w", err)
	}

	result, err := t.q.ExecContext(ctx, `
		UPDATE trips SET
			proposed_window_ids = ?,
			proposed_at = ?,
			schedule_version = schedule_version + 1
		WHERE id = ? AND schedule_version = ? AND proposed_window_ids IS NULL AND locked = 0
	`, string(ids), at, tripID, expected)
	if err != nil {
		return false, fmt.Errorf("setting proposal: %w", err)
	}
	return affectedOne(result)
}

// ClearProposal removes the active proposal, conditional on the expected version.
func (t *ScheduleTx) ClearProposal(ctx context.Context, tripID string, expected int64) (bool, error) {
	result, err := t.q.ExecContext(ctx, `
		UPDATE trips SET
			proposed_window_ids = NULL,
			proposed_at = NULL,
			schedule_version = schedule_version + 1
		WHERE id = ? AND schedule_version = ? AND proposed_window_ids IS NOT NULL AND locked = 0
	`, tripID, expected)
	if err != nil {
		return false, fmt.Errorf("clearing proposal: %w", err)
	}
	return affectedOne(result)
}

// LockRecord holds the final dates written when a trip is locked.
type LockRecord struct {
	WindowID  string
	StartDate string
	EndDate   string
	LockedAt  time.Time
}

// SetLocked fixes the trip's final dates and clears the proposal, conditional
// on the expected version and on a proposal being active.
func (t *ScheduleTx) SetLocked(ctx context.Context, tripID string, expected int64, lock LockRecord) (bool, error) {
	result, err := t.q.ExecContext(ctx, `
		UPDATE trips SET
			locked = 1,
			locked_start_date = ?,
			locked_end_date = ?,
			locked_from_window_id = ?,
			locked_at = ?,
			proposed_window_ids = NULL,
			proposed_at = NULL,
			schedule_version = schedule_version + 1
		WHERE id = ? AND schedule_version = ? AND proposed_window_ids IS NOT NULL AND locked = 0
	`, lock.StartDate, lock.EndDate, lock.WindowID, lock.LockedAt, tripID, expected)
	if err != nil {
		return false, fmt.Errorf("locking dates: %w", err)
	}
	return affectedOne(result)
}

// AppendEvent writes an outbox event in the same transaction as the change
// it describes.
func (t *ScheduleTx) AppendEvent(ctx context.Context, ev *models.ScheduleEvent) error {
	if ev.ID == "" {
		ev.ID = GenerateID()
	}
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO schedule_events (id, trip_id, event_type, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, ev.ID, ev.TripID, ev.Type, string(ev.Payload), ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending schedule event: %w", err)
	}
	return nil
}

func affectedOne(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return n == 1, nil
}

func loadSnapshot(ctx context.Context, q Queryable, tripID string) (*models.ScheduleSnapshot, error) {
	trip, err := loadTripSchedule(ctx, q, tripID)
	if err != nil || trip == nil {
		return nil, err
	}

	windows, err := loadWindows(ctx, q, tripID)
	if err != nil {
		return nil, err
	}

	reactions, err := loadReactions(ctx, q, tripID)
	if err != nil {
		return nil, err
	}

	return &models.ScheduleSnapshot{
		Trip:      *trip,
		Windows:   windows,
		Reactions: reactions,
	}, nil
}

func loadTripSchedule(ctx context.Context, q Queryable, tripID string) (*models.TripSchedule, error) {
	var (
		trip             models.TripSchedule
		proposedIDs      sql.NullString
		proposedAt       sql.NullTime
		lockedStart      sql.NullString
		lockedEnd        sql.NullString
		lockedFromWindow sql.NullString
		lockedAt         sql.NullTime
	)

	err := q.QueryRowContext(ctx, `
		SELECT id, name, proposed_window_ids, proposed_at, locked, locked_start_date,
		       locked_end_date, locked_from_window_id, locked_at, schedule_version
		FROM trips WHERE id = ?
	`, tripID).Scan(&trip.TripID, &trip.Name, &proposedIDs, &proposedAt, &trip.Locked,
		&lockedStart, &lockedEnd, &lockedFromWindow, &lockedAt, &trip.Version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying trip schedule: %w", err)
	}

	if proposedIDs.Valid && proposedIDs.String != "" {
		if err := json.Unmarshal([]byte(proposedIDs.String), &trip.ProposedWindowIDs); err != nil {
			return nil, fmt.Errorf("decoding proposed window ids: %w", err)
		}
	}
	trip.ProposedAt = timePtr(proposedAt)
	trip.LockedStartDate = stringPtr(lockedStart)
	trip.LockedEndDate = stringPtr(lockedEnd)
	trip.LockedFromWindowID = stringPtr(lockedFromWindow)
	trip.LockedAt = timePtr(lockedAt)

	return &trip, nil
}

func loadWindows(ctx context.Context, q Queryable, tripID string) ([]models.WindowWithSupport, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, trip_id, proposed_by, start_date, end_date, source_text,
		       normalized_start, normalized_end, precision, window_type, created_at
		FROM date_windows WHERE trip_id = ?
		ORDER BY created_at, id
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("querying date windows: %w", err)
	}
	defer rows.Close()

	var windows []models.WindowWithSupport
	index := make(map[string]int)
	for rows.Next() {
		var (
			w                          models.WindowWithSupport
			start, end, text           sql.NullString
			normalizedStart, normalEnd sql.NullString
		)
		if err := rows.Scan(&w.ID, &w.TripID, &w.ProposedBy, &start, &end, &text,
			&normalizedStart, &normalEnd, &w.Precision, &w.WindowType, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning date window: %w", err)
		}
		w.StartDate = stringPtr(start)
		w.EndDate = stringPtr(end)
		w.SourceText = stringPtr(text)
		w.NormalizedStart = stringPtr(normalizedStart)
		w.NormalizedEnd = stringPtr(normalEnd)
		w.Supporters = []string{}

		index[w.ID] = len(windows)
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating date windows: %w", err)
	}

	supportRows, err := q.QueryContext(ctx, `
		SELECT s.window_id, s.user_id
		FROM window_supports s
		JOIN date_windows w ON w.id = s.window_id
		WHERE w.trip_id = ?
		ORDER BY s.created_at, s.user_id
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("querying window supports: %w", err)
	}
	defer supportRows.Close()

	for supportRows.Next() {
		var windowID, userID string
		if err := supportRows.Scan(&windowID, &userID); err != nil {
			return nil, fmt.Errorf("scanning window support: %w", err)
		}
		if i, ok := index[windowID]; ok {
			windows[i].Supporters = append(windows[i].Supporters, userID)
		}
	}
	if err := supportRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating window supports: %w", err)
	}

	return windows, nil
}

func loadReactions(ctx context.Context, q Queryable, tripID string) ([]models.Reaction, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT r.window_id, r.user_id, r.reaction_type, r.note, r.created_at, r.updated_at
		FROM window_reactions r
		JOIN date_windows w ON w.id = r.window_id
		WHERE w.trip_id = ?
		ORDER BY r.created_at, r.user_id
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("querying reactions: %w", err)
	}
	defer rows.Close()

	var reactions []models.Reaction
	for rows.Next() {
		var (
			r    models.Reaction
			note sql.NullString
		)
		if err := rows.Scan(&r.WindowID, &r.UserID, &r.ReactionType, &note, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning reaction: %w", err)
		}
		r.Note = stringPtr(note)
		reactions = append(reactions, r)
	}
	return reactions, rows.Err()
}
