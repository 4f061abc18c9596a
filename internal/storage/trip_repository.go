package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/trypzy/backend/internal/storage/models"
)

// TripRepository manages trips and their membership. The scheduling engine
// only reads from it, through Roster.
type TripRepository struct {
	db *DB
}

// NewTripRepository creates a new trip repository.
func NewTripRepository(db *DB) *TripRepository {
	return &TripRepository{db: db}
}

// Create inserts a trip with its leader as the first active member.
func (r *TripRepository) Create(ctx context.Context, tripID, name, leaderID string) error {
	if tripID == "" {
		return fmt.Errorf("trip id is required")
	}
	if leaderID == "" {
		return fmt.Errorf("leader id is required")
	}

	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trips (id, name, created_at) VALUES (?, ?, ?)
		`, tripID, name, now); err != nil {
			return fmt.Errorf("inserting trip: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trip_members (trip_id, user_id, role, status, joined_at)
			VALUES (?, ?, ?, ?, ?)
		`, tripID, leaderID, models.MemberRoleLeader, models.MemberStatusActive, now); err != nil {
			return fmt.Errorf("inserting trip leader: %w", err)
		}
		return nil
	})
}

// AddMember adds userID as an active traveler, reactivating a member who left.
func (r *TripRepository) AddMember(ctx context.Context, tripID, userID string) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO trip_members (trip_id, user_id, role, status, joined_at)
		SELECT id, ?, ?, ?, ? FROM trips WHERE id = ?
		ON CONFLICT(trip_id, user_id) DO UPDATE SET status = excluded.status
	`, userID, models.MemberRoleTraveler, models.MemberStatusActive, time.Now().UTC(), tripID)
	if err != nil {
		return fmt.Errorf("adding trip member: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveMember marks userID as having left the trip. The leader cannot leave.
func (r *TripRepository) RemoveMember(ctx context.Context, tripID, userID string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE trip_members SET status = ?
		WHERE trip_id = ? AND user_id = ? AND role != ?
	`, models.MemberStatusLeft, tripID, userID, models.MemberRoleLeader)
	if err != nil {
		return fmt.Errorf("removing trip member: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Members lists every member of a trip, active or not.
func (r *TripRepository) Members(ctx context.Context, tripID string) ([]models.TripMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT trip_id, user_id, role, status, joined_at
		FROM trip_members WHERE trip_id = ?
		ORDER BY joined_at, user_id
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("querying trip members: %w", err)
	}
	defer rows.Close()

	var members []models.TripMember
	for rows.Next() {
		var m models.TripMember
		if err := rows.Scan(&m.TripID, &m.UserID, &m.Role, &m.Status, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scanning trip member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// Roster returns the active travelers and leader of a trip.
// Returns nil, nil when the trip does not exist.
func (r *TripRepository) Roster(ctx context.Context, tripID string) (*models.Roster, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM trips WHERE id = ?", tripID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying trip: %w", err)
	}

	members, err := r.Members(ctx, tripID)
	if err != nil {
		return nil, err
	}

	roster := &models.Roster{TripID: tripID, Travelers: []string{}}
	for _, m := range members {
		if m.Status != models.MemberStatusActive {
			continue
		}
		roster.Travelers = append(roster.Travelers, m.UserID)
		if m.Role == models.MemberRoleLeader {
			roster.LeaderUserID = m.UserID
		}
	}
	return roster, nil
}
