package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trypzy/backend/internal/storage/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "trypzy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, RunMigrations(db))
	return db
}

func strPtr(s string) *string { return &s }

func TestRunMigrationsIdempotent(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)

	require.NoError(RunMigrations(db))

	version, dirty, err := MigrationVersion(db)
	require.NoError(err)
	require.False(dirty)
	require.Equal(uint(1), version)
}

func TestTripRoster(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	trips := NewTripRepository(newTestDB(t))

	require.NoError(trips.Create(ctx, "trip-1", "Lisbon", "alice"))
	require.NoError(trips.AddMember(ctx, "trip-1", "bob"))
	require.NoError(trips.AddMember(ctx, "trip-1", "carol"))
	require.NoError(trips.RemoveMember(ctx, "trip-1", "carol"))

	roster, err := trips.Roster(ctx, "trip-1")
	require.NoError(err)
	require.Equal("alice", roster.LeaderUserID)
	require.ElementsMatch([]string{"alice", "bob"}, roster.Travelers)
	require.Equal(2, roster.TotalActiveTravelers())

	// Rejoining reactivates the member.
	require.NoError(trips.AddMember(ctx, "trip-1", "carol"))
	roster, err = trips.Roster(ctx, "trip-1")
	require.NoError(err)
	require.Equal(3, roster.TotalActiveTravelers())

	require.ErrorIs(trips.RemoveMember(ctx, "trip-1", "alice"), ErrNotFound)
	require.ErrorIs(trips.AddMember(ctx, "missing", "bob"), ErrNotFound)

	missing, err := trips.Roster(ctx, "missing")
	require.NoError(err)
	require.Nil(missing)
}

func TestScheduleStoreWindowsAndSupport(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(NewTripRepository(db).Create(ctx, "trip-1", "", "alice"))
	store := NewScheduleStore(db)

	created := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	w := &models.DateWindow{
		TripID:     "trip-1",
		ProposedBy: "alice",
		StartDate:  strPtr("2025-03-10"),
		EndDate:    strPtr("2025-03-15"),
		Precision:  models.PrecisionExact,
		WindowType: models.WindowTypeAvailable,
		CreatedAt:  created,
	}

	err := store.Update(ctx, func(tx *ScheduleTx) error {
		if err := tx.InsertWindow(ctx, w); err != nil {
			return err
		}
		if err := tx.AddSupport(ctx, w.ID, "alice", created); err != nil {
			return err
		}
		return tx.AddSupport(ctx, w.ID, "bob", created.Add(time.Minute))
	})
	require.NoError(err)
	require.NotEmpty(w.ID)

	snap, err := store.Snapshot(ctx, "trip-1")
	require.NoError(err)
	require.Len(snap.Windows, 1)
	require.Equal([]string{"alice", "bob"}, snap.Windows[0].Supporters)
	require.Equal("2025-03-10", *snap.Windows[0].StartDate)
	require.True(snap.Windows[0].CreatedAt.Equal(created))

	// Duplicate support violates the primary key.
	err = store.Update(ctx, func(tx *ScheduleTx) error {
		return tx.AddSupport(ctx, w.ID, "bob", created)
	})
	require.Error(err)

	err = store.Update(ctx, func(tx *ScheduleTx) error {
		return tx.RemoveSupport(ctx, w.ID, "carol")
	})
	require.ErrorIs(err, ErrNotFound)

	// Deleting the window cascades its supports.
	require.NoError(store.Update(ctx, func(tx *ScheduleTx) error {
		return tx.DeleteWindow(ctx, w.ID)
	}))
	var supports int
	require.NoError(db.QueryRow("SELECT COUNT(*) FROM window_supports").Scan(&supports))
	require.Zero(supports)

	missing, err := store.Snapshot(ctx, "nope")
	require.NoError(err)
	require.Nil(missing)
}

func TestScheduleStoreConditionalWrites(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(NewTripRepository(db).Create(ctx, "trip-1", "", "alice"))
	store := NewScheduleStore(db)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	var ok bool
	require.NoError(store.Update(ctx, func(tx *ScheduleTx) (err error) {
		ok, err = tx.SetProposal(ctx, "trip-1", 0, []string{"w1", "w2"}, now)
		return err
	}))
	require.True(ok)

	// A second writer holding the old version loses.
	require.NoError(store.Update(ctx, func(tx *ScheduleTx) (err error) {
		ok, err = tx.SetProposal(ctx, "trip-1", 0, []string{"w3"}, now)
		return err
	}))
	require.False(ok)

	// Even with the current version, a proposal cannot replace another.
	require.NoError(store.Update(ctx, func(tx *ScheduleTx) (err error) {
		ok, err = tx.SetProposal(ctx, "trip-1", 1, []string{"w3"}, now)
		return err
	}))
	require.False(ok)

	snap, err := store.Snapshot(ctx, "trip-1")
	require.NoError(err)
	require.Equal([]string{"w1", "w2"}, snap.Trip.ProposedWindowIDs)
	require.Equal(int64(1), snap.Trip.Version)
	require.NotNil(snap.Trip.ProposedAt)

	require.NoError(store.Update(ctx, func(tx *ScheduleTx) (err error) {
		ok, err = tx.SetLocked(ctx, "trip-1", 1, LockRecord{
			WindowID: "w1", StartDate: "2025-03-10", EndDate: "2025-03-15", LockedAt: now,
		})
		return err
	}))
	require.True(ok)

	snap, err = store.Snapshot(ctx, "trip-1")
	require.NoError(err)
	require.True(snap.Trip.Locked)
	require.Empty(snap.Trip.ProposedWindowIDs)
	require.Equal("w1", *snap.Trip.LockedFromWindowID)
	require.Equal("2025-03-10", *snap.Trip.LockedStartDate)
	require.Equal(int64(2), snap.Trip.Version)

	require.NoError(store.Update(ctx, func(tx *ScheduleTx) (err error) {
		ok, err = tx.ClearProposal(ctx, "trip-1", 2)
		return err
	}))
	require.False(ok)
}

func TestScheduleStoreReactionUpsert(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(NewTripRepository(db).Create(ctx, "trip-1", "", "alice"))
	store := NewScheduleStore(db)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	w := &models.DateWindow{
		TripID: "trip-1", ProposedBy: "alice",
		StartDate: strPtr("2025-03-10"), EndDate: strPtr("2025-03-15"),
		Precision: models.PrecisionExact, WindowType: models.WindowTypeAvailable, CreatedAt: now,
	}
	require.NoError(store.Update(ctx, func(tx *ScheduleTx) error {
		if err := tx.InsertWindow(ctx, w); err != nil {
			return err
		}
		if err := tx.UpsertReaction(ctx, &models.Reaction{
			WindowID: w.ID, UserID: "bob", ReactionType: models.ReactionWorks, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return err
		}
		return tx.UpsertReaction(ctx, &models.Reaction{
			WindowID: w.ID, UserID: "bob", ReactionType: models.ReactionCant, Note: strPtr("wedding"),
			CreatedAt: now.Add(time.Hour), UpdatedAt: now.Add(time.Hour),
		})
	}))

	snap, err := store.Snapshot(ctx, "trip-1")
	require.NoError(err)
	require.Len(snap.Reactions, 1)
	require.Equal(models.ReactionCant, snap.Reactions[0].ReactionType)
	require.Equal("wedding", *snap.Reactions[0].Note)

	var deleted int64
	require.NoError(store.Update(ctx, func(tx *ScheduleTx) (err error) {
		deleted, err = tx.DeleteReactions(ctx, []string{w.ID, "other"})
		return err
	}))
	require.Equal(int64(1), deleted)
}

func TestEventRepository(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(NewTripRepository(db).Create(ctx, "trip-1", "", "alice"))
	store := NewScheduleStore(db)
	events := NewEventRepository(db)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(store.Update(ctx, func(tx *ScheduleTx) error {
		for i, typ := range []string{models.EventDatesProposed, models.EventDatesLocked} {
			if err := tx.AppendEvent(ctx, &models.ScheduleEvent{
				TripID: "trip-1", Type: typ, Payload: []byte(`{"actorId":"alice"}`),
				CreatedAt: now.Add(time.Duration(i) * time.Second),
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	pending, err := events.ListPending(ctx, 3, 10)
	require.NoError(err)
	require.Len(pending, 2)
	require.Equal(models.EventDatesProposed, pending[0].Type)
	require.JSONEq(`{"actorId":"alice"}`, string(pending[0].Payload))

	require.NoError(events.MarkDelivered(ctx, pending[0].ID, now))
	for i := 0; i < 3; i++ {
		require.NoError(events.MarkFailed(ctx, pending[1].ID, errors.New("sink down")))
	}

	pending, err = events.ListPending(ctx, 3, 10)
	require.NoError(err)
	require.Empty(pending)

	all, err := events.ListByTrip(ctx, "trip-1")
	require.NoError(err)
	require.Len(all, 2)
	require.NotNil(all[0].DeliveredAt)
	require.Zero(all[0].Attempts)
	require.Equal(3, all[1].Attempts)
	require.Equal("sink down", *all[1].LastError)
}

func TestSnapshotDoesNotWaitForWriter(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(NewTripRepository(db).Create(ctx, "trip-1", "", "alice"))
	store := NewScheduleStore(db)

	holding := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.Update(ctx, func(tx *ScheduleTx) error {
			if _, err := tx.BumpVersion(ctx, "trip-1", 0); err != nil {
				return err
			}
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	start := time.Now()
	snap, err := store.Snapshot(ctx, "trip-1")
	elapsed := time.Since(start)
	close(release)
	require.NoError(<-done)

	require.NoError(err)
	require.Less(elapsed, time.Second)
	// The open write is not visible to the reader.
	require.Equal(int64(0), snap.Trip.Version)

	snap, err = store.Snapshot(ctx, "trip-1")
	require.NoError(err)
	require.Equal(int64(1), snap.Trip.Version)
}
