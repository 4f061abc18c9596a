// Package schedule implements the date-scheduling funnel of a trip: travelers
// suggest and support date windows, the leader proposes up to three of them,
// travelers react, and the leader locks the final dates.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/trypzy/backend/internal/storage"
	"github.com/trypzy/backend/internal/storage/models"
)

// Store is the transactional persistence the service runs on.
type Store interface {
	Snapshot(ctx context.Context, tripID string) (*models.ScheduleSnapshot, error)
	Update(ctx context.Context, fn func(tx *storage.ScheduleTx) error) error
}

// Roster resolves the active participants of a trip. A nil roster with a nil
// error means the trip does not exist.
type Roster interface {
	Roster(ctx context.Context, tripID string) (*models.Roster, error)
}

// Options tunes the service.
type Options struct {
	MaxWindowsPerUser   int
	SimilarityThreshold float64
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service runs every scheduling read and mutation.
type Service struct {
	store  Store
	roster Roster
	opts   Options
	now    func() time.Time
}

// NewService creates a new scheduling service.
func NewService(store Store, roster Roster, opts Options) *Service {
	if opts.MaxWindowsPerUser <= 0 {
		opts.MaxWindowsPerUser = DefaultMaxWindows
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = DefaultSimilarityThreshold
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, roster: roster, opts: opts, now: now}
}

// MaxWindows returns the configured per-user window cap.
func (s *Service) MaxWindows() int {
	return s.opts.MaxWindowsPerUser
}

// WindowView is a window as seen by one viewer.
type WindowView struct {
	models.DateWindow
	Supporters   []string `json:"supporters"`
	SupportCount int      `json:"supportCount"`
	IsCreator    bool     `json:"isCreator"`
	UserSupports bool     `json:"userSupports"`
	IsProposed   bool     `json:"isProposed"`
}

// ScheduleView is the read model returned to clients.
type ScheduleView struct {
	TripID                 string                     `json:"tripId"`
	Phase                  Phase                      `json:"phase"`
	Version                int64                      `json:"version"`
	Windows                []WindowView               `json:"windows"`
	ProposalStatus         ProposalStatus             `json:"proposalStatus"`
	UserSupportedWindowIDs []string                   `json:"userSupportedWindowIds"`
	ProposedWindowID       *string                    `json:"proposedWindowId"`
	ProposedWindowIDs      []string                   `json:"proposedWindowIds"`
	ProposedAt             *time.Time                 `json:"proposedAt"`
	IsLeader               bool                       `json:"isLeader"`
	UserWindowCount        int                        `json:"userWindowCount"`
	MaxWindows             int                        `json:"maxWindows"`
	CanCreateWindow        bool                       `json:"canCreateWindow"`
	ApprovalSummary        *ApprovalSummary           `json:"approvalSummary"`
	ApprovalSummaries      map[string]ApprovalSummary `json:"approvalSummaries"`
	LockedStartDate        *string                    `json:"lockedStartDate"`
	LockedEndDate          *string                    `json:"lockedEndDate"`
	LockedFromWindowID     *string                    `json:"lockedFromWindowId"`
}

// BuildView derives the read model from a snapshot for viewerID.
func BuildView(snap *models.ScheduleSnapshot, roster *models.Roster, viewerID string, maxWindows int) *ScheduleView {
	trip := snap.Trip
	phase := PhaseOf(trip)
	total := roster.TotalActiveTravelers()

	view := &ScheduleView{
		TripID:                 trip.TripID,
		Phase:                  phase,
		Version:                trip.Version,
		Windows:                make([]WindowView, 0, len(snap.Windows)),
		ProposalStatus:         ComputeStatus(snap.Windows, total),
		UserSupportedWindowIDs: []string{},
		ProposedWindowIDs:      []string{},
		IsLeader:               roster.IsLeader(viewerID),
		MaxWindows:             maxWindows,
		ApprovalSummaries:      map[string]ApprovalSummary{},
		LockedStartDate:        trip.LockedStartDate,
		LockedEndDate:          trip.LockedEndDate,
		LockedFromWindowID:     trip.LockedFromWindowID,
	}

	for i := range snap.Windows {
		w := &snap.Windows[i]
		supports := Supports(w, viewerID)
		view.Windows = append(view.Windows, WindowView{
			DateWindow:   w.DateWindow,
			Supporters:   w.Supporters,
			SupportCount: SupportCount(w),
			IsCreator:    w.ProposedBy == viewerID,
			UserSupports: supports,
			IsProposed:   isProposed(trip, w.ID),
		})
		if supports {
			view.UserSupportedWindowIDs = append(view.UserSupportedWindowIDs, w.ID)
		}
	}
	view.UserWindowCount = CountUserWindows(snap.Windows, viewerID)
	view.CanCreateWindow = phase == PhaseCollecting && roster.IsTraveler(viewerID) && view.UserWindowCount < maxWindows

	if phase == PhaseProposed {
		view.ProposedWindowIDs = append(view.ProposedWindowIDs, trip.ProposedWindowIDs...)
		first := trip.ProposedWindowIDs[0]
		view.ProposedWindowID = &first
		view.ProposedAt = trip.ProposedAt
		view.ApprovalSummaries = Summaries(trip.ProposedWindowIDs, snap.Reactions, total, viewerID)
		primary := view.ApprovalSummaries[first]
		view.ApprovalSummary = &primary
	}
	return view
}

// Schedule returns the current schedule of a trip as seen by viewerID.
func (s *Service) Schedule(ctx context.Context, tripID, viewerID string) (*ScheduleView, error) {
	roster, err := s.loadRoster(ctx, tripID)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.Snapshot(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	if snap == nil {
		return nil, notFound("Trip not found")
	}
	return BuildView(snap, roster, viewerID, s.opts.MaxWindowsPerUser), nil
}

func (s *Service) loadRoster(ctx context.Context, tripID string) (*models.Roster, error) {
	roster, err := s.roster.Roster(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	if roster == nil {
		return nil, notFound("Trip not found")
	}
	return roster, nil
}

// requireTraveler loads the roster and rejects callers who are not active
// travelers.
func (s *Service) requireTraveler(ctx context.Context, tripID, userID string) (*models.Roster, error) {
	roster, err := s.loadRoster(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !roster.IsTraveler(userID) {
		return nil, forbidden("Only active travelers can change the schedule")
	}
	return roster, nil
}

// requireLeader loads the roster and rejects callers who do not lead the trip.
func (s *Service) requireLeader(ctx context.Context, tripID, userID string) (*models.Roster, error) {
	roster, err := s.loadRoster(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !roster.IsLeader(userID) {
		return nil, forbidden("Only the trip leader can do this")
	}
	return roster, nil
}

// mutate runs fn against a fresh snapshot inside one write transaction.
func (s *Service) mutate(ctx context.Context, tripID string, expectedVersion *int64, fn func(tx *storage.ScheduleTx, snap *models.ScheduleSnapshot) error) error {
	return s.store.Update(ctx, func(tx *storage.ScheduleTx) error {
		snap, err := tx.Snapshot(ctx, tripID)
		if err != nil {
			return fmt.Errorf("failed to load schedule: %w", err)
		}
		if snap == nil {
			return notFound("Trip not found")
		}
		if expectedVersion != nil && *expectedVersion != snap.Trip.Version {
			return staleState(snap.Trip.Version)
		}
		return fn(tx, snap)
	})
}

// bump advances the schedule version, failing if another writer got there
// first.
func bump(ctx context.Context, tx *storage.ScheduleTx, snap *models.ScheduleSnapshot) error {
	ok, err := tx.BumpVersion(ctx, snap.Trip.TripID, snap.Trip.Version)
	if err != nil {
		return fmt.Errorf("failed to bump schedule version: %w", err)
	}
	if !ok {
		return staleAfterRace(ctx, tx, snap)
	}
	return nil
}

// staleAfterRace reports STALE_STATE with the version now stored.
func staleAfterRace(ctx context.Context, tx *storage.ScheduleTx, snap *models.ScheduleSnapshot) error {
	current, err := tx.Snapshot(ctx, snap.Trip.TripID)
	if err != nil || current == nil {
		return staleState(snap.Trip.Version)
	}
	return staleState(current.Trip.Version)
}
