package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/trypzy/backend/internal/dates"
	"github.com/trypzy/backend/internal/storage"
	"github.com/trypzy/backend/internal/storage/models"
)

// MaxProposedWindows is the most windows a single proposal may carry.
const MaxProposedWindows = 3

// MaxNoteLength bounds reaction notes.
const MaxNoteLength = 500

// ConcreteDates pins an unstructured window to a real range at proposal time.
type ConcreteDates struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// ProposeInput requests that the leader's chosen windows be put to the group.
type ProposeInput struct {
	TripID          string
	UserID          string
	WindowIDs       []string
	LeaderOverride  bool
	ConcreteDates   *ConcreteDates
	ExpectedVersion *int64
}

// SupportDetails accompanies CodeNotEnoughSupport.
type SupportDetails struct {
	SupportCount    int `json:"supportCount"`
	ThresholdNeeded int `json:"thresholdNeeded"`
}

// Propose moves the trip from COLLECTING to PROPOSED.
func (s *Service) Propose(ctx context.Context, in ProposeInput) error {
	roster, err := s.requireLeader(ctx, in.TripID, in.UserID)
	if err != nil {
		return err
	}
	if len(in.WindowIDs) < 1 || len(in.WindowIDs) > MaxProposedWindows {
		return validationError("Propose 1-%d windows", MaxProposedWindows)
	}
	seen := make(map[string]struct{}, len(in.WindowIDs))
	for _, id := range in.WindowIDs {
		if id == "" {
			return validationError("windowIds must not contain empty ids")
		}
		if _, dup := seen[id]; dup {
			return validationError("windowIds must not contain duplicates")
		}
		seen[id] = struct{}{}
	}

	return s.mutate(ctx, in.TripID, in.ExpectedVersion, func(tx *storage.ScheduleTx, snap *models.ScheduleSnapshot) error {
		switch PhaseOf(snap.Trip) {
		case PhaseProposed:
			return conflict(CodeProposalActive, "Dates are already proposed; withdraw the proposal first", nil)
		case PhaseLocked:
			return conflict(CodeDatesLocked, "Dates are already locked", nil)
		}

		windows := make([]*models.WindowWithSupport, 0, len(in.WindowIDs))
		for _, id := range in.WindowIDs {
			w := snap.Window(id)
			if w == nil {
				return notFound(fmt.Sprintf("Window %s not found", id))
			}
			windows = append(windows, w)
		}

		var unstructured *models.WindowWithSupport
		for _, w := range windows {
			if w.IsBlocker() {
				return conflict(CodeBlockerWindow, "A blocker window cannot be proposed", nil)
			}
			if w.IsUnstructured() {
				if unstructured != nil {
					return validationError("At most one window without concrete dates can be proposed")
				}
				unstructured = w
			}
		}

		if unstructured == nil && in.ConcreteDates != nil {
			return validationError("concreteDates only apply to windows without concrete dates")
		}
		if unstructured != nil {
			if in.ConcreteDates == nil {
				return conflict(CodeRequiresConcrete, "This window has no concrete dates; provide concreteDates to propose it", nil)
			}
			r, err := dates.ParseRange(in.ConcreteDates.StartDate, in.ConcreteDates.EndDate)
			if err != nil {
				return validationError("concreteDates: %s", err.Error())
			}
			if err := tx.SetWindowDates(ctx, unstructured.ID, r.StartString(), r.EndString(), models.PrecisionExact); err != nil {
				return fmt.Errorf("failed to set concrete dates: %w", err)
			}
		}

		if !in.LeaderOverride {
			count := SupportCount(windows[0])
			needed := ThresholdNeeded(roster.TotalActiveTravelers())
			if count < needed {
				return conflict(CodeNotEnoughSupport,
					fmt.Sprintf("Not enough travelers support these dates yet (%d of %d needed)", count, needed),
					SupportDetails{SupportCount: count, ThresholdNeeded: needed})
			}
		}

		now := s.now().UTC()
		ok, err := tx.SetProposal(ctx, in.TripID, snap.Trip.Version, in.WindowIDs, now)
		if err != nil {
			return fmt.Errorf("failed to set proposal: %w", err)
		}
		if !ok {
			return staleAfterRace(ctx, tx, snap)
		}

		payload := models.ScheduleEventPayload{
			ActorID:   in.UserID,
			WindowIDs: in.WindowIDs,
			Override:  in.LeaderOverride,
		}
		if in.ConcreteDates != nil && windows[0] == unstructured {
			payload.StartDate, payload.EndDate = in.ConcreteDates.StartDate, in.ConcreteDates.EndDate
		} else if start, end, ok := windows[0].EffectiveRange(); ok {
			payload.StartDate, payload.EndDate = start, end
		}
		return appendEvent(ctx, tx, in.TripID, models.EventDatesProposed, payload, now)
	})
}

// Withdraw clears the active proposal and its reactions.
func (s *Service) Withdraw(ctx context.Context, tripID, userID string, expectedVersion *int64) error {
	if _, err := s.requireLeader(ctx, tripID, userID); err != nil {
		return err
	}
	return s.mutate(ctx, tripID, expectedVersion, func(tx *storage.ScheduleTx, snap *models.ScheduleSnapshot) error {
		if PhaseOf(snap.Trip) != PhaseProposed {
			return conflict(CodeNoProposal, "No date proposal to withdraw", nil)
		}
		ids := snap.Trip.ProposedWindowIDs
		if _, err := tx.DeleteReactions(ctx, ids); err != nil {
			return fmt.Errorf("failed to delete reactions: %w", err)
		}
		ok, err := tx.ClearProposal(ctx, tripID, snap.Trip.Version)
		if err != nil {
			return fmt.Errorf("failed to clear proposal: %w", err)
		}
		if !ok {
			return staleAfterRace(ctx, tx, snap)
		}
		return appendEvent(ctx, tx, tripID, models.EventDatesWithdrawn,
			models.ScheduleEventPayload{ActorID: userID, WindowIDs: ids}, s.now().UTC())
	})
}

// LockInput requests that the trip's dates be fixed.
type LockInput struct {
	TripID          string
	UserID          string
	WindowID        string
	LeaderOverride  bool
	ExpectedVersion *int64
}

// Lock moves the trip from PROPOSED to LOCKED. Without a window id the first
// proposed window is locked.
func (s *Service) Lock(ctx context.Context, in LockInput) error {
	roster, err := s.requireLeader(ctx, in.TripID, in.UserID)
	if err != nil {
		return err
	}
	return s.mutate(ctx, in.TripID, in.ExpectedVersion, func(tx *storage.ScheduleTx, snap *models.ScheduleSnapshot) error {
		if PhaseOf(snap.Trip) != PhaseProposed {
			return conflict(CodeNoProposal, "No dates are proposed", nil)
		}
		windowID := in.WindowID
		if windowID == "" {
			windowID = snap.Trip.ProposedWindowIDs[0]
		}
		if !isProposed(snap.Trip, windowID) {
			return conflict(CodeWindowNotProposed, "That window is not part of the current proposal", nil)
		}
		w := snap.Window(windowID)
		if w == nil {
			return notFound("Window not found")
		}

		if !in.LeaderOverride {
			summary := Summarize(windowID, snap.Reactions, roster.TotalActiveTravelers(), "")
			if !summary.ReadyToLock {
				return conflict(CodeInsufficientApproval,
					fmt.Sprintf("Not enough approvals to lock these dates (%d of %d needed)", summary.Approvals, summary.RequiredApprovals),
					ApprovalDetails{Approvals: summary.Approvals, RequiredApprovals: summary.RequiredApprovals})
			}
		}

		r, ok := windowRange(&w.DateWindow)
		if !ok {
			return conflict(CodeRequiresConcrete, "This window has no concrete dates to lock", nil)
		}

		now := s.now().UTC()
		ok, err := tx.SetLocked(ctx, in.TripID, snap.Trip.Version, storage.LockRecord{
			WindowID:  windowID,
			StartDate: r.StartString(),
			EndDate:   r.EndString(),
			LockedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("failed to lock dates: %w", err)
		}
		if !ok {
			return staleAfterRace(ctx, tx, snap)
		}
		return appendEvent(ctx, tx, in.TripID, models.EventDatesLocked, models.ScheduleEventPayload{
			ActorID:   in.UserID,
			WindowIDs: []string{windowID},
			StartDate: r.StartString(),
			EndDate:   r.EndString(),
			Override:  in.LeaderOverride,
		}, now)
	})
}

// ReactInput records a traveler's stance on a proposed window.
type ReactInput struct {
	TripID       string
	UserID       string
	WindowID     string
	ReactionType string
	Note         *string
}

// React upserts userID's reaction on a proposed window and returns the
// refreshed summary for that window.
func (s *Service) React(ctx context.Context, in ReactInput) (*ApprovalSummary, error) {
	roster, err := s.requireTraveler(ctx, in.TripID, in.UserID)
	if err != nil {
		return nil, err
	}
	if !models.IsValidReactionType(in.ReactionType) {
		return nil, validationError("reactionType must be one of %s, %s, %s",
			models.ReactionWorks, models.ReactionCaveat, models.ReactionCant)
	}
	if in.WindowID == "" {
		return nil, validationError("windowId is required")
	}
	if in.Note != nil && len([]rune(*in.Note)) > MaxNoteLength {
		return nil, validationError("note must be at most %d characters", MaxNoteLength)
	}

	var summary ApprovalSummary
	err = s.mutate(ctx, in.TripID, nil, func(tx *storage.ScheduleTx, snap *models.ScheduleSnapshot) error {
		if PhaseOf(snap.Trip) != PhaseProposed {
			return conflict(CodeNoProposal, "No dates are proposed", nil)
		}
		if !isProposed(snap.Trip, in.WindowID) {
			return conflict(CodeWindowNotProposed, "That window is not part of the current proposal", nil)
		}

		now := s.now().UTC()
		reaction := models.Reaction{
			WindowID:     in.WindowID,
			UserID:       in.UserID,
			ReactionType: in.ReactionType,
			Note:         in.Note,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.UpsertReaction(ctx, &reaction); err != nil {
			return fmt.Errorf("failed to save reaction: %w", err)
		}
		if err := bump(ctx, tx, snap); err != nil {
			return err
		}

		reactions := make([]models.Reaction, 0, len(snap.Reactions)+1)
		for _, r := range snap.Reactions {
			if r.WindowID == in.WindowID && r.UserID == in.UserID {
				reaction.CreatedAt = r.CreatedAt
				continue
			}
			reactions = append(reactions, r)
		}
		reactions = append(reactions, reaction)
		summary = Summarize(in.WindowID, reactions, roster.TotalActiveTravelers(), in.UserID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func appendEvent(ctx context.Context, tx *storage.ScheduleTx, tripID, eventType string, payload models.ScheduleEventPayload, at time.Time) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode event payload: %w", err)
	}
	if err := tx.AppendEvent(ctx, &models.ScheduleEvent{
		TripID:    tripID,
		Type:      eventType,
		Payload:   body,
		CreatedAt: at,
	}); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}
