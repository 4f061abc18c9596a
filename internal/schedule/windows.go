package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/trypzy/backend/internal/dates"
	"github.com/trypzy/backend/internal/storage"
	"github.com/trypzy/backend/internal/storage/models"
)

// MaxSourceTextLength bounds free-text window statements.
const MaxSourceTextLength = 280

// CreateWindowInput describes a new window. Exactly one of the date range or
// Text must be set.
type CreateWindowInput struct {
	TripID             string
	UserID             string
	StartDate          string
	EndDate            string
	Text               string
	WindowType         string
	AcknowledgeOverlap bool
	ForceAccept        bool
}

// CreateWindowResult is the created window plus an optional near-duplicate
// nudge.
type CreateWindowResult struct {
	Window                  models.DateWindow `json:"window"`
	RequiresAcknowledgement bool              `json:"requiresAcknowledgement,omitempty"`
	SimilarWindowID         string            `json:"similarWindowId,omitempty"`
	SimilarScore            float64           `json:"similarScore,omitempty"`
}

// CreateWindow adds a window and the creator's support for it.
func (s *Service) CreateWindow(ctx context.Context, in CreateWindowInput) (*CreateWindowResult, error) {
	if _, err := s.requireTraveler(ctx, in.TripID, in.UserID); err != nil {
		return nil, err
	}
	window, err := s.buildWindow(in)
	if err != nil {
		return nil, err
	}

	result := &CreateWindowResult{}
	err = s.mutate(ctx, in.TripID, nil, func(tx *storage.ScheduleTx, snap *models.ScheduleSnapshot) error {
		if err := requireCollecting(snap.Trip); err != nil {
			return err
		}
		if err := CheckQuota(CountUserWindows(snap.Windows, in.UserID), s.opts.MaxWindowsPerUser); err != nil {
			return err
		}

		if !in.AcknowledgeOverlap && !window.IsBlocker() {
			if r, ok := windowRange(window); ok {
				if match := FindSimilar(r, snap.Windows, s.opts.SimilarityThreshold); match != nil {
					result.RequiresAcknowledgement = true
					result.SimilarWindowID = match.WindowID
					result.SimilarScore = match.Score
				}
			}
		}

		if err := tx.InsertWindow(ctx, window); err != nil {
			return fmt.Errorf("failed to insert window: %w", err)
		}
		if err := tx.AddSupport(ctx, window.ID, in.UserID, window.CreatedAt); err != nil {
			return fmt.Errorf("failed to add creator support: %w", err)
		}
		return bump(ctx, tx, snap)
	})
	if err != nil {
		return nil, err
	}
	result.Window = *window
	return result, nil
}

// buildWindow validates the input and resolves its dates.
func (s *Service) buildWindow(in CreateWindowInput) (*models.DateWindow, error) {
	windowType := in.WindowType
	if windowType == "" {
		windowType = models.WindowTypeAvailable
	}
	if windowType != models.WindowTypeAvailable && windowType != models.WindowTypeBlocker {
		return nil, validationError("windowType must be %q or %q", models.WindowTypeAvailable, models.WindowTypeBlocker)
	}

	text := strings.TrimSpace(in.Text)
	hasRange := in.StartDate != "" || in.EndDate != ""
	switch {
	case hasRange && text != "":
		return nil, validationError("Provide either startDate/endDate or text, not both")
	case !hasRange && text == "":
		return nil, validationError("startDate and endDate, or text, are required")
	}

	window := &models.DateWindow{
		TripID:     in.TripID,
		ProposedBy: in.UserID,
		WindowType: windowType,
		CreatedAt:  s.now().UTC(),
	}

	if hasRange {
		if in.StartDate == "" || in.EndDate == "" {
			return nil, validationError("Both startDate and endDate are required")
		}
		r, err := dates.ParseRange(in.StartDate, in.EndDate)
		if err != nil {
			return nil, validationError("%s", err.Error())
		}
		start, end := r.StartString(), r.EndString()
		window.StartDate, window.EndDate = &start, &end
		window.Precision = models.PrecisionExact
		return window, nil
	}

	if utf8.RuneCountInString(text) > MaxSourceTextLength {
		return nil, validationError("text must be at most %d characters", MaxSourceTextLength)
	}
	window.SourceText = &text

	n, ok := dates.Normalize(text, s.now())
	switch {
	case ok:
		start, end := n.Range.StartString(), n.Range.EndString()
		window.NormalizedStart, window.NormalizedEnd = &start, &end
		window.Precision = models.PrecisionExact
		if n.Approximate {
			window.Precision = models.PrecisionApprox
		}
	case in.ForceAccept:
		window.Precision = models.PrecisionUnstructured
	default:
		return nil, conflict(CodeDatesUnrecognized,
			fmt.Sprintf("Could not understand %q as dates; rephrase it or submit it as-is", text), nil)
	}
	return window, nil
}

// DeleteWindow removes a window created by userID.
func (s *Service) DeleteWindow(ctx context.Context, tripID, windowID, userID string) error {
	if _, err := s.loadRoster(ctx, tripID); err != nil {
		return err
	}
	return s.mutate(ctx, tripID, nil, func(tx *storage.ScheduleTx, snap *models.ScheduleSnapshot) error {
		w := snap.Window(windowID)
		if w == nil {
			return notFound("Window not found")
		}
		if w.ProposedBy != userID {
			return forbidden("Only the creator can delete a window")
		}
		if err := requireCollecting(snap.Trip); err != nil {
			return err
		}
		if err := tx.DeleteWindow(ctx, windowID); err != nil {
			return fmt.Errorf("failed to delete window: %w", err)
		}
		return bump(ctx, tx, snap)
	})
}

// AddSupport records that userID can make windowID.
func (s *Service) AddSupport(ctx context.Context, tripID, windowID, userID string) error {
	if _, err := s.requireTraveler(ctx, tripID, userID); err != nil {
		return err
	}
	return s.mutate(ctx, tripID, nil, func(tx *storage.ScheduleTx, snap *models.ScheduleSnapshot) error {
		w := snap.Window(windowID)
		if w == nil {
			return notFound("Window not found")
		}
		if err := requireCollecting(snap.Trip); err != nil {
			return err
		}
		if Supports(w, userID) {
			return conflict(CodeAlreadySupported, "You already support this window", nil)
		}
		if err := tx.AddSupport(ctx, windowID, userID, s.now().UTC()); err != nil {
			return fmt.Errorf("failed to add support: %w", err)
		}
		return bump(ctx, tx, snap)
	})
}

// RemoveSupport withdraws userID's support for windowID.
func (s *Service) RemoveSupport(ctx context.Context, tripID, windowID, userID string) error {
	if _, err := s.requireTraveler(ctx, tripID, userID); err != nil {
		return err
	}
	return s.mutate(ctx, tripID, nil, func(tx *storage.ScheduleTx, snap *models.ScheduleSnapshot) error {
		w := snap.Window(windowID)
		if w == nil {
			return notFound("Window not found")
		}
		if err := requireCollecting(snap.Trip); err != nil {
			return err
		}
		if w.ProposedBy == userID {
			return conflict(CodeCreatorSupport, "You created this window; delete it instead of removing your support", nil)
		}
		if err := tx.RemoveSupport(ctx, windowID, userID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return conflict(CodeNotSupported, "You do not support this window", nil)
			}
			return fmt.Errorf("failed to remove support: %w", err)
		}
		return bump(ctx, tx, snap)
	})
}
