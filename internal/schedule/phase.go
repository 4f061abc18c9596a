package schedule

import "github.com/trypzy/backend/internal/storage/models"

// Phase is the derived stage of a trip's date funnel.
type Phase string

const (
	PhaseCollecting Phase = "COLLECTING"
	PhaseProposed   Phase = "PROPOSED"
	PhaseLocked     Phase = "LOCKED"
)

// PhaseOf derives the phase from persisted trip state.
func PhaseOf(trip models.TripSchedule) Phase {
	switch {
	case trip.Locked:
		return PhaseLocked
	case len(trip.ProposedWindowIDs) > 0:
		return PhaseProposed
	default:
		return PhaseCollecting
	}
}

// isProposed reports whether windowID is part of the active proposal.
func isProposed(trip models.TripSchedule, windowID string) bool {
	for _, id := range trip.ProposedWindowIDs {
		if id == windowID {
			return true
		}
	}
	return false
}

// requireCollecting rejects window and support mutations outside COLLECTING.
func requireCollecting(trip models.TripSchedule) error {
	switch PhaseOf(trip) {
	case PhaseProposed:
		return conflict(CodeProposalActive, "Dates are currently proposed; windows and support are frozen until the proposal is withdrawn", nil)
	case PhaseLocked:
		return conflict(CodeProposalActive, "Dates are locked; windows and support can no longer change", nil)
	}
	return nil
}
