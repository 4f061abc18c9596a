package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/trypzy/backend/internal/api/middleware"
	"github.com/trypzy/backend/internal/schedule"
)

// ConcreteDatesRequest carries leader-chosen dates for an unstructured window.
type ConcreteDatesRequest struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

// ProposeRequest represents the request body for proposing dates.
type ProposeRequest struct {
	WindowID        string                `json:"windowId"`
	WindowIDs       []string              `json:"windowIds"`
	LeaderOverride  bool                  `json:"leaderOverride"`
	ConcreteDates   *ConcreteDatesRequest `json:"concreteDates"`
	ExpectedVersion *int64                `json:"expectedVersion" validate:"omitempty,min=0"`
}

// Propose puts one to three windows up for reactions.
func Propose(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripID := mux.Vars(r)["tripId"]

		var req ProposeRequest
		if err := decodeBody(r, &req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		ids := req.WindowIDs
		if len(ids) == 0 && req.WindowID != "" {
			ids = []string{req.WindowID}
		}
		in := schedule.ProposeInput{
			TripID:          tripID,
			UserID:          middleware.UserID(r.Context()),
			WindowIDs:       ids,
			LeaderOverride:  req.LeaderOverride,
			ExpectedVersion: req.ExpectedVersion,
		}
		if req.ConcreteDates != nil {
			in.ConcreteDates = &schedule.ConcreteDates{
				StartDate: req.ConcreteDates.StartDate,
				EndDate:   req.ConcreteDates.EndDate,
			}
		}

		if err := d.Service.Propose(r.Context(), in); err != nil {
			d.writeServiceError(w, r, err)
			return
		}

		respondView(w, d.published(r, tripID, OpDatesProposed))
	}
}

// WithdrawRequest represents the request body for withdrawing a proposal.
type WithdrawRequest struct {
	ExpectedVersion *int64 `json:"expectedVersion" validate:"omitempty,min=0"`
}

// Withdraw returns the trip to collecting.
func Withdraw(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripID := mux.Vars(r)["tripId"]

		var req WithdrawRequest
		if err := decodeBody(r, &req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		if err := d.Service.Withdraw(r.Context(), tripID, middleware.UserID(r.Context()), req.ExpectedVersion); err != nil {
			d.writeServiceError(w, r, err)
			return
		}

		respondView(w, d.published(r, tripID, OpDatesWithdrawn))
	}
}

// ReactRequest represents the request body for reacting to a proposed window.
type ReactRequest struct {
	WindowID     string  `json:"windowId"`
	ReactionType string  `json:"reactionType"`
	Note         *string `json:"note"`
}

// React records the caller's reaction to a proposed window.
func React(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripID := mux.Vars(r)["tripId"]

		var req ReactRequest
		if err := decodeBody(r, &req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		if _, err := d.Service.React(r.Context(), schedule.ReactInput{
			TripID:       tripID,
			UserID:       middleware.UserID(r.Context()),
			WindowID:     req.WindowID,
			ReactionType: req.ReactionType,
			Note:         req.Note,
		}); err != nil {
			d.writeServiceError(w, r, err)
			return
		}

		respondView(w, d.published(r, tripID, OpReactionSet))
	}
}

// LockRequest represents the request body for locking dates.
type LockRequest struct {
	WindowID        string `json:"windowId"`
	LeaderOverride  bool   `json:"leaderOverride"`
	ExpectedVersion *int64 `json:"expectedVersion" validate:"omitempty,min=0"`
}

// Lock fixes the trip dates to a proposed window.
func Lock(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripID := mux.Vars(r)["tripId"]

		var req LockRequest
		if err := decodeBody(r, &req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		if err := d.Service.Lock(r.Context(), schedule.LockInput{
			TripID:          tripID,
			UserID:          middleware.UserID(r.Context()),
			WindowID:        req.WindowID,
			LeaderOverride:  req.LeaderOverride,
			ExpectedVersion: req.ExpectedVersion,
		}); err != nil {
			d.writeServiceError(w, r, err)
			return
		}

		respondView(w, d.published(r, tripID, OpDatesLocked))
	}
}
