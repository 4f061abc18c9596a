package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/trypzy/backend/internal/api/middleware"
	"github.com/trypzy/backend/internal/schedule"
)

// Operation names reported to metrics and websocket subscribers.
const (
	OpWindowCreated  = "window.created"
	OpWindowDeleted  = "window.deleted"
	OpSupportAdded   = "support.added"
	OpSupportRemoved = "support.removed"
	OpDatesProposed  = "dates.proposed"
	OpDatesWithdrawn = "dates.withdrawn"
	OpReactionSet    = "reaction.set"
	OpDatesLocked    = "dates.locked"
)

// GetSchedule returns the trip schedule as seen by the caller.
func GetSchedule(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripID := mux.Vars(r)["tripId"]

		view, err := d.Service.Schedule(r.Context(), tripID, middleware.UserID(r.Context()))
		if err != nil {
			d.writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, view)
	}
}

// CreateWindowRequest represents the request body for suggesting a window.
type CreateWindowRequest struct {
	StartDate          string `json:"startDate"`
	EndDate            string `json:"endDate"`
	Text               string `json:"text"`
	WindowType         string `json:"windowType"`
	AcknowledgeOverlap bool   `json:"acknowledgeOverlap"`
	ForceAccept        bool   `json:"forceAccept"`
}

// CreateWindow suggests a new date window.
func CreateWindow(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripID := mux.Vars(r)["tripId"]

		var req CreateWindowRequest
		if err := decodeBody(r, &req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		result, err := d.Service.CreateWindow(r.Context(), schedule.CreateWindowInput{
			TripID:             tripID,
			UserID:             middleware.UserID(r.Context()),
			StartDate:          req.StartDate,
			EndDate:            req.EndDate,
			Text:               req.Text,
			WindowType:         req.WindowType,
			AcknowledgeOverlap: req.AcknowledgeOverlap,
			ForceAccept:        req.ForceAccept,
		})
		if err != nil {
			d.writeServiceError(w, r, err)
			return
		}

		d.published(r, tripID, OpWindowCreated)
		writeJSON(w, http.StatusCreated, result)
	}
}

// DeleteWindow removes a window created by the caller.
func DeleteWindow(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		tripID := vars["tripId"]

		if err := d.Service.DeleteWindow(r.Context(), tripID, vars["windowId"], middleware.UserID(r.Context())); err != nil {
			d.writeServiceError(w, r, err)
			return
		}

		d.published(r, tripID, OpWindowDeleted)
		w.WriteHeader(http.StatusNoContent)
	}
}

// AddSupport records the caller's support for a window.
func AddSupport(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		tripID := vars["tripId"]

		if err := d.Service.AddSupport(r.Context(), tripID, vars["windowId"], middleware.UserID(r.Context())); err != nil {
			d.writeServiceError(w, r, err)
			return
		}

		respondView(w, d.published(r, tripID, OpSupportAdded))
	}
}

// RemoveSupport withdraws the caller's support for a window.
func RemoveSupport(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		tripID := vars["tripId"]

		if err := d.Service.RemoveSupport(r.Context(), tripID, vars["windowId"], middleware.UserID(r.Context())); err != nil {
			d.writeServiceError(w, r, err)
			return
		}

		respondView(w, d.published(r, tripID, OpSupportRemoved))
	}
}
