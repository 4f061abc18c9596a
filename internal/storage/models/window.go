// Package models defines data structures for storage entities.
package models

import "time"

// DateWindow is a candidate date range (or free-text availability statement)
// submitted by a trip participant.
type DateWindow struct {
	ID              string    `json:"id"`
	TripID          string    `json:"tripId"`
	ProposedBy      string    `json:"proposedBy"`
	StartDate       *string   `json:"startDate,omitempty"` // Format: "2006-01-02"
	EndDate         *string   `json:"endDate,omitempty"`
	SourceText      *string   `json:"sourceText,omitempty"`
	NormalizedStart *string   `json:"normalizedStart,omitempty"`
	NormalizedEnd   *string   `json:"normalizedEnd,omitempty"`
	Precision       string    `json:"precision"`
	WindowType      string    `json:"windowType"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Precision constants
const (
	PrecisionExact        = "exact"
	PrecisionApprox       = "approx"
	PrecisionUnstructured = "unstructured"
)

// Window type constants
const (
	WindowTypeAvailable = "available"
	WindowTypeBlocker   = "blocker"
)

// IsBlocker reports whether the window records a conflict rather than a candidate.
func (w *DateWindow) IsBlocker() bool {
	return w.WindowType == WindowTypeBlocker
}

// IsUnstructured reports whether the window has no usable date range.
func (w *DateWindow) IsUnstructured() bool {
	_, _, ok := w.EffectiveRange()
	return w.Precision == PrecisionUnstructured || !ok
}

// EffectiveRange returns the concrete start/end dates, preferring the explicit
// range over the normalized free-text range.
func (w *DateWindow) EffectiveRange() (start, end string, ok bool) {
	if w.StartDate != nil && w.EndDate != nil {
		return *w.StartDate, *w.EndDate, true
	}
	if w.NormalizedStart != nil && w.NormalizedEnd != nil {
		return *w.NormalizedStart, *w.NormalizedEnd, true
	}
	return "", "", false
}

// WindowSupport records that a user says a window works for them.
type WindowSupport struct {
	WindowID  string    `json:"windowId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// WindowWithSupport combines a window with the ids of its supporting users.
type WindowWithSupport struct {
	DateWindow
	Supporters []string `json:"supporters"`
}
