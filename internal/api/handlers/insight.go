package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/trypzy/backend/internal/advisory"
	"github.com/trypzy/backend/internal/api/middleware"
	"github.com/trypzy/backend/internal/schedule"
)

// ScheduleInsight asks the advisory service to comment on the schedule.
func ScheduleInsight(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Advisory == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, middleware.ErrServiceUnavailable, "Schedule advice is not configured")
			return
		}
		tripID := mux.Vars(r)["tripId"]

		view, err := d.Service.Schedule(r.Context(), tripID, middleware.UserID(r.Context()))
		if err != nil {
			d.writeServiceError(w, r, err)
			return
		}

		insight, err := d.Advisory.Insight(r.Context(), insightRequest(view))
		if err != nil {
			d.logger().Warn("advisory request failed", zap.Error(err), zap.String("trip_id", tripID))
			middleware.WriteError(w, http.StatusBadGateway, middleware.ErrBadGateway, "Schedule advice is unavailable")
			return
		}

		writeJSON(w, http.StatusOK, insight)
	}
}

func insightRequest(view *schedule.ScheduleView) advisory.InsightRequest {
	req := advisory.InsightRequest{
		TripID:            view.TripID,
		Phase:             string(view.Phase),
		TotalTravelers:    view.ProposalStatus.Stats.TotalTravelers,
		ThresholdNeeded:   view.ProposalStatus.Stats.ThresholdNeeded,
		Windows:           make([]advisory.WindowSummary, 0, len(view.Windows)),
		ProposedWindowIDs: view.ProposedWindowIDs,
	}
	for _, w := range view.Windows {
		req.Windows = append(req.Windows, advisory.WindowSummary{
			ID:           w.ID,
			StartDate:    deref(firstNonNil(w.StartDate, w.NormalizedStart)),
			EndDate:      deref(firstNonNil(w.EndDate, w.NormalizedEnd)),
			SourceText:   deref(w.SourceText),
			Precision:    w.Precision,
			WindowType:   w.WindowType,
			SupportCount: w.SupportCount,
		})
	}
	return req
}

func firstNonNil(ptrs ...*string) *string {
	for _, p := range ptrs {
		if p != nil {
			return p
		}
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
