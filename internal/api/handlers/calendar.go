package handlers

import (
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/trypzy/backend/internal/api/middleware"
	"github.com/trypzy/backend/internal/calendar"
	"github.com/trypzy/backend/internal/dates"
	"github.com/trypzy/backend/internal/schedule"
)

// ScheduleCalendar serves the locked trip dates as an iCalendar feed.
func ScheduleCalendar(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripID := mux.Vars(r)["tripId"]

		view, err := d.Service.Schedule(r.Context(), tripID, middleware.UserID(r.Context()))
		if err != nil {
			d.writeServiceError(w, r, err)
			return
		}
		if view.Phase != schedule.PhaseLocked || view.LockedStartDate == nil || view.LockedEndDate == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Trip dates are not locked yet")
			return
		}

		locked, err := dates.ParseRange(*view.LockedStartDate, *view.LockedEndDate)
		if err != nil {
			d.writeServiceError(w, r, fmt.Errorf("stored lock dates: %w", err))
			return
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", attachmentDisposition(tripID+".ics"))
		calendar.Write(w, calendar.Event{
			UID:         tripID + "@trypzy",
			Summary:     "Trip dates",
			Description: "Locked: " + locked.Human(),
			Start:       locked.Start,
			End:         locked.End,
			Stamp:       time.Now(),
		})
	}
}

// attachmentDisposition builds a Content-Disposition value, quoting and
// escaping the filename as needed.
func attachmentDisposition(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}
