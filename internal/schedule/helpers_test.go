package schedule

import (
	"time"

	"github.com/trypzy/backend/internal/storage/models"
)

var baseTime = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

// window builds an exact available window created minute minutes after
// baseTime. The creator is not added to supporters implicitly.
func window(id, creator string, minute int, start, end string, supporters ...string) models.WindowWithSupport {
	if supporters == nil {
		supporters = []string{}
	}
	return models.WindowWithSupport{
		DateWindow: models.DateWindow{
			ID:         id,
			TripID:     "trip-1",
			ProposedBy: creator,
			StartDate:  strPtr(start),
			EndDate:    strPtr(end),
			Precision:  models.PrecisionExact,
			WindowType: models.WindowTypeAvailable,
			CreatedAt:  baseTime.Add(time.Duration(minute) * time.Minute),
		},
		Supporters: supporters,
	}
}

func blocker(id, creator string, minute int, start, end string, supporters ...string) models.WindowWithSupport {
	w := window(id, creator, minute, start, end, supporters...)
	w.WindowType = models.WindowTypeBlocker
	return w
}
