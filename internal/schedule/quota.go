package schedule

import "github.com/trypzy/backend/internal/storage/models"

// DefaultMaxWindows is the per-user window cap when none is configured.
const DefaultMaxWindows = 2

// QuotaDetails accompanies CodeUserWindowCapReached.
type QuotaDetails struct {
	UserWindowCount int `json:"userWindowCount"`
	MaxWindows      int `json:"maxWindows"`
}

// CountUserWindows counts the windows userID has created on the trip.
func CountUserWindows(windows []models.WindowWithSupport, userID string) int {
	n := 0
	for _, w := range windows {
		if w.ProposedBy == userID {
			n++
		}
	}
	return n
}

// CheckQuota rejects a new window once the user holds maxWindows windows.
func CheckQuota(userWindowCount, maxWindows int) error {
	if userWindowCount >= maxWindows {
		return conflict(CodeUserWindowCapReached,
			"You have reached the maximum number of date windows; delete one to add another",
			QuotaDetails{UserWindowCount: userWindowCount, MaxWindows: maxWindows})
	}
	return nil
}
