package schedule

import "github.com/trypzy/backend/internal/storage/models"

// ProposalStats are the counts behind a ProposalStatus.
type ProposalStats struct {
	TotalTravelers  int `json:"totalTravelers"`
	ResponderCount  int `json:"responderCount"`
	LeaderCount     int `json:"leaderCount"`
	ThresholdNeeded int `json:"thresholdNeeded"`
	WindowCount     int `json:"windowCount"`
}

// ProposalStatus tells the leader whether the leading window has enough
// support to be proposed.
type ProposalStatus struct {
	ProposalReady bool                      `json:"proposalReady"`
	LeadingWindow *models.WindowWithSupport `json:"leadingWindow"`
	Stats         ProposalStats             `json:"stats"`
}

// SupportCount is the number of distinct supporters of w, the creator
// always included.
func SupportCount(w *models.WindowWithSupport) int {
	n := len(w.Supporters)
	for _, u := range w.Supporters {
		if u == w.ProposedBy {
			return n
		}
	}
	return n + 1
}

// Supports reports whether userID counts as a supporter of w.
func Supports(w *models.WindowWithSupport, userID string) bool {
	if w.ProposedBy == userID {
		return true
	}
	for _, u := range w.Supporters {
		if u == userID {
			return true
		}
	}
	return false
}

// ThresholdNeeded is the support a window needs to be proposed: half the
// active travelers, rounded up.
func ThresholdNeeded(totalTravelers int) int {
	return (totalTravelers + 1) / 2
}

// LeadingWindow returns the non-blocker window with the most support, ties
// going to the earliest created. It returns nil when there are none.
func LeadingWindow(windows []models.WindowWithSupport) *models.WindowWithSupport {
	var leading *models.WindowWithSupport
	leadingCount := 0
	for i := range windows {
		w := &windows[i]
		if w.IsBlocker() {
			continue
		}
		count := SupportCount(w)
		if leading == nil || count > leadingCount || (count == leadingCount && createdBefore(w, leading)) {
			leading, leadingCount = w, count
		}
	}
	return leading
}

// ComputeStatus derives proposal readiness from the current windows and the
// number of active travelers.
func ComputeStatus(windows []models.WindowWithSupport, totalTravelers int) ProposalStatus {
	responders := make(map[string]struct{})
	windowCount := 0
	for i := range windows {
		w := &windows[i]
		responders[w.ProposedBy] = struct{}{}
		for _, u := range w.Supporters {
			responders[u] = struct{}{}
		}
		if !w.IsBlocker() {
			windowCount++
		}
	}

	status := ProposalStatus{
		Stats: ProposalStats{
			TotalTravelers:  totalTravelers,
			ResponderCount:  len(responders),
			ThresholdNeeded: ThresholdNeeded(totalTravelers),
			WindowCount:     windowCount,
		},
	}
	if leading := LeadingWindow(windows); leading != nil {
		status.LeadingWindow = leading
		status.Stats.LeaderCount = SupportCount(leading)
		status.ProposalReady = status.Stats.LeaderCount >= status.Stats.ThresholdNeeded
	}
	return status
}
