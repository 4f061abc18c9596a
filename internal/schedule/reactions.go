package schedule

import "github.com/trypzy/backend/internal/storage/models"

// ApprovalSummary aggregates the reactions on one proposed window.
type ApprovalSummary struct {
	WindowID          string            `json:"windowId"`
	Approvals         int               `json:"approvals"`
	Caveats           int               `json:"caveats"`
	Cants             int               `json:"cants"`
	TotalReactions    int               `json:"totalReactions"`
	RequiredApprovals int               `json:"requiredApprovals"`
	MemberCount       int               `json:"memberCount"`
	ReadyToLock       bool              `json:"readyToLock"`
	UserReaction      *string           `json:"userReaction"`
	Reactions         []models.Reaction `json:"reactions"`
}

// ApprovalDetails accompanies CodeInsufficientApproval.
type ApprovalDetails struct {
	Approvals         int `json:"approvals"`
	RequiredApprovals int `json:"requiredApprovals"`
}

// RequiredApprovals is half the active travelers, rounded up.
func RequiredApprovals(memberCount int) int {
	return (memberCount + 1) / 2
}

// Summarize aggregates the reactions of windowID. viewerID selects
// UserReaction and may be empty.
func Summarize(windowID string, reactions []models.Reaction, memberCount int, viewerID string) ApprovalSummary {
	summary := ApprovalSummary{
		WindowID:          windowID,
		RequiredApprovals: RequiredApprovals(memberCount),
		MemberCount:       memberCount,
		Reactions:         []models.Reaction{},
	}
	for _, r := range reactions {
		if r.WindowID != windowID {
			continue
		}
		switch r.ReactionType {
		case models.ReactionWorks:
			summary.Approvals++
		case models.ReactionCaveat:
			summary.Caveats++
		case models.ReactionCant:
			summary.Cants++
		}
		if viewerID != "" && r.UserID == viewerID {
			t := r.ReactionType
			summary.UserReaction = &t
		}
		summary.Reactions = append(summary.Reactions, r)
	}
	summary.TotalReactions = len(summary.Reactions)
	summary.ReadyToLock = summary.Approvals >= summary.RequiredApprovals
	return summary
}

// Summaries builds an independent summary per window id.
func Summaries(windowIDs []string, reactions []models.Reaction, memberCount int, viewerID string) map[string]ApprovalSummary {
	out := make(map[string]ApprovalSummary, len(windowIDs))
	for _, id := range windowIDs {
		out[id] = Summarize(id, reactions, memberCount, viewerID)
	}
	return out
}
