package models

import "time"

// TripSchedule is the scheduling state persisted on a trip row.
// Phase is derived from it, never stored.
type TripSchedule struct {
	TripID             string     `json:"tripId"`
	Name               string     `json:"name"`
	ProposedWindowIDs  []string   `json:"proposedWindowIds"`
	ProposedAt         *time.Time `json:"proposedAt,omitempty"`
	Locked             bool       `json:"locked"`
	LockedStartDate    *string    `json:"lockedStartDate,omitempty"`
	LockedEndDate      *string    `json:"lockedEndDate,omitempty"`
	LockedFromWindowID *string    `json:"lockedFromWindowId,omitempty"`
	LockedAt           *time.Time `json:"lockedAt,omitempty"`
	Version            int64      `json:"version"`
}

// ScheduleSnapshot is a consistent read of everything the scheduling engine
// needs for one trip.
type ScheduleSnapshot struct {
	Trip      TripSchedule
	Windows   []WindowWithSupport
	Reactions []Reaction
}

// Window returns the window with the given id, or nil.
func (s *ScheduleSnapshot) Window(id string) *WindowWithSupport {
	for i := range s.Windows {
		if s.Windows[i].ID == id {
			return &s.Windows[i]
		}
	}
	return nil
}

// Roster is the active participant list of a trip.
type Roster struct {
	TripID       string   `json:"tripId"`
	LeaderUserID string   `json:"leaderUserId"`
	Travelers    []string `json:"travelers"`
}

// TotalActiveTravelers returns the number of active travelers, leader included.
func (r *Roster) TotalActiveTravelers() int {
	return len(r.Travelers)
}

// IsLeader reports whether userID leads the trip.
func (r *Roster) IsLeader(userID string) bool {
	return userID != "" && r.LeaderUserID == userID
}

// IsTraveler reports whether userID is an active traveler.
func (r *Roster) IsTraveler(userID string) bool {
	for _, t := range r.Travelers {
		if t == userID {
			return true
		}
	}
	return false
}

// TripMember is one row of a trip's membership table.
type TripMember struct {
	TripID   string    `json:"tripId"`
	UserID   string    `json:"userId"`
	Role     string    `json:"role"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Member role and status constants
const (
	MemberRoleLeader   = "leader"
	MemberRoleTraveler = "traveler"

	MemberStatusActive = "active"
	MemberStatusLeft   = "left"
)
