package models

import "time"

// Reaction is a participant's stance on one proposed window.
type Reaction struct {
	WindowID     string    `json:"windowId"`
	UserID       string    `json:"userId"`
	ReactionType string    `json:"reactionType"`
	Note         *string   `json:"note,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Reaction type constants
const (
	ReactionWorks  = "WORKS"
	ReactionCaveat = "CAVEAT"
	ReactionCant   = "CANT"
)

// IsValidReactionType reports whether t is one of the known reaction types.
func IsValidReactionType(t string) bool {
	switch t {
	case ReactionWorks, ReactionCaveat, ReactionCant:
		return true
	}
	return false
}
