package domain

import "time"

// MinutesVersion is one immutable, versioned summary of a meeting.
// Versions are appended, never edited; version numbers strictly increase.
type MinutesVersion struct {
	ID           string    `json:"id"`
	Version      int       `json:"version"`
	Content      string    `json:"content"`
	Summary      string    `json:"summary"`
	KeyDecisions []string  `json:"key_decisions"`
	ActionItems  []string  `json:"action_items"`
	CreatedAt    time.Time `json:"created_at"`
	CreatedBy    string    `json:"created_by"` // "user" or a participant ID
}

// NextMinutesVersion builds the version that should follow meeting's current
// minutes history, enforcing §8's invariant that version numbers and
// creation times are strictly increasing. Shared by the AI-driven generator
// (§4.12) and a direct user edit, so both paths obey the same rule.
func NextMinutesVersion(meeting *Meeting, content, summary string, keyDecisions, actionItems []string, createdBy string, now time.Time, id string) *MinutesVersion {
	version := 1
	if n := len(meeting.MinutesHistory); n > 0 {
		prev := meeting.MinutesHistory[n-1]
		version = prev.Version + 1
		if now.Before(prev.CreatedAt) {
			now = prev.CreatedAt
		}
	}
	return &MinutesVersion{
		ID:           id,
		Version:      version,
		Content:      content,
		Summary:      summary,
		KeyDecisions: keyDecisions,
		ActionItems:  actionItems,
		CreatedAt:    now,
		CreatedBy:    createdBy,
	}
}
