package domain

import (
	"strings"
	"time"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
)

// Status is a meeting's lifecycle state (§4.9).
type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusEnded  Status = "ended"
)

// SpeakingOrder selects how run_round rotates through participants (§4.7).
type SpeakingOrder string

const (
	SpeakingSequential SpeakingOrder = "sequential"
	SpeakingRandom     SpeakingOrder = "random"
)

// DiscussionStyle selects the fixed guidance block §4.4.1 appends to a
// speaker's system prompt.
type DiscussionStyle string

const (
	DiscussionFormal DiscussionStyle = "formal"
	DiscussionCasual DiscussionStyle = "casual"
	DiscussionDebate DiscussionStyle = "debate"
)

// SpeakingLength selects the fixed length-preference block §4.4.1 appends,
// per participant, when set.
type SpeakingLength string

const (
	SpeakingBrief    SpeakingLength = "brief"
	SpeakingModerate SpeakingLength = "moderate"
	SpeakingDetailed SpeakingLength = "detailed"
)

// ModeratorType distinguishes a human moderator from an agent moderator.
type ModeratorType string

const (
	ModeratorUser  ModeratorType = "user"
	ModeratorAgent ModeratorType = "agent"
)

// Moderator designates who guides the meeting. If Type is ModeratorUser,
// ParticipantID is empty.
type Moderator struct {
	Type          ModeratorType `json:"type"`
	ParticipantID string        `json:"participant_id,omitempty"`
}

// MeetingConfig holds the tunables §3 lists under Meeting.config.
type MeetingConfig struct {
	MaxRounds                 *int                      `json:"max_rounds,omitempty"`
	MaxMessageLength          *int                      `json:"max_message_length,omitempty"`
	SpeakingOrder             SpeakingOrder             `json:"speaking_order"`
	DiscussionStyle           DiscussionStyle           `json:"discussion_style"`
	SpeakingLengthPreferences map[string]SpeakingLength `json:"speaking_length_preferences,omitempty"`
	MinutesPrompt             string                    `json:"minutes_prompt,omitempty"`
}

// AgendaItem is one line of a meeting's agenda (§3).
type AgendaItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate enforces the title length bound §3 gives agenda items.
func (a AgendaItem) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return apperr.Validation("agenda_item.title", "agenda item title cannot be empty")
	}
	if len(a.Title) > 200 {
		return apperr.Validation("agenda_item.title", "agenda item title must be 200 characters or less")
	}
	return nil
}

// Meeting is the central aggregate: lifecycle, participants, messages,
// agenda, and the latest derived artifacts.
type Meeting struct {
	ID             string         `json:"id"`
	Topic          string         `json:"topic"`
	Participants   []Agent        `json:"participants"`
	Moderator      Moderator      `json:"moderator"`
	Status         Status         `json:"status"`
	Config         MeetingConfig  `json:"config"`
	Agenda         []AgendaItem   `json:"agenda"`
	Messages       []Message      `json:"messages"`
	CurrentRound   int            `json:"current_round"`
	MinutesHistory []MinutesVersion `json:"minutes_history"`
	CurrentMinutes *MinutesVersion  `json:"current_minutes"`
	MindMap        *MindMap         `json:"mind_map"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ValidateTopic enforces the 1..200 character bound §3 gives Meeting.topic.
func ValidateTopic(topic string) error {
	if strings.TrimSpace(topic) == "" {
		return apperr.Validation("topic", "topic cannot be empty")
	}
	if len(topic) > 200 {
		return apperr.Validation("topic", "topic must be 200 characters or less")
	}
	return nil
}

// ParticipantByID returns the participant snapshot with the given id, or
// false if no such participant is in the meeting.
func (m *Meeting) ParticipantByID(id string) (Agent, bool) {
	for _, p := range m.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Agent{}, false
}

// ModeratorName resolves the display name of the meeting's moderator, used
// by the context builder (§4.4.2).
func (m *Meeting) ModeratorName() string {
	if m.Moderator.Type == ModeratorUser {
		return "user"
	}
	if p, ok := m.ParticipantByID(m.Moderator.ParticipantID); ok {
		return p.Name
	}
	return m.Moderator.ParticipantID
}

// IsModerator reports whether participantID is this meeting's moderator.
func (m *Meeting) IsModerator(participantID string) bool {
	return m.Moderator.Type == ModeratorAgent && m.Moderator.ParticipantID == participantID
}

// AgendaItemByID returns the agenda item with the given id, or false.
func (m *Meeting) AgendaItemByID(id string) (*AgendaItem, bool) {
	for i := range m.Agenda {
		if m.Agenda[i].ID == id {
			return &m.Agenda[i], true
		}
	}
	return nil, false
}

// AdvanceRoundIfComplete applies §4.6's round-counting rule: a round
// completes once every participant has contributed at least one agent
// message since the last round boundary. User messages never count. It must
// be called after appending a new agent message to m.Messages. It reports
// whether the round advanced, and whether that advancement ended the
// meeting because max_rounds was reached.
func (m *Meeting) AdvanceRoundIfComplete() (advanced, ended bool) {
	if len(m.Participants) == 0 {
		return false, false
	}
	spoken := make(map[string]bool, len(m.Participants))
	for _, msg := range m.Messages {
		if msg.SpeakerType == SpeakerAgent && msg.RoundNumber == m.CurrentRound {
			spoken[msg.SpeakerID] = true
		}
	}
	if len(spoken) < len(m.Participants) {
		return false, false
	}
	m.CurrentRound++
	if m.Config.MaxRounds != nil && m.CurrentRound == *m.Config.MaxRounds {
		m.Status = StatusEnded
		return true, true
	}
	return true, false
}
