package domain

import (
	"strings"
	"time"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
)

// SpeakerType distinguishes the human user from an AI participant.
type SpeakerType string

const (
	SpeakerUser  SpeakerType = "user"
	SpeakerAgent SpeakerType = "agent"
)

// Mention records one `@`-reference resolved against the meeting's
// participants, in the order it was found in the message body.
type Mention struct {
	MentionedParticipantID   string `json:"mentioned_participant_id"`
	MentionedParticipantName string `json:"mentioned_participant_name"`
	MessageID                string `json:"message_id"`
}

// Message is one immutable utterance in a meeting.
type Message struct {
	ID               string      `json:"id"`
	SpeakerID        string      `json:"speaker_id"`
	SpeakerName      string      `json:"speaker_name"`
	SpeakerType      SpeakerType `json:"speaker_type"`
	Content          string      `json:"content"`
	ReasoningContent string      `json:"reasoning_content,omitempty"`
	Timestamp        time.Time   `json:"timestamp"`
	RoundNumber      int         `json:"round_number"`
	Mentions         []Mention   `json:"mentions"`
}

// MaxContentLength bounds raw message content before any configured
// truncation is applied.
const MaxContentLength = 10000

// ValidateContent enforces the non-empty-after-trim and length rules §4.5
// and §8 require at write time. It does not mutate content; truncation is
// the turn engine's job, applied only to model output, never to user input.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperr.Validation("content", "content cannot be empty or whitespace-only")
	}
	if len(content) > MaxContentLength {
		return apperr.Validationf("content", "content must be %d characters or less", MaxContentLength)
	}
	return nil
}

// TruncationMarker is appended when model output exceeds a meeting's
// configured max_message_length (§4.5 step 6).
const TruncationMarker = " …[truncated]"

// Truncate applies a meeting's max_message_length, if set, returning the
// possibly-shortened content and whether truncation fired.
func Truncate(content string, maxLen *int) (string, bool) {
	if maxLen == nil || *maxLen <= 0 || len(content) <= *maxLen {
		return content, false
	}
	limit := *maxLen - len(TruncationMarker)
	if limit < 0 {
		limit = 0
	}
	return content[:limit] + TruncationMarker, true
}
