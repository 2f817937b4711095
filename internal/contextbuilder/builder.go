// Package contextbuilder composes the system prompt and conversation
// transcript handed to a model adapter for one speaker's turn (§4.4).
package contextbuilder

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/meeting-engine/internal/domain"
)

// Role tags an Entry the way a model adapter's conversation expects.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one line of the composed conversation handed to a model adapter.
type Entry struct {
	Role    Role
	Content string
}

var discussionStyleGuidance = map[domain.DiscussionStyle]string{
	domain.DiscussionFormal: "Maintain a formal, structured tone. Address points methodically and support claims with reasoning.",
	domain.DiscussionCasual: "Keep the tone relaxed and conversational, as you would among trusted colleagues.",
	domain.DiscussionDebate: "Take a position and defend it. Challenge weak arguments from other participants directly but respectfully.",
}

var speakingLengthGuidance = map[domain.SpeakingLength]string{
	domain.SpeakingBrief:    "Keep your response brief: a few sentences at most.",
	domain.SpeakingModerate: "Aim for a moderate response: a short paragraph.",
	domain.SpeakingDetailed: "Provide a detailed response with supporting explanation.",
}

const moderatorDutyBlock = "As moderator, guide the discussion toward the agenda, ensure every participant gets a chance to contribute, periodically summarize progress, redirect off-topic discussion, and drive the meeting toward a conclusion."

// BuildSystemPrompt composes the fixed-order system prompt for speaker in
// meeting (§4.4.1).
func BuildSystemPrompt(speaker domain.Agent, meeting *domain.Meeting) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Your role: %s\n", speaker.Role.Name)
	fmt.Fprintf(&b, "Role description: %s\n", speaker.Role.Description)
	b.WriteString(speaker.Role.SystemPrompt)

	if guidance, ok := discussionStyleGuidance[meeting.Config.DiscussionStyle]; ok {
		b.WriteString("\n")
		b.WriteString(guidance)
	}

	if pref, ok := meeting.Config.SpeakingLengthPreferences[speaker.ID]; ok {
		if guidance, ok := speakingLengthGuidance[pref]; ok {
			b.WriteString("\n")
			b.WriteString(guidance)
		}
	}

	if meeting.IsModerator(speaker.ID) {
		b.WriteString("\n")
		b.WriteString(moderatorDutyBlock)
	}

	return b.String()
}

// mentionWindow is how many of the most recent messages are checked for a
// mention notice (§4.4.2).
const mentionWindow = 5

// BuildMeetingContext composes the prepended system entry describing
// meeting state for speakerID (§4.4.2, first bullet list).
func BuildMeetingContext(meeting *domain.Meeting, speakerID string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Meeting topic: %s\n", meeting.Topic)
	fmt.Fprintf(&b, "Moderator: %s\n", meeting.ModeratorName())

	b.WriteString("Participants:\n")
	for _, p := range meeting.Participants {
		fmt.Fprintf(&b, "- %s (%s)\n", p.Name, p.Role.Name)
	}

	if len(meeting.Agenda) > 0 {
		b.WriteString("Agenda:\n")
		for _, item := range meeting.Agenda {
			marker := "○"
			if item.Completed {
				marker = "✓"
			}
			fmt.Fprintf(&b, "%s %s\n", marker, item.Title)
		}
	}

	if meeting.CurrentMinutes != nil {
		fmt.Fprintf(&b, "Current meeting conclusion:\n%s\n", meeting.CurrentMinutes.Summary)
	}

	if wasRecentlyMentioned(meeting, speakerID) {
		b.WriteString("You were mentioned recently — please respond.\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func wasRecentlyMentioned(meeting *domain.Meeting, speakerID string) bool {
	msgs := meeting.Messages
	start := 0
	if len(msgs) > mentionWindow {
		start = len(msgs) - mentionWindow
	}
	for _, msg := range msgs[start:] {
		for _, m := range msg.Mentions {
			if m.MentionedParticipantID == speakerID {
				return true
			}
		}
	}
	return false
}

// BuildMessageHistory composes the transcript portion of the conversation,
// applying the minutes-compression rule (§4.4.2): once
// current_minutes exists, only messages newer than it are included, prefixed
// by one system entry carrying the minutes content.
func BuildMessageHistory(meeting *domain.Meeting) []Entry {
	var entries []Entry

	messages := meeting.Messages
	if meeting.CurrentMinutes != nil {
		entries = append(entries, Entry{
			Role: RoleSystem,
			Content: fmt.Sprintf("Meeting minutes as of %s:\n%s",
				meeting.CurrentMinutes.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
				meeting.CurrentMinutes.Content),
		})
		cutoff := meeting.CurrentMinutes.CreatedAt
		filtered := messages[:0:0]
		for _, msg := range messages {
			if msg.Timestamp.After(cutoff) {
				filtered = append(filtered, msg)
			}
		}
		messages = filtered
	}

	for _, msg := range messages {
		role := RoleUser
		if msg.SpeakerType == domain.SpeakerAgent {
			role = RoleAssistant
		}
		entries = append(entries, Entry{
			Role:    role,
			Content: fmt.Sprintf("%s: %s", msg.SpeakerName, msg.Content),
		})
	}

	return entries
}

// BuildConversation assembles the full conversation §4.4 hands to a model
// adapter: the meeting-context system entry, then message history.
func BuildConversation(meeting *domain.Meeting, speakerID string) []Entry {
	conversation := []Entry{{Role: RoleSystem, Content: BuildMeetingContext(meeting, speakerID)}}
	conversation = append(conversation, BuildMessageHistory(meeting)...)
	return conversation
}
