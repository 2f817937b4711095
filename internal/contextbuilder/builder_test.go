package contextbuilder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/meeting-engine/internal/domain"
)

func agent(id, name, role string) domain.Agent {
	return domain.Agent{
		ID:   id,
		Name: name,
		Role: domain.Role{Name: role, Description: "desc", SystemPrompt: "prompt"},
		ModelConfig: domain.ModelConfig{
			Provider: domain.ProviderOpenAI, ModelName: "gpt-4o", Credential: "x",
		},
	}
}

func TestBuildSystemPromptIncludesModeratorBlockOnlyForModerator(t *testing.T) {
	a := agent("a1", "Alice", "PM")
	meeting := &domain.Meeting{
		Moderator: domain.Moderator{Type: domain.ModeratorAgent, ParticipantID: "a1"},
		Config:    domain.MeetingConfig{DiscussionStyle: domain.DiscussionFormal},
	}
	prompt := BuildSystemPrompt(a, meeting)
	assert.Contains(t, prompt, "As moderator")

	meeting.Moderator.ParticipantID = "someone-else"
	prompt2 := BuildSystemPrompt(a, meeting)
	assert.NotContains(t, prompt2, "As moderator")
}

func TestBuildSystemPromptLengthPreference(t *testing.T) {
	a := agent("a1", "Alice", "PM")
	meeting := &domain.Meeting{
		Config: domain.MeetingConfig{
			SpeakingLengthPreferences: map[string]domain.SpeakingLength{"a1": domain.SpeakingBrief},
		},
	}
	prompt := BuildSystemPrompt(a, meeting)
	assert.Contains(t, prompt, "Keep your response brief")
}

func TestBuildMeetingContextAgendaMarkers(t *testing.T) {
	meeting := &domain.Meeting{
		Topic:     "Q3 planning",
		Moderator: domain.Moderator{Type: domain.ModeratorUser},
		Agenda: []domain.AgendaItem{
			{Title: "Budget", Completed: true},
			{Title: "Hiring", Completed: false},
		},
	}
	out := BuildMeetingContext(meeting, "a1")
	assert.Contains(t, out, "✓ Budget")
	assert.Contains(t, out, "○ Hiring")
}

func TestBuildMessageHistoryCompressesAfterMinutes(t *testing.T) {
	base := time.Now().Add(-time.Hour)
	meeting := &domain.Meeting{
		CurrentMinutes: &domain.MinutesVersion{Content: "summary text", CreatedAt: base},
		Messages: []domain.Message{
			{SpeakerName: "Alice", SpeakerType: domain.SpeakerUser, Content: "before", Timestamp: base.Add(-time.Minute)},
			{SpeakerName: "Bob", SpeakerType: domain.SpeakerAgent, Content: "after", Timestamp: base.Add(time.Minute)},
		},
	}
	entries := BuildMessageHistory(meeting)
	require.Len(t, entries, 2) // one system (minutes) + one post-minutes message
	assert.Equal(t, RoleSystem, entries[0].Role)
	assert.Contains(t, entries[0].Content, "summary text")
	assert.Equal(t, RoleAssistant, entries[1].Role)
	assert.Contains(t, entries[1].Content, "Bob: after")
}

func TestBuildMessageHistoryWithoutMinutesIncludesAll(t *testing.T) {
	meeting := &domain.Meeting{
		Messages: []domain.Message{
			{SpeakerName: "Alice", SpeakerType: domain.SpeakerUser, Content: "hi"},
			{SpeakerName: "Bob", SpeakerType: domain.SpeakerAgent, Content: "hello"},
		},
	}
	entries := BuildMessageHistory(meeting)
	require.Len(t, entries, 2)
	assert.Equal(t, RoleUser, entries[0].Role)
	assert.Equal(t, RoleAssistant, entries[1].Role)
}

func TestMentionNoticeWithinWindow(t *testing.T) {
	meeting := &domain.Meeting{
		Moderator: domain.Moderator{Type: domain.ModeratorUser},
		Messages: []domain.Message{
			{Mentions: []domain.Mention{{MentionedParticipantID: "a1"}}},
		},
	}
	out := BuildMeetingContext(meeting, "a1")
	assert.Contains(t, out, "mentioned recently")
}
