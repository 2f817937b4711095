package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/meeting-engine/internal/domain"
)

func participants() []domain.Agent {
	return []domain.Agent{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
		{ID: "c", Name: "C"},
	}
}

func TestNextSequentialRunRound(t *testing.T) {
	s := New()
	meeting := &domain.Meeting{ID: "m1", Participants: participants()}
	order := s.Next(meeting, nil, domain.SpeakingSequential, true)
	require.Len(t, order, 3)
	assert.Equal(t, []string{"a", "b", "c"}, ids(order))
}

func TestNextSequentialRunRoundStableAcrossRounds(t *testing.T) {
	s := New()
	meeting := &domain.Meeting{ID: "m1", Participants: participants()}

	for round := 0; round < 3; round++ {
		order := s.Next(meeting, nil, domain.SpeakingSequential, true)
		require.Len(t, order, 3)
		assert.Equal(t, []string{"a", "b", "c"}, ids(order), "round %d", round)
		for _, agent := range order {
			meeting.Messages = append(meeting.Messages, domain.Message{
				SpeakerID:   agent.ID,
				SpeakerType: domain.SpeakerAgent,
			})
		}
	}
}

func TestNextSequentialResumesAfterLastSpeaker(t *testing.T) {
	s := New()
	meeting := &domain.Meeting{
		ID:           "m1",
		Participants: participants(),
		Messages: []domain.Message{
			{SpeakerID: "user", SpeakerType: domain.SpeakerUser},
			{SpeakerID: "a", SpeakerType: domain.SpeakerAgent},
			{SpeakerID: "b", SpeakerType: domain.SpeakerAgent},
		},
	}
	order := s.Next(meeting, nil, domain.SpeakingSequential, true)
	assert.Equal(t, []string{"c", "a", "b"}, ids(order))
}

func TestNextMentionOverridesRotation(t *testing.T) {
	s := New()
	meeting := &domain.Meeting{ID: "m1", Participants: participants()}
	ref := &domain.Message{Mentions: []domain.Mention{{MentionedParticipantID: "b"}}}
	order := s.Next(meeting, ref, domain.SpeakingSequential, true)
	require.Len(t, order, 1)
	assert.Equal(t, "b", order[0].ID)
}

func TestNextNoRunRoundNoMentionReturnsEmpty(t *testing.T) {
	s := New()
	meeting := &domain.Meeting{ID: "m1", Participants: participants()}
	order := s.Next(meeting, &domain.Message{}, domain.SpeakingSequential, false)
	assert.Empty(t, order)
}

func TestRandomOrderDiffersFromSequentialEventually(t *testing.T) {
	s := New()
	meeting := &domain.Meeting{ID: "m1", Participants: participants()}
	sequential := []string{"a", "b", "c"}

	differed := false
	for i := 0; i < 100; i++ {
		order := s.Next(meeting, nil, domain.SpeakingRandom, true)
		if ids(order)[0] != sequential[0] || ids(order)[1] != sequential[1] {
			differed = true
			break
		}
	}
	assert.True(t, differed, "expected at least one random ordering to differ from sequential over 100 runs")
}

func ids(agents []domain.Agent) []string {
	out := make([]string, len(agents))
	for i, a := range agents {
		out[i] = a.ID
	}
	return out
}
