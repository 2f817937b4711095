package mention

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var participants = []Participant{
	{ID: "a1", Name: "Alice", RoleName: "Product Manager"},
	{ID: "a2", Name: "Bob", RoleName: "Engineer"},
	{ID: "a3", Name: "Carol", RoleName: "QA"},
}

func TestParseBareMention(t *testing.T) {
	mentions := Parse("@Bob please weigh in", "m1", participants)
	require.Len(t, mentions, 1)
	assert.Equal(t, "a2", mentions[0].MentionedParticipantID)
	assert.Equal(t, "m1", mentions[0].MessageID)
}

func TestParseQuotedMention(t *testing.T) {
	mentions := Parse(`@"Product Manager, can you review"`, "m1", []Participant{
		{ID: "a1", Name: "Product Manager, can you review"},
	})
	require.Len(t, mentions, 1)
	assert.Equal(t, "a1", mentions[0].MentionedParticipantID)
}

func TestParseTrailingPunctuation(t *testing.T) {
	mentions := Parse("Thanks @Bob, that's all.", "m1", participants)
	require.Len(t, mentions, 1)
	assert.Equal(t, "a2", mentions[0].MentionedParticipantID)
}

func TestParseRoleNameFallback(t *testing.T) {
	mentions := Parse("@Engineer can you check this?", "m1", participants)
	require.Len(t, mentions, 1)
	assert.Equal(t, "a2", mentions[0].MentionedParticipantID)
}

func TestParseFirstOccurrenceWins(t *testing.T) {
	mentions := Parse("@Bob and also @Bob again", "m1", participants)
	require.Len(t, mentions, 1)
}

func TestParseDocumentOrder(t *testing.T) {
	mentions := Parse("@Carol then @Alice then @Bob", "m1", participants)
	require.Len(t, mentions, 3)
	assert.Equal(t, []string{"a3", "a1", "a2"}, []string{
		mentions[0].MentionedParticipantID,
		mentions[1].MentionedParticipantID,
		mentions[2].MentionedParticipantID,
	})
}

func TestParseNoMatchIgnored(t *testing.T) {
	mentions := Parse("@nobody here", "m1", participants)
	assert.Empty(t, mentions)
}

func TestParseIsIdempotentAndOrderPreserving(t *testing.T) {
	content := "@Alice @Bob @Carol"
	first := Parse(content, "m1", participants)
	second := Parse(content, "m1", participants)
	assert.Equal(t, first, second)
}
