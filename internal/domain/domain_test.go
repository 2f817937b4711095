package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAgent(id string) Agent {
	return Agent{
		ID:   id,
		Name: "Analyst",
		Role: Role{
			Name:         "Analyst",
			Description:  "Reviews data",
			SystemPrompt: "You are a data analyst.",
		},
		ModelConfig: ModelConfig{
			Provider:   ProviderOpenAI,
			ModelName:  "gpt-4o",
			Credential: "sk-test",
		},
	}
}

func TestAgentValidate(t *testing.T) {
	a := validAgent("a1")
	require.NoError(t, a.Validate())

	a.Name = ""
	assert.Error(t, a.Validate())
}

func TestModelConfigValidateUnknownProvider(t *testing.T) {
	m := ModelConfig{Provider: "bogus", ModelName: "x", Credential: "y"}
	assert.Error(t, m.Validate())
}

func TestTruncate(t *testing.T) {
	max := 10
	out, truncated := Truncate("hello world this is long", &max)
	assert.True(t, truncated)
	assert.LessOrEqual(t, len(out), 10+len(TruncationMarker))

	out2, truncated2 := Truncate("short", &max)
	assert.False(t, truncated2)
	assert.Equal(t, "short", out2)
}

func TestValidateContentRejectsWhitespace(t *testing.T) {
	assert.Error(t, ValidateContent("   \n\t "))
	assert.NoError(t, ValidateContent("hello"))
}

func TestMindMapValidateTree(t *testing.T) {
	mm := &MindMap{
		RootNode: "root",
		Nodes: map[string]*MindMapNode{
			"root": {ID: "root", Level: 0, ChildrenIDs: []string{"n1"}},
			"n1":   {ID: "n1", Level: 1, ParentID: "root", MessageReferences: []string{"m1"}},
		},
	}
	require.NoError(t, mm.ValidateTree(map[string]struct{}{"m1": {}}))

	mm.Nodes["n1"].MessageReferences = []string{"missing"}
	assert.Error(t, mm.ValidateTree(map[string]struct{}{"m1": {}}))
}

func TestMindMapValidateTreeDetectsCycle(t *testing.T) {
	mm := &MindMap{
		RootNode: "root",
		Nodes: map[string]*MindMapNode{
			"root": {ID: "root", Level: 0, ChildrenIDs: []string{"n1"}},
			"n1":   {ID: "n1", Level: 1, ParentID: "root", ChildrenIDs: []string{"root"}},
		},
	}
	mm.Nodes["root"].ParentID = "n1"
	assert.Error(t, mm.ValidateTree(map[string]struct{}{}))
}

func TestModeratorName(t *testing.T) {
	m := &Meeting{Moderator: Moderator{Type: ModeratorUser}}
	assert.Equal(t, "user", m.ModeratorName())

	agent := validAgent("a1")
	m = &Meeting{
		Moderator:    Moderator{Type: ModeratorAgent, ParticipantID: "a1"},
		Participants: []Agent{agent},
	}
	assert.Equal(t, "Analyst", m.ModeratorName())
}

func TestValidateTopicAcceptsMeetingTopic(t *testing.T) {
	now := time.Now()
	m := &Meeting{ID: "m1", Topic: "Q3 planning", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, ValidateTopic(m.Topic))
}
