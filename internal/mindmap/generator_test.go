package mindmap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/meeting-engine/internal/contextbuilder"
	"github.com/PabloGalante/meeting-engine/internal/domain"
	"github.com/PabloGalante/meeting-engine/internal/llm"
)

type fakeClient struct {
	result llm.Result
	err    error
}

func (f *fakeClient) Complete(ctx context.Context, systemPrompt string, conversation []contextbuilder.Entry, params domain.ModelParameters) (llm.Result, error) {
	return f.result, f.err
}
func (f *fakeClient) Stream(ctx context.Context, systemPrompt string, conversation []contextbuilder.Entry, params domain.ModelParameters) (<-chan llm.Delta, error) {
	return nil, nil
}
func (f *fakeClient) TestConnection(ctx context.Context) error { return nil }
func (f *fakeClient) Name() domain.Provider                    { return domain.ProviderOpenAI }

func testAgent(id string) domain.Agent {
	return domain.Agent{
		ID:   id,
		Name: "Agent " + id,
		Role: domain.Role{Name: "Analyst", Description: "analyzes", SystemPrompt: "Analyze."},
		ModelConfig: domain.ModelConfig{
			Provider: domain.ProviderOpenAI, ModelName: "gpt-4o", Credential: "key",
		},
	}
}

func testMeeting() *domain.Meeting {
	return &domain.Meeting{
		ID:           "m1",
		Topic:        "Q3 roadmap",
		Participants: []domain.Agent{testAgent("a1")},
		Agenda: []domain.AgendaItem{
			{ID: "ag1", Title: "Budget"},
			{ID: "ag2", Title: "Hiring"},
		},
		Messages: []domain.Message{
			{ID: "msg1", Content: "let's discuss budget", SpeakerName: "Agent a1"},
			{ID: "msg2", Content: "hiring plan next", SpeakerName: "Agent a1"},
		},
	}
}

func TestGenerateAttachesDiscussionPoints(t *testing.T) {
	g := New()
	client := &fakeClient{result: llm.Result{Content: `{"discussion_points": [
		{"content": "cut cloud spend", "parent_agenda_title": "Budget", "message_ids": ["msg1"], "sub_points": [
			{"content": "renegotiate contract", "message_ids": ["msg1"]}
		]},
		{"content": "hire two engineers", "parent_agenda_title": "Hiring", "message_ids": ["msg2"]}
	]}`}}
	g.newClient = func(domain.ModelConfig) (llm.Client, error) { return client, nil }

	meeting := testMeeting()
	mm, err := g.Generate(context.Background(), meeting, "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, mm.Version)

	root := mm.Nodes[mm.RootNode]
	assert.Equal(t, "Q3 roadmap", root.Content)
	assert.Len(t, root.ChildrenIDs, 2)

	validIDs := map[string]struct{}{"msg1": {}, "msg2": {}}
	require.NoError(t, mm.ValidateTree(validIDs))

	var foundLevel3 bool
	for _, n := range mm.Nodes {
		if n.Level == 3 {
			foundLevel3 = true
		}
	}
	assert.True(t, foundLevel3, "expected a sub_point to reach level 3")
}

func TestGenerateFallsBackOnInvalidTree(t *testing.T) {
	g := New()
	// message_ids referencing a message that does not exist anywhere in
	// the meeting makes the resulting tree fail ValidateTree.
	client := &fakeClient{result: llm.Result{Content: `{"discussion_points": [
		{"content": "ghost point", "message_ids": ["does-not-exist"]}
	]}`}}
	g.newClient = func(domain.ModelConfig) (llm.Client, error) { return client, nil }

	meeting := testMeeting()
	mm, err := g.Generate(context.Background(), meeting, "a1")
	require.NoError(t, err)

	root := mm.Nodes[mm.RootNode]
	assert.Len(t, root.ChildrenIDs, 2) // fallback: root + agenda nodes only
	assert.Len(t, mm.Nodes, 3)
}

func TestGenerateFallsBackOnUnparsableOutput(t *testing.T) {
	g := New()
	client := &fakeClient{result: llm.Result{Content: "not json at all"}}
	g.newClient = func(domain.ModelConfig) (llm.Client, error) { return client, nil }

	meeting := testMeeting()
	mm, err := g.Generate(context.Background(), meeting, "a1")
	require.NoError(t, err)
	assert.Len(t, mm.Nodes, 3)
}

func TestGenerateBumpsVersionOnRegeneration(t *testing.T) {
	g := New()
	client := &fakeClient{result: llm.Result{Content: "not json"}}
	g.newClient = func(domain.ModelConfig) (llm.Client, error) { return client, nil }

	meeting := testMeeting()
	first, err := g.Generate(context.Background(), meeting, "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	second, err := g.Generate(context.Background(), meeting, "a1")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
}
