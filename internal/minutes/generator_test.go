package minutes

import (
	"context"
	"testing"
	"time"

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
		Role: domain.Role{Name: "Scribe", Description: "takes notes", SystemPrompt: "Summarize precisely."},
		ModelConfig: domain.ModelConfig{
			Provider: domain.ProviderOpenAI, ModelName: "gpt-4o", Credential: "key",
		},
	}
}

func TestGenerateParsesStructuredJSON(t *testing.T) {
	g := New()
	client := &fakeClient{result: llm.Result{Content: `{"summary": "team agreed on Q3 scope", "key_decisions": ["ship v2"], "action_items": ["write spec"]}`}}
	g.newClient = func(domain.ModelConfig) (llm.Client, error) { return client, nil }

	meeting := &domain.Meeting{
		ID:           "m1",
		Participants: []domain.Agent{testAgent("a1")},
		Messages:     []domain.Message{{ID: "msg1", Content: "let's ship v2", SpeakerName: "Agent a1", Timestamp: time.Now()}},
	}

	version, err := g.Generate(context.Background(), meeting, "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, version.Version)
	assert.Equal(t, "team agreed on Q3 scope", version.Summary)
	assert.Equal(t, []string{"ship v2"}, version.KeyDecisions)
	require.NotNil(t, meeting.CurrentMinutes)
	assert.Equal(t, version.ID, meeting.CurrentMinutes.ID)
}

func TestGenerateFallsBackOnMalformedJSON(t *testing.T) {
	g := New()
	client := &fakeClient{result: llm.Result{Content: "Not valid JSON at all, just a plain summary paragraph."}}
	g.newClient = func(domain.ModelConfig) (llm.Client, error) { return client, nil }

	meeting := &domain.Meeting{
		ID:           "m1",
		Participants: []domain.Agent{testAgent("a1")},
	}

	version, err := g.Generate(context.Background(), meeting, "")
	require.NoError(t, err)
	assert.Contains(t, version.Summary, "plain summary paragraph")
	assert.Nil(t, version.KeyDecisions)
}

func TestGenerateVersionsIncrementMonotonically(t *testing.T) {
	g := New()
	client := &fakeClient{result: llm.Result{Content: `{"summary": "round two"}`}}
	g.newClient = func(domain.ModelConfig) (llm.Client, error) { return client, nil }

	first := time.Now()
	meeting := &domain.Meeting{
		ID:           "m1",
		Participants: []domain.Agent{testAgent("a1")},
		MinutesHistory: []domain.MinutesVersion{
			{ID: "v1", Version: 1, Summary: "round one", CreatedAt: first},
		},
	}

	version, err := g.Generate(context.Background(), meeting, "a1")
	require.NoError(t, err)
	assert.Equal(t, 2, version.Version)
	assert.False(t, version.CreatedAt.Before(first))
	require.Len(t, meeting.MinutesHistory, 2)
}

func TestGenerateUsesModeratorWhenNoGeneratorSpecified(t *testing.T) {
	g := New()
	client := &fakeClient{result: llm.Result{Content: `{"summary": "moderator summary"}`}}
	g.newClient = func(domain.ModelConfig) (llm.Client, error) { return client, nil }

	meeting := &domain.Meeting{
		ID:           "m1",
		Participants: []domain.Agent{testAgent("a1"), testAgent("a2")},
		Moderator:    domain.Moderator{Type: domain.ModeratorAgent, ParticipantID: "a2"},
	}

	version, err := g.Generate(context.Background(), meeting, "")
	require.NoError(t, err)
	assert.Equal(t, "a2", version.CreatedBy)
}
