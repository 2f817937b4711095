package turnengine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
	"github.com/PabloGalante/meeting-engine/internal/broadcast"
	"github.com/PabloGalante/meeting-engine/internal/contextbuilder"
	"github.com/PabloGalante/meeting-engine/internal/domain"
	"github.com/PabloGalante/meeting-engine/internal/llm"
	"github.com/PabloGalante/meeting-engine/internal/store/memstore"
)

type fakeClient struct {
	completeResult llm.Result
	completeErr    error
	deltas         []llm.Delta
}

func (f *fakeClient) Complete(ctx context.Context, systemPrompt string, conversation []contextbuilder.Entry, params domain.ModelParameters) (llm.Result, error) {
	return f.completeResult, f.completeErr
}

func (f *fakeClient) Stream(ctx context.Context, systemPrompt string, conversation []contextbuilder.Entry, params domain.ModelParameters) (<-chan llm.Delta, error) {
	ch := make(chan llm.Delta, len(f.deltas))
	for _, d := range f.deltas {
		ch <- d
	}
	close(ch)
	return ch, nil
}

func (f *fakeClient) TestConnection(ctx context.Context) error { return nil }
func (f *fakeClient) Name() domain.Provider                    { return domain.ProviderOpenAI }

func newTestEngine(client llm.Client) (*Engine, *memstore.Store, *broadcast.Hub) {
	st := memstore.New()
	hub := broadcast.New()
	e := NewEngine(st, hub, nil)
	e.newClient = func(domain.ModelConfig) (llm.Client, error) { return client, nil }
	return e, st, hub
}

func seedMeeting(t *testing.T, st *memstore.Store, participants ...domain.Agent) *domain.Meeting {
	t.Helper()
	m := &domain.Meeting{
		ID:           "m1",
		Topic:        "Q3 planning",
		Status:       domain.StatusActive,
		Participants: participants,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, st.SaveMeeting(context.Background(), m))
	return m
}

func agentParticipant(id string) domain.Agent {
	return domain.Agent{
		ID:   id,
		Name: "Agent " + id,
		Role: domain.Role{Name: "Analyst", Description: "analyzes things", SystemPrompt: "Be analytical."},
		ModelConfig: domain.ModelConfig{
			Provider: domain.ProviderOpenAI, ModelName: "gpt-4o", Credential: "key",
		},
	}
}

func TestExecuteTurnBlockingAppendsMessage(t *testing.T) {
	client := &fakeClient{completeResult: llm.Result{Content: "hello team"}}
	e, st, hub := newTestEngine(client)
	a := agentParticipant("a1")
	seedMeeting(t, st, a)

	sub, unsub := hub.Subscribe("m1")
	defer unsub()

	msg, mentioned, err := e.ExecuteTurn(context.Background(), "m1", "a1", ModeBlocking)
	require.NoError(t, err)
	assert.Equal(t, "hello team", msg.Content)
	assert.Empty(t, mentioned)

	loaded, err := st.LoadMeeting(context.Background(), "m1")
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, "a1", loaded.Messages[0].SpeakerID)
	// single participant: the round completes (and the meeting has no
	// max_rounds) on the very first message.
	assert.Equal(t, 1, loaded.CurrentRound)

	select {
	case ev := <-sub:
		assert.Equal(t, broadcast.EventNewMessage, ev.Kind)
	default:
		t.Fatal("expected a new_message event")
	}
}

func TestExecuteTurnRejectsWhenNotActive(t *testing.T) {
	client := &fakeClient{completeResult: llm.Result{Content: "hi"}}
	e, st, _ := newTestEngine(client)
	a := agentParticipant("a1")
	m := seedMeeting(t, st, a)
	m.Status = domain.StatusPaused
	require.NoError(t, st.SaveMeeting(context.Background(), m))

	_, _, err := e.ExecuteTurn(context.Background(), "m1", "a1", ModeBlocking)
	assert.True(t, apperr.IsKind(err, apperr.KindStateConflict))
}

func TestExecuteTurnMaxRoundsReached(t *testing.T) {
	client := &fakeClient{completeResult: llm.Result{Content: "hi"}}
	e, st, _ := newTestEngine(client)
	a := agentParticipant("a1")
	m := seedMeeting(t, st, a)
	maxRounds := 1
	m.Config.MaxRounds = &maxRounds
	m.CurrentRound = 1
	require.NoError(t, st.SaveMeeting(context.Background(), m))

	_, _, err := e.ExecuteTurn(context.Background(), "m1", "a1", ModeBlocking)
	assert.True(t, apperr.IsKind(err, apperr.KindStateConflict))
}

func TestExecuteTurnUnknownSpeaker(t *testing.T) {
	client := &fakeClient{completeResult: llm.Result{Content: "hi"}}
	e, st, _ := newTestEngine(client)
	seedMeeting(t, st, agentParticipant("a1"))

	_, _, err := e.ExecuteTurn(context.Background(), "m1", "ghost", ModeBlocking)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestExecuteTurnEmptyResponseFails(t *testing.T) {
	client := &fakeClient{completeResult: llm.Result{Content: "   "}}
	e, st, hub := newTestEngine(client)
	seedMeeting(t, st, agentParticipant("a1"))

	sub, unsub := hub.Subscribe("m1")
	defer unsub()

	_, _, err := e.ExecuteTurn(context.Background(), "m1", "a1", ModeBlocking)
	require.Error(t, err)

	loaded, err := st.LoadMeeting(context.Background(), "m1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Messages)

	ev := <-sub
	assert.Equal(t, broadcast.EventTurnFailed, ev.Kind)
}

func TestExecuteTurnTruncatesLongContent(t *testing.T) {
	client := &fakeClient{completeResult: llm.Result{Content: "this is a very long response body"}}
	e, st, _ := newTestEngine(client)
	maxLen := 10
	a := agentParticipant("a1")
	m := seedMeeting(t, st, a)
	m.Config.MaxMessageLength = &maxLen
	require.NoError(t, st.SaveMeeting(context.Background(), m))

	msg, _, err := e.ExecuteTurn(context.Background(), "m1", "a1", ModeBlocking)
	require.NoError(t, err)
	assert.Contains(t, msg.Content, "…[truncated]")
}

func TestExecuteTurnParsesMentions(t *testing.T) {
	client := &fakeClient{completeResult: llm.Result{Content: `I agree with @"Agent a2" on this.`}}
	e, st, _ := newTestEngine(client)
	a1, a2 := agentParticipant("a1"), agentParticipant("a2")
	seedMeeting(t, st, a1, a2)

	_, mentioned, err := e.ExecuteTurn(context.Background(), "m1", "a1", ModeBlocking)
	require.NoError(t, err)
	require.Len(t, mentioned, 1)
	assert.Equal(t, "a2", mentioned[0])
}

func TestExecuteTurnBlockingRetriesRetryableError(t *testing.T) {
	client := &fakeClient{completeErr: apperr.New(apperr.KindNetwork, "connection reset")}
	e, st, hub := newTestEngine(client)
	seedMeeting(t, st, agentParticipant("a1"))
	e.retryPolicy = llm.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

	sub, unsub := hub.Subscribe("m1")
	defer unsub()

	_, _, err := e.ExecuteTurn(context.Background(), "m1", "a1", ModeBlocking)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNetwork))

	ev := <-sub
	assert.Equal(t, broadcast.EventTurnFailed, ev.Kind)
	assert.Equal(t, string(apperr.KindNetwork), ev.ErrorClassification)
}

func TestExecuteTurnStreamingAccumulatesDeltas(t *testing.T) {
	client := &fakeClient{deltas: []llm.Delta{
		{Kind: llm.DeltaReasoning, Text: "thinking..."},
		{Kind: llm.DeltaContent, Text: "hello "},
		{Kind: llm.DeltaContent, Text: "world"},
		{Kind: llm.DeltaComplete},
	}}
	e, st, hub := newTestEngine(client)
	seedMeeting(t, st, agentParticipant("a1"))

	sub, unsub := hub.Subscribe("m1")
	defer unsub()

	msg, _, err := e.ExecuteTurn(context.Background(), "m1", "a1", ModeStreaming)
	require.NoError(t, err)
	assert.Equal(t, "hello world", msg.Content)
	assert.Equal(t, "thinking...", msg.ReasoningContent)

	var deltaEvents, newMessageEvents int
	for {
		select {
		case ev := <-sub:
			switch ev.Kind {
			case broadcast.EventStreamingDelta:
				deltaEvents++
			case broadcast.EventNewMessage:
				newMessageEvents++
			}
		default:
			assert.Equal(t, 4, deltaEvents)
			assert.Equal(t, 1, newMessageEvents)
			return
		}
	}
}

func TestExecuteTurnStreamingErrorAborts(t *testing.T) {
	client := &fakeClient{deltas: []llm.Delta{
		{Kind: llm.DeltaContent, Text: "partial"},
		{Kind: llm.DeltaError, Err: apperr.New(apperr.KindProviderError, "boom")},
	}}
	e, st, _ := newTestEngine(client)
	seedMeeting(t, st, agentParticipant("a1"))

	_, _, err := e.ExecuteTurn(context.Background(), "m1", "a1", ModeStreaming)
	require.Error(t, err)

	loaded, err := st.LoadMeeting(context.Background(), "m1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Messages)
}
