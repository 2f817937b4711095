package meetingsvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
	"github.com/PabloGalante/meeting-engine/internal/broadcast"
	"github.com/PabloGalante/meeting-engine/internal/coordinator"
	"github.com/PabloGalante/meeting-engine/internal/domain"
	"github.com/PabloGalante/meeting-engine/internal/selector"
	"github.com/PabloGalante/meeting-engine/internal/store/memstore"
	"github.com/PabloGalante/meeting-engine/internal/turnengine"
)

type fakeEngine struct {
	msg       *domain.Message
	mentioned []string
	err       error
	calls     []string
}

func (f *fakeEngine) ExecuteTurn(ctx context.Context, meetingID, speakerID string, mode turnengine.Mode) (*domain.Message, []string, error) {
	f.calls = append(f.calls, speakerID)
	if f.err != nil {
		return nil, nil, f.err
	}
	m := *f.msg
	m.SpeakerID = speakerID
	mentioned := f.mentioned
	f.mentioned = nil // only fire the chain once per test unless reset
	return &m, mentioned, nil
}

type fakeMinutes struct {
	version *domain.MinutesVersion
	err     error
}

func (f *fakeMinutes) Generate(ctx context.Context, meeting *domain.Meeting, generatorID string) (*domain.MinutesVersion, error) {
	return f.version, f.err
}

type fakeMindMap struct {
	mm  *domain.MindMap
	err error
}

func (f *fakeMindMap) Generate(ctx context.Context, meeting *domain.Meeting, generatorID string) (*domain.MindMap, error) {
	return f.mm, f.err
}

func newTestService(engine TurnRunner) (*Service, *memstore.Store) {
	st := memstore.New()
	svc := New(st, coordinator.New(), broadcast.New(), selector.New(), engine, &fakeMinutes{}, &fakeMindMap{}, nil, nil)
	return svc, st
}

func agentParticipant(id string) domain.Agent {
	return domain.Agent{ID: id, Name: "Agent " + id, Role: domain.Role{Name: "member"}}
}

func TestCreateSnapshotsParticipantsAndValidatesModerator(t *testing.T) {
	svc, st := newTestService(&fakeEngine{})
	ctx := context.Background()
	require.NoError(t, st.SaveAgent(ctx, agentParticipant("a1")))

	meeting, err := svc.Create(ctx, "Q3 planning", []string{"a1"}, domain.Moderator{Type: domain.ModeratorUser}, nil, domain.MeetingConfig{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, meeting.Status)
	assert.Len(t, meeting.Participants, 1)
	assert.Equal(t, domain.SpeakingSequential, meeting.Config.SpeakingOrder)

	_, err = svc.Create(ctx, "Bad moderator", []string{"a1"}, domain.Moderator{Type: domain.ModeratorAgent, ParticipantID: "not-a-participant"}, nil, domain.MeetingConfig{})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestStartPauseEndTransitions(t *testing.T) {
	svc, st := newTestService(&fakeEngine{})
	ctx := context.Background()
	require.NoError(t, st.SaveMeeting(ctx, &domain.Meeting{ID: "m1", Status: domain.StatusActive}))

	require.NoError(t, svc.Pause(ctx, "m1"))
	m, err := svc.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaused, m.Status)

	require.NoError(t, svc.Start(ctx, "m1"))
	m, _ = svc.Get(ctx, "m1")
	assert.Equal(t, domain.StatusActive, m.Status)

	require.NoError(t, svc.End(ctx, "m1"))
	m, _ = svc.Get(ctx, "m1")
	assert.Equal(t, domain.StatusEnded, m.Status)

	err = svc.Start(ctx, "m1")
	assert.True(t, apperr.IsKind(err, apperr.KindStateConflict))
}

func TestAddUserMessageRejectedWhenNotActive(t *testing.T) {
	svc, st := newTestService(&fakeEngine{})
	ctx := context.Background()
	require.NoError(t, st.SaveMeeting(ctx, &domain.Meeting{ID: "m1", Status: domain.StatusPaused}))

	_, err := svc.AddUserMessage(ctx, "m1", "hello")
	assert.True(t, apperr.IsKind(err, apperr.KindStateConflict))
}

func TestAddUserMessageAppendsAndParsesMentions(t *testing.T) {
	svc, st := newTestService(&fakeEngine{})
	ctx := context.Background()
	require.NoError(t, st.SaveMeeting(ctx, &domain.Meeting{
		ID: "m1", Status: domain.StatusActive,
		Participants: []domain.Agent{agentParticipant("a1")},
	}))

	msg, err := svc.AddUserMessage(ctx, "m1", `hey @"Agent a1" what do you think?`)
	require.NoError(t, err)
	assert.Equal(t, domain.SpeakerUser, msg.SpeakerType)
	require.Len(t, msg.Mentions, 1)
	assert.Equal(t, "a1", msg.Mentions[0].MentionedParticipantID)

	m, _ := svc.Get(ctx, "m1")
	assert.Len(t, m.Messages, 1)
}

func TestRequestTurnRunsChainUnderSameAcquire(t *testing.T) {
	engine := &fakeEngine{
		msg:       &domain.Message{ID: "msg1", Content: "hi", SpeakerType: domain.SpeakerAgent},
		mentioned: []string{"a2"},
	}
	svc, st := newTestService(engine)
	ctx := context.Background()
	require.NoError(t, st.SaveMeeting(ctx, &domain.Meeting{
		ID: "m1", Status: domain.StatusActive,
		Participants: []domain.Agent{agentParticipant("a1"), agentParticipant("a2")},
	}))

	msg, err := svc.RequestTurn(ctx, "m1", "a1", turnengine.ModeStreaming)
	require.NoError(t, err)
	assert.Equal(t, "a1", msg.SpeakerID)
	assert.Equal(t, []string{"a1", "a2"}, engine.calls)
}

func TestRequestTurnBlockingDoesNotChain(t *testing.T) {
	engine := &fakeEngine{
		msg:       &domain.Message{ID: "msg1", Content: "hi", SpeakerType: domain.SpeakerAgent},
		mentioned: []string{"a2"},
	}
	svc, st := newTestService(engine)
	ctx := context.Background()
	require.NoError(t, st.SaveMeeting(ctx, &domain.Meeting{
		ID: "m1", Status: domain.StatusActive,
		Participants: []domain.Agent{agentParticipant("a1"), agentParticipant("a2")},
	}))

	_, err := svc.RequestTurn(ctx, "m1", "a1", turnengine.ModeBlocking)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, engine.calls)
}

func TestRunRoundCallsEverySelectedSpeaker(t *testing.T) {
	engine := &fakeEngine{msg: &domain.Message{ID: "msg1", Content: "hi", SpeakerType: domain.SpeakerAgent}}
	svc, st := newTestService(engine)
	ctx := context.Background()
	require.NoError(t, st.SaveMeeting(ctx, &domain.Meeting{
		ID: "m1", Status: domain.StatusActive,
		Participants: []domain.Agent{agentParticipant("a1"), agentParticipant("a2")},
		Config:       domain.MeetingConfig{SpeakingOrder: domain.SpeakingSequential},
	}))

	msgs, err := svc.RunRound(ctx, "m1", turnengine.ModeBlocking)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.ElementsMatch(t, []string{"a1", "a2"}, engine.calls)
}

func TestAgendaMutationRestrictedToModerator(t *testing.T) {
	svc, st := newTestService(&fakeEngine{})
	ctx := context.Background()
	require.NoError(t, st.SaveMeeting(ctx, &domain.Meeting{
		ID: "m1", Status: domain.StatusActive,
		Participants: []domain.Agent{agentParticipant("a1")},
		Moderator:    domain.Moderator{Type: domain.ModeratorAgent, ParticipantID: "a1"},
	}))

	_, err := svc.AddAgendaItem(ctx, "m1", domain.AgendaItem{Title: "budget"}, "a2")
	assert.True(t, apperr.IsKind(err, apperr.KindStateConflict))

	item, err := svc.AddAgendaItem(ctx, "m1", domain.AgendaItem{Title: "budget"}, "a1")
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)

	require.NoError(t, svc.MarkAgendaCompleted(ctx, "m1", item.ID, "a1"))
	m, _ := svc.Get(ctx, "m1")
	completed, ok := m.AgendaItemByID(item.ID)
	require.True(t, ok)
	assert.True(t, completed.Completed)

	require.NoError(t, svc.RemoveAgendaItem(ctx, "m1", item.ID, "a1"))
	m, _ = svc.Get(ctx, "m1")
	assert.Empty(t, m.Agenda)
}

func TestGenerateAndUpdateMinutes(t *testing.T) {
	minutesGen := &fakeMinutes{version: &domain.MinutesVersion{ID: "v1", Version: 1, Content: "summary"}}
	st := memstore.New()
	svc := New(st, coordinator.New(), broadcast.New(), selector.New(), &fakeEngine{}, minutesGen, &fakeMindMap{}, nil, nil)
	ctx := context.Background()
	require.NoError(t, st.SaveMeeting(ctx, &domain.Meeting{ID: "m1", Status: domain.StatusActive}))

	v, err := svc.GenerateMinutes(ctx, "m1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Version)

	manual, err := svc.UpdateMinutes(ctx, "m1", "edited by hand", "user")
	require.NoError(t, err)
	assert.Equal(t, "edited by hand", manual.Content)

	hist, err := svc.MinutesHistory(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestUpdateMindMapValidatesTreeAndBumpsVersion(t *testing.T) {
	svc, st := newTestService(&fakeEngine{})
	ctx := context.Background()
	require.NoError(t, st.SaveMeeting(ctx, &domain.Meeting{ID: "m1", Status: domain.StatusActive}))

	mm := &domain.MindMap{
		RootNode: "root",
		Nodes: map[string]*domain.MindMapNode{
			"root": {ID: "root", Content: "Q3 planning", Level: 0},
		},
	}
	require.NoError(t, svc.UpdateMindMap(ctx, "m1", mm, "user"))
	assert.Equal(t, 1, mm.Version)

	mm2 := &domain.MindMap{
		RootNode: "root",
		Nodes: map[string]*domain.MindMapNode{
			"root": {ID: "root", Content: "Q3 planning v2", Level: 0},
		},
	}
	require.NoError(t, svc.UpdateMindMap(ctx, "m1", mm2, "user"))
	assert.Equal(t, 2, mm2.Version)
}

func TestExportMarkdownIncludesMessagesAndMinutes(t *testing.T) {
	svc, st := newTestService(&fakeEngine{})
	ctx := context.Background()
	require.NoError(t, st.SaveMeeting(ctx, &domain.Meeting{
		ID: "m1", Status: domain.StatusActive, Topic: "Q3 planning",
		Participants:   []domain.Agent{agentParticipant("a1")},
		Messages:       []domain.Message{{ID: "msg1", SpeakerName: "a1", Content: "let's begin"}},
		CurrentMinutes: &domain.MinutesVersion{Content: "key points here"},
	}))

	out, err := svc.Export(ctx, "m1", "markdown")
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "# Q3 planning")
	assert.Contains(t, text, "let's begin")
	assert.Contains(t, text, "key points here")

	_, err = svc.Export(ctx, "m1", "bogus")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestExportMindMapRequiresExistingMindMap(t *testing.T) {
	svc, st := newTestService(&fakeEngine{})
	ctx := context.Background()
	require.NoError(t, st.SaveMeeting(ctx, &domain.Meeting{ID: "m1", Status: domain.StatusActive}))

	_, err := svc.ExportMindMap(ctx, "m1", "markdown")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestDeleteRemovesMeeting(t *testing.T) {
	svc, st := newTestService(&fakeEngine{})
	ctx := context.Background()
	require.NoError(t, st.SaveMeeting(ctx, &domain.Meeting{ID: "m1", Status: domain.StatusActive}))

	require.NoError(t, svc.Delete(ctx, "m1"))
	_, err := svc.Get(ctx, "m1")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
