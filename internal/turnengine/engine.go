// Package turnengine executes exactly one AI turn end to end (§4.5):
// reload meeting, build context, call the model adapter, truncate, parse
// mentions, append, persist, and publish. Grounded on
// original_source/src/services/meeting_service.py::request_agent_response
// (load -> verify active -> build context -> call adapter -> truncate ->
// append -> save), restructured around the broadcast hub's streaming events
// in place of the Python service's print-statement tracing.
package turnengine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
	"github.com/PabloGalante/meeting-engine/internal/broadcast"
	"github.com/PabloGalante/meeting-engine/internal/contextbuilder"
	"github.com/PabloGalante/meeting-engine/internal/domain"
	"github.com/PabloGalante/meeting-engine/internal/llm"
	"github.com/PabloGalante/meeting-engine/internal/mention"
	"github.com/PabloGalante/meeting-engine/internal/store"
	"github.com/PabloGalante/meeting-engine/pkg/logger"
	"github.com/PabloGalante/meeting-engine/pkg/metrics"
	"github.com/PabloGalante/meeting-engine/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = tracing.Tracer("meeting-engine/turnengine")

// Mode selects how execute_turn invokes the model adapter (§4.5).
type Mode string

const (
	ModeBlocking  Mode = "blocking"
	ModeStreaming Mode = "streaming"
)

type clientKey struct {
	provider   domain.Provider
	model      string
	credential string
}

// Engine runs execute_turn. Callers are responsible for holding the
// per-meeting lock (internal/coordinator) for the duration of the call; the
// engine itself only knows about the meeting it was handed an id for.
type Engine struct {
	store store.Store
	hub   *broadcast.Hub
	log   *logger.Logger

	retryPolicy       llm.RetryPolicy
	blockingDeadline  time.Duration
	streamingDeadline time.Duration
	newClient         func(domain.ModelConfig) (llm.Client, error)
	now               func() time.Time
	newID             func() string

	clientsMu sync.Mutex
	clients   map[clientKey]llm.Client
}

// Config tunes the retry policy and per-invocation deadlines an Engine
// applies to every adapter call (§4.2, §5). Zero values fall back to the
// package defaults.
type Config struct {
	RetryPolicy       llm.RetryPolicy
	BlockingDeadline  time.Duration
	StreamingDeadline time.Duration
}

// NewEngine constructs an Engine backed by store and hub, using §4.2/§5's
// default retry policy and deadlines.
func NewEngine(st store.Store, hub *broadcast.Hub, log *logger.Logger) *Engine {
	return NewEngineWithConfig(st, hub, log, Config{})
}

// NewEngineWithConfig constructs an Engine with a caller-supplied Config,
// the way coordinator.NewWithMaxChainDepth threads a tunable through
// explicitly rather than via package-level state.
func NewEngineWithConfig(st store.Store, hub *broadcast.Hub, log *logger.Logger, cfg Config) *Engine {
	retryPolicy := cfg.RetryPolicy
	if retryPolicy.MaxAttempts < 1 {
		retryPolicy = llm.DefaultRetryPolicy()
	}
	blockingDeadline := cfg.BlockingDeadline
	if blockingDeadline <= 0 {
		blockingDeadline = llm.DefaultBlockingDeadline
	}
	streamingDeadline := cfg.StreamingDeadline
	if streamingDeadline <= 0 {
		streamingDeadline = llm.DefaultStreamingDeadline
	}
	return &Engine{
		store:             st,
		hub:               hub,
		log:               log,
		retryPolicy:       retryPolicy,
		blockingDeadline:  blockingDeadline,
		streamingDeadline: streamingDeadline,
		newClient:         llm.NewClient,
		now:               time.Now,
		newID:             func() string { return uuid.Must(uuid.NewV7()).String() },
		clients:           make(map[clientKey]llm.Client),
	}
}

// ExecuteTurn runs one AI turn for speakerID in meetingID and returns the
// appended message plus the ordered list of mentioned participant ids that
// are AI agents, for the speaker selector (§4.5 step 12).
func (e *Engine) ExecuteTurn(ctx context.Context, meetingID, speakerID string, mode Mode) (*domain.Message, []string, error) {
	ctx, span := tracer.Start(ctx, "turnengine.ExecuteTurn",
		trace.WithAttributes(
			attribute.String("meeting_id", meetingID),
			attribute.String("speaker_id", speakerID),
			attribute.String("mode", string(mode)),
		))
	defer span.End()

	meeting, err := e.store.LoadMeeting(ctx, meetingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}
	if meeting.Status != domain.StatusActive {
		return nil, nil, apperr.StateConflictf("meeting %q is not active", meetingID)
	}
	if meeting.Config.MaxRounds != nil && meeting.CurrentRound >= *meeting.Config.MaxRounds {
		return nil, nil, apperr.StateConflict("max_rounds reached: no further turns may run")
	}

	speaker, ok := meeting.ParticipantByID(speakerID)
	if !ok {
		return nil, nil, apperr.NotFound("participant", speakerID)
	}

	systemPrompt := contextbuilder.BuildSystemPrompt(speaker, meeting)
	conversation := contextbuilder.BuildConversation(meeting, speakerID)

	client, err := e.clientFor(speaker.ModelConfig)
	if err != nil {
		e.publishTurnFailed(meetingID, speakerID, err)
		return nil, nil, err
	}

	var params domain.ModelParameters
	if speaker.ModelConfig.Parameters != nil {
		params = *speaker.ModelConfig.Parameters
	}

	callStart := time.Now()
	adapterCtx, adapterSpan := tracer.Start(ctx, "turnengine.adapter_call", trace.WithAttributes(attribute.String("provider", string(speaker.ModelConfig.Provider))))
	var result llm.Result
	switch mode {
	case ModeBlocking:
		result, err = e.runBlocking(adapterCtx, client, systemPrompt, conversation, params)
	case ModeStreaming:
		result, err = e.runStreaming(adapterCtx, meetingID, speakerID, client, systemPrompt, conversation, params)
	default:
		err = apperr.Validationf("mode", "unknown turn mode %q", mode)
	}
	if err != nil {
		adapterSpan.RecordError(err)
		adapterSpan.SetStatus(codes.Error, err.Error())
	}
	adapterSpan.End()
	if err != nil {
		e.publishTurnFailed(meetingID, speakerID, err)
		metrics.RecordTurn(string(speaker.ModelConfig.Provider), string(mode), "error", time.Since(callStart).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	if strings.TrimSpace(result.Content) == "" {
		err := apperr.StateConflict("model produced an empty response")
		e.publishTurnFailed(meetingID, speakerID, err)
		return nil, nil, err
	}

	content, _ := domain.Truncate(result.Content, meeting.Config.MaxMessageLength)

	msgID := e.newID()
	mentions := mention.Parse(content, msgID, mention.FromAgents(meeting.Participants))

	ts := e.now()
	if n := len(meeting.Messages); n > 0 && !ts.After(meeting.Messages[n-1].Timestamp) {
		ts = meeting.Messages[n-1].Timestamp.Add(time.Nanosecond)
	}

	msg := domain.Message{
		ID:               msgID,
		SpeakerID:        speaker.ID,
		SpeakerName:      speaker.Name,
		SpeakerType:      domain.SpeakerAgent,
		Content:          content,
		ReasoningContent: result.ReasoningContent,
		Timestamp:        ts,
		RoundNumber:      meeting.CurrentRound,
		Mentions:         mentions,
	}

	meeting.Messages = append(meeting.Messages, msg)
	meeting.UpdatedAt = ts
	advanced, ended := meeting.AdvanceRoundIfComplete()

	saveCtx, saveSpan := tracer.Start(ctx, "turnengine.store_save")
	saveErr := e.store.SaveMeeting(saveCtx, meeting)
	if saveErr != nil {
		saveSpan.RecordError(saveErr)
		saveSpan.SetStatus(codes.Error, saveErr.Error())
	}
	saveSpan.End()
	if saveErr != nil {
		wrapped := apperr.Wrap(apperr.KindPersistenceFailed, saveErr, "failed to persist turn")
		e.publishTurnFailed(meetingID, speakerID, wrapped)
		metrics.RecordTurn(string(speaker.ModelConfig.Provider), string(mode), "error", time.Since(callStart).Seconds())
		return nil, nil, wrapped
	}

	metrics.RecordTurn(string(speaker.ModelConfig.Provider), string(mode), "success", time.Since(callStart).Seconds())
	span.SetStatus(codes.Ok, "")
	if advanced {
		metrics.RecordRoundCompleted()
	}

	e.hub.Publish(meetingID, broadcast.Event{Kind: broadcast.EventNewMessage, MessageID: msg.ID})
	if ended {
		e.hub.Publish(meetingID, broadcast.Event{Kind: broadcast.EventStatusChange, Status: domain.StatusEnded})
	}

	mentionedAgentIDs := make([]string, 0, len(mentions))
	for _, m := range mentions {
		mentionedAgentIDs = append(mentionedAgentIDs, m.MentionedParticipantID)
	}
	return &msg, mentionedAgentIDs, nil
}

func (e *Engine) runBlocking(ctx context.Context, client llm.Client, systemPrompt string, conversation []contextbuilder.Entry, params domain.ModelParameters) (llm.Result, error) {
	var result llm.Result
	err := llm.WithRetry(ctx, e.retryPolicy, string(client.Name()), func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, e.blockingDeadline)
		defer cancel()
		r, err := client.Complete(attemptCtx, systemPrompt, conversation, params)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}

// runStreaming invokes the adapter's streaming call once (no retry: a
// partially-streamed response is not restartable, §4.2) and multiplexes
// every delta to the broadcast hub as it arrives, accumulating content and
// reasoning for the eventual Message. It drains the channel fully even after
// observing an error delta, honoring Client.Stream's contract.
func (e *Engine) runStreaming(ctx context.Context, meetingID, speakerID string, client llm.Client, systemPrompt string, conversation []contextbuilder.Entry, params domain.ModelParameters) (llm.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.streamingDeadline)
	defer cancel()

	ch, err := client.Stream(ctx, systemPrompt, conversation, params)
	if err != nil {
		return llm.Result{}, err
	}

	var content, reasoning strings.Builder
	var streamErr error
	sawTerminal := false

	for delta := range ch {
		switch delta.Kind {
		case llm.DeltaContent:
			content.WriteString(delta.Text)
			e.hub.Publish(meetingID, broadcast.Event{Kind: broadcast.EventStreamingDelta, SpeakerID: speakerID, DeltaKind: broadcast.DeltaContent, DeltaText: delta.Text})
		case llm.DeltaReasoning:
			reasoning.WriteString(delta.Text)
			e.hub.Publish(meetingID, broadcast.Event{Kind: broadcast.EventStreamingDelta, SpeakerID: speakerID, DeltaKind: broadcast.DeltaReasoning, DeltaText: delta.Text})
		case llm.DeltaComplete:
			sawTerminal = true
			e.hub.Publish(meetingID, broadcast.Event{Kind: broadcast.EventStreamingDelta, SpeakerID: speakerID, DeltaKind: broadcast.DeltaComplete})
		case llm.DeltaError:
			sawTerminal = true
			streamErr = delta.Err
			e.hub.Publish(meetingID, broadcast.Event{Kind: broadcast.EventStreamingDelta, SpeakerID: speakerID, DeltaKind: broadcast.DeltaError})
		}
	}

	if streamErr != nil {
		return llm.Result{}, streamErr
	}
	if !sawTerminal {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return llm.Result{}, apperr.New(apperr.KindNetwork, "streaming deadline exceeded")
		}
		if ctx.Err() != nil {
			return llm.Result{}, apperr.Cancelled()
		}
		return llm.Result{}, apperr.New(apperr.KindNetwork, "stream closed without a terminal delta")
	}
	return llm.Result{Content: content.String(), ReasoningContent: reasoning.String()}, nil
}

func (e *Engine) clientFor(cfg domain.ModelConfig) (llm.Client, error) {
	key := clientKey{provider: cfg.Provider, model: cfg.ModelName, credential: cfg.Credential}

	e.clientsMu.Lock()
	defer e.clientsMu.Unlock()
	if c, ok := e.clients[key]; ok {
		return c, nil
	}
	c, err := e.newClient(cfg)
	if err != nil {
		return nil, err
	}
	e.clients[key] = c
	return c, nil
}

func (e *Engine) publishTurnFailed(meetingID, speakerID string, err error) {
	classification := classify(err)
	e.hub.Publish(meetingID, broadcast.Event{
		Kind:                broadcast.EventTurnFailed,
		SpeakerID:           speakerID,
		ErrorClassification: classification,
	})
	metrics.RecordTurnFailure(classification)
	if e.log != nil {
		e.log.Sugar().Warnw("turn failed", "meeting_id", meetingID, "speaker_id", speakerID, "classification", classification, "error", err)
	}
}

func classify(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) {
		return string(e.Kind)
	}
	return "unknown"
}
