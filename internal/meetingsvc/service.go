// Package meetingsvc implements the meeting aggregate's lifecycle state
// machine, agenda mutation, minutes/mind-map orchestration, and export
// (§4.9, §6.1, §6.4). Grounded on meeting_service.py's state-transition
// methods (start_meeting/pause_meeting/end_meeting) and
// models/meeting.py::export_to_markdown/export_to_json, extended with the
// agenda/minutes/mind-map operations services/interfaces.py's
// IMeetingService names.
package meetingsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
	"github.com/PabloGalante/meeting-engine/internal/broadcast"
	"github.com/PabloGalante/meeting-engine/internal/coordinator"
	"github.com/PabloGalante/meeting-engine/internal/domain"
	"github.com/PabloGalante/meeting-engine/internal/mention"
	"github.com/PabloGalante/meeting-engine/internal/mindmap"
	"github.com/PabloGalante/meeting-engine/internal/minutes"
	"github.com/PabloGalante/meeting-engine/internal/selector"
	"github.com/PabloGalante/meeting-engine/internal/store"
	"github.com/PabloGalante/meeting-engine/internal/turnengine"
	"github.com/PabloGalante/meeting-engine/pkg/logger"
	"github.com/PabloGalante/meeting-engine/pkg/metrics"
)

// AuditSink optionally mirrors meeting lifecycle events to a durable log.
// internal/audit's Mirror satisfies this structurally; meetingsvc never
// imports internal/audit so the dependency stays one-directional.
type AuditSink interface {
	Record(ctx context.Context, meetingID, event string, detail map[string]string)
}

// MinutesGenerator is the subset of *minutes.Generator meetingsvc depends
// on, named here so tests can substitute a fake.
type MinutesGenerator interface {
	Generate(ctx context.Context, meeting *domain.Meeting, generatorID string) (*domain.MinutesVersion, error)
}

// MindMapGenerator is the subset of *mindmap.Generator meetingsvc depends
// on.
type MindMapGenerator interface {
	Generate(ctx context.Context, meeting *domain.Meeting, generatorID string) (*domain.MindMap, error)
}

// TurnRunner is the subset of *turnengine.Engine meetingsvc depends on.
type TurnRunner interface {
	ExecuteTurn(ctx context.Context, meetingID, speakerID string, mode turnengine.Mode) (*domain.Message, []string, error)
}

// Service implements every meeting-aggregate operation §6.1 lists.
type Service struct {
	store    store.Store
	coord    *coordinator.Coordinator
	hub      *broadcast.Hub
	selector *selector.Selector
	engine   TurnRunner
	minutes  MinutesGenerator
	mindmap  MindMapGenerator
	audit    AuditSink
	log      *logger.Logger

	now   func() time.Time
	newID func() string
}

// New constructs a Service. audit may be nil.
func New(st store.Store, coord *coordinator.Coordinator, hub *broadcast.Hub, sel *selector.Selector, engine TurnRunner, minutesGen MinutesGenerator, mindmapGen MindMapGenerator, audit AuditSink, log *logger.Logger) *Service {
	return &Service{
		store: st, coord: coord, hub: hub, selector: sel,
		engine: engine, minutes: minutesGen, mindmap: mindmapGen, audit: audit, log: log,
		now:   time.Now,
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

func (s *Service) recordAudit(ctx context.Context, meetingID, event string, detail map[string]string) {
	if s.audit != nil {
		s.audit.Record(ctx, meetingID, event, detail)
	}
}

// Create validates participants, moderator, and agenda, then persists a new
// active meeting. Each participant is captured as an immutable Snapshot so
// later edits to the live Agent do not retroactively rewrite history.
func (s *Service) Create(ctx context.Context, topic string, participantIDs []string, moderator domain.Moderator, agenda []domain.AgendaItem, config domain.MeetingConfig) (*domain.Meeting, error) {
	if err := domain.ValidateTopic(topic); err != nil {
		return nil, err
	}
	if len(participantIDs) == 0 {
		return nil, apperr.Validation("participant_ids", "a meeting needs at least one participant")
	}

	participants := make([]domain.Agent, 0, len(participantIDs))
	for _, id := range participantIDs {
		agent, err := s.store.LoadAgent(ctx, id)
		if err != nil {
			return nil, err
		}
		participants = append(participants, agent.Snapshot())
	}

	if moderator.Type == domain.ModeratorAgent {
		found := false
		for _, id := range participantIDs {
			if id == moderator.ParticipantID {
				found = true
				break
			}
		}
		if !found {
			return nil, apperr.Validation("moderator.participant_id", "moderator must be one of the meeting's participants")
		}
	} else {
		moderator.ParticipantID = ""
	}

	if config.SpeakingOrder == "" {
		config.SpeakingOrder = domain.SpeakingSequential
	}

	now := s.now()
	items := make([]domain.AgendaItem, len(agenda))
	for i, item := range agenda {
		if item.ID == "" {
			item.ID = s.newID()
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		if err := item.Validate(); err != nil {
			return nil, err
		}
		items[i] = item
	}

	meeting := &domain.Meeting{
		ID:           s.newID(),
		Topic:        topic,
		Participants: participants,
		Moderator:    moderator,
		Status:       domain.StatusActive,
		Config:       config,
		Agenda:       items,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.SaveMeeting(ctx, meeting); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, meeting.ID, "created", map[string]string{"topic": topic})
	return meeting, nil
}

// Get returns the meeting with the given id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Meeting, error) {
	return s.store.LoadMeeting(ctx, id)
}

// List returns every known meeting.
func (s *Service) List(ctx context.Context) ([]*domain.Meeting, error) {
	return s.store.ListMeetings(ctx)
}

// Delete removes a meeting and drops its coordinator and broadcast state.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.store.LoadMeeting(ctx, id); err != nil {
		return err
	}
	s.coord.Cancel(id)
	if err := s.store.DeleteMeeting(ctx, id); err != nil {
		return err
	}
	s.coord.Forget(id)
	s.hub.Close(id)
	s.recordAudit(ctx, id, "deleted", nil)
	return nil
}

// Start applies §4.9's `start` transition: paused -> active, active is a
// no-op, ended is rejected.
func (s *Service) Start(ctx context.Context, id string) error {
	lockedCtx, release := s.coord.Acquire(ctx, id)
	defer release()

	meeting, err := s.store.LoadMeeting(lockedCtx, id)
	if err != nil {
		return err
	}
	switch meeting.Status {
	case domain.StatusActive:
		return nil
	case domain.StatusEnded:
		return apperr.StateConflict("cannot start an ended meeting")
	}
	meeting.Status = domain.StatusActive
	meeting.UpdatedAt = s.now()
	if err := s.store.SaveMeeting(lockedCtx, meeting); err != nil {
		return err
	}
	s.hub.Publish(id, broadcast.Event{Kind: broadcast.EventStatusChange, Status: domain.StatusActive})
	s.recordAudit(ctx, id, "started", nil)
	return nil
}

// Pause applies §4.9's `pause` transition: active -> paused, paused is a
// no-op, ended is rejected.
func (s *Service) Pause(ctx context.Context, id string) error {
	lockedCtx, release := s.coord.Acquire(ctx, id)
	defer release()

	meeting, err := s.store.LoadMeeting(lockedCtx, id)
	if err != nil {
		return err
	}
	switch meeting.Status {
	case domain.StatusPaused:
		return nil
	case domain.StatusEnded:
		return apperr.StateConflict("cannot pause an ended meeting")
	}
	meeting.Status = domain.StatusPaused
	meeting.UpdatedAt = s.now()
	if err := s.store.SaveMeeting(lockedCtx, meeting); err != nil {
		return err
	}
	s.hub.Publish(id, broadcast.Event{Kind: broadcast.EventStatusChange, Status: domain.StatusPaused})
	s.recordAudit(ctx, id, "paused", nil)
	return nil
}

// End applies §4.9's `end` transition: active or paused -> ended, ended is a
// no-op.
func (s *Service) End(ctx context.Context, id string) error {
	lockedCtx, release := s.coord.Acquire(ctx, id)
	defer release()

	meeting, err := s.store.LoadMeeting(lockedCtx, id)
	if err != nil {
		return err
	}
	if meeting.Status == domain.StatusEnded {
		return nil
	}
	meeting.Status = domain.StatusEnded
	meeting.UpdatedAt = s.now()
	if err := s.store.SaveMeeting(lockedCtx, meeting); err != nil {
		return err
	}
	s.hub.Publish(id, broadcast.Event{Kind: broadcast.EventStatusChange, Status: domain.StatusEnded})
	s.recordAudit(ctx, id, "ended", nil)
	return nil
}

// Cancel aborts whatever is currently running for meeting id: a user-issued
// stop signal (§4.11).
func (s *Service) Cancel(id string) {
	s.coord.Cancel(id)
}

// AddUserMessage appends a user message to an active meeting. User messages
// never advance round bookkeeping (§4.6) but are interleaved freely.
func (s *Service) AddUserMessage(ctx context.Context, id, content string) (*domain.Message, error) {
	lockedCtx, release := s.coord.Acquire(ctx, id)
	defer release()

	meeting, err := s.store.LoadMeeting(lockedCtx, id)
	if err != nil {
		return nil, err
	}
	if meeting.Status != domain.StatusActive {
		return nil, apperr.StateConflictf("meeting %q is not active", id)
	}
	if err := domain.ValidateContent(content); err != nil {
		return nil, err
	}

	msgID := s.newID()
	ts := s.now()
	if n := len(meeting.Messages); n > 0 && !ts.After(meeting.Messages[n-1].Timestamp) {
		ts = meeting.Messages[n-1].Timestamp.Add(time.Nanosecond)
	}

	msg := domain.Message{
		ID: msgID, SpeakerID: "user", SpeakerName: "user", SpeakerType: domain.SpeakerUser,
		Content: content, Timestamp: ts, RoundNumber: meeting.CurrentRound,
		Mentions: mention.Parse(content, msgID, mention.FromAgents(meeting.Participants)),
	}
	meeting.Messages = append(meeting.Messages, msg)
	meeting.UpdatedAt = ts

	if err := s.store.SaveMeeting(lockedCtx, meeting); err != nil {
		return nil, apperr.Wrap(apperr.KindPersistenceFailed, err, "failed to persist user message")
	}
	s.hub.Publish(id, broadcast.Event{Kind: broadcast.EventNewMessage, MessageID: msg.ID})
	return &msg, nil
}

// RequestTurn runs one AI turn and, when streaming produced at least one AI
// mention, chains follow-up turns per §4.8 under the same lock acquisition.
func (s *Service) RequestTurn(ctx context.Context, id, agentID string, mode turnengine.Mode) (*domain.Message, error) {
	lockedCtx, release := s.coord.Acquire(ctx, id)
	defer release()

	msg, mentioned, err := s.engine.ExecuteTurn(lockedCtx, id, agentID, mode)
	if err != nil {
		return nil, err
	}
	if mode == turnengine.ModeStreaming && len(mentioned) > 0 {
		s.runChain(lockedCtx, id, mentioned)
	}
	return msg, nil
}

// RunRound runs the speaker selector's full rotation for one round (§4.7),
// chaining any streaming mentions after each hop.
func (s *Service) RunRound(ctx context.Context, id string, mode turnengine.Mode) ([]*domain.Message, error) {
	lockedCtx, release := s.coord.Acquire(ctx, id)
	defer release()

	meeting, err := s.store.LoadMeeting(lockedCtx, id)
	if err != nil {
		return nil, err
	}
	if meeting.Status != domain.StatusActive {
		return nil, apperr.StateConflictf("meeting %q is not active", id)
	}

	var reference *domain.Message
	if n := len(meeting.Messages); n > 0 {
		reference = &meeting.Messages[n-1]
	}
	speakers := s.selector.Next(meeting, reference, meeting.Config.SpeakingOrder, true)

	results := make([]*domain.Message, 0, len(speakers))
	for _, agent := range speakers {
		if lockedCtx.Err() != nil {
			break
		}
		msg, mentioned, err := s.engine.ExecuteTurn(lockedCtx, id, agent.ID, mode)
		if err != nil {
			if m, lerr := s.store.LoadMeeting(lockedCtx, id); lerr == nil && m.Status != domain.StatusActive {
				break
			}
			continue
		}
		results = append(results, msg)
		if mode == turnengine.ModeStreaming && len(mentioned) > 0 {
			s.runChain(lockedCtx, id, mentioned)
		}
	}
	return results, nil
}

// runChain drives §4.8's auto-response chain breadth-first: every AI
// mentioned by a completed turn gets its own hop, each hop consuming one
// unit of the shared depth budget so wide fan-out is bounded the same as a
// long linear chain. It aborts silently — the triggering turn already
// succeeded — on cancellation, a non-active meeting, max_rounds, or the
// depth limit.
func (s *Service) runChain(ctx context.Context, meetingID string, mentioned []string) {
	queue := append([]string(nil), mentioned...)
	for len(queue) > 0 {
		if ctx.Err() != nil {
			return
		}
		agentID := queue[0]
		queue = queue[1:]

		meeting, err := s.store.LoadMeeting(ctx, meetingID)
		if err != nil || meeting.Status != domain.StatusActive {
			return
		}
		if meeting.Config.MaxRounds != nil && meeting.CurrentRound >= *meeting.Config.MaxRounds {
			return
		}
		if err := s.coord.IncChainDepth(meetingID); err != nil {
			if s.log != nil {
				s.log.WithMeeting(meetingID, agentID, meeting.CurrentRound, s.coord.ChainDepth(meetingID)).
					Sugar().Infow("auto-response chain stopped", "reason", err)
			}
			return
		}

		_, nextMentioned, err := s.engine.ExecuteTurn(ctx, meetingID, agentID, turnengine.ModeStreaming)
		if s.log != nil {
			hopLog := s.log.WithMeeting(meetingID, agentID, meeting.CurrentRound, s.coord.ChainDepth(meetingID))
			if err != nil {
				hopLog.Sugar().Warnw("auto-response chain hop failed", "error", err)
			} else {
				hopLog.Sugar().Infow("auto-response chain hop completed", "mentioned", nextMentioned)
			}
		}
		if err != nil {
			continue
		}
		queue = append(queue, nextMentioned...)
	}
}

func isModeratorActor(meeting *domain.Meeting, requesterID string) bool {
	if requesterID == "" || requesterID == "user" {
		return meeting.Moderator.Type == domain.ModeratorUser
	}
	return meeting.IsModerator(requesterID)
}

// AddAgendaItem appends an agenda item. Restricted to the moderator
// (SUPPLEMENTED FEATURES: original_source's IMeetingService takes a
// requester_id/requester_type pair for exactly this check).
func (s *Service) AddAgendaItem(ctx context.Context, id string, item domain.AgendaItem, requesterID string) (*domain.AgendaItem, error) {
	lockedCtx, release := s.coord.Acquire(ctx, id)
	defer release()

	meeting, err := s.store.LoadMeeting(lockedCtx, id)
	if err != nil {
		return nil, err
	}
	if meeting.Status != domain.StatusActive {
		return nil, apperr.StateConflictf("meeting %q is not active", id)
	}
	if !isModeratorActor(meeting, requesterID) {
		return nil, apperr.StateConflict("only the moderator may modify the agenda")
	}

	if item.ID == "" {
		item.ID = s.newID()
	}
	item.CreatedAt = s.now()
	if err := item.Validate(); err != nil {
		return nil, err
	}

	meeting.Agenda = append(meeting.Agenda, item)
	meeting.UpdatedAt = item.CreatedAt
	if err := s.store.SaveMeeting(lockedCtx, meeting); err != nil {
		return nil, err
	}
	return &item, nil
}

// MarkAgendaCompleted marks an agenda item done. Restricted to the
// moderator.
func (s *Service) MarkAgendaCompleted(ctx context.Context, id, itemID, requesterID string) error {
	lockedCtx, release := s.coord.Acquire(ctx, id)
	defer release()

	meeting, err := s.store.LoadMeeting(lockedCtx, id)
	if err != nil {
		return err
	}
	if meeting.Status != domain.StatusActive {
		return apperr.StateConflictf("meeting %q is not active", id)
	}
	if !isModeratorActor(meeting, requesterID) {
		return apperr.StateConflict("only the moderator may modify the agenda")
	}
	item, ok := meeting.AgendaItemByID(itemID)
	if !ok {
		return apperr.NotFound("agenda_item", itemID)
	}
	item.Completed = true
	meeting.UpdatedAt = s.now()
	return s.store.SaveMeeting(lockedCtx, meeting)
}

// RemoveAgendaItem deletes an agenda item. Restricted to the moderator.
func (s *Service) RemoveAgendaItem(ctx context.Context, id, itemID, requesterID string) error {
	lockedCtx, release := s.coord.Acquire(ctx, id)
	defer release()

	meeting, err := s.store.LoadMeeting(lockedCtx, id)
	if err != nil {
		return err
	}
	if meeting.Status != domain.StatusActive {
		return apperr.StateConflictf("meeting %q is not active", id)
	}
	if !isModeratorActor(meeting, requesterID) {
		return apperr.StateConflict("only the moderator may modify the agenda")
	}

	idx := -1
	for i, item := range meeting.Agenda {
		if item.ID == itemID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return apperr.NotFound("agenda_item", itemID)
	}
	meeting.Agenda = append(meeting.Agenda[:idx], meeting.Agenda[idx+1:]...)
	meeting.UpdatedAt = s.now()
	return s.store.SaveMeeting(lockedCtx, meeting)
}

// GenerateMinutes runs the AI minutes generator and persists the result
// (§4.12). Allowed in any meeting state; on an ended meeting it freezes
// historical context.
func (s *Service) GenerateMinutes(ctx context.Context, id, generatorID string) (*domain.MinutesVersion, error) {
	lockedCtx, release := s.coord.Acquire(ctx, id)
	defer release()

	meeting, err := s.store.LoadMeeting(lockedCtx, id)
	if err != nil {
		return nil, err
	}
	version, err := s.minutes.Generate(lockedCtx, meeting, generatorID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveMeeting(lockedCtx, meeting); err != nil {
		return nil, err
	}
	s.hub.Publish(id, broadcast.Event{Kind: broadcast.EventMinutesGenerated, MinutesVersion: version.Version})
	metrics.RecordMinutesGenerated("ai")
	return version, nil
}

// UpdateMinutes creates a new minutes version from editor-supplied content
// directly, without invoking a model (SUPPLEMENTED FEATURES).
func (s *Service) UpdateMinutes(ctx context.Context, id, content, editorID string) (*domain.MinutesVersion, error) {
	lockedCtx, release := s.coord.Acquire(ctx, id)
	defer release()

	meeting, err := s.store.LoadMeeting(lockedCtx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("content", "minutes content cannot be empty")
	}

	version := domain.NextMinutesVersion(meeting, content, content, nil, nil, editorID, s.now(), s.newID())
	meeting.MinutesHistory = append(meeting.MinutesHistory, *version)
	cp := *version
	meeting.CurrentMinutes = &cp

	if err := s.store.SaveMeeting(lockedCtx, meeting); err != nil {
		return nil, err
	}
	s.hub.Publish(id, broadcast.Event{Kind: broadcast.EventMinutesGenerated, MinutesVersion: version.Version})
	metrics.RecordMinutesGenerated("manual")
	return version, nil
}

// MinutesHistory is a read-only operation; it does not take the meeting
// lock.
func (s *Service) MinutesHistory(ctx context.Context, id string) ([]domain.MinutesVersion, error) {
	meeting, err := s.store.LoadMeeting(ctx, id)
	if err != nil {
		return nil, err
	}
	return meeting.MinutesHistory, nil
}

// GenerateMindMap runs the AI mind-map generator and persists the result
// (§4.13).
func (s *Service) GenerateMindMap(ctx context.Context, id, generatorID string) (*domain.MindMap, error) {
	lockedCtx, release := s.coord.Acquire(ctx, id)
	defer release()

	meeting, err := s.store.LoadMeeting(lockedCtx, id)
	if err != nil {
		return nil, err
	}
	mm, err := s.mindmap.Generate(lockedCtx, meeting, generatorID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveMeeting(lockedCtx, meeting); err != nil {
		return nil, err
	}
	s.hub.Publish(id, broadcast.Event{Kind: broadcast.EventMindMapGenerated, MindMapVersion: mm.Version})
	metrics.RecordMindMapGenerated("ai")
	return mm, nil
}

// UpdateMindMap replaces the meeting's mind map directly with a
// caller-supplied document, validating tree invariants first
// (SUPPLEMENTED FEATURES).
func (s *Service) UpdateMindMap(ctx context.Context, id string, mm *domain.MindMap, editorID string) error {
	lockedCtx, release := s.coord.Acquire(ctx, id)
	defer release()

	meeting, err := s.store.LoadMeeting(lockedCtx, id)
	if err != nil {
		return err
	}

	validMessageIDs := make(map[string]struct{}, len(meeting.Messages))
	for _, msg := range meeting.Messages {
		validMessageIDs[msg.ID] = struct{}{}
	}
	if err := mm.ValidateTree(validMessageIDs); err != nil {
		return err
	}

	if mm.ID == "" {
		mm.ID = s.newID()
	}
	mm.MeetingID = id
	mm.CreatedBy = editorID
	mm.CreatedAt = s.now()
	if meeting.MindMap != nil {
		mm.Version = meeting.MindMap.Version + 1
	} else {
		mm.Version = 1
	}
	meeting.MindMap = mm

	if err := s.store.SaveMeeting(lockedCtx, meeting); err != nil {
		return err
	}
	s.hub.Publish(id, broadcast.Event{Kind: broadcast.EventMindMapGenerated, MindMapVersion: mm.Version})
	metrics.RecordMindMapGenerated("manual")
	return nil
}

// SubscribeEvents registers a new broadcast-hub subscriber for id.
func (s *Service) SubscribeEvents(id string) (<-chan broadcast.Event, broadcast.Unsubscribe) {
	return s.hub.Subscribe(id)
}

// Export renders a meeting document as markdown or json (§6.4). Read-only;
// does not take the meeting lock.
func (s *Service) Export(ctx context.Context, id, format string) ([]byte, error) {
	meeting, err := s.store.LoadMeeting(ctx, id)
	if err != nil {
		return nil, err
	}
	switch format {
	case "markdown":
		return []byte(exportMeetingMarkdown(meeting)), nil
	case "json":
		return json.MarshalIndent(meeting, "", "  ")
	default:
		return nil, apperr.Validationf("format", "unsupported export format %q", format)
	}
}

// ExportMindMap renders the meeting's current mind map in one of four
// formats (§6.4). Read-only; does not take the meeting lock.
func (s *Service) ExportMindMap(ctx context.Context, id, format string) ([]byte, error) {
	meeting, err := s.store.LoadMeeting(ctx, id)
	if err != nil {
		return nil, err
	}
	if meeting.MindMap == nil {
		return nil, apperr.NotFound("mind_map", id)
	}
	switch format {
	case "markdown":
		return []byte(mindmap.ExportMarkdown(meeting.MindMap)), nil
	case "json":
		return mindmap.ExportJSON(meeting.MindMap)
	case "png":
		return mindmap.ExportPNG(meeting.MindMap)
	case "svg":
		return mindmap.ExportSVG(meeting.MindMap)
	default:
		return nil, apperr.Validationf("format", "unsupported mind map export format %q", format)
	}
}

// exportMeetingMarkdown implements §6.4's meeting->markdown mapping: H1 with
// topic; a participants bullet list; per message a
// "## <round> · <speaker_name> · <timestamp>" subheading followed by
// content; an appendix with the latest minutes if present.
func exportMeetingMarkdown(meeting *domain.Meeting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", meeting.Topic)

	b.WriteString("## Participants\n\n")
	for _, p := range meeting.Participants {
		fmt.Fprintf(&b, "- %s (%s)\n", p.Name, p.Role.Name)
	}
	b.WriteString("\n")

	for _, msg := range meeting.Messages {
		fmt.Fprintf(&b, "## %d · %s · %s\n\n%s\n\n", msg.RoundNumber, msg.SpeakerName, msg.Timestamp.Format(time.RFC3339), msg.Content)
	}

	if meeting.CurrentMinutes != nil {
		b.WriteString("## Minutes\n\n")
		b.WriteString(meeting.CurrentMinutes.Content)
		b.WriteString("\n")
	}

	return b.String()
}
