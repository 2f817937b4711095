// Package mindmap implements the mind-map generator (§4.13): prompts a
// model for a tree of discussion points, resolves them against the
// meeting's agenda, validates the resulting tree, and falls back to a
// minimal skeleton when the model's output cannot be trusted.
package mindmap

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
	"github.com/PabloGalante/meeting-engine/internal/contextbuilder"
	"github.com/PabloGalante/meeting-engine/internal/domain"
	"github.com/PabloGalante/meeting-engine/internal/llm"
)

// maxLevel bounds recursion into sub_points; level 0 is the root, level 1
// agenda items, so a discussion point may reach level 3 at the deepest
// (§4.13 step 4).
const maxLevel = 3

// Generator produces a MindMap for a meeting by prompting one of its
// participants' underlying model.
type Generator struct {
	newClient   func(domain.ModelConfig) (llm.Client, error)
	retryPolicy llm.RetryPolicy
	deadline    time.Duration
	now         func() time.Time
	newID       func() string
}

// New constructs a Generator using §4.2/§5's default retry policy and
// adapter-invocation deadline.
func New() *Generator {
	return NewWithRetryPolicy(llm.DefaultRetryPolicy())
}

// NewWithRetryPolicy constructs a Generator with a caller-supplied retry
// policy, the way coordinator.NewWithMaxChainDepth threads a tunable
// through explicitly.
func NewWithRetryPolicy(policy llm.RetryPolicy) *Generator {
	return &Generator{
		newClient:   llm.NewClient,
		retryPolicy: policy,
		deadline:    llm.DefaultBlockingDeadline,
		now:         time.Now,
		newID:       func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

const generationPrompt = "Analyze the discussion above and return a single JSON object, no surrounding prose, of the shape " +
	`{"discussion_points": [{"content": string, "parent_agenda_title": string, "message_ids": [string], "sub_points": [...same shape...]}]}. ` +
	"parent_agenda_title should exactly match one of the agenda item titles when the point relates to one, or be empty otherwise."

type discussionPoint struct {
	Content           string            `json:"content"`
	ParentAgendaTitle string            `json:"parent_agenda_title"`
	MessageIDs        []string          `json:"message_ids"`
	SubPoints         []discussionPoint `json:"sub_points"`
}

type generationPayload struct {
	DiscussionPoints []discussionPoint `json:"discussion_points"`
}

// Generate builds and stores a new MindMap on meeting, superseding any
// existing one and bumping Version. Returns the new document; the caller
// persists meeting.
func (g *Generator) Generate(ctx context.Context, meeting *domain.Meeting, generatorID string) (*domain.MindMap, error) {
	generator, _, err := resolveGenerator(meeting, generatorID)
	if err != nil {
		return nil, err
	}

	client, err := g.newClient(generator.ModelConfig)
	if err != nil {
		return nil, err
	}

	conversation := contextbuilder.BuildMessageHistory(meeting)
	conversation = append(conversation, contextbuilder.Entry{Role: contextbuilder.RoleUser, Content: generationPrompt})

	var params domain.ModelParameters
	if generator.ModelConfig.Parameters != nil {
		params = *generator.ModelConfig.Parameters
	}

	var result llm.Result
	err = llm.WithRetry(ctx, g.retryPolicy, string(generator.ModelConfig.Provider), func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, g.deadline)
		defer cancel()
		r, err := client.Complete(attemptCtx, "Extract the discussion structure of a meeting transcript precisely.", conversation, params)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	validMessageIDs := make(map[string]struct{}, len(meeting.Messages))
	for _, msg := range meeting.Messages {
		validMessageIDs[msg.ID] = struct{}{}
	}

	mm := g.buildSkeleton(meeting)
	if payload, ok := parsePayload(result.Content); ok {
		g.attachDiscussionPoints(mm, payload.DiscussionPoints, validMessageIDs)
		if err := mm.ValidateTree(validMessageIDs); err != nil {
			mm = g.buildSkeleton(meeting)
		}
	}

	if meeting.MindMap != nil {
		mm.Version = meeting.MindMap.Version + 1
	} else {
		mm.Version = 1
	}
	meeting.MindMap = mm
	return mm, nil
}

// buildSkeleton constructs the root-plus-agenda-nodes tree that both the
// happy path starts from and the malformed-output fallback returns as-is
// (§4.13 step 5).
func (g *Generator) buildSkeleton(meeting *domain.Meeting) *domain.MindMap {
	rootID := g.newID()
	root := &domain.MindMapNode{ID: rootID, Content: meeting.Topic, Level: 0}
	nodes := map[string]*domain.MindMapNode{rootID: root}

	for _, item := range meeting.Agenda {
		id := g.newID()
		nodes[id] = &domain.MindMapNode{ID: id, Content: item.Title, Level: 1, ParentID: rootID}
		root.ChildrenIDs = append(root.ChildrenIDs, id)
	}

	return &domain.MindMap{
		ID:        g.newID(),
		MeetingID: meeting.ID,
		RootNode:  rootID,
		Nodes:     nodes,
		CreatedAt: g.now(),
	}
}

func (g *Generator) attachDiscussionPoints(mm *domain.MindMap, points []discussionPoint, validMessageIDs map[string]struct{}) {
	agendaByTitle := make(map[string]string, len(mm.Nodes))
	for id, node := range mm.Nodes {
		if node.Level == 1 {
			agendaByTitle[node.Content] = id
		}
	}
	for _, p := range points {
		g.attachOne(mm, p, agendaByTitle, mm.RootNode, 1, validMessageIDs)
	}
}

func (g *Generator) attachOne(mm *domain.MindMap, p discussionPoint, agendaByTitle map[string]string, defaultParent string, level int, validMessageIDs map[string]struct{}) {
	if level > maxLevel {
		return
	}
	parentID := defaultParent
	if p.ParentAgendaTitle != "" {
		if id, ok := agendaByTitle[p.ParentAgendaTitle]; ok {
			parentID = id
		}
	}
	parent, ok := mm.Nodes[parentID]
	if !ok {
		return
	}

	// References are attached as returned; an id naming no message in the
	// meeting makes Generate's ValidateTree check fail and the skeleton win.
	refs := append(make([]string, 0, len(p.MessageIDs)), p.MessageIDs...)

	id := g.newID()
	node := &domain.MindMapNode{
		ID:                id,
		Content:           p.Content,
		Level:             parent.Level + 1,
		ParentID:          parentID,
		MessageReferences: refs,
	}
	mm.Nodes[id] = node
	parent.ChildrenIDs = append(parent.ChildrenIDs, id)

	for _, sp := range p.SubPoints {
		g.attachOne(mm, sp, agendaByTitle, id, node.Level+1, validMessageIDs)
	}
}

// parsePayload tries a strict unmarshal of the whole reply first; on
// failure it falls back to a lenient pass that extracts the outermost
// `{...}` substring and retries, per the resolution recorded for mind-map
// parsing. Total failure reports ok=false, and the caller falls back to the
// minimal root+agenda tree.
func parsePayload(raw string) (generationPayload, bool) {
	trimmed := strings.TrimSpace(raw)

	var payload generationPayload
	if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
		return payload, true
	}

	jsonStart := strings.IndexByte(trimmed, '{')
	jsonEnd := strings.LastIndexByte(trimmed, '}')
	if jsonStart < 0 || jsonEnd <= jsonStart {
		return generationPayload{}, false
	}
	if err := json.Unmarshal([]byte(trimmed[jsonStart:jsonEnd+1]), &payload); err != nil {
		return generationPayload{}, false
	}
	return payload, true
}

func resolveGenerator(meeting *domain.Meeting, generatorID string) (domain.Agent, string, error) {
	if generatorID != "" {
		agent, ok := meeting.ParticipantByID(generatorID)
		if !ok {
			return domain.Agent{}, "", apperr.NotFound("participant", generatorID)
		}
		return agent, generatorID, nil
	}
	if meeting.Moderator.Type == domain.ModeratorAgent {
		if agent, ok := meeting.ParticipantByID(meeting.Moderator.ParticipantID); ok {
			return agent, agent.ID, nil
		}
	}
	if len(meeting.Participants) > 0 {
		agent := meeting.Participants[0]
		return agent, agent.ID, nil
	}
	return domain.Agent{}, "", apperr.StateConflict("meeting has no participant available to generate a mind map")
}
