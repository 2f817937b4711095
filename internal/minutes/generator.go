// Package minutes implements the minutes generator (§4.12): asks a model to
// summarize a meeting's transcript into a structured document, appends it
// to the meeting's minutes_history, and sets it as current_minutes.
package minutes

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

// Generator produces minutes for a meeting by prompting one of its
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

const generationPrompt = "You are producing formal meeting minutes from the transcript above. " +
	"Reply with a single JSON object, no surrounding prose, of the shape " +
	`{"summary": string, "key_decisions": [string], "action_items": [string]}. ` +
	"summary should be a few sentences covering what was discussed and decided."

type minutesPayload struct {
	Summary      string   `json:"summary"`
	KeyDecisions []string `json:"key_decisions"`
	ActionItems  []string `json:"action_items"`
}

// Generate builds and appends a new MinutesVersion to meeting. generatorID,
// if non-empty, must name an agent participant; otherwise the meeting's
// agent moderator is used, falling back to the first participant. Returns
// the new version; the caller is responsible for persisting meeting.
func (g *Generator) Generate(ctx context.Context, meeting *domain.Meeting, generatorID string) (*domain.MinutesVersion, error) {
	generator, createdBy, err := resolveGenerator(meeting, generatorID)
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
		r, err := client.Complete(attemptCtx, "Summarize meeting transcripts precisely and neutrally.", conversation, params)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	content, summary, keyDecisions, actionItems := parsePayload(result.Content)

	version := domain.NextMinutesVersion(meeting, content, summary, keyDecisions, actionItems, createdBy, g.now(), g.newID())
	meeting.MinutesHistory = append(meeting.MinutesHistory, *version)
	cp := *version
	meeting.CurrentMinutes = &cp
	return version, nil
}

// parsePayload leniently parses the model's JSON reply; on any failure it
// falls back to treating the entire raw reply as both content and summary,
// per §4.12's fallback rule for malformed model output.
func parsePayload(raw string) (content, summary string, keyDecisions, actionItems []string) {
	trimmed := strings.TrimSpace(raw)
	jsonStart := strings.IndexByte(trimmed, '{')
	jsonEnd := strings.LastIndexByte(trimmed, '}')
	if jsonStart >= 0 && jsonEnd > jsonStart {
		var payload minutesPayload
		if err := json.Unmarshal([]byte(trimmed[jsonStart:jsonEnd+1]), &payload); err == nil && payload.Summary != "" {
			return raw, payload.Summary, payload.KeyDecisions, payload.ActionItems
		}
	}
	return raw, raw, nil, nil
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
	return domain.Agent{}, "", apperr.StateConflict("meeting has no participant available to generate minutes")
}
