// Package agentsvc implements agent management (§6.1: create, list, get,
// update, delete, test_connection), grounded on the teacher's
// ConversationService constructor/CRUD shape and backed by internal/store.
package agentsvc

import (
	"context"

	"github.com/google/uuid"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
	"github.com/PabloGalante/meeting-engine/internal/domain"
	"github.com/PabloGalante/meeting-engine/internal/llm"
	"github.com/PabloGalante/meeting-engine/internal/store"
	"github.com/PabloGalante/meeting-engine/pkg/logger"
)

// Service implements the agent-aggregate operations §6.1 lists.
type Service struct {
	store     store.Store
	newClient func(domain.ModelConfig) (llm.Client, error)
	newID     func() string
	log       *logger.Logger
}

// New constructs a Service backed by st.
func New(st store.Store, log *logger.Logger) *Service {
	return &Service{
		store:     st,
		newClient: llm.NewClient,
		newID:     func() string { return uuid.Must(uuid.NewV7()).String() },
		log:       log,
	}
}

// Create validates and persists a new agent. A blank ID is assigned one.
func (s *Service) Create(ctx context.Context, agent domain.Agent) (domain.Agent, error) {
	if agent.ID == "" {
		agent.ID = s.newID()
	}
	if err := agent.Validate(); err != nil {
		return domain.Agent{}, err
	}
	if err := s.store.SaveAgent(ctx, agent); err != nil {
		return domain.Agent{}, err
	}
	return agent, nil
}

// Get returns the agent with the given id.
func (s *Service) Get(ctx context.Context, id string) (domain.Agent, error) {
	return s.store.LoadAgent(ctx, id)
}

// List returns every known agent.
func (s *Service) List(ctx context.Context) ([]domain.Agent, error) {
	return s.store.ListAgents(ctx)
}

// Update validates and overwrites an existing agent. The agent must already
// exist; Update never creates one.
func (s *Service) Update(ctx context.Context, agent domain.Agent) (domain.Agent, error) {
	if _, err := s.store.LoadAgent(ctx, agent.ID); err != nil {
		return domain.Agent{}, err
	}
	if err := agent.Validate(); err != nil {
		return domain.Agent{}, err
	}
	if err := s.store.SaveAgent(ctx, agent); err != nil {
		return domain.Agent{}, err
	}
	return agent, nil
}

// Delete removes an agent, refusing with StateConflict while the agent is a
// participant in any meeting that has not ended (Open Question resolution:
// no soft-delete, refuse only while actually referenced).
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.store.LoadAgent(ctx, id); err != nil {
		return err
	}

	meetings, err := s.store.ListMeetings(ctx)
	if err != nil {
		return err
	}
	for _, m := range meetings {
		if m.Status == domain.StatusEnded {
			continue
		}
		if _, ok := m.ParticipantByID(id); ok {
			return apperr.StateConflictf("agent %q is a participant in meeting %q, which has not ended", id, m.ID)
		}
	}

	return s.store.DeleteAgent(ctx, id)
}

// TestConnection probes the agent's configured provider with a minimal
// request, surfacing AuthFailed/Network/ProviderError as classified by the
// adapter.
func (s *Service) TestConnection(ctx context.Context, id string) error {
	agent, err := s.store.LoadAgent(ctx, id)
	if err != nil {
		return err
	}
	client, err := s.newClient(agent.ModelConfig)
	if err != nil {
		return err
	}
	return client.TestConnection(ctx)
}
