// Package memstore is an in-memory store.Store, grounded on the teacher's
// ConversationService map-plus-mutex pattern (its own comment: "would be
// replaced with a database in production"). Used by tests and by local runs
// with no durable backing configured.
package memstore

import (
	"context"
	"sync"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
	"github.com/PabloGalante/meeting-engine/internal/domain"
	"github.com/PabloGalante/meeting-engine/internal/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu       sync.RWMutex
	agents   map[string]domain.Agent
	meetings map[string]*domain.Meeting
}

// New constructs an empty in-memory Store.
func New() *Store {
	return &Store{
		agents:   make(map[string]domain.Agent),
		meetings: make(map[string]*domain.Meeting),
	}
}

func (s *Store) SaveAgent(_ context.Context, agent domain.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[agent.ID] = agent.Snapshot()
	return nil
}

func (s *Store) LoadAgent(_ context.Context, id string) (domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	if !ok {
		return domain.Agent{}, apperr.NotFound("agent", id)
	}
	return a.Snapshot(), nil
}

func (s *Store) ListAgents(_ context.Context) ([]domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, a.Snapshot())
	}
	return out, nil
}

func (s *Store) DeleteAgent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[id]; !ok {
		return apperr.NotFound("agent", id)
	}
	delete(s.agents, id)
	return nil
}

func (s *Store) SaveMeeting(_ context.Context, meeting *domain.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *meeting
	s.meetings[meeting.ID] = &cp
	return nil
}

func (s *Store) LoadMeeting(_ context.Context, id string) (*domain.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meetings[id]
	if !ok {
		return nil, apperr.NotFound("meeting", id)
	}
	cp := *m
	return &cp, nil
}

func (s *Store) ListMeetings(_ context.Context) ([]*domain.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Meeting, 0, len(s.meetings))
	for _, m := range s.meetings {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) DeleteMeeting(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meetings[id]; !ok {
		return apperr.NotFound("meeting", id)
	}
	delete(s.meetings, id)
	return nil
}

var _ store.Store = (*Store)(nil)
