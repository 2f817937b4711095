// Package store defines the entity-store contract §4.1 specifies (durable
// load/save/delete of Agents and Meetings as opaque documents) and provides
// a file-per-entity reference implementation.
package store

import (
	"context"

	"github.com/PabloGalante/meeting-engine/internal/domain"
)

// Store is the collaborator interface the core consumes for persistence.
// Implementations must let concurrent save/load of distinct ids proceed
// without interference; serializing writes to the same meeting id is the
// turn coordinator's job (§4.1, §5), not the store's.
type Store interface {
	SaveAgent(ctx context.Context, agent domain.Agent) error
	LoadAgent(ctx context.Context, id string) (domain.Agent, error)
	ListAgents(ctx context.Context) ([]domain.Agent, error)
	DeleteAgent(ctx context.Context, id string) error

	// SaveMeeting is atomic per meeting: a concurrent LoadMeeting observes
	// either the pre-save or post-save snapshot, never a torn write.
	SaveMeeting(ctx context.Context, meeting *domain.Meeting) error
	LoadMeeting(ctx context.Context, id string) (*domain.Meeting, error)
	ListMeetings(ctx context.Context) ([]*domain.Meeting, error)
	DeleteMeeting(ctx context.Context, id string) error
}
