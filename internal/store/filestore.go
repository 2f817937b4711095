package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
	"github.com/PabloGalante/meeting-engine/internal/domain"
)

// FileStore persists each Agent and Meeting as its own JSON file, written by
// writing to a temporary file in the same directory and renaming over the
// final path — the reference technique design note §9 prescribes for the
// entity store ("a file per entity with atomic rename on save"), since
// os.Rename within one filesystem is atomic and needs no library.
type FileStore struct {
	agentsDir   string
	meetingsDir string

	// dirMu serializes directory listings against concurrent writes within
	// this process; cross-process safety is not required by §4.1.
	dirMu sync.Mutex
}

// NewFileStore creates (if needed) an agents/ and meetings/ subdirectory
// under baseDir and returns a Store backed by them.
func NewFileStore(baseDir string) (*FileStore, error) {
	agentsDir := filepath.Join(baseDir, "agents")
	meetingsDir := filepath.Join(baseDir, "meetings")
	for _, dir := range []string{agentsDir, meetingsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperr.Wrap(apperr.KindPersistenceFailed, err, "failed to create store directory")
		}
	}
	return &FileStore{agentsDir: agentsDir, meetingsDir: meetingsDir}, nil
}

func writeAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.KindPersistenceFailed, err, "failed to marshal entity")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperr.Wrap(apperr.KindPersistenceFailed, err, "failed to write entity")
	}
	if err := os.Rename(tmp, path); err != nil {
		return apperr.Wrap(apperr.KindPersistenceFailed, err, "failed to commit entity")
	}
	return nil
}

func readEntity[T any](path string, entityKind, id string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return v, apperr.NotFound(entityKind, id)
		}
		return v, apperr.Wrap(apperr.KindPersistenceFailed, err, "failed to read entity")
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, apperr.Wrap(apperr.KindPersistenceFailed, err, "failed to unmarshal entity")
	}
	return v, nil
}

func (s *FileStore) agentPath(id string) string   { return filepath.Join(s.agentsDir, id+".json") }
func (s *FileStore) meetingPath(id string) string { return filepath.Join(s.meetingsDir, id+".json") }

func (s *FileStore) SaveAgent(_ context.Context, agent domain.Agent) error {
	return writeAtomic(s.agentPath(agent.ID), agent)
}

func (s *FileStore) LoadAgent(_ context.Context, id string) (domain.Agent, error) {
	return readEntity[domain.Agent](s.agentPath(id), "agent", id)
}

func (s *FileStore) ListAgents(_ context.Context) ([]domain.Agent, error) {
	s.dirMu.Lock()
	defer s.dirMu.Unlock()

	entries, err := os.ReadDir(s.agentsDir)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistenceFailed, err, "failed to list agents")
	}
	agents := make([]domain.Agent, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		id := e.Name()[:len(e.Name())-len(".json")]
		a, err := s.LoadAgent(context.Background(), id)
		if err != nil {
			continue
		}
		agents = append(agents, a)
	}
	return agents, nil
}

func (s *FileStore) DeleteAgent(_ context.Context, id string) error {
	if err := os.Remove(s.agentPath(id)); err != nil {
		if os.IsNotExist(err) {
			return apperr.NotFound("agent", id)
		}
		return apperr.Wrap(apperr.KindPersistenceFailed, err, "failed to delete agent")
	}
	return nil
}

func (s *FileStore) SaveMeeting(_ context.Context, meeting *domain.Meeting) error {
	return writeAtomic(s.meetingPath(meeting.ID), meeting)
}

func (s *FileStore) LoadMeeting(_ context.Context, id string) (*domain.Meeting, error) {
	m, err := readEntity[domain.Meeting](s.meetingPath(id), "meeting", id)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *FileStore) ListMeetings(_ context.Context) ([]*domain.Meeting, error) {
	s.dirMu.Lock()
	defer s.dirMu.Unlock()

	entries, err := os.ReadDir(s.meetingsDir)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistenceFailed, err, "failed to list meetings")
	}
	meetings := make([]*domain.Meeting, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		id := e.Name()[:len(e.Name())-len(".json")]
		m, err := s.LoadMeeting(context.Background(), id)
		if err != nil {
			continue
		}
		meetings = append(meetings, m)
	}
	return meetings, nil
}

func (s *FileStore) DeleteMeeting(_ context.Context, id string) error {
	if err := os.Remove(s.meetingPath(id)); err != nil {
		if os.IsNotExist(err) {
			return apperr.NotFound("meeting", id)
		}
		return apperr.Wrap(apperr.KindPersistenceFailed, err, "failed to delete meeting")
	}
	return nil
}

var _ Store = (*FileStore)(nil)
