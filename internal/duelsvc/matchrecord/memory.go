package matchrecord

import (
	"context"
	"sync"

	"github.com/avvvet/duel-services/internal/duelsvc/models"
)

// MemorySource keeps profiles and matches in process.
type MemorySource struct {
	mu       sync.RWMutex
	profiles map[[2]string]string
	matches  map[string][]models.MatchRecord
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		profiles: map[[2]string]string{},
		matches:  map[string][]models.MatchRecord{},
	}
}

func (m *MemorySource) AddProfile(p models.GameProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[[2]string{p.UserID, p.GameID}] = p.ID
}

func (m *MemorySource) AddMatch(r models.MatchRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches[r.GameProfileID] = append(m.matches[r.GameProfileID], r)
}

func (m *MemorySource) ProfileID(_ context.Context, userID, gameID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.profiles[[2]string{userID, gameID}]
	if !ok {
		return "", ErrNotFound
	}
	return id, nil
}

func (m *MemorySource) LatestMatch(_ context.Context, profileID string) (*models.MatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *models.MatchRecord
	tied := false
	for i := range m.matches[profileID] {
		r := m.matches[profileID][i]
		switch {
		case latest == nil || r.PlayedAt.After(latest.PlayedAt):
			latest = &r
			tied = false
		case r.PlayedAt.Equal(latest.PlayedAt):
			tied = true
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	if tied {
		return nil, ErrAmbiguous
	}
	return latest, nil
}
