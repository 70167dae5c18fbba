// internal/directory/memory.go
package directory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/smccrary/scrimq/internal/models"
)

// Memory is an in-process directory. It backs tests and standalone runs where
// no Postgres is configured, and hosts the synthetic profiles the bot
// provisioner allocates.
type Memory struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]models.PlayerProfile
}

func NewMemory() *Memory {
	return &Memory{profiles: make(map[uuid.UUID]models.PlayerProfile)}
}

func (m *Memory) GetProfile(_ context.Context, userID uuid.UUID) (*models.PlayerProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := p
	return &copied, nil
}

func (m *Memory) PutProfile(_ context.Context, profile *models.PlayerProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.UserID] = *profile
	return nil
}

// Delete removes a profile. Used by tests to simulate directory records
// disappearing between admission and match formation.
func (m *Memory) Delete(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, userID)
}
