// internal/directory/bots.go
package directory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/smccrary/scrimq/internal/models"
)

// botCallsigns seed the synthetic display names.
var botCallsigns = []string{
	"Viper", "Cobalt", "Havoc", "Drift", "Saber",
	"Onyx", "Pylon", "Quartz", "Raider", "Static",
}

// Provisioner synthesizes filler player identities so a lobby can be filled
// and the veto protocol exercised without ten real players. Allocated bots are
// written into the directory as a side effect and remembered so IsBot can
// answer for the lifetime of the process.
type Provisioner struct {
	mu   sync.RWMutex
	bots map[uuid.UUID]bool
	dir  Writer
}

func NewProvisioner(dir Writer) *Provisioner {
	return &Provisioner{
		bots: make(map[uuid.UUID]bool),
		dir:  dir,
	}
}

// AllocateBots creates count synthetic profiles with mid-range ratings and
// returns their ids.
func (p *Provisioner) AllocateBots(ctx context.Context, count int) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		callsign := botCallsigns[rand.Intn(len(botCallsigns))]
		profile := &models.PlayerProfile{
			UserID:      id,
			DisplayName: fmt.Sprintf("BOT %s-%d", callsign, rand.Intn(90)+10),
			ExternalID:  fmt.Sprintf("bot:%s", id),
			Rating:      models.DefaultRating - 100 + rand.Intn(200),
		}
		if err := p.dir.PutProfile(ctx, profile); err != nil {
			return ids, fmt.Errorf("failed to provision bot profile: %w", err)
		}
		p.mu.Lock()
		p.bots[id] = true
		p.mu.Unlock()
		ids = append(ids, id)
	}
	return ids, nil
}

// IsBot reports whether id was allocated by this provisioner.
func (p *Provisioner) IsBot(id uuid.UUID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bots[id]
}
