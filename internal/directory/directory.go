// internal/directory/directory.go

// Package directory is the client side of the Player Directory: the external
// system of record for player identity and skill rating. The matchmaking core
// only reads profiles; the sole write path is the bot provisioner synthesizing
// filler identities.
package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/smccrary/scrimq/internal/models"
)

// ErrNotFound is returned when a player has no directory record.
var ErrNotFound = errors.New("profile not found")

// Service is the read path consumed by the queue and lobby services.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.PlayerProfile, error)
}

// Writer is the insert path used by the bot provisioner.
type Writer interface {
	PutProfile(ctx context.Context, profile *models.PlayerProfile) error
}

// ReadWriter combines both halves; the in-memory and Postgres
// implementations satisfy it.
type ReadWriter interface {
	Service
	Writer
}
