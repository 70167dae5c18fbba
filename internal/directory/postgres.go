// internal/directory/postgres.go
package directory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smccrary/scrimq/internal/models"
)

// Postgres reads player profiles straight from the directory's profiles table.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Connect builds a pgx pool from the POSTGRES_* environment variables and
// verifies connectivity with a short ping.
func Connect(ctx context.Context) (*pgxpool.Pool, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("PG_HOST"),
		os.Getenv("PG_PORT"),
		os.Getenv("PG_DATABASE"),
	)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return pool, nil
}

func (p *Postgres) GetProfile(ctx context.Context, userID uuid.UUID) (*models.PlayerProfile, error) {
	var profile models.PlayerProfile
	q := `
	SELECT user_id, display_name, external_id, rating, avatar
	FROM profiles
	WHERE user_id=$1
	`
	err := p.pool.QueryRow(ctx, q, userID).Scan(
		&profile.UserID, &profile.DisplayName, &profile.ExternalID,
		&profile.Rating, &profile.Avatar,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile %s: %w", userID, err)
	}
	return &profile, nil
}

func (p *Postgres) PutProfile(ctx context.Context, profile *models.PlayerProfile) error {
	q := `INSERT INTO profiles (user_id, display_name, external_id, rating, avatar)
	      VALUES ($1, $2, $3, $4, $5)
	      ON CONFLICT (user_id) DO UPDATE
	      SET display_name=$2, external_id=$3, rating=$4, avatar=$5`

	err := pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			profile.UserID, profile.DisplayName, profile.ExternalID,
			profile.Rating, profile.Avatar,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
