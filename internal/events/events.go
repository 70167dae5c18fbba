// internal/events/events.go

// Package events publishes lobby lifecycle transitions onto a Redis list
// consumed by the downstream match/result system. Publishing is best-effort;
// the core never fails an operation because the event stream is down.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultStreamName is the Redis list lobby transition records are pushed to.
var DefaultStreamName = "scrimq_lobby_events"

// Event types carried in Record.Type.
const (
	TypeLobbyFormed    = "lobby_formed"
	TypeLobbyFull      = "lobby_full"
	TypeMapBanned      = "map_banned"
	TypeMapSelected    = "map_selected"
	TypePlayerReady    = "player_ready"
	TypeAllReady       = "all_ready"
	TypePlayerLeft     = "player_left"
	TypeLobbyCancelled = "lobby_cancelled"
)

// Record is one serialized lobby transition.
type Record struct {
	LobbyID   uuid.UUID              `json:"lobby_id"`
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// Publisher is how services emit transition records.
type Publisher interface {
	Publish(ctx context.Context, record Record) error
}

// Redis pushes records onto a Redis list.
type Redis struct {
	rdb    *redis.Client
	stream string
}

// NewRedis connects a Redis publisher and verifies the connection with a ping.
func NewRedis(addr string, db int, stream string) (*Redis, error) {
	if stream == "" {
		stream = DefaultStreamName
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &Redis{rdb: rdb, stream: stream}, nil
}

func (p *Redis) Publish(ctx context.Context, record Record) error {
	if record.Timestamp == 0 {
		record.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal event record: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.stream, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.stream, err)
	}
	return nil
}

// Nop discards every record. Used when no Redis is configured and in tests.
type Nop struct{}

func (Nop) Publish(context.Context, Record) error { return nil }
