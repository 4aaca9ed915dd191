package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwebster45206/dao-engine/pkg/game"
)

// Storage persists sessions. Sessions are the only mutable state the
// service owns; everything else is derived or static.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error

	SaveSession(ctx context.Context, s *game.Session) error

	// LoadSession returns (nil, nil) when the session does not exist.
	LoadSession(ctx context.Context, id uuid.UUID) (*game.Session, error)

	DeleteSession(ctx context.Context, id uuid.UUID) error
}
