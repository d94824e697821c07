package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zus-planner-poc/server/internal/agent/model"
)

// SessionStore maps session identifiers to conversation state. The planner
// reads at turn start and writes at turn end; implementations must be safe for
// concurrent turns across different sessions.
type SessionStore interface {
	// Get returns the state for the session, or nil when absent.
	Get(ctx context.Context, sessionID string) (*model.ChatState, error)

	// Save persists the state under its session id.
	Save(ctx context.Context, state *model.ChatState) error

	// Clear removes the session's state. Clearing an absent session is a no-op.
	Clear(ctx context.Context, sessionID string) error
}

// NewSessionStore builds a store from the configured provider tag. Unknown
// tags fail at construction time, not at call time.
func NewSessionStore(cfg model.SessionConfig, rdb redis.Cmdable) (SessionStore, error) {
	switch cfg.Provider {
	case "memory":
		return NewMemorySessionStore(), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("session store provider %q requires a redis client", cfg.Provider)
		}
		ttl, err := time.ParseDuration(cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL %q: %w", cfg.TTL, err)
		}
		return NewRedisSessionStore(rdb, ttl), nil
	default:
		return nil, fmt.Errorf("unsupported session store provider %q", cfg.Provider)
	}
}
