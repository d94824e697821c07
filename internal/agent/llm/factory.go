package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/zus-planner-poc/server/internal/agent/model"
)

// NewBackend builds the configured provider backend. Unknown provider tags
// fail here, at construction time, not at call time.
func NewBackend(ctx context.Context, cfg model.LLMConfig, timeout time.Duration) (Backend, error) {
	switch cfg.Provider {
	case "fake":
		return NewFixtureBackend(), nil
	case "gemini":
		return NewGeminiBackend(ctx, cfg, timeout)
	default:
		return nil, fmt.Errorf("unsupported planner LLM provider %q", cfg.Provider)
	}
}
