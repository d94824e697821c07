package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// FixtureBackend replays queued payloads in FIFO order. Tests queue one
// payload per expected model call and fail loudly when the planner asks for
// more than was scripted.
type FixtureBackend struct {
	mu    sync.Mutex
	queue []json.RawMessage
}

func NewFixtureBackend() *FixtureBackend {
	return &FixtureBackend{}
}

// QueueResponse appends a payload to the fixture queue. Accepts any value that
// marshals to JSON.
func (f *FixtureBackend) QueueResponse(payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("fixture payload not serializable: %w", err)
	}
	f.mu.Lock()
	f.queue = append(f.queue, b)
	f.mu.Unlock()
	return nil
}

// ClearResponses drops all queued payloads.
func (f *FixtureBackend) ClearResponses() {
	f.mu.Lock()
	f.queue = nil
	f.mu.Unlock()
}

// Pending reports how many payloads remain queued.
func (f *FixtureBackend) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

func (f *FixtureBackend) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return nil, &InvocationError{Err: fmt.Errorf("no fixture responses queued for %s", req.SchemaName)}
	}
	payload := f.queue[0]
	f.queue = f.queue[1:]
	return payload, nil
}

var _ Backend = (*FixtureBackend)(nil)
