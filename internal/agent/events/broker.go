package events

import (
	"context"
	"errors"
	"sync"
	"time"

	logx "github.com/zus-planner-poc/server/pkg/logger"
)

// Event types published by the planner.
const (
	TypeNodeStart = "node_start"
	TypeNodeEnd   = "node_end"
	TypeDecision  = "decision"
	TypeLLMCall   = "llm_call"
)

var (
	// ErrNoChannel is returned when events are requested for a session that
	// has never published or registered. This is a caller error.
	ErrNoChannel = errors.New("events: no channel for session")

	// ErrTimeout ends a single wait. The channel and in-flight publishes are
	// unaffected; the caller may wait again.
	ErrTimeout = errors.New("events: timed out waiting for event")
)

// Event is an immutable trace record for one session.
type Event struct {
	SessionID string         `json:"sessionId"`
	Type      string         `json:"type"`
	Node      string         `json:"node"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// sessionChannel is a bounded FIFO of queued events plus at most one
// subscriber wake target.
type sessionChannel struct {
	backlog []Event
	// notify carries wake-up tokens from publishers to the single subscriber.
	// Buffered so publishers never block; tokens coalesce, the subscriber
	// re-checks the backlog under the broker lock after each wake. nil when
	// nobody is registered.
	notify     chan struct{}
	lastActive time.Time
}

// Broker is an in-memory per-session publish/subscribe channel with bounded
// backlog and replay. Publishing is safe from any goroutine; consumption is
// single-consumer per session by design — concurrent NextEvent calls for the
// same session are not supported.
type Broker struct {
	mu         sync.Mutex
	channels   map[string]*sessionChannel
	maxBacklog int

	janitorStop chan struct{}
	janitorOnce sync.Once
}

// NewBroker creates a broker whose per-session backlog keeps at most
// maxBacklog events, dropping the oldest once full.
func NewBroker(maxBacklog int) *Broker {
	if maxBacklog <= 0 {
		maxBacklog = 200
	}
	return &Broker{
		channels:    map[string]*sessionChannel{},
		maxBacklog:  maxBacklog,
		janitorStop: make(chan struct{}),
	}
}

func (b *Broker) channelLocked(sessionID string) *sessionChannel {
	ch := b.channels[sessionID]
	if ch == nil {
		ch = &sessionChannel{}
		b.channels[sessionID] = ch
	}
	ch.lastActive = time.Now()
	return ch
}

// Register binds the calling subscriber to the session's channel. Idempotent:
// re-registering replaces the wake target without discarding queued events.
func (b *Broker) Register(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := b.channelLocked(sessionID)
	ch.notify = make(chan struct{}, 1)
}

// Unregister detaches the wake target. Queued events remain for replay.
func (b *Broker) Unregister(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch := b.channels[sessionID]; ch != nil {
		ch.notify = nil
		ch.lastActive = time.Now()
	}
}

// Publish appends the event to the session's backlog and wakes the subscriber
// if one is registered. Never blocks: the wake token is dropped when one is
// already pending, and the subscriber re-reads the backlog anyway.
func (b *Broker) Publish(sessionID string, event Event) {
	b.mu.Lock()
	ch := b.channelLocked(sessionID)
	if len(ch.backlog) >= b.maxBacklog {
		dropped := len(ch.backlog) - b.maxBacklog + 1
		ch.backlog = append(ch.backlog[:0], ch.backlog[dropped:]...)
		logx.Warn().
			Str("session_id", sessionID).
			Int("dropped", dropped).
			Msg("event backlog full, dropping oldest")
	}
	ch.backlog = append(ch.backlog, event)
	notify := ch.notify
	b.mu.Unlock()

	if notify != nil {
		select {
		case notify <- struct{}{}:
		default:
		}
	}
}

// NextEvent pops the oldest queued event, waiting up to timeout when the
// backlog is empty. Requesting events for an unknown session returns
// ErrNoChannel immediately.
func (b *Broker) NextEvent(ctx context.Context, sessionID string, timeout time.Duration) (Event, error) {
	b.mu.Lock()
	ch, ok := b.channels[sessionID]
	if !ok {
		b.mu.Unlock()
		return Event{}, ErrNoChannel
	}
	if ev, ok := popLocked(ch); ok {
		b.mu.Unlock()
		return ev, nil
	}
	notify := ch.notify
	b.mu.Unlock()

	if notify == nil {
		// Nothing queued and nobody registered a wake target: there is no way
		// for this wait to end except the clock.
		return Event{}, ErrTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-notify:
			b.mu.Lock()
			ev, ok := popLocked(ch)
			b.mu.Unlock()
			if ok {
				return ev, nil
			}
			// Coalesced token raced with another consumer path (e.g. Clear);
			// keep waiting out the remaining time.
		case <-timer.C:
			return Event{}, ErrTimeout
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

func popLocked(ch *sessionChannel) (Event, bool) {
	if len(ch.backlog) == 0 {
		return Event{}, false
	}
	ev := ch.backlog[0]
	ch.backlog = ch.backlog[1:]
	ch.lastActive = time.Now()
	return ev, true
}

// Clear discards all queued events for the session and reports how many were
// dropped. The channel itself survives so replay resumes on the next publish.
func (b *Broker) Clear(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := b.channels[sessionID]
	if ch == nil {
		return 0
	}
	cleared := len(ch.backlog)
	ch.backlog = nil
	ch.lastActive = time.Now()
	return cleared
}

// StartJanitor evicts channels that have been idle longer than ttl and have no
// registered subscriber. Long-lived deployments that never call Clear would
// otherwise accumulate channels indefinitely.
func (b *Broker) StartJanitor(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.sweep(ttl)
			case <-b.janitorStop:
				return
			}
		}
	}()
}

func (b *Broker) sweep(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.channels {
		if ch.notify == nil && ch.lastActive.Before(cutoff) {
			delete(b.channels, id)
			logx.Debug().Str("session_id", id).Msg("evicted idle event channel")
		}
	}
}

// Close stops the janitor goroutine if one was started.
func (b *Broker) Close() {
	b.janitorOnce.Do(func() { close(b.janitorStop) })
}
