package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(sessionID, eventType, node string) Event {
	return Event{
		SessionID: sessionID,
		Type:      eventType,
		Node:      node,
		Timestamp: time.Now().UTC(),
	}
}

func TestPublishThenConsumeInOrder(t *testing.T) {
	b := NewBroker(10)
	ctx := context.Background()

	b.Publish("s1", event("s1", TypeNodeStart, "classify_intent"))
	b.Publish("s1", event("s1", TypeNodeEnd, "classify_intent"))
	b.Publish("s1", event("s1", TypeDecision, "decide"))

	for _, want := range []string{TypeNodeStart, TypeNodeEnd, TypeDecision} {
		ev, err := b.NextEvent(ctx, "s1", time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, ev.Type)
	}
}

func TestNextEventUnknownSession(t *testing.T) {
	b := NewBroker(10)

	_, err := b.NextEvent(context.Background(), "nope", time.Second)
	assert.ErrorIs(t, err, ErrNoChannel)
}

func TestNextEventTimesOutWithoutSubscriberWake(t *testing.T) {
	b := NewBroker(10)
	b.Publish("s1", event("s1", TypeNodeStart, "classify_intent"))

	_, err := b.NextEvent(context.Background(), "s1", 50*time.Millisecond)
	require.NoError(t, err)

	// Backlog drained and nobody registered: the wait cannot be woken.
	_, err = b.NextEvent(context.Background(), "s1", 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRegisteredSubscriberWokenByPublish(t *testing.T) {
	b := NewBroker(10)
	b.Register("s1")

	type outcome struct {
		ev  Event
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		ev, err := b.NextEvent(context.Background(), "s1", 5*time.Second)
		done <- outcome{ev: ev, err: err}
	}()

	time.Sleep(20 * time.Millisecond)
	b.Publish("s1", event("s1", TypeLLMCall, "decide"))

	select {
	case got := <-done:
		require.NoError(t, got.err)
		assert.Equal(t, TypeLLMCall, got.ev.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber was not woken by publish")
	}
}

func TestBacklogDropsOldestWhenFull(t *testing.T) {
	b := NewBroker(3)
	ctx := context.Background()

	for _, node := range []string{"a", "b", "c", "d", "e"} {
		b.Publish("s1", event("s1", TypeNodeStart, node))
	}

	var nodes []string
	for {
		ev, err := b.NextEvent(ctx, "s1", 10*time.Millisecond)
		if err != nil {
			break
		}
		nodes = append(nodes, ev.Node)
	}
	assert.Equal(t, []string{"c", "d", "e"}, nodes)
}

func TestClearReportsDiscardedCount(t *testing.T) {
	b := NewBroker(10)

	b.Publish("s1", event("s1", TypeNodeStart, "a"))
	b.Publish("s1", event("s1", TypeNodeEnd, "a"))

	assert.Equal(t, 2, b.Clear("s1"))
	assert.Equal(t, 0, b.Clear("s1"))
	assert.Equal(t, 0, b.Clear("never-seen"))

	// The channel survives a clear; publishing resumes delivery.
	b.Publish("s1", event("s1", TypeDecision, "decide"))
	ev, err := b.NextEvent(context.Background(), "s1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, TypeDecision, ev.Type)
}

func TestNextEventHonorsContextCancel(t *testing.T) {
	b := NewBroker(10)
	b.Register("s1")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := b.NextEvent(ctx, "s1", 5*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJanitorEvictsIdleChannels(t *testing.T) {
	b := NewBroker(10)
	defer b.Close()

	b.Publish("idle", event("idle", TypeNodeStart, "a"))
	b.StartJanitor(50 * time.Millisecond)

	require.Eventually(t, func() bool {
		_, err := b.NextEvent(context.Background(), "idle", time.Millisecond)
		return err == ErrNoChannel
	}, 2*time.Second, 25*time.Millisecond)
}

func TestJanitorSparesRegisteredChannels(t *testing.T) {
	b := NewBroker(10)
	defer b.Close()

	b.Register("live")
	b.StartJanitor(50 * time.Millisecond)
	time.Sleep(200 * time.Millisecond)

	b.Publish("live", event("live", TypeNodeStart, "a"))
	ev, err := b.NextEvent(context.Background(), "live", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "a", ev.Node)
}

func TestReRegisterKeepsBacklog(t *testing.T) {
	b := NewBroker(10)
	b.Register("s1")
	b.Publish("s1", event("s1", TypeNodeStart, "a"))
	b.Unregister("s1")
	b.Register("s1")

	ev, err := b.NextEvent(context.Background(), "s1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "a", ev.Node)
}
