package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/playerauction/go/internal/auction/events"
)

type fakePublisher struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     chan Record
}

func newFakePublisher(failures int) *fakePublisher {
	return &fakePublisher{failures: failures, sent: make(chan Record, 16)}
}

func (f *fakePublisher) Publish(ctx context.Context, ev Record) error {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return errors.New("nats unavailable")
	}
	f.sent <- ev
	return nil
}

func (f *fakePublisher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func recvEvent(t *testing.T, ch <-chan Record) Record {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published event")
		return Record{}
	}
}

func startRelay(t *testing.T, r *Relay) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func soldEvent(price int) events.Event {
	return events.Event{
		Type: events.PlayerSold,
		Payload: events.PlayerSoldPayload{
			PlayerID:   "p1",
			TeamID:     "t1",
			FinalPrice: price,
		},
	}
}

func TestRelay_PublishesInOrder(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pub := newFakePublisher(0)
	r := NewRelay(pub, clock, DefaultRelayConfig())
	startRelay(t, r)

	r.Publish([]events.Event{soldEvent(5), soldEvent(6)})

	first := recvEvent(t, pub.sent)
	second := recvEvent(t, pub.sent)
	assert.Equal(t, string(events.PlayerSold), first.Type)
	assert.NotEqual(t, first.ID, second.ID)

	var payload events.PlayerSoldPayload
	require.NoError(t, json.Unmarshal(second.Payload, &payload))
	assert.Equal(t, 6, payload.FinalPrice)
	assert.Equal(t, clock.Now().UTC(), first.OccurredAt)

	require.Eventually(t, func() bool { return r.Stats().Published == 2 }, time.Second, 5*time.Millisecond)
}

func TestRelay_RetriesWithBackoff(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pub := newFakePublisher(2)
	cfg := DefaultRelayConfig()
	cfg.RetryDelay = time.Second
	r := NewRelay(pub, clock, cfg)
	startRelay(t, r)

	r.Publish([]events.Event{soldEvent(5)})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// first retry waits 1s, second waits 2s
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, 1, pub.callCount())
	clock.Advance(time.Second)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, 2, pub.callCount())
	clock.Advance(2 * time.Second)

	recvEvent(t, pub.sent)
	assert.Equal(t, 3, pub.callCount())
	require.Eventually(t, func() bool { return r.Stats().Published == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, r.Stats().Failed)
}

func TestRelay_GivesUpAfterMaxRetries(t *testing.T) {
	pub := newFakePublisher(100)
	cfg := DefaultRelayConfig()
	cfg.MaxRetries = 0
	r := NewRelay(pub, clockwork.NewFakeClock(), cfg)
	startRelay(t, r)

	r.Publish([]events.Event{soldEvent(5)})

	require.Eventually(t, func() bool { return r.Stats().Failed == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, pub.callCount())
	assert.Zero(t, r.Stats().Published)
}

func TestRelay_DropsWhenBufferFull(t *testing.T) {
	pub := newFakePublisher(0)
	cfg := DefaultRelayConfig()
	cfg.BufferSize = 1
	r := NewRelay(pub, clockwork.NewFakeClock(), cfg)

	// not started, so nothing drains the queue
	r.Publish([]events.Event{soldEvent(1), soldEvent(2), soldEvent(3)})

	st := r.Stats()
	assert.Equal(t, uint64(2), st.Dropped)
	assert.Equal(t, 1, st.Pending)
}

func TestRelay_UnencodablePayloadCountsAsFailed(t *testing.T) {
	r := NewRelay(newFakePublisher(0), clockwork.NewFakeClock(), DefaultRelayConfig())

	r.Publish([]events.Event{{Type: events.BidRaised, Payload: make(chan int)}})

	assert.Equal(t, uint64(1), r.Stats().Failed)
	assert.Zero(t, r.Stats().Pending)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "auction.events.PlayerSold", Subject("auction.events", string(events.PlayerSold)))
}
