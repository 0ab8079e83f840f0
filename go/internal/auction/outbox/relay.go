package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/playerauction/go/internal/auction/events"
)

type RelayConfig struct {
	BufferSize     int
	MaxRetries     int
	RetryDelay     time.Duration
	PublishTimeout time.Duration
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		BufferSize:     256,
		MaxRetries:     5,
		RetryDelay:     200 * time.Millisecond,
		PublishTimeout: 5 * time.Second,
	}
}

// Relay accepts committed auction events from the session without blocking
// and publishes them in order from its own goroutine.
type Relay struct {
	publisher Publisher
	clock     clockwork.Clock
	cfg       RelayConfig
	queue     chan Record

	published atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
	lastSent  atomic.Int64
}

func NewRelay(publisher Publisher, clock clockwork.Clock, cfg RelayConfig) *Relay {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultRelayConfig().BufferSize
	}
	return &Relay{
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		queue:     make(chan Record, cfg.BufferSize),
	}
}

// Publish enqueues events. When the buffer is full the event is dropped
// and counted.
func (r *Relay) Publish(evts []events.Event) {
	for _, e := range evts {
		ev, err := r.wrap(e)
		if err != nil {
			r.failed.Add(1)
			log.Error().Err(err).Str("event_type", string(e.Type)).Msg("failed to encode auction event")
			continue
		}
		select {
		case r.queue <- ev:
		default:
			r.dropped.Add(1)
			log.Warn().
				Str("event_type", ev.Type).
				Str("event_id", ev.ID.String()).
				Msg("relay buffer full, dropping event")
		}
	}
}

func (r *Relay) wrap(e events.Event) (Record, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:         uuid.New(),
		Type:       string(e.Type),
		Payload:    payload,
		OccurredAt: r.clock.Now().UTC(),
	}, nil
}

// Start publishes queued events until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	log.Info().
		Int("buffer", cap(r.queue)).
		Int("max_retries", r.cfg.MaxRetries).
		Msg("event relay started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Int("pending", len(r.queue)).Msg("event relay shutting down")
			return nil
		case ev := <-r.queue:
			if err := r.publishWithRetry(ctx, ev); err != nil {
				r.failed.Add(1)
				log.Error().Err(err).Str("event_id", ev.ID.String()).Msg("giving up on auction event")
				continue
			}
			r.published.Add(1)
			r.lastSent.Store(r.clock.Now().UnixNano())
		}
	}
}

// publishWithRetry backs off linearly between attempts.
func (r *Relay) publishWithRetry(ctx context.Context, ev Record) error {
	var lastErr error

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.clock.After(r.cfg.RetryDelay * time.Duration(attempt)):
			}
		}

		err := r.publishOnce(ctx, ev)
		if err == nil {
			if attempt > 0 {
				log.Info().
					Int("attempt", attempt+1).
					Str("event_id", ev.ID.String()).
					Msg("publish succeeded after retry")
			}
			return nil
		}
		lastErr = err
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Str("event_id", ev.ID.String()).
			Msg("failed to publish, retrying")
	}
	return fmt.Errorf("publish failed after %d attempts: %w", r.cfg.MaxRetries+1, lastErr)
}

func (r *Relay) publishOnce(ctx context.Context, ev Record) error {
	if r.cfg.PublishTimeout <= 0 {
		return r.publisher.Publish(ctx, ev)
	}
	pctx, cancel := context.WithTimeout(ctx, r.cfg.PublishTimeout)
	defer cancel()
	return r.publisher.Publish(pctx, ev)
}

func (r *Relay) Stats() Stats {
	s := Stats{
		Published: r.published.Load(),
		Failed:    r.failed.Load(),
		Dropped:   r.dropped.Load(),
		Pending:   len(r.queue),
	}
	if ns := r.lastSent.Load(); ns != 0 {
		s.LastSent = time.Unix(0, ns).UTC()
	}
	return s
}
