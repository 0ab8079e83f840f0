package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// BrokerConfig describes the NATS server and the stream auction events
// land in.
type BrokerConfig struct {
	URL           string
	Stream        string
	SubjectPrefix string

	MaxReconnects int
	ReconnectWait time.Duration

	Retention  time.Duration
	DedupeSpan time.Duration
	Replicas   int
}

func DefaultBrokerConfig() BrokerConfig {
	return BrokerConfig{
		URL:           nats.DefaultURL,
		Stream:        "AUCTION_EVENTS",
		SubjectPrefix: "auction.events",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Retention:     30 * 24 * time.Hour,
		DedupeSpan:    10 * time.Minute,
		Replicas:      1,
	}
}

// Subject returns the subject an event type is published on.
func Subject(prefix, eventType string) string {
	return prefix + "." + eventType
}

// Broker is a Publisher backed by a JetStream stream.
type Broker struct {
	conn   *nats.Conn
	stream jetstream.JetStream
	cfg    BrokerConfig
}

// DialBroker connects to NATS and makes sure the auction stream exists with
// the configured limits.
func DialBroker(ctx context.Context, cfg BrokerConfig) (*Broker, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("playerauction"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("lost connection to event broker")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("server", c.ConnectedUrl()).Msg("event broker connection restored")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dial event broker %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open jetstream: %w", err)
	}

	streamCfg := jetstream.StreamConfig{
		Name:        cfg.Stream,
		Description: "player auction events",
		Subjects:    []string{cfg.SubjectPrefix + ".>"},
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      cfg.Retention,
		Duplicates:  cfg.DedupeSpan,
		Replicas:    cfg.Replicas,
	}
	if _, err := js.CreateOrUpdateStream(ctx, streamCfg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare stream %s: %w", cfg.Stream, err)
	}
	log.Info().
		Str("stream", cfg.Stream).
		Str("subjects", cfg.SubjectPrefix+".>").
		Msg("event broker ready")

	return &Broker{conn: conn, stream: js, cfg: cfg}, nil
}

// Publish sends rec and waits for the stream ack. The record ID doubles as
// the JetStream dedupe key so a retried send is stored once.
func (b *Broker) Publish(ctx context.Context, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", rec.Type, err)
	}

	msg := nats.NewMsg(Subject(b.cfg.SubjectPrefix, rec.Type))
	msg.Data = body
	msg.Header.Set("Auction-Event", rec.Type)

	ack, err := b.stream.PublishMsg(ctx, msg,
		jetstream.WithMsgID(rec.ID.String()),
		jetstream.WithExpectStream(b.cfg.Stream),
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", rec.Type, err)
	}
	if ack.Duplicate {
		log.Debug().Str("event_id", rec.ID.String()).Msg("broker already had auction event")
	}
	return nil
}

// Close flushes pending publishes before disconnecting.
func (b *Broker) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Drain()
}
