// Package settings keeps the running session in step with the settings row
// when it is edited outside the auction, for example by the registration
// admin closing sign-ups.
package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/playerauction/go/internal/auction/session"
	"github.com/mcdev12/playerauction/go/internal/models"
)

type Config struct {
	// DatabaseURL enables LISTEN/NOTIFY. Empty means poll only.
	DatabaseURL   string
	NotifyChannel string
	PollInterval  time.Duration
	PingInterval  time.Duration
}

func DefaultConfig() Config {
	return Config{
		NotifyChannel: "auction_settings_changed",
		PollInterval:  30 * time.Second,
		PingInterval:  90 * time.Second,
	}
}

type Loader interface {
	GetSettings(ctx context.Context) (models.AuctionSetting, error)
}

type Sender interface {
	Send(ctx context.Context, m session.Msg) error
}

type Watcher struct {
	loader   Loader
	sender   Sender
	clock    clockwork.Clock
	cfg      Config
	listener *pq.Listener
	notify   <-chan *pq.Notification
}

func NewWatcher(loader Loader, sender Sender, clock clockwork.Clock, cfg Config) (*Watcher, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultConfig().PingInterval
	}
	w := &Watcher{loader: loader, sender: sender, clock: clock, cfg: cfg}

	if cfg.DatabaseURL == "" {
		return w, nil
	}

	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("settings listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}
	w.listener = l
	w.notify = l.Notify

	log.Info().Str("channel", cfg.NotifyChannel).Msg("listening for settings changes")
	return w, nil
}

// Start reloads settings on every notification and poll tick until ctx is
// cancelled. Failures are logged and the next tick tries again.
func (w *Watcher) Start(ctx context.Context) error {
	log.Info().
		Dur("poll_interval", w.cfg.PollInterval).
		Bool("listen", w.listener != nil).
		Msg("settings watcher started")

	poll := w.clock.NewTicker(w.cfg.PollInterval)
	defer poll.Stop()

	var pingC <-chan time.Time
	if w.listener != nil {
		ping := w.clock.NewTicker(w.cfg.PingInterval)
		defer ping.Stop()
		pingC = ping.Chan()
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("settings watcher shutting down")
			return w.Stop()
		case note := <-w.notify:
			if note == nil {
				// connection was re-established, catch up in case a notify was missed
				log.Warn().Msg("settings listener reconnected")
			}
			w.reload(ctx)
		case <-poll.Chan():
			w.reload(ctx)
		case <-pingC:
			if err := w.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping settings listener")
			}
		}
	}
}

func (w *Watcher) Stop() error {
	if w.listener == nil {
		return nil
	}
	return w.listener.Close()
}

func (w *Watcher) reload(ctx context.Context) {
	s, err := w.loader.GetSettings(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to reload auction settings")
		return
	}
	if err := w.sender.Send(ctx, session.SettingsChanged{Setting: s}); err != nil {
		log.Warn().Err(err).Msg("failed to hand settings to session")
	}
}
