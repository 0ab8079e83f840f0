package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/playerauction/go/internal/auction/gateway"
	"github.com/mcdev12/playerauction/go/internal/auction/outbox"
	"github.com/mcdev12/playerauction/go/internal/auction/repository"
	"github.com/mcdev12/playerauction/go/internal/auction/rpc"
	"github.com/mcdev12/playerauction/go/internal/auction/session"
	"github.com/mcdev12/playerauction/go/internal/auction/settings"
	"github.com/mcdev12/playerauction/go/internal/auth"
	"github.com/mcdev12/playerauction/go/internal/dbconfig"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := loadConfig(os.Getenv("AUCTION_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("auction server failed")
	}
	log.Info().Msg("auction server shutdown complete")
}

func run(ctx context.Context, cfg Config) error {
	dbCfg := dbconfig.NewConfigFromEnv()
	pool, err := setupDatabase(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := repository.NewRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := repo.EnsureSettings(ctx, cfg.DefaultSettings); err != nil {
		return err
	}

	clock := clockwork.NewRealClock()

	var relay *outbox.Relay
	if cfg.NATS.Enabled {
		brokerCfg := outbox.DefaultBrokerConfig()
		brokerCfg.URL = cfg.NATS.URL
		brokerCfg.Stream = cfg.NATS.StreamName
		brokerCfg.SubjectPrefix = cfg.NATS.SubjectPrefix

		publisher, err := outbox.DialBroker(ctx, brokerCfg)
		if err != nil {
			return fmt.Errorf("failed to create event publisher: %w", err)
		}
		defer publisher.Close()

		relayCfg := outbox.DefaultRelayConfig()
		relayCfg.BufferSize = cfg.NATS.BufferSize
		relayCfg.MaxRetries = cfg.NATS.MaxRetries
		relayCfg.RetryDelay = cfg.NATS.RetryDelay
		relay = outbox.NewRelay(publisher, clock, relayCfg)
	}

	state, version, err := session.Restore(ctx, repo)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	sessCfg := session.DefaultConfig(repo)
	sessCfg.Clock = clock
	sessCfg.PersistTimeout = cfg.Session.PersistTimeout
	sessCfg.InboxSize = cfg.Session.InboxSize
	if relay != nil {
		sessCfg.Events = relay
	}
	sess := session.New(gctx, state, version, sessCfg)

	watchCfg := settings.DefaultConfig()
	watchCfg.NotifyChannel = cfg.Watcher.NotifyChannel
	watchCfg.PollInterval = cfg.Watcher.PollInterval
	if cfg.Watcher.Listen {
		watchCfg.DatabaseURL = dbCfg.DSN()
	}
	watcher, err := settings.NewWatcher(repo, sess, clock, watchCfg)
	if err != nil {
		return err
	}

	authn := auth.NewAuthenticator(auth.Config{Secret: cfg.Auth.Secret, Issuer: cfg.Auth.Issuer}, clock)

	gwCfg := cfg.Gateway
	if len(gwCfg.ConnectionConfig.AllowedOrigins) == 0 {
		gwCfg.ConnectionConfig.AllowedOrigins = cfg.Server.AllowedOrigins
	}
	var relayStats gateway.RelayStats
	if relay != nil {
		relayStats = relay
	}
	gw := gateway.NewService(gwCfg, sess, authn, relayStats)
	server := setupServer(cfg, gw, rpc.NewService(sess))

	if relay != nil {
		g.Go(func() error { return relay.Start(gctx) })
	}
	g.Go(func() error { return watcher.Start(gctx) })

	g.Go(func() error {
		log.Info().
			Str("addr", server.Addr).
			Int64("version", version).
			Bool("events", relay != nil).
			Msg("auction server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down auction server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown failed")
		}

		select {
		case <-sess.Done():
		case <-shutdownCtx.Done():
			log.Warn().Msg("auction session did not stop in time")
		}
		return nil
	})

	return g.Wait()
}
