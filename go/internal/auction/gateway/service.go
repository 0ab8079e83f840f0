package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/playerauction/go/internal/auction/outbox"
)

// RelayStats reports the event relay counters. It is optional.
type RelayStats interface {
	Stats() outbox.Stats
}

// Service is the auction gateway: websocket transport plus read-only REST.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	session           Session
	relay             RelayStats
	startedAt         time.Time
}

// Config holds configuration for the auction gateway service
type Config struct {
	ConnectionConfig ConnectionConfig `yaml:"websocket"`
}

func DefaultConfig() Config {
	return Config{ConnectionConfig: DefaultConnectionConfig()}
}

// ServiceStats is served on /info
type ServiceStats struct {
	Service     string          `json:"service"`
	Status      string          `json:"status"`
	Uptime      string          `json:"uptime"`
	Version     int64           `json:"auction_version"`
	Connections ConnectionStats `json:"connections"`
	Outbox      *outbox.Stats   `json:"outbox,omitempty"`
}

func NewService(config Config, sess Session, identify Identifier, relay RelayStats) *Service {
	cm := NewConnectionManager(config.ConnectionConfig, sess, identify)
	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm),
		stateHandler:      NewStateHandler(sess),
		session:           sess,
		relay:             relay,
		startedAt:         time.Now(),
	}
}

// RegisterRoutes registers the websocket and REST routes on r
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Get("/ws/auction", s.wsHandler.HandleAuctionConnection)
	r.Get("/ws/stats", s.wsHandler.HandleConnectionStats)

	r.Route("/api/auction", func(r chi.Router) {
		r.Get("/state", s.stateHandler.HandleGetState)
		r.Get("/teams", s.stateHandler.HandleGetTeams)
		r.Get("/teams/{teamID}", s.stateHandler.HandleGetTeam)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
	r.Get("/info", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.GetStats(r.Context()))
	})

	log.Info().Msg("auction gateway routes registered")
}

// Router returns a chi router with the gateway routes and the standard
// middleware stack.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	s.RegisterRoutes(r)
	return r
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats(ctx context.Context) ServiceStats {
	stats := ServiceStats{
		Service:     "auction-gateway",
		Status:      "running",
		Uptime:      time.Since(s.startedAt).Round(time.Second).String(),
		Connections: s.connectionManager.GetConnectionStats(),
	}

	vctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if v, err := s.session.View(vctx); err == nil {
		stats.Version = v.Version
	} else {
		stats.Status = "degraded"
	}

	if s.relay != nil {
		o := s.relay.Stats()
		stats.Outbox = &o
	}
	return stats
}
