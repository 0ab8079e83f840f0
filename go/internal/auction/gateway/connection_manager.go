package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/playerauction/go/internal/auction/protocol"
	"github.com/mcdev12/playerauction/go/internal/auction/session"
	"github.com/mcdev12/playerauction/go/internal/auth"
)

// Session is the part of the auction session the gateway talks to.
type Session interface {
	Send(ctx context.Context, m session.Msg) error
	View(ctx context.Context) (session.View, error)
}

// Identifier resolves the caller of an upgrade request.
type Identifier interface {
	Identify(r *http.Request) auth.Identity
}

// ConnectionManager upgrades websocket requests and pumps frames between
// each connection and the auction session. The session owns each
// connection's outbox and closes it when the client is dropped.
type ConnectionManager struct {
	connections map[string]*Connection
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	session  Session
	identify Identifier

	accepted uint64
}

// Connection represents a websocket client of the auction
type Connection struct {
	ID       string
	Identity auth.Identity
	Conn     *websocket.Conn
	Send     chan []byte
	Manager  *ConnectionManager

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for websocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	PingInterval    time.Duration `yaml:"ping_interval"`
	MaxMessageSize  int64         `yaml:"max_message_size"`
	ReadBufferSize  int           `yaml:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size"`
	OutboxSize      int           `yaml:"outbox_size"`
	// AllowedOrigins restricts the websocket Origin header. Empty allows any.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DefaultConnectionConfig returns default websocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		OutboxSize:      64,
	}
}

// ConnectionStats is served on /ws/stats
type ConnectionStats struct {
	TotalConnections int    `json:"total_connections"`
	Admins           int    `json:"admins"`
	Viewers          int    `json:"viewers"`
	Accepted         uint64 `json:"accepted"`
}

func NewConnectionManager(config ConnectionConfig, sess Session, identify Identifier) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     originChecker(config.AllowedOrigins),
		},
		config:   config,
		session:  sess,
		identify: identify,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// UpgradeConnection upgrades r and joins the new client to the session.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	identity := cm.identify.Identify(r)

	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &Connection{
		ID:          uuid.New().String(),
		Identity:    identity,
		Conn:        conn,
		Send:        make(chan []byte, cm.config.OutboxSize),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}

	join := session.Join{ClientID: c.ID, IsAdmin: identity.IsAdmin, Outbox: c.Send}
	if err := cm.session.Send(context.Background(), join); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "auction unavailable"),
			time.Now().Add(cm.config.WriteTimeout))
		conn.Close()
		return fmt.Errorf("failed to join session: %w", err)
	}

	cm.registerConnection(c)

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.ID).
		Str("subject", identity.Subject).
		Bool("is_admin", identity.IsAdmin).
		Msg("websocket connection established")
	return nil
}

func (cm *ConnectionManager) registerConnection(c *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[c.ID] = c
	cm.accepted++

	log.Debug().
		Str("connection_id", c.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(c *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, ok := cm.connections[c.ID]; !ok {
		return
	}
	delete(cm.connections, c.ID)

	log.Info().
		Str("connection_id", c.ID).
		Dur("connected_for", time.Since(c.ConnectedAt)).
		Msg("connection unregistered")
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{
		TotalConnections: len(cm.connections),
		Accepted:         cm.accepted,
	}
	for _, c := range cm.connections {
		if c.Identity.IsAdmin {
			stats.Admins++
		} else {
			stats.Viewers++
		}
	}
	return stats
}

// writePump drains the session outbox to the socket. The session closes
// the outbox to disconnect the client.
func (c *Connection) writePump() {
	cfg := c.Manager.config
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("failed to write message to websocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump decodes client frames into session commands until the socket
// closes, then leaves the session.
func (c *Connection) readPump() {
	cfg := c.Manager.config
	defer func() {
		c.Manager.unregisterConnection(c)
		c.leave()
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(cfg.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn().Err(err).Str("connection_id", c.ID).Msg("unexpected websocket close")
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))

		if err := c.handleClientMessage(message); err != nil {
			return
		}
	}
}

func (c *Connection) handleClientMessage(message []byte) error {
	cmd, decodeErr := protocol.DecodeCommand(message)
	if decodeErr != nil {
		log.Debug().Err(decodeErr).Str("connection_id", c.ID).Msg("malformed client message")
	}

	err := c.Manager.session.Send(context.Background(), session.FromClient{
		ClientID: c.ID,
		Cmd:      cmd,
		Err:      decodeErr,
	})
	if errors.Is(err, session.ErrClosed) {
		return err
	}
	return nil
}

func (c *Connection) leave() {
	ctx, cancel := context.WithTimeout(context.Background(), c.Manager.config.WriteTimeout)
	defer cancel()
	if err := c.Manager.session.Send(ctx, session.Leave{ClientID: c.ID}); err != nil && !errors.Is(err, session.ErrClosed) {
		log.Warn().Err(err).Str("connection_id", c.ID).Msg("failed to leave session")
	}
}
