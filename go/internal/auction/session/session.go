// Package session serializes every auction command through one goroutine
// and fans the resulting state out to connected clients.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/playerauction/go/internal/auction"
	"github.com/mcdev12/playerauction/go/internal/auction/auctionerr"
	"github.com/mcdev12/playerauction/go/internal/auction/protocol"
	"github.com/mcdev12/playerauction/go/internal/models"
)

// ErrClosed is returned by Send once the session has stopped.
var ErrClosed = errors.New("session closed")

type Msg interface{ isSessionMsg() }

// Join registers a client. Outbox receives encoded frames and is closed
// by the session when the client is dropped or the session stops.
type Join struct {
	ClientID string
	IsAdmin  bool
	Outbox   chan []byte
}

func (Join) isSessionMsg() {}

type Leave struct{ ClientID string }

func (Leave) isSessionMsg() {}

// FromClient carries a decoded command, or the error decoding it.
type FromClient struct {
	ClientID string
	Cmd      auction.Command
	Err      error
}

func (FromClient) isSessionMsg() {}

// SettingsChanged reports settings read from the store outside a command.
type SettingsChanged struct {
	Setting models.AuctionSetting
}

func (SettingsChanged) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

// View is a consistent read of the session.
type View struct {
	Version    int64
	NumClients int
	State      auction.State
	Snapshot   protocol.Snapshot
}

// Config holds the session collaborators.
type Config struct {
	Store          Store
	Events         EventSink
	Clock          clockwork.Clock
	PersistTimeout time.Duration
	InboxSize      int
}

func DefaultConfig(store Store) Config {
	return Config{
		Store:          store,
		Events:         discardSink{},
		Clock:          clockwork.NewRealClock(),
		PersistTimeout: 5 * time.Second,
		InboxSize:      64,
	}
}

type client struct {
	isAdmin bool
	outbox  chan []byte
}

// Session owns the auction state. Only its loop goroutine touches state,
// version and clients.
type Session struct {
	inbox   chan Msg
	state   auction.State
	version int64
	clients map[string]*client
	regOpen bool

	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New starts a session over initial at the given version.
func New(parent context.Context, initial auction.State, version int64, cfg Config) *Session {
	if cfg.Events == nil {
		cfg.Events = discardSink{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 5 * time.Second
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 64
	}

	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		inbox:   make(chan Msg, cfg.InboxSize),
		state:   initial,
		version: version,
		clients: make(map[string]*client),
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.regOpen = initial.Settings.RegistrationActive(cfg.Clock.Now())

	go s.loop()
	return s
}

// Done is closed when the loop exits.
func (s *Session) Done() <-chan struct{} { return s.done }

// Send delivers m unless ctx is cancelled or the session stopped.
func (s *Session) Send(ctx context.Context, m Msg) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.inbox <- m:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View asks the loop for a consistent read.
func (s *Session) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := s.Send(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (s *Session) loop() {
	defer close(s.done)
	log.Info().Int64("version", s.version).Msg("auction session started")

	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				s.join(msg)
			case Leave:
				s.drop(msg.ClientID)
			case FromClient:
				s.handleCommand(msg)
			case SettingsChanged:
				s.handleSettings(msg.Setting)
			case GetState:
				msg.Reply <- View{
					Version:    s.version,
					NumClients: len(s.clients),
					State:      s.state,
					Snapshot:   s.snapshot(),
				}
			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) join(msg Join) {
	if old, ok := s.clients[msg.ClientID]; ok {
		close(old.outbox)
	}
	c := &client{isAdmin: msg.IsAdmin, outbox: msg.Outbox}
	s.clients[msg.ClientID] = c

	s.send(msg.ClientID, c, protocol.EventIsAdmin, protocol.IsAdminPayload{IsAdmin: msg.IsAdmin})
	s.send(msg.ClientID, c, protocol.EventPlayersData, s.snapshot())

	log.Debug().
		Str("client_id", msg.ClientID).
		Bool("is_admin", msg.IsAdmin).
		Int("clients", len(s.clients)).
		Msg("client joined auction")
}

func (s *Session) handleCommand(msg FromClient) {
	c, ok := s.clients[msg.ClientID]
	if !ok {
		log.Warn().Str("client_id", msg.ClientID).Msg("command from unknown client ignored")
		return
	}
	if !c.isAdmin {
		s.reject(msg.ClientID, c, msg.Cmd, auctionerr.ErrUnauthorized)
		return
	}
	if msg.Err != nil {
		s.reject(msg.ClientID, c, msg.Cmd, msg.Err)
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.PersistTimeout)
	defer cancel()

	settings, err := s.cfg.Store.GetSettings(ctx)
	if err != nil {
		log.Error().Err(err).Str("command", string(msg.Cmd.Type)).Msg("failed to load settings")
		s.reject(msg.ClientID, c, msg.Cmd, err)
		return
	}
	base := s.state
	base.Settings = settings

	out, err := auction.Apply(base, msg.Cmd, s.cfg.Clock.Now())
	if err != nil {
		log.Debug().Err(err).Str("command", string(msg.Cmd.Type)).Msg("command rejected")
		s.reject(msg.ClientID, c, msg.Cmd, err)
		return
	}

	version := s.version
	if msg.Cmd.Type.Mutating() {
		version++
		m := Mutation{Players: out.Changed, Session: out.State.Record(version)}
		m.Session.UpdatedAt = s.cfg.Clock.Now()
		if out.SettingsChanged {
			st := out.State.Settings
			m.Settings = &st
		}
		if err := s.cfg.Store.Persist(ctx, m); err != nil {
			log.Error().Err(err).Str("command", string(msg.Cmd.Type)).Msg("failed to persist command")
			s.reject(msg.ClientID, c, msg.Cmd, err)
			return
		}
	}

	s.state = out.State
	s.version = version
	s.regOpen = s.state.Settings.RegistrationActive(s.cfg.Clock.Now())
	s.broadcast(protocol.BroadcastEvent(out.Change), s.snapshot())

	if len(out.Events) > 0 {
		s.cfg.Events.Publish(out.Events)
	}

	log.Info().
		Str("command", string(msg.Cmd.Type)).
		Int64("version", s.version).
		Int("changed_players", len(out.Changed)).
		Msg("command applied")
}

func (s *Session) handleSettings(setting models.AuctionSetting) {
	// the store keeps microseconds, commands stamp nanoseconds
	held := s.state.Settings.UpdatedAt.Truncate(time.Microsecond)
	if setting.UpdatedAt.Before(held) {
		log.Debug().
			Time("reloaded_at", setting.UpdatedAt).
			Time("held_at", s.state.Settings.UpdatedAt).
			Msg("stale settings reload ignored")
		return
	}

	now := s.cfg.Clock.Now()
	regOpen := setting.RegistrationActive(now)

	switch {
	case !setting.SameLimits(s.state.Settings):
		next := s.state
		next.Settings = setting
		version := s.version + 1

		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.PersistTimeout)
		defer cancel()
		m := Mutation{Session: next.Record(version)}
		m.Session.UpdatedAt = now
		if err := s.cfg.Store.Persist(ctx, m); err != nil {
			log.Error().Err(err).Msg("failed to persist settings reload")
			return
		}

		s.state = next
		s.version = version
		s.regOpen = regOpen
		s.broadcast(protocol.EventNewBid, s.snapshot())
		log.Info().Int64("version", s.version).Msg("auction settings reloaded")
	case regOpen != s.regOpen:
		s.regOpen = regOpen
		s.broadcast(protocol.EventAuctionSetting, protocol.SettingPayload{
			AuctionSetting:   s.state.Settings,
			RegistrationOpen: regOpen,
		})
	}
}

func (s *Session) snapshot() protocol.Snapshot {
	return protocol.NewSnapshot(s.state, s.version, s.cfg.Clock.Now())
}

func (s *Session) reject(clientID string, c *client, cmd auction.Command, err error) {
	event, payload := protocol.Rejection(cmd, err)
	s.send(clientID, c, event, payload)
}

// send delivers to a single client, dropping it if its outbox is full.
func (s *Session) send(clientID string, c *client, event protocol.EventName, data any) {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("event", string(event)).Msg("failed to encode frame")
		return
	}
	select {
	case c.outbox <- frame:
	default:
		log.Warn().Str("client_id", clientID).Msg("client outbox full, dropping client")
		s.drop(clientID)
	}
}

// broadcast encodes once and delivers the same frame to every client.
func (s *Session) broadcast(event protocol.EventName, data any) {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("event", string(event)).Msg("failed to encode broadcast")
		return
	}
	for id, c := range s.clients {
		select {
		case c.outbox <- frame:
		default:
			log.Warn().Str("client_id", id).Msg("client outbox full, dropping client")
			s.drop(id)
		}
	}
	log.Debug().
		Str("event", string(event)).
		Int64("version", s.version).
		Int("clients", len(s.clients)).
		Msg("state broadcast")
}

func (s *Session) drop(clientID string) {
	c, ok := s.clients[clientID]
	if !ok {
		return
	}
	close(c.outbox)
	delete(s.clients, clientID)
}

func (s *Session) shutdown() {
	for id := range s.clients {
		s.drop(id)
	}
	s.cancel()
	log.Info().Msg("auction session stopped")
}
