package session

import (
	"context"
	"fmt"

	"github.com/mcdev12/playerauction/go/internal/auction"
	"github.com/mcdev12/playerauction/go/internal/auction/events"
	"github.com/mcdev12/playerauction/go/internal/models"
)

// Store defines what the session needs from persistence
type Store interface {
	ListPlayers(ctx context.Context) ([]models.Player, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	GetSettings(ctx context.Context) (models.AuctionSetting, error)
	// GetSession returns nil when no session was saved yet.
	GetSession(ctx context.Context) (*models.SessionRecord, error)
	// Persist writes a command's effect atomically.
	Persist(ctx context.Context, m Mutation) error
}

// Mutation is the durable effect of one command.
type Mutation struct {
	Players  []models.Player
	Settings *models.AuctionSetting
	Session  models.SessionRecord
}

// EventSink receives domain events after they are committed. Publish must
// not block the session.
type EventSink interface {
	Publish(evts []events.Event)
}

type discardSink struct{}

func (discardSink) Publish([]events.Event) {}

// Restore loads the last persisted auction from store.
func Restore(ctx context.Context, store Store) (auction.State, int64, error) {
	players, err := store.ListPlayers(ctx)
	if err != nil {
		return auction.State{}, 0, fmt.Errorf("failed to load players: %w", err)
	}
	teams, err := store.ListTeams(ctx)
	if err != nil {
		return auction.State{}, 0, fmt.Errorf("failed to load teams: %w", err)
	}
	settings, err := store.GetSettings(ctx)
	if err != nil {
		return auction.State{}, 0, fmt.Errorf("failed to load settings: %w", err)
	}
	rec, err := store.GetSession(ctx)
	if err != nil {
		return auction.State{}, 0, fmt.Errorf("failed to load session: %w", err)
	}

	var version int64
	if rec != nil {
		version = rec.Version
	}
	return auction.NewState(players, teams, settings, rec), version, nil
}
