package repository

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/playerauction/go/internal/auction/session"
	"github.com/mcdev12/playerauction/go/internal/models"
	"github.com/mcdev12/playerauction/go/internal/sqlutil"
)

//go:embed schema.sql
var schema string

// Repository is the Postgres store behind the auction session.
type Repository struct {
	pool    *pgxpool.Pool
	queries *queries
}

var _ session.Store = (*Repository)(nil)

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool:    pool,
		queries: &queries{db: pool},
	}
}

// EnsureSchema creates the auction tables and the settings notify trigger.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// EnsureSettings writes defaults unless a settings row already exists.
func (r *Repository) EnsureSettings(ctx context.Context, defaults models.AuctionSetting) error {
	if _, err := r.pool.Exec(ctx, insertSettingsIfMissing, settingsArgs(defaults)...); err != nil {
		return fmt.Errorf("failed to ensure settings: %w", err)
	}
	return nil
}

func (r *Repository) ListPlayers(ctx context.Context) ([]models.Player, error) {
	players, err := r.queries.listPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

func (r *Repository) ListTeams(ctx context.Context) ([]models.Team, error) {
	teams, err := r.queries.listTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

func (r *Repository) GetSettings(ctx context.Context) (models.AuctionSetting, error) {
	s, err := r.queries.getSettings(ctx)
	if err != nil {
		return s, fmt.Errorf("failed to get settings: %w", err)
	}
	return s, nil
}

func (r *Repository) SaveSettings(ctx context.Context, s models.AuctionSetting) error {
	if err := r.queries.upsertSettings(ctx, s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context) (*models.SessionRecord, error) {
	rec, err := r.queries.getSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return rec, nil
}

// Persist writes changed players, settings and the session row in one transaction.
func (r *Repository) Persist(ctx context.Context, m session.Mutation) error {
	err := sqlutil.Run(ctx, r.pool, newQueries, func(q *queries) error {
		for _, p := range m.Players {
			if err := q.updatePlayerOutcome(ctx, p); err != nil {
				return fmt.Errorf("update player %d: %w", p.Number, err)
			}
		}
		if m.Settings != nil {
			if err := q.upsertSettings(ctx, *m.Settings); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
		}
		return q.upsertSession(ctx, m.Session)
	})
	if err != nil {
		return fmt.Errorf("failed to persist auction mutation: %w", err)
	}
	return nil
}

// SeedTeams inserts or updates teams in one transaction.
func (r *Repository) SeedTeams(ctx context.Context, teams []models.Team) error {
	return sqlutil.Run(ctx, r.pool, newQueries, func(q *queries) error {
		for _, t := range teams {
			if err := q.upsertTeam(ctx, t); err != nil {
				return fmt.Errorf("failed to seed team %s: %w", t.Name, err)
			}
		}
		return nil
	})
}

// SeedPlayers inserts or updates players in one transaction.
func (r *Repository) SeedPlayers(ctx context.Context, players []models.Player) error {
	return sqlutil.Run(ctx, r.pool, newQueries, func(q *queries) error {
		for _, p := range players {
			if err := q.upsertPlayer(ctx, p); err != nil {
				return fmt.Errorf("failed to seed player %d: %w", p.Number, err)
			}
		}
		return nil
	})
}
