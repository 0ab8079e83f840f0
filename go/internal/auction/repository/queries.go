package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mcdev12/playerauction/go/internal/models"
)

// dbtx is satisfied by *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	db dbtx
}

func newQueries(tx pgx.Tx) *queries {
	return &queries{db: tx}
}

const listTeams = `
SELECT id, name, owner, logo_url, created_at
FROM teams
ORDER BY created_at, name`

func (q *queries) listTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := q.db.Query(ctx, listTeams)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Owner, &t.LogoURL, &t.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

const listPlayers = `
SELECT id, player_number, name, photo_url, bat, bowl, wicket_keeper,
       type, original_type, team_id, final_price, created_at
FROM players
ORDER BY player_number`

func (q *queries) listPlayers(ctx context.Context) ([]models.Player, error) {
	rows, err := q.db.Query(ctx, listPlayers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var (
			p            models.Player
			typ, origTyp string
		)
		if err := rows.Scan(
			&p.ID, &p.Number, &p.Name, &p.PhotoURL,
			&p.Attributes.Bat, &p.Attributes.Bowl, &p.Attributes.WicketKeeper,
			&typ, &origTyp, &p.TeamID, &p.FinalPrice, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		p.Type = models.PlayerType(typ)
		p.OriginalType = models.PlayerType(origTyp)
		players = append(players, p)
	}
	return players, rows.Err()
}

const updatePlayerOutcome = `
UPDATE players
SET type = $2, original_type = $3, team_id = $4, final_price = $5
WHERE id = $1`

func (q *queries) updatePlayerOutcome(ctx context.Context, p models.Player) error {
	tag, err := q.db.Exec(ctx, updatePlayerOutcome,
		p.ID, string(p.Type), string(p.OriginalType), p.TeamID, p.FinalPrice)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("player %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

const upsertPlayer = `
INSERT INTO players (id, player_number, name, photo_url, bat, bowl, wicket_keeper,
                     type, original_type, team_id, final_price, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE
SET player_number = EXCLUDED.player_number,
    name          = EXCLUDED.name,
    photo_url     = EXCLUDED.photo_url,
    bat           = EXCLUDED.bat,
    bowl          = EXCLUDED.bowl,
    wicket_keeper = EXCLUDED.wicket_keeper,
    type          = EXCLUDED.type,
    original_type = EXCLUDED.original_type,
    team_id       = EXCLUDED.team_id,
    final_price   = EXCLUDED.final_price`

func (q *queries) upsertPlayer(ctx context.Context, p models.Player) error {
	_, err := q.db.Exec(ctx, upsertPlayer,
		p.ID, p.Number, p.Name, p.PhotoURL,
		p.Attributes.Bat, p.Attributes.Bowl, p.Attributes.WicketKeeper,
		string(p.Type), string(p.OriginalType), p.TeamID, p.FinalPrice, p.CreatedAt)
	return err
}

const upsertTeam = `
INSERT INTO teams (id, name, owner, logo_url, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name, owner = EXCLUDED.owner, logo_url = EXCLUDED.logo_url`

func (q *queries) upsertTeam(ctx context.Context, t models.Team) error {
	_, err := q.db.Exec(ctx, upsertTeam, t.ID, t.Name, t.Owner, t.LogoURL, t.CreatedAt)
	return err
}

const getSettings = `
SELECT max_players_per_team, reserve_players_per_team, start_bid, bid_increment,
       total_purse, registration_open, registration_closes_at, updated_at
FROM auction_settings
WHERE id = 1`

func (q *queries) getSettings(ctx context.Context) (models.AuctionSetting, error) {
	var s models.AuctionSetting
	err := q.db.QueryRow(ctx, getSettings).Scan(
		&s.MaxPlayersPerTeam, &s.ReservePlayersPerTeam, &s.StartBid, &s.BidIncrement,
		&s.TotalPurse, &s.RegistrationOpen, &s.RegistrationClosesAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, ErrNoSettings
	}
	return s, err
}

const upsertSettings = `
INSERT INTO auction_settings (id, max_players_per_team, reserve_players_per_team, start_bid,
                              bid_increment, total_purse, registration_open, registration_closes_at, updated_at)
VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE
SET max_players_per_team     = EXCLUDED.max_players_per_team,
    reserve_players_per_team = EXCLUDED.reserve_players_per_team,
    start_bid                = EXCLUDED.start_bid,
    bid_increment            = EXCLUDED.bid_increment,
    total_purse              = EXCLUDED.total_purse,
    registration_open        = EXCLUDED.registration_open,
    registration_closes_at   = EXCLUDED.registration_closes_at,
    updated_at               = EXCLUDED.updated_at`

const insertSettingsIfMissing = `
INSERT INTO auction_settings (id, max_players_per_team, reserve_players_per_team, start_bid,
                              bid_increment, total_purse, registration_open, registration_closes_at, updated_at)
VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO NOTHING`

func settingsArgs(s models.AuctionSetting) []any {
	return []any{
		s.MaxPlayersPerTeam, s.ReservePlayersPerTeam, s.StartBid, s.BidIncrement,
		s.Purse(), s.RegistrationOpen, s.RegistrationClosesAt, s.UpdatedAt,
	}
}

func (q *queries) upsertSettings(ctx context.Context, s models.AuctionSetting) error {
	_, err := q.db.Exec(ctx, upsertSettings, settingsArgs(s)...)
	return err
}

const getSession = `
SELECT phase, current_player_id, ledger, last_result, version, updated_at
FROM auction_session
WHERE id = 1`

func (q *queries) getSession(ctx context.Context) (*models.SessionRecord, error) {
	var (
		rec        models.SessionRecord
		phase      string
		ledgerJSON []byte
		lastJSON   []byte
	)
	err := q.db.QueryRow(ctx, getSession).Scan(
		&phase, &rec.CurrentPlayerID, &ledgerJSON, &lastJSON, &rec.Version, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.Phase = models.AuctionPhase(phase)
	if err := json.Unmarshal(ledgerJSON, &rec.Ledger); err != nil {
		return nil, fmt.Errorf("failed to decode ledger: %w", err)
	}
	if len(lastJSON) > 0 {
		var last models.LotResult
		if err := json.Unmarshal(lastJSON, &last); err != nil {
			return nil, fmt.Errorf("failed to decode last result: %w", err)
		}
		rec.LastResult = &last
	}
	return &rec, nil
}

const upsertSession = `
INSERT INTO auction_session (id, phase, current_player_id, ledger, last_result, version, updated_at)
VALUES (1, $1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE
SET phase             = EXCLUDED.phase,
    current_player_id = EXCLUDED.current_player_id,
    ledger            = EXCLUDED.ledger,
    last_result       = EXCLUDED.last_result,
    version           = EXCLUDED.version,
    updated_at        = EXCLUDED.updated_at`

func (q *queries) upsertSession(ctx context.Context, rec models.SessionRecord) error {
	entries := rec.Ledger
	if entries == nil {
		entries = []models.BidEntry{}
	}
	ledgerJSON, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	var lastJSON []byte
	if rec.LastResult != nil {
		if lastJSON, err = json.Marshal(rec.LastResult); err != nil {
			return fmt.Errorf("failed to encode last result: %w", err)
		}
	}
	_, err = q.db.Exec(ctx, upsertSession,
		string(rec.Phase), rec.CurrentPlayerID, ledgerJSON, lastJSON, rec.Version, rec.UpdatedAt)
	return err
}
