package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/playerauction/go/internal/auction/session"
	"github.com/mcdev12/playerauction/go/internal/models"
)

// newTestRepository connects to AUCTION_TEST_DATABASE_URL and resets the
// auction tables. Tests are skipped when it is not set.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("AUCTION_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("AUCTION_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewRepository(pool)
	require.NoError(t, repo.EnsureSchema(ctx))
	_, err = pool.Exec(ctx, `TRUNCATE auction_session, auction_settings, players, teams`)
	require.NoError(t, err)
	return repo
}

func TestRepository_PersistAndRestore(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	team := models.Team{ID: uuid.New(), Name: "Strikers", CreatedAt: now}
	p1 := models.Player{ID: uuid.New(), Number: 1, Name: "Opener", Type: models.PlayerTypePlayer, CreatedAt: now}
	p2 := models.Player{ID: uuid.New(), Number: 2, Name: "Keeper", Type: models.PlayerTypePlayer, CreatedAt: now}
	p2.Attributes.WicketKeeper = true

	require.NoError(t, repo.SeedTeams(ctx, []models.Team{team}))
	require.NoError(t, repo.SeedPlayers(ctx, []models.Player{p1, p2}))
	require.NoError(t, repo.EnsureSettings(ctx, models.AuctionSetting{
		MaxPlayersPerTeam: 11, ReservePlayersPerTeam: 1, StartBid: 1, BidIncrement: 1, UpdatedAt: now,
	}))

	sold := p1.SellTo(team.ID, 7)
	err := repo.Persist(ctx, session.Mutation{
		Players: []models.Player{sold},
		Session: models.SessionRecord{
			Phase:           models.PhaseOnBlock,
			CurrentPlayerID: &p2.ID,
			Ledger:          []models.BidEntry{{TeamID: team.ID, Amount: 1}},
			Version:         5,
			UpdatedAt:       now,
		},
	})
	require.NoError(t, err)

	state, version, err := session.Restore(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, int64(5), version)
	assert.Equal(t, models.PhaseOnBlock, state.Phase)
	assert.Equal(t, 1, state.Ledger.Len())

	got, ok := state.Player(p1.ID)
	require.True(t, ok)
	require.NotNil(t, got.FinalPrice)
	assert.Equal(t, 7, *got.FinalPrice)

	keeper, _ := state.Player(p2.ID)
	assert.True(t, keeper.Attributes.WicketKeeper)
	assert.Equal(t, models.DefaultTotalPurse, state.Settings.Purse())
}

func TestRepository_PersistRollsBackUnknownPlayer(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.Persist(ctx, session.Mutation{
		Players: []models.Player{{ID: uuid.New(), Number: 9, Type: models.PlayerTypeUnsold}},
		Session: models.SessionRecord{Phase: models.PhaseIdle, Version: 1},
	})
	require.ErrorIs(t, err, ErrNotFound)

	rec, err := repo.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRepository_GetSettingsBeforeInit(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetSettings(context.Background())
	require.ErrorIs(t, err, ErrNoSettings)
}
