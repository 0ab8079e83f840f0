package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/playerauction/go/internal/models"
)

func TestReadJSON_Players(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"playerNumber": 7, "name": "Keeper", "attributes": {"wicketKeeper": true}},
		{"playerNumber": 1, "name": "Skipper", "type": "Captain"}
	]`), 0o600))

	var players []models.Player
	require.NoError(t, readJSON(path, &players))
	require.Len(t, players, 2)
	assert.True(t, players[0].Attributes.WicketKeeper)
	assert.Equal(t, models.PlayerTypeCaptain, players[1].Type)

	assert.Error(t, readJSON(filepath.Join(t.TempDir(), "missing.json"), &players))
}

func TestNormalizePlayers(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	team := uuid.New()
	in := []models.Player{
		{Number: 1, Name: "A"},
		models.Player{Number: 2, Name: "B", Type: models.PlayerTypeIconPlayer}.SellTo(team, 9),
	}

	out, err := normalizePlayers(in, now)
	require.NoError(t, err)
	assert.Equal(t, models.PlayerTypePlayer, out[0].Type)
	assert.Equal(t, models.PlayerTypeIconPlayer, out[1].OriginalType)
	assert.False(t, out[1].Sold())
	assert.Equal(t, now, out[0].CreatedAt)

	// ids are stable across runs
	again, err := normalizePlayers([]models.Player{{Number: 1, Name: "A"}}, now)
	require.NoError(t, err)
	assert.Equal(t, out[0].ID, again[0].ID)
	assert.NotEqual(t, out[0].ID, out[1].ID)
}

func TestNormalizePlayers_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		players []models.Player
	}{
		{"missing number", []models.Player{{Name: "A"}}},
		{"duplicate number", []models.Player{{Number: 1}, {Number: 1}}},
		{"unknown type", []models.Player{{Number: 1, Type: "Coach"}}},
		{"unsold type", []models.Player{{Number: 1, Type: models.PlayerTypeUnsold}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := normalizePlayers(tt.players, time.Now())
			assert.Error(t, err)
		})
	}
}

func TestNormalizeTeams(t *testing.T) {
	now := time.Now().UTC()

	out, err := normalizeTeams([]models.Team{{Name: " Strikers "}, {Name: "Titans"}}, now)
	require.NoError(t, err)
	assert.Equal(t, "Strikers", out[0].Name)
	assert.NotEqual(t, uuid.Nil, out[0].ID)

	_, err = normalizeTeams([]models.Team{{Name: "Titans"}, {Name: "titans"}}, now)
	assert.Error(t, err)

	_, err = normalizeTeams([]models.Team{{Name: "  "}}, now)
	assert.Error(t, err)
}

func TestBundledAssets(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assets := filepath.Join("..", "..", "assets")

	var teams []models.Team
	require.NoError(t, readJSON(filepath.Join(assets, "teams.json"), &teams))
	teams, err := normalizeTeams(teams, now)
	require.NoError(t, err)
	assert.Len(t, teams, 4)

	var players []models.Player
	require.NoError(t, readJSON(filepath.Join(assets, "players.json"), &players))
	players, err = normalizePlayers(players, now)
	require.NoError(t, err)
	assert.Len(t, players, 12)
	assert.Equal(t, models.PlayerTypeCaptain, players[0].Type)

	s, err := loadSettings(filepath.Join(assets, "settings.json"), now)
	require.NoError(t, err)
	assert.Equal(t, 2, s.ReservePlayersPerTeam)
	assert.Equal(t, 100, s.Purse())
	assert.Equal(t, now, s.UpdatedAt)
}
