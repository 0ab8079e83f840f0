package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/playerauction/go/internal/models"
)

// seedNamespace keeps generated ids stable so re-running the seed updates
// rows instead of duplicating them.
var seedNamespace = uuid.MustParse("6f1c8d2e-3b7a-4c55-9e21-0d4a7f6b8c10")

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return nil
}

func normalizeTeams(teams []models.Team, now time.Time) ([]models.Team, error) {
	seen := make(map[string]bool, len(teams))
	for i := range teams {
		t := &teams[i]
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			return nil, fmt.Errorf("team %d has no name", i)
		}
		key := strings.ToLower(t.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate team %q", t.Name)
		}
		seen[key] = true

		if t.ID == uuid.Nil {
			t.ID = uuid.NewSHA1(seedNamespace, []byte("team:"+key))
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
	}
	return teams, nil
}

// normalizePlayers validates numbers and types. Seeded players start
// unauctioned regardless of what the file says.
func normalizePlayers(players []models.Player, now time.Time) ([]models.Player, error) {
	seen := make(map[int]bool, len(players))
	for i := range players {
		p := &players[i]
		if p.Number <= 0 {
			return nil, fmt.Errorf("player %q has no player number", p.Name)
		}
		if seen[p.Number] {
			return nil, fmt.Errorf("duplicate player number %d", p.Number)
		}
		seen[p.Number] = true

		if p.Type == "" {
			p.Type = models.PlayerTypePlayer
		}
		if !p.Type.Valid() || p.Type == models.PlayerTypeUnsold {
			return nil, fmt.Errorf("player %d has invalid type %q", p.Number, p.Type)
		}
		p.OriginalType = p.Type
		*p = p.ClearSale()

		if p.ID == uuid.Nil {
			p.ID = uuid.NewSHA1(seedNamespace, []byte("player:"+strconv.Itoa(p.Number)))
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
	}
	return players, nil
}

// loadSettings reads and validates a settings file, stamping it with now.
func loadSettings(path string, now time.Time) (models.AuctionSetting, error) {
	var s models.AuctionSetting
	if err := readJSON(path, &s); err != nil {
		return s, err
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	s.UpdatedAt = now
	return s, nil
}
