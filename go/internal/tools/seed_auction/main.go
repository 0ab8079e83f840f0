package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/mcdev12/playerauction/go/internal/auction/repository"
	"github.com/mcdev12/playerauction/go/internal/auth"
	"github.com/mcdev12/playerauction/go/internal/dbconfig"
	"github.com/mcdev12/playerauction/go/internal/models"
)

func main() {
	teamsPath := flag.String("teams", "go/internal/assets/teams.json", "teams JSON file")
	playersPath := flag.String("players", "go/internal/assets/players.json", "players JSON file")
	settingsPath := flag.String("settings", "", "optional auction settings JSON file, e.g. go/internal/assets/settings.json")
	adminToken := flag.Duration("admin-token", 0, "also print an admin token valid for this long")
	flag.Parse()

	_ = godotenv.Load()
	ctx := context.Background()
	now := time.Now().UTC()

	// 1) Load and validate the JSON files
	var teams []models.Team
	if err := readJSON(*teamsPath, &teams); err != nil {
		fail("load teams", err)
	}
	teams, err := normalizeTeams(teams, now)
	if err != nil {
		fail("validate teams", err)
	}

	var players []models.Player
	if err := readJSON(*playersPath, &players); err != nil {
		fail("load players", err)
	}
	players, err = normalizePlayers(players, now)
	if err != nil {
		fail("validate players", err)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	poolCfg, err := cfg.PoolConfig()
	if err != nil {
		fail("database config", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		fail("connect", err)
	}
	defer pool.Close()

	repo := repository.NewRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		fail("schema", err)
	}

	// 3) Upsert
	if err := repo.SeedTeams(ctx, teams); err != nil {
		fail("seed teams", err)
	}
	if err := repo.SeedPlayers(ctx, players); err != nil {
		fail("seed players", err)
	}
	fmt.Printf("Seeded teams=%d players=%d\n", len(teams), len(players))

	if *settingsPath != "" {
		s, err := loadSettings(*settingsPath, now)
		if err != nil {
			fail("load settings", err)
		}
		if err := repo.SaveSettings(ctx, s); err != nil {
			fail("save settings", err)
		}
		fmt.Printf("Saved settings: max=%d reserve=%d start=%d increment=%d purse=%d\n",
			s.MaxPlayersPerTeam, s.ReservePlayersPerTeam, s.StartBid, s.BidIncrement, s.Purse())
	}

	if *adminToken > 0 {
		authn := auth.NewAuthenticator(auth.Config{
			Secret: os.Getenv("AUTH_JWT_SECRET"),
			Issuer: getEnv("AUTH_ISSUER", "playerauction"),
		}, nil)
		token, err := authn.Issue("auctioneer", "Auctioneer", true, *adminToken)
		if err != nil {
			fail("issue admin token", err)
		}
		fmt.Printf("Admin token: %s\n", token)
	}
}

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", step, err)
	os.Exit(1)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
