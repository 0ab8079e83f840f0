// Package purse derives per-team budget figures from the current rosters.
package purse

import (
	"github.com/google/uuid"

	"github.com/mcdev12/playerauction/go/internal/models"
)

// Stats is the derived budget view of one team.
type Stats struct {
	TeamID               uuid.UUID `json:"team"`
	PlayersCount         int       `json:"playersCount"`
	PlayerTypeCount      int       `json:"playerTypeCount"`
	TotalSpend           int       `json:"totalSpend"`
	ReservePlayersNeeded int       `json:"reservePlayersNeeded"`
	ReserveBalance       int       `json:"reserveBalance"`
	AvailableBalance     int       `json:"availableBalance"`
	MaxBidAmount         int       `json:"maxBidAmount"`
	RosterFull           bool      `json:"rosterFull"`
}

// Compute derives the purse figures for teamID. It is pure and never fails.
// Negative limits are treated as zero.
func Compute(players []models.Player, teamID uuid.UUID, settings models.AuctionSetting) Stats {
	maxPlayers := nonNegative(settings.MaxPlayersPerTeam)
	reserve := nonNegative(settings.ReservePlayersPerTeam)
	startBid := nonNegative(settings.StartBid)

	st := Stats{TeamID: teamID}
	for _, p := range players {
		if !p.OwnedBy(teamID) {
			continue
		}
		if p.FinalPrice != nil {
			st.TotalSpend += *p.FinalPrice
		}
		if p.Type.CountsTowardRoster() {
			st.PlayersCount++
		}
		if p.Type == models.PlayerTypePlayer {
			st.PlayerTypeCount++
		}
	}

	st.ReservePlayersNeeded = nonNegative(maxPlayers - reserve - st.PlayerTypeCount)
	st.ReserveBalance = st.ReservePlayersNeeded * startBid
	st.AvailableBalance = settings.Purse() - st.ReserveBalance - st.TotalSpend
	st.RosterFull = st.PlayersCount >= maxPlayers

	switch {
	case st.RosterFull:
		st.MaxBidAmount = 0
	case st.AvailableBalance > 0:
		st.MaxBidAmount = st.AvailableBalance + startBid
	default:
		st.MaxBidAmount = startBid
	}
	return st
}

// ComputeAll derives stats for every team, in team order.
func ComputeAll(players []models.Player, teams []models.Team, settings models.AuctionSetting) []Stats {
	out := make([]Stats, 0, len(teams))
	for _, t := range teams {
		out = append(out, Compute(players, t.ID, settings))
	}
	return out
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
