// Package auction implements the authoritative state machine of a live
// player auction.
package auction

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/playerauction/go/internal/auction/auctionerr"
	"github.com/mcdev12/playerauction/go/internal/auction/events"
	"github.com/mcdev12/playerauction/go/internal/models"
)

// Outcome is the result of a successful command.
type Outcome struct {
	State State
	// Changed holds the player records that must be persisted.
	Changed         []models.Player
	SettingsChanged bool
	Change          Change
	Events          []events.Event
}

// Apply validates cmd against s and returns the next state. On error s is
// untouched and the returned Outcome is empty.
func Apply(s State, cmd Command, now time.Time) (Outcome, error) {
	if s.byID == nil {
		return Outcome{}, errors.New("auction state not initialised")
	}
	next := s.Clone()

	switch cmd.Type {
	case CmdSelectNext:
		return selectNext(next, now)
	case CmdSelectByNumber:
		return selectByNumber(next, cmd.PlayerNumber, now)
	case CmdRaiseBid:
		return raiseBid(next, cmd.TeamID, now)
	case CmdUndoBid:
		return undoBid(next, now)
	case CmdSellBid:
		return sellBid(next, cmd.TeamID, now)
	case CmdUnsoldBid:
		return unsoldBid(next, now)
	case CmdResetSinglePlayer:
		return resetSinglePlayer(next, cmd.PlayerID, now)
	case CmdResetAllUnsold, CmdResetPlayersAndAmounts, CmdResetCaptains, CmdResetIconPlayers:
		return resetBulk(next, cmd.Type, now)
	case CmdResumeBid:
		return Outcome{State: s, Change: ChangeNone}, nil
	case CmdUpdateSetting:
		return updateSetting(next, cmd.Setting, now)
	default:
		return Outcome{}, fmt.Errorf("unknown command %q: %w", cmd.Type, auctionerr.ErrInvalid)
	}
}

func selectNext(s State, now time.Time) (Outcome, error) {
	if !s.Ledger.Empty() {
		return Outcome{}, fmt.Errorf("bids open on current player: %w", auctionerr.ErrConflict)
	}
	id, ok := s.index.Next(s.Current)
	if !ok {
		return Outcome{}, auctionerr.ErrListComplete
	}
	return putOnBlock(s, id, now), nil
}

func selectByNumber(s State, number int, now time.Time) (Outcome, error) {
	if !s.Ledger.Empty() {
		return Outcome{}, fmt.Errorf("bids open on current player: %w", auctionerr.ErrConflict)
	}
	id, ok := s.index.Lookup(number)
	if !ok {
		return Outcome{}, fmt.Errorf("player number %d: %w", number, auctionerr.ErrNotFound)
	}
	return putOnBlock(s, id, now), nil
}

func putOnBlock(s State, id uuid.UUID, now time.Time) Outcome {
	s.Current = &id
	s.Ledger = s.Ledger.Clear()
	s.settle()

	p, _ := s.Player(id)
	return Outcome{
		State:  s,
		Change: ChangeSelection,
		Events: []events.Event{{
			Type: events.PlayerOnBlock,
			Payload: events.PlayerOnBlockPayload{
				PlayerID:     p.ID.String(),
				PlayerNumber: p.Number,
				PlayerName:   p.Name,
				ReviewOnly:   s.Phase == models.PhaseReview,
				SelectedAt:   now,
			},
		}},
	}
}

func raiseBid(s State, teamID uuid.UUID, now time.Time) (Outcome, error) {
	if _, ok := s.Team(teamID); !ok {
		return Outcome{}, fmt.Errorf("team %s: %w", teamID, auctionerr.ErrNotFound)
	}
	if s.Phase != models.PhaseOnBlock {
		return Outcome{}, fmt.Errorf("no player open for bidding: %w", auctionerr.ErrIneligible)
	}

	raised, err := s.Ledger.Raise(teamID, s.TeamPurse(teamID), s.Settings)
	if err != nil {
		return Outcome{}, err
	}
	s.Ledger = raised

	return Outcome{
		State:  s,
		Change: ChangeBid,
		Events: []events.Event{{
			Type: events.BidRaised,
			Payload: events.BidRaisedPayload{
				PlayerID: s.Current.String(),
				TeamID:   teamID.String(),
				Amount:   raised.Current(),
				BidCount: raised.Len(),
				RaisedAt: now,
			},
		}},
	}, nil
}

func undoBid(s State, now time.Time) (Outcome, error) {
	if s.Phase != models.PhaseOnBlock || s.Ledger.Empty() {
		return Outcome{}, fmt.Errorf("no bid to undo: %w", auctionerr.ErrConflict)
	}
	removedTeam, _ := s.Ledger.Leader()
	removedAmount := s.Ledger.Current()
	s.Ledger = s.Ledger.Undo()

	return Outcome{
		State:  s,
		Change: ChangeBid,
		Events: []events.Event{{
			Type: events.BidUndone,
			Payload: events.BidUndonePayload{
				PlayerID:      s.Current.String(),
				RemovedTeamID: removedTeam.String(),
				RemovedAmount: removedAmount,
				CurrentAmount: s.Ledger.Current(),
				UndoneAt:      now,
			},
		}},
	}, nil
}

func sellBid(s State, teamID uuid.UUID, now time.Time) (Outcome, error) {
	if s.Phase != models.PhaseOnBlock || s.Ledger.Empty() {
		return Outcome{}, fmt.Errorf("no open bid to sell: %w", auctionerr.ErrSellError)
	}
	leader, _ := s.Ledger.Leader()
	if leader != teamID {
		return Outcome{}, fmt.Errorf("team %s is not the leading bidder: %w", teamID, auctionerr.ErrSellError)
	}

	amount := s.Ledger.Current()
	bids := s.Ledger.Len()
	p, _ := s.Player(*s.Current)
	sold := p.SellTo(teamID, amount)
	s.setPlayer(sold)

	s.LastResult = &models.LotResult{
		PlayerID: sold.ID,
		Outcome:  models.LotSold,
		TeamID:   sold.TeamID,
		Amount:   sold.FinalPrice,
		At:       now,
	}
	closeLot(&s)

	team, _ := s.Team(teamID)
	return Outcome{
		State:   s,
		Changed: []models.Player{sold},
		Change:  ChangeLot,
		Events: []events.Event{{
			Type: events.PlayerSold,
			Payload: events.PlayerSoldPayload{
				PlayerID:     sold.ID.String(),
				PlayerNumber: sold.Number,
				PlayerName:   sold.Name,
				TeamID:       teamID.String(),
				TeamName:     team.Name,
				FinalPrice:   amount,
				BidCount:     bids,
				SoldAt:       now,
			},
		}},
	}, nil
}

func unsoldBid(s State, now time.Time) (Outcome, error) {
	if s.Phase != models.PhaseOnBlock {
		return Outcome{}, fmt.Errorf("no player open for bidding: %w", auctionerr.ErrConflict)
	}
	if !s.Ledger.Empty() {
		return Outcome{}, fmt.Errorf("undo %d bids before marking unsold: %w", s.Ledger.Len(), auctionerr.ErrConflict)
	}

	p, _ := s.Player(*s.Current)
	p.OriginalType = p.Type
	p.Type = models.PlayerTypeUnsold
	s.setPlayer(p)

	s.LastResult = &models.LotResult{PlayerID: p.ID, Outcome: models.LotUnsold, At: now}
	closeLot(&s)

	return Outcome{
		State:   s,
		Changed: []models.Player{p},
		Change:  ChangeLot,
		Events: []events.Event{{
			Type: events.PlayerUnsold,
			Payload: events.PlayerUnsoldPayload{
				PlayerID:     p.ID.String(),
				PlayerNumber: p.Number,
				PlayerName:   p.Name,
				MarkedAt:     now,
			},
		}},
	}, nil
}

func closeLot(s *State) {
	s.Current = nil
	s.Ledger = s.Ledger.Clear()
	s.settle()
}

// resetPlayer returns p with its auction outcome undone and whether
// anything changed.
func resetPlayer(p models.Player) (models.Player, bool) {
	changed := false
	if p.Sold() {
		p = p.ClearSale()
		changed = true
	}
	if p.Type == models.PlayerTypeUnsold {
		p.Type = p.RestoreType()
		p.OriginalType = ""
		changed = true
	}
	return p, changed
}

func resetSinglePlayer(s State, id uuid.UUID, now time.Time) (Outcome, error) {
	p, ok := s.Player(id)
	if !ok {
		return Outcome{}, fmt.Errorf("player %s: %w", id, auctionerr.ErrNotFound)
	}
	if s.Current != nil && *s.Current == id && !s.Ledger.Empty() {
		return Outcome{}, fmt.Errorf("player %s has open bids: %w", id, auctionerr.ErrConflict)
	}

	reset, changed := resetPlayer(p)
	out := Outcome{Change: ChangeReset}
	if changed {
		s.setPlayer(reset)
		out.Changed = []models.Player{reset}
		if s.LastResult != nil && s.LastResult.PlayerID == id {
			s.LastResult = nil
		}
		s.settle()
	}
	out.State = s
	out.Events = []events.Event{{
		Type:    events.PlayerReset,
		Payload: events.PlayerResetPayload{PlayerID: id.String(), Changed: changed, ResetAt: now},
	}}
	return out, nil
}

// resetScope selects the players a bulk reset applies to.
func resetScope(cmd CommandType) func(models.Player) bool {
	switch cmd {
	case CmdResetAllUnsold:
		return func(p models.Player) bool { return p.Type == models.PlayerTypeUnsold }
	case CmdResetPlayersAndAmounts:
		return func(p models.Player) bool { return p.Type == models.PlayerTypePlayer && p.Sold() }
	case CmdResetCaptains:
		return func(p models.Player) bool { return p.Type == models.PlayerTypeCaptain && p.Sold() }
	case CmdResetIconPlayers:
		return func(p models.Player) bool { return p.Type == models.PlayerTypeIconPlayer && p.Sold() }
	}
	return func(models.Player) bool { return false }
}

func resetBulk(s State, cmd CommandType, now time.Time) (Outcome, error) {
	if !s.Ledger.Empty() {
		return Outcome{}, fmt.Errorf("bids open on current player: %w", auctionerr.ErrConflict)
	}

	match := resetScope(cmd)
	var changed []models.Player
	for _, p := range s.Players {
		if !match(p) {
			continue
		}
		reset, ok := resetPlayer(p)
		if !ok {
			continue
		}
		s.setPlayer(reset)
		changed = append(changed, reset)
		if s.LastResult != nil && s.LastResult.PlayerID == p.ID {
			s.LastResult = nil
		}
	}
	s.settle()

	return Outcome{
		State:   s,
		Changed: changed,
		Change:  ChangeReset,
		Events: []events.Event{{
			Type:    events.PlayersReset,
			Payload: events.PlayersResetPayload{Scope: string(cmd), Count: len(changed), ResetAt: now},
		}},
	}, nil
}

func updateSetting(s State, setting *models.AuctionSetting, now time.Time) (Outcome, error) {
	if setting == nil {
		return Outcome{}, fmt.Errorf("missing setting data: %w", auctionerr.ErrInvalid)
	}
	if err := setting.Validate(); err != nil {
		return Outcome{}, fmt.Errorf("invalid setting: %v: %w", err, auctionerr.ErrInvalid)
	}
	if !s.Ledger.Empty() {
		return Outcome{}, fmt.Errorf("bids open on current player: %w", auctionerr.ErrConflict)
	}

	updated := *setting
	updated.UpdatedAt = now
	s.Settings = updated

	return Outcome{
		State:           s,
		SettingsChanged: true,
		Change:          ChangeSettings,
		Events: []events.Event{{
			Type: events.SettingsUpdated,
			Payload: events.SettingsUpdatedPayload{
				MaxPlayersPerTeam:     updated.MaxPlayersPerTeam,
				ReservePlayersPerTeam: updated.ReservePlayersPerTeam,
				StartBid:              updated.StartBid,
				BidIncrement:          updated.BidIncrement,
				TotalPurse:            updated.Purse(),
				UpdatedAt:             now,
			},
		}},
	}, nil
}
