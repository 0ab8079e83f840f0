package auction

import (
	"sort"

	"github.com/google/uuid"

	"github.com/mcdev12/playerauction/go/internal/auction/ledger"
	"github.com/mcdev12/playerauction/go/internal/auction/purse"
	"github.com/mcdev12/playerauction/go/internal/auction/selection"
	"github.com/mcdev12/playerauction/go/internal/models"
)

// State is the authoritative auction state. Values are treated as immutable
// by everything except Apply, which works on a clone.
type State struct {
	Players    []models.Player
	Teams      []models.Team
	Settings   models.AuctionSetting
	Phase      models.AuctionPhase
	Current    *uuid.UUID
	Ledger     ledger.Ledger
	LastResult *models.LotResult

	index   *selection.Index
	byID    map[uuid.UUID]int
	teamIdx map[uuid.UUID]int
}

// TeamView is a team together with its derived purse and bid eligibility.
type TeamView struct {
	models.Team
	Purse    purse.Stats `json:"purse"`
	CanRaise bool        `json:"canRaise"`
	Leading  bool        `json:"leading"`
}

// NewState builds state from stored records. rec may be nil for a fresh
// auction. A persisted current player that no longer exists is dropped, and
// ledger entries for unknown teams are discarded.
func NewState(players []models.Player, teams []models.Team, settings models.AuctionSetting, rec *models.SessionRecord) State {
	s := State{
		Players:  append([]models.Player(nil), players...),
		Teams:    append([]models.Team(nil), teams...),
		Settings: settings,
		Phase:    models.PhaseIdle,
	}
	sort.SliceStable(s.Players, func(i, j int) bool { return s.Players[i].Number < s.Players[j].Number })

	s.byID = make(map[uuid.UUID]int, len(s.Players))
	for i, p := range s.Players {
		s.byID[p.ID] = i
	}
	s.teamIdx = make(map[uuid.UUID]int, len(s.Teams))
	for i, t := range s.Teams {
		s.teamIdx[t.ID] = i
	}

	if rec != nil {
		s.LastResult = rec.LastResult
		if rec.CurrentPlayerID != nil {
			if _, ok := s.byID[*rec.CurrentPlayerID]; ok {
				id := *rec.CurrentPlayerID
				s.Current = &id
			}
		}
		var entries []models.BidEntry
		for _, e := range rec.Ledger {
			if _, ok := s.teamIdx[e.TeamID]; ok {
				entries = append(entries, e)
			}
		}
		s.Ledger = ledger.FromEntries(entries)
	}
	s.settle()
	if s.Phase != models.PhaseOnBlock {
		s.Ledger = ledger.Ledger{}
	}
	return s
}

// Clone returns a copy whose player slice can be modified without
// affecting s. Lookup maps are shared since players are never added or
// removed during a session.
func (s State) Clone() State {
	c := s
	c.Players = append([]models.Player(nil), s.Players...)
	if s.Current != nil {
		id := *s.Current
		c.Current = &id
	}
	return c
}

// Player returns the player with id.
func (s State) Player(id uuid.UUID) (models.Player, bool) {
	i, ok := s.byID[id]
	if !ok {
		return models.Player{}, false
	}
	return s.Players[i], true
}

// Team returns the team with id.
func (s State) Team(id uuid.UUID) (models.Team, bool) {
	i, ok := s.teamIdx[id]
	if !ok {
		return models.Team{}, false
	}
	return s.Teams[i], true
}

// CurrentPlayer returns the player on the block, if any.
func (s State) CurrentPlayer() *models.Player {
	if s.Current == nil {
		return nil
	}
	p, ok := s.Player(*s.Current)
	if !ok {
		return nil
	}
	return &p
}

// Remaining is the number of players still waiting to be auctioned.
func (s State) Remaining() int {
	if s.index == nil {
		return 0
	}
	return s.index.Remaining()
}

// Upcoming returns the numbers of at most n players still to be auctioned,
// in selection order.
func (s State) Upcoming(n int) []int {
	out := []int{}
	if s.index == nil {
		return out
	}
	for _, id := range s.index.Pending() {
		if len(out) == n {
			break
		}
		if p, ok := s.Player(id); ok {
			out = append(out, p.Number)
		}
	}
	return out
}

// TeamPurse computes the purse of one team against the current rosters.
func (s State) TeamPurse(id uuid.UUID) purse.Stats {
	return purse.Compute(s.Players, id, s.Settings)
}

// TeamViews derives the purse and eligibility of every team. Clients use
// it to render bid buttons; the engine re-checks on every raise.
func (s State) TeamViews() []TeamView {
	leader, hasLeader := s.Ledger.Leader()
	out := make([]TeamView, 0, len(s.Teams))
	stats := purse.ComputeAll(s.Players, s.Teams, s.Settings)
	for i, t := range s.Teams {
		st := stats[i]
		v := TeamView{
			Team:    t,
			Purse:   st,
			Leading: hasLeader && leader == t.ID,
		}
		if s.Phase == models.PhaseOnBlock {
			v.CanRaise = s.Ledger.CheckRaise(t.ID, st, s.Settings) == nil
		}
		out = append(out, v)
	}
	return out
}

// Record converts the state into its persisted session row.
func (s State) Record(version int64) models.SessionRecord {
	rec := models.SessionRecord{
		Phase:      s.Phase,
		Ledger:     s.Ledger.Entries(),
		LastResult: s.LastResult,
		Version:    version,
	}
	if s.Current != nil {
		id := *s.Current
		rec.CurrentPlayerID = &id
	}
	return rec
}

func (s *State) setPlayer(p models.Player) {
	s.Players[s.byID[p.ID]] = p
}

// settle rebuilds the selection index and derives the phase from the
// current player's status.
func (s *State) settle() {
	s.index = selection.Build(s.Players)
	p := s.CurrentPlayer()
	switch {
	case p == nil:
		s.Current = nil
		s.Phase = models.PhaseIdle
	case p.Auctioned():
		s.Phase = models.PhaseReview
	default:
		s.Phase = models.PhaseOnBlock
	}
}
