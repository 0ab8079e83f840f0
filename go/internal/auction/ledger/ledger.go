// Package ledger holds the raised bids for the player on the block.
package ledger

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mcdev12/playerauction/go/internal/auction/auctionerr"
	"github.com/mcdev12/playerauction/go/internal/auction/purse"
	"github.com/mcdev12/playerauction/go/internal/models"
)

// Ledger is an ordered sequence of bids. Each entry stores the cumulative
// amount, so the current bid is the last entry. Operations return new
// ledgers and never modify the receiver.
type Ledger struct {
	entries []models.BidEntry
}

// FromEntries builds a ledger from persisted entries.
func FromEntries(entries []models.BidEntry) Ledger {
	return Ledger{entries: append([]models.BidEntry(nil), entries...)}
}

// Entries returns a copy of the bids in order.
func (l Ledger) Entries() []models.BidEntry {
	out := make([]models.BidEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l Ledger) Len() int { return len(l.entries) }

func (l Ledger) Empty() bool { return len(l.entries) == 0 }

// Current returns the leading amount, or 0 when no bid was raised.
func (l Ledger) Current() int {
	if len(l.entries) == 0 {
		return 0
	}
	return l.entries[len(l.entries)-1].Amount
}

// Leader returns the team holding the last bid.
func (l Ledger) Leader() (uuid.UUID, bool) {
	if len(l.entries) == 0 {
		return uuid.Nil, false
	}
	return l.entries[len(l.entries)-1].TeamID, true
}

// NextAmount is the amount the next raise would commit to: the start bid
// when the ledger is empty, otherwise the current bid plus the increment.
func (l Ledger) NextAmount(settings models.AuctionSetting) int {
	if len(l.entries) == 0 {
		return settings.StartBid
	}
	return l.Current() + settings.BidIncrement
}

// CheckRaise reports whether teamID may raise, given its purse stats.
func (l Ledger) CheckRaise(teamID uuid.UUID, stats purse.Stats, settings models.AuctionSetting) error {
	if leader, ok := l.Leader(); ok && leader == teamID {
		return fmt.Errorf("team %s already leads: %w", teamID, auctionerr.ErrIneligible)
	}
	if stats.RosterFull {
		return fmt.Errorf("team %s roster is full: %w", teamID, auctionerr.ErrIneligible)
	}
	if stats.AvailableBalance <= 0 && l.Current() > settings.StartBid {
		return fmt.Errorf("team %s has no available balance: %w", teamID, auctionerr.ErrInsufficientPurse)
	}
	if next := l.NextAmount(settings); next > stats.MaxBidAmount {
		return fmt.Errorf("bid %d exceeds max bid %d for team %s: %w",
			next, stats.MaxBidAmount, teamID, auctionerr.ErrInsufficientPurse)
	}
	return nil
}

// Raise appends a bid for teamID at NextAmount.
func (l Ledger) Raise(teamID uuid.UUID, stats purse.Stats, settings models.AuctionSetting) (Ledger, error) {
	if err := l.CheckRaise(teamID, stats, settings); err != nil {
		return l, err
	}
	next := make([]models.BidEntry, len(l.entries), len(l.entries)+1)
	copy(next, l.entries)
	next = append(next, models.BidEntry{TeamID: teamID, Amount: l.NextAmount(settings)})
	return Ledger{entries: next}, nil
}

// Undo drops the last bid. It is a no-op on an empty ledger.
func (l Ledger) Undo() Ledger {
	if len(l.entries) == 0 {
		return l
	}
	return Ledger{entries: l.entries[:len(l.entries)-1:len(l.entries)-1]}
}

// Clear returns an empty ledger.
func (l Ledger) Clear() Ledger {
	return Ledger{}
}
