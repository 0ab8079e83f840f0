// Package selection indexes players by number and tracks which are still
// waiting to be auctioned.
package selection

import (
	"sort"

	"github.com/google/uuid"

	"github.com/mcdev12/playerauction/go/internal/models"
)

// Index is an immutable lookup built from a player snapshot. Build a new
// one whenever a sold or unsold status changes.
type Index struct {
	byNumber map[int]uuid.UUID
	// order of every player by number, used to walk forward from the current one
	order   []uuid.UUID
	pending map[uuid.UUID]bool
}

// Build indexes players in player-number order. Ties on number fall back
// to creation time so the order is deterministic.
func Build(players []models.Player) *Index {
	sorted := make([]models.Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Number != sorted[j].Number {
			return sorted[i].Number < sorted[j].Number
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	ix := &Index{
		byNumber: make(map[int]uuid.UUID, len(sorted)),
		order:    make([]uuid.UUID, 0, len(sorted)),
		pending:  make(map[uuid.UUID]bool),
	}
	for _, p := range sorted {
		if _, dup := ix.byNumber[p.Number]; !dup {
			ix.byNumber[p.Number] = p.ID
		}
		ix.order = append(ix.order, p.ID)
		if !p.Auctioned() {
			ix.pending[p.ID] = true
		}
	}
	return ix
}

// Lookup returns the player registered under number.
func (ix *Index) Lookup(number int) (uuid.UUID, bool) {
	id, ok := ix.byNumber[number]
	return id, ok
}

// IsPending reports whether the player has not been auctioned yet.
func (ix *Index) IsPending(id uuid.UUID) bool {
	return ix.pending[id]
}

// Remaining is the number of players still to be auctioned.
func (ix *Index) Remaining() int {
	return len(ix.pending)
}

// Pending lists the unauctioned players in order.
func (ix *Index) Pending() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ix.pending))
	for _, id := range ix.order {
		if ix.IsPending(id) {
			out = append(out, id)
		}
	}
	return out
}

// Next returns the first pending player after current in number order,
// wrapping around. current itself is only returned when it is the last
// pending player. A nil current starts from the beginning.
func (ix *Index) Next(current *uuid.UUID) (uuid.UUID, bool) {
	if len(ix.pending) == 0 {
		return uuid.Nil, false
	}
	start := 0
	if current != nil {
		for i, id := range ix.order {
			if id == *current {
				start = i + 1
				break
			}
		}
	}
	n := len(ix.order)
	for k := 0; k < n; k++ {
		id := ix.order[(start+k)%n]
		if ix.IsPending(id) {
			return id, true
		}
	}
	return uuid.Nil, false
}
