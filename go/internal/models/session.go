package models

import (
	"time"

	"github.com/google/uuid"
)

// AuctionPhase is the lifecycle state of the auction block.
type AuctionPhase string

const (
	PhaseIdle    AuctionPhase = "Idle"
	PhaseOnBlock AuctionPhase = "OnBlock"
	// PhaseReview shows an already sold or unsold player without accepting bids.
	PhaseReview AuctionPhase = "Review"
)

// LotOutcome is how a lot closed.
type LotOutcome string

const (
	LotSold   LotOutcome = "sold"
	LotUnsold LotOutcome = "unsold"
)

// BidEntry is one raise on the ledger. Amount is the cumulative bid.
type BidEntry struct {
	TeamID uuid.UUID `json:"team"`
	Amount int       `json:"bid"`
}

// LotResult describes the most recently closed lot.
type LotResult struct {
	PlayerID uuid.UUID  `json:"playerId"`
	Outcome  LotOutcome `json:"outcome"`
	TeamID   *uuid.UUID `json:"team,omitempty"`
	Amount   *int       `json:"amount,omitempty"`
	At       time.Time  `json:"at"`
}

// SessionRecord is the persisted auction block so a restart resumes where it stopped.
type SessionRecord struct {
	Phase           AuctionPhase `json:"phase"`
	CurrentPlayerID *uuid.UUID   `json:"currentPlayerId,omitempty"`
	Ledger          []BidEntry   `json:"bidProgress"`
	LastResult      *LotResult   `json:"lastResult,omitempty"`
	Version         int64        `json:"version"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}
