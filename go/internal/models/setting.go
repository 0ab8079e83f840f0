package models

import (
	"errors"
	"time"
)

// DefaultTotalPurse is the purse every team starts with, in Lakh.
const DefaultTotalPurse = 100

// AuctionSetting is the singleton configuration row for the auction.
type AuctionSetting struct {
	MaxPlayersPerTeam     int        `json:"maxPlayersPerTeam" yaml:"max_players_per_team"`
	ReservePlayersPerTeam int        `json:"reservePlayersPerTeam" yaml:"reserve_players_per_team"`
	StartBid              int        `json:"startBid" yaml:"start_bid"`
	BidIncrement          int        `json:"bidIncrement" yaml:"bid_increment"`
	TotalPurse            int        `json:"totalPurse" yaml:"total_purse"`
	RegistrationOpen      bool       `json:"registrationOpen" yaml:"registration_open"`
	RegistrationClosesAt  *time.Time `json:"registrationClosesAt,omitempty" yaml:"registration_closes_at"`
	UpdatedAt             time.Time  `json:"updatedAt" yaml:"-"`
}

// Purse returns the configured total purse, falling back to DefaultTotalPurse.
func (s AuctionSetting) Purse() int {
	if s.TotalPurse <= 0 {
		return DefaultTotalPurse
	}
	return s.TotalPurse
}

// RegistrationActive reports whether player registration is open at now.
func (s AuctionSetting) RegistrationActive(now time.Time) bool {
	if !s.RegistrationOpen {
		return false
	}
	return s.RegistrationClosesAt == nil || now.Before(*s.RegistrationClosesAt)
}

// Validate checks the limits an admin may submit.
func (s AuctionSetting) Validate() error {
	switch {
	case s.MaxPlayersPerTeam <= 0:
		return errors.New("maxPlayersPerTeam must be positive")
	case s.ReservePlayersPerTeam < 0:
		return errors.New("reservePlayersPerTeam must not be negative")
	case s.ReservePlayersPerTeam > s.MaxPlayersPerTeam:
		return errors.New("reservePlayersPerTeam must not exceed maxPlayersPerTeam")
	case s.StartBid <= 0:
		return errors.New("startBid must be positive")
	case s.BidIncrement <= 0:
		return errors.New("bidIncrement must be positive")
	case s.TotalPurse < 0:
		return errors.New("totalPurse must not be negative")
	}
	return nil
}

// SameLimits reports whether two settings would produce the same bidding
// and registration behaviour, ignoring bookkeeping timestamps.
func (s AuctionSetting) SameLimits(o AuctionSetting) bool {
	if s.MaxPlayersPerTeam != o.MaxPlayersPerTeam ||
		s.ReservePlayersPerTeam != o.ReservePlayersPerTeam ||
		s.StartBid != o.StartBid ||
		s.BidIncrement != o.BidIncrement ||
		s.Purse() != o.Purse() ||
		s.RegistrationOpen != o.RegistrationOpen {
		return false
	}
	switch {
	case s.RegistrationClosesAt == nil && o.RegistrationClosesAt == nil:
		return true
	case s.RegistrationClosesAt == nil || o.RegistrationClosesAt == nil:
		return false
	}
	return s.RegistrationClosesAt.Equal(*o.RegistrationClosesAt)
}
