package models

import (
	"time"

	"github.com/google/uuid"
)

// PlayerType is the auction category of a player.
type PlayerType string

const (
	PlayerTypePlayer     PlayerType = "Player"
	PlayerTypeCaptain    PlayerType = "Captain"
	PlayerTypeIconPlayer PlayerType = "IconPlayer"
	// PlayerTypeUnsold marks a player that went under the hammer with no bids.
	PlayerTypeUnsold PlayerType = "Unsold"
)

// Valid reports whether t is one of the known player types.
func (t PlayerType) Valid() bool {
	switch t {
	case PlayerTypePlayer, PlayerTypeCaptain, PlayerTypeIconPlayer, PlayerTypeUnsold:
		return true
	}
	return false
}

// CountsTowardRoster reports whether an owned player of this type occupies a roster slot.
func (t PlayerType) CountsTowardRoster() bool {
	return t == PlayerTypePlayer || t == PlayerTypeCaptain || t == PlayerTypeIconPlayer
}

// PlayerAttributes are the skill flags shown on the player card.
type PlayerAttributes struct {
	Bat          bool `json:"bat"`
	Bowl         bool `json:"bowl"`
	WicketKeeper bool `json:"wicketKeeper"`
}

// Player represents a registered player that can be auctioned
type Player struct {
	ID           uuid.UUID        `json:"id"`
	Number       int              `json:"playerNumber"`
	Name         string           `json:"name"`
	PhotoURL     string           `json:"photoUrl,omitempty"`
	Attributes   PlayerAttributes `json:"attributes"`
	Type         PlayerType       `json:"type"`
	OriginalType PlayerType       `json:"originalType,omitempty"`
	TeamID       *uuid.UUID       `json:"team"`
	FinalPrice   *int             `json:"finalprice"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// Sold reports whether the player has been bought by a team.
func (p Player) Sold() bool {
	return p.TeamID != nil
}

// Auctioned reports whether the player already went under the hammer,
// either sold to a team or marked unsold.
func (p Player) Auctioned() bool {
	return p.TeamID != nil || p.Type == PlayerTypeUnsold
}

// OwnedBy reports whether the player belongs to the given team.
func (p Player) OwnedBy(teamID uuid.UUID) bool {
	return p.TeamID != nil && *p.TeamID == teamID
}

// RestoreType returns the type to use when an unsold marker is cleared.
func (p Player) RestoreType() PlayerType {
	if p.OriginalType == "" || p.OriginalType == PlayerTypeUnsold {
		return PlayerTypePlayer
	}
	return p.OriginalType
}

// ClearSale returns a copy of the player with no team and no final price.
func (p Player) ClearSale() Player {
	p.TeamID = nil
	p.FinalPrice = nil
	return p
}

// SellTo returns a copy of the player owned by teamID at amount.
func (p Player) SellTo(teamID uuid.UUID, amount int) Player {
	id := teamID
	price := amount
	p.TeamID = &id
	p.FinalPrice = &price
	return p
}
