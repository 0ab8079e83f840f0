package events

import (
	"time"
)

// Domain events emitted by the auction engine and published to the event stream.

// Type names a domain event. It is used as the subject suffix.
type Type string

const (
	PlayerOnBlock   Type = "PlayerOnBlock"
	BidRaised       Type = "BidRaised"
	BidUndone       Type = "BidUndone"
	PlayerSold      Type = "PlayerSold"
	PlayerUnsold    Type = "PlayerUnsold"
	PlayerReset     Type = "PlayerReset"
	PlayersReset    Type = "PlayersReset"
	SettingsUpdated Type = "SettingsUpdated"
)

// Event pairs a domain event type with its payload.
type Event struct {
	Type    Type
	Payload any
}

// PlayerOnBlockPayload is the payload for a PlayerOnBlock event
type PlayerOnBlockPayload struct {
	PlayerID     string    `json:"player_id"`
	PlayerNumber int       `json:"player_number"`
	PlayerName   string    `json:"player_name"`
	ReviewOnly   bool      `json:"review_only"`
	SelectedAt   time.Time `json:"selected_at"`
}

// BidRaisedPayload is the payload for a BidRaised event
type BidRaisedPayload struct {
	PlayerID string    `json:"player_id"`
	TeamID   string    `json:"team_id"`
	Amount   int       `json:"amount"`
	BidCount int       `json:"bid_count"`
	RaisedAt time.Time `json:"raised_at"`
}

// BidUndonePayload is the payload for a BidUndone event
type BidUndonePayload struct {
	PlayerID      string    `json:"player_id"`
	RemovedTeamID string    `json:"removed_team_id"`
	RemovedAmount int       `json:"removed_amount"`
	CurrentAmount int       `json:"current_amount"`
	UndoneAt      time.Time `json:"undone_at"`
}

// PlayerSoldPayload is the payload for a PlayerSold event
type PlayerSoldPayload struct {
	PlayerID     string    `json:"player_id"`
	PlayerNumber int       `json:"player_number"`
	PlayerName   string    `json:"player_name"`
	TeamID       string    `json:"team_id"`
	TeamName     string    `json:"team_name"`
	FinalPrice   int       `json:"final_price"`
	BidCount     int       `json:"bid_count"`
	SoldAt       time.Time `json:"sold_at"`
}

// PlayerUnsoldPayload is the payload for a PlayerUnsold event
type PlayerUnsoldPayload struct {
	PlayerID     string    `json:"player_id"`
	PlayerNumber int       `json:"player_number"`
	PlayerName   string    `json:"player_name"`
	MarkedAt     time.Time `json:"marked_at"`
}

// PlayerResetPayload is the payload for a PlayerReset event
type PlayerResetPayload struct {
	PlayerID string    `json:"player_id"`
	Changed  bool      `json:"changed"`
	ResetAt  time.Time `json:"reset_at"`
}

// PlayersResetPayload is the payload for a PlayersReset event
type PlayersResetPayload struct {
	Scope   string    `json:"scope"`
	Count   int       `json:"count"`
	ResetAt time.Time `json:"reset_at"`
}

// SettingsUpdatedPayload is the payload for a SettingsUpdated event
type SettingsUpdatedPayload struct {
	MaxPlayersPerTeam     int       `json:"max_players_per_team"`
	ReservePlayersPerTeam int       `json:"reserve_players_per_team"`
	StartBid              int       `json:"start_bid"`
	BidIncrement          int       `json:"bid_increment"`
	TotalPurse            int       `json:"total_purse"`
	UpdatedAt             time.Time `json:"updated_at"`
}
