// Package protocol defines the realtime wire format shared by the session
// and the websocket gateway.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/mcdev12/playerauction/go/internal/auction"
	"github.com/mcdev12/playerauction/go/internal/models"
)

// EventName identifies a server to client message.
type EventName string

const (
	EventIsAdmin           EventName = "isAdmin"
	EventPlayersData       EventName = "playersData"
	EventNewBid            EventName = "newBid"
	EventBidProgress       EventName = "bidProgress"
	EventCurrentPlayerBid  EventName = "currentPlayerBid"
	EventAuctionSetting    EventName = "auctionSetting"
	EventInsufficientPurse EventName = "insufficientPurse"
	EventSellError         EventName = "sellError"
	EventListComplete      EventName = "listcomplete"
	EventError             EventName = "error"
)

// Envelope is the frame every realtime message travels in, in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// IsAdminPayload tells a client which controls to show.
type IsAdminPayload struct {
	IsAdmin bool `json:"isAdmin"`
}

// Snapshot is the full auction view sent on connect and after every mutation.
type Snapshot struct {
	Version          int64                 `json:"version"`
	Phase            models.AuctionPhase   `json:"phase"`
	Players          []models.Player       `json:"players"`
	Teams            []auction.TeamView    `json:"team"`
	CurrentPlayer    *models.Player        `json:"currentPlayer"`
	BidProgress      []models.BidEntry     `json:"bidProgress"`
	CurrentBid       int                   `json:"currentBid"`
	NextBid          int                   `json:"nextBid"`
	LastResult       *models.LotResult     `json:"lastResult,omitempty"`
	AuctionSetting   models.AuctionSetting `json:"auctionSetting"`
	RegistrationOpen bool                  `json:"registrationOpen"`
	Remaining        int                   `json:"remaining"`
	Upcoming         []int                 `json:"upcoming"`
}

// upcomingLen caps the queue preview sent with every snapshot.
const upcomingLen = 5

// NewSnapshot renders s for clients.
func NewSnapshot(s auction.State, version int64, now time.Time) Snapshot {
	snap := Snapshot{
		Version:          version,
		Phase:            s.Phase,
		Players:          s.Players,
		Teams:            s.TeamViews(),
		CurrentPlayer:    s.CurrentPlayer(),
		BidProgress:      s.Ledger.Entries(),
		CurrentBid:       s.Ledger.Current(),
		LastResult:       s.LastResult,
		AuctionSetting:   s.Settings,
		RegistrationOpen: s.Settings.RegistrationActive(now),
		Remaining:        s.Remaining(),
		Upcoming:         s.Upcoming(upcomingLen),
	}
	if snap.Players == nil {
		snap.Players = []models.Player{}
	}
	if s.Phase == models.PhaseOnBlock {
		snap.NextBid = s.Ledger.NextAmount(s.Settings)
	}
	return snap
}

// SettingPayload is broadcast when the stored settings change outside a command.
type SettingPayload struct {
	AuctionSetting   models.AuctionSetting `json:"auctionSetting"`
	RegistrationOpen bool                  `json:"registrationOpen"`
}

// InsufficientPursePayload answers a rejected raise.
type InsufficientPursePayload struct {
	Team    string `json:"team"`
	Message string `json:"message"`
}

// MessagePayload carries a human readable rejection.
type MessagePayload struct {
	Message string `json:"message"`
}

// ErrorPayload answers any other rejected command.
type ErrorPayload struct {
	Code    string `json:"code"`
	Command string `json:"command,omitempty"`
	Message string `json:"message"`
}

// BroadcastEvent names the broadcast that follows a successful command.
func BroadcastEvent(c auction.Change) EventName {
	switch c {
	case auction.ChangeSelection:
		return EventCurrentPlayerBid
	case auction.ChangeBid:
		return EventBidProgress
	case auction.ChangeNone:
		return EventPlayersData
	default:
		return EventNewBid
	}
}

// Encode wraps data in an envelope and marshals it.
func Encode(event EventName, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: string(event), Data: raw})
}
