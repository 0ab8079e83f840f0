package auction

import (
	"github.com/google/uuid"

	"github.com/mcdev12/playerauction/go/internal/models"
)

// CommandType names a client command. The values are the realtime event
// names clients send.
type CommandType string

const (
	CmdSelectNext             CommandType = "newBid"
	CmdSelectByNumber         CommandType = "selectPlayerByNumber"
	CmdRaiseBid               CommandType = "raiseBid"
	CmdUndoBid                CommandType = "undoBid"
	CmdSellBid                CommandType = "sellBid"
	CmdUnsoldBid              CommandType = "unSoldBid"
	CmdResetSinglePlayer      CommandType = "resetSinglePlayer"
	CmdResetAllUnsold         CommandType = "resetAllUnsoldPlayers"
	CmdResetPlayersAndAmounts CommandType = "resetPlayerAndAmountHandler"
	CmdResetCaptains          CommandType = "resetCaptainHandler"
	CmdResetIconPlayers       CommandType = "resetIconPlayersHandler"
	CmdResumeBid              CommandType = "resumeBid"
	CmdUpdateSetting          CommandType = "updateSetting"
)

// Command is a validated request against the auction state.
type Command struct {
	Type         CommandType
	TeamID       uuid.UUID
	PlayerNumber int
	PlayerID     uuid.UUID
	Setting      *models.AuctionSetting
}

// Mutating reports whether the command can change state. Every command is
// admin-only; resumeBid only re-sends the snapshot.
func (t CommandType) Mutating() bool {
	return t != CmdResumeBid
}

// Change classifies a successful command so the sync layer can name the
// broadcast.
type Change int

const (
	ChangeNone Change = iota
	ChangeSelection
	ChangeBid
	ChangeLot
	ChangeReset
	ChangeSettings
)
