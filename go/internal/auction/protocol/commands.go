package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mcdev12/playerauction/go/internal/auction"
	"github.com/mcdev12/playerauction/go/internal/auction/auctionerr"
	"github.com/mcdev12/playerauction/go/internal/models"
)

type teamPayload struct {
	Team string `json:"team"`
}

type playerNumberPayload struct {
	PlayerNumber flexInt `json:"playerNumber"`
}

type playerIDPayload struct {
	PlayerID string `json:"playerId"`
}

type settingPayload struct {
	Data *models.AuctionSetting `json:"data"`
}

// flexInt accepts a JSON number or a numeric string, since form inputs
// often send the player number as text.
type flexInt struct {
	value int
	set   bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("player number %q is not an integer", s)
	}
	f.value, f.set = v, true
	return nil
}

// DecodeCommand parses and validates one client frame.
func DecodeCommand(frame []byte) (auction.Command, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return auction.Command{}, fmt.Errorf("malformed frame: %v: %w", err, auctionerr.ErrInvalid)
	}

	cmd := auction.Command{Type: auction.CommandType(env.Event)}
	switch cmd.Type {
	case auction.CmdRaiseBid, auction.CmdSellBid:
		var p teamPayload
		if err := decodeData(env.Data, &p); err != nil {
			return cmd, err
		}
		id, err := uuid.Parse(p.Team)
		if err != nil {
			return cmd, fmt.Errorf("team %q: %w", p.Team, auctionerr.ErrNotFound)
		}
		cmd.TeamID = id

	case auction.CmdSelectByNumber:
		var p playerNumberPayload
		if err := decodeData(env.Data, &p); err != nil {
			return cmd, err
		}
		if !p.PlayerNumber.set {
			return cmd, fmt.Errorf("missing player number: %w", auctionerr.ErrNotFound)
		}
		cmd.PlayerNumber = p.PlayerNumber.value

	case auction.CmdResetSinglePlayer:
		var p playerIDPayload
		if err := decodeData(env.Data, &p); err != nil {
			return cmd, err
		}
		id, err := uuid.Parse(p.PlayerID)
		if err != nil {
			return cmd, fmt.Errorf("player %q: %w", p.PlayerID, auctionerr.ErrNotFound)
		}
		cmd.PlayerID = id

	case auction.CmdUpdateSetting:
		var p settingPayload
		if err := decodeData(env.Data, &p); err != nil {
			return cmd, err
		}
		if p.Data == nil {
			return cmd, fmt.Errorf("missing setting data: %w", auctionerr.ErrInvalid)
		}
		cmd.Setting = p.Data

	case auction.CmdSelectNext, auction.CmdUndoBid, auction.CmdUnsoldBid,
		auction.CmdResetAllUnsold, auction.CmdResetPlayersAndAmounts,
		auction.CmdResetCaptains, auction.CmdResetIconPlayers, auction.CmdResumeBid:
		// no payload

	default:
		return cmd, fmt.Errorf("unknown event %q: %w", env.Event, auctionerr.ErrInvalid)
	}
	return cmd, nil
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		var numErr *json.UnmarshalTypeError
		if errors.As(err, &numErr) {
			return fmt.Errorf("field %s has wrong type: %w", numErr.Field, auctionerr.ErrInvalid)
		}
		return fmt.Errorf("malformed payload: %v: %w", err, auctionerr.ErrInvalid)
	}
	return nil
}

// Rejection renders err as the event sent back to the client that issued cmd.
func Rejection(cmd auction.Command, err error) (EventName, any) {
	code := auctionerr.CodeOf(err)
	switch code {
	case auctionerr.CodeInsufficientPurse:
		return EventInsufficientPurse, InsufficientPursePayload{Team: cmd.TeamID.String(), Message: err.Error()}
	case auctionerr.CodeSellError:
		return EventSellError, MessagePayload{Message: err.Error()}
	case auctionerr.CodeListComplete:
		return EventListComplete, struct{}{}
	case auctionerr.CodeInternal:
		return EventError, ErrorPayload{Code: string(code), Command: string(cmd.Type), Message: "command failed, try again"}
	}
	return EventError, ErrorPayload{Code: string(code), Command: string(cmd.Type), Message: err.Error()}
}
