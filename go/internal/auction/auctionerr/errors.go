package auctionerr

import "errors"

var (
	// ErrUnauthorized is returned when a non-admin sends a mutating command.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrIneligible is returned when a team may not raise on the current player.
	ErrIneligible = errors.New("team is not eligible to bid")
	// ErrInsufficientPurse is returned when a raise would exceed the team's max bid.
	ErrInsufficientPurse = errors.New("insufficient purse")
	// ErrSellError is returned when a sale does not match the leading bid.
	ErrSellError = errors.New("sell rejected")
	ErrNotFound  = errors.New("not found")
	// ErrListComplete is returned when no unauctioned player remains.
	ErrListComplete = errors.New("player list complete")
	// ErrConflict is returned when a command does not fit the current phase.
	ErrConflict = errors.New("conflict")
	// ErrInvalid is returned for malformed command payloads.
	ErrInvalid = errors.New("invalid request")
)

// Code is the wire identifier of an error kind.
type Code string

const (
	CodeUnauthorized      Code = "unauthorized"
	CodeIneligible        Code = "ineligible"
	CodeInsufficientPurse Code = "insufficientPurse"
	CodeSellError         Code = "sellError"
	CodeNotFound          Code = "notFound"
	CodeListComplete      Code = "listcomplete"
	CodeConflict          Code = "conflict"
	CodeInvalid           Code = "invalid"
	CodeInternal          Code = "internal"
)

var codes = []struct {
	err  error
	code Code
}{
	{ErrUnauthorized, CodeUnauthorized},
	{ErrIneligible, CodeIneligible},
	{ErrInsufficientPurse, CodeInsufficientPurse},
	{ErrSellError, CodeSellError},
	{ErrNotFound, CodeNotFound},
	{ErrListComplete, CodeListComplete},
	{ErrConflict, CodeConflict},
	{ErrInvalid, CodeInvalid},
}

// CodeOf maps err to its wire code. Errors outside the taxonomy are internal.
func CodeOf(err error) Code {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
