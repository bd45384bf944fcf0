package app

import (
	"errors"

	"blokus/internal/domain"
	"blokus/internal/ports"
)

var (
	ErrGameNotFound      = ports.ErrGameNotFound
	ErrInvalidSeatToken  = errors.New("invalid seat token")
	ErrSeatTokenDisabled = errors.New("seat tokens are not configured")
	ErrConcurrentUpdate  = errors.New("game changed concurrently, retry")
	ErrInvalidGame       = errors.New("invalid game parameters")
	ErrInvalidRequest    = errors.New("invalid request")
)

// Error codes reported to clients next to the rule reasons.
const (
	CodeGameNotFound     = "game_not_found"
	CodeInvalidSeatToken = "invalid_seat_token"
	CodeInvalidGame      = "invalid_game"
	CodeConflict         = "conflict"
	CodeInvalidRequest   = "invalid_request"
	CodeInternal         = "internal"
)

// ErrorCode maps err to the stable code reported to clients.
// Anything that is not a rejection or a known client error is a fault and maps to CodeInternal.
func ErrorCode(err error) string {
	if reason, ok := domain.ReasonOf(err); ok {
		return string(reason)
	}
	switch {
	case errors.Is(err, ErrGameNotFound):
		return CodeGameNotFound
	case errors.Is(err, ErrInvalidSeatToken), errors.Is(err, ErrSeatTokenDisabled):
		return CodeInvalidSeatToken
	case errors.Is(err, ErrInvalidGame), errors.Is(err, domain.ErrInvalidPlayers),
		errors.Is(err, domain.ErrUnknownColor), errors.Is(err, domain.ErrInvalidBoardSize):
		return CodeInvalidGame
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidRequest
	case errors.Is(err, ErrConcurrentUpdate):
		return CodeConflict
	default:
		return CodeInternal
	}
}

// IsFault reports whether err is a system fault rather than a problem with the request.
func IsFault(err error) bool {
	return err != nil && ErrorCode(err) == CodeInternal
}
