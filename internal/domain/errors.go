package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownColor is returned when a color name or value is outside the enumeration.
	ErrUnknownColor = errors.New("unknown color")
	// ErrInvalidPlayers is returned when a game is created with an unusable player list.
	ErrInvalidPlayers = errors.New("invalid player list")
	// ErrInvalidBoardSize is returned for a board outside [5, MaxBoardSize].
	ErrInvalidBoardSize = errors.New("invalid board size")
	// ErrCorruptLog is returned when a stored move log could not have been produced by Validate.
	ErrCorruptLog = errors.New("corrupt move log")
)

// Reason is the machine-readable code of a rule rejection.
type Reason string

const (
	ReasonInvalidPiece       Reason = "invalid_piece"
	ReasonInvalidPosition    Reason = "invalid_position"
	ReasonOutOfBounds        Reason = "out_of_bounds"
	ReasonOverlap            Reason = "overlap"
	ReasonTouchSameColorEdge Reason = "cannot_touch_same_color_edge"
	ReasonFirstMoveCorner    Reason = "first_move_must_cover_corner"
	ReasonMustTouchCorner    Reason = "must_touch_same_color_corner"
	ReasonNotYourTurn        Reason = "not_your_turn"
	ReasonGameFinished       Reason = "game_finished"
	ReasonPieceAlreadyUsed   Reason = "piece_already_used"
)

// RuleError rejects a proposed move. It never signals a system fault.
type RuleError struct {
	Reason Reason
	Detail string
}

func (e *RuleError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// Reject builds a RuleError with a formatted detail message.
func Reject(reason Reason, format string, args ...any) *RuleError {
	return &RuleError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the rejection reason from err, if err is a rule rejection.
func ReasonOf(err error) (Reason, bool) {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}

// IsRejection reports whether err is a rule rejection rather than a fault.
func IsRejection(err error) bool {
	_, ok := ReasonOf(err)
	return ok
}
