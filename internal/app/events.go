package app

import "blokus/internal/domain"

// EventKind identifies emitted game events for transport dispatch.
type EventKind string

const (
	EventGameCreated  EventKind = "game_created"
	EventPiecePlaced  EventKind = "piece_placed"
	EventTurnPassed   EventKind = "turn_passed"
	EventGameFinished EventKind = "game_finished"
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	GameID     string
	Payload    any
	Recipients []domain.Color // empty means broadcast
}

type GameCreatedPayload struct {
	Players   []PlayerView `json:"players"`
	BoardSize int          `json:"board_size"`
}

type PiecePlacedPayload struct {
	Color     domain.Color    `json:"color"`
	Piece     domain.PieceKey `json:"piece"`
	Cells     []domain.Cell   `json:"cells"`
	Turn      int             `json:"turn"`
	NextColor domain.Color    `json:"next_color"`
}

type TurnPassedPayload struct {
	Color     domain.Color `json:"color"`
	Turn      int          `json:"turn"`
	NextColor domain.Color `json:"next_color"`
}

type GameFinishedPayload struct {
	Scores  map[domain.Color]int `json:"scores"`
	Winners []domain.Color       `json:"winners"`
}
