package ports

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrGameNotFound is returned when no game is stored under the requested id.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameExists is returned when creating a game under an id already in use.
	ErrGameExists = errors.New("game already exists")
	// ErrVersionConflict is returned when an append raced with another append to the same game.
	ErrVersionConflict = errors.New("game version conflict")
	// ErrStoreUnavailable wraps storage faults that are neither missing games nor conflicts.
	ErrStoreUnavailable = errors.New("game store unavailable")
)

// PlayerRecord is the persisted form of a seated player.
type PlayerRecord struct {
	ID         string `json:"id"`
	GameID     string `json:"game_id"`
	Color      string `json:"color"`
	OrderIndex int    `json:"order_index"`
	Name       string `json:"name"`
}

// MoveRecord is the persisted form of one move log entry.
type MoveRecord struct {
	ID          string    `json:"id"`
	GameID      string    `json:"game_id"`
	PlayerColor string    `json:"player_color"`
	PieceKey    string    `json:"piece_key,omitempty"`
	Rotation    int       `json:"rotation,omitempty"`
	Flipped     bool      `json:"flipped,omitempty"`
	Cells       [][2]int  `json:"cells,omitempty"`
	Passed      bool      `json:"passed"`
	TurnNumber  int       `json:"turn_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// GameRecord is a game with its players and full move log.
type GameRecord struct {
	ID              string         `json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	Status          string         `json:"status"`
	BoardSize       int            `json:"board_size"`
	NextPlayerIndex int            `json:"next_player_index"`
	Players         []PlayerRecord `json:"players"`
	Moves           []MoveRecord   `json:"moves"`
	// Version is the store's optimistic concurrency token. It is not part of the stored value.
	Version string `json:"-"`
}

// GameUpdate describes the turn state after an appended move.
type GameUpdate struct {
	Status          string
	NextPlayerIndex int
}

// GameStore persists games and their append-only move logs.
type GameStore interface {
	// CreateGame stores a new game with its players in one step.
	CreateGame(ctx context.Context, game GameRecord) (GameRecord, error)

	// LoadGame returns the game with its players and moves in turn order.
	LoadGame(ctx context.Context, gameID string) (GameRecord, error)

	// AppendMove appends a move and applies update, provided the stored game is still at
	// expectedVersion. Otherwise it returns ErrVersionConflict and changes nothing.
	AppendMove(ctx context.Context, gameID, expectedVersion string, move MoveRecord, update GameUpdate) (GameRecord, error)

	// DeleteGame removes the game, its players and its moves.
	DeleteGame(ctx context.Context, gameID string) error
}
