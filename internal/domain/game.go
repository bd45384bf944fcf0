package domain

import (
	"fmt"
	"slices"
)

// Status is the lifecycle stage of a game.
type Status string

const (
	// StatusActive means players are still taking turns.
	StatusActive Status = "active"
	// StatusFinished means every player passed in a row. It is terminal.
	StatusFinished Status = "finished"
)

// DefaultBoardSize is the edge length of the reference board.
const DefaultBoardSize = 20

// minBoardSize fits the longest piece.
const minBoardSize = 5

// MaxBoardSize caps boards at the reference size; the start corners define nothing larger.
const MaxBoardSize = DefaultBoardSize

// Player binds a color to a display name and a fixed turn-order index.
type Player struct {
	Color      Color
	Name       string
	OrderIndex int
}

// NewPlayers builds the ordered player list for a new game.
// names may be shorter than colors; missing names are left empty.
func NewPlayers(colors []Color, names []string) ([]Player, error) {
	if len(colors) == 0 || len(colors) > NumColors {
		return nil, fmt.Errorf("%w: %d players", ErrInvalidPlayers, len(colors))
	}
	var seen [NumColors]bool
	players := make([]Player, len(colors))
	for i, c := range colors {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: %v", ErrUnknownColor, c)
		}
		if seen[c] {
			return nil, fmt.Errorf("%w: duplicate color %s", ErrInvalidPlayers, c)
		}
		seen[c] = true
		players[i] = Player{Color: c, OrderIndex: i}
		if i < len(names) {
			players[i].Name = names[i]
		}
	}
	return players, nil
}

// ValidateBoardSize rejects boards that cannot hold every piece or exceed the reference board.
func ValidateBoardSize(size int) error {
	if size < minBoardSize || size > MaxBoardSize {
		return fmt.Errorf("%w: %d", ErrInvalidBoardSize, size)
	}
	return nil
}

// State is the projection of a game's move log.
type State struct {
	Board           *Board
	Players         []Player
	Moves           []Move
	Status          Status
	NextPlayerIndex int
	LastActedIndex  int // -1 until the first move
	TrailingPasses  int
}

// NewState returns the state of a game with no moves.
func NewState(size int, players []Player) *State {
	return &State{
		Board:          NewBoard(size),
		Players:        slices.Clone(players),
		Status:         StatusActive,
		LastActedIndex: -1,
	}
}

// CurrentColor is the color whose turn it is.
func (s *State) CurrentColor() Color {
	return s.Players[s.NextPlayerIndex].Color
}

// NextTurn is the turn number the next accepted move receives.
func (s *State) NextTurn() int {
	if len(s.Moves) == 0 {
		return 1
	}
	return s.Moves[len(s.Moves)-1].Turn + 1
}

// IsFirstMove reports whether color has not placed a piece yet.
func (s *State) IsFirstMove(color Color) bool {
	return !s.Board.HasPlaced(color)
}

// HasColor reports whether color is seated in this game.
func (s *State) HasColor(color Color) bool {
	return slices.ContainsFunc(s.Players, func(p Player) bool { return p.Color == color })
}

// Apply appends an accepted move and advances the turn pointer.
// The move must come from Validate or Pass against this state.
func (s *State) Apply(m Move) error {
	if s.Status == StatusFinished {
		return fmt.Errorf("%w: turn %d after game finished", ErrCorruptLog, m.Turn)
	}
	if m.Color != s.CurrentColor() {
		return fmt.Errorf("%w: turn %d played by %s, expected %s", ErrCorruptLog, m.Turn, m.Color, s.CurrentColor())
	}
	if len(s.Moves) > 0 && m.Turn <= s.Moves[len(s.Moves)-1].Turn {
		return fmt.Errorf("%w: turn %d not after %d", ErrCorruptLog, m.Turn, s.Moves[len(s.Moves)-1].Turn)
	}
	if err := s.Board.place(m); err != nil {
		return err
	}

	s.Moves = append(s.Moves, m)
	s.LastActedIndex = s.NextPlayerIndex
	s.NextPlayerIndex = (s.NextPlayerIndex + 1) % len(s.Players)
	if m.IsPass() {
		s.TrailingPasses++
	} else {
		s.TrailingPasses = 0
	}
	if s.TrailingPasses >= len(s.Players) {
		s.Status = StatusFinished
	}
	return nil
}
