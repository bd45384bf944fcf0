package domain

// MoveKind distinguishes placements from passes.
type MoveKind string

const (
	MovePlacement MoveKind = "placement"
	MovePass      MoveKind = "pass"
)

// Move is one immutable entry of a game's move log.
type Move struct {
	Kind     MoveKind
	Color    Color
	Piece    PieceKey
	Rotation int
	Flipped  bool
	Cells    []Cell // absolute board cells, empty for a pass
	Turn     int    // 1-based, strictly increasing within a game
}

// PassMove builds a pass for color at the given turn number.
func PassMove(color Color, turn int) Move {
	return Move{Kind: MovePass, Color: color, Turn: turn}
}

// IsPass reports whether the move claims no cells.
func (m Move) IsPass() bool {
	return m.Kind == MovePass
}
