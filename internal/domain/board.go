package domain

import (
	"fmt"
	"maps"
	"slices"
)

// Board is the occupancy derived from the placements of a move log.
type Board struct {
	size      int
	occupancy map[Cell]Color
	cells     [NumColors][]Cell
	used      [NumColors]map[PieceKey]bool
	lastPiece [NumColors]PieceKey
}

// NewBoard returns an empty size x size board.
func NewBoard(size int) *Board {
	b := &Board{
		size:      size,
		occupancy: make(map[Cell]Color),
	}
	for i := range b.used {
		b.used[i] = make(map[PieceKey]bool)
	}
	return b
}

// Project folds the placements of moves, in order, into a new board.
// Passes contribute nothing. A log that overlaps itself or leaves the board is corrupt.
func Project(size int, moves []Move) (*Board, error) {
	b := NewBoard(size)
	for _, m := range moves {
		if err := b.place(m); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *Board) place(m Move) error {
	if m.IsPass() {
		return nil
	}
	if !m.Color.Valid() {
		return fmt.Errorf("%w: turn %d: %v", ErrCorruptLog, m.Turn, ErrUnknownColor)
	}
	if _, ok := Piece(m.Piece); !ok {
		return fmt.Errorf("%w: turn %d: unknown piece %q", ErrCorruptLog, m.Turn, m.Piece)
	}
	if PieceValue(m.Piece) != len(m.Cells) {
		return fmt.Errorf("%w: turn %d: piece %q does not match %d cells", ErrCorruptLog, m.Turn, m.Piece, len(m.Cells))
	}
	if b.used[m.Color][m.Piece] {
		return fmt.Errorf("%w: turn %d: %s reused piece %q", ErrCorruptLog, m.Turn, m.Color, m.Piece)
	}
	for _, c := range m.Cells {
		if !c.InBounds(b.size) {
			return fmt.Errorf("%w: turn %d: cell %v off board", ErrCorruptLog, m.Turn, c)
		}
		if owner, taken := b.occupancy[c]; taken {
			return fmt.Errorf("%w: turn %d: cell %v already held by %s", ErrCorruptLog, m.Turn, c, owner)
		}
	}
	for _, c := range m.Cells {
		b.occupancy[c] = m.Color
	}
	b.cells[m.Color] = append(b.cells[m.Color], m.Cells...)
	b.used[m.Color][m.Piece] = true
	b.lastPiece[m.Color] = m.Piece
	return nil
}

// Size returns the board edge length.
func (b *Board) Size() int {
	return b.size
}

// At returns the color occupying c.
func (b *Board) At(c Cell) (Color, bool) {
	color, ok := b.occupancy[c]
	return color, ok
}

// Occupancy returns a copy of the cell to color mapping.
func (b *Board) Occupancy() map[Cell]Color {
	return maps.Clone(b.occupancy)
}

// Cells returns the cells held by color, sorted row-major.
func (b *Board) Cells(color Color) []Cell {
	if !color.Valid() {
		return nil
	}
	out := slices.Clone(b.cells[color])
	slices.SortFunc(out, compareCells)
	return out
}

// HasPlaced reports whether color has made at least one placement.
func (b *Board) HasPlaced(color Color) bool {
	return color.Valid() && len(b.cells[color]) > 0
}

// Used reports whether color already placed the piece.
func (b *Board) Used(color Color, key PieceKey) bool {
	return color.Valid() && b.used[color][key]
}

// UsedPieces lists the pieces color has placed, in catalog order.
func (b *Board) UsedPieces(color Color) []PieceKey {
	var out []PieceKey
	for _, key := range PieceKeys() {
		if b.Used(color, key) {
			out = append(out, key)
		}
	}
	return out
}

// RemainingPieces lists the pieces color may still place, in catalog order.
func (b *Board) RemainingPieces(color Color) []PieceKey {
	var out []PieceKey
	for _, key := range PieceKeys() {
		if !b.Used(color, key) {
			out = append(out, key)
		}
	}
	return out
}

// LastPiece returns the most recent piece placed by color.
func (b *Board) LastPiece(color Color) (PieceKey, bool) {
	if !color.Valid() || b.lastPiece[color] == "" {
		return "", false
	}
	return b.lastPiece[color], true
}

func (b *Board) ownedBy(c Cell, color Color) bool {
	owner, ok := b.occupancy[c]
	return ok && owner == color
}
