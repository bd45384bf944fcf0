package domain

import "cmp"

// Cell is a board coordinate.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the cell translated by (dx, dy).
func (c Cell) Add(dx, dy int) Cell {
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

// InBounds reports whether the cell lies on a size x size board.
func (c Cell) InBounds(size int) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < size && c.Y < size
}

// compareCells orders cells row-major.
func compareCells(a, b Cell) int {
	if n := cmp.Compare(a.Y, b.Y); n != 0 {
		return n
	}
	return cmp.Compare(a.X, b.X)
}

var (
	edgeOffsets   = [4]Cell{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}}
	cornerOffsets = [4]Cell{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: 1, Y: 1}}
)
