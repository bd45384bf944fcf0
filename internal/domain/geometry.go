package domain

import "slices"

// Transform mirrors (if flipped), rotates clockwise rotation times and normalizes the cells of a piece.
// Mirroring always happens before rotation. It returns false for an unknown piece.
func Transform(key PieceKey, rotation int, flipped bool) ([]Cell, bool) {
	cells, ok := Piece(key)
	if !ok {
		return nil, false
	}
	return TransformCells(cells, rotation, flipped), true
}

// TransformCells applies the piece transform to an arbitrary cell set.
func TransformCells(cells []Cell, rotation int, flipped bool) []Cell {
	out := make([]Cell, len(cells))
	copy(out, cells)
	if flipped {
		for i, c := range out {
			out[i] = Cell{X: -c.X, Y: c.Y}
		}
	}
	for range NormalizeRotation(rotation) {
		for i, c := range out {
			out[i] = Cell{X: c.Y, Y: -c.X}
		}
	}
	return Normalize(out)
}

// NormalizeRotation maps any rotation count, including negative ones, into [0,4).
func NormalizeRotation(rotation int) int {
	return ((rotation % 4) + 4) % 4
}

// Normalize shifts cells so the minimum x and y are zero and sorts them row-major.
// The input is not modified.
func Normalize(cells []Cell) []Cell {
	if len(cells) == 0 {
		return []Cell{}
	}
	minX, minY := cells[0].X, cells[0].Y
	for _, c := range cells[1:] {
		minX = min(minX, c.X)
		minY = min(minY, c.Y)
	}
	out := make([]Cell, len(cells))
	for i, c := range cells {
		out[i] = Cell{X: c.X - minX, Y: c.Y - minY}
	}
	slices.SortFunc(out, compareCells)
	return out
}

// Translate offsets every cell by (dx, dy). The result may leave the board.
func Translate(cells []Cell, dx, dy int) []Cell {
	out := make([]Cell, len(cells))
	for i, c := range cells {
		out[i] = c.Add(dx, dy)
	}
	return out
}

// Orientation is one distinct (rotation, flipped) transform of a piece.
type Orientation struct {
	Rotation int
	Flipped  bool
	Cells    []Cell
}

// Orientations returns the distinct transforms of a piece, first occurrence wins.
func Orientations(key PieceKey) []Orientation {
	cells, ok := Piece(key)
	if !ok {
		return nil
	}
	var out []Orientation
	for _, flipped := range []bool{false, true} {
		for r := 0; r < 4; r++ {
			t := TransformCells(cells, r, flipped)
			dup := slices.ContainsFunc(out, func(o Orientation) bool {
				return slices.Equal(o.Cells, t)
			})
			if !dup {
				out = append(out, Orientation{Rotation: r, Flipped: flipped, Cells: t})
			}
		}
	}
	return out
}
