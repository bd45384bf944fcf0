package domain

// PieceKey names a shape in the piece catalog.
type PieceKey string

// MonominoKey is the single-cell piece; finishing with it earns the extra bonus.
const MonominoKey PieceKey = "I1"

type pieceDef struct {
	key   PieceKey
	cells []Cell
}

// pieceTable lists the catalog in display order. Cells are normalized.
var pieceTable = []pieceDef{
	{"I1", []Cell{{0, 0}}},
	{"I2", []Cell{{0, 0}, {1, 0}}},
	{"I3", []Cell{{0, 0}, {1, 0}, {2, 0}}},
	{"V3", []Cell{{0, 0}, {0, 1}, {1, 1}}},
	{"I4", []Cell{{0, 0}, {1, 0}, {2, 0}, {3, 0}}},
	{"L4", []Cell{{0, 0}, {0, 1}, {0, 2}, {1, 2}}},
	{"T4", []Cell{{0, 0}, {1, 0}, {2, 0}, {1, 1}}},
	{"O4", []Cell{{0, 0}, {1, 0}, {0, 1}, {1, 1}}},
	{"Z4", []Cell{{0, 0}, {1, 0}, {1, 1}, {2, 1}}},
	{"F", []Cell{{1, 0}, {2, 0}, {0, 1}, {1, 1}, {1, 2}}},
	{"I5", []Cell{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}}},
	{"L5", []Cell{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {1, 3}}},
	{"N", []Cell{{0, 0}, {1, 0}, {1, 1}, {2, 1}, {3, 1}}},
	{"P", []Cell{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 2}}},
	{"T5", []Cell{{0, 0}, {1, 0}, {2, 0}, {1, 1}, {1, 2}}},
	{"U", []Cell{{0, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 1}}},
	{"V5", []Cell{{0, 0}, {0, 1}, {0, 2}, {1, 2}, {2, 2}}},
	{"W", []Cell{{0, 0}, {0, 1}, {1, 1}, {1, 2}, {2, 2}}},
	{"X", []Cell{{1, 0}, {0, 1}, {1, 1}, {2, 1}, {1, 2}}},
	{"Y", []Cell{{0, 1}, {1, 0}, {1, 1}, {2, 1}, {3, 1}}},
	{"Z5", []Cell{{0, 0}, {1, 0}, {1, 1}, {1, 2}, {2, 2}}},
}

var pieceIndex = func() map[PieceKey]int {
	idx := make(map[PieceKey]int, len(pieceTable))
	for i, def := range pieceTable {
		idx[def.key] = i
	}
	return idx
}()

// PieceInfo is the exported, read-only view of a catalog entry.
type PieceInfo struct {
	Key   PieceKey `json:"key"`
	Cells []Cell   `json:"cells"`
	Value int      `json:"value"`
}

// Piece returns the canonical cells of a piece.
func Piece(key PieceKey) ([]Cell, bool) {
	i, ok := pieceIndex[key]
	if !ok {
		return nil, false
	}
	return Normalize(pieceTable[i].cells), true
}

// PieceValue returns the number of cells in a piece, or 0 for an unknown key.
func PieceValue(key PieceKey) int {
	i, ok := pieceIndex[key]
	if !ok {
		return 0
	}
	return len(pieceTable[i].cells)
}

// PieceKeys returns every catalog key in display order.
func PieceKeys() []PieceKey {
	keys := make([]PieceKey, len(pieceTable))
	for i, def := range pieceTable {
		keys[i] = def.key
	}
	return keys
}

// Catalog lists every piece with its canonical cells.
func Catalog() []PieceInfo {
	out := make([]PieceInfo, len(pieceTable))
	for i, def := range pieceTable {
		out[i] = PieceInfo{Key: def.key, Cells: Normalize(def.cells), Value: len(def.cells)}
	}
	return out
}

// CatalogValue is the sum of every piece value.
func CatalogValue() int {
	total := 0
	for _, def := range pieceTable {
		total += len(def.cells)
	}
	return total
}
