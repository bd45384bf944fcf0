package domain

import (
	"slices"
	"testing"
)

func TestCatalogShape(t *testing.T) {
	catalog := Catalog()
	if len(catalog) != 21 {
		t.Fatalf("catalog size = %d, want 21", len(catalog))
	}

	bySize := make(map[int]int)
	seen := make(map[PieceKey]bool)
	for _, p := range catalog {
		if seen[p.Key] {
			t.Fatalf("duplicate piece key %q", p.Key)
		}
		seen[p.Key] = true
		bySize[p.Value]++

		if p.Value != len(p.Cells) {
			t.Fatalf("piece %s value %d, cells %d", p.Key, p.Value, len(p.Cells))
		}
		if !slices.Equal(p.Cells, Normalize(p.Cells)) {
			t.Fatalf("piece %s is not normalized: %v", p.Key, p.Cells)
		}
	}

	want := map[int]int{1: 1, 2: 1, 3: 2, 4: 5, 5: 12}
	for size, n := range want {
		if bySize[size] != n {
			t.Errorf("pieces of size %d = %d, want %d", size, bySize[size], n)
		}
	}
	if got := CatalogValue(); got != 89 {
		t.Fatalf("CatalogValue() = %d, want 89", got)
	}
}

func TestPieceReturnsCopy(t *testing.T) {
	cells, ok := Piece("X")
	if !ok {
		t.Fatal("X pentomino missing")
	}
	cells[0] = Cell{X: 99, Y: 99}

	again, _ := Piece("X")
	if again[0] == (Cell{X: 99, Y: 99}) {
		t.Fatal("catalog mutated through returned slice")
	}
}

func TestPieceUnknown(t *testing.T) {
	if _, ok := Piece("Q9"); ok {
		t.Fatal("expected unknown piece")
	}
	if PieceValue("Q9") != 0 {
		t.Fatal("unknown piece should have no value")
	}
}

func TestPieceKeysOrder(t *testing.T) {
	keys := PieceKeys()
	if keys[0] != MonominoKey {
		t.Fatalf("first key = %s, want %s", keys[0], MonominoKey)
	}
	for i, p := range Catalog() {
		if keys[i] != p.Key {
			t.Fatalf("PieceKeys()[%d] = %s, Catalog()[%d] = %s", i, keys[i], i, p.Key)
		}
	}
}
