package domain

import (
	"math/rand"
	"testing"
)

func fourPlayers(t *testing.T) []Player {
	t.Helper()
	players, err := NewPlayers(DefaultColors, []string{"Ann", "Bo", "Cy", "Di"})
	if err != nil {
		t.Fatalf("NewPlayers() error = %v", err)
	}
	return players
}

func place(color Color, key PieceKey, turn int, cells ...Cell) Move {
	return Move{Kind: MovePlacement, Color: color, Piece: key, Cells: cells, Turn: turn}
}

func mustReplay(t *testing.T, size int, players []Player, moves []Move) *State {
	t.Helper()
	s, err := Replay(size, players, moves)
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	return s
}

func mustReason(t *testing.T, err error, want Reason) {
	t.Helper()
	got, ok := ReasonOf(err)
	if !ok {
		t.Fatalf("expected rejection %s, got %v", want, err)
	}
	if got != want {
		t.Fatalf("rejection = %s (%v), want %s", got, err, want)
	}
}

// findProposal searches for any legal placement for the current color, in random order.
func findProposal(s *State, rng *rand.Rand) (Proposal, bool) {
	color := s.CurrentColor()
	first := s.IsFirstMove(color)
	targets := anchorTargets(s.Board, color, first)
	keys := s.Board.RemainingPieces(color)
	rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	rng.Shuffle(len(targets), func(i, j int) { targets[i], targets[j] = targets[j], targets[i] })

	for _, key := range keys {
		for _, o := range Orientations(key) {
			for _, target := range targets {
				for _, c := range o.Cells {
					anchor := Cell{X: target.X - c.X, Y: target.Y - c.Y}
					cells := Translate(o.Cells, anchor.X, anchor.Y)
					if checkPlacement(s.Board, color, cells, first) == nil {
						return Proposal{Color: color, Piece: key, Rotation: o.Rotation, Flipped: o.Flipped, Anchor: anchor}, true
					}
				}
			}
		}
	}
	return Proposal{}, false
}

// playOut plays a full game by always taking some legal placement, passing only when forced.
func playOut(t *testing.T, seed int64) *State {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	s := NewState(DefaultBoardSize, fourPlayers(t))

	for s.Status == StatusActive {
		if len(s.Moves) > 500 {
			t.Fatal("game did not finish")
		}
		color := s.CurrentColor()
		p, ok := findProposal(s, rng)
		var (
			m   Move
			err error
		)
		if ok {
			m, err = Validate(s, p)
			if err != nil {
				t.Fatalf("turn %d: Validate(%+v) rejected a legal proposal: %v", s.NextTurn(), p, err)
			}
		} else {
			if HasLegalPlacement(s, color) {
				t.Fatalf("turn %d: %s forced to pass but HasLegalPlacement is true", s.NextTurn(), color)
			}
			m, err = Pass(s, color)
			if err != nil {
				t.Fatalf("Pass() error = %v", err)
			}
		}
		if err := s.Apply(m); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
	}
	return s
}
