package domain

import (
	"errors"
	"testing"
)

func TestNewPlayers(t *testing.T) {
	tests := []struct {
		name    string
		colors  []Color
		wantErr error
	}{
		{name: "default order", colors: DefaultColors},
		{name: "subset keeps order", colors: []Color{Red, Blue}},
		{name: "empty", colors: nil, wantErr: ErrInvalidPlayers},
		{name: "duplicate", colors: []Color{Blue, Blue}, wantErr: ErrInvalidPlayers},
		{name: "unknown", colors: []Color{Blue, Color(9)}, wantErr: ErrUnknownColor},
		{name: "too many", colors: []Color{Blue, Yellow, Red, Green, Blue}, wantErr: ErrInvalidPlayers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			players, err := NewPlayers(tt.colors, []string{"first"})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewPlayers() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewPlayers() error = %v", err)
			}
			for i, p := range players {
				if p.Color != tt.colors[i] || p.OrderIndex != i {
					t.Fatalf("player %d = %+v", i, p)
				}
			}
			if players[0].Name != "first" || players[1].Name != "" {
				t.Fatalf("names not applied in order: %+v", players)
			}
		})
	}
}

func TestTurnRotation(t *testing.T) {
	s := NewState(DefaultBoardSize, fourPlayers(t))
	if s.NextPlayerIndex != 0 || s.CurrentColor() != Blue {
		t.Fatalf("initial turn = %d (%s)", s.NextPlayerIndex, s.CurrentColor())
	}

	first, err := Validate(s, Proposal{Color: Blue, Piece: "I1", Anchor: Cell{0, 0}})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if err := s.Apply(first); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if s.NextPlayerIndex != 1 || s.LastActedIndex != 0 {
		t.Fatalf("after placement next/last = %d/%d, want 1/0", s.NextPlayerIndex, s.LastActedIndex)
	}

	for want := 2; want <= 4; want++ {
		m, err := Pass(s, s.CurrentColor())
		if err != nil {
			t.Fatalf("Pass() error = %v", err)
		}
		if err := s.Apply(m); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if s.NextPlayerIndex != want%4 {
			t.Fatalf("next = %d, want %d", s.NextPlayerIndex, want%4)
		}
	}
	if s.Status != StatusActive {
		t.Fatal("three passes must not finish a four player game")
	}
	if s.NextTurn() != 5 {
		t.Fatalf("NextTurn() = %d, want 5", s.NextTurn())
	}
}

func TestEndDetection(t *testing.T) {
	players := fourPlayers(t)
	tests := []struct {
		name  string
		moves []Move
		want  Status
	}{
		{
			name:  "four passes from the start",
			moves: []Move{PassMove(Blue, 1), PassMove(Yellow, 2), PassMove(Red, 3), PassMove(Green, 4)},
			want:  StatusFinished,
		},
		{
			name: "placement breaks the pass streak",
			moves: []Move{
				PassMove(Blue, 1), PassMove(Yellow, 2), PassMove(Red, 3),
				place(Green, "I1", 4, Cell{19, 19}),
				PassMove(Blue, 5), PassMove(Yellow, 6), PassMove(Red, 7),
			},
			want: StatusActive,
		},
		{
			name: "trailing passes after placements",
			moves: []Move{
				place(Blue, "I1", 1, Cell{0, 0}),
				place(Yellow, "I1", 2, Cell{19, 0}),
				PassMove(Red, 3), PassMove(Green, 4), PassMove(Blue, 5), PassMove(Yellow, 6),
			},
			want: StatusFinished,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustReplay(t, DefaultBoardSize, players, tt.moves)
			if s.Status != tt.want {
				t.Fatalf("status = %s, want %s", s.Status, tt.want)
			}
		})
	}
}

func TestFinishedRejectsMoves(t *testing.T) {
	s := mustReplay(t, DefaultBoardSize, fourPlayers(t), []Move{
		PassMove(Blue, 1), PassMove(Yellow, 2), PassMove(Red, 3), PassMove(Green, 4),
	})

	_, err := Pass(s, s.CurrentColor())
	mustReason(t, err, ReasonGameFinished)

	_, err = Validate(s, Proposal{Color: Blue, Piece: "I1", Anchor: Cell{0, 0}})
	mustReason(t, err, ReasonGameFinished)

	if err := s.Apply(PassMove(Blue, 5)); !errors.Is(err, ErrCorruptLog) {
		t.Fatalf("Apply() after finish error = %v, want ErrCorruptLog", err)
	}
}

func TestApplyRejectsCorruptMoves(t *testing.T) {
	tests := []struct {
		name string
		prev []Move
		move Move
	}{
		{name: "wrong color", move: PassMove(Yellow, 1)},
		{name: "turn not increasing", prev: []Move{PassMove(Blue, 3)}, move: PassMove(Yellow, 3)},
		{name: "overlap", prev: []Move{place(Blue, "I1", 1, Cell{0, 0})}, move: place(Yellow, "I1", 2, Cell{0, 0})},
		{name: "off board", move: place(Blue, "I1", 1, Cell{20, 0})},
		{name: "cells do not match piece", move: place(Blue, "I2", 1, Cell{0, 0})},
		{name: "unknown piece", move: place(Blue, "Q", 1, Cell{0, 0})},
		{name: "empty piece without cells", move: place(Blue, "", 1)},
		{name: "piece reused", prev: []Move{place(Blue, "I1", 1, Cell{0, 0}), PassMove(Yellow, 2), PassMove(Red, 3), PassMove(Green, 4)}, move: place(Blue, "I1", 5, Cell{1, 1})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Replay(DefaultBoardSize, fourPlayers(t), append(tt.prev, tt.move))
			if !errors.Is(err, ErrCorruptLog) {
				t.Fatalf("Replay() error = %v, want ErrCorruptLog", err)
			}
			if IsRejection(err) {
				t.Fatal("corrupt log must not look like a rule rejection")
			}
		})
	}
}
