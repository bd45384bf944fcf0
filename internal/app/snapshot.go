package app

import (
	"slices"
	"strings"
	"time"

	"blokus/internal/domain"
)

// PlayerView is one seat of a game snapshot.
type PlayerView struct {
	Color      domain.Color      `json:"color"`
	Name       string            `json:"name"`
	OrderIndex int               `json:"order_index"`
	Remaining  []domain.PieceKey `json:"remaining"`
	Placed     int               `json:"placed"`
	CanPlace   bool              `json:"can_place"`
	Score      *int              `json:"score,omitempty"`
}

// OccupiedCell is one claimed board cell.
type OccupiedCell struct {
	X     int          `json:"x"`
	Y     int          `json:"y"`
	Color domain.Color `json:"color"`
}

// MoveView describes the latest move of a game.
type MoveView struct {
	Color    domain.Color    `json:"color"`
	Passed   bool            `json:"passed"`
	Piece    domain.PieceKey `json:"piece,omitempty"`
	Rotation int             `json:"rotation"`
	Flipped  bool            `json:"flipped"`
	Cells    []domain.Cell   `json:"cells,omitempty"`
	Turn     int             `json:"turn"`
}

// Snapshot is the full game state returned to callers.
type Snapshot struct {
	GameID          string               `json:"game_id"`
	CreatedAt       time.Time            `json:"created_at"`
	Status          domain.Status        `json:"status"`
	BoardSize       int                  `json:"board_size"`
	NextPlayerIndex int                  `json:"next_player_index"`
	CurrentColor    *domain.Color        `json:"current_color,omitempty"`
	Turn            int                  `json:"turn"`
	Players         []PlayerView         `json:"players"`
	Occupied        []OccupiedCell       `json:"occupied"`
	Rows            []string             `json:"rows"`
	LastMove        *MoveView            `json:"last_move,omitempty"`
	Scores          map[domain.Color]int `json:"scores,omitempty"`
	Winners         []domain.Color       `json:"winners,omitempty"`
}

var colorGlyph = [domain.NumColors]byte{'B', 'Y', 'R', 'G'}

func buildSnapshot(gameID string, createdAt time.Time, s *domain.State, rules domain.ScoreRules) *Snapshot {
	snap := &Snapshot{
		GameID:          gameID,
		CreatedAt:       createdAt,
		Status:          s.Status,
		BoardSize:       s.Board.Size(),
		NextPlayerIndex: s.NextPlayerIndex,
		Turn:            s.NextTurn(),
		Scores:          s.Scores(rules),
	}
	if s.Status == domain.StatusActive {
		current := s.CurrentColor()
		snap.CurrentColor = &current
	}

	for _, p := range s.Players {
		view := PlayerView{
			Color:      p.Color,
			Name:       p.Name,
			OrderIndex: p.OrderIndex,
			Remaining:  s.Board.RemainingPieces(p.Color),
			Placed:     len(s.Board.UsedPieces(p.Color)),
			CanPlace:   domain.HasLegalPlacement(s, p.Color),
		}
		if view.Remaining == nil {
			view.Remaining = []domain.PieceKey{}
		}
		if score, ok := snap.Scores[p.Color]; ok {
			view.Score = &score
		}
		snap.Players = append(snap.Players, view)
	}

	snap.Occupied, snap.Rows = renderBoard(s.Board)
	if len(s.Moves) > 0 {
		last := s.Moves[len(s.Moves)-1]
		snap.LastMove = &MoveView{
			Color:    last.Color,
			Passed:   last.IsPass(),
			Piece:    last.Piece,
			Rotation: last.Rotation,
			Flipped:  last.Flipped,
			Cells:    slices.Clone(last.Cells),
			Turn:     last.Turn,
		}
	}
	snap.Winners = winners(snap.Scores, s.Players)
	return snap
}

// renderBoard lists claimed cells row-major and draws one string per row ('.' for empty).
func renderBoard(b *domain.Board) ([]OccupiedCell, []string) {
	size := b.Size()
	cells := []OccupiedCell{}
	rows := make([]string, size)
	var line strings.Builder
	for y := 0; y < size; y++ {
		line.Reset()
		for x := 0; x < size; x++ {
			color, ok := b.At(domain.Cell{X: x, Y: y})
			if !ok {
				line.WriteByte('.')
				continue
			}
			line.WriteByte(colorGlyph[color])
			cells = append(cells, OccupiedCell{X: x, Y: y, Color: color})
		}
		rows[y] = line.String()
	}
	return cells, rows
}

// winners returns the colors sharing the top score, in turn order.
func winners(scores map[domain.Color]int, players []domain.Player) []domain.Color {
	if len(scores) == 0 {
		return nil
	}
	best := 0
	first := true
	for _, p := range players {
		if sc := scores[p.Color]; first || sc > best {
			best = sc
			first = false
		}
	}
	var out []domain.Color
	for _, p := range players {
		if scores[p.Color] == best {
			out = append(out, p.Color)
		}
	}
	return out
}
