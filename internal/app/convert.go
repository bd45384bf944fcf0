package app

import (
	"fmt"

	"blokus/internal/domain"
	"blokus/internal/ports"
)

// replay projects a stored game. Records that do not decode are a corrupt log, not a rejection.
func replay(rec ports.GameRecord) (*domain.State, error) {
	players, err := playersFromRecords(rec.Players)
	if err != nil {
		return nil, err
	}
	moves := make([]domain.Move, len(rec.Moves))
	for i, mr := range rec.Moves {
		m, err := moveFromRecord(mr)
		if err != nil {
			return nil, err
		}
		moves[i] = m
	}
	state, err := domain.Replay(rec.BoardSize, players, moves)
	if err != nil {
		// Only the corrupt-log sentinel stays in the chain; the rest would read as client errors.
		return nil, fmt.Errorf("%w: replay game %s: %v", domain.ErrCorruptLog, rec.ID, err)
	}
	return state, nil
}

func playersFromRecords(records []ports.PlayerRecord) ([]domain.Player, error) {
	players := make([]domain.Player, len(records))
	for i, pr := range records {
		color, err := domain.ParseColor(pr.Color)
		if err != nil {
			return nil, fmt.Errorf("%w: player %s: %v", domain.ErrCorruptLog, pr.ID, err)
		}
		if pr.OrderIndex != i {
			return nil, fmt.Errorf("%w: player %s has order index %d at position %d", domain.ErrCorruptLog, pr.ID, pr.OrderIndex, i)
		}
		players[i] = domain.Player{Color: color, Name: pr.Name, OrderIndex: pr.OrderIndex}
	}
	return players, nil
}

func moveFromRecord(mr ports.MoveRecord) (domain.Move, error) {
	color, err := domain.ParseColor(mr.PlayerColor)
	if err != nil {
		return domain.Move{}, fmt.Errorf("%w: move %s: %v", domain.ErrCorruptLog, mr.ID, err)
	}
	if mr.Passed {
		return domain.PassMove(color, mr.TurnNumber), nil
	}
	cells := make([]domain.Cell, len(mr.Cells))
	for i, c := range mr.Cells {
		cells[i] = domain.Cell{X: c[0], Y: c[1]}
	}
	return domain.Move{
		Kind:     domain.MovePlacement,
		Color:    color,
		Piece:    domain.PieceKey(mr.PieceKey),
		Rotation: mr.Rotation,
		Flipped:  mr.Flipped,
		Cells:    cells,
		Turn:     mr.TurnNumber,
	}, nil
}

func moveToRecord(gameID, moveID string, m domain.Move) ports.MoveRecord {
	rec := ports.MoveRecord{
		ID:          moveID,
		GameID:      gameID,
		PlayerColor: m.Color.String(),
		Passed:      m.IsPass(),
		TurnNumber:  m.Turn,
	}
	if m.IsPass() {
		return rec
	}
	rec.PieceKey = string(m.Piece)
	rec.Rotation = m.Rotation
	rec.Flipped = m.Flipped
	rec.Cells = make([][2]int, len(m.Cells))
	for i, c := range m.Cells {
		rec.Cells[i] = [2]int{c.X, c.Y}
	}
	return rec
}
