package domain

// ScoreRules holds the end-of-game bonuses.
type ScoreRules struct {
	CompletionBonus int // every piece placed
	MonominoBonus   int // every piece placed and the last one was the monomino
}

// DefaultScoreRules are the reference bonuses.
var DefaultScoreRules = ScoreRules{CompletionBonus: 15, MonominoBonus: 5}

// Score computes a color's final score from the board.
func Score(b *Board, color Color, rules ScoreRules) int {
	remaining := b.RemainingPieces(color)
	if len(remaining) > 0 {
		score := 0
		for _, key := range remaining {
			score -= PieceValue(key)
		}
		return score
	}

	score := rules.CompletionBonus
	if last, ok := b.LastPiece(color); ok && last == MonominoKey {
		score += rules.MonominoBonus
	}
	return score
}

// Scores returns every seated color's score, or nil while the game is active.
func (s *State) Scores(rules ScoreRules) map[Color]int {
	if s.Status != StatusFinished {
		return nil
	}
	out := make(map[Color]int, len(s.Players))
	for _, p := range s.Players {
		out[p.Color] = Score(s.Board, p.Color, rules)
	}
	return out
}
