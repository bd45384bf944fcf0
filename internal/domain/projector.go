package domain

import "fmt"

// Replay rebuilds a game's state from its move log.
// Replaying the same log always yields the same state.
func Replay(size int, players []Player, moves []Move) (*State, error) {
	if err := ValidateBoardSize(size); err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("%w: no players", ErrInvalidPlayers)
	}
	state := NewState(size, players)
	for _, m := range moves {
		if err := state.Apply(m); err != nil {
			return nil, err
		}
	}
	return state, nil
}
