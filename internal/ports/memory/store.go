// Package memory provides an in-process GameStore for the standalone server and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"blokus/internal/ports"
)

type entry struct {
	game    ports.GameRecord
	version int
}

// Store is a GameStore backed by a mutex-guarded map.
type Store struct {
	mu    sync.RWMutex
	games map[string]*entry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{games: make(map[string]*entry)}
}

// CreateGame stores a new game at version 1.
func (s *Store) CreateGame(ctx context.Context, game ports.GameRecord) (ports.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return ports.GameRecord{}, fmt.Errorf("%w: %v", ports.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[game.ID]; exists {
		return ports.GameRecord{}, fmt.Errorf("%w: %s", ports.ErrGameExists, game.ID)
	}
	e := &entry{game: cloneGame(game), version: 1}
	s.games[game.ID] = e
	return e.snapshot(), nil
}

// LoadGame returns a copy of the stored game.
func (s *Store) LoadGame(ctx context.Context, gameID string) (ports.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return ports.GameRecord{}, fmt.Errorf("%w: %v", ports.ErrStoreUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.games[gameID]
	if !ok {
		return ports.GameRecord{}, fmt.Errorf("%w: %s", ports.ErrGameNotFound, gameID)
	}
	return e.snapshot(), nil
}

// AppendMove appends a move if the game is still at expectedVersion.
func (s *Store) AppendMove(ctx context.Context, gameID, expectedVersion string, move ports.MoveRecord, update ports.GameUpdate) (ports.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return ports.GameRecord{}, fmt.Errorf("%w: %v", ports.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.games[gameID]
	if !ok {
		return ports.GameRecord{}, fmt.Errorf("%w: %s", ports.ErrGameNotFound, gameID)
	}
	if strconv.Itoa(e.version) != expectedVersion {
		return ports.GameRecord{}, fmt.Errorf("%w: %s at version %d, expected %s", ports.ErrVersionConflict, gameID, e.version, expectedVersion)
	}

	move.Cells = slices.Clone(move.Cells)
	e.game.Moves = append(e.game.Moves, move)
	e.game.Status = update.Status
	e.game.NextPlayerIndex = update.NextPlayerIndex
	e.version++
	return e.snapshot(), nil
}

// DeleteGame removes a game and everything it owns.
func (s *Store) DeleteGame(ctx context.Context, gameID string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[gameID]; !ok {
		return fmt.Errorf("%w: %s", ports.ErrGameNotFound, gameID)
	}
	delete(s.games, gameID)
	return nil
}

func (e *entry) snapshot() ports.GameRecord {
	g := cloneGame(e.game)
	g.Version = strconv.Itoa(e.version)
	return g
}

func cloneGame(g ports.GameRecord) ports.GameRecord {
	out := g
	out.Players = slices.Clone(g.Players)
	out.Moves = make([]ports.MoveRecord, len(g.Moves))
	for i, m := range g.Moves {
		m.Cells = slices.Clone(m.Cells)
		out.Moves[i] = m
	}
	return out
}

var _ ports.GameStore = (*Store)(nil)
