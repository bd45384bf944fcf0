package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"blokus/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// storageModule is the part of runtime.NakamaModule the game store needs.
type storageModule interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
	StorageDelete(ctx context.Context, deletes []*runtime.StorageDelete) error
}

// NakamaGameStore implements ports.GameStore on the Nakama storage engine.
// Each game, with its players and move log, is one system-owned object keyed by game id;
// the storage object version is the optimistic concurrency token.
type NakamaGameStore struct {
	nk storageModule
}

// NewNakamaGameStore creates a store over nk.
func NewNakamaGameStore(nk storageModule) *NakamaGameStore {
	return &NakamaGameStore{nk: nk}
}

// CreateGame writes a new game object. The "*" version makes the write fail if the key exists.
func (s *NakamaGameStore) CreateGame(ctx context.Context, game ports.GameRecord) (ports.GameRecord, error) {
	version, err := s.write(ctx, game, "*")
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return ports.GameRecord{}, fmt.Errorf("%w: %s", ports.ErrGameExists, game.ID)
		}
		return ports.GameRecord{}, err
	}
	game.Version = version
	return game, nil
}

// LoadGame reads a game object.
func (s *NakamaGameStore) LoadGame(ctx context.Context, gameID string) (ports.GameRecord, error) {
	objects, err := s.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: GamesCollection,
		Key:        gameID,
	}})
	if err != nil {
		return ports.GameRecord{}, fmt.Errorf("%w: read %s: %v", ports.ErrStoreUnavailable, gameID, err)
	}
	if len(objects) == 0 {
		return ports.GameRecord{}, fmt.Errorf("%w: %s", ports.ErrGameNotFound, gameID)
	}

	var game ports.GameRecord
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &game); err != nil {
		return ports.GameRecord{}, fmt.Errorf("%w: decode %s: %v", ports.ErrStoreUnavailable, gameID, err)
	}
	game.Version = objects[0].GetVersion()
	return game, nil
}

// AppendMove rewrites the game object with the move appended, conditional on expectedVersion.
func (s *NakamaGameStore) AppendMove(ctx context.Context, gameID, expectedVersion string, move ports.MoveRecord, update ports.GameUpdate) (ports.GameRecord, error) {
	game, err := s.LoadGame(ctx, gameID)
	if err != nil {
		return ports.GameRecord{}, err
	}
	if game.Version != expectedVersion {
		return ports.GameRecord{}, fmt.Errorf("%w: %s at version %s, expected %s", ports.ErrVersionConflict, gameID, game.Version, expectedVersion)
	}

	game.Moves = append(game.Moves, move)
	game.Status = update.Status
	game.NextPlayerIndex = update.NextPlayerIndex

	version, err := s.write(ctx, game, expectedVersion)
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return ports.GameRecord{}, fmt.Errorf("%w: %s", ports.ErrVersionConflict, gameID)
		}
		return ports.GameRecord{}, err
	}
	game.Version = version
	return game, nil
}

// DeleteGame removes the game object.
func (s *NakamaGameStore) DeleteGame(ctx context.Context, gameID string) error {
	if _, err := s.LoadGame(ctx, gameID); err != nil {
		return err
	}
	if err := s.nk.StorageDelete(ctx, []*runtime.StorageDelete{{
		Collection: GamesCollection,
		Key:        gameID,
	}}); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ports.ErrStoreUnavailable, gameID, err)
	}
	return nil
}

func (s *NakamaGameStore) write(ctx context.Context, game ports.GameRecord, version string) (string, error) {
	value, err := json.Marshal(game)
	if err != nil {
		return "", fmt.Errorf("%w: encode %s: %v", ports.ErrStoreUnavailable, game.ID, err)
	}
	acks, err := s.nk.StorageWrite(ctx, []*runtime.StorageWrite{{
		Collection:      GamesCollection,
		Key:             game.ID,
		Value:           string(value),
		Version:         version,
		PermissionRead:  0, // server only
		PermissionWrite: 0,
	}})
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return "", err
		}
		return "", fmt.Errorf("%w: write %s: %v", ports.ErrStoreUnavailable, game.ID, err)
	}
	if len(acks) == 0 {
		return "", fmt.Errorf("%w: write %s: no ack", ports.ErrStoreUnavailable, game.ID)
	}
	return acks[0].GetVersion(), nil
}

var _ ports.GameStore = (*NakamaGameStore)(nil)
