package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
)

// GameConfig holds the tunable rules and server settings.
type GameConfig struct {
	BoardSize int      `json:"board_size"`
	Colors    []string `json:"colors"`
	// Bonuses are taken as given: 0 turns a bonus off. Keys missing from the file keep Default().
	CompletionBonus int `json:"completion_bonus"`
	MonominoBonus   int `json:"monomino_bonus"`
	// AppendRetries bounds how often a move is re-validated after a concurrent append won.
	AppendRetries       int    `json:"append_retries"`
	SeatTokenSecret     string `json:"seat_token_secret"`
	SeatTokenTTLSeconds int    `json:"seat_token_ttl_seconds"`
	MatchTickRate       int    `json:"match_tick_rate"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// Default returns the reference configuration.
func Default() GameConfig {
	return GameConfig{
		BoardSize:           20,
		Colors:              []string{"blue", "yellow", "red", "green"},
		CompletionBonus:     15,
		MonominoBonus:       5,
		AppendRetries:       3,
		SeatTokenTTLSeconds: 24 * 60 * 60,
		MatchTickRate:       5,
	}
}

// LoadGameConfig loads the game configuration from the given path.
// Keys missing from the file keep their default values.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		c := Default()
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the loaded configuration, or the defaults if nothing was loaded.
func GetGameConfig() GameConfig {
	if cfg == nil {
		return Default()
	}
	return *cfg
}

// ApplyEnv overrides configuration values from a Nakama runtime env map.
func (c GameConfig) ApplyEnv(env map[string]string) GameConfig {
	if v, ok := env["blokus_seat_token_secret"]; ok && v != "" {
		c.SeatTokenSecret = v
	}
	if v, ok := env["blokus_board_size"]; ok {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			c.BoardSize = i
		}
	}
	if v, ok := env["blokus_append_retries"]; ok {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			c.AppendRetries = i
		}
	}
	return c
}
