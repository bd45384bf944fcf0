package nakama

import (
	"context"
	"database/sql"
	"fmt"

	"blokus/internal/app"
	"blokus/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

const gameConfigPath = "data/game_config.json"

// InitModule wires RPCs, the match handler and hooks for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := config.LoadGameConfig(gameConfigPath); err != nil {
		logger.Warn("InitModule: Could not load game config, using defaults: %v", err)
	}
	cfg := config.GetGameConfig()
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		cfg = cfg.ApplyEnv(env)
	}
	if cfg.SeatTokenSecret == "" {
		logger.Warn("InitModule: blokus_seat_token_secret is not set; move requests are trusted by color.")
	}

	svc, err := app.NewService(NewNakamaGameStore(nk), cfg)
	if err != nil {
		return fmt.Errorf("init game service: %w", err)
	}

	if err := RegisterRPCs(initializer, svc); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameBlokus, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(svc, cfg.MatchTickRate), nil
	}); err != nil {
		return err
	}

	if err := initializer.RegisterAfterAuthenticateDevice(AfterAuthenticateDevice); err != nil {
		return err
	}

	logger.Info("Blokus Go module loaded (board %d, %d colors).", cfg.BoardSize, len(cfg.Colors))
	return nil
}
