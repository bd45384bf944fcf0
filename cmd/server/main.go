// Command server runs the game service as a standalone HTTP and websocket server
// backed by the in-memory store.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"blokus/internal/app"
	"blokus/internal/config"
	"blokus/internal/logging"
	"blokus/internal/ports/httpapi"
	"blokus/internal/ports/memory"
	"blokus/internal/ports/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	logger, sync, err := logging.NewProduction(os.Getenv("BLOKUS_DEV") != "")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer sync()

	port := getenv("PORT", "8080")
	allow := strings.Split(getenv("ORIGIN_ALLOWLIST", "http://localhost:"+port+",http://127.0.0.1:"+port), ",")

	if err := config.LoadGameConfig(getenv("BLOKUS_CONFIG", "data/game_config.json")); err != nil {
		logger.Warn("could not load game config, using defaults: %v", err)
	}
	cfg := config.GetGameConfig()
	if secret := os.Getenv("BLOKUS_SEAT_TOKEN_SECRET"); secret != "" {
		cfg.SeatTokenSecret = secret
	}

	svc, err := app.NewService(memory.NewStore(), cfg)
	if err != nil {
		return fmt.Errorf("init game service: %w", err)
	}
	hub := ws.NewHub(svc, logger, allow)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpapi.CORS(allow, httpapi.NewServer(svc, hub, logger).Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening on :%s (board %d, %d colors)", port, cfg.BoardSize, len(cfg.Colors))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
