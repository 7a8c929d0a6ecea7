package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhaladik/christmas-hunt-game/server"
	"github.com/jhaladik/christmas-hunt-game/server/application"
	"github.com/jhaladik/christmas-hunt-game/server/config"
	"github.com/jhaladik/christmas-hunt-game/server/domain"
	"github.com/jhaladik/christmas-hunt-game/server/store"
	"github.com/jhaladik/christmas-hunt-game/server/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OTLPEndpoint,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Output:      os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			slog.Error("telemetry shutdown failed", "err", err)
		}
	}()

	level, err := loadLevel(cfg.LevelFile)
	if err != nil {
		return err
	}
	st, err := openStore(cfg.SnapshotDir)
	if err != nil {
		return err
	}

	pubsub := domain.NewSimplePubSub()
	rooms, err := domain.NewRoomManager(ctx, pubsub, application.Factory(application.Config{
		Level:           level,
		MinTeamsToStart: cfg.MinTeamsToStart,
		Store:           st,
	}))
	if err != nil {
		return fmt.Errorf("room manager: %w", err)
	}

	endpoint := domain.DefaultEndpointConfig()
	endpoint.IdleTimeout = cfg.IdleTimeout
	handler := server.Route(ctx, server.RouterConfig{
		PubSub:      pubsub,
		Rooms:       rooms,
		DefaultRoom: cfg.DefaultRoom,
		Endpoint:    endpoint,
	})
	s := server.NewServer(cfg.ListenAddr(), handler)

	serveErr := make(chan error, 1)
	go func() {
		if err := s.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	slog.InfoContext(ctx, "server listening",
		"addr", cfg.ListenAddr(),
		"level", level.ID,
		"defaultRoom", cfg.DefaultRoom,
	)

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			stop()
			rooms.Wait()
			return fmt.Errorf("http server: %w", err)
		}
	}
	slog.InfoContext(ctx, "shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(ctx, "graceful shutdown failed", "err", err)
		if err := s.Close(); err != nil {
			slog.ErrorContext(ctx, "forced close failed", "err", err)
		}
	}
	// Rooms stop with ctx and save their final snapshot on the way out.
	rooms.Wait()
	slog.InfoContext(ctx, "server shutdown complete")
	return nil
}

func loadLevel(path string) (*application.Level, error) {
	if path == "" {
		return application.DefaultLevel(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open level: %w", err)
	}
	defer f.Close()
	level, err := application.LoadLevel(f)
	if err != nil {
		return nil, fmt.Errorf("load level %s: %w", path, err)
	}
	return level, nil
}

func openStore(dir string) (store.Store, error) {
	if dir == "" {
		return store.NewMemory(), nil
	}
	st, err := store.NewFile(dir)
	if err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}
	return st, nil
}
