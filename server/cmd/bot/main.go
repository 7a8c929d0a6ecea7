package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/jhaladik/christmas-hunt-game/server/application"
	"github.com/jhaladik/christmas-hunt-game/server/domain"
	"github.com/jhaladik/christmas-hunt-game/utils"
)

const decideInterval = 100 * time.Millisecond

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := utils.GetEnvDefault("ADDR", "localhost")
	port := utils.GetEnvDefault("PORT", "9090")
	room := utils.GetEnvDefault("ROOM", "")
	botCountStr := utils.GetEnvDefault("BOT_COUNT", "3")
	botCount, err := strconv.Atoi(botCountStr)
	if err != nil || botCount < 1 {
		slog.Error("invalid BOT_COUNT", "value", botCountStr)
		os.Exit(1)
	}

	u := url.URL{Scheme: "ws", Host: addr + ":" + port, Path: "/ws"}
	if room != "" {
		u.RawQuery = url.Values{"room": {room}}.Encode()
	}
	serverURL := u.String()
	slog.Info("starting bots", "count", botCount, "server", serverURL)

	var wg sync.WaitGroup
	for i := range botCount {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runBot(ctx, serverURL, id)
		}(i)
	}

	wg.Wait()
	slog.Info("all bots stopped")
}

func runBot(ctx context.Context, serverURL string, id int) {
	logger := slog.With("botID", id)
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(id)))

	for {
		if ctx.Err() != nil {
			return
		}
		err := botSession(ctx, serverURL, fmt.Sprintf("Elf-%d", id), rng, logger)
		if err != nil && ctx.Err() == nil {
			logger.Warn("bot session ended, reconnecting", "err", err)
			select {
			case <-ctx.Done():
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func botSession(ctx context.Context, serverURL, name string, rng *rand.Rand, logger *slog.Logger) error {
	conn, _, err := websocket.Dial(ctx, serverURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()
	logger.Info("connected")

	join, err := domain.Encode(application.MsgJoin, application.JoinRequest{Name: name})
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, join); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	view := application.NewBotView()
	bot := application.NewRuleBot(rng)
	var mu sync.Mutex

	eg, ctx := errgroup.WithContext(ctx)

	// Read loop.
	eg.Go(func() error {
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return fmt.Errorf("read: %w", err)
			}
			mu.Lock()
			err = view.Apply(data)
			mu.Unlock()
			if err != nil {
				logger.Debug("skipping frame", "err", err)
			}
		}
	})

	// Decide and send loop.
	eg.Go(func() error {
		ticker := time.NewTicker(decideInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}

			mu.Lock()
			action := bot.Decide(view)
			mu.Unlock()

			msgs, err := action.Messages()
			if err != nil {
				return err
			}
			for _, m := range msgs {
				if err := conn.Write(ctx, websocket.MessageText, m); err != nil {
					return fmt.Errorf("write: %w", err)
				}
			}
		}
	})

	err = eg.Wait()
	conn.Close(websocket.StatusNormalClosure, "shutdown")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
