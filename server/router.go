package server

import (
	"context"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jhaladik/christmas-hunt-game/server/domain"
	"github.com/jhaladik/christmas-hunt-game/server/handler"
)

type RouterConfig struct {
	PubSub      domain.PubSub
	Rooms       *domain.RoomManager
	DefaultRoom string
	Endpoint    domain.EndpointConfig
}

// Route mounts the websocket, health and room listing endpoints. Sessions
// accepted through it end when ctx is done.
func Route(ctx context.Context, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /ws", handler.NewAcceptHandler(ctx, cfg.PubSub, cfg.Rooms, cfg.DefaultRoom, cfg.Endpoint))
	mux.Handle("GET /health", handler.NewHealthHandler())
	mux.Handle("GET /api/rooms", handler.NewRoomsHandler(cfg.Rooms))
	return otelhttp.NewHandler(mux, "christmas-hunt",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
