package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"

	adapterwebsocket "github.com/jhaladik/christmas-hunt-game/server/adapter/websocket"
	"github.com/jhaladik/christmas-hunt-game/server/domain"
)

const maxRoomName = 64

type AcceptHandler struct {
	ctx         context.Context
	pubsub      domain.PubSub
	rooms       *domain.RoomManager
	defaultRoom domain.RoomName
	endpointCfg domain.EndpointConfig
}

// NewAcceptHandler serves GET /ws?room=<name>. Endpoints end when either the
// request or ctx is done.
func NewAcceptHandler(ctx context.Context, pubsub domain.PubSub, rooms *domain.RoomManager, defaultRoom string, cfg domain.EndpointConfig) *AcceptHandler {
	return &AcceptHandler{
		ctx:         ctx,
		pubsub:      pubsub,
		rooms:       rooms,
		defaultRoom: domain.RoomName(defaultRoom),
		endpointCfg: cfg,
	}
}

func (h *AcceptHandler) roomName(r *http.Request) (domain.RoomName, bool) {
	name := strings.TrimSpace(r.URL.Query().Get("room"))
	if name == "" {
		return h.defaultRoom, true
	}
	return domain.RoomName(name), len(name) <= maxRoomName
}

func (h *AcceptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(h.ctx, cancel)
	defer stop()

	name, ok := h.roomName(r)
	if !ok {
		http.Error(w, "room name too long", http.StatusBadRequest)
		return
	}
	room, err := h.rooms.Room(name)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open room", "room", name, "err", err)
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrRoomClosed) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // dev only: origin check disabled
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to accept", "err", err)
		return
	}

	session := domain.NewSession()
	transport := adapterwebsocket.NewTransportFrom(conn)
	connection := domain.NewConnection(session.ID(), transport)
	endpoint, err := domain.NewSessionEndpoint(session, connection, h.pubsub, room, h.endpointCfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create session endpoint", "err", err)
		conn.Close(websocket.StatusInternalError, "endpoint unavailable")
		return
	}
	slog.DebugContext(ctx, "accepted new connection", "session_id", session.ID(), "room", name)
	if err := endpoint.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "session endpoint ended", "session_id", session.ID(), "err", err)
	}
}
