package handler

import (
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/jhaladik/christmas-hunt-game/server/domain"
)

// RoomLister reports the rooms currently running.
type RoomLister interface {
	Rooms() []domain.RoomInfo
}

// NewRoomsHandler serves GET /api/rooms as a JSON array of {name, sessions}.
func NewRoomsHandler(rooms RoomLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rooms.Rooms()); err != nil {
			slog.ErrorContext(r.Context(), "failed to write room list", "err", err)
		}
	}
}
