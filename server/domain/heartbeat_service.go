package domain

import (
	"context"
	"log/slog"
	"time"
)

// Pinger sends a protocol-level ping and waits for the pong.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HeartbeatService pings the peer periodically and records each pong on the session.
type HeartbeatService struct {
	pingInterval time.Duration
	pingTimeout  time.Duration
	session      *Session
	pinger       Pinger
}

func NewHeartbeatService(pingInterval time.Duration, session *Session, pinger Pinger) *HeartbeatService {
	return &HeartbeatService{
		pingInterval: pingInterval,
		pingTimeout:  pingInterval,
		session:      session,
		pinger:       pinger,
	}
}

// Run pings every pingInterval until ctx is cancelled. A failed ping is
// only logged; the owner loop decides when a silent peer is dead.
func (h *HeartbeatService) Run(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, h.pingTimeout)
			err := h.pinger.Ping(pingCtx)
			cancel()
			if err != nil {
				slog.DebugContext(ctx, "heartbeat: ping failed", "sessionID", h.session.ID(), "err", err)
				continue
			}
			h.session.TouchPong()
		}
	}
}
