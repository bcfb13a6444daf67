package listener

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pixil98/go-waystones/internal/game"
	"github.com/pixil98/go-waystones/internal/player"
)

// SessionRunner plays a character over a connection until it ends.
type SessionRunner interface {
	RunSession(ctx context.Context, name string, conn player.Conn) error
}

type ConnectionManager struct {
	pm SessionRunner
}

func NewConnectionManager(pm SessionRunner) *ConnectionManager {
	return &ConnectionManager{
		pm: pm,
	}
}

func (m *ConnectionManager) AcceptConnection(ctx context.Context, name string, conn player.Conn) {
	err := m.pm.RunSession(ctx, name, conn)
	switch {
	case errors.Is(err, game.ErrPlayerReconnected):
		slog.DebugContext(ctx, "player session replaced", "player", name)
	case err != nil:
		slog.WarnContext(ctx, "player session", "player", name, "error", err)
	}
}
