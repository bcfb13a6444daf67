package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/pixil98/go-waystones/internal/storage"
)

const (
	DefaultLinklessTimeout = 5 * time.Minute
)

// SessionTicker implements Ticker and removes players that have been linkless
// for longer than the timeout, saving them first.
type SessionTicker struct {
	world           *WorldState
	chars           storage.Storer[*Character]
	linklessTimeout time.Duration
	now             func() time.Time
}

type SessionTickerOpt func(*SessionTicker)

func NewSessionTicker(world *WorldState, chars storage.Storer[*Character], opts ...SessionTickerOpt) *SessionTicker {
	st := &SessionTicker{
		world:           world,
		chars:           chars,
		linklessTimeout: DefaultLinklessTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

func WithLinklessTimeout(d time.Duration) SessionTickerOpt {
	return func(st *SessionTicker) {
		st.linklessTimeout = d
	}
}

func (st *SessionTicker) Tick(ctx context.Context) error {
	cutoff := st.now().Add(-st.linklessTimeout)
	expired := func(ps *PlayerState) bool {
		linkless, since := ps.Linkless()
		return linkless && since.Before(cutoff)
	}

	// Collect first: ForEachPlayer holds the world lock and removal takes it.
	var candidates []storage.Identifier
	st.world.ForEachPlayer(func(charId storage.Identifier, ps *PlayerState) {
		if expired(ps) {
			candidates = append(candidates, charId)
		}
	})

	for _, charId := range candidates {
		// Re-checked on removal: the player may have reconnected since.
		ps, err := st.world.RemovePlayerIf(charId, expired)
		if err != nil || ps == nil {
			continue
		}

		if err := ps.SaveCharacter(st.chars); err != nil {
			slog.ErrorContext(ctx, "saving linkless player", "charId", charId, "error", err)
		}

		slog.InfoContext(ctx, "linkless player timed out", "charId", charId)
	}

	return nil
}
