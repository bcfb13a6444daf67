package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pixil98/go-waystones/internal/game"
	"github.com/pixil98/go-waystones/internal/messaging"
	"github.com/pixil98/go-waystones/internal/storage"
)

// RunSession plays the named character over conn until the connection drops,
// another connection takes the character over, or ctx is done.
// A dropped connection leaves the player linkless in the world.
func (m *PlayerManager) RunSession(ctx context.Context, name string, conn Conn) error {
	sessionId := uuid.NewString()
	msgs := make(chan []byte, m.msgBuffer)

	ps, err := m.login(name, msgs)
	if err != nil {
		return fmt.Errorf("logging in %q: %w", name, err)
	}
	charId := ps.CharId
	done := ps.Done()

	slog.InfoContext(ctx, "player connected", "charId", charId, "session", sessionId)

	if err := ps.Subscribe(messaging.PlayerSubject(charId)); err != nil {
		m.logout(ctx, ps, done, false)
		return fmt.Errorf("subscribing player: %w", err)
	}

	// The client needs the registry before its first sync to resolve hashes.
	if err := m.sendRegistry(charId); err != nil {
		m.logout(ctx, ps, done, false)
		return fmt.Errorf("sending registry: %w", err)
	}
	ps.Ledger.Sync()

	// Start goroutine to read frames into a channel
	stop := make(chan struct{})
	defer close(stop)
	inbound := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			data, err := conn.ReadFrame()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case inbound <- data:
			case <-stop:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			m.logout(ctx, ps, done, true)
			return nil

		case <-done:
			// Don't touch the player: it belongs to the new session now.
			slog.InfoContext(ctx, "session taken over", "charId", charId, "session", sessionId)
			return game.ErrPlayerReconnected

		case msg := <-msgs:
			if err := conn.WriteFrame(msg); err != nil {
				m.logout(ctx, ps, done, false)
				return fmt.Errorf("writing to player: %w", err)
			}

		case data := <-inbound:
			ps.MarkActive()
			if err := m.handleFrame(ps, data); err != nil {
				if werr := writeError(conn, err); werr != nil {
					m.logout(ctx, ps, done, false)
					return fmt.Errorf("writing to player: %w", werr)
				}
			}

		case err := <-readErr:
			slog.InfoContext(ctx, "player disconnected", "charId", charId, "session", sessionId, "reason", err)
			m.logout(ctx, ps, done, false)
			return nil
		}
	}
}

// handleFrame applies one client action to the player's ledger. Returned errors
// are reported back to the client.
func (m *PlayerManager) handleFrame(ps *game.PlayerState, data []byte) error {
	env, err := messaging.ParseEnvelope(data)
	if err != nil {
		return err
	}

	switch env.Type {
	case messaging.TypeDiscover:
		id, err := waystoneArg(env)
		if err != nil {
			return err
		}
		if !m.registry.Exists(id) {
			return fmt.Errorf("unknown waystone %q", id)
		}
		ps.Ledger.Discover(id)

	case messaging.TypeForget:
		id, err := waystoneArg(env)
		if err != nil {
			return err
		}
		ps.Ledger.Forget(id)

	case messaging.TypeForgetAll:
		ps.Ledger.ForgetAll()

	case messaging.TypeToggleGlobal:
		ps.Ledger.ToggleViewGlobal()

	case messaging.TypeToggleDiscovered:
		ps.Ledger.ToggleViewDiscovered()

	default:
		return fmt.Errorf("unsupported message type %q", env.Type)
	}

	return nil
}

func waystoneArg(env messaging.Envelope) (storage.Identifier, error) {
	var p messaging.WaystonePayload
	if err := env.DecodePayload(&p); err != nil {
		return "", err
	}
	if !p.Waystone.Valid() {
		return "", fmt.Errorf("invalid waystone %q", p.Waystone)
	}
	return p.Waystone, nil
}

func writeError(conn Conn, cause error) error {
	data, err := messaging.NewEnvelope(messaging.TypeError, messaging.ErrorPayload{Message: cause.Error()})
	if err != nil {
		return errors.Join(cause, err)
	}
	return conn.WriteFrame(data)
}
