package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	goerrors "github.com/pixil98/go-errors"
	"github.com/pixil98/go-waystones/internal/game"
	"github.com/pixil98/go-waystones/internal/messaging"
	"github.com/pixil98/go-waystones/internal/storage"
	"github.com/pixil98/go-waystones/internal/waystone"
)

const DefaultMessageBuffer = 32

// Registry is what a session needs from the waystone registry.
type Registry interface {
	Exists(id storage.Identifier) bool
	Snapshot() map[storage.Identifier]*waystone.Waystone
}

// PlayerManager runs player sessions against the shared world.
type PlayerManager struct {
	world     *game.WorldState
	chars     storage.Storer[*game.Character]
	registry  Registry
	publisher game.Publisher

	msgBuffer int

	// Serializes logins so two connections for one character can't both add it.
	loginMu sync.Mutex
}

type PlayerManagerOpt func(*PlayerManager)

// WithMessageBuffer sets how many outbound frames may queue for a player before
// new ones are dropped.
func WithMessageBuffer(n int) PlayerManagerOpt {
	return func(m *PlayerManager) {
		m.msgBuffer = n
	}
}

func NewPlayerManager(world *game.WorldState, chars storage.Storer[*game.Character], reg Registry, pub game.Publisher, opts ...PlayerManagerOpt) *PlayerManager {
	m := &PlayerManager{
		world:     world,
		chars:     chars,
		registry:  reg,
		publisher: pub,
		msgBuffer: DefaultMessageBuffer,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start waits for shutdown, then saves every player still in the world.
func (m *PlayerManager) Start(ctx context.Context) error {
	<-ctx.Done()

	el := goerrors.NewErrorList()
	m.world.ForEachPlayer(func(charId storage.Identifier, ps *game.PlayerState) {
		if err := ps.SaveCharacter(m.chars); err != nil {
			el.Add(fmt.Errorf("saving %s: %w", charId, err))
		}
	})

	slog.Info("player manager stopped")
	return el.Err()
}

// login attaches a connection to the named character, loading or creating the
// character when it is not already in the world. An existing session for the
// character is kicked and the player is handed over.
func (m *PlayerManager) login(name string, msgs chan []byte) (*game.PlayerState, error) {
	m.loginMu.Lock()
	defer m.loginMu.Unlock()

	charId := game.CharacterId(name)

	if ps := m.world.ReattachPlayer(charId, msgs); ps != nil {
		return ps, nil
	}

	char := m.chars.Get(charId)
	if char == nil {
		char = game.NewCharacter(name)
		if err := char.Validate(); err != nil {
			return nil, fmt.Errorf("invalid character: %w", err)
		}
		if err := m.chars.Save(charId, char); err != nil {
			return nil, fmt.Errorf("saving new character: %w", err)
		}
		slog.Info("created character", "charId", charId)
	}

	return m.world.AddPlayer(charId, char, msgs)
}

// logout persists the player and either leaves them linkless or removes them.
// Nothing happens when another session has taken the player over since done was issued.
func (m *PlayerManager) logout(ctx context.Context, ps *game.PlayerState, done <-chan struct{}, remove bool) {
	m.loginMu.Lock()
	defer m.loginMu.Unlock()

	if ps.Done() != done {
		return
	}

	if err := ps.SaveCharacter(m.chars); err != nil {
		slog.ErrorContext(ctx, "saving character", "charId", ps.CharId, "error", err)
	}

	if !remove {
		ps.MarkLinkless()
		return
	}
	if err := m.world.RemovePlayer(ps.CharId); err != nil && !errors.Is(err, game.ErrPlayerNotFound) {
		slog.ErrorContext(ctx, "removing player", "charId", ps.CharId, "error", err)
	}
}

func (m *PlayerManager) sendRegistry(charId storage.Identifier) error {
	data, err := messaging.NewEnvelope(messaging.TypeRegistry, messaging.NewRegistryPayload(m.registry.Snapshot()))
	if err != nil {
		return err
	}
	return m.publisher.PublishToPlayer(charId, data)
}
