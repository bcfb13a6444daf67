package game

import (
	"context"
	"sync"

	"github.com/pixil98/go-waystones/internal/storage"
)

// WorldState tracks every player currently in the world, keyed by character id.
// All access must go through its methods to ensure thread-safety.
type WorldState struct {
	mu         sync.RWMutex
	subscriber Subscriber
	ledgers    *LedgerFactory
	players    map[storage.Identifier]*PlayerState

	hurtCooldown int
}

type WorldOpt func(*WorldState)

// WithHurtCooldown sets the teleport cooldown, in ticks, applied when a player takes damage.
func WithHurtCooldown(ticks int) WorldOpt {
	return func(w *WorldState) {
		w.hurtCooldown = ticks
	}
}

func NewWorldState(sub Subscriber, ledgers *LedgerFactory, opts ...WorldOpt) *WorldState {
	w := &WorldState{
		subscriber: sub,
		ledgers:    ledgers,
		players:    make(map[storage.Identifier]*PlayerState),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// GetPlayer returns the player state. Returns nil if player not found.
func (w *WorldState) GetPlayer(charId storage.Identifier) *PlayerState {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.players[charId]
}

// AddPlayer registers a character in the world. Its waystone ledger is built and
// restored from the character's saved state before the player becomes visible.
func (w *WorldState) AddPlayer(charId storage.Identifier, char *Character, msgs chan []byte) (*PlayerState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.players[charId]; exists {
		return nil, ErrPlayerExists
	}

	l := w.ledgers.NewLedger(charId)
	l.Decode(char.ExtensionState)

	ps := newPlayerState(w.subscriber, charId, char, l, msgs)
	w.players[charId] = ps
	return ps, nil
}

// RemovePlayer removes a player from the world and drops their subscriptions.
func (w *WorldState) RemovePlayer(charId storage.Identifier) error {
	_, err := w.RemovePlayerIf(charId, func(*PlayerState) bool { return true })
	return err
}

// RemovePlayerIf removes a player only when cond holds. cond runs under the world
// lock, so the player cannot be reattached between the check and the removal.
// Returns the removed player, or nil when cond rejected it.
func (w *WorldState) RemovePlayerIf(charId storage.Identifier, cond func(*PlayerState) bool) (*PlayerState, error) {
	w.mu.Lock()
	ps, exists := w.players[charId]
	if !exists {
		w.mu.Unlock()
		return nil, ErrPlayerNotFound
	}
	if !cond(ps) {
		w.mu.Unlock()
		return nil, nil
	}
	delete(w.players, charId)
	w.mu.Unlock()

	ps.Ledger.SetConnected(false)
	ps.UnsubscribeAll()
	return ps, nil
}

// ReattachPlayer hands a player already in the world to a new connection,
// kicking whichever session held them. Returns nil if the player is not in the world.
func (w *WorldState) ReattachPlayer(charId storage.Identifier, msgs chan []byte) *PlayerState {
	w.mu.Lock()
	defer w.mu.Unlock()

	ps, exists := w.players[charId]
	if !exists {
		return nil
	}
	ps.Kick()
	ps.Reattach(msgs)
	return ps
}

// ForEachPlayer calls fn for each player in the world while holding the read lock.
func (w *WorldState) ForEachPlayer(fn func(storage.Identifier, *PlayerState)) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for id, ps := range w.players {
		fn(id, ps)
	}
}

// ApplyDamage starts the player's teleport cooldown unless the source is exempt.
func (w *WorldState) ApplyDamage(charId storage.Identifier, source DamageSource) error {
	ps := w.GetPlayer(charId)
	if ps == nil {
		return ErrPlayerNotFound
	}

	if source.StartsCooldown() {
		ps.Ledger.SetCooldown(w.hurtCooldown)
	}
	return nil
}

// Tick advances every player's teleport cooldown by one tick.
func (w *WorldState) Tick(ctx context.Context) error {
	w.ForEachPlayer(func(_ storage.Identifier, ps *PlayerState) {
		ps.Ledger.Tick()
	})
	return nil
}
