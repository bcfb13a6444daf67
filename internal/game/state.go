package game

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pixil98/go-waystones/internal/ledger"
	"github.com/pixil98/go-waystones/internal/storage"
)

// PlayerState holds all mutable state for an active player.
type PlayerState struct {
	subscriber Subscriber

	CharId    storage.Identifier
	Character *Character
	Ledger    *ledger.Ledger

	mu           sync.Mutex
	msgs         chan []byte
	subs         map[string]func()
	lastActivity time.Time

	// Connection management: closed to signal the active session to exit.
	done chan struct{}

	// Linkless state: player's connection dropped but they remain in the world.
	linkless   bool
	linklessAt time.Time
}

func newPlayerState(sub Subscriber, charId storage.Identifier, char *Character, l *ledger.Ledger, msgs chan []byte) *PlayerState {
	l.SetConnected(true)
	return &PlayerState{
		subscriber:   sub,
		CharId:       charId,
		Character:    char,
		Ledger:       l,
		msgs:         msgs,
		subs:         make(map[string]func()),
		lastActivity: time.Now(),
		done:         make(chan struct{}),
	}
}

// Done returns the channel that is closed when this session is evicted by a reconnection.
func (p *PlayerState) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Subscribe forwards every message on subject to the player's message channel.
// Messages that arrive while the channel is full are dropped.
func (p *PlayerState) Subscribe(subject string) error {
	if p.subscriber == nil {
		return fmt.Errorf("subscriber is nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	msgs := p.msgs
	unsub, err := p.subscriber.Subscribe(subject, func(data []byte) {
		select {
		case msgs <- data:
		default:
			slog.Warn("dropping message for slow player", "charId", p.CharId, "subject", subject)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribing to channel '%s': %w", subject, err)
	}

	// If we some how are subscribing to a channel we already think we have
	// unsubscribe from the existing one.
	if old, ok := p.subs[subject]; ok {
		old()
	}
	p.subs[subject] = unsub
	return nil
}

// Unsubscribe removes a subscription by name
func (p *PlayerState) Unsubscribe(subject string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if unsub, ok := p.subs[subject]; ok {
		unsub()
		delete(p.subs, subject)
	}
}

// UnsubscribeAll removes all subscriptions
func (p *PlayerState) UnsubscribeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unsubscribeAll()
}

func (p *PlayerState) unsubscribeAll() {
	for name, unsub := range p.subs {
		unsub()
		delete(p.subs, name)
	}
}

// Kick closes the done channel, signaling the active session to exit.
// It is safe to call multiple times; subsequent calls are no-ops.
func (p *PlayerState) Kick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case <-p.done:
	default:
		close(p.done)
	}
}

// Reattach hands the player to a new connection. Old subscriptions are dropped
// (they feed the old channel) and the caller must subscribe again.
func (p *PlayerState) Reattach(msgs chan []byte) {
	p.mu.Lock()
	p.unsubscribeAll()
	p.msgs = msgs
	p.done = make(chan struct{})
	p.linkless = false
	p.linklessAt = time.Time{}
	p.lastActivity = time.Now()
	p.mu.Unlock()

	p.Ledger.SetConnected(true)
}

// MarkLinkless flags the player as having lost their connection. Syncs stop
// and subscriptions are dropped until they reattach.
func (p *PlayerState) MarkLinkless() {
	p.Ledger.SetConnected(false)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.linkless = true
	p.linklessAt = time.Now()
	p.unsubscribeAll()
}

// Linkless reports whether the player is linkless and since when.
func (p *PlayerState) Linkless() (bool, time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.linkless, p.linklessAt
}

// MarkActive resets the player's idle timer.
func (p *PlayerState) MarkActive() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastActivity = time.Now()
}

func (p *PlayerState) LastActivity() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastActivity
}

// SaveCharacter writes the player's ledger into the character and persists it.
func (p *PlayerState) SaveCharacter(chars storage.Storer[*Character]) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.Ledger.WriteTag(&p.Character.ExtensionState); err != nil {
		return fmt.Errorf("encoding waystones: %w", err)
	}
	return chars.Save(p.CharId, p.Character)
}
