package ledger

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pixil98/go-waystones/internal/storage"
	"github.com/pixil98/go-waystones/internal/waystone"
)

// Registry is the authoritative source of waystone records.
type Registry interface {
	IdentifierSource
	Lookup(id storage.Identifier) (*waystone.Waystone, bool)
	ClearOwner(id storage.Identifier) error
}

// IdentifierSource enumerates every known waystone hash. It may return nil when
// nothing is known.
type IdentifierSource interface {
	AllIdentifiers() map[storage.Identifier]struct{}
}

// Ledger records which waystones a single player has discovered, along with the
// player's waystone view preferences and teleport cooldown.
// All methods are safe for concurrent use.
type Ledger struct {
	owner     storage.Identifier
	registry  Registry
	cache     IdentifierSource
	listeners Listeners
	transport Transport
	dedicated bool

	discovered *Set
	connected  atomic.Bool
	cooldown   atomic.Int64

	mu             sync.Mutex
	viewGlobal     bool
	viewDiscovered bool
}

// New creates an empty ledger for the character charId.
func New(charId storage.Identifier, opts ...LedgerOpt) *Ledger {
	l := &Ledger{
		owner:          charId,
		discovered:     NewSet(),
		viewGlobal:     true,
		viewDiscovered: true,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Owner returns the character this ledger belongs to.
func (l *Ledger) Owner() storage.Identifier {
	return l.owner
}

// Discover records id as discovered and syncs the client.
func (l *Ledger) Discover(id storage.Identifier) {
	l.discover(id, true)
}

// DiscoverNoSync records id as discovered without syncing the client.
func (l *Ledger) DiscoverNoSync(id storage.Identifier) {
	l.discover(id, false)
}

func (l *Ledger) discover(id storage.Identifier, sync bool) {
	l.listeners.OnDiscover(l.owner, id)
	l.discovered.Add(id)
	if sync {
		l.Sync()
	}
}

// HasDiscovered reports whether id is in the discovered set.
func (l *Ledger) HasDiscovered(id storage.Identifier) bool {
	return l.discovered.Contains(id)
}

// Count returns the number of discovered waystones, stale entries included.
func (l *Ledger) Count() int {
	return l.discovered.Len()
}

// Discovered returns the discovered identifiers sorted by identifier, without reconciling.
func (l *Ledger) Discovered() []storage.Identifier {
	return l.discovered.Sorted()
}

// Forget removes id from the discovered set and syncs the client.
func (l *Ledger) Forget(id storage.Identifier) {
	l.forget(id, true)
}

// ForgetNoSync removes id from the discovered set without syncing the client.
func (l *Ledger) ForgetNoSync(id storage.Identifier) {
	l.forget(id, false)
}

// forget leaves global waystones untouched entirely: they stay discovered and
// keep their owner. Forgetting a non-global waystone gives up its ownership when
// the server is not dedicated or this player owns it.
func (l *Ledger) forget(id storage.Identifier, sync bool) {
	if l.registry != nil {
		if w, ok := l.registry.Lookup(id); ok {
			if w.Global {
				return
			}
			if !l.dedicated || w.IsOwnedBy(l.owner) {
				if err := l.registry.ClearOwner(id); err != nil {
					slog.Warn("clearing waystone owner", "charId", l.owner, "waystone", id, "error", err)
				}
			}
		}
	}

	l.listeners.OnForget(l.owner, id)
	l.discovered.Remove(id)
	if sync {
		l.Sync()
	}
}

// DiscoverBulk discovers every id in ids and syncs once. Without an authoritative
// registry attached it does nothing.
func (l *Ledger) DiscoverBulk(ids []storage.Identifier) {
	if l.registry == nil {
		return
	}
	for _, id := range ids {
		l.discover(id, false)
	}
	l.Sync()
}

// ForgetBulk forgets every id in ids and syncs once.
func (l *Ledger) ForgetBulk(ids []storage.Identifier) {
	for _, id := range ids {
		l.forget(id, false)
	}
	l.Sync()
}

// ForgetAll forgets every discovered waystone and syncs once.
func (l *Ledger) ForgetAll() {
	for _, id := range l.discovered.Snapshot() {
		l.forget(id, false)
	}
	l.Sync()
}

// Learn replaces the discovered set with a copy of src's. The second argument
// (overwrite) is accepted for callers that distinguish merge from replace, but the
// copy always replaces.
func (l *Ledger) Learn(src *Ledger, _ bool) {
	if src == nil || src == l {
		return
	}
	l.discovered.Replace(src.discovered.Snapshot())
}

// ViewGlobal reports whether global waystones are shown in the player's list.
func (l *Ledger) ViewGlobal() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewGlobal
}

// ViewDiscovered reports whether discovered waystones are shown in the player's list.
func (l *Ledger) ViewDiscovered() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewDiscovered
}

func (l *Ledger) ToggleViewGlobal() {
	l.mu.Lock()
	l.viewGlobal = !l.viewGlobal
	l.mu.Unlock()

	l.Sync()
}

func (l *Ledger) ToggleViewDiscovered() {
	l.mu.Lock()
	l.viewDiscovered = !l.viewDiscovered
	l.mu.Unlock()

	l.Sync()
}

func (l *Ledger) views() (global, discovered bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewGlobal, l.viewDiscovered
}

func (l *Ledger) setViews(global, discovered *bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if global != nil {
		l.viewGlobal = *global
	}
	if discovered != nil {
		l.viewDiscovered = *discovered
	}
}
