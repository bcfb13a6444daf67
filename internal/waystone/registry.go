package waystone

import (
	"fmt"
	"log/slog"

	"github.com/pixil98/go-waystones/internal/storage"
)

// Registry is the authoritative set of waystones known to the server.
// It is read by every player's ledger and only ever mutated one field at a time,
// so concurrent owner updates resolve as last write wins.
type Registry struct {
	store storage.Storer[*Waystone]
}

func NewRegistry(store storage.Storer[*Waystone]) *Registry {
	return &Registry{store: store}
}

// Exists reports whether a waystone is registered under id.
func (r *Registry) Exists(id storage.Identifier) bool {
	return r.store.Get(id) != nil
}

// Lookup returns a copy of the waystone registered under id.
func (r *Registry) Lookup(id storage.Identifier) (*Waystone, bool) {
	w := r.store.Get(id)
	if w == nil {
		return nil, false
	}
	cp := *w
	return &cp, true
}

// AllIdentifiers returns the set of every registered waystone hash.
func (r *Registry) AllIdentifiers() map[storage.Identifier]struct{} {
	all := r.store.GetAll()
	ids := make(map[storage.Identifier]struct{}, len(all))
	for id := range all {
		ids[id] = struct{}{}
	}
	return ids
}

// ClearOwner removes the owner from the waystone registered under id and persists it.
// Clearing an unknown or already unowned waystone is a no-op.
func (r *Registry) ClearOwner(id storage.Identifier) error {
	w, ok := r.Lookup(id)
	if !ok || w.Owner == "" {
		return nil
	}

	prev := w.Owner
	w.Owner = ""
	if err := r.store.Save(id, w); err != nil {
		return fmt.Errorf("saving waystone %s: %w", id, err)
	}

	slog.Debug("cleared waystone owner", "waystone", id, "owner", prev)
	return nil
}

// Snapshot returns a copy of every registered waystone keyed by hash.
func (r *Registry) Snapshot() map[storage.Identifier]*Waystone {
	all := r.store.GetAll()
	out := make(map[storage.Identifier]*Waystone, len(all))
	for id, w := range all {
		cp := *w
		out[id] = &cp
	}
	return out
}
