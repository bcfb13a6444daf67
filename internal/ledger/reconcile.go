package ledger

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/pixil98/go-waystones/internal/storage"
)

type entry struct {
	id   storage.Identifier
	name string
}

// reconcile resolves every discovered id against the registry and permanently
// drops the ones the registry no longer knows. Ids added while the pass runs are
// not seen until the next pass. Without a registry nothing can be resolved, and
// nothing is pruned.
func (l *Ledger) reconcile() []entry {
	if l.registry == nil {
		return nil
	}

	var live []entry
	var stale []storage.Identifier
	for _, id := range l.discovered.Snapshot() {
		w, ok := l.registry.Lookup(id)
		if !ok {
			stale = append(stale, id)
			continue
		}
		live = append(live, entry{id: id, name: w.Name})
	}

	for _, id := range stale {
		l.discovered.Remove(id)
	}
	if len(stale) > 0 {
		slog.Debug("pruned stale waystones", "charId", l.owner, "count", len(stale))
	}

	return live
}

// SortedNames returns the display names of every discovered waystone that still
// exists, sorted lexicographically. Stale entries are pruned as a side effect.
func (l *Ledger) SortedNames() []string {
	live := l.reconcile()

	names := make([]string, 0, len(live))
	for _, e := range live {
		names = append(names, e.name)
	}
	slices.Sort(names)
	return names
}

// SortedHashes returns the identifiers of every discovered waystone that still
// exists, ordered by display name. Stale entries are pruned as a side effect.
func (l *Ledger) SortedHashes() []storage.Identifier {
	live := l.reconcile()

	slices.SortFunc(live, func(a, b entry) int {
		return cmp.Or(cmp.Compare(a.name, b.name), cmp.Compare(a.id, b.id))
	})

	ids := make([]storage.Identifier, 0, len(live))
	for _, e := range live {
		ids = append(ids, e.id)
	}
	return ids
}
