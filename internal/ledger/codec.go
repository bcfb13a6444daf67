package ledger

import (
	"log/slog"

	"github.com/pixil98/go-waystones/internal/storage"
)

// TagKey is the section of a character's extension state holding the ledger.
const TagKey = "waystones"

// tagRecord is the persisted layout. Pointer fields distinguish an absent field
// from its zero value so decoding can leave absent fields alone.
type tagRecord struct {
	Discovered     *[]storage.Identifier `json:"discovered_waystones,omitempty"`
	ViewDiscovered *bool                 `json:"view_discovered_waystones,omitempty"`
	ViewGlobal     *bool                 `json:"view_global_waystones,omitempty"`
}

// WriteTag stores the ledger under TagKey in tag, leaving other sections untouched.
// Discovered ids are written in identifier order.
func (l *Ledger) WriteTag(tag *storage.ExtensionState) error {
	discovered := l.discovered.Sorted()
	global, disc := l.views()

	return tag.Set(TagKey, tagRecord{
		Discovered:     &discovered,
		ViewDiscovered: &disc,
		ViewGlobal:     &global,
	})
}

// Encode returns a fresh tag holding only the ledger section.
func (l *Ledger) Encode() storage.ExtensionState {
	tag := storage.ExtensionState{}
	if err := l.WriteTag(&tag); err != nil {
		slog.Error("encoding waystones", "charId", l.owner, "error", err)
	}
	return tag
}

// Decode restores the ledger from tag. A tag without a ledger section is ignored.
// When the tag carries a discovered list, the current set is replaced by the
// listed ids that are known to the registry, or to the cache when there is no
// registry; unknown ids are dropped. Absent view flags keep their current value.
func (l *Ledger) Decode(tag storage.ExtensionState) {
	var rec tagRecord
	found, err := tag.Get(TagKey, &rec)
	if err != nil {
		slog.Warn("decoding waystones", "charId", l.owner, "error", err)
		return
	}
	if !found {
		return
	}

	if rec.Discovered != nil {
		l.discovered.Clear()
		valid := l.knownIdentifiers()
		for _, id := range *rec.Discovered {
			if _, ok := valid[id]; !ok {
				continue
			}
			l.discovered.Add(id)
			l.listeners.OnDiscover(l.owner, id)
		}
	}

	l.setViews(rec.ViewGlobal, rec.ViewDiscovered)
}

func (l *Ledger) knownIdentifiers() map[storage.Identifier]struct{} {
	if l.registry != nil {
		return l.registry.AllIdentifiers()
	}
	if l.cache != nil {
		return l.cache.AllIdentifiers()
	}
	return nil
}
