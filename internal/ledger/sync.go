package ledger

import (
	"log/slog"

	"github.com/pixil98/go-waystones/internal/storage"
)

// Transport delivers an encoded ledger to a player's client. Delivery is best effort.
type Transport interface {
	SendTag(charId storage.Identifier, tag storage.ExtensionState) error
}

// SetConnected records whether the owning player has a live client connection.
func (l *Ledger) SetConnected(connected bool) {
	l.connected.Store(connected)
}

func (l *Ledger) Connected() bool {
	return l.connected.Load()
}

// Sync pushes the full ledger to the player's client. It does nothing when the
// player has no connection, and delivery failures are only logged.
func (l *Ledger) Sync() {
	if l.transport == nil || !l.connected.Load() {
		return
	}

	if err := l.transport.SendTag(l.owner, l.Encode()); err != nil {
		slog.Warn("syncing waystones", "charId", l.owner, "error", err)
	}
}
