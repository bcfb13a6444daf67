package messaging

import (
	"encoding/json"
	"log/slog"

	"github.com/pixil98/go-waystones/internal/storage"
)

const (
	SubjectDiscovered = "waystones.discovered"
	SubjectForgotten  = "waystones.forgotten"
)

// WaystoneEvent is published whenever a player discovers or forgets a waystone.
type WaystoneEvent struct {
	Player   storage.Identifier `json:"player"`
	Waystone storage.Identifier `json:"waystone"`
}

// EventBroadcaster is a ledger listener that republishes discovery changes on the bus
// so other services can follow them.
type EventBroadcaster struct {
	bus Bus
}

func NewEventBroadcaster(bus Bus) *EventBroadcaster {
	return &EventBroadcaster{bus: bus}
}

func (b *EventBroadcaster) OnDiscover(charId, id storage.Identifier) {
	b.publish(SubjectDiscovered, charId, id)
}

func (b *EventBroadcaster) OnForget(charId, id storage.Identifier) {
	b.publish(SubjectForgotten, charId, id)
}

func (b *EventBroadcaster) publish(subject string, charId, id storage.Identifier) {
	data, err := json.Marshal(WaystoneEvent{Player: charId, Waystone: id})
	if err != nil {
		slog.Error("marshalling waystone event", "subject", subject, "error", err)
		return
	}
	if err := b.bus.Publish(subject, data); err != nil {
		slog.Warn("publishing waystone event", "subject", subject, "charId", charId, "waystone", id, "error", err)
	}
}
