package messaging

import (
	"fmt"

	"github.com/pixil98/go-waystones/internal/storage"
)

// Bus is the subset of the broker used by publishers and subscribers.
type Bus interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte)) (func(), error)
}

// PlayerSubject is the subject carrying frames for a single player's client.
func PlayerSubject(charId storage.Identifier) string {
	return fmt.Sprintf("player-%s", charId)
}

// NatsPublisher publishes messages to individual player NATS channels.
type NatsPublisher struct {
	bus Bus
}

// NewNatsPublisher wraps a bus for per-player message delivery.
func NewNatsPublisher(bus Bus) *NatsPublisher {
	return &NatsPublisher{bus: bus}
}

func (p *NatsPublisher) PublishToPlayer(charId storage.Identifier, data []byte) error {
	if err := p.bus.Publish(PlayerSubject(charId), data); err != nil {
		return fmt.Errorf("publishing to %s: %w", charId, err)
	}
	return nil
}

// SendTag wraps an encoded ledger in a sync_player envelope and delivers it.
func (p *NatsPublisher) SendTag(charId storage.Identifier, tag storage.ExtensionState) error {
	data, err := NewEnvelope(TypeSyncPlayer, tag)
	if err != nil {
		return err
	}
	return p.PublishToPlayer(charId, data)
}
