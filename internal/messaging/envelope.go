package messaging

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/pixil98/go-waystones/internal/storage"
	"github.com/pixil98/go-waystones/internal/waystone"
)

// MessageType names the kind of frame carried by an Envelope.
type MessageType string

const (
	// Server to client
	TypeSyncPlayer MessageType = "sync_player"
	TypeRegistry   MessageType = "registry"
	TypeError      MessageType = "error"

	// Client to server
	TypeDiscover         MessageType = "discover"
	TypeForget           MessageType = "forget"
	TypeForgetAll        MessageType = "forget_all"
	TypeToggleGlobal     MessageType = "toggle_global"
	TypeToggleDiscovered MessageType = "toggle_discovered"
)

// Envelope is the frame exchanged with player clients.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals payload into an envelope of type t. A nil payload is omitted.
func NewEnvelope(t MessageType, payload any) ([]byte, error) {
	env := Envelope{Type: t}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshalling %s payload: %w", t, err)
		}
		env.Payload = raw
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshalling envelope: %w", err)
	}
	return data, nil
}

// ParseEnvelope decodes a frame. The payload is left raw for DecodePayload.
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshalling envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("envelope type is required")
	}
	return env, nil
}

func (e Envelope) DecodePayload(out any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s envelope has no payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, out); err != nil {
		return fmt.Errorf("unmarshalling %s payload: %w", e.Type, err)
	}
	return nil
}

// WaystonePayload names a single waystone in discover and forget frames.
type WaystonePayload struct {
	Waystone storage.Identifier `json:"waystone"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// RegistryEntry is the client-facing view of one registered waystone.
type RegistryEntry struct {
	Id     storage.Identifier `json:"id"`
	Name   string             `json:"name"`
	Owner  storage.Identifier `json:"owner,omitempty"`
	Global bool               `json:"global,omitempty"`
}

type RegistryPayload struct {
	Waystones []RegistryEntry `json:"waystones"`
}

// NewRegistryPayload builds a snapshot frame ordered by identifier.
func NewRegistryPayload(waystones map[storage.Identifier]*waystone.Waystone) RegistryPayload {
	entries := make([]RegistryEntry, 0, len(waystones))
	for id, w := range waystones {
		entries = append(entries, RegistryEntry{
			Id:     id,
			Name:   w.Name,
			Owner:  w.Owner,
			Global: w.Global,
		})
	}
	slices.SortFunc(entries, func(a, b RegistryEntry) int {
		return cmp.Compare(a.Id, b.Id)
	})
	return RegistryPayload{Waystones: entries}
}

// Identifiers returns the hash of every entry in order.
func (p RegistryPayload) Identifiers() []storage.Identifier {
	ids := make([]storage.Identifier, len(p.Waystones))
	for i, e := range p.Waystones {
		ids[i] = e.Id
	}
	return ids
}
