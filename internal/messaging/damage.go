package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-waystones/internal/game"
	"github.com/pixil98/go-waystones/internal/storage"
)

const SubjectDamage = "players.damage"

// DamageEvent reports that a player was hurt.
type DamageEvent struct {
	Player storage.Identifier `json:"player"`
	Source game.DamageSource  `json:"source"`
}

type DamageApplier interface {
	ApplyDamage(charId storage.Identifier, source game.DamageSource) error
}

type readyWaiter interface {
	WaitReady(ctx context.Context) error
}

// DamageSubscriber is a worker feeding damage events from the bus into the world.
type DamageSubscriber struct {
	bus   Bus
	world DamageApplier
}

func NewDamageSubscriber(bus Bus, world DamageApplier) *DamageSubscriber {
	return &DamageSubscriber{bus: bus, world: world}
}

func (d *DamageSubscriber) Start(ctx context.Context) error {
	if rw, ok := d.bus.(readyWaiter); ok {
		if err := rw.WaitReady(ctx); err != nil {
			return nil
		}
	}

	unsub, err := d.bus.Subscribe(SubjectDamage, d.handle)
	if err != nil {
		return fmt.Errorf("subscribing to damage events: %w", err)
	}
	defer unsub()

	slog.InfoContext(ctx, "damage subscriber started", "subject", SubjectDamage)
	<-ctx.Done()
	return nil
}

func (d *DamageSubscriber) handle(data []byte) {
	var ev DamageEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		slog.Warn("malformed damage event", "error", err)
		return
	}
	if ev.Source == "" {
		ev.Source = game.DamageGeneric
	}

	err := d.world.ApplyDamage(ev.Player, ev.Source)
	switch {
	case errors.Is(err, game.ErrPlayerNotFound):
		slog.Debug("damage for player not in world", "charId", ev.Player)
	case err != nil:
		slog.Warn("applying damage", "charId", ev.Player, "error", err)
	}
}
