package command

import (
	"fmt"

	"github.com/pixil98/go-service"
	"github.com/pixil98/go-waystones/internal/driver"
	"github.com/pixil98/go-waystones/internal/game"
	"github.com/pixil98/go-waystones/internal/ledger"
	"github.com/pixil98/go-waystones/internal/listener"
	"github.com/pixil98/go-waystones/internal/messaging"
	"github.com/pixil98/go-waystones/internal/player"
	"github.com/pixil98/go-waystones/internal/waystone"
)

func BuildWorkers(config any) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	chars, err := cfg.Storage.Characters.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating character store: %w", err)
	}
	waystones, err := cfg.Storage.Waystones.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating waystone store: %w", err)
	}
	registry := waystone.NewRegistry(waystones)

	nats, err := cfg.Nats.BuildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	publisher := messaging.NewNatsPublisher(nats)

	world := game.NewWorldState(nats, &game.LedgerFactory{
		Registry:  registry,
		Transport: publisher,
		Listeners: []ledger.Listener{messaging.NewEventBroadcaster(nats)},
		Dedicated: cfg.Dedicated,
	}, game.WithHurtCooldown(cfg.CooldownWhenHurt))

	pm := player.NewPlayerManager(world, chars, registry, publisher)
	cm := listener.NewConnectionManager(pm)

	// Create Listeners
	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		w, err := l.BuildListener(cm)
		if err != nil {
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d", i)] = w
	}

	// Setup the tick driver
	d := driver.NewDriver([]driver.Ticker{
		world,
		game.NewSessionTicker(world, chars, cfg.sessionTickerOpts()...),
	}, driver.WithTickLength(cfg.tickLength()))

	// Create a worker list
	return service.WorkerList{
		"nats":      nats,
		"driver":    d,
		"players":   pm,
		"damage":    messaging.NewDamageSubscriber(nats, world),
		"listeners": &listeners,
	}, nil
}
