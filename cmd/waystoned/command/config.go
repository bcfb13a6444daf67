package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-waystones/internal/driver"
	"github.com/pixil98/go-waystones/internal/game"
)

const minTickInterval = 10 * time.Millisecond

type Config struct {
	TickInterval     string           `json:"tick_interval"`
	CooldownWhenHurt int              `json:"cooldown_when_hurt"`
	Dedicated        bool             `json:"dedicated"`
	LinklessTimeout  string           `json:"linkless_timeout"`
	Listeners        []ListenerConfig `json:"listeners"`
	Storage          StorageConfig    `json:"storage"`
	Nats             NatsConfig       `json:"nats"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing tick_interval: %w", err))
		} else if d < minTickInterval {
			el.Add(fmt.Errorf("tick_interval must be at least %s", minTickInterval))
		}
	}

	if c.CooldownWhenHurt < 0 {
		el.Add(fmt.Errorf("cooldown_when_hurt must not be negative"))
	}

	if c.LinklessTimeout != "" {
		d, err := time.ParseDuration(c.LinklessTimeout)
		if err != nil {
			el.Add(fmt.Errorf("parsing linkless_timeout: %w", err))
		} else if d <= 0 {
			el.Add(fmt.Errorf("linkless_timeout must be positive"))
		}
	}

	if len(c.Listeners) == 0 {
		el.Add(fmt.Errorf("at least one listener is required"))
	}
	for i, l := range c.Listeners {
		err := l.Validate()
		if err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	el.Add(c.Storage.Validate())
	el.Add(c.Nats.Validate())

	return el.Err()
}

func (c *Config) tickLength() time.Duration {
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil || c.TickInterval == "" {
		return driver.DefaultTickLength
	}
	return d
}

func (c *Config) sessionTickerOpts() []game.SessionTickerOpt {
	d, err := time.ParseDuration(c.LinklessTimeout)
	if err != nil || c.LinklessTimeout == "" {
		return nil
	}
	return []game.SessionTickerOpt{game.WithLinklessTimeout(d)}
}
