package client

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pixil98/go-waystones/internal/ledger"
	"github.com/pixil98/go-waystones/internal/messaging"
	"github.com/pixil98/go-waystones/internal/storage"
	"github.com/pixil98/go-waystones/internal/waystone"
)

const writeWait = 10 * time.Second

// Client is a player's connection to a waystone server. It mirrors the player's
// ledger from sync frames, resolving hashes against the last registry snapshot.
type Client struct {
	conn *websocket.Conn

	cache  *waystone.HashCache
	ledger *ledger.Ledger

	mu      sync.RWMutex
	entries map[storage.Identifier]messaging.RegistryEntry

	writeMu sync.Mutex
	updates chan messaging.MessageType
	closed  atomic.Bool
}

// Dial connects to the server at addr (for example ws://host:port/ws) as the
// named player.
func Dial(ctx context.Context, addr string, name string) (*Client, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("parsing address: %w", err)
	}
	q := u.Query()
	q.Set("player", name)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}

	cache := waystone.NewHashCache()
	return &Client{
		conn:    conn,
		cache:   cache,
		ledger:  ledger.New(storage.Identifier(name), ledger.WithCache(cache)),
		entries: map[storage.Identifier]messaging.RegistryEntry{},
		updates: make(chan messaging.MessageType, 16),
	}, nil
}

// Run reads frames from the server until the connection closes or ctx is done.
func (c *Client) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	defer stop()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || c.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("reading frame: %w", err)
		}

		env, err := messaging.ParseEnvelope(data)
		if err != nil {
			slog.Warn("ignoring malformed frame", "error", err)
			continue
		}
		if err := c.apply(env); err != nil {
			slog.Warn("applying frame", "type", env.Type, "error", err)
			continue
		}

		select {
		case c.updates <- env.Type:
		default:
		}
	}
}

func (c *Client) apply(env messaging.Envelope) error {
	switch env.Type {
	case messaging.TypeRegistry:
		var p messaging.RegistryPayload
		if err := env.DecodePayload(&p); err != nil {
			return err
		}
		entries := make(map[storage.Identifier]messaging.RegistryEntry, len(p.Waystones))
		for _, e := range p.Waystones {
			entries[e.Id] = e
		}
		c.mu.Lock()
		c.entries = entries
		c.mu.Unlock()
		c.cache.Replace(p.Identifiers())

	case messaging.TypeSyncPlayer:
		var tag storage.ExtensionState
		if err := env.DecodePayload(&tag); err != nil {
			return err
		}
		c.ledger.Decode(tag)

	case messaging.TypeError:
		var p messaging.ErrorPayload
		if err := env.DecodePayload(&p); err != nil {
			return err
		}
		slog.Warn("server rejected request", "message", p.Message)

	default:
		return fmt.Errorf("unexpected frame type %q", env.Type)
	}
	return nil
}

// Updates reports the type of each frame applied by Run. Updates are dropped
// when nobody is reading.
func (c *Client) Updates() <-chan messaging.MessageType {
	return c.updates
}

// Ledger is the client's mirror of the player's discoveries.
func (c *Client) Ledger() *ledger.Ledger {
	return c.ledger
}

// Waystones returns the waystones the player should see, ordered by name:
// discovered ones when view_discovered is on and global ones when view_global is on.
func (c *Client) Waystones() []messaging.RegistryEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []messaging.RegistryEntry
	seen := map[storage.Identifier]struct{}{}
	add := func(e messaging.RegistryEntry) {
		if _, ok := seen[e.Id]; ok {
			return
		}
		seen[e.Id] = struct{}{}
		out = append(out, e)
	}

	if c.ledger.ViewDiscovered() {
		for _, id := range c.ledger.Discovered() {
			if e, ok := c.entries[id]; ok {
				add(e)
			}
		}
	}
	if c.ledger.ViewGlobal() {
		for _, e := range c.entries {
			if e.Global {
				add(e)
			}
		}
	}

	slices.SortFunc(out, func(a, b messaging.RegistryEntry) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Id, b.Id))
	})
	return out
}

func (c *Client) Discover(id storage.Identifier) error {
	return c.send(messaging.TypeDiscover, messaging.WaystonePayload{Waystone: id})
}

func (c *Client) Forget(id storage.Identifier) error {
	return c.send(messaging.TypeForget, messaging.WaystonePayload{Waystone: id})
}

func (c *Client) ForgetAll() error {
	return c.send(messaging.TypeForgetAll, nil)
}

func (c *Client) ToggleViewGlobal() error {
	return c.send(messaging.TypeToggleGlobal, nil)
}

func (c *Client) ToggleViewDiscovered() error {
	return c.send(messaging.TypeToggleDiscovered, nil)
}

func (c *Client) send(t messaging.MessageType, payload any) error {
	data, err := messaging.NewEnvelope(t, payload)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) Close() error {
	c.closed.Store(true)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}
