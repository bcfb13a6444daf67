package game

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
	"github.com/pixil98/go-waystones/internal/ledger"
	"github.com/pixil98/go-waystones/internal/storage"
	"github.com/pixil98/go-waystones/internal/waystone"
)

// fakeSubscriber records subscriptions and lets tests push messages.
type fakeSubscriber struct {
	mu       sync.Mutex
	handlers map[string]func([]byte)
	unsubs   int
}

func (s *fakeSubscriber) Subscribe(subject string, handler func([]byte)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handlers == nil {
		s.handlers = map[string]func([]byte){}
	}
	s.handlers[subject] = handler
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.unsubs++
		delete(s.handlers, subject)
	}, nil
}

func (s *fakeSubscriber) push(subject string, data []byte) bool {
	s.mu.Lock()
	h, ok := s.handlers[subject]
	s.mu.Unlock()
	if ok {
		h(data)
	}
	return ok
}

func newTestStores(t *testing.T) (*waystone.Registry, *storage.FileStore[*Character]) {
	t.Helper()

	wsStore, err := storage.NewFileStore[*waystone.Waystone](t.TempDir())
	if err != nil {
		t.Fatalf("creating waystone store: %v", err)
	}
	for id, w := range map[storage.Identifier]*waystone.Waystone{
		"mill":  {Name: "Old Mill"},
		"tower": {Name: "Tower", Global: true},
	} {
		if err := wsStore.Save(id, w); err != nil {
			t.Fatalf("saving waystone: %v", err)
		}
	}

	chars, err := storage.NewFileStore[*Character](t.TempDir())
	if err != nil {
		t.Fatalf("creating character store: %v", err)
	}
	return waystone.NewRegistry(wsStore), chars
}

func savedCharacter(t *testing.T, name string, discovered ...storage.Identifier) *Character {
	t.Helper()

	c := NewCharacter(name)
	raw, err := json.Marshal(map[string]any{"discovered_waystones": discovered})
	if err != nil {
		t.Fatalf("marshalling: %v", err)
	}
	c.ExtensionState[ledger.TagKey] = raw
	return c
}

func TestWorldState_AddPlayer(t *testing.T) {
	reg, _ := newTestStores(t)
	w := NewWorldState(&fakeSubscriber{}, &LedgerFactory{Registry: reg})

	ps, err := w.AddPlayer("alice", savedCharacter(t, "Alice", "mill", "demolished"), make(chan []byte, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "has mill", ps.Ledger.HasDiscovered("mill"), true)
	testutil.AssertEqual(t, "has demolished", ps.Ledger.HasDiscovered("demolished"), false)
	testutil.AssertEqual(t, "connected", ps.Ledger.Connected(), true)
	if w.GetPlayer("alice") != ps {
		t.Error("expected player to be registered")
	}

	_, err = w.AddPlayer("alice", NewCharacter("Alice"), make(chan []byte, 1))
	if !errors.Is(err, ErrPlayerExists) {
		t.Errorf("expected ErrPlayerExists, got %v", err)
	}
}

func TestWorldState_RemovePlayer(t *testing.T) {
	reg, _ := newTestStores(t)
	sub := &fakeSubscriber{}
	w := NewWorldState(sub, &LedgerFactory{Registry: reg})

	ps, err := w.AddPlayer("alice", NewCharacter("Alice"), make(chan []byte, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ps.Subscribe("player-alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := w.RemovePlayer("alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "connected", ps.Ledger.Connected(), false)
	testutil.AssertEqual(t, "unsubscribed", sub.unsubs, 1)
	if w.GetPlayer("alice") != nil {
		t.Error("expected player to be removed")
	}
	if err := w.RemovePlayer("alice"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestWorldState_ApplyDamage(t *testing.T) {
	tests := map[string]struct {
		charId      storage.Identifier
		source      DamageSource
		expErr      error
		expCooldown int
	}{
		"mob damage starts cooldown":  {charId: "alice", source: DamageMob, expCooldown: 40},
		"fall damage starts cooldown": {charId: "alice", source: DamageFall, expCooldown: 40},
		"void damage is exempt":       {charId: "alice", source: DamageVoid, expCooldown: 0},
		"unknown player":              {charId: "bob", source: DamageMob, expErr: ErrPlayerNotFound},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			reg, _ := newTestStores(t)
			w := NewWorldState(&fakeSubscriber{}, &LedgerFactory{Registry: reg}, WithHurtCooldown(40))
			ps, err := w.AddPlayer("alice", NewCharacter("Alice"), make(chan []byte, 1))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			err = w.ApplyDamage(tt.charId, tt.source)

			if tt.expErr != nil {
				if !errors.Is(err, tt.expErr) {
					t.Errorf("expected %v, got %v", tt.expErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "cooldown", ps.Ledger.Cooldown(), tt.expCooldown)
		})
	}
}

func TestWorldState_TickAdvancesCooldowns(t *testing.T) {
	reg, _ := newTestStores(t)
	w := NewWorldState(&fakeSubscriber{}, &LedgerFactory{Registry: reg}, WithHurtCooldown(3))
	alice, _ := w.AddPlayer("alice", NewCharacter("Alice"), make(chan []byte, 1))
	bob, _ := w.AddPlayer("bob", NewCharacter("Bob"), make(chan []byte, 1))

	if err := w.ApplyDamage("alice", DamagePlayer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for range 2 {
		if err := w.Tick(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	testutil.AssertEqual(t, "alice cooldown", alice.Ledger.Cooldown(), 1)
	testutil.AssertEqual(t, "bob cooldown", bob.Ledger.Cooldown(), 0)
}

func TestPlayerState_SubscribeForwardsMessages(t *testing.T) {
	reg, _ := newTestStores(t)
	sub := &fakeSubscriber{}
	w := NewWorldState(sub, &LedgerFactory{Registry: reg})
	msgs := make(chan []byte, 1)
	ps, _ := w.AddPlayer("alice", NewCharacter("Alice"), msgs)

	if err := ps.Subscribe("player-alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub.push("player-alice", []byte("one"))
	sub.push("player-alice", []byte("dropped"))

	testutil.AssertEqual(t, "message", string(<-msgs), "one")
	select {
	case m := <-msgs:
		t.Errorf("expected overflow to be dropped, got %q", m)
	default:
	}
}

func TestPlayerState_LinklessAndReattach(t *testing.T) {
	reg, _ := newTestStores(t)
	sub := &fakeSubscriber{}
	w := NewWorldState(sub, &LedgerFactory{Registry: reg})
	ps, _ := w.AddPlayer("alice", NewCharacter("Alice"), make(chan []byte, 1))
	_ = ps.Subscribe("player-alice")
	oldDone := ps.Done()

	ps.MarkLinkless()

	linkless, _ := ps.Linkless()
	testutil.AssertEqual(t, "linkless", linkless, true)
	testutil.AssertEqual(t, "connected", ps.Ledger.Connected(), false)
	testutil.AssertEqual(t, "subscription dropped", sub.push("player-alice", nil), false)

	ps.Kick()
	ps.Kick()
	select {
	case <-oldDone:
	default:
		t.Error("expected done to be closed by Kick")
	}

	before := ps.LastActivity()
	ps.Reattach(make(chan []byte, 1))
	if ps.LastActivity().Before(before) {
		t.Error("expected reattach to refresh activity")
	}

	linkless, _ = ps.Linkless()
	testutil.AssertEqual(t, "linkless after reattach", linkless, false)
	testutil.AssertEqual(t, "connected after reattach", ps.Ledger.Connected(), true)
	select {
	case <-ps.Done():
		t.Error("expected a fresh done channel")
	default:
	}
}

func TestPlayerState_SaveCharacter(t *testing.T) {
	reg, chars := newTestStores(t)
	w := NewWorldState(&fakeSubscriber{}, &LedgerFactory{Registry: reg})
	char := NewCharacter("Alice")
	char.ExtensionState["other-plugin"] = json.RawMessage(`{"kept":true}`)
	ps, _ := w.AddPlayer("alice", char, make(chan []byte, 1))
	ps.Ledger.DiscoverNoSync("mill")
	ps.Ledger.ToggleViewGlobal()

	if err := ps.SaveCharacter(chars); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved := chars.Get("alice")
	if saved == nil {
		t.Fatal("expected saved character")
	}
	testutil.AssertEqual(t, "other section kept", saved.Has("other-plugin"), true)

	restored := ledger.New("alice", ledger.WithRegistry(reg))
	restored.Decode(saved.ExtensionState)
	testutil.AssertEqual(t, "has mill", restored.HasDiscovered("mill"), true)
	testutil.AssertEqual(t, "view global", restored.ViewGlobal(), false)
}

func TestSessionTicker_RemovesExpiredLinkless(t *testing.T) {
	reg, chars := newTestStores(t)
	w := NewWorldState(&fakeSubscriber{}, &LedgerFactory{Registry: reg})
	expired, _ := w.AddPlayer("alice", NewCharacter("Alice"), make(chan []byte, 1))
	fresh, _ := w.AddPlayer("bob", NewCharacter("Bob"), make(chan []byte, 1))
	_, _ = w.AddPlayer("carol", NewCharacter("Carol"), make(chan []byte, 1))

	expired.Ledger.DiscoverNoSync("mill")
	expired.MarkLinkless()
	fresh.MarkLinkless()

	st := NewSessionTicker(w, chars, WithLinklessTimeout(time.Minute))
	st.now = func() time.Time { return time.Now().Add(time.Minute) }
	fresh.mu.Lock()
	fresh.linklessAt = time.Now().Add(30 * time.Second)
	fresh.mu.Unlock()

	if err := st.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w.GetPlayer("alice") != nil {
		t.Error("expected expired linkless player to be removed")
	}
	if w.GetPlayer("bob") == nil {
		t.Error("expected recently linkless player to remain")
	}
	if w.GetPlayer("carol") == nil {
		t.Error("expected connected player to remain")
	}
	if chars.Get("alice") == nil {
		t.Error("expected removed player to be saved")
	}
}

func TestCharacter_Validate(t *testing.T) {
	tests := map[string]struct {
		name   string
		expErr string
	}{
		"valid":      {name: "Alice"},
		"empty":      {name: "", expErr: "name is required"},
		"with space": {name: "Al ice", expErr: "must be alphanumeric"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := NewCharacter(tt.name).Validate()
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWorldState_RemovePlayerIf(t *testing.T) {
	tests := map[string]struct {
		reattach   bool
		expRemoved bool
	}{
		"still linkless is removed":  {reattach: false, expRemoved: true},
		"reconnected player is kept": {reattach: true, expRemoved: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			reg, _ := newTestStores(t)
			w := NewWorldState(&fakeSubscriber{}, &LedgerFactory{Registry: reg})
			ps, err := w.AddPlayer("alice", NewCharacter("Alice"), make(chan []byte, 1))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			ps.MarkLinkless()

			// The player reconnects after being picked for removal but before it happens.
			if tt.reattach {
				if w.ReattachPlayer("alice", make(chan []byte, 1)) != ps {
					t.Fatal("expected the existing player to be reattached")
				}
			}

			removed, err := w.RemovePlayerIf("alice", func(p *PlayerState) bool {
				linkless, _ := p.Linkless()
				return linkless
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			testutil.AssertEqual(t, "removed", removed != nil, tt.expRemoved)
			testutil.AssertEqual(t, "in world", w.GetPlayer("alice") != nil, !tt.expRemoved)
			testutil.AssertEqual(t, "connected", ps.Ledger.Connected(), tt.reattach)
		})
	}
}

func TestWorldState_ReattachPlayer(t *testing.T) {
	reg, _ := newTestStores(t)
	w := NewWorldState(&fakeSubscriber{}, &LedgerFactory{Registry: reg})

	if w.ReattachPlayer("alice", make(chan []byte, 1)) != nil {
		t.Error("expected nil for a player not in the world")
	}

	ps, _ := w.AddPlayer("alice", NewCharacter("Alice"), make(chan []byte, 1))
	oldDone := ps.Done()
	ps.MarkLinkless()

	if w.ReattachPlayer("alice", make(chan []byte, 1)) != ps {
		t.Fatal("expected the existing player")
	}

	select {
	case <-oldDone:
	default:
		t.Error("expected the previous session to be kicked")
	}
	linkless, _ := ps.Linkless()
	testutil.AssertEqual(t, "linkless", linkless, false)

	_, err := w.RemovePlayerIf("bob", func(*PlayerState) bool { return true })
	if !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("expected ErrPlayerNotFound, got %v", err)
	}
}
