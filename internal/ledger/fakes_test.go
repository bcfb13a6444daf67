package ledger

import (
	"fmt"
	"sync"

	"github.com/pixil98/go-waystones/internal/storage"
	"github.com/pixil98/go-waystones/internal/waystone"
)

// memRegistry is an in-memory Registry for tests.
// memRegistry implements only what the ledger needs from a registry.
type memRegistry struct {
	mu        sync.Mutex
	waystones map[storage.Identifier]*waystone.Waystone
	cleared   []storage.Identifier
	clearErr  error
}

func newMemRegistry(ws map[storage.Identifier]*waystone.Waystone) *memRegistry {
	if ws == nil {
		ws = map[storage.Identifier]*waystone.Waystone{}
	}
	return &memRegistry{waystones: ws}
}

func (r *memRegistry) Lookup(id storage.Identifier) (*waystone.Waystone, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.waystones[id]
	if !ok {
		return nil, false
	}
	cp := *w
	return &cp, true
}

func (r *memRegistry) AllIdentifiers() map[storage.Identifier]struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := map[storage.Identifier]struct{}{}
	for id := range r.waystones {
		ids[id] = struct{}{}
	}
	return ids
}

func (r *memRegistry) ClearOwner(id storage.Identifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cleared = append(r.cleared, id)
	if r.clearErr != nil {
		return r.clearErr
	}
	if w, ok := r.waystones[id]; ok {
		w.Owner = ""
	}
	return nil
}

func (r *memRegistry) owner(id storage.Identifier) storage.Identifier {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waystones[id].Owner
}

// recordingTransport captures every sync payload.
type recordingTransport struct {
	mu   sync.Mutex
	sent []sentTag
	err  error
}

type sentTag struct {
	charId storage.Identifier
	tag    storage.ExtensionState
}

func (t *recordingTransport) SendTag(charId storage.Identifier, tag storage.ExtensionState) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sent = append(t.sent, sentTag{charId: charId, tag: tag})
	return t.err
}

func (t *recordingTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

func (t *recordingTransport) last() sentTag {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sent[len(t.sent)-1]
}

// recordingListener captures events as "discover:<id>" / "forget:<id>".
type recordingListener struct {
	mu     sync.Mutex
	events []string
}

func (l *recordingListener) OnDiscover(charId, id storage.Identifier) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf("discover:%s", id))
}

func (l *recordingListener) OnForget(charId, id storage.Identifier) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf("forget:%s", id))
}

func (l *recordingListener) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type staticSource map[storage.Identifier]struct{}

func (s staticSource) AllIdentifiers() map[storage.Identifier]struct{} {
	return s
}

func testWaystones() map[storage.Identifier]*waystone.Waystone {
	return map[storage.Identifier]*waystone.Waystone{
		"a":      {Name: "Zephyr Peak"},
		"b":      {Name: "Amber Vale"},
		"c":      {Name: "Mill", Owner: "alice"},
		"d":      {Name: "Dock", Owner: "bob"},
		"global": {Name: "Spawn", Owner: "alice", Global: true},
	}
}

// newTestLedger returns a connected ledger for alice with a registry, transport and listener.
func newTestLedger(opts ...LedgerOpt) (*Ledger, *memRegistry, *recordingTransport, *recordingListener) {
	reg := newMemRegistry(testWaystones())
	tr := &recordingTransport{}
	rl := &recordingListener{}

	all := append([]LedgerOpt{WithRegistry(reg), WithTransport(tr), WithListeners(rl)}, opts...)
	l := New("alice", all...)
	l.SetConnected(true)
	return l, reg, tr, rl
}
