package messaging

import (
	"fmt"
	"sync"

	"github.com/pixil98/go-waystones/internal/game"
	"github.com/pixil98/go-waystones/internal/storage"
)

type published struct {
	subject string
	data    []byte
}

// fakeBus delivers publishes synchronously to matching subscribers and records them.
type fakeBus struct {
	mu         sync.Mutex
	published  []published
	handlers   map[string]func([]byte)
	publishErr error
}

func (b *fakeBus) Publish(subject string, data []byte) error {
	b.mu.Lock()
	if b.publishErr != nil {
		b.mu.Unlock()
		return b.publishErr
	}
	b.published = append(b.published, published{subject: subject, data: data})
	h := b.handlers[subject]
	b.mu.Unlock()

	if h != nil {
		h(data)
	}
	return nil
}

func (b *fakeBus) Subscribe(subject string, handler func([]byte)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers == nil {
		b.handlers = map[string]func([]byte){}
	}
	if _, ok := b.handlers[subject]; ok {
		return nil, fmt.Errorf("already subscribed to %s", subject)
	}
	b.handlers[subject] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, subject)
	}, nil
}

func (b *fakeBus) subscribed(subject string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.handlers[subject]
	return ok
}

type damageCall struct {
	CharId storage.Identifier
	Source game.DamageSource
}

type recordingWorld struct {
	mu    sync.Mutex
	calls []damageCall
	err   error
}

func (w *recordingWorld) ApplyDamage(charId storage.Identifier, source game.DamageSource) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, damageCall{CharId: charId, Source: source})
	return w.err
}
