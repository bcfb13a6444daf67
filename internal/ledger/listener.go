package ledger

import "github.com/pixil98/go-waystones/internal/storage"

// Listener is notified when a player discovers or forgets a waystone.
// Listeners are called synchronously on the goroutine performing the change.
type Listener interface {
	OnDiscover(charId, waystone storage.Identifier)
	OnForget(charId, waystone storage.Identifier)
}

// ListenerFuncs adapts a pair of functions to a Listener. Either may be nil.
type ListenerFuncs struct {
	Discover func(charId, waystone storage.Identifier)
	Forget   func(charId, waystone storage.Identifier)
}

func (f ListenerFuncs) OnDiscover(charId, waystone storage.Identifier) {
	if f.Discover != nil {
		f.Discover(charId, waystone)
	}
}

func (f ListenerFuncs) OnForget(charId, waystone storage.Identifier) {
	if f.Forget != nil {
		f.Forget(charId, waystone)
	}
}

// Listeners fans each event out to every listener in registration order.
type Listeners []Listener

func (ls Listeners) OnDiscover(charId, waystone storage.Identifier) {
	for _, l := range ls {
		l.OnDiscover(charId, waystone)
	}
}

func (ls Listeners) OnForget(charId, waystone storage.Identifier) {
	for _, l := range ls {
		l.OnForget(charId, waystone)
	}
}
