package game

import "github.com/pixil98/go-waystones/internal/storage"

// Publisher delivers raw frames to a single player's client.
type Publisher interface {
	PublishToPlayer(charId storage.Identifier, data []byte) error
}

// Subscriber provides the ability to subscribe to message subjects
type Subscriber interface {
	Subscribe(subject string, handler func(data []byte)) (unsubscribe func(), err error)
}
