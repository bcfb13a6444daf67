package waystone

import (
	"sync"

	"github.com/pixil98/go-waystones/internal/storage"
)

// HashCache is the client's view of which waystone hashes exist. It is replaced
// wholesale whenever the server sends a registry snapshot.
type HashCache struct {
	mu     sync.RWMutex
	hashes map[storage.Identifier]struct{}
}

func NewHashCache() *HashCache {
	return &HashCache{}
}

// Replace swaps the cached set for ids.
func (c *HashCache) Replace(ids []storage.Identifier) {
	hashes := make(map[storage.Identifier]struct{}, len(ids))
	for _, id := range ids {
		hashes[id] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.hashes = hashes
}

// Loaded reports whether a snapshot has been received yet.
func (c *HashCache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hashes != nil
}

// AllIdentifiers returns a copy of the cached set. A nil cache, or one that has not
// been loaded, returns nil.
func (c *HashCache) AllIdentifiers() map[storage.Identifier]struct{} {
	if c == nil {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.hashes == nil {
		return nil
	}
	out := make(map[storage.Identifier]struct{}, len(c.hashes))
	for id := range c.hashes {
		out[id] = struct{}{}
	}
	return out
}
