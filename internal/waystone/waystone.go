package waystone

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-waystones/internal/storage"
)

// Waystone is a named teleport anchor. It is stored as an asset keyed by its hash.
type Waystone struct {
	// Name is the display name shown in waystone lists
	Name string `json:"name"`

	// Owner is the character that placed the waystone; empty when unowned
	Owner storage.Identifier `json:"owner,omitempty"`

	// Global waystones are visible to every player without being discovered
	Global bool `json:"global,omitempty"`

	Zone storage.Identifier `json:"zone,omitempty"`
	Room storage.Identifier `json:"room,omitempty"`
}

func (w *Waystone) Validate() error {
	el := errors.NewErrorList()

	if w.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if w.Owner != "" && !w.Owner.Valid() {
		el.Add(fmt.Errorf("owner %q is not a valid identifier", w.Owner))
	}

	return el.Err()
}

// IsOwnedBy reports whether charId owns the waystone.
func (w *Waystone) IsOwnedBy(charId storage.Identifier) bool {
	return w.Owner != "" && w.Owner == charId
}
