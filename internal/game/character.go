package game

import (
	"fmt"
	"strings"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-waystones/internal/storage"
)

// Character is the persisted record for a player.
type Character struct {
	// Name is the character's display name
	Name string `json:"name"`

	// Extension sections, including the waystone ledger
	storage.ExtensionState `json:"ext,omitempty"`
}

func NewCharacter(name string) *Character {
	return &Character{
		Name:           name,
		ExtensionState: storage.ExtensionState{},
	}
}

// CharacterId derives the storage identifier for a character name.
func CharacterId(name string) storage.Identifier {
	return storage.Identifier(strings.ToLower(name))
}

func (c *Character) Validate() error {
	el := errors.NewErrorList()

	if c.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	} else if !CharacterId(c.Name).Valid() {
		el.Add(fmt.Errorf("name %q must be alphanumeric", c.Name))
	}

	return el.Err()
}
