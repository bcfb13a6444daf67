package storage

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/pixil98/go-errors"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9-]*$`)

type ValidatingSpec interface {
	Validate() error
}

// Identifier is an opaque, stable key for a stored record. Equality is exact string match.
type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// Valid reports whether the identifier is non-empty and uses only the allowed characters.
func (id Identifier) Valid() bool {
	return id != "" && identifierPattern.MatchString(string(id))
}

// SortIdentifiers sorts ids in place by their string value and returns them.
func SortIdentifiers(ids []Identifier) []Identifier {
	slices.Sort(ids)
	return ids
}

type Asset[T ValidatingSpec] struct {
	Version    uint       `json:"version"`
	Identifier Identifier `json:"id"`
	Spec       T          `json:"spec"`
}

func (a *Asset[T]) Id() Identifier {
	return a.Identifier
}

func (a *Asset[T]) Validate() error {
	el := errors.NewErrorList()

	if a.Version == 0 {
		el.Add(fmt.Errorf("version must be set"))
	}

	if a.Identifier == "" {
		el.Add(fmt.Errorf("id must be set"))
	}

	if !identifierPattern.MatchString(a.Identifier.String()) {
		el.Add(fmt.Errorf("id must be alphanumeric"))
	}

	el.Add(a.Spec.Validate())

	return el.Err()
}
