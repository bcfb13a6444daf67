package storage

import (
	"encoding/json"
	"fmt"
)

// ExtensionState holds the independently encoded sections attached to a stored
// record, keyed by section name. A character's waystone ledger lives in the
// "waystones" section; other sections are kept as raw JSON and written back
// untouched, so a reader only ever decodes the section it owns.
type ExtensionState map[string]json.RawMessage

// Set encodes v as the named section, replacing any previous value.
func (e *ExtensionState) Set(section string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding section %q: %w", section, err)
	}

	if *e == nil {
		*e = make(ExtensionState, 1)
	}
	(*e)[section] = raw
	return nil
}

// Get decodes the named section into out. A missing or empty section reports
// found=false and leaves out alone.
func (e ExtensionState) Get(section string, out any) (found bool, err error) {
	raw := e[section]
	if len(raw) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("decoding section %q: %w", section, err)
	}
	return true, nil
}

func (e ExtensionState) Has(section string) bool {
	return len(e[section]) > 0
}

// Delete drops the named section.
func (e ExtensionState) Delete(section string) {
	delete(e, section)
}
