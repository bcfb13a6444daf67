package game

import (
	"github.com/pixil98/go-waystones/internal/ledger"
	"github.com/pixil98/go-waystones/internal/storage"
)

// LedgerFactory builds waystone ledgers that share the server's registry,
// transport and listeners.
type LedgerFactory struct {
	Registry  ledger.Registry
	Transport ledger.Transport
	Listeners []ledger.Listener
	Dedicated bool
}

// NewLedger returns an empty ledger for charId.
func (f *LedgerFactory) NewLedger(charId storage.Identifier) *ledger.Ledger {
	opts := []ledger.LedgerOpt{
		ledger.WithListeners(f.Listeners...),
		ledger.WithDedicated(f.Dedicated),
	}
	if f.Registry != nil {
		opts = append(opts, ledger.WithRegistry(f.Registry))
	}
	if f.Transport != nil {
		opts = append(opts, ledger.WithTransport(f.Transport))
	}
	return ledger.New(charId, opts...)
}
