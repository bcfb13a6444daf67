package ledger

type LedgerOpt func(*Ledger)

// WithRegistry attaches the authoritative waystone registry. Server-side ledgers
// always have one; client-side ledgers do not.
func WithRegistry(r Registry) LedgerOpt {
	return func(l *Ledger) {
		l.registry = r
	}
}

// WithCache sets the identifier set used to validate persisted entries when no
// registry is attached.
func WithCache(c IdentifierSource) LedgerOpt {
	return func(l *Ledger) {
		l.cache = c
	}
}

// WithListeners registers listeners for discover and forget events.
func WithListeners(ls ...Listener) LedgerOpt {
	return func(l *Ledger) {
		l.listeners = append(l.listeners, ls...)
	}
}

// WithTransport sets where sync payloads are sent.
func WithTransport(t Transport) LedgerOpt {
	return func(l *Ledger) {
		l.transport = t
	}
}

// WithDedicated marks the ledger as running on a dedicated server. On a dedicated
// server only a waystone's owner clears its ownership by forgetting it.
func WithDedicated(dedicated bool) LedgerOpt {
	return func(l *Ledger) {
		l.dedicated = dedicated
	}
}
