package ledger

// Cooldown returns the number of ticks left before the player may teleport again.
func (l *Ledger) Cooldown() int {
	return int(l.cooldown.Load())
}

// SetCooldown extends the teleport cooldown to n ticks. Values that are not
// positive, or that would shorten the remaining cooldown, are ignored.
func (l *Ledger) SetCooldown(n int) {
	if n <= 0 {
		return
	}
	for {
		cur := l.cooldown.Load()
		if int64(n) <= cur {
			return
		}
		if l.cooldown.CompareAndSwap(cur, int64(n)) {
			return
		}
	}
}

// Tick advances the cooldown by one tick, stopping at zero.
func (l *Ledger) Tick() {
	for {
		cur := l.cooldown.Load()
		if cur <= 0 {
			return
		}
		if l.cooldown.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}
