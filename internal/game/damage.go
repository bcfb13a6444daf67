package game

// DamageSource identifies what hurt a player.
type DamageSource string

const (
	DamageGeneric DamageSource = "generic"
	DamageMob     DamageSource = "mob"
	DamagePlayer  DamageSource = "player"
	DamageFall    DamageSource = "fall"
	// DamageVoid is damage from falling out of the world. It never starts a
	// teleport cooldown, so a player can always escape the void.
	DamageVoid DamageSource = "void"
)

// StartsCooldown reports whether damage from this source delays teleporting.
func (s DamageSource) StartsCooldown() bool {
	return s != DamageVoid
}
