package world

const (
	// MoraleBreakPoint is the morale below which a unit retreats.
	MoraleBreakPoint = 20
	// AmmoBreakPoint is the ammunition below which an engaged unit retreats.
	AmmoBreakPoint = 10

	engagedMoraleLoss  = 5 // per second
	idleMoraleRecovery = 2 // per second
)

// Movement resolves pending zone hops. A unit only moves when its current
// zone connects to the destination; otherwise it stays in motion and is
// retried on the next step. Movement is a discrete hop.
func Movement(w *World, _ float64) {
	w.EachUnit(func(u *Unit) {
		if !u.IsMoving || !u.HasDestination() {
			return
		}
		current, ok := w.Terrain(u.Zone)
		if !ok || !current.Connects(u.Destination) {
			return
		}
		if _, ok := w.Terrain(u.Destination); !ok {
			return
		}
		u.Zone = u.Destination
		u.IsMoving = false
		u.State = StateIdle
		u.Destination = ""
	})
}

// Combat resolves fire from every engaged unit onto each co-located enemy.
// Damage is firepower reduced by the cover of the zone, scaled by delta
// seconds, and taken from the enemy's morale. Each enemy engaged costs the
// attacker delta rounds; running dry forces a retreat. A defender's state is
// left to Morale, so every unit engaged at the start of the pass fires.
func Combat(w *World, delta float64) {
	w.EachUnit(func(attacker *Unit) {
		if attacker.State != StateEngaged {
			return
		}
		cover := 0.0
		if t, ok := w.Terrain(attacker.Zone); ok {
			cover = t.Cover
		}
		for _, enemy := range w.UnitsIn(attacker.Zone) {
			if !attacker.Faction.Opposes(enemy.Faction) {
				continue
			}
			damage := EffectiveDamage(attacker.Firepower, cover)
			enemy.Morale = max(enemy.Morale-damage*delta, 0)
			attacker.Ammunition = max(attacker.Ammunition-delta, 0)
		}
		if attacker.Ammunition < AmmoBreakPoint {
			attacker.State = StateRetreating
		}
	})
}

// EffectiveDamage is firepower after cover (0-100) reduction.
func EffectiveDamage(firepower, cover float64) float64 {
	return firepower * (1 - cover/100)
}

// Morale drains engaged units, breaks units below the break point and lets
// idle units recover up to 100.
func Morale(w *World, delta float64) {
	w.EachUnit(func(u *Unit) {
		if u.State == StateEngaged {
			u.Morale = clamp(u.Morale-engagedMoraleLoss*delta, 0, 100)
		}
		if u.Morale < MoraleBreakPoint && u.State != StateRetreating {
			u.State = StateRetreating
			return
		}
		if u.State == StateIdle {
			u.Morale = clamp(u.Morale+idleMoraleRecovery*delta, 0, 100)
		}
	})
}

// Step runs movement, combat and morale once, in that order.
func Step(w *World, delta float64) {
	Movement(w, delta)
	Combat(w, delta)
	Morale(w, delta)
}
