package world

// MoveUnit requests a zone hop. Connectivity is not checked here; the
// movement system only resolves hops along a terrain connection.
func MoveUnit(u *Unit, destination string) {
	u.IsMoving = true
	u.State = StateMoving
	u.Destination = destination
}

// EngageTarget puts both units into the engaged state when they share a
// zone. Returns false and leaves both untouched otherwise.
func EngageTarget(attacker, target *Unit) bool {
	if attacker.Zone != target.Zone {
		return false
	}
	attacker.State = StateEngaged
	target.State = StateEngaged
	return true
}

// UpdateMorale adds delta to the unit's morale, clamped to [0,100].
// Falling below the break point forces a retreat.
func UpdateMorale(u *Unit, delta float64) {
	u.Morale = clamp(u.Morale+delta, 0, 100)
	if u.Morale < MoraleBreakPoint {
		u.State = StateRetreating
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
