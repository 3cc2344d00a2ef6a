package model

// ShieldEffectIDs is the static table of effect ids that behave as damage
// shields for the purposes of §4.6 attribution. In production this would be
// generated at build time from the game's data files; this module ships a
// representative fixture set since that generator is out of scope.
var ShieldEffectIDs = map[int64]struct{}{
	2168592814931968: {}, // Static Barrier
	2168592814931969: {}, // Kinetic Shield
	2168592814931970: {}, // Static Shield (companion)
	2168592814931971: {}, // Force Armor
	2168592814931972: {}, // Enduring Bastion
}

// IsShieldEffect reports whether id is a member of ShieldEffectIDs.
func IsShieldEffect(id int64) bool {
	_, ok := ShieldEffectIDs[id]
	return ok
}

// OffGCDAbilities is the static table of ability ids that do not consume the
// global cooldown, used by downstream metric breakdowns (action rate, APM).
var OffGCDAbilities = map[int64]struct{}{
	2168592811393024: {}, // Adrenaline Probe
	2168592811393025: {}, // Relic proc
	2168592811393026: {}, // Recovery stim
}

// IsOffGCD reports whether id is a member of OffGCDAbilities.
func IsOffGCD(id int64) bool {
	_, ok := OffGCDAbilities[id]
	return ok
}

// AttackTypes maps ability ids to the human attack-type tag used for
// display and for crit/hit breakdowns.
var AttackTypes = map[int64]string{
	2168592811393024: "tech",
	2168592811393025: "tech",
	2168592811393026: "tech",
}

// AttackTypeFor returns the attack-type tag for id, or "" if unknown.
func AttackTypeFor(id int64) string {
	return AttackTypes[id]
}
