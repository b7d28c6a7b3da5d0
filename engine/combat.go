package engine

import "math/rand"

// HitMode selects how a to-hit roll resolves (SPEC_FULL.md §9 open
// question 3 records the true_hit decision).
type HitMode string

const (
	HitModeTrueHit HitMode = "true_hit" // average of two independent rolls
	HitModeClassic HitMode = "classic"  // single roll
	HitModeFixed   HitMode = "fixed"    // deterministic, for scripted/tests
)

// CombatSide holds the derived, pre-strike combat stats for one participant,
// grounded on lib/combat.go's per-side stat bundle built before simulating
// exchanges.
type CombatSide struct {
	UnitID    UnitId
	Hit       int
	Crit      int
	Damage    int
	Speed     int
	Weapon    *Item
	CanDouble bool
}

// CombatPrediction is the read-only forecast shown before committing to an
// attack (spec.md §4.2), grounded on lib/predict.go's prediction surface.
type CombatPrediction struct {
	Attacker, Defender CombatSide
	AttackerFirst      bool
}

// StrikeResult records one resolved exchange in a combat (spec.md §4.2).
type StrikeResult struct {
	AttackerID UnitId
	DefenderID UnitId
	Hit        bool
	Crit       bool
	Damage     int
	DefenderHP int
}

// CombatResult is the full outcome of a resolved combat: every strike in
// order, and whether each side died.
type CombatResult struct {
	Strikes       []StrikeResult
	AttackerDied  bool
	DefenderDied  bool
	ExpGained     map[UnitId]int
	WexpGained    map[UnitId]int
}

// CombatEngine resolves attacker/defender exchanges using the weapon
// triangle, the hit/crit/damage formulas, and the configured RNG hit mode.
// Grounded on lib/combat.go's CalculateCombatDamage and
// lib/combat_formula.go's hit-probability formula, generalized from the
// hex-grid unit-vs-class table to a square-grid weapon-triangle table
// sourced from the Database.
type CombatEngine struct {
	DB   *Database
	Mode HitMode
	Rand *rand.Rand
}

// NewCombatEngine builds a combat engine seeded from a caller-owned *rand.Rand
// so replays/save-restore can reproduce rolls deterministically (spec.md §7
// persistence determinism requirement).
func NewCombatEngine(db *Database, mode HitMode, rng *rand.Rand) *CombatEngine {
	return &CombatEngine{DB: db, Mode: mode, Rand: rng}
}

func weaponType(item *Item) NID {
	if item == nil {
		return ""
	}
	return NID(item.NID)
}

// BuildSide computes the derived combat stats for attacker vs defender,
// applying the weapon triangle bonus from the Database (spec.md §3 Weapon
// Triangle invariant).
func (c *CombatEngine) BuildSide(attacker, defender *Unit, weapon, defenderWeapon *Item, distance int) CombatSide {
	side := CombatSide{UnitID: attacker.NID, Weapon: weapon}
	if weapon == nil || !weapon.IsWeapon() {
		return side
	}

	atkType := weaponType(weapon)
	defType := weaponType(defenderWeapon)
	advantage := WeaponAdvantage{}
	if c.DB != nil {
		advantage = c.DB.WeaponAdvantageFor(atkType, defType)
	}

	side.Hit = clampPercent(weapon.Comp.Hit + attacker.Stats.Skl*2 + attacker.Stats.Lck/2 - defender.Stats.Lck + advantage.HitDelta)
	side.Crit = clampPercent(weapon.Comp.Crit + attacker.Stats.Skl/2 - defender.Stats.Lck)
	dmg := weapon.Comp.Damage + advantage.DamageDelta
	if weapon.Comp.Magic {
		dmg += attacker.Stats.Mag
	} else {
		dmg += attacker.Stats.Str
	}
	dmg -= defender.Stats.Def
	if weapon.Comp.Magic {
		dmg += defender.Stats.Res - defender.Stats.Def
	}
	if dmg < 0 {
		dmg = 0
	}
	side.Damage = dmg
	side.Speed = effectiveSpeed(attacker, weapon)
	return side
}

func effectiveSpeed(u *Unit, weapon *Item) int {
	spd := u.Stats.Spd
	if weapon != nil && weapon.Comp.Weight > u.Stats.Con {
		spd -= weapon.Comp.Weight - u.Stats.Con
	}
	if spd < 0 {
		spd = 0
	}
	return spd
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Predict returns the forecast for an attacker/defender pair without
// mutating any state (spec.md §4.2 combat preview requirement).
func (c *CombatEngine) Predict(attacker, defender *Unit, atkWeapon, defWeapon *Item, distance int) CombatPrediction {
	atkSide := c.BuildSide(attacker, defender, atkWeapon, defWeapon, distance)
	defSide := CombatSide{UnitID: defender.NID, Speed: effectiveSpeed(defender, defWeapon)}
	if defWeapon != nil && defWeapon.InRange(distance) {
		defSide = c.BuildSide(defender, attacker, defWeapon, atkWeapon, distance)
	}
	followUp := c.DB.Constants.FollowUpThreshold
	atkSide.CanDouble = atkSide.Speed-defSide.Speed >= followUp
	defSide.CanDouble = defSide.Speed-atkSide.Speed >= followUp
	return CombatPrediction{
		Attacker:      atkSide,
		Defender:      defSide,
		AttackerFirst: true,
	}
}

// rollHit consumes RNG according to Mode and reports whether the strike
// connects (spec.md §4.2, Open Question OQ-2: true_hit is the average of
// two independent rolls against the hit chance).
func (c *CombatEngine) rollHit(hitChance int) bool {
	switch c.Mode {
	case HitModeFixed:
		return hitChance >= 50
	case HitModeTrueHit:
		r1, r2 := c.Rand.Intn(100), c.Rand.Intn(100)
		avg := (r1 + r2) / 2
		return avg < hitChance
	default: // HitModeClassic
		return c.Rand.Intn(100) < hitChance
	}
}

func (c *CombatEngine) rollCrit(critChance int) bool {
	if c.Mode == HitModeFixed {
		return critChance >= 100
	}
	return c.Rand.Intn(100) < critChance
}

// strike resolves one exchange and returns the damage dealt and whether the
// defender died, mutating defenderHP in place.
func (c *CombatEngine) strike(side CombatSide, defenderHP *int) StrikeResult {
	res := StrikeResult{AttackerID: side.UnitID}
	res.Hit = c.rollHit(side.Hit)
	if res.Hit {
		res.Crit = c.rollCrit(side.Crit)
		dmg := side.Damage
		if res.Crit {
			dmg *= 3
		}
		if dmg > *defenderHP {
			dmg = *defenderHP
		}
		*defenderHP -= dmg
		res.Damage = dmg
	}
	res.DefenderHP = *defenderHP
	return res
}

// Resolve runs a full combat: attacker strikes, defender counters if in
// range, then follow-up strikes for whichever side out-speeds the other by
// the configured threshold, stopping early the instant either HP hits 0.
// Brave weapons strike twice per normal opportunity (spec.md §4.2 edge
// case). Grounded on lib/combat.go's CalculateCombatDamage strike loop.
func (c *CombatEngine) Resolve(attacker, defender *Unit, atkWeapon, defWeapon *Item, distance int) CombatResult {
	pred := c.Predict(attacker, defender, atkWeapon, defWeapon, distance)
	defenderInRange := defWeapon != nil && defWeapon.InRange(distance)

	result := CombatResult{ExpGained: map[UnitId]int{}, WexpGained: map[UnitId]int{}}
	atkHP, defHP := attacker.CurrentHP, defender.CurrentHP

	atkStrikes := 1
	if atkWeapon != nil && atkWeapon.Comp.Brave {
		atkStrikes = 2
	}
	defStrikes := 1
	if defWeapon != nil && defWeapon.Comp.Brave {
		defStrikes = 2
	}

	order := []struct {
		side    CombatSide
		hp      *int
		targetHP *int
		strikes int
		canHit  bool
	}{
		{pred.Attacker, &atkHP, &defHP, atkStrikes, true},
	}
	if defenderInRange {
		order = append(order, struct {
			side    CombatSide
			hp      *int
			targetHP *int
			strikes int
			canHit  bool
		}{pred.Defender, &defHP, &atkHP, defStrikes, true})
	}
	if pred.Attacker.CanDouble {
		order = append(order, order[0])
	}
	if defenderInRange && pred.Defender.CanDouble {
		order = append(order, struct {
			side    CombatSide
			hp      *int
			targetHP *int
			strikes int
			canHit  bool
		}{pred.Defender, &defHP, &atkHP, defStrikes, true})
	}

	for _, o := range order {
		if atkHP <= 0 || defHP <= 0 {
			break
		}
		for i := 0; i < o.strikes; i++ {
			if *o.targetHP <= 0 {
				break
			}
			sr := c.strike(o.side, o.targetHP)
			sr.DefenderID = defender.NID
			if o.side.UnitID == defender.NID {
				sr.DefenderID = attacker.NID
			}
			result.Strikes = append(result.Strikes, sr)
			if sr.Hit {
				// spec.md §4.2: EXP accrues to the attacker's team only, and
				// only when that team is "player" — a defender's successful
				// counter-strike, and any non-player attacker, earns nothing.
				if o.side.UnitID == attacker.NID && attacker.Team == "player" {
					result.ExpGained[attacker.NID] += c.DB.Constants.ExpPerHit
				}
				if wt := weaponType(atkWeapon); o.side.UnitID == attacker.NID && wt != "" {
					result.WexpGained[attacker.NID]++
				}
			}
		}
	}

	result.AttackerDied = atkHP <= 0
	result.DefenderDied = defHP <= 0
	if result.DefenderDied && attacker.Team == "player" {
		result.ExpGained[attacker.NID] += killExp(c.DB.Constants.ExpPerKillBase, defender, attacker)
	}
	return result
}

// killExp computes the exact spec.md §4.2 kill formula: base + (victim.level
// - killer.level), floored at 1 (S2: 20 + (3-1) = 22 for a level-3 kill by a
// level-1 attacker, added on top of hit exp already accrued this combat for
// a total of 23).
func killExp(base int, victim, killer *Unit) int {
	exp := base + (victim.Level - killer.Level)
	if exp < 1 {
		exp = 1
	}
	return exp
}

// ApplyLevelUp rolls each growth stat independently against the unit's
// growth rates (scaled by the difficulty mode's multiplier) and adds the
// result to Stats; no stat cap is applied (spec.md §4.2 level-up edge
// case: stats never decrease, HP floor preserved). Returns the per-stat
// gains for display.
func ApplyLevelUp(u *Unit, growths Stats, modeMultiplier float64, rng *rand.Rand) Stats {
	gains := Stats{}
	roll := func(rate int) int {
		scaled := float64(rate) * modeMultiplier
		whole := int(scaled) / 100
		frac := int(scaled) % 100
		gain := whole
		if rng.Intn(100) < frac {
			gain++
		}
		return gain
	}
	gains.HPMax = roll(growths.HPMax)
	gains.Str = roll(growths.Str)
	gains.Mag = roll(growths.Mag)
	gains.Skl = roll(growths.Skl)
	gains.Spd = roll(growths.Spd)
	gains.Lck = roll(growths.Lck)
	gains.Def = roll(growths.Def)
	gains.Res = roll(growths.Res)
	u.Stats = u.Stats.Add(gains)
	u.CurrentHP += gains.HPMax
	u.Level++
	return gains
}
