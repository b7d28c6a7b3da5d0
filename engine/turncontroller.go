package engine

// WinCondition and LossCondition are small predicates a level configures;
// evaluated once per turn boundary by the TurnController (spec.md §4.7).
type WinCondition func(ctx *GameContext) bool
type LossCondition func(ctx *GameContext) bool

// TurnOutcome reports whether a turn transition ended the level.
type TurnOutcome struct {
	Won  bool
	Lost bool
}

// TurnController advances the turn/phase cycle: resetting per-turn unit
// flags, ticking status-effect damage, and evaluating win/loss conditions.
// Grounded on lib/game.go's TopUpTileIfNeeded/TopUpUnitIfNeeded per-turn
// refresh pattern, generalized into an explicit phase sequence
// (SPEC_FULL §4.7 expansion: named phases instead of an implicit refresh).
type TurnController struct {
	TeamOrder   []NID
	activeIndex int
	TurnNumber  int

	WinConditions  []WinCondition
	LossConditions []LossCondition
}

// NewTurnController returns a controller with no teams configured yet;
// callers set TeamOrder after loading a level.
func NewTurnController() *TurnController {
	return &TurnController{TurnNumber: 1}
}

// ActiveTeam returns the team whose phase is currently active.
func (t *TurnController) ActiveTeam() NID {
	if len(t.TeamOrder) == 0 {
		return ""
	}
	return t.TeamOrder[t.activeIndex]
}

// EndPhase resets the finished team's per-turn flags, advances to the next
// team in TeamOrder, ticks status effects once a full round completes
// (spec.md §4.7 invariant: exactly one status tick per unit per full turn
// cycle, not per phase), and evaluates win/loss on every call.
func (t *TurnController) EndPhase(ctx *GameContext) TurnOutcome {
	finishing := t.ActiveTeam()
	for _, u := range ctx.TeamUnits(finishing) {
		u.Flags = UnitFlags{Dead: u.Flags.Dead}
	}

	t.activeIndex++
	wrapped := t.activeIndex >= len(t.TeamOrder)
	if wrapped {
		t.activeIndex = 0
		t.TurnNumber++
		tickStatusEffects(ctx)
	}

	return t.evaluate(ctx)
}

// tickStatusEffects applies each unit's status-effect damage-per-turn once
// per full round and decrements duration, removing expired effects
// (spec.md §3 StatusEffect invariant).
func tickStatusEffects(ctx *GameContext) {
	for _, id := range ctx.sortedUnitIDs() {
		u := ctx.Units[id]
		if !u.Alive() {
			continue
		}
		var remaining []StatusEffect
		for _, eff := range u.StatusEffects {
			if eff.DamagePerTurn > 0 {
				u.CurrentHP -= eff.DamagePerTurn
				if u.CurrentHP < 0 {
					u.CurrentHP = 0
				}
				if u.CurrentHP <= 0 {
					u.Flags.Dead = true
				}
			}
			eff.Duration--
			if eff.Duration > 0 {
				remaining = append(remaining, eff)
			}
		}
		u.StatusEffects = remaining
	}
}

// evaluate runs every configured win/loss predicate, stopping at the first
// match of each kind (spec.md §4.7: loss is checked before win so a mutual
// wipe counts as a loss).
func (t *TurnController) evaluate(ctx *GameContext) TurnOutcome {
	for _, cond := range t.LossConditions {
		if cond(ctx) {
			return TurnOutcome{Lost: true}
		}
	}
	for _, cond := range t.WinConditions {
		if cond(ctx) {
			return TurnOutcome{Won: true}
		}
	}
	return TurnOutcome{}
}

// AllUnitsOnTeamDead is a common LossCondition: every living unit of team
// has died (spec.md §4.7 edge case: player-team wipe).
func AllUnitsOnTeamDead(team NID) LossCondition {
	return func(ctx *GameContext) bool {
		for _, u := range ctx.TeamUnits(team) {
			if u.Alive() {
				return false
			}
		}
		return true
	}
}

// SeizeAchieved is a common WinCondition: a unit on team stands inside a
// RegionSeize region (spec.md §4.6 expansion: seize objective).
func SeizeAchieved(team NID) WinCondition {
	return func(ctx *GameContext) bool {
		for _, r := range ctx.Board.RegionsOfType(RegionSeize) {
			for _, u := range ctx.TeamUnits(team) {
				if u.Position != nil && r.Contains(*u.Position) {
					return true
				}
			}
		}
		return false
	}
}

// RoutDefeated is a common WinCondition: every unit on the named enemy team
// has died.
func RoutDefeated(team NID) WinCondition {
	return func(ctx *GameContext) bool {
		for _, u := range ctx.TeamUnits(team) {
			if u.Alive() {
				return false
			}
		}
		return true
	}
}
