package engine

// Difficulty selects which DecisionStrategy an AIAdvisor uses.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// AIDecision is one unit's chosen action for its turn: move to Coord,
// optionally attack TargetID from there.
type AIDecision struct {
	UnitID   UnitId
	MoveTo   Coord
	TargetID UnitId // "" if no attack chosen
}

// DecisionStrategy scores candidate actions for a unit and returns the
// best one. Grounded directly on lib/ai/basic_advisor.go's
// DecisionStrategy map keyed by difficulty.
type DecisionStrategy func(ctx *GameContext, u *Unit) AIDecision

// AIAdvisor drives one enemy team's units each phase. Grounded on
// lib/ai/basic_advisor.go's BasicAIAdvisor, generalized from the hex board
// to the square board and from class-vs-class matchup tables to the
// weapon-triangle Database lookup already used by CombatEngine.
type AIAdvisor struct {
	Team       NID
	MovementGrp NID
	Strategies map[Difficulty]DecisionStrategy
	Difficulty Difficulty
}

// NewAIAdvisor returns an advisor defaulting to the "passive" strategy on
// Easy and the "aggressive" strategy on Normal and Hard; callers override
// Strategies[d] to customize.
func NewAIAdvisor(team, movementGroup NID, difficulty Difficulty) *AIAdvisor {
	return &AIAdvisor{
		Team:        team,
		MovementGrp: movementGroup,
		Difficulty:  difficulty,
		Strategies: map[Difficulty]DecisionStrategy{
			DifficultyEasy:   passiveStrategy,
			DifficultyNormal: aggressiveStrategy,
			DifficultyHard:   aggressiveStrategy,
		},
	}
}

// DecisionsForPhase returns one AIDecision per living, unfinished unit on
// the advisor's team, in deterministic unit-NID order.
func (a *AIAdvisor) DecisionsForPhase(ctx *GameContext) []AIDecision {
	strategy := a.Strategies[a.Difficulty]
	if strategy == nil {
		strategy = aggressiveStrategy
	}
	var out []AIDecision
	for _, u := range ctx.TeamUnits(a.Team) {
		if !u.Alive() || u.Flags.Finished || u.Position == nil {
			continue
		}
		out = append(out, strategy(ctx, u))
	}
	return out
}

// passiveStrategy never moves and never attacks (easy difficulty holds
// position), grounded on lib/ai/basic_advisor.go's "defensive" strategy
// entry.
func passiveStrategy(ctx *GameContext, u *Unit) AIDecision {
	return AIDecision{UnitID: u.NID, MoveTo: *u.Position}
}

// aggressiveStrategy walks the unit's reachable tiles, finds the closest
// enemy within attack range of any reachable tile, and moves to attack it;
// falls back to holding position if no target is reachable. Grounded on
// lib/ai/basic_advisor.go's aggressive DecisionStrategy, which does the
// same reachable-then-nearest-enemy scan over GetMovementOptions.
func aggressiveStrategy(ctx *GameContext, u *Unit) AIDecision {
	decision := AIDecision{UnitID: u.NID, MoveTo: *u.Position}
	class, err := ctx.DB.GetClass(u.ClassID)
	if err != nil {
		return decision
	}
	reachable := ReachableTiles(ctx.Board, *u.Position, u.Stats.Mov, class.MovementGroup, u.NID, ctx)
	weapon := ctx.EquippedWeapon(u)
	if weapon == nil {
		return decision
	}

	bestDist := -1
	for origin, rt := range reachable {
		for _, enemy := range allEnemies(ctx, u.Team) {
			if enemy.Position == nil {
				continue
			}
			d := ManhattanDistance(origin, *enemy.Position)
			if !weapon.InRange(d) {
				continue
			}
			if bestDist == -1 || rt.Cost < bestDist {
				bestDist = rt.Cost
				decision.MoveTo = origin
				decision.TargetID = enemy.NID
			}
		}
	}
	return decision
}

// allEnemies returns every living unit not on team, in deterministic order.
func allEnemies(ctx *GameContext, team NID) []*Unit {
	var out []*Unit
	for _, id := range ctx.sortedUnitIDs() {
		u := ctx.Units[id]
		if u.Team != team && u.Alive() {
			out = append(out, u)
		}
	}
	return out
}
