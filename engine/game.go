package engine

import "math/rand"

// Game is the top-level run loop owner: it wires a GameContext, a
// StateMachine, and the advisors/level data for one play session. Grounded
// on lib/game.go's Game struct (World + per-turn refresh), generalized from
// a single embedded World into explicit GameContext composition
// (SPEC_FULL §9 Go-idiom decision).
type Game struct {
	Ctx     *GameContext
	States  *StateMachine
	Advisors map[NID]*AIAdvisor
}

// NewGame builds a Game from a Level and the Database it references,
// spawning every UnitSpec onto the board and registering the level's
// regions, grounded on lib/game.go's level-to-world bootstrap and
// lib/moves.go's ProcessBuildUnit spawn validation.
func NewGame(db *Database, level *Level, tilemap *TilemapDef, rng *rand.Rand) (*Game, error) {
	ctx := NewGameContext(db, rng, nil)
	ctx.Level = level

	board := NewBoard(tilemap.Width, tilemap.Height, "")
	idx := 0
	for y := 0; y < tilemap.Height; y++ {
		for x := 0; x < tilemap.Width; x++ {
			if idx >= len(tilemap.Grid) {
				break
			}
			if err := board.SetTerrain(Coord{X: x, Y: y}, tilemap.Grid[idx]); err != nil {
				return nil, err
			}
			idx++
		}
	}
	for _, r := range level.Regions {
		board.AddRegion(r)
	}
	ctx.Board = board

	for _, spec := range level.UnitsSpec {
		prefab, err := db.GetUnitPrefab(spec.UnitNID)
		if err != nil {
			return nil, err
		}
		unit, err := instantiateUnit(db, prefab, spec)
		if err != nil {
			return nil, err
		}
		// The prefab's own NID is used unless an earlier unit already took it.
		if _, taken := ctx.Units[prefab.NID]; !taken {
			unit.NID = prefab.NID
		}
		ctx.Units[unit.NID] = unit
		if err := board.SetUnit(spec.Coord, unit.NID); err != nil {
			return nil, err
		}
	}

	if level.PartyID != "" {
		ctx.Parties[level.PartyID] = &Party{NID: level.PartyID}
	}

	return &Game{Ctx: ctx, States: NewStateMachine(ctx.Logger), Advisors: map[NID]*AIAdvisor{}}, nil
}

// instantiateUnit builds a runtime Unit from a UnitPrefab and its class's
// base stats, grounded on lib/rules_loader.go's prefab-to-instance
// expansion.
func instantiateUnit(db *Database, prefab *UnitPrefab, spec UnitSpec) (*Unit, error) {
	class, err := db.GetClass(prefab.ClassID)
	if err != nil {
		return nil, err
	}
	pos := spec.Coord
	u := &Unit{
		NID:        NewNID(string(prefab.NID)),
		Name:       prefab.Name,
		Team:       spec.Team,
		ClassID:    prefab.ClassID,
		Level:      prefab.Level,
		Stats:      class.Base,
		CurrentHP:  class.Base.HPMax,
		Growths:    class.Growths,
		Items:      append([]ItemId(nil), prefab.Items...),
		Skills:     append([]SkillId(nil), prefab.Skills...),
		WexpByType: map[NID]int{},
		Position:   &pos,
		Affinity:   prefab.Affinity,
	}
	return u, nil
}

// RegisterAdvisor assigns an AI advisor to drive a team's phase.
func (g *Game) RegisterAdvisor(a *AIAdvisor) {
	g.Advisors[a.Team] = a
}

// RunAIPhase asks the active team's advisor (if any) for a decision per
// unit and executes each one: move then, if a target was chosen, resolve
// combat against it. Grounded on lib/ai/basic_advisor.go's
// decide-then-apply loop.
func (g *Game) RunAIPhase() error {
	team := g.Ctx.Turn.ActiveTeam()
	advisor, ok := g.Advisors[team]
	if !ok {
		return nil
	}
	for _, decision := range advisor.DecisionsForPhase(g.Ctx) {
		u, err := g.Ctx.GetUnit(decision.UnitID)
		if err != nil {
			continue
		}
		if u.Position == nil {
			continue
		}
		from := *u.Position
		if from != decision.MoveTo {
			if err := g.Ctx.Log.Record(g.Ctx, &MoveChange{UnitID: u.NID, From: from, To: decision.MoveTo}); err != nil {
				return err
			}
		}
		u.Flags.HasMoved = true
		if decision.TargetID == "" {
			u.Flags.Finished = true
			continue
		}
		target, err := g.Ctx.GetUnit(decision.TargetID)
		if err != nil {
			u.Flags.Finished = true
			continue
		}
		weapon := g.Ctx.EquippedWeapon(u)
		defWeapon := g.Ctx.EquippedWeapon(target)
		dist := ManhattanDistance(decision.MoveTo, *target.Position)
		result := g.Ctx.Combat.Resolve(u, target, weapon, defWeapon, dist)
		applyCombatResult(g.Ctx, result, u, target)
		u.Flags.HasAttacked = true
		u.Flags.Finished = true
	}
	return nil
}

// EndPhase finalizes the action log for the phase that just ended (turn
// transitions are a commit boundary — spec.md §4.8) and advances the
// TurnController.
func (g *Game) EndPhase() TurnOutcome {
	g.Ctx.Log.Finalize()
	return g.Ctx.Turn.EndPhase(g.Ctx)
}
