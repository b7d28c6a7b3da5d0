package engine

import (
	"log/slog"
	"math/rand"
)

// GameContext is the single aggregate every State, event command, and
// turn-controller hook operates through — explicit dependency injection in
// place of the singleton globals the teacher's lib/game.go used to reach
// for board/unit lookups (SPEC_FULL §9 Go-idiom decision). It owns the
// board, the unit/item/skill/party registries, the Database, the action
// log, the turn controller, and the RNG.
type GameContext struct {
	DB     *Database
	Board  *Board
	Units  map[UnitId]*Unit
	Items  map[ItemId]*Item
	Skills map[SkillId]*Skill
	Parties map[PartyId]*Party
	Level  *Level

	ActiveTeam NID
	TurnCount  int

	// GameVars/LevelVars back the event interpreter's condition grammar and
	// scripted flag mutation (spec.md §3 Game Context, §4.6 condition
	// grammar). LevelVars resets on level teardown; GameVars persists across
	// levels. "_win_game"/"_lose_game" in LevelVars are the finalization
	// signals spec.md §4.6 reads after an event completes.
	GameVars  map[string]string
	LevelVars map[string]string

	Log    *ActionLog
	Turn   *TurnController
	Events *EventInterpreter
	Audio  AudioSink
	Logger *slog.Logger
	RNG    *rand.Rand
	Combat *CombatEngine

	// Playtime is the accumulated session time in milliseconds, carried
	// across saves (spec.md §4.8 snapshot field "playtime"). The engine
	// never reads a wall clock itself; a host adds elapsed ticks here.
	Playtime int64
	// CurrentMode is the active difficulty mode's NID (spec.md §4.8
	// "current_mode").
	CurrentMode NID
	// CurrentParty is the party currently focused in base/convoy/shop menus
	// (spec.md §4.8 "current_party").
	CurrentParty PartyId
	// ActiveAIGroups names the UnitGroups (spec.md §4.6 `reinforce`) whose
	// units are live and under AI control this level (spec.md §4.8
	// "active_ai_groups").
	ActiveAIGroups []NID
	// Records is the persistent statistics/achievement register (spec.md §3
	// Game Context "records", §4.8 snapshot field "records") — e.g. kill
	// counts, chapter clear turns. Left as an open-ended counter map rather
	// than a closed schema, since spec.md does not enumerate its keys.
	Records map[string]int
	// Supports accumulates support points between unit pairs, keyed by
	// supportPairKey(a, b) so the pair order doesn't matter (spec.md §4.8
	// "supports"). Support conversation content/unlock thresholds are game
	// data (§6), not engine state, and are out of scope here.
	Supports map[string]int
	// MarketItems lists the item NIDs purchasable at the currently open
	// base/shop (spec.md §4.8 "market_items").
	MarketItems []ItemId
	// BaseConvos tracks which base-conversation NIDs the player has already
	// viewed (spec.md §4.8 "base_convos").
	BaseConvos map[NID]bool
	// TalkOptions lists the talk-event NIDs currently available on the
	// active map (spec.md §4.8 "talk_options").
	TalkOptions []NID
	// FogState holds fog-of-war visibility, nil when the level has no fog
	// (spec.md §4.8 "fog_state").
	FogState *FogState
	// RoamInfo holds free-roam sub-mode state, nil outside of roam (spec.md
	// §1 roam grid-return step, §4.8 "roam_info").
	RoamInfo *RoamInfo
	// OverworldRegistry tracks which overworld map nodes/levels have been
	// unlocked (spec.md §4.8 "overworld_registry").
	OverworldRegistry map[NID]bool
	// Memory is a free-form persistent key/value bag for anything else
	// worth remembering across saves — memorial-hall entries, one-off
	// flags that don't fit GameVars' condition-grammar role (spec.md §4.8
	// "memory").
	Memory map[string]string
}

// FogState is fog-of-war visibility tracked per team, as the set of tiles
// currently revealed to that team (spec.md §4.8 "fog_state").
type FogState struct {
	Enabled       bool
	VisibleByTeam map[NID][]Coord
}

// RoamInfo is the free-roam sub-mode's state: which unit the player is
// directly controlling outside of normal turn structure, and where it
// stands (spec.md §1's in-scope "roam" grid-return case).
type RoamInfo struct {
	Active   bool
	UnitID   UnitId
	Position Coord
}

// supportPairKey builds an order-independent key for a support pair so
// a_b and b_a always collide to the same entry.
func supportPairKey(a, b NID) string {
	if a > b {
		a, b = b, a
	}
	return string(a) + "_" + string(b)
}

// NewGameContext builds an empty context wired to db, ready for a level to
// be loaded into it.
func NewGameContext(db *Database, rng *rand.Rand, logger *slog.Logger) *GameContext {
	if logger == nil {
		logger = NewLogger()
	}
	ctx := &GameContext{
		DB:                db,
		Units:             map[UnitId]*Unit{},
		Items:             map[ItemId]*Item{},
		Skills:            map[SkillId]*Skill{},
		Parties:           map[PartyId]*Party{},
		GameVars:          map[string]string{},
		LevelVars:         map[string]string{},
		Log:               NewActionLog(),
		Audio:             NullAudioSink{},
		Logger:            logger,
		RNG:               rng,
		Records:           map[string]int{},
		Supports:          map[string]int{},
		BaseConvos:        map[NID]bool{},
		OverworldRegistry: map[NID]bool{},
		Memory:            map[string]string{},
	}
	ctx.Combat = NewCombatEngine(db, HitModeTrueHit, rng)
	ctx.Turn = NewTurnController()
	ctx.Events = NewEventInterpreter()
	return ctx
}

// AddSupport accrues support points between two units and returns the new
// total (spec.md §4.8 "supports").
func (c *GameContext) AddSupport(a, b NID, points int) int {
	key := supportPairKey(a, b)
	c.Supports[key] += points
	return c.Supports[key]
}

// SupportPoints returns the accumulated support points between two units.
func (c *GameContext) SupportPoints(a, b NID) int {
	return c.Supports[supportPairKey(a, b)]
}

// GetUnit looks up a unit, returning a typed ResourceError when missing
// instead of a nil-pointer panic (spec.md §7).
func (c *GameContext) GetUnit(id UnitId) (*Unit, error) {
	u, ok := c.Units[id]
	if !ok {
		return nil, ErrUnknownUnit(string(id))
	}
	return u, nil
}

func (c *GameContext) GetItem(id ItemId) (*Item, error) {
	i, ok := c.Items[id]
	if !ok {
		return nil, ErrResourceMissing("item", string(id))
	}
	return i, nil
}

func (c *GameContext) GetParty(id PartyId) (*Party, error) {
	p, ok := c.Parties[id]
	if !ok {
		return nil, ErrResourceMissing("party", string(id))
	}
	return p, nil
}

// TeamUnits returns every unit belonging to team, dead ones included,
// sorted by NID — iterating c.Units directly would be
// nondeterministic across runs (spec.md §8 determinism invariant).
// Grounded on lib/world.go's merged child-over-parent deterministic
// iterators.
func (c *GameContext) TeamUnits(team NID) []*Unit {
	var out []*Unit
	for _, u := range c.sortedUnitIDs() {
		unit := c.Units[u]
		if unit.Team == team {
			out = append(out, unit)
		}
	}
	return out
}

// sortedUnitIDs returns every unit id in deterministic (lexical) order.
func (c *GameContext) sortedUnitIDs() []UnitId {
	ids := make([]UnitId, 0, len(c.Units))
	for id := range c.Units {
		ids = append(ids, id)
	}
	insertionSort(ids)
	return ids
}

func insertionSort(ids []UnitId) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// EquippedWeapon returns the first weapon-capable item in a unit's
// inventory, or nil if the unit carries none (spec.md §3 equip-slot
// simplification: the first valid weapon in Items is always equipped).
func (c *GameContext) EquippedWeapon(u *Unit) *Item {
	for _, id := range u.Items {
		item, err := c.GetItem(id)
		if err != nil {
			continue
		}
		if item.IsWeapon() && !item.Depleted() {
			return item
		}
	}
	return nil
}

// MoveCost implements Passable for the pathfinder: a tile is enterable when
// in bounds, not occupied by a unit on a different (non-allied) team, and
// the unit's movement group has a finite cost for its terrain.
func (c *GameContext) MoveCost(coord Coord, movementGroup NID, mover UnitId) (int, bool) {
	if !c.Board.InBounds(coord) {
		return 0, false
	}
	terrain := c.Board.GetTerrain(coord)
	cost := c.DB.MovementCostFor(movementGroup, terrain)
	if cost >= ImpassableCost {
		return 0, false
	}
	occupant := c.Board.GetUnit(coord)
	if occupant != "" && occupant != mover {
		other, err := c.GetUnit(occupant)
		moverUnit, moverErr := c.GetUnit(mover)
		if err == nil && moverErr == nil && !other.IsAlly(moverUnit) {
			return 0, false
		}
		if err == nil && moverErr == nil && other.IsAlly(moverUnit) {
			// Allied units can be passed through. MoveCost does not tell
			// passing from stopping, so the ally's tile is reported as
			// enterable as well.
			return cost, true
		}
	}
	return cost, true
}

// AttackableTiles returns every tile within a weapon's min/max range band
// reachable from any tile in originTiles, deduplicated (spec.md §4.3
// expansion: attack-range computation built from a unit's movement range
// plus its equipped weapon's range band). Grounded on
// lib/rules_engine.go's GetAttackOptions.
func (c *GameContext) AttackableTiles(originTiles map[Coord]ReachableTile, minRange, maxRange int) []Coord {
	seen := map[Coord]bool{}
	var out []Coord
	for origin := range originTiles {
		for _, target := range origin.Range(maxRange) {
			d := ManhattanDistance(origin, target)
			if d < minRange || d > maxRange {
				continue
			}
			if !c.Board.InBounds(target) || seen[target] {
				continue
			}
			seen[target] = true
			out = append(out, target)
		}
	}
	return out
}

// CheckWinCondition evaluates the turn controller's configured win
// predicates plus the scripted override (spec.md §4.7: "seize reached, all
// enemies dead, or `_win_game` flag set").
func (c *GameContext) CheckWinCondition() bool {
	if c.LevelVars["_win_game"] == "true" {
		return true
	}
	for _, cond := range c.Turn.WinConditions {
		if cond(c) {
			return true
		}
	}
	return false
}

// CheckLossCondition evaluates the turn controller's configured loss
// predicates plus the scripted override (spec.md §4.7: "required unit dead
// or `_lose_game` flag set").
func (c *GameContext) CheckLossCondition() bool {
	if c.LevelVars["_lose_game"] == "true" {
		return true
	}
	for _, cond := range c.Turn.LossConditions {
		if cond(c) {
			return true
		}
	}
	return false
}
