package engine

// baseState gives every concrete state Transparent()==false and no-op
// Begin/End by default; concrete states embed it and override what they
// need (SPEC_FULL §4.5 expansion: a small generic OverlayState design
// instead of one bespoke struct per menu, grounded on
// lib/game_interface.go's GameStatus-keyed state dispatch).
type baseState struct{}

func (baseState) Begin(ctx *GameContext) {}
func (baseState) End(ctx *GameContext)   {}
func (baseState) Transparent() bool      { return false }

// FreeState is the root gameplay state, the bottom of the stack for the
// whole level. Its Update pumps the event interpreter and requests no
// transition; it handles no player input itself.
type FreeState struct {
	baseState
	Team NID
}

func (s *FreeState) Name() string { return "free" }

func (s *FreeState) Update(ctx *GameContext) Transition {
	ctx.Events.Update(ctx)
	if ctx.Events.Busy() {
		return Transition{}
	}
	return Transition{}
}

func (s *FreeState) Draw(ctx *GameContext, surface DrawSurface) {
	for _, u := range ctx.TeamUnits(s.Team) {
		if u.Position != nil {
			surface.DrawSprite(string(u.ClassID), u.Position.X, u.Position.Y)
		}
	}
}

// UnitSelectState handles highlighting a chosen unit's movement range and
// waiting for a destination pick (spec.md §4.5), grounded on
// lib/core.go's selection-then-confirm input loop.
type UnitSelectState struct {
	baseState
	UnitID       UnitId
	MovementGrp  NID
	Reachable    map[Coord]ReachableTile
	chosen       *Coord
}

func (s *UnitSelectState) Name() string { return "unit_select" }

func (s *UnitSelectState) Begin(ctx *GameContext) {
	u, err := ctx.GetUnit(s.UnitID)
	if err != nil || u.Position == nil {
		return
	}
	s.Reachable = ReachableTiles(ctx.Board, *u.Position, u.Stats.Mov, s.MovementGrp, s.UnitID, ctx)
}

func (s *UnitSelectState) Update(ctx *GameContext) Transition {
	if s.chosen == nil {
		return Transition{}
	}
	return Transition{Kind: TransitionBack}
}

func (s *UnitSelectState) Draw(ctx *GameContext, surface DrawSurface) {
	for c := range s.Reachable {
		surface.DrawRect(c.X, c.Y, 1, 1, false)
	}
}

func (s *UnitSelectState) Transparent() bool { return true }

// CombatPreviewState shows a CombatPrediction and suspends until the
// player confirms or cancels (spec.md §4.2/§4.5), grounded on
// lib/predict.go's prediction surface and lib/core.go's confirm/cancel
// input handling.
type CombatPreviewState struct {
	baseState
	AttackerID, DefenderID UnitId
	AtkWeapon, DefWeapon   *Item
	Distance               int
	Prediction             CombatPrediction
	Confirmed              *bool
}

func (s *CombatPreviewState) Name() string { return "combat_preview" }

func (s *CombatPreviewState) Begin(ctx *GameContext) {
	attacker, err1 := ctx.GetUnit(s.AttackerID)
	defender, err2 := ctx.GetUnit(s.DefenderID)
	if err1 != nil || err2 != nil {
		return
	}
	s.Prediction = ctx.Combat.Predict(attacker, defender, s.AtkWeapon, s.DefWeapon, s.Distance)
}

func (s *CombatPreviewState) Update(ctx *GameContext) Transition {
	if s.Confirmed == nil {
		return Transition{}
	}
	if !*s.Confirmed {
		return Transition{Kind: TransitionBack}
	}
	attacker, err1 := ctx.GetUnit(s.AttackerID)
	defender, err2 := ctx.GetUnit(s.DefenderID)
	if err1 != nil || err2 != nil {
		return Transition{Kind: TransitionBack}
	}
	result := ctx.Combat.Resolve(attacker, defender, s.AtkWeapon, s.DefWeapon, s.Distance)
	applyCombatResult(ctx, result, attacker, defender)

	_ = ctx.Log.Record(ctx, &FlagChange{UnitID: attacker.NID, Field: "has_attacked", OldVal: attacker.Flags.HasAttacked, NewVal: true})

	// spec.md §4.5 `combat`: "if canto and survivor and team=player → move
	// again, else finished=true; pop." Canto is restricted to team=player
	// (spec.md §9 Open Question, decided in SPEC_FULL.md §9).
	if !result.AttackerDied && attacker.Team == "player" && attacker.Flags.HasCanto && attacker.Position != nil {
		movementGrp := NID("")
		if class, err := ctx.DB.GetClass(attacker.ClassID); err == nil {
			movementGrp = class.MovementGroup
		}
		move := &UnitSelectState{UnitID: attacker.NID, MovementGrp: movementGrp}
		return Transition{Kind: TransitionChange, New: []State{move}}
	}

	_ = ctx.Log.Record(ctx, &FlagChange{UnitID: attacker.NID, Field: "finished", OldVal: attacker.Flags.Finished, NewVal: true})
	return Transition{Kind: TransitionBack}
}

func (s *CombatPreviewState) Draw(ctx *GameContext, surface DrawSurface) {
	surface.DrawText("combat preview", 0, 0)
}

func (s *CombatPreviewState) Transparent() bool { return true }

// applyCombatResult records each strike's damage as a DamageChange (so the
// action log can rewind an entire combat one strike at a time) and applies
// any EXP/level-up gained (spec.md §4.2).
func applyCombatResult(ctx *GameContext, result CombatResult, attacker, defender *Unit) {
	for _, strike := range result.Strikes {
		if !strike.Hit || strike.Damage == 0 {
			continue
		}
		target := defender.NID
		if strike.AttackerID == defender.NID {
			target = attacker.NID
		}
		_ = ctx.Log.Record(ctx, &DamageChange{UnitID: target, Amount: strike.Damage})
	}
	for unitID, exp := range result.ExpGained {
		u, err := ctx.GetUnit(unitID)
		if err != nil || !u.Alive() {
			continue
		}
		u.Exp += exp
		for u.Exp >= ctx.DB.Constants.MaxExp+1 {
			u.Exp -= ctx.DB.Constants.MaxExp + 1
			class, err := ctx.DB.GetClass(u.ClassID)
			if err != nil {
				break
			}
			ApplyLevelUp(u, class.Growths, 1.0, ctx.RNG)
		}
	}
	for unitID, wexp := range result.WexpGained {
		u, err := ctx.GetUnit(unitID)
		if err != nil {
			continue
		}
		wt := equippedWeaponType(ctx, u)
		if wt == "" {
			continue
		}
		if u.WexpByType == nil {
			u.WexpByType = map[NID]int{}
		}
		u.WexpByType[wt] += wexp
	}
}

// equippedWeaponType returns the NID of a unit's currently equipped weapon
// item, which stands in for its weapon type (items carry no separate type
// field), used to credit weapon-experience gains from a resolved combat.
func equippedWeaponType(ctx *GameContext, u *Unit) NID {
	w := ctx.EquippedWeapon(u)
	if w == nil {
		return ""
	}
	return NID(w.NID)
}

// MenuOption is one entry in an OverlayState menu.
type MenuOption struct {
	Label  string
	Action func(ctx *GameContext) Transition
}

// OverlayState is a generic transparent menu: item/skill lists, the phase
// menu, the save/load menu, all reuse this one struct rather than one
// bespoke state type per menu (SPEC_FULL §4.5 design decision recorded in
// DESIGN.md/SPEC_FULL.md — generalizes lib/ui.go's per-screen menu
// structs into data instead of code).
type OverlayState struct {
	baseState
	Title    string
	Options  []MenuOption
	Selected int
	picked   *int
}

func (s *OverlayState) Name() string { return "overlay:" + s.Title }

func (s *OverlayState) Transparent() bool { return true }

func (s *OverlayState) Update(ctx *GameContext) Transition {
	if s.picked == nil {
		return Transition{}
	}
	idx := *s.picked
	s.picked = nil
	if idx < 0 || idx >= len(s.Options) {
		return Transition{Kind: TransitionBack}
	}
	return s.Options[idx].Action(ctx)
}

func (s *OverlayState) Draw(ctx *GameContext, surface DrawSurface) {
	surface.DrawText(s.Title, 0, 0)
	for i, opt := range s.Options {
		surface.DrawText(opt.Label, 1, i+1)
	}
}

// Pick selects an option by index, to be consumed on the next Update (a
// host input handler calls this from the InputEvent loop).
func (s *OverlayState) Pick(idx int) { s.picked = &idx }
