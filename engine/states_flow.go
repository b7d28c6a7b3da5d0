package engine

// TitleState is the bottom-most state before any level is loaded (spec.md
// §4.5 `title`): it waits for a confirm input and then hands off to a
// caller-supplied level loader, replacing itself with the state the loader
// returns.
// Grounded on lib/core.go's title-to-gameplay bootstrap.
type TitleState struct {
	baseState
	LoadLevel func(ctx *GameContext) (State, error)
	Confirmed bool
	err       error
}

func (s *TitleState) Name() string { return "title" }

func (s *TitleState) Update(ctx *GameContext) Transition {
	if !s.Confirmed {
		return Transition{}
	}
	s.Confirmed = false
	if s.LoadLevel == nil {
		return Transition{}
	}
	next, err := s.LoadLevel(ctx)
	if err != nil {
		s.err = err
		ctx.Logger.Error("title level load failed", "err", err)
		return Transition{}
	}
	return Transition{Kind: TransitionChange, New: []State{next}}
}

func (s *TitleState) Draw(ctx *GameContext, surface DrawSurface) {
	surface.DrawText("press START", 0, 0)
}

// MenuState is the contextual per-unit action menu (spec.md §4.5 `menu`):
// Attack/Item/Trade/Rescue/Drop/Visit/Seize/Talk/Wait. Exactly one option
// finishes the unit's turn or pushes a sub-state; BACK restores the unit's
// pre-move position, undoing the `move` state's MoveChange (spec.md §4.5
// menu-state invariant), grounded on lib/ui.go's action-menu option list.
type MenuState struct {
	baseState
	UnitID   UnitId
	Options  []MenuOption
	OrigPos  Coord
	picked   *int
	canceled bool
}

func (s *MenuState) Name() string { return "menu" }

func (s *MenuState) Transparent() bool { return true }

func (s *MenuState) Update(ctx *GameContext) Transition {
	if s.canceled {
		s.canceled = false
		u, err := ctx.GetUnit(s.UnitID)
		if err == nil && u.Position != nil {
			_ = ctx.Log.Record(ctx, &MoveChange{UnitID: s.UnitID, From: *u.Position, To: s.OrigPos})
		}
		return Transition{Kind: TransitionBack}
	}
	if s.picked == nil {
		return Transition{}
	}
	idx := *s.picked
	s.picked = nil
	if idx < 0 || idx >= len(s.Options) {
		return Transition{}
	}
	return s.Options[idx].Action(ctx)
}

// Pick selects a menu option, Cancel restores the pre-move position — both
// consumed on the next Update (a host input handler drives these from the
// abstract InputEvent stream).
func (s *MenuState) Pick(idx int) { s.picked = &idx }
func (s *MenuState) Cancel()      { s.canceled = true }

func (s *MenuState) Draw(ctx *GameContext, surface DrawSurface) {
	for i, opt := range s.Options {
		surface.DrawText(opt.Label, 0, i)
	}
}

// FinishUnitTurn marks a unit finished and records the flag flip on the
// action log so the turnwheel can rewind it, shared by every menu action
// that ends a unit's turn (Wait/Attack/Visit/Seize/Talk).
func FinishUnitTurn(ctx *GameContext, unitID UnitId) {
	u, err := ctx.GetUnit(unitID)
	if err != nil {
		return
	}
	_ = ctx.Log.Record(ctx, &FlagChange{UnitID: unitID, Field: "finished", OldVal: u.Flags.Finished, NewVal: true})
}

// TargetingState cycles enemies within the attacker's weapon range and
// confirms into a CombatPreviewState (spec.md §4.5 `targeting`), grounded
// on lib/ui.go's target-cycle cursor.
type TargetingState struct {
	baseState
	AttackerID UnitId
	Weapon     *Item
	Targets    []UnitId // enemies currently in range, in deterministic order
	Cursor     int

	confirmed bool
	canceled  bool
}

func (s *TargetingState) Name() string { return "targeting" }

func (s *TargetingState) Transparent() bool { return true }

func (s *TargetingState) Cycle(delta int) {
	if len(s.Targets) == 0 {
		return
	}
	s.Cursor = ((s.Cursor+delta)%len(s.Targets) + len(s.Targets)) % len(s.Targets)
}

func (s *TargetingState) Confirm() { s.confirmed = true }
func (s *TargetingState) Cancel()  { s.canceled = true }

func (s *TargetingState) Update(ctx *GameContext) Transition {
	if s.canceled {
		s.canceled = false
		return Transition{Kind: TransitionBack}
	}
	if !s.confirmed || len(s.Targets) == 0 {
		return Transition{}
	}
	s.confirmed = false
	attacker, err1 := ctx.GetUnit(s.AttackerID)
	defender, err2 := ctx.GetUnit(s.Targets[s.Cursor])
	if err1 != nil || err2 != nil || attacker.Position == nil || defender.Position == nil {
		return Transition{Kind: TransitionBack}
	}
	distance := ManhattanDistance(*attacker.Position, *defender.Position)
	defWeapon := ctx.EquippedWeapon(defender)
	preview := &CombatPreviewState{
		AttackerID: s.AttackerID, DefenderID: defender.NID,
		AtkWeapon: s.Weapon, DefWeapon: defWeapon, Distance: distance,
	}
	return Transition{Kind: TransitionPush, New: []State{preview}}
}

func (s *TargetingState) Draw(ctx *GameContext, surface DrawSurface) {
	for i, t := range s.Targets {
		marker := " "
		if i == s.Cursor {
			marker = ">"
		}
		surface.DrawText(marker+string(t), 0, i)
	}
}

// AIState drives one enemy team's full phase: every living, unfinished unit
// on the team gets one decision from the AIAdvisor, executed as an
// immediate move-then-optional-attack (spec.md §4.5 `ai`); on the next
// Update it returns NextTransition's result, or pops itself when
// NextTransition is nil. Grounded on
// lib/ai/basic_advisor.go's per-unit decision loop over a team.
type AIState struct {
	baseState
	Advisor        *AIAdvisor
	MovementGrp    NID
	NextTransition func(ctx *GameContext) Transition
	done           bool
}

func (s *AIState) Name() string { return "ai" }

func (s *AIState) Update(ctx *GameContext) Transition {
	if s.done {
		if s.NextTransition != nil {
			return s.NextTransition(ctx)
		}
		return Transition{Kind: TransitionBack}
	}
	decisions := s.Advisor.DecisionsForPhase(ctx)
	for _, d := range decisions {
		s.execute(ctx, d)
	}
	s.done = true
	return Transition{}
}

func (s *AIState) execute(ctx *GameContext, d AIDecision) {
	u, err := ctx.GetUnit(d.UnitID)
	if err != nil || u.Position == nil {
		return
	}
	if d.MoveTo != *u.Position {
		_ = ctx.Log.Record(ctx, &MoveChange{UnitID: d.UnitID, From: *u.Position, To: d.MoveTo})
	}
	if d.TargetID != "" {
		defender, err := ctx.GetUnit(d.TargetID)
		if err == nil && defender.Position != nil {
			atkWeapon := ctx.EquippedWeapon(u)
			defWeapon := ctx.EquippedWeapon(defender)
			distance := ManhattanDistance(d.MoveTo, *defender.Position)
			result := ctx.Combat.Resolve(u, defender, atkWeapon, defWeapon, distance)
			applyCombatResult(ctx, result, u, defender)
		}
	}
	FinishUnitTurn(ctx, d.UnitID)
}

func (s *AIState) Draw(ctx *GameContext, surface DrawSurface) {}

// TurnChangeState advances the Turn/Phase Controller, evaluates win/loss,
// clears the stack, and pushes `free` or `ai` plus a `phase_change` banner
// on top (spec.md §4.5 `turn_change`).
type TurnChangeState struct {
	baseState
	BuildFree func(ctx *GameContext, team NID) State
	BuildAI   func(ctx *GameContext, team NID) State
	BuildBanner func(ctx *GameContext, team NID, outcome TurnOutcome) State
}

func (s *TurnChangeState) Name() string { return "turn_change" }

func (s *TurnChangeState) Update(ctx *GameContext) Transition {
	outcome := ctx.Turn.EndPhase(ctx)
	team := ctx.Turn.ActiveTeam()
	ctx.ActiveTeam = team
	ctx.TurnCount = ctx.Turn.TurnNumber
	ctx.Events.Fire(ctx, TriggerTurnStart, team)

	var base State
	if isAITeam(team) {
		if s.BuildAI != nil {
			base = s.BuildAI(ctx, team)
		}
	} else if s.BuildFree != nil {
		base = s.BuildFree(ctx, team)
	}
	next := []State{}
	if base != nil {
		next = append(next, base)
	}
	if s.BuildBanner != nil {
		next = append(next, s.BuildBanner(ctx, team, outcome))
	}
	return Transition{Kind: TransitionClear, New: next}
}

func (s *TurnChangeState) Draw(ctx *GameContext, surface DrawSurface) {}

// isAITeam is the default team-kind predicate: every team except "player"
// is AI-controlled. A caller wiring a richer faction system overrides this
// by not using TurnChangeState's defaults.
func isAITeam(team NID) bool { return team != "" && team != "player" }

// PhaseChangeState is a transparent banner shown over the incoming team's
// base state; it ticks for a fixed number of frames before popping
// (spec.md §4.5 `phase_change`). It does not touch unit flags:
// TurnController.EndPhase resets the flags of the team whose phase ended.
type PhaseChangeState struct {
	baseState
	Team         NID
	FramesTotal  int
	framesShown  int
}

func (s *PhaseChangeState) Name() string { return "phase_change" }

func (s *PhaseChangeState) Transparent() bool { return true }

func (s *PhaseChangeState) Update(ctx *GameContext) Transition {
	s.framesShown++
	if s.framesShown >= s.FramesTotal {
		return Transition{Kind: TransitionBack}
	}
	return Transition{}
}

func (s *PhaseChangeState) Draw(ctx *GameContext, surface DrawSurface) {
	surface.DrawText(string(s.Team)+" phase", 0, 0)
}

// MovementState animates a unit sliding along a precomputed path one tile
// per FramesPerTile frames, then applies the final MoveChange and pops
// (spec.md §4.5 `movement`), grounded on lib/movement.go's per-frame
// interpolated slide.
type MovementState struct {
	baseState
	UnitID       UnitId
	Path         []Coord
	FramesPerTile int
	Follow       State // optional state pushed once the slide completes

	tileIndex   int
	frameInTile int
}

func (s *MovementState) Name() string { return "movement" }

func (s *MovementState) Transparent() bool { return true }

func (s *MovementState) Update(ctx *GameContext) Transition {
	if len(s.Path) < 2 {
		return s.finish(ctx)
	}
	if s.FramesPerTile <= 0 {
		s.FramesPerTile = 1
	}
	s.frameInTile++
	if s.frameInTile < s.FramesPerTile {
		return Transition{}
	}
	s.frameInTile = 0
	s.tileIndex++
	if s.tileIndex >= len(s.Path)-1 {
		return s.finish(ctx)
	}
	return Transition{}
}

func (s *MovementState) finish(ctx *GameContext) Transition {
	if len(s.Path) >= 2 {
		from, to := s.Path[0], s.Path[len(s.Path)-1]
		_ = ctx.Log.Record(ctx, &MoveChange{UnitID: s.UnitID, From: from, To: to})
	}
	if s.Follow != nil {
		return Transition{Kind: TransitionChange, New: []State{s.Follow}}
	}
	return Transition{Kind: TransitionBack}
}

func (s *MovementState) currentCoord() Coord {
	if s.tileIndex >= len(s.Path) {
		return s.Path[len(s.Path)-1]
	}
	return s.Path[s.tileIndex]
}

func (s *MovementState) Draw(ctx *GameContext, surface DrawSurface) {
	c := s.currentCoord()
	surface.DrawSprite(string(s.UnitID), c.X, c.Y)
}

// EventState pumps the Event Interpreter one command group at a time and
// pops once every running script has drained (spec.md §4.5 `event`): it is
// the state a `trigger` call pushes, and the one place in the stack that
// blocks `free`/`menu` input while a cutscene plays.
type EventState struct {
	baseState
}

func (s *EventState) Name() string { return "event" }

func (s *EventState) Transparent() bool { return true }

func (s *EventState) Update(ctx *GameContext) Transition {
	ctx.Events.Update(ctx)
	if !ctx.Events.Busy() {
		return Transition{Kind: TransitionBack}
	}
	return Transition{}
}

func (s *EventState) Draw(ctx *GameContext, surface DrawSurface) {}

// ResolveWait clears the suspension on the event interpreter's active
// script, mirroring spec.md §4.6's `resolve_wait()`: invoked by the host
// when a dialog box is dismissed, a wait timer elapses, or a transition
// animation completes. The interpreter itself already resumes a waiting
// script the next time Update is called once waitFrames reaches zero (a
// speak suspends for exactly one Update); ResolveWait only clears any
// remaining wait frames so the next Update resumes every running script.
func (ei *EventInterpreter) ResolveWait() {
	for _, run := range ei.running {
		run.waitFrames = 0
	}
}
