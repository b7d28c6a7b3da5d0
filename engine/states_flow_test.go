package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlowCtx() *GameContext {
	ctx := newTestCtx()
	ctx.DB.Constants = ProjectConstants{FollowUpThreshold: 4, ExpPerHit: 1, ExpPerKillBase: 20, MaxExp: 99}
	return ctx
}

func TestTitleStateWaitsForConfirmThenLoads(t *testing.T) {
	ctx := newFlowCtx()
	loaded := false
	title := &TitleState{LoadLevel: func(ctx *GameContext) (State, error) {
		loaded = true
		return &FreeState{Team: "player"}, nil
	}}
	assert.Equal(t, Transition{}, title.Update(ctx))
	title.Confirmed = true
	tr := title.Update(ctx)
	assert.True(t, loaded)
	assert.Equal(t, TransitionChange, tr.Kind)
	require.Len(t, tr.New, 1)
	assert.Equal(t, "free", tr.New[0].Name())
}

func TestMenuStateCancelRestoresPosition(t *testing.T) {
	ctx := newFlowCtx()
	u := &Unit{NID: "u1", Team: "player", Stats: Stats{HPMax: 20}, CurrentHP: 20}
	pos := Coord{X: 2, Y: 2}
	u.Position = &pos
	ctx.Units[u.NID] = u
	require.NoError(t, ctx.Board.SetUnit(pos, u.NID))

	menu := &MenuState{UnitID: u.NID, OrigPos: Coord{X: 0, Y: 0}}
	menu.Cancel()
	tr := menu.Update(ctx)
	assert.Equal(t, TransitionBack, tr.Kind)
	assert.Equal(t, Coord{X: 0, Y: 0}, *u.Position)
}

func TestMenuStatePickRunsAction(t *testing.T) {
	ctx := newFlowCtx()
	ran := false
	menu := &MenuState{Options: []MenuOption{
		{Label: "wait", Action: func(ctx *GameContext) Transition { ran = true; return Transition{Kind: TransitionBack} }},
	}}
	menu.Pick(0)
	tr := menu.Update(ctx)
	assert.True(t, ran)
	assert.Equal(t, TransitionBack, tr.Kind)
}

func TestTargetingStateConfirmPushesCombatPreview(t *testing.T) {
	ctx := newFlowCtx()
	attacker, weapon := swordUnit("attacker", 20)
	defender, _ := swordUnit("defender", 20)
	ap, dp := Coord{X: 0, Y: 0}, Coord{X: 1, Y: 0}
	attacker.Position, defender.Position = &ap, &dp
	ctx.Units[attacker.NID] = attacker
	ctx.Units[defender.NID] = defender

	targeting := &TargetingState{AttackerID: attacker.NID, Weapon: weapon, Targets: []UnitId{defender.NID}}
	targeting.Confirm()
	tr := targeting.Update(ctx)
	assert.Equal(t, TransitionPush, tr.Kind)
	require.Len(t, tr.New, 1)
	preview, ok := tr.New[0].(*CombatPreviewState)
	require.True(t, ok)
	assert.Equal(t, defender.NID, preview.DefenderID)
	assert.Equal(t, 1, preview.Distance)
}

// spec.md §4.5 `combat`: a surviving player-team attacker with canto set
// re-enters unit selection instead of finishing its turn.
func TestCombatPreviewStateCantoReentersMove(t *testing.T) {
	ctx := newFlowCtx()
	ctx.Board = NewBoard(5, 1, "plain")
	attacker, atkWeapon := swordUnit("attacker", 20)
	attacker.Team = "player"
	attacker.Flags.HasCanto = true
	attacker.ClassID = "swordfighter"
	defender, _ := swordUnit("defender", 20)
	defender.Stats.Def = 0
	ap, dp := Coord{X: 0, Y: 0}, Coord{X: 1, Y: 0}
	attacker.Position, defender.Position = &ap, &dp
	ctx.Units[attacker.NID] = attacker
	ctx.Units[defender.NID] = defender
	ctx.DB.Classes["swordfighter"] = &ClassDef{MovementGroup: "foot"}
	ctx.Combat = NewCombatEngine(ctx.DB, HitModeFixed, rand.New(rand.NewSource(9)))

	confirmed := true
	preview := &CombatPreviewState{
		AttackerID: attacker.NID, DefenderID: defender.NID,
		AtkWeapon: atkWeapon, Distance: 1, Confirmed: &confirmed,
	}
	tr := preview.Update(ctx)

	assert.True(t, attacker.Flags.HasAttacked)
	assert.False(t, attacker.Flags.Finished)
	require.Equal(t, TransitionChange, tr.Kind)
	require.Len(t, tr.New, 1)
	move, ok := tr.New[0].(*UnitSelectState)
	require.True(t, ok)
	assert.Equal(t, attacker.NID, move.UnitID)
	assert.Equal(t, NID("foot"), move.MovementGrp)
}

// Without canto (or for a non-player team), combat finishes the attacker's
// turn and pops.
func TestCombatPreviewStateNoCantoFinishesTurn(t *testing.T) {
	ctx := newFlowCtx()
	ctx.Board = NewBoard(5, 1, "plain")
	attacker, atkWeapon := swordUnit("attacker", 20)
	attacker.Team = "player"
	defender, _ := swordUnit("defender", 20)
	defender.Stats.Def = 0
	ap, dp := Coord{X: 0, Y: 0}, Coord{X: 1, Y: 0}
	attacker.Position, defender.Position = &ap, &dp
	ctx.Units[attacker.NID] = attacker
	ctx.Units[defender.NID] = defender
	ctx.Combat = NewCombatEngine(ctx.DB, HitModeFixed, rand.New(rand.NewSource(9)))

	confirmed := true
	preview := &CombatPreviewState{
		AttackerID: attacker.NID, DefenderID: defender.NID,
		AtkWeapon: atkWeapon, Distance: 1, Confirmed: &confirmed,
	}
	tr := preview.Update(ctx)

	assert.True(t, attacker.Flags.HasAttacked)
	assert.True(t, attacker.Flags.Finished)
	assert.Equal(t, TransitionBack, tr.Kind)
}

func TestTargetingStateCycleWraps(t *testing.T) {
	targeting := &TargetingState{Targets: []UnitId{"a", "b", "c"}}
	targeting.Cycle(-1)
	assert.Equal(t, 2, targeting.Cursor)
	targeting.Cycle(1)
	assert.Equal(t, 0, targeting.Cursor)
}

func TestAIStateMovesAndAttacksThenFinishesTurn(t *testing.T) {
	ctx := newFlowCtx()
	ctx.Board = NewBoard(5, 1, "plain")
	attacker, atkWeapon := swordUnit("enemy1", 20)
	attacker.Team = "enemy"
	defender, _ := swordUnit("player1", 20)
	defender.Team = "player"
	defender.Stats.Def = 0
	ap, dp := Coord{X: 0, Y: 0}, Coord{X: 1, Y: 0}
	attacker.Position, defender.Position = &ap, &dp
	ctx.Units[attacker.NID] = attacker
	ctx.Units[defender.NID] = defender
	ctx.Items[atkWeapon.NID] = atkWeapon
	defender.Items = nil
	require.NoError(t, ctx.Board.SetUnit(ap, attacker.NID))
	require.NoError(t, ctx.Board.SetUnit(dp, defender.NID))
	ctx.DB.Classes["swordfighter"] = &ClassDef{MovementGroup: "foot"}
	attacker.ClassID = "swordfighter"
	ctx.DB.MovementCost = map[NID]map[NID]int{"foot": {"plain": 1}}
	ctx.Combat = NewCombatEngine(ctx.DB, HitModeFixed, rand.New(rand.NewSource(7)))

	advisor := NewAIAdvisor("enemy", "foot", DifficultyNormal)
	ai := &AIState{Advisor: advisor}
	tr := ai.Update(ctx)
	assert.Equal(t, Transition{}, tr)
	assert.True(t, attacker.Flags.Finished)

	tr = ai.Update(ctx)
	assert.Equal(t, TransitionBack, tr.Kind)
}

func TestTurnChangeStateAdvancesTeamAndFiresTrigger(t *testing.T) {
	ctx := newFlowCtx()
	ctx.Turn.TeamOrder = []NID{"player", "enemy"}
	var fired []string
	ctx.Events.Register(&EventDef{
		NID:     "ts",
		Trigger: Trigger{Kind: TriggerTurnStart},
		Commands: []EventCommand{
			&fnCommand{fn: func(ctx *GameContext, run *eventRun) bool { fired = append(fired, string(ctx.ActiveTeam)); return false }},
		},
	})

	tc := &TurnChangeState{}
	tr := tc.Update(ctx)
	assert.Equal(t, TransitionClear, tr.Kind)
	assert.Equal(t, NID("enemy"), ctx.ActiveTeam)

	ctx.Events.Update(ctx)
	assert.Equal(t, []string{"enemy"}, fired)
}

func TestPhaseChangeStatePopsAfterFrames(t *testing.T) {
	ctx := newFlowCtx()
	banner := &PhaseChangeState{Team: "player", FramesTotal: 2}
	assert.Equal(t, Transition{}, banner.Update(ctx))
	assert.Equal(t, TransitionBack, banner.Update(ctx).Kind)
}

func TestMovementStateSlidesThenRecordsMove(t *testing.T) {
	ctx := newFlowCtx()
	u := &Unit{NID: "u1", Team: "player", Stats: Stats{HPMax: 20}, CurrentHP: 20}
	from := Coord{X: 0, Y: 0}
	u.Position = &from
	ctx.Units[u.NID] = u
	require.NoError(t, ctx.Board.SetUnit(from, u.NID))

	mv := &MovementState{UnitID: u.NID, Path: []Coord{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}, FramesPerTile: 1}
	assert.Equal(t, Transition{}, mv.Update(ctx))
	tr := mv.Update(ctx)
	assert.Equal(t, TransitionBack, tr.Kind)
	assert.Equal(t, Coord{X: 2, Y: 0}, *u.Position)
}

func TestEventStatePopsOnceScriptDrains(t *testing.T) {
	ctx := newFlowCtx()
	ctx.Events.Register(&EventDef{
		NID: "ev", Trigger: Trigger{Kind: TriggerManual},
		Commands: []EventCommand{
			&SpeakCommand{Text: "hi"},
			&fnCommand{fn: func(ctx *GameContext, run *eventRun) bool { return false }},
		},
	})
	ctx.Events.Fire(ctx, TriggerManual, "")

	es := &EventState{}
	assert.Equal(t, Transition{}, es.Update(ctx), "speak suspends the script for one Update")
	tr := es.Update(ctx)
	assert.Equal(t, TransitionBack, tr.Kind)
}

func TestFinishUnitTurnSetsFlagAndIsRewindable(t *testing.T) {
	ctx := newFlowCtx()
	u := &Unit{NID: "u1", Team: "player", Stats: Stats{HPMax: 20}, CurrentHP: 20}
	ctx.Units[u.NID] = u

	FinishUnitTurn(ctx, u.NID)
	assert.True(t, u.Flags.Finished)

	ok, err := ctx.Log.Back(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, u.Flags.Finished)
}

func TestNamedOverlayConstructorsBuildUsableMenus(t *testing.T) {
	ctx := newFlowCtx()

	info := NewInfoMenuState("u1")
	require.Len(t, info.Options, 1)
	assert.Equal(t, TransitionBack, info.Options[0].Action(ctx).Kind)

	log := ctx.Log
	wheel := NewTurnwheelState(log)
	require.Len(t, wheel.Options, 3)

	victoryRan := false
	victory := NewVictoryState(func(ctx *GameContext) Transition { victoryRan = true; return Transition{} })
	victory.Options[0].Action(ctx)
	assert.True(t, victoryRan)

	settings := NewSettingsState(ctx, []string{"autoend_turn"})
	require.Len(t, settings.Options, 2)
	settings.Options[0].Action(ctx)
	assert.Equal(t, "true", ctx.GameVars["autoend_turn"])

	assert.Equal(t, "minimap", NewMinimapState().Title)
	assert.Equal(t, "option_menu", NewOptionMenuState(nil).Title)
}
