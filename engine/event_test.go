package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S5 — event with condition: an event only fires once its guard condition
// holds (speak suspension is covered by TestEventSpeakSuspendsScript).
func TestEventFiresOnlyWhenConditionHolds(t *testing.T) {
	ctx := newTestCtx()
	u := &Unit{NID: "u1", CurrentHP: 10, Stats: Stats{HPMax: 10}}
	ctx.Units[u.NID] = u

	var ran bool
	ei := NewEventInterpreter()
	ei.Register(&EventDef{
		NID:     "ev1",
		Trigger: Trigger{Kind: TriggerTurnStart},
		Conditions: []Condition{
			{Op: "unit_dead", Arg: "u1"},
		},
		Commands: []EventCommand{
			&fnCommand{fn: func(ctx *GameContext, run *eventRun) bool { ran = true; return false }},
		},
	})

	ei.Fire(ctx, TriggerTurnStart, "")
	ei.Update(ctx)
	assert.False(t, ran, "event guarded by unit_dead must not fire while the unit is alive")

	u.Flags.Dead = true
	ei.Fire(ctx, TriggerTurnStart, "")
	ei.Update(ctx)
	assert.True(t, ran)
}

type fnCommand struct {
	fn func(ctx *GameContext, run *eventRun) bool
}

func (c *fnCommand) Execute(ctx *GameContext, run *eventRun) bool { return c.fn(ctx, run) }

func TestEventSpeakSuspendsScript(t *testing.T) {
	ctx := newTestCtx()
	var secondRan bool
	ei := NewEventInterpreter()
	ei.Register(&EventDef{
		NID:     "ev1",
		Trigger: Trigger{Kind: TriggerManual},
		Commands: []EventCommand{
			&SpeakCommand{Text: "hello"},
			&fnCommand{fn: func(ctx *GameContext, run *eventRun) bool { secondRan = true; return false }},
		},
	})
	ei.Fire(ctx, TriggerManual, "")
	require.True(t, ei.Busy())

	ei.Update(ctx)
	assert.False(t, secondRan, "the command after speak must not run in the same Update call")
	assert.True(t, ei.Busy())

	ei.Update(ctx)
	assert.True(t, secondRan)
	assert.False(t, ei.Busy())
}

func TestEventPriorityOrdersMatches(t *testing.T) {
	ctx := newTestCtx()
	var order []string
	ei := NewEventInterpreter()
	ei.Register(&EventDef{NID: "low", Trigger: Trigger{Kind: TriggerManual}, Priority: 1, Commands: []EventCommand{
		&fnCommand{fn: func(ctx *GameContext, run *eventRun) bool { order = append(order, "low"); return false }},
	}})
	ei.Register(&EventDef{NID: "high", Trigger: Trigger{Kind: TriggerManual}, Priority: 10, Commands: []EventCommand{
		&fnCommand{fn: func(ctx *GameContext, run *eventRun) bool { order = append(order, "high"); return false }},
	}})

	ei.Fire(ctx, TriggerManual, "")
	ei.Update(ctx)
	assert.Equal(t, []string{"high", "low"}, order)
}

func TestGameVarConditionGrammar(t *testing.T) {
	ctx := newTestCtx()
	ctx.GameVars["chapter"] = "3"

	assert.True(t, (Condition{Op: "game_var", Arg: "chapter", CmpOp: ">=", CmpValue: "3"}).Evaluate(ctx))
	assert.False(t, (Condition{Op: "game_var", Arg: "chapter", CmpOp: ">", CmpValue: "3"}).Evaluate(ctx))
	assert.True(t, (Condition{Op: "game_var", Arg: "chapter"}).Evaluate(ctx))
	assert.False(t, (Condition{Op: "game_var", Arg: "missing"}).Evaluate(ctx))
}

func TestWinGameCommandSetsLevelVarAndWinCondition(t *testing.T) {
	ctx := newTestCtx()
	cmd := &WinGameCommand{}
	cmd.Execute(ctx, nil)
	assert.True(t, ctx.CheckWinCondition())
	assert.False(t, ctx.CheckLossCondition())
}

func TestOneShotEventFiresOnce(t *testing.T) {
	ctx := newTestCtx()
	count := 0
	ei := NewEventInterpreter()
	ei.Register(&EventDef{
		NID: "once", Trigger: Trigger{Kind: TriggerManual}, OneShot: true,
		Commands: []EventCommand{
			&fnCommand{fn: func(ctx *GameContext, run *eventRun) bool { count++; return false }},
		},
	})
	ei.Fire(ctx, TriggerManual, "")
	ei.Update(ctx)
	ei.Fire(ctx, TriggerManual, "")
	ei.Update(ctx)
	assert.Equal(t, 1, count)
}
