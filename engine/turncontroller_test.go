package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnControllerResetsFlagsOnPhaseEnd(t *testing.T) {
	ctx := newTestCtx()
	u := &Unit{NID: "u1", Team: "player", CurrentHP: 10, Stats: Stats{HPMax: 10}}
	u.Flags = UnitFlags{Finished: true, HasMoved: true}
	ctx.Units[u.NID] = u

	ctx.Turn.TeamOrder = []NID{"player", "enemy"}
	ctx.Turn.EndPhase(ctx)

	assert.False(t, u.Flags.Finished)
	assert.False(t, u.Flags.HasMoved)
	assert.Equal(t, NID("enemy"), ctx.Turn.ActiveTeam())
}

func TestTurnControllerTicksStatusOncePerFullRound(t *testing.T) {
	ctx := newTestCtx()
	u := &Unit{NID: "u1", Team: "player", CurrentHP: 20, Stats: Stats{HPMax: 20}}
	u.StatusEffects = []StatusEffect{{NID: "poison", DamagePerTurn: 3, Duration: 2}}
	ctx.Units[u.NID] = u
	ctx.Turn.TeamOrder = []NID{"player", "enemy"}

	ctx.Turn.EndPhase(ctx) // player -> enemy, no wrap yet
	assert.Equal(t, 20, u.CurrentHP)

	ctx.Turn.EndPhase(ctx) // enemy -> player, wraps: status ticks
	assert.Equal(t, 17, u.CurrentHP)
	require.Len(t, u.StatusEffects, 1)
	assert.Equal(t, 1, u.StatusEffects[0].Duration)

	ctx.Turn.EndPhase(ctx)
	ctx.Turn.EndPhase(ctx)
	assert.Equal(t, 14, u.CurrentHP)
	assert.Empty(t, u.StatusEffects)
}

func TestLossEvaluatedBeforeWin(t *testing.T) {
	ctx := newTestCtx()
	player := &Unit{NID: "p1", Team: "player", CurrentHP: 0, Flags: UnitFlags{Dead: true}, Stats: Stats{HPMax: 10}}
	enemy := &Unit{NID: "e1", Team: "enemy", CurrentHP: 0, Flags: UnitFlags{Dead: true}, Stats: Stats{HPMax: 10}}
	ctx.Units[player.NID] = player
	ctx.Units[enemy.NID] = enemy

	ctx.Turn.TeamOrder = []NID{"player", "enemy"}
	ctx.Turn.LossConditions = []LossCondition{AllUnitsOnTeamDead("player")}
	ctx.Turn.WinConditions = []WinCondition{RoutDefeated("enemy")}

	outcome := ctx.Turn.EndPhase(ctx)
	assert.True(t, outcome.Lost)
	assert.False(t, outcome.Won)
}

func TestSeizeAchievedWinCondition(t *testing.T) {
	ctx := newTestCtx()
	ctx.Board.AddRegion(Region{NID: "throne", Kind: RegionSeize, X: 3, Y: 3, W: 1, H: 1})
	pos := Coord{X: 3, Y: 3}
	u := &Unit{NID: "u1", Team: "player", Position: &pos, Stats: Stats{HPMax: 10}, CurrentHP: 10}
	ctx.Units[u.NID] = u

	cond := SeizeAchieved("player")
	assert.True(t, cond(ctx))
}
