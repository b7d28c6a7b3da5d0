package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCtx() *GameContext {
	db := testDatabase()
	ctx := NewGameContext(db, nil, nil)
	ctx.Board = NewBoard(5, 5, "plain")
	return ctx
}

// Turnwheel: move then back rewinds the board and the unit's recorded
// position exactly.
func TestActionLogBackUndoesMove(t *testing.T) {
	ctx := newTestCtx()
	u := &Unit{NID: "u1", Team: "player", Stats: Stats{HPMax: 20}, CurrentHP: 20}
	pos := Coord{X: 0, Y: 0}
	u.Position = &pos
	ctx.Units[u.NID] = u
	require.NoError(t, ctx.Board.SetUnit(pos, u.NID))

	require.NoError(t, ctx.Log.Record(ctx, &MoveChange{UnitID: u.NID, From: Coord{X: 0, Y: 0}, To: Coord{X: 2, Y: 0}}))
	assert.Equal(t, Coord{X: 2, Y: 0}, *u.Position)

	ok, err := ctx.Log.Back(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Coord{X: 0, Y: 0}, *u.Position)
	assert.Equal(t, UnitId("u1"), ctx.Board.GetUnit(Coord{X: 0, Y: 0}))
	assert.Equal(t, UnitId(""), ctx.Board.GetUnit(Coord{X: 2, Y: 0}))
}

func TestActionLogForwardRedoesMove(t *testing.T) {
	ctx := newTestCtx()
	u := &Unit{NID: "u1", Team: "player", Stats: Stats{HPMax: 20}, CurrentHP: 20}
	pos := Coord{X: 0, Y: 0}
	u.Position = &pos
	ctx.Units[u.NID] = u
	require.NoError(t, ctx.Board.SetUnit(pos, u.NID))

	require.NoError(t, ctx.Log.Record(ctx, &MoveChange{UnitID: u.NID, From: Coord{X: 0, Y: 0}, To: Coord{X: 1, Y: 0}}))
	ok, err := ctx.Log.Back(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = ctx.Log.Forward(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Coord{X: 1, Y: 0}, *u.Position)
}

func TestActionLogFinalizeBlocksRewind(t *testing.T) {
	ctx := newTestCtx()
	u := &Unit{NID: "u1", CurrentHP: 20, Stats: Stats{HPMax: 20}}
	ctx.Units[u.NID] = u

	require.NoError(t, ctx.Log.Record(ctx, &DamageChange{UnitID: u.NID, Amount: 5}))
	ctx.Log.Finalize()

	assert.False(t, ctx.Log.CanRewind())
	ok, err := ctx.Log.Back(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 15, u.CurrentHP)
}

// Finalize must drop any "future" entries left ahead of the cursor by an
// earlier Back, not just mark the committed ones permanent — otherwise
// Forward can still redo into history Finalize was supposed to discard.
func TestActionLogFinalizeDropsFutureEntries(t *testing.T) {
	ctx := newTestCtx()
	u := &Unit{NID: "u1", CurrentHP: 20, Stats: Stats{HPMax: 20}}
	ctx.Units[u.NID] = u

	require.NoError(t, ctx.Log.Record(ctx, &DamageChange{UnitID: u.NID, Amount: 5}))
	ok, err := ctx.Log.Back(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 20, u.CurrentHP)
	assert.Equal(t, 1, ctx.Log.Len())

	ctx.Log.Finalize()
	assert.Equal(t, 0, ctx.Log.Len())

	ok, err = ctx.Log.Forward(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 20, u.CurrentHP)
}

func TestActionLogNewEntryAfterRewindDiscardsFuture(t *testing.T) {
	ctx := newTestCtx()
	u := &Unit{NID: "u1", CurrentHP: 20, Stats: Stats{HPMax: 20}}
	ctx.Units[u.NID] = u

	require.NoError(t, ctx.Log.Record(ctx, &DamageChange{UnitID: u.NID, Amount: 5}))
	ok, err := ctx.Log.Back(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, ctx.Log.Len())

	require.NoError(t, ctx.Log.Record(ctx, &DamageChange{UnitID: u.NID, Amount: 3}))
	assert.Equal(t, 1, ctx.Log.Len())
	assert.Equal(t, 17, u.CurrentHP)

	ok, err = ctx.Log.Forward(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestActionLogLocksOnFirstRewind(t *testing.T) {
	ctx := newTestCtx()
	u := &Unit{NID: "u1", CurrentHP: 20, Stats: Stats{HPMax: 20}}
	ctx.Units[u.NID] = u

	assert.False(t, ctx.Log.CanUse())
	require.NoError(t, ctx.Log.Record(ctx, &DamageChange{UnitID: u.NID, Amount: 5}))
	assert.False(t, ctx.Log.Locked)

	ok, err := ctx.Log.Back(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, ctx.Log.Locked)
	assert.True(t, ctx.Log.CanUse())

	ctx.Log.Finalize()
	assert.False(t, ctx.Log.Locked)
}

func TestActionLogStopRecordingSkipsHistory(t *testing.T) {
	ctx := newTestCtx()
	u := &Unit{NID: "u1", CurrentHP: 20, Stats: Stats{HPMax: 20}}
	ctx.Units[u.NID] = u

	ctx.Log.StopRecording()
	require.NoError(t, ctx.Log.Record(ctx, &DamageChange{UnitID: u.NID, Amount: 5}))
	assert.Equal(t, 15, u.CurrentHP)
	assert.Equal(t, 0, ctx.Log.Len())

	ctx.Log.StartRecording()
	require.NoError(t, ctx.Log.Record(ctx, &DamageChange{UnitID: u.NID, Amount: 5}))
	assert.Equal(t, 1, ctx.Log.Len())
}

func TestDamageChangeClampsAndMarksDead(t *testing.T) {
	ctx := newTestCtx()
	u := &Unit{NID: "u1", CurrentHP: 5, Stats: Stats{HPMax: 20}}
	ctx.Units[u.NID] = u

	require.NoError(t, ctx.Log.Record(ctx, &DamageChange{UnitID: u.NID, Amount: 20}))
	assert.Equal(t, 0, u.CurrentHP)
	assert.True(t, u.Flags.Dead)

	ok, err := ctx.Log.Back(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, u.CurrentHP)
	assert.False(t, u.Flags.Dead)
}
