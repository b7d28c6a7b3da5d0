package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardMoveUnitInvariant(t *testing.T) {
	b := NewBoard(5, 5, "plain")
	require.NoError(t, b.SetUnit(Coord{X: 1, Y: 1}, "u1"))
	require.NoError(t, b.MoveUnit("u1", Coord{X: 1, Y: 1}, Coord{X: 2, Y: 1}))

	assert.Equal(t, UnitId(""), b.GetUnit(Coord{X: 1, Y: 1}))
	assert.Equal(t, UnitId("u1"), b.GetUnit(Coord{X: 2, Y: 1}))
}

func TestBoardSetUnitRejectsOccupiedTile(t *testing.T) {
	b := NewBoard(3, 3, "plain")
	require.NoError(t, b.SetUnit(Coord{X: 0, Y: 0}, "u1"))

	err := b.SetUnit(Coord{X: 0, Y: 0}, "u2")
	require.Error(t, err)

	var ee *EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, KindValidation, ee.Kind)
}

func TestBoardSetUnitSameOccupantIsNoop(t *testing.T) {
	b := NewBoard(3, 3, "plain")
	require.NoError(t, b.SetUnit(Coord{X: 0, Y: 0}, "u1"))
	require.NoError(t, b.SetUnit(Coord{X: 0, Y: 0}, "u1"))
}

func TestBoardOutOfBoundsRejected(t *testing.T) {
	b := NewBoard(2, 2, "plain")
	err := b.SetTerrain(Coord{X: 5, Y: 5}, "forest")
	require.Error(t, err)
}

func TestRegionContains(t *testing.T) {
	r := Region{X: 2, Y: 2, W: 3, H: 2}
	assert.True(t, r.Contains(Coord{X: 2, Y: 2}))
	assert.True(t, r.Contains(Coord{X: 4, Y: 3}))
	assert.False(t, r.Contains(Coord{X: 5, Y: 2}))
	assert.False(t, r.Contains(Coord{X: 2, Y: 4}))
}

func TestFogVisibleDefaultsTrueWithoutMask(t *testing.T) {
	b := NewBoard(2, 2, "plain")
	assert.True(t, b.FogVisible("team_a", Coord{X: 0, Y: 0}))

	b.SetFogVisible("team_a", Coord{X: 0, Y: 0}, false)
	assert.False(t, b.FogVisible("team_a", Coord{X: 0, Y: 0}))
	assert.True(t, b.FogVisible("team_b", Coord{X: 0, Y: 0}))
}
