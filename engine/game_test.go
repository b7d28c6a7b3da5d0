package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLevelAndDB() (*Database, *Level, *TilemapDef) {
	db := NewDatabase()
	db.Classes["lord"] = &ClassDef{NID: "lord", MovementGroup: "foot", Base: Stats{HPMax: 20, Str: 8, Skl: 8, Spd: 8, Lck: 5, Def: 4, Res: 2, Con: 9, Mov: 5}}
	db.Classes["soldier"] = &ClassDef{NID: "soldier", MovementGroup: "foot", Base: Stats{HPMax: 22, Str: 7, Skl: 6, Spd: 6, Lck: 4, Def: 6, Res: 1, Con: 11, Mov: 4}}
	db.Units["marth"] = &UnitPrefab{NID: "marth", Name: "Marth", ClassID: "lord", Level: 1}
	db.Units["grunt"] = &UnitPrefab{NID: "grunt", Name: "Grunt", ClassID: "soldier", Level: 1}
	db.MovementCost["foot"] = map[NID]int{"plain": 1}
	db.Constants = defaultConstants()

	tilemap := &TilemapDef{NID: "map1", Width: 6, Height: 6}
	for i := 0; i < 36; i++ {
		tilemap.Grid = append(tilemap.Grid, "plain")
	}

	level := &Level{
		NID: "ch1", TilemapID: "map1", PartyID: "main",
		UnitsSpec: []UnitSpec{
			{UnitNID: "marth", Team: "player", Coord: Coord{X: 0, Y: 0}},
			{UnitNID: "grunt", Team: "enemy", Coord: Coord{X: 5, Y: 5}},
		},
	}
	return db, level, tilemap
}

func TestNewGameSpawnsUnitsOnBoard(t *testing.T) {
	db, level, tilemap := sampleLevelAndDB()
	g, err := NewGame(db, level, tilemap, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	players := g.Ctx.TeamUnits("player")
	require.Len(t, players, 1)
	assert.Equal(t, "Marth", players[0].Name)
	assert.Equal(t, UnitId(players[0].NID), g.Ctx.Board.GetUnit(Coord{X: 0, Y: 0}))

	_, err = g.Ctx.GetParty("main")
	require.NoError(t, err)
}

func TestEndPhaseFinalizesLogAndAdvancesTurn(t *testing.T) {
	db, level, tilemap := sampleLevelAndDB()
	g, err := NewGame(db, level, tilemap, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	g.Ctx.Turn.TeamOrder = []NID{"player", "enemy"}

	players := g.Ctx.TeamUnits("player")
	require.NoError(t, g.Ctx.Log.Record(g.Ctx, &MoveChange{UnitID: players[0].NID, From: Coord{X: 0, Y: 0}, To: Coord{X: 1, Y: 0}}))
	assert.True(t, g.Ctx.Log.CanRewind())

	g.EndPhase()
	assert.False(t, g.Ctx.Log.CanRewind(), "ending a phase finalizes the log so earlier moves can no longer be rewound")
	assert.Equal(t, NID("enemy"), g.Ctx.Turn.ActiveTeam())
}
