package engine

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func buildSampleContext(t *testing.T) *GameContext {
	db := testDatabase()
	db.Classes["lord"] = &ClassDef{NID: "lord", Base: Stats{HPMax: 20, Str: 8, Skl: 8, Spd: 8, Lck: 5, Def: 4, Res: 2, Con: 9, Mov: 5}}

	ctx := NewGameContext(db, rand.New(rand.NewSource(42)), nil)
	ctx.Board = NewBoard(6, 6, "plain")
	ctx.Board.AddRegion(Region{NID: "r1", Kind: RegionSeize, X: 5, Y: 5, W: 1, H: 1})

	pos := Coord{X: 1, Y: 1}
	unit := &Unit{
		NID: "hero", Team: "player", ClassID: "lord", Level: 3, Exp: 42,
		Stats:     Stats{HPMax: 20, Str: 8, Skl: 8, Spd: 8, Lck: 5, Def: 4, Res: 2, Con: 9, Mov: 5},
		CurrentHP: 17, Position: &pos, Items: []ItemId{"iron_sword"},
	}
	ctx.Units[unit.NID] = unit
	require.NoError(t, ctx.Board.SetUnit(pos, unit.NID))

	ctx.Items["iron_sword"] = &Item{NID: "iron_sword", Uses: 12, MaxUses: 40, Comp: Component{Weapon: true, Damage: 5, Hit: 90, MinRange: 1, MaxRange: 1}}
	ctx.Parties["main"] = &Party{NID: "main", Name: "Main Force", LeaderID: "hero", Money: 500}

	ctx.ActiveTeam = "player"
	ctx.TurnCount = 4
	ctx.Turn.TeamOrder = []NID{"player", "enemy"}
	ctx.Turn.TurnNumber = 4
	return ctx
}

// S6 — save round-trip: a restored context reproduces every field of the
// original, including board occupancy and region placement.
func TestSaveRoundTrip(t *testing.T) {
	ctx := buildSampleContext(t)
	savedAt := timestamppb.New(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	handler := NewMemorySaveHandler()
	require.NoError(t, SaveGame(ctx, handler, "slot1", savedAt))

	restored, err := LoadGame(ctx.DB, handler, "slot1")
	require.NoError(t, err)

	assert.Equal(t, ctx.Board.Width, restored.Board.Width)
	assert.Equal(t, ctx.Board.Height, restored.Board.Height)
	assert.Equal(t, NID("player"), restored.ActiveTeam)
	assert.Equal(t, 4, restored.TurnCount)
	assert.Equal(t, []NID{"player", "enemy"}, restored.Turn.TeamOrder)

	hero, err := restored.GetUnit("hero")
	require.NoError(t, err)
	assert.Equal(t, 3, hero.Level)
	assert.Equal(t, 17, hero.CurrentHP)
	require.NotNil(t, hero.Position)
	assert.Equal(t, Coord{X: 1, Y: 1}, *hero.Position)
	assert.Equal(t, UnitId("hero"), restored.Board.GetUnit(Coord{X: 1, Y: 1}))

	regions := restored.Board.RegionsOfType(RegionSeize)
	require.Len(t, regions, 1)
	assert.Equal(t, RegionId("r1"), regions[0].NID)

	party, err := restored.GetParty("main")
	require.NoError(t, err)
	assert.Equal(t, 500, party.Money)
}

func TestFileSaveHandlerRoundTrip(t *testing.T) {
	ctx := buildSampleContext(t)
	dir := t.TempDir()
	handler := NewFileSaveHandler(dir)

	require.NoError(t, SaveGame(ctx, handler, "slot1", nil))
	keys, err := handler.List()
	require.NoError(t, err)
	assert.Contains(t, keys, "slot1")

	restored, err := LoadGame(ctx.DB, handler, "slot1")
	require.NoError(t, err)
	assert.Equal(t, ctx.TurnCount, restored.TurnCount)

	require.NoError(t, handler.Delete("slot1"))
	_, err = handler.Load("slot1")
	require.Error(t, err)
}

func TestMemorySaveHandlerMissingKey(t *testing.T) {
	handler := NewMemorySaveHandler()
	_, err := handler.Load("nope")
	require.Error(t, err)

	var ee *EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, KindResource, ee.Kind)
}

// Items owned by a unit serialize under the unit-slot key scheme; convoy
// items serialize under the convoy key scheme (spec.md §4.8).
func TestSnapshotItemKeys(t *testing.T) {
	ctx := buildSampleContext(t)
	ctx.Items["vulnerary"] = &Item{NID: "vulnerary", Uses: 3, MaxUses: 3}
	ctx.Parties["main"].Convoy = []ItemId{"vulnerary"}

	snap := Snapshot(ctx, nil)

	require.Contains(t, snap.Items, "hero_iron_sword_1")
	require.Contains(t, snap.Items, "convoy_main_vulnerary_0")
	assert.Equal(t, ItemId("iron_sword"), snap.Items["hero_iron_sword_1"].NID)
	assert.Equal(t, ItemId("vulnerary"), snap.Items["convoy_main_vulnerary_0"].NID)
}

func buildSampleGame(t *testing.T) *Game {
	ctx := buildSampleContext(t)
	return &Game{Ctx: ctx, States: NewStateMachine(ctx.Logger), Advisors: map[NID]*AIAdvisor{}}
}

// S6 extension — the slot/meta key scheme round-trips a game and its
// metadata, and ListSlots/DeleteSlot operate on that scheme without
// disturbing unrelated keys (spec.md §4.8/§6).
func TestSaveSlotRoundTrip(t *testing.T) {
	g := buildSampleGame(t)
	handler := NewMemorySaveHandler()
	savedAt := timestamppb.New(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	meta := SaveMetadata{Version: "1.0", Title: "Chapter 1", Mode: "normal", LevelNID: "ch1", LevelTitle: "The Beginning", DisplayName: "Hero, Lv3"}

	require.NoError(t, SaveSlot(g, handler, "game1", "1", meta, savedAt))

	restored, restoredMeta, err := LoadSlot(g.Ctx.DB, handler, "game1", "1", rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, "Chapter 1", restoredMeta.Title)
	assert.Equal(t, NID("normal"), restoredMeta.Mode)
	assert.Equal(t, "slot", restoredMeta.Kind)
	assert.NotNil(t, restored.States)
	assert.Empty(t, restored.States.States())

	hero, err := restored.Ctx.GetUnit("hero")
	require.NoError(t, err)
	assert.Equal(t, 3, hero.Level)

	slots, err := ListSlots(handler, "game1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, slots)

	require.NoError(t, DeleteSlot(handler, "game1", "1"))
	slots, err = ListSlots(handler, "game1")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

// Quick-saves are deleted after their first successful load (spec.md §4.8).
func TestSaveSuspendDeletedAfterLoad(t *testing.T) {
	g := buildSampleGame(t)
	handler := NewMemorySaveHandler()
	meta := SaveMetadata{Version: "1.0"}

	require.NoError(t, SaveSuspend(g, handler, "game1", meta, nil))

	has, err := HasSuspend(handler, "game1")
	require.NoError(t, err)
	assert.True(t, has)

	_, restoredMeta, err := LoadSuspend(g.Ctx.DB, handler, "game1", rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, "suspend", restoredMeta.Kind)

	has, err = HasSuspend(handler, "game1")
	require.NoError(t, err)
	assert.False(t, has)

	_, _, err = LoadSuspend(g.Ctx.DB, handler, "game1", rand.New(rand.NewSource(1)))
	require.Error(t, err)
}
