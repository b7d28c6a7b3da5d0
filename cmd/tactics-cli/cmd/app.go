package cmd

import (
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/ashenforge/tacticscore/engine"
)

// sampleDatabase returns the small built-in ruleset the "new" command
// seeds a demo scenario from, standing in for a YAML database file loaded
// via engine.Database.LoadDatabaseFile.
func sampleDatabase() *engine.Database {
	db := engine.NewDatabase()
	db.Classes["lord"] = &engine.ClassDef{
		NID: "lord", Name: "Lord", MovementGroup: "foot",
		Base: engine.Stats{HPMax: 20, Str: 8, Skl: 8, Spd: 8, Lck: 5, Def: 4, Res: 2, Con: 9, Mov: 5},
	}
	db.Classes["soldier"] = &engine.ClassDef{
		NID: "soldier", Name: "Soldier", MovementGroup: "foot",
		Base: engine.Stats{HPMax: 22, Str: 7, Skl: 6, Spd: 6, Lck: 4, Def: 6, Res: 1, Con: 11, Mov: 4},
	}
	db.Units["lord"] = &engine.UnitPrefab{NID: "lord", Name: "Lord", ClassID: "lord", Level: 1, Items: []engine.NID{"iron_sword"}}
	db.Units["grunt"] = &engine.UnitPrefab{NID: "grunt", Name: "Grunt", ClassID: "soldier", Level: 1, Items: []engine.NID{"iron_lance"}}
	db.Items["iron_sword"] = &engine.ItemDef{NID: "iron_sword", Name: "Iron Sword", MaxUses: 46, Comp: engine.Component{Weapon: true, Damage: 5, Hit: 90, MinRange: 1, MaxRange: 1}}
	db.Items["iron_lance"] = &engine.ItemDef{NID: "iron_lance", Name: "Iron Lance", MaxUses: 46, Comp: engine.Component{Weapon: true, Damage: 6, Hit: 85, MinRange: 1, MaxRange: 1}}
	db.Terrains["plain"] = &engine.TerrainDef{NID: "plain", Name: "Plain"}
	db.MovementCost["foot"] = map[engine.NID]int{"plain": 1}
	db.Tilemaps["demo_map"] = &engine.TilemapDef{NID: "demo_map", Width: 6, Height: 6}
	for i := 0; i < 36; i++ {
		db.Tilemaps["demo_map"].Grid = append(db.Tilemaps["demo_map"].Grid, "plain")
	}
	db.Teams["player"] = &engine.TeamDef{NID: "player"}
	db.Teams["enemy"] = &engine.TeamDef{NID: "enemy"}
	return db
}

// sampleLevel describes the demo scenario the "new" command spawns: one
// lord on the player team, one grunt on the enemy team, across a 6x6 plain
// map, with the enemy's spawn tile marked as the seize objective.
func sampleLevel() *engine.Level {
	return &engine.Level{
		NID: "demo1", Name: "Demo Skirmish", TilemapID: "demo_map", PartyID: "main",
		Objective: "Seize the enemy's position",
		UnitsSpec: []engine.UnitSpec{
			{UnitNID: "lord", Team: "player", Coord: engine.Coord{X: 0, Y: 0}},
			{UnitNID: "grunt", Team: "enemy", Coord: engine.Coord{X: 5, Y: 5}},
		},
		Regions: []engine.Region{
			{NID: "throne", Kind: engine.RegionSeize, X: 5, Y: 5, W: 1, H: 1},
		},
	}
}

func saveHandler() *engine.FileSaveHandler {
	return engine.NewFileSaveHandler(saveDir)
}

func saveGame(ctx *engine.GameContext, key string) error {
	return engine.SaveGame(ctx, saveHandler(), key, timestamppb.New(time.Now()))
}

func loadGame(db *engine.Database, key string) (*engine.GameContext, error) {
	data, err := saveHandler().Load(key)
	if err != nil {
		return nil, err
	}
	snap, err := engine.UnmarshalSnapshot(data)
	if err != nil {
		return nil, err
	}
	return engine.Restore(db, snap, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func ensureSaveDir() error {
	return os.MkdirAll(saveDir, 0o755)
}

func savePath(key string) string {
	return filepath.Join(saveDir, key+".yaml")
}
