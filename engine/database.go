package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ClassDef is a playable class definition: base stats and growth rates.
type ClassDef struct {
	NID      NID    `yaml:"nid"`
	Name     string `yaml:"name"`
	Base     Stats  `yaml:"base"`
	Growths  Stats  `yaml:"growths"`
	MovementGroup NID `yaml:"movement_group"`
}

// ItemDef/SkillDef/UnitPrefab mirror their runtime counterparts but are the
// read-only, data-driven template the runtime instance is built from —
// exactly the class/unit/item/skill prefab registries spec.md §6 calls for.
type ItemDef struct {
	NID       NID       `yaml:"nid"`
	Name      string    `yaml:"name"`
	IconRef   string    `yaml:"icon_ref"`
	MaxUses   int       `yaml:"max_uses"`
	Droppable bool      `yaml:"droppable"`
	Comp      Component `yaml:"components"`
}

type SkillDef struct {
	NID     NID            `yaml:"nid"`
	Name    string         `yaml:"name"`
	IconRef string         `yaml:"icon_ref"`
	Comp    map[string]int `yaml:"components"`
}

type UnitPrefab struct {
	NID      NID      `yaml:"nid"`
	Name     string   `yaml:"name"`
	ClassID  NID      `yaml:"class_id"`
	Level    int      `yaml:"level"`
	Items    []NID    `yaml:"items"`
	Skills   []NID    `yaml:"skills"`
	Affinity NID      `yaml:"affinity"`
}

// TilemapDef references the terrain-id grid for a level.
type TilemapDef struct {
	NID    NID      `yaml:"nid"`
	Width  int      `yaml:"width"`
	Height int      `yaml:"height"`
	Grid   []NID    `yaml:"grid"` // row-major terrain ids, len == width*height
}

// WeaponTypeDef names a weapon-type NID participating in the weapon
// triangle (SPEC_FULL §4.3 expansion).
type WeaponTypeDef struct {
	NID  NID    `yaml:"nid"`
	Name string `yaml:"name"`
}

// WeaponAdvantage is the {hit_delta, damage_delta} bonus the attacker's
// weapon type gets over the defender's, grounded on
// lib/combat_formula.go's AttackVsClass lookup table, generalized from
// unit-class keys to weapon-type keys.
type WeaponAdvantage struct {
	HitDelta    int
	DamageDelta int
}

// WeaponRankStep is one entry in a weapon type's wexp-to-rank ladder
// (SPEC_FULL §3 expansion).
type WeaponRankStep struct {
	ExpRequired int    `yaml:"exp_required"`
	Rank        string `yaml:"rank"`
}

// TeamDef / FactionDef define the closed team-name set and diplomacy.
type TeamDef struct {
	NID       NID   `yaml:"nid"`
	Factions  []NID `yaml:"factions"`
	AlliedWith []NID `yaml:"allied_with"`
}

type FactionDef struct {
	NID  NID    `yaml:"nid"`
	Name string `yaml:"name"`
}

type DifficultyMode struct {
	NID              NID     `yaml:"nid"`
	Name             string  `yaml:"name"`
	GrowthMultiplier float64 `yaml:"growth_multiplier"`
}

// ProjectConstants holds the few tunable numbers combat/level-up math uses.
type ProjectConstants struct {
	FollowUpThreshold int `yaml:"follow_up_threshold"`
	ExpPerHit         int `yaml:"exp_per_hit"`
	ExpPerKillBase    int `yaml:"exp_per_kill_base"`
	MaxExp            int `yaml:"max_exp"`
}

func defaultConstants() ProjectConstants {
	return ProjectConstants{FollowUpThreshold: 4, ExpPerHit: 1, ExpPerKillBase: 20, MaxExp: 99}
}

// Database is the read-only-at-startup set of game data definitions
// (spec.md §6): class registry, item/skill prefabs, unit prefabs, tilemaps,
// terrain types, weapon types + advantages, teams + alliances, the
// movement-cost table, difficulty modes, and project constants. It holds
// no support data; support points live on GameContext.
// Grounded on lib/rules_engine.go's RulesEngine (data-driven rules extending
// typed registries) and lib/rules_loader.go's file-backed load shape
// (JSON there; YAML here — see DESIGN.md).
type Database struct {
	Classes    map[NID]*ClassDef
	Items      map[NID]*ItemDef
	Skills     map[NID]*SkillDef
	Units      map[NID]*UnitPrefab
	Terrains   map[NID]*TerrainDef
	Tilemaps   map[NID]*TilemapDef
	WeaponTypes map[NID]*WeaponTypeDef
	Teams      map[NID]*TeamDef
	Factions   map[NID]*FactionDef
	Modes      map[NID]*DifficultyMode

	// MovementCost[movementGroup][terrainID] -> cost, >=99 means impassable.
	MovementCost map[NID]map[NID]int

	// WeaponAdvantageTable[attackerWeaponType][defenderWeaponType] -> bonus.
	WeaponAdvantageTable map[NID]map[NID]WeaponAdvantage

	// WeaponRankTable[weaponType] -> ascending-by-ExpRequired rank ladder.
	WeaponRankTable map[NID][]WeaponRankStep

	Constants ProjectConstants
}

// NewDatabase returns an empty database with every map initialized and
// default constants, ready for a loader (or tests) to populate.
func NewDatabase() *Database {
	return &Database{
		Classes:              map[NID]*ClassDef{},
		Items:                map[NID]*ItemDef{},
		Skills:               map[NID]*SkillDef{},
		Units:                map[NID]*UnitPrefab{},
		Terrains:             map[NID]*TerrainDef{},
		Tilemaps:             map[NID]*TilemapDef{},
		WeaponTypes:          map[NID]*WeaponTypeDef{},
		Teams:                map[NID]*TeamDef{},
		Factions:             map[NID]*FactionDef{},
		Modes:                map[NID]*DifficultyMode{},
		MovementCost:         map[NID]map[NID]int{},
		WeaponAdvantageTable: map[NID]map[NID]WeaponAdvantage{},
		WeaponRankTable:      map[NID][]WeaponRankStep{},
		Constants:            defaultConstants(),
	}
}

// ImpassableCost is the movement-cost-table sentinel meaning "cannot enter".
const ImpassableCost = 99

// MovementCostFor returns the cost for a movement group to enter a terrain,
// or ImpassableCost if no entry exists (spec.md §6 movement cost table).
func (d *Database) MovementCostFor(group, terrain NID) int {
	row, ok := d.MovementCost[group]
	if !ok {
		return ImpassableCost
	}
	cost, ok := row[terrain]
	if !ok {
		return ImpassableCost
	}
	return cost
}

// GetClass/GetItemDef/GetSkillDef/GetUnitPrefab/GetTerrain/GetTilemap look up a definition,
// returning a ResourceError (§7) when the reference is dangling rather than
// panicking — callers at level-load and save-restore time log and skip.
func (d *Database) GetClass(nid NID) (*ClassDef, error) {
	c, ok := d.Classes[nid]
	if !ok {
		return nil, ErrResourceMissing("class", string(nid))
	}
	return c, nil
}

func (d *Database) GetItemDef(nid NID) (*ItemDef, error) {
	i, ok := d.Items[nid]
	if !ok {
		return nil, ErrResourceMissing("item", string(nid))
	}
	return i, nil
}

func (d *Database) GetSkillDef(nid NID) (*SkillDef, error) {
	s, ok := d.Skills[nid]
	if !ok {
		return nil, ErrResourceMissing("skill", string(nid))
	}
	return s, nil
}

func (d *Database) GetUnitPrefab(nid NID) (*UnitPrefab, error) {
	u, ok := d.Units[nid]
	if !ok {
		return nil, ErrResourceMissing("unit_prefab", string(nid))
	}
	return u, nil
}

func (d *Database) GetTerrain(nid NID) (*TerrainDef, error) {
	t, ok := d.Terrains[nid]
	if !ok {
		return nil, ErrResourceMissing("terrain", string(nid))
	}
	return t, nil
}

func (d *Database) GetTilemap(nid NID) (*TilemapDef, error) {
	t, ok := d.Tilemaps[nid]
	if !ok {
		return nil, ErrResourceMissing("tilemap", string(nid))
	}
	return t, nil
}

// WeaponAdvantageFor returns the triangle bonus attackerType has over
// defenderType, or the zero value if none is defined.
func (d *Database) WeaponAdvantageFor(attackerType, defenderType NID) WeaponAdvantage {
	row, ok := d.WeaponAdvantageTable[attackerType]
	if !ok {
		return WeaponAdvantage{}
	}
	return row[defenderType]
}

// RankForExp walks a weapon type's rank ladder and returns the highest rank
// reached at the given accumulated wexp.
func (d *Database) RankForExp(weaponType NID, exp int) string {
	ladder := d.WeaponRankTable[weaponType]
	rank := ""
	for _, step := range ladder {
		if exp >= step.ExpRequired {
			rank = step.Rank
		}
	}
	return rank
}

// databaseFile is the on-disk shape of a single YAML game-data definition
// file: any subset of the registries, merged into the Database on load.
type databaseFile struct {
	Classes      []*ClassDef                       `yaml:"classes"`
	Items        []*ItemDef                        `yaml:"items"`
	Skills       []*SkillDef                       `yaml:"skills"`
	Units        []*UnitPrefab                     `yaml:"units"`
	Terrains     []*TerrainDef                     `yaml:"terrains"`
	Tilemaps     []*TilemapDef                      `yaml:"tilemaps"`
	WeaponTypes  []*WeaponTypeDef                   `yaml:"weapon_types"`
	Teams        []*TeamDef                         `yaml:"teams"`
	Factions     []*FactionDef                      `yaml:"factions"`
	Modes        []*DifficultyMode                  `yaml:"modes"`
	MovementCost map[NID]map[NID]int                `yaml:"movement_cost"`
	WeaponAdvantage map[NID]map[NID]WeaponAdvantage `yaml:"weapon_advantage"`
	WeaponRanks  map[NID][]WeaponRankStep            `yaml:"weapon_ranks"`
	Constants    *ProjectConstants                   `yaml:"constants"`
}

// LoadDatabaseFile reads one YAML definition file and merges it into d,
// grounded on lib/rules_loader.go's file-backed rules loading (same
// read-parse-merge shape; YAML instead of protojson because these are
// plain Go structs, not generated proto.Message types — see DESIGN.md).
func (d *Database) LoadDatabaseFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading database file %s: %w", path, err)
	}
	var file databaseFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parsing database file %s: %w", path, err)
	}
	d.merge(&file)
	return nil
}

func (d *Database) merge(f *databaseFile) {
	for _, c := range f.Classes {
		d.Classes[c.NID] = c
	}
	for _, i := range f.Items {
		d.Items[i.NID] = i
	}
	for _, s := range f.Skills {
		d.Skills[s.NID] = s
	}
	for _, u := range f.Units {
		d.Units[u.NID] = u
	}
	for _, t := range f.Terrains {
		d.Terrains[t.NID] = t
	}
	for _, t := range f.Tilemaps {
		d.Tilemaps[t.NID] = t
	}
	for _, w := range f.WeaponTypes {
		d.WeaponTypes[w.NID] = w
	}
	for _, t := range f.Teams {
		d.Teams[t.NID] = t
	}
	for _, fa := range f.Factions {
		d.Factions[fa.NID] = fa
	}
	for _, m := range f.Modes {
		d.Modes[m.NID] = m
	}
	for group, row := range f.MovementCost {
		dst, ok := d.MovementCost[group]
		if !ok {
			dst = map[NID]int{}
			d.MovementCost[group] = dst
		}
		for terrain, cost := range row {
			dst[terrain] = cost
		}
	}
	for atk, row := range f.WeaponAdvantage {
		dst, ok := d.WeaponAdvantageTable[atk]
		if !ok {
			dst = map[NID]WeaponAdvantage{}
			d.WeaponAdvantageTable[atk] = dst
		}
		for def, adv := range row {
			dst[def] = adv
		}
	}
	for wt, ladder := range f.WeaponRanks {
		d.WeaponRankTable[wt] = ladder
	}
	if f.Constants != nil {
		d.Constants = *f.Constants
	}
}
