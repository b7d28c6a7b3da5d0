package engine

// UnitSpec places a unit prefab instance at level load (or a reinforcement
// group's staged spawn — SPEC_FULL §4.6 expansion).
type UnitSpec struct {
	UnitNID NID
	Coord   Coord
	Team    NID
}

// UnitGroup is a named, pre-staged set of UnitSpecs a `reinforce` event
// command can activate as a whole (SPEC_FULL §4.6 expansion, grounded on
// lib/moves.go's ProcessBuildUnit spawn-onto-a-validated-tile shape,
// generalized to a batch).
type UnitGroup struct {
	NID   NID
	Units []UnitSpec
}

// Level is one playable map/scenario: tilemap reference, objective, and the
// units/regions/groups staged for it.
type Level struct {
	NID        NID
	Name       string
	TilemapID  NID
	PartyID    PartyId
	MusicByPhase map[string]NID
	Objective  string
	UnitsSpec  []UnitSpec
	Regions    []Region
	UnitGroups []UnitGroup
}
