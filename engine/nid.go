package engine

import (
	"strconv"

	"github.com/google/uuid"
)

// NID is the universal short stable string identifier used as the key
// across the data model: units, items, skills, parties, levels, regions,
// events, teams.
type NID string

// UnitId, ItemId, etc. are aliases of NID rather than distinct wrapper
// types, matching the single string-keyed identifier namespace the teacher
// uses. Resolution always goes through the owning map on GameContext —
// these are indices, not pointers, which is how the design dissolves the
// unit<->item<->board ownership cycles.
type UnitId = NID
type ItemId = NID
type SkillId = NID
type PartyId = NID
type LevelId = NID
type EventId = NID
type RegionId = NID

// NewNID generates a fresh random NID for entities a prefab doesn't pin one
// for (e.g. events spawned by other events, ad-hoc convoy slots).
func NewNID(prefix string) NID {
	id := uuid.New().String()[:8]
	if prefix == "" {
		return NID(id)
	}
	return NID(prefix + "_" + id)
}

// ItemKey builds the deterministic persistence map key for a unit-owned item.
func ItemKey(unitNID NID, itemNID NID, slotIdx int) string {
	return string(unitNID) + "_" + string(itemNID) + "_" + strconv.Itoa(slotIdx+1)
}

// ConvoyItemKey builds the deterministic persistence map key for a
// party-convoy item.
func ConvoyItemKey(partyNID NID, itemNID NID, idx int) string {
	return "convoy_" + string(partyNID) + "_" + string(itemNID) + "_" + strconv.Itoa(idx)
}
