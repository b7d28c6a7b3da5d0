package engine

import "strconv"

// Component is the polymorphism mechanism for items and skills (spec.md §3):
// instead of an open-ended component class hierarchy, a closed map of
// validated accessors, grounded on the teacher's component-map pattern for
// terrain/unit properties (lib/rules_engine.go's TerrainUnitProperties).
type Component struct {
	Weapon   bool
	Damage   int
	Hit      int
	Crit     int
	Weight   int
	MinRange int
	MaxRange int
	Magic    bool
	Brave    bool
	Heal     int
}

// Item is a weapon, healing item, or other usable object. Components carry
// the polymorphism; Uses/MaxUses governs depletion.
type Item struct {
	NID      NID
	Name     string
	IconRef  string
	Uses     int
	MaxUses  int
	Droppable bool
	Owner    *UnitId // nil => convoy item
	Comp     Component
}

// IsWeapon reports whether this item has the weapon component.
func (i *Item) IsWeapon() bool { return i.Comp.Weapon }

// InRange reports whether distance falls within the weapon's range band.
func (i *Item) InRange(distance int) bool {
	if !i.Comp.Weapon {
		return false
	}
	return distance >= i.Comp.MinRange && distance <= i.Comp.MaxRange
}

// Spend consumes one use; callers remove the item from its owner's
// inventory once Uses reaches 0 (spec.md §3 Item invariant).
func (i *Item) Spend() {
	if i.Uses > 0 {
		i.Uses--
	}
}

// Depleted reports whether the item has run out of uses and should be
// dropped from its owner's inventory.
func (i *Item) Depleted() bool { return i.Uses <= 0 }

// unitItemKey and convoyItemKey build the deterministic map keys spec.md
// §4.8's serialization rules mandate for persisted items: a unit's own
// inventory slots key as "{unit_nid}_{item_nid}_{slot_idx+1}" (1-based),
// and convoy items key as "convoy_{party_nid}_{item_nid}_{idx}". Runtime
// lookups stay keyed by the item's own NID (ctx.Items); these keys exist
// only for the persisted record's Items section.
func unitItemKey(unitNID UnitId, itemNID ItemId, slotIdx int) string {
	return string(unitNID) + "_" + string(itemNID) + "_" + strconv.Itoa(slotIdx+1)
}

func convoyItemKey(partyNID PartyId, itemNID ItemId, idx int) string {
	return "convoy_" + string(partyNID) + "_" + string(itemNID) + "_" + strconv.Itoa(idx)
}
