package engine

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"google.golang.org/protobuf/types/known/timestamppb"
	"gopkg.in/yaml.v3"
)

// SaveHandler is an ordered key-value persistence backend (spec.md §4.9),
// grounded directly on lib/savehandlers.go's MemorySaveHandler/
// FileSaveHandler pair.
type SaveHandler interface {
	Save(key string, data []byte) error
	Load(key string) ([]byte, error)
	Delete(key string) error
	List() ([]string, error)
}

// MemorySaveHandler is an in-process SaveHandler backed by a map, used by
// tests and headless runs. Grounded on lib/savehandlers.go's
// MemorySaveHandler.
type MemorySaveHandler struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemorySaveHandler() *MemorySaveHandler {
	return &MemorySaveHandler{data: map[string][]byte{}}
}

func (h *MemorySaveHandler) Save(key string, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	h.data[key] = cp
	return nil
}

func (h *MemorySaveHandler) Load(key string) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	data, ok := h.data[key]
	if !ok {
		return nil, ErrResourceMissing("save_key", key)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (h *MemorySaveHandler) Delete(key string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.data, key)
	return nil
}

func (h *MemorySaveHandler) List() ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	keys := make([]string, 0, len(h.data))
	for k := range h.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// FileSaveHandler persists each key as a file under Dir, grounded on
// lib/savehandlers.go's FileSaveHandler.
type FileSaveHandler struct {
	Dir string
}

func NewFileSaveHandler(dir string) *FileSaveHandler {
	return &FileSaveHandler{Dir: dir}
}

func (h *FileSaveHandler) path(key string) string {
	return filepath.Join(h.Dir, key+".yaml")
}

func (h *FileSaveHandler) Save(key string, data []byte) error {
	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		return ErrStorage(err, "creating save directory %s", h.Dir)
	}
	if err := os.WriteFile(h.path(key), data, 0o644); err != nil {
		return ErrStorage(err, "writing save file for key %s", key)
	}
	return nil
}

func (h *FileSaveHandler) Load(key string) ([]byte, error) {
	data, err := os.ReadFile(h.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrResourceMissing("save_key", key)
		}
		return nil, ErrStorage(err, "reading save file for key %s", key)
	}
	return data, nil
}

func (h *FileSaveHandler) Delete(key string) error {
	if err := os.Remove(h.path(key)); err != nil && !os.IsNotExist(err) {
		return ErrStorage(err, "deleting save file for key %s", key)
	}
	return nil
}

func (h *FileSaveHandler) List() ([]string, error) {
	entries, err := os.ReadDir(h.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ErrStorage(err, "listing save directory %s", h.Dir)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		ext := filepath.Ext(name)
		if ext == ".yaml" {
			keys = append(keys, name[:len(name)-len(ext)])
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// WorldSnapshot is the full serializable state of a GameContext (spec.md
// §4.8): "units[], items[], skills[], level, turn_count, playtime,
// game_vars, level_vars, current_mode, parties[], current_party,
// state_stack (names only), active_ai_groups, records, supports,
// market_items, base_convos, talk_options, fog_state, roam_info,
// overworld_registry, memory" plus enough board metadata to rebuild the
// Board before units are reattached to it.
type WorldSnapshot struct {
	SavedAt *timestamppb.Timestamp `yaml:"saved_at"`

	BoardWidth              int      `yaml:"board_width"`
	BoardHeight             int      `yaml:"board_height"`
	DefaultTerrain          NID      `yaml:"default_terrain"`
	Tiles                   []NID    `yaml:"tiles"` // row-major
	Regions                 []Region `yaml:"regions"`

	Level *Level `yaml:"level"`

	Units []*Unit `yaml:"units"`
	// Items is keyed by the spec.md §4.8 serialization scheme
	// ("{unit_nid}_{item_nid}_{slot_idx+1}" for unit-owned items,
	// "convoy_{party_nid}_{item_nid}_{idx}" for convoy items) rather than
	// by the item's own NID — see unitItemKey/convoyItemKey in item.go.
	// Restore re-indexes by each Item's own NID for runtime lookups, so
	// this key only documents provenance at save time.
	Items   map[string]*Item `yaml:"items"`
	Skills  []*Skill         `yaml:"skills"`
	Parties []*Party         `yaml:"parties"`

	ActiveTeam NID `yaml:"active_team"`
	TurnCount  int `yaml:"turn_count"`
	Playtime   int64 `yaml:"playtime"`

	GameVars  map[string]string `yaml:"game_vars"`
	LevelVars map[string]string `yaml:"level_vars"`

	CurrentMode  NID     `yaml:"current_mode"`
	CurrentParty PartyId `yaml:"current_party"`

	TeamOrder   []NID `yaml:"team_order"`
	ActiveIndex int   `yaml:"active_index"`
	TurnNumber  int   `yaml:"turn_number"`

	// StateStack records the names only of the live state stack at save
	// time (spec.md §4.8 "state_stack (names only)"); it is informational
	// and not auto-replayed on Restore — see RestoreGame.
	StateStack []string `yaml:"state_stack"`

	ActiveAIGroups    []NID             `yaml:"active_ai_groups"`
	Records           map[string]int    `yaml:"records"`
	Supports          map[string]int    `yaml:"supports"`
	MarketItems       []ItemId          `yaml:"market_items"`
	BaseConvos        map[NID]bool      `yaml:"base_convos"`
	TalkOptions       []NID             `yaml:"talk_options"`
	FogState          *FogState         `yaml:"fog_state"`
	RoamInfo          *RoamInfo         `yaml:"roam_info"`
	OverworldRegistry map[NID]bool      `yaml:"overworld_registry"`
	Memory            map[string]string `yaml:"memory"`
}

// Snapshot captures ctx into a WorldSnapshot. savedAt is supplied by the
// caller (the engine never reads the wall clock itself — see DESIGN.md).
func Snapshot(ctx *GameContext, savedAt *timestamppb.Timestamp) *WorldSnapshot {
	snap := &WorldSnapshot{
		SavedAt:           savedAt,
		BoardWidth:        ctx.Board.Width,
		BoardHeight:        ctx.Board.Height,
		Level:             ctx.Level,
		ActiveTeam:        ctx.ActiveTeam,
		TurnCount:         ctx.TurnCount,
		Playtime:          ctx.Playtime,
		GameVars:          copyStringMap(ctx.GameVars),
		LevelVars:         copyStringMap(ctx.LevelVars),
		CurrentMode:       ctx.CurrentMode,
		CurrentParty:      ctx.CurrentParty,
		TurnNumber:        ctx.Turn.TurnNumber,
		ActiveIndex:       ctx.Turn.activeIndex,
		TeamOrder:         append([]NID(nil), ctx.Turn.TeamOrder...),
		ActiveAIGroups:    append([]NID(nil), ctx.ActiveAIGroups...),
		Records:           copyIntMap(ctx.Records),
		Supports:          copyIntMap(ctx.Supports),
		MarketItems:       append([]ItemId(nil), ctx.MarketItems...),
		BaseConvos:        copyNIDBoolMap(ctx.BaseConvos),
		TalkOptions:       append([]NID(nil), ctx.TalkOptions...),
		FogState:          ctx.FogState,
		RoamInfo:          ctx.RoamInfo,
		OverworldRegistry: copyNIDBoolMap(ctx.OverworldRegistry),
		Memory:            copyStringMap(ctx.Memory),
	}
	for y := 0; y < ctx.Board.Height; y++ {
		for x := 0; x < ctx.Board.Width; x++ {
			snap.Tiles = append(snap.Tiles, ctx.Board.GetTerrain(Coord{X: x, Y: y}))
		}
	}
	snap.Regions = ctx.Board.regions

	for _, id := range ctx.sortedUnitIDs() {
		snap.Units = append(snap.Units, ctx.Units[id])
	}
	snap.Items = buildItemSnapshot(ctx)
	skillIDs := make([]SkillId, 0, len(ctx.Skills))
	for id := range ctx.Skills {
		skillIDs = append(skillIDs, id)
	}
	sort.Slice(skillIDs, func(i, j int) bool { return skillIDs[i] < skillIDs[j] })
	for _, id := range skillIDs {
		snap.Skills = append(snap.Skills, ctx.Skills[id])
	}
	partyIDs := sortedPartyIDs(ctx)
	for _, id := range partyIDs {
		snap.Parties = append(snap.Parties, ctx.Parties[id])
	}
	return snap
}

func sortedPartyIDs(ctx *GameContext) []PartyId {
	partyIDs := make([]PartyId, 0, len(ctx.Parties))
	for id := range ctx.Parties {
		partyIDs = append(partyIDs, id)
	}
	sort.Slice(partyIDs, func(i, j int) bool { return partyIDs[i] < partyIDs[j] })
	return partyIDs
}

// buildItemSnapshot indexes every known item under the spec.md §4.8
// ownership-keyed scheme: first by unit inventory slot, then by convoy
// slot, and finally (an extension beyond the spec text, for items the
// engine still tracks but that are presently unowned — e.g. dropped on
// death) under an "unbound_{item_nid}" key so nothing is silently lost.
func buildItemSnapshot(ctx *GameContext) map[string]*Item {
	out := map[string]*Item{}
	seen := map[ItemId]bool{}
	for _, uid := range ctx.sortedUnitIDs() {
		u := ctx.Units[uid]
		for idx, itemID := range u.Items {
			item, ok := ctx.Items[itemID]
			if !ok {
				continue
			}
			out[unitItemKey(uid, itemID, idx)] = item
			seen[itemID] = true
		}
	}
	for _, pid := range sortedPartyIDs(ctx) {
		p := ctx.Parties[pid]
		for idx, itemID := range p.Convoy {
			item, ok := ctx.Items[itemID]
			if !ok {
				continue
			}
			out[convoyItemKey(pid, itemID, idx)] = item
			seen[itemID] = true
		}
	}
	itemIDs := make([]ItemId, 0, len(ctx.Items))
	for id := range ctx.Items {
		itemIDs = append(itemIDs, id)
	}
	sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })
	for _, id := range itemIDs {
		if seen[id] {
			continue
		}
		out["unbound_"+string(id)] = ctx.Items[id]
	}
	return out
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyNIDBoolMap(m map[NID]bool) map[NID]bool {
	if m == nil {
		return nil
	}
	out := make(map[NID]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Marshal encodes a snapshot to YAML bytes.
func (s *WorldSnapshot) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, ErrStorage(err, "marshaling world snapshot")
	}
	return data, nil
}

// UnmarshalSnapshot decodes YAML bytes into a WorldSnapshot.
func UnmarshalSnapshot(data []byte) (*WorldSnapshot, error) {
	var snap WorldSnapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, ErrStorage(err, "unmarshaling world snapshot")
	}
	return &snap, nil
}

// SaveGame serializes ctx and writes it under key via h (spec.md §4.9).
func SaveGame(ctx *GameContext, h SaveHandler, key string, savedAt *timestamppb.Timestamp) error {
	snap := Snapshot(ctx, savedAt)
	data, err := snap.Marshal()
	if err != nil {
		return err
	}
	return h.Save(key, data)
}

// Restore rebuilds a GameContext from a WorldSnapshot following spec.md
// §4.8's mandatory deserialization order (skipping or reordering a step
// leaves dangling references):
//
//  1. Board dimensions and default terrain grid, regions.
//  2. Game vars / level vars / difficulty mode / turn count (no
//     dependency on anything built later).
//  3. Item definitions, then skill definitions.
//  4. Units, without placing them on the board yet (Position is set from
//     the snapshot but the board's occupancy index is still empty).
//  5. A second pass over units clearing any Rescuing/RescuedBy reference
//     to a unit that doesn't exist in this snapshot (spec.md §7: partial
//     restoration skips dangling references instead of failing outright).
//  6. Placing every unit with a Position onto the board's occupancy index.
//  7. Parties (reference unit NIDs as leaders, and convoy item NIDs,
//     which now exist) and the level record.
//  8. Market, base conversations, records, supports, AI groups, roam
//     info, overworld registry, memory.
//  9. Turn controller state (team order, active index, turn number) and
//     the context's own ActiveTeam/TurnCount/Playtime, restored last
//     since nothing downstream depends on them.
//
// Grounded on lib/world.go's parent/child layered construction, which
// always rebuilds indexes in a fixed dependency order before exposing the
// World for use.
func Restore(db *Database, snap *WorldSnapshot, rng *rand.Rand) (*GameContext, error) {
	ctx := NewGameContext(db, rng, nil)

	// Step 1: board, regions.
	ctx.Board = NewBoard(snap.BoardWidth, snap.BoardHeight, snap.DefaultTerrain)
	idx := 0
	for y := 0; y < snap.BoardHeight; y++ {
		for x := 0; x < snap.BoardWidth; x++ {
			if idx >= len(snap.Tiles) {
				break
			}
			if err := ctx.Board.SetTerrain(Coord{X: x, Y: y}, snap.Tiles[idx]); err != nil {
				return nil, err
			}
			idx++
		}
	}
	for _, r := range snap.Regions {
		ctx.Board.AddRegion(r)
	}

	// Step 2: vars, mode, turn count.
	if snap.GameVars != nil {
		ctx.GameVars = copyStringMap(snap.GameVars)
	}
	if snap.LevelVars != nil {
		ctx.LevelVars = copyStringMap(snap.LevelVars)
	}
	ctx.CurrentMode = snap.CurrentMode
	ctx.TurnCount = snap.TurnCount

	// Step 3: items, then skills.
	for _, item := range snap.Items {
		ctx.Items[item.NID] = item
	}
	for _, skill := range snap.Skills {
		ctx.Skills[skill.NID] = skill
	}

	// Step 4: units, not yet placed on the board.
	for _, u := range snap.Units {
		ctx.Units[u.NID] = u
	}

	// Step 5: drop rescue links that reference a unit missing from this
	// snapshot rather than leaving a dangling NID.
	for _, u := range ctx.Units {
		if u.Rescuing != nil {
			if _, ok := ctx.Units[*u.Rescuing]; !ok {
				u.Rescuing = nil
			}
		}
		if u.RescuedBy != nil {
			if _, ok := ctx.Units[*u.RescuedBy]; !ok {
				u.RescuedBy = nil
			}
		}
	}

	// Step 6: place units with a position onto the board occupancy index.
	for _, u := range snap.Units {
		if u.Position == nil {
			continue
		}
		if err := ctx.Board.SetUnit(*u.Position, u.NID); err != nil {
			return nil, fmt.Errorf("restoring unit %s position: %w", u.NID, err)
		}
	}

	// Step 7: parties, level.
	for _, p := range snap.Parties {
		ctx.Parties[p.NID] = p
	}
	ctx.Level = snap.Level
	ctx.CurrentParty = snap.CurrentParty

	// Step 8: market/base/records/supports/ai groups/roam/overworld/memory.
	ctx.ActiveAIGroups = append([]NID(nil), snap.ActiveAIGroups...)
	if snap.Records != nil {
		ctx.Records = copyIntMap(snap.Records)
	}
	if snap.Supports != nil {
		ctx.Supports = copyIntMap(snap.Supports)
	}
	ctx.MarketItems = append([]ItemId(nil), snap.MarketItems...)
	if snap.BaseConvos != nil {
		ctx.BaseConvos = copyNIDBoolMap(snap.BaseConvos)
	}
	ctx.TalkOptions = append([]NID(nil), snap.TalkOptions...)
	ctx.FogState = snap.FogState
	ctx.RoamInfo = snap.RoamInfo
	if snap.OverworldRegistry != nil {
		ctx.OverworldRegistry = copyNIDBoolMap(snap.OverworldRegistry)
	}
	if snap.Memory != nil {
		ctx.Memory = copyStringMap(snap.Memory)
	}

	// Step 9: turn/team state and playtime, restored last.
	ctx.ActiveTeam = snap.ActiveTeam
	ctx.Playtime = snap.Playtime
	ctx.Turn.TeamOrder = snap.TeamOrder
	ctx.Turn.activeIndex = snap.ActiveIndex
	ctx.Turn.TurnNumber = snap.TurnNumber

	return ctx, nil
}

// LoadGame reads and restores a saved game by key (spec.md §4.9).
func LoadGame(db *Database, h SaveHandler, key string) (*GameContext, error) {
	data, err := h.Load(key)
	if err != nil {
		return nil, err
	}
	snap, err := UnmarshalSnapshot(data)
	if err != nil {
		return nil, err
	}
	return Restore(db, snap, rand.New(rand.NewSource(1)))
}

// SnapshotGame captures g into a WorldSnapshot, additionally recording its
// live state stack's names (spec.md §4.8 "state_stack (names only)").
func SnapshotGame(g *Game, savedAt *timestamppb.Timestamp) *WorldSnapshot {
	snap := Snapshot(g.Ctx, savedAt)
	for _, s := range g.States.States() {
		snap.StateStack = append(snap.StateStack, s.Name())
	}
	return snap
}

// RestoreGame rebuilds a Game from a WorldSnapshot. The recorded
// StateStack names are informational only (spec.md §4.8) — concrete
// State values carry host/UI data a bare name can't reconstruct (a pending
// menu selection, a combat preview's confirmation pointer), so the
// returned Game starts with an empty StateMachine for the host to push its
// own entry state onto, consistent with spec.md §7's partial-restoration
// policy.
func RestoreGame(db *Database, snap *WorldSnapshot, rng *rand.Rand) (*Game, error) {
	ctx, err := Restore(db, snap, rng)
	if err != nil {
		return nil, err
	}
	return &Game{Ctx: ctx, States: NewStateMachine(ctx.Logger), Advisors: map[NID]*AIAdvisor{}}, nil
}

// SaveMetadata is the companion record spec.md §4.8/§6 stores alongside
// each save slot: "{ playtime, realtime, version, title, mode, level_nid,
// level_title, kind, display_name }".
type SaveMetadata struct {
	Playtime    int64  `yaml:"playtime"`
	Realtime    int64  `yaml:"realtime"` // unix seconds, supplied by the caller
	Version     string `yaml:"version"`
	Title       string `yaml:"title"`
	Mode        NID    `yaml:"mode"`
	LevelNID    NID    `yaml:"level_nid"`
	LevelTitle  string `yaml:"level_title"`
	Kind        string `yaml:"kind"` // "slot" or "suspend"
	DisplayName string `yaml:"display_name"`
}

// slotKey, metaKey, and suspendKey implement spec.md §4.8/§6's key scheme:
// slots are "{game_nid}-{slot}" with a companion "{key}.meta"; quick-save
// ("suspend") is "{game_nid}-suspend".
func slotKey(gameNID, slot string) string  { return gameNID + "-" + slot }
func metaKey(key string) string            { return key + ".meta" }
func suspendKey(gameNID string) string     { return gameNID + "-suspend" }

func saveSnapshotAndMeta(snap *WorldSnapshot, h SaveHandler, key string, meta SaveMetadata) error {
	data, err := snap.Marshal()
	if err != nil {
		return err
	}
	if err := h.Save(key, data); err != nil {
		return err
	}
	meta.Playtime = snap.Playtime
	metaData, err := yaml.Marshal(&meta)
	if err != nil {
		return ErrStorage(err, "marshaling save metadata for key %s", key)
	}
	return h.Save(metaKey(key), metaData)
}

func loadSnapshot(h SaveHandler, key string) (*WorldSnapshot, error) {
	data, err := h.Load(key)
	if err != nil {
		return nil, err
	}
	return UnmarshalSnapshot(data)
}

func loadMeta(h SaveHandler, key string) (*SaveMetadata, error) {
	data, err := h.Load(metaKey(key))
	if err != nil {
		return nil, err
	}
	var meta SaveMetadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, ErrStorage(err, "unmarshaling save metadata for key %s", key)
	}
	return &meta, nil
}

// SaveSlot writes g under the spec.md §4.8 slot key scheme, alongside its
// metadata record.
func SaveSlot(g *Game, h SaveHandler, gameNID, slot string, meta SaveMetadata, savedAt *timestamppb.Timestamp) error {
	meta.Kind = "slot"
	snap := SnapshotGame(g, savedAt)
	return saveSnapshotAndMeta(snap, h, slotKey(gameNID, slot), meta)
}

// LoadSlot reads a game and its metadata back from a save slot.
func LoadSlot(db *Database, h SaveHandler, gameNID, slot string, rng *rand.Rand) (*Game, *SaveMetadata, error) {
	key := slotKey(gameNID, slot)
	snap, err := loadSnapshot(h, key)
	if err != nil {
		return nil, nil, err
	}
	meta, err := loadMeta(h, key)
	if err != nil {
		return nil, nil, err
	}
	g, err := RestoreGame(db, snap, rng)
	if err != nil {
		return nil, nil, err
	}
	return g, meta, nil
}

// DeleteSlot removes a save slot and its metadata companion.
func DeleteSlot(h SaveHandler, gameNID, slot string) error {
	key := slotKey(gameNID, slot)
	if err := h.Delete(key); err != nil {
		return err
	}
	return h.Delete(metaKey(key))
}

// ListSlots returns every slot name saved under gameNID (excluding the
// suspend slot and metadata companions), sorted.
func ListSlots(h SaveHandler, gameNID string) ([]string, error) {
	keys, err := h.List()
	if err != nil {
		return nil, err
	}
	prefix := gameNID + "-"
	var slots []string
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := k[len(prefix):]
		if strings.HasSuffix(rest, ".meta") || rest == "suspend" {
			continue
		}
		slots = append(slots, rest)
	}
	sort.Strings(slots)
	return slots, nil
}

// SaveSuspend writes a quick-save under the spec.md §4.8/§6 "-suspend" key.
func SaveSuspend(g *Game, h SaveHandler, gameNID string, meta SaveMetadata, savedAt *timestamppb.Timestamp) error {
	meta.Kind = "suspend"
	snap := SnapshotGame(g, savedAt)
	return saveSnapshotAndMeta(snap, h, suspendKey(gameNID), meta)
}

// LoadSuspend reads back a quick-save and deletes it, per spec.md §4.8:
// "deleted after first successful load".
func LoadSuspend(db *Database, h SaveHandler, gameNID string, rng *rand.Rand) (*Game, *SaveMetadata, error) {
	key := suspendKey(gameNID)
	snap, err := loadSnapshot(h, key)
	if err != nil {
		return nil, nil, err
	}
	meta, err := loadMeta(h, key)
	if err != nil {
		return nil, nil, err
	}
	g, err := RestoreGame(db, snap, rng)
	if err != nil {
		return nil, nil, err
	}
	_ = h.Delete(key)
	_ = h.Delete(metaKey(key))
	return g, meta, nil
}

// HasSuspend reports whether a quick-save currently exists for gameNID.
func HasSuspend(h SaveHandler, gameNID string) (bool, error) {
	keys, err := h.List()
	if err != nil {
		return false, err
	}
	target := suspendKey(gameNID)
	for _, k := range keys {
		if k == target {
			return true, nil
		}
	}
	return false, nil
}
