package engine

// EventCommand is one instruction in an EventDef's script. Execute performs
// the command and returns suspend=true if the interpreter should stop
// processing further commands this frame (spec.md §4.6: speak/wait/
// transition commands suspend; everything else runs straight through).
// Grounded on lib/moves.go's ProcessMove dispatcher type-switch pattern,
// generalized from board moves to script commands.
type EventCommand interface {
	Execute(ctx *GameContext, run *eventRun) (suspend bool)
}

// SpeakCommand displays dialogue and suspends until the host program
// advances it (a real UI would resume on player confirm; headless
// callers/tests call run's resume by simply re-invoking Update, which
// treats a zero WaitFrames speak as advancing next tick once executed).
type SpeakCommand struct {
	SpeakerID NID
	Text      string
}

func (c *SpeakCommand) Execute(ctx *GameContext, run *eventRun) bool {
	ctx.Logger.Info("event speak", "speaker", c.SpeakerID, "text", c.Text)
	return true
}

// WaitCommand pauses script execution for a fixed number of frames.
type WaitCommand struct {
	Frames int
}

func (c *WaitCommand) Execute(ctx *GameContext, run *eventRun) bool {
	run.waitFrames = c.Frames
	return true
}

// TransitionCommand requests a fade or map transition; the interpreter
// itself never owns a StateMachine, so it just plays the cue through the
// AudioSink and suspends one frame, leaving the actual push/change to whichever State is driving
// this interpreter (spec.md §4.6: event scripts can trigger transitions,
// but the state stack is the StateMachine's responsibility).
type TransitionCommand struct {
	CueNID NID
}

func (c *TransitionCommand) Execute(ctx *GameContext, run *eventRun) bool {
	ctx.Audio.Play(AudioCue{NID: c.CueNID})
	return true
}

// GiveItemCommand registers an item instance and adds it to a unit's
// inventory (spec.md §4.6 expansion). It has no convoy path: when UnitID
// names no unit, the item is only registered in ctx.Items. Grounded on
// lib/changes.go's inventory-mutation branch.
type GiveItemCommand struct {
	UnitID UnitId
	Item   *Item
}

func (c *GiveItemCommand) Execute(ctx *GameContext, run *eventRun) bool {
	ctx.Items[c.Item.NID] = c.Item
	u, err := ctx.GetUnit(c.UnitID)
	if err != nil {
		return false
	}
	owner := c.UnitID
	c.Item.Owner = &owner
	change := &ItemTransferChange{ItemID: c.Item.NID, FromUnit: nil, ToUnit: &owner}
	_ = ctx.Log.Record(ctx, change)
	_ = u
	return false
}

// GiveSkillCommand attaches a skill to a unit (SPEC_FULL §4.6 expansion —
// supplements the distilled spec's item-focused reward commands with the
// skill-granting event command a scripted tactics game needs for
// story-driven unlocks).
type GiveSkillCommand struct {
	UnitID  UnitId
	SkillID SkillId
}

func (c *GiveSkillCommand) Execute(ctx *GameContext, run *eventRun) bool {
	u, err := ctx.GetUnit(c.UnitID)
	if err != nil {
		return false
	}
	for _, existing := range u.Skills {
		if existing == c.SkillID {
			return false
		}
	}
	u.Skills = append(u.Skills, c.SkillID)
	return false
}

// ReinforceCommand activates a pre-staged UnitGroup, spawning each of its
// units onto the board (SPEC_FULL §4.6 expansion, grounded on
// lib/moves.go's ProcessBuildUnit).
type ReinforceCommand struct {
	Group *UnitGroup
	Units map[UnitId]*Unit // pre-built unit instances keyed by spec NID
}

func (c *ReinforceCommand) Execute(ctx *GameContext, run *eventRun) bool {
	for _, spec := range c.Group.Units {
		u, ok := c.Units[spec.UnitNID]
		if !ok {
			continue
		}
		pos := spec.Coord
		u.Position = &pos
		u.Team = spec.Team
		change := &SpawnChange{Unit: u}
		_ = ctx.Log.Record(ctx, change)
	}
	return false
}

// SetTileCommand changes one tile's terrain (spec.md §4.6 expansion).
type SetTileCommand struct {
	Coord     Coord
	TerrainID NID
}

func (c *SetTileCommand) Execute(ctx *GameContext, run *eventRun) bool {
	_ = ctx.Board.SetTerrain(c.Coord, c.TerrainID)
	return false
}

// RemoveRegionCommand deletes a region (e.g. a village once visited).
type RemoveRegionCommand struct {
	RegionID RegionId
}

func (c *RemoveRegionCommand) Execute(ctx *GameContext, run *eventRun) bool {
	ctx.Board.RemoveRegion(c.RegionID)
	return false
}

// AddRegionCommand stages a new region (spec.md §6 `add_region`), e.g. an
// event unlocking a new seize point mid-scenario.
type AddRegionCommand struct {
	Region Region
}

func (c *AddRegionCommand) Execute(ctx *GameContext, run *eventRun) bool {
	ctx.Board.AddRegion(c.Region)
	return false
}

// SetGameVarCommand writes a key/value into the Game Context's game_vars
// store, the substrate the game_var condition grammar reads
// (spec.md §4.6 `set_game_var`).
type SetGameVarCommand struct {
	Key   string
	Value string
}

func (c *SetGameVarCommand) Execute(ctx *GameContext, run *eventRun) bool {
	ctx.GameVars[c.Key] = c.Value
	return false
}

// WinGameCommand/LoseGameCommand set the level_vars finalization flags
// spec.md §4.6 reads once the active event completes ("`_win_game`"/
// "`_lose_game`").
type WinGameCommand struct{}

func (c *WinGameCommand) Execute(ctx *GameContext, run *eventRun) bool {
	ctx.LevelVars["_win_game"] = "true"
	return false
}

type LoseGameCommand struct{}

func (c *LoseGameCommand) Execute(ctx *GameContext, run *eventRun) bool {
	ctx.LevelVars["_lose_game"] = "true"
	return false
}

// MusicCommand/SoundCommand request audio cues through the Game Context's
// AudioSink seam (spec.md §6 `music`/`sound`) — the core never depends on a
// concrete audio backend (spec.md §1 Non-goal: audio playback).
type MusicCommand struct {
	CueNID NID
}

func (c *MusicCommand) Execute(ctx *GameContext, run *eventRun) bool {
	ctx.Audio.Play(AudioCue{NID: c.CueNID, Loop: true})
	return false
}

type SoundCommand struct {
	CueNID NID
}

func (c *SoundCommand) Execute(ctx *GameContext, run *eventRun) bool {
	ctx.Audio.Play(AudioCue{NID: c.CueNID})
	return false
}

// AddPortraitCommand/RemovePortraitCommand request a speaker portrait be
// shown/hidden during a cutscene; rendering is out of scope (spec.md §1),
// so the core only logs the cue for a host renderer to pick up.
type AddPortraitCommand struct {
	PortraitNID NID
	Position    string
	NoBlock     bool
}

func (c *AddPortraitCommand) Execute(ctx *GameContext, run *eventRun) bool {
	ctx.Logger.Info("event add_portrait", "portrait", c.PortraitNID, "position", c.Position)
	return !c.NoBlock
}

type RemovePortraitCommand struct {
	PortraitNID NID
}

func (c *RemovePortraitCommand) Execute(ctx *GameContext, run *eventRun) bool {
	ctx.Logger.Info("event remove_portrait", "portrait", c.PortraitNID)
	return false
}

// SetCurrentHPCommand sets a unit's current HP directly (spec.md §6
// `set_current_hp`), clamped to [0, hp_max] and marking death at 0 exactly
// like combat damage does.
type SetCurrentHPCommand struct {
	UnitID UnitId
	Value  int
}

func (c *SetCurrentHPCommand) Execute(ctx *GameContext, run *eventRun) bool {
	u, err := ctx.GetUnit(c.UnitID)
	if err != nil {
		return false
	}
	hp := c.Value
	if hp < 0 {
		hp = 0
	}
	if hp > u.Stats.HPMax {
		hp = u.Stats.HPMax
	}
	u.CurrentHP = hp
	u.Flags.Dead = hp <= 0
	return false
}

// AddUnitCommand spawns a single unit onto the board directly, distinct from
// ReinforceCommand's whole-group activation (spec.md §6 `add_unit`).
type AddUnitCommand struct {
	Unit  *Unit
	Coord Coord
	Team  NID
}

func (c *AddUnitCommand) Execute(ctx *GameContext, run *eventRun) bool {
	c.Unit.Team = c.Team
	pos := c.Coord
	c.Unit.Position = &pos
	_ = ctx.Log.Record(ctx, &SpawnChange{Unit: c.Unit})
	return false
}

// RemoveUnitCommand takes a unit out of play without marking it dead (e.g.
// a scripted retreat), distinct from a combat death (spec.md §6
// `remove_unit`).
type RemoveUnitCommand struct {
	UnitID UnitId
}

func (c *RemoveUnitCommand) Execute(ctx *GameContext, run *eventRun) bool {
	u, err := ctx.GetUnit(c.UnitID)
	if err != nil {
		return false
	}
	if u.Position != nil {
		ctx.Board.RemoveUnitAt(*u.Position)
	}
	delete(ctx.Units, c.UnitID)
	return false
}

// MoveUnitCommand teleports a unit to a tile without a movement animation
// (spec.md §6 `move_unit`), grounded on the same Board.MoveUnit primitive
// the `move` game state drives frame-by-frame.
type MoveUnitCommand struct {
	UnitID UnitId
	To     Coord
}

func (c *MoveUnitCommand) Execute(ctx *GameContext, run *eventRun) bool {
	u, err := ctx.GetUnit(c.UnitID)
	if err != nil || u.Position == nil {
		return false
	}
	_ = ctx.Log.Record(ctx, &MoveChange{UnitID: c.UnitID, From: *u.Position, To: c.To})
	return false
}

// GiveMoneyCommand adds to a party's money pool (spec.md §6 `give_money`).
type GiveMoneyCommand struct {
	PartyID PartyId
	Amount  int
}

func (c *GiveMoneyCommand) Execute(ctx *GameContext, run *eventRun) bool {
	p, err := ctx.GetParty(c.PartyID)
	if err != nil {
		return false
	}
	p.Money += c.Amount
	return false
}

// ChangeTeamCommand switches a unit's team (spec.md §6 `change_team`), e.g.
// a recruitable enemy joining the player on defeat.
type ChangeTeamCommand struct {
	UnitID  UnitId
	NewTeam NID
}

func (c *ChangeTeamCommand) Execute(ctx *GameContext, run *eventRun) bool {
	u, err := ctx.GetUnit(c.UnitID)
	if err != nil {
		return false
	}
	u.Team = c.NewTeam
	return false
}

// MapAnimCommand plays a one-shot map animation at a tile (spec.md §6
// `map_anim`); rendering itself is out of scope, so this only logs the cue.
type MapAnimCommand struct {
	AnimNID NID
	Coord   Coord
}

func (c *MapAnimCommand) Execute(ctx *GameContext, run *eventRun) bool {
	ctx.Logger.Info("event map_anim", "anim", c.AnimNID, "x", c.Coord.X, "y", c.Coord.Y)
	return false
}

// ChangeObjectiveCommand updates the level's displayed objective text
// (spec.md §6 `change_objective`); stored on LevelVars since Level itself
// is read-only game data, not runtime state.
type ChangeObjectiveCommand struct {
	Simple, Win, Loss string
}

func (c *ChangeObjectiveCommand) Execute(ctx *GameContext, run *eventRun) bool {
	ctx.LevelVars["_objective_simple"] = c.Simple
	ctx.LevelVars["_objective_win"] = c.Win
	ctx.LevelVars["_objective_loss"] = c.Loss
	return false
}

// EndSkipCommand marks the point past which a player "skip cutscene"
// request stops fast-forwarding (spec.md §6 `end_skip`); the interpreter
// itself has no skip-speed concept, so Execute does nothing and never
// suspends.
type EndSkipCommand struct{}

func (c *EndSkipCommand) Execute(ctx *GameContext, run *eventRun) bool {
	return false
}
