package engine

// WorldChange is a tagged-union undoable mutation, the unit of the action
// log ("turnwheel" in spec.md glossary). Grounded directly on
// lib/changes.go's ApplyChanges/applyWorldChange dispatch, generalized from
// its fixed proto oneof to a Go interface + type switch (SPEC_FULL §4.9
// expansion).
type WorldChange interface {
	// Apply performs the forward mutation against ctx.
	Apply(ctx *GameContext) error
	// Undo performs the exact inverse of Apply.
	Undo(ctx *GameContext) error
	// Kind names the change for logging/debugging.
	Kind() string
}

// MoveChange records a unit's displacement.
type MoveChange struct {
	UnitID   UnitId
	From, To Coord
}

func (c *MoveChange) Kind() string { return "move" }

func (c *MoveChange) Apply(ctx *GameContext) error {
	u, err := ctx.GetUnit(c.UnitID)
	if err != nil {
		return err
	}
	if err := ctx.Board.MoveUnit(c.UnitID, c.From, c.To); err != nil {
		return err
	}
	to := c.To
	u.Position = &to
	return nil
}

func (c *MoveChange) Undo(ctx *GameContext) error {
	u, err := ctx.GetUnit(c.UnitID)
	if err != nil {
		return err
	}
	if err := ctx.Board.MoveUnit(c.UnitID, c.To, c.From); err != nil {
		return err
	}
	from := c.From
	u.Position = &from
	return nil
}

// DamageChange records HP lost/gained by a unit (combat, healing, DoT).
type DamageChange struct {
	UnitID UnitId
	Amount int // positive = damage, negative = healing

	// applied is the HP change Apply actually made after clamping, so Undo
	// restores the exact prior HP.
	applied int
}

func (c *DamageChange) Kind() string { return "damage" }

func (c *DamageChange) Apply(ctx *GameContext) error {
	u, err := ctx.GetUnit(c.UnitID)
	if err != nil {
		return err
	}
	before := u.CurrentHP
	u.CurrentHP -= c.Amount
	if u.CurrentHP < 0 {
		u.CurrentHP = 0
	}
	if u.CurrentHP > u.Stats.HPMax {
		u.CurrentHP = u.Stats.HPMax
	}
	c.applied = before - u.CurrentHP
	if u.CurrentHP <= 0 {
		u.Flags.Dead = true
	}
	return nil
}

func (c *DamageChange) Undo(ctx *GameContext) error {
	u, err := ctx.GetUnit(c.UnitID)
	if err != nil {
		return err
	}
	u.CurrentHP += c.applied
	if u.CurrentHP > 0 {
		u.Flags.Dead = false
	}
	if u.CurrentHP > u.Stats.HPMax {
		u.CurrentHP = u.Stats.HPMax
	}
	return nil
}

// FlagChange records a unit-flag transition (finished/has_moved/...).
type FlagChange struct {
	UnitID  UnitId
	Field   string
	OldVal  bool
	NewVal  bool
}

func (c *FlagChange) Kind() string { return "flag" }

func (c *FlagChange) setFlag(ctx *GameContext, val bool) error {
	u, err := ctx.GetUnit(c.UnitID)
	if err != nil {
		return err
	}
	switch c.Field {
	case "finished":
		u.Flags.Finished = val
	case "has_moved":
		u.Flags.HasMoved = val
	case "has_attacked":
		u.Flags.HasAttacked = val
	case "has_traded":
		u.Flags.HasTraded = val
	case "dead":
		u.Flags.Dead = val
	case "has_canto":
		u.Flags.HasCanto = val
	}
	return nil
}

func (c *FlagChange) Apply(ctx *GameContext) error { return c.setFlag(ctx, c.NewVal) }
func (c *FlagChange) Undo(ctx *GameContext) error  { return c.setFlag(ctx, c.OldVal) }

// ItemTransferChange moves an item between a unit's inventory and the
// convoy, or between two units (trade), grounded on lib/changes.go's
// inventory-mutation branch of applyWorldChange.
type ItemTransferChange struct {
	ItemID       ItemId
	FromUnit     *UnitId // nil => convoy
	ToUnit       *UnitId // nil => convoy
}

func (c *ItemTransferChange) Kind() string { return "item_transfer" }

func (c *ItemTransferChange) move(ctx *GameContext, from, to *UnitId) error {
	item, err := ctx.GetItem(c.ItemID)
	if err != nil {
		return err
	}
	if from != nil {
		if u, err := ctx.GetUnit(*from); err == nil {
			u.Items = removeItem(u.Items, c.ItemID)
		}
	}
	if to != nil {
		if u, err := ctx.GetUnit(*to); err == nil {
			u.Items = append(u.Items, c.ItemID)
		}
	}
	item.Owner = to
	return nil
}

func (c *ItemTransferChange) Apply(ctx *GameContext) error {
	return c.move(ctx, c.FromUnit, c.ToUnit)
}

func (c *ItemTransferChange) Undo(ctx *GameContext) error {
	return c.move(ctx, c.ToUnit, c.FromUnit)
}

func removeItem(items []ItemId, target ItemId) []ItemId {
	out := items[:0]
	for _, id := range items {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// SpawnChange records a unit entering/leaving play (reinforcement or death
// removal), grounded on lib/moves.go's ProcessBuildUnit.
type SpawnChange struct {
	Unit *Unit
}

func (c *SpawnChange) Kind() string { return "spawn" }

func (c *SpawnChange) Apply(ctx *GameContext) error {
	ctx.Units[c.Unit.NID] = c.Unit
	if c.Unit.Position != nil {
		return ctx.Board.SetUnit(*c.Unit.Position, c.Unit.NID)
	}
	return nil
}

func (c *SpawnChange) Undo(ctx *GameContext) error {
	if c.Unit.Position != nil {
		ctx.Board.RemoveUnitAt(*c.Unit.Position)
	}
	delete(ctx.Units, c.Unit.NID)
	return nil
}

// logEntry bundles the changes produced by one player/script action so they
// replay and rewind atomically (spec.md §4.8 "one entry per action"
// invariant).
type logEntry struct {
	changes  []WorldChange
	finalized bool
}

// ActionLog is the history of every WorldChange recorded since the last
// Reset (entries committed by Finalize stay in it, but can no longer be
// undone), implementing the turnwheel's forward/backward
// navigation (spec.md §4.8). Grounded on lib/changes.go's ApplyChanges,
// generalized from a single flat list into entry-grouped forward/backward
// cursor navigation.
type ActionLog struct {
	entries []logEntry
	cursor  int // index of the next entry Forward() would apply; entries[:cursor] are applied

	recording bool
	// Locked becomes true once the player has rewound at least one action
	// this turnwheel session, enabling the SELECT-to-finalize affordance
	// (spec.md §4.9).
	Locked bool
	// UsesRemaining gates CanUse; -1 means unlimited.
	UsesRemaining int
}

// NewActionLog returns an empty log with unlimited turnwheel uses.
func NewActionLog() *ActionLog {
	return &ActionLog{recording: true, UsesRemaining: -1}
}

// StartRecording/StopRecording toggle whether Record mutates the log,
// so the turnwheel state's own cursor navigation through past turns isn't
// itself recorded as an undoable action (spec.md §4.9).
func (l *ActionLog) StartRecording() { l.recording = true }
func (l *ActionLog) StopRecording()  { l.recording = false }

// CanUse reports whether the turnwheel may currently rewind: the player
// must have already turned back at least one action, and uses must remain
// (spec.md §4.9: `locked && uses_remaining != 0`).
func (l *ActionLog) CanUse() bool {
	return l.Locked && l.UsesRemaining != 0
}

// Record applies each change in order and appends them as one new entry,
// truncating any entries after the cursor (a new action after rewinding
// discards the undone future — spec.md §4.8 edge case).
func (l *ActionLog) Record(ctx *GameContext, changes ...WorldChange) error {
	if !l.recording {
		for _, c := range changes {
			if err := c.Apply(ctx); err != nil {
				return err
			}
		}
		return nil
	}
	l.entries = l.entries[:l.cursor]
	for _, c := range changes {
		if err := c.Apply(ctx); err != nil {
			return err
		}
	}
	l.entries = append(l.entries, logEntry{changes: changes})
	l.cursor++
	return nil
}

// Back undoes the most recently applied, non-finalized entry, moving the
// cursor back one. Returns false if there is nothing to undo (cursor at a
// finalized boundary or the start of the log) — spec.md §4.8 turnwheel
// restriction: finalized entries are permanent.
func (l *ActionLog) Back(ctx *GameContext) (bool, error) {
	if l.cursor == 0 {
		return false, nil
	}
	entry := l.entries[l.cursor-1]
	if entry.finalized {
		return false, nil
	}
	for i := len(entry.changes) - 1; i >= 0; i-- {
		if err := entry.changes[i].Undo(ctx); err != nil {
			return false, err
		}
	}
	l.cursor--
	l.Locked = true
	if l.UsesRemaining > 0 {
		l.UsesRemaining--
	}
	return true, nil
}

// Forward re-applies the entry just ahead of the cursor, if any (redo).
func (l *ActionLog) Forward(ctx *GameContext) (bool, error) {
	if l.cursor >= len(l.entries) {
		return false, nil
	}
	entry := l.entries[l.cursor]
	for _, c := range entry.changes {
		if err := c.Apply(ctx); err != nil {
			return false, err
		}
	}
	l.cursor++
	return true, nil
}

// Finalize commits the currently rewound position as the new present: every
// entry up to the cursor becomes permanent, and any "future" entries left
// ahead of the cursor by an earlier Back (which Forward could otherwise
// redo into) are dropped for good (spec.md §4.8: "commit the currently
// rewound position as the new present; drop the 'future' entries").
func (l *ActionLog) Finalize() {
	l.entries = l.entries[:l.cursor]
	for i := range l.entries {
		l.entries[i].finalized = true
	}
	l.Locked = false
}

// Reset discards the entire log, including finalized entries (used when
// starting a new level/chapter). It does not re-apply entries that an
// earlier Back left ahead of the cursor: the world stays at the rewound
// position, and those entries can no longer be redone.
func (l *ActionLog) Reset() {
	l.entries = nil
	l.cursor = 0
	l.Locked = false
}

// CanRewind reports whether Back would currently do anything.
func (l *ActionLog) CanRewind() bool {
	return l.cursor > 0 && !l.entries[l.cursor-1].finalized
}

// Len returns how many entries have ever been recorded (including future
// ones a Back left ahead of the cursor).
func (l *ActionLog) Len() int { return len(l.entries) }
