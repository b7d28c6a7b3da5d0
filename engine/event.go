package engine

import "strconv"

// TriggerKind is the closed set of conditions that can activate an event
// (spec.md §4.6).
type TriggerKind string

const (
	TriggerTurnStart  TriggerKind = "turn_start"
	TriggerLevelStart TriggerKind = "level_start"
	TriggerUnitDeath  TriggerKind = "unit_death"
	TriggerRegion     TriggerKind = "region_enter"
	TriggerManual     TriggerKind = "manual"
)

// Trigger describes what activates an EventDef and any trigger-specific
// filter (e.g. which region, which unit).
type Trigger struct {
	Kind   TriggerKind
	FilterNID NID
}

// Condition is a single clause in an event's guard expression. Grounded on
// lib/rules_engine.go's data-driven condition evaluation over named
// registers, generalized to the event interpreter's own condition grammar
// (spec.md §4.6 expansion).
type Condition struct {
	Op    string // "unit_alive", "unit_dead", "turn_gte", "flag_set", "has_item", "game_var", "not"
	Arg   string
	Value int
	Sub   *Condition // for "not"

	// Game_var-only fields, mirroring spec.md §4.6's condition grammar:
	// a bare Arg with CmpOp=="" is a truthy lookup in game_vars; CmpOp one
	// of "==","!=",">=","<=",">","<" compares against CmpValue, numerically
	// if both sides parse as numbers, else as strings.
	CmpOp    string
	CmpValue string
}

// Evaluate resolves a single condition against ctx.
func (c Condition) Evaluate(ctx *GameContext) bool {
	switch c.Op {
	case "unit_alive":
		u, err := ctx.GetUnit(UnitId(c.Arg))
		return err == nil && u.Alive()
	case "unit_dead":
		u, err := ctx.GetUnit(UnitId(c.Arg))
		return err == nil && !u.Alive()
	case "turn_gte":
		return ctx.TurnCount >= c.Value
	case "flag_set":
		u, err := ctx.GetUnit(UnitId(c.Arg))
		if err != nil {
			return false
		}
		return unitFlag(u, c.Value)
	case "has_item":
		u, err := ctx.GetUnit(UnitId(c.Arg))
		if err != nil {
			return false
		}
		for _, id := range u.Items {
			if string(id) == c.Arg {
				return true
			}
		}
		return false
	case "game_var":
		return evaluateGameVar(ctx, c.Arg, c.CmpOp, c.CmpValue)
	case "not":
		if c.Sub == nil {
			return true
		}
		return !c.Sub.Evaluate(ctx)
	default:
		return false
	}
}

// evaluateGameVar implements spec.md §4.6's condition grammar over
// game_vars: a bare identifier (cmpOp=="") is a truthy check; otherwise a
// binary comparison, numeric if both sides parse as numbers else string
// comparison.
func evaluateGameVar(ctx *GameContext, key, cmpOp, want string) bool {
	val, ok := ctx.GameVars[key]
	if cmpOp == "" {
		if !ok {
			return false
		}
		return val != "" && val != "0" && val != "false"
	}
	lhsNum, lhsIsNum := parseNumber(val)
	rhsNum, rhsIsNum := parseNumber(want)
	if lhsIsNum && rhsIsNum {
		switch cmpOp {
		case "==":
			return lhsNum == rhsNum
		case "!=":
			return lhsNum != rhsNum
		case ">=":
			return lhsNum >= rhsNum
		case "<=":
			return lhsNum <= rhsNum
		case ">":
			return lhsNum > rhsNum
		case "<":
			return lhsNum < rhsNum
		}
		return false
	}
	switch cmpOp {
	case "==":
		return val == want
	case "!=":
		return val != want
	default:
		return false
	}
}

func parseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func unitFlag(u *Unit, code int) bool {
	switch code {
	case 0:
		return u.Flags.Finished
	case 1:
		return u.Flags.HasMoved
	case 2:
		return u.Flags.HasAttacked
	default:
		return false
	}
}

// EventDef is a scripted sequence: a trigger, a guard (all Conditions must
// hold), and an ordered command list. Grounded on lib/events.go's
// EventManager registration shape, replaced with a command-interpreter VM
// instead of an observer callback (SPEC_FULL §4.6 expansion decision: the
// spec calls for a suspendable script, which an observer callback cannot
// express).
type EventDef struct {
	NID        EventId
	Trigger    Trigger
	Conditions []Condition
	Commands   []EventCommand
	// Priority breaks ties when multiple events are eligible in the same
	// frame; higher runs first. Equal priority falls back to registration
	// order (SPEC_FULL.md §9 open question 4, DESIGN.md OQ2).
	Priority int
	OneShot  bool
}

// eventRun is one in-progress execution of an EventDef's command list.
type eventRun struct {
	def       *EventDef
	pc        int
	waitFrames int
	suspended  bool
}

// EventInterpreter owns the registered event definitions and drives any
// currently-running script on each Update, running commands until one
// suspends the script (speak/wait/transition, spec.md §4.6).
type EventInterpreter struct {
	defs    []*EventDef
	fired   map[EventId]bool
	running []*eventRun
}

// NewEventInterpreter returns an interpreter with no events registered.
func NewEventInterpreter() *EventInterpreter {
	return &EventInterpreter{fired: map[EventId]bool{}}
}

// Register adds an event definition, in call order (registration order is
// the tie-break for equal-priority events — see EventDef.Priority).
func (ei *EventInterpreter) Register(def *EventDef) {
	ei.defs = append(ei.defs, def)
}

// Fire checks every registered, not-yet-fired-if-OneShot event against
// trigger/kind+filter and condition list, queuing any that match for
// execution, highest-priority-number first (spec.md §4.6: "sorted by
// priority descending"), ties broken by registration order (stable sort
// preserves it).
func (ei *EventInterpreter) Fire(ctx *GameContext, kind TriggerKind, filter NID) {
	var matched []*EventDef
	for _, def := range ei.defs {
		if def.Trigger.Kind != kind {
			continue
		}
		if def.Trigger.FilterNID != "" && def.Trigger.FilterNID != filter {
			continue
		}
		if def.OneShot && ei.fired[def.NID] {
			continue
		}
		ok := true
		for _, cond := range def.Conditions {
			if !cond.Evaluate(ctx) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, def)
		}
	}
	stableSortByPriority(matched)
	for _, def := range matched {
		ei.fired[def.NID] = true
		ei.running = append(ei.running, &eventRun{def: def})
	}
}

// stableSortByPriority sorts descending by Priority (highest first),
// preserving registration order among equal priorities (insertion sort is
// stable).
func stableSortByPriority(defs []*EventDef) {
	for i := 1; i < len(defs); i++ {
		for j := i; j > 0 && defs[j-1].Priority < defs[j].Priority; j-- {
			defs[j-1], defs[j] = defs[j], defs[j-1]
		}
	}
}

// Busy reports whether any script is currently running; game states use
// this to block player input during cutscenes (spec.md §4.6).
func (ei *EventInterpreter) Busy() bool {
	return len(ei.running) > 0
}

// Update advances every running script, executing its commands in order
// until one suspends it (speak/wait/transition), and removes
// scripts that reach the end of their command list.
func (ei *EventInterpreter) Update(ctx *GameContext) {
	var still []*eventRun
	for _, run := range ei.running {
		if run.waitFrames > 0 {
			run.waitFrames--
			still = append(still, run)
			continue
		}
		for run.pc < len(run.def.Commands) {
			cmd := run.def.Commands[run.pc]
			run.pc++
			suspend := cmd.Execute(ctx, run)
			if suspend {
				break
			}
		}
		if run.pc < len(run.def.Commands) {
			still = append(still, run)
		}
	}
	ei.running = still
}
