package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ashenforge/tacticscore/engine"
)

// Console is a headless frame-by-frame driver for a tactics engine
// StateMachine, grounded on turnforge-weewar's CLI struct (a readline
// instance plus a command dispatch table over a loaded game).
type Console struct {
	key      string
	ctx      *engine.GameContext
	machine  *engine.StateMachine
	readline *readline.Instance
}

// NewConsole loads (or creates) the save under key and wires a
// StateMachine started on FreeState for the active team.
func NewConsole(key string) (*Console, error) {
	db := sampleDatabase()
	saveDir := defaultSaveDir()
	handler := engine.NewFileSaveHandler(saveDir)

	var ctx *engine.GameContext
	if data, err := handler.Load(key); err == nil {
		snap, err := engine.UnmarshalSnapshot(data)
		if err != nil {
			return nil, fmt.Errorf("parsing save %q: %w", key, err)
		}
		ctx, err = engine.Restore(db, snap, rand.New(rand.NewSource(1)))
		if err != nil {
			return nil, fmt.Errorf("restoring save %q: %w", key, err)
		}
	} else {
		level := sampleLevel()
		g, err := engine.NewGame(db, level, db.Tilemaps[level.TilemapID], rand.New(rand.NewSource(1)))
		if err != nil {
			return nil, fmt.Errorf("building new game: %w", err)
		}
		g.Ctx.Turn.TeamOrder = []engine.NID{"player", "enemy"}
		g.Ctx.ActiveTeam = g.Ctx.Turn.ActiveTeam()
		ctx = g.Ctx
	}

	machine := engine.NewStateMachine(ctx.Logger)
	machine.Start(ctx, &engine.FreeState{Team: ctx.ActiveTeam})

	historyFile := filepath.Join(saveDir, ".tactics_repl_history")
	completer := readline.NewPrefixCompleter(
		readline.PcItem("state"),
		readline.PcItem("stack"),
		readline.PcItem("frame"),
		readline.PcItem("push"),
		readline.PcItem("pick"),
		readline.PcItem("cancel"),
		readline.PcItem("units"),
		readline.PcItem("endturn"),
		readline.PcItem("save"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:              fmt.Sprintf("tactics[%s]> ", key),
		HistoryFile:         historyFile,
		AutoComplete:        completer,
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, fmt.Errorf("creating readline: %w", err)
	}

	return &Console{key: key, ctx: ctx, machine: machine, readline: rl}, nil
}

func filterInput(r rune) (rune, bool) {
	if r == readline.CharCtrlZ {
		return r, false
	}
	return r, true
}

func (c *Console) Close() error {
	if c.readline != nil {
		return c.readline.Close()
	}
	return nil
}

func defaultSaveDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tactics", "saves")
}

func sampleDatabase() *engine.Database {
	db := engine.NewDatabase()
	db.Classes["lord"] = &engine.ClassDef{NID: "lord", Name: "Lord", MovementGroup: "foot", Base: engine.Stats{HPMax: 20, Str: 8, Skl: 8, Spd: 8, Lck: 5, Def: 4, Res: 2, Con: 9, Mov: 5}}
	db.Classes["soldier"] = &engine.ClassDef{NID: "soldier", Name: "Soldier", MovementGroup: "foot", Base: engine.Stats{HPMax: 22, Str: 7, Skl: 6, Spd: 6, Lck: 4, Def: 6, Res: 1, Con: 11, Mov: 4}}
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
	return db
}

func sampleLevel() *engine.Level {
	return &engine.Level{
		NID: "demo1", Name: "Demo Skirmish", TilemapID: "demo_map", PartyID: "main",
		UnitsSpec: []engine.UnitSpec{
			{UnitNID: "lord", Team: "player", Coord: engine.Coord{X: 0, Y: 0}},
			{UnitNID: "grunt", Team: "enemy", Coord: engine.Coord{X: 5, Y: 5}},
		},
	}
}

// Execute parses and runs one console command, returning its text reply.
func (c *Console) Execute(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "empty command"
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "state":
		return c.cmdState()
	case "stack":
		return c.cmdStack()
	case "frame":
		return c.cmdFrame()
	case "push":
		return c.cmdPush(args)
	case "pick":
		return c.cmdPick(args)
	case "cancel":
		return c.cmdCancel()
	case "units":
		return c.cmdUnits()
	case "endturn":
		return c.cmdEndTurn()
	case "save":
		return c.cmdSave()
	case "help":
		showHelp()
		return ""
	case "quit", "exit":
		return "quit"
	default:
		return fmt.Sprintf("unknown command %q (try 'help')", name)
	}
}

func (c *Console) cmdState() string {
	top := c.machine.Top()
	if top == nil {
		return "stack is empty"
	}
	return fmt.Sprintf("%s (depth %d, transparent=%v)", top.Name(), c.machine.Depth(), top.Transparent())
}

func (c *Console) cmdStack() string {
	states := c.machine.States()
	var sb strings.Builder
	for i := len(states) - 1; i >= 0; i-- {
		sb.WriteString(fmt.Sprintf("  [%d] %s (transparent=%v)\n", i, states[i].Name(), states[i].Transparent()))
	}
	return sb.String()
}

func (c *Console) cmdFrame() string {
	depthBefore := c.machine.Depth()
	top := c.machine.Top()
	if top == nil {
		return "stack is empty, nothing to update"
	}
	name := top.Name()
	c.machine.Update(c.ctx)
	return fmt.Sprintf("stepped %s (depth %d -> %d)", name, depthBefore, c.machine.Depth())
}

func (c *Console) cmdPush(args []string) string {
	if len(args) < 1 || args[0] != "menu" {
		return "usage: push menu <label...>"
	}
	labels := args[1:]
	if len(labels) == 0 {
		return "push menu requires at least one option label"
	}
	opts := make([]engine.MenuOption, 0, len(labels))
	for _, l := range labels {
		label := l
		opts = append(opts, engine.MenuOption{Label: label, Action: func(ctx *engine.GameContext) engine.Transition {
			return engine.Transition{Kind: engine.TransitionBack}
		}})
	}
	menu := &engine.MenuState{Options: opts}
	c.machine.Update(c.ctx) // settle any pending transition before a manual push
	pushMenu(c.machine, c.ctx, menu)
	return fmt.Sprintf("pushed menu with %d options", len(opts))
}

// pushMenu emulates what a caller state's Update would normally return as a
// TransitionPush, for direct console-driven testing of a state in
// isolation.
func pushMenu(m *engine.StateMachine, ctx *engine.GameContext, s *engine.MenuState) {
	wrapper := &pushOnce{target: s}
	m.Start(ctx, wrapper)
}

// pushOnce is a console-only adapter state whose first Update requests a
// push of the wrapped state, then pops itself.
type pushOnce struct {
	target engine.State
	done   bool
}

func (p *pushOnce) Name() string                                   { return "push_once" }
func (p *pushOnce) Begin(ctx *engine.GameContext)                  {}
func (p *pushOnce) End(ctx *engine.GameContext)                    {}
func (p *pushOnce) Transparent() bool                              { return true }
func (p *pushOnce) Draw(ctx *engine.GameContext, s engine.DrawSurface) {}
func (p *pushOnce) Update(ctx *engine.GameContext) engine.Transition {
	if p.done {
		return engine.Transition{Kind: engine.TransitionBack}
	}
	p.done = true
	return engine.Transition{Kind: engine.TransitionPush, New: []engine.State{p.target}}
}

func (c *Console) cmdPick(args []string) string {
	if len(args) != 1 {
		return "usage: pick <n>"
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Sprintf("invalid option index: %v", err)
	}
	top := c.machine.Top()
	menu, ok := top.(*engine.MenuState)
	if !ok {
		return fmt.Sprintf("top state %q is not a menu", top.Name())
	}
	menu.Pick(n)
	c.machine.Update(c.ctx)
	return fmt.Sprintf("picked option %d", n)
}

func (c *Console) cmdCancel() string {
	top := c.machine.Top()
	switch s := top.(type) {
	case *engine.MenuState:
		s.Cancel()
	case *engine.TargetingState:
		s.Cancel()
	default:
		return fmt.Sprintf("top state %q does not support cancel", top.Name())
	}
	c.machine.Update(c.ctx)
	return "canceled"
}

func (c *Console) cmdUnits() string {
	var sb strings.Builder
	for _, id := range sortedIDs(c.ctx) {
		u := c.ctx.Units[id]
		pos := "unplaced"
		if u.Position != nil {
			pos = u.Position.String()
		}
		sb.WriteString(fmt.Sprintf("  %s [%s] HP %d/%d at %s\n", u.NID, u.Team, u.CurrentHP, u.Stats.HPMax, pos))
	}
	return sb.String()
}

func sortedIDs(ctx *engine.GameContext) []engine.UnitId {
	ids := make([]engine.UnitId, 0, len(ctx.Units))
	for id := range ctx.Units {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	return ids
}

func (c *Console) cmdEndTurn() string {
	c.ctx.Log.Finalize()
	previous := c.ctx.ActiveTeam
	outcome := c.ctx.Turn.EndPhase(c.ctx)
	c.ctx.ActiveTeam = c.ctx.Turn.ActiveTeam()
	c.ctx.TurnCount = c.ctx.Turn.TurnNumber

	c.machine = engine.NewStateMachine(c.ctx.Logger)
	c.machine.Start(c.ctx, &engine.FreeState{Team: c.ctx.ActiveTeam})

	msg := fmt.Sprintf("turn ended for %s, now %s's turn (turn %d)", previous, c.ctx.ActiveTeam, c.ctx.TurnCount)
	if outcome.Won {
		msg += "\nVICTORY"
	}
	if outcome.Lost {
		msg += "\nDEFEAT"
	}
	return msg
}

func (c *Console) cmdSave() string {
	handler := engine.NewFileSaveHandler(defaultSaveDir())
	if err := os.MkdirAll(defaultSaveDir(), 0o755); err != nil {
		return fmt.Sprintf("failed to prepare save directory: %v", err)
	}
	if err := engine.SaveGame(c.ctx, handler, c.key, nil); err != nil {
		return fmt.Sprintf("save failed: %v", err)
	}
	return fmt.Sprintf("saved as %q", c.key)
}
