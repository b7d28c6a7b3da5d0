package engine

import "log/slog"

// Transition is the deferred effect a State's Update requests; the stack
// itself is only mutated between frames by the StateMachine driver, never
// inside Update (spec.md §4.4 invariant: no reentrant stack mutation).
type Transition struct {
	Kind TransitionKind
	New  []State
}

type TransitionKind int

const (
	TransitionNone TransitionKind = iota
	TransitionPush
	TransitionChange // pop current, push New
	TransitionBack   // pop current only
	TransitionClear  // pop everything, push New
)

// State is one entry on the state stack. Begin/End fire exactly once on
// push/pop; Update runs once per frame while the state is topmost (or,
// if Transparent, while layered under a transparent state above it, in
// draw only — Update always targets just the top). Grounded on
// lib/game_interface.go's GameStatus-driven dispatch, generalized into a
// proper pushdown-automaton state stack (SPEC_FULL §4.4/§4.5 expansion).
type State interface {
	Name() string
	Begin(ctx *GameContext)
	End(ctx *GameContext)
	Update(ctx *GameContext) Transition
	Draw(ctx *GameContext, surface DrawSurface)
	// Transparent reports whether the state below this one in the stack
	// should still be drawn beneath it (e.g. a menu overlay).
	Transparent() bool
}

// StateMachine owns the state stack and applies transitions between
// frames. Grounded on lib/core.go's top-level game loop driving a single
// current state, generalized to the full push/pop/change/clear surface.
type StateMachine struct {
	stack []State
	log   *slog.Logger
}

// NewStateMachine returns an empty machine; call Start to push the first
// state.
func NewStateMachine(log *slog.Logger) *StateMachine {
	if log == nil {
		log = NewLogger()
	}
	return &StateMachine{log: log}
}

// Start pushes the initial state, firing its Begin.
func (m *StateMachine) Start(ctx *GameContext, s State) {
	m.stack = append(m.stack, s)
	s.Begin(ctx)
}

// Top returns the current topmost state, or nil if the stack is empty.
func (m *StateMachine) Top() State {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

// Depth returns the number of states on the stack.
func (m *StateMachine) Depth() int { return len(m.stack) }

// States returns a copy of the stack, bottom first, for introspection
// tools (e.g. a REPL) that need to display more than just the top.
func (m *StateMachine) States() []State {
	return append([]State(nil), m.stack...)
}

// Update runs the topmost state's Update once and applies the transition it
// requests, in order: End() calls for popped states before Begin() calls
// for pushed states (spec.md §4.4 ordering invariant).
func (m *StateMachine) Update(ctx *GameContext) {
	top := m.Top()
	if top == nil {
		return
	}
	t := top.Update(ctx)
	switch t.Kind {
	case TransitionNone:
		return
	case TransitionPush:
		for _, s := range t.New {
			m.stack = append(m.stack, s)
			s.Begin(ctx)
		}
	case TransitionChange:
		m.pop(ctx)
		for _, s := range t.New {
			m.stack = append(m.stack, s)
			s.Begin(ctx)
		}
	case TransitionBack:
		m.pop(ctx)
	case TransitionClear:
		for len(m.stack) > 0 {
			m.pop(ctx)
		}
		for _, s := range t.New {
			m.stack = append(m.stack, s)
			s.Begin(ctx)
		}
	}
}

func (m *StateMachine) pop(ctx *GameContext) {
	if len(m.stack) == 0 {
		return
	}
	top := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	top.End(ctx)
}

// Draw walks the stack down from the top while states are transparent,
// stopping at the first non-transparent state, then draws from that state
// up to the top (spec.md §4.4 transparency composition rule), grounded on
// lib/canvas_renderer.go's layered draw order.
func (m *StateMachine) Draw(ctx *GameContext, surface DrawSurface) {
	firstOpaque := 0
	for i := len(m.stack) - 1; i >= 0; i-- {
		firstOpaque = i
		if !m.stack[i].Transparent() {
			break
		}
	}
	for i := firstOpaque; i < len(m.stack); i++ {
		m.stack[i].Draw(ctx, surface)
	}
}
