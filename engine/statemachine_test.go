package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingState struct {
	baseState
	name        string
	begun, ended bool
	transparent bool
	next        Transition
	drawLog     *[]string
}

func (s *recordingState) Name() string { return s.name }
func (s *recordingState) Begin(ctx *GameContext) { s.begun = true }
func (s *recordingState) End(ctx *GameContext)   { s.ended = true }
func (s *recordingState) Update(ctx *GameContext) Transition {
	t := s.next
	s.next = Transition{}
	return t
}
func (s *recordingState) Draw(ctx *GameContext, surface DrawSurface) {
	if s.drawLog != nil {
		*s.drawLog = append(*s.drawLog, s.name)
	}
}
func (s *recordingState) Transparent() bool { return s.transparent }

// S4 — deferred transitions: a state stack only mutates between frames,
// never inside Update itself.
func TestStateMachinePushThenBack(t *testing.T) {
	ctx := newTestCtx()
	sm := NewStateMachine(nil)
	root := &recordingState{name: "root"}
	sm.Start(ctx, root)
	assert.True(t, root.begun)

	child := &recordingState{name: "child"}
	root.next = Transition{Kind: TransitionPush, New: []State{child}}
	sm.Update(ctx)
	assert.Equal(t, 2, sm.Depth())
	assert.True(t, child.begun)
	assert.Equal(t, "child", sm.Top().Name())

	child.next = Transition{Kind: TransitionBack}
	sm.Update(ctx)
	assert.Equal(t, 1, sm.Depth())
	assert.True(t, child.ended)
	assert.Equal(t, "root", sm.Top().Name())
}

func TestStateMachineChangeSwapsTop(t *testing.T) {
	ctx := newTestCtx()
	sm := NewStateMachine(nil)
	first := &recordingState{name: "first"}
	sm.Start(ctx, first)

	second := &recordingState{name: "second"}
	first.next = Transition{Kind: TransitionChange, New: []State{second}}
	sm.Update(ctx)

	require.Equal(t, 1, sm.Depth())
	assert.True(t, first.ended)
	assert.True(t, second.begun)
	assert.Equal(t, "second", sm.Top().Name())
}

func TestStateMachineClearResetsStack(t *testing.T) {
	ctx := newTestCtx()
	sm := NewStateMachine(nil)
	a := &recordingState{name: "a"}
	sm.Start(ctx, a)
	b := &recordingState{name: "b"}
	a.next = Transition{Kind: TransitionPush, New: []State{b}}
	sm.Update(ctx)

	fresh := &recordingState{name: "fresh"}
	b.next = Transition{Kind: TransitionClear, New: []State{fresh}}
	sm.Update(ctx)

	assert.Equal(t, 1, sm.Depth())
	assert.Equal(t, "fresh", sm.Top().Name())
}

func TestStateMachineDrawStopsAtFirstOpaque(t *testing.T) {
	ctx := newTestCtx()
	sm := NewStateMachine(nil)
	var log []string

	base := &recordingState{name: "base", drawLog: &log}
	sm.Start(ctx, base)
	overlay := &recordingState{name: "overlay", transparent: true, drawLog: &log}
	base.next = Transition{Kind: TransitionPush, New: []State{overlay}}
	sm.Update(ctx)
	menu := &recordingState{name: "menu", transparent: false, drawLog: &log}
	overlay.next = Transition{Kind: TransitionPush, New: []State{menu}}
	sm.Update(ctx)

	sm.Draw(ctx, noopSurface{})
	assert.Equal(t, []string{"menu"}, log)
}

type noopSurface struct{}

func (noopSurface) DrawSprite(ref string, x, y int)        {}
func (noopSurface) DrawText(text string, x, y int)         {}
func (noopSurface) DrawRect(x, y, w, h int, filled bool)    {}
