package engine

// This file collects the named OverlayState constructors SPEC_FULL.md §4.5
// promises: every screen that is conceptually a titled list of options
// reuses the generic OverlayState rather than a bespoke struct per screen
// (the design decision recorded in states.go/DESIGN.md). Each constructor
// just supplies the Title/Options data lib/ui.go would have hard-coded into
// a dedicated screen struct.

// NewInfoMenuState shows a unit's stat block/inventory/skills as a
// read-only overlay; BACK is its only option.
func NewInfoMenuState(unitID UnitId) *OverlayState {
	return &OverlayState{
		Title: "unit_info:" + string(unitID),
		Options: []MenuOption{
			{Label: "close", Action: func(ctx *GameContext) Transition { return Transition{Kind: TransitionBack} }},
		},
	}
}

// NewPrepState is the pre-battle roster/deployment screen: pick units into
// formation slots, then confirm into the level's `free` state.
func NewPrepState(onDeploy func(ctx *GameContext) Transition) *OverlayState {
	return &OverlayState{
		Title: "prep",
		Options: []MenuOption{
			{Label: "deploy", Action: onDeploy},
			{Label: "back", Action: func(ctx *GameContext) Transition { return Transition{Kind: TransitionBack} }},
		},
	}
}

// NewBaseState is the between-chapter hub: convoy, shop, support
// conversations, each wired as a menu option pushing its own overlay.
func NewBaseState(onConvoy, onShop, onSupports, onNextChapter func(ctx *GameContext) Transition) *OverlayState {
	return &OverlayState{
		Title: "base",
		Options: []MenuOption{
			{Label: "convoy", Action: onConvoy},
			{Label: "shop", Action: onShop},
			{Label: "supports", Action: onSupports},
			{Label: "next_chapter", Action: onNextChapter},
		},
	}
}

// NewOverworldState is the chapter-select map between battles.
func NewOverworldState(onSelectChapter func(ctx *GameContext, chapter LevelId) Transition, chapters []LevelId) *OverlayState {
	opts := make([]MenuOption, 0, len(chapters))
	for _, ch := range chapters {
		chapter := ch
		opts = append(opts, MenuOption{
			Label:  "chapter:" + string(chapter),
			Action: func(ctx *GameContext) Transition { return onSelectChapter(ctx, chapter) },
		})
	}
	return &OverlayState{Title: "overworld", Options: opts}
}

// NewRoamState is a free-walk exploration overlay for non-combat map
// segments (talk to NPCs, enter buildings) layered over `free`.
func NewRoamState(onTalk func(ctx *GameContext) Transition) *OverlayState {
	return &OverlayState{
		Title: "roam",
		Options: []MenuOption{
			{Label: "talk", Action: onTalk},
			{Label: "leave", Action: func(ctx *GameContext) Transition { return Transition{Kind: TransitionBack} }},
		},
	}
}

// NewTurnwheelState exposes the action log's rewind/advance/commit controls
// as a menu (spec.md §4.9). The options call Back/Forward/Finalize
// directly; none of them checks ActionLog.CanUse.
func NewTurnwheelState(log *ActionLog) *OverlayState {
	return &OverlayState{
		Title: "turnwheel",
		Options: []MenuOption{
			{Label: "rewind", Action: func(ctx *GameContext) Transition {
				_, _ = log.Back(ctx)
				return Transition{}
			}},
			{Label: "advance", Action: func(ctx *GameContext) Transition {
				_, _ = log.Forward(ctx)
				return Transition{}
			}},
			{Label: "commit", Action: func(ctx *GameContext) Transition {
				log.Finalize()
				return Transition{Kind: TransitionBack}
			}},
		},
	}
}

// NewVictoryState is the end-of-level win banner; its only option proceeds
// to the next state the caller supplies (base, overworld, or credits on a
// final chapter).
func NewVictoryState(onContinue func(ctx *GameContext) Transition) *OverlayState {
	return &OverlayState{
		Title:   "victory",
		Options: []MenuOption{{Label: "continue", Action: onContinue}},
	}
}

// NewGameOverState is the loss banner; its only option restarts the
// chapter from its last save point.
func NewGameOverState(onRetry func(ctx *GameContext) Transition) *OverlayState {
	return &OverlayState{
		Title:   "game_over",
		Options: []MenuOption{{Label: "retry", Action: onRetry}},
	}
}

// NewCreditState is the scrolling credits screen shown after the final
// victory; CONFIRM returns to the title state.
func NewCreditState(onFinish func(ctx *GameContext) Transition) *OverlayState {
	return &OverlayState{
		Title:   "credits",
		Options: []MenuOption{{Label: "finish", Action: onFinish}},
	}
}

// NewSettingsState exposes the handful of runtime-toggleable options the
// core tracks via GameVars (e.g. "unit_speed", "autoend_turn"), keeping
// settings storage-agnostic rather than a bespoke config struct.
func NewSettingsState(ctx *GameContext, keys []string) *OverlayState {
	opts := make([]MenuOption, 0, len(keys)+1)
	for _, k := range keys {
		key := k
		opts = append(opts, MenuOption{
			Label: "toggle:" + key,
			Action: func(ctx *GameContext) Transition {
				if ctx.GameVars[key] == "true" {
					ctx.GameVars[key] = "false"
				} else {
					ctx.GameVars[key] = "true"
				}
				return Transition{}
			},
		})
	}
	opts = append(opts, MenuOption{Label: "close", Action: func(ctx *GameContext) Transition { return Transition{Kind: TransitionBack} }})
	return &OverlayState{Title: "settings", Options: opts}
}

// NewOptionMenuState is the generic phase-menu shown after UnitSelectState
// confirms a destination (attack/item/wait/...), an alias kept for callers
// that want the list built ad hoc rather than via MenuState's richer
// cancel-restores-position behavior.
func NewOptionMenuState(options []MenuOption) *OverlayState {
	return &OverlayState{Title: "option_menu", Options: options}
}

// NewMinimapState is a read-only full-board overview overlay; BACK is its
// only option.
func NewMinimapState() *OverlayState {
	return &OverlayState{
		Title: "minimap",
		Options: []MenuOption{
			{Label: "close", Action: func(ctx *GameContext) Transition { return Transition{Kind: TransitionBack} }},
		},
	}
}
