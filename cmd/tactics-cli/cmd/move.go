package cmd

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ashenforge/tacticscore/engine"
)

var moveCmd = &cobra.Command{
	Use:   "move <key> <unit> <x> <y>",
	Short: "Move a unit to a tile, recorded through the action log",
	Args:  cobra.ExactArgs(4),
	RunE:  runMove,
}

func init() {
	rootCmd.AddCommand(moveCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	key, unitID := args[0], engine.UnitId(args[1])
	x, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid x: %w", err)
	}
	y, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("invalid y: %w", err)
	}

	db := sampleDatabase()
	ctx, err := loadGame(db, key)
	if err != nil {
		return fmt.Errorf("loading save %q: %w", key, err)
	}

	u, err := ctx.GetUnit(unitID)
	if err != nil {
		return err
	}
	if u.Position == nil {
		return fmt.Errorf("unit %s has no position to move from", unitID)
	}
	from := *u.Position
	to := engine.Coord{X: x, Y: y}
	if err := ctx.Log.Record(ctx, &engine.MoveChange{UnitID: unitID, From: from, To: to}); err != nil {
		return fmt.Errorf("recording move: %w", err)
	}
	u.Flags.HasMoved = true

	if err := saveGame(ctx, key); err != nil {
		return fmt.Errorf("saving: %w", err)
	}
	color.New(color.FgGreen).Printf("%s moved %s -> %s\n", unitID, from, to)
	return nil
}
