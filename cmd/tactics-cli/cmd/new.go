package cmd

import (
	"fmt"
	"math/rand"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ashenforge/tacticscore/engine"
)

var newCmd = &cobra.Command{
	Use:   "new <key>",
	Short: "Start the built-in demo scenario under the given save key",
	Args:  cobra.ExactArgs(1),
	RunE:  runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	key := args[0]
	if err := ensureSaveDir(); err != nil {
		return fmt.Errorf("preparing save directory: %w", err)
	}

	db := sampleDatabase()
	level := sampleLevel()
	tilemap := db.Tilemaps[level.TilemapID]

	g, err := engine.NewGame(db, level, tilemap, rand.New(rand.NewSource(1)))
	if err != nil {
		return fmt.Errorf("building new game: %w", err)
	}
	g.Ctx.Turn.TeamOrder = []engine.NID{"player", "enemy"}
	g.Ctx.Turn.WinConditions = []engine.WinCondition{engine.SeizeAchieved("player")}
	g.Ctx.Turn.LossConditions = []engine.LossCondition{engine.AllUnitsOnTeamDead("player")}
	g.Ctx.ActiveTeam = g.Ctx.Turn.ActiveTeam()
	g.Ctx.Log.Finalize()

	if err := saveGame(g.Ctx, key); err != nil {
		return fmt.Errorf("saving new game: %w", err)
	}

	color.New(color.FgGreen, color.Bold).Printf("New game %q started\n", key)
	fmt.Printf("  save: %s\n", savePath(key))
	fmt.Printf("  active team: %s\n", g.Ctx.ActiveTeam)
	return nil
}
