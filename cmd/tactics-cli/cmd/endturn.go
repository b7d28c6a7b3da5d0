package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var endturnCmd = &cobra.Command{
	Use:   "endturn <key>",
	Short: "End the active team's phase and advance to the next",
	Args:  cobra.ExactArgs(1),
	RunE:  runEndTurn,
}

func init() {
	rootCmd.AddCommand(endturnCmd)
}

func runEndTurn(cmd *cobra.Command, args []string) error {
	key := args[0]
	db := sampleDatabase()
	ctx, err := loadGame(db, key)
	if err != nil {
		return fmt.Errorf("loading save %q: %w", key, err)
	}

	previousTeam := ctx.ActiveTeam
	ctx.Log.Finalize()
	outcome := ctx.Turn.EndPhase(ctx)
	ctx.ActiveTeam = ctx.Turn.ActiveTeam()
	ctx.TurnCount = ctx.Turn.TurnNumber

	if err := saveGame(ctx, key); err != nil {
		return fmt.Errorf("saving: %w", err)
	}

	color.New(color.FgCyan).Printf("Turn ended for %s, now %s's turn (turn %d)\n", previousTeam, ctx.ActiveTeam, ctx.TurnCount)
	if outcome.Won {
		color.New(color.FgGreen, color.Bold).Println("VICTORY")
	}
	if outcome.Lost {
		color.New(color.FgRed, color.Bold).Println("DEFEAT")
	}
	return nil
}
