package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <key>",
	Short: "Show turn number, active team, and win/loss state for a save",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	key, err := requireArg(args, 0, "key")
	if err != nil {
		return err
	}
	db := sampleDatabase()
	ctx, err := loadGame(db, key)
	if err != nil {
		return fmt.Errorf("loading save %q: %w", key, err)
	}

	fmt.Printf("Turn: %d\n", ctx.TurnCount)
	color.New(color.FgCyan, color.Bold).Printf("Active team: %s\n", ctx.ActiveTeam)

	if ctx.CheckWinCondition() {
		color.New(color.FgGreen, color.Bold).Println("Result: VICTORY")
	} else if ctx.CheckLossCondition() {
		color.New(color.FgRed, color.Bold).Println("Result: DEFEAT")
	} else {
		fmt.Println("Result: in progress")
	}
	fmt.Printf("Units: %d\n", len(ctx.Units))
	return nil
}
