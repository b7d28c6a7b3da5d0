package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ashenforge/tacticscore/engine"
)

var unitsCmd = &cobra.Command{
	Use:   "units <key>",
	Short: "List all units in a save, grouped by team",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnits,
}

func init() {
	rootCmd.AddCommand(unitsCmd)
}

func runUnits(cmd *cobra.Command, args []string) error {
	key, err := requireArg(args, 0, "key")
	if err != nil {
		return err
	}
	db := sampleDatabase()
	ctx, err := loadGame(db, key)
	if err != nil {
		return fmt.Errorf("loading save %q: %w", key, err)
	}

	teams := map[engine.NID]bool{}
	for _, u := range ctx.Units {
		teams[u.Team] = true
	}
	for team := range teams {
		teamColor := color.New(color.FgWhite, color.Bold)
		if team == ctx.ActiveTeam {
			teamColor = color.New(color.FgYellow, color.Bold)
		}
		teamColor.Printf("%s:\n", team)
		for _, u := range ctx.TeamUnits(team) {
			pos := "unplaced"
			if u.Position != nil {
				pos = fmt.Sprintf("(%d,%d)", u.Position.X, u.Position.Y)
			}
			status := ""
			if u.Flags.Dead {
				status = color.RedString(" [dead]")
			} else if u.Flags.Finished {
				status = color.HiBlackString(" [finished]")
			}
			fmt.Printf("  %-10s HP %d/%d at %s%s\n", u.NID, u.CurrentHP, u.Stats.HPMax, pos, status)
		}
	}
	return nil
}
