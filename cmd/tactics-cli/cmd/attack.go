package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ashenforge/tacticscore/engine"
)

var attackCmd = &cobra.Command{
	Use:   "attack <key> <attacker> <defender>",
	Short: "Resolve combat between two units already in range",
	Args:  cobra.ExactArgs(3),
	RunE:  runAttack,
}

func init() {
	rootCmd.AddCommand(attackCmd)
}

func runAttack(cmd *cobra.Command, args []string) error {
	key := args[0]
	attackerID := engine.UnitId(args[1])
	defenderID := engine.UnitId(args[2])

	db := sampleDatabase()
	ctx, err := loadGame(db, key)
	if err != nil {
		return fmt.Errorf("loading save %q: %w", key, err)
	}

	attacker, err := ctx.GetUnit(attackerID)
	if err != nil {
		return err
	}
	defender, err := ctx.GetUnit(defenderID)
	if err != nil {
		return err
	}
	if attacker.Position == nil || defender.Position == nil {
		return fmt.Errorf("both units must be placed on the board")
	}

	atkWeapon := ctx.EquippedWeapon(attacker)
	if atkWeapon == nil {
		return fmt.Errorf("unit %s has no usable weapon", attackerID)
	}
	defWeapon := ctx.EquippedWeapon(defender)
	dist := engine.ManhattanDistance(*attacker.Position, *defender.Position)

	if ctx.Combat == nil {
		ctx.Combat = engine.NewCombatEngine(db, engine.HitModeTrueHit, ctx.RNG)
	}
	result := ctx.Combat.Resolve(attacker, defender, atkWeapon, defWeapon, dist)
	for _, s := range result.Strikes {
		if s.Hit && s.Damage > 0 {
			if err := ctx.Log.Record(ctx, &engine.DamageChange{UnitID: s.DefenderID, Amount: s.Damage}); err != nil {
				return fmt.Errorf("applying damage: %w", err)
			}
		}
	}

	reportStrikes(result)
	attacker.Flags.HasAttacked = true

	if result.DefenderDied {
		color.New(color.FgRed, color.Bold).Printf("  %s was defeated\n", defenderID)
	}
	if result.AttackerDied {
		color.New(color.FgRed, color.Bold).Printf("  %s was defeated\n", attackerID)
	}

	if err := saveGame(ctx, key); err != nil {
		return fmt.Errorf("saving: %w", err)
	}
	return nil
}

func reportStrikes(result engine.CombatResult) {
	for _, s := range result.Strikes {
		verb := "hits"
		if !s.Hit {
			verb = "misses"
		}
		line := fmt.Sprintf("  %s %s %s", s.AttackerID, verb, s.DefenderID)
		if s.Hit {
			line += fmt.Sprintf(" for %d damage", s.Damage)
			if s.Crit {
				line += " (critical!)"
			}
		}
		if s.Hit {
			color.New(color.FgRed).Println(line)
		} else {
			color.New(color.HiBlack).Println(line)
		}
	}
}
