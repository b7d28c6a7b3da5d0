package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	saveDir string
	jsonOut bool
)

// rootCmd is the base command when tactics-cli is called without a
// subcommand.
var rootCmd = &cobra.Command{
	Use:          "tactics-cli",
	Short:        "Command-line interface for the tactics engine core",
	SilenceUsage: true,
	Long: `tactics-cli drives a tactics engine GameContext from the command line:
start a scripted scenario, move and attack units, end turns, and inspect a
save file, all without a renderer attached.

Examples:
  tactics-cli new demo1              Start the built-in demo scenario as save "demo1"
  tactics-cli status demo1           Show turn/team/unit status
  tactics-cli units demo1            List units by team
  tactics-cli move demo1 lord 1 0    Move unit "lord" to (1,0)
  tactics-cli attack demo1 lord grunt  Resolve an attack
  tactics-cli endturn demo1          End the active team's phase`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	home, _ := os.UserHomeDir()
	defaultSaveDir := filepath.Join(home, ".tactics", "saves")

	rootCmd.PersistentFlags().StringVar(&saveDir, "save-dir", defaultSaveDir, "directory save files are read from/written to")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "reserved; no command reads it")
}

func requireArg(args []string, n int, name string) (string, error) {
	if len(args) <= n {
		return "", fmt.Errorf("missing required argument: %s", name)
	}
	return args[n], nil
}
