// Command tactics-cli is a scripted battle runner and save inspector for
// the tactics engine core, grounded on turnforge-weewar's cmd/cli cobra
// command tree.
package main

import (
	"fmt"
	"os"

	"github.com/ashenforge/tacticscore/cmd/tactics-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
