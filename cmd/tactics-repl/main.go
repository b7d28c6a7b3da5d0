// Command tactics-repl is an interactive console that steps the tactics
// engine's state machine frame-by-frame, grounded on turnforge-weewar's
// cmd/repl readline-driven interactive loop.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/chzyer/readline"
)

func main() {
	var (
		help = flag.Bool("help", false, "show help information")
		key  = flag.String("save", "repl1", "save key the session loads/persists under")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	console, err := NewConsole(*key)
	if err != nil {
		log.Fatalf("failed to initialize console: %v", err)
	}
	defer console.Close()

	fmt.Printf("tactics-repl - save %q loaded\n", *key)
	fmt.Println("Type 'help' for available commands, 'quit' to exit")
	fmt.Println("The frame, push, pick and cancel commands step the state machine by one frame")

	for {
		line, err := console.readline.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				break
			}
			log.Printf("error reading input: %v", err)
			break
		}

		command := strings.TrimSpace(line)
		if command == "" {
			continue
		}

		result := console.Execute(command)
		if result == "quit" {
			fmt.Println("Goodbye!")
			break
		}
		fmt.Println(result)
	}
}

func showHelp() {
	fmt.Println("tactics-repl - interactive frame-by-frame state-machine console")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  tactics-repl [-save key]")
	fmt.Println()
	fmt.Println("COMMANDS:")
	fmt.Println("  state                 Show the active state's name and whether it's transparent")
	fmt.Println("  stack                 List every state currently on the stack, top first")
	fmt.Println("  frame                 Advance the active state by one Update call")
	fmt.Println("  push menu <opt...>    Push a MenuState with the given option labels")
	fmt.Println("  pick <n>              Pick option n on the top MenuState")
	fmt.Println("  cancel                Cancel the top MenuState/TargetingState")
	fmt.Println("  units                 List units and positions")
	fmt.Println("  endturn               End the active team's phase")
	fmt.Println("  save                  Persist the session under its save key")
	fmt.Println("  help                  Show this help")
	fmt.Println("  quit                  Exit")
}
