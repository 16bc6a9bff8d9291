// Command cycleglobe renders a rotating Earth in the terminal, lit by the
// current day/night cycle, and can serve that cycle over HTTP.
//
// Usage:
//
//	cycleglobe              Interactive globe (same as "tui")
//	cycleglobe serve        Headless HTTP + WebSocket server
//	cycleglobe once         Resolve the cycle once and print it
//	cycleglobe sources      List configured sources and their order
//	cycleglobe events       JSONL event log viewer
package main

import (
	"fmt"
	"os"
)

const usage = `cycleglobe: terminal globe with a day/night countdown

Usage:
  cycleglobe [command] [flags]

Commands:
  tui         Interactive globe (default)
  serve       Headless server: /api/cycle, /api/sources, /ws, /metrics
  once        Resolve the cycle once and print it
  sources     List configured sources in priority order
  events      JSONL event log viewer

Environment:
  CYCLEGLOBE_HOME          Data directory (default: ~/.cycleglobe)
  CYCLEGLOBE_SOURCE_URL    Extra source tried before the defaults
  CYCLEGLOBE_OFFLINE       Skip remote sources, use the local calculation
  CYCLEGLOBE_ADDR          Listen address for serve (default: :8844)

Run 'cycleglobe <command> -h' for command-specific help.
`

func main() {
	cmd := "tui"
	if len(os.Args) >= 2 {
		cmd = os.Args[1]
		// Strip the program name + subcommand so flag sets see only their flags
		os.Args = os.Args[1:]
	}

	switch cmd {
	case "tui":
		runTUI()
	case "serve":
		runServe()
	case "once":
		runOnce()
	case "sources":
		runSources()
	case "events":
		runEvents()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
