package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/TD21forever/buling/internal/config"
	"github.com/TD21forever/buling/internal/db"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"serve": true, "mcp": true, "analyze": true, "save": true,
	"list": true, "delete": true, "purge": true, "export": true,
	"help": true,
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// printBanner displays a friendly banner when run without a command.
func printBanner() {
	fmt.Println(`
   _           _ _
  | |__  _   _| (_)_ __   __ _
  | '_ \| | | | | | '_ \ / _' |
  | |_) | |_| | | | | | | (_| |
  |_.__/ \__,_|_|_|_| |_|\__, |
                         |___/

  Conversational inspiration capture

  Usage: buling <command> [options]
         buling --help`)
}

func main() {
	if len(os.Args) < 2 {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if !cliCommands[os.Args[1]] {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'buling --help' for usage.\n")
		os.Exit(1)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".buling")

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	db.ConfigurePool(database, cfg)

	app := newCLIApp(database, cfg)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
