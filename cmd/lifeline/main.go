package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/lifeline/internal/config"
	"github.com/hpungsan/lifeline/internal/logging"
	"github.com/hpungsan/lifeline/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// globalDirName is the per-user directory holding the global config.json.
const globalDirName = ".lifeline"

func main() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	// Commands given --cwd reload the repo config from that project before running.
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine working directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadWithRepo(filepath.Join(homeDir, globalDirName), wd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	env := ops.NewEnv(cfg, homeDir, Version, logging.NewLogger(os.Stderr, logging.LevelFromString(cfg.LogLevel)))
	app := newCLIApp(env)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
