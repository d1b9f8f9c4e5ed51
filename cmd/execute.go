// Package cmd contains the aviary command line entry points.
//
// Following the pattern used by kubectl, hugo and other standard Go CLI
// tools, all application logic lives here and main.go stays a minimal
// entry point.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aviary-ai/aviary/internal/log"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "0.0.1"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// Execute is the main entry point for the aviary CLI.
func Execute() error {
	// version and help work even if config is invalid.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			printVersion()
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		}
	}

	logger := initLogger()
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		printHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe(logger)
	case "migrate":
		return runMigrate(logger)
	default:
		printHelp()
		return fmt.Errorf("unknown command %q", os.Args[1])
	}
}

// initLogger builds the structured logger. DEBUG in the environment (any
// value) switches to debug level; AVIARY_LOG_JSON switches to JSON output.
func initLogger() log.Logger {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	if os.Getenv("AVIARY_LOG_JSON") != "" {
		cfg.JSON = true
	}
	return log.New(cfg)
}

func printHelp() {
	fmt.Print(`aviary - agent chat service

Usage:
  aviary serve [addr]    Start the HTTP API server
  aviary migrate         Apply database migrations
  aviary version         Print version information
  aviary help            Show this help

Environment:
  OPENAI_API_KEY         Completion service API key (required for serve)
  JWT_SECRET             Access token signing secret (required for serve)
  DATABASE_URL           Postgres connection URL (overrides individual settings)
  DEBUG                  Enable debug logging
`)
}
