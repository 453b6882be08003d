package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cqlab/contentpipe/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()
	setupLogging(cfg.Debug)

	var err error
	switch os.Args[1] {
	case "import":
		err = cmdImport(cfg, os.Args[2:])
	case "validate":
		err = cmdValidate(os.Args[2:])
	case "migrate":
		err = cmdMigrate(os.Args[2:])
	case "check":
		err = cmdCheck(os.Args[2:])
	case "stats":
		err = cmdStats(cfg)
	case "worker":
		err = cmdWorker(cfg)
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("contentpipe %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func printUsage() {
	fmt.Println(`contentpipe - CQL exercise content pipeline

Usage:
  contentpipe <command> [arguments]

Commands:
  import [--publish] [source...]  Import, dedup, and validate content sources
  validate <path>                 Validate exercise YAML files under a directory
  migrate <path>                  Convert legacy records and report results
  check <path>                    Score exercise content quality
  stats                           Show catalog statistics
  worker                          Run the submission evaluation worker
  version                         Print version

Configuration is read from the environment (CONTENT_PATH, SQLITE_PATH,
DATABASE_URL, RABBITMQ_URL, REMOTE_CONTENT_URL, CQL_RUNNER_URL,
IMPORT_ENHANCE, DEBUG).`)
}
