package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"storyfeed/internal/config"
)

const usageText = `usage: storyctl [-config path] <command> [flags]

commands:
  list     browse the feed (-q query, -page n, -mirror)
  home     show the newest stories
  show     print one story (-id)
  submit   create a story (-name -email -title -body -badge -media)
  edit     replace a story (-id, then any submit flags to change)
  delete   remove a story (-id)
  mirror   snapshot the feed into PostgreSQL (-once)
`

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usageText)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := newApp(cfg, logger, os.Stdout)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	err = app.run(ctx, flag.Arg(0), flag.Args()[1:])
	app.printNotices(os.Stderr)
	app.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		logger.Error("command failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	// stdout carries command output
	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}
