package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ephemerear/config"
)

var version = "dev"

const usage = `usage: ephemerear [-config path] <command> [args]

commands:
  watch              transcribe recordings as they arrive (default)
  process <file>...  transcribe the given recordings and exit
  record             record one memo from the microphone and transcribe it
  tools              serve the add_todo and commit_to_memory tools over stdio (MCP)
  history [-n N]     list recently transcribed recordings
`

func main() {
	configPath := flag.String("config", ".ephemerear.config.yaml", "path to config file")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	command, args := "watch", flag.Args()
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	// stdout carries the MCP protocol for the tools command
	var logOut io.Writer = os.Stdout
	if command == "tools" {
		logOut = os.Stderr
	}
	logger := setupLogger(cfg.Log, logOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	switch command {
	case "watch":
		err = runWatch(ctx, cfg, logger)
	case "process":
		err = runProcess(ctx, cfg, logger, args)
	case "record":
		err = runRecord(ctx, cfg, logger)
	case "tools":
		err = runTools(ctx, cfg, logger)
	case "history":
		err = runHistory(ctx, cfg, args, os.Stdout)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(command+" failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
