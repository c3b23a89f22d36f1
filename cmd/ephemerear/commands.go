package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/mark3labs/mcp-go/server"

	"ephemerear/config"
	"ephemerear/internal/application"
	"ephemerear/internal/infra/ledger"
	"ephemerear/internal/infra/mcptools"
	"ephemerear/internal/infra/notes"
)

func runWatch(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	source := createSource(cfg, logger)
	logger.Info("starting ephemerear",
		"version", version,
		"source", source.Name(),
		"engine", cfg.Engine(),
	)

	return application.NewWatcher(source, a.pipeline, logger).Run(ctx)
}

func runProcess(ctx context.Context, cfg *config.Config, logger *slog.Logger, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("process: no recordings given")
	}

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	failed := 0
	for _, path := range paths {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		outcome, err := a.pipeline.Process(ctx, path)
		if err != nil {
			failed++
			if errors.Is(err, application.ErrFollowUp) {
				logger.Warn("transcript written but follow-up failed", "file", path, "error", err)
				continue
			}
			logger.Error("processing recording", "file", path, "error", err)
			continue
		}

		fmt.Printf("%s\t%s\t%s\n", outcome.State, outcome.Recording.BaseName, outcome.TranscriptPath)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d recordings failed", failed, len(paths))
	}
	return nil
}

func runRecord(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	mic := newMicrophone(cfg, logger)
	if err := mic.Start(ctx); err != nil {
		return err
	}
	defer mic.Stop()

	path, err := mic.NextRecording(ctx)
	if err != nil {
		return fmt.Errorf("recording memo: %w", err)
	}

	outcome, err := a.pipeline.Process(ctx, path)
	if err != nil {
		return err
	}

	fmt.Printf("%s\t%s\t%s\n", outcome.State, outcome.Recording.BaseName, outcome.TranscriptPath)
	if outcome.Reply != "" {
		fmt.Println(outcome.Reply)
	}
	return nil
}

func runTools(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	journal := notes.NewJournal(cfg.Paths.TodoFile, cfg.Paths.MemoryFile)
	s := mcptools.NewServer(journal, version, logger)

	logger.Info("serving tools over stdio", "todo_file", cfg.Paths.TodoFile, "memory_file", cfg.Paths.MemoryFile)
	return server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout)
}

func runHistory(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("n", 20, "number of entries to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := ledger.Open(cfg.Paths.Ledger)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer store.Close()

	entries, err := store.Recent(ctx, *limit)
	if err != nil {
		return err
	}

	return printHistory(out, entries)
}

func printHistory(out io.Writer, entries []ledger.Entry) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tRECORDING\tENGINE\tCHUNKS\tFOLLOW-UP\tTRANSCRIPT")
	for _, e := range entries {
		followUp := "-"
		if e.FollowUp {
			followUp = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.LogicalName, e.Engine, e.Chunks, followUp, e.TranscriptPath)
	}
	return tw.Flush()
}
