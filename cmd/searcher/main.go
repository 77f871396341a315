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

	"github.com/searchlab/jassjr/internal/indexer/segment"
	"github.com/searchlab/jassjr/internal/searcher/cache"
	"github.com/searchlab/jassjr/internal/searcher/executor"
	"github.com/searchlab/jassjr/internal/searcher/handler"
	"github.com/searchlab/jassjr/pkg/config"
	apperrors "github.com/searchlab/jassjr/pkg/errors"
	"github.com/searchlab/jassjr/pkg/logger"
	"github.com/searchlab/jassjr/pkg/metrics"
	"github.com/searchlab/jassjr/pkg/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if !errors.Is(err, apperrors.ErrUsage) {
			slog.Error("search failed", "error", err)
		}
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("searcher", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: searcher [-config file] < queries")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return apperrors.New(apperrors.ErrUsage, apperrors.ExitUsage, err.Error())
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return apperrors.Newf(apperrors.ErrUsage, apperrors.ExitUsage, "unexpected arguments %q", fs.Args())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return apperrors.Newf(apperrors.ErrUsage, apperrors.ExitUsage, "loading config: %v", err)
	}
	logger.SetupWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)
	return search(ctx, cfg, stdin, stdout)
}

func search(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout io.Writer) error {
	m := metrics.New()
	defer func() {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			slog.Warn("failed to write metrics textfile", "error", err)
		}
	}()

	_, span := tracing.Start(ctx, "load")
	reader, err := segment.OpenReader(cfg.Index)
	span.End()
	if err != nil {
		return err
	}
	defer reader.Close()
	reader.WithMetrics(m)
	slog.Info("index loaded",
		"documents", reader.DocCount(),
		"terms", reader.Terms(),
		"avg_length", reader.AverageLength(),
	)

	var loader executor.PostingsLoader = reader
	if cfg.Search.PostingsCacheSize > 0 {
		pc, err := cache.New(reader, cfg.Search.PostingsCacheSize, m)
		if err != nil {
			return err
		}
		loader = pc
	}

	exec := executor.New(reader, loader, cfg.Search.MaxResults, m)
	return handler.New(exec, reader, cfg.Search).Serve(ctx, stdin, stdout)
}
