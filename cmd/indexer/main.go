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
	"time"

	"github.com/dustin/go-humanize"

	"github.com/searchlab/jassjr/internal/indexer"
	"github.com/searchlab/jassjr/internal/indexer/segment"
	"github.com/searchlab/jassjr/pkg/config"
	apperrors "github.com/searchlab/jassjr/pkg/errors"
	"github.com/searchlab/jassjr/pkg/logger"
	"github.com/searchlab/jassjr/pkg/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stderr)
	stop()
	if err != nil {
		if !errors.Is(err, apperrors.ErrUsage) {
			slog.Error("indexing failed", "error", err)
		}
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("indexer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: indexer [-config file] <infile.xml>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return apperrors.New(apperrors.ErrUsage, apperrors.ExitUsage, err.Error())
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return apperrors.Newf(apperrors.ErrUsage, apperrors.ExitUsage, "expected one input file, got %d arguments", fs.NArg())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return apperrors.Newf(apperrors.ErrUsage, apperrors.ExitUsage, "loading config: %v", err)
	}
	logger.SetupWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)
	return buildIndex(ctx, cfg, fs.Arg(0))
}

func buildIndex(ctx context.Context, cfg *config.Config, path string) error {
	m := metrics.New()
	defer func() {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			slog.Warn("failed to write metrics textfile", "error", err)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperrors.Newf(apperrors.ErrInputNotFound, apperrors.ExitNotFound, "%s", path)
		}
		return fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	start := time.Now()
	slog.Info("indexing started", "input", path, "index_dir", cfg.Index.Dir)
	collection, err := indexer.NewEngine(cfg.Tokenizer, m).Build(ctx, f)
	if err != nil {
		return err
	}
	if collection == nil {
		slog.Warn("no documents found, index not written", "input", path)
		return nil
	}

	manifest, err := segment.NewWriter(cfg.Index, m).Write(ctx, collection)
	if err != nil {
		return err
	}
	var size int64
	for _, n := range manifest.Bytes {
		size += n
	}
	slog.Info("indexing complete",
		"documents", manifest.Docs,
		"terms", manifest.Terms,
		"postings", manifest.Postings,
		"size", humanize.IBytes(uint64(size)),
		"elapsed", time.Since(start),
	)
	return nil
}
