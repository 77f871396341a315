package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/searchlab/jassjr/internal/indexer/segment"
	"github.com/searchlab/jassjr/internal/indexer/stats"
	"github.com/searchlab/jassjr/pkg/config"
	apperrors "github.com/searchlab/jassjr/pkg/errors"
	"github.com/searchlab/jassjr/pkg/logger"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, apperrors.ErrUsage) {
			slog.Error("index stats failed", "error", err)
		}
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("indexstats", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: indexstats [-config file]")
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

	reader, err := segment.OpenReader(cfg.Index)
	if err != nil {
		return fmt.Errorf("opening index in %s: %w", cfg.Index.Dir, err)
	}
	defer reader.Close()
	return stats.Compute(reader).Render(stdout)
}
