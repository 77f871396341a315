package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/searchlab/jassjr/internal/indexer"
	"github.com/searchlab/jassjr/pkg/config"
	apperrors "github.com/searchlab/jassjr/pkg/errors"
	"github.com/searchlab/jassjr/pkg/logger"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, apperrors.ErrUsage) {
			slog.Error("show document failed", "error", err)
		}
		os.Exit(apperrors.ExitCode(err))
	}
}

// run prints the document whose key section contains the given key, or
// "Not found".
func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("showdoc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: showdoc [-config file] <infile.xml> <docno>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return apperrors.New(apperrors.ErrUsage, apperrors.ExitUsage, err.Error())
	}
	if fs.NArg() != 2 || fs.Arg(1) == "" {
		fs.Usage()
		return apperrors.Newf(apperrors.ErrUsage, apperrors.ExitUsage, "expected an input file and a non-empty key, got %d arguments", fs.NArg())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return apperrors.Newf(apperrors.ErrUsage, apperrors.ExitUsage, "loading config: %v", err)
	}
	logger.SetupWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)

	path, key := fs.Arg(0), fs.Arg(1)
	collection, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperrors.Newf(apperrors.ErrInputNotFound, apperrors.ExitNotFound, "%s", path)
		}
		return fmt.Errorf("reading input: %w", err)
	}

	doc, found := indexer.FindDocument(collection, cfg.Tokenizer, key)
	if !found {
		_, err = fmt.Fprintln(stdout, "Not found")
		return err
	}
	_, err = fmt.Fprintf(stdout, "%s\n", doc)
	return err
}
