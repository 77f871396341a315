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
	apperrors "github.com/searchlab/jassjr/pkg/errors"
	"github.com/searchlab/jassjr/pkg/logger"
)

var errVocabulariesDiffer = errors.New("vocabularies differ")

// vocabdiff exits 0 when the vocabularies match and 1 when they differ.
func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, errVocabulariesDiffer):
		os.Exit(apperrors.ExitFailure)
	default:
		if !errors.Is(err, apperrors.ErrUsage) {
			slog.Error("vocabulary diff failed", "error", err)
		}
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("vocabdiff", flag.ContinueOnError)
	fs.SetOutput(stderr)
	level := fs.String("log-level", "info", "log level")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: vocabdiff <vocab-a.bin> <vocab-b.bin>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return apperrors.New(apperrors.ErrUsage, apperrors.ExitUsage, err.Error())
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return apperrors.Newf(apperrors.ErrUsage, apperrors.ExitUsage, "expected two vocabulary files, got %d arguments", fs.NArg())
	}
	logger.SetupWriter(stderr, *level, "text")

	pathA, pathB := fs.Arg(0), fs.Arg(1)
	a, err := segment.LoadVocabulary(pathA)
	if err != nil {
		return fmt.Errorf("loading %s: %w", pathA, err)
	}
	b, err := segment.LoadVocabulary(pathB)
	if err != nil {
		return fmt.Errorf("loading %s: %w", pathB, err)
	}

	diff := stats.Diff(a, b)
	if err := diff.Render(stdout, pathA, pathB); err != nil {
		return err
	}
	if !diff.Empty() {
		return errVocabulariesDiffer
	}
	return nil
}
