// Package handler runs query lines through the executor and writes results
// in TREC run format:
//
//	<query-id> Q0 <primary-key> <rank> <score> <run-name>
package handler

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/searchlab/jassjr/internal/searcher/executor"
	"github.com/searchlab/jassjr/internal/searcher/parser"
	"github.com/searchlab/jassjr/internal/searcher/ranker"
	"github.com/searchlab/jassjr/pkg/config"
	"github.com/searchlab/jassjr/pkg/logger"
)

const maxQueryLine = 1024 * 1024

// KeyLookup maps internal document ids to external primary keys.
type KeyLookup interface {
	PrimaryKey(docID int32) string
}

type Handler struct {
	executor *executor.Executor
	keys     KeyLookup
	runName  string
	verbatim bool
	workers  int
	logger   *slog.Logger
}

func New(exec *executor.Executor, keys KeyLookup, cfg config.SearchConfig) *Handler {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Handler{
		executor: exec,
		keys:     keys,
		runName:  cfg.RunName,
		verbatim: cfg.VerbatimTerms,
		workers:  workers,
		logger:   logger.WithComponent("search-handler"),
	}
}

// Serve reads one query per line from r until EOF and writes ranked results
// to w. With a single worker each query, output included, completes before
// the next line is read.
func (h *Handler) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	if h.workers > 1 {
		return h.serveParallel(ctx, r, w)
	}
	out := bufio.NewWriter(w)
	acc := h.executor.NewAccumulator()
	scanner := newLineScanner(r)
	queries := 0
	for scanner.Scan() {
		q := parser.Parse(scanner.Text(), h.verbatim)
		res, err := h.executor.Execute(logger.WithQueryID(ctx, q.ID), q, acc)
		if err != nil {
			return fmt.Errorf("query %d: %w", q.ID, err)
		}
		if err := h.WriteResults(out, res); err != nil {
			return err
		}
		if err := out.Flush(); err != nil {
			return fmt.Errorf("flushing results: %w", err)
		}
		queries++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading queries: %w", err)
	}
	h.logger.Info("queries processed", "queries", queries)
	return nil
}

// serveParallel evaluates all queries with a bounded worker pool. Every
// worker owns one accumulator; results are written in input order.
func (h *Handler) serveParallel(ctx context.Context, r io.Reader, w io.Writer) error {
	var queries []*parser.Query
	scanner := newLineScanner(r)
	for scanner.Scan() {
		queries = append(queries, parser.Parse(scanner.Text(), h.verbatim))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading queries: %w", err)
	}

	pool := make(chan *ranker.Accumulator, h.workers)
	for i := 0; i < h.workers; i++ {
		pool <- h.executor.NewAccumulator()
	}
	results := make([]*executor.SearchResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.workers)
	for i, q := range queries {
		g.Go(func() error {
			acc := <-pool
			defer func() { pool <- acc }()
			res, err := h.executor.Execute(logger.WithQueryID(gctx, q.ID), q, acc)
			if err != nil {
				return fmt.Errorf("query %d: %w", q.ID, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := bufio.NewWriter(w)
	for _, res := range results {
		if err := h.WriteResults(out, res); err != nil {
			return err
		}
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("flushing results: %w", err)
	}
	h.logger.Info("queries processed", "queries", len(queries), "workers", h.workers)
	return nil
}

// WriteResults writes one line per ranked document, ranks starting at 1.
func (h *Handler) WriteResults(w io.Writer, res *executor.SearchResult) error {
	for i, doc := range res.Results {
		if _, err := fmt.Fprintf(w, "%d Q0 %s %d %.4f %s\n",
			res.QueryID,
			h.keys.PrimaryKey(doc.DocID),
			i+1,
			doc.Score,
			h.runName,
		); err != nil {
			return fmt.Errorf("writing results: %w", err)
		}
	}
	return nil
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxQueryLine)
	return scanner
}
