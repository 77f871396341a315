package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/searchlab/jassjr/internal/indexer/index"
	"github.com/searchlab/jassjr/internal/searcher/parser"
	"github.com/searchlab/jassjr/internal/searcher/ranker"
	"github.com/searchlab/jassjr/internal/searcher/topk"
	"github.com/searchlab/jassjr/pkg/logger"
	"github.com/searchlab/jassjr/pkg/metrics"
	"github.com/searchlab/jassjr/pkg/tracing"
)

// Index is the query-time view of a collection.
type Index interface {
	DocCount() int
	AverageLength() float64
	Length(docID int32) int32
}

// PostingsLoader resolves a term to its postings list; ok is false for
// terms missing from the vocabulary.
type PostingsLoader interface {
	Postings(term string) (index.PostingList, bool, error)
}

type SearchResult struct {
	QueryID   int
	Query     string
	Results   []ranker.ScoredDoc
	TermStats map[string]int
	Skipped   []string
}

// Executor scores queries with BM25. It holds no per-query state, so one
// Executor may serve concurrent queries as long as each brings its own
// accumulator.
type Executor struct {
	index      Index
	loader     PostingsLoader
	params     ranker.RankParams
	maxResults int
	metrics    *metrics.Metrics
}

func New(idx Index, loader PostingsLoader, maxResults int, m *metrics.Metrics) *Executor {
	return &Executor{
		index:  idx,
		loader: loader,
		params: ranker.RankParams{
			TotalDocs:    idx.DocCount(),
			AvgDocLength: idx.AverageLength(),
		},
		maxResults: maxResults,
		metrics:    m,
	}
}

// NewAccumulator sizes an accumulator for this collection.
func (e *Executor) NewAccumulator() *ranker.Accumulator {
	return ranker.NewAccumulator(e.params.TotalDocs)
}

// Execute evaluates one query into acc, which is zeroed first. Unknown terms
// and terms present in every document contribute nothing.
func (e *Executor) Execute(ctx context.Context, q *parser.Query, acc *ranker.Accumulator) (*SearchResult, error) {
	start := time.Now()
	if acc.Len() != e.params.TotalDocs {
		return nil, fmt.Errorf("accumulator sized for %d documents, collection has %d", acc.Len(), e.params.TotalDocs)
	}
	acc.Reset()
	ctx, span := tracing.Start(ctx, "query")
	defer span.End()
	span.SetAttr("query_id", q.ID)

	termStats := make(map[string]int)
	var skipped []string
	for _, term := range q.Terms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		postings, ok, err := e.loader.Postings(term)
		if err != nil {
			e.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("searching term %q: %w", term, err)
		}
		if !ok {
			skipped = append(skipped, term)
			continue
		}
		termStats[term] = postings.DocFreq()
		if !acc.AddTerm(postings, e.params, e.index.Length) {
			skipped = append(skipped, term)
		}
	}

	ranked := topk.Select(acc.Scores(), e.maxResults)
	span.SetAttr("results", len(ranked))
	elapsed := time.Since(start)

	resultType := "hit"
	if len(ranked) == 0 {
		resultType = "zero_result"
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	e.metrics.SearchLatency.Observe(elapsed.Seconds())
	e.metrics.SearchResultsCount.Observe(float64(len(ranked)))
	logger.FromContext(ctx).Debug("query executed",
		"terms", q.Terms,
		"skipped", skipped,
		"results", len(ranked),
		"latency_ms", elapsed.Milliseconds(),
	)
	return &SearchResult{
		QueryID:   q.ID,
		Query:     q.RawQuery,
		Results:   ranked,
		TermStats: termStats,
		Skipped:   skipped,
	}, nil
}
