package executor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/searchlab/jassjr/internal/indexer"
	"github.com/searchlab/jassjr/internal/indexer/index"
	"github.com/searchlab/jassjr/internal/indexer/segment"
	"github.com/searchlab/jassjr/internal/searcher/parser"
	"github.com/searchlab/jassjr/internal/searcher/ranker"
	"github.com/searchlab/jassjr/pkg/config"
	apperrors "github.com/searchlab/jassjr/pkg/errors"
	"github.com/searchlab/jassjr/pkg/metrics"
)

// toyCollection: doc 0 "cat cat dog", doc 1 "dog dog", doc 2 "cat".
func toyCollection() *index.Collection {
	return &index.Collection{
		PrimaryKeys: []string{"D0", "D1", "D2"},
		Lengths:     []int32{3, 2, 1},
		Terms: []index.TermEntry{
			{Term: "cat", Postings: index.PostingList{{DocID: 0, Frequency: 2}, {DocID: 2, Frequency: 1}}},
			{Term: "dog", Postings: index.PostingList{{DocID: 0, Frequency: 1}, {DocID: 1, Frequency: 2}}},
		},
	}
}

func openIndex(t testing.TB, c *index.Collection) (*segment.Reader, config.IndexConfig) {
	t.Helper()
	cfg := config.Default().Index
	cfg.Dir = t.TempDir()
	if _, err := segment.NewWriter(cfg, metrics.New()).Write(context.Background(), c); err != nil {
		t.Fatalf("Write: %v", err)
	}
	r, err := segment.OpenReader(cfg)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r, cfg
}

func newExecutor(r *segment.Reader) *Executor {
	return New(r, r, 1000, metrics.New())
}

func run(t *testing.T, e *Executor, line string, verbatim bool) *SearchResult {
	t.Helper()
	res, err := e.Execute(context.Background(), parser.Parse(line, verbatim), e.NewAccumulator())
	if err != nil {
		t.Fatalf("Execute(%q): %v", line, err)
	}
	return res
}

func bm25(tf, docLen, avg float64, n, df int) float64 {
	return math.Log(float64(n)/float64(df)) * (tf * 1.9) / (tf + 0.9*(0.6+0.4*docLen/avg))
}

func TestExecuteThreeDocumentScenario(t *testing.T) {
	r, _ := openIndex(t, toyCollection())
	res := run(t, newExecutor(r), "3 cat", false)
	if res.QueryID != 3 {
		t.Errorf("QueryID = %d", res.QueryID)
	}
	if len(res.Results) != 2 {
		t.Fatalf("results = %+v", res.Results)
	}
	if res.Results[0].DocID != 0 || res.Results[1].DocID != 2 {
		t.Errorf("order = %+v, want doc 0 then doc 2", res.Results)
	}
	if got := fmt.Sprintf("%.4f %.4f", res.Results[0].Score, res.Results[1].Score); got != "0.5002 0.4479" {
		t.Errorf("scores = %s", got)
	}
	if res.TermStats["cat"] != 2 {
		t.Errorf("TermStats = %v", res.TermStats)
	}
}

func TestExecuteAccumulatesAcrossTerms(t *testing.T) {
	r, _ := openIndex(t, toyCollection())
	res := run(t, newExecutor(r), "cat dog", false)
	want := map[int32]float64{
		0: bm25(2, 3, 2, 3, 2) + bm25(1, 3, 2, 3, 2),
		1: bm25(2, 2, 2, 3, 2),
		2: bm25(1, 1, 2, 3, 2),
	}
	if len(res.Results) != 3 {
		t.Fatalf("results = %+v", res.Results)
	}
	for _, doc := range res.Results {
		if math.Abs(doc.Score-want[doc.DocID]) > 1e-12 {
			t.Errorf("doc %d score = %v, want %v", doc.DocID, doc.Score, want[doc.DocID])
		}
	}
}

func TestExecuteUnknownTermsAreSkipped(t *testing.T) {
	r, _ := openIndex(t, toyCollection())
	e := newExecutor(r)
	with := run(t, e, "cat zebra", false)
	without := run(t, e, "cat", false)
	if fmt.Sprint(with.Results) != fmt.Sprint(without.Results) {
		t.Errorf("unknown term changed results: %v vs %v", with.Results, without.Results)
	}
	if len(with.Skipped) != 1 || with.Skipped[0] != "zebra" {
		t.Errorf("Skipped = %v", with.Skipped)
	}
	if res := run(t, e, "zebra", false); len(res.Results) != 0 {
		t.Errorf("unknown-only query returned %v", res.Results)
	}
}

func TestExecuteCaseNormalization(t *testing.T) {
	r, _ := openIndex(t, toyCollection())
	e := newExecutor(r)
	if res := run(t, e, "CAT", false); len(res.Results) != 2 {
		t.Errorf("normalized query results = %v", res.Results)
	}
	if res := run(t, e, "CAT", true); len(res.Results) != 0 {
		t.Errorf("verbatim uppercase query should not match, got %v", res.Results)
	}
}

func TestExecuteSingleDocumentSingleTerm(t *testing.T) {
	r, _ := openIndex(t, &index.Collection{
		PrimaryKeys: []string{"ONLY"},
		Lengths:     []int32{1},
		Terms:       []index.TermEntry{{Term: "hello", Postings: index.PostingList{{DocID: 0, Frequency: 1}}}},
	})
	res := run(t, newExecutor(r), "hello", false)
	if len(res.Results) != 0 {
		t.Errorf("idf 0 term produced %v", res.Results)
	}
}

func TestExecuteTruncatedTerm(t *testing.T) {
	long := strings.Repeat("q", 300)
	eng := indexer.NewEngine(config.Default().Tokenizer, metrics.New())
	c, err := eng.Build(context.Background(), strings.NewReader("<DOC><DOCNO>A</DOCNO> "+long+" <DOC><DOCNO>B</DOCNO> other"))
	if err != nil {
		t.Fatal(err)
	}
	r, _ := openIndex(t, c)
	if _, ok := r.Lookup(long[:255]); !ok {
		t.Fatal("255-byte term missing from vocabulary")
	}
	res := run(t, newExecutor(r), strings.ToUpper(long), false)
	if len(res.Results) != 1 || r.PrimaryKey(res.Results[0].DocID) != "A" {
		t.Errorf("results = %+v", res.Results)
	}
}

// Every indexed term queried alone returns exactly its postings documents,
// scored by BM25 computed independently from the collection.
func TestRoundTripEveryTerm(t *testing.T) {
	input := `<DOC><DOCNO> R0 </DOCNO> the quick brown fox jumps over the lazy dog </DOC>
<DOC><DOCNO> R1 </DOCNO> the dog barks and the fox runs </DOC>
<DOC><DOCNO> R2 </DOCNO> lazy afternoons are quick to pass </DOC>
<DOC><DOCNO> R3 </DOCNO> brown bread brown rice brown sugar </DOC>
<DOC><DOCNO> R4 </DOCNO> state-of-the-art search engines rank by BM25 </DOC>`
	eng := indexer.NewEngine(config.Default().Tokenizer, metrics.New())
	c, err := eng.Build(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	r, _ := openIndex(t, c)
	e := newExecutor(r)

	n := c.DocCount()
	var total float64
	for _, l := range c.Lengths {
		total += float64(l)
	}
	avg := total / float64(n)

	for _, entry := range c.Terms {
		res := run(t, e, entry.Term, false)
		df := len(entry.Postings)
		if df == n {
			if len(res.Results) != 0 {
				t.Errorf("term %q in every document returned results", entry.Term)
			}
			continue
		}
		if len(res.Results) != df {
			t.Errorf("term %q: %d results, want %d", entry.Term, len(res.Results), df)
			continue
		}
		want := make(map[int32]float64, df)
		for _, p := range entry.Postings {
			want[p.DocID] = bm25(float64(p.Frequency), float64(c.Lengths[p.DocID]), avg, n, df)
		}
		for i, doc := range res.Results {
			w, ok := want[doc.DocID]
			if !ok || math.Abs(doc.Score-w) > 1e-12 || doc.Score <= 0 {
				t.Errorf("term %q doc %d score %v, want %v", entry.Term, doc.DocID, doc.Score, w)
			}
			if i > 0 {
				prev := res.Results[i-1]
				if prev.Score < doc.Score || (prev.Score == doc.Score && prev.DocID > doc.DocID) {
					t.Errorf("term %q results out of order at %d", entry.Term, i)
				}
			}
		}
	}
}

func TestExecuteCorruptPostings(t *testing.T) {
	r, cfg := openIndex(t, toyCollection())
	r.Close()
	// overwrite cat's first doc id with an out-of-range value
	data, err := os.ReadFile(cfg.PostingsPath())
	if err != nil {
		t.Fatal(err)
	}
	copy(data[0:4], segment.AppendInt32(nil, 99))
	if err := os.WriteFile(cfg.PostingsPath(), data, 0o644); err != nil {
		t.Fatal(err)
	}
	r2, err := segment.OpenReader(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer r2.Close()
	e := newExecutor(r2)
	_, err = e.Execute(context.Background(), parser.Parse("cat", false), e.NewAccumulator())
	if !errors.Is(err, apperrors.ErrCorruptIndex) {
		t.Errorf("err = %v, want ErrCorruptIndex", err)
	}
}

func TestExecuteRejectsMisSizedAccumulator(t *testing.T) {
	r, _ := openIndex(t, toyCollection())
	e := newExecutor(r)
	if _, err := e.Execute(context.Background(), parser.Parse("cat", false), ranker.NewAccumulator(2)); err == nil {
		t.Error("expected error for wrongly sized accumulator")
	}
}

func TestExecuteReusesAccumulator(t *testing.T) {
	r, _ := openIndex(t, toyCollection())
	e := newExecutor(r)
	acc := e.NewAccumulator()
	first, _ := e.Execute(context.Background(), parser.Parse("cat", false), acc)
	e.Execute(context.Background(), parser.Parse("dog", false), acc)
	again, _ := e.Execute(context.Background(), parser.Parse("cat", false), acc)
	if fmt.Sprint(first.Results) != fmt.Sprint(again.Results) {
		t.Errorf("accumulator leaked state: %v vs %v", first.Results, again.Results)
	}
}
