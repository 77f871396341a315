package ranker

import (
	"fmt"
	"math"
	"testing"

	"github.com/searchlab/jassjr/internal/indexer/index"
)

// lengths of a toy collection: doc 0 "cat cat dog", doc 1 "dog dog", doc 2 "cat"
var toyLengths = []int32{3, 2, 1}

func toyLength(d int32) int32 { return toyLengths[d] }

var toyParams = RankParams{TotalDocs: 3, AvgDocLength: 2}

func bm25(tf, docLen, avg float64, n, df int) float64 {
	idf := math.Log(float64(n) / float64(df))
	return idf * (tf * 1.9) / (tf + 0.9*(0.6+0.4*docLen/avg))
}

func TestAddTermMatchesFormula(t *testing.T) {
	acc := NewAccumulator(3)
	cat := index.PostingList{{DocID: 0, Frequency: 2}, {DocID: 2, Frequency: 1}}
	if !acc.AddTerm(cat, toyParams, toyLength) {
		t.Fatal("cat should contribute")
	}
	scores := acc.Scores()
	want0 := bm25(2, 3, 2, 3, 2)
	want2 := bm25(1, 1, 2, 3, 2)
	if math.Abs(scores[0]-want0) > 1e-12 || math.Abs(scores[2]-want2) > 1e-12 {
		t.Errorf("scores = %v, want [%v 0 %v]", scores, want0, want2)
	}
	if scores[1] != 0 {
		t.Errorf("doc 1 score = %v, want 0", scores[1])
	}
	if got := fmt.Sprintf("%.4f %.4f", scores[0], scores[2]); got != "0.5002 0.4479" {
		t.Errorf("4-decimal scores = %s", got)
	}
	if scores[0] <= scores[2] {
		t.Error("higher term frequency should rank doc 0 above doc 2")
	}
}

func TestAddTermAccumulates(t *testing.T) {
	acc := NewAccumulator(3)
	cat := index.PostingList{{DocID: 0, Frequency: 2}, {DocID: 2, Frequency: 1}}
	dog := index.PostingList{{DocID: 0, Frequency: 1}, {DocID: 1, Frequency: 2}}
	acc.AddTerm(cat, toyParams, toyLength)
	acc.AddTerm(dog, toyParams, toyLength)
	want := bm25(2, 3, 2, 3, 2) + bm25(1, 3, 2, 3, 2)
	if math.Abs(acc.Scores()[0]-want) > 1e-12 {
		t.Errorf("doc 0 = %v, want %v", acc.Scores()[0], want)
	}
	acc.Reset()
	for d, s := range acc.Scores() {
		if s != 0 {
			t.Errorf("doc %d not reset: %v", d, s)
		}
	}
	if acc.Len() != 3 {
		t.Errorf("Len = %d", acc.Len())
	}
}

func TestAddTermSkipsUbiquitousTerm(t *testing.T) {
	acc := NewAccumulator(1)
	only := index.PostingList{{DocID: 0, Frequency: 1}}
	if acc.AddTerm(only, RankParams{TotalDocs: 1, AvgDocLength: 1}, func(int32) int32 { return 1 }) {
		t.Error("term in every document should be skipped")
	}
	if acc.Scores()[0] != 0 {
		t.Errorf("score = %v, want 0", acc.Scores()[0])
	}
	if acc.AddTerm(nil, toyParams, toyLength) {
		t.Error("empty postings should not contribute")
	}
}

func TestComputeIDF(t *testing.T) {
	if got := computeIDF(10, 10); got != 0 {
		t.Errorf("idf(10,10) = %v", got)
	}
	if got := computeIDF(100, 1); math.Abs(got-math.Log(100)) > 1e-12 {
		t.Errorf("idf(100,1) = %v", got)
	}
}

func BenchmarkAddTerm(b *testing.B) {
	for _, numDocs := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			pl := make(index.PostingList, 0, numDocs/2)
			for i := 0; i < numDocs; i += 2 {
				pl = append(pl, index.Posting{DocID: int32(i), Frequency: int32(i%10) + 1})
			}
			params := RankParams{TotalDocs: numDocs, AvgDocLength: 150}
			length := func(d int32) int32 { return 100 + d%100 }
			acc := NewAccumulator(numDocs)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				acc.Reset()
				acc.AddTerm(pl, params, length)
			}
		})
	}
}
