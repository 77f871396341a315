// Package ranker implements BM25 scoring into a caller-owned accumulator.
package ranker

import (
	"math"

	"github.com/searchlab/jassjr/internal/indexer/index"
)

// BM25 parameters. They are fixed, not configuration.
const (
	k1 = 0.9
	b  = 0.4
)

type ScoredDoc struct {
	DocID int32
	Score float64
}

type RankParams struct {
	TotalDocs    int
	AvgDocLength float64
}

// Accumulator holds one retrieval status value per document. A query owns
// its accumulator exclusively; Reset it before every query.
type Accumulator struct {
	rsv []float64
}

func NewAccumulator(docs int) *Accumulator {
	return &Accumulator{rsv: make([]float64, docs)}
}

func (a *Accumulator) Reset() {
	clear(a.rsv)
}

// Scores exposes the accumulated values indexed by document id.
func (a *Accumulator) Scores() []float64 { return a.rsv }

func (a *Accumulator) Len() int { return len(a.rsv) }

// AddTerm adds one query term's BM25 contribution for every posting. A term
// present in every document carries no information and is skipped; the
// return value reports whether the term contributed.
func (a *Accumulator) AddTerm(postings index.PostingList, params RankParams, length func(docID int32) int32) bool {
	docFreq := postings.DocFreq()
	if docFreq == 0 || docFreq >= params.TotalDocs {
		return false
	}
	idf := computeIDF(params.TotalDocs, docFreq)
	for _, p := range postings {
		a.rsv[p.DocID] += idf * computeTFNorm(
			float64(p.Frequency),
			float64(length(p.DocID)),
			params.AvgDocLength,
		)
	}
	return true
}

// computeIDF is ln(N / df).
func computeIDF(totalDocs int, docFreq int) float64 {
	return math.Log(float64(totalDocs) / float64(docFreq))
}

func computeTFNorm(termFreq float64, docLength float64, avgDocLength float64) float64 {
	return (termFreq * (k1 + 1)) / (termFreq + k1*(1-b+b*(docLength/avgDocLength)))
}
