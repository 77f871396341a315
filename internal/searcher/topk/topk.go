// Package topk selects the best-scoring documents from an accumulator.
package topk

import (
	"container/heap"

	"github.com/searchlab/jassjr/internal/searcher/ranker"
)

// Select returns up to limit documents ordered by descending score, ties
// broken by ascending document id. Documents scoring zero did not match any
// query term and are never returned.
func Select(scores []float64, limit int) []ranker.ScoredDoc {
	if limit <= 0 {
		return nil
	}
	h := make(scoredDocHeap, 0, min(limit, 64))
	for d, score := range scores {
		if score <= 0 {
			continue
		}
		doc := ranker.ScoredDoc{DocID: int32(d), Score: score}
		if h.Len() < limit {
			heap.Push(&h, doc)
			continue
		}
		if worse(h[0], doc) {
			h[0] = doc
			heap.Fix(&h, 0)
		}
	}
	result := make([]ranker.ScoredDoc, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(ranker.ScoredDoc)
	}
	return result
}

// worse reports whether a ranks below b.
func worse(a, b ranker.ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.DocID > b.DocID
}

// scoredDocHeap is a min-heap on rank: the root is the worst kept document.
type scoredDocHeap []ranker.ScoredDoc

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool { return worse(h[i], h[j]) }

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x any) {
	*h = append(*h, x.(ranker.ScoredDoc))
}

func (h *scoredDocHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
