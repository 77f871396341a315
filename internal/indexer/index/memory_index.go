package index

import (
	"sort"
)

// MemoryIndex is the build-time inverted index: term to postings list.
// Documents must be added in increasing id order.
type MemoryIndex struct {
	index    map[string]PostingList
	postings int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		index: make(map[string]PostingList),
	}
}

// Add records one occurrence of term in docID. A repeat occurrence in the
// document at the tail of the list bumps its frequency; anything else
// appends a fresh posting.
func (m *MemoryIndex) Add(term string, docID int32) {
	list := m.index[term]
	if tail := list.Tail(); tail != nil && tail.DocID == docID {
		tail.Frequency++
		return
	}
	m.index[term] = append(list, Posting{DocID: docID, Frequency: 1})
	m.postings++
}

// Snapshot returns every term with its postings, ordered by term so that
// repeated builds over the same input serialize identically.
func (m *MemoryIndex) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(m.index))
	for term, postings := range m.index {
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: postings,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

// Terms returns the number of distinct terms.
func (m *MemoryIndex) Terms() int {
	return len(m.index)
}

// Postings returns the total number of postings across all terms.
func (m *MemoryIndex) Postings() int {
	return m.postings
}
