// Package stats summarizes a built index and compares vocabularies of two
// builds.
package stats

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/searchlab/jassjr/internal/indexer/segment"
)

// listLimit caps how many terms a diff section prints.
const listLimit = 100

type Stats struct {
	Docs           int
	AverageLength  float64
	ShortestDoc    int32
	LongestDoc     int32
	Terms          int
	MostCommonTerm string
	MostCommonDF   int
	PostingsBytes  int64
}

// Source is the part of segment.Reader that statistics need.
type Source interface {
	Lengths() []int32
	AverageLength() float64
	Vocabulary() segment.Vocabulary
	PostingsSize() int64
}

func Compute(src Source) Stats {
	lengths := src.Lengths()
	s := Stats{
		Docs:          len(lengths),
		AverageLength: src.AverageLength(),
		PostingsBytes: src.PostingsSize(),
	}
	for i, l := range lengths {
		if i == 0 || l < s.ShortestDoc {
			s.ShortestDoc = l
		}
		if l > s.LongestDoc {
			s.LongestDoc = l
		}
	}
	vocab := src.Vocabulary()
	s.Terms = len(vocab)
	for term, e := range vocab {
		df := e.DocFreq()
		if df > s.MostCommonDF || (df == s.MostCommonDF && term < s.MostCommonTerm) {
			s.MostCommonTerm = term
			s.MostCommonDF = df
		}
	}
	return s
}

func (s Stats) Render(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Num documents:    %s\nAverage doc len:  %.4f\nShortest doc:     %d\nLongest doc:      %d\nNum terms:        %s\nMost common term: %s (%s documents)\nPostings size:    %s\n",
		humanize.Comma(int64(s.Docs)),
		s.AverageLength,
		s.ShortestDoc,
		s.LongestDoc,
		humanize.Comma(int64(s.Terms)),
		s.MostCommonTerm,
		humanize.Comma(int64(s.MostCommonDF)),
		humanize.IBytes(uint64(s.PostingsBytes)),
	)
	return err
}

// SizeChange is a term whose postings run differs between two vocabularies.
type SizeChange struct {
	Term  string
	SizeA int32
	SizeB int32
}

type VocabDiff struct {
	OnlyInA     []string
	OnlyInB     []string
	SizeChanged []SizeChange
}

func (d VocabDiff) Empty() bool {
	return len(d.OnlyInA) == 0 && len(d.OnlyInB) == 0 && len(d.SizeChanged) == 0
}

// Diff compares two vocabularies by term and postings size. Offsets are
// ignored: they depend on serialization order, not on content.
func Diff(a, b segment.Vocabulary) VocabDiff {
	var d VocabDiff
	for term, ea := range a {
		eb, ok := b[term]
		switch {
		case !ok:
			d.OnlyInA = append(d.OnlyInA, term)
		case ea.Size != eb.Size:
			d.SizeChanged = append(d.SizeChanged, SizeChange{Term: term, SizeA: ea.Size, SizeB: eb.Size})
		}
	}
	for term := range b {
		if _, ok := a[term]; !ok {
			d.OnlyInB = append(d.OnlyInB, term)
		}
	}
	sort.Strings(d.OnlyInA)
	sort.Strings(d.OnlyInB)
	sort.Slice(d.SizeChanged, func(i, j int) bool {
		return d.SizeChanged[i].Term < d.SizeChanged[j].Term
	})
	return d
}

func (d VocabDiff) Render(w io.Writer, nameA, nameB string) error {
	sections := []struct {
		title string
		items []string
	}{
		{fmt.Sprintf("These terms are only in %s", nameA), d.OnlyInA},
		{fmt.Sprintf("These terms are only in %s", nameB), d.OnlyInB},
		{"These terms have differing sizes", changeStrings(d.SizeChanged)},
	}
	for i, sec := range sections {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, sec.title); err != nil {
			return err
		}
		items := sec.items
		more := ""
		if len(items) > listLimit {
			items = items[:listLimit]
			more = " ..."
		}
		if _, err := fmt.Fprintf(w, "%q%s\n", items, more); err != nil {
			return err
		}
	}
	return nil
}

func changeStrings(changes []SizeChange) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = fmt.Sprintf("%s %d %d", c.Term, c.SizeA, c.SizeB)
	}
	return out
}
