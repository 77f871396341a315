package parser

import (
	"strconv"
	"strings"

	"github.com/searchlab/jassjr/internal/indexer/tokenizer"
)

// Query is one parsed query line.
type Query struct {
	ID       int
	Terms    []string
	RawQuery string
}

// Parse splits a query line on whitespace. A leading integer is taken as the
// query id (default 0). Unless verbatim is set, terms are normalized the same
// way the indexer normalizes content tokens.
func Parse(line string, verbatim bool) *Query {
	q := &Query{
		Terms:    make([]string, 0),
		RawQuery: line,
	}
	words := strings.Fields(line)
	if len(words) > 0 {
		if id, err := strconv.Atoi(words[0]); err == nil {
			q.ID = id
			words = words[1:]
		}
	}
	for _, w := range words {
		if !verbatim {
			w = tokenizer.Normalize(w)
		}
		q.Terms = append(q.Terms, w)
	}
	return q
}
