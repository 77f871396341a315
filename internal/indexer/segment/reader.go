package segment

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/searchlab/jassjr/internal/indexer/index"
	"github.com/searchlab/jassjr/pkg/config"
	apperrors "github.com/searchlab/jassjr/pkg/errors"
	"github.com/searchlab/jassjr/pkg/metrics"
)

// Reader holds the query-time view of an index: vocabulary, lengths and
// primary keys in memory, postings read on demand.
type Reader struct {
	postings     *os.File
	postingsSize int64
	vocab        Vocabulary
	lengths      []int32
	primaryKeys  []string
	avgLength    float64
	metrics      *metrics.Metrics
}

// OpenReader loads an index. Missing files and malformed records are
// reported as ErrIndexNotFound and ErrCorruptIndex respectively.
func OpenReader(cfg config.IndexConfig) (*Reader, error) {
	lengthBytes, err := readIndexFile(cfg.LengthsPath())
	if err != nil {
		return nil, err
	}
	lengths, err := DecodeLengths(lengthBytes)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", cfg.LengthsPath(), err)
	}
	if len(lengths) == 0 {
		return nil, apperrors.Corruptf("%s holds no documents", cfg.LengthsPath())
	}
	var total float64
	for _, l := range lengths {
		total += float64(l)
	}

	keyBytes, err := readIndexFile(cfg.DocIDsPath())
	if err != nil {
		return nil, err
	}
	keys := strings.Split(string(keyBytes), "\n")
	if n := len(keys); n > 0 && keys[n-1] == "" {
		keys = keys[:n-1]
	}
	if len(keys) != len(lengths) {
		return nil, apperrors.Corruptf("%s has %d primary keys for %d documents", cfg.DocIDsPath(), len(keys), len(lengths))
	}

	vocab, err := LoadVocabulary(cfg.VocabPath())
	if err != nil {
		return nil, err
	}

	f, err := os.Open(cfg.PostingsPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.Newf(apperrors.ErrIndexNotFound, apperrors.ExitNotFound, "%s", cfg.PostingsPath())
		}
		return nil, fmt.Errorf("opening postings: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat postings: %w", err)
	}
	for term, e := range vocab {
		if int64(e.Offset)+int64(e.Size) > info.Size() {
			f.Close()
			return nil, apperrors.Corruptf("term %q points past the end of %s", term, cfg.PostingsPath())
		}
	}

	return &Reader{
		postings:     f,
		postingsSize: info.Size(),
		vocab:        vocab,
		lengths:      lengths,
		primaryKeys:  keys,
		avgLength:    total / float64(len(lengths)),
	}, nil
}

// WithMetrics makes the reader count postings bytes read.
func (r *Reader) WithMetrics(m *metrics.Metrics) *Reader {
	r.metrics = m
	return r
}

// Lookup resolves a term to its postings run.
func (r *Reader) Lookup(term string) (VocabEntry, bool) {
	e, ok := r.vocab[term]
	return e, ok
}

// Postings reads and decodes the postings list of term. Unknown terms return
// ok == false and no error. Safe for concurrent use.
func (r *Reader) Postings(term string) (index.PostingList, bool, error) {
	e, ok := r.Lookup(term)
	if !ok {
		return nil, false, nil
	}
	buf := make([]byte, e.Size)
	if _, err := r.postings.ReadAt(buf, int64(e.Offset)); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, false, apperrors.Corruptf("postings for %q truncated", term)
		}
		return nil, false, fmt.Errorf("reading postings for %q: %w", term, err)
	}
	if r.metrics != nil {
		r.metrics.PostingsBytesRead.Add(float64(len(buf)))
	}
	postings, err := DecodePostings(buf, len(r.lengths))
	if err != nil {
		return nil, false, fmt.Errorf("term %q: %w", term, err)
	}
	return postings, true, nil
}

// DocCount is the authoritative collection size: the number of lengths.
func (r *Reader) DocCount() int { return len(r.lengths) }

func (r *Reader) AverageLength() float64 { return r.avgLength }

func (r *Reader) Length(docID int32) int32 { return r.lengths[docID] }

func (r *Reader) Lengths() []int32 { return r.lengths }

func (r *Reader) PrimaryKey(docID int32) string { return r.primaryKeys[docID] }

func (r *Reader) Vocabulary() Vocabulary { return r.vocab }

func (r *Reader) Terms() int { return len(r.vocab) }

func (r *Reader) PostingsSize() int64 { return r.postingsSize }

func (r *Reader) Close() error {
	return r.postings.Close()
}
