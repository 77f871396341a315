package segment

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/searchlab/jassjr/internal/indexer/index"
	"github.com/searchlab/jassjr/pkg/config"
	apperrors "github.com/searchlab/jassjr/pkg/errors"
	"github.com/searchlab/jassjr/pkg/logger"
	"github.com/searchlab/jassjr/pkg/metrics"
	"github.com/searchlab/jassjr/pkg/tracing"
)

// Manifest summarizes a written index.
type Manifest struct {
	Docs     int
	Terms    int
	Postings int
	Bytes    map[string]int64
}

// Writer serializes a built collection into the four index files.
type Writer struct {
	cfg     config.IndexConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewWriter(cfg config.IndexConfig, m *metrics.Metrics) *Writer {
	return &Writer{
		cfg:     cfg,
		metrics: m,
		logger:  logger.WithComponent("segment-writer"),
	}
}

// Write creates the index files. Each file is written to a .tmp sibling and
// only renamed into place once all four are complete. Files being replaced
// are kept as .old until every rename succeeds, so a failed run leaves
// either the previous index or nothing behind.
func (w *Writer) Write(ctx context.Context, c *index.Collection) (*Manifest, error) {
	if c.DocCount() == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidInput, apperrors.ExitFailure, "cannot write an index with no documents")
	}
	if len(c.PrimaryKeys) != c.DocCount() {
		return nil, apperrors.Newf(apperrors.ErrInternal, apperrors.ExitFailure, "have %d primary keys for %d documents", len(c.PrimaryKeys), c.DocCount())
	}
	if err := os.MkdirAll(w.cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	ctx, span := tracing.Start(ctx, "serialize")
	defer func() {
		w.metrics.IndexBuildDuration.WithLabelValues("serialize").Observe(span.End().Seconds())
	}()

	files := make([]*pendingFile, 0, 4)
	abort := func() {
		for _, f := range files {
			f.abort()
		}
	}
	open := func(path string) (*pendingFile, error) {
		f, err := createPending(path)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
		return f, nil
	}

	docIDs, err := open(w.cfg.DocIDsPath())
	if err != nil {
		abort()
		return nil, err
	}
	lengths, err := open(w.cfg.LengthsPath())
	if err != nil {
		abort()
		return nil, err
	}
	vocab, err := open(w.cfg.VocabPath())
	if err != nil {
		abort()
		return nil, err
	}
	postings, err := open(w.cfg.PostingsPath())
	if err != nil {
		abort()
		return nil, err
	}

	manifest, err := w.write(ctx, c, docIDs, lengths, vocab, postings)
	if err != nil {
		abort()
		return nil, err
	}
	for _, f := range files {
		if err := f.finish(); err != nil {
			abort()
			return nil, err
		}
	}
	for i, f := range files {
		if err := f.commit(); err != nil {
			for _, done := range files[:i+1] {
				done.rollback()
			}
			abort()
			return nil, err
		}
	}
	for _, f := range files {
		f.dropBackup()
		manifest.Bytes[filepath.Base(f.final)] = f.written
		w.metrics.IndexBytesWritten.WithLabelValues(filepath.Base(f.final)).Add(float64(f.written))
	}
	w.metrics.TermsIndexed.Set(float64(manifest.Terms))
	w.metrics.PostingsWritten.Add(float64(manifest.Postings))
	w.logger.Info("index written",
		"dir", w.cfg.Dir,
		"docs", manifest.Docs,
		"terms", manifest.Terms,
		"postings", manifest.Postings,
	)
	return manifest, nil
}

func (w *Writer) write(ctx context.Context, c *index.Collection, docIDs, lengths, vocab, postings *pendingFile) (*Manifest, error) {
	for _, key := range c.PrimaryKeys {
		if _, err := docIDs.WriteString(key + "\n"); err != nil {
			return nil, fmt.Errorf("writing primary keys: %w", err)
		}
	}

	manifest := &Manifest{
		Docs:  c.DocCount(),
		Terms: len(c.Terms),
		Bytes: make(map[string]int64, 4),
	}
	var run, record []byte
	for i, entry := range c.Terms {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		where := postings.written
		size := int64(len(entry.Postings)) * PostingSize
		if where+size > math.MaxInt32 {
			return nil, fmt.Errorf("postings file exceeds %d bytes at term %q", math.MaxInt32, entry.Term)
		}
		run = AppendPostings(run[:0], entry.Postings)
		if _, err := postings.Write(run); err != nil {
			return nil, fmt.Errorf("writing postings for term %q: %w", entry.Term, err)
		}
		var err error
		record, err = AppendVocabRecord(record[:0], entry.Term, VocabEntry{Offset: int32(where), Size: int32(size)})
		if err != nil {
			return nil, fmt.Errorf("encoding vocabulary record: %w", err)
		}
		if _, err := vocab.Write(record); err != nil {
			return nil, fmt.Errorf("writing vocabulary for term %q: %w", entry.Term, err)
		}
		manifest.Postings += len(entry.Postings)
	}

	if _, err := lengths.Write(AppendLengths(nil, c.Lengths)); err != nil {
		return nil, fmt.Errorf("writing document lengths: %w", err)
	}
	return manifest, nil
}

// rename publishes files; tests swap it to fail mid-commit.
var rename = os.Rename

// pendingFile is a buffered .tmp file that becomes final on commit.
type pendingFile struct {
	f         *os.File
	w         *bufio.Writer
	tmp       string
	final     string
	written   int64
	backedUp  bool
	committed bool
}

func createPending(path string) (*pendingFile, error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", tmp, err)
	}
	return &pendingFile{f: f, w: bufio.NewWriterSize(f, 1<<16), tmp: tmp, final: path}, nil
}

func (p *pendingFile) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	return n, err
}

func (p *pendingFile) WriteString(s string) (int, error) {
	n, err := p.w.WriteString(s)
	p.written += int64(n)
	return n, err
}

// finish flushes, syncs and closes the temp file.
func (p *pendingFile) finish() error {
	if err := p.w.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", p.tmp, err)
	}
	if err := p.f.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", p.tmp, err)
	}
	if err := p.f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", p.tmp, err)
	}
	p.f = nil
	return nil
}

func (p *pendingFile) commit() error {
	if _, err := os.Lstat(p.final); err == nil {
		if err := rename(p.final, p.backup()); err != nil {
			return fmt.Errorf("moving aside %s: %w", p.final, err)
		}
		p.backedUp = true
	}
	if err := rename(p.tmp, p.final); err != nil {
		return fmt.Errorf("renaming %s: %w", p.tmp, err)
	}
	p.committed = true
	return nil
}

// rollback undoes commit and restores the file it replaced.
func (p *pendingFile) rollback() {
	if p.committed {
		os.Remove(p.final)
		p.committed = false
	}
	if p.backedUp {
		os.Rename(p.backup(), p.final)
		p.backedUp = false
	}
}

func (p *pendingFile) dropBackup() {
	if p.backedUp {
		os.Remove(p.backup())
		p.backedUp = false
	}
}

func (p *pendingFile) backup() string { return p.final + ".old" }

func (p *pendingFile) abort() {
	if p.f != nil {
		p.f.Close()
		p.f = nil
	}
	os.Remove(p.tmp)
}
