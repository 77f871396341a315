package indexer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/searchlab/jassjr/internal/indexer/index"
	"github.com/searchlab/jassjr/internal/indexer/tokenizer"
	"github.com/searchlab/jassjr/pkg/config"
	apperrors "github.com/searchlab/jassjr/pkg/errors"
	"github.com/searchlab/jassjr/pkg/logger"
	"github.com/searchlab/jassjr/pkg/metrics"
	"github.com/searchlab/jassjr/pkg/tracing"
)

// noDocument is the document id before the first document-start tag.
const noDocument int32 = -1

// Engine turns a token stream into an in-memory inverted index. It tracks
// document boundaries through the document-start tag and captures primary
// keys from the token following the key tag.
type Engine struct {
	memIndex    *index.MemoryIndex
	cfg         config.TokenizerConfig
	metrics     *metrics.Metrics
	logger      *slog.Logger
	primaryKeys []string
	lengths     []int32
	docID       int32
	docLength   int32
	captureKey  bool
	keySeen     bool
	finished    bool
}

func NewEngine(cfg config.TokenizerConfig, m *metrics.Metrics) *Engine {
	return &Engine{
		memIndex: index.NewMemoryIndex(),
		cfg:      cfg,
		metrics:  m,
		logger:   logger.WithComponent("indexer"),
		docID:    noDocument,
	}
}

// Build consumes the whole input and returns the finished collection, or nil
// when the input holds no documents.
func (e *Engine) Build(ctx context.Context, r io.Reader) (*index.Collection, error) {
	ctx, span := tracing.Start(ctx, "parse")
	err := e.consume(ctx, r)
	if err != nil {
		span.SetAttr("error", err.Error())
		span.End()
		return nil, err
	}
	c := e.Finish()
	span.SetAttr("docs", c.DocCount())
	span.SetAttr("terms", len(c.Terms))
	e.metrics.IndexBuildDuration.WithLabelValues("parse").Observe(span.End().Seconds())
	if c.DocCount() == 0 {
		return nil, nil
	}
	return c, nil
}

func (e *Engine) consume(ctx context.Context, r io.Reader) error {
	scanner := tokenizer.NewScanner(r)
	for scanner.Scan() {
		tok := scanner.Token()
		if tok.IsTag() && tok.Text == e.cfg.DocTag {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := e.Add(tok); err != nil {
			return fmt.Errorf("line %d: %w", scanner.Line(), err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// Add feeds one token to the builder.
func (e *Engine) Add(tok tokenizer.Token) error {
	if e.finished {
		return apperrors.New(apperrors.ErrInternal, apperrors.ExitFailure, "engine already finished")
	}
	if tok.IsTag() && tok.Text == e.cfg.DocTag {
		return e.startDocument()
	}

	capture := e.captureKey
	e.captureKey = false
	if tok.IsTag() {
		if tok.Text == e.cfg.KeyTag && e.docID != noDocument {
			e.captureKey = true
		}
		return nil
	}
	if e.docID == noDocument {
		return nil
	}
	if capture {
		e.setPrimaryKey(tok.Text)
	}

	if e.docLength == math.MaxInt32 {
		return apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitFailure, "document %d exceeds %d tokens", e.docID, math.MaxInt32)
	}
	e.memIndex.Add(tokenizer.Normalize(tok.Text), e.docID)
	e.docLength++
	e.metrics.TokensIndexedTotal.Inc()
	return nil
}

func (e *Engine) startDocument() error {
	if e.docID == math.MaxInt32 {
		return apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitFailure, "collection exceeds %d documents", math.MaxInt32)
	}
	if e.docID != noDocument {
		e.endDocument()
	}
	e.docID++
	e.docLength = 0
	e.captureKey = false
	e.keySeen = false
	e.primaryKeys = append(e.primaryKeys, "")
	e.metrics.DocsIndexedTotal.Inc()
	if every := e.cfg.ProgressEvery; every > 0 && e.docID%int32(every) == 0 {
		e.logger.Info("documents indexed", "docs", e.docID)
	}
	return nil
}

func (e *Engine) endDocument() {
	e.lengths = append(e.lengths, e.docLength)
	if !e.keySeen {
		e.logger.Warn("document has no primary key", "doc_id", e.docID)
	}
}

func (e *Engine) setPrimaryKey(key string) {
	if e.keySeen {
		e.logger.Warn("ignoring extra primary key",
			"doc_id", e.docID,
			"key", key,
			"kept", e.primaryKeys[e.docID],
		)
		return
	}
	e.primaryKeys[e.docID] = key
	e.keySeen = true
}

// Finish closes the last open document and hands over the collection. The
// engine cannot be reused afterwards.
func (e *Engine) Finish() *index.Collection {
	if !e.finished && e.docID != noDocument {
		e.endDocument()
	}
	e.finished = true
	c := &index.Collection{
		PrimaryKeys: e.primaryKeys,
		Lengths:     e.lengths,
		Terms:       e.memIndex.Snapshot(),
	}
	e.logger.Info("parsing complete",
		"docs", c.DocCount(),
		"terms", e.memIndex.Terms(),
		"postings", e.memIndex.Postings(),
	)
	return c
}
