// Package cache keeps recently used postings lists in memory so that terms
// repeated across queries are read from disk once.
package cache

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/searchlab/jassjr/internal/indexer/index"
	"github.com/searchlab/jassjr/pkg/logger"
	"github.com/searchlab/jassjr/pkg/metrics"
)

// Loader reads a term's postings list from the index.
type Loader interface {
	Postings(term string) (index.PostingList, bool, error)
}

type entry struct {
	postings index.PostingList
	found    bool
}

// PostingsCache is a bounded LRU in front of a Loader. Concurrent misses on
// the same term share one read. Cached lists are shared and must not be
// modified by callers.
type PostingsCache struct {
	loader  Loader
	lru     *lru.Cache[string, entry]
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(loader Loader, size int, m *metrics.Metrics) (*PostingsCache, error) {
	c, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("creating postings cache: %w", err)
	}
	return &PostingsCache{
		loader:  loader,
		lru:     c,
		metrics: m,
		logger:  logger.WithComponent("postings-cache"),
	}, nil
}

// Postings serves term from the cache, loading it on a miss. Unknown terms
// are cached as well.
func (c *PostingsCache) Postings(term string) (index.PostingList, bool, error) {
	if e, ok := c.lru.Get(term); ok {
		c.hits.Add(1)
		c.metrics.PostingsCacheHits.Inc()
		return e.postings, e.found, nil
	}
	c.misses.Add(1)
	c.metrics.PostingsCacheMisses.Inc()

	v, err, shared := c.group.Do(term, func() (any, error) {
		postings, found, err := c.loader.Postings(term)
		if err != nil {
			return nil, err
		}
		e := entry{postings: postings, found: found}
		c.lru.Add(term, e)
		return e, nil
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		c.logger.Debug("postings load shared", "term", term)
	}
	e := v.(entry)
	return e.postings, e.found, nil
}

func (c *PostingsCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *PostingsCache) Len() int {
	return c.lru.Len()
}
