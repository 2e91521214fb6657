package search

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Preprocess normalizes every record once. Output order follows input order and
// each entry points back at its source record.
func Preprocess(records []ServiceRecord, n *Normalizer) []PreprocessedService {
	if n == nil {
		n = defaultNormalizer
	}
	out := make([]PreprocessedService, len(records))
	for i := range records {
		rec := &records[i]
		combined := rec.Title + " " + rec.Description + " " + strings.Join(rec.Keywords, " ")
		out[i] = PreprocessedService{
			Service: rec,
			Tokens:  n.Normalize(combined),
		}
	}
	return out
}

// Match scores query against entries by stem overlap and returns the first
// entry with the highest positive score, or NoMatch.
func Match(query string, entries []PreprocessedService, n *Normalizer) MatchResult {
	if n == nil {
		n = defaultNormalizer
	}
	queryTokens := n.Normalize(query)

	var best *ServiceRecord
	bestScore := 0
	for _, e := range entries {
		score := queryTokens.Intersect(e.Tokens)
		if score > bestScore {
			bestScore = score
			best = e.Service
		}
	}

	if best == nil || bestScore == 0 {
		return NoMatch
	}
	return resultFrom(best)
}

// Catalog is the preprocessed, read-only service index. It is safe for
// concurrent use once built.
type Catalog struct {
	entries    []PreprocessedService
	normalizer *Normalizer
}

// NewCatalog copies records and preprocesses them with n (nil means defaults).
func NewCatalog(records []ServiceRecord, n *Normalizer) *Catalog {
	if n == nil {
		n = defaultNormalizer
	}
	owned := make([]ServiceRecord, len(records))
	for i, rec := range records {
		owned[i] = ServiceRecord{
			Title:       rec.Title,
			Description: rec.Description,
			Keywords:    append([]string(nil), rec.Keywords...),
		}
	}
	return &Catalog{
		entries:    Preprocess(owned, n),
		normalizer: n,
	}
}

// Len returns the number of services in the catalog.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the preprocessed entries.
func (c *Catalog) Entries() []PreprocessedService {
	out := make([]PreprocessedService, len(c.entries))
	copy(out, c.entries)
	return out
}

// Match returns the best service for query or NoMatch.
func (c *Catalog) Match(query string) MatchResult {
	return Match(query, c.entries, c.normalizer)
}

// Rank returns every entry with a positive score, best first. Equal scores keep
// catalog order, so Rank(q, 1)[0] agrees with Match(q). limit <= 0 means no limit.
func (c *Catalog) Rank(query string, limit int) []ScoredService {
	queryTokens := c.normalizer.Normalize(query)

	var results []ScoredService
	for _, e := range c.entries {
		if score := queryTokens.Intersect(e.Tokens); score > 0 {
			results = append(results, ScoredService{Service: e.Service, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

// CatalogLoader builds a Catalog exactly once, on first use.
type CatalogLoader struct {
	load       func(ctx context.Context) ([]ServiceRecord, error)
	normalizer *Normalizer

	once    sync.Once
	catalog *Catalog
	err     error
}

// NewCatalogLoader wraps load so that it runs at most once.
func NewCatalogLoader(load func(ctx context.Context) ([]ServiceRecord, error), n *Normalizer) *CatalogLoader {
	return &CatalogLoader{load: load, normalizer: n}
}

// Get returns the catalog, building it on the first call. Concurrent callers
// wait for that build and all observe the same result.
func (l *CatalogLoader) Get(ctx context.Context) (*Catalog, error) {
	l.once.Do(func() {
		records, err := l.load(ctx)
		if err != nil {
			l.err = err
			return
		}
		l.catalog = NewCatalog(records, l.normalizer)
	})
	return l.catalog, l.err
}
