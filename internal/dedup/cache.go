// Package dedup holds the per-run duplicate index for ingested jobs.
//
// A Cache is built once from a snapshot of the persisted jobs at the start
// of a pipeline run and updated as the run saves new records, so no store
// round-trip is needed per candidate. It is owned by a single run and never
// shared.
package dedup

import (
	"strings"

	"mailhunt-engine/internal/domain"
)

// MaxURLKeyLen bounds URL keys; the store cannot index longer strings, so
// truncation has to happen before any comparison or Has/Add would disagree
// with what was persisted.
const MaxURLKeyLen = 1400

// Seed is the slice of a persisted job the cache needs.
type Seed struct {
	Title   string
	Company string
	URL     string
}

type Cache struct {
	urls  map[string]struct{}
	pairs map[string]struct{}
}

func New(seeds []Seed) *Cache {
	c := &Cache{
		urls:  make(map[string]struct{}, len(seeds)),
		pairs: make(map[string]struct{}, len(seeds)),
	}
	for _, s := range seeds {
		c.put(s.URL, s.Title, s.Company)
	}
	return c
}

// Has reports whether the candidate matches an already-known posting by
// either URL or title/company pair.
func (c *Cache) Has(j domain.IngestCandidate) bool {
	if _, ok := c.urls[TruncateURL(j.URL)]; ok {
		return true
	}
	_, ok := c.pairs[pairKey(j.Title, j.Company)]
	return ok
}

// Add records a candidate after it has been persisted.
func (c *Cache) Add(j domain.IngestCandidate) {
	c.put(j.URL, j.Title, j.Company)
}

func (c *Cache) put(url, title, company string) {
	if u := TruncateURL(url); u != "" {
		c.urls[u] = struct{}{}
	}
	c.pairs[pairKey(title, company)] = struct{}{}
}

func TruncateURL(u string) string {
	if len(u) > MaxURLKeyLen {
		return u[:MaxURLKeyLen]
	}
	return u
}

func pairKey(title, company string) string {
	return strings.ToLower(title) + "|" + strings.ToLower(company)
}
