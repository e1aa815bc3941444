// Package dedupe collapses raw book records into clusters: first an
// exact-key pre-grouping over normalized strings, then semantic merging
// of the surviving groups via embedding similarity.
package dedupe

import (
	"github.com/clubshelf/clubshelf/internal/books"
	"github.com/clubshelf/clubshelf/internal/normalize"
)

// PreGroups is an insertion-ordered partition of raw records keyed by
// normalized title+author string. Every record lands in exactly one group;
// records whose key normalizes to the empty string are dropped.
type PreGroups struct {
	Keys    []string
	Members map[string][]books.RawBookRecord
}

// PreGroup partitions records by normalized key. Key order and the order
// of records within a group follow input order, which downstream stages
// rely on when choosing cluster representatives.
func PreGroup(records []books.RawBookRecord) *PreGroups {
	g := &PreGroups{Members: make(map[string][]books.RawBookRecord)}
	for _, r := range records {
		key := normalize.Normalize(r.Title, r.Author)
		if key == "" {
			continue
		}
		if _, ok := g.Members[key]; !ok {
			g.Keys = append(g.Keys, key)
		}
		g.Members[key] = append(g.Members[key], r)
	}
	return g
}

// Len returns the number of distinct groups.
func (g *PreGroups) Len() int {
	return len(g.Keys)
}

// RecordCount returns the number of records across all groups.
func (g *PreGroups) RecordCount() int {
	n := 0
	for _, members := range g.Members {
		n += len(members)
	}
	return n
}
