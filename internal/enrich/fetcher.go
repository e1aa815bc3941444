// Package enrich looks up budgeted clusters on the metadata catalog and
// reconciles the results into the final deduplicated book list.
package enrich

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clubshelf/clubshelf/internal/books"
	"github.com/clubshelf/clubshelf/internal/cache"
	"github.com/clubshelf/clubshelf/internal/normalize"
)

// Lookup is the slice of the catalog client the fetcher depends on.
// A nil metadata with nil error means the catalog had no match.
type Lookup interface {
	Search(ctx context.Context, query string) (*books.EnrichedMetadata, error)
}

// Result pairs a cluster with its lookup outcome. Meta is nil when the
// catalog had no match or the lookup failed; the cluster then falls back
// to its raw representative data.
type Result struct {
	Cluster books.Cluster
	Meta    *books.EnrichedMetadata
}

// Fetcher runs rate-limited catalog lookups for a batch of clusters.
type Fetcher struct {
	Client Lookup
	Cache  *cache.Store

	// MaxConcurrent bounds simultaneous in-flight calls. Values below 1
	// mean fully serialized.
	MaxConcurrent int

	// Delay is slept before every external call, keeping the request
	// rate under the per-minute ceiling regardless of MaxConcurrent.
	Delay time.Duration

	apiCalls atomic.Int64
}

// FetchAll looks up metadata for every cluster, consulting the cache
// first. Results are paired with their cluster by position, never by
// completion order. Lookup failures degrade to a nil result for that
// cluster only; nothing here returns an error to the caller.
func (f *Fetcher) FetchAll(ctx context.Context, clusters []books.Cluster) []Result {
	maxConcurrent := f.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxConcurrent)
	results := make([]Result, len(clusters))

	for i, cluster := range clusters {
		wg.Add(1)
		go func(idx int, cluster books.Cluster) {
			defer wg.Done()
			results[idx] = Result{Cluster: cluster, Meta: f.fetchSingle(ctx, cluster, semaphore)}
		}(i, cluster)
	}
	wg.Wait()

	return results
}

// APICalls reports how many lookups actually reached the network, as
// opposed to being served from the cache.
func (f *Fetcher) APICalls() int64 {
	return f.apiCalls.Load()
}

func (f *Fetcher) fetchSingle(ctx context.Context, cluster books.Cluster, semaphore chan struct{}) *books.EnrichedMetadata {
	if meta, known, err := f.Cache.Get(cluster.Key); err != nil {
		slog.Warn("Cache read failed", "key", cluster.Key, "err", err)
	} else if known {
		return meta
	}

	semaphore <- struct{}{}        // Acquire
	defer func() { <-semaphore }() // Release

	time.Sleep(f.Delay)

	query := normalize.CleanForSearch(cluster.RepresentativeTitle, cluster.RepresentativeAuthor)
	f.apiCalls.Add(1)
	meta, err := f.Client.Search(ctx, query)
	if err != nil {
		// Not cached: a transient failure stays eligible for retry on a
		// future run.
		slog.Warn("Catalog lookup failed", "query", query, "err", err)
		return nil
	}

	if meta == nil {
		if err := f.Cache.PutMiss(cluster.Key); err != nil {
			slog.Warn("Failed to cache miss", "key", cluster.Key, "err", err)
		}
		return nil
	}

	if err := f.Cache.PutHit(cluster.Key, meta); err != nil {
		slog.Warn("Failed to cache lookup", "key", cluster.Key, "err", err)
	}
	return meta
}
