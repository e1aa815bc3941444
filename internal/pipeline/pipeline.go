// Package pipeline orchestrates the two processing stages: local
// deduplication of scraped book records, and quota-limited metadata
// enrichment of the resulting clusters.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/clubshelf/clubshelf/internal/books"
	"github.com/clubshelf/clubshelf/internal/cache"
	"github.com/clubshelf/clubshelf/internal/catalog"
	"github.com/clubshelf/clubshelf/internal/config"
	"github.com/clubshelf/clubshelf/internal/dedupe"
	"github.com/clubshelf/clubshelf/internal/enrich"
	"github.com/clubshelf/clubshelf/internal/priority"
	"github.com/clubshelf/clubshelf/internal/source"
)

// RunDedupe executes the first stage: load all scraped records,
// pre-group them by normalized key, cluster the groups semantically,
// and write the clusters document. The returned clusters feed a chained
// enrichment run without re-reading the file.
func RunDedupe(ctx context.Context, cfg *config.Config, embedder dedupe.Embedder) ([]books.Cluster, error) {
	fmt.Println("============================================================")
	fmt.Println("  Book Deduplication")
	fmt.Println("============================================================")

	raw, err := source.LoadAll(cfg.Sources.Reddit, cfg.Sources.Bookclubs, cfg.Sources.Goodreads)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	for _, r := range raw {
		counts[r.SourceType]++
	}
	fmt.Printf("\n  Raw books loaded: %d\n", len(raw))
	fmt.Printf("    Reddit:       %d\n", counts[books.SourceReddit])
	fmt.Printf("    Bookclubs:    %d\n", counts[books.SourceBookclubs])
	fmt.Printf("    Goodreads:    %d\n", counts[books.SourceGoodreads])

	groups := dedupe.PreGroup(raw)
	fmt.Printf("\n  Pre-grouped into %d unique keys\n", groups.Len())
	if len(raw) > 0 {
		reduction := 100 * (1 - float64(groups.Len())/float64(len(raw)))
		fmt.Printf("  Compression: %d records, %d groups (%.1f%% reduction)\n", len(raw), groups.Len(), reduction)
	}

	clusters, err := dedupe.ClusterGroups(ctx, groups, embedder, cfg.Dedupe.SimilarityThreshold)
	if err != nil {
		return nil, err
	}

	doc := catalog.BuildClusters(clusters, time.Now())
	if err := catalog.WriteClustersJSON(cfg.ClustersPath, doc); err != nil {
		return nil, err
	}
	slog.Info("wrote clusters document", "path", cfg.ClustersPath, "clusters", doc.TotalClusters)

	fmt.Println("\n============================================================")
	fmt.Println("  DEDUPLICATION COMPLETE")
	fmt.Println("============================================================")
	fmt.Printf("  Raw records ingested:  %d\n", len(raw))
	fmt.Printf("  String pre-groups:     %d\n", groups.Len())
	fmt.Printf("  Final clusters:        %d\n", doc.TotalClusters)
	fmt.Printf("  Currently reading:     %d\n", doc.PriorityACount)
	fmt.Printf("  Previously read:       %d\n", doc.PriorityBCount)

	return clusters, nil
}

// RunEnrich executes the second stage: sort clusters by priority, spend
// the API budget on the top slice, merge results with the raw
// remainder, and write the catalog plus a run summary. A nil clusters
// slice means load the first stage's output from disk.
func RunEnrich(ctx context.Context, cfg *config.Config, lookup enrich.Lookup, clusters []books.Cluster, quota int) error {
	started := time.Now()
	runID := uuid.NewString()

	fmt.Println("============================================================")
	fmt.Println("  Book Enrichment: Prioritized API Fetching")
	fmt.Println("============================================================")

	if clusters == nil {
		var err error
		clusters, err = catalog.LoadClusters(cfg.ClustersPath)
		if err != nil {
			return fmt.Errorf("run the dedupe stage first: %w", err)
		}
	}
	fmt.Printf("\n  Clusters loaded: %d\n", len(clusters))

	sorted := priority.SortByPriority(clusters)
	toFetch, remainder := priority.SliceBudget(sorted, quota)
	fmt.Printf("  API budget: %d of %d clusters\n", len(toFetch), len(clusters))

	store, err := cache.Open(cfg.CachePath)
	if err != nil {
		return fmt.Errorf("opening lookup cache: %w", err)
	}
	defer store.Close()

	fetcher := &enrich.Fetcher{
		Client:        lookup,
		Cache:         store,
		MaxConcurrent: cfg.Enrich.MaxConcurrent,
		Delay:         cfg.RequestDelay(),
	}
	fetched := fetcher.FetchAll(ctx, toFetch)

	entries := enrich.Merge(fetched, remainder)

	doc := catalog.Build(entries, runID, time.Now())
	if err := catalog.WriteJSON(cfg.CatalogPath, doc); err != nil {
		return err
	}
	slog.Info("wrote catalog", "path", cfg.CatalogPath, "books", doc.Stats.TotalUniqueBooks)

	cacheEntries, err := store.Len()
	if err != nil {
		slog.Warn("failed to count cache entries", "error", err)
	}

	priorityA := 0
	for _, c := range clusters {
		if c.IsCurrentlyReading {
			priorityA++
		}
	}
	summary := catalog.RunSummary{
		RunID:          runID,
		Stage:          "enrich",
		StartedAt:      started.UTC(),
		FinishedAt:     time.Now().UTC(),
		Clusters:       len(clusters),
		PriorityA:      priorityA,
		PriorityB:      len(clusters) - priorityA,
		EnrichedViaAPI: len(toFetch),
		APICalls:       fetcher.APICalls(),
		CacheEntries:   cacheEntries,
		UniqueBooks:    doc.Stats.TotalUniqueBooks,
	}
	if err := catalog.WriteSummaryYAML(cfg.SummaryPath, summary); err != nil {
		return err
	}

	fmt.Println("\n============================================================")
	fmt.Println("  ENRICHMENT COMPLETE")
	fmt.Println("============================================================")
	fmt.Printf("  Unique books:          %d\n", doc.Stats.TotalUniqueBooks)
	fmt.Printf("  Club interactions:     %d\n", doc.Stats.TotalClubInteractions)
	fmt.Printf("  Books with genre:      %d\n", doc.Stats.BooksWithGenre)
	fmt.Printf("  Read by 2+ clubs:      %d\n", doc.Stats.BooksReadByMultipleClubs)
	fmt.Printf("  API calls made:        %d\n", fetcher.APICalls())
	fmt.Printf("  Cache entries:         %d\n", cacheEntries)

	return nil
}

// Run chains deduplication and enrichment in one process, passing the
// clusters through memory.
func Run(ctx context.Context, cfg *config.Config, embedder dedupe.Embedder, lookup enrich.Lookup, quota int) error {
	clusters, err := RunDedupe(ctx, cfg, embedder)
	if err != nil {
		return err
	}
	return RunEnrich(ctx, cfg, lookup, clusters, quota)
}
