// Package catalog builds and persists the pipeline's output documents:
// the deduplicated cluster list from the first stage and the enriched
// book catalog from the second.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/clubshelf/clubshelf/internal/books"
	"github.com/clubshelf/clubshelf/internal/normalize"
)

// ClusterEntry is one deduplicated book in the clusters document. The
// clubs list is already deduplicated by (club_name, source_type).
type ClusterEntry struct {
	RepresentativeTitle  string               `json:"representative_title"`
	RepresentativeAuthor string               `json:"representative_author"`
	Priority             string               `json:"priority"`
	HasCurrentlyReading  bool                 `json:"has_currently_reading"`
	ClubCount            int                  `json:"club_count"`
	Clubs                []books.ClubActivity `json:"clubs"`
}

// ClustersDocument is the first-stage output, consumed by enrichment.
type ClustersDocument struct {
	DeduplicatedAt        string         `json:"deduplicated_at"`
	TotalClusters         int            `json:"total_clusters"`
	PriorityACount        int            `json:"priority_a_count"`
	PriorityBCount        int            `json:"priority_b_count"`
	TotalClubInteractions int            `json:"total_club_interactions"`
	Clusters              []ClusterEntry `json:"clusters"`
}

// BuildClusters assembles the clusters document. Priority A means at
// least one club is currently reading the book; entries sort A before B,
// then by descending club count.
func BuildClusters(clusters []books.Cluster, now time.Time) ClustersDocument {
	entries := make([]ClusterEntry, 0, len(clusters))
	for _, c := range clusters {
		priority := "B"
		if c.IsCurrentlyReading {
			priority = "A"
		}
		clubs := c.UniqueClubs()
		entries = append(entries, ClusterEntry{
			RepresentativeTitle:  c.RepresentativeTitle,
			RepresentativeAuthor: c.RepresentativeAuthor,
			Priority:             priority,
			HasCurrentlyReading:  c.IsCurrentlyReading,
			ClubCount:            len(clubs),
			Clubs:                clubs,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority < entries[j].Priority
		}
		return entries[i].ClubCount > entries[j].ClubCount
	})

	doc := ClustersDocument{
		DeduplicatedAt: now.UTC().Format("2006-01-02T15:04:05Z"),
		TotalClusters:  len(entries),
		Clusters:       entries,
	}
	for _, e := range entries {
		if e.Priority == "A" {
			doc.PriorityACount++
		} else {
			doc.PriorityBCount++
		}
		doc.TotalClubInteractions += e.ClubCount
	}
	return doc
}

// WriteClustersJSON writes the clusters document, creating the parent
// directory if needed.
func WriteClustersJSON(path string, doc ClustersDocument) error {
	return writeJSON(path, doc)
}

// LoadClusters reads a clusters document and rebuilds pipeline clusters
// from it. Cluster keys are recomputed from the representatives; raw
// records are reconstructed from the deduplicated clubs list, so each
// club contributes exactly one record.
func LoadClusters(path string) ([]books.Cluster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open clusters file: %w", err)
	}

	var doc ClustersDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse clusters file %s: %w", path, err)
	}

	clusters := make([]books.Cluster, 0, len(doc.Clusters))
	for _, e := range doc.Clusters {
		c := books.Cluster{
			Key:                  normalize.Normalize(e.RepresentativeTitle, e.RepresentativeAuthor),
			RepresentativeTitle:  e.RepresentativeTitle,
			RepresentativeAuthor: e.RepresentativeAuthor,
			IsCurrentlyReading:   e.HasCurrentlyReading,
			NumClubs:             e.ClubCount,
		}
		for _, club := range e.Clubs {
			c.TotalMemberCount += club.MemberCount
			c.Books = append(c.Books, books.RawBookRecord{
				Title:         e.RepresentativeTitle,
				Author:        e.RepresentativeAuthor,
				Category:      club.Category,
				ClubName:      club.ClubName,
				SourceType:    club.SourceType,
				DiscussionURL: club.DiscussionURL,
				Month:         club.Month,
				MemberCount:   club.MemberCount,
			})
		}
		clusters = append(clusters, c)
	}
	return clusters, nil
}

func writeJSON(path string, doc any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
