package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/clubshelf/clubshelf/internal/books"
)

// Stats summarizes the final catalog.
type Stats struct {
	TotalUniqueBooks         int      `json:"total_unique_books"`
	TotalClubInteractions    int      `json:"total_club_interactions"`
	BooksWithGenre           int      `json:"books_with_genre"`
	BooksReadByMultipleClubs int      `json:"books_read_by_multiple_clubs"`
	AllGenres                []string `json:"all_genres"`
}

// Document is the enriched catalog: every deduplicated book with whatever
// metadata the lookup produced, sorted by title.
type Document struct {
	EnrichedAt string             `json:"enriched_at"`
	RunID      string             `json:"run_id"`
	Stats      Stats              `json:"stats"`
	Books      []books.FinalEntry `json:"books"`
}

// Build assembles the catalog document from merged entries. Books sort
// alphabetically by canonical title, case-insensitive.
func Build(entries []books.FinalEntry, runID string, now time.Time) Document {
	sorted := make([]books.FinalEntry, len(entries))
	copy(sorted, entries)

	c := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(sorted, func(i, j int) bool {
		return c.CompareString(sorted[i].CanonicalTitle, sorted[j].CanonicalTitle) < 0
	})

	stats := Stats{
		TotalUniqueBooks: len(sorted),
		AllGenres:        []string{},
	}
	genres := make(map[string]bool)
	for _, e := range sorted {
		stats.TotalClubInteractions += len(e.Clubs)
		if len(e.Categories) > 0 {
			stats.BooksWithGenre++
		}
		if len(e.Clubs) > 1 {
			stats.BooksReadByMultipleClubs++
		}
		for _, g := range e.Categories {
			genres[g] = true
		}
	}
	for g := range genres {
		stats.AllGenres = append(stats.AllGenres, g)
	}
	sort.Strings(stats.AllGenres)

	return Document{
		EnrichedAt: now.UTC().Format("2006-01-02T15:04:05Z"),
		RunID:      runID,
		Stats:      stats,
		Books:      sorted,
	}
}

// WriteJSON writes the catalog document, creating the parent directory
// if needed.
func WriteJSON(path string, doc Document) error {
	return writeJSON(path, doc)
}

// RunSummary records what one pipeline invocation did, for operators
// comparing runs.
type RunSummary struct {
	RunID          string    `yaml:"run_id"`
	Stage          string    `yaml:"stage"`
	StartedAt      time.Time `yaml:"started_at"`
	FinishedAt     time.Time `yaml:"finished_at"`
	RawRecords     int       `yaml:"raw_records,omitempty"`
	PreGroups      int       `yaml:"pre_groups,omitempty"`
	Clusters       int       `yaml:"clusters"`
	PriorityA      int       `yaml:"priority_a"`
	PriorityB      int       `yaml:"priority_b"`
	EnrichedViaAPI int       `yaml:"enriched_via_api,omitempty"`
	APICalls       int64     `yaml:"api_calls,omitempty"`
	CacheEntries   int       `yaml:"cache_entries,omitempty"`
	UniqueBooks    int       `yaml:"unique_books,omitempty"`
}

// WriteSummaryYAML writes the run summary next to the other outputs.
func WriteSummaryYAML(path string, summary RunSummary) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	data, err := yaml.Marshal(&summary)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}
