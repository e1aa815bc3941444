package source

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/clubshelf/clubshelf/internal/books"
)

// record mirrors the scraper output schema. Parquet exports carry the
// same column names as the JSON fields.
type record struct {
	Title         string `json:"title" parquet:"title,optional"`
	Author        string `json:"author" parquet:"author,optional"`
	Category      string `json:"category" parquet:"category,optional"`
	ClubName      string `json:"club_name" parquet:"club_name,optional"`
	SourceType    string `json:"source_type" parquet:"source_type,optional"`
	DiscussionURL string `json:"discussion_url" parquet:"discussion_url,optional"`
	Month         string `json:"month" parquet:"month,optional"`
	MemberCount   int    `json:"member_count" parquet:"member_count,optional"`
	BookURL       string `json:"book_url" parquet:"book_url,optional"`
}

type document struct {
	Books []record `json:"books"`
}

// defaults fill fields the scrapers leave blank. Each upstream source
// has its own conventions for category and club naming.
type defaults struct {
	category   string
	clubName   string
	sourceType string
}

var sourceDefaults = map[string]defaults{
	books.SourceReddit:    {category: books.CategoryPreviouslyRead, clubName: "r/bookclub", sourceType: books.SourceReddit},
	books.SourceBookclubs: {category: books.CategoryCurrentlyReading, clubName: "Unknown Club", sourceType: books.SourceBookclubs},
	books.SourceGoodreads: {category: books.CategoryPreviouslyRead, clubName: "", sourceType: books.SourceGoodreads},
}

// Load reads one scraped data file and returns its records with
// per-source defaults applied. sourceType selects the defaults and must
// be one of the books.Source* constants.
func Load(path, sourceType string) ([]books.RawBookRecord, error) {
	d, ok := sourceDefaults[sourceType]
	if !ok {
		return nil, fmt.Errorf("unknown source type: %s", sourceType)
	}

	var records []record
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		records, err = loadParquet(path)
	case ".json":
		records, err = loadJSON(path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .json, .parquet)", ext)
	}
	if err != nil {
		return nil, err
	}

	out := make([]books.RawBookRecord, 0, len(records))
	dropped := 0
	for _, r := range records {
		// The Reddit wiki scraper emits a header row that is not a book.
		if sourceType == books.SourceReddit && strings.HasPrefix(r.Title, "Here is the list") {
			dropped++
			continue
		}
		out = append(out, applyDefaults(r, d))
	}

	slog.Debug("loaded source file", "path", path, "source", sourceType, "records", len(out), "dropped", dropped)
	return out, nil
}

// LoadAll reads the three scraper outputs and returns one combined
// record list in Reddit, Bookclubs.com, Goodreads order. Every file
// must exist; a missing input means the scrape never ran.
func LoadAll(redditPath, bookclubsPath, goodreadsPath string) ([]books.RawBookRecord, error) {
	var all []books.RawBookRecord
	for _, in := range []struct {
		path       string
		sourceType string
	}{
		{redditPath, books.SourceReddit},
		{bookclubsPath, books.SourceBookclubs},
		{goodreadsPath, books.SourceGoodreads},
	} {
		records, err := Load(in.path, in.sourceType)
		if err != nil {
			return nil, fmt.Errorf("loading %s data: %w", in.sourceType, err)
		}
		all = append(all, records...)
	}
	return all, nil
}

func applyDefaults(r record, d defaults) books.RawBookRecord {
	b := books.RawBookRecord{
		Title:         r.Title,
		Author:        r.Author,
		Category:      r.Category,
		ClubName:      r.ClubName,
		SourceType:    r.SourceType,
		DiscussionURL: r.DiscussionURL,
		Month:         r.Month,
		MemberCount:   r.MemberCount,
		BookURL:       r.BookURL,
	}
	if b.Category == "" {
		b.Category = d.category
	}
	if b.ClubName == "" {
		b.ClubName = d.clubName
	}
	if b.SourceType == "" {
		b.SourceType = d.sourceType
	}
	return b
}

func loadJSON(path string) ([]record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc.Books, nil
}

func loadParquet(path string) ([]record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[record](pf)
	defer reader.Close()

	var records []record
	rows := make([]record, 128)
	for {
		n, err := reader.Read(rows)
		if n > 0 {
			records = append(records, rows[:n]...)
		}
		if err != nil {
			break
		}
	}
	return records, nil
}
