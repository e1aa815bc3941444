// Package books defines the record shapes flowing through the
// deduplication and enrichment pipeline.
package books

import "strings"

// Source types as emitted by the upstream scrapers.
const (
	SourceReddit    = "Reddit"
	SourceBookclubs = "Bookclubs.com"
	SourceGoodreads = "Goodreads"
)

// Well-known category values. Sources may also carry free-text categories.
const (
	CategoryCurrentlyReading = "Currently Reading"
	CategoryPreviouslyRead   = "Previously Read"
)

// RawBookRecord is one scraped title/author observation from a club.
// Records are immutable once loaded; defaults for missing fields are
// applied per-source at the load boundary, not here.
type RawBookRecord struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Category      string `json:"category"`
	ClubName      string `json:"club_name"`
	SourceType    string `json:"source_type"`
	DiscussionURL string `json:"discussion_url"`
	Month         string `json:"month,omitempty"`
	MemberCount   int    `json:"member_count,omitempty"`
	BookURL       string `json:"book_url,omitempty"`
}

// ClubActivity is one club's relationship to a clustered book, deduplicated
// by (club_name, source_type) within the cluster.
type ClubActivity struct {
	ClubName      string `json:"club_name"`
	SourceType    string `json:"source_type"`
	DiscussionURL string `json:"discussion_url"`
	Category      string `json:"category"`
	MemberCount   int    `json:"member_count"`
	Month         string `json:"month,omitempty"`
}

// Cluster groups raw records believed to refer to the same book.
// Key is the normalized comparison string of the chosen representative.
type Cluster struct {
	Key                  string
	RepresentativeTitle  string
	RepresentativeAuthor string
	IsCurrentlyReading   bool
	TotalMemberCount     int
	NumClubs             int
	Books                []RawBookRecord
}

// BuildCluster assembles a cluster from records sharing a key. Aggregate
// stats count each (club_name, source_type) pair once, so a club that
// contributed both a currently-reading row and historical rows does not
// inflate the member total.
func BuildCluster(key string, rep RawBookRecord, records []RawBookRecord) Cluster {
	c := Cluster{
		Key:                  key,
		RepresentativeTitle:  rep.Title,
		RepresentativeAuthor: rep.Author,
		Books:                records,
	}

	seen := make(map[string]bool)
	for _, r := range records {
		if strings.EqualFold(r.Category, CategoryCurrentlyReading) {
			c.IsCurrentlyReading = true
		}
		clubKey := r.ClubName + "|" + r.SourceType
		if !seen[clubKey] {
			seen[clubKey] = true
			c.NumClubs++
			c.TotalMemberCount += r.MemberCount
		}
	}
	return c
}

// UniqueClubs returns one ClubActivity per distinct (club_name, source_type)
// pair, in first-occurrence order.
func (c Cluster) UniqueClubs() []ClubActivity {
	var clubs []ClubActivity
	seen := make(map[string]bool)
	for _, r := range c.Books {
		clubKey := r.ClubName + "|" + r.SourceType
		if seen[clubKey] {
			continue
		}
		seen[clubKey] = true
		clubs = append(clubs, ClubActivity{
			ClubName:      r.ClubName,
			SourceType:    r.SourceType,
			DiscussionURL: r.DiscussionURL,
			Category:      r.Category,
			MemberCount:   r.MemberCount,
			Month:         r.Month,
		})
	}
	return clubs
}

// EnrichedMetadata is the authoritative record returned by the catalog API.
type EnrichedMetadata struct {
	GoogleBooksID   string   `json:"google_books_id"`
	CanonicalTitle  string   `json:"canonical_title"`
	CanonicalAuthor string   `json:"canonical_author"`
	Categories      []string `json:"categories"`
	PageCount       int      `json:"page_count,omitempty"`
	PublishedDate   string   `json:"published_date"`
	Thumbnail       string   `json:"thumbnail"`
	Description     string   `json:"description"`
}

// ClubRef ties a final catalog entry back to the club record it came from.
type ClubRef struct {
	ClubName      string `json:"club_name"`
	SourceType    string `json:"source_type"`
	DiscussionURL string `json:"discussion_url"`
	Month         string `json:"month,omitempty"`
	OriginalTitle string `json:"original_title"`
}

// FinalEntry is one row of the output catalog: either API-derived metadata
// or a raw fallback carrying only the representative title/author.
type FinalEntry struct {
	GoogleBooksID   string    `json:"google_books_id,omitempty"`
	CanonicalTitle  string    `json:"canonical_title"`
	CanonicalAuthor string    `json:"canonical_author"`
	Categories      []string  `json:"categories"`
	PageCount       int       `json:"page_count,omitempty"`
	PublishedDate   string    `json:"published_date"`
	Thumbnail       string    `json:"thumbnail"`
	Description     string    `json:"description"`
	Clubs           []ClubRef `json:"clubs"`
}
