package enrich

import (
	"testing"

	"github.com/clubshelf/clubshelf/internal/books"
)

func clusterWithClubs(key, title, author string, clubs ...books.RawBookRecord) books.Cluster {
	for i := range clubs {
		if clubs[i].Title == "" {
			clubs[i].Title = title
		}
		clubs[i].Author = author
	}
	rep := books.RawBookRecord{Title: title, Author: author}
	if len(clubs) > 0 {
		rep = clubs[0]
	}
	return books.BuildCluster(key, rep, clubs)
}

func club(name, source string) books.RawBookRecord {
	return books.RawBookRecord{ClubName: name, SourceType: source}
}

func TestMergeSameExternalID(t *testing.T) {
	meta := &books.EnrichedMetadata{
		GoogleBooksID:   "gid_1",
		CanonicalTitle:  "1984",
		CanonicalAuthor: "George Orwell",
		Categories:      []string{"Fiction"},
	}
	fetched := []Result{
		{Cluster: clusterWithClubs("k1", "1984", "George Orwell", club("Club A", books.SourceGoodreads), club("Club B", books.SourceReddit)), Meta: meta},
		{Cluster: clusterWithClubs("k2", "Nineteen Eighty-Four", "George Orwell", club("Club C", books.SourceBookclubs)), Meta: meta},
	}

	final := Merge(fetched, nil)
	if len(final) != 1 {
		t.Fatalf("entries = %d, want 1", len(final))
	}
	if got := len(final[0].Clubs); got != 3 {
		t.Errorf("clubs = %d, want sum of both clusters' clubs (3)", got)
	}
	if final[0].GoogleBooksID != "gid_1" {
		t.Errorf("GoogleBooksID = %q", final[0].GoogleBooksID)
	}
}

func TestMergeRoundTripSingleEntry(t *testing.T) {
	// Two different clusters resolving to the same external id appear
	// exactly once in the final catalog.
	meta := &books.EnrichedMetadata{GoogleBooksID: "abc123", CanonicalTitle: "1984", CanonicalAuthor: "George Orwell"}
	fetched := []Result{
		{Cluster: clusterWithClubs("k1", "1984", "George Orwell", club("A", books.SourceReddit)), Meta: meta},
		{Cluster: clusterWithClubs("k2", "1984 by George Orwell", "", club("B", books.SourceGoodreads)), Meta: meta},
	}
	final := Merge(fetched, nil)
	count := 0
	for _, e := range final {
		if e.GoogleBooksID == "abc123" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("id abc123 appears %d times, want 1", count)
	}
}

func TestMergeNilResultBecomesRawFallback(t *testing.T) {
	fetched := []Result{
		{Cluster: clusterWithClubs("k1", "Obscure Book", "Unknown", club("Club A", books.SourceGoodreads)), Meta: nil},
	}
	final := Merge(fetched, nil)
	if len(final) != 1 {
		t.Fatalf("entries = %d, want 1", len(final))
	}
	e := final[0]
	if e.GoogleBooksID != "" {
		t.Errorf("GoogleBooksID = %q, want empty", e.GoogleBooksID)
	}
	if e.CanonicalTitle != "Obscure Book" || e.CanonicalAuthor != "Unknown" {
		t.Errorf("canonical fields = %q/%q", e.CanonicalTitle, e.CanonicalAuthor)
	}
	if len(e.Categories) != 0 {
		t.Errorf("Categories = %v, want empty", e.Categories)
	}
}

func TestMergeRemainderEntries(t *testing.T) {
	remainder := []books.Cluster{
		clusterWithClubs("k1", "Raw Book", "Somebody", club("Club A", books.SourceGoodreads)),
	}
	final := Merge(nil, remainder)
	if len(final) != 1 {
		t.Fatalf("entries = %d, want 1", len(final))
	}
	if final[0].CanonicalTitle != "Raw Book" {
		t.Errorf("CanonicalTitle = %q", final[0].CanonicalTitle)
	}
	if len(final[0].Clubs) != 1 || final[0].Clubs[0].OriginalTitle != "Raw Book" {
		t.Errorf("clubs = %+v", final[0].Clubs)
	}
}

func TestMergeSecondPassCollapsesSameWork(t *testing.T) {
	// An enriched entry and a raw fallback describing the same work merge
	// on canonical (title, author) despite the missing external id.
	meta := &books.EnrichedMetadata{
		GoogleBooksID:   "g1",
		CanonicalTitle:  "The Hobbit",
		CanonicalAuthor: "J.R.R. Tolkien",
		Categories:      []string{"Fantasy"},
		Thumbnail:       "https://example.com/hobbit.jpg",
	}
	fetched := []Result{
		{Cluster: clusterWithClubs("k1", "The Hobbit", "J.R.R. Tolkien", club("Club A", books.SourceGoodreads)), Meta: meta},
	}
	remainder := []books.Cluster{
		clusterWithClubs("k2", "The Hobbit!", "JRR Tolkien", club("Club B", books.SourceReddit)),
	}

	final := Merge(fetched, remainder)
	if len(final) != 1 {
		t.Fatalf("entries = %d, want 1 (same work must collapse)", len(final))
	}
	if got := len(final[0].Clubs); got != 2 {
		t.Errorf("clubs = %d, want 2", got)
	}
}

func TestMergeBackfillsEmptyMetadata(t *testing.T) {
	bare := &books.EnrichedMetadata{
		GoogleBooksID:   "g1",
		CanonicalTitle:  "Dune",
		CanonicalAuthor: "Frank Herbert",
	}
	rich := &books.EnrichedMetadata{
		GoogleBooksID:   "g2", // alternate edition
		CanonicalTitle:  "Dune",
		CanonicalAuthor: "Frank Herbert",
		Categories:      []string{"Science Fiction"},
		PageCount:       412,
		Thumbnail:       "https://example.com/dune.jpg",
	}
	fetched := []Result{
		{Cluster: clusterWithClubs("k1", "Dune", "Frank Herbert", club("Club A", books.SourceGoodreads)), Meta: bare},
		{Cluster: clusterWithClubs("k2", "Dune (Dune, #1)", "Frank Herbert", club("Club B", books.SourceBookclubs)), Meta: rich},
	}

	final := Merge(fetched, nil)
	if len(final) != 1 {
		t.Fatalf("entries = %d, want 1", len(final))
	}
	e := final[0]
	if e.GoogleBooksID != "g1" {
		t.Errorf("first entry should stay the base, got id %q", e.GoogleBooksID)
	}
	if len(e.Categories) != 1 || e.PageCount != 412 || e.Thumbnail == "" {
		t.Errorf("backfill failed: %+v", e)
	}
}

func TestMergeNeverOverwritesNonEmptyMetadata(t *testing.T) {
	first := &books.EnrichedMetadata{
		GoogleBooksID:   "g1",
		CanonicalTitle:  "Dune",
		CanonicalAuthor: "Frank Herbert",
		Categories:      []string{"Science Fiction"},
		PageCount:       412,
	}
	second := &books.EnrichedMetadata{
		GoogleBooksID:   "g2",
		CanonicalTitle:  "Dune",
		CanonicalAuthor: "Frank Herbert",
		Categories:      []string{"Fiction"},
		PageCount:       600,
	}
	fetched := []Result{
		{Cluster: clusterWithClubs("k1", "Dune", "Frank Herbert", club("A", books.SourceGoodreads)), Meta: first},
		{Cluster: clusterWithClubs("k2", "Dune", "Frank Herbert", club("B", books.SourceReddit)), Meta: second},
	}
	final := Merge(fetched, nil)
	if len(final) != 1 {
		t.Fatalf("entries = %d, want 1", len(final))
	}
	if final[0].PageCount != 412 || final[0].Categories[0] != "Science Fiction" {
		t.Errorf("base metadata overwritten: %+v", final[0])
	}
}

func TestMergeClubOrdering(t *testing.T) {
	cluster := clusterWithClubs("k1", "Dune", "Frank Herbert",
		club("Zeta Readers", books.SourceGoodreads),
		club("r/bookclub", books.SourceReddit),
		club("Alpha Readers", books.SourceBookclubs),
		club("r/SFBookClub", books.SourceReddit),
	)
	final := Merge(nil, []books.Cluster{cluster})
	if len(final) != 1 {
		t.Fatalf("entries = %d, want 1", len(final))
	}
	clubs := final[0].Clubs
	want := []string{"r/SFBookClub", "r/bookclub", "Alpha Readers", "Zeta Readers"}
	for i, name := range want {
		if clubs[i].ClubName != name {
			t.Errorf("clubs[%d] = %q, want %q (order: %v)", i, clubs[i].ClubName, name, clubs)
		}
	}
}
