package enrich

import (
	"sort"

	"github.com/clubshelf/clubshelf/internal/books"
	"github.com/clubshelf/clubshelf/internal/normalize"
)

// Merge reconciles fetched results and remainder clusters into the final
// deduplicated entry list.
//
// Pass one groups fetched clusters by Google Books id: the first
// occurrence supplies the metadata, later occurrences only append their
// club records. Fetches with no usable result join the remainder as raw
// fallbacks. Pass two collapses entries sharing a canonical
// (title, author) key, because distinct ids can describe alternate
// editions of one work and raw fallbacks have no id at all; empty
// categories, page count, and thumbnail on the surviving entry are
// backfilled from later duplicates, never overwritten.
func Merge(fetched []Result, remainder []books.Cluster) []books.FinalEntry {
	var idOrder []string
	byID := make(map[string]*books.FinalEntry)
	var noMatch []books.FinalEntry

	for _, item := range fetched {
		meta := item.Meta
		if meta == nil || meta.GoogleBooksID == "" {
			noMatch = append(noMatch, rawEntry(item.Cluster))
			continue
		}

		entry, ok := byID[meta.GoogleBooksID]
		if !ok {
			entry = &books.FinalEntry{
				GoogleBooksID:   meta.GoogleBooksID,
				CanonicalTitle:  meta.CanonicalTitle,
				CanonicalAuthor: meta.CanonicalAuthor,
				Categories:      meta.Categories,
				PageCount:       meta.PageCount,
				PublishedDate:   meta.PublishedDate,
				Thumbnail:       meta.Thumbnail,
				Description:     meta.Description,
			}
			byID[meta.GoogleBooksID] = entry
			idOrder = append(idOrder, meta.GoogleBooksID)
		}
		for _, b := range item.Cluster.Books {
			entry.Clubs = append(entry.Clubs, clubRef(b))
		}
	}

	for _, cluster := range remainder {
		noMatch = append(noMatch, rawEntry(cluster))
	}

	all := make([]books.FinalEntry, 0, len(idOrder)+len(noMatch))
	for _, id := range idOrder {
		all = append(all, *byID[id])
	}
	all = append(all, noMatch...)

	var keyOrder []string
	merged := make(map[string]*books.FinalEntry)
	for i := range all {
		entry := all[i]
		key := normalize.Canonical(entry.CanonicalTitle) + "|" + normalize.Canonical(entry.CanonicalAuthor)

		base, ok := merged[key]
		if !ok {
			e := entry
			merged[key] = &e
			keyOrder = append(keyOrder, key)
			continue
		}
		base.Clubs = append(base.Clubs, entry.Clubs...)
		if len(base.Categories) == 0 && len(entry.Categories) > 0 {
			base.Categories = entry.Categories
		}
		if base.PageCount == 0 && entry.PageCount != 0 {
			base.PageCount = entry.PageCount
		}
		if base.Thumbnail == "" && entry.Thumbnail != "" {
			base.Thumbnail = entry.Thumbnail
		}
	}

	final := make([]books.FinalEntry, 0, len(keyOrder))
	for _, key := range keyOrder {
		entry := *merged[key]
		sortClubs(entry.Clubs)
		final = append(final, entry)
	}
	return final
}

// sortClubs orders club records Reddit-first, then alphabetically by club
// name; ties keep input order.
func sortClubs(clubs []books.ClubRef) {
	sort.SliceStable(clubs, func(i, j int) bool {
		ri := clubs[i].SourceType == books.SourceReddit
		rj := clubs[j].SourceType == books.SourceReddit
		if ri != rj {
			return ri
		}
		return clubs[i].ClubName < clubs[j].ClubName
	})
}

func clubRef(b books.RawBookRecord) books.ClubRef {
	return books.ClubRef{
		ClubName:      b.ClubName,
		SourceType:    b.SourceType,
		DiscussionURL: b.DiscussionURL,
		Month:         b.Month,
		OriginalTitle: b.Title,
	}
}

// rawEntry builds a fallback entry carrying only locally known data.
func rawEntry(cluster books.Cluster) books.FinalEntry {
	entry := books.FinalEntry{
		CanonicalTitle:  cluster.RepresentativeTitle,
		CanonicalAuthor: cluster.RepresentativeAuthor,
		Categories:      []string{},
	}
	for _, b := range cluster.Books {
		entry.Clubs = append(entry.Clubs, clubRef(b))
	}
	return entry
}
