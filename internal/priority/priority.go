// Package priority decides which clusters are worth an external lookup
// under the daily API budget.
package priority

import (
	"sort"

	"github.com/clubshelf/clubshelf/internal/books"
)

const (
	// CurrentlyReadingBonus must exceed any score a non-CR cluster can
	// reach from member counts and club bonuses, so that every
	// currently-reading cluster lands inside the API budget first.
	CurrentlyReadingBonus = 1_000_000

	// ClubAppearanceBonus rewards books read by many clubs over books
	// read by one huge club.
	ClubAppearanceBonus = 500
)

// DefaultQuota is the free daily Google Books call budget.
const DefaultQuota = 1_000

// Score computes the deterministic priority of a cluster.
func Score(c books.Cluster) int {
	score := 0
	if c.IsCurrentlyReading {
		score += CurrentlyReadingBonus
	}
	score += c.TotalMemberCount
	score += c.NumClubs * ClubAppearanceBonus
	return score
}

// SortByPriority returns a new slice sorted descending by score.
// Equal scores keep their input order.
func SortByPriority(clusters []books.Cluster) []books.Cluster {
	sorted := make([]books.Cluster, len(clusters))
	copy(sorted, clusters)
	sort.SliceStable(sorted, func(i, j int) bool {
		return Score(sorted[i]) > Score(sorted[j])
	})
	return sorted
}

// SliceBudget splits a priority-sorted cluster list into the top quota
// clusters that get an API call and the remainder that keep raw data only.
func SliceBudget(sorted []books.Cluster, quota int) (toFetch, remainder []books.Cluster) {
	if quota < 0 {
		quota = 0
	}
	if quota > len(sorted) {
		quota = len(sorted)
	}
	return sorted[:quota], sorted[quota:]
}
