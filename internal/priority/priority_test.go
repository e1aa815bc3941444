package priority

import (
	"fmt"
	"testing"

	"github.com/clubshelf/clubshelf/internal/books"
)

func cluster(title string, cr bool, members, clubs int) books.Cluster {
	return books.Cluster{
		Key:                 title,
		RepresentativeTitle: title,
		IsCurrentlyReading:  cr,
		TotalMemberCount:    members,
		NumClubs:            clubs,
	}
}

func TestCurrentlyReadingAlwaysOutranks(t *testing.T) {
	// Realistic bounds: member counts in the tens of thousands, club
	// counts in the hundreds.
	cr := cluster("cr", true, 0, 0)
	for _, members := range []int{0, 10, 5_000, 90_000} {
		for _, clubs := range []int{0, 1, 50, 400} {
			nonCR := cluster("non-cr", false, members, clubs)
			if Score(cr) <= Score(nonCR) {
				t.Errorf("non-CR cluster (members=%d clubs=%d, score=%d) outranks CR (score=%d)",
					members, clubs, Score(nonCR), Score(cr))
			}
		}
	}
}

func TestScoreComposition(t *testing.T) {
	c := cluster("x", false, 1_234, 3)
	if got, want := Score(c), 1_234+3*ClubAppearanceBonus; got != want {
		t.Errorf("Score = %d, want %d", got, want)
	}
	c.IsCurrentlyReading = true
	if got, want := Score(c), CurrentlyReadingBonus+1_234+3*ClubAppearanceBonus; got != want {
		t.Errorf("Score = %d, want %d", got, want)
	}
}

func TestSortByPriorityNonIncreasing(t *testing.T) {
	clusters := []books.Cluster{
		cluster("low", false, 10, 1),
		cluster("cr", true, 0, 1),
		cluster("mid", false, 5_000, 2),
	}
	sorted := SortByPriority(clusters)
	for i := 1; i < len(sorted); i++ {
		if Score(sorted[i-1]) < Score(sorted[i]) {
			t.Errorf("sequence increases at %d: %d < %d", i, Score(sorted[i-1]), Score(sorted[i]))
		}
	}
}

func TestSortByPriorityScenario(t *testing.T) {
	clusters := []books.Cluster{
		cluster("CR Book", true, 0, 0),
		cluster("Mid", false, 5_000, 0),
		cluster("Low", false, 10, 0),
	}
	sorted := SortByPriority(clusters)
	want := []string{"CR Book", "Mid", "Low"}
	for i, title := range want {
		if sorted[i].RepresentativeTitle != title {
			t.Errorf("sorted[%d] = %q, want %q", i, sorted[i].RepresentativeTitle, title)
		}
	}
}

func TestSortByPriorityStable(t *testing.T) {
	clusters := []books.Cluster{
		cluster("first", false, 100, 1),
		cluster("second", false, 100, 1),
		cluster("third", false, 100, 1),
	}
	sorted := SortByPriority(clusters)
	for i, title := range []string{"first", "second", "third"} {
		if sorted[i].RepresentativeTitle != title {
			t.Errorf("tie order changed: sorted[%d] = %q", i, sorted[i].RepresentativeTitle)
		}
	}
}

func TestSortByPriorityDoesNotMutateInput(t *testing.T) {
	clusters := []books.Cluster{
		cluster("low", false, 10, 1),
		cluster("cr", true, 0, 1),
	}
	SortByPriority(clusters)
	if clusters[0].RepresentativeTitle != "low" {
		t.Error("input slice was reordered")
	}
}

func TestSliceBudgetScenario(t *testing.T) {
	var clusters []books.Cluster
	for i := 0; i < 15; i++ {
		clusters = append(clusters, cluster(fmt.Sprintf("Book %02d", i), false, 15-i, 1))
	}
	sorted := SortByPriority(clusters)

	toFetch, remainder := SliceBudget(sorted, 5)
	if len(toFetch) != 5 || len(remainder) != 10 {
		t.Fatalf("split = %d/%d, want 5/10", len(toFetch), len(remainder))
	}
	for _, c := range remainder {
		if c.RepresentativeTitle == "" {
			t.Error("remainder entry lost its representative title")
		}
	}
	// Reordering-free split.
	for i, c := range append(append([]books.Cluster{}, toFetch...), remainder...) {
		if c.Key != sorted[i].Key {
			t.Errorf("split reordered input at %d", i)
		}
	}
}

func TestSliceBudgetQuotaExceedsLen(t *testing.T) {
	clusters := []books.Cluster{cluster("a", false, 1, 1), cluster("b", false, 2, 1)}
	toFetch, remainder := SliceBudget(clusters, 10)
	if len(toFetch) != 2 || len(remainder) != 0 {
		t.Errorf("split = %d/%d, want 2/0", len(toFetch), len(remainder))
	}
}

func TestSliceBudgetZeroAndNegative(t *testing.T) {
	clusters := []books.Cluster{cluster("a", false, 1, 1)}
	for _, quota := range []int{0, -3} {
		toFetch, remainder := SliceBudget(clusters, quota)
		if len(toFetch) != 0 || len(remainder) != 1 {
			t.Errorf("quota %d: split = %d/%d, want 0/1", quota, len(toFetch), len(remainder))
		}
	}
}
