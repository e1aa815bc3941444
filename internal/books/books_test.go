package books

import "testing"

func TestBuildClusterCountsEachClubOnce(t *testing.T) {
	records := []RawBookRecord{
		{Title: "Dune", ClubName: "Sietch Readers", SourceType: SourceBookclubs, Category: CategoryCurrentlyReading, MemberCount: 120},
		{Title: "Dune", ClubName: "Sietch Readers", SourceType: SourceBookclubs, Category: CategoryPreviouslyRead, MemberCount: 120},
		{Title: "Dune", ClubName: "r/bookclub", SourceType: SourceReddit, Category: CategoryPreviouslyRead},
	}

	c := BuildCluster("dune frank herbert", records[0], records)

	if c.NumClubs != 2 {
		t.Errorf("NumClubs = %d, want 2 (same club twice counts once)", c.NumClubs)
	}
	if c.TotalMemberCount != 120 {
		t.Errorf("TotalMemberCount = %d, want 120 (no double count)", c.TotalMemberCount)
	}
	if !c.IsCurrentlyReading {
		t.Error("IsCurrentlyReading = false, want true")
	}
	if len(c.Books) != 3 {
		t.Errorf("Books = %d, want all 3 raw records kept", len(c.Books))
	}
}

func TestBuildClusterCaseInsensitiveCategory(t *testing.T) {
	records := []RawBookRecord{
		{Title: "Circe", ClubName: "A", SourceType: SourceGoodreads, Category: "currently reading"},
	}
	c := BuildCluster("circe", records[0], records)
	if !c.IsCurrentlyReading {
		t.Error("category match must be case-insensitive")
	}
}

func TestUniqueClubsFirstOccurrenceOrder(t *testing.T) {
	records := []RawBookRecord{
		{ClubName: "B", SourceType: SourceGoodreads, MemberCount: 5},
		{ClubName: "A", SourceType: SourceReddit},
		{ClubName: "B", SourceType: SourceGoodreads, MemberCount: 7},
		{ClubName: "B", SourceType: SourceReddit},
	}
	c := BuildCluster("k", records[0], records)

	clubs := c.UniqueClubs()
	if len(clubs) != 3 {
		t.Fatalf("clubs = %d, want 3 (B appears on two sources)", len(clubs))
	}
	want := []struct{ name, source string }{
		{"B", SourceGoodreads},
		{"A", SourceReddit},
		{"B", SourceReddit},
	}
	for i, w := range want {
		if clubs[i].ClubName != w.name || clubs[i].SourceType != w.source {
			t.Errorf("clubs[%d] = %s/%s, want %s/%s", i, clubs[i].ClubName, clubs[i].SourceType, w.name, w.source)
		}
	}
	// First occurrence wins on duplicates.
	if clubs[0].MemberCount != 5 {
		t.Errorf("MemberCount = %d, want 5", clubs[0].MemberCount)
	}
}
