package titleindex

import (
	"testing"

	"github.com/DreamCats/movierec/internal/catalog"
)

func testItems() []catalog.Item {
	return []catalog.Item{
		{ID: 19995, Title: "Avatar"},
		{ID: 285, Title: "Pirates of the Caribbean: At World's End"},
		{ID: 206647, Title: "Spectre"},
		{ID: 49026, Title: "The Dark Knight Rises"},
		{ID: 155, Title: "The Dark Knight"},
		{ID: 58, Title: "Pirates of the Caribbean: Dead Man's Chest"},
	}
}

func buildTestIndex(t *testing.T) *Index {
	t.Helper()
	x, err := Build(testItems())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	t.Cleanup(func() { x.Close() })
	return x
}

func TestSuggestEmptyQueryListsCatalogOrder(t *testing.T) {
	x := buildTestIndex(t)

	got, err := x.Suggest("", 3)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(got) != 3 || got[0].Title != "Avatar" || got[2].Title != "Spectre" {
		t.Errorf("Suggest(\"\") = %+v", got)
	}

	all, _ := x.Suggest("", 100)
	if len(all) != 6 {
		t.Errorf("Suggest(\"\", 100) returned %d titles, want 6", len(all))
	}
}

func TestSuggestPrefix(t *testing.T) {
	x := buildTestIndex(t)

	got, err := x.Suggest("pira", 10)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Suggest(pira) = %+v, want 2 pirates titles", got)
	}
	ids := map[int64]bool{got[0].MovieID: true, got[1].MovieID: true}
	if !ids[285] || !ids[58] {
		t.Errorf("Suggest(pira) = %+v", got)
	}
}

func TestSuggestTiesKeepCatalogOrder(t *testing.T) {
	x, err := Build([]catalog.Item{
		{ID: 3, Title: "Heat"},
		{ID: 2, Title: "Alien"},
		{ID: 1, Title: "Alien"},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer x.Close()

	got, err := x.Suggest("alien", 5)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(got) != 2 || got[0].MovieID != 2 || got[1].MovieID != 1 {
		t.Errorf("Suggest(alien) = %+v, want ids [2 1]", got)
	}
}

func TestSuggestFuzzy(t *testing.T) {
	x := buildTestIndex(t)

	got, err := x.Suggest("spectra", 5)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(got) == 0 || got[0].Title != "Spectre" {
		t.Errorf("Suggest(spectra) = %+v, want Spectre first", got)
	}
}

func TestSuggestLimit(t *testing.T) {
	x := buildTestIndex(t)

	got, err := x.Suggest("dark knight", 1)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Suggest() returned %d results, want 1", len(got))
	}

	none, err := x.Suggest("avatar", 0)
	if err != nil || none != nil {
		t.Errorf("Suggest(n=0) = %v, %v", none, err)
	}
}

func TestSuggestNoMatch(t *testing.T) {
	x := buildTestIndex(t)

	got, err := x.Suggest("zzzz", 5)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Suggest(zzzz) = %+v, want none", got)
	}
}
